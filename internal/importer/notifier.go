package importer

import (
	"sync"
	"time"
)

// closeTimeout bounds how long a finished run waits for a stalled sink.
const closeTimeout = 5 * time.Second

type notice struct {
	msg      string
	progress bool
	mode     ProgressMode
}

// notifier hands notices to a Sink on its own goroutine through an unbounded queue,
// so posting never blocks the worker.
type notifier struct {
	sink      Sink
	onGone    func(err error)
	closeWait time.Duration

	mu     sync.Mutex
	cond   *sync.Cond
	queue  []notice
	closed bool
	gone   bool
	done   chan struct{}
}

func newNotifier(sink Sink, onGone func(err error)) *notifier {
	n := &notifier{sink: sink, onGone: onGone, closeWait: closeTimeout, done: make(chan struct{})}
	n.cond = sync.NewCond(&n.mu)
	go n.loop()
	return n
}

func (n *notifier) log(msg string) {
	n.post(notice{msg: msg})
}

func (n *notifier) progress(mode ProgressMode) {
	n.post(notice{progress: true, mode: mode})
}

func (n *notifier) post(e notice) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.closed || n.gone {
		return
	}
	n.queue = append(n.queue, e)
	n.cond.Signal()
}

func (n *notifier) loop() {
	defer close(n.done)
	for {
		n.mu.Lock()
		for len(n.queue) == 0 && !n.closed {
			n.cond.Wait()
		}
		if len(n.queue) == 0 {
			n.mu.Unlock()
			return
		}
		e := n.queue[0]
		n.queue = n.queue[1:]
		n.mu.Unlock()

		var err error
		if e.progress {
			err = n.sink.Progress(e.mode)
		} else {
			err = n.sink.Log(e.msg)
		}
		if err != nil {
			n.mu.Lock()
			n.gone = true
			n.queue = nil
			n.mu.Unlock()
			if n.onGone != nil {
				n.onGone(err)
			}
		}
	}
}

// discard drops every queued notice that was not delivered yet.
func (n *notifier) discard() {
	n.mu.Lock()
	n.queue = nil
	n.mu.Unlock()
}

// close delivers what is queued and waits for the delivery goroutine to exit. A sink
// still blocked after closeWait is abandoned and the rest of the queue dropped.
func (n *notifier) close() {
	n.mu.Lock()
	n.closed = true
	n.cond.Signal()
	n.mu.Unlock()

	select {
	case <-n.done:
	case <-time.After(n.closeWait):
		n.mu.Lock()
		n.gone = true
		n.queue = nil
		n.mu.Unlock()
	}
}
