package importer

// ProgressMode drives a busy indicator; it carries no percentage.
type ProgressMode int

const (
	ProgressStart ProgressMode = iota
	ProgressAdvance
	ProgressComplete
)

func (m ProgressMode) String() string {
	switch m {
	case ProgressStart:
		return "start"
	case ProgressAdvance:
		return "advance"
	}
	return "complete"
}

// Sink receives the messages and progress of a run. Calls come from a single delivery
// goroutine, never from the worker. Returning an error tells the run that the observer
// is gone, which interrupts it.
type Sink interface {
	Log(msg string) error
	Progress(mode ProgressMode) error
}

type discardSink struct{}

func (discardSink) Log(string) error            { return nil }
func (discardSink) Progress(ProgressMode) error { return nil }
