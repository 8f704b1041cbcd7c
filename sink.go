package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	tm "github.com/buger/goterm"

	"github.com/itsjavi/mediaingest/internal/config"
	"github.com/itsjavi/mediaingest/internal/importer"
)

var spinnerFrames = []string{"|", "/", "-", "\\"}

// terminalSink prints run messages with the app prefix and draws a spinner for progress.
type terminalSink struct {
	mu       sync.Mutex
	out      io.Writer
	color    bool
	frame    int
	spinning bool
}

func newTerminalSink(out io.Writer) *terminalSink {
	return &terminalSink{out: out, color: isTerminal(out)}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	info, err := f.Stat()
	return err == nil && info.Mode()&os.ModeCharDevice != 0
}

func (s *terminalSink) Log(msg string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.clearSpinner()
	prefix := "[" + config.AppName + "] "
	if s.color {
		prefix = tm.Color(prefix, tm.CYAN)
		switch {
		case strings.HasPrefix(msg, "Warning"), strings.HasPrefix(msg, "Cannot"):
			msg = tm.Color(msg, tm.YELLOW)
		case strings.HasPrefix(msg, "Failed"):
			msg = tm.Color(msg, tm.RED)
		case strings.HasPrefix(msg, "NOT "):
			msg = tm.Color(msg, tm.MAGENTA)
		}
	}
	_, err := fmt.Fprintln(s.out, prefix+msg)
	return err
}

func (s *terminalSink) Progress(mode importer.ProgressMode) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch mode {
	case importer.ProgressStart:
		s.spinning = true
		s.frame = 0
	case importer.ProgressAdvance:
		if !s.spinning {
			return nil
		}
		s.frame = (s.frame + 1) % len(spinnerFrames)
	case importer.ProgressComplete:
		s.clearSpinner()
		s.spinning = false
		return nil
	}
	_, err := fmt.Fprintf(s.out, "\r%s", spinnerFrames[s.frame])
	return err
}

func (s *terminalSink) clearSpinner() {
	if !s.spinning {
		return
	}
	width := 2
	if s.color {
		if w := tm.Width(); w > width {
			width = w
		}
	}
	fmt.Fprintf(s.out, "\r%s\r", strings.Repeat(" ", width-1))
}
