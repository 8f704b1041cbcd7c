package main

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/itsjavi/mediaingest/internal/importer"
)

func TestTerminalSink_PrefixesMessages(t *testing.T) {
	var buf bytes.Buffer
	s := newTerminalSink(&buf)

	if err := s.Log("Found 2 images"); err != nil {
		t.Fatal(err)
	}
	if buf.String() != "[mediaingest] Found 2 images\n" {
		t.Fatalf("output: %q", buf.String())
	}
}

func TestTerminalSink_Spinner(t *testing.T) {
	var buf bytes.Buffer
	s := newTerminalSink(&buf)

	s.Progress(importer.ProgressAdvance)
	if buf.Len() != 0 {
		t.Fatalf("advance before start drew: %q", buf.String())
	}
	s.Progress(importer.ProgressStart)
	s.Progress(importer.ProgressAdvance)
	s.Progress(importer.ProgressAdvance)
	s.Log("hello")
	s.Progress(importer.ProgressComplete)

	out := buf.String()
	if !strings.HasPrefix(out, "\r|\r/\r-") {
		t.Fatalf("frames: %q", out)
	}
	if !strings.Contains(out, "\r \r[mediaingest] hello\n") {
		t.Fatalf("spinner not cleared before message: %q", out)
	}
}

type brokenWriter struct{}

func (brokenWriter) Write([]byte) (int, error) {
	return 0, errors.New("broken pipe")
}

func TestTerminalSink_WriteErrorMeansGone(t *testing.T) {
	s := newTerminalSink(brokenWriter{})
	if err := s.Log("x"); err == nil {
		t.Fatalf("expected error")
	}
	if err := s.Progress(importer.ProgressStart); err == nil {
		t.Fatalf("expected error")
	}
}
