package scan

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/itsjavi/mediaingest/internal/fs"
	"github.com/itsjavi/mediaingest/internal/ledger"
	"github.com/itsjavi/mediaingest/internal/metadata"
)

type EventKind int

const (
	// EventDir fires when a directory is entered.
	EventDir EventKind = iota
	// EventSkip fires once for every subdirectory excluded by a skip rule.
	EventSkip
	// EventKnown fires for a file dropped because its fingerprint is in the ledger.
	EventKnown
	// EventError fires for an unreadable directory or file; the scan goes on.
	EventError
)

func (k EventKind) String() string {
	switch k {
	case EventDir:
		return "dir"
	case EventSkip:
		return "skip"
	case EventKnown:
		return "known"
	}
	return "error"
}

type Event struct {
	Kind  EventKind
	Path  string
	Files int
	Dirs  int
	Err   error
}

type Visitor func(Event)

// KnownSet is the part of the ledger a scan needs.
type KnownSet interface {
	Known(fp ledger.Fingerprint) bool
}

type Request struct {
	Dirs  []string
	Files []string
	Skip  []Rule

	Ledger    KnownSet
	SkipKnown bool

	Visitor Visitor
}

// Scanner yields media candidates one at a time: first the explicit files, then the
// files found walking each directory depth-first in name order.
//
//	s := scan.New(ctx, req)
//	for s.Scan() {
//		c := s.Candidate()
//	}
//	if err := s.Err(); err != nil {
//	}
type Scanner struct {
	ctx context.Context
	req Request

	files   []string
	roots   []string
	pending []string

	current *metadata.Candidate
	err     error
}

func New(ctx context.Context, req Request) *Scanner {
	s := &Scanner{
		ctx:   ctx,
		req:   req,
		files: append([]string(nil), req.Files...),
	}
	for i := len(req.Dirs) - 1; i >= 0; i-- {
		s.roots = append(s.roots, req.Dirs[i])
	}
	return s
}

func (s *Scanner) Candidate() *metadata.Candidate {
	return s.current
}

// Err returns the error that stopped the scan, typically a cancelled context.
func (s *Scanner) Err() error {
	return s.err
}

func (s *Scanner) Scan() bool {
	s.current = nil
	if s.err != nil {
		return false
	}
	for {
		if err := s.ctx.Err(); err != nil {
			s.err = err
			return false
		}

		if len(s.files) > 0 {
			path := s.files[0]
			s.files = s.files[1:]
			if c := s.accept(path); c != nil {
				s.current = c
				return true
			}
			continue
		}

		if len(s.pending) > 0 {
			path := s.pending[0]
			s.pending = s.pending[1:]
			if c := s.accept(path); c != nil {
				s.current = c
				return true
			}
			continue
		}

		if len(s.roots) == 0 {
			return false
		}
		dir := s.roots[len(s.roots)-1]
		s.roots = s.roots[:len(s.roots)-1]
		s.enter(dir)
	}
}

// enter lists dir, queues its media files and pushes the subdirectories that pass
// the skip rules so that the first name is visited next.
func (s *Scanner) enter(dir string) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		s.emit(Event{Kind: EventError, Path: dir, Err: fmt.Errorf("read dir %s: %w", dir, err)})
		return
	}

	var files, subdirs []string
	for _, e := range entries {
		path := filepath.Join(dir, e.Name())
		if e.IsDir() {
			subdirs = append(subdirs, path)
			continue
		}
		files = append(files, path)
	}
	s.emit(Event{Kind: EventDir, Path: dir, Files: len(files), Dirs: len(subdirs)})

	for _, path := range files {
		if metadata.IsMedia(path) {
			s.pending = append(s.pending, path)
		}
	}
	for i := len(subdirs) - 1; i >= 0; i-- {
		if matchAny(s.req.Skip, filepath.Base(subdirs[i])) {
			continue
		}
		s.roots = append(s.roots, subdirs[i])
	}
	for _, sub := range subdirs {
		if matchAny(s.req.Skip, filepath.Base(sub)) {
			s.emit(Event{Kind: EventSkip, Path: sub})
		}
	}
}

func (s *Scanner) accept(path string) *metadata.Candidate {
	if !metadata.IsMedia(path) {
		return nil
	}
	c := metadata.NewCandidate(path)
	if !c.Probe.IsFile() {
		s.emit(Event{Kind: EventError, Path: path, Err: fmt.Errorf("%s: not a readable file", path)})
		return nil
	}
	if !s.req.SkipKnown || s.req.Ledger == nil {
		return c
	}

	fp, err := c.Fingerprint()
	if err != nil {
		s.emit(Event{Kind: EventError, Path: path, Err: err})
		return nil
	}
	if s.req.Ledger.Known(fp) {
		s.emit(Event{Kind: EventKnown, Path: path})
		return nil
	}
	return c
}

func (s *Scanner) emit(e Event) {
	if s.req.Visitor != nil {
		s.req.Visitor(e)
	}
}

// Split separates source paths into directories and files.
func Split(sources []string) (dirs, files []string) {
	for _, src := range sources {
		if fs.IsDir(src) {
			dirs = append(dirs, src)
		} else {
			files = append(files, src)
		}
	}
	return dirs, files
}
