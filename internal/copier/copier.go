// Package copier places media files into date-partitioned destination trees.
package copier

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/dustin/go-humanize"
	"github.com/ztrue/tracerr"

	"github.com/itsjavi/mediaingest/internal/fs"
	"github.com/itsjavi/mediaingest/internal/metadata"
)

const (
	// MaxAttempts bounds the verified copy retries for one file and destination.
	MaxAttempts = 10
	// MaxNameSuffix bounds the _N names tried when a different file holds the name.
	MaxNameSuffix = 99

	partSuffix = ".part"
)

var (
	ErrOutOfSpace       = errors.New("not enough free space")
	ErrRetriesExhausted = errors.New("copy retries exhausted")
	ErrInterrupted      = errors.New("interrupted")
	ErrNoFreeName       = errors.New("no free destination name")
	ErrSourceUnreadable = errors.New("source unreadable")
	ErrUndated          = errors.New("candidate has no shot date")
)

// IsFatal reports whether err must abort the whole run.
func IsFatal(err error) bool {
	err = tracerr.Unwrap(err)
	return errors.Is(err, ErrOutOfSpace) || errors.Is(err, ErrRetriesExhausted)
}

func IsOutOfSpace(err error) bool {
	return errors.Is(tracerr.Unwrap(err), ErrOutOfSpace)
}

func IsInterrupted(err error) bool {
	return errors.Is(tracerr.Unwrap(err), ErrInterrupted)
}

type Result struct {
	// Path is the destination file, or the path it would have in dry-run mode.
	Path string
	Dir  string
	// CreatedDir is set when Dir did not exist; in dry-run mode it was not created.
	CreatedDir     bool
	AlreadyPresent bool
	DryRun         bool
	Attempts       int
}

// Engine copies candidates into destRoot/YY/YY_MM_DD. An Engine is used by a single worker.
type Engine struct {
	DryRun bool

	// CopyFile and FreeSpace default to the fs package; tests swap them to inject faults.
	CopyFile  func(src, dest string) error
	FreeSpace func(dir string) int64
}

func New(dryRun bool) *Engine {
	return &Engine{
		DryRun:    dryRun,
		CopyFile:  fs.CopyFile,
		FreeSpace: fs.FreeSpace,
	}
}

// DestDir is the date partition of date below destRoot.
func DestDir(destRoot string, date metadata.ShotDate) string {
	return filepath.Join(destRoot, date.YearDir(), date.DirName())
}

// CopyTo places c below destRoot. The candidate must have been classified.
//
// A file of the same name and size already in place means the candidate is already
// present. A same-named file of a different size is another picture, so the first
// free name among name_1.ext .. name_99.ext is used instead.
func (e *Engine) CopyTo(ctx context.Context, c *metadata.Candidate, destRoot string) (Result, error) {
	date := c.Date()
	if date.IsZero() {
		return Result{}, fmt.Errorf("%s: %w", c.Path, ErrUndated)
	}

	res := Result{Dir: DestDir(destRoot, date), DryRun: e.DryRun}
	if !fs.IsDir(res.Dir) {
		res.CreatedDir = true
		if !e.DryRun {
			if err := fs.MakeDirIfNotExists(res.Dir); err != nil {
				return res, fmt.Errorf("create %s: %w", res.Dir, err)
			}
		}
	}

	size := c.Probe.Size()
	name, present, err := freeName(res.Dir, c.Name(), size)
	if err != nil {
		return res, fmt.Errorf("%s: %w", c.Path, err)
	}
	res.Path = filepath.Join(res.Dir, name)
	if present {
		res.AlreadyPresent = true
		return res, nil
	}
	if e.DryRun {
		return res, nil
	}

	var lastErr error
	for res.Attempts < MaxAttempts {
		if ctx.Err() != nil {
			return res, tracerr.Wrap(fmt.Errorf("copy %s: %w", c.Path, ErrInterrupted))
		}
		if free := e.FreeSpace(res.Dir); free != fs.Unknown && free < size {
			return res, tracerr.Wrap(fmt.Errorf("copy %s to %s: %w: need %s, %s available",
				c.Path, res.Dir, ErrOutOfSpace, humanize.IBytes(uint64(size)), humanize.IBytes(uint64(free))))
		}

		res.Attempts++
		lastErr = e.attempt(c.Path, res.Path, size)
		if lastErr == nil {
			return res, nil
		}
		if errors.Is(lastErr, syscall.ENOSPC) {
			return res, tracerr.Wrap(fmt.Errorf("copy %s to %s: %w: %v", c.Path, res.Dir, ErrOutOfSpace, lastErr))
		}
		if sourceUnreadable(c.Path, lastErr) {
			return res, fmt.Errorf("copy %s: %w: %v", c.Path, ErrSourceUnreadable, lastErr)
		}
	}
	return res, tracerr.Wrap(fmt.Errorf("copy %s to %s: %w after %d attempts: %v",
		c.Path, res.Path, ErrRetriesExhausted, res.Attempts, lastErr))
}

// attempt copies src next to dest, checks the size and renames it into place.
// A failed attempt leaves nothing behind.
func (e *Engine) attempt(src, dest string, size int64) error {
	part := dest + partSuffix
	if err := e.CopyFile(src, part); err != nil {
		_ = os.Remove(part)
		return err
	}
	if got := fs.NewProbe(part).Size(); got != size {
		_ = os.Remove(part)
		return fmt.Errorf("size mismatch: copied %d of %d bytes", got, size)
	}
	if err := os.Rename(part, dest); err != nil {
		_ = os.Remove(part)
		return err
	}
	return nil
}

// sourceUnreadable reports whether a failed attempt was caused by the source itself:
// it vanished, or opening or reading it failed. Retrying cannot help then.
func sourceUnreadable(src string, err error) bool {
	var pathErr *os.PathError
	if errors.As(err, &pathErr) && pathErr.Path == src {
		return true
	}
	_, statErr := os.Stat(src)
	return statErr != nil
}

// freeName returns the name to use in dir for a file of the given size, and whether
// an identical-size file already holds it.
func freeName(dir, name string, size int64) (string, bool, error) {
	ext := filepath.Ext(name)
	base := strings.TrimSuffix(name, ext)
	for i := 0; i <= MaxNameSuffix; i++ {
		candidate := name
		if i > 0 {
			candidate = fmt.Sprintf("%s_%d%s", base, i, ext)
		}
		p := fs.NewProbe(filepath.Join(dir, candidate))
		if !p.Exists() {
			return candidate, false, nil
		}
		if p.IsFile() && p.Size() == size {
			return candidate, true, nil
		}
	}
	return "", false, ErrNoFreeName
}
