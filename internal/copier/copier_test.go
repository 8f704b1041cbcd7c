package copier

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ztrue/tracerr"

	"github.com/itsjavi/mediaingest/internal/fs"
	"github.com/itsjavi/mediaingest/internal/metadata"
	"github.com/itsjavi/mediaingest/internal/testutil"
)

var shot = time.Date(2019, time.May, 1, 10, 20, 30, 0, time.Local)

// candidate writes a dated source file and classifies it by modification time.
func candidate(t *testing.T, name, content string) *metadata.Candidate {
	t.Helper()
	path := testutil.WriteFile(t, filepath.Join(t.TempDir(), name), []byte(content), shot)
	c := metadata.NewCandidate(path)
	if _, err := c.Classify(&metadata.Classifier{}); err != nil {
		t.Fatal(err)
	}
	return c
}

func read(t *testing.T, path string) string {
	t.Helper()
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	return string(b)
}

func assertNoPart(t *testing.T, dir string) {
	t.Helper()
	entries, _ := os.ReadDir(dir)
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), partSuffix) {
			t.Fatalf("partial file left: %s", e.Name())
		}
	}
}

func TestCopyTo_DatePartitionedAndVerified(t *testing.T) {
	c := candidate(t, "holiday.jpg", "picture bytes")
	dest := t.TempDir()

	res, err := New(false).CopyTo(context.Background(), c, dest)
	if err != nil {
		t.Fatal(err)
	}
	want := filepath.Join(dest, "19", "19_05_01", "holiday.jpg")
	if res.Path != want || !res.CreatedDir || res.AlreadyPresent || res.Attempts != 1 {
		t.Fatalf("result: %+v", res)
	}
	if read(t, want) != "picture bytes" {
		t.Fatalf("content mismatch")
	}
	info, _ := os.Stat(want)
	if !info.ModTime().Equal(shot) {
		t.Fatalf("mtime not preserved: %v", info.ModTime())
	}
	assertNoPart(t, res.Dir)
}

func TestCopyTo_SameSizeIsAlreadyPresent(t *testing.T) {
	c := candidate(t, "holiday.jpg", "picture bytes")
	dest := t.TempDir()
	e := New(false)

	if _, err := e.CopyTo(context.Background(), c, dest); err != nil {
		t.Fatal(err)
	}
	res, err := e.CopyTo(context.Background(), c, dest)
	if err != nil {
		t.Fatal(err)
	}
	if !res.AlreadyPresent || res.CreatedDir || res.Attempts != 0 {
		t.Fatalf("result: %+v", res)
	}
}

func TestCopyTo_DifferentSizeGetsSuffix(t *testing.T) {
	c := candidate(t, "IMG_0001.jpg", "second camera picture")
	dest := t.TempDir()
	dir := DestDir(dest, c.Date())
	testutil.WriteFile(t, filepath.Join(dir, "IMG_0001.jpg"), []byte("first"), time.Time{})

	res, err := New(false).CopyTo(context.Background(), c, dest)
	if err != nil {
		t.Fatal(err)
	}
	if filepath.Base(res.Path) != "IMG_0001_1.jpg" || res.AlreadyPresent {
		t.Fatalf("result: %+v", res)
	}
	if read(t, filepath.Join(dir, "IMG_0001.jpg")) != "first" {
		t.Fatalf("existing file was touched")
	}

	again, err := New(false).CopyTo(context.Background(), c, dest)
	if err != nil {
		t.Fatal(err)
	}
	if !again.AlreadyPresent || again.Path != res.Path {
		t.Fatalf("suffixed copy not recognized: %+v", again)
	}
}

func TestCopyTo_DryRunWritesNothing(t *testing.T) {
	c := candidate(t, "holiday.jpg", "picture bytes")
	dest := t.TempDir()

	res, err := New(true).CopyTo(context.Background(), c, dest)
	if err != nil {
		t.Fatal(err)
	}
	if !res.DryRun || !res.CreatedDir || res.Attempts != 0 {
		t.Fatalf("result: %+v", res)
	}
	if fs.PathExists(filepath.Join(dest, "19")) {
		t.Fatalf("dry run created directories")
	}
}

func TestCopyTo_OutOfSpaceLeavesNoPartialFile(t *testing.T) {
	c := candidate(t, "holiday.jpg", "picture bytes")
	dest := t.TempDir()

	e := New(false)
	copies := 0
	e.CopyFile = func(src, dst string) error {
		copies++
		return fs.CopyFile(src, dst)
	}
	e.FreeSpace = func(string) int64 { return 0 }

	res, err := e.CopyTo(context.Background(), c, dest)
	if !IsOutOfSpace(err) || !IsFatal(err) {
		t.Fatalf("want fatal out of space, got %v", err)
	}
	if copies != 0 {
		t.Fatalf("copy attempted %d times", copies)
	}
	if fs.PathExists(res.Path) {
		t.Fatalf("partial destination file exists")
	}
	assertNoPart(t, res.Dir)
}

func TestCopyTo_UnknownFreeSpaceSkipsCheck(t *testing.T) {
	c := candidate(t, "holiday.jpg", "picture bytes")
	e := New(false)
	e.FreeSpace = func(string) int64 { return fs.Unknown }

	if _, err := e.CopyTo(context.Background(), c, t.TempDir()); err != nil {
		t.Fatal(err)
	}
}

func TestCopyTo_TransientFailureRecovers(t *testing.T) {
	c := candidate(t, "clip.mov", "video bytes")
	e := New(false)
	calls := 0
	e.CopyFile = func(src, dst string) error {
		calls++
		if calls < 3 {
			// short write: the size check must reject it
			return os.WriteFile(dst, []byte("vid"), fs.FilePerms)
		}
		return fs.CopyFile(src, dst)
	}

	res, err := e.CopyTo(context.Background(), c, t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if res.Attempts != 3 || read(t, res.Path) != "video bytes" {
		t.Fatalf("result: %+v", res)
	}
	assertNoPart(t, res.Dir)
}

func TestCopyTo_RetriesExhausted(t *testing.T) {
	c := candidate(t, "clip.mov", "video bytes")
	e := New(false)
	calls := 0
	e.CopyFile = func(src, dst string) error {
		calls++
		return errors.New("device hiccup")
	}

	res, err := e.CopyTo(context.Background(), c, t.TempDir())
	if !IsFatal(err) || !errors.Is(tracerr.Unwrap(err), ErrRetriesExhausted) {
		t.Fatalf("want retries exhausted, got %v", err)
	}
	if calls != MaxAttempts || res.Attempts != MaxAttempts {
		t.Fatalf("attempts: calls=%d result=%d", calls, res.Attempts)
	}
	if fs.PathExists(res.Path) {
		t.Fatalf("destination should not exist")
	}
	assertNoPart(t, res.Dir)
}

func TestCopyTo_VanishedSourceIsNotRetried(t *testing.T) {
	c := candidate(t, "clip.mov", "video bytes")
	if err := os.Remove(c.Path); err != nil {
		t.Fatal(err)
	}

	res, err := New(false).CopyTo(context.Background(), c, t.TempDir())
	if !errors.Is(err, ErrSourceUnreadable) || IsFatal(err) {
		t.Fatalf("want non-fatal unreadable source, got %v", err)
	}
	if res.Attempts != 1 {
		t.Fatalf("attempts: %d", res.Attempts)
	}
	if fs.PathExists(res.Path) {
		t.Fatalf("destination should not exist")
	}
	assertNoPart(t, res.Dir)
}

func TestCopyTo_PermissionDeniedSourceIsNotRetried(t *testing.T) {
	c := candidate(t, "clip.mov", "video bytes")
	e := New(false)
	calls := 0
	e.CopyFile = func(src, dst string) error {
		calls++
		return &os.PathError{Op: "open", Path: src, Err: os.ErrPermission}
	}

	_, err := e.CopyTo(context.Background(), c, t.TempDir())
	if !errors.Is(err, ErrSourceUnreadable) || IsFatal(err) {
		t.Fatalf("want non-fatal unreadable source, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("copy attempted %d times", calls)
	}
}

func TestCopyTo_Interrupted(t *testing.T) {
	c := candidate(t, "clip.mov", "video bytes")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := New(false).CopyTo(ctx, c, t.TempDir())
	if !IsInterrupted(err) || IsFatal(err) {
		t.Fatalf("want interrupted, got %v", err)
	}
	if fs.PathExists(res.Path) {
		t.Fatalf("nothing should be copied")
	}
}

func TestCopyTo_RequiresDate(t *testing.T) {
	path := testutil.WriteFile(t, filepath.Join(t.TempDir(), "a.jpg"), []byte("x"), time.Time{})
	_, err := New(false).CopyTo(context.Background(), metadata.NewCandidate(path), t.TempDir())
	if !errors.Is(err, ErrUndated) {
		t.Fatalf("got %v", err)
	}
}
