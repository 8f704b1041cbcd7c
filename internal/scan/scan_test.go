package scan

import (
	"context"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/itsjavi/mediaingest/internal/ledger"
	"github.com/itsjavi/mediaingest/internal/testutil"
)

type recorder struct {
	events []Event
}

func (r *recorder) visit(e Event) {
	r.events = append(r.events, e)
}

func (r *recorder) count(kind EventKind) int {
	n := 0
	for _, e := range r.events {
		if e.Kind == kind {
			n++
		}
	}
	return n
}

func touch(t *testing.T, path, content string) string {
	t.Helper()
	return testutil.WriteFile(t, path, []byte(content), time.Time{})
}

func collect(t *testing.T, s *Scanner) []string {
	t.Helper()
	var names []string
	for s.Scan() {
		names = append(names, s.Candidate().Name())
	}
	if err := s.Err(); err != nil {
		t.Fatalf("scan: %v", err)
	}
	return names
}

func TestScan_DepthFirstNameOrder(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "b.jpg"), "b")
	touch(t, filepath.Join(root, "a.mov"), "a")
	touch(t, filepath.Join(root, "notes.txt"), "n")
	touch(t, filepath.Join(root, "x", "x1.JPG"), "x1")
	touch(t, filepath.Join(root, "x", "deep", "d.mp4"), "d")
	touch(t, filepath.Join(root, "y", "y1.3gp"), "y1")

	got := collect(t, New(context.Background(), Request{Dirs: []string{root}}))
	want := []string{"a.mov", "b.jpg", "x1.JPG", "d.mp4", "y1.3gp"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestScan_SkipsOriginalsOncePerOccurrence(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "keep.jpg"), "k")
	touch(t, filepath.Join(root, "Originals", "hidden.jpg"), "h1")
	touch(t, filepath.Join(root, "album", "Originals", "hidden2.jpg"), "h2")
	touch(t, filepath.Join(root, "album", "shown.jpg"), "s")
	touch(t, filepath.Join(root, "album", ".picasaoriginals", "p.jpg"), "p")

	rec := &recorder{}
	got := collect(t, New(context.Background(), Request{
		Dirs:    []string{root},
		Skip:    []Rule{Exact("Originals"), Pattern(regexp.MustCompile(`^\.picasa`))},
		Visitor: rec.visit,
	}))

	if len(got) != 2 || got[0] != "keep.jpg" || got[1] != "shown.jpg" {
		t.Fatalf("candidates: %v", got)
	}
	if n := rec.count(EventSkip); n != 3 {
		t.Fatalf("want 3 skip events, got %d: %+v", n, rec.events)
	}
	for _, e := range rec.events {
		if e.Kind == EventDir && filepath.Base(e.Path) == "Originals" {
			t.Fatalf("skipped directory was entered: %s", e.Path)
		}
	}
}

func TestScan_ExplicitFilesFirstAndUnfiltered(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "a.jpg"), "a")
	named := touch(t, filepath.Join(t.TempDir(), "Originals", "chosen.jpg"), "c")

	got := collect(t, New(context.Background(), Request{
		Dirs:  []string{root},
		Files: []string{named, filepath.Join(root, "readme.txt")},
		Skip:  []Rule{Exact("Originals")},
	}))
	if len(got) != 2 || got[0] != "chosen.jpg" || got[1] != "a.jpg" {
		t.Fatalf("got %v", got)
	}
}

func TestScan_DirEventCounts(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "a.jpg"), "a")
	touch(t, filepath.Join(root, "b.txt"), "b")
	touch(t, filepath.Join(root, "sub", "c.jpg"), "c")

	rec := &recorder{}
	collect(t, New(context.Background(), Request{Dirs: []string{root}, Visitor: rec.visit}))

	first := rec.events[0]
	if first.Kind != EventDir || first.Path != root || first.Files != 2 || first.Dirs != 1 {
		t.Fatalf("root event: %+v", first)
	}
	if rec.count(EventDir) != 2 {
		t.Fatalf("want 2 dir events, got %+v", rec.events)
	}
}

func TestScan_ExcludesKnownFingerprints(t *testing.T) {
	root := t.TempDir()
	old := touch(t, filepath.Join(root, "old.jpg"), "already imported")
	touch(t, filepath.Join(root, "new.jpg"), "fresh")

	l := ledger.Open(filepath.Join(t.TempDir(), ledger.DefaultName))
	fp, err := ledger.FingerprintFile(old)
	if err != nil {
		t.Fatal(err)
	}
	if err := l.Remember(fp); err != nil {
		t.Fatal(err)
	}

	rec := &recorder{}
	got := collect(t, New(context.Background(), Request{Dirs: []string{root}, Ledger: l, SkipKnown: true, Visitor: rec.visit}))
	if len(got) != 1 || got[0] != "new.jpg" {
		t.Fatalf("got %v", got)
	}
	if rec.count(EventKnown) != 1 {
		t.Fatalf("want one known event: %+v", rec.events)
	}

	all := collect(t, New(context.Background(), Request{Dirs: []string{root}, Ledger: l, SkipKnown: false}))
	if len(all) != 2 {
		t.Fatalf("reinspect should yield both files, got %v", all)
	}
}

func TestScan_StopsOnCancel(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "a.jpg"), "a")
	touch(t, filepath.Join(root, "b.jpg"), "b")

	ctx, cancel := context.WithCancel(context.Background())
	s := New(ctx, Request{Dirs: []string{root}})
	if !s.Scan() {
		t.Fatalf("first scan: %v", s.Err())
	}
	cancel()
	if s.Scan() {
		t.Fatalf("scan continued after cancel")
	}
	if s.Err() != context.Canceled {
		t.Fatalf("err: %v", s.Err())
	}
}

func TestScan_UnreadableRootReported(t *testing.T) {
	rec := &recorder{}
	got := collect(t, New(context.Background(), Request{Dirs: []string{filepath.Join(t.TempDir(), "missing")}, Visitor: rec.visit}))
	if len(got) != 0 || rec.count(EventError) != 1 {
		t.Fatalf("got %v, events %+v", got, rec.events)
	}
}

func TestParseRule(t *testing.T) {
	r, err := ParseRule("re:^\\.")
	if err != nil || !r.Match(".hidden") || r.Match("visible") {
		t.Fatalf("pattern rule: %v %v", r, err)
	}
	r, err = ParseRule("Originals")
	if err != nil || !r.Match("Originals") || r.Match("originals") {
		t.Fatalf("exact rule: %v %v", r, err)
	}
	if _, err := ParseRule("re:("); err == nil {
		t.Fatalf("bad regexp should fail")
	}
	if _, err := ParseRule(""); err == nil {
		t.Fatalf("empty rule should fail")
	}
}

func TestSplit(t *testing.T) {
	dir := t.TempDir()
	file := touch(t, filepath.Join(dir, "a.jpg"), "a")
	dirs, files := Split([]string{dir, file})
	if len(dirs) != 1 || dirs[0] != dir || len(files) != 1 || files[0] != file {
		t.Fatalf("dirs %v files %v", dirs, files)
	}
}
