// Package importer runs one import or forget pass over a set of sources.
package importer

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/itsjavi/mediaingest/internal/copier"
	"github.com/itsjavi/mediaingest/internal/ledger"
	"github.com/itsjavi/mediaingest/internal/metadata"
	"github.com/itsjavi/mediaingest/internal/scan"
)

const (
	Quiet = iota
	Normal
	Detailed
)

var (
	ErrAlreadyExecuted = errors.New("import run already executed")
	ErrNoDestination   = errors.New("no destination configured")
)

type Options struct {
	DryRun              bool
	Verbosity           int
	SkipAlreadyImported bool
	Forget              bool
}

type Config struct {
	// Sources mixes directories and single files.
	Sources []string
	// Destinations are absolute roots; every candidate goes to each of them.
	Destinations []string
	Skip         []scan.Rule
	Options
}

// Ledger is the dedup store a run reads and updates.
type Ledger interface {
	Known(fp ledger.Fingerprint) bool
	Remember(fp ledger.Fingerprint) error
	Forget(fp ledger.Fingerprint) bool
	Commit() error
}

// Recorder keeps a history of imported candidates.
type Recorder interface {
	Record(c *metadata.Candidate, dests []string) error
}

type Deps struct {
	Ledger     Ledger
	Classifier *metadata.Classifier
	Sink       Sink
	Catalog    Recorder
}

type Summary struct {
	State State
	// Found counts candidates surviving the scan.
	Found int
	// Dated counts candidates with a shot date.
	Dated int
	// Copied and AlreadyPresent count candidate and destination pairs.
	// In dry-run mode Copied counts the copies that would be made.
	Copied         int
	AlreadyPresent int
	// Bytes sums the sizes behind Copied.
	Bytes int64
	// Skipped counts candidates left out by a non-fatal error.
	Skipped   int
	Forgotten int
	Forget    bool
	Elapsed   time.Duration
	Err       error
}

// Run is a single pass. Execute runs it on the calling goroutine; Interrupt may be
// called from anywhere.
type Run struct {
	cfg    Config
	deps   Deps
	engine *copier.Engine

	interrupted atomic.Bool
	mu          sync.Mutex
	state       State
	cancel      context.CancelFunc
	executed    bool

	notify    *notifier
	summary   Summary
	announced map[string]bool
}

func New(cfg Config, deps Deps) *Run {
	if deps.Sink == nil {
		deps.Sink = discardSink{}
	}
	if deps.Classifier == nil {
		deps.Classifier = &metadata.Classifier{}
	}
	return &Run{
		cfg:       cfg,
		deps:      deps,
		engine:    copier.New(cfg.DryRun),
		state:     Idle,
		announced: make(map[string]bool),
	}
}

func (r *Run) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Interrupt asks the run to stop at its next file or directory step. Once
// interrupted the run emits nothing further.
func (r *Run) Interrupt() {
	r.interrupted.Store(true)
	r.mu.Lock()
	cancel, notify := r.cancel, r.notify
	r.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	if notify != nil {
		notify.discard()
	}
}

func (r *Run) setState(to State) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.state.CanTransition(to) {
		panic(fmt.Sprintf("importer: illegal transition %s -> %s", r.state, to))
	}
	r.state = to
}

func (r *Run) Execute(ctx context.Context) Summary {
	r.mu.Lock()
	if r.executed {
		r.mu.Unlock()
		return Summary{State: r.State(), Err: ErrAlreadyExecuted}
	}
	r.executed = true
	ctx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	r.notify = newNotifier(r.deps.Sink, func(error) { r.Interrupt() })
	r.mu.Unlock()
	defer cancel()

	start := time.Now()
	r.summary.Forget = r.cfg.Forget

	if r.interrupted.Load() {
		cancel()
	}
	if ctx.Err() != nil {
		r.interrupt()
	} else if r.cfg.Forget {
		r.forget(ctx)
	} else {
		r.importAll(ctx)
	}

	r.summary.State = r.State()
	r.summary.Elapsed = time.Since(start)
	if r.summary.State == Done {
		r.log(Quiet, "All done! %s", r.summary)
	}
	r.notify.close()
	return r.summary
}

func (r *Run) stopped(ctx context.Context) bool {
	return ctx.Err() != nil || r.interrupted.Load()
}

func (r *Run) fail(err error) {
	r.summary.Err = err
	r.setState(Failed)
	r.log(Quiet, "Failed: %v", err)
}

func (r *Run) interrupt() {
	r.interrupted.Store(true)
	r.setState(Interrupted)
	r.summary.Err = copier.ErrInterrupted
}

func (r *Run) log(level int, format string, args ...interface{}) {
	if r.cfg.Verbosity < level || r.interrupted.Load() {
		return
	}
	r.notify.log(fmt.Sprintf(format, args...))
}

// dlog logs an action that dry-run mode only pretends to perform.
func (r *Run) dlog(level int, format string, args ...interface{}) {
	if r.cfg.DryRun {
		format = "NOT " + format
	}
	r.log(level, format, args...)
}

func (r *Run) progress(mode ProgressMode) {
	if r.interrupted.Load() {
		return
	}
	r.notify.progress(mode)
}

func (r *Run) warnDegradedLedger() {
	d, ok := r.deps.Ledger.(interface{ Degraded() error })
	if !ok || d.Degraded() == nil {
		return
	}
	r.log(Quiet, "Warning: %v; starting with an empty ledger, the stored one is left untouched", d.Degraded())
}

func (r *Run) scanner(ctx context.Context, skipKnown bool) *scan.Scanner {
	dirs, files := scan.Split(r.cfg.Sources)
	return scan.New(ctx, scan.Request{
		Dirs:      dirs,
		Files:     files,
		Skip:      r.cfg.Skip,
		Ledger:    r.deps.Ledger,
		SkipKnown: skipKnown && r.deps.Ledger != nil,
		Visitor:   r.visit,
	})
}

func (r *Run) visit(e scan.Event) {
	switch e.Kind {
	case scan.EventDir:
		r.progress(ProgressAdvance)
		r.log(Detailed, "Scanning %s (%d files, %d dirs)", e.Path, e.Files, e.Dirs)
	case scan.EventSkip:
		r.log(Normal, "Skipping dir %s", e.Path)
	case scan.EventKnown:
		r.log(Detailed, "%s already imported", e.Path)
	case scan.EventError:
		r.log(Normal, "Cannot read %s: %v", e.Path, e.Err)
	}
}

func (r *Run) importAll(ctx context.Context) {
	r.warnDegradedLedger()
	r.setState(Scanning)
	if len(r.cfg.Destinations) == 0 {
		r.fail(ErrNoDestination)
		return
	}
	r.log(Normal, "Importing photos from %s", strings.Join(r.cfg.Sources, ", "))

	r.progress(ProgressStart)
	var found []*metadata.Candidate
	s := r.scanner(ctx, r.cfg.SkipAlreadyImported)
	for s.Scan() {
		r.progress(ProgressAdvance)
		found = append(found, s.Candidate())
	}
	r.progress(ProgressComplete)
	if s.Err() != nil || r.stopped(ctx) {
		r.interrupt()
		return
	}
	r.summary.Found = len(found)
	r.log(Normal, "Found %s, now getting shot date info", plural(len(found), "image"))

	r.setState(GroupingByDate)
	groups, ok := r.group(ctx, found)
	if !ok {
		r.interrupt()
		return
	}
	r.log(Normal, "Found shot date info of %s", plural(r.summary.Dated, "image"))

	r.setState(Copying)
	if err := r.copyAll(ctx, groups); err != nil {
		if copier.IsInterrupted(err) {
			r.interrupt()
			return
		}
		r.fail(err)
		return
	}
	r.setState(Done)
}

type dateGroup struct {
	date  metadata.ShotDate
	files []*metadata.Candidate
}

func (r *Run) group(ctx context.Context, found []*metadata.Candidate) ([]dateGroup, bool) {
	r.progress(ProgressStart)
	defer r.progress(ProgressComplete)

	byDate := make(map[metadata.ShotDate]*dateGroup)
	for _, c := range found {
		if r.stopped(ctx) {
			return nil, false
		}
		r.progress(ProgressAdvance)
		class, err := c.Classify(r.deps.Classifier)
		if err != nil {
			r.log(Detailed, "No shot date for %s: %v", c.Path, err)
			continue
		}
		r.log(Detailed, "%s taken %s (%s)", c.Path, class.Date, class.Source)
		r.summary.Dated++

		g, ok := byDate[class.Date]
		if !ok {
			g = &dateGroup{date: class.Date}
			byDate[class.Date] = g
		}
		g.files = append(g.files, c)
	}

	groups := make([]dateGroup, 0, len(byDate))
	for _, g := range byDate {
		groups = append(groups, *g)
	}
	sort.Slice(groups, func(i, j int) bool {
		return groups[i].date.Less(groups[j].date)
	})
	return groups, true
}

func (r *Run) copyAll(ctx context.Context, groups []dateGroup) error {
	total := r.summary.Dated
	n := 0
	for _, g := range groups {
		for _, c := range g.files {
			n++
			if r.stopped(ctx) {
				return copier.ErrInterrupted
			}
			if err := r.copyOne(ctx, c, n, total); err != nil {
				return err
			}
		}
	}
	return nil
}

// copyOne fans c out to every destination. The ledger learns its fingerprint only when
// every destination holds the file.
func (r *Run) copyOne(ctx context.Context, c *metadata.Candidate, n, total int) error {
	var dests []string
	complete := true
	for _, root := range r.cfg.Destinations {
		res, err := r.engine.CopyTo(ctx, c, root)
		if res.CreatedDir && !r.announced[res.Dir] {
			r.announced[res.Dir] = true
			r.dlog(Normal, "Creating directory %s", res.Dir)
		}
		if err != nil {
			if copier.IsFatal(err) || copier.IsInterrupted(err) {
				return err
			}
			r.log(Normal, "Cannot import [%d of %d] %s: %v", n, total, c.Path, err)
			complete = false
			continue
		}
		dests = append(dests, res.Path)
		if res.AlreadyPresent {
			r.summary.AlreadyPresent++
			r.log(Detailed, "Photo [%d of %d] %s already imported", n, total, c.Path)
			continue
		}
		r.summary.Copied++
		r.summary.Bytes += c.Probe.Size()
		r.dlog(Normal, "Importing photo [%d of %d] %s -> %s", n, total, c.Path, res.Path)
	}

	if !complete {
		r.summary.Skipped++
		return nil
	}
	if r.cfg.DryRun {
		return nil
	}

	if r.deps.Ledger != nil {
		fp, err := c.Fingerprint()
		if err != nil {
			r.summary.Skipped++
			r.log(Normal, "Cannot fingerprint %s: %v", c.Path, err)
			return nil
		}
		if err := r.deps.Ledger.Remember(fp); err != nil {
			return fmt.Errorf("remember %s: %w", c.Path, err)
		}
	}
	if r.deps.Catalog != nil {
		if err := r.deps.Catalog.Record(c, dests); err != nil {
			r.log(Normal, "Warning: catalog: %v", err)
		}
	}
	return nil
}

// forget removes the fingerprints of the matched sources from the ledger.
// Destination files are left alone.
func (r *Run) forget(ctx context.Context) {
	r.setState(Scanning)
	if r.deps.Ledger == nil {
		r.fail(errors.New("forget needs a ledger"))
		return
	}
	r.warnDegradedLedger()
	r.log(Normal, "Forgetting photos from %s", strings.Join(r.cfg.Sources, ", "))

	r.progress(ProgressStart)
	s := r.scanner(ctx, false)
	for s.Scan() {
		r.progress(ProgressAdvance)
		c := s.Candidate()
		r.summary.Found++
		fp, err := c.Fingerprint()
		if err != nil {
			r.summary.Skipped++
			r.log(Normal, "Cannot fingerprint %s: %v", c.Path, err)
			continue
		}
		if !r.deps.Ledger.Known(fp) {
			continue
		}
		if !r.cfg.DryRun {
			r.deps.Ledger.Forget(fp)
		}
		r.summary.Forgotten++
		r.dlog(Detailed, "Forgetting %s", c.Path)
	}
	r.progress(ProgressComplete)
	if s.Err() != nil || r.stopped(ctx) {
		r.interrupt()
		return
	}

	if !r.cfg.DryRun && r.summary.Forgotten > 0 {
		if err := r.deps.Ledger.Commit(); err != nil {
			r.fail(err)
			return
		}
	}
	r.dlog(Normal, "Forgot %d of %s", r.summary.Forgotten, plural(r.summary.Found, "image"))
	r.setState(Done)
}

func plural(n int, noun string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, noun)
	}
	return fmt.Sprintf("%d %ss", n, noun)
}

func (s Summary) String() string {
	if s.Forget {
		return fmt.Sprintf("%d found, %d forgotten in %s", s.Found, s.Forgotten, s.Elapsed.Round(time.Millisecond))
	}
	return fmt.Sprintf("%d found, %d dated, %d copied, %d already present in %s",
		s.Found, s.Dated, s.Copied, s.AlreadyPresent, s.Elapsed.Round(time.Millisecond))
}
