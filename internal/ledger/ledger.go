package ledger

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/itsjavi/mediaingest/internal/fs"
)

// DefaultName is the ledger file name used next to the running program.
const DefaultName = ".already_imported"

// Ledger is the durable set of fingerprints already ingested.
// It is owned by a single worker and does no locking.
type Ledger struct {
	path       string
	remembered map[Fingerprint]struct{}
	version    int
	degraded   error
}

// Open loads the ledger stored at path. A missing file yields an empty ledger.
// An unreadable or corrupt file also yields an empty ledger, but the ledger is then
// degraded: Degraded reports the cause and commits leave the file untouched.
func Open(path string) *Ledger {
	l := &Ledger{
		path:       path,
		remembered: make(map[Fingerprint]struct{}),
		version:    Version,
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return l
	}
	if err != nil {
		l.degraded = fmt.Errorf("read ledger %s: %w", path, err)
		return l
	}

	set, version, err := decode(data)
	if err != nil {
		l.degraded = fmt.Errorf("load ledger %s: %w", path, err)
		return l
	}
	l.remembered = set
	l.version = version
	return l
}

func (l *Ledger) Path() string {
	return l.path
}

// Degraded returns why the stored ledger could not be loaded, or nil.
func (l *Ledger) Degraded() error {
	return l.degraded
}

// LoadedVersion is the schema version the store was read from; 0 for a legacy store.
func (l *Ledger) LoadedVersion() int {
	return l.version
}

func (l *Ledger) Len() int {
	return len(l.remembered)
}

func (l *Ledger) Known(fp Fingerprint) bool {
	_, ok := l.remembered[fp]
	return ok
}

// Remember adds fp and persists the ledger right away. Remembering a known fingerprint
// is a no-op.
func (l *Ledger) Remember(fp Fingerprint) error {
	if l.Known(fp) {
		return nil
	}
	l.remembered[fp] = struct{}{}
	return l.Commit()
}

// Forget removes fp in memory only; call Commit after a batch of forgets.
// It reports whether fp was known.
func (l *Ledger) Forget(fp Fingerprint) bool {
	if !l.Known(fp) {
		return false
	}
	delete(l.remembered, fp)
	return true
}

// Commit writes the whole set to disk, replacing the previous store atomically.
func (l *Ledger) Commit() error {
	if l.degraded != nil {
		return nil
	}
	dir, name := filepath.Split(l.path)
	if dir == "" {
		dir = "."
	}
	if err := fs.WriteFileAtomic(dir, name, encode(l.remembered)); err != nil {
		return fmt.Errorf("commit ledger %s: %w", l.path, err)
	}
	l.version = Version
	return nil
}
