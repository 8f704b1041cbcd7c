package metadata

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/itsjavi/mediaingest/internal/fs"
	"github.com/itsjavi/mediaingest/internal/ledger"
)

// Candidate is one media file found by a scan. Its shot date and fingerprint are
// computed at most once.
type Candidate struct {
	Dir    string
	Base   string
	Suffix string
	Path   string
	Probe  *fs.Probe

	classified bool
	class      Classification
	classErr   error

	fingerprinted bool
	fp            ledger.Fingerprint
	fpErr         error
}

func NewCandidate(path string) *Candidate {
	suffix := filepath.Ext(path)
	return &Candidate{
		Dir:    filepath.Dir(path),
		Base:   strings.TrimSuffix(filepath.Base(path), suffix),
		Suffix: suffix,
		Path:   path,
		Probe:  fs.NewProbe(path),
	}
}

// Name is the file name with its original suffix.
func (c *Candidate) Name() string {
	return c.Base + c.Suffix
}

func (c *Candidate) Kind() Kind {
	return KindOf(c.Suffix)
}

func (c *Candidate) Fingerprint() (ledger.Fingerprint, error) {
	if !c.fingerprinted {
		c.fp, c.fpErr = ledger.FingerprintFile(c.Path)
		c.fingerprinted = true
	}
	return c.fp, c.fpErr
}

func (c *Candidate) Classify(cl *Classifier) (Classification, error) {
	if !c.classified {
		c.class, c.classErr = cl.ClassifyProbe(c.Probe)
		c.classified = true
	}
	return c.class, c.classErr
}

// Date is the memoized shot date; it is zero until Classify succeeded.
func (c *Candidate) Date() ShotDate {
	return c.class.Date
}

func readDirNames(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names, nil
}
