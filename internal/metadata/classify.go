package metadata

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/itsjavi/mediaingest/internal/fs"
)

// Source names the step of date resolution that produced a ShotDate.
type Source string

const (
	SourceExif      Source = "exif"
	SourceFilename  Source = "filename"
	SourceCompanion Source = "companion"
	SourceModTime   Source = "mtime"
)

var (
	ErrNotMedia = errors.New("not a photo or video")
	ErrUndated  = errors.New("no shot date")
)

// DateReader reads the raw EXIF DateTimeOriginal value of an image file.
type DateReader interface {
	DateTimeOriginal(path string) (string, error)
}

type Classification struct {
	Kind   Kind
	Date   ShotDate
	Source Source
}

// Classifier resolves media kind and shot date. A nil Reader uses ExifReader.
type Classifier struct {
	Reader DateReader
}

func (cl *Classifier) reader() DateReader {
	if cl == nil || cl.Reader == nil {
		return ExifReader{}
	}
	return cl.Reader
}

func (cl *Classifier) Classify(path string) (Classification, error) {
	return cl.ClassifyProbe(fs.NewProbe(path))
}

// ClassifyProbe classifies the file behind p, using its cached stat for the
// modification time.
//
// Photos try the embedded date, then the filename, then the modification date.
// Videos try the filename, then the embedded date of a companion .JPG next to them,
// then the modification date. Video containers themselves are never parsed.
func (cl *Classifier) ClassifyProbe(p *fs.Probe) (Classification, error) {
	path := p.Path()
	suffix := filepath.Ext(path)
	base := strings.TrimSuffix(filepath.Base(path), suffix)

	c := Classification{Kind: KindOf(suffix)}
	if c.Kind == Other {
		return c, fmt.Errorf("%s: %w", path, ErrNotMedia)
	}

	modYear, _, _, _ := p.ModDate()

	var steps []func() (ShotDate, Source, bool)
	fromExif := func(file string, src Source) func() (ShotDate, Source, bool) {
		return func() (ShotDate, Source, bool) {
			d, ok := cl.exifDate(file)
			return d, src, ok
		}
	}
	fromName := func() (ShotDate, Source, bool) {
		d, ok := DateFromFilename(base, modYear)
		return d, SourceFilename, ok
	}

	switch c.Kind {
	case Photo:
		steps = append(steps, fromExif(path, SourceExif), fromName)
	case Video:
		steps = append(steps, fromName)
		if companion := filepath.Join(filepath.Dir(path), base+CompanionSuffix); hasCompanion(companion) {
			steps = append(steps, fromExif(companion, SourceCompanion))
		}
	}

	for _, step := range steps {
		if d, src, ok := step(); ok {
			c.Date, c.Source = d, src
			return c, nil
		}
	}

	y, m, d, ok := p.ModDate()
	if !ok {
		return c, fmt.Errorf("%s: %w", path, ErrUndated)
	}
	c.Date, c.Source = ShotDate{Year: y, Month: m, Day: d}, SourceModTime
	return c, nil
}

func (cl *Classifier) exifDate(path string) (ShotDate, bool) {
	raw, err := cl.reader().DateTimeOriginal(path)
	if err != nil {
		return ShotDate{}, false
	}
	return DateFromExif(raw)
}

// hasCompanion matches the exact-case companion name, also on case-insensitive filesystems.
func hasCompanion(path string) bool {
	if !fs.NewProbe(path).IsFile() {
		return false
	}
	entries, err := readDirNames(filepath.Dir(path))
	if err != nil {
		return false
	}
	want := filepath.Base(path)
	for _, name := range entries {
		if name == want {
			return true
		}
	}
	return false
}
