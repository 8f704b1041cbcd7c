package fs

import (
	"os"
	"path/filepath"
	"time"
)

// Unknown is returned by Probe for sizes and free space that cannot be determined,
// typically because the path does not exist.
const Unknown int64 = -1

// Probe lazily stats a single path and caches the result until Reload is called.
// A Probe is not safe for concurrent use.
type Probe struct {
	path string

	loaded bool
	info   os.FileInfo

	freeLoaded bool
	free       int64
}

func NewProbe(path string) *Probe {
	return &Probe{path: path}
}

func (p *Probe) Path() string {
	return p.path
}

// Reload drops every cached value so the next accessor re-stats the path.
func (p *Probe) Reload() *Probe {
	p.loaded = false
	p.info = nil
	p.freeLoaded = false
	p.free = 0
	return p
}

func (p *Probe) stat() os.FileInfo {
	if !p.loaded {
		info, err := os.Stat(p.path)
		if err != nil {
			info = nil
		}
		p.info = info
		p.loaded = true
	}
	return p.info
}

func (p *Probe) Exists() bool {
	return p.stat() != nil
}

func (p *Probe) IsFile() bool {
	info := p.stat()
	return info != nil && info.Mode().IsRegular()
}

func (p *Probe) IsDir() bool {
	info := p.stat()
	return info != nil && info.IsDir()
}

// Size returns the file size in bytes, or Unknown when the path does not exist.
func (p *Probe) Size() int64 {
	info := p.stat()
	if info == nil {
		return Unknown
	}
	return info.Size()
}

// ModTime returns the last modification time, or the zero time when the path does not exist.
func (p *Probe) ModTime() time.Time {
	info := p.stat()
	if info == nil {
		return time.Time{}
	}
	return info.ModTime()
}

// ModDate returns the local calendar date of the last modification.
// ok is false when the path does not exist.
func (p *Probe) ModDate() (year int, month int, day int, ok bool) {
	t := p.ModTime()
	if t.IsZero() {
		return 0, 0, 0, false
	}
	t = t.Local()
	return t.Year(), int(t.Month()), t.Day(), true
}

// FreeSpace returns the bytes available on the volume holding the path.
// Files report their directory's volume and missing paths report the volume of the
// nearest existing ancestor, so a destination directory can be checked before it is created.
func (p *Probe) FreeSpace() int64 {
	if !p.freeLoaded {
		p.free = FreeSpace(p.path)
		p.freeLoaded = true
	}
	return p.free
}

// FreeSpace returns the bytes available to the current user on the volume holding path,
// or Unknown when it cannot be determined.
func FreeSpace(path string) int64 {
	dir, ok := nearestExistingDir(path)
	if !ok {
		return Unknown
	}
	free, err := freeSpace(dir)
	if err != nil {
		return Unknown
	}
	return free
}

func nearestExistingDir(path string) (string, bool) {
	path = filepath.Clean(path)
	for {
		info, err := os.Stat(path)
		if err == nil {
			if info.IsDir() {
				return path, true
			}
			return filepath.Dir(path), true
		}
		parent := filepath.Dir(path)
		if parent == path {
			return "", false
		}
		path = parent
	}
}
