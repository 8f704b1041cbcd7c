// Package catalog keeps a SQLite history of imported media.
package catalog

import (
	"encoding/hex"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/kalafut/imohash"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/itsjavi/mediaingest/internal/fs"
	"github.com/itsjavi/mediaingest/internal/ledger"
	"github.com/itsjavi/mediaingest/internal/metadata"
)

// DefaultName is the catalog file name used when only a directory is configured.
const DefaultName = "mediaingest.sqlite"

type Entry struct {
	ID          uint   `gorm:"primarykey"`
	Fingerprint string `gorm:"type:string;size:32;index"`
	ContentHash string `gorm:"type:string;size:32;index"`
	SourcePath  string `gorm:"type:text"`
	// Destinations holds one path per line.
	Destinations string `gorm:"type:text"`

	ShotDate   string `gorm:"type:string;size:10;index"`
	DateSource string `gorm:"type:string;size:16"`
	Kind       string `gorm:"type:string;size:16"`
	Size       int64

	Make   string
	Model  string
	Camera string

	GPSLatitude  float64
	GPSLongitude float64
	GPSTimezone  string

	ImportedAt time.Time `gorm:"index"`
}

func (Entry) TableName() string {
	return "imports"
}

func (e Entry) DestinationList() []string {
	if e.Destinations == "" {
		return nil
	}
	return strings.Split(e.Destinations, "\n")
}

type Catalog struct {
	db      *gorm.DB
	file    string
	details metadata.DetailsReader
	now     func() time.Time
}

// Open opens or creates the catalog at file, or at DefaultName inside it when file is
// a directory. details reads camera and GPS fields; nil uses the in-process EXIF reader.
func Open(file string, details metadata.DetailsReader) (*Catalog, error) {
	if details == nil {
		details = metadata.ExifReader{}
	}
	if fs.IsDir(file) {
		file = filepath.Join(file, DefaultName)
	}

	dbLogger := logger.New(
		log.New(os.Stderr, "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold: time.Minute,
			LogLevel:      logger.Silent,
			Colorful:      false,
		},
	)
	db, err := gorm.Open(sqlite.Open(file), &gorm.Config{Logger: dbLogger})
	if err != nil {
		return nil, fmt.Errorf("open catalog %s: %w", file, err)
	}
	nativeDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("open catalog %s: %w", file, err)
	}
	// one writer: the import worker
	nativeDB.SetMaxOpenConns(1)
	nativeDB.SetConnMaxIdleTime(time.Hour * 24)

	if err := db.AutoMigrate(&Entry{}); err != nil {
		nativeDB.Close()
		return nil, fmt.Errorf("migrate catalog %s: %w", file, err)
	}

	return &Catalog{db: db, file: file, details: details, now: time.Now}, nil
}

func (cat *Catalog) File() string {
	return cat.file
}

// Record stores one entry for a candidate that reached every destination.
func (cat *Catalog) Record(c *metadata.Candidate, dests []string) error {
	fp, err := c.Fingerprint()
	if err != nil {
		return err
	}
	sum, err := imohash.SumFile(c.Path)
	if err != nil {
		return fmt.Errorf("hash %s: %w", c.Path, err)
	}

	class, _ := c.Classify(nil)
	entry := Entry{
		Fingerprint:  fp.String(),
		ContentHash:  hex.EncodeToString(sum[:]),
		SourcePath:   c.Path,
		Destinations: strings.Join(dests, "\n"),
		DateSource:   string(class.Source),
		Kind:         c.Kind().String(),
		Size:         c.Probe.Size(),
		ImportedAt:   cat.now(),
	}
	if !class.Date.IsZero() {
		entry.ShotDate = class.Date.String()
	}

	if d, err := cat.details.Details(detailsPath(c)); err == nil {
		entry.Make = d.Make
		entry.Model = d.Model
		entry.Camera = d.Camera()
		if d.GPS.Valid {
			entry.GPSLatitude = d.GPS.Position.Latitude
			entry.GPSLongitude = d.GPS.Position.Longitude
			entry.GPSTimezone = d.GPS.Timezone
		}
	}

	if err := cat.db.Create(&entry).Error; err != nil {
		return fmt.Errorf("record %s: %w", c.Path, err)
	}
	return nil
}

// detailsPath points videos at their .JPG companion, the only place their camera
// fields are written.
func detailsPath(c *metadata.Candidate) string {
	if c.Kind() == metadata.Video {
		companion := filepath.Join(c.Dir, c.Base+metadata.CompanionSuffix)
		if _, err := os.Stat(companion); err == nil {
			return companion
		}
	}
	return c.Path
}

// Recent returns up to limit entries, newest first.
func (cat *Catalog) Recent(limit int) ([]Entry, error) {
	var entries []Entry
	err := cat.db.Order("id desc").Limit(limit).Find(&entries).Error
	return entries, err
}

// ByFingerprint returns every import of content sharing fp, newest first.
func (cat *Catalog) ByFingerprint(fp ledger.Fingerprint) ([]Entry, error) {
	var entries []Entry
	err := cat.db.Where("fingerprint = ?", fp.String()).Order("id desc").Find(&entries).Error
	return entries, err
}

func (cat *Catalog) Close() error {
	nativeDB, err := cat.db.DB()
	if err != nil {
		return err
	}
	return nativeDB.Close()
}
