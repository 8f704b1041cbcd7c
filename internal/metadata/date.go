package metadata

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// ExifDateLayout is the layout of EXIF date-time values.
const ExifDateLayout = "2006:01:02 15:04:05"

// ShotDate is the calendar day a picture or clip was taken.
type ShotDate struct {
	Year  int
	Month int
	Day   int
}

// NewShotDate validates a calendar date: month 1..12, day within the month, year 1..9999.
func NewShotDate(year, month, day int) (ShotDate, bool) {
	if year < 1 || year > 9999 || month < 1 || month > 12 || day < 1 {
		return ShotDate{}, false
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Day() != day || int(t.Month()) != month {
		return ShotDate{}, false
	}
	return ShotDate{Year: year, Month: month, Day: day}, true
}

func (d ShotDate) Less(o ShotDate) bool {
	if d.Year != o.Year {
		return d.Year < o.Year
	}
	if d.Month != o.Month {
		return d.Month < o.Month
	}
	return d.Day < o.Day
}

func (d ShotDate) IsZero() bool {
	return d == ShotDate{}
}

func (d ShotDate) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
}

// DirName is the date-partition directory name, YY_MM_DD.
func (d ShotDate) DirName() string {
	return fmt.Sprintf("%s_%02d_%02d", d.YearDir(), d.Month, d.Day)
}

// YearDir is the two-digit year directory name.
func (d ShotDate) YearDir() string {
	return fmt.Sprintf("%02d", d.Year%100)
}

var (
	regexStamp12 = regexp.MustCompile(`(?:^|\D)(\d{2})(\d{2})(\d{2})\d{6}(?:\D|$)`)
	regexVideo   = regexp.MustCompile(`Video(\d{2})(\d{2})\d{4}`)
)

// DateFromFilename reads the shot date from a base name. Twelve consecutive digits are
// read as YYMMDDHHMMSS in the 2000s. Otherwise "Video" followed by MMDDHHmm gives month
// and day, and the year comes from modYear. Dates that do not exist in the calendar
// are rejected.
func DateFromFilename(base string, modYear int) (ShotDate, bool) {
	if m := regexStamp12.FindStringSubmatch(base); m != nil {
		return NewShotDate(2000+atoi(m[1]), atoi(m[2]), atoi(m[3]))
	}
	if m := regexVideo.FindStringSubmatch(base); m != nil && modYear > 0 {
		return NewShotDate(modYear, atoi(m[1]), atoi(m[2]))
	}
	return ShotDate{}, false
}

// DateFromExif reads the day of an EXIF date-time value such as "2019:05:01 10:20:30".
// Only the date fields are used; a missing or malformed time of day is ignored.
func DateFromExif(value string) (ShotDate, bool) {
	if len(value) < 10 {
		return ShotDate{}, false
	}
	t, err := time.Parse(ExifDateLayout[:10], value[:10])
	if err != nil {
		return ShotDate{}, false
	}
	return NewShotDate(t.Year(), int(t.Month()), t.Day())
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
