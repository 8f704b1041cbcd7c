package metadata

import (
	"fmt"
	"os"
	"strings"

	"github.com/rwcarlsen/goexif/exif"
)

// ExifReader reads embedded metadata in-process with goexif.
type ExifReader struct{}

func (ExifReader) DateTimeOriginal(path string) (string, error) {
	x, err := decodeExif(path)
	if err != nil {
		return "", err
	}
	return exifString(x, exif.DateTimeOriginal)
}

func (ExifReader) Details(path string) (Details, error) {
	x, err := decodeExif(path)
	if err != nil {
		return Details{}, err
	}

	var d Details
	d.Make, _ = exifString(x, exif.Make)
	d.Model, _ = exifString(x, exif.Model)
	if lat, long, err := x.LatLong(); err == nil {
		d.GPS = NewGPSData(GPSCoord{Latitude: lat, Longitude: long})
	}
	return d, nil
}

func decodeExif(path string) (*exif.Exif, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	x, err := exif.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode exif %s: %w", path, err)
	}
	return x, nil
}

func exifString(x *exif.Exif, name exif.FieldName) (string, error) {
	tag, err := x.Get(name)
	if err != nil {
		return "", err
	}
	s, err := tag.StringVal()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(strings.TrimRight(s, "\x00")), nil
}
