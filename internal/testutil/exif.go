// Package testutil builds small media fixtures for tests.
package testutil

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"
	"time"
)

const (
	tagMake             = 0x010F
	tagModel            = 0x0110
	tagExifIFDPointer   = 0x8769
	tagDateTimeOriginal = 0x9003

	typeASCII = 2
	typeLong  = 4
)

// ExifTags are the fields written into a fixture JPEG. Empty fields are omitted.
type ExifTags struct {
	DateTimeOriginal string // "2006:01:02 15:04:05"
	Make             string
	Model            string
}

type ifdEntry struct {
	tag   uint16
	typ   uint16
	count uint32
	value []byte
}

func asciiEntry(tag uint16, s string) ifdEntry {
	v := append([]byte(s), 0)
	return ifdEntry{tag: tag, typ: typeASCII, count: uint32(len(v)), value: v}
}

// ExifJPEG returns a minimal JPEG stream (SOI, APP1 Exif, EOI) carrying tags.
// It has no image data, which is enough for EXIF readers.
func ExifJPEG(tags ExifTags) []byte {
	le := binary.LittleEndian

	var ifd0, sub []ifdEntry
	if tags.Make != "" {
		ifd0 = append(ifd0, asciiEntry(tagMake, tags.Make))
	}
	if tags.Model != "" {
		ifd0 = append(ifd0, asciiEntry(tagModel, tags.Model))
	}
	if tags.DateTimeOriginal != "" {
		sub = append(sub, asciiEntry(tagDateTimeOriginal, tags.DateTimeOriginal))
	}

	subOff := 8 + ifdSize(len(ifd0)+1)
	if len(sub) > 0 {
		ifd0 = append(ifd0, ifdEntry{tag: tagExifIFDPointer, typ: typeLong, count: 1, value: le.AppendUint32(nil, uint32(subOff))})
	} else {
		subOff = 8 + ifdSize(len(ifd0))
	}
	dataOff := subOff
	if len(sub) > 0 {
		dataOff += ifdSize(len(sub))
	}

	tiff := []byte{'I', 'I', 42, 0, 8, 0, 0, 0}
	var data []byte
	tiff = appendIFD(tiff, ifd0, &data, dataOff)
	if len(sub) > 0 {
		tiff = appendIFD(tiff, sub, &data, dataOff)
	}
	tiff = append(tiff, data...)

	out := []byte{0xFF, 0xD8, 0xFF, 0xE1}
	out = binary.BigEndian.AppendUint16(out, uint16(2+6+len(tiff)))
	out = append(out, "Exif\x00\x00"...)
	out = append(out, tiff...)
	return append(out, 0xFF, 0xD9)
}

func ifdSize(entries int) int {
	return 2 + 12*entries + 4
}

func appendIFD(b []byte, entries []ifdEntry, data *[]byte, dataOff int) []byte {
	le := binary.LittleEndian
	b = le.AppendUint16(b, uint16(len(entries)))
	for _, e := range entries {
		b = le.AppendUint16(b, e.tag)
		b = le.AppendUint16(b, e.typ)
		b = le.AppendUint32(b, e.count)
		if len(e.value) > 4 {
			b = le.AppendUint32(b, uint32(dataOff+len(*data)))
			*data = append(*data, e.value...)
			continue
		}
		var inline [4]byte
		copy(inline[:], e.value)
		b = append(b, inline[:]...)
	}
	return le.AppendUint32(b, 0)
}

// WriteFile creates path with content and parent directories, then sets its
// modification time when mtime is not zero.
func WriteFile(t testing.TB, path string, content []byte, mtime time.Time) string {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, content, 0644); err != nil {
		t.Fatal(err)
	}
	if !mtime.IsZero() {
		if err := os.Chtimes(path, mtime, mtime); err != nil {
			t.Fatal(err)
		}
	}
	return path
}

// Photo writes a JPEG fixture whose DateTimeOriginal is taken. The payload suffix
// keeps fixtures with the same date from sharing a fingerprint.
func Photo(t testing.TB, path, taken, payload string) string {
	t.Helper()
	content := append(ExifJPEG(ExifTags{DateTimeOriginal: taken}), payload...)
	return WriteFile(t, path, content, time.Time{})
}
