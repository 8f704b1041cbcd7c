package ledger

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Store layout, big-endian:
//
//	magic "MILG" | version uint16 | digest width uint16 | count uint32 | count * width bytes
//
// Version 0 is the legacy unversioned store: one hex digest per line, no header.
const (
	Version    = 1
	headerSize = 4 + 2 + 2 + 4
)

var magic = []byte("MILG")

var ErrCorrupt = errors.New("ledger: corrupt store")

func encode(set map[Fingerprint]struct{}) []byte {
	digests := make([]Fingerprint, 0, len(set))
	for fp := range set {
		digests = append(digests, fp)
	}
	sort.Slice(digests, func(i, j int) bool {
		return bytes.Compare(digests[i][:], digests[j][:]) < 0
	})

	buf := make([]byte, headerSize, headerSize+len(digests)*DigestSize)
	copy(buf, magic)
	binary.BigEndian.PutUint16(buf[4:], Version)
	binary.BigEndian.PutUint16(buf[6:], DigestSize)
	binary.BigEndian.PutUint32(buf[8:], uint32(len(digests)))
	for _, fp := range digests {
		buf = append(buf, fp[:]...)
	}
	return buf
}

// decode returns the fingerprint set and the schema version it was read from.
func decode(data []byte) (map[Fingerprint]struct{}, int, error) {
	if !bytes.HasPrefix(data, magic) {
		set, err := decodeLegacy(data)
		return set, 0, err
	}
	if len(data) < headerSize {
		return nil, 0, fmt.Errorf("%w: short header", ErrCorrupt)
	}

	version := int(binary.BigEndian.Uint16(data[4:]))
	if version != Version {
		return nil, version, fmt.Errorf("%w: unsupported version %d", ErrCorrupt, version)
	}
	width := int(binary.BigEndian.Uint16(data[6:]))
	if width != DigestSize {
		return nil, version, fmt.Errorf("%w: digest width %d", ErrCorrupt, width)
	}
	count := int(binary.BigEndian.Uint32(data[8:]))
	body := data[headerSize:]
	if len(body) != count*width {
		return nil, version, fmt.Errorf("%w: want %d digests, have %d bytes", ErrCorrupt, count, len(body))
	}

	set := make(map[Fingerprint]struct{}, count)
	for i := 0; i < count; i++ {
		var fp Fingerprint
		copy(fp[:], body[i*width:(i+1)*width])
		set[fp] = struct{}{}
	}
	return set, version, nil
}

func decodeLegacy(data []byte) (map[Fingerprint]struct{}, error) {
	set := make(map[Fingerprint]struct{})
	sc := bufio.NewScanner(bytes.NewReader(data))
	line := 0
	for sc.Scan() {
		line++
		s := strings.TrimSpace(sc.Text())
		if s == "" {
			continue
		}
		fp, err := ParseFingerprint(s)
		if err != nil {
			return nil, fmt.Errorf("%w: legacy line %d: %v", ErrCorrupt, line, err)
		}
		set[fp] = struct{}{}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	return set, nil
}
