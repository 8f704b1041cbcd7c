package ledger

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"io"
	"os"
)

// PrefixSize is the number of leading content bytes a Fingerprint covers.
const PrefixSize = 1024

// DigestSize is the fixed width of a Fingerprint.
const DigestSize = md5.Size

// Fingerprint identifies file content by the MD5 of its first PrefixSize bytes.
// Two files sharing those bytes share a Fingerprint even when the rest differs.
type Fingerprint [DigestSize]byte

func (fp Fingerprint) String() string {
	return hex.EncodeToString(fp[:])
}

func ParseFingerprint(s string) (Fingerprint, error) {
	var fp Fingerprint
	b, err := hex.DecodeString(s)
	if err != nil {
		return fp, fmt.Errorf("invalid fingerprint %q: %w", s, err)
	}
	if len(b) != DigestSize {
		return fp, fmt.Errorf("invalid fingerprint %q: want %d bytes, got %d", s, DigestSize, len(b))
	}
	copy(fp[:], b)
	return fp, nil
}

func FingerprintReader(r io.Reader) (Fingerprint, error) {
	h := md5.New()
	if _, err := io.CopyN(h, r, PrefixSize); err != nil && err != io.EOF {
		return Fingerprint{}, err
	}
	var fp Fingerprint
	copy(fp[:], h.Sum(nil))
	return fp, nil
}

func FingerprintFile(path string) (Fingerprint, error) {
	f, err := os.Open(path)
	if err != nil {
		return Fingerprint{}, err
	}
	defer f.Close()

	fp, err := FingerprintReader(f)
	if err != nil {
		return fp, fmt.Errorf("fingerprint %s: %w", path, err)
	}
	return fp, nil
}
