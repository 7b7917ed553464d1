package nitro

import (
	"bytes"

	"github.com/pkg/errors"
	"golang.org/x/text/encoding/charmap"
)

// NameLength is the size of a dictionary name slot.
const NameLength = 16

// String reads a NUL terminated string starting at off.
func (b Buffer) String(off int) (string, error) {
	if off < 0 || off >= len(b.data) {
		return "", b.truncated(off, 1)
	}
	n := bytes.IndexByte(b.data[off:], 0)
	if n < 0 {
		return "", errors.Wrapf(ErrTruncatedData, "unterminated string at 0x%x", b.base+off)
	}
	return decodeName(b.data[off : off+n])
}

// FixedString reads a name of at most NameLength bytes. Names filling the
// whole slot carry no terminator.
func (b Buffer) FixedString(off int) (string, error) {
	raw, err := b.Slice(off, NameLength)
	if err != nil {
		return "", err
	}
	if n := bytes.IndexByte(raw, 0); n >= 0 {
		raw = raw[:n]
	}
	return decodeName(raw)
}

func decodeName(raw []byte) (string, error) {
	s, err := charmap.Windows1252.NewDecoder().Bytes(raw)
	if err != nil {
		return "", errors.Wrap(err, "decoding name")
	}
	return string(s), nil
}
