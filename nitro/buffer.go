// Package nitro contains the primitive readers shared by the G3D decoders:
// little-endian integer reads over borrowed buffer windows, name strings and
// the 1.19.12 fixed-point conversions used throughout the format.
package nitro

import (
	"bytes"
	"encoding/binary"
	"io"

	"github.com/pkg/errors"
)

// Buffer is a read-only window into a loaded file. Sub windows share the
// backing array of the original load, so the original byte slice must stay
// untouched for as long as any decoded value referencing it is in use.
type Buffer struct {
	data []byte
	base int
}

// NewBuffer wraps a fully loaded file.
func NewBuffer(b []byte) Buffer {
	return Buffer{data: b}
}

// Len returns the window size in bytes.
func (b Buffer) Len() int { return len(b.data) }

// Base returns the absolute file offset of the window start.
func (b Buffer) Base() int { return b.base }

// Sub returns the window starting at off and running to the end of b.
func (b Buffer) Sub(off int) (Buffer, error) {
	if off < 0 || off > len(b.data) {
		return Buffer{}, b.truncated(off, 0)
	}
	return Buffer{data: b.data[off:], base: b.base + off}, nil
}

// Window returns the size bytes at off as a new window.
func (b Buffer) Window(off, size int) (Buffer, error) {
	if err := b.need(off, size); err != nil {
		return Buffer{}, err
	}
	return Buffer{data: b.data[off : off+size], base: b.base + off}, nil
}

// Slice returns the raw bytes at off without copying.
func (b Buffer) Slice(off, size int) ([]byte, error) {
	if err := b.need(off, size); err != nil {
		return nil, err
	}
	return b.data[off : off+size : off+size], nil
}

func (b Buffer) U8(off int) (uint8, error) {
	if err := b.need(off, 1); err != nil {
		return 0, err
	}
	return b.data[off], nil
}

func (b Buffer) U16(off int) (uint16, error) {
	if err := b.need(off, 2); err != nil { //nolint:mnd
		return 0, err
	}
	return binary.LittleEndian.Uint16(b.data[off:]), nil
}

func (b Buffer) U32(off int) (uint32, error) {
	if err := b.need(off, 4); err != nil { //nolint:mnd
		return 0, err
	}
	return binary.LittleEndian.Uint32(b.data[off:]), nil
}

// Fx16 reads a sign-extended 16-bit fixed-point value.
func (b Buffer) Fx16(off int) (float32, error) {
	v, err := b.U16(off)
	if err != nil {
		return 0, err
	}
	return FixedToFloat(int32(int16(v))), nil
}

// Fx32 reads a 32-bit fixed-point value.
func (b Buffer) Fx32(off int) (float32, error) {
	v, err := b.U32(off)
	if err != nil {
		return 0, err
	}
	return FixedToFloat(int32(v)), nil
}

// ReadStruct decodes the fixed-size little-endian struct v found at off.
func (b Buffer) ReadStruct(off int, v any) error {
	size := binary.Size(v)
	if size < 0 {
		return errors.Errorf("type %T has no fixed binary size", v)
	}
	raw, err := b.Slice(off, size)
	if err != nil {
		return err
	}
	if err = binary.Read(bytes.NewReader(raw), binary.LittleEndian, v); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return b.truncated(off, size)
		}
		return errors.Wrapf(err, "decoding %T", v)
	}
	return nil
}

// CheckMagic verifies the four byte chunk tag at off.
func (b Buffer) CheckMagic(off int, tag string) error {
	raw, err := b.Slice(off, len(tag))
	if err != nil {
		return err
	}
	if !bytes.Equal(raw, []byte(tag)) {
		return errors.Wrapf(ErrBadMagic, "expected %q at 0x%x, got %q", tag, b.base+off, raw)
	}
	return nil
}

func (b Buffer) need(off, size int) error {
	if off < 0 || size < 0 || off+size > len(b.data) {
		return b.truncated(off, size)
	}
	return nil
}

func (b Buffer) truncated(off, size int) error {
	return errors.Wrapf(ErrTruncatedData, "reading 0x%x bytes at 0x%x (window 0x%x+0x%x)",
		size, b.base+off, b.base, len(b.data))
}
