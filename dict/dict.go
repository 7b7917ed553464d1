// Package dict decodes the name -> value tables used by every G3D chunk to
// index its sub blocks.
package dict

import (
	"github.com/pkg/errors"

	"github.com/red031000/nitrog3d/nitro"
)

const (
	headerSize     = 0x08
	dataHeaderSize = 0x04

	offsetEntryCount = 0x01
	offsetBlockSize  = 0x02
	offsetDataBlock  = 0x06
)

type (
	// Entry is one named value, in on-disk order
	Entry struct {
		Name  string `json:"name" yaml:"name"`
		Value uint32 `json:"value" yaml:"value"`
	}

	// Dictionary holds the decoded entries of one table. Names are unique.
	Dictionary struct {
		Revision    uint8   `json:"revision" yaml:"revision"`
		Size        uint16  `json:"size" yaml:"size"`
		ElementSize uint16  `json:"elementSize" yaml:"elementSize"`
		Entries     []Entry `json:"entries" yaml:"entries"`
	}
)

// Parse decodes the dictionary starting at the beginning of b.
func Parse(b nitro.Buffer) (*Dictionary, error) {
	if b.Len() < headerSize {
		return nil, errors.Wrapf(nitro.ErrTruncatedData, "dictionary header at 0x%x", b.Base())
	}

	d := &Dictionary{}
	d.Revision, _ = b.U8(0)
	count, _ := b.U8(offsetEntryCount)
	d.Size, _ = b.U16(offsetBlockSize)
	dataOffset, _ := b.U16(offsetDataBlock)

	var (
		nameOffset uint16
		err        error
	)
	if d.ElementSize, err = b.U16(int(dataOffset)); err != nil {
		return nil, errors.Wrap(err, "reading data block header")
	}
	if nameOffset, err = b.U16(int(dataOffset) + 2); err != nil { //nolint:mnd
		return nil, errors.Wrap(err, "reading data block header")
	}

	switch d.ElementSize {
	case 1, 2, 4: //nolint:mnd
	default:
		return nil, errors.Wrapf(nitro.ErrMalformedDictionary,
			"element size %d at 0x%x", d.ElementSize, b.Base()+int(dataOffset))
	}

	valuesStart := int(dataOffset) + dataHeaderSize
	namesStart := int(dataOffset) + int(nameOffset)
	if valuesStart+int(count)*int(d.ElementSize) > b.Len() || namesStart+int(count)*nitro.NameLength > b.Len() {
		return nil, errors.Wrapf(nitro.ErrMalformedDictionary,
			"%d entries do not fit into 0x%x bytes at 0x%x", count, b.Len(), b.Base())
	}

	d.Entries = make([]Entry, count)
	seen := make(map[string]int, count)
	for i := range d.Entries {
		e := &d.Entries[i]
		if e.Name, err = b.FixedString(namesStart + i*nitro.NameLength); err != nil {
			return nil, errors.Wrapf(err, "reading name of entry %d", i)
		}
		if prev, ok := seen[e.Name]; ok {
			return nil, errors.Wrapf(nitro.ErrDuplicateDictionaryKey,
				"%q at entries %d and %d (dictionary at 0x%x)", e.Name, prev, i, b.Base())
		}
		seen[e.Name] = i

		if e.Value, err = readValue(b, valuesStart+i*int(d.ElementSize), d.ElementSize); err != nil {
			return nil, errors.Wrapf(err, "reading value of %q", e.Name)
		}
	}

	return d, nil
}

func readValue(b nitro.Buffer, off int, size uint16) (uint32, error) {
	switch size {
	case 1:
		v, err := b.U8(off)
		return uint32(v), err
	case 2: //nolint:mnd
		v, err := b.U16(off)
		return uint32(v), err
	default:
		return b.U32(off)
	}
}

// Len returns the number of entries.
func (d *Dictionary) Len() int { return len(d.Entries) }

// Lookup returns the value stored for name.
func (d *Dictionary) Lookup(name string) (uint32, bool) {
	for _, e := range d.Entries {
		if e.Name == name {
			return e.Value, true
		}
	}
	return 0, false
}

// Names returns the entry names in on-disk order.
func (d *Dictionary) Names() []string {
	names := make([]string, len(d.Entries))
	for i, e := range d.Entries {
		names[i] = e.Name
	}
	return names
}
