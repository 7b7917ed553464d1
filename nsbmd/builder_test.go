package nsbmd

import (
	"encoding/binary"

	"github.com/red031000/nitrog3d/nitro"
)

// Synthetic container builder. Every block is laid out back to back the
// way the converter emits it, with all dictionaries using 4 byte values.

const (
	testFileHeaderSize = 0x18
	testDictTreeEntry  = 4
)

type (
	testEntry struct {
		name string
		data []byte
	}

	testBinding struct {
		name  string
		bound uint8
		ids   []uint8
	}

	testShape struct {
		name  string
		flags uint32
		dl    []byte
	}

	testModel struct {
		name      string
		patch     func(header []byte)
		nodes     []testEntry
		sbc       []byte
		materials []testEntry
		textures  []testBinding
		palettes  []testBinding
		shapes    []testShape
	}
)

func u16s(vs ...uint16) []byte {
	var out []byte
	for _, v := range vs {
		out = binary.LittleEndian.AppendUint16(out, v)
	}
	return out
}

func u32s(vs ...uint32) []byte {
	var out []byte
	for _, v := range vs {
		out = binary.LittleEndian.AppendUint32(out, v)
	}
	return out
}

func cat(parts ...[]byte) []byte {
	var out []byte
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

func fx32(v float32) uint32 { return uint32(int32(v * nitro.FixedOne)) }
func fx16(v float32) uint16 { return uint16(int16(v * nitro.FixedOne)) }

func encodeDict(names []string, values []uint32) []byte {
	n := len(names)
	dataOffset := 8 + testDictTreeEntry*(n+1)
	nameOffset := 4 + 4*n
	total := dataOffset + nameOffset + n*nitro.NameLength

	out := []byte{0, byte(n)}
	out = append(out, u16s(uint16(total), 8, uint16(dataOffset))...)
	out = append(out, make([]byte, testDictTreeEntry*(n+1))...)
	out = append(out, u16s(4, uint16(nameOffset))...)
	out = append(out, u32s(values...)...)
	for _, name := range names {
		raw := make([]byte, nitro.NameLength)
		copy(raw, name)
		out = append(out, raw...)
	}
	return out
}

func dictLen(n int) int {
	return len(encodeDict(make([]string, n), make([]uint32, n)))
}

// layoutNamed places a dictionary in front of the blocks; values are
// relative to the dictionary start plus base.
func layoutNamed(base int, entries []testEntry) []byte {
	var (
		names  = make([]string, len(entries))
		values = make([]uint32, len(entries))
		data   []byte
		start  = base + dictLen(len(entries))
	)
	for i, e := range entries {
		names[i] = e.name
		values[i] = uint32(start + len(data))
		data = append(data, e.data...)
	}
	return cat(encodeDict(names, values), data)
}

func buildMaterialSet(m testModel) []byte {
	texDictOff := 4 + dictLen(len(m.materials))
	plttDictOff := texDictOff + dictLen(len(m.textures))
	idxOff := plttDictOff + dictLen(len(m.palettes))

	var idx []byte
	bindings := func(bs []testBinding) []byte {
		names := make([]string, len(bs))
		values := make([]uint32, len(bs))
		for i, b := range bs {
			names[i] = b.name
			values[i] = uint32(idxOff+len(idx)) | uint32(len(b.ids))<<16 | uint32(b.bound)<<24
			idx = append(idx, b.ids...)
		}
		return encodeDict(names, values)
	}
	texDict := bindings(m.textures)
	plttDict := bindings(m.palettes)

	// material blocks follow the binding lists
	var (
		matBase = idxOff + len(idx)
		names   = make([]string, len(m.materials))
		values  = make([]uint32, len(m.materials))
		data    []byte
	)
	for i, e := range m.materials {
		names[i] = e.name
		values[i] = uint32(matBase + len(data))
		data = append(data, e.data...)
	}

	return cat(u16s(uint16(texDictOff), uint16(plttDictOff)), encodeDict(names, values), texDict, plttDict, idx, data)
}

func buildShapeSet(shapes []testShape) []byte {
	entries := make([]testEntry, len(shapes))
	for i, s := range shapes {
		entries[i] = testEntry{
			name: s.name,
			data: cat(u16s(0, 0x10), u32s(s.flags, 0x10, uint32(len(s.dl))), s.dl),
		}
	}
	return layoutNamed(0, entries)
}

func buildModel(m testModel) []byte {
	nodeSet := layoutNamed(0, m.nodes)
	sbcOff := offsetModelNodeDict + len(nodeSet)
	matOff := sbcOff + len(m.sbc)
	matSet := buildMaterialSet(m)
	shpOff := matOff + len(matSet)
	shpSet := buildShapeSet(m.shapes)
	total := shpOff + len(shpSet)

	h := make([]byte, offsetModelNodeDict)
	binary.LittleEndian.PutUint32(h[0x00:], uint32(total))
	binary.LittleEndian.PutUint32(h[0x04:], uint32(sbcOff))
	binary.LittleEndian.PutUint32(h[0x08:], uint32(matOff))
	binary.LittleEndian.PutUint32(h[0x0c:], uint32(shpOff))
	binary.LittleEndian.PutUint32(h[0x10:], uint32(total))
	h[0x17] = byte(len(m.nodes))
	h[0x18] = byte(len(m.materials))
	h[0x19] = byte(len(m.shapes))
	binary.LittleEndian.PutUint32(h[0x1c:], fx32(1))
	binary.LittleEndian.PutUint32(h[0x20:], fx32(1))
	binary.LittleEndian.PutUint32(h[0x38:], fx32(1))
	binary.LittleEndian.PutUint32(h[0x3c:], fx32(1))
	if m.patch != nil {
		m.patch(h)
	}

	return cat(h, nodeSet, m.sbc, matSet, shpSet)
}

func buildFile(textured bool, models ...testModel) []byte {
	entries := make([]testEntry, len(models))
	for i, m := range models {
		entries[i] = testEntry{name: m.name, data: buildModel(m)}
	}
	body := layoutNamed(offsetModelSetDict, entries)
	modelSet := cat([]byte(modelSetMagic), u32s(uint32(offsetModelSetDict+len(body))), body)

	var blocks uint16 = 1
	if textured {
		blocks = texturedBlockCount
	}
	total := testFileHeaderSize + len(modelSet)

	header := cat(
		[]byte(fileMagic),
		u16s(0xfeff, 2),
		u32s(uint32(total)),
		u16s(0x10, blocks),
		u32s(testFileHeaderSize, uint32(total)),
	)
	return cat(header, modelSet)
}
