package nsbmd

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"

	"github.com/red031000/nitrog3d/nitro"
)

// NodeFlags is the SRT flag word opening every node record.
type NodeFlags uint16

const (
	NodeTranslationZero    NodeFlags = 0x0001
	NodeRotationZero       NodeFlags = 0x0002
	NodeScaleOne           NodeFlags = 0x0004
	NodeRotationCompressed NodeFlags = 0x0008
	NodePivotMinus         NodeFlags = 0x0100
	NodePivotReversedC     NodeFlags = 0x0200
	NodePivotReversedD     NodeFlags = 0x0400

	nodePivotMask  NodeFlags = 0x00f0
	nodePivotShift           = 4
)

const (
	nodeHeaderSize     = 4
	nodeRotationOffset = 2
	maxPivot           = 8
	pivotSide          = 3
	fullRotationSize   = 16
	pivotRotationSize  = 4
	translationSize    = 12
	scaleSize          = 24
)

const (
	pivotCellA = iota
	pivotCellB
	pivotCellC
	pivotCellD
)

// pivotTable holds, for every pivot cell (row, column), the (row, column)
// cells receiving A, B, C and D of the remaining 2x2 minor.
var pivotTable = [pivotSide][pivotSide][4][2]int{
	{
		{{1, 1}, {1, 2}, {2, 1}, {2, 2}},
		{{1, 0}, {1, 2}, {2, 0}, {2, 2}},
		{{1, 0}, {1, 1}, {2, 0}, {2, 1}},
	},
	{
		{{0, 1}, {0, 2}, {2, 1}, {2, 2}},
		{{0, 0}, {0, 2}, {2, 0}, {2, 2}},
		{{0, 0}, {0, 1}, {2, 0}, {2, 1}},
	},
	{
		{{0, 1}, {0, 2}, {1, 1}, {1, 2}},
		{{0, 0}, {0, 2}, {1, 0}, {1, 2}},
		{{0, 0}, {0, 1}, {1, 0}, {1, 1}},
	},
}

func (f NodeFlags) Has(flag NodeFlags) bool { return f&flag != 0 }

// Pivot returns the pivot cell index (0..15, valid values 0..8).
func (f NodeFlags) Pivot() int { return int((f & nodePivotMask) >> nodePivotShift) }

// Node is a decoded scene graph transform. Rotation is indexed [row, column]
// through mgl32.Mat3.At / Set.
type Node struct {
	Name         string     `json:"name" yaml:"name"`
	Flags        NodeFlags  `json:"flags" yaml:"flags"`
	Translation  mgl32.Vec3 `json:"translation" yaml:"translation"`
	Rotation     mgl32.Mat3 `json:"rotation" yaml:"rotation"`
	Scale        mgl32.Vec3 `json:"scale" yaml:"scale"`
	InverseScale mgl32.Vec3 `json:"inverseScale" yaml:"inverseScale"`
}

// Matrix composes translation, rotation and scale into a single transform.
func (n Node) Matrix() mgl32.Mat4 {
	return mgl32.Translate3D(n.Translation.Elem()).
		Mul4(n.Rotation.Mat4()).
		Mul4(mgl32.Scale3D(n.Scale.Elem()))
}

// DecodeNode decodes the node record at the start of b and returns the
// number of bytes it occupies.
func DecodeNode(b nitro.Buffer) (Node, int, error) {
	raw, err := b.U16(0)
	if err != nil {
		return Node{}, 0, errors.Wrap(err, "reading node flags")
	}

	n := Node{
		Flags:        NodeFlags(raw),
		Rotation:     mgl32.Ident3(),
		Scale:        mgl32.Vec3{1, 1, 1},
		InverseScale: mgl32.Vec3{1, 1, 1},
	}
	off := nodeHeaderSize

	if !n.Flags.Has(NodeTranslationZero) {
		if n.Translation, err = readFx32Vec3(b, off); err != nil {
			return Node{}, 0, errors.Wrap(err, "reading translation")
		}
		off += translationSize
	}

	switch {
	case n.Flags.Has(NodeRotationZero):
	case n.Flags.Has(NodeRotationCompressed):
		if n.Rotation, err = decodePivotRotation(b, off, n.Flags); err != nil {
			return Node{}, 0, err
		}
		off += pivotRotationSize
	default:
		if n.Rotation, err = decodeFullRotation(b, off); err != nil {
			return Node{}, 0, errors.Wrap(err, "reading rotation")
		}
		off += fullRotationSize
	}

	if !n.Flags.Has(NodeScaleOne) {
		if n.Scale, err = readFx32Vec3(b, off); err != nil {
			return Node{}, 0, errors.Wrap(err, "reading scale")
		}
		if n.InverseScale, err = readFx32Vec3(b, off+translationSize); err != nil {
			return Node{}, 0, errors.Wrap(err, "reading inverse scale")
		}
		off += scaleSize
	}

	return n, off, nil
}

func decodePivotRotation(b nitro.Buffer, off int, flags NodeFlags) (mgl32.Mat3, error) {
	pivot := flags.Pivot()
	if pivot > maxPivot {
		return mgl32.Mat3{}, errors.Wrapf(nitro.ErrInvalidEnumValue, "pivot %d", pivot)
	}

	a, err := b.Fx16(off)
	if err != nil {
		return mgl32.Mat3{}, errors.Wrap(err, "reading pivot rotation")
	}
	bv, err := b.Fx16(off + 2) //nolint:mnd
	if err != nil {
		return mgl32.Mat3{}, errors.Wrap(err, "reading pivot rotation")
	}

	row, col := pivot/pivotSide, pivot%pivotSide
	cells := pivotTable[row][col]

	one, c, d := float32(1), bv, a
	if flags.Has(NodePivotMinus) {
		one = -1
	}
	if flags.Has(NodePivotReversedC) {
		c = -bv
	}
	if flags.Has(NodePivotReversedD) {
		d = -a
	}

	m := mgl32.Ident3()
	m.Set(row, col, one)
	m.Set(cells[pivotCellA][0], cells[pivotCellA][1], a)
	m.Set(cells[pivotCellB][0], cells[pivotCellB][1], bv)
	m.Set(cells[pivotCellC][0], cells[pivotCellC][1], c)
	m.Set(cells[pivotCellD][0], cells[pivotCellD][1], d)

	return m, nil
}

// decodeFullRotation reads the eight trailing cells at off; cell [0][0]
// lives in the second half of the node header.
func decodeFullRotation(b nitro.Buffer, off int) (mgl32.Mat3, error) {
	m := mgl32.Ident3()

	v, err := b.Fx16(nodeRotationOffset)
	if err != nil {
		return m, err
	}
	m.Set(0, 0, v)

	for i := 1; i < pivotSide*pivotSide; i++ {
		if v, err = b.Fx16(off + (i-1)*2); err != nil { //nolint:mnd
			return m, err
		}
		m.Set(i/pivotSide, i%pivotSide, v)
	}

	return m, nil
}

func readFx32Vec3(b nitro.Buffer, off int) (mgl32.Vec3, error) {
	var v mgl32.Vec3
	for i := range v {
		f, err := b.Fx32(off + i*4) //nolint:mnd
		if err != nil {
			return mgl32.Vec3{}, err
		}
		v[i] = f
	}
	return v, nil
}

func reportNode(rep Reporter, n Node) {
	if n.Flags.Has(NodeTranslationZero) {
		infof(rep, "Translation zero")
	} else {
		infof(rep, "Translation: %v", n.Translation)
	}

	switch {
	case n.Flags.Has(NodeRotationZero):
		infof(rep, "Rotation zero")
	case n.Flags.Has(NodeRotationCompressed):
		infof(rep, "Rotation compressed")
		infof(rep, "Rotation: %v", n.Rotation)
	default:
		infof(rep, "Rotation: %v", n.Rotation)
	}

	if n.Flags.Has(NodeScaleOne) {
		infof(rep, "Scale one")
	} else {
		infof(rep, "Scale: %v", n.Scale)
	}
}
