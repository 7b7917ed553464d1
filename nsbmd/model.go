package nsbmd

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"

	"github.com/red031000/nitrog3d/dict"
	"github.com/red031000/nitrog3d/nitro"
)

type (
	ScalingRule       uint8
	TextureMatrixMode uint8
)

const (
	ScalingRuleNormal ScalingRule = iota
	ScalingRuleMaya
	ScalingRuleSoftimage
)

const (
	TextureMatrixModeMaya TextureMatrixMode = iota
	TextureMatrixModeSoftimage3D
	TextureMatrixMode3dsMax
	TextureMatrixModeSoftimageXSI
)

var (
	scalingRuleNames       = []string{"normal", "maya", "softimage"}
	textureMatrixModeNames = []string{"maya", "softimage_3d", "3dsmax", "softimage_xsi"}
)

func (r ScalingRule) String() string {
	if int(r) < len(scalingRuleNames) {
		return scalingRuleNames[r]
	}
	return "unknown"
}

func (m TextureMatrixMode) String() string {
	if int(m) < len(textureMatrixModeNames) {
		return textureMatrixModeNames[m]
	}
	return "unknown"
}

func (r ScalingRule) MarshalText() ([]byte, error)       { return []byte(r.String()), nil }
func (m TextureMatrixMode) MarshalText() ([]byte, error) { return []byte(m.String()), nil }

type (
	// ModelOptions is the model info block
	ModelOptions struct {
		SbcType                  uint8             `json:"sbcType" yaml:"sbcType"`
		ScalingRule              ScalingRule       `json:"scalingRule" yaml:"scalingRule"`
		TextureMatrixMode        TextureMatrixMode `json:"textureMatrixMode" yaml:"textureMatrixMode"`
		NodeCount                uint8             `json:"nodeCount" yaml:"nodeCount"`
		MaterialCount            uint8             `json:"materialCount" yaml:"materialCount"`
		ShapeCount               uint8             `json:"shapeCount" yaml:"shapeCount"`
		FirstUnusedMatrixStackID uint8             `json:"firstUnusedMatrixStackId" yaml:"firstUnusedMatrixStackId"`
		PositionScale            float32           `json:"positionScale" yaml:"positionScale"`
		InversePositionScale     float32           `json:"inversePositionScale" yaml:"inversePositionScale"`
		VertexCount              uint16            `json:"vertexCount" yaml:"vertexCount"`
		PolygonCount             uint16            `json:"polygonCount" yaml:"polygonCount"`
		TriangleCount            uint16            `json:"triangleCount" yaml:"triangleCount"`
		QuadCount                uint16            `json:"quadCount" yaml:"quadCount"`
		BoxOrigin                mgl32.Vec3        `json:"boxOrigin" yaml:"boxOrigin"`
		BoxSize                  mgl32.Vec3        `json:"boxSize" yaml:"boxSize"`
		BoxPositionScale         float32           `json:"boxPositionScale" yaml:"boxPositionScale"`
		InverseBoxPositionScale  float32           `json:"inverseBoxPositionScale" yaml:"inverseBoxPositionScale"`
	}

	Model struct {
		Name    string       `json:"name" yaml:"name"`
		Size    uint32       `json:"size" yaml:"size"`
		Options ModelOptions `json:"options" yaml:"options"`

		SbcOffset      uint32 `json:"sbcOffset" yaml:"sbcOffset"`
		MaterialOffset uint32 `json:"materialOffset" yaml:"materialOffset"`
		ShapeOffset    uint32 `json:"shapeOffset" yaml:"shapeOffset"`
		EnvelopeOffset uint32 `json:"envelopeOffset" yaml:"envelopeOffset"`

		Nodes     []Node     `json:"nodes" yaml:"nodes"`
		Materials []Material `json:"materials" yaml:"materials"`
		Shapes    []Shape    `json:"shapes" yaml:"shapes"`

		// SBC is the structure bytecode consumed by mesh builders
		SBC        []byte `json:"sbc" yaml:"sbc"`
		MatIdxData []byte `json:"matIdxData" yaml:"matIdxData"`
	}

	modelHeader struct {
		Size                  uint32
		SbcOffset             uint32
		MaterialOffset        uint32
		ShapeOffset           uint32
		EnvelopeOffset        uint32
		SbcType               uint8
		ScalingRule           uint8
		TexMtxMode            uint8
		NodeCount             uint8
		MaterialCount         uint8
		ShapeCount            uint8
		FirstUnusedMtxStackID uint8
		_                     uint8
		PosScale              int32
		InvPosScale           int32
		VertexCount           uint16
		PolygonCount          uint16
		TriangleCount         uint16
		QuadCount             uint16
		Box                   [6]int16
		BoxPosScale           int32
		BoxInvPosScale        int32
	}
)

func parseModel(b nitro.Buffer, name string, rep Reporter) (*Model, error) {
	var hdr modelHeader
	if err := b.ReadStruct(0, &hdr); err != nil {
		return nil, errors.Wrap(err, "reading model header")
	}

	m := &Model{
		Name:           name,
		Size:           hdr.Size,
		SbcOffset:      hdr.SbcOffset,
		MaterialOffset: hdr.MaterialOffset,
		ShapeOffset:    hdr.ShapeOffset,
		EnvelopeOffset: hdr.EnvelopeOffset,
	}
	infof(rep, "SBC offset: %08X", m.SbcOffset)
	infof(rep, "Materialset offset: %08X", m.MaterialOffset)
	infof(rep, "Shape offset: %08X", m.ShapeOffset)
	infof(rep, "Envelope matrix offset: %08X", m.EnvelopeOffset)

	var err error
	if m.Options, err = decodeOptions(hdr); err != nil {
		return nil, err
	}
	reportOptions(rep, m.Options)

	if m.Nodes, err = parseNodeSet(b, rep); err != nil {
		return nil, err
	}

	if m.MaterialOffset < m.SbcOffset {
		return nil, errors.Wrapf(nitro.ErrTruncatedData,
			"material set (0x%x) starts before SBC (0x%x)", m.MaterialOffset, m.SbcOffset)
	}
	if m.SBC, err = b.Slice(int(m.SbcOffset), int(m.MaterialOffset-m.SbcOffset)); err != nil {
		return nil, errors.Wrap(err, "reading SBC")
	}
	debugf(rep, "SBC: % x", m.SBC)

	matSet, err := b.Sub(int(m.MaterialOffset))
	if err != nil {
		return nil, errors.Wrap(err, "locating material set")
	}
	if m.Materials, m.MatIdxData, err = parseMaterialSet(matSet, rep); err != nil {
		return nil, errors.Wrap(err, "reading material set")
	}
	debugf(rep, "Material id data: % x", m.MatIdxData)

	shpSet, err := b.Sub(int(m.ShapeOffset))
	if err != nil {
		return nil, errors.Wrap(err, "locating shape set")
	}
	if m.Shapes, err = parseShapeSet(shpSet, rep); err != nil {
		return nil, errors.Wrap(err, "reading shape set")
	}

	return m, nil
}

func decodeOptions(hdr modelHeader) (ModelOptions, error) {
	if int(hdr.ScalingRule) >= len(scalingRuleNames) {
		return ModelOptions{}, errors.Wrapf(nitro.ErrInvalidEnumValue, "scaling rule %d", hdr.ScalingRule)
	}
	if int(hdr.TexMtxMode) >= len(textureMatrixModeNames) {
		return ModelOptions{}, errors.Wrapf(nitro.ErrInvalidEnumValue, "texture matrix mode %d", hdr.TexMtxMode)
	}

	fx16 := func(v int16) float32 { return nitro.FixedToFloat(int32(v)) }

	return ModelOptions{
		SbcType:                  hdr.SbcType,
		ScalingRule:              ScalingRule(hdr.ScalingRule),
		TextureMatrixMode:        TextureMatrixMode(hdr.TexMtxMode),
		NodeCount:                hdr.NodeCount,
		MaterialCount:            hdr.MaterialCount,
		ShapeCount:               hdr.ShapeCount,
		FirstUnusedMatrixStackID: hdr.FirstUnusedMtxStackID,
		PositionScale:            nitro.FixedToFloat(hdr.PosScale),
		InversePositionScale:     nitro.FixedToFloat(hdr.InvPosScale),
		VertexCount:              hdr.VertexCount,
		PolygonCount:             hdr.PolygonCount,
		TriangleCount:            hdr.TriangleCount,
		QuadCount:                hdr.QuadCount,
		BoxOrigin:                mgl32.Vec3{fx16(hdr.Box[0]), fx16(hdr.Box[1]), fx16(hdr.Box[2])},
		BoxSize:                  mgl32.Vec3{fx16(hdr.Box[3]), fx16(hdr.Box[4]), fx16(hdr.Box[5])},
		BoxPositionScale:         nitro.FixedToFloat(hdr.BoxPosScale),
		InverseBoxPositionScale:  nitro.FixedToFloat(hdr.BoxInvPosScale),
	}, nil
}

func reportOptions(rep Reporter, o ModelOptions) {
	infof(rep, "Scaling rule: %s", o.ScalingRule)
	infof(rep, "Texture matrix mode: %s", o.TextureMatrixMode)
	infof(rep, "Joint number: %d", o.NodeCount)
	infof(rep, "Material number: %d", o.MaterialCount)
	infof(rep, "Shape number: %d", o.ShapeCount)
	infof(rep, "First unused matrix stack ID: %d", o.FirstUnusedMatrixStackID)
	infof(rep, "Position scale: %.12f", o.PositionScale)
	infof(rep, "Inverse position scale: %.12f", o.InversePositionScale)
	infof(rep, "Vertex number: %d", o.VertexCount)
	infof(rep, "Polygon number: %d", o.PolygonCount)
	infof(rep, "Triangle number: %d", o.TriangleCount)
	infof(rep, "Quad number: %d", o.QuadCount)
	infof(rep, "Box: %v size %v", o.BoxOrigin, o.BoxSize)
	infof(rep, "Box position scale: %.12f", o.BoxPositionScale)
	infof(rep, "Inverse box position scale: %.12f", o.InverseBoxPositionScale)
}

func parseNodeSet(b nitro.Buffer, rep Reporter) ([]Node, error) {
	set, err := b.Sub(offsetModelNodeDict)
	if err != nil {
		return nil, errors.Wrap(err, "locating node set")
	}
	d, err := dict.Parse(set)
	if err != nil {
		return nil, errors.Wrap(err, "reading node dictionary")
	}

	nodes := make([]Node, d.Len())
	for i, e := range d.Entries {
		infof(rep, "%s: %08X", e.Name, e.Value)

		nb, err := set.Sub(int(e.Value))
		if err != nil {
			return nil, errors.Wrapf(err, "locating node %q", e.Name)
		}
		if nodes[i], _, err = DecodeNode(nb); err != nil {
			return nil, errors.Wrapf(err, "reading node %q", e.Name)
		}
		nodes[i].Name = e.Name
		reportNode(rep, nodes[i])
	}

	return nodes, nil
}
