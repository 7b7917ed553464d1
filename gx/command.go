package gx

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"

	"github.com/red031000/nitrog3d/nitro"
)

// MatrixMode selects the matrix stack addressed by matrix commands.
type MatrixMode uint32

const (
	MatrixModeProjection MatrixMode = iota
	MatrixModePosition
	MatrixModePositionVector
	MatrixModeTexture
)

var matrixModeNames = []string{"projection", "position", "position_vector", "texture"}

func (m MatrixMode) String() string { return enumName(matrixModeNames, int(m)) }

func (m MatrixMode) MarshalText() ([]byte, error) { return []byte(m.String()), nil }

// Command is one decoded display list command. The set of implementations is
// closed; switch on Opcode() to dispatch.
type Command interface {
	Opcode() Opcode
	command()
}

type (
	Noop          struct{}
	PushMatrix    struct{}
	LoadIdentity  struct{}
	SetMatrixMode struct {
		Mode MatrixMode `json:"mode" yaml:"mode"`
	}
	PopMatrix struct {
		Count uint32 `json:"count" yaml:"count"`
	}
	StoreMatrix struct {
		Index uint32 `json:"index" yaml:"index"`
	}
	RestoreMatrix struct {
		Index uint32 `json:"index" yaml:"index"`
	}

	// Matrix operands keep wire order: parameter word i is flat element i.
	LoadMatrix44 struct {
		Matrix mgl32.Mat4 `json:"matrix" yaml:"matrix"`
	}
	LoadMatrix43 struct {
		Matrix mgl32.Mat3x4 `json:"matrix" yaml:"matrix"`
	}
	MultMatrix44 struct {
		Matrix mgl32.Mat4 `json:"matrix" yaml:"matrix"`
	}
	MultMatrix43 struct {
		Matrix mgl32.Mat3x4 `json:"matrix" yaml:"matrix"`
	}
	MultMatrix33 struct {
		Matrix mgl32.Mat3 `json:"matrix" yaml:"matrix"`
	}
	Scale struct {
		Scale mgl32.Vec3 `json:"scale" yaml:"scale"`
	}
	Translate struct {
		Translation mgl32.Vec3 `json:"translation" yaml:"translation"`
	}

	VertexColor struct {
		Color nitro.RGB `json:"color" yaml:"color"`
	}
	Normal struct {
		Normal mgl32.Vec3 `json:"normal" yaml:"normal"`
	}
	TexCoord struct {
		S float32 `json:"s" yaml:"s"`
		T float32 `json:"t" yaml:"t"`
	}
	Vertex16 struct {
		Position mgl32.Vec3 `json:"position" yaml:"position"`
	}
	Vertex10 struct {
		Position mgl32.Vec3 `json:"position" yaml:"position"`
	}
	VertexXY struct {
		X float32 `json:"x" yaml:"x"`
		Y float32 `json:"y" yaml:"y"`
	}
	VertexXZ struct {
		X float32 `json:"x" yaml:"x"`
		Z float32 `json:"z" yaml:"z"`
	}
	VertexYZ struct {
		Y float32 `json:"y" yaml:"y"`
		Z float32 `json:"z" yaml:"z"`
	}
	VertexDiff struct {
		Delta mgl32.Vec3 `json:"delta" yaml:"delta"`
	}

	SetPolygonAttr struct {
		Attributes PolygonAttributes `json:"attributes" yaml:"attributes"`
	}
	SetTexImageParam struct {
		Params TexImageParams `json:"params" yaml:"params"`
	}
	SetTexPaletteBase struct {
		Base uint32 `json:"base" yaml:"base"`
	}
	SetDiffuseAmbient struct {
		DiffuseAmbient `yaml:",inline"`
	}
	SetSpecularEmission struct {
		SpecularEmission `yaml:",inline"`
	}
	SetLightVector struct {
		Light     uint8      `json:"light" yaml:"light"`
		Direction mgl32.Vec3 `json:"direction" yaml:"direction"`
	}
	SetLightColor struct {
		Light uint8     `json:"light" yaml:"light"`
		Color nitro.RGB `json:"color" yaml:"color"`
	}
	SetShininess struct {
		Table [128]uint8 `json:"table" yaml:"table"`
	}
)

func (Noop) Opcode() Opcode                { return OpNoop }
func (SetMatrixMode) Opcode() Opcode       { return OpMatrixMode }
func (PushMatrix) Opcode() Opcode          { return OpPushMatrix }
func (PopMatrix) Opcode() Opcode           { return OpPopMatrix }
func (StoreMatrix) Opcode() Opcode         { return OpStoreMatrix }
func (RestoreMatrix) Opcode() Opcode       { return OpRestoreMatrix }
func (LoadIdentity) Opcode() Opcode        { return OpIdentity }
func (LoadMatrix44) Opcode() Opcode        { return OpLoadMatrix44 }
func (LoadMatrix43) Opcode() Opcode        { return OpLoadMatrix43 }
func (MultMatrix44) Opcode() Opcode        { return OpMultMatrix44 }
func (MultMatrix43) Opcode() Opcode        { return OpMultMatrix43 }
func (MultMatrix33) Opcode() Opcode        { return OpMultMatrix33 }
func (Scale) Opcode() Opcode               { return OpScale }
func (Translate) Opcode() Opcode           { return OpTranslate }
func (VertexColor) Opcode() Opcode         { return OpColor }
func (Normal) Opcode() Opcode              { return OpNormal }
func (TexCoord) Opcode() Opcode            { return OpTexCoord }
func (Vertex16) Opcode() Opcode            { return OpVertex16 }
func (Vertex10) Opcode() Opcode            { return OpVertex10 }
func (VertexXY) Opcode() Opcode            { return OpVertexXY }
func (VertexXZ) Opcode() Opcode            { return OpVertexXZ }
func (VertexYZ) Opcode() Opcode            { return OpVertexYZ }
func (VertexDiff) Opcode() Opcode          { return OpVertexDiff }
func (SetPolygonAttr) Opcode() Opcode      { return OpPolygonAttr }
func (SetTexImageParam) Opcode() Opcode    { return OpTexImageParam }
func (SetTexPaletteBase) Opcode() Opcode   { return OpTexPaletteBase }
func (SetDiffuseAmbient) Opcode() Opcode   { return OpDiffuseAmbient }
func (SetSpecularEmission) Opcode() Opcode { return OpSpecularEmission }
func (SetLightVector) Opcode() Opcode      { return OpLightVector }
func (SetLightColor) Opcode() Opcode       { return OpLightColor }
func (SetShininess) Opcode() Opcode        { return OpShininess }

func (Noop) command()                {}
func (SetMatrixMode) command()       {}
func (PushMatrix) command()          {}
func (PopMatrix) command()           {}
func (StoreMatrix) command()         {}
func (RestoreMatrix) command()       {}
func (LoadIdentity) command()        {}
func (LoadMatrix44) command()        {}
func (LoadMatrix43) command()        {}
func (MultMatrix44) command()        {}
func (MultMatrix43) command()        {}
func (MultMatrix33) command()        {}
func (Scale) command()               {}
func (Translate) command()           {}
func (VertexColor) command()         {}
func (Normal) command()              {}
func (TexCoord) command()            {}
func (Vertex16) command()            {}
func (Vertex10) command()            {}
func (VertexXY) command()            {}
func (VertexXZ) command()            {}
func (VertexYZ) command()            {}
func (VertexDiff) command()          {}
func (SetPolygonAttr) command()      {}
func (SetTexImageParam) command()    {}
func (SetTexPaletteBase) command()   {}
func (SetDiffuseAmbient) command()   {}
func (SetSpecularEmission) command() {}
func (SetLightVector) command()      {}
func (SetLightColor) command()       {}
func (SetShininess) command()        {}

// Matrix returns the scale as a homogeneous transform.
func (c Scale) Matrix() mgl32.Mat4 {
	return mgl32.Scale3D(c.Scale[0], c.Scale[1], c.Scale[2])
}

// Matrix returns the translation as a homogeneous transform.
func (c Translate) Matrix() mgl32.Mat4 {
	return mgl32.Translate3D(c.Translation[0], c.Translation[1], c.Translation[2])
}

const (
	lightShift     = 30
	lightValueMask = 0x3fffffff
	texCoordShift  = 8
)

// decodeCommand builds the command for op from its parameter words. len(p)
// always equals op.Operands().
func decodeCommand(op Opcode, p []uint32) (Command, error) {
	switch op {
	case OpNoop:
		return Noop{}, nil
	case OpMatrixMode:
		mode := MatrixMode(p[0])
		if mode > MatrixModeTexture {
			return nil, errors.Wrapf(nitro.ErrInvalidEnumValue, "matrix mode %d", p[0])
		}
		return SetMatrixMode{Mode: mode}, nil
	case OpPushMatrix:
		return PushMatrix{}, nil
	case OpPopMatrix:
		return PopMatrix{Count: p[0]}, nil
	case OpStoreMatrix:
		return StoreMatrix{Index: p[0]}, nil
	case OpRestoreMatrix:
		return RestoreMatrix{Index: p[0]}, nil
	case OpIdentity:
		return LoadIdentity{}, nil
	case OpLoadMatrix44:
		c := LoadMatrix44{}
		fillFixed(c.Matrix[:], p)
		return c, nil
	case OpLoadMatrix43:
		c := LoadMatrix43{}
		fillFixed(c.Matrix[:], p)
		return c, nil
	case OpMultMatrix44:
		c := MultMatrix44{}
		fillFixed(c.Matrix[:], p)
		return c, nil
	case OpMultMatrix43:
		c := MultMatrix43{}
		fillFixed(c.Matrix[:], p)
		return c, nil
	case OpMultMatrix33:
		c := MultMatrix33{}
		fillFixed(c.Matrix[:], p)
		return c, nil
	case OpScale:
		c := Scale{}
		fillFixed(c.Scale[:], p)
		return c, nil
	case OpTranslate:
		c := Translate{}
		fillFixed(c.Translation[:], p)
		return c, nil
	case OpColor:
		return VertexColor{Color: nitro.ToRGB(uint16(p[0] & colorMask))}, nil
	case OpNormal:
		return Normal{Normal: nitro.Vec10ToVec(p[0])}, nil
	case OpTexCoord:
		return TexCoord{
			S: nitro.FixedToFloat(int32(int16(p[0])) << texCoordShift),
			T: nitro.FixedToFloat(int32(int16(p[0]>>16)) << texCoordShift),
		}, nil
	case OpVertex16:
		return Vertex16{Position: mgl32.Vec3{lowFx16(p[0]), highFx16(p[0]), lowFx16(p[1])}}, nil
	case OpVertex10:
		return Vertex10{Position: nitro.Vec10ToVec(p[0])}, nil
	case OpVertexXY:
		return VertexXY{X: lowFx16(p[0]), Y: highFx16(p[0])}, nil
	case OpVertexXZ:
		return VertexXZ{X: lowFx16(p[0]), Z: highFx16(p[0])}, nil
	case OpVertexYZ:
		return VertexYZ{Y: lowFx16(p[0]), Z: highFx16(p[0])}, nil
	case OpVertexDiff:
		return VertexDiff{Delta: nitro.Vec10ToVec(p[0])}, nil
	case OpPolygonAttr:
		return SetPolygonAttr{Attributes: DecodePolygonAttributes(p[0])}, nil
	case OpTexImageParam:
		return SetTexImageParam{Params: DecodeTexImageParams(p[0])}, nil
	case OpTexPaletteBase:
		return SetTexPaletteBase{Base: p[0]}, nil
	case OpDiffuseAmbient:
		return SetDiffuseAmbient{DecodeDiffuseAmbient(p[0])}, nil
	case OpSpecularEmission:
		return SetSpecularEmission{DecodeSpecularEmission(p[0])}, nil
	case OpLightVector:
		return SetLightVector{
			Light:     uint8(p[0] >> lightShift),
			Direction: nitro.Vec10ToVec(p[0] & lightValueMask),
		}, nil
	case OpLightColor:
		return SetLightColor{
			Light: uint8(p[0] >> lightShift),
			Color: nitro.ToRGB(uint16(p[0] & colorMask)),
		}, nil
	case OpShininess:
		c := SetShininess{}
		for i, w := range p {
			c.Table[i*4] = uint8(w)
			c.Table[i*4+1] = uint8(w >> 8)
			c.Table[i*4+2] = uint8(w >> 16)
			c.Table[i*4+3] = uint8(w >> 24)
		}
		return c, nil
	}
	return nil, errors.Wrapf(nitro.ErrUnknownOpcode, "0x%02x", uint8(op))
}

func fillFixed(dst []float32, p []uint32) {
	for i := range dst {
		dst[i] = nitro.FixedToFloat(int32(p[i]))
	}
}

func lowFx16(w uint32) float32  { return nitro.FixedToFloat(int32(int16(w))) }
func highFx16(w uint32) float32 { return nitro.FixedToFloat(int32(int16(w >> 16))) }
