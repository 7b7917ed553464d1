package gx

import (
	"github.com/red031000/nitrog3d/nitro"
)

type (
	PolygonMode uint8
	CullMode    uint8
	TexFormat   uint8
	TexGen      uint8
)

const (
	PolygonModeModulate PolygonMode = iota
	PolygonModeDecal
	PolygonModeToonHighlight
	PolygonModeShadow
)

const (
	CullDisplayNone CullMode = iota
	CullDisplayBack
	CullDisplayFront
	CullDisplayBoth
)

const (
	TexFormatNone TexFormat = iota
	TexFormatA3I5
	TexFormatPalette4
	TexFormatPalette16
	TexFormatPalette256
	TexFormatCompressed4x4
	TexFormatA5I3
	TexFormatDirect
)

const (
	TexGenNone TexGen = iota
	TexGenTexCoord
	TexGenNormal
	TexGenVertex
)

var (
	polygonModeNames = []string{"modulate", "decal", "toon_highlight", "shadow"}
	cullModeNames    = []string{"display_none", "display_back", "display_front", "display_both"}
	texFormatNames   = []string{"none", "a3i5", "palette4", "palette16", "palette256", "compressed4x4", "a5i3", "direct"}
	texGenNames      = []string{"none", "texcoord", "normal", "vertex"}
)

func (m PolygonMode) String() string { return enumName(polygonModeNames, int(m)) }
func (m CullMode) String() string    { return enumName(cullModeNames, int(m)) }
func (f TexFormat) String() string   { return enumName(texFormatNames, int(f)) }
func (g TexGen) String() string      { return enumName(texGenNames, int(g)) }

func (m PolygonMode) MarshalText() ([]byte, error) { return []byte(m.String()), nil }
func (m CullMode) MarshalText() ([]byte, error)    { return []byte(m.String()), nil }
func (f TexFormat) MarshalText() ([]byte, error)   { return []byte(f.String()), nil }
func (g TexGen) MarshalText() ([]byte, error)      { return []byte(g.String()), nil }

type (
	// PolygonAttributes is the decoded POLYGON_ATTR word
	PolygonAttributes struct {
		Lights                 [4]bool     `json:"lights" yaml:"lights"`
		Mode                   PolygonMode `json:"mode" yaml:"mode"`
		Cull                   CullMode    `json:"cull" yaml:"cull"`
		TranslucentDepthUpdate bool        `json:"translucentDepthUpdate" yaml:"translucentDepthUpdate"`
		FarPlaneClip           bool        `json:"farPlaneClip" yaml:"farPlaneClip"`
		Render1Dot             bool        `json:"render1Dot" yaml:"render1Dot"`
		DepthEqual             bool        `json:"depthEqual" yaml:"depthEqual"`
		Fog                    bool        `json:"fog" yaml:"fog"`
		Alpha                  uint8       `json:"alpha" yaml:"alpha"`
		PolygonID              uint8       `json:"polygonId" yaml:"polygonId"`
	}

	// TexImageParams is the decoded TEXIMAGE_PARAM word
	TexImageParams struct {
		Address           uint32    `json:"address" yaml:"address"`
		RepeatS           bool      `json:"repeatS" yaml:"repeatS"`
		RepeatT           bool      `json:"repeatT" yaml:"repeatT"`
		FlipS             bool      `json:"flipS" yaml:"flipS"`
		FlipT             bool      `json:"flipT" yaml:"flipT"`
		Width             uint16    `json:"width" yaml:"width"`
		Height            uint16    `json:"height" yaml:"height"`
		Format            TexFormat `json:"format" yaml:"format"`
		Color0Transparent bool      `json:"color0Transparent" yaml:"color0Transparent"`
		TexGen            TexGen    `json:"texGen" yaml:"texGen"`
	}

	DiffuseAmbient struct {
		Diffuse     nitro.RGB `json:"diffuse" yaml:"diffuse"`
		VertexColor bool      `json:"vertexColor" yaml:"vertexColor"`
		Ambient     nitro.RGB `json:"ambient" yaml:"ambient"`
	}

	SpecularEmission struct {
		Specular  nitro.RGB `json:"specular" yaml:"specular"`
		Shininess bool      `json:"shininess" yaml:"shininess"`
		Emission  nitro.RGB `json:"emission" yaml:"emission"`
	}
)

const (
	colorMask       = 0x7fff
	texAddressShift = 3
	texSizeBase     = 8
)

func bit(w uint32, n uint) bool {
	return (w>>n)&1 != 0
}

func field(w uint32, shift, width uint) uint32 {
	return (w >> shift) & (1<<width - 1)
}

func DecodePolygonAttributes(w uint32) PolygonAttributes {
	return PolygonAttributes{
		Lights:                 [4]bool{bit(w, 0), bit(w, 1), bit(w, 2), bit(w, 3)},
		Mode:                   PolygonMode(field(w, 4, 2)),
		Cull:                   CullMode(field(w, 6, 2)),
		TranslucentDepthUpdate: bit(w, 11),
		FarPlaneClip:           bit(w, 12),
		Render1Dot:             bit(w, 13),
		DepthEqual:             bit(w, 14),
		Fog:                    bit(w, 15),
		Alpha:                  uint8(field(w, 16, 5)),
		PolygonID:              uint8(field(w, 24, 6)),
	}
}

func DecodeTexImageParams(w uint32) TexImageParams {
	return TexImageParams{
		Address:           field(w, 0, 16) << texAddressShift,
		RepeatS:           bit(w, 16),
		RepeatT:           bit(w, 17),
		FlipS:             bit(w, 18),
		FlipT:             bit(w, 19),
		Width:             texSizeBase << field(w, 20, 3),
		Height:            texSizeBase << field(w, 23, 3),
		Format:            TexFormat(field(w, 26, 3)),
		Color0Transparent: bit(w, 29),
		TexGen:            TexGen(field(w, 30, 2)),
	}
}

func DecodeDiffuseAmbient(w uint32) DiffuseAmbient {
	return DiffuseAmbient{
		Diffuse:     nitro.ToRGB(uint16(w & colorMask)),
		VertexColor: bit(w, 15),
		Ambient:     nitro.ToRGB(uint16((w >> 16) & colorMask)),
	}
}

func DecodeSpecularEmission(w uint32) SpecularEmission {
	return SpecularEmission{
		Specular:  nitro.ToRGB(uint16(w & colorMask)),
		Shininess: bit(w, 15),
		Emission:  nitro.ToRGB(uint16((w >> 16) & colorMask)),
	}
}

func enumName(names []string, v int) string {
	if v < 0 || v >= len(names) {
		return "unknown"
	}
	return names[v]
}
