package nsbmd

import (
	"strings"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"

	"github.com/red031000/nitrog3d/dict"
	"github.com/red031000/nitrog3d/gx"
	"github.com/red031000/nitrog3d/nitro"
)

// MaterialFlags is the flag word of a material block.
type MaterialFlags uint16

const (
	MaterialTexMtxUse       MaterialFlags = 0x0001
	MaterialTexMtxScaleOne  MaterialFlags = 0x0002
	MaterialTexMtxRotZero   MaterialFlags = 0x0004
	MaterialTexMtxTransZero MaterialFlags = 0x0008
	MaterialOrigWHSame      MaterialFlags = 0x0010
	MaterialWireframe       MaterialFlags = 0x0020
	MaterialDiffuse         MaterialFlags = 0x0040
	MaterialAmbient         MaterialFlags = 0x0080
	MaterialVertexColor     MaterialFlags = 0x0100
	MaterialSpecular        MaterialFlags = 0x0200
	MaterialEmission        MaterialFlags = 0x0400
	MaterialShininess       MaterialFlags = 0x0800
	MaterialTexPlttBase     MaterialFlags = 0x1000
	MaterialEffectMtx       MaterialFlags = 0x2000
)

var materialFlagNames = []struct {
	flag MaterialFlags
	name string
}{
	{MaterialTexMtxUse, "texmtx_use"},
	{MaterialTexMtxScaleOne, "texmtx_scaleone"},
	{MaterialTexMtxRotZero, "texmtx_rotzero"},
	{MaterialTexMtxTransZero, "texmtx_transzero"},
	{MaterialOrigWHSame, "origwh_same"},
	{MaterialWireframe, "wireframe"},
	{MaterialDiffuse, "diffuse"},
	{MaterialAmbient, "ambient"},
	{MaterialVertexColor, "vtxcolor"},
	{MaterialSpecular, "specular"},
	{MaterialEmission, "emission"},
	{MaterialShininess, "shininess"},
	{MaterialTexPlttBase, "texpltt_base"},
	{MaterialEffectMtx, "effectmtx"},
}

func (f MaterialFlags) Has(flag MaterialFlags) bool { return f&flag != 0 }

func (f MaterialFlags) String() string {
	var parts []string
	for _, n := range materialFlagNames {
		if f.Has(n.flag) {
			parts = append(parts, n.name)
		}
	}
	return strings.Join(parts, "|")
}

func (f MaterialFlags) MarshalText() ([]byte, error) { return []byte(f.String()), nil }

const (
	materialSetDictOffset = 0x04
	materialHeaderSize    = 0x2c

	bindingOffsetMask  = 0xffff
	bindingCountShift  = 16
	bindingCountMask   = 0xff
	bindingBoundShift  = 24
	effectMatrixLength = 16
)

type (
	// Binding links a texture or palette name to one material using it
	Binding struct {
		Name       string `json:"name" yaml:"name"`
		MaterialID int    `json:"materialId" yaml:"materialId"`
		Bound      uint8  `json:"bound" yaml:"bound"`
	}

	Material struct {
		Name    string `json:"name" yaml:"name"`
		ItemTag uint16 `json:"itemTag" yaml:"itemTag"`
		Size    uint16 `json:"size" yaml:"size"`

		Diffuse  nitro.RGB `json:"diffuse" yaml:"diffuse"`
		Ambient  nitro.RGB `json:"ambient" yaml:"ambient"`
		Specular nitro.RGB `json:"specular" yaml:"specular"`
		Emission nitro.RGB `json:"emission" yaml:"emission"`

		VertexColor bool `json:"vertexColor" yaml:"vertexColor"`
		Shininess   bool `json:"shininess" yaml:"shininess"`

		PolygonAttributes     gx.PolygonAttributes `json:"polygonAttributes" yaml:"polygonAttributes"`
		PolygonAttributesMask uint32               `json:"polygonAttributesMask" yaml:"polygonAttributesMask"`
		TexImageParams        gx.TexImageParams    `json:"texImageParams" yaml:"texImageParams"`
		TexImageParamsMask    uint32               `json:"texImageParamsMask" yaml:"texImageParamsMask"`
		TexPaletteBase        uint16               `json:"texPaletteBase" yaml:"texPaletteBase"`
		Flags                 MaterialFlags        `json:"flags" yaml:"flags"`

		OriginWidth     uint16  `json:"originWidth" yaml:"originWidth"`
		OriginHeight    uint16  `json:"originHeight" yaml:"originHeight"`
		WidthMagnitude  float32 `json:"widthMagnitude" yaml:"widthMagnitude"`
		HeightMagnitude float32 `json:"heightMagnitude" yaml:"heightMagnitude"`

		ScaleS       float32     `json:"scaleS" yaml:"scaleS"`
		ScaleT       float32     `json:"scaleT" yaml:"scaleT"`
		RotationSin  float32     `json:"rotationSin" yaml:"rotationSin"`
		RotationCos  float32     `json:"rotationCos" yaml:"rotationCos"`
		TranslationS float32     `json:"translationS" yaml:"translationS"`
		TranslationT float32     `json:"translationT" yaml:"translationT"`
		EffectMatrix *mgl32.Mat4 `json:"effectMatrix,omitempty" yaml:"effectMatrix,omitempty"`

		TextureBindings []Binding `json:"textureBindings" yaml:"textureBindings"`
		PaletteBindings []Binding `json:"paletteBindings" yaml:"paletteBindings"`
	}

	materialHeader struct {
		ItemTag           uint16
		Size              uint16
		DiffAmb           uint32
		SpecEmi           uint32
		PolyAttr          uint32
		PolyAttrMask      uint32
		TexImageParam     uint32
		TexImageParamMask uint32
		TexPlttBase       uint16
		Flags             uint16
		OrigWidth         uint16
		OrigHeight        uint16
		MagWidth          int32
		MagHeight         int32
	}
)

// DecodeMaterial decodes the material block at the start of b.
func DecodeMaterial(b nitro.Buffer) (Material, error) {
	var hdr materialHeader
	if err := b.ReadStruct(0, &hdr); err != nil {
		return Material{}, errors.Wrap(err, "reading material header")
	}

	da := gx.DecodeDiffuseAmbient(hdr.DiffAmb)
	se := gx.DecodeSpecularEmission(hdr.SpecEmi)

	m := Material{
		ItemTag:               hdr.ItemTag,
		Size:                  hdr.Size,
		Diffuse:               da.Diffuse,
		Ambient:               da.Ambient,
		VertexColor:           da.VertexColor,
		Specular:              se.Specular,
		Emission:              se.Emission,
		Shininess:             se.Shininess,
		PolygonAttributes:     gx.DecodePolygonAttributes(hdr.PolyAttr),
		PolygonAttributesMask: hdr.PolyAttrMask,
		TexImageParams:        gx.DecodeTexImageParams(hdr.TexImageParam),
		TexImageParamsMask:    hdr.TexImageParamMask,
		TexPaletteBase:        hdr.TexPlttBase,
		Flags:                 MaterialFlags(hdr.Flags),
		OriginWidth:           hdr.OrigWidth,
		OriginHeight:          hdr.OrigHeight,
		WidthMagnitude:        nitro.FixedToFloat(hdr.MagWidth),
		HeightMagnitude:       nitro.FixedToFloat(hdr.MagHeight),
		ScaleS:                1,
		ScaleT:                1,
		RotationCos:           1,
	}

	off := materialHeaderSize
	var err error

	if m.Flags.Has(MaterialTexMtxUse) {
		if !m.Flags.Has(MaterialTexMtxScaleOne) {
			if m.ScaleS, m.ScaleT, err = readFx32Pair(b, off); err != nil {
				return Material{}, errors.Wrap(err, "reading texture scale")
			}
			off += 8 //nolint:mnd
		}
		if !m.Flags.Has(MaterialTexMtxRotZero) {
			if m.RotationSin, err = b.Fx16(off); err != nil {
				return Material{}, errors.Wrap(err, "reading texture rotation")
			}
			if m.RotationCos, err = b.Fx16(off + 2); err != nil { //nolint:mnd
				return Material{}, errors.Wrap(err, "reading texture rotation")
			}
			off += 4 //nolint:mnd
		}
		if !m.Flags.Has(MaterialTexMtxTransZero) {
			if m.TranslationS, m.TranslationT, err = readFx32Pair(b, off); err != nil {
				return Material{}, errors.Wrap(err, "reading texture translation")
			}
			off += 8 //nolint:mnd
		}
	}

	if m.Flags.Has(MaterialEffectMtx) {
		var mtx mgl32.Mat4
		for i := 0; i < effectMatrixLength; i++ {
			if mtx[i], err = b.Fx32(off + i*4); err != nil { //nolint:mnd
				return Material{}, errors.Wrap(err, "reading effect matrix")
			}
		}
		m.EffectMatrix = &mtx
	}

	return m, nil
}

func readFx32Pair(b nitro.Buffer, off int) (float32, float32, error) {
	s, err := b.Fx32(off)
	if err != nil {
		return 0, 0, err
	}
	t, err := b.Fx32(off + 4) //nolint:mnd
	if err != nil {
		return 0, 0, err
	}
	return s, t, nil
}

// parseMaterialSet decodes every material of the set together with the
// texture and palette bindings and the material index blob.
func parseMaterialSet(b nitro.Buffer, rep Reporter) ([]Material, []byte, error) {
	texDictOffset, err := b.U16(0)
	if err != nil {
		return nil, nil, errors.Wrap(err, "reading texture binding offset")
	}
	plttDictOffset, err := b.U16(2) //nolint:mnd
	if err != nil {
		return nil, nil, errors.Wrap(err, "reading palette binding offset")
	}

	matDict, err := parseDictAt(b, materialSetDictOffset)
	if err != nil {
		return nil, nil, errors.Wrap(err, "reading material dictionary")
	}
	texDict, err := parseDictAt(b, int(texDictOffset))
	if err != nil {
		return nil, nil, errors.Wrap(err, "reading texture binding dictionary")
	}
	plttDict, err := parseDictAt(b, int(plttDictOffset))
	if err != nil {
		return nil, nil, errors.Wrap(err, "reading palette binding dictionary")
	}

	materials := make([]Material, matDict.Len())
	var idxEnd uint32
	for i, e := range matDict.Entries {
		infof(rep, "%s: %08X", e.Name, e.Value)
		if i == 0 || e.Value < idxEnd {
			idxEnd = e.Value
		}

		mb, err := b.Sub(int(e.Value))
		if err != nil {
			return nil, nil, errors.Wrapf(err, "locating material %q", e.Name)
		}
		if materials[i], err = DecodeMaterial(mb); err != nil {
			return nil, nil, errors.Wrapf(err, "reading material %q", e.Name)
		}
		materials[i].Name = e.Name
		debugf(rep, "Material flags: %s", materials[i].Flags)
	}

	if err = bindMaterials(b, texDict, materials, func(m *Material, bd Binding) {
		m.TextureBindings = append(m.TextureBindings, bd)
	}); err != nil {
		return nil, nil, errors.Wrap(err, "reading texture bindings")
	}
	if err = bindMaterials(b, plttDict, materials, func(m *Material, bd Binding) {
		m.PaletteBindings = append(m.PaletteBindings, bd)
	}); err != nil {
		return nil, nil, errors.Wrap(err, "reading palette bindings")
	}

	idxStart := uint32(plttDictOffset) + uint32(plttDict.Size)
	if len(materials) == 0 || idxEnd <= idxStart {
		return materials, []byte{}, nil
	}
	idx, err := b.Slice(int(idxStart), int(idxEnd-idxStart))
	if err != nil {
		return nil, nil, errors.Wrap(err, "reading material index data")
	}

	return materials, idx, nil
}

// bindMaterials walks a texture or palette binding dictionary. Each value
// packs the offset of a material index list, its length and a bound flag.
func bindMaterials(b nitro.Buffer, d *dict.Dictionary, materials []Material, add func(*Material, Binding)) error {
	for _, e := range d.Entries {
		var (
			off   = int(e.Value & bindingOffsetMask)
			count = int((e.Value >> bindingCountShift) & bindingCountMask)
			bound = uint8(e.Value >> bindingBoundShift)
		)

		ids, err := b.Slice(off, count)
		if err != nil {
			return errors.Wrapf(err, "reading material list of %q", e.Name)
		}

		for _, id := range ids {
			if int(id) >= len(materials) {
				return errors.Wrapf(nitro.ErrMalformedDictionary,
					"%q references material %d of %d", e.Name, id, len(materials))
			}
			add(&materials[id], Binding{Name: e.Name, MaterialID: int(id), Bound: bound})
		}
	}

	return nil
}

func parseDictAt(b nitro.Buffer, off int) (*dict.Dictionary, error) {
	db, err := b.Sub(off)
	if err != nil {
		return nil, err
	}
	return dict.Parse(db)
}
