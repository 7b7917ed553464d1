package nsbmd

import (
	"github.com/pkg/errors"

	"github.com/red031000/nitrog3d/gx"
	"github.com/red031000/nitrog3d/nitro"
)

// ShapeFlags tells which vertex attributes a shape's display list sets.
type ShapeFlags uint32

const (
	ShapeUseNormal     ShapeFlags = 0x1
	ShapeUseColor      ShapeFlags = 0x2
	ShapeUseTexCoord   ShapeFlags = 0x4
	ShapeUseRestoreMtx ShapeFlags = 0x8
)

func (f ShapeFlags) Has(flag ShapeFlags) bool { return f&flag != 0 }

type (
	Shape struct {
		Name    string     `json:"name" yaml:"name"`
		ItemTag uint16     `json:"itemTag" yaml:"itemTag"`
		Size    uint16     `json:"size" yaml:"size"`
		Flags   ShapeFlags `json:"flags" yaml:"flags"`

		UseNormal     bool `json:"useNormal" yaml:"useNormal"`
		UseColor      bool `json:"useColor" yaml:"useColor"`
		UseTexCoord   bool `json:"useTexCoord" yaml:"useTexCoord"`
		UseRestoreMtx bool `json:"useRestoreMtx" yaml:"useRestoreMtx"`

		DisplayListOffset uint32            `json:"displayListOffset" yaml:"displayListOffset"`
		DisplayListSize   uint32            `json:"displayListSize" yaml:"displayListSize"`
		DisplayList       []gx.CommandGroup `json:"displayList" yaml:"displayList"`
	}

	shapeHeader struct {
		ItemTag uint16
		Size    uint16
		Flags   uint32
		DLOff   uint32
		DLSize  uint32
	}
)

// DecodeShape decodes the shape block at the start of b including its
// display list.
func DecodeShape(b nitro.Buffer) (Shape, error) {
	var hdr shapeHeader
	if err := b.ReadStruct(0, &hdr); err != nil {
		return Shape{}, errors.Wrap(err, "reading shape header")
	}

	flags := ShapeFlags(hdr.Flags)
	s := Shape{
		ItemTag:           hdr.ItemTag,
		Size:              hdr.Size,
		Flags:             flags,
		UseNormal:         flags.Has(ShapeUseNormal),
		UseColor:          flags.Has(ShapeUseColor),
		UseTexCoord:       flags.Has(ShapeUseTexCoord),
		UseRestoreMtx:     flags.Has(ShapeUseRestoreMtx),
		DisplayListOffset: hdr.DLOff,
		DisplayListSize:   hdr.DLSize,
	}

	dl, err := b.Window(int(hdr.DLOff), int(hdr.DLSize))
	if err != nil {
		return Shape{}, errors.Wrap(err, "locating display list")
	}
	if s.DisplayList, err = gx.ParseDisplayList(dl); err != nil {
		return Shape{}, errors.Wrap(err, "reading display list")
	}

	return s, nil
}

func parseShapeSet(b nitro.Buffer, rep Reporter) ([]Shape, error) {
	d, err := parseDictAt(b, 0)
	if err != nil {
		return nil, errors.Wrap(err, "reading shape dictionary")
	}

	shapes := make([]Shape, d.Len())
	for i, e := range d.Entries {
		infof(rep, "%s: %08X", e.Name, e.Value)

		sb, err := b.Sub(int(e.Value))
		if err != nil {
			return nil, errors.Wrapf(err, "locating shape %q", e.Name)
		}
		if shapes[i], err = DecodeShape(sb); err != nil {
			return nil, errors.Wrapf(err, "reading shape %q", e.Name)
		}
		shapes[i].Name = e.Name

		debugf(rep, "Display list: %d words at %08X, %d groups",
			shapes[i].DisplayListSize/4, sb.Base()+int(shapes[i].DisplayListOffset), len(shapes[i].DisplayList)) //nolint:mnd
	}

	return shapes, nil
}
