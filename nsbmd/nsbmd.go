// Package nsbmd contains a decoder for G3D model containers (BMD0 files)
// producing the node, material and shape tree of every model inside.
package nsbmd

import (
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/red031000/nitrog3d/dict"
	"github.com/red031000/nitrog3d/nitro"
)

const (
	fileMagic     = "BMD0"
	modelSetMagic = "MDL0"

	texturedBlockCount = 2

	offsetModelSet      = 0x10
	offsetTextureSet    = 0x14
	offsetModelSetSize  = 0x04
	offsetModelSetDict  = 0x08
	offsetModelNodeDict = 0x40
)

type (
	// Config controls a Parse call. The zero value discards diagnostics and
	// decodes models sequentially.
	Config struct {
		Reporter Reporter

		// Workers is the number of models decoded concurrently
		Workers int
	}

	// Container is the decoded file
	Container struct {
		ByteOrder     uint16 `json:"byteOrder" yaml:"byteOrder"`
		Version       uint16 `json:"version" yaml:"version"`
		FileSize      uint32 `json:"fileSize" yaml:"fileSize"`
		HeaderSize    uint16 `json:"headerSize" yaml:"headerSize"`
		BlockCount    uint16 `json:"blockCount" yaml:"blockCount"`
		HasTextures   bool   `json:"hasTextures" yaml:"hasTextures"`
		ModelOffset   uint32 `json:"modelOffset" yaml:"modelOffset"`
		TextureOffset uint32 `json:"textureOffset" yaml:"textureOffset"`
		ModelSetSize  uint32 `json:"modelSetSize" yaml:"modelSetSize"`

		Models []*Model `json:"models" yaml:"models"`
	}

	fileHeader struct {
		Magic      [4]byte
		ByteOrder  uint16
		Version    uint16
		FileSize   uint32
		HeaderSize uint16
		BlockCount uint16
	}
)

// Parse decodes a complete BMD0 file. The returned tree references data
// (SBC and material index blobs) so data must not be modified afterwards.
func Parse(data []byte, cfg Config) (*Container, error) {
	rep := cfg.Reporter
	if rep == nil {
		rep = Discard
	}

	b := nitro.NewBuffer(data)
	if err := b.CheckMagic(0, fileMagic); err != nil {
		return nil, errors.Wrap(err, "reading file header")
	}

	var hdr fileHeader
	if err := b.ReadStruct(0, &hdr); err != nil {
		return nil, errors.Wrap(err, "reading file header")
	}

	c := &Container{
		ByteOrder:   hdr.ByteOrder,
		Version:     hdr.Version,
		FileSize:    hdr.FileSize,
		HeaderSize:  hdr.HeaderSize,
		BlockCount:  hdr.BlockCount,
		HasTextures: hdr.BlockCount == texturedBlockCount,
	}

	var err error
	if c.ModelOffset, err = b.U32(offsetModelSet); err != nil {
		return nil, errors.Wrap(err, "reading model set offset")
	}
	infof(rep, "Model offset: %08X", c.ModelOffset)

	if c.HasTextures {
		if c.TextureOffset, err = b.U32(offsetTextureSet); err != nil {
			return nil, errors.Wrap(err, "reading texture set offset")
		}
		infof(rep, "Texture offset: %08X", c.TextureOffset)
	}

	if c.Models, c.ModelSetSize, err = parseModelSet(b, c.ModelOffset, cfg.Workers, rep); err != nil {
		return nil, err
	}

	return c, nil
}

func parseModelSet(b nitro.Buffer, offset uint32, workers int, rep Reporter) ([]*Model, uint32, error) {
	set, err := b.Sub(int(offset))
	if err != nil {
		return nil, 0, errors.Wrap(err, "locating model set")
	}
	if err = set.CheckMagic(0, modelSetMagic); err != nil {
		return nil, 0, errors.Wrap(err, "reading model set")
	}

	size, err := set.U32(offsetModelSetSize)
	if err != nil {
		return nil, 0, errors.Wrap(err, "reading model set size")
	}

	dictBuf, err := set.Sub(offsetModelSetDict)
	if err != nil {
		return nil, 0, errors.Wrap(err, "locating model dictionary")
	}
	d, err := dict.Parse(dictBuf)
	if err != nil {
		return nil, 0, errors.Wrap(err, "reading model dictionary")
	}

	models := make([]*Model, d.Len())
	decode := func(i int) error {
		e := d.Entries[i]
		infof(rep, "%s: %08X", e.Name, e.Value)

		mb, err := set.Sub(int(e.Value))
		if err != nil {
			return errors.Wrapf(err, "locating model %q", e.Name)
		}
		if models[i], err = parseModel(mb, e.Name, rep); err != nil {
			return errors.Wrapf(err, "reading model %q", e.Name)
		}
		return nil
	}

	if workers <= 1 {
		for i := range models {
			if err = decode(i); err != nil {
				return nil, 0, err
			}
		}
		return models, size, nil
	}

	var g errgroup.Group
	g.SetLimit(workers)
	for i := range models {
		i := i
		g.Go(func() error { return decode(i) })
	}
	if err = g.Wait(); err != nil {
		return nil, 0, err
	}

	return models, size, nil
}
