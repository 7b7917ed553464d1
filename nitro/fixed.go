package nitro

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
)

// FixedOne is the raw value of 1.0 (12 fractional bits).
const FixedOne = 4096.0

const (
	vec10Mask  = 0x3ff
	vec10Shift = 10
	rgbMask    = 0x1f
)

func FixedToFloat(raw int32) float32 {
	return float32(raw) / FixedOne
}

func FixedVec3(raw [3]int32) mgl32.Vec3 {
	return mgl32.Vec3{FixedToFloat(raw[0]), FixedToFloat(raw[1]), FixedToFloat(raw[2])}
}

// Vec10ToVec unpacks three 10 bit fields (bits 0-9, 10-19, 20-29).
func Vec10ToVec(raw uint32) mgl32.Vec3 {
	return mgl32.Vec3{
		FixedToFloat(int32(raw & vec10Mask)),
		FixedToFloat(int32((raw >> vec10Shift) & vec10Mask)),
		FixedToFloat(int32((raw >> (2 * vec10Shift)) & vec10Mask)),
	}
}

// RGB is a 5 bit per channel color, channels in range 0..31.
type RGB struct {
	R uint8 `json:"r" yaml:"r"`
	G uint8 `json:"g" yaml:"g"`
	B uint8 `json:"b" yaml:"b"`
}

func ToRGB(raw uint16) RGB {
	return RGB{
		R: uint8(raw & rgbMask),
		G: uint8((raw >> 5) & rgbMask),  //nolint:mnd
		B: uint8((raw >> 10) & rgbMask), //nolint:mnd
	}
}

func (c RGB) String() string {
	return fmt.Sprintf("rgb(%d,%d,%d)", c.R, c.G, c.B)
}
