// Package gx decodes geometry engine state: the packed display lists stored
// in shapes and the attribute words shared by display lists and materials.
package gx

import "fmt"

// Opcode is a geometry command byte.
type Opcode uint8

const (
	OpNoop             Opcode = 0x00
	OpMatrixMode       Opcode = 0x10
	OpPushMatrix       Opcode = 0x11
	OpPopMatrix        Opcode = 0x12
	OpStoreMatrix      Opcode = 0x13
	OpRestoreMatrix    Opcode = 0x14
	OpIdentity         Opcode = 0x15
	OpLoadMatrix44     Opcode = 0x16
	OpLoadMatrix43     Opcode = 0x17
	OpMultMatrix44     Opcode = 0x18
	OpMultMatrix43     Opcode = 0x19
	OpMultMatrix33     Opcode = 0x1a
	OpScale            Opcode = 0x1b
	OpTranslate        Opcode = 0x1c
	OpColor            Opcode = 0x20
	OpNormal           Opcode = 0x21
	OpTexCoord         Opcode = 0x22
	OpVertex16         Opcode = 0x23
	OpVertex10         Opcode = 0x24
	OpVertexXY         Opcode = 0x25
	OpVertexXZ         Opcode = 0x26
	OpVertexYZ         Opcode = 0x27
	OpVertexDiff       Opcode = 0x28
	OpPolygonAttr      Opcode = 0x29
	OpTexImageParam    Opcode = 0x2a
	OpTexPaletteBase   Opcode = 0x2b
	OpDiffuseAmbient   Opcode = 0x30
	OpSpecularEmission Opcode = 0x31
	OpLightVector      Opcode = 0x32
	OpLightColor       Opcode = 0x33
	OpShininess        Opcode = 0x34
)

const (
	maxOperands    = 32
	opcodesPerWord = 4
	wordSize       = 4
	bitsPerOpcode  = 8
)

type opcodeInfo struct {
	name     string
	operands int
}

var opcodes = map[Opcode]opcodeInfo{
	OpNoop:             {"noop", 0},
	OpMatrixMode:       {"matrix_mode", 1},
	OpPushMatrix:       {"push_matrix", 0},
	OpPopMatrix:        {"pop_matrix", 1},
	OpStoreMatrix:      {"store_matrix", 1},
	OpRestoreMatrix:    {"restore_matrix", 1},
	OpIdentity:         {"identity", 0},
	OpLoadMatrix44:     {"load_matrix_4x4", 16},
	OpLoadMatrix43:     {"load_matrix_4x3", 12},
	OpMultMatrix44:     {"mult_matrix_4x4", 16},
	OpMultMatrix43:     {"mult_matrix_4x3", 12},
	OpMultMatrix33:     {"mult_matrix_3x3", 9},
	OpScale:            {"scale", 3},
	OpTranslate:        {"translate", 3},
	OpColor:            {"color", 1},
	OpNormal:           {"normal", 1},
	OpTexCoord:         {"texcoord", 1},
	OpVertex16:         {"vertex_16", 2},
	OpVertex10:         {"vertex_10", 1},
	OpVertexXY:         {"vertex_xy", 1},
	OpVertexXZ:         {"vertex_xz", 1},
	OpVertexYZ:         {"vertex_yz", 1},
	OpVertexDiff:       {"vertex_diff", 1},
	OpPolygonAttr:      {"polygon_attr", 1},
	OpTexImageParam:    {"teximage_param", 1},
	OpTexPaletteBase:   {"texpltt_base", 1},
	OpDiffuseAmbient:   {"diffuse_ambient", 1},
	OpSpecularEmission: {"specular_emission", 1},
	OpLightVector:      {"light_vector", 1},
	OpLightColor:       {"light_color", 1},
	OpShininess:        {"shininess", 32},
}

// Known reports whether op is part of the decoded command set.
func (op Opcode) Known() bool {
	_, ok := opcodes[op]
	return ok
}

// Operands returns the number of 32 bit parameter words op consumes.
func (op Opcode) Operands() int {
	return opcodes[op].operands
}

func (op Opcode) String() string {
	if info, ok := opcodes[op]; ok {
		return info.name
	}
	return fmt.Sprintf("unknown_%02x", uint8(op))
}

func (op Opcode) MarshalText() ([]byte, error) { return []byte(op.String()), nil }
