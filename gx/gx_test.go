package gx

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/davecgh/go-spew/spew"
	"github.com/go-gl/mathgl/mgl32"
	"gopkg.in/yaml.v3"

	"github.com/red031000/nitrog3d/nitro"
)

func words(ws ...uint32) nitro.Buffer {
	raw := make([]byte, 4*len(ws))
	for i, w := range ws {
		binary.LittleEndian.PutUint32(raw[i*4:], w)
	}
	return nitro.NewBuffer(raw)
}

func TestPushThenNoops(t *testing.T) {
	groups, err := ParseDisplayList(nitro.NewBuffer([]byte{0x11, 0x00, 0x00, 0x00}))
	if err != nil {
		t.Fatal(err)
	}
	if len(groups) != 1 {
		t.Fatalf("got %d groups; expected 1", len(groups))
	}
	expect := [4]Command{PushMatrix{}, Noop{}, Noop{}, Noop{}}
	if groups[0].Commands != expect || groups[0].Offset != 0 {
		t.Errorf("commands:\n%s expected:\n%s", spew.Sdump(groups[0]), spew.Sdump(expect))
	}
}

func TestOperandsFollowWordInSlotOrder(t *testing.T) {
	// matrix_mode, store, color, pop
	op := uint32(OpMatrixMode) | uint32(OpStoreMatrix)<<8 | uint32(OpColor)<<16 | uint32(OpPopMatrix)<<24
	groups, err := ParseDisplayList(words(op, 2, 5, 0x7c1f, 1, uint32(OpIdentity)))
	if err != nil {
		t.Fatal(err)
	}
	if len(groups) != 2 {
		t.Fatalf("got %d groups; expected 2", len(groups))
	}
	expect := []CommandGroup{
		{Offset: 0, Commands: [4]Command{
			SetMatrixMode{Mode: MatrixModePositionVector},
			StoreMatrix{Index: 5},
			VertexColor{Color: nitro.RGB{R: 31, G: 0, B: 31}},
			PopMatrix{Count: 1},
		}},
		{Offset: 20, Commands: [4]Command{LoadIdentity{}, Noop{}, Noop{}, Noop{}}},
	}
	if !reflect.DeepEqual(groups, expect) {
		t.Errorf("groups:\n%s expected:\n%s", spew.Sdump(groups), spew.Sdump(expect))
	}
}

func TestMatrixOperands(t *testing.T) {
	params := make([]uint32, 0, 1+16+12+9)
	params = append(params, uint32(OpLoadMatrix44)|uint32(OpMultMatrix43)<<8|uint32(OpMultMatrix33)<<16)
	for i := 0; i < 16+12+9; i++ {
		params = append(params, uint32(i+1)*0x1000)
	}
	groups, err := ParseDisplayList(words(params...))
	if err != nil {
		t.Fatal(err)
	}

	load := groups[0].Commands[0].(LoadMatrix44)
	if load.Matrix[0] != 1 || load.Matrix[15] != 16 {
		t.Errorf("load 4x4 matrix=%v; expected 1..16 in wire order", load.Matrix)
	}
	mult43 := groups[0].Commands[1].(MultMatrix43)
	if mult43.Matrix[0] != 17 || mult43.Matrix[11] != 28 {
		t.Errorf("mult 4x3 matrix=%v; expected 17..28", mult43.Matrix)
	}
	// flat element 9 starts the fourth column, the translation
	if mult43.Matrix.Col(3) != (mgl32.Vec3{26, 27, 28}) {
		t.Errorf("mult 4x3 translation column=%v; expected [26 27 28]", mult43.Matrix.Col(3))
	}
	mult33 := groups[0].Commands[2].(MultMatrix33)
	if mult33.Matrix[0] != 29 || mult33.Matrix[8] != 37 {
		t.Errorf("mult 3x3 matrix=%v; expected 29..37", mult33.Matrix)
	}
}

func TestScaleTranslate(t *testing.T) {
	op := uint32(OpScale) | uint32(OpTranslate)<<8
	groups, err := ParseDisplayList(words(op, 0x2000, 0x1000, 0x800, 0xfffff000, 0, 0x3000))
	if err != nil {
		t.Fatal(err)
	}
	scale := groups[0].Commands[0].(Scale)
	if scale.Scale != (mgl32.Vec3{2, 1, 0.5}) {
		t.Errorf("scale=%v; expected [2 1 0.5]", scale.Scale)
	}
	if scale.Matrix() != mgl32.Scale3D(2, 1, 0.5) {
		t.Errorf("scale matrix=%v", scale.Matrix())
	}
	tr := groups[0].Commands[1].(Translate)
	if tr.Translation != (mgl32.Vec3{-1, 0, 3}) {
		t.Errorf("translation=%v; expected [-1 0 3]", tr.Translation)
	}
	if tr.Matrix().Col(3) != (mgl32.Vec4{-1, 0, 3, 1}) {
		t.Errorf("translate matrix=%v", tr.Matrix())
	}
}

func TestVertexCommands(t *testing.T) {
	op := uint32(OpVertex16) | uint32(OpVertexXY)<<8 | uint32(OpVertex10)<<16 | uint32(OpTexCoord)<<24
	groups, err := ParseDisplayList(words(op,
		0xf000_1000, 0x0000_0800, // x=1 y=-1 z=0.5
		0x2000_c000, // x=-4 y=2
		1|2<<10|3<<20,
		0xfff0_0020, // s=2 t=-1
	))
	if err != nil {
		t.Fatal(err)
	}
	expect := [4]Command{
		Vertex16{Position: mgl32.Vec3{1, -1, 0.5}},
		VertexXY{X: -4, Y: 2},
		Vertex10{Position: mgl32.Vec3{1.0 / 4096, 2.0 / 4096, 3.0 / 4096}},
		TexCoord{S: 2, T: -1},
	}
	if groups[0].Commands != expect {
		t.Errorf("commands:\n%s expected:\n%s", spew.Sdump(groups[0].Commands), spew.Sdump(expect))
	}
}

func TestLightAndMaterialCommands(t *testing.T) {
	op := uint32(OpLightVector) | uint32(OpLightColor)<<8 | uint32(OpDiffuseAmbient)<<16 | uint32(OpNormal)<<24
	groups, err := ParseDisplayList(words(op,
		2<<30|0x100,
		3<<30|0x001f,
		0x03e0_801f,
		0x100<<10,
	))
	if err != nil {
		t.Fatal(err)
	}
	expect := [4]Command{
		SetLightVector{Light: 2, Direction: mgl32.Vec3{256.0 / 4096, 0, 0}},
		SetLightColor{Light: 3, Color: nitro.RGB{R: 31}},
		SetDiffuseAmbient{DiffuseAmbient{Diffuse: nitro.RGB{R: 31}, VertexColor: true, Ambient: nitro.RGB{G: 31}}},
		Normal{Normal: mgl32.Vec3{0, 256.0 / 4096, 0}},
	}
	if groups[0].Commands != expect {
		t.Errorf("commands:\n%s expected:\n%s", spew.Sdump(groups[0].Commands), spew.Sdump(expect))
	}
}

func TestShininessTable(t *testing.T) {
	params := []uint32{uint32(OpShininess)}
	for i := 0; i < 32; i++ {
		b := uint32(i * 4)
		params = append(params, b|(b+1)<<8|(b+2)<<16|(b+3)<<24)
	}
	groups, err := ParseDisplayList(words(params...))
	if err != nil {
		t.Fatal(err)
	}
	table := groups[0].Commands[0].(SetShininess).Table
	for i, v := range table {
		if int(v) != i {
			t.Fatalf("table[%d]=%d; expected %d", i, v, i)
		}
	}
}

func TestDisplayListErrors(t *testing.T) {
	for _, test := range []struct {
		name   string
		in     nitro.Buffer
		expect error
	}{
		{"unknown opcode", words(0x40), nitro.ErrUnknownOpcode},
		{"unknown opcode in slot 3", words(0x41000000), nitro.ErrUnknownOpcode},
		{"missing operand", words(uint32(OpTranslate), 0x1000), nitro.ErrTruncatedData},
		{"partial word", nitro.NewBuffer([]byte{0x00, 0x00}), nitro.ErrTruncatedData},
		{"matrix mode out of range", words(uint32(OpMatrixMode), 4), nitro.ErrInvalidEnumValue},
	} {
		if _, err := ParseDisplayList(test.in); !errors.Is(err, test.expect) {
			t.Errorf("%s: err=%v; expected %v", test.name, err, test.expect)
		}
	}
}

func TestEmptyDisplayList(t *testing.T) {
	groups, err := ParseDisplayList(nitro.NewBuffer(nil))
	if err != nil || len(groups) != 0 {
		t.Errorf("ParseDisplayList(empty)=%v,%v; expected no groups", groups, err)
	}
}

func TestOpcodeTable(t *testing.T) {
	for op, n := range map[Opcode]int{
		OpNoop: 0, OpMatrixMode: 1, OpPushMatrix: 0, OpPopMatrix: 1, OpStoreMatrix: 1,
		OpRestoreMatrix: 1, OpIdentity: 0, OpLoadMatrix44: 16, OpLoadMatrix43: 12,
		OpMultMatrix44: 16, OpMultMatrix43: 12, OpMultMatrix33: 9, OpScale: 3, OpTranslate: 3,
		OpColor: 1, OpNormal: 1, OpTexCoord: 1, OpVertex16: 2, OpVertex10: 1, OpVertexXY: 1,
		OpVertexXZ: 1, OpVertexYZ: 1, OpVertexDiff: 1, OpPolygonAttr: 1, OpTexImageParam: 1,
		OpTexPaletteBase: 1, OpDiffuseAmbient: 1, OpSpecularEmission: 1, OpLightVector: 1,
		OpLightColor: 1, OpShininess: 32,
	} {
		if !op.Known() || op.Operands() != n {
			t.Errorf("%s: known=%t operands=%d; expected %d", op, op.Known(), op.Operands(), n)
		}
		// every opcode decodes from zeroed parameters
		if c, err := decodeCommand(op, make([]uint32, n)); err != nil || c.Opcode() != op {
			t.Errorf("decodeCommand(%s)=%v,%v", op, c, err)
		}
	}
	if Opcode(0x40).Known() || Opcode(0x40).String() != "unknown_40" {
		t.Errorf("0x40 reported as %q", Opcode(0x40))
	}
}

func TestDecodePolygonAttributes(t *testing.T) {
	w := uint32(0b1001) | 2<<4 | 3<<6 | 1<<11 | 1<<15 | 31<<16 | 63<<24
	expect := PolygonAttributes{
		Lights:                 [4]bool{true, false, false, true},
		Mode:                   PolygonModeToonHighlight,
		Cull:                   CullDisplayBoth,
		TranslucentDepthUpdate: true,
		Fog:                    true,
		Alpha:                  31,
		PolygonID:              63,
	}
	if got := DecodePolygonAttributes(w); got != expect {
		t.Errorf("DecodePolygonAttributes(0x%08x)=%+v; expected %+v", w, got, expect)
	}
}

func TestDecodeTexImageParams(t *testing.T) {
	w := uint32(0x0010) | 1<<16 | 1<<19 | 4<<20 | 7<<23 | 5<<26 | 1<<29 | 2<<30
	expect := TexImageParams{
		Address:           0x80,
		RepeatS:           true,
		FlipT:             true,
		Width:             128,
		Height:            1024,
		Format:            TexFormatCompressed4x4,
		Color0Transparent: true,
		TexGen:            TexGenNormal,
	}
	if got := DecodeTexImageParams(w); got != expect {
		t.Errorf("DecodeTexImageParams(0x%08x)=%+v; expected %+v", w, got, expect)
	}
}

func TestDecodeSpecularEmission(t *testing.T) {
	got := DecodeSpecularEmission(0x7fff_0421)
	expect := SpecularEmission{
		Specular: nitro.RGB{R: 1, G: 1, B: 1},
		Emission: nitro.RGB{R: 31, G: 31, B: 31},
	}
	if got != expect {
		t.Errorf("DecodeSpecularEmission=%+v; expected %+v", got, expect)
	}
}

func TestCommandGroupMarshal(t *testing.T) {
	g := CommandGroup{Offset: 8, Commands: [4]Command{PushMatrix{}, StoreMatrix{Index: 3}, Noop{}, Noop{}}}

	js, err := json.Marshal(g)
	if err != nil {
		t.Fatal(err)
	}
	expect := `{"offset":8,"commands":[{"op":"push_matrix"},{"op":"store_matrix","args":{"index":3}},{"op":"noop"},{"op":"noop"}]}`
	if string(js) != expect {
		t.Errorf("json=%s; expected %s", js, expect)
	}

	ym, err := yaml.Marshal(g)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(ym), "op: store_matrix") || !strings.Contains(string(ym), "index: 3") {
		t.Errorf("yaml missing store_matrix:\n%s", ym)
	}
}
