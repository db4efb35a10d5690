package compiler

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/Faultbox/cubemodel/internal/atlas"
	"github.com/Faultbox/cubemodel/internal/mesh"
	"github.com/Faultbox/cubemodel/pkg/blockmodel"
	"github.com/Faultbox/cubemodel/pkg/resource"
)

// memLoader serves files keyed by storage path.
type memLoader map[string][]byte

func (l memLoader) Load(path string) ([]byte, error) {
	data, ok := l[path]
	if !ok {
		return nil, resource.ErrNotFound
	}
	return data, nil
}

func pngBytes(t *testing.T, w, h int, c color.NRGBA) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encoding png: %v", err)
	}
	return buf.Bytes()
}

func model(p string) string   { return "assets/minecraft/models/" + p + ".json" }
func texPath(p string) string { return "assets/minecraft/textures/" + p + ".png" }

const cubeDoc = `{
  "elements": [{"from": [0, 0, 0], "to": [16, 16, 16], "faces": {
    "down": {"texture": "#down"}, "up": {"texture": "#up"},
    "north": {"texture": "#north"}, "south": {"texture": "#south"},
    "west": {"texture": "#west"}, "east": {"texture": "#east"}
  }}]
}`

const cubeAllDoc = `{
  "parent": "block/cube",
  "textures": {"down": "#all", "up": "#all", "north": "#all", "south": "#all", "west": "#all", "east": "#all"}
}`

func testLoader(t *testing.T) memLoader {
	t.Helper()
	return memLoader{
		model("block/cube"):     []byte(cubeDoc),
		model("block/cube_all"): []byte(cubeAllDoc),
		model("block/stone"):    []byte(`{"parent": "block/cube_all", "textures": {"all": "block/stone"}}`),
		model("block/log"): []byte(`{"parent": "block/cube_all", "textures": {
			"all": "block/log_side", "up": "block/log_top", "down": "block/log_top"}}`),
		model("block/glass"):      []byte(`{"parent": "block/cube_all", "textures": {"all": "block/glass"}}`),
		model("block/orphan"):     []byte(`{"parent": "block/nowhere", "textures": {"all": "block/stone"}}`),
		model("block/empty"):      []byte(`{"elements": [{"from": [0, 0, 0], "to": [16, 16, 16], "faces": {}}]}`),
		model("item/generated"):   []byte(`{"parent": "builtin/generated"}`),
		model("item/stick"):       []byte(`{"parent": "item/generated", "textures": {"layer0": "item/stick"}}`),
		texPath("block/stone"):    pngBytes(t, 16, 16, color.NRGBA{R: 128, G: 128, B: 128, A: 255}),
		texPath("block/log_side"): pngBytes(t, 16, 16, color.NRGBA{R: 100, G: 70, B: 40, A: 255}),
		texPath("block/log_top"):  pngBytes(t, 16, 64, color.NRGBA{R: 160, G: 130, B: 80, A: 255}),
		texPath("item/stick"):     pngBytes(t, 16, 16, color.NRGBA{R: 120, G: 90, B: 50, A: 255}),
	}
}

func TestCompileCube(t *testing.T) {
	c := New(testLoader(t), DefaultOptions())

	res, err := c.Compile(resource.MustParse("block/stone"))
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if res.Geometry.VertexCount() != 36 {
		t.Errorf("VertexCount = %d, want 36", res.Geometry.VertexCount())
	}
	// Six variables alias one file, which is packed once.
	if res.Atlas.Len() != 1 || res.Atlas.Width != 16 || res.Atlas.Height != 16 {
		t.Errorf("atlas %dx%d with %d textures, want one 16x16", res.Atlas.Width, res.Atlas.Height, res.Atlas.Len())
	}
	if got := res.Variables["north"]; got != "minecraft:textures/block/stone.png" {
		t.Errorf("Variables[north] = %q", got)
	}
	if len(res.Model.Chain) != 3 {
		t.Errorf("chain length = %d, want 3", len(res.Model.Chain))
	}
	if res.IconOnly() {
		t.Error("cube reported as icon-only")
	}
	for _, v := range res.Geometry.Vertices {
		if v.TexCoord[0] < 0 || v.TexCoord[0] > 1 || v.TexCoord[1] < 0 || v.TexCoord[1] > 1 {
			t.Fatalf("texcoord %v outside [0,1]", v.TexCoord)
		}
	}
}

func TestCompileCropsAnimatedStrip(t *testing.T) {
	c := New(testLoader(t), DefaultOptions())

	res, err := c.Compile(resource.MustParse("block/log"))
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if res.Atlas.Len() != 2 {
		t.Fatalf("atlas holds %d textures, want 2", res.Atlas.Len())
	}
	p, ok := res.Atlas.Placement("minecraft:textures/block/log_top.png")
	if !ok || p.Width != 16 || p.Height != 16 {
		t.Errorf("log_top placement = %+v, %v; want 16x16", p, ok)
	}

	opts := DefaultOptions()
	opts.EnforceSquare = false
	res, err = New(testLoader(t), opts).Compile(resource.MustParse("block/log"))
	if err != nil {
		t.Fatalf("Compile without crop: %v", err)
	}
	if p, _ := res.Atlas.Placement("minecraft:textures/block/log_top.png"); p.Height != 64 {
		t.Errorf("uncropped log_top height = %d, want 64", p.Height)
	}
}

func TestCompileIconOnly(t *testing.T) {
	c := New(testLoader(t), DefaultOptions())

	res, err := c.Compile(resource.MustParse("item/stick"))
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if !res.IconOnly() {
		t.Error("stick should be icon-only")
	}
	if res.Model.Builtin != "generated" {
		t.Errorf("Builtin = %q, want generated", res.Model.Builtin)
	}
	if res.Geometry.VertexCount() != 0 {
		t.Errorf("VertexCount = %d, want 0", res.Geometry.VertexCount())
	}
	if res.Atlas.Len() != 1 {
		t.Errorf("atlas holds %d textures, want 1", res.Atlas.Len())
	}
}

func TestCompileErrors(t *testing.T) {
	tests := []struct {
		name      string
		id        string
		wantErr   error
		wantStage Stage
		wantChain int
	}{
		{"missing model", "block/nothing", resource.ErrNotFound, StageResolve, 1},
		{"missing parent", "block/orphan", blockmodel.ErrMissingParent, StageResolve, 2},
		{"missing texture", "block/glass", resource.ErrNotFound, StageTextures, 3},
		{"no textures", "block/empty", atlas.ErrEmptyTextureSet, StageTextures, 1},
	}

	c := New(testLoader(t), DefaultOptions())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.Compile(resource.MustParse(tt.id))
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("error = %v, want %v", err, tt.wantErr)
			}
			var cerr *Error
			if !errors.As(err, &cerr) {
				t.Fatalf("error %T is not *Error", err)
			}
			if cerr.Stage != tt.wantStage {
				t.Errorf("Stage = %s, want %s", cerr.Stage, tt.wantStage)
			}
			if len(cerr.Chain) != tt.wantChain {
				t.Errorf("Chain = %v, want %d entries", cerr.Chain, tt.wantChain)
			}
		})
	}
}

func TestCompileUndefinedFaceVariable(t *testing.T) {
	loader := testLoader(t)
	// The face names a variable the table does not define.
	loader[model("block/bad")] = []byte(`{
		"textures": {"all": "block/stone"},
		"elements": [{"from": [0, 0, 0], "to": [16, 16, 16], "faces": {
			"up": {"texture": "#all"}, "down": {"texture": "#nope"}}}]}`)

	_, err := New(loader, DefaultOptions()).Compile(resource.MustParse("block/bad"))
	if !errors.Is(err, blockmodel.ErrUnresolvableTextureReference) {
		t.Errorf("error = %v, want ErrUnresolvableTextureReference", err)
	}
	if errors.Is(err, mesh.ErrNoActiveFaces) {
		t.Error("unexpected ErrNoActiveFaces")
	}
}

func TestCompileAll(t *testing.T) {
	c := New(testLoader(t), DefaultOptions())
	ids := []resource.Identifier{
		resource.MustParse("block/stone"),
		resource.MustParse("item/stick"),
		resource.MustParse("block/log"),
	}

	results, err := c.CompileAll(context.Background(), ids, 2)
	if err != nil {
		t.Fatalf("CompileAll: %v", err)
	}
	if len(results) != len(ids) {
		t.Fatalf("got %d results, want %d", len(results), len(ids))
	}
	for i, res := range results {
		if !res.Model.ID.Equal(ids[i]) {
			t.Errorf("result %d is %s, want %s", i, res.Model.ID, ids[i])
		}
	}

	ids = append(ids, resource.MustParse("block/orphan"))
	if _, err := c.CompileAll(context.Background(), ids, 4); !errors.Is(err, blockmodel.ErrMissingParent) {
		t.Errorf("error = %v, want ErrMissingParent", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := c.CompileAll(ctx, ids[:1], 1); !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
}
