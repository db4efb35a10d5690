package blockmodel

import (
	"errors"
	"slices"
	"testing"

	"github.com/Faultbox/cubemodel/pkg/math"
	"github.com/Faultbox/cubemodel/pkg/resource"
)

// mapLoader serves documents keyed by storage path.
type mapLoader map[string]string

func (l mapLoader) Load(path string) ([]byte, error) {
	data, ok := l[path]
	if !ok {
		return nil, resource.ErrNotFound
	}
	return []byte(data), nil
}

func modelPath(p string) string {
	return "assets/minecraft/models/" + p + ".json"
}

const cubeDoc = `{
  "textures": {"particle": "#north"},
  "elements": [
    {"from": [0, 0, 0], "to": [16, 16, 16], "faces": {
      "down":  {"texture": "#down", "cullface": "down"},
      "up":    {"texture": "#up"},
      "north": {"texture": "#north"},
      "south": {"texture": "#south"},
      "west":  {"texture": "#west"},
      "east":  {"texture": "#east"}
    }},
    {"from": [4, 0, 4], "to": [12, 8, 12], "faces": {"up": {"texture": "#up", "uv": [4, 4, 12, 12]}}}
  ],
  "display": {"gui": {"rotation": [30, 225, 0], "scale": [0.625, 0.625, 0.625]}}
}`

const cubeAllDoc = `{
  "parent": "block/cube",
  "textures": {"down": "#all", "up": "#all", "north": "#all", "south": "#all", "west": "#all", "east": "#all"}
}`

func TestResolveInheritsCuboids(t *testing.T) {
	loader := mapLoader{
		modelPath("block/cube"):     cubeDoc,
		modelPath("block/cube_all"): cubeAllDoc,
		modelPath("block/stone"):    `{"parent": "minecraft:block/cube_all", "textures": {"all": "block/stone"}}`,
	}

	parent, err := Resolve(loader, resource.MustParse("block/cube"))
	if err == nil {
		t.Fatalf("resolving the abstract parent should fail on dangling variables, got %d cuboids", len(parent.Cuboids))
	}

	m, err := Resolve(loader, resource.MustParse("block/stone"))
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	if len(m.Cuboids) != 2 {
		t.Fatalf("expected 2 inherited cuboids, got %d", len(m.Cuboids))
	}
	if m.Cuboids[0].From != [3]float32{0, 0, 0} || m.Cuboids[0].To != [3]float32{16, 16, 16} {
		t.Errorf("inherited geometry changed: %v -> %v", m.Cuboids[0].From, m.Cuboids[0].To)
	}
	if len(m.Cuboids[0].Faces) != 6 {
		t.Errorf("expected 6 faces, got %d", len(m.Cuboids[0].Faces))
	}
	if got := m.Cuboids[0].Faces[Down].CullFace; got != "down" {
		t.Errorf("cullface = %q, want down", got)
	}
	if uv := m.Cuboids[1].Faces[Up].UV; uv == nil || *uv != [4]float32{4, 4, 12, 12} {
		t.Errorf("explicit uv = %v", uv)
	}

	want := resource.MustParse("minecraft:textures/block/stone.png")
	for _, name := range []string{"down", "up", "north", "south", "west", "east", "particle", "all"} {
		if got := m.Textures[name]; got != want {
			t.Errorf("texture %q = %v, want %v", name, got, want)
		}
	}

	wantChain := []string{"minecraft:block/stone", "minecraft:block/cube_all", "minecraft:block/cube"}
	if len(m.Chain) != len(wantChain) {
		t.Fatalf("chain = %v", m.Chain)
	}
	for i, id := range m.Chain {
		if id.String() != wantChain[i] {
			t.Errorf("chain[%d] = %v, want %s", i, id, wantChain[i])
		}
	}
}

func TestResolveChildCuboidsReplaceParent(t *testing.T) {
	loader := mapLoader{
		modelPath("block/cube"): cubeDoc,
		modelPath("block/slab"): `{
		  "parent": "block/cube",
		  "textures": {"all": "block/oak", "down": "#all", "up": "#all", "north": "#all", "south": "#all", "west": "#all", "east": "#all"},
		  "elements": [{"from": [0, 0, 0], "to": [16, 8, 16], "faces": {"up": {"texture": "#up"}}}]
		}`,
	}

	m, err := Resolve(loader, resource.MustParse("block/slab"))
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(m.Cuboids) != 1 || m.Cuboids[0].To[1] != 8 {
		t.Fatalf("child elements should replace parent's wholesale, got %+v", m.Cuboids)
	}
}

func TestResolveTextureOverride(t *testing.T) {
	loader := mapLoader{
		modelPath("parent"): `{"textures": {"b": "parent_tex", "c": "parent_tex2"}}`,
		modelPath("child"):  `{"parent": "parent", "textures": {"a": "#b", "b": "child_tex"}}`,
	}

	m, err := Resolve(loader, resource.MustParse("child"))
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	want := map[string]string{
		"a": "minecraft:textures/child_tex.png",
		"b": "minecraft:textures/child_tex.png",
		"c": "minecraft:textures/parent_tex2.png",
	}
	for name, w := range want {
		if got := m.Textures[name].String(); got != w {
			t.Errorf("texture %q = %s, want %s", name, got, w)
		}
	}
}

func TestResolveErrors(t *testing.T) {
	tests := []struct {
		name    string
		loader  mapLoader
		model   string
		wantErr error
		depth   int
	}{
		{
			name:    "cyclic indirection",
			loader:  mapLoader{modelPath("m"): `{"textures": {"a": "#b", "b": "#a"}}`},
			model:   "m",
			wantErr: ErrUnresolvableTextureReference,
			depth:   1,
		},
		{
			name:    "self reference",
			loader:  mapLoader{modelPath("m"): `{"textures": {"a": "#a"}}`},
			model:   "m",
			wantErr: ErrUnresolvableTextureReference,
			depth:   1,
		},
		{
			name:    "dangling reference",
			loader:  mapLoader{modelPath("m"): `{"textures": {"a": "#nope"}}`},
			model:   "m",
			wantErr: ErrUnresolvableTextureReference,
			depth:   1,
		},
		{
			name:    "missing parent",
			loader:  mapLoader{modelPath("m"): `{"parent": "gone"}`},
			model:   "m",
			wantErr: ErrMissingParent,
			depth:   2,
		},
		{
			name:    "missing model",
			loader:  mapLoader{},
			model:   "m",
			wantErr: resource.ErrNotFound,
			depth:   1,
		},
		{
			name:    "parent cycle",
			loader:  mapLoader{modelPath("a"): `{"parent": "b"}`, modelPath("b"): `{"parent": "a"}`},
			model:   "a",
			wantErr: ErrMalformedDocument,
			depth:   2,
		},
		{
			name:    "not json",
			loader:  mapLoader{modelPath("m"): `{"elements": [`},
			model:   "m",
			wantErr: ErrMalformedDocument,
			depth:   1,
		},
		{
			name:    "short vector",
			loader:  mapLoader{modelPath("m"): `{"elements": [{"from": [0, 0], "to": [1, 1, 1]}]}`},
			model:   "m",
			wantErr: ErrMalformedDocument,
			depth:   1,
		},
		{
			name:    "unknown face",
			loader:  mapLoader{modelPath("m"): `{"elements": [{"from": [0, 0, 0], "to": [1, 1, 1], "faces": {"top": {"texture": "#a"}}}]}`},
			model:   "m",
			wantErr: ErrMalformedDocument,
			depth:   1,
		},
		{
			name:    "unknown axis",
			loader:  mapLoader{modelPath("m"): `{"elements": [{"from": [0, 0, 0], "to": [1, 1, 1], "rotation": {"axis": "w", "angle": 45}}]}`},
			model:   "m",
			wantErr: ErrMalformedDocument,
			depth:   1,
		},
		{
			name:    "bad uv",
			loader:  mapLoader{modelPath("m"): `{"elements": [{"from": [0, 0, 0], "to": [1, 1, 1], "faces": {"up": {"texture": "#a", "uv": [0, 0, 16]}}}]}`},
			model:   "m",
			wantErr: ErrMalformedDocument,
			depth:   1,
		},
		{
			name:    "uv out of range",
			loader:  mapLoader{modelPath("m"): `{"elements": [{"from": [0, 0, 0], "to": [1, 1, 1], "faces": {"up": {"texture": "#a", "uv": [-8, 0, 32, 16]}}}]}`},
			model:   "m",
			wantErr: ErrMalformedDocument,
			depth:   1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Resolve(tt.loader, resource.MustParse(tt.model))
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("error = %v, want %v", err, tt.wantErr)
			}
			var re *ResolveError
			if !errors.As(err, &re) {
				t.Fatalf("error %T should carry a *ResolveError", err)
			}
			if re.Depth() != tt.depth {
				t.Errorf("depth = %d, want %d (chain %v)", re.Depth(), tt.depth, re.Chain)
			}
		})
	}
}

func TestResolveMaxDepth(t *testing.T) {
	loader := mapLoader{
		modelPath("a"): `{"parent": "b"}`,
		modelPath("b"): `{"parent": "c"}`,
		modelPath("c"): `{}`,
	}
	r := NewResolver(loader)
	r.MaxDepth = 2

	if _, err := r.Resolve(resource.MustParse("a")); !errors.Is(err, ErrMalformedDocument) {
		t.Errorf("error = %v, want ErrMalformedDocument", err)
	}
	r.MaxDepth = 3
	if _, err := r.Resolve(resource.MustParse("a")); err != nil {
		t.Errorf("chain of 3 within limit: %v", err)
	}
}

func TestResolveBuiltinParent(t *testing.T) {
	loader := mapLoader{
		modelPath("item/generated"): `{"parent": "builtin/generated", "display": {"ground": {"translation": [0, 2, 0]}}}`,
		modelPath("item/apple"):     `{"parent": "item/generated", "textures": {"layer0": "item/apple"}}`,
	}

	m, err := Resolve(loader, resource.MustParse("item/apple"))
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if m.Builtin != "generated" {
		t.Errorf("Builtin = %q, want generated", m.Builtin)
	}
	if m.HasGeometry() {
		t.Error("builtin/generated models have no cuboids")
	}
	if got := m.ReferencedTextures(); len(got) != 1 || got[0] != "layer0" {
		t.Errorf("ReferencedTextures() = %v, want [layer0]", got)
	}
	if got := m.Transform("ground").TransformPoint([3]float32{}); got != [3]float32{0, 2, 0} {
		t.Errorf("inherited ground transform moves origin to %v", got)
	}
}

func TestResolveDisplayOverride(t *testing.T) {
	loader := mapLoader{
		modelPath("p"): `{"display": {"gui": {"scale": [2, 2, 2]}, "head": {"scale": [3, 3, 3]}}}`,
		modelPath("c"): `{"parent": "p", "display": {"gui": {"scale": [0.5, 0.5, 0.5]}}}`,
	}

	m, err := Resolve(loader, resource.MustParse("c"))
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got := m.Transform("gui"); got != math.Scale(0.5, 0.5, 0.5) {
		t.Errorf("gui transform = %v, child should win", got)
	}
	if got := m.Transform("head"); got != math.Scale(3, 3, 3) {
		t.Errorf("head transform = %v, should be inherited", got)
	}
	if got := m.Transform("fixed"); !got.IsIdentity() {
		t.Errorf("unknown context should fall back to identity, got %v", got)
	}
	if _, ok := m.Display[DefaultDisplay]; !ok {
		t.Error("default display entry missing")
	}
	if got, want := m.DisplayContexts(), []string{"gui", "head", DefaultDisplay}; !slices.Equal(got, want) {
		t.Errorf("DisplayContexts() = %v, want %v", got, want)
	}
}

func TestReferencedTexturesFromFaces(t *testing.T) {
	loader := mapLoader{
		modelPath("m"): `{
		  "textures": {"side": "block/a", "top": "block/b", "unused": "block/c"},
		  "elements": [{"from": [0, 0, 0], "to": [16, 16, 16], "faces": {
		    "up": {"texture": "#top"}, "north": {"texture": "#side"}, "south": {"texture": "#side"}
		  }}]
		}`,
	}

	m, err := Resolve(loader, resource.MustParse("m"))
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	got := m.ReferencedTextures()
	if len(got) != 2 || got[0] != "side" || got[1] != "top" {
		t.Errorf("ReferencedTextures() = %v, want [side top]", got)
	}
	if m.FaceCount() != 3 {
		t.Errorf("FaceCount() = %d, want 3", m.FaceCount())
	}
}
