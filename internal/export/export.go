// Package export writes compiled models for downstream renderers: the atlas
// as a PNG image and the whole render handoff as a msgpack bundle.
package export

import (
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"

	"github.com/vmihailenco/msgpack/v5"
	xdraw "golang.org/x/image/draw"

	"github.com/Faultbox/cubemodel/internal/atlas"
	"github.com/Faultbox/cubemodel/internal/compiler"
	"github.com/Faultbox/cubemodel/pkg/blockmodel"
)

// BundleVersion is bumped whenever the bundle layout changes.
const BundleVersion = 1

// ErrBundleVersion is returned when reading a bundle of another layout.
var ErrBundleVersion = errors.New("unsupported bundle version")

// WriteAtlasPNG encodes the atlas canvas as PNG. A scale above 1 enlarges
// it with nearest-neighbour sampling so texel edges stay sharp.
func WriteAtlasPNG(w io.Writer, a *atlas.Atlas, scale int) error {
	var img image.Image = a.Image()
	if scale > 1 {
		dst := image.NewNRGBA(image.Rect(0, 0, a.Width*scale, a.Height*scale))
		xdraw.NearestNeighbor.Scale(dst, dst.Bounds(), img, img.Bounds(), xdraw.Src, nil)
		img = dst
	}
	if err := png.Encode(w, img); err != nil {
		return fmt.Errorf("encoding atlas: %w", err)
	}
	return nil
}

// Placement is a texture rectangle in atlas pixels.
type Placement struct {
	Name   string `msgpack:"name"`
	X      int    `msgpack:"x"`
	Y      int    `msgpack:"y"`
	Width  int    `msgpack:"w"`
	Height int    `msgpack:"h"`
}

// Bundle is everything a renderer needs to draw one compiled model.
// Positions and normals are x,y,z triples and UVs u,v pairs, one per vertex
// of a non-indexed triangle list.
type Bundle struct {
	Version    int                    `msgpack:"version"`
	Model      string                 `msgpack:"model"`
	Chain      []string               `msgpack:"chain"`
	Builtin    string                 `msgpack:"builtin,omitempty"`
	Positions  []float32              `msgpack:"positions"`
	Normals    []float32              `msgpack:"normals"`
	UVs        []float32              `msgpack:"uvs"`
	BoundsMin  [3]float32             `msgpack:"bounds_min"`
	BoundsMax  [3]float32             `msgpack:"bounds_max"`
	Width      int                    `msgpack:"atlas_width"`
	Height     int                    `msgpack:"atlas_height"`
	Pixels     []byte                 `msgpack:"atlas_pixels"`
	Placements []Placement            `msgpack:"placements"`
	Context    string                 `msgpack:"context"`
	Transform  [16]float32            `msgpack:"transform"`
	Display    map[string][16]float32 `msgpack:"display"`
}

// NewBundle flattens a compile result. context selects the display
// transform stored in Transform; unknown contexts fall back to identity.
func NewBundle(res *compiler.Result, context string) *Bundle {
	if context == "" {
		context = blockmodel.DefaultDisplay
	}

	m := res.Model
	b := &Bundle{
		Version:   BundleVersion,
		Model:     m.ID.String(),
		Builtin:   m.Builtin,
		Positions: res.Geometry.Positions(),
		Normals:   res.Geometry.Normals(),
		UVs:       res.Geometry.TexCoords(),
		Width:     res.Atlas.Width,
		Height:    res.Atlas.Height,
		Pixels:    res.Atlas.Pix,
		Context:   context,
		Transform: m.Transform(context),
		Display:   make(map[string][16]float32, len(m.Display)),
	}
	if res.Geometry.VertexCount() > 0 {
		b.BoundsMin = res.Geometry.Bounds.Min
		b.BoundsMax = res.Geometry.Bounds.Max
	}
	for _, id := range m.Chain {
		b.Chain = append(b.Chain, id.String())
	}
	for _, name := range res.Atlas.Names() {
		p, _ := res.Atlas.Placement(name)
		b.Placements = append(b.Placements, Placement{Name: name, X: p.X, Y: p.Y, Width: p.Width, Height: p.Height})
	}
	for name, t := range m.Display {
		b.Display[name] = t
	}
	return b
}

// VertexCount returns the number of vertices in the bundle.
func (b *Bundle) VertexCount() int {
	return len(b.Positions) / 3
}

// WriteBundle encodes b as msgpack.
func WriteBundle(w io.Writer, b *Bundle) error {
	enc := msgpack.NewEncoder(w)
	enc.UseCompactInts(true)
	if err := enc.Encode(b); err != nil {
		return fmt.Errorf("encoding bundle: %w", err)
	}
	return nil
}

// ReadBundle decodes a bundle written by WriteBundle.
func ReadBundle(r io.Reader) (*Bundle, error) {
	var b Bundle
	if err := msgpack.NewDecoder(r).Decode(&b); err != nil {
		return nil, fmt.Errorf("decoding bundle: %w", err)
	}
	if b.Version != BundleVersion {
		return nil, fmt.Errorf("%w: %d", ErrBundleVersion, b.Version)
	}
	return &b, nil
}
