// Package atlas packs named textures into a single RGBA8 canvas.
//
// Textures are grouped into size classes by edge length. Starting from the
// smallest class, members are arranged into sub-grids that fill exactly one
// cell of the next larger class; those sub-grids and the larger class's own
// textures form the cells of the next pass. The cells left at the largest
// class are laid out row-major on the canvas, and the resulting tree of
// grids is walked once to blit pixels and record placements.
package atlas

import (
	"errors"
	"fmt"
	"image"
	"sort"

	"go.uber.org/zap"

	"github.com/Faultbox/cubemodel/internal/logger"
	"github.com/Faultbox/cubemodel/internal/texture"
)

// Packing errors.
var (
	ErrEmptyTextureSet = errors.New("no textures to pack")
	ErrSizeMismatch    = errors.New("texture size does not match its pixel data")
	ErrAtlasTooLarge   = errors.New("atlas exceeds maximum size")
)

// Config holds atlas layout settings.
type Config struct {
	// TargetEdge caps the canvas height when the top size class allows it.
	// Default: 128
	TargetEdge int `yaml:"target_edge"`

	// MaxEdge is the largest canvas width or height accepted.
	// Default: 4096
	MaxEdge int `yaml:"max_edge"`
}

// DefaultConfig returns default configuration.
func DefaultConfig() Config {
	return Config{
		TargetEdge: 128,
		MaxEdge:    4096,
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.TargetEdge < 1 {
		return &ConfigError{Field: "TargetEdge", Reason: "must be positive"}
	}
	if c.MaxEdge < 1 {
		return &ConfigError{Field: "MaxEdge", Reason: "must be positive"}
	}
	if c.TargetEdge > c.MaxEdge {
		return &ConfigError{Field: "TargetEdge", Reason: "must be at most MaxEdge"}
	}
	return nil
}

// ConfigError represents a configuration validation error.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return "atlas: invalid config." + e.Field + ": " + e.Reason
}

// Placement is a texture's rectangle in atlas pixel space.
type Placement struct {
	X, Y          int
	Width, Height int
}

// Rect returns the occupied rectangle.
func (p Placement) Rect() image.Rectangle {
	return image.Rect(p.X, p.Y, p.X+p.Width, p.Y+p.Height)
}

// Overlaps reports whether two placements share any pixel.
func (p Placement) Overlaps(o Placement) bool {
	return p.Rect().Overlaps(o.Rect())
}

// Atlas is a packed canvas of textures.
type Atlas struct {
	Width  int
	Height int
	Pix    []byte // Width*Height*4, non-premultiplied RGBA8

	placements map[string]Placement
}

// Placement returns where a texture was placed.
func (a *Atlas) Placement(name string) (Placement, bool) {
	p, ok := a.placements[name]
	return p, ok
}

// Names returns the packed texture names, sorted.
func (a *Atlas) Names() []string {
	names := make([]string, 0, len(a.placements))
	for name := range a.placements {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of packed textures.
func (a *Atlas) Len() int {
	return len(a.placements)
}

// UV converts a pixel position inside a texture to atlas-normalized
// coordinates: ((x+px)/W, (y+py)/H).
func (a *Atlas) UV(name string, px, py float32) (u, v float32, ok bool) {
	p, ok := a.placements[name]
	if !ok {
		return 0, 0, false
	}
	return (float32(p.X) + px) / float32(a.Width), (float32(p.Y) + py) / float32(a.Height), true
}

// Image wraps the canvas as an *image.NRGBA without copying.
func (a *Atlas) Image() *image.NRGBA {
	return &image.NRGBA{
		Pix:    a.Pix,
		Stride: a.Width * 4,
		Rect:   image.Rect(0, 0, a.Width, a.Height),
	}
}

// cell is either a single texture (leaf) or a grid of placed cells.
type cell struct {
	leaf     bool
	name     string
	children []placed
}

type placed struct {
	cell *cell
	x, y int
}

// Pack lays out textures without overlap and blits them into one canvas.
// Zero fields in cfg take their defaults.
func Pack(textures map[string]*texture.Texture, cfg Config) (*Atlas, error) {
	if len(textures) == 0 {
		return nil, ErrEmptyTextureSet
	}
	cfg = withDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	for name, tex := range textures {
		if tex == nil || !tex.Valid() {
			return nil, fmt.Errorf("%w: %q", ErrSizeMismatch, name)
		}
	}

	cells, top := layout(textures)

	n := len(cells)
	rows := min(n, max(1, cfg.TargetEdge/top))
	cols := (n + rows - 1) / rows
	width, height := cols*top, rows*top
	if width > cfg.MaxEdge || height > cfg.MaxEdge {
		return nil, fmt.Errorf("%w: %dx%d > %d", ErrAtlasTooLarge, width, height, cfg.MaxEdge)
	}

	a := &Atlas{
		Width:      width,
		Height:     height,
		Pix:        make([]byte, width*height*4),
		placements: make(map[string]Placement, len(textures)),
	}
	for i, c := range cells {
		a.draw(c, (i%cols)*top, (i/cols)*top, textures)
	}

	logger.Debug("packed atlas",
		zap.Int("textures", len(textures)),
		zap.Int("cells", n),
		zap.Int("width", width),
		zap.Int("height", height))

	return a, nil
}

func withDefaults(cfg Config) Config {
	def := DefaultConfig()
	if cfg.TargetEdge == 0 {
		cfg.TargetEdge = def.TargetEdge
	}
	if cfg.MaxEdge == 0 {
		cfg.MaxEdge = def.MaxEdge
	}
	return cfg
}

// layout builds the cell tree and returns the top-level cells together with
// the edge of the largest size class.
func layout(textures map[string]*texture.Texture) ([]*cell, int) {
	classes := make(map[int][]string)
	for name, tex := range textures {
		classes[tex.Edge()] = append(classes[tex.Edge()], name)
	}
	edges := make([]int, 0, len(classes))
	for edge, names := range classes {
		sort.Strings(names)
		edges = append(edges, edge)
	}
	sort.Ints(edges)

	var cells []*cell
	prev := edges[0]
	for _, edge := range edges {
		cells = subgrids(cells, prev, edge)
		for _, name := range classes[edge] {
			cells = append(cells, &cell{leaf: true, name: name})
		}
		prev = edge
	}
	return cells, edges[len(edges)-1]
}

// subgrids groups cells of edge small into grids that each fill one cell of
// edge big. The last grid may be partial.
func subgrids(cells []*cell, small, big int) []*cell {
	if len(cells) == 0 {
		return nil
	}
	per := max(1, big/small)
	capacity := per * per

	grids := make([]*cell, 0, (len(cells)+capacity-1)/capacity)
	for start := 0; start < len(cells); start += capacity {
		end := min(start+capacity, len(cells))
		grid := &cell{children: make([]placed, 0, end-start)}
		for j, c := range cells[start:end] {
			grid.children = append(grid.children, placed{
				cell: c,
				x:    (j % per) * small,
				y:    (j / per) * small,
			})
		}
		grids = append(grids, grid)
	}
	return grids
}

func (a *Atlas) draw(c *cell, x, y int, textures map[string]*texture.Texture) {
	if !c.leaf {
		for _, child := range c.children {
			a.draw(child.cell, x+child.x, y+child.y, textures)
		}
		return
	}

	tex := textures[c.name]
	a.placements[c.name] = Placement{X: x, Y: y, Width: tex.Width, Height: tex.Height}

	rowBytes := tex.Width * 4
	for row := 0; row < tex.Height; row++ {
		dst := ((y+row)*a.Width + x) * 4
		copy(a.Pix[dst:dst+rowBytes], tex.Pix[row*rowBytes:(row+1)*rowBytes])
	}
}
