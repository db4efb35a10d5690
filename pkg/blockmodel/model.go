// Package blockmodel parses cuboid model documents and resolves them through
// their parent chains into flat models.
package blockmodel

import (
	"sort"

	"github.com/Faultbox/cubemodel/pkg/math"
	"github.com/Faultbox/cubemodel/pkg/resource"
)

// DefaultDisplay is the display context used when none is requested.
// Every resolved model carries it as the identity transform.
const DefaultDisplay = "none"

// IndirectionMarker prefixes texture values that name another variable.
const IndirectionMarker = '#'

// Direction is one of the six cuboid faces.
type Direction int

const (
	Down Direction = iota
	Up
	North
	South
	West
	East
)

// Directions lists every face in emission order.
var Directions = [6]Direction{Down, Up, North, South, West, East}

var directionNames = [6]string{"down", "up", "north", "south", "west", "east"}

// String returns the document name of the face.
func (d Direction) String() string {
	if d < 0 || int(d) >= len(directionNames) {
		return "unknown"
	}
	return directionNames[d]
}

// ParseDirection maps a document face name to a Direction.
func ParseDirection(name string) (Direction, bool) {
	for i, n := range directionNames {
		if n == name {
			return Direction(i), true
		}
	}
	return 0, false
}

// ElementRotation is the optional single-axis rotation of a cuboid.
type ElementRotation struct {
	Origin  [3]float32
	Axis    math.Axis
	Angle   float32 // degrees
	Rescale bool    // advisory, not applied
}

// Matrix returns the rotation about Origin.
func (r *ElementRotation) Matrix() math.Mat4 {
	if r == nil || r.Angle == 0 {
		return math.Identity()
	}
	return math.RotateAbout(r.Axis, math.Radians(r.Angle), r.Origin)
}

// Face is one enabled cuboid face.
type Face struct {
	Texture   string      // variable name, marker stripped
	UV        *[4]float32 // nil means derive from the cuboid extent
	Rotation  int         // texture rotation in degrees: 0, 90, 180 or 270
	CullFace  string
	TintIndex int // -1 when untinted
}

// Cuboid is one axis-aligned box element.
type Cuboid struct {
	From     [3]float32
	To       [3]float32
	Rotation *ElementRotation
	Matrix   math.Mat4
	Faces    map[Direction]Face
}

// Model is a flattened model: all inherited geometry, textures and display
// transforms merged, and every texture variable resolved to an asset.
type Model struct {
	ID resource.Identifier
	// Chain lists the model documents that were merged, requested model first.
	Chain []resource.Identifier
	// Builtin names the builtin root of the chain ("generated", "entity"), if any.
	Builtin  string
	Cuboids  []Cuboid
	Textures map[string]resource.Identifier
	Display  map[string]math.Mat4
}

// HasGeometry reports whether the model has any cuboids.
func (m *Model) HasGeometry() bool {
	return len(m.Cuboids) > 0
}

// Transform returns the display transform for a context, falling back to
// the default identity entry.
func (m *Model) Transform(context string) math.Mat4 {
	if t, ok := m.Display[context]; ok {
		return t
	}
	if t, ok := m.Display[DefaultDisplay]; ok {
		return t
	}
	return math.Identity()
}

// DisplayContexts returns the names of all display entries, sorted.
func (m *Model) DisplayContexts() []string {
	names := make([]string, 0, len(m.Display))
	for name := range m.Display {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// FaceCount returns the number of enabled faces over all cuboids.
func (m *Model) FaceCount() int {
	n := 0
	for i := range m.Cuboids {
		n += len(m.Cuboids[i].Faces)
	}
	return n
}

// ReferencedTextures returns the texture variable names used by faces,
// sorted. A model without cuboids references its whole texture table.
func (m *Model) ReferencedTextures() []string {
	seen := make(map[string]bool)
	if m.HasGeometry() {
		for i := range m.Cuboids {
			for _, f := range m.Cuboids[i].Faces {
				seen[f.Texture] = true
			}
		}
	} else {
		for name := range m.Textures {
			seen[name] = true
		}
	}

	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
