package mesh

import (
	"errors"
	"fmt"

	"github.com/Faultbox/cubemodel/internal/atlas"
	"github.com/Faultbox/cubemodel/pkg/blockmodel"
)

// Compile errors.
var (
	ErrNoActiveFaces  = errors.New("model has no faces to draw")
	ErrUnboundTexture = errors.New("face texture has no atlas placement")
)

// unitRange is the extent of a full block in model units.
const unitRange = 16

// basis describes how a face direction spans a cuboid: the axis it faces
// along, and the axes carrying texture u and v. A flipped axis runs from the
// cuboid's "to" corner toward "from" as the texture coordinate grows.
type basis struct {
	normalAxis int
	positive   bool
	uAxis      int
	flipU      bool
	vAxis      int
	flipV      bool
	normal     [3]float32
}

var bases = [6]basis{
	blockmodel.Down:  {normalAxis: 1, positive: false, uAxis: 0, flipU: false, vAxis: 2, flipV: true, normal: [3]float32{0, -1, 0}},
	blockmodel.Up:    {normalAxis: 1, positive: true, uAxis: 0, flipU: false, vAxis: 2, flipV: false, normal: [3]float32{0, 1, 0}},
	blockmodel.North: {normalAxis: 2, positive: false, uAxis: 0, flipU: true, vAxis: 1, flipV: true, normal: [3]float32{0, 0, -1}},
	blockmodel.South: {normalAxis: 2, positive: true, uAxis: 0, flipU: false, vAxis: 1, flipV: true, normal: [3]float32{0, 0, 1}},
	blockmodel.West:  {normalAxis: 0, positive: false, uAxis: 2, flipU: false, vAxis: 1, flipV: true, normal: [3]float32{-1, 0, 0}},
	blockmodel.East:  {normalAxis: 0, positive: true, uAxis: 2, flipU: true, vAxis: 1, flipV: true, normal: [3]float32{1, 0, 0}},
}

// Face corners as (s, t) steps along u and v, counter-clockwise from the
// texture's top-left seen from outside.
var corners = [4][2]int{{0, 0}, {0, 1}, {1, 1}, {1, 0}}

// Two triangles per face over the four corners.
var triangles = [6]int{0, 1, 2, 0, 2, 3}

// Compile emits two triangles per enabled face of every cuboid. Texture
// coordinates are normalized against the atlas, which must already hold a
// placement for every texture the faces use; atlas keys are the texture
// identifiers' string form.
func Compile(m *blockmodel.Model, a *atlas.Atlas) (*Geometry, error) {
	if m.FaceCount() == 0 {
		return nil, ErrNoActiveFaces
	}

	g := &Geometry{
		Vertices: make([]Vertex, 0, m.FaceCount()*6),
		Bounds:   emptyBounds(),
	}

	for ci := range m.Cuboids {
		c := &m.Cuboids[ci]
		for _, dir := range blockmodel.Directions {
			face, ok := c.Faces[dir]
			if !ok {
				continue
			}
			if err := g.addFace(c, dir, face, m, a); err != nil {
				return nil, fmt.Errorf("element %d face %s: %w", ci, dir, err)
			}
		}
	}

	return g, nil
}

func (g *Geometry) addFace(c *blockmodel.Cuboid, dir blockmodel.Direction, face blockmodel.Face, m *blockmodel.Model, a *atlas.Atlas) error {
	id, ok := m.Textures[face.Texture]
	if !ok {
		return fmt.Errorf("%w: variable %q is not defined", ErrUnboundTexture, face.Texture)
	}
	key := id.String()
	place, ok := a.Placement(key)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnboundTexture, key)
	}

	b := bases[dir]
	uv := FaceUV(c, dir, face)
	normal := b.normal
	rotated := !c.Matrix.IsIdentity()
	if rotated {
		normal = c.Matrix.TransformDirection(normal)
	}

	var (
		positions [4][3]float32
		texCoords [4][2]float32
	)
	steps := face.Rotation / 90
	for k, st := range corners {
		positions[k] = cornerPosition(c, b, st[0], st[1])
		if rotated {
			positions[k] = c.Matrix.TransformPoint(positions[k])
		}

		// Rotating the texture hands each corner the UV of the next corner round.
		src := corners[(k+steps)%4]
		u, v := uv[0], uv[1]
		if src[0] == 1 {
			u = uv[2]
		}
		if src[1] == 1 {
			v = uv[3]
		}
		px := u / unitRange * float32(place.Width)
		py := v / unitRange * float32(place.Height)
		texCoords[k][0], texCoords[k][1], _ = a.UV(key, px, py)
	}

	for _, k := range triangles {
		g.Vertices = append(g.Vertices, Vertex{
			Position: positions[k],
			Normal:   normal,
			TexCoord: texCoords[k],
		})
		updateBounds(&g.Bounds, positions[k])
	}
	return nil
}

// FaceUV returns the face's UV rectangle [u1, v1, u2, v2] in model units:
// the explicit one if given, otherwise the cuboid extent projected onto the
// face plane. Either way every component is clamped to [0, 16].
func FaceUV(c *blockmodel.Cuboid, dir blockmodel.Direction, face blockmodel.Face) [4]float32 {
	if face.UV != nil {
		uv := *face.UV
		for i := range uv {
			uv[i] = clamp(uv[i])
		}
		return uv
	}
	b := bases[dir]
	u1, u2 := span(c.From[b.uAxis], c.To[b.uAxis], b.flipU)
	v1, v2 := span(c.From[b.vAxis], c.To[b.vAxis], b.flipV)
	return [4]float32{u1, v1, u2, v2}
}

func span(from, to float32, flip bool) (float32, float32) {
	if flip {
		from, to = unitRange-to, unitRange-from
	}
	return clamp(from), clamp(to)
}

func clamp(x float32) float32 {
	return min(max(x, 0), unitRange)
}

func cornerPosition(c *blockmodel.Cuboid, b basis, s, t int) [3]float32 {
	var p [3]float32
	if b.positive {
		p[b.normalAxis] = c.To[b.normalAxis]
	} else {
		p[b.normalAxis] = c.From[b.normalAxis]
	}
	p[b.uAxis] = edge(c, b.uAxis, b.flipU, s)
	p[b.vAxis] = edge(c, b.vAxis, b.flipV, t)
	return p
}

// edge picks the cuboid bound on axis where texture coordinate step n lands.
func edge(c *blockmodel.Cuboid, axis int, flip bool, n int) float32 {
	if (n == 0) != flip {
		return c.From[axis]
	}
	return c.To[axis]
}
