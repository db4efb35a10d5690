package blockmodel

import (
	"fmt"
	"strings"

	json "github.com/goccy/go-json"

	"github.com/Faultbox/cubemodel/pkg/encoding"
	"github.com/Faultbox/cubemodel/pkg/math"
)

// Document is a single parsed model document before inheritance is applied.
type Document struct {
	Parent   string
	Textures map[string]string
	Cuboids  []Cuboid
	Display  map[string]math.Mat4
}

type documentJSON struct {
	Parent   string                 `json:"parent"`
	Textures map[string]string      `json:"textures"`
	Elements []elementJSON          `json:"elements"`
	Display  map[string]displayJSON `json:"display"`
}

type elementJSON struct {
	From     []float32           `json:"from"`
	To       []float32           `json:"to"`
	Rotation *rotationJSON       `json:"rotation"`
	Faces    map[string]faceJSON `json:"faces"`
}

type rotationJSON struct {
	Origin  []float32 `json:"origin"`
	Axis    string    `json:"axis"`
	Angle   float32   `json:"angle"`
	Rescale bool      `json:"rescale"`
}

type faceJSON struct {
	Texture   string    `json:"texture"`
	UV        []float32 `json:"uv"`
	Rotation  int       `json:"rotation"`
	CullFace  string    `json:"cullface"`
	TintIndex *int      `json:"tintindex"`
}

type displayJSON struct {
	Rotation    []float32 `json:"rotation"`
	Translation []float32 `json:"translation"`
	Scale       []float32 `json:"scale"`
}

// ParseDocument parses one model document.
func ParseDocument(data []byte) (*Document, error) {
	data, err := encoding.ToUTF8(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedDocument, err)
	}

	var raw documentJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedDocument, err)
	}

	doc := &Document{
		Parent:   raw.Parent,
		Textures: make(map[string]string, len(raw.Textures)),
		Display:  make(map[string]math.Mat4, len(raw.Display)+1),
	}
	for name, value := range raw.Textures {
		doc.Textures[name] = value
	}

	for i, el := range raw.Elements {
		c, err := el.cuboid()
		if err != nil {
			return nil, fmt.Errorf("%w: element %d: %v", ErrMalformedDocument, i, err)
		}
		doc.Cuboids = append(doc.Cuboids, c)
	}

	for name, d := range raw.Display {
		m, err := d.transform()
		if err != nil {
			return nil, fmt.Errorf("%w: display %q: %v", ErrMalformedDocument, name, err)
		}
		doc.Display[name] = m
	}
	doc.Display[DefaultDisplay] = math.Identity()

	return doc, nil
}

func (el elementJSON) cuboid() (Cuboid, error) {
	if el.From == nil || el.To == nil {
		return Cuboid{}, fmt.Errorf("from and to are required")
	}
	from, err := vec3(el.From, "from", [3]float32{})
	if err != nil {
		return Cuboid{}, err
	}
	to, err := vec3(el.To, "to", [3]float32{})
	if err != nil {
		return Cuboid{}, err
	}

	c := Cuboid{
		From:   from,
		To:     to,
		Matrix: math.Identity(),
		Faces:  make(map[Direction]Face, len(el.Faces)),
	}

	if el.Rotation != nil {
		rot, err := el.Rotation.rotation()
		if err != nil {
			return Cuboid{}, err
		}
		c.Rotation = rot
		c.Matrix = rot.Matrix()
	}

	for name, f := range el.Faces {
		dir, ok := ParseDirection(name)
		if !ok {
			return Cuboid{}, fmt.Errorf("unknown face %q", name)
		}
		face, err := f.face()
		if err != nil {
			return Cuboid{}, fmt.Errorf("face %s: %w", name, err)
		}
		c.Faces[dir] = face
	}

	return c, nil
}

func (r rotationJSON) rotation() (*ElementRotation, error) {
	origin, err := vec3(r.Origin, "origin", [3]float32{8, 8, 8})
	if err != nil {
		return nil, err
	}

	var axis math.Axis
	switch r.Axis {
	case "x":
		axis = math.AxisX
	case "y":
		axis = math.AxisY
	case "z":
		axis = math.AxisZ
	default:
		return nil, fmt.Errorf("unknown rotation axis %q", r.Axis)
	}

	return &ElementRotation{
		Origin:  origin,
		Axis:    axis,
		Angle:   r.Angle,
		Rescale: r.Rescale,
	}, nil
}

func (f faceJSON) face() (Face, error) {
	if f.Texture == "" {
		return Face{}, fmt.Errorf("texture is required")
	}
	if f.Rotation%90 != 0 || f.Rotation < 0 || f.Rotation >= 360 {
		return Face{}, fmt.Errorf("rotation %d is not one of 0, 90, 180, 270", f.Rotation)
	}

	face := Face{
		Texture:   strings.TrimPrefix(f.Texture, string(IndirectionMarker)),
		Rotation:  f.Rotation,
		CullFace:  f.CullFace,
		TintIndex: -1,
	}
	if f.TintIndex != nil {
		face.TintIndex = *f.TintIndex
	}
	if f.UV != nil {
		if len(f.UV) != 4 {
			return Face{}, fmt.Errorf("uv needs 4 components, got %d", len(f.UV))
		}
		uv := [4]float32{f.UV[0], f.UV[1], f.UV[2], f.UV[3]}
		for _, c := range uv {
			if c < 0 || c > 16 {
				return Face{}, fmt.Errorf("uv %v outside [0, 16]", uv)
			}
		}
		face.UV = &uv
	}
	return face, nil
}

// transform composes rotate(X) * rotate(Y) * rotate(Z) * translate * scale.
func (d displayJSON) transform() (math.Mat4, error) {
	rot, err := vec3(d.Rotation, "rotation", [3]float32{})
	if err != nil {
		return math.Mat4{}, err
	}
	tr, err := vec3(d.Translation, "translation", [3]float32{})
	if err != nil {
		return math.Mat4{}, err
	}
	sc, err := vec3(d.Scale, "scale", [3]float32{1, 1, 1})
	if err != nil {
		return math.Mat4{}, err
	}

	return math.RotateX(math.Radians(rot[0])).
		Mul(math.RotateY(math.Radians(rot[1]))).
		Mul(math.RotateZ(math.Radians(rot[2]))).
		Mul(math.Translate(tr[0], tr[1], tr[2])).
		Mul(math.Scale(sc[0], sc[1], sc[2])), nil
}

func vec3(v []float32, field string, def [3]float32) ([3]float32, error) {
	if v == nil {
		return def, nil
	}
	if len(v) != 3 {
		return [3]float32{}, fmt.Errorf("%s needs 3 components, got %d", field, len(v))
	}
	return [3]float32{v[0], v[1], v[2]}, nil
}
