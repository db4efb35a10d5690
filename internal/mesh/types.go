// Package mesh compiles resolved block models into triangle geometry with
// atlas-normalized texture coordinates.
package mesh

// Vertex represents a mesh vertex with position, normal, and texture coordinates.
type Vertex struct {
	Position [3]float32
	Normal   [3]float32
	TexCoord [2]float32
}

// Bounds holds the axis-aligned bounding box of the geometry.
type Bounds struct {
	Min [3]float32
	Max [3]float32
}

// Geometry is a non-indexed triangle list: every three vertices form one
// triangle, counter-clockwise seen from outside.
type Geometry struct {
	Vertices []Vertex
	Bounds   Bounds
}

// VertexCount returns the number of vertices.
func (g *Geometry) VertexCount() int {
	return len(g.Vertices)
}

// TriangleCount returns the number of triangles.
func (g *Geometry) TriangleCount() int {
	return len(g.Vertices) / 3
}

// Positions flattens vertex positions to x,y,z triples.
func (g *Geometry) Positions() []float32 {
	out := make([]float32, 0, len(g.Vertices)*3)
	for _, v := range g.Vertices {
		out = append(out, v.Position[0], v.Position[1], v.Position[2])
	}
	return out
}

// Normals flattens vertex normals to x,y,z triples.
func (g *Geometry) Normals() []float32 {
	out := make([]float32, 0, len(g.Vertices)*3)
	for _, v := range g.Vertices {
		out = append(out, v.Normal[0], v.Normal[1], v.Normal[2])
	}
	return out
}

// TexCoords flattens texture coordinates to u,v pairs, parallel to Positions.
func (g *Geometry) TexCoords() []float32 {
	out := make([]float32, 0, len(g.Vertices)*2)
	for _, v := range g.Vertices {
		out = append(out, v.TexCoord[0], v.TexCoord[1])
	}
	return out
}

func emptyBounds() Bounds {
	return Bounds{
		Min: [3]float32{1e10, 1e10, 1e10},
		Max: [3]float32{-1e10, -1e10, -1e10},
	}
}

func updateBounds(b *Bounds, p [3]float32) {
	for i := 0; i < 3; i++ {
		if p[i] < b.Min[i] {
			b.Min[i] = p[i]
		}
		if p[i] > b.Max[i] {
			b.Max[i] = p[i]
		}
	}
}
