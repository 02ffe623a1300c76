package geom

import (
	"errors"

	"github.com/go-gl/mathgl/mgl64"
)

// Mesh errors surfaced during preprocessing.
var (
	ErrEmptyMesh     = errors.New("geom: mesh has no vertices")
	ErrTriangleCount = errors.New("geom: triangle index count not a multiple of 3")
	ErrIndexRange    = errors.New("geom: triangle index out of range")
	ErrUVCount       = errors.New("geom: uv count does not match vertex count")
)

type TriMesh struct {
	Vertices  []mgl64.Vec3
	Triangles []int
	UVs       []mgl64.Vec2
}

// Edge is a canonical (low, high) index pair.
type Edge struct {
	A, B int
}

func OrderedEdge(a, b int) Edge {
	if a > b {
		a, b = b, a
	}
	return Edge{A: a, B: b}
}

func (m *TriMesh) VertexCount() int   { return len(m.Vertices) }
func (m *TriMesh) TriangleCount() int { return len(m.Triangles) / 3 }

func (m *TriMesh) Validate() error {
	if len(m.Vertices) == 0 {
		return ErrEmptyMesh
	}
	if len(m.Triangles)%3 != 0 {
		return ErrTriangleCount
	}
	for _, idx := range m.Triangles {
		if idx < 0 || idx >= len(m.Vertices) {
			return ErrIndexRange
		}
	}
	if m.UVs != nil && len(m.UVs) != len(m.Vertices) {
		return ErrUVCount
	}
	return nil
}

// Edges returns the deduplicated edge set in first-seen order.
func (m *TriMesh) Edges() []Edge {
	seen := make(map[Edge]struct{}, len(m.Triangles))
	edges := make([]Edge, 0, len(m.Triangles))
	for i := 0; i+2 < len(m.Triangles); i += 3 {
		a, b, c := m.Triangles[i], m.Triangles[i+1], m.Triangles[i+2]
		for _, e := range [3]Edge{OrderedEdge(a, b), OrderedEdge(b, c), OrderedEdge(c, a)} {
			if _, ok := seen[e]; ok {
				continue
			}
			seen[e] = struct{}{}
			edges = append(edges, e)
		}
	}
	return edges
}

// BendPairs returns one opposite-vertex pair for every edge shared by
// exactly two triangles. Pairs are canonical and deduplicated; edges on
// boundaries or non-manifold fans produce nothing.
func (m *TriMesh) BendPairs() []Edge {
	type adjacency struct {
		tris  [2]int
		count int
	}
	byEdge := make(map[Edge]*adjacency, len(m.Triangles))
	order := make([]Edge, 0, len(m.Triangles))
	for t := 0; t+2 < len(m.Triangles); t += 3 {
		a, b, c := m.Triangles[t], m.Triangles[t+1], m.Triangles[t+2]
		for _, e := range [3]Edge{OrderedEdge(a, b), OrderedEdge(b, c), OrderedEdge(c, a)} {
			entry, ok := byEdge[e]
			if !ok {
				entry = &adjacency{}
				byEdge[e] = entry
				order = append(order, e)
			}
			if entry.count < 2 {
				entry.tris[entry.count] = t
			}
			entry.count++
		}
	}

	seen := make(map[Edge]struct{}, len(order))
	pairs := make([]Edge, 0, len(order))
	for _, e := range order {
		entry := byEdge[e]
		if entry.count != 2 {
			continue
		}
		p := m.oppositeVertex(entry.tris[0], e)
		q := m.oppositeVertex(entry.tris[1], e)
		if p < 0 || q < 0 || p == q {
			continue
		}
		pair := OrderedEdge(p, q)
		if _, ok := seen[pair]; ok {
			continue
		}
		seen[pair] = struct{}{}
		pairs = append(pairs, pair)
	}
	return pairs
}

func (m *TriMesh) oppositeVertex(tri int, e Edge) int {
	for i := 0; i < 3; i++ {
		v := m.Triangles[tri+i]
		if v != e.A && v != e.B {
			return v
		}
	}
	return -1
}

func (m *TriMesh) Bounds() (lo, hi mgl64.Vec3) {
	if len(m.Vertices) == 0 {
		return mgl64.Vec3{}, mgl64.Vec3{}
	}
	lo, hi = m.Vertices[0], m.Vertices[0]
	for _, v := range m.Vertices[1:] {
		for i := 0; i < 3; i++ {
			if v[i] < lo[i] {
				lo[i] = v[i]
			}
			if v[i] > hi[i] {
				hi[i] = v[i]
			}
		}
	}
	return lo, hi
}

func (m *TriMesh) AverageEdgeLength() float64 {
	edges := m.Edges()
	if len(edges) == 0 {
		return 0
	}
	total := 0.0
	for _, e := range edges {
		total += m.Vertices[e.B].Sub(m.Vertices[e.A]).Len()
	}
	return total / float64(len(edges))
}

// Fixed ray direction for the parity test. Slightly irrational components
// avoid grazing axis-aligned triangle edges.
var insideRay = mgl64.Vec3{0.5377397, 0.8323581, 0.1345629}

// Contains reports whether p lies inside the closed surface using ray
// crossing parity. The mesh is assumed watertight; boundary hits count
// as outside.
func (m *TriMesh) Contains(p mgl64.Vec3) bool {
	hits := 0
	for i := 0; i+2 < len(m.Triangles); i += 3 {
		v0 := m.Vertices[m.Triangles[i]]
		v1 := m.Vertices[m.Triangles[i+1]]
		v2 := m.Vertices[m.Triangles[i+2]]
		if _, ok := rayTriangle(p, insideRay, v0, v1, v2); ok {
			hits++
		}
	}
	return hits%2 == 1
}

// rayTriangle is the Moller-Trumbore intersection test. It returns the ray
// parameter t and whether the ray (orig, dir) crosses the triangle at t > 0.
func rayTriangle(orig, dir, v0, v1, v2 mgl64.Vec3) (float64, bool) {
	const eps = 1e-9
	e1 := v1.Sub(v0)
	e2 := v2.Sub(v0)
	pv := dir.Cross(e2)
	det := e1.Dot(pv)
	if det > -eps && det < eps {
		return 0, false
	}
	inv := 1.0 / det
	tv := orig.Sub(v0)
	u := tv.Dot(pv) * inv
	if u < 0 || u > 1 {
		return 0, false
	}
	qv := tv.Cross(e1)
	v := dir.Dot(qv) * inv
	if v < 0 || u+v > 1 {
		return 0, false
	}
	t := e2.Dot(qv) * inv
	if t <= eps {
		return 0, false
	}
	return t, true
}
