package geom

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Cuboid builds a triangulated axis-aligned box surface centered at center.
// Each face is an n x n quad grid; face borders are welded so the surface
// is watertight.
func Cuboid(center, size mgl64.Vec3, n int) *TriMesh {
	if n < 1 {
		n = 1
	}
	half := size.Mul(0.5)
	lo := center.Sub(half)
	hi := center.Add(half)

	var verts []mgl64.Vec3
	var tris []int

	addFace := func(origin, du, dv mgl64.Vec3) {
		base := len(verts)
		for j := 0; j <= n; j++ {
			for i := 0; i <= n; i++ {
				p := origin.
					Add(du.Mul(float64(i) / float64(n))).
					Add(dv.Mul(float64(j) / float64(n)))
				verts = append(verts, p)
			}
		}
		for j := 0; j < n; j++ {
			for i := 0; i < n; i++ {
				a := base + j*(n+1) + i
				b := a + 1
				c := a + (n + 1)
				d := c + 1
				tris = append(tris, a, b, d, a, d, c)
			}
		}
	}

	sx := mgl64.Vec3{size.X(), 0, 0}
	sy := mgl64.Vec3{0, size.Y(), 0}
	sz := mgl64.Vec3{0, 0, size.Z()}

	addFace(lo, sx, sy)
	addFace(mgl64.Vec3{lo.X(), lo.Y(), hi.Z()}, sy, sx)
	addFace(lo, sy, sz)
	addFace(mgl64.Vec3{hi.X(), lo.Y(), lo.Z()}, sz, sy)
	addFace(lo, sz, sx)
	addFace(mgl64.Vec3{lo.X(), hi.Y(), lo.Z()}, sx, sz)

	welded, err := Weld(verts, tris, nil, DefaultWeldEpsilon)
	if err != nil {
		return &TriMesh{Vertices: verts, Triangles: tris}
	}
	return &TriMesh{Vertices: welded.Vertices, Triangles: welded.Triangles}
}

// Icosphere builds a unit icosahedron subdivided the given number of times
// and projected onto a sphere of the given radius.
func Icosphere(center mgl64.Vec3, radius float64, subdivisions int) *TriMesh {
	t := (1.0 + math.Sqrt(5.0)) / 2.0

	verts := []mgl64.Vec3{
		{-1, t, 0}, {1, t, 0}, {-1, -t, 0}, {1, -t, 0},
		{0, -1, t}, {0, 1, t}, {0, -1, -t}, {0, 1, -t},
		{t, 0, -1}, {t, 0, 1}, {-t, 0, -1}, {-t, 0, 1},
	}
	for i := range verts {
		verts[i] = verts[i].Normalize()
	}
	tris := []int{
		0, 11, 5, 0, 5, 1, 0, 1, 7, 0, 7, 10, 0, 10, 11,
		1, 5, 9, 5, 11, 4, 11, 10, 2, 10, 7, 6, 7, 1, 8,
		3, 9, 4, 3, 4, 2, 3, 2, 6, 3, 6, 8, 3, 8, 9,
		4, 9, 5, 2, 4, 11, 6, 2, 10, 8, 6, 7, 9, 8, 1,
	}

	for s := 0; s < subdivisions; s++ {
		midpoints := make(map[Edge]int)
		midpoint := func(a, b int) int {
			key := OrderedEdge(a, b)
			if idx, ok := midpoints[key]; ok {
				return idx
			}
			m := verts[a].Add(verts[b]).Mul(0.5).Normalize()
			verts = append(verts, m)
			midpoints[key] = len(verts) - 1
			return len(verts) - 1
		}
		next := make([]int, 0, len(tris)*4)
		for i := 0; i+2 < len(tris); i += 3 {
			a, b, c := tris[i], tris[i+1], tris[i+2]
			ab, bc, ca := midpoint(a, b), midpoint(b, c), midpoint(c, a)
			next = append(next,
				a, ab, ca,
				b, bc, ab,
				c, ca, bc,
				ab, bc, ca)
		}
		tris = next
	}

	out := make([]mgl64.Vec3, len(verts))
	for i, v := range verts {
		out[i] = center.Add(v.Mul(radius))
	}
	return &TriMesh{Vertices: out, Triangles: tris}
}
