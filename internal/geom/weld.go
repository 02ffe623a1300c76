package geom

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

const DefaultWeldEpsilon = 1e-4

// WeldResult holds a deduplicated vertex set with remapped triangle
// indices. Remap[i] is the welded index of original vertex i; every
// triangle index is guaranteed to be < len(Vertices).
type WeldResult struct {
	Vertices  []mgl64.Vec3
	Triangles []int
	UVs       []mgl64.Vec2
	Remap     []int
}

// Weld merges vertices closer than epsilon using a spatial hash and
// rewrites triangle indices against the merged set. When uvs is non-nil
// the UVs of merged duplicates are averaged. The first occurrence of a
// cluster keeps its position, so the pass is deterministic.
func Weld(vertices []mgl64.Vec3, triangles []int, uvs []mgl64.Vec2, epsilon float64) (*WeldResult, error) {
	if len(vertices) == 0 {
		return nil, ErrEmptyMesh
	}
	if len(triangles)%3 != 0 {
		return nil, ErrTriangleCount
	}
	for _, idx := range triangles {
		if idx < 0 || idx >= len(vertices) {
			return nil, ErrIndexRange
		}
	}
	if uvs != nil && len(uvs) != len(vertices) {
		return nil, ErrUVCount
	}
	if epsilon <= 0 {
		epsilon = DefaultWeldEpsilon
	}

	type cell struct{ x, y, z int64 }
	quantize := func(v mgl64.Vec3) cell {
		return cell{
			int64(math.Floor(v.X() / epsilon)),
			int64(math.Floor(v.Y() / epsilon)),
			int64(math.Floor(v.Z() / epsilon)),
		}
	}

	buckets := make(map[cell][]int, len(vertices))
	out := &WeldResult{
		Vertices: make([]mgl64.Vec3, 0, len(vertices)),
		Remap:    make([]int, len(vertices)),
	}
	epsSq := epsilon * epsilon

	var uvSum []mgl64.Vec2
	var uvCount []int

	for i, v := range vertices {
		c := quantize(v)
		found := -1
	search:
		for dx := int64(-1); dx <= 1; dx++ {
			for dy := int64(-1); dy <= 1; dy++ {
				for dz := int64(-1); dz <= 1; dz++ {
					for _, w := range buckets[cell{c.x + dx, c.y + dy, c.z + dz}] {
						if out.Vertices[w].Sub(v).LenSqr() <= epsSq {
							found = w
							break search
						}
					}
				}
			}
		}
		if found < 0 {
			found = len(out.Vertices)
			out.Vertices = append(out.Vertices, v)
			buckets[c] = append(buckets[c], found)
			if uvs != nil {
				uvSum = append(uvSum, mgl64.Vec2{})
				uvCount = append(uvCount, 0)
			}
		}
		out.Remap[i] = found
		if uvs != nil {
			uvSum[found] = uvSum[found].Add(uvs[i])
			uvCount[found]++
		}
	}

	out.Triangles = make([]int, len(triangles))
	for i, idx := range triangles {
		out.Triangles[i] = out.Remap[idx]
	}

	if uvs != nil {
		out.UVs = make([]mgl64.Vec2, len(out.Vertices))
		for i := range out.UVs {
			out.UVs[i] = uvSum[i].Mul(1.0 / float64(uvCount[i]))
		}
	}
	return out, nil
}
