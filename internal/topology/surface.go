package topology

import (
	"math/rand"
	"sort"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/softsim/internal/geom"
	"github.com/san-kum/softsim/internal/xpbd"
)

// BuildFromMesh welds the surface, derives structural constraints from
// canonical edges and bend constraints from opposite-vertex pairs, and
// for dense meshes adds sampled interior particles with tetrahedral
// support. The welded mesh is returned for render consumers that need
// triangle and UV data.
func BuildFromMesh(mesh *geom.TriMesh, opts MeshOptions) (*xpbd.Topology, *geom.TriMesh, error) {
	if err := mesh.Validate(); err != nil {
		return nil, nil, err
	}
	if opts.Mass <= 0 {
		return nil, nil, ErrBadMass
	}
	if opts.Structural < 0 || opts.Bend < 0 || opts.Interior < 0 || opts.Volume < 0 {
		return nil, nil, ErrBadOptions
	}

	welded, err := geom.Weld(mesh.Vertices, mesh.Triangles, mesh.UVs, opts.WeldEpsilon)
	if err != nil {
		return nil, nil, err
	}
	surface := &geom.TriMesh{
		Vertices:  welded.Vertices,
		Triangles: welded.Triangles,
		UVs:       welded.UVs,
	}

	edges := surface.Edges()
	if len(edges) == 0 {
		return nil, nil, ErrNoEdges
	}

	invMass := 1.0 / opts.Mass
	topo := &xpbd.Topology{
		Particles: make([]xpbd.Particle, len(surface.Vertices)),
	}
	for i, v := range surface.Vertices {
		topo.Particles[i] = xpbd.Particle{Position: v, InvMass: invMass}
	}

	seen := make(map[geom.Edge]struct{}, len(edges))
	addConstraint := func(e geom.Edge, compliance float64, kind xpbd.ConstraintKind) {
		if _, ok := seen[e]; ok {
			return
		}
		rest := surface.Vertices[e.B].Sub(surface.Vertices[e.A]).Len()
		if rest < xpbd.MinRestLength {
			return
		}
		seen[e] = struct{}{}
		topo.Constraints = append(topo.Constraints, xpbd.Constraint{
			A: e.A, B: e.B,
			RestLength: rest,
			Compliance: compliance,
			Kind:       kind,
		})
	}

	for _, e := range edges {
		addConstraint(e, opts.Structural, xpbd.KindStructural)
	}
	for _, pair := range surface.BendPairs() {
		addConstraint(pair, opts.Bend, xpbd.KindBend)
	}
	if len(topo.Constraints) == 0 {
		return nil, nil, ErrNoEdges
	}

	if opts.TetraThreshold > 0 && len(surface.Vertices) >= opts.TetraThreshold {
		sampleInterior(topo, surface, seen, opts)
	}

	return topo, surface, nil
}

// sampleInterior rejects uniform samples against the closed surface,
// links accepted points to each other and to their nearest surface
// vertices, and synthesizes tetrahedra around each interior point.
func sampleInterior(topo *xpbd.Topology, surface *geom.TriMesh, seen map[geom.Edge]struct{}, opts MeshOptions) {
	surfaceCount := len(surface.Vertices)
	target := opts.InteriorCount
	if target <= 0 {
		target = surfaceCount / 5
		if target < 4 {
			target = 4
		}
		if target > 64 {
			target = 64
		}
	}
	links := opts.SurfaceLinks
	if links <= 0 {
		links = 4
	}
	maxTets := opts.MaxTetrahedra
	if maxTets <= 0 {
		maxTets = 256
	}

	lo, hi := surface.Bounds()
	span := hi.Sub(lo)
	margin := span.Mul(0.05)
	lo = lo.Add(margin)
	span = span.Sub(margin.Mul(2))

	rng := rand.New(rand.NewSource(opts.Seed))
	interior := make([]int, 0, target)
	invMass := 1.0 / opts.Mass
	for attempts := 0; len(interior) < target && attempts < 50*target; attempts++ {
		p := mgl64.Vec3{
			lo.X() + rng.Float64()*span.X(),
			lo.Y() + rng.Float64()*span.Y(),
			lo.Z() + rng.Float64()*span.Z(),
		}
		if !surface.Contains(p) {
			continue
		}
		interior = append(interior, len(topo.Particles))
		topo.Particles = append(topo.Particles, xpbd.Particle{Position: p, InvMass: invMass})
	}
	if len(interior) == 0 {
		fallbackTetrahedra(topo, surfaceCount, maxTets, opts.Volume)
		return
	}

	addLink := func(a, b int) {
		e := geom.OrderedEdge(a, b)
		if _, ok := seen[e]; ok {
			return
		}
		rest := topo.Particles[e.B].Position.Sub(topo.Particles[e.A].Position).Len()
		if rest < xpbd.MinRestLength {
			return
		}
		seen[e] = struct{}{}
		topo.Constraints = append(topo.Constraints, xpbd.Constraint{
			A: e.A, B: e.B,
			RestLength: rest,
			Compliance: opts.Interior,
			Kind:       xpbd.KindLongRange,
		})
	}

	// Interior points connect pairwise inside an adaptive radius.
	radius := 1.5 * surface.AverageEdgeLength()
	for x := 0; x < len(interior); x++ {
		for y := x + 1; y < len(interior); y++ {
			a, b := interior[x], interior[y]
			d := topo.Particles[b].Position.Sub(topo.Particles[a].Position).Len()
			if d <= radius {
				addLink(a, b)
			}
		}
	}

	// Each interior point links to its nearest surface vertices, capped
	// at 3 interior links per surface vertex.
	surfaceLoad := make([]int, surfaceCount)
	nearest := make([][]int, len(interior))
	for x, pi := range interior {
		order := make([]int, surfaceCount)
		for i := range order {
			order[i] = i
		}
		from := topo.Particles[pi].Position
		sort.Slice(order, func(a, b int) bool {
			da := surface.Vertices[order[a]].Sub(from).LenSqr()
			db := surface.Vertices[order[b]].Sub(from).LenSqr()
			if da != db {
				return da < db
			}
			return order[a] < order[b]
		})
		picked := make([]int, 0, links)
		for _, sv := range order {
			if len(picked) == links {
				break
			}
			if surfaceLoad[sv] >= 3 {
				continue
			}
			surfaceLoad[sv]++
			picked = append(picked, sv)
			addLink(pi, sv)
		}
		nearest[x] = picked
	}

	// Tetrahedra: every interior point against triples of its nearest
	// surface vertices, capped globally.
	added := 0
	for x, pi := range interior {
		n := nearest[x]
		for i := 0; i < len(n) && added < maxTets; i++ {
			for j := i + 1; j < len(n) && added < maxTets; j++ {
				for k := j + 1; k < len(n) && added < maxTets; k++ {
					if appendTetra(topo, pi, n[i], n[j], n[k], opts.Volume) {
						added++
					}
				}
			}
		}
	}
	if added == 0 {
		fallbackTetrahedra(topo, surfaceCount, maxTets, opts.Volume)
	}
}

// fallbackTetrahedra chains consecutive surface vertices so volume
// support survives even when sampling fails.
func fallbackTetrahedra(topo *xpbd.Topology, surfaceCount, maxTets int, compliance float64) {
	added := 0
	for i := 0; i+3 < surfaceCount && added < maxTets; i += 4 {
		if appendTetra(topo, i, i+1, i+2, i+3, compliance) {
			added++
		}
	}
}
