package topology

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/softsim/internal/geom"
	"github.com/san-kum/softsim/internal/xpbd"
)

type latticeOffset struct {
	dx, dy, dz int
	kind       xpbd.ConstraintKind
}

// Canonical neighbor offsets: the leading nonzero component is positive,
// so every undirected pair is generated exactly once.
var latticeOffsets = []latticeOffset{
	{1, 0, 0, xpbd.KindStructural},
	{0, 1, 0, xpbd.KindStructural},
	{0, 0, 1, xpbd.KindStructural},

	{1, 1, 0, xpbd.KindShear},
	{1, -1, 0, xpbd.KindShear},
	{1, 0, 1, xpbd.KindShear},
	{1, 0, -1, xpbd.KindShear},
	{0, 1, 1, xpbd.KindShear},
	{0, 1, -1, xpbd.KindShear},

	{1, 1, 1, xpbd.KindBend},
	{1, 1, -1, xpbd.KindBend},
	{1, -1, 1, xpbd.KindBend},
	{1, -1, -1, xpbd.KindBend},
}

// Five-tetrahedra cube decomposition. Corner bits are x + 2y + 4z; the
// mirrored variant keeps faces conforming between cells of opposite
// parity.
var (
	evenCellTets = [5][4]int{
		{0, 1, 2, 4},
		{1, 2, 3, 7},
		{1, 4, 5, 7},
		{2, 4, 6, 7},
		{1, 2, 4, 7},
	}
	oddCellTets = [5][4]int{
		{0, 1, 3, 5},
		{0, 2, 3, 6},
		{0, 4, 5, 6},
		{3, 5, 6, 7},
		{0, 3, 5, 6},
	}
)

// BuildLattice generates a box lattice with structural, shear and bend
// constraint classes, plus five tetrahedral volume constraints per cell
// when WithVolumes is set.
func BuildLattice(opts LatticeOptions) (*xpbd.Topology, error) {
	if opts.Nx < 1 || opts.Ny < 1 || opts.Nz < 1 || opts.Nx*opts.Ny*opts.Nz < 2 {
		return nil, ErrBadDims
	}
	if opts.Spacing <= xpbd.MinRestLength {
		return nil, ErrBadSpacing
	}
	if opts.Mass <= 0 {
		return nil, ErrBadMass
	}
	if opts.Structural < 0 || opts.Shear < 0 || opts.Bend < 0 || opts.Volume < 0 {
		return nil, ErrBadOptions
	}

	nx, ny, nz := opts.Nx, opts.Ny, opts.Nz
	idx := func(i, j, k int) int { return (k*ny+j)*nx + i }
	invMass := 1.0 / opts.Mass

	topo := &xpbd.Topology{
		Particles: make([]xpbd.Particle, 0, nx*ny*nz),
	}
	for k := 0; k < nz; k++ {
		for j := 0; j < ny; j++ {
			for i := 0; i < nx; i++ {
				topo.Particles = append(topo.Particles, xpbd.Particle{
					Position: opts.Origin.Add(mgl64.Vec3{
						float64(i) * opts.Spacing,
						float64(j) * opts.Spacing,
						float64(k) * opts.Spacing,
					}),
					InvMass: invMass,
				})
			}
		}
	}

	compliance := func(kind xpbd.ConstraintKind) float64 {
		switch kind {
		case xpbd.KindShear:
			return opts.Shear
		case xpbd.KindBend:
			return opts.Bend
		}
		return opts.Structural
	}

	for k := 0; k < nz; k++ {
		for j := 0; j < ny; j++ {
			for i := 0; i < nx; i++ {
				a := idx(i, j, k)
				for _, off := range latticeOffsets {
					ii, jj, kk := i+off.dx, j+off.dy, k+off.dz
					if ii < 0 || ii >= nx || jj < 0 || jj >= ny || kk < 0 || kk >= nz {
						continue
					}
					b := idx(ii, jj, kk)
					rest := math.Sqrt(float64(off.dx*off.dx+off.dy*off.dy+off.dz*off.dz)) * opts.Spacing
					topo.Constraints = append(topo.Constraints, xpbd.Constraint{
						A: a, B: b,
						RestLength: rest,
						Compliance: compliance(off.kind),
						Kind:       off.kind,
					})
				}
			}
		}
	}

	if opts.WithVolumes && nx > 1 && ny > 1 && nz > 1 {
		for k := 0; k < nz-1; k++ {
			for j := 0; j < ny-1; j++ {
				for i := 0; i < nx-1; i++ {
					var corner [8]int
					for bit := 0; bit < 8; bit++ {
						corner[bit] = idx(i+(bit&1), j+(bit>>1)&1, k+(bit>>2)&1)
					}
					tets := &evenCellTets
					if (i+j+k)%2 == 1 {
						tets = &oddCellTets
					}
					for _, tet := range tets {
						appendTetra(topo, corner[tet[0]], corner[tet[1]], corner[tet[2]], corner[tet[3]], opts.Volume)
					}
				}
			}
		}
	}

	return topo, nil
}

// appendTetra orients the tetrahedron to positive volume and appends it
// when the rest volume clears the stability floor.
func appendTetra(topo *xpbd.Topology, a, b, c, d int, compliance float64) bool {
	vol := geom.SignedTetraVolume(
		topo.Particles[a].Position,
		topo.Particles[b].Position,
		topo.Particles[c].Position,
		topo.Particles[d].Position,
	)
	if vol < 0 {
		c, d = d, c
		vol = -vol
	}
	if vol <= xpbd.MinRestVolume {
		return false
	}
	topo.Volumes = append(topo.Volumes, xpbd.VolumeConstraint{
		A: a, B: b, C: c, D: d,
		RestVolume: vol,
		Compliance: compliance,
		Pressure:   1,
	})
	return true
}
