package topology

import (
	"errors"

	"github.com/go-gl/mathgl/mgl64"
)

// Builder errors.
var (
	ErrBadDims    = errors.New("topology: lattice needs at least 2 particles on one axis")
	ErrBadSpacing = errors.New("topology: spacing must exceed the minimum rest length")
	ErrBadMass    = errors.New("topology: particle mass must be positive")
	ErrNoEdges    = errors.New("topology: mesh produced no usable edges")
	ErrBadOptions = errors.New("topology: invalid builder options")
)

// LatticeOptions describes a procedural box lattice. Compliance values
// are per constraint class; zero means rigid.
type LatticeOptions struct {
	Nx, Ny, Nz int
	Spacing    float64
	Origin     mgl64.Vec3
	Mass       float64

	Structural float64
	Shear      float64
	Bend       float64
	Volume     float64

	WithVolumes bool
}

func DefaultLatticeOptions() LatticeOptions {
	return LatticeOptions{
		Nx: 4, Ny: 4, Nz: 4,
		Spacing:     0.25,
		Mass:        0.1,
		Structural:  0,
		Shear:       1e-5,
		Bend:        1e-4,
		Volume:      1e-6,
		WithVolumes: true,
	}
}

// MeshOptions describes constraint generation from a triangle surface.
// TetraThreshold is the welded vertex count at which interior sampling
// kicks in; Seed fixes the rejection sampler so builds are reproducible.
type MeshOptions struct {
	WeldEpsilon float64
	Mass        float64

	Structural float64
	Bend       float64
	Interior   float64
	Volume     float64

	TetraThreshold int
	InteriorCount  int
	SurfaceLinks   int
	MaxTetrahedra  int
	Seed           int64
}

func DefaultMeshOptions() MeshOptions {
	return MeshOptions{
		WeldEpsilon:    1e-4,
		Mass:           0.05,
		Structural:     0,
		Bend:           1e-4,
		Interior:       1e-5,
		Volume:         1e-6,
		TetraThreshold: 64,
		SurfaceLinks:   4,
		MaxTetrahedra:  256,
		Seed:           1,
	}
}
