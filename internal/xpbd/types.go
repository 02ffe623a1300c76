package xpbd

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Stability floors for constraint rest configuration.
const (
	MinRestLength = 1e-3
	MinRestVolume = 1e-5
)

// Particle is a point mass. InvMass 0 pins the particle. Force is a
// transient accumulator consumed and cleared by the next substep.
type Particle struct {
	Position mgl64.Vec3
	Velocity mgl64.Vec3
	Force    mgl64.Vec3
	InvMass  float64
}

type ConstraintKind uint8

const (
	KindStructural ConstraintKind = iota
	KindShear
	KindBend
	KindLongRange
	KindRepair
)

func (k ConstraintKind) String() string {
	switch k {
	case KindStructural:
		return "structural"
	case KindShear:
		return "shear"
	case KindBend:
		return "bend"
	case KindLongRange:
		return "longrange"
	case KindRepair:
		return "repair"
	}
	return "unknown"
}

// Constraint keeps particles A and B at RestLength. Lambda is the
// accumulated multiplier, warm-started across substeps with decay.
type Constraint struct {
	A, B       int
	RestLength float64
	Compliance float64
	Lambda     float64
	Color      int
	Kind       ConstraintKind
}

// VolumeConstraint preserves the signed volume of a tetrahedron.
// Pressure scales the target volume; 1 is the rest configuration.
type VolumeConstraint struct {
	A, B, C, D int
	RestVolume float64
	Compliance float64
	Lambda     float64
	Pressure   float64
}

// Topology is the immutable output of the constraint builders: particles
// with their rest state plus the constraint sets the solver iterates.
type Topology struct {
	Particles   []Particle
	Constraints []Constraint
	Volumes     []VolumeConstraint
}

func (t *Topology) Validate() error {
	n := len(t.Particles)
	if n == 0 {
		return ErrNoParticles
	}
	for i := range t.Particles {
		p := &t.Particles[i]
		if p.InvMass < 0 || math.IsNaN(p.InvMass) || math.IsInf(p.InvMass, 0) {
			return ErrInvMass
		}
		if !finiteVec(p.Position) || !finiteVec(p.Velocity) {
			return ErrBadPosition
		}
	}
	if len(t.Constraints) == 0 {
		return ErrNoConstraints
	}
	for i := range t.Constraints {
		c := &t.Constraints[i]
		if c.A < 0 || c.A >= n || c.B < 0 || c.B >= n || c.A == c.B {
			return ErrIndexRange
		}
		if c.RestLength < MinRestLength {
			return ErrRestLength
		}
		if c.Compliance < 0 {
			return ErrCompliance
		}
	}
	for i := range t.Volumes {
		v := &t.Volumes[i]
		for _, idx := range [4]int{v.A, v.B, v.C, v.D} {
			if idx < 0 || idx >= n {
				return ErrIndexRange
			}
		}
		if math.Abs(v.RestVolume) < MinRestVolume {
			return ErrRestVolume
		}
		if v.Compliance < 0 {
			return ErrCompliance
		}
	}
	return nil
}

func finiteVec(v mgl64.Vec3) bool {
	for i := 0; i < 3; i++ {
		if math.IsNaN(v[i]) || math.IsInf(v[i], 0) {
			return false
		}
	}
	return true
}

// Params are the per-body solver settings.
type Params struct {
	Gravity          mgl64.Vec3
	Damping          float64
	TargetDelta      float64
	MaxSubsteps      int
	Iterations       int
	LambdaDecay      float64
	ParticleRadius   float64
	MaxSpeed         float64
	CollisionEnabled bool
}

func DefaultParams() Params {
	return Params{
		Gravity:          mgl64.Vec3{0, -9.81, 0},
		Damping:          0.05,
		TargetDelta:      1.0 / 120.0,
		MaxSubsteps:      8,
		Iterations:       8,
		LambdaDecay:      0.99,
		ParticleRadius:   0.05,
		MaxSpeed:         100,
		CollisionEnabled: true,
	}
}

func (p Params) Validate() error {
	switch {
	case p.TargetDelta <= 0,
		p.MaxSubsteps < 1,
		p.Iterations < 1,
		p.LambdaDecay <= 0 || p.LambdaDecay > 1,
		p.Damping < 0,
		p.ParticleRadius < 0,
		p.MaxSpeed < 0,
		!finiteVec(p.Gravity):
		return ErrBadParams
	}
	return nil
}

// Stats summarizes the most recent frame.
type Stats struct {
	Substeps       int
	PeakSpeed      float64
	MeanSpeed      float64
	KineticEnergy  float64
	ContactImpulse float64
	NonFinite      int
}
