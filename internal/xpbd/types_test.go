package xpbd

import (
	"errors"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

func validTopology() *Topology {
	return &Topology{
		Particles: []Particle{
			{Position: mgl64.Vec3{0, 0, 0}, InvMass: 1},
			{Position: mgl64.Vec3{1, 0, 0}, InvMass: 1},
		},
		Constraints: []Constraint{{A: 0, B: 1, RestLength: 1}},
	}
}

func TestTopologyValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Topology)
		want   error
	}{
		{"valid", func(*Topology) {}, nil},
		{"no particles", func(tp *Topology) { tp.Particles = nil }, ErrNoParticles},
		{"no constraints", func(tp *Topology) { tp.Constraints = nil }, ErrNoConstraints},
		{"negative inverse mass", func(tp *Topology) { tp.Particles[0].InvMass = -1 }, ErrInvMass},
		{"nan position", func(tp *Topology) { tp.Particles[0].Position[1] = math.NaN() }, ErrBadPosition},
		{"index out of range", func(tp *Topology) { tp.Constraints[0].B = 7 }, ErrIndexRange},
		{"self constraint", func(tp *Topology) { tp.Constraints[0].B = 0 }, ErrIndexRange},
		{"short rest length", func(tp *Topology) { tp.Constraints[0].RestLength = 1e-4 }, ErrRestLength},
		{"negative compliance", func(tp *Topology) { tp.Constraints[0].Compliance = -1e-6 }, ErrCompliance},
		{"volume index", func(tp *Topology) {
			tp.Volumes = []VolumeConstraint{{A: 0, B: 1, C: 2, D: 3, RestVolume: 1}}
		}, ErrIndexRange},
		{"tiny rest volume", func(tp *Topology) {
			tp.Particles = append(tp.Particles,
				Particle{Position: mgl64.Vec3{0, 1, 0}, InvMass: 1},
				Particle{Position: mgl64.Vec3{0, 0, 1}, InvMass: 1})
			tp.Volumes = []VolumeConstraint{{A: 0, B: 1, C: 2, D: 3, RestVolume: 1e-6}}
		}, ErrRestVolume},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			topo := validTopology()
			tt.mutate(topo)
			err := topo.Validate()
			if tt.want == nil {
				if err != nil {
					t.Errorf("expected valid topology, got %v", err)
				}
				return
			}
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestParamsValidate(t *testing.T) {
	if err := DefaultParams().Validate(); err != nil {
		t.Fatalf("default params invalid: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*Params)
	}{
		{"zero target delta", func(p *Params) { p.TargetDelta = 0 }},
		{"no substeps", func(p *Params) { p.MaxSubsteps = 0 }},
		{"no iterations", func(p *Params) { p.Iterations = 0 }},
		{"decay above one", func(p *Params) { p.LambdaDecay = 1.5 }},
		{"decay zero", func(p *Params) { p.LambdaDecay = 0 }},
		{"negative damping", func(p *Params) { p.Damping = -0.1 }},
		{"negative radius", func(p *Params) { p.ParticleRadius = -1 }},
		{"infinite gravity", func(p *Params) { p.Gravity[1] = math.Inf(-1) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := DefaultParams()
			tt.mutate(&p)
			if !errors.Is(p.Validate(), ErrBadParams) {
				t.Error("expected ErrBadParams")
			}
		})
	}
}

func TestConstraintKindString(t *testing.T) {
	kinds := map[ConstraintKind]string{
		KindStructural:     "structural",
		KindShear:          "shear",
		KindBend:           "bend",
		KindLongRange:      "longrange",
		KindRepair:         "repair",
		ConstraintKind(99): "unknown",
	}
	for k, want := range kinds {
		if got := k.String(); got != want {
			t.Errorf("expected %q, got %q", want, got)
		}
	}
}
