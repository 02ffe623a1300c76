package body

import (
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
	"go.uber.org/zap"

	"github.com/san-kum/softsim/internal/activity"
	"github.com/san-kum/softsim/internal/color"
	"github.com/san-kum/softsim/internal/compute"
	"github.com/san-kum/softsim/internal/xpbd"
)

// Options configures body construction. A nil Backend runs serially and
// a nil Logger discards output.
type Options struct {
	Name       string
	Strategy   color.Strategy
	Params     xpbd.Params
	Thresholds activity.Thresholds
	Backend    compute.Backend
	Logger     *zap.Logger
}

// Body couples one solver with its sleep controller and owns the
// particle state exclusively. Methods are not safe for concurrent use;
// the world steps each body from a single goroutine.
type Body struct {
	name     string
	solver   *xpbd.Solver
	ctrl     *activity.Controller
	rest     []float64
	strategy color.Strategy
	log      *zap.Logger
}

// New colors the constraint graph, builds the solver and snapshots the
// construction inverse masses so pins can be released later. The
// topology must not be mutated afterwards.
func New(topo *xpbd.Topology, opts Options) (*Body, error) {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Backend == nil {
		opts.Backend = compute.Serial{}
	}
	name := opts.Name
	if name == "" {
		name = "body"
	}

	colors, colorCount, err := color.Apply(topo.Constraints, len(topo.Particles), opts.Strategy)
	if err != nil {
		return nil, fmt.Errorf("body %q: %w", name, err)
	}
	if err := color.Verify(topo.Constraints, colors); err != nil {
		return nil, fmt.Errorf("body %q: %w", name, err)
	}

	solver, err := xpbd.NewSolver(topo, colors, colorCount, opts.Params, opts.Backend)
	if err != nil {
		return nil, fmt.Errorf("body %q: %w", name, err)
	}

	rest := make([]float64, len(topo.Particles))
	for i := range topo.Particles {
		rest[i] = topo.Particles[i].InvMass
	}

	b := &Body{
		name:     name,
		solver:   solver,
		ctrl:     activity.NewController(opts.Thresholds),
		rest:     rest,
		strategy: opts.Strategy,
		log:      opts.Logger,
	}
	b.log.Debug("Body built",
		zap.String("body", name),
		zap.Int("particles", solver.NumParticles()),
		zap.Int("constraints", solver.NumConstraints()),
		zap.Int("volumes", solver.NumVolumes()),
		zap.Int("colors", colorCount),
		zap.String("coloring", opts.Strategy.String()),
		zap.String("backend", solver.BackendName()))
	return b, nil
}

// Step advances the body by one frame. Sleeping and degraded bodies are
// skipped. A numerical failure degrades the body, logs once and returns
// the wrapped error; subsequent frames return nil.
func (b *Body) Step(frameDelta float64, src xpbd.ColliderSource) error {
	if !b.ctrl.Active() || b.solver.Degraded() {
		return nil
	}
	if err := b.solver.Step(frameDelta, src); err != nil {
		var stepErr *xpbd.StepError
		if errors.As(err, &stepErr) {
			b.log.Error("Body degraded, solving disabled",
				zap.String("body", b.name),
				zap.Int("substep", stepErr.Substep),
				zap.Float64("time", stepErr.Time),
				zap.Int("particles", stepErr.NonFinite))
		}
		return err
	}

	stats := b.solver.Stats()
	if b.ctrl.Observe(stats.MeanSpeed, stats.ContactImpulse, frameDelta) {
		b.log.Debug("Body fell asleep",
			zap.String("body", b.name),
			zap.Float64("time", b.solver.Time()))
	}
	return nil
}

// ApplyImpulseNear kicks particles inside radius with a linear falloff
// from point and wakes the body. Returns the number of affected
// particles.
func (b *Body) ApplyImpulseNear(point, impulse mgl64.Vec3, radius float64) int {
	if radius <= 0 {
		return 0
	}
	affected := 0
	b.solver.MutateParticles(nil, func(_ int, p *xpbd.Particle) {
		dist := p.Position.Sub(point).Len()
		if dist > radius || p.InvMass == 0 {
			return
		}
		w := 1 - dist/radius
		p.Velocity = p.Velocity.Add(impulse.Mul(w * p.InvMass))
		affected++
	})
	if affected > 0 {
		b.ctrl.Wake(activity.WakeImpulse)
	}
	return affected
}

// ApplyForceNear accumulates an external force with linear falloff; it
// acts on the next stepped substep.
func (b *Body) ApplyForceNear(point, force mgl64.Vec3, radius float64) int {
	if radius <= 0 {
		return 0
	}
	affected := 0
	b.solver.MutateParticles(nil, func(_ int, p *xpbd.Particle) {
		dist := p.Position.Sub(point).Len()
		if dist > radius || p.InvMass == 0 {
			return
		}
		w := 1 - dist/radius
		p.Force = p.Force.Add(force.Mul(w))
		affected++
	})
	if affected > 0 {
		b.ctrl.Wake(activity.WakeImpulse)
	}
	return affected
}

// PinParticlesNear freezes or releases particles inside radius. Pinned
// particles get zero inverse mass and velocity; released ones restore
// their construction inverse mass.
func (b *Body) PinParticlesNear(point mgl64.Vec3, radius float64, pinned bool) int {
	if radius <= 0 {
		return 0
	}
	affected := 0
	b.solver.MutateParticles(nil, func(i int, p *xpbd.Particle) {
		if p.Position.Sub(point).Len() > radius {
			return
		}
		if pinned {
			p.InvMass = 0
			p.Velocity = mgl64.Vec3{}
		} else {
			p.InvMass = b.rest[i]
		}
		affected++
	})
	if affected > 0 {
		b.ctrl.Wake(activity.WakeExplicit)
	}
	return affected
}

// Wake forces the body awake.
func (b *Body) Wake() { b.ctrl.Wake(activity.WakeExplicit) }

// Reset restores the construction particle state and wakes the body.
func (b *Body) Reset() {
	b.solver.Reset()
	b.ctrl.Reset()
	b.log.Debug("Body reset", zap.String("body", b.name))
}

// ResetVelocities zeroes all velocities and pending forces in place.
func (b *Body) ResetVelocities() {
	b.solver.MutateParticles(nil, func(_ int, p *xpbd.Particle) {
		p.Velocity = mgl64.Vec3{}
		p.Force = mgl64.Vec3{}
	})
}

// SetPressure scales the pressure multiplier of every volume constraint
// and wakes the body so the change is visible immediately.
func (b *Body) SetPressure(mult float64) {
	b.solver.SetPressure(mult)
	b.ctrl.Wake(activity.WakeExplicit)
}

// MutateParticles exposes the narrow indexed-mutation hook of the
// solver. Callers that change motion state should also Wake the body.
func (b *Body) MutateParticles(indices []int, fn func(i int, p *xpbd.Particle)) {
	b.solver.MutateParticles(indices, fn)
}

// Center returns the mean particle position.
func (b *Body) Center() mgl64.Vec3 {
	n := b.solver.NumParticles()
	if n == 0 {
		return mgl64.Vec3{}
	}
	sum := mgl64.Vec3{}
	for i := 0; i < n; i++ {
		sum = sum.Add(b.solver.Particle(i).Position)
	}
	return sum.Mul(1 / float64(n))
}

func (b *Body) Name() string      { return b.name }
func (b *Body) Time() float64     { return b.solver.Time() }
func (b *Body) Degraded() bool    { return b.solver.Degraded() }
func (b *Body) Stats() xpbd.Stats { return b.solver.Stats() }

func (b *Body) NumParticles() int   { return b.solver.NumParticles() }
func (b *Body) NumConstraints() int { return b.solver.NumConstraints() }
func (b *Body) NumVolumes() int     { return b.solver.NumVolumes() }
func (b *Body) ColorCount() int     { return b.solver.ColorCount() }
func (b *Body) BackendName() string { return b.solver.BackendName() }

// Controller exposes the sleep state machine for world-level wake
// decisions.
func (b *Body) Controller() *activity.Controller { return b.ctrl }

// Strategy reports the coloring strategy the body was built with.
func (b *Body) Strategy() color.Strategy { return b.strategy }

// Positions appends the current particle positions to dst, for render
// consumers polling once per frame.
func (b *Body) Positions(dst []mgl64.Vec3) []mgl64.Vec3 {
	return b.solver.Positions(dst)
}

// ConstraintPairs appends the constraint index pairs to dst.
func (b *Body) ConstraintPairs(dst [][2]int) [][2]int {
	return b.solver.ConstraintPairs(dst)
}

// Particle returns a copy of particle i.
func (b *Body) Particle(i int) xpbd.Particle { return b.solver.Particle(i) }
