package xpbd

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/softsim/internal/compute"
)

type colorSpan struct {
	start, end int
}

// Solver advances one deformable body. It deep-copies the topology at
// construction and owns that state exclusively; a frame is stepped from
// a single goroutine while readers go through the accessor methods
// between frames.
type Solver struct {
	params  Params
	backend compute.Backend

	particles []Particle
	initial   []Particle
	prev      []mgl64.Vec3
	cons      []Constraint
	volumes   []VolumeConstraint

	order []int
	spans []colorSpan

	corrections []mgl64.Vec3
	contact     []float64

	time     float64
	stats    Stats
	degraded bool
}

// NewSolver builds a solver from an immutable topology and a color
// assignment (one color per constraint, colors dense in [0, colorCount)).
func NewSolver(topo *Topology, colors []int, colorCount int, params Params, backend compute.Backend) (*Solver, error) {
	if err := topo.Validate(); err != nil {
		return nil, err
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if len(colors) != len(topo.Constraints) || colorCount < 1 {
		return nil, ErrColorCount
	}
	for _, c := range colors {
		if c < 0 || c >= colorCount {
			return nil, ErrColorCount
		}
	}
	if backend == nil {
		backend = compute.Serial{}
	}

	s := &Solver{
		params:      params,
		backend:     backend,
		particles:   make([]Particle, len(topo.Particles)),
		initial:     make([]Particle, len(topo.Particles)),
		prev:        make([]mgl64.Vec3, len(topo.Particles)),
		cons:        make([]Constraint, len(topo.Constraints)),
		volumes:     make([]VolumeConstraint, len(topo.Volumes)),
		corrections: make([]mgl64.Vec3, len(topo.Particles)),
		contact:     make([]float64, len(topo.Particles)),
	}
	copy(s.particles, topo.Particles)
	copy(s.initial, topo.Particles)
	copy(s.cons, topo.Constraints)
	copy(s.volumes, topo.Volumes)

	for i := range s.particles {
		s.prev[i] = s.particles[i].Position
	}
	for i := range s.cons {
		s.cons[i].Color = colors[i]
		s.cons[i].Lambda = 0
	}
	for i := range s.volumes {
		if s.volumes[i].Pressure == 0 {
			s.volumes[i].Pressure = 1
		}
		s.volumes[i].Lambda = 0
	}

	// Bucket constraint indices by color. Order within a color follows
	// input order so every step visits constraints deterministically.
	counts := make([]int, colorCount)
	for _, c := range colors {
		counts[c]++
	}
	s.spans = make([]colorSpan, colorCount)
	offset := 0
	for c, n := range counts {
		s.spans[c] = colorSpan{start: offset, end: offset + n}
		offset += n
	}
	s.order = make([]int, len(colors))
	cursor := make([]int, colorCount)
	for i, c := range colors {
		s.order[s.spans[c].start+cursor[c]] = i
		cursor[c]++
	}
	return s, nil
}

// Step advances the solver by one frame, splitting frameDelta into
// substeps of at most TargetDelta. On a numerical failure the state is
// frozen at the last finite configuration, the solver marks itself
// degraded, and a *StepError wrapping ErrNonFinite is returned.
func (s *Solver) Step(frameDelta float64, src ColliderSource) error {
	if s.degraded {
		return ErrDegraded
	}
	if frameDelta <= 0 {
		return nil
	}

	n := int(math.Ceil(frameDelta / s.params.TargetDelta))
	if n < 1 {
		n = 1
	}
	if n > s.params.MaxSubsteps {
		n = s.params.MaxSubsteps
	}
	dt := frameDelta / float64(n)

	s.stats = Stats{Substeps: n}
	for i := range s.contact {
		s.contact[i] = 0
	}

	for sub := 0; sub < n; sub++ {
		var colliders []Collider
		if src != nil && s.params.CollisionEnabled {
			colliders = src.ActiveColliders()
		}
		if err := s.substep(dt, colliders); err != nil {
			s.degraded = true
			return &StepError{Substep: sub, Time: s.time, NonFinite: s.stats.NonFinite, Wrapped: err}
		}
		s.time += dt
	}

	peak := 0.0
	for _, c := range s.contact {
		if c > peak {
			peak = c
		}
	}
	s.stats.ContactImpulse = math.Sqrt(peak) / dt
	return nil
}

func (s *Solver) substep(dt float64, colliders []Collider) error {
	s.decayLambdas()
	s.integrate(dt)

	for iter := 0; iter < s.params.Iterations; iter++ {
		for _, span := range s.spans {
			count := span.end - span.start
			if count == 0 {
				continue
			}
			base := span.start
			s.backend.Dispatch(count, func(start, end int) {
				for k := start; k < end; k++ {
					s.solveDistance(s.order[base+k], dt)
				}
			})
		}
		s.solveVolumes(dt)
		if len(colliders) > 0 {
			s.solveCollisions(colliders)
		}
	}

	s.updateVelocities(dt)
	return s.validate()
}

func (s *Solver) decayLambdas() {
	decay := s.params.LambdaDecay
	for i := range s.cons {
		s.cons[i].Lambda *= decay
	}
	for i := range s.volumes {
		s.volumes[i].Lambda *= decay
	}
}

func (s *Solver) integrate(dt float64) {
	g := s.params.Gravity.Mul(dt)
	damp := 1.0 / (1.0 + s.params.Damping*dt)
	maxSpeed := s.params.MaxSpeed

	s.backend.Dispatch(len(s.particles), func(start, end int) {
		for i := start; i < end; i++ {
			p := &s.particles[i]
			s.prev[i] = p.Position
			if p.InvMass == 0 {
				p.Force = mgl64.Vec3{}
				continue
			}
			v := p.Velocity.Add(g).Add(p.Force.Mul(p.InvMass * dt))
			v = v.Mul(damp)
			if maxSpeed > 0 {
				if speed := v.Len(); speed > maxSpeed {
					v = v.Mul(maxSpeed / speed)
				}
			}
			p.Velocity = v
			p.Position = p.Position.Add(v.Mul(dt))
			p.Force = mgl64.Vec3{}
		}
	})
}

func (s *Solver) solveDistance(ci int, dt float64) {
	c := &s.cons[ci]
	pa := &s.particles[c.A]
	pb := &s.particles[c.B]

	alpha := c.Compliance / (dt * dt)
	denom := pa.InvMass + pb.InvMass + alpha
	if denom < 1e-12 {
		return
	}

	d := pb.Position.Sub(pa.Position)
	length := d.Len()
	if length < 1e-9 {
		return
	}
	n := d.Mul(1.0 / length)

	violation := length - c.RestLength
	dl := (-violation - alpha*c.Lambda) / denom
	c.Lambda += dl

	corr := n.Mul(dl)
	pa.Position = pa.Position.Sub(corr.Mul(pa.InvMass))
	pb.Position = pb.Position.Add(corr.Mul(pb.InvMass))
}

// solveVolumes runs serially: tetrahedra fan out from shared particles,
// so they are never colored.
func (s *Solver) solveVolumes(dt float64) {
	for i := range s.volumes {
		vc := &s.volumes[i]
		pa := &s.particles[vc.A]
		pb := &s.particles[vc.B]
		pc := &s.particles[vc.C]
		pd := &s.particles[vc.D]

		e1 := pb.Position.Sub(pa.Position)
		e2 := pc.Position.Sub(pa.Position)
		e3 := pd.Position.Sub(pa.Position)

		vol := e1.Dot(e2.Cross(e3)) / 6.0

		gb := e2.Cross(e3).Mul(1.0 / 6.0)
		gc := e3.Cross(e1).Mul(1.0 / 6.0)
		gd := e1.Cross(e2).Mul(1.0 / 6.0)
		ga := gb.Add(gc).Add(gd).Mul(-1)

		alpha := vc.Compliance / (dt * dt)
		denom := pa.InvMass*ga.Dot(ga) +
			pb.InvMass*gb.Dot(gb) +
			pc.InvMass*gc.Dot(gc) +
			pd.InvMass*gd.Dot(gd) +
			alpha
		if denom < 1e-12 {
			continue
		}

		violation := vol - vc.RestVolume*vc.Pressure
		dl := (-violation - alpha*vc.Lambda) / denom
		vc.Lambda += dl

		pa.Position = pa.Position.Add(ga.Mul(pa.InvMass * dl))
		pb.Position = pb.Position.Add(gb.Mul(pb.InvMass * dl))
		pc.Position = pc.Position.Add(gc.Mul(pc.InvMass * dl))
		pd.Position = pd.Position.Add(gd.Mul(pd.InvMass * dl))
	}
}

// solveCollisions detects against every collider into a correction
// buffer, then applies the sums in a second barrier-separated pass so
// overlapping colliders cannot double-correct through intermediate
// positions.
func (s *Solver) solveCollisions(colliders []Collider) {
	radius := s.params.ParticleRadius

	s.backend.Dispatch(len(s.particles), func(start, end int) {
		for i := start; i < end; i++ {
			var sum mgl64.Vec3
			p := &s.particles[i]
			if p.InvMass > 0 {
				for _, c := range colliders {
					dist, n := c.Distance(p.Position)
					if pen := dist - radius; pen < 0 {
						sum = sum.Add(n.Mul(-pen))
					}
				}
			}
			s.corrections[i] = sum
			if l := sum.Dot(sum); l > s.contact[i] {
				s.contact[i] = l
			}
		}
	})

	s.backend.Dispatch(len(s.particles), func(start, end int) {
		for i := start; i < end; i++ {
			s.particles[i].Position = s.particles[i].Position.Add(s.corrections[i])
		}
	})
}

func (s *Solver) updateVelocities(dt float64) {
	inv := 1.0 / dt
	s.backend.Dispatch(len(s.particles), func(start, end int) {
		for i := start; i < end; i++ {
			p := &s.particles[i]
			if p.InvMass == 0 {
				p.Velocity = mgl64.Vec3{}
				continue
			}
			p.Velocity = p.Position.Sub(s.prev[i]).Mul(inv)
		}
	})
}

func (s *Solver) validate() error {
	nonFinite := 0
	peak := 0.0
	sumSpeed := 0.0
	kinetic := 0.0
	dynamic := 0
	for i := range s.particles {
		p := &s.particles[i]
		if !finiteVec(p.Position) || !finiteVec(p.Velocity) {
			nonFinite++
			continue
		}
		if p.InvMass == 0 {
			continue
		}
		speed := p.Velocity.Len()
		sumSpeed += speed
		dynamic++
		if speed > peak {
			peak = speed
		}
		kinetic += 0.5 * speed * speed / p.InvMass
	}

	if nonFinite > 0 {
		s.stats.NonFinite = nonFinite
		for i := range s.particles {
			s.particles[i].Position = s.prev[i]
			s.particles[i].Velocity = mgl64.Vec3{}
			s.particles[i].Force = mgl64.Vec3{}
		}
		return ErrNonFinite
	}

	if peak > s.stats.PeakSpeed {
		s.stats.PeakSpeed = peak
	}
	if dynamic > 0 {
		s.stats.MeanSpeed = sumSpeed / float64(dynamic)
	}
	s.stats.KineticEnergy = kinetic
	return nil
}

func (s *Solver) NumParticles() int   { return len(s.particles) }
func (s *Solver) NumConstraints() int { return len(s.cons) }
func (s *Solver) NumVolumes() int     { return len(s.volumes) }
func (s *Solver) ColorCount() int     { return len(s.spans) }
func (s *Solver) Time() float64       { return s.time }
func (s *Solver) Stats() Stats        { return s.stats }
func (s *Solver) Degraded() bool      { return s.degraded }
func (s *Solver) BackendName() string { return s.backend.Name() }

// Particle returns a copy of particle i.
func (s *Solver) Particle(i int) Particle { return s.particles[i] }

// Positions appends every particle position to dst and returns it.
func (s *Solver) Positions(dst []mgl64.Vec3) []mgl64.Vec3 {
	for i := range s.particles {
		dst = append(dst, s.particles[i].Position)
	}
	return dst
}

// ConstraintPairs appends each distance constraint's endpoints to dst.
func (s *Solver) ConstraintPairs(dst [][2]int) [][2]int {
	for i := range s.cons {
		dst = append(dst, [2]int{s.cons[i].A, s.cons[i].B})
	}
	return dst
}

// EachConstraint calls fn with a copy of every distance constraint.
func (s *Solver) EachConstraint(fn func(Constraint)) {
	for i := range s.cons {
		fn(s.cons[i])
	}
}

// MutateParticles applies fn to the chosen particles, or to all of them
// when indices is nil. This is the only mutation path into solver-owned
// state; fn must not retain the pointer past the call.
func (s *Solver) MutateParticles(indices []int, fn func(i int, p *Particle)) {
	if indices == nil {
		for i := range s.particles {
			fn(i, &s.particles[i])
		}
		return
	}
	for _, i := range indices {
		if i >= 0 && i < len(s.particles) {
			fn(i, &s.particles[i])
		}
	}
}

// SetPressure scales the target volume of every tetrahedron. 1 restores
// the rest volume, values above 1 inflate.
func (s *Solver) SetPressure(mult float64) {
	for i := range s.volumes {
		s.volumes[i].Pressure = mult
	}
}

// ResetLambdas clears all accumulated multipliers.
func (s *Solver) ResetLambdas() {
	for i := range s.cons {
		s.cons[i].Lambda = 0
	}
	for i := range s.volumes {
		s.volumes[i].Lambda = 0
	}
}

// Reset restores the construction-time state, clears multipliers and the
// degraded flag, and rewinds time to zero.
func (s *Solver) Reset() {
	copy(s.particles, s.initial)
	for i := range s.prev {
		s.prev[i] = s.particles[i].Position
	}
	s.ResetLambdas()
	s.time = 0
	s.stats = Stats{}
	s.degraded = false
}
