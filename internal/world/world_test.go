package world

import (
	"context"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/softsim/internal/activity"
	"github.com/san-kum/softsim/internal/body"
	"github.com/san-kum/softsim/internal/color"
	"github.com/san-kum/softsim/internal/topology"
	"github.com/san-kum/softsim/internal/xpbd"
)

func quietParams() xpbd.Params {
	p := xpbd.DefaultParams()
	p.Gravity = mgl64.Vec3{}
	p.Damping = 0
	p.MaxSpeed = 0
	p.CollisionEnabled = false
	return p
}

func pairBodyAt(t *testing.T, name string, origin mgl64.Vec3, params xpbd.Params, th activity.Thresholds) *body.Body {
	t.Helper()
	topo := &xpbd.Topology{
		Particles: []xpbd.Particle{
			{Position: origin, InvMass: 1},
			{Position: origin.Add(mgl64.Vec3{0.3, 0, 0}), InvMass: 1},
		},
		Constraints: []xpbd.Constraint{
			{A: 0, B: 1, RestLength: 0.3, Compliance: 1e-4},
		},
	}
	b, err := body.New(topo, body.Options{
		Name:       name,
		Strategy:   color.None,
		Params:     params,
		Thresholds: th,
	})
	if err != nil {
		t.Fatalf("body.New: %v", err)
	}
	return b
}

func latticeBodyAt(t *testing.T, name string, origin mgl64.Vec3) *body.Body {
	t.Helper()
	opts := topology.DefaultLatticeOptions()
	opts.Nx, opts.Ny, opts.Nz = 2, 2, 2
	opts.Origin = origin
	topo, err := topology.BuildLattice(opts)
	if err != nil {
		t.Fatalf("BuildLattice: %v", err)
	}
	params := xpbd.DefaultParams()
	b, err := body.New(topo, body.Options{
		Name:     name,
		Strategy: color.Greedy,
		Params:   params,
	})
	if err != nil {
		t.Fatalf("body.New: %v", err)
	}
	return b
}

func TestWorldStepsBodies(t *testing.T) {
	w := New(Options{})
	w.AddCollider(xpbd.Plane(mgl64.Vec3{0, 1, 0}, 0))
	w.AddBody(latticeBodyAt(t, "left", mgl64.Vec3{0, 1, 0}))
	w.AddBody(latticeBodyAt(t, "right", mgl64.Vec3{2, 1, 0}))

	for i := 0; i < 10; i++ {
		if err := w.Step(context.Background(), 1.0/60.0); err != nil {
			t.Fatalf("Step: %v", err)
		}
	}

	st := w.Stats()
	if st.Bodies != 2 || st.Awake != 2 {
		t.Errorf("expected 2 awake bodies, got %+v", st)
	}
	if st.Frames != 10 {
		t.Errorf("expected 10 frames, got %d", st.Frames)
	}
	if math.Abs(st.Time-10.0/60.0) > 1e-12 {
		t.Errorf("expected time 10/60, got %v", st.Time)
	}
	if st.Kinetic == 0 {
		t.Error("expected falling bodies to carry kinetic energy")
	}
	for _, b := range w.Bodies() {
		if b.Time() == 0 {
			t.Errorf("expected body %q stepped", b.Name())
		}
	}
}

func TestWorldProximityWake(t *testing.T) {
	th := activity.Thresholds{
		SleepSpeed:  0.1,
		SleepTime:   0.05,
		WakeImpulse: 1,
		WakeSpeed:   0.5,
		WakeRadius:  5,
	}
	w := New(Options{})
	sleeper := pairBodyAt(t, "sleeper", mgl64.Vec3{0, 0, 0}, quietParams(), th)
	mover := pairBodyAt(t, "mover", mgl64.Vec3{1, 0, 0}, quietParams(), th)
	w.AddBody(sleeper)
	w.AddBody(mover)

	mover.ApplyImpulseNear(mover.Center(), mgl64.Vec3{2, 0, 0}, 10)

	if err := w.Step(context.Background(), 0.1); err != nil {
		t.Fatalf("Step: %v", err)
	}

	if sleeper.Controller().Sleeps() != 1 {
		t.Fatalf("expected the quiet body to fall asleep, sleeps=%d", sleeper.Controller().Sleeps())
	}
	if sleeper.Controller().State() != activity.Awake {
		t.Error("expected the broadcast to wake the sleeper")
	}
	if got := sleeper.Controller().LastWake(); got != activity.WakeProximity {
		t.Errorf("expected proximity wake reason, got %v", got)
	}
}

func TestWorldProximityWakeOutOfRange(t *testing.T) {
	th := activity.Thresholds{
		SleepSpeed:  0.1,
		SleepTime:   0.05,
		WakeImpulse: 1,
		WakeSpeed:   0.5,
		WakeRadius:  2,
	}
	w := New(Options{})
	sleeper := pairBodyAt(t, "sleeper", mgl64.Vec3{0, 0, 0}, quietParams(), th)
	mover := pairBodyAt(t, "mover", mgl64.Vec3{50, 0, 0}, quietParams(), th)
	w.AddBody(sleeper)
	w.AddBody(mover)

	mover.ApplyImpulseNear(mover.Center(), mgl64.Vec3{2, 0, 0}, 10)

	if err := w.Step(context.Background(), 0.1); err != nil {
		t.Fatalf("Step: %v", err)
	}
	if sleeper.Controller().State() != activity.Asleep {
		t.Error("expected a distant mover to leave the sleeper asleep")
	}
}

func TestWorldContinuesPastDegradedBody(t *testing.T) {
	w := New(Options{})
	doomed := pairBodyAt(t, "doomed", mgl64.Vec3{0, 0, 0}, quietParams(), activity.Thresholds{})
	healthy := pairBodyAt(t, "healthy", mgl64.Vec3{10, 0, 0}, quietParams(), activity.Thresholds{})
	w.AddBody(doomed)
	w.AddBody(healthy)

	doomed.MutateParticles([]int{0}, func(_ int, p *xpbd.Particle) {
		p.Force = mgl64.Vec3{math.MaxFloat64, 0, 0}
	})

	for i := 0; i < 6; i++ {
		if err := w.Step(context.Background(), 1.0/60.0); err != nil {
			t.Fatalf("Step must not fail on a degrading body: %v", err)
		}
	}

	if !doomed.Degraded() {
		t.Fatal("expected the overflow to degrade the body")
	}
	st := w.Stats()
	if st.Degraded != 1 {
		t.Errorf("expected 1 degraded body, got %d", st.Degraded)
	}
	if healthy.Time() == 0 {
		t.Error("expected the healthy body to keep stepping")
	}
	if w.Frames() != 6 {
		t.Errorf("expected all frames executed, got %d", w.Frames())
	}
}

func TestWorldActiveColliders(t *testing.T) {
	extra := xpbd.ColliderFunc(func() []xpbd.Collider {
		return []xpbd.Collider{xpbd.Sphere(mgl64.Vec3{1, 0, 0}, 0.5)}
	})
	w := New(Options{Extra: extra})
	w.AddCollider(xpbd.Plane(mgl64.Vec3{0, 1, 0}, 0))

	got := w.ActiveColliders()
	if len(got) != 2 {
		t.Fatalf("expected 2 colliders, got %d", len(got))
	}
	if got[0].Kind != xpbd.ColliderPlane || got[1].Kind != xpbd.ColliderSphere {
		t.Errorf("expected plane then sphere, got %v then %v", got[0].Kind, got[1].Kind)
	}
}

func TestWorldReset(t *testing.T) {
	w := New(Options{})
	b := latticeBodyAt(t, "cube", mgl64.Vec3{0, 2, 0})
	w.AddBody(b)

	initial := b.Positions(nil)
	for i := 0; i < 15; i++ {
		if err := w.Step(context.Background(), 1.0/60.0); err != nil {
			t.Fatalf("Step: %v", err)
		}
	}

	w.Reset()
	if w.Time() != 0 || w.Frames() != 0 {
		t.Errorf("expected rewound clock, got time=%v frames=%d", w.Time(), w.Frames())
	}
	for i, p := range b.Positions(nil) {
		if p != initial[i] {
			t.Fatalf("particle %d not restored: %v vs %v", i, p, initial[i])
		}
	}
}

func TestWorldStepCancelled(t *testing.T) {
	w := New(Options{})
	w.AddBody(pairBodyAt(t, "pair", mgl64.Vec3{}, quietParams(), activity.Thresholds{}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := w.Step(ctx, 1.0/60.0); err == nil {
		t.Fatal("expected a cancelled context to abort the step")
	}
}
