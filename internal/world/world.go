// Package world registers bodies, feeds them colliders and steps the
// awake ones concurrently. Bodies own their particle state exclusively,
// so the only cross-body channel is the proximity wake broadcast, which
// runs serially after the frame from a spatial index rebuilt each tick.
package world

import (
	"context"
	"errors"

	"github.com/go-gl/mathgl/mgl64"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/san-kum/softsim/internal/activity"
	"github.com/san-kum/softsim/internal/body"
	"github.com/san-kum/softsim/internal/xpbd"
)

// Options configures a world. Extra is an optional dynamic collider
// source merged with the world's own collider list every substep.
type Options struct {
	Extra     xpbd.ColliderSource
	Logger    *zap.Logger
	IndexCell float64
}

// World is not safe for concurrent mutation: AddBody and AddCollider
// must not overlap a running Step.
type World struct {
	bodies    []*body.Body
	colliders []xpbd.Collider
	extra     xpbd.ColliderSource
	cell      float64
	time      float64
	frames    uint64
	log       *zap.Logger
}

// Stats aggregates the registered bodies for recording and display.
type Stats struct {
	Bodies    int
	Awake     int
	Asleep    int
	Degraded  int
	Time      float64
	Frames    uint64
	Kinetic   float64
	MeanSpeed float64
	PeakSpeed float64
}

func New(opts Options) *World {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	cell := opts.IndexCell
	if cell <= 0 {
		cell = 1
	}
	return &World{
		extra: opts.Extra,
		cell:  cell,
		log:   opts.Logger,
	}
}

// AddBody registers a body and returns its id.
func (w *World) AddBody(b *body.Body) int {
	w.bodies = append(w.bodies, b)
	return len(w.bodies) - 1
}

// AddCollider appends a static environment collider.
func (w *World) AddCollider(c xpbd.Collider) {
	w.colliders = append(w.colliders, c)
}

func (w *World) Body(id int) *body.Body {
	if id < 0 || id >= len(w.bodies) {
		return nil
	}
	return w.bodies[id]
}

// Bodies returns the registry slice; callers must treat it as read-only.
func (w *World) Bodies() []*body.Body { return w.bodies }
func (w *World) Len() int             { return len(w.bodies) }
func (w *World) Time() float64        { return w.time }
func (w *World) Frames() uint64       { return w.frames }

// ActiveColliders merges the world's collider list with the extra
// source. The solver fetches this once per substep and never keeps it.
func (w *World) ActiveColliders() []xpbd.Collider {
	if w.extra == nil {
		return w.colliders
	}
	out := make([]xpbd.Collider, 0, len(w.colliders)+4)
	out = append(out, w.colliders...)
	return append(out, w.extra.ActiveColliders()...)
}

// Step advances every awake body by frameDelta, each on its own
// goroutine. A body that degrades mid-frame logs, freezes and is
// excluded from future frames without failing the step; only context
// cancellation aborts.
func (w *World) Step(ctx context.Context, frameDelta float64) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, b := range w.bodies {
		if !b.Controller().Active() || b.Degraded() {
			continue
		}
		b := b
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := b.Step(frameDelta, w); err != nil {
				var stepErr *xpbd.StepError
				if errors.As(err, &stepErr) {
					return nil
				}
				return err
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	w.wakeByProximity()
	w.time += frameDelta
	w.frames++
	return nil
}

// wakeByProximity wakes sleeping bodies near any body that cleared its
// broadcast speed this frame. The index is rebuilt from scratch and
// discarded; nothing is cached across ticks.
func (w *World) wakeByProximity() {
	var index *activity.SpatialIndex
	for id, b := range w.bodies {
		if b.Controller().Active() || b.Degraded() {
			continue
		}
		if index == nil {
			index = activity.NewSpatialIndex(w.cell)
		}
		index.Insert(id, b.Center())
	}
	if index == nil {
		return
	}

	for _, b := range w.bodies {
		ctrl := b.Controller()
		if !ctrl.Active() || b.Degraded() {
			continue
		}
		th := ctrl.Thresholds()
		if th.WakeSpeed <= 0 || th.WakeRadius <= 0 || b.Stats().MeanSpeed < th.WakeSpeed {
			continue
		}
		for _, id := range index.Nearby(b.Center(), th.WakeRadius) {
			if w.bodies[id].Controller().Wake(activity.WakeProximity) {
				w.log.Debug("Proximity wake",
					zap.String("body", w.bodies[id].Name()),
					zap.String("by", b.Name()))
			}
		}
	}
}

// WakeAll forces every body awake.
func (w *World) WakeAll() {
	for _, b := range w.bodies {
		b.Wake()
	}
}

// ApplyImpulseNear broadcasts an impulse to every body, as for a global
// poke from the interaction surface.
func (w *World) ApplyImpulseNear(point, impulse mgl64.Vec3, radius float64) int {
	total := 0
	for _, b := range w.bodies {
		total += b.ApplyImpulseNear(point, impulse, radius)
	}
	return total
}

// Reset restores every body to its construction state and rewinds the
// clock.
func (w *World) Reset() {
	for _, b := range w.bodies {
		b.Reset()
	}
	w.time = 0
	w.frames = 0
}

// Stats sums the per-body solver statistics.
func (w *World) Stats() Stats {
	st := Stats{
		Bodies: len(w.bodies),
		Time:   w.time,
		Frames: w.frames,
	}
	speedSum := 0.0
	counted := 0
	for _, b := range w.bodies {
		switch {
		case b.Degraded():
			st.Degraded++
		case b.Controller().Active():
			st.Awake++
		default:
			st.Asleep++
		}
		bs := b.Stats()
		st.Kinetic += bs.KineticEnergy
		if bs.PeakSpeed > st.PeakSpeed {
			st.PeakSpeed = bs.PeakSpeed
		}
		speedSum += bs.MeanSpeed
		counted++
	}
	if counted > 0 {
		st.MeanSpeed = speedSum / float64(counted)
	}
	return st
}
