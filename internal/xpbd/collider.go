package xpbd

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

type ColliderKind uint8

const (
	ColliderPlane ColliderKind = iota
	ColliderSphere
	ColliderBox
)

// Collider is a static signed-distance shape. The world supplies the
// active set each substep; the solver never stores colliders.
type Collider struct {
	Kind   ColliderKind
	Normal mgl64.Vec3
	Offset float64
	Center mgl64.Vec3
	Radius float64
	Half   mgl64.Vec3
}

func Plane(normal mgl64.Vec3, offset float64) Collider {
	return Collider{Kind: ColliderPlane, Normal: normal.Normalize(), Offset: offset}
}

func Sphere(center mgl64.Vec3, radius float64) Collider {
	return Collider{Kind: ColliderSphere, Center: center, Radius: radius}
}

func Box(center, half mgl64.Vec3) Collider {
	return Collider{Kind: ColliderBox, Center: center, Half: half}
}

// Distance returns the signed distance from p to the surface and the
// outward normal at the closest point. Negative distance means p is
// inside the shape.
func (c Collider) Distance(p mgl64.Vec3) (float64, mgl64.Vec3) {
	switch c.Kind {
	case ColliderPlane:
		return p.Dot(c.Normal) - c.Offset, c.Normal

	case ColliderSphere:
		rel := p.Sub(c.Center)
		dist := rel.Len()
		if dist < 1e-12 {
			return -c.Radius, mgl64.Vec3{0, 1, 0}
		}
		return dist - c.Radius, rel.Mul(1.0 / dist)

	case ColliderBox:
		rel := p.Sub(c.Center)
		q := mgl64.Vec3{
			math.Abs(rel.X()) - c.Half.X(),
			math.Abs(rel.Y()) - c.Half.Y(),
			math.Abs(rel.Z()) - c.Half.Z(),
		}
		outside := mgl64.Vec3{
			math.Max(q.X(), 0),
			math.Max(q.Y(), 0),
			math.Max(q.Z(), 0),
		}
		outLen := outside.Len()
		if outLen > 1e-12 {
			n := mgl64.Vec3{
				signOf(rel.X()) * outside.X(),
				signOf(rel.Y()) * outside.Y(),
				signOf(rel.Z()) * outside.Z(),
			}
			return outLen, n.Mul(1.0 / outLen)
		}
		// Inside: exit along the axis of least penetration.
		axis, depth := 0, q.X()
		if q.Y() > depth {
			axis, depth = 1, q.Y()
		}
		if q.Z() > depth {
			axis, depth = 2, q.Z()
		}
		var n mgl64.Vec3
		n[axis] = signOf(rel[axis])
		return depth, n
	}
	return math.Inf(1), mgl64.Vec3{0, 1, 0}
}

func signOf(v float64) float64 {
	if v < 0 {
		return -1
	}
	return 1
}

// ColliderSource supplies the active collider set. It is queried once
// per substep so moving obstacles stay in sync with the solve.
type ColliderSource interface {
	ActiveColliders() []Collider
}

// StaticColliders adapts a fixed collider list to ColliderSource.
type StaticColliders []Collider

func (s StaticColliders) ActiveColliders() []Collider { return s }

// ColliderFunc adapts a closure to ColliderSource.
type ColliderFunc func() []Collider

func (f ColliderFunc) ActiveColliders() []Collider { return f() }
