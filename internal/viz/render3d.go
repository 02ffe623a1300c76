package viz

import (
	"math"
	"sort"

	"github.com/go-gl/mathgl/mgl64"
)

// Camera projects world space onto the canvas through a perspective
// divide. Yaw orbits the scene around Y, Pitch tilts it; Distance
// places the eye on the +Z axis after rotation.
type Camera struct {
	Center   mgl64.Vec3
	Distance float64
	Yaw      float64
	Pitch    float64
	Zoom     float64
}

func NewCamera() *Camera {
	return &Camera{Distance: 8, Pitch: 0.35, Zoom: 1}
}

// Rotate orbits the camera. Pitch is clamped short of the poles so
// the view never flips.
func (c *Camera) Rotate(dYaw, dPitch float64) {
	c.Yaw += dYaw
	c.Pitch += dPitch
	lim := math.Pi/2 - 0.05
	if c.Pitch > lim {
		c.Pitch = lim
	}
	if c.Pitch < -lim {
		c.Pitch = -lim
	}
}

func (c *Camera) ZoomIn()  { c.Zoom = math.Min(10, c.Zoom*1.2) }
func (c *Camera) ZoomOut() { c.Zoom = math.Max(0.1, c.Zoom/1.2) }

func (c *Camera) rotate(p mgl64.Vec3) mgl64.Vec3 {
	p = p.Sub(c.Center)
	cy, sy := math.Cos(c.Yaw), math.Sin(c.Yaw)
	x := p.X()*cy + p.Z()*sy
	z := -p.X()*sy + p.Z()*cy
	cx, sx := math.Cos(c.Pitch), math.Sin(c.Pitch)
	y := p.Y()*cx - z*sx
	z = p.Y()*sx + z*cx
	return mgl64.Vec3{x, y, z}
}

// Project maps a world point to sub-pixel canvas coordinates. Depth
// orders edges for the painter's sort; ok reports whether the point
// lands inside the canvas.
func (c *Camera) Project(p mgl64.Vec3, sw, sh int) (x, y int, depth float64, ok bool) {
	rot := c.rotate(p).Mul(c.Zoom)
	if rot.Z() >= c.Distance-0.1 {
		return 0, 0, 0, false
	}
	persp := c.Distance / (c.Distance - rot.Z())
	minDim := float64(sh)
	if float64(sw) < minDim {
		minDim = float64(sw)
	}
	scale := minDim / 3.0
	x = int(rot.X()*persp*scale) + sw/2
	y = int(-rot.Y()*persp*scale) + sh/2
	return x, y, rot.Z(), x >= 0 && x < sw && y >= 0 && y < sh
}

type Edge struct {
	A, B mgl64.Vec3
}

type Wireframe struct{ Edges []Edge }

func NewWireframe() *Wireframe               { return &Wireframe{Edges: make([]Edge, 0)} }
func (w *Wireframe) AddEdge(a, b mgl64.Vec3) { w.Edges = append(w.Edges, Edge{a, b}) }
func (w *Wireframe) AddPoint(p mgl64.Vec3)   { w.Edges = append(w.Edges, Edge{p, p}) }
func (w *Wireframe) Clear()                  { w.Edges = w.Edges[:0] }

type projectedEdge struct {
	x1, y1, x2, y2 int
	depth          float64
}

// Render3D draws the wireframe back to front. An edge is kept when
// either endpoint projects inside the canvas.
func Render3D(c *Canvas, w *Wireframe, cam *Camera) {
	if c == nil || w == nil || cam == nil {
		return
	}
	cw := c.Width * 2
	ch := c.Height * 4
	proj := make([]projectedEdge, 0, len(w.Edges))
	for _, e := range w.Edges {
		x1, y1, d1, v1 := cam.Project(e.A, cw, ch)
		x2, y2, d2, v2 := cam.Project(e.B, cw, ch)
		if v1 || v2 {
			proj = append(proj, projectedEdge{x1, y1, x2, y2, (d1 + d2) / 2})
		}
	}
	sort.Slice(proj, func(i, j int) bool { return proj[i].depth < proj[j].depth })
	for _, e := range proj {
		if e.x1 == e.x2 && e.y1 == e.y2 {
			c.Set(e.x1, e.y1)
		} else {
			c.DrawLine(e.x1, e.y1, e.x2, e.y2)
		}
	}
}

// BodyEdges appends one edge per constraint pair. Positions index the
// same particle order the pairs were built from.
func BodyEdges(wf *Wireframe, positions []mgl64.Vec3, pairs [][2]int) {
	for _, pr := range pairs {
		wf.AddEdge(positions[pr[0]], positions[pr[1]])
	}
}

// GroundWireframe builds a square grid on the y=0 plane.
func GroundWireframe(half, step float64) *Wireframe {
	w := NewWireframe()
	if step <= 0 {
		step = 1
	}
	for v := -half; v <= half+1e-9; v += step {
		w.AddEdge(mgl64.Vec3{-half, 0, v}, mgl64.Vec3{half, 0, v})
		w.AddEdge(mgl64.Vec3{v, 0, -half}, mgl64.Vec3{v, 0, half})
	}
	return w
}

// AxesWireframe draws the positive world axes from the origin.
func AxesWireframe(l float64) *Wireframe {
	w := NewWireframe()
	o := mgl64.Vec3{}
	w.AddEdge(o, mgl64.Vec3{l, 0, 0})
	w.AddEdge(o, mgl64.Vec3{0, l, 0})
	w.AddEdge(o, mgl64.Vec3{0, 0, l})
	return w
}
