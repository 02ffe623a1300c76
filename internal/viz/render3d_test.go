package viz

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

func TestCameraProjectCenter(t *testing.T) {
	cam := &Camera{Distance: 8, Zoom: 1}

	x, y, depth, ok := cam.Project(mgl64.Vec3{}, 160, 112)
	if !ok {
		t.Fatal("expected the origin to be visible")
	}
	if x != 80 || y != 56 {
		t.Errorf("expected screen center (80, 56), got (%d, %d)", x, y)
	}
	if depth != 0 {
		t.Errorf("expected zero depth, got %f", depth)
	}
}

func TestCameraProjectBehindEye(t *testing.T) {
	cam := &Camera{Distance: 8, Zoom: 1}

	if _, _, _, ok := cam.Project(mgl64.Vec3{0, 0, 10}, 160, 112); ok {
		t.Error("expected a point behind the eye to be invisible")
	}
}

func TestCameraRotateClamp(t *testing.T) {
	cam := NewCamera()
	cam.Rotate(0, 10)
	if cam.Pitch >= math.Pi/2 {
		t.Errorf("expected pitch clamped below pi/2, got %f", cam.Pitch)
	}
	cam.Rotate(0, -20)
	if cam.Pitch <= -math.Pi/2 {
		t.Errorf("expected pitch clamped above -pi/2, got %f", cam.Pitch)
	}
}

func TestCameraZoomBounds(t *testing.T) {
	cam := NewCamera()
	for i := 0; i < 30; i++ {
		cam.ZoomIn()
	}
	if cam.Zoom > 10 {
		t.Errorf("expected zoom capped at 10, got %f", cam.Zoom)
	}
	for i := 0; i < 60; i++ {
		cam.ZoomOut()
	}
	if cam.Zoom < 0.1 {
		t.Errorf("expected zoom floored at 0.1, got %f", cam.Zoom)
	}
}

func TestRender3DDrawsEdges(t *testing.T) {
	c := NewCanvas(20, 10)
	cam := &Camera{Distance: 8, Zoom: 1}
	wf := NewWireframe()
	wf.AddEdge(mgl64.Vec3{-0.5, 0, 0}, mgl64.Vec3{0.5, 0, 0})

	Render3D(c, wf, cam)
	if litCells(c) == 0 {
		t.Error("expected the edge to light canvas cells")
	}

	Render3D(nil, wf, cam)
	Render3D(c, nil, cam)
	Render3D(c, wf, nil)
}

func TestBodyEdges(t *testing.T) {
	wf := NewWireframe()
	positions := []mgl64.Vec3{{0, 0, 0}, {1, 0, 0}, {1, 1, 0}}
	pairs := [][2]int{{0, 1}, {1, 2}}

	BodyEdges(wf, positions, pairs)
	if len(wf.Edges) != 2 {
		t.Fatalf("expected 2 edges, got %d", len(wf.Edges))
	}
	if wf.Edges[0].A != positions[0] || wf.Edges[0].B != positions[1] {
		t.Errorf("expected first edge to join particles 0 and 1, got %+v", wf.Edges[0])
	}
}

func TestGroundWireframe(t *testing.T) {
	w := GroundWireframe(1, 0.5)
	if len(w.Edges) != 10 {
		t.Errorf("expected 10 grid edges, got %d", len(w.Edges))
	}
}

func TestAxesWireframe(t *testing.T) {
	w := AxesWireframe(1)
	if len(w.Edges) != 3 {
		t.Errorf("expected 3 axis edges, got %d", len(w.Edges))
	}
}
