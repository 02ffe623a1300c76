package export

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/san-kum/softsim/internal/viz"
)

func TestCanvasSVG(t *testing.T) {
	c := viz.NewCanvas(4, 2)
	c.Set(0, 0)
	c.Set(3, 5)

	svg := CanvasSVG(c, 4)
	if !strings.HasPrefix(svg, `<?xml version="1.0"`) {
		t.Fatalf("missing XML header: %q", svg[:40])
	}
	if !strings.Contains(svg, "<svg") || !strings.Contains(svg, "</svg>") {
		t.Error("expected a complete svg element")
	}
	if got := strings.Count(svg, "<circle"); got != 2 {
		t.Errorf("expected 2 dots, got %d", got)
	}
	// 4 cells wide, 2 subpixels each, scale 4.
	if !strings.Contains(svg, `width="32"`) {
		t.Error("expected width 32")
	}
}

func TestCanvasSVGEmpty(t *testing.T) {
	c := viz.NewCanvas(3, 3)
	svg := CanvasSVG(c, 2)
	if strings.Contains(svg, "<circle") {
		t.Error("empty canvas should render no dots")
	}
}

func TestCanvasSVGNil(t *testing.T) {
	if CanvasSVG(nil, 4) != "" {
		t.Error("expected empty string for nil canvas")
	}
	if CanvasSVG(viz.NewCanvas(2, 2), 0) != "" {
		t.Error("expected empty string for zero scale")
	}
}

func TestSeriesSVG(t *testing.T) {
	svg := SeriesSVG([]float64{0, 1, 4, 2}, 200, 100, "")
	if !strings.Contains(svg, "<path") {
		t.Fatal("expected a path element")
	}
	if !strings.Contains(svg, `d="M0.0,`) {
		t.Error("expected the path to start at x=0")
	}
	if !strings.Contains(svg, "L200.0,") {
		t.Error("expected the path to end at x=width")
	}
	if !strings.Contains(svg, accent) {
		t.Error("expected the default stroke color")
	}
}

func TestSeriesSVGFlat(t *testing.T) {
	svg := SeriesSVG([]float64{3, 3, 3}, 100, 50, "#fff")
	if svg == "" {
		t.Fatal("flat series should still render")
	}
	if !strings.Contains(svg, `stroke="#fff"`) {
		t.Error("expected the custom stroke color")
	}
}

func TestSeriesSVGTooShort(t *testing.T) {
	if SeriesSVG([]float64{1}, 100, 50, "") != "" {
		t.Error("expected empty string for a single sample")
	}
	if SeriesSVG(nil, 100, 50, "") != "" {
		t.Error("expected empty string for no samples")
	}
}

func TestWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plot.svg")
	svg := SeriesSVG([]float64{0, 1}, 10, 10, "")
	if err := WriteFile(path, svg); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(data) != svg {
		t.Error("file content mismatch")
	}
}
