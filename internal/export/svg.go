// Package export renders simulation views into standalone SVG documents.
package export

import (
	"fmt"
	"os"
	"strings"

	"github.com/san-kum/softsim/internal/viz"
)

const (
	background = "#0d1117"
	accent     = "#7ee787"
)

// brailleBits mirrors the canvas bit layout so a cell rune can be
// decoded back into its eight subpixels.
var brailleBits = [4][2]rune{
	{0x01, 0x08},
	{0x02, 0x10},
	{0x04, 0x20},
	{0x40, 0x80},
}

// CanvasSVG renders a Braille canvas as an SVG dot field. scale is the
// side length of one subpixel in SVG units.
func CanvasSVG(c *viz.Canvas, scale float64) string {
	if c == nil || scale <= 0 {
		return ""
	}
	width := float64(c.Width) * scale * 2
	height := float64(c.Height) * scale * 4
	radius := scale * 0.4

	var sb strings.Builder
	fmt.Fprintf(&sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%.0f" height="%.0f" viewBox="0 0 %.0f %.0f">
<rect width="100%%" height="100%%" fill="%s"/>
<g fill="%s">
`, width, height, width, height, background, accent)

	for row := 0; row < c.Height; row++ {
		for col := 0; col < c.Width; col++ {
			bits := c.Grid[row][col] - 0x2800
			if bits <= 0 {
				continue
			}
			for dy := 0; dy < 4; dy++ {
				for dx := 0; dx < 2; dx++ {
					if bits&brailleBits[dy][dx] == 0 {
						continue
					}
					cx := (float64(col)*2+float64(dx))*scale + scale/2
					cy := (float64(row)*4+float64(dy))*scale + scale/2
					fmt.Fprintf(&sb, "<circle cx=\"%.1f\" cy=\"%.1f\" r=\"%.1f\"/>\n",
						cx, cy, radius)
				}
			}
		}
	}
	sb.WriteString("</g>\n</svg>\n")
	return sb.String()
}

// SeriesSVG plots a scalar series as an SVG polyline with the sample
// index on the x axis. Fewer than two samples produce no document.
func SeriesSVG(values []float64, width, height int, stroke string) string {
	if len(values) < 2 || width <= 0 || height <= 0 {
		return ""
	}
	if stroke == "" {
		stroke = accent
	}

	lo, hi := values[0], values[0]
	for _, v := range values {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	span := hi - lo
	if span == 0 {
		span = 1
	}
	lo -= span * 0.05
	span *= 1.1

	var sb strings.Builder
	fmt.Fprintf(&sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="%s"/>
<path fill="none" stroke="%s" stroke-width="1.5" d="M`,
		width, height, width, height, background, stroke)

	step := float64(width) / float64(len(values)-1)
	for i, v := range values {
		x := float64(i) * step
		y := float64(height) - (v-lo)/span*float64(height)
		if i == 0 {
			fmt.Fprintf(&sb, "%.1f,%.1f", x, y)
		} else {
			fmt.Fprintf(&sb, " L%.1f,%.1f", x, y)
		}
	}
	sb.WriteString("\"/>\n</svg>\n")
	return sb.String()
}

// WriteFile writes an SVG document to path.
func WriteFile(path, svg string) error {
	return os.WriteFile(path, []byte(svg), 0644)
}
