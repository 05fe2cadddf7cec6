// Package export renders simulation output as standalone SVG documents.
package export

import (
	"fmt"
	"math"
	"strings"

	"github.com/san-kum/cellsim/internal/dynamo"
	"github.com/san-kum/cellsim/internal/sim"
	"github.com/san-kum/cellsim/internal/viz"
)

const background = "#0a0a0a"

func header(sb *strings.Builder, width, height float64) {
	fmt.Fprintf(sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%.0f" height="%.0f" viewBox="0 0 %.0f %.0f">
<rect width="100%%" height="100%%" fill="%s"/>
`, width, height, width, height, background)
}

// CanvasToSVG converts a braille canvas to SVG, one circle per dot.
func CanvasToSVG(canvas *viz.Canvas, scale float64) string {
	if canvas == nil {
		return ""
	}
	dw, dh := canvas.Dots()
	var sb strings.Builder
	header(&sb, float64(dw)*scale, float64(dh)*scale)
	sb.WriteString("<g fill=\"#00ff00\">\n")

	r := scale * 0.4
	for y := range dh {
		for x := range dw {
			if canvas.IsSet(x, y) {
				fmt.Fprintf(&sb, "<circle cx=\"%.1f\" cy=\"%.1f\" r=\"%.1f\"/>\n",
					float64(x)*scale+scale/2, float64(y)*scale+scale/2, r)
			}
		}
	}

	sb.WriteString("</g>\n</svg>")
	return sb.String()
}

// pressureColor maps p in [0, max] from blue to red.
func pressureColor(p, maxP float64) string {
	t := 0.0
	if maxP > 0 {
		t = math.Min(math.Max(p/maxP, 0), 1)
	}
	r := int(40 + t*215)
	b := int(255 - t*215)
	return fmt.Sprintf("#%02x60%02x", r, b)
}

// SnapshotToSVG draws a world snapshot through cam: surfaces as triangle
// outlines, connections as lines and cells as discs shaded by pressure.
func SnapshotToSVG(s sim.Snapshot, cam *viz.Camera, width, height int) string {
	var sb strings.Builder
	header(&sb, float64(width), float64(height))

	project := func(p dynamo.Vec) (int, int, bool) {
		x, y, _, ok := cam.Project(p, width, height)
		return x, y, ok
	}

	sb.WriteString("<g fill=\"none\" stroke=\"#444466\" stroke-width=\"1\">\n")
	for _, surf := range s.Surfaces {
		for _, tri := range surf.Triangles {
			var pts []string
			for _, v := range tri {
				x, y, _ := project(v)
				pts = append(pts, fmt.Sprintf("%d,%d", x, y))
			}
			fmt.Fprintf(&sb, "<polygon points=\"%s\"/>\n", strings.Join(pts, " "))
		}
	}
	sb.WriteString("</g>\n")

	maxP := 0.0
	for _, c := range s.Cells {
		maxP = math.Max(maxP, c.Pressure)
	}
	sb.WriteString("<g stroke=\"#ffffff\" stroke-opacity=\"0.6\">\n")
	for _, c := range s.Cells {
		x, y, ok := project(c.Pos)
		if !ok {
			continue
		}
		r := cam.ProjectRadius(c.Pos, c.Radius, width, height)
		fmt.Fprintf(&sb, "<circle cx=\"%d\" cy=\"%d\" r=\"%d\" fill=\"%s\" fill-opacity=\"0.7\"><title>%d %s</title></circle>\n",
			x, y, r, pressureColor(c.Pressure, maxP), c.ID, c.Kind)
	}
	sb.WriteString("</g>\n")

	sb.WriteString("<g stroke=\"#ffff00\" stroke-width=\"1.5\">\n")
	for _, l := range s.Links {
		x1, y1, ok1 := project(l.From)
		x2, y2, ok2 := project(l.To)
		if ok1 || ok2 {
			fmt.Fprintf(&sb, "<line x1=\"%d\" y1=\"%d\" x2=\"%d\" y2=\"%d\"/>\n", x1, y1, x2, y2)
		}
	}
	sb.WriteString("</g>\n")

	fmt.Fprintf(&sb, "<text x=\"8\" y=\"16\" fill=\"#cccccc\" font-family=\"monospace\" font-size=\"12\">t=%.3f cells=%d links=%d</text>\n",
		s.Time, len(s.Cells), len(s.Links))
	sb.WriteString("</svg>")
	return sb.String()
}

// SeriesToSVG plots one Stats column against simulated time.
func SeriesToSVG(stats []sim.Stats, field string, width, height int, stroke string) (string, error) {
	if len(stats) < 2 {
		return "", fmt.Errorf("need at least two samples, got %d", len(stats))
	}
	ys := make([]float64, len(stats))
	for i, st := range stats {
		v, ok := st.Field(field)
		if !ok {
			return "", fmt.Errorf("unknown field %q", field)
		}
		ys[i] = v
	}

	minX, maxX := stats[0].Time, stats[len(stats)-1].Time
	minY, maxY := ys[0], ys[0]
	for _, y := range ys {
		minY = math.Min(minY, y)
		maxY = math.Max(maxY, y)
	}

	rangeX := maxX - minX
	rangeY := maxY - minY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}
	lo := minY - rangeY*0.1
	span := rangeY * 1.2

	var sb strings.Builder
	header(&sb, float64(width), float64(height))
	fmt.Fprintf(&sb, "<path fill=\"none\" stroke=\"%s\" stroke-width=\"1.5\" d=\"M", stroke)
	for i, st := range stats {
		x := (st.Time - minX) / rangeX * float64(width)
		y := float64(height) - (ys[i]-lo)/span*float64(height)
		if i == 0 {
			fmt.Fprintf(&sb, "%.1f,%.1f", x, y)
		} else {
			fmt.Fprintf(&sb, " L%.1f,%.1f", x, y)
		}
	}
	sb.WriteString("\"/>\n")
	fmt.Fprintf(&sb, "<text x=\"8\" y=\"16\" fill=\"#cccccc\" font-family=\"monospace\" font-size=\"12\">%s [%.4g, %.4g]</text>\n",
		field, minY, maxY)
	sb.WriteString("</svg>")
	return sb.String(), nil
}
