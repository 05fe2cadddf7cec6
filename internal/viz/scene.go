package viz

import (
	"github.com/san-kum/cellsim/internal/dynamo"
	"github.com/san-kum/cellsim/internal/sim"
)

// Layers selects what Draw renders.
type Layers struct {
	Cells, Links, Surfaces bool
}

var AllLayers = Layers{Cells: true, Links: true, Surfaces: true}

type segment struct{ a, b dynamo.Vec }

// Draw renders a snapshot onto the canvas. Surfaces are drawn as triangle
// outlines, connections as center lines and cells as circles of their
// corrected radius.
func Draw(c *Canvas, s sim.Snapshot, cam *Camera, layers Layers) {
	if c == nil || cam == nil {
		return
	}
	sw, sh := c.Dots()

	var segs []segment
	if layers.Surfaces {
		for _, surf := range s.Surfaces {
			for _, t := range surf.Triangles {
				for i := range 3 {
					segs = append(segs, segment{a: t[i], b: t[(i+1)%3]})
				}
			}
		}
	}
	if layers.Links {
		for _, l := range s.Links {
			segs = append(segs, segment{a: l.From, b: l.To})
		}
	}
	for _, sg := range segs {
		x1, y1, _, v1 := cam.Project(sg.a, sw, sh)
		x2, y2, _, v2 := cam.Project(sg.b, sw, sh)
		if v1 || v2 {
			c.DrawLine(x1, y1, x2, y2)
		}
	}

	if !layers.Cells {
		return
	}
	for _, cv := range s.Cells {
		x, y, _, ok := cam.Project(cv.Pos, sw, sh)
		if !ok {
			continue
		}
		c.DrawCircle(x, y, cam.ProjectRadius(cv.Pos, cv.Radius, sw, sh))
	}
}
