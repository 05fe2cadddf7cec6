package export

import (
	"strings"
	"testing"

	"github.com/san-kum/cellsim/internal/dynamo"
	"github.com/san-kum/cellsim/internal/sim"
	"github.com/san-kum/cellsim/internal/viz"
)

func TestCanvasToSVG(t *testing.T) {
	if CanvasToSVG(nil, 2) != "" {
		t.Error("nil canvas should render nothing")
	}

	c := viz.NewCanvas(2, 1)
	c.Set(0, 0)
	c.Set(3, 3)
	svg := CanvasToSVG(c, 2)

	if !strings.HasPrefix(svg, "<?xml") || !strings.HasSuffix(svg, "</svg>") {
		t.Fatal("not a complete svg document")
	}
	if n := strings.Count(svg, "<circle"); n != 2 {
		t.Errorf("expected 2 dots, got %d", n)
	}
	if !strings.Contains(svg, `cx="1.0" cy="1.0"`) || !strings.Contains(svg, `cx="7.0" cy="7.0"`) {
		t.Errorf("dot positions wrong:\n%s", svg)
	}
	if !strings.Contains(svg, `width="8" height="8"`) {
		t.Error("unexpected document size")
	}
}

func snapshot() sim.Snapshot {
	return sim.Snapshot{
		Time: 1.5,
		Cells: []sim.CellView{
			{ID: 1, Kind: "epithelial", Pos: dynamo.Vec{0, 0, 0}, Radius: 1, Pressure: 0},
			{ID: 2, Kind: "epithelial", Pos: dynamo.Vec{1.8, 0, 0}, Radius: 1, Pressure: 2},
		},
		Links: []sim.LinkView{{A: 1, B: 2, From: dynamo.Vec{0, 0, 0}, To: dynamo.Vec{1.8, 0, 0}}},
		Surfaces: []sim.SurfaceView{{Name: "floor", Triangles: [][3]dynamo.Vec{
			{{-3, -1, -3}, {3, -1, 3}, {3, -1, -3}},
		}}},
	}
}

func TestSnapshotToSVG(t *testing.T) {
	s := snapshot()
	cam := viz.NewCamera()
	cam.Fit(s.Bounds())

	svg := SnapshotToSVG(s, cam, 400, 300)
	if n := strings.Count(svg, "<circle"); n != 2 {
		t.Errorf("expected 2 cells, got %d", n)
	}
	if n := strings.Count(svg, "<line"); n != 1 {
		t.Errorf("expected 1 link, got %d", n)
	}
	if n := strings.Count(svg, "<polygon"); n != 1 {
		t.Errorf("expected 1 surface face, got %d", n)
	}
	if !strings.Contains(svg, "<title>2 epithelial</title>") {
		t.Error("cell title missing")
	}
	if !strings.Contains(svg, "t=1.500 cells=2 links=1") {
		t.Error("caption missing")
	}
}

func TestPressureColor(t *testing.T) {
	if got := pressureColor(0, 2); got != "#2860ff" {
		t.Errorf("low pressure = %s", got)
	}
	if got := pressureColor(2, 2); got != "#ff6028" {
		t.Errorf("high pressure = %s", got)
	}
	if got := pressureColor(1, 0); got != "#2860ff" {
		t.Errorf("no max should map to low, got %s", got)
	}
}

func TestSeriesToSVG(t *testing.T) {
	stats := []sim.Stats{
		{Time: 0, Edges: 0},
		{Time: 0.5, Edges: 3},
		{Time: 1, Edges: 2},
	}
	svg, err := SeriesToSVG(stats, "edges", 200, 100, "#00ff00")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(svg, `d="M0.0,`) || strings.Count(svg, " L") != 2 {
		t.Errorf("unexpected path:\n%s", svg)
	}
	if !strings.Contains(svg, "edges [0, 3]") {
		t.Error("range caption missing")
	}

	if _, err := SeriesToSVG(stats, "bogus", 200, 100, "#fff"); err == nil {
		t.Error("expected error for unknown field")
	}
	if _, err := SeriesToSVG(stats[:1], "edges", 200, 100, "#fff"); err == nil {
		t.Error("expected error for a single sample")
	}
}
