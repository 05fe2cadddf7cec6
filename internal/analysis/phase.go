package analysis

import (
	"fmt"
	"strings"

	"github.com/san-kum/cellsim/internal/sim"
)

// PhasePlot pairs two statistics sample by sample.
type PhasePlot struct {
	XField, YField string
	Points         []struct{ X, Y float64 }
}

func NewPhasePlot(stats []sim.Stats, xField, yField string) (*PhasePlot, error) {
	p := &PhasePlot{
		XField: xField,
		YField: yField,
		Points: make([]struct{ X, Y float64 }, 0, len(stats)),
	}
	for _, st := range stats {
		x, ok := st.Field(xField)
		if !ok {
			return nil, fmt.Errorf("unknown field %q", xField)
		}
		y, ok := st.Field(yField)
		if !ok {
			return nil, fmt.Errorf("unknown field %q", yField)
		}
		p.Points = append(p.Points, struct{ X, Y float64 }{x, y})
	}
	return p, nil
}

// ASCII renders the plot on a width x height character grid, drawing the
// axes where they cross the visible area.
func (p *PhasePlot) ASCII(width, height int) string {
	if p == nil || len(p.Points) == 0 {
		return ""
	}

	minX, maxX := p.Points[0].X, p.Points[0].X
	minY, maxY := p.Points[0].Y, p.Points[0].Y
	for _, pt := range p.Points {
		minX, maxX = min(minX, pt.X), max(maxX, pt.X)
		minY, maxY = min(minY, pt.Y), max(maxY, pt.Y)
	}

	rangeX := maxX - minX
	rangeY := maxY - minY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}
	minX -= rangeX * 0.1
	maxX += rangeX * 0.1
	minY -= rangeY * 0.1
	maxY += rangeY * 0.1
	rangeX = maxX - minX
	rangeY = maxY - minY

	canvas := make([][]rune, height)
	for i := range canvas {
		canvas[i] = []rune(strings.Repeat(" ", width))
	}

	toCol := func(x float64) int { return int((x - minX) / rangeX * float64(width-1)) }
	toRow := func(y float64) int { return height - 1 - int((y-minY)/rangeY*float64(height-1)) }

	for _, pt := range p.Points {
		row, col := toRow(pt.Y), toCol(pt.X)
		if row >= 0 && row < height && col >= 0 && col < width {
			canvas[row][col] = '•'
		}
	}

	if minX <= 0 && maxX >= 0 {
		col := toCol(0)
		for row := range canvas {
			if canvas[row][col] == ' ' {
				canvas[row][col] = '│'
			}
		}
	}
	if minY <= 0 && maxY >= 0 {
		row := toRow(0)
		for col := range canvas[row] {
			if canvas[row][col] == ' ' {
				canvas[row][col] = '─'
			}
		}
	}

	var sb strings.Builder
	for _, row := range canvas {
		sb.WriteString(string(row))
		sb.WriteRune('\n')
	}
	return sb.String()
}
