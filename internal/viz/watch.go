package viz

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/san-kum/cellsim/internal/sim"
)

const (
	clearScreen = "\033[2J\033[H"
	hideCursor  = "\033[?25l"
	showCursor  = "\033[?25h"
)

// Watcher redraws the world to a terminal while a batch run is in
// progress. It is a sim.Observer and drops frames to stay under its frame
// rate.
type Watcher struct {
	out       io.Writer
	title     string
	total     int
	interval  time.Duration
	lastFrame time.Time
	canvas    *Canvas
	camera    *Camera
	now       func() time.Time
}

var _ sim.Observer = (*Watcher)(nil)

// NewWatcher renders at most fps frames per second. total is the expected
// number of steps, used for the progress bar; zero hides it.
func NewWatcher(out io.Writer, title string, total, fps int) *Watcher {
	return &Watcher{
		out:      out,
		title:    title,
		total:    total,
		interval: time.Second / time.Duration(max(fps, 1)),
		canvas:   NewCanvas(70, 20),
		camera:   NewCamera(),
		now:      time.Now,
	}
}

func (r *Watcher) OnStep(w *sim.World, st sim.Stats) {
	now := r.now()
	if now.Sub(r.lastFrame) < r.interval {
		return
	}
	r.lastFrame = now

	snap := w.Snapshot()
	r.camera.Fit(snap.Bounds())
	r.canvas.Clear()
	Draw(r.canvas, snap, r.camera, AllLayers)
	r.render(st)
}

func (r *Watcher) render(st sim.Stats) {
	var b strings.Builder
	b.WriteString(clearScreen)
	fmt.Fprintf(&b, "  %s  t=%.2f  step=%d\n", r.title, st.Time, st.Step)
	b.WriteString("  " + strings.Repeat("-", r.canvas.Width) + "\n")
	for _, row := range r.canvas.Grid {
		b.WriteString("  ")
		b.WriteString(string(row))
		b.WriteString("\n")
	}
	b.WriteString("  " + strings.Repeat("-", r.canvas.Width) + "\n")
	fmt.Fprintf(&b, "  cells=%d links=%d contacts=%d pressure=%.3f\n",
		st.Cells, st.Edges, st.Contacts, st.MeanPressure)
	if r.total > 0 {
		b.WriteString("  " + ProgressBar(float64(st.Step)/float64(r.total), r.canvas.Width) + "\n")
	}
	io.WriteString(r.out, b.String())
}

func (r *Watcher) Start() { io.WriteString(r.out, hideCursor) }
func (r *Watcher) Stop()  { io.WriteString(r.out, showCursor) }
