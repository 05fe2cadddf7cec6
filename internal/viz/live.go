package viz

import (
	"errors"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/cellsim/internal/dynamo"
	"github.com/san-kum/cellsim/internal/sim"
)

const (
	width           = 80
	height          = 24
	historyCapacity = 600
	frameRate       = 30
)

// BuildFunc creates a fresh world. The live view calls it on start and on
// every reset.
type BuildFunc func() (*sim.World, error)

type TickMsg time.Time

// Model is the bubbletea model of the live view.
type Model struct {
	build  BuildFunc
	world  *sim.World
	dt     float64
	speed  int
	last   sim.Stats
	err    error
	title  string
	canvas *Canvas
	camera *Camera
	layers Layers
	follow bool

	running  bool
	showHelp bool
	theme    Theme
	style    styles

	edges    []float64
	pressure []float64
}

// NewModel builds the first world and returns a running view of it.
func NewModel(title string, build BuildFunc, dt float64) (Model, error) {
	if dt <= 0 {
		return Model{}, fmt.Errorf("dt must be positive, got %f: %w", dt, dynamo.ErrParameterBounds)
	}
	m := Model{
		build:   build,
		dt:      dt,
		speed:   1,
		title:   title,
		canvas:  NewCanvas(width, height),
		camera:  NewCamera(),
		layers:  AllLayers,
		follow:  true,
		running: true,
		theme:   Themes[0],
		style:   newStyles(Themes[0]),
	}
	if err := m.reset(); err != nil {
		return Model{}, err
	}
	return m, nil
}

func (m Model) World() *sim.World { return m.world }

func tick() tea.Cmd {
	return tea.Tick(time.Second/frameRate, func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m Model) Init() tea.Cmd { return tick() }

// Update handles key presses and advances the world on every tick.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			m.running = !m.running && m.err == nil
		case "n":
			if !m.running && m.err == nil {
				m.step()
			}
		case "r":
			if err := m.reset(); err != nil {
				m.err = err
			}
		case "d":
			m.divide()
		case ".":
			m.speed = min(m.speed*2, 64)
		case ",":
			m.speed = max(m.speed/2, 1)
		case "t":
			m.theme = nextTheme(m.theme.Name)
			m.style = newStyles(m.theme)
		case "x":
			m.camera.RotateX(0.1)
		case "X":
			m.camera.RotateX(-0.1)
		case "y":
			m.camera.RotateY(0.1)
		case "Y":
			m.camera.RotateY(-0.1)
		case "+", "=":
			m.camera.ZoomIn()
		case "-", "_":
			m.camera.ZoomOut()
		case "f":
			m.follow = !m.follow
		case "c":
			m.layers.Cells = !m.layers.Cells
		case "l":
			m.layers.Links = !m.layers.Links
		case "s":
			m.layers.Surfaces = !m.layers.Surfaces
		case "?":
			m.showHelp = !m.showHelp
		}
	case TickMsg:
		if m.running {
			for range m.speed {
				if !m.step() {
					break
				}
			}
		}
		return m, tick()
	}
	return m, nil
}

// step advances the world once and records history. It reports false and
// pauses the view when the step fails.
func (m *Model) step() bool {
	st, err := m.world.Step(m.dt)
	if err != nil {
		m.err = err
		m.running = false
		return false
	}
	m.last = st
	m.edges = appendCapped(m.edges, float64(st.Edges))
	m.pressure = appendCapped(m.pressure, st.MeanPressure)
	return true
}

func appendCapped(h []float64, v float64) []float64 {
	h = append(h, v)
	if len(h) > historyCapacity {
		h = h[1:]
	}
	return h
}

func (m *Model) reset() error {
	w, err := m.build()
	if err != nil {
		return err
	}
	m.world = w
	m.last = w.Stats()
	m.err = nil
	m.edges = m.edges[:0]
	m.pressure = m.pressure[:0]
	m.camera.Fit(w.Snapshot().Bounds())
	return nil
}

// divide splits the most pressurized cell along x.
func (m *Model) divide() {
	var (
		id   uint64
		best = -1.0
	)
	for _, c := range m.world.Cells() {
		if p := c.Membrane().Pressure(); p > best {
			id, best = c.ID(), p
		}
	}
	if best < 0 {
		return
	}
	if _, err := m.world.Divide(id, dynamo.Vec{1, 0, 0}); err != nil {
		m.err = err
	}
}

func (m *Model) draw(s sim.Snapshot) {
	if m.follow {
		m.camera.Fit(s.Bounds())
	}
	m.canvas.Clear()
	Draw(m.canvas, s, m.camera, m.layers)
}

func (m Model) status() string {
	switch {
	case m.err != nil && errors.Is(m.err, dynamo.ErrInvalidState):
		return m.style.err.Render("DIVERGED")
	case m.err != nil:
		return m.style.err.Render("ERROR")
	case !m.running:
		return "PAUSED"
	}
	return fmt.Sprintf("RUNNING x%d", m.speed)
}

func (m Model) View() string {
	m.draw(m.world.Snapshot())
	st := m.style

	var s strings.Builder
	s.WriteString(st.header.Render(strings.ToUpper(m.title)) + "\n")
	s.WriteString(m.status() + "\n\n")
	if len(m.edges) > 1 {
		chart := asciigraph.Plot(m.edges, asciigraph.Height(4), asciigraph.Width(30), asciigraph.Caption("Connections"))
		s.WriteString(st.graph.Render(chart) + "\n")
	}
	if len(m.pressure) > 1 {
		s.WriteString(st.label.Render("Pressure") + st.value.Render(Sparkline(m.pressure, 28)) + "\n\n")
	}

	row := func(label, value string) {
		s.WriteString(st.label.Render(label) + st.value.Render(value) + "\n")
	}
	row("Time", fmt.Sprintf("%.2f", m.world.Time()))
	row("Step", fmt.Sprintf("%d", m.world.Steps()))
	row("Cells", fmt.Sprintf("%d", m.last.Cells))
	row("Links", fmt.Sprintf("%d (+%d -%d)", m.last.Edges, m.last.EdgesCreated, m.last.EdgesRemoved))
	row("Contacts", fmt.Sprintf("%d", m.last.Contacts))
	row("Pressure", fmt.Sprintf("%.3f / %.3f", m.last.MeanPressure, m.last.MaxPressure))
	row("Degree", fmt.Sprintf("%.2f", m.last.MeanDegree))
	row("Kinetic", fmt.Sprintf("%.4f", m.last.KineticEnergy))
	row("Theme", m.theme.Name)
	if m.err != nil {
		s.WriteString("\n" + st.err.Render(m.err.Error()) + "\n")
	}
	s.WriteString(st.help.Render("SP:Pause N:Step R:Reset Q:Quit\nD:Divide ,.:Speed T:Theme ?:Help"))

	mainView := lipgloss.JoinHorizontal(lipgloss.Top,
		st.canvas.Render(m.canvas.String()),
		st.stats.Render(s.String()))
	if m.showHelp {
		return helpText + "\n" + mainView
	}
	return mainView
}

const helpText = `
  Space  pause or resume       N      single step while paused
  R      rebuild the scene     D      divide the most pressurized cell
  , .    halve or double speed T      cycle themes
  x X    rotate about x        y Y    rotate about y
  + -    zoom                  F      toggle auto framing
  C L S  toggle cells, links and surfaces
  ?      toggle this help      Q      quit
`

// RunLive opens the live view full screen and blocks until the user quits.
func RunLive(title string, build BuildFunc, dt float64) error {
	m, err := NewModel(title, build, dt)
	if err != nil {
		return err
	}
	_, err = tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}
