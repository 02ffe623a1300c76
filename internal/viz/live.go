package viz

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/softsim/internal/world"
)

const (
	canvasWidth     = 80
	canvasHeight    = 28
	historyCapacity = 600
)

var (
	canvasStyle = lipgloss.NewStyle().Padding(1, 2)
	statsStyle  = lipgloss.NewStyle().Border(lipgloss.NormalBorder(), false, false, false, true).BorderForeground(lipgloss.Color("240")).Padding(1, 2).Width(42)
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true).MarginBottom(1)
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(12)
	valueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	graphStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("49")).Padding(1, 0)
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).MarginTop(1)
)

type TickMsg time.Time

// Snapshot keeps one frame of particle positions per body for replay.
type Snapshot struct {
	Positions [][]mgl64.Vec3
	Time      float64
	Kinetic   float64
}

// Model is a Bubble Tea program that steps a world at a fixed cadence
// and draws it as a rotating wireframe.
type Model struct {
	world *world.World
	delta float64
	name  string

	canvas *Canvas
	camera *Camera
	wf     *Wireframe
	ground *Wireframe

	pairs     [][][2]int
	positions []mgl64.Vec3
	particles int

	running  bool
	showHelp bool
	pinned   bool
	err      error

	energyHistory []float64
	history       []Snapshot
	playHead      int
}

func NewModel(w *world.World, name string, delta float64) Model {
	m := Model{
		world:         w,
		delta:         delta,
		name:          name,
		canvas:        NewCanvas(canvasWidth, canvasHeight),
		camera:        NewCamera(),
		wf:            NewWireframe(),
		ground:        GroundWireframe(2.5, 0.5),
		running:       true,
		playHead:      -1,
		energyHistory: make([]float64, 0, historyCapacity),
		history:       make([]Snapshot, 0, historyCapacity),
	}
	center := mgl64.Vec3{}
	for _, b := range w.Bodies() {
		m.pairs = append(m.pairs, b.ConstraintPairs(nil))
		m.particles += b.NumParticles()
		center = center.Add(b.Center())
	}
	if w.Len() > 0 {
		m.camera.Center = center.Mul(1 / float64(w.Len()))
	}
	return m
}

func (m Model) Init() tea.Cmd {
	return tea.Tick(time.Second/60, func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			m.running = !m.running
		case "r":
			m.reset()
		case "p":
			m.poke()
		case "o":
			m.togglePin()
		case "w":
			m.world.WakeAll()
		case "[":
			m.scrub(-1)
		case "]":
			m.scrub(1)
		case "x":
			m.camera.Rotate(0, 0.1)
		case "X":
			m.camera.Rotate(0, -0.1)
		case "y":
			m.camera.Rotate(0.1, 0)
		case "Y":
			m.camera.Rotate(-0.1, 0)
		case "+", "=":
			m.camera.ZoomIn()
		case "-", "_":
			m.camera.ZoomOut()
		case "?":
			m.showHelp = !m.showHelp
		}
	case TickMsg:
		if m.running {
			if m.playHead == -1 {
				m.step()
			} else {
				m.playHead++
				if m.playHead >= len(m.history) {
					m.playHead = -1
				}
			}
		}
		return m, tea.Tick(time.Second/60, func(t time.Time) tea.Msg { return TickMsg(t) })
	}
	return m, nil
}

func (m *Model) step() {
	if err := m.world.Step(context.Background(), m.delta); err != nil {
		m.err = err
		m.running = false
		return
	}

	st := m.world.Stats()
	m.energyHistory = append(m.energyHistory, st.Kinetic)
	if len(m.energyHistory) > historyCapacity {
		m.energyHistory = m.energyHistory[1:]
	}

	snap := Snapshot{Time: st.Time, Kinetic: st.Kinetic}
	for _, b := range m.world.Bodies() {
		snap.Positions = append(snap.Positions, b.Positions(nil))
	}
	m.history = append(m.history, snap)
	if len(m.history) > historyCapacity {
		m.history = m.history[1:]
	}
}

// scrub moves the replay head through the snapshot buffer; stepping
// past the newest snapshot returns to the live view.
func (m *Model) scrub(dir int) {
	if len(m.history) == 0 {
		return
	}
	if m.playHead == -1 {
		m.playHead = len(m.history) - 1
		m.running = false
	}
	m.playHead += dir
	if m.playHead < 0 {
		m.playHead = 0
	}
	if m.playHead >= len(m.history) {
		m.playHead = -1
	}
}

func (m *Model) reset() {
	m.world.Reset()
	m.energyHistory = m.energyHistory[:0]
	m.history = m.history[:0]
	m.playHead = -1
	m.pinned = false
	m.err = nil
}

func (m *Model) poke() {
	m.world.ApplyImpulseNear(m.camera.Center, mgl64.Vec3{0.8, 2.2, 0.5}, 1.5)
}

func (m *Model) togglePin() {
	affected := 0
	for _, b := range m.world.Bodies() {
		affected += b.PinParticlesNear(m.camera.Center, 0.35, !m.pinned)
	}
	if affected > 0 || m.pinned {
		m.pinned = !m.pinned
	}
}

func (m *Model) draw() {
	m.canvas.Clear()
	m.wf.Clear()
	m.wf.Edges = append(m.wf.Edges, m.ground.Edges...)

	if m.playHead >= 0 && m.playHead < len(m.history) {
		snap := m.history[m.playHead]
		for i, pos := range snap.Positions {
			BodyEdges(m.wf, pos, m.pairs[i])
		}
	} else {
		for i, b := range m.world.Bodies() {
			m.positions = b.Positions(m.positions[:0])
			BodyEdges(m.wf, m.positions, m.pairs[i])
		}
	}

	Render3D(m.canvas, m.wf, m.camera)
}

func (m Model) View() string {
	m.draw()
	canvasView := canvasStyle.Render(m.canvas.String())

	st := m.world.Stats()
	t, kinetic := st.Time, st.Kinetic
	status := "RUNNING"
	if m.playHead != -1 {
		if m.playHead < len(m.history) {
			snap := m.history[m.playHead]
			t, kinetic = snap.Time, snap.Kinetic
		}
		status = fmt.Sprintf("REPLAY %d/%d", m.playHead+1, len(m.history))
	} else if !m.running {
		status = "PAUSED"
	}

	var s strings.Builder
	s.WriteString(headerStyle.Render(strings.ToUpper(m.name)) + "\n")
	s.WriteString(status + "\n")
	if m.err != nil {
		s.WriteString(errorStyle.Render(m.err.Error()) + "\n")
	}

	if len(m.energyHistory) > 1 {
		chart := asciigraph.Plot(m.energyHistory, asciigraph.Height(4), asciigraph.Width(30), asciigraph.Caption("Kinetic"))
		s.WriteString(graphStyle.Render(chart) + "\n\n")
	}

	s.WriteString(labelStyle.Render("Time") + valueStyle.Render(fmt.Sprintf("%.2fs", t)) + "\n")
	s.WriteString(labelStyle.Render("Kinetic") + valueStyle.Render(fmt.Sprintf("%.3f", kinetic)) + "\n")
	s.WriteString(labelStyle.Render("Bodies") + valueStyle.Render(fmt.Sprintf("%d awake / %d asleep", st.Awake, st.Asleep)) + "\n")
	if st.Degraded > 0 {
		s.WriteString(labelStyle.Render("Degraded") + errorStyle.Render(fmt.Sprintf("%d", st.Degraded)) + "\n")
	}
	s.WriteString(labelStyle.Render("Particles") + valueStyle.Render(fmt.Sprintf("%d", m.particles)) + "\n")
	if m.world.Len() > 0 {
		b := m.world.Bodies()[0]
		s.WriteString(labelStyle.Render("Colors") + valueStyle.Render(fmt.Sprintf("%d", b.ColorCount())) + "\n")
		s.WriteString(labelStyle.Render("Backend") + valueStyle.Render(b.BackendName()) + "\n")
	}
	if m.pinned {
		s.WriteString(labelStyle.Render("Pinned") + valueStyle.Render("yes") + "\n")
	}

	s.WriteString(helpStyle.Render("\n─────────────────────\nSP:Pause R:Reset Q:Quit\nP:Poke O:Pin W:Wake\n[ ]:Replay X/Y:Orbit +/-:Zoom ?:Help"))

	statsView := statsStyle.Render(s.String())
	mainView := lipgloss.JoinHorizontal(lipgloss.Top, canvasView, statsView)

	if m.showHelp {
		return `
╔══════════════════════════════════════╗
║          KEYBOARD SHORTCUTS          ║
╠══════════════════════════════════════╣
║  Space    - Pause/Resume             ║
║  R        - Reset to the build state ║
║  P        - Poke with an impulse     ║
║  O        - Pin/release the center   ║
║  W        - Wake every body          ║
║  X/Y      - Orbit (shift reverses)   ║
║  +/-      - Zoom                     ║
║  [ ]      - Step through the replay  ║
║  ?        - Toggle this help         ║
║  Q        - Quit                     ║
╚══════════════════════════════════════╝
` + "\n\n" + mainView
	}
	return mainView
}
