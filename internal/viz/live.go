package viz

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/bipedsim/internal/control"
	"github.com/san-kum/bipedsim/internal/metrics"
	"github.com/san-kum/bipedsim/internal/robot"
	"github.com/san-kum/bipedsim/internal/sim"
)

const (
	canvasWidth     = 56
	canvasHeight    = 22
	historyCapacity = 600
)

var (
	canvasStyle = lipgloss.NewStyle().Padding(1, 2)
	statsStyle  = lipgloss.NewStyle().Border(lipgloss.NormalBorder(), false, false, false, true).
			BorderForeground(lipgloss.Color("240")).Padding(1, 2).Width(46)
	headerStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true).MarginBottom(1)
	labelStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(12)
	valueStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	warnStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("203")).Bold(true)
	okStyle          = lipgloss.NewStyle().Foreground(lipgloss.Color("84")).Bold(true)
	activeParamStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Bold(true)
	graphStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("49")).Padding(1, 0)
	helpStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).MarginTop(2)
)

type TickMsg time.Time

// Model is the live balance view: it owns the environment and the
// standing controller and advances them one control tick per frame.
type Model struct {
	env       *sim.Environment
	ctrl      *control.Standing
	stability *metrics.Stability
	desc      *robot.Description
	geo       robot.LegGeometry

	controlDt float64
	substeps  int

	canvas  *Canvas
	running bool

	pitchHistory  []float64
	heightHistory []float64

	params        map[string]float64
	initialParams map[string]float64
	paramKeys     []string
	selected      int

	lastErr  error
	showHelp bool
}

// NewModel wires the live view around an environment and controller.
func NewModel(env *sim.Environment, ctrl *control.Standing, stability *metrics.Stability, desc *robot.Description, controlDt float64) Model {
	params := ctrl.GetParams()
	initial := make(map[string]float64, len(params))
	keys := make([]string, 0, len(params))
	for k, v := range params {
		initial[k] = v
		keys = append(keys, k)
	}
	sort.Strings(keys)

	substeps := int(math.Round(controlDt / env.Dt()))
	if substeps < 1 {
		substeps = 1
	}

	return Model{
		env:           env,
		ctrl:          ctrl,
		stability:     stability,
		desc:          desc,
		geo:           desc.Leg,
		controlDt:     controlDt,
		substeps:      substeps,
		canvas:        NewCanvas(canvasWidth, canvasHeight),
		running:       true,
		pitchHistory:  make([]float64, 0, historyCapacity),
		heightHistory: make([]float64, 0, historyCapacity),
		params:        params,
		initialParams: initial,
		paramKeys:     keys,
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Tick(time.Second/30, func(t time.Time) tea.Msg { return TickMsg(t) })
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
			m.env.ApplyPush(0, 25)
		case "P":
			m.env.ApplyPush(25, 0)
		case "tab":
			m.cycleParam()
		case "up", "k":
			m.adjustParam(1.05)
		case "down", "j":
			m.adjustParam(0.95)
		case "?":
			m.showHelp = !m.showHelp
		}
	case TickMsg:
		if m.running {
			m.step()
		}
		return m, tea.Tick(time.Second/30, func(t time.Time) tea.Msg { return TickMsg(t) })
	}
	return m, nil
}

// step runs one control tick and the physics substeps behind it.
func (m *Model) step() {
	state := m.env.Snapshot()
	m.stability.Update(state)

	cmd, err := m.ctrl.Compute(state, m.controlDt)
	if err != nil {
		m.lastErr = err
		m.running = false
		return
	}
	if err := m.env.SetJointPositions(cmd); err != nil {
		m.lastErr = err
		m.running = false
		return
	}
	for i := 0; i < m.substeps; i++ {
		m.env.Step()
	}

	m.pitchHistory = appendCapped(m.pitchHistory, state.Base.Pitch)
	m.heightHistory = appendCapped(m.heightHistory, state.Base.Position.Z)
}

func appendCapped(hist []float64, v float64) []float64 {
	hist = append(hist, v)
	if len(hist) > historyCapacity {
		hist = hist[1:]
	}
	return hist
}

func (m *Model) reset() {
	m.lastErr = m.env.Reset(m.ctrl.Baseline())
	m.ctrl.Reset()
	m.stability.Reset()
	m.pitchHistory = m.pitchHistory[:0]
	m.heightHistory = m.heightHistory[:0]
	for k, v := range m.initialParams {
		m.params[k] = v
		m.ctrl.SetParam(k, v)
	}
}

func (m *Model) cycleParam() {
	if len(m.paramKeys) == 0 {
		return
	}
	m.selected = (m.selected + 1) % len(m.paramKeys)
}

func (m *Model) adjustParam(factor float64) {
	if len(m.paramKeys) == 0 {
		return
	}
	key := m.paramKeys[m.selected]
	val := m.params[key] * factor
	if val == 0 {
		val = 1e-4
	}
	if err := m.ctrl.SetParam(key, val); err != nil {
		return
	}
	m.params[key] = val
}

func (m Model) View() string {
	m.draw()
	canvasView := canvasStyle.Render(m.canvas.String())

	state := m.env.Snapshot()
	var s strings.Builder
	s.WriteString(headerStyle.Render("STANDING BALANCE") + "\n")

	status := "RUNNING"
	if !m.running {
		status = "PAUSED"
	}
	if m.lastErr != nil {
		status = warnStyle.Render(fmt.Sprintf("HALTED: %v", m.lastErr))
	}
	s.WriteString(status + "\n\n")

	if len(m.pitchHistory) > 1 {
		chart := asciigraph.Plot(m.pitchHistory,
			asciigraph.Height(4), asciigraph.Width(30), asciigraph.Caption("pitch (deg)"))
		s.WriteString(graphStyle.Render(chart) + "\n")
	}
	if len(m.heightHistory) > 1 {
		chart := asciigraph.Plot(m.heightHistory,
			asciigraph.Height(4), asciigraph.Width(30), asciigraph.Caption("height (m)"))
		s.WriteString(graphStyle.Render(chart) + "\n\n")
	}

	s.WriteString(labelStyle.Render("Time") + valueStyle.Render(fmt.Sprintf("%.2fs", state.Time)) + "\n")
	s.WriteString(labelStyle.Render("Height") + valueStyle.Render(fmt.Sprintf("%.3f m", state.Base.Position.Z)) + "\n")
	s.WriteString(labelStyle.Render("Roll") + valueStyle.Render(fmt.Sprintf("%+.2f°", state.Base.Roll)) + "\n")
	s.WriteString(labelStyle.Render("Pitch") + valueStyle.Render(fmt.Sprintf("%+.2f°", state.Base.Pitch)) + "\n")

	summary := m.stability.Summary()
	stable := warnStyle.Render("UNSTABLE")
	if summary.IsStable {
		stable = okStyle.Render("STABLE")
	}
	s.WriteString(labelStyle.Render("Score") + valueStyle.Render(fmt.Sprintf("%.1f ", summary.Score)) + stable + "\n")
	s.WriteString(labelStyle.Render("Saturations") + valueStyle.Render(fmt.Sprintf("%d", m.ctrl.Saturations())) + "\n")

	s.WriteString("\nGAINS\n")
	for i, k := range m.paramKeys {
		line := fmt.Sprintf("%-10s %.4f", k, m.params[k])
		if i == m.selected {
			s.WriteString(activeParamStyle.Render("> "+line) + "\n")
		} else {
			s.WriteString("  " + labelStyle.Render(line) + "\n")
		}
	}

	s.WriteString(helpStyle.Render("\n─────────────────────\nSP:Pause R:Reset Q:Quit P:Push\nTab:Select ↑↓:Tune ?:Help"))

	mainView := lipgloss.JoinHorizontal(lipgloss.Top, canvasView, statsStyle.Render(s.String()))
	if m.showHelp {
		return helpOverlay + "\n\n" + mainView
	}
	return mainView
}

const helpOverlay = `
╔══════════════════════════════════════╗
║           KEYBOARD SHORTCUTS         ║
╠══════════════════════════════════════╣
║  Space    - Pause/Resume             ║
║  R        - Reset                    ║
║  Q        - Quit                     ║
║  P        - Pitch push (25 deg/s)    ║
║  Shift+P  - Roll push (25 deg/s)     ║
║  Tab      - Cycle gains              ║
║  Up/K     - Increase gain (+5%)      ║
║  Down/J   - Decrease gain (-5%)      ║
║  ?        - Toggle this help         ║
╚══════════════════════════════════════╝`

// draw renders the robot in two panes: sagittal (side) view on the
// left, frontal view on the right.
func (m *Model) draw() {
	m.canvas.Clear()

	state := m.env.Snapshot()
	cw, ch := canvasWidth*2, canvasHeight*4
	// meters to sub-pixels
	scale := float64(ch) * 0.85 / 0.45

	groundY := ch - 4
	for x := 0; x < cw; x += 3 {
		m.canvas.Set(x, groundY)
	}

	m.drawSideView(state, cw/4, groundY, scale)
	m.drawFrontView(state, 3*cw/4, groundY, scale)

	// pane divider
	for y := 0; y < ch; y += 4 {
		m.canvas.Set(cw/2, y)
	}
}

// drawSideView draws the torso and the left leg chain in the sagittal
// plane, pitched by the base pitch.
func (m *Model) drawSideView(state sim.RobotState, cx, groundY int, scale float64) {
	hip := state.Joints[robot.JointLeftHipPitch].Angle
	knee := state.Joints[robot.JointLeftKnee].Angle
	pitch := state.Base.Pitch * math.Pi / 180

	baseZ := state.Base.Position.Z
	hipZ := baseZ - m.geo.HipOffsetZ

	hipX := cx
	hipY := groundY - int(hipZ*scale)

	// foot from leg FK, then the knee as the thigh endpoint
	ax, az := m.geo.LegFK(hip, knee)
	footX := hipX + int(ax*scale)
	footY := hipY - int(az*scale)

	thighA := (hip+state.Base.Pitch)*math.Pi/180 + math.Pi // pointing down
	kneeX := hipX + int(m.geo.ThighLength*math.Sin(thighA)*scale)
	kneeY := hipY + int(m.geo.ThighLength*math.Cos(thighA)*scale)

	m.canvas.DrawLine(hipX, hipY, kneeX, kneeY)
	m.canvas.DrawLine(kneeX, kneeY, footX, footY)

	// torso leaning with pitch, head on top
	torsoLen := (m.geo.HipOffsetZ + 0.15) * scale
	topX := hipX + int(torsoLen*math.Sin(pitch))
	topY := hipY - int(torsoLen*math.Cos(pitch))
	m.canvas.DrawLine(hipX, hipY, topX, topY)
	m.canvas.DrawCircle(topX, topY-4, 3)

	// foot plate
	m.canvas.DrawLine(footX-4, footY, footX+6, footY)
}

// drawFrontView draws both legs and the torso in the frontal plane,
// rolled by the base roll.
func (m *Model) drawFrontView(state sim.RobotState, cx, groundY int, scale float64) {
	roll := state.Base.Roll * math.Pi / 180
	baseZ := state.Base.Position.Z
	hipZ := baseZ - m.geo.HipOffsetZ

	hipSpan := int(m.geo.HipOffsetY * scale)
	hipY := groundY - int(hipZ*scale)

	leftHipX := cx - hipSpan
	rightHipX := cx + hipSpan

	m.canvas.DrawLine(leftHipX, hipY, rightHipX, hipY)

	legLen := m.geo.LegHeight(state.Joints[robot.JointLeftHipPitch].Angle,
		state.Joints[robot.JointLeftKnee].Angle)

	for _, side := range []struct {
		hipX    int
		rollDeg float64
	}{
		{leftHipX, state.Joints[robot.JointLeftHipRoll].Angle},
		{rightHipX, state.Joints[robot.JointRightHipRoll].Angle},
	} {
		a := side.rollDeg * math.Pi / 180
		footX := side.hipX + int(legLen*math.Sin(a)*scale)
		footY := hipY + int(legLen*math.Cos(a)*scale)
		m.canvas.DrawLine(side.hipX, hipY, footX, footY)
		m.canvas.DrawLine(footX-3, footY, footX+3, footY)
	}

	// torso rolling with the base
	torsoLen := (m.geo.HipOffsetZ + 0.15) * scale
	midX := cx
	topX := midX + int(torsoLen*math.Sin(roll))
	topY := hipY - int(torsoLen*math.Cos(roll))
	m.canvas.DrawLine(midX, hipY, topX, topY)
	m.canvas.DrawCircle(topX, topY-4, 3)
}
