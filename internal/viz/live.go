package viz

import (
	"fmt"
	"image"
	"image/color"
	"image/gif"
	"math"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/san-kum/vicsek/internal/vicsek"
)

const (
	defaultWidth  = 80
	defaultHeight = 24
	graphWidth    = 38
	statsWidth    = 52
)

// Color levels of canvas cells, by local order.
const (
	levelLow int8 = iota
	levelMid
	levelHigh
)

// headTick is the length in dots of the heading mark drawn per particle.
const headTick = 2.0

type TickMsg time.Time

// param is one tunable entry of the parameter panel.
type param struct {
	name    string
	get     func(vicsek.Config) float64
	patch   func(float64) vicsek.ConfigPatch
	integer bool
}

var params = []param{
	{"noise η", func(c vicsek.Config) float64 { return c.NoiseAmplitude },
		func(v float64) vicsek.ConfigPatch { return vicsek.ConfigPatch{NoiseAmplitude: vicsek.Ptr(v)} }, false},
	{"radius r", func(c vicsek.Config) float64 { return c.InteractionRadius },
		func(v float64) vicsek.ConfigPatch { return vicsek.ConfigPatch{InteractionRadius: vicsek.Ptr(v)} }, false},
	{"speed v", func(c vicsek.Config) float64 { return c.Speed },
		func(v float64) vicsek.ConfigPatch { return vicsek.ConfigPatch{Speed: vicsek.Ptr(v)} }, false},
	{"dt", func(c vicsek.Config) float64 { return c.TimeStep },
		func(v float64) vicsek.ConfigPatch { return vicsek.ConfigPatch{TimeStep: vicsek.Ptr(v)} }, false},
	{"particles", func(c vicsek.Config) float64 { return float64(c.ParticleCount) },
		func(v float64) vicsek.ConfigPatch { return vicsek.ConfigPatch{ParticleCount: vicsek.Ptr(int(v))} }, true},
}

var (
	headingModes  = []vicsek.HeadingInit{vicsek.HeadingsUniform, vicsek.HeadingsAligned, vicsek.HeadingsCone}
	positionModes = []vicsek.PositionInit{vicsek.PositionsUniform, vicsek.PositionsGrid}
)

// Model is the live view of one simulation.
type Model struct {
	sim           *vicsek.Simulation
	fps           int
	width, height int
	canvas        *Canvas
	initial       vicsek.Config
	running       bool
	showTrails    bool
	showLinks     bool
	selected      int
	frame         int
	status        string
	recording     bool
	frames        []*image.Paletted
	gifPath       string
	showHelp      bool
}

// NewModel wraps a simulation that has already been reset.
func NewModel(sim *vicsek.Simulation, fps int) Model {
	if fps <= 0 {
		fps = 30
	}
	return Model{
		sim:        sim,
		fps:        fps,
		width:      defaultWidth,
		height:     defaultHeight,
		canvas:     NewCanvas(defaultWidth, defaultHeight),
		initial:    sim.Config(),
		running:    true,
		showTrails: sim.Config().Trails > 0,
		gifPath:    "flock.gif",
	}
}

// Run starts the TUI on the alternate screen and blocks until it quits.
func Run(sim *vicsek.Simulation, fps int) error {
	_, err := tea.NewProgram(NewModel(sim, fps), tea.WithAltScreen()).Run()
	return err
}

func (m Model) tick() tea.Cmd {
	return tea.Tick(time.Second/time.Duration(m.fps), func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m Model) Init() tea.Cmd {
	return m.tick()
}

// Update handles input events and steps the simulation.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		m.status = ""
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			m.running = !m.running
		case "r":
			m.apply(m.sim.Reset(m.sim.Config(), m.sim.Domain()))
		case "n":
			m.apply(m.sim.UpdateConfig(vicsek.ConfigPatch{Seed: vicsek.Ptr(m.sim.Config().Seed + 1)}))
		case "tab":
			m.selected = (m.selected + 1) % len(params)
		case "shift+tab":
			m.selected = (m.selected + len(params) - 1) % len(params)
		case "up", "k":
			m.adjustParam(1.05)
		case "down", "j":
			m.adjustParam(0.95)
		case "h":
			m.cycleHeadings()
		case "p":
			m.cyclePositions()
		case "t":
			m.toggleTrails()
		case "l":
			m.showLinks = !m.showLinks
		case "c":
			NextTheme()
		case "g":
			m.toggleRecording()
		case "?":
			m.showHelp = !m.showHelp
		}
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
	case TickMsg:
		m.frame++
		if m.running {
			m.sim.Step()
		}
		if m.recording {
			m.draw()
			m.captureFrame()
		}
		return m, m.tick()
	}
	return m, nil
}

func (m *Model) apply(err error) {
	if err != nil {
		m.status = err.Error()
	}
}

// resize fits the canvas next to the stats panel. The domain itself is
// untouched; only the projection changes.
func (m *Model) resize(w, h int) {
	cw := max(20, w-statsWidth-4)
	ch := max(8, h-2)
	if cw == m.width && ch == m.height {
		return
	}
	m.width, m.height = cw, ch
	m.canvas = NewCanvas(cw, ch)
}

// adjustParam scales the selected parameter. Integer parameters move by at
// least one.
func (m *Model) adjustParam(factor float64) {
	p := params[m.selected]
	cur := p.get(m.sim.Config())
	next := cur * factor
	if p.integer {
		next = math.Round(next)
		if next == cur {
			next = cur + math.Copysign(1, factor-1)
		}
		next = math.Max(1, next)
	}
	if cur == 0 && factor > 1 && !p.integer {
		next = 0.01
	}
	m.apply(m.sim.UpdateConfig(p.patch(next)))
}

func (m *Model) cycleHeadings() {
	cur := m.sim.Config().InitHeadings
	next := headingModes[0]
	for i, h := range headingModes {
		if h == cur {
			next = headingModes[(i+1)%len(headingModes)]
		}
	}
	m.apply(m.sim.UpdateConfig(vicsek.ConfigPatch{InitHeadings: vicsek.Ptr(next)}))
}

func (m *Model) cyclePositions() {
	cur := m.sim.Config().InitPositions
	next := positionModes[0]
	for i, p := range positionModes {
		if p == cur {
			next = positionModes[(i+1)%len(positionModes)]
		}
	}
	m.apply(m.sim.UpdateConfig(vicsek.ConfigPatch{InitPositions: vicsek.Ptr(next)}))
}

func (m *Model) toggleTrails() {
	m.showTrails = !m.showTrails
	if m.showTrails && m.sim.Config().Trails == 0 {
		m.apply(m.sim.UpdateConfig(vicsek.ConfigPatch{Trails: vicsek.Ptr(vicsek.DefaultTrails)}))
	}
}

func (m *Model) toggleRecording() {
	if !m.recording {
		m.recording = true
		m.frames = m.frames[:0]
		return
	}
	m.recording = false
	if err := m.saveGIF(); err != nil {
		m.status = err.Error()
	} else if len(m.frames) > 0 {
		m.status = fmt.Sprintf("saved %d frames to %s", len(m.frames), m.gifPath)
	}
	m.frames = nil
}

func levelOf(local float64) int8 {
	switch {
	case local >= 2.0/3.0:
		return levelHigh
	case local >= 1.0/3.0:
		return levelMid
	}
	return levelLow
}

// draw renders the flock into the canvas.
func (m *Model) draw() {
	m.canvas.Clear()
	d := m.sim.Domain()
	proj := m.canvas.Projector(d)
	st := m.sim.State()

	if m.showTrails {
		for _, trail := range m.sim.Trails() {
			for k := 1; k < len(trail); k++ {
				proj.Segment(m.canvas, trail[k-1], trail[k])
			}
		}
	}

	if m.showLinks {
		for i, nb := range m.sim.Neighbors() {
			for _, j := range nb {
				if j > i {
					proj.Segment(m.canvas, st.Particles[i].Pos, st.Particles[j].Pos)
				}
			}
		}
	}

	local := m.sim.LocalOrder()
	tick := headTick / proj.sx
	for i, p := range st.Particles {
		lvl := levelOf(local[i])
		x, y := proj.Point(p.Pos)
		m.canvas.SetLevel(x, y, lvl)
		hx, hy := proj.Point(d.Wrap(r2.Add(p.Pos, r2.Scale(tick, p.Heading()))))
		m.canvas.SetLevel(hx, hy, lvl)
	}
}

// View renders the TUI interface.
func (m Model) View() string {
	m.draw()
	canvasView := canvasStyle.Render(m.canvas.Render(levelStyle))

	cfg := m.sim.Config()
	st := m.sim.State()
	var s strings.Builder

	s.WriteString(GradientText("VICSEK FLOCK", CurrentTheme.Primary, CurrentTheme.Accent) + "\n")
	s.WriteString(m.statusLine() + "\n\n")

	if hist := m.sim.PhiHistory(); len(hist) > 1 {
		if len(hist) > graphWidth*4 {
			hist = hist[len(hist)-graphWidth*4:]
		}
		chart := asciigraph.Plot(hist,
			asciigraph.Height(5),
			asciigraph.Width(graphWidth),
			asciigraph.LowerBound(0),
			asciigraph.UpperBound(1),
			asciigraph.Precision(2),
			asciigraph.Caption("Φ"))
		s.WriteString(graphStyle.Render(chart) + "\n")
	}

	s.WriteString(labelStyle.Render("Iteration") + valueStyle.Render(fmt.Sprintf("%d", st.Iteration)) + "\n")
	s.WriteString(labelStyle.Render("Φ") + valueStyle.Render(fmt.Sprintf("%.4f", st.CurrentPhi)) + "\n")
	s.WriteString(labelStyle.Render("⟨Φ⟩") + valueStyle.Render(fmt.Sprintf("%.4f", st.AvgPhi)) + "\n")
	s.WriteString(labelStyle.Render("Trend") + SparklineChart(m.sim.PhiHistory(), 24) + "\n")
	if cfg.BurnIn > 0 {
		frac := float64(st.Iteration) / float64(cfg.BurnIn)
		s.WriteString(labelStyle.Render("Burn-in") + ProgressBar(frac, 20) + "\n")
	}
	s.WriteString(labelStyle.Render("Domain") + valueStyle.Render(m.sim.Domain().String()) + "\n")
	s.WriteString(labelStyle.Render("Seed") + valueStyle.Render(fmt.Sprintf("%d", cfg.Seed)) + "\n")

	s.WriteString("\n" + Separator(40) + "\nPARAMETERS\n")
	for i, p := range params {
		val, initial := p.get(cfg), p.get(m.initial)
		barWidth, ratio := 10, 0.5
		if initial > 0 {
			ratio = val / (2.0 * initial)
		}
		ratio = math.Max(0, math.Min(1, ratio))
		filled := int(ratio * float64(barWidth))
		bar := "[" + strings.Repeat("=", filled) + strings.Repeat("-", barWidth-filled) + "]"
		line := fmt.Sprintf("%-10s %s %.3g", p.name, bar, val)
		if i == m.selected {
			s.WriteString(lipgloss.NewStyle().Foreground(CurrentTheme.Primary).Bold(true).Render("> "+line) + "\n")
		} else {
			s.WriteString("  " + labelStyle.UnsetWidth().Render(line) + "\n")
		}
	}
	s.WriteString(fmt.Sprintf("  %-10s %s\n", "headings", cfg.InitHeadings))
	s.WriteString(fmt.Sprintf("  %-10s %s\n", "positions", cfg.InitPositions))
	s.WriteString(fmt.Sprintf("  %-10s %s  %-6s %s\n", "trails", onOff(m.showTrails), "links", onOff(m.showLinks)))

	s.WriteString(helpStyle.Render("SP:Pause R:Reset N:Seed Q:Quit\nTab ↑↓:Tune H/P:Init T/L:Trails/Links\nC:Theme G:Record ?:Help"))
	statsView := statsStyle.Render(s.String())
	mainView := lipgloss.JoinHorizontal(lipgloss.Top, canvasView, statsView)
	if m.showHelp {
		return helpOverlay + "\n\n" + mainView
	}
	return mainView
}

func (m Model) statusLine() string {
	var parts []string
	if m.running {
		parts = append(parts, StatusRunning.Render(AnimatedSpinner(m.frame)+" RUNNING"))
	} else {
		parts = append(parts, StatusPaused.Render("PAUSED"))
	}
	if m.recording {
		parts = append(parts, StatusRecording.Render(fmt.Sprintf("● REC %d", len(m.frames))))
	}
	if m.status != "" {
		parts = append(parts, m.status)
	}
	return strings.Join(parts, "  ")
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

const helpOverlay = `
╔══════════════════════════════════════╗
║          KEYBOARD SHORTCUTS          ║
╠══════════════════════════════════════╣
║  Space    - Pause/Resume simulation  ║
║  R        - Reset simulation         ║
║  N        - Reset with next seed     ║
║  Q        - Quit                     ║
║  Tab      - Cycle parameters         ║
║  Up/K     - Increase parameter (+5%) ║
║  Down/J   - Decrease parameter (-5%) ║
║  H        - Cycle heading init       ║
║  P        - Cycle position init      ║
║  T        - Toggle trails            ║
║  L        - Toggle neighbor links    ║
║  C        - Cycle themes             ║
║  G        - Toggle GIF recording     ║
║  ?        - Toggle this help         ║
╚══════════════════════════════════════╝`

func (m *Model) captureFrame() {
	charW, charH := 8, 16
	imgW, imgH := m.width*charW, m.height*charH
	palette := color.Palette{
		color.Black,
		color.RGBA{0x55, 0x55, 0x66, 0xff},
		color.RGBA{0xff, 0x44, 0x44, 0xff},
		color.RGBA{0xff, 0xcc, 0x00, 0xff},
		color.RGBA{0x00, 0xff, 0x88, 0xff},
	}
	img := image.NewPaletted(image.Rect(0, 0, imgW, imgH), palette)
	dotW, dotH := charW/2, charH/4

	for row := 0; row < m.height; row++ {
		for col := 0; col < m.width; col++ {
			pattern := int(m.canvas.Grid[row][col] - blank)
			if pattern <= 0 {
				continue
			}
			idx := uint8(m.canvas.Level[row][col] + 2)
			baseX, baseY := col*charW, row*charH
			for dy := 0; dy < 4; dy++ {
				for dx := 0; dx < 2; dx++ {
					if pattern&pixelMap[dy][dx] == 0 {
						continue
					}
					for py := 0; py < dotH; py++ {
						for px := 0; px < dotW; px++ {
							img.SetColorIndex(baseX+dx*dotW+px, baseY+dy*dotH+py, idx)
						}
					}
				}
			}
		}
	}
	m.frames = append(m.frames, img)
}

func (m *Model) saveGIF() error {
	if len(m.frames) == 0 {
		return nil
	}
	anim := gif.GIF{LoopCount: 0}
	delay := max(1, 100/m.fps)
	for _, frame := range m.frames {
		anim.Image = append(anim.Image, frame)
		anim.Delay = append(anim.Delay, delay)
	}
	f, err := os.Create(m.gifPath)
	if err != nil {
		return err
	}
	defer f.Close()
	return gif.EncodeAll(f, &anim)
}
