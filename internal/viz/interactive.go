package viz

import (
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/san-kum/vicsek/internal/config"
	"github.com/san-kum/vicsek/internal/vicsek"
)

var presetInfo = map[string]string{
	"ordered":    "low noise, one flock",
	"disordered": "high noise, gas phase",
	"critical":   "near the transition",
	"aligned":    "starts fully ordered",
	"grid":       "lattice start, cone headings",
	"dense":      "4000 particles, grid search",
}

const (
	stateMenu = iota
	stateConfig
	stateSim
)

// field is one editable entry of the picker's config screen.
type field struct {
	name string
	get  func(*config.Config) float64
	set  func(*config.Config, float64)
}

var fields = []field{
	{"particles", func(c *config.Config) float64 { return float64(c.Simulation.ParticleCount) },
		func(c *config.Config, v float64) { c.Simulation.ParticleCount = int(v) }},
	{"noise", func(c *config.Config) float64 { return c.Simulation.NoiseAmplitude },
		func(c *config.Config, v float64) { c.Simulation.NoiseAmplitude = v }},
	{"radius", func(c *config.Config) float64 { return c.Simulation.InteractionRadius },
		func(c *config.Config, v float64) { c.Simulation.InteractionRadius = v }},
	{"speed", func(c *config.Config) float64 { return c.Simulation.Speed },
		func(c *config.Config, v float64) { c.Simulation.Speed = v }},
	{"width", func(c *config.Config) float64 { return c.Domain.Width },
		func(c *config.Config, v float64) { c.Domain.Width = v }},
	{"height", func(c *config.Config) float64 { return c.Domain.Height },
		func(c *config.Config, v float64) { c.Domain.Height = v }},
	{"seed", func(c *config.Config) float64 { return float64(c.Simulation.Seed) },
		func(c *config.Config, v float64) { c.Simulation.Seed = int64(v) }},
}

// Picker is a preset menu that launches the live view.
type Picker struct {
	state, cursor int
	presets       []string
	selected      string
	cfg           *config.Config
	fieldCursor   int
	editing       bool
	editBuf       string
	err           string
	width, height int
	live          Model
}

func NewPicker() Picker {
	return Picker{
		state:   stateMenu,
		presets: config.ListPresets(),
		width:   defaultWidth,
		height:  defaultHeight,
	}
}

// RunPicker starts the preset menu on the alternate screen.
func RunPicker() error {
	_, err := tea.NewProgram(NewPicker(), tea.WithAltScreen()).Run()
	return err
}

func (m Picker) Init() tea.Cmd { return nil }

func (m Picker) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		if m.state == stateSim {
			return m.forward(msg)
		}
		return m, nil
	default:
		if m.state == stateSim {
			return m.forward(msg)
		}
	}
	return m, nil
}

func (m Picker) forward(msg tea.Msg) (Picker, tea.Cmd) {
	next, cmd := m.live.Update(msg)
	m.live = next.(Model)
	return m, cmd
}

func (m Picker) handleKey(msg tea.KeyMsg) (Picker, tea.Cmd) {
	switch m.state {
	case stateMenu:
		return m.menuKey(msg)
	case stateConfig:
		return m.configKey(msg)
	case stateSim:
		return m.forward(msg)
	}
	return m, nil
}

func (m Picker) menuKey(msg tea.KeyMsg) (Picker, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.presets)-1 {
			m.cursor++
		}
	case "enter", " ":
		m.selected = m.presets[m.cursor]
		m.cfg = config.GetPreset(m.selected)
		m.state, m.fieldCursor, m.err = stateConfig, 0, ""
	}
	return m, nil
}

func (m Picker) configKey(msg tea.KeyMsg) (Picker, tea.Cmd) {
	if m.editing {
		switch msg.String() {
		case "enter":
			if v, err := strconv.ParseFloat(m.editBuf, 64); err == nil {
				fields[m.fieldCursor].set(m.cfg, v)
			}
			m.editing, m.editBuf = false, ""
		case "esc":
			m.editing, m.editBuf = false, ""
		case "backspace":
			if len(m.editBuf) > 0 {
				m.editBuf = m.editBuf[:len(m.editBuf)-1]
			}
		default:
			if s := msg.String(); len(s) == 1 {
				c := s[0]
				if (c >= '0' && c <= '9') || c == '.' || c == '-' {
					m.editBuf += s
				}
			}
		}
		return m, nil
	}
	switch msg.String() {
	case "q", "esc":
		m.state = stateMenu
	case "up", "k":
		if m.fieldCursor > 0 {
			m.fieldCursor--
		}
	case "down", "j":
		if m.fieldCursor < len(fields)-1 {
			m.fieldCursor++
		}
	case "enter", " ":
		m.editing = true
		m.editBuf = strconv.FormatFloat(fields[m.fieldCursor].get(m.cfg), 'g', -1, 64)
	case "s":
		return m.start()
	}
	return m, nil
}

// start builds the simulation. A rejected config stays on the config
// screen with the validation error shown.
func (m Picker) start() (Picker, tea.Cmd) {
	if err := m.cfg.Validate(); err != nil {
		m.err = err.Error()
		return m, nil
	}
	sim, err := vicsek.NewWithConfig(m.cfg.Simulation, m.cfg.Domain)
	if err != nil {
		m.err = err.Error()
		return m, nil
	}
	m.live = NewModel(sim, m.cfg.Run.FPS)
	m.live.resize(m.width, m.height)
	m.state, m.err = stateSim, ""
	return m, m.live.Init()
}

func (m Picker) View() string {
	switch m.state {
	case stateMenu:
		return m.viewMenu()
	case stateConfig:
		return m.viewConfig()
	case stateSim:
		return m.live.View()
	}
	return ""
}

var (
	titleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#00cccc")).Bold(true)
	subStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#666688"))
	cursorMark = lipgloss.NewStyle().Foreground(lipgloss.Color("#00ffff")).Bold(true).Render("▸")
	activeName = lipgloss.NewStyle().Foreground(lipgloss.Color("#ffffff")).Bold(true)
	activeDesc = lipgloss.NewStyle().Foreground(lipgloss.Color("#ff88ff"))
	idleName   = lipgloss.NewStyle().Foreground(lipgloss.Color("#555566"))
	idleDesc   = lipgloss.NewStyle().Foreground(lipgloss.Color("#444455"))
	keyStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#00aaaa")).Bold(true)
	errStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#ff4444"))
)

func hint(pairs ...string) string {
	var b strings.Builder
	for i := 0; i+1 < len(pairs); i += 2 {
		b.WriteString(keyStyle.Render(pairs[i]) + idleName.Render(" "+pairs[i+1]+"  "))
	}
	return b.String()
}

func (m Picker) header(title, sub string) string {
	return "\n\n    " + titleStyle.Render(title) + "\n    " + subStyle.Render(sub) + "\n    " + subStyle.Render("─────────────────────────") + "\n\n"
}

func (m Picker) viewMenu() string {
	var b strings.Builder
	b.WriteString(m.header("VICSEK", "self-propelled particles"))
	for i, name := range m.presets {
		desc := presetInfo[name]
		if i == m.cursor {
			b.WriteString(fmt.Sprintf("    %s %s  %s\n", cursorMark, activeName.Render(fmt.Sprintf("%-12s", name)), activeDesc.Render(desc)))
		} else {
			b.WriteString(fmt.Sprintf("    %s  %s\n", idleName.Render(fmt.Sprintf("  %-12s", name)), idleDesc.Render(desc)))
		}
	}
	b.WriteString("\n    " + hint("j/k", "navigate", "enter", "select", "q", "quit") + "\n")
	return b.String()
}

func (m Picker) viewConfig() string {
	var b strings.Builder
	b.WriteString(m.header(strings.ToUpper(m.selected), presetInfo[m.selected]))
	for i, f := range fields {
		val := strconv.FormatFloat(f.get(m.cfg), 'g', 6, 64)
		if m.editing && i == m.fieldCursor {
			val = m.editBuf + "_"
		}
		if i == m.fieldCursor {
			b.WriteString(fmt.Sprintf("    %s %s %10s\n", cursorMark, activeName.Render(fmt.Sprintf("%-10s", f.name)), activeDesc.Render(val)))
		} else {
			b.WriteString(fmt.Sprintf("      %s %10s\n", idleName.Render(fmt.Sprintf("%-10s", f.name)), idleDesc.Render(val)))
		}
	}
	b.WriteString(fmt.Sprintf("\n    %s %.3f\n", subStyle.Render("density"), m.cfg.Density()))
	if m.err != "" {
		b.WriteString("\n    " + errStyle.Render(m.err) + "\n")
	}
	b.WriteString("\n    " + hint("enter", "edit", "s", "start", "esc", "back") + "\n")
	return b.String()
}
