// Package tui is a terminal monitor for a running simulation server. It
// attaches to the websocket endpoint as an ordinary protocol client and
// renders live stats; pause, resume and reset are sent as control messages.
package tui

import (
	"encoding/json"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/gorilla/websocket"
	"github.com/guptarohit/asciigraph"

	"github.com/softwarewrighter/n-body/internal/proto"
	"github.com/softwarewrighter/n-body/internal/sim"
)

const historyCapacity = 120

var (
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true).MarginBottom(1)
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(16)
	valueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	pausedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Bold(true)
	activeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("84")).Bold(true)
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
	graphStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("49")).Padding(1, 0)
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).MarginTop(1)
)

type serverMsg proto.ServerMessage

type connClosedMsg struct{ err error }

// Model is the bubbletea model behind `nbody watch`.
type Model struct {
	url  string
	conn *websocket.Conn
	msgs chan tea.Msg

	cfg      sim.Config
	stats    sim.Stats
	frame    uint64
	simTime  float32
	paused   bool
	lastErr  string
	closeErr error

	fpsHistory  []float64
	compHistory []float64
}

// Run connects to url and drives the monitor until the user quits or the
// server goes away.
func Run(url string) error {
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		return fmt.Errorf("connect to %s: %w", url, err)
	}
	defer conn.Close()

	m := &Model{
		url:         url,
		conn:        conn,
		msgs:        make(chan tea.Msg, 32),
		fpsHistory:  make([]float64, 0, historyCapacity),
		compHistory: make([]float64, 0, historyCapacity),
	}
	go m.readLoop()

	_, err = tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}

func (m *Model) readLoop() {
	for {
		_, data, err := m.conn.ReadMessage()
		if err != nil {
			m.msgs <- connClosedMsg{err: err}
			return
		}
		msg, err := proto.DecodeServer(data)
		if err != nil {
			continue
		}
		m.msgs <- serverMsg(msg)
	}
}

func (m *Model) waitForServer() tea.Cmd {
	return func() tea.Msg { return <-m.msgs }
}

func (m *Model) Init() tea.Cmd {
	return m.waitForServer()
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			m.paused = !m.paused
			if m.paused {
				m.sendControl(proto.TypePause)
			} else {
				m.sendControl(proto.TypeResume)
			}
		case "r":
			m.sendControl(proto.TypeReset)
		}
		return m, nil

	case serverMsg:
		m.absorb(proto.ServerMessage(msg))
		return m, m.waitForServer()

	case connClosedMsg:
		m.closeErr = msg.err
		return m, tea.Quit
	}
	return m, nil
}

func (m *Model) absorb(msg proto.ServerMessage) {
	switch msg.Type {
	case proto.TypeConfig:
		m.cfg = msg.Config
	case proto.TypeStats:
		m.stats = msg.Stats
		m.fpsHistory = appendBounded(m.fpsHistory, float64(msg.Stats.FPS))
		m.compHistory = appendBounded(m.compHistory, float64(msg.Stats.ComputationTimeMs))
	case proto.TypeState:
		m.frame = msg.Snapshot.FrameNumber
		m.simTime = msg.Snapshot.SimTime
	case proto.TypeError:
		m.lastErr = msg.Error
	}
}

func (m *Model) sendControl(msgType string) {
	data, err := json.Marshal(map[string]string{"type": msgType})
	if err != nil {
		return
	}
	if err := m.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		m.lastErr = err.Error()
	}
}

func (m *Model) View() string {
	var s strings.Builder
	s.WriteString(headerStyle.Render("N-BODY MONITOR") + "  " + valueStyle.Render(m.url) + "\n")

	if m.paused {
		s.WriteString(pausedStyle.Render("PAUSED") + "\n")
	} else {
		s.WriteString(activeStyle.Render("RUNNING") + "\n")
	}

	if len(m.fpsHistory) > 1 {
		chart := asciigraph.Plot(m.fpsHistory,
			asciigraph.Height(5), asciigraph.Width(50), asciigraph.Caption("tick rate (fps)"))
		s.WriteString(graphStyle.Render(chart) + "\n")
	}
	if len(m.compHistory) > 1 {
		chart := asciigraph.Plot(m.compHistory,
			asciigraph.Height(4), asciigraph.Width(50), asciigraph.Caption("step time (ms)"))
		s.WriteString(graphStyle.Render(chart) + "\n")
	}

	row := func(label, value string) {
		s.WriteString(labelStyle.Render(label) + valueStyle.Render(value) + "\n")
	}
	row("Particles", fmt.Sprintf("%d", m.stats.ParticleCount))
	row("Frame", fmt.Sprintf("%d", m.frame))
	row("Sim time", fmt.Sprintf("%.2fs", m.simTime))
	row("Tick rate", fmt.Sprintf("%.1f fps", m.stats.FPS))
	row("Step time", fmt.Sprintf("%.2f ms", m.stats.ComputationTimeMs))
	row("CPU estimate", fmt.Sprintf("%.0f%%", m.stats.CPUUsage))
	row("Gravity", fmt.Sprintf("%.2f", m.cfg.GravityStrength))
	row("Time step", fmt.Sprintf("%.4f", m.cfg.TimeStep))

	if m.lastErr != "" {
		s.WriteString(errorStyle.Render("server: "+m.lastErr) + "\n")
	}
	if m.closeErr != nil {
		s.WriteString(errorStyle.Render("connection closed: "+m.closeErr.Error()) + "\n")
	}

	s.WriteString(helpStyle.Render("space pause/resume · r reset · q quit"))
	return s.String()
}

func appendBounded(history []float64, v float64) []float64 {
	history = append(history, v)
	if len(history) > historyCapacity {
		history = history[1:]
	}
	return history
}
