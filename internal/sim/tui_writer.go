// Live fleet TUI rendered with bubbletea
package sim

import (
	"fmt"
	"os"
	"sort"
	"sync/atomic"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"github.com/PepelaJohn/luna-app-telemetry/internal/config"
	"github.com/PepelaJohn/luna-app-telemetry/internal/geo"
	"github.com/PepelaJohn/luna-app-telemetry/internal/telemetry"
)

const tuiMaxLogLines = 200

// teaProgram abstracts bubbletea.Program for testing.
type teaProgram interface {
	Send(tea.Msg)
}

// recordMsg carries one telemetry record into the TUI model.
type recordMsg struct{ telemetry.Record }

var (
	tuiTitleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15")).Background(lipgloss.Color("57")).Padding(0, 1)
	tuiBorderStyle = lipgloss.NewStyle().BorderStyle(lipgloss.NormalBorder()).BorderForeground(lipgloss.Color("240"))
	tuiLowBattery  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	tuiOkBattery   = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
)

// TUIWriter renders telemetry using a bubbletea program.
type TUIWriter struct {
	program    teaProgram
	done       chan struct{}
	sendSignal atomic.Bool
}

// NewTUIWriter starts the bubbletea program and returns a TUIWriter. When
// the operator quits the TUI, the process receives an interrupt so the
// simulator shuts down with it.
func NewTUIWriter(cfg *config.SimulationConfig) *TUIWriter {
	w := &TUIWriter{done: make(chan struct{})}
	w.sendSignal.Store(true)
	p := tea.NewProgram(newTUIModel(cfg), tea.WithAltScreen())
	w.program = p
	go func() {
		_, _ = p.Run()
		close(w.done)
		if w.sendSignal.Load() {
			if proc, err := os.FindProcess(os.Getpid()); err == nil {
				_ = proc.Signal(os.Interrupt)
			}
		}
	}()
	return w
}

// Write implements TelemetryWriter.
func (w *TUIWriter) Write(rec telemetry.Record) error {
	w.program.Send(recordMsg{rec})
	return nil
}

// WriteBatch implements batch mode.
func (w *TUIWriter) WriteBatch(recs []telemetry.Record) error {
	for _, r := range recs {
		_ = w.Write(r)
	}
	return nil
}

// Done reports when the TUI has exited.
func (w *TUIWriter) Done() <-chan struct{} {
	return w.done
}

type tuiModel struct {
	cfg    *config.SimulationConfig
	bases  map[string]telemetry.Position
	latest map[string]telemetry.Record
	lines  []string

	tbl   table.Model
	vp    viewport.Model
	ready bool
	width int
}

func newTUIModel(cfg *config.SimulationConfig) tuiModel {
	bases := make(map[string]telemetry.Position)
	for _, d := range cfg.Drones {
		bases[d.ID] = telemetry.Position{Lat: d.BaseLat, Lng: d.BaseLng}
	}
	cols := []table.Column{
		{Title: "Drone", Width: 24},
		{Title: "Status", Width: 12},
		{Title: "Battery", Width: 8},
		{Title: "Speed", Width: 8},
		{Title: "Alt", Width: 6},
		{Title: "From base", Width: 10},
	}
	tbl := table.New(table.WithColumns(cols), table.WithHeight(len(cfg.Drones)+1))
	return tuiModel{
		cfg:    cfg,
		bases:  bases,
		latest: make(map[string]telemetry.Record),
		tbl:    tbl,
	}
}

func (m tuiModel) Init() tea.Cmd {
	return nil
}

func (m tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.width = msg.Width
		logHeight := msg.Height - m.tbl.Height() - 6
		if logHeight < 3 {
			logHeight = 3
		}
		if !m.ready {
			m.vp = viewport.New(msg.Width-2, logHeight)
			m.ready = true
		} else {
			m.vp.Width = msg.Width - 2
			m.vp.Height = logHeight
		}
		m.refresh()
	case recordMsg:
		m.latest[msg.DroneID] = msg.Record
		m.lines = append(m.lines, formatLogLine(msg.Record))
		if len(m.lines) > tuiMaxLogLines {
			m.lines = m.lines[len(m.lines)-tuiMaxLogLines:]
		}
		m.refresh()
	}
	return m, nil
}

func (m *tuiModel) refresh() {
	ids := make([]string, 0, len(m.latest))
	for id := range m.latest {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	rows := make([]table.Row, 0, len(ids))
	for _, id := range ids {
		rec := m.latest[id]
		battery := fmt.Sprintf("%.1f%%", rec.Battery)
		if rec.Battery <= 25 {
			battery = tuiLowBattery.Render(battery)
		} else {
			battery = tuiOkBattery.Render(battery)
		}
		fromBase := "-"
		if base, ok := m.bases[id]; ok {
			meters := geo.HaversineMeters(base.Lat, base.Lng, rec.Lat, rec.Lng)
			fromBase = fmt.Sprintf("%.1f km", meters/1000)
		}
		rows = append(rows, table.Row{
			id,
			string(rec.Status),
			battery,
			fmt.Sprintf("%.1f", rec.SpeedKmh),
			fmt.Sprintf("%.0f", rec.AltitudeM),
			fromBase,
		})
	}
	m.tbl.SetRows(rows)

	if m.ready {
		width := m.vp.Width
		if width <= 0 {
			width = 80
		}
		var body string
		for _, l := range m.lines {
			body += wordwrap.String(l, width) + "\n"
		}
		m.vp.SetContent(body)
		m.vp.GotoBottom()
	}
}

func (m tuiModel) View() string {
	if !m.ready {
		return "starting..."
	}
	title := tuiTitleStyle.Render("luna delivery fleet")
	help := lipgloss.NewStyle().Faint(true).Render("q: quit")
	return lipgloss.JoinVertical(lipgloss.Left,
		title,
		tuiBorderStyle.Render(m.tbl.View()),
		tuiBorderStyle.Render(m.vp.View()),
		help,
	)
}

func formatLogLine(rec telemetry.Record) string {
	return fmt.Sprintf("[%s] %s status=%s batt=%.1f temp=%.1f hum=%.1f spd=%.1f alt=%.0f pos=(%.6f,%.6f)",
		rec.Timestamp.Format("15:04:05"), rec.DroneID, rec.Status, rec.Battery,
		rec.TemperatureC, rec.Humidity, rec.SpeedKmh, rec.AltitudeM, rec.Lat, rec.Lng)
}
