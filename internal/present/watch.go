package present

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/joeycumines/crew-scheduler/internal/sim"
)

type stepMsg time.Time

// WatchOption configures a WatchModel.
type WatchOption func(*WatchModel)

// WithInterval sets the wall-clock time between steps.
func WithInterval(d time.Duration) WatchOption {
	return func(m *WatchModel) {
		if d > 0 {
			m.interval = d
		}
	}
}

// WithDelta sets the simulated seconds per step.
func WithDelta(dt float64) WatchOption {
	return func(m *WatchModel) {
		if dt > 0 {
			m.dt = dt
		}
	}
}

// WithMaxTicks stops stepping after n ticks; 0 runs until quit.
func WithMaxTicks(n int) WatchOption {
	return func(m *WatchModel) { m.maxTicks = n }
}

// WithContext bounds every step by ctx.
func WithContext(ctx context.Context) WatchOption {
	return func(m *WatchModel) { m.ctx = ctx }
}

// WatchModel is a bubbletea model stepping a simulation on a timer and
// rendering every frame.
//
// Keys: q quits, space pauses, n steps once while paused, up/down (or k/j)
// move the highlighted agent.
type WatchModel struct {
	sim      *sim.Simulation
	ctx      context.Context
	styles   Styles
	interval time.Duration
	dt       float64
	maxTicks int

	frame  Frame
	cursor int
	offset int
	height int
	paused bool
	err    error
}

// NewWatchModel creates a model for s, showing its initial state.
func NewWatchModel(s *sim.Simulation, opts ...WatchOption) WatchModel {
	m := WatchModel{
		sim:      s,
		ctx:      context.Background(),
		styles:   DefaultStyles(),
		interval: 500 * time.Millisecond,
		dt:       1,
	}
	for _, opt := range opts {
		opt(&m)
	}
	m.frame = Snapshot(s, sim.TickReport{Seq: s.Seq(), Elapsed: s.Elapsed()})
	return m
}

// Init implements tea.Model.
func (m WatchModel) Init() tea.Cmd {
	return m.schedule()
}

func (m WatchModel) schedule() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg { return stepMsg(t) })
}

// Update implements tea.Model.
func (m WatchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case " ", "space":
			m.paused = !m.paused
		case "n":
			if m.paused {
				m.step()
			}
		case "up", "k":
			m.cursor = max(0, m.cursor-1)
		case "down", "j":
			m.cursor = max(0, min(len(m.frame.Rows)-1, m.cursor+1))
		}
		m.follow()
		return m, nil
	case tea.WindowSizeMsg:
		m.height = msg.Height
		m.follow()
		return m, nil
	case stepMsg:
		if !m.paused && !m.Done() {
			m.step()
		}
		return m, m.schedule()
	}
	return m, nil
}

func (m *WatchModel) step() {
	if m.Done() {
		return
	}
	r, err := m.sim.Tick(m.ctx, m.dt)
	if err != nil && r.Seq == 0 {
		m.err = err
		return
	}
	m.err = err
	m.frame = Snapshot(m.sim, r)
	m.cursor = max(0, min(len(m.frame.Rows)-1, m.cursor))
	m.follow()
}

// follow scrolls the window so the cursor stays visible.
func (m *WatchModel) follow() {
	visible := m.visibleRows()
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+visible {
		m.offset = m.cursor - visible + 1
	}
}

// visibleRows leaves room for the title, header, alerts and help line.
func (m WatchModel) visibleRows() int {
	if m.height <= 0 {
		return len(m.frame.Rows)
	}
	return max(1, m.height-6)
}

// Done reports whether the configured tick budget is spent.
func (m WatchModel) Done() bool {
	return m.maxTicks > 0 && m.sim.Seq() >= uint64(m.maxTicks)
}

// Frame returns the latest frame.
func (m WatchModel) Frame() Frame { return m.frame }

// Selected returns the id of the highlighted agent.
func (m WatchModel) Selected() string {
	if m.cursor < len(m.frame.Rows) {
		return m.frame.Rows[m.cursor].ID
	}
	return ""
}

// View implements tea.Model.
func (m WatchModel) View() string {
	end := BeginFrame(m.Selected())
	defer end()

	s := m.styles.RenderWindow(m.frame, m.offset, m.visibleRows())
	if m.err != nil {
		s += "\n" + m.styles.Alert.Render(m.err.Error())
	}
	status := "running"
	switch {
	case m.Done():
		status = "finished"
	case m.paused:
		status = "paused"
	}
	return s + "\n" + m.styles.Dim.Render(status+"  q quit  space pause  n step  ↑/↓ select")
}
