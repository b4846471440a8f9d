package dashboard

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/time/rate"

	"github.com/rileyhilliard/termdash/internal/counters"
	"github.com/rileyhilliard/termdash/internal/snapshot"
)

// Reader is the data the dashboard renders. *snapshot.Facade implements it.
type Reader interface {
	Frame(topN int) snapshot.Frame
	Branch() string
}

// Options tune the refresh cadence and layout.
type Options struct {
	// Refresh is the tick between frame reads.
	Refresh time.Duration

	// TopN is the number of rows in the process table.
	TopN int

	// BranchThrottle is the minimum gap between branch reads.
	BranchThrottle time.Duration

	// Clock stamps frames. Defaults to time.Now.
	Clock func() time.Time
}

const (
	DefaultRefresh        = 500 * time.Millisecond
	DefaultTopN           = 5
	DefaultBranchThrottle = 5 * time.Second
)

func (o Options) withDefaults() Options {
	if o.Refresh <= 0 {
		o.Refresh = DefaultRefresh
	}
	if o.TopN <= 0 {
		o.TopN = DefaultTopN
	}
	if o.BranchThrottle <= 0 {
		o.BranchThrottle = DefaultBranchThrottle
	}
	if o.Clock == nil {
		o.Clock = time.Now
	}
	return o
}

// Model is the Bubble Tea model for the dashboard.
type Model struct {
	reader      Reader
	opts        Options
	keys        KeyMap
	help        help.Model
	spinner     spinner.Model
	procs       table.Model
	history     *History
	branchEvery *rate.Sometimes

	frame      snapshot.Frame
	hasFrame   bool
	branch     string
	lastUpdate time.Time

	width    int
	height   int
	paused   bool
	reading  bool
	quitting bool
}

// tickMsg signals a periodic refresh.
type tickMsg time.Time

// frameMsg carries a completed frame read.
type frameMsg struct {
	frame snapshot.Frame
	at    time.Time
}

// branchMsg carries a completed branch read.
type branchMsg string

// NewModel creates a dashboard reading from r.
func NewModel(r Reader, opts Options) Model {
	opts = opts.withDefaults()

	return Model{
		reader:      r,
		opts:        opts,
		keys:        DefaultKeyMap(),
		help:        help.New(),
		spinner:     spinner.New(spinner.WithSpinner(spinner.MiniDot), spinner.WithStyle(MutedStyle)),
		procs:       newProcessTable(opts.TopN),
		history:     NewHistory(DefaultHistorySize),
		branchEvery: &rate.Sometimes{Interval: opts.BranchThrottle},
		// Init always issues the first read.
		reading: true,
	}
}

// Init reads the first frame and starts the tick timer.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.readFrameCmd(), m.tickCmd(), m.spinner.Tick}
	m.branchEvery.Do(func() { cmds = append(cmds, m.readBranchCmd()) })
	return tea.Batch(cmds...)
}

// Update handles messages and updates the model state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case tickMsg:
		cmds := []tea.Cmd{m.tickCmd()}
		if m.paused {
			return m, tea.Batch(cmds...)
		}
		if !m.reading {
			m.reading = true
			cmds = append(cmds, m.readFrameCmd())
		}
		m.branchEvery.Do(func() { cmds = append(cmds, m.readBranchCmd()) })
		return m, tea.Batch(cmds...)

	case frameMsg:
		m.reading = false
		m.applyFrame(msg.frame, msg.at)
		return m, nil

	case branchMsg:
		m.branch = string(msg)
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil

	case key.Matches(msg, m.keys.Pause):
		m.paused = !m.paused
		return m, nil

	case key.Matches(msg, m.keys.Refresh):
		// Branch reads are forced here; the throttle only covers ticks.
		cmds := []tea.Cmd{m.readBranchCmd()}
		if !m.reading {
			m.reading = true
			cmds = append(cmds, m.readFrameCmd())
		}
		return m, tea.Batch(cmds...)
	}
	return m, nil
}

// View renders the dashboard.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	return m.renderDashboard()
}

func (m Model) tickCmd() tea.Cmd {
	return tea.Tick(m.opts.Refresh, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m Model) readFrameCmd() tea.Cmd {
	r, topN, clock := m.reader, m.opts.TopN, m.opts.Clock
	return func() tea.Msg {
		return frameMsg{frame: r.Frame(topN), at: clock()}
	}
}

func (m Model) readBranchCmd() tea.Cmd {
	r := m.reader
	return func() tea.Msg {
		return branchMsg(r.Branch())
	}
}

func (m *Model) applyFrame(f snapshot.Frame, at time.Time) {
	m.frame = f
	m.hasFrame = true
	m.lastUpdate = at

	m.history.Push(SeriesCPU, f.CPULoad*100)
	m.history.Push(SeriesMemory, f.Memory.UsedRatio()*100)
	m.history.Push(SeriesDownload, f.Download)
	m.history.Push(SeriesUpload, f.Upload)

	m.procs.SetRows(processRows(f.TopProcesses))
}

// Paused reports whether polling is suspended.
func (m Model) Paused() bool { return m.paused }

// Branch returns the last branch read.
func (m Model) Branch() string { return m.branch }

// Frame returns the last frame read and whether one has arrived yet.
func (m Model) Frame() (snapshot.Frame, bool) { return m.frame, m.hasFrame }

func newProcessTable(rows int) table.Model {
	t := table.New(
		table.WithColumns([]table.Column{
			{Title: "PID", Width: 6},
			{Title: "NAME", Width: 14},
			{Title: "CPU%", Width: 6},
		}),
		table.WithFocused(false),
		table.WithHeight(rows+1),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderForeground(ColorBorder).
		BorderBottom(true).
		Bold(true).
		Foreground(ColorTextSecondary)
	s.Cell = s.Cell.
		Foreground(ColorTextPrimary)
	// Nothing is selectable, so the selected row looks like the others.
	s.Selected = s.Cell

	t.SetStyles(s)
	return t
}

func processRows(procs []counters.ProcessUsage) []table.Row {
	rows := make([]table.Row, 0, len(procs))
	for _, p := range procs {
		rows = append(rows, table.Row{
			fmt.Sprintf("%d", p.PID),
			p.Name,
			fmt.Sprintf("%.1f", p.Percent),
		})
	}
	return rows
}
