package tui

import (
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/proboscis/claude-block-checker/internal/blocks"
)

// RefreshFunc recomputes the summary shown on the dashboard.
type RefreshFunc func(ctx context.Context) (blocks.SummaryReport, error)

// Options configures the dashboard.
type Options struct {
	Refresh RefreshFunc
	// Changes signals that session logs changed; nil disables file watching.
	Changes <-chan struct{}
	// Interval re-runs the analysis even without file changes so blocks
	// expire and burn rates decay on screen.
	Interval time.Duration
	// TokenLimit scales the usage bars.
	TokenLimit int64
	Detailed   bool
}

// summaryMsg carries the result of a refresh.
type summaryMsg struct {
	summary blocks.SummaryReport
	err     error
}

// tickMsg triggers the periodic refresh.
type tickMsg struct{}

// fileChangeMsg is sent when the watcher reports new log writes.
type fileChangeMsg struct{}

// Model is the live block dashboard.
type Model struct {
	opts Options
	ctx  context.Context

	summary   blocks.SummaryReport
	hasData   bool
	err       error
	loading   bool
	detailed  bool
	refreshes int

	width  int
	height int
	help   help.Model
}

// NewModel creates the dashboard model.
func NewModel(ctx context.Context, opts Options) Model {
	if opts.Interval <= 0 {
		opts.Interval = time.Minute
	}
	return Model{
		opts:     opts,
		ctx:      ctx,
		loading:  true,
		detailed: opts.Detailed,
		help:     help.New(),
	}
}

func (m Model) refreshCmd() tea.Cmd {
	return func() tea.Msg {
		s, err := m.opts.Refresh(m.ctx)
		return summaryMsg{summary: s, err: err}
	}
}

func (m Model) tick() tea.Cmd {
	return tea.Tick(m.opts.Interval, func(time.Time) tea.Msg {
		return tickMsg{}
	})
}

func (m Model) waitForChange() tea.Cmd {
	if m.opts.Changes == nil {
		return nil
	}
	changes := m.opts.Changes
	return func() tea.Msg {
		if _, ok := <-changes; !ok {
			return nil
		}
		return fileChangeMsg{}
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.refreshCmd(), m.tick(), m.waitForChange())
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width - 4
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, keys.Refresh):
			m.loading = true
			return m, m.refreshCmd()
		case key.Matches(msg, keys.Detail):
			m.detailed = !m.detailed
			return m, nil
		case key.Matches(msg, keys.Help):
			m.help.ShowAll = !m.help.ShowAll
			return m, nil
		}
		return m, nil

	case tickMsg:
		m.loading = true
		return m, tea.Batch(m.refreshCmd(), m.tick())

	case fileChangeMsg:
		m.loading = true
		return m, tea.Batch(m.refreshCmd(), m.waitForChange())

	case summaryMsg:
		m.loading = false
		m.refreshes++
		m.err = msg.err
		if msg.err == nil {
			m.summary = msg.summary
			m.hasData = true
		}
		return m, nil
	}
	return m, nil
}

// Run starts the dashboard and blocks until the user quits or ctx ends.
func Run(ctx context.Context, opts Options) error {
	p := tea.NewProgram(NewModel(ctx, opts), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
