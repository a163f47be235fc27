package app

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/proboscis/claude-block-checker/internal/blocks"
)

// RefreshHook observes every completed refresh. summary is the zero value
// when err is set.
type RefreshHook func(summary blocks.SummaryReport, took time.Duration, err error)

// Monitor keeps the latest summary of every profile for the long-running
// modes. Refreshes are serialized; readers never block on a refresh.
type Monitor struct {
	checker *Checker
	logger  zerolog.Logger

	refreshMu sync.Mutex

	mu      sync.RWMutex
	latest  blocks.SummaryReport
	ok      bool
	lastErr error
	hooks   []RefreshHook
}

// NewMonitor wraps checker.
func NewMonitor(checker *Checker, logger zerolog.Logger) *Monitor {
	return &Monitor{checker: checker, logger: logger}
}

// Checker returns the underlying checker.
func (m *Monitor) Checker() *Checker {
	return m.checker
}

// OnRefresh registers a hook run after each refresh, in registration order.
func (m *Monitor) OnRefresh(hook RefreshHook) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hooks = append(m.hooks, hook)
}

// Refresh recomputes the summary. On failure the previous summary is kept.
func (m *Monitor) Refresh(ctx context.Context) (blocks.SummaryReport, error) {
	m.refreshMu.Lock()
	defer m.refreshMu.Unlock()

	start := time.Now()
	summary, err := m.checker.Check(ctx, "")
	took := time.Since(start)

	m.mu.Lock()
	m.lastErr = err
	if err == nil {
		m.latest = summary
		m.ok = true
	}
	hooks := append([]RefreshHook(nil), m.hooks...)
	m.mu.Unlock()

	if err != nil {
		m.logger.Warn().Err(err).Msg("refresh failed")
	} else {
		m.logger.Info().
			Int("profiles", summary.TotalProfiles).
			Int("active", summary.ActiveProfiles).
			Dur("took", took).
			Msg("summary refreshed")
	}
	for _, hook := range hooks {
		hook(summary, took, err)
	}
	return summary, err
}

// Latest returns the most recent successful summary.
func (m *Monitor) Latest() (blocks.SummaryReport, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.latest, m.ok
}

// LastError returns the error of the most recent refresh, if any.
func (m *Monitor) LastError() error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastErr
}

// ActiveBlockEnds returns the end time of every active block in s.
func ActiveBlockEnds(s blocks.SummaryReport) []time.Time {
	var ends []time.Time
	for _, p := range s.Profiles {
		if p.Active != nil {
			ends = append(ends, p.Active.Block.EndTime)
		}
	}
	return ends
}
