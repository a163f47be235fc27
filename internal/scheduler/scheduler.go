package scheduler

import (
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// Reason says why a refresh was triggered.
type Reason string

const (
	ReasonPeriodic  Reason = "periodic"
	ReasonBlockEnd  Reason = "block_end"
	ReasonFileEvent Reason = "file_event"
)

// TriggerFunc is called whenever a schedule fires.
type TriggerFunc func(reason Reason)

// Scheduler drives summary refreshes: a cron expression for the periodic
// recompute, plus one-shot timers at the end of each active block so a
// block flips to inactive without waiting for the next tick.
type Scheduler struct {
	spec    string
	trigger TriggerFunc
	logger  zerolog.Logger

	mu     sync.Mutex
	cron   *cron.Cron
	timers map[time.Time]*time.Timer
}

// Validate reports whether spec is a schedule cron.New() accepts,
// including descriptors such as "@every 30s".
func Validate(spec string) error {
	if _, err := cron.ParseStandard(spec); err != nil {
		return fmt.Errorf("invalid schedule %q: %w", spec, err)
	}
	return nil
}

// New creates a scheduler that calls trigger on every firing of spec.
func New(spec string, trigger TriggerFunc, logger zerolog.Logger) (*Scheduler, error) {
	if err := Validate(spec); err != nil {
		return nil, err
	}
	return &Scheduler{
		spec:    spec,
		trigger: trigger,
		logger:  logger,
		timers:  make(map[time.Time]*time.Timer),
	}, nil
}

// Start registers the periodic schedule and begins dispatching it.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cron != nil {
		return fmt.Errorf("scheduler already started")
	}
	c := cron.New()
	if _, err := c.AddFunc(s.spec, func() { s.trigger(ReasonPeriodic) }); err != nil {
		return fmt.Errorf("register schedule %q: %w", s.spec, err)
	}
	c.Start()
	s.cron = c
	s.logger.Info().Str("schedule", s.spec).Msg("scheduler started")
	return nil
}

// Stop cancels pending block-end timers and waits for a running periodic
// job to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	for at, t := range s.timers {
		t.Stop()
		delete(s.timers, at)
	}
	c := s.cron
	s.cron = nil
	s.mu.Unlock()

	// A running job may call back into ExpireAt, so wait without the lock.
	if c != nil {
		<-c.Stop().Done()
	}
	s.logger.Info().Msg("scheduler stopped")
}

// ExpireAt replaces the pending block-end timers with one per distinct
// future instant in ends. Past instants are ignored.
func (s *Scheduler) ExpireAt(ends []time.Time, now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	want := make(map[time.Time]struct{}, len(ends))
	for _, at := range ends {
		if at.After(now) {
			want[at.UTC()] = struct{}{}
		}
	}
	for at, t := range s.timers {
		if _, ok := want[at]; !ok {
			t.Stop()
			delete(s.timers, at)
		}
	}
	for at := range want {
		if _, ok := s.timers[at]; ok {
			continue
		}
		delay := at.Sub(now)
		s.timers[at] = time.AfterFunc(delay, func() {
			s.mu.Lock()
			delete(s.timers, at)
			s.mu.Unlock()
			s.logger.Debug().Time("block_end", at).Msg("block ended")
			s.trigger(ReasonBlockEnd)
		})
		s.logger.Debug().Time("block_end", at).Dur("in", delay.Round(time.Second)).Msg("registered block-end refresh")
	}
}

// Pending returns the number of block-end timers waiting to fire.
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}
