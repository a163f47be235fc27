package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/samber/lo"

	"github.com/proboscis/claude-block-checker/internal/blocks"
	"github.com/proboscis/claude-block-checker/internal/config"
	"github.com/proboscis/claude-block-checker/internal/profiles"
)

var (
	// ErrNoProfiles is returned when the profiles directory has no profiles.
	ErrNoProfiles = errors.New("no profiles found")
	// ErrAllSourcesUnreadable is returned when no profile's logs could be read.
	ErrAllSourcesUnreadable = errors.New("no profile logs could be read")
)

// Checker loads profile logs from disk and runs the block engine over them.
type Checker struct {
	cfg    *config.Config
	engine *blocks.Engine
	loader *profiles.Loader
	logger zerolog.Logger

	// Now is the clock used for every run.
	Now func() time.Time
}

// NewChecker builds the engine and loader described by cfg. cache may be
// nil for one-shot commands.
func NewChecker(cfg *config.Config, cache *profiles.FileCache, logger zerolog.Logger) (*Checker, error) {
	prices, err := cfg.Pricing()
	if err != nil {
		return nil, fmt.Errorf("load pricing: %w", err)
	}
	engine, err := blocks.NewEngine(prices, cfg.Settings(), logger)
	if err != nil {
		return nil, err
	}
	return &Checker{
		cfg:    cfg,
		engine: engine,
		loader: profiles.NewLoader(cache, cfg.Workers, logger),
		logger: logger,
		Now:    time.Now,
	}, nil
}

// Config returns the configuration the checker was built from.
func (c *Checker) Config() *config.Config {
	return c.cfg
}

// Settings returns the engine settings in effect.
func (c *Checker) Settings() blocks.Settings {
	return c.engine.Settings()
}

// Profiles lists the profiles under the configured directory.
func (c *Checker) Profiles() ([]profiles.Profile, error) {
	all, err := profiles.Discover(c.cfg.ProfilesDir)
	if err != nil {
		return nil, err
	}
	if len(all) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoProfiles, c.cfg.ProfilesDir)
	}
	return all, nil
}

// Check analyses the named profile, or every profile when name is empty.
func (c *Checker) Check(ctx context.Context, name string) (blocks.SummaryReport, error) {
	var selected []profiles.Profile
	if name == "" {
		all, err := c.Profiles()
		if err != nil {
			return blocks.SummaryReport{}, err
		}
		selected = all
	} else {
		p, err := profiles.Find(c.cfg.ProfilesDir, name)
		if err != nil {
			return blocks.SummaryReport{}, err
		}
		selected = []profiles.Profile{p}
	}
	return c.analyze(ctx, selected)
}

func (c *Checker) analyze(ctx context.Context, selected []profiles.Profile) (blocks.SummaryReport, error) {
	sources, err := c.loader.LoadAll(ctx, selected)
	if err != nil {
		return blocks.SummaryReport{}, err
	}
	if unreadable := lo.Filter(sources, func(s blocks.Source, _ int) bool { return s.Err != nil }); len(unreadable) == len(sources) {
		return blocks.SummaryReport{}, fmt.Errorf("%w: %s: %w", ErrAllSourcesUnreadable, unreadable[0].Profile, unreadable[0].Err)
	}

	summary, err := c.engine.Run(ctx, sources, c.Now().UTC())
	if err != nil {
		return blocks.SummaryReport{}, err
	}
	c.logger.Debug().
		Int("profiles", summary.TotalProfiles).
		Int("active", summary.ActiveProfiles).
		Msg("analysis complete")
	return summary, nil
}
