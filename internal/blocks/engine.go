package blocks

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// Source is the fully loaded raw input of one profile.
type Source struct {
	Profile string
	Entries []RawEntry
	// Undecodable counts lines that were not valid JSON.
	Undecodable int
	// UnreadableFiles counts log files that could not be opened or read.
	UnreadableFiles int
	// Err is set when the profile's logs could not be read.
	Err error
}

// Engine turns profile sources into a SummaryReport. It holds no mutable
// state and is safe for concurrent use.
type Engine struct {
	prices   Prices
	settings Settings
	logger   zerolog.Logger
}

// NewEngine validates the settings and returns an engine.
func NewEngine(prices Prices, settings Settings, logger zerolog.Logger) (*Engine, error) {
	if prices == nil {
		return nil, fmt.Errorf("pricing table is required")
	}
	if err := settings.Validate(); err != nil {
		return nil, fmt.Errorf("invalid settings: %w", err)
	}
	return &Engine{prices: prices, settings: settings, logger: logger}, nil
}

// Settings returns the settings the engine was built with.
func (e *Engine) Settings() Settings {
	return e.settings
}

// Run analyses every source on a bounded worker pool and assembles the
// summary. Profiles come back ordered by name. The only error is ctx's.
func (e *Engine) Run(ctx context.Context, sources []Source, now time.Time) (SummaryReport, error) {
	ordered := slices.Clone(sources)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Profile < ordered[j].Profile })

	reports := make([]ProfileReport, len(ordered))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(e.settings.workers())
	for i := range ordered {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			reports[i] = e.AnalyzeProfile(ordered[i], now)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return SummaryReport{}, err
	}
	return Summarize(reports, now), nil
}

// AnalyzeProfile runs the sequential pipeline for one profile:
// normalize, order, reconstruct, aggregate and project.
func (e *Engine) AnalyzeProfile(src Source, now time.Time) ProfileReport {
	log := e.logger.With().Str("profile", src.Profile).Logger()
	report := ProfileReport{
		Name:            src.Profile,
		SkippedRecords:  src.Undecodable,
		UnreadableFiles: src.UnreadableFiles,
	}

	if src.Err != nil {
		log.Warn().Err(src.Err).Msg("profile source unreadable")
		report.SourceError = src.Err.Error()
		return report
	}

	records := make([]UsageRecord, 0, len(src.Entries))
	for _, raw := range src.Entries {
		rec, err := Normalize(raw, e.settings.MaxSchemaMajor)
		if err != nil {
			report.SkippedRecords++
			log.Debug().Err(err).Msg("skipping entry")
			continue
		}
		records = append(records, rec)
	}
	if src.UnreadableFiles > 0 {
		report.Warnings = append(report.Warnings,
			fmt.Sprintf("%d log files could not be read", src.UnreadableFiles))
	}
	slices.SortStableFunc(records, func(a, b UsageRecord) int {
		return a.Timestamp.Compare(b.Timestamp)
	})

	blocks := Reconstruct(records, now, e.settings)
	report.BlockCount = len(blocks)

	active, ok := ActiveBlockOf(blocks, now)
	if !ok {
		return report
	}
	usage := Aggregate(active.Records, e.prices, e.settings.CostMode)
	if len(usage.UnknownModels) > 0 {
		log.Warn().Strs("models", usage.UnknownModels).Msg("unknown models priced at zero")
		report.Warnings = append(report.Warnings,
			"unknown models priced at zero: "+strings.Join(usage.UnknownModels, ", "))
	}
	report.Active = &ActiveBlock{
		Block:      active,
		Usage:      usage,
		Projection: Project(active, usage, now, e.settings),
	}
	return report
}

// Summarize computes the cross-profile totals and recommendation for
// reports already in display order.
func Summarize(reports []ProfileReport, now time.Time) SummaryReport {
	summary := SummaryReport{
		GeneratedAt:   now,
		Profiles:      reports,
		TotalProfiles: len(reports),
	}
	cost := decimal.Zero
	for _, r := range lo.Filter(reports, func(r ProfileReport, _ int) bool { return r.HasActiveBlock() }) {
		summary.ActiveProfiles++
		summary.TotalTokens += r.Active.Usage.TotalTokens
		cost = cost.Add(decimal.NewFromFloat(r.Active.Usage.TotalCost))
	}
	summary.TotalCost = cost.InexactFloat64()
	summary.Recommended = Recommend(reports)
	return summary
}
