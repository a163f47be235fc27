package report

import (
	"math"
	"time"

	"github.com/proboscis/claude-block-checker/internal/blocks"
)

// Export is the machine-readable form of a SummaryReport.
type Export struct {
	Profiles []ProfileExport `json:"profiles"`
	Summary  SummaryExport   `json:"summary"`
}

type ProfileExport struct {
	Name              string       `json:"name"`
	ActiveBlock       *BlockExport `json:"active_block"`
	TotalTokens       int64        `json:"total_tokens"`
	TotalCost         float64      `json:"total_cost"`
	ModelsUsed        []string     `json:"models_used"`
	MinutesUntilLimit *int64       `json:"minutes_until_limit,omitempty"`
	SourceError       string       `json:"source_error,omitempty"`
	Warnings          []string     `json:"warnings,omitempty"`
	BlockCount        *int         `json:"block_count,omitempty"`
	SkippedRecords    *int         `json:"skipped_records,omitempty"`
	UnreadableFiles   *int         `json:"unreadable_files,omitempty"`
}

type BlockExport struct {
	StartTime           time.Time       `json:"start_time"`
	EndTime             time.Time       `json:"end_time"`
	IsActive            bool            `json:"is_active"`
	InputTokens         int64           `json:"input_tokens"`
	OutputTokens        int64           `json:"output_tokens"`
	CacheCreationTokens int64           `json:"cache_creation_tokens"`
	CacheReadTokens     int64           `json:"cache_read_tokens"`
	TotalTokens         int64           `json:"total_tokens"`
	TotalCost           float64         `json:"total_cost"`
	Models              []string        `json:"models"`
	EntryCount          int             `json:"entry_count"`
	BurnRate            *BurnRateExport `json:"burn_rate,omitempty"`
}

type BurnRateExport struct {
	ElapsedMinutes     int64           `json:"elapsed_minutes"`
	TokensPerMinute    int64           `json:"tokens_per_minute"`
	CostPerHour        float64         `json:"cost_per_hour"`
	ProjectedTokens    int64           `json:"projected_tokens"`
	ProjectedCost      float64         `json:"projected_cost"`
	PercentOfLimitUsed float64         `json:"percent_of_limit_used"`
	Band               blocks.Band     `json:"band"`
	TimeUntilLimit     *TimeUntilLimit `json:"time_until_limit,omitempty"`
}

type TimeUntilLimit struct {
	Minutes       int64  `json:"minutes"`
	HumanReadable string `json:"human_readable"`
}

type SummaryExport struct {
	GeneratedAt        time.Time          `json:"generated_at"`
	TotalProfiles      int                `json:"total_profiles"`
	ActiveProfiles     int                `json:"active_profiles"`
	TotalTokens        int64              `json:"total_tokens"`
	TotalCost          float64            `json:"total_cost"`
	RecommendedProfile *RecommendedExport `json:"recommended_profile,omitempty"`
}

type RecommendedExport struct {
	Name              string `json:"name"`
	MinutesUntilLimit int64  `json:"minutes_until_limit"`
}

// BuildExport converts a summary into its export tree. detailed adds block
// and skip counts per profile.
func BuildExport(s blocks.SummaryReport, detailed bool) Export {
	out := Export{
		Profiles: make([]ProfileExport, 0, len(s.Profiles)),
		Summary: SummaryExport{
			GeneratedAt:    s.GeneratedAt,
			TotalProfiles:  s.TotalProfiles,
			ActiveProfiles: s.ActiveProfiles,
			TotalTokens:    s.TotalTokens,
			TotalCost:      s.TotalCost,
		},
	}
	for _, p := range s.Profiles {
		out.Profiles = append(out.Profiles, BuildProfileExport(p, detailed))
	}
	if s.Recommended != nil {
		out.Summary.RecommendedProfile = &RecommendedExport{
			Name:              s.Recommended.Name,
			MinutesUntilLimit: wholeMinutes(s.Recommended.TimeToLimit),
		}
	}
	return out
}

// BuildProfileExport converts one profile report.
func BuildProfileExport(p blocks.ProfileReport, detailed bool) ProfileExport {
	pe := ProfileExport{
		Name:        p.Name,
		ModelsUsed:  []string{},
		SourceError: p.SourceError,
		Warnings:    p.Warnings,
	}
	if detailed {
		count, skipped, unreadable := p.BlockCount, p.SkippedRecords, p.UnreadableFiles
		pe.BlockCount = &count
		pe.SkippedRecords = &skipped
		pe.UnreadableFiles = &unreadable
	}
	if p.Active == nil {
		return pe
	}

	a := p.Active
	pe.TotalTokens = a.Usage.TotalTokens
	pe.TotalCost = a.Usage.TotalCost
	pe.ModelsUsed = a.Usage.Models
	pe.ActiveBlock = &BlockExport{
		StartTime:           a.Block.StartTime,
		EndTime:             a.Block.EndTime,
		IsActive:            true,
		InputTokens:         a.Usage.InputTokens,
		OutputTokens:        a.Usage.OutputTokens,
		CacheCreationTokens: a.Usage.CacheWriteTokens,
		CacheReadTokens:     a.Usage.CacheReadTokens,
		TotalTokens:         a.Usage.TotalTokens,
		TotalCost:           a.Usage.TotalCost,
		Models:              a.Usage.Models,
		EntryCount:          a.Usage.RecordCount,
		BurnRate:            burnRate(a.Projection),
	}
	if ttl := a.Projection.TimeToLimit; ttl != nil {
		m := wholeMinutes(*ttl)
		pe.MinutesUntilLimit = &m
	}
	return pe
}

func burnRate(p blocks.Projection) *BurnRateExport {
	br := &BurnRateExport{
		ElapsedMinutes:     int64(math.Floor(p.ElapsedMinutes)),
		TokensPerMinute:    int64(math.Floor(p.TokensPerMinute)),
		CostPerHour:        p.CostPerHour,
		ProjectedTokens:    int64(math.Floor(p.ProjectedTotalTokens)),
		ProjectedCost:      p.ProjectedCost,
		PercentOfLimitUsed: p.PercentOfLimitUsed,
		Band:               p.Band,
	}
	if p.TimeToLimit != nil {
		br.TimeUntilLimit = &TimeUntilLimit{
			Minutes:       wholeMinutes(*p.TimeToLimit),
			HumanReadable: FormatDuration(*p.TimeToLimit),
		}
	}
	return br
}

func wholeMinutes(d time.Duration) int64 {
	return int64(d / time.Minute)
}
