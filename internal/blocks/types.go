package blocks

import "time"

// UsageRecord is one normalized usage event from a Claude Code JSONL log.
type UsageRecord struct {
	Timestamp        time.Time `json:"timestamp"`
	Model            string    `json:"model"`
	InputTokens      int64     `json:"inputTokens"`
	OutputTokens     int64     `json:"outputTokens"`
	CacheWriteTokens int64     `json:"cacheWriteTokens"`
	CacheReadTokens  int64     `json:"cacheReadTokens"`
	// CostUSD is the cost recorded by Claude Code itself, nil when absent.
	CostUSD *float64 `json:"costUsd,omitempty"`
}

// TotalTokens returns the sum of all four token categories.
func (r UsageRecord) TotalTokens() int64 {
	return r.InputTokens + r.OutputTokens + r.CacheWriteTokens + r.CacheReadTokens
}

// Block is a fixed-length billing window anchored at its first record.
type Block struct {
	StartTime time.Time     `json:"startTime"`
	EndTime   time.Time     `json:"endTime"`
	Records   []UsageRecord `json:"-"`
	IsActive  bool          `json:"isActive"`
}

// Contains reports whether t falls inside [StartTime, EndTime).
func (b Block) Contains(t time.Time) bool {
	return !t.Before(b.StartTime) && t.Before(b.EndTime)
}

// ActiveAt reports whether the block is still open at now.
func (b Block) ActiveAt(now time.Time) bool {
	return b.Contains(now)
}

// AggregatedUsage holds the token and cost totals of one block.
type AggregatedUsage struct {
	InputTokens      int64    `json:"inputTokens"`
	OutputTokens     int64    `json:"outputTokens"`
	CacheWriteTokens int64    `json:"cacheWriteTokens"`
	CacheReadTokens  int64    `json:"cacheReadTokens"`
	TotalTokens      int64    `json:"totalTokens"`
	TotalCost        float64  `json:"totalCost"`
	Models           []string `json:"models"`
	RecordCount      int      `json:"recordCount"`
	UnknownModels    []string `json:"unknownModels,omitempty"`
}

// Band classifies the remaining headroom of an active block.
type Band string

const (
	BandAmple    Band = "ample"
	BandWarning  Band = "warning"
	BandCritical Band = "critical"
	BandUnknown  Band = "unknown"
)

// Projection is the burn-rate view of an active block at a point in time.
type Projection struct {
	ElapsedMinutes       float64        `json:"elapsedMinutes"`
	TokensPerMinute      float64        `json:"tokensPerMinute"`
	CostPerHour          float64        `json:"costPerHour"`
	ProjectedTotalTokens float64        `json:"projectedTotalTokens"`
	ProjectedCost        float64        `json:"projectedCost"`
	TimeToLimit          *time.Duration `json:"timeToLimit,omitempty"`
	PercentOfLimitUsed   float64        `json:"percentOfLimitUsed"`
	Band                 Band           `json:"band"`
}

// ActiveBlock bundles the current block of a profile with its derived data.
type ActiveBlock struct {
	Block      Block           `json:"block"`
	Usage      AggregatedUsage `json:"usage"`
	Projection Projection      `json:"projection"`
}

// ProfileReport is the engine's result for a single profile.
type ProfileReport struct {
	Name            string       `json:"name"`
	Active          *ActiveBlock `json:"activeBlock,omitempty"`
	BlockCount      int          `json:"blockCount"`
	SkippedRecords  int          `json:"skippedRecords"`
	UnreadableFiles int          `json:"unreadableFiles"`
	SourceError     string       `json:"sourceError,omitempty"`
	Warnings        []string     `json:"warnings,omitempty"`
}

// HasActiveBlock reports whether the profile currently has an open block.
func (p ProfileReport) HasActiveBlock() bool {
	return p.Active != nil
}

// TimeToLimit returns the active block's headroom, if one can be estimated.
func (p ProfileReport) TimeToLimit() (time.Duration, bool) {
	if p.Active == nil || p.Active.Projection.TimeToLimit == nil {
		return 0, false
	}
	return *p.Active.Projection.TimeToLimit, true
}

// Recommendation points at the profile with the most headroom.
type Recommendation struct {
	Index       int           `json:"-"`
	Name        string        `json:"name"`
	TimeToLimit time.Duration `json:"timeToLimit"`
}

// SummaryReport is everything one analysis pass produces.
type SummaryReport struct {
	GeneratedAt    time.Time       `json:"generatedAt"`
	Profiles       []ProfileReport `json:"profiles"`
	Recommended    *Recommendation `json:"recommended,omitempty"`
	TotalProfiles  int             `json:"totalProfiles"`
	ActiveProfiles int             `json:"activeProfiles"`
	TotalTokens    int64           `json:"totalTokens"`
	TotalCost      float64         `json:"totalCost"`
}

// RecommendedProfile returns the report the recommendation refers to.
func (s SummaryReport) RecommendedProfile() (ProfileReport, bool) {
	if s.Recommended == nil || s.Recommended.Index < 0 || s.Recommended.Index >= len(s.Profiles) {
		return ProfileReport{}, false
	}
	return s.Profiles[s.Recommended.Index], true
}
