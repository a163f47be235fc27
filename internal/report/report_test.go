package report

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/proboscis/claude-block-checker/internal/blocks"
	"github.com/proboscis/claude-block-checker/internal/pricing"
)

var start = time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

func entry(at time.Time, model string, in, out, cacheWrite int64) blocks.RawEntry {
	return blocks.RawEntry{
		Timestamp: at.Format(time.RFC3339),
		Message: &blocks.RawMessage{Model: model, Usage: &blocks.RawUsage{
			InputTokens: &in, OutputTokens: &out, CacheCreationTokens: &cacheWrite,
		}},
	}
}

func sampleSummary(t *testing.T) blocks.SummaryReport {
	t.Helper()
	e, err := blocks.NewEngine(pricing.Default(), blocks.DefaultSettings(), zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}
	sources := []blocks.Source{
		{Profile: "work", Entries: []blocks.RawEntry{
			entry(start.Add(10*time.Minute), "claude-sonnet-4-20250514", 45_320, 12_850, 0),
		}},
		{Profile: "personal", Entries: []blocks.RawEntry{
			entry(start, "claude-opus-4-20250514", 1_000_000, 100_000, 2_000),
		}},
		{Profile: "idle"},
		{Profile: "broken", Err: errTest("permission denied")},
	}
	s, err := e.Run(context.Background(), sources, start.Add(90*time.Minute))
	if err != nil {
		t.Fatal(err)
	}
	return s
}

type errTest string

func (e errTest) Error() string { return string(e) }

func TestFormatTokens(t *testing.T) {
	tests := []struct {
		input    int64
		expected string
	}{
		{0, "0"},
		{123, "123"},
		{1234, "1,234"},
		{123456, "123,456"},
		{1234567, "1,234,567"},
		{300000000, "300,000,000"},
		{-4500, "-4,500"},
	}
	for _, tt := range tests {
		if got := FormatTokens(tt.input); got != tt.expected {
			t.Errorf("FormatTokens(%d) = %s; want %s", tt.input, got, tt.expected)
		}
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		input    time.Duration
		expected string
	}{
		{0, "0m"},
		{59 * time.Second, "0m"},
		{45 * time.Minute, "45m"},
		{time.Hour, "1h 0m"},
		{3*time.Hour + 30*time.Minute + 59*time.Second, "3h 30m"},
		{-time.Minute, "0m"},
	}
	for _, tt := range tests {
		if got := FormatDuration(tt.input); got != tt.expected {
			t.Errorf("FormatDuration(%s) = %s; want %s", tt.input, got, tt.expected)
		}
	}
}

func TestBuildExport(t *testing.T) {
	s := sampleSummary(t)
	exp := BuildExport(s, false)

	if len(exp.Profiles) != 4 {
		t.Fatalf("profiles = %d, want 4", len(exp.Profiles))
	}
	byName := map[string]ProfileExport{}
	for _, p := range exp.Profiles {
		byName[p.Name] = p
	}

	work := byName["work"]
	if work.ActiveBlock == nil {
		t.Fatal("work should have an active block")
	}
	if work.TotalTokens != 58_170 || work.ActiveBlock.TotalTokens != 58_170 {
		t.Errorf("work tokens = %d", work.TotalTokens)
	}
	if work.ActiveBlock.EntryCount != 1 || !work.ActiveBlock.IsActive {
		t.Errorf("work block = %+v", work.ActiveBlock)
	}
	if work.MinutesUntilLimit == nil {
		t.Error("work should have minutes_until_limit")
	}
	br := work.ActiveBlock.BurnRate
	if br == nil || br.ElapsedMinutes != 90 || br.TokensPerMinute != 646 {
		t.Errorf("burn rate = %+v", br)
	}
	if br.TimeUntilLimit == nil || br.TimeUntilLimit.Minutes != *work.MinutesUntilLimit {
		t.Errorf("time until limit = %+v", br.TimeUntilLimit)
	}
	if work.BlockCount != nil {
		t.Error("block_count only appears in detailed export")
	}

	idle := byName["idle"]
	if idle.ActiveBlock != nil || idle.MinutesUntilLimit != nil || idle.TotalTokens != 0 {
		t.Errorf("idle = %+v", idle)
	}
	if idle.ModelsUsed == nil {
		t.Error("models_used should be an empty list, not null")
	}

	if byName["broken"].SourceError != "permission denied" {
		t.Errorf("broken source error = %q", byName["broken"].SourceError)
	}

	if exp.Summary.TotalProfiles != 4 || exp.Summary.ActiveProfiles != 2 {
		t.Errorf("summary = %+v", exp.Summary)
	}
	if exp.Summary.RecommendedProfile == nil || exp.Summary.RecommendedProfile.Name != "work" {
		t.Errorf("recommended = %+v", exp.Summary.RecommendedProfile)
	}
}

func TestBuildExportDetailed(t *testing.T) {
	exp := BuildExport(sampleSummary(t), true)
	for _, p := range exp.Profiles {
		if p.BlockCount == nil || p.SkippedRecords == nil {
			t.Errorf("%s: detailed export missing counts", p.Name)
		}
	}
}

func TestExportJSONShape(t *testing.T) {
	data, err := json.Marshal(BuildExport(sampleSummary(t), false))
	if err != nil {
		t.Fatal(err)
	}
	var tree map[string]any
	if err := json.Unmarshal(data, &tree); err != nil {
		t.Fatal(err)
	}

	summary := tree["summary"].(map[string]any)
	for _, key := range []string{"total_profiles", "active_profiles", "total_tokens", "total_cost", "recommended_profile"} {
		if _, ok := summary[key]; !ok {
			t.Errorf("summary missing %q", key)
		}
	}
	profiles := tree["profiles"].([]any)
	first := profiles[0].(map[string]any)
	for _, key := range []string{"name", "active_block", "total_tokens", "total_cost", "models_used"} {
		if _, ok := first[key]; !ok {
			t.Errorf("profile missing %q", key)
		}
	}
	for _, p := range profiles {
		pm := p.(map[string]any)
		block, ok := pm["active_block"].(map[string]any)
		if !ok {
			continue
		}
		for _, key := range []string{"start_time", "end_time", "is_active", "input_tokens", "output_tokens",
			"cache_creation_tokens", "cache_read_tokens", "total_tokens", "total_cost", "models", "entry_count", "burn_rate"} {
			if _, ok := block[key]; !ok {
				t.Errorf("active_block missing %q", key)
			}
		}
	}
}

func TestRenderText(t *testing.T) {
	var buf bytes.Buffer
	if err := RenderText(&buf, sampleSummary(t), Options{Header: true}); err != nil {
		t.Fatal(err)
	}
	out := buf.String()

	for _, want := range []string{
		"Claude Code Usage - Current Block Report",
		"Found 4 profiles",
		"━━━ Profile: work",
		"● Active Block",
		"Started: 2025-06-01 10:00:00 UTC",
		"Remaining: 3h 30m",
		"Models: claude-sonnet-4-20250514",
		"Input:  45,320",
		"Output: 12,850",
		"Total: 58,170",
		"Cost: $0.328710",
		"Cache+: 2,000",
		"━━━ Profile: idle",
		"No active block",
		"(Error: permission denied)",
		"Active profiles: 2/4",
		"Recommended Profile:",
		"work → ",
		" until limit",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q\n%s", want, out)
		}
	}
	if strings.Contains(out, "Burn Rate") {
		t.Error("burn rate only appears in detailed output")
	}
	if strings.Contains(out, "\x1b[") {
		t.Error("non-terminal output should not contain ANSI escapes")
	}
}

func TestRenderTextDetailed(t *testing.T) {
	var buf bytes.Buffer
	if err := RenderText(&buf, sampleSummary(t), Options{Detailed: true}); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{
		"Burn Rate",
		"646 tokens/min",
		"over 1h 30m elapsed",
		"Time Until Limit",
		"% of limit used)",
		"Projected (full block)",
		"Blocks: 1, skipped records: 0",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("detailed output missing %q\n%s", want, out)
		}
	}
	if strings.Contains(out, "Found 4 profiles") {
		t.Error("header printed without Header option")
	}
}

func TestRenderTextNoActiveProfiles(t *testing.T) {
	var buf bytes.Buffer
	s := blocks.Summarize([]blocks.ProfileReport{{Name: "idle"}}, start)
	if err := RenderText(&buf, s, Options{}); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if !strings.Contains(out, "Active profiles: 0/1") {
		t.Errorf("output = %s", out)
	}
	if strings.Contains(out, "Recommended Profile") || strings.Contains(out, "Aggregate Totals") {
		t.Errorf("no totals expected without active profiles:\n%s", out)
	}
}

func TestRenderExpiredBlock(t *testing.T) {
	s := blocks.SummaryReport{
		GeneratedAt: start.Add(6 * time.Hour),
		Profiles: []blocks.ProfileReport{{
			Name: "late",
			Active: &blocks.ActiveBlock{
				Block: blocks.Block{StartTime: start, EndTime: start.Add(5 * time.Hour)},
			},
		}},
	}
	var buf bytes.Buffer
	RenderProfile(&buf, s.Profiles[0], s, Options{})
	if !strings.Contains(buf.String(), "Status: Expired") {
		t.Errorf("output = %s", buf.String())
	}
}

func TestRecommendationLine(t *testing.T) {
	got := RecommendationLine(&blocks.Recommendation{Name: "work", TimeToLimit: 2*time.Hour + 5*time.Minute})
	if got != "work → 2h 5m until limit" {
		t.Errorf("RecommendationLine = %q", got)
	}
	if RecommendationLine(nil) != "" {
		t.Error("nil recommendation should render empty")
	}
}
