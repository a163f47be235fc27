package metrics_test

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"github.com/proboscis/claude-block-checker/internal/blocks"
	"github.com/proboscis/claude-block-checker/internal/metrics"
)

type staticSource struct {
	summary blocks.SummaryReport
	ok      bool
}

func (s staticSource) Latest() (blocks.SummaryReport, bool) { return s.summary, s.ok }

func gather(t *testing.T, reg *prometheus.Registry) map[string]*dto.MetricFamily {
	t.Helper()
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather error: %v", err)
	}
	out := map[string]*dto.MetricFamily{}
	for _, f := range families {
		out[f.GetName()] = f
	}
	return out
}

func valueFor(f *dto.MetricFamily, profile string) (float64, bool) {
	for _, m := range f.GetMetric() {
		for _, l := range m.GetLabel() {
			if l.GetName() == "profile" && l.GetValue() == profile {
				return m.GetGauge().GetValue(), true
			}
		}
	}
	return 0, false
}

func TestCollectorExportsActiveBlocks(t *testing.T) {
	ttl := 90 * time.Minute
	summary := blocks.SummaryReport{
		Profiles: []blocks.ProfileReport{
			{
				Name:           "work",
				SkippedRecords: 4,
				Active: &blocks.ActiveBlock{
					Usage:      blocks.AggregatedUsage{TotalTokens: 58_170, TotalCost: 0.32871},
					Projection: blocks.Projection{TokensPerMinute: 646.3, PercentOfLimitUsed: 0.02, TimeToLimit: &ttl},
				},
			},
			{Name: "idle"},
		},
	}
	reg := prometheus.NewRegistry()
	metrics.NewWithRegistry(reg, staticSource{summary: summary, ok: true})

	families := gather(t, reg)

	checks := []struct {
		metric  string
		profile string
		want    float64
	}{
		{"cbc_active_block_tokens", "work", 58_170},
		{"cbc_active_block_cost_usd", "work", 0.32871},
		{"cbc_tokens_per_minute", "work", 646.3},
		{"cbc_time_to_limit_minutes", "work", 90},
		{"cbc_limit_used_percent", "work", 0.02},
		{"cbc_profile_active", "work", 1},
		{"cbc_profile_active", "idle", 0},
		{"cbc_skipped_records", "work", 4},
		{"cbc_skipped_records", "idle", 0},
	}
	for _, c := range checks {
		f, ok := families[c.metric]
		if !ok {
			t.Errorf("metric %s missing", c.metric)
			continue
		}
		got, ok := valueFor(f, c.profile)
		if !ok {
			t.Errorf("%s{profile=%q} missing", c.metric, c.profile)
			continue
		}
		if got != c.want {
			t.Errorf("%s{profile=%q} = %v, want %v", c.metric, c.profile, got, c.want)
		}
	}

	if _, ok := valueFor(families["cbc_active_block_tokens"], "idle"); ok {
		t.Error("idle profile should not export active block tokens")
	}
}

func TestCollectorWithoutSummary(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics.NewWithRegistry(reg, staticSource{})

	families := gather(t, reg)
	if _, ok := families["cbc_profile_active"]; ok {
		t.Error("no block metrics expected before the first refresh")
	}
}

func TestObserveRefresh(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewWithRegistry(reg, staticSource{})

	m.ObserveRefresh(200*time.Millisecond, nil)
	m.ObserveRefresh(time.Second, nil)
	m.ObserveRefresh(time.Second, errors.New("boom"))

	families := gather(t, reg)
	counts := map[string]float64{}
	for _, metric := range families["cbc_refresh_total"].GetMetric() {
		counts[metric.GetLabel()[0].GetValue()] = metric.GetCounter().GetValue()
	}
	if counts["ok"] != 2 || counts["error"] != 1 {
		t.Errorf("refresh counts = %v", counts)
	}
	h := families["cbc_refresh_duration_seconds"].GetMetric()[0].GetHistogram()
	if h.GetSampleCount() != 3 {
		t.Errorf("histogram samples = %d, want 3", h.GetSampleCount())
	}
}
