package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/proboscis/claude-block-checker/internal/blocks"
)

const namespace = "cbc"

// SummarySource supplies the most recent analysis.
type SummarySource interface {
	Latest() (blocks.SummaryReport, bool)
}

// Collector exports block metrics computed from the latest summary at
// scrape time, plus refresh counters updated by the server.
type Collector struct {
	source SummarySource

	activeTokens  *prometheus.Desc
	activeCost    *prometheus.Desc
	tokensPerMin  *prometheus.Desc
	timeToLimit   *prometheus.Desc
	limitUsed     *prometheus.Desc
	profileActive *prometheus.Desc
	skipped       *prometheus.Desc

	RefreshTotal    *prometheus.CounterVec
	RefreshDuration prometheus.Histogram
}

// NewWithRegistry creates the collector and registers it with reg.
func NewWithRegistry(reg prometheus.Registerer, source SummarySource) *Collector {
	factory := promauto.With(reg)
	profile := []string{"profile"}

	c := &Collector{
		source: source,
		activeTokens: prometheus.NewDesc(prometheus.BuildFQName(namespace, "", "active_block_tokens"),
			"Tokens used in the profile's active block", profile, nil),
		activeCost: prometheus.NewDesc(prometheus.BuildFQName(namespace, "", "active_block_cost_usd"),
			"Cost in USD of the profile's active block", profile, nil),
		tokensPerMin: prometheus.NewDesc(prometheus.BuildFQName(namespace, "", "tokens_per_minute"),
			"Token burn rate of the active block", profile, nil),
		timeToLimit: prometheus.NewDesc(prometheus.BuildFQName(namespace, "", "time_to_limit_minutes"),
			"Projected minutes until the block token limit", profile, nil),
		limitUsed: prometheus.NewDesc(prometheus.BuildFQName(namespace, "", "limit_used_percent"),
			"Percent of the block token limit used", profile, nil),
		profileActive: prometheus.NewDesc(prometheus.BuildFQName(namespace, "", "profile_active"),
			"1 when the profile has an active block", profile, nil),
		skipped: prometheus.NewDesc(prometheus.BuildFQName(namespace, "", "skipped_records"),
			"Log lines skipped during the last analysis", profile, nil),

		RefreshTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "refresh_total",
				Help:      "Total number of summary recomputations",
			},
			[]string{"result"},
		),
		RefreshDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "refresh_duration_seconds",
				Help:      "Time spent loading logs and recomputing the summary",
				Buckets:   []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
			},
		),
	}
	reg.MustRegister(c)
	return c
}

// ObserveRefresh records one recomputation.
func (c *Collector) ObserveRefresh(d time.Duration, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	c.RefreshTotal.WithLabelValues(result).Inc()
	c.RefreshDuration.Observe(d.Seconds())
}

func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.activeTokens
	ch <- c.activeCost
	ch <- c.tokensPerMin
	ch <- c.timeToLimit
	ch <- c.limitUsed
	ch <- c.profileActive
	ch <- c.skipped
}

func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	summary, ok := c.source.Latest()
	if !ok {
		return
	}
	for _, p := range summary.Profiles {
		ch <- prometheus.MustNewConstMetric(c.skipped, prometheus.GaugeValue, float64(p.SkippedRecords), p.Name)
		if p.Active == nil {
			ch <- prometheus.MustNewConstMetric(c.profileActive, prometheus.GaugeValue, 0, p.Name)
			continue
		}
		a := p.Active
		ch <- prometheus.MustNewConstMetric(c.profileActive, prometheus.GaugeValue, 1, p.Name)
		ch <- prometheus.MustNewConstMetric(c.activeTokens, prometheus.GaugeValue, float64(a.Usage.TotalTokens), p.Name)
		ch <- prometheus.MustNewConstMetric(c.activeCost, prometheus.GaugeValue, a.Usage.TotalCost, p.Name)
		ch <- prometheus.MustNewConstMetric(c.tokensPerMin, prometheus.GaugeValue, a.Projection.TokensPerMinute, p.Name)
		ch <- prometheus.MustNewConstMetric(c.limitUsed, prometheus.GaugeValue, a.Projection.PercentOfLimitUsed, p.Name)
		if ttl := a.Projection.TimeToLimit; ttl != nil {
			ch <- prometheus.MustNewConstMetric(c.timeToLimit, prometheus.GaugeValue, ttl.Minutes(), p.Name)
		}
	}
}
