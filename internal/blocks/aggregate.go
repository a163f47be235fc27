package blocks

import (
	"sort"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/proboscis/claude-block-checker/internal/pricing"
)

// Prices resolves a model id to its rates.
type Prices interface {
	Lookup(model string) (pricing.Rates, bool)
}

// Aggregate totals the tokens and cost of a block's records. Models missing
// from prices cost nothing and are listed in UnknownModels.
func Aggregate(records []UsageRecord, prices Prices, mode CostMode) AggregatedUsage {
	var (
		agg     AggregatedUsage
		cost    = decimal.Zero
		unknown []string
	)
	for _, r := range records {
		agg.InputTokens += r.InputTokens
		agg.OutputTokens += r.OutputTokens
		agg.CacheWriteTokens += r.CacheWriteTokens
		agg.CacheReadTokens += r.CacheReadTokens

		if mode == CostAuto && r.CostUSD != nil {
			cost = cost.Add(decimal.NewFromFloat(*r.CostUSD))
			continue
		}
		rates, ok := prices.Lookup(r.Model)
		if !ok {
			unknown = append(unknown, r.Model)
			continue
		}
		cost = cost.Add(rates.Cost(r.InputTokens, r.OutputTokens, r.CacheWriteTokens, r.CacheReadTokens))
	}

	agg.TotalTokens = agg.InputTokens + agg.OutputTokens + agg.CacheWriteTokens + agg.CacheReadTokens
	agg.TotalCost = cost.InexactFloat64()
	agg.RecordCount = len(records)
	agg.Models = sortedSet(lo.Map(records, func(r UsageRecord, _ int) string { return r.Model }))
	if len(unknown) > 0 {
		agg.UnknownModels = sortedSet(unknown)
	}
	return agg
}

func sortedSet(items []string) []string {
	set := lo.Uniq(items)
	sort.Strings(set)
	return set
}
