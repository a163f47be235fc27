package pricing

import (
	_ "embed"
	"fmt"
	"os"
	"sort"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

//go:embed models.yaml
var defaultModels []byte

var million = decimal.NewFromInt(1_000_000)

// Rates holds USD-per-million-token prices for one model.
type Rates struct {
	InputPerMillion      float64 `yaml:"input" json:"input"`
	OutputPerMillion     float64 `yaml:"output" json:"output"`
	CacheWritePerMillion float64 `yaml:"cache_write" json:"cacheWrite"`
	CacheReadPerMillion  float64 `yaml:"cache_read" json:"cacheRead"`
}

// Cost prices a token breakdown. Rates are applied per token
// (per-million / 1e6) and summed without float rounding.
func (r Rates) Cost(input, output, cacheWrite, cacheRead int64) decimal.Decimal {
	sum := decimal.NewFromInt(input).Mul(decimal.NewFromFloat(r.InputPerMillion)).
		Add(decimal.NewFromInt(output).Mul(decimal.NewFromFloat(r.OutputPerMillion))).
		Add(decimal.NewFromInt(cacheWrite).Mul(decimal.NewFromFloat(r.CacheWritePerMillion))).
		Add(decimal.NewFromInt(cacheRead).Mul(decimal.NewFromFloat(r.CacheReadPerMillion)))
	return sum.Div(million)
}

func (r Rates) validate() error {
	if r.InputPerMillion < 0 || r.OutputPerMillion < 0 || r.CacheWritePerMillion < 0 || r.CacheReadPerMillion < 0 {
		return fmt.Errorf("rates must not be negative")
	}
	return nil
}

// Table maps exact model ids to rates. It is read-only once built.
type Table struct {
	models map[string]Rates
}

type tableFile struct {
	Models map[string]Rates `yaml:"models"`
}

// New builds a table from a model map. The map is copied.
func New(models map[string]Rates) *Table {
	t := &Table{models: make(map[string]Rates, len(models))}
	for id, r := range models {
		t.models[id] = r
	}
	return t
}

// Default returns the built-in Anthropic price list.
func Default() *Table {
	t, err := parse(defaultModels)
	if err != nil {
		panic(fmt.Sprintf("pricing: built-in table: %v", err))
	}
	return t
}

// LoadFile reads a YAML price list and layers it over the built-in table.
// Entries in the file replace built-in entries with the same model id.
func LoadFile(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read pricing file: %w", err)
	}
	override, err := parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse pricing file %s: %w", path, err)
	}
	base := Default()
	for id, r := range override.models {
		base.models[id] = r
	}
	return base, nil
}

func parse(data []byte) (*Table, error) {
	var f tableFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, err
	}
	for id, r := range f.Models {
		if id == "" {
			return nil, fmt.Errorf("empty model id")
		}
		if err := r.validate(); err != nil {
			return nil, fmt.Errorf("model %s: %w", id, err)
		}
	}
	return New(f.Models), nil
}

// Lookup returns the rates for a model id. Matching is exact and
// case-sensitive; callers decide what an unknown model costs.
func (t *Table) Lookup(model string) (Rates, bool) {
	if t == nil {
		return Rates{}, false
	}
	r, ok := t.models[model]
	return r, ok
}

// Models returns the known model ids in sorted order.
func (t *Table) Models() []string {
	ids := make([]string, 0, len(t.models))
	for id := range t.models {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Len returns the number of priced models.
func (t *Table) Len() int {
	return len(t.models)
}
