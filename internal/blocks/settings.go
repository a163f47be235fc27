package blocks

import (
	"fmt"
	"runtime"
	"time"
)

const (
	// DefaultBlockDuration is the length of a Claude billing block.
	DefaultBlockDuration = 5 * time.Hour
	// DefaultTokenLimit is the global per-block token ceiling.
	DefaultTokenLimit int64 = 300_000_000
	// DefaultWarningThreshold is the headroom below which a block is no longer ample.
	DefaultWarningThreshold = 3 * time.Hour
	// DefaultCriticalThreshold is the headroom below which a block is critical.
	DefaultCriticalThreshold = 1 * time.Hour
	// DefaultStartGranularity floors block starts to the hour, like Claude does.
	DefaultStartGranularity = time.Hour
	// DefaultMaxSchemaMajor is the newest log schema major version understood.
	DefaultMaxSchemaMajor = 2
)

// CostMode selects where a record's cost comes from.
type CostMode string

const (
	// CostCalculate always prices records from the pricing table.
	CostCalculate CostMode = "calculate"
	// CostAuto prefers the cost Claude Code recorded, falling back to the table.
	CostAuto CostMode = "auto"
)

// Settings carries the engine's tunable constants.
type Settings struct {
	BlockDuration     time.Duration
	TokenLimit        int64
	WarningThreshold  time.Duration
	CriticalThreshold time.Duration
	// StartGranularity truncates a block's start; zero keeps the exact timestamp.
	StartGranularity time.Duration
	MaxSchemaMajor   int
	CostMode         CostMode
	// Workers bounds the per-profile fan-out; zero means GOMAXPROCS.
	Workers int
}

// DefaultSettings returns the production constants.
func DefaultSettings() Settings {
	return Settings{
		BlockDuration:     DefaultBlockDuration,
		TokenLimit:        DefaultTokenLimit,
		WarningThreshold:  DefaultWarningThreshold,
		CriticalThreshold: DefaultCriticalThreshold,
		StartGranularity:  DefaultStartGranularity,
		MaxSchemaMajor:    DefaultMaxSchemaMajor,
		CostMode:          CostCalculate,
	}
}

// Validate checks that the settings describe a usable engine.
func (s Settings) Validate() error {
	if s.BlockDuration <= 0 {
		return fmt.Errorf("block duration must be positive, got %s", s.BlockDuration)
	}
	if s.TokenLimit <= 0 {
		return fmt.Errorf("token limit must be positive, got %d", s.TokenLimit)
	}
	if s.CriticalThreshold <= 0 || s.WarningThreshold <= 0 {
		return fmt.Errorf("band thresholds must be positive")
	}
	if s.CriticalThreshold >= s.WarningThreshold {
		return fmt.Errorf("critical threshold %s must be below warning threshold %s", s.CriticalThreshold, s.WarningThreshold)
	}
	if s.StartGranularity < 0 || s.StartGranularity > s.BlockDuration {
		return fmt.Errorf("start granularity %s out of range", s.StartGranularity)
	}
	if s.MaxSchemaMajor < 0 {
		return fmt.Errorf("max schema major must not be negative")
	}
	switch s.CostMode {
	case CostCalculate, CostAuto:
	default:
		return fmt.Errorf("unknown cost mode %q", s.CostMode)
	}
	if s.Workers < 0 {
		return fmt.Errorf("workers must not be negative")
	}
	return nil
}

func (s Settings) workers() int {
	if s.Workers > 0 {
		return s.Workers
	}
	return runtime.GOMAXPROCS(0)
}

// blockMinutes is the number of minutes in one block.
func (s Settings) blockMinutes() float64 {
	return s.BlockDuration.Minutes()
}
