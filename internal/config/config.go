package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/proboscis/claude-block-checker/internal/blocks"
	"github.com/proboscis/claude-block-checker/internal/pricing"
	"github.com/proboscis/claude-block-checker/internal/scheduler"
)

// EnvPrefix prefixes environment overrides, e.g. CBC_BLOCK_TOKEN_LIMIT.
const EnvPrefix = "CBC"

type Config struct {
	ProfilesDir string        `mapstructure:"profiles_dir" yaml:"profiles_dir" json:"profilesDir"`
	PricingFile string        `mapstructure:"pricing_file" yaml:"pricing_file" json:"pricingFile"`
	CostMode    string        `mapstructure:"cost_mode" yaml:"cost_mode" json:"costMode"`
	Workers     int           `mapstructure:"workers" yaml:"workers" json:"workers"`
	Block       BlockConfig   `mapstructure:"block" yaml:"block" json:"block"`
	Bands       BandsConfig   `mapstructure:"bands" yaml:"bands" json:"bands"`
	Logging     LoggingConfig `mapstructure:"logging" yaml:"logging" json:"logging"`
	Serve       ServeConfig   `mapstructure:"serve" yaml:"serve" json:"serve"`
	Watch       WatchConfig   `mapstructure:"watch" yaml:"watch" json:"watch"`
}

type BlockConfig struct {
	Duration         time.Duration `mapstructure:"duration" yaml:"duration" json:"duration"`
	TokenLimit       int64         `mapstructure:"token_limit" yaml:"token_limit" json:"tokenLimit"`
	StartGranularity time.Duration `mapstructure:"start_granularity" yaml:"start_granularity" json:"startGranularity"`
	MaxSchemaMajor   int           `mapstructure:"max_schema_major" yaml:"max_schema_major" json:"maxSchemaMajor"`
}

type BandsConfig struct {
	Warning  time.Duration `mapstructure:"warning" yaml:"warning" json:"warning"`
	Critical time.Duration `mapstructure:"critical" yaml:"critical" json:"critical"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level" yaml:"level" json:"level"`
	Format string `mapstructure:"format" yaml:"format" json:"format"`
}

type ServeConfig struct {
	Listen  string `mapstructure:"listen" yaml:"listen" json:"listen"`
	Refresh string `mapstructure:"refresh" yaml:"refresh" json:"refresh"`
}

type WatchConfig struct {
	Interval time.Duration `mapstructure:"interval" yaml:"interval" json:"interval"`
}

// DefaultPath returns ~/.claude-block-checker/config.yaml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home dir: %w", err)
	}
	return filepath.Join(home, ".claude-block-checker", "config.yaml"), nil
}

// Load reads configuration from defaults, the YAML file at configPath and
// CBC_* environment variables, in increasing precedence. An empty
// configPath means the default location, which may be absent; an explicit
// path must exist.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	explicit := configPath != ""
	if !explicit {
		p, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		configPath = p
	}

	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		missing := errors.As(err, &notFound) || errors.Is(err, os.ErrNotExist)
		if !missing || explicit {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	dir, err := ExpandHome(cfg.ProfilesDir)
	if err != nil {
		return nil, err
	}
	cfg.ProfilesDir = dir
	if cfg.PricingFile != "" {
		if cfg.PricingFile, err = ExpandHome(cfg.PricingFile); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Defaults returns the configuration used when nothing is overridden.
func Defaults() Config {
	s := blocks.DefaultSettings()
	return Config{
		ProfilesDir: "~/claude-profiles",
		CostMode:    string(s.CostMode),
		Block: BlockConfig{
			Duration:         s.BlockDuration,
			TokenLimit:       s.TokenLimit,
			StartGranularity: s.StartGranularity,
			MaxSchemaMajor:   s.MaxSchemaMajor,
		},
		Bands: BandsConfig{
			Warning:  s.WarningThreshold,
			Critical: s.CriticalThreshold,
		},
		Logging: LoggingConfig{Level: "warn", Format: "text"},
		Serve:   ServeConfig{Listen: "127.0.0.1:9469", Refresh: "@every 30s"},
		Watch:   WatchConfig{Interval: time.Minute},
	}
}

func setDefaults(v *viper.Viper) {
	d := Defaults()
	v.SetDefault("profiles_dir", d.ProfilesDir)
	v.SetDefault("pricing_file", d.PricingFile)
	v.SetDefault("cost_mode", d.CostMode)
	v.SetDefault("workers", d.Workers)

	v.SetDefault("block.duration", d.Block.Duration)
	v.SetDefault("block.token_limit", d.Block.TokenLimit)
	v.SetDefault("block.start_granularity", d.Block.StartGranularity)
	v.SetDefault("block.max_schema_major", d.Block.MaxSchemaMajor)

	v.SetDefault("bands.warning", d.Bands.Warning)
	v.SetDefault("bands.critical", d.Bands.Critical)

	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.format", d.Logging.Format)

	v.SetDefault("serve.listen", d.Serve.Listen)
	v.SetDefault("serve.refresh", d.Serve.Refresh)

	v.SetDefault("watch.interval", d.Watch.Interval)
}

// Validate rejects configurations the engine or the servers cannot use.
func (c *Config) Validate() error {
	if c.ProfilesDir == "" {
		return fmt.Errorf("profiles_dir must not be empty")
	}
	if err := c.Settings().Validate(); err != nil {
		return err
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "text", "json":
	default:
		return fmt.Errorf("invalid log format: %s", c.Logging.Format)
	}
	if c.Serve.Listen == "" {
		return fmt.Errorf("serve.listen must not be empty")
	}
	if err := scheduler.Validate(c.Serve.Refresh); err != nil {
		return fmt.Errorf("serve.refresh: %w", err)
	}
	if c.Watch.Interval <= 0 {
		return fmt.Errorf("watch.interval must be positive, got %s", c.Watch.Interval)
	}
	return nil
}

// Settings converts the configuration into engine settings.
func (c *Config) Settings() blocks.Settings {
	return blocks.Settings{
		BlockDuration:     c.Block.Duration,
		TokenLimit:        c.Block.TokenLimit,
		WarningThreshold:  c.Bands.Warning,
		CriticalThreshold: c.Bands.Critical,
		StartGranularity:  c.Block.StartGranularity,
		MaxSchemaMajor:    c.Block.MaxSchemaMajor,
		CostMode:          blocks.CostMode(c.CostMode),
		Workers:           c.Workers,
	}
}

// Pricing returns the built-in table, layered with pricing_file when set.
func (c *Config) Pricing() (*pricing.Table, error) {
	if c.PricingFile == "" {
		return pricing.Default(), nil
	}
	return pricing.LoadFile(c.PricingFile)
}

// ExpandHome replaces a leading ~ with the user's home directory.
func ExpandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home dir: %w", err)
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}
