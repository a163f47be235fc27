package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ErrConfigExists is returned by WriteDefault when the file is already there.
var ErrConfigExists = errors.New("config file already exists")

var keyComments = map[string]string{
	"profiles_dir": "Directory holding one Claude config directory per profile.",
	"pricing_file": "Optional YAML price list layered over the built-in table.",
	"cost_mode":    "calculate: price every record from the table; auto: prefer costUSD from the logs.",
	"workers":      "Profiles analysed in parallel; 0 uses every CPU.",
	"block":        "Billing block shape and the per-block token ceiling.",
	"bands":        "Time-to-limit thresholds for the warning and critical bands.",
	"logging":      "level: debug|info|warn|error; format: text|json. Logs go to stderr.",
	"serve":        "HTTP exporter address and cron schedule for recomputing the summary.",
	"watch":        "How often the dashboard recomputes without file changes.",
}

// DefaultYAML renders the default configuration as commented YAML.
func DefaultYAML() ([]byte, error) {
	var doc yaml.Node
	if err := doc.Encode(Defaults()); err != nil {
		return nil, fmt.Errorf("encode defaults: %w", err)
	}
	doc.HeadComment = "claude-block-checker configuration.\nEvery key can be overridden with a CBC_ environment variable, e.g. CBC_BLOCK_TOKEN_LIMIT."
	for i := 0; i+1 < len(doc.Content); i += 2 {
		key := doc.Content[i]
		if c, ok := keyComments[key.Value]; ok {
			key.HeadComment = c
		}
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(&doc); err != nil {
		return nil, fmt.Errorf("render defaults: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteDefault writes the default configuration to path. An existing file
// is only replaced when force is set.
func WriteDefault(path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("%w: %s", ErrConfigExists, path)
	}
	data, err := DefaultYAML()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
