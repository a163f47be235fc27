package blocks

import (
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func decode(t *testing.T, line string) RawEntry {
	t.Helper()
	var raw RawEntry
	if err := json.Unmarshal([]byte(line), &raw); err != nil {
		t.Fatalf("decode %s: %v", line, err)
	}
	return raw
}

func TestNormalizeValidEntry(t *testing.T) {
	raw := decode(t, `{"timestamp":"2024-01-01T10:00:00.123Z","version":"1.0.17","message":{"model":"claude-sonnet-4-20250514","usage":{"input_tokens":100,"output_tokens":50,"cache_creation_input_tokens":20,"cache_read_input_tokens":10}},"costUSD":0.001}`)

	rec, err := Normalize(raw, DefaultMaxSchemaMajor)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	want := time.Date(2024, 1, 1, 10, 0, 0, 123_000_000, time.UTC)
	if !rec.Timestamp.Equal(want) {
		t.Errorf("Timestamp = %v, want %v", rec.Timestamp, want)
	}
	if rec.Model != "claude-sonnet-4-20250514" {
		t.Errorf("Model = %q", rec.Model)
	}
	if rec.InputTokens != 100 || rec.OutputTokens != 50 || rec.CacheWriteTokens != 20 || rec.CacheReadTokens != 10 {
		t.Errorf("tokens = %+v", rec)
	}
	if rec.TotalTokens() != 180 {
		t.Errorf("TotalTokens = %d, want 180", rec.TotalTokens())
	}
	if rec.CostUSD == nil || *rec.CostUSD != 0.001 {
		t.Errorf("CostUSD = %v, want 0.001", rec.CostUSD)
	}
}

func TestNormalizeDefaults(t *testing.T) {
	raw := decode(t, `{"timestamp":"2024-01-01T10:00:00+02:00","model":"top-level","message":{"model":"nested","usage":{"input_tokens":1,"output_tokens":2}}}`)

	rec, err := Normalize(raw, DefaultMaxSchemaMajor)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if rec.Model != "top-level" {
		t.Errorf("Model = %q, want top-level model to win", rec.Model)
	}
	if rec.CacheWriteTokens != 0 || rec.CacheReadTokens != 0 {
		t.Errorf("cache tokens should default to zero: %+v", rec)
	}
	if rec.Timestamp.Location() != time.UTC || rec.Timestamp.Hour() != 8 {
		t.Errorf("Timestamp not converted to UTC: %v", rec.Timestamp)
	}
	if rec.CostUSD != nil {
		t.Errorf("CostUSD = %v, want nil", *rec.CostUSD)
	}
}

func TestNormalizeSkips(t *testing.T) {
	tests := []struct {
		name string
		line string
		want SkipReason
	}{
		{"empty timestamp", `{"message":{"model":"m","usage":{"input_tokens":1,"output_tokens":1}}}`, SkipBadTimestamp},
		{"bad timestamp", `{"timestamp":"yesterday","message":{"model":"m","usage":{"input_tokens":1,"output_tokens":1}}}`, SkipBadTimestamp},
		{"no message", `{"timestamp":"2024-01-01T10:00:00Z","model":"m"}`, SkipMissingUsage},
		{"no usage", `{"timestamp":"2024-01-01T10:00:00Z","message":{"model":"m"}}`, SkipMissingUsage},
		{"no output tokens", `{"timestamp":"2024-01-01T10:00:00Z","message":{"model":"m","usage":{"input_tokens":1}}}`, SkipMissingUsage},
		{"no input tokens", `{"timestamp":"2024-01-01T10:00:00Z","message":{"model":"m","usage":{"output_tokens":1}}}`, SkipMissingUsage},
		{"negative tokens", `{"timestamp":"2024-01-01T10:00:00Z","message":{"model":"m","usage":{"input_tokens":-1,"output_tokens":1}}}`, SkipNegativeTokens},
		{"negative cache", `{"timestamp":"2024-01-01T10:00:00Z","message":{"model":"m","usage":{"input_tokens":1,"output_tokens":1,"cache_read_input_tokens":-5}}}`, SkipNegativeTokens},
		{"future schema", `{"timestamp":"2024-01-01T10:00:00Z","version":"3.0.0","message":{"model":"m","usage":{"input_tokens":1,"output_tokens":1}}}`, SkipSchemaVersion},
		{"garbage schema", `{"timestamp":"2024-01-01T10:00:00Z","version":"latest","message":{"model":"m","usage":{"input_tokens":1,"output_tokens":1}}}`, SkipSchemaVersion},
		{"no model", `{"timestamp":"2024-01-01T10:00:00Z","message":{"usage":{"input_tokens":1,"output_tokens":1}}}`, SkipNoModel},
		{"unknown model", `{"timestamp":"2024-01-01T10:00:00Z","model":"unknown","message":{"usage":{"input_tokens":1,"output_tokens":1}}}`, SkipNoModel},
		{"synthetic model", `{"timestamp":"2024-01-01T10:00:00Z","message":{"model":"<synthetic>","usage":{"input_tokens":0,"output_tokens":0}}}`, SkipNoModel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Normalize(decode(t, tt.line), DefaultMaxSchemaMajor)
			var se *SkipError
			if !errors.As(err, &se) {
				t.Fatalf("expected *SkipError, got %v", err)
			}
			if se.Reason != tt.want {
				t.Errorf("Reason = %q, want %q (%v)", se.Reason, tt.want, se)
			}
		})
	}
}

func TestNormalizeSchemaVersions(t *testing.T) {
	tests := []struct {
		version  string
		maxMajor int
		ok       bool
	}{
		{"", 2, true},
		{"1.0.17", 2, true},
		{"v2.1.0", 2, true},
		{"2.0.0-beta.1", 2, true},
		{"3.0.0", 2, false},
		{"3.0.0", 3, true},
		{"1.0", 0, false},
		{"not-a-version", 9, false},
	}
	for _, tt := range tests {
		raw := decode(t, `{"timestamp":"2024-01-01T10:00:00Z","message":{"model":"m","usage":{"input_tokens":1,"output_tokens":1}}}`)
		raw.Version = tt.version
		_, err := Normalize(raw, tt.maxMajor)
		if (err == nil) != tt.ok {
			t.Errorf("version %q max %d: err = %v, want ok=%v", tt.version, tt.maxMajor, err, tt.ok)
		}
	}
}
