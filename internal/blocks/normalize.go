package blocks

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"golang.org/x/mod/semver"
)

// RawEntry is one decoded line of a Claude Code JSONL log.
// Only the fields the engine needs are parsed.
type RawEntry struct {
	Timestamp string      `json:"timestamp"`
	Version   string      `json:"version"`
	Model     string      `json:"model"`
	CostUSD   *float64    `json:"costUSD"`
	MessageID string      `json:"messageId"`
	RequestID string      `json:"requestId"`
	Message   *RawMessage `json:"message"`
}

// RawMessage is the "message" object of a log line.
type RawMessage struct {
	Model string    `json:"model"`
	Usage *RawUsage `json:"usage"`
}

// RawUsage keeps the token counters as pointers so absent fields can be told
// apart from zero.
type RawUsage struct {
	InputTokens         *int64 `json:"input_tokens"`
	OutputTokens        *int64 `json:"output_tokens"`
	CacheCreationTokens *int64 `json:"cache_creation_input_tokens"`
	CacheReadTokens     *int64 `json:"cache_read_input_tokens"`
}

// SkipReason says why a raw entry did not become a UsageRecord.
type SkipReason string

const (
	SkipBadTimestamp   SkipReason = "bad_timestamp"
	SkipMissingUsage   SkipReason = "missing_usage"
	SkipNegativeTokens SkipReason = "negative_tokens"
	SkipSchemaVersion  SkipReason = "schema_version"
	SkipNoModel        SkipReason = "no_model"
)

// SkipError is returned by Normalize for entries that are not usage records.
type SkipError struct {
	Reason SkipReason
	Detail string
}

func (e *SkipError) Error() string {
	if e.Detail == "" {
		return string(e.Reason)
	}
	return fmt.Sprintf("%s: %s", e.Reason, e.Detail)
}

func skip(reason SkipReason, format string, args ...any) *SkipError {
	return &SkipError{Reason: reason, Detail: fmt.Sprintf(format, args...)}
}

// Normalize converts a raw entry into a UsageRecord. Entries newer than
// schema major maxSchemaMajor are rejected. The returned error is always a
// *SkipError.
func Normalize(raw RawEntry, maxSchemaMajor int) (UsageRecord, error) {
	if err := checkVersion(raw.Version, maxSchemaMajor); err != nil {
		return UsageRecord{}, err
	}

	ts, err := parseTimestamp(raw.Timestamp)
	if err != nil {
		return UsageRecord{}, err
	}

	if raw.Message == nil || raw.Message.Usage == nil {
		return UsageRecord{}, skip(SkipMissingUsage, "no usage object")
	}
	u := raw.Message.Usage
	if u.InputTokens == nil || u.OutputTokens == nil {
		return UsageRecord{}, skip(SkipMissingUsage, "input_tokens or output_tokens absent")
	}

	rec := UsageRecord{
		Timestamp:        ts,
		InputTokens:      *u.InputTokens,
		OutputTokens:     *u.OutputTokens,
		CacheWriteTokens: valueOrZero(u.CacheCreationTokens),
		CacheReadTokens:  valueOrZero(u.CacheReadTokens),
		CostUSD:          raw.CostUSD,
	}
	if rec.InputTokens < 0 || rec.OutputTokens < 0 || rec.CacheWriteTokens < 0 || rec.CacheReadTokens < 0 {
		return UsageRecord{}, skip(SkipNegativeTokens, "in=%d out=%d cw=%d cr=%d",
			rec.InputTokens, rec.OutputTokens, rec.CacheWriteTokens, rec.CacheReadTokens)
	}

	rec.Model = modelOf(raw)
	if rec.Model == "" {
		return UsageRecord{}, skip(SkipNoModel, "")
	}
	return rec, nil
}

func parseTimestamp(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, skip(SkipBadTimestamp, "empty")
	}
	// RFC3339Nano also accepts timestamps without fractional seconds.
	ts, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, skip(SkipBadTimestamp, "%q", s)
	}
	return ts.UTC(), nil
}

func checkVersion(version string, maxMajor int) error {
	if version == "" {
		return nil
	}
	v := version
	if !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	if !semver.IsValid(v) {
		return skip(SkipSchemaVersion, "invalid version %q", version)
	}
	major, err := strconv.Atoi(strings.TrimPrefix(semver.Major(v), "v"))
	if err != nil || major > maxMajor {
		return skip(SkipSchemaVersion, "unsupported version %q", version)
	}
	return nil
}

// modelOf prefers the top-level model over message.model and drops
// placeholder ids Claude Code writes for non-API messages.
func modelOf(raw RawEntry) string {
	model := raw.Model
	if model == "" && raw.Message != nil {
		model = raw.Message.Model
	}
	switch model {
	// Placeholders, not model ids; a real but unpriced id is kept and priced at zero.
	case "", "unknown", "<synthetic>":
		return ""
	}
	return model
}

func valueOrZero(p *int64) int64 {
	if p == nil {
		return 0
	}
	return *p
}
