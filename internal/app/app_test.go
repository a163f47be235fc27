package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/proboscis/claude-block-checker/internal/blocks"
	"github.com/proboscis/claude-block-checker/internal/config"
	"github.com/proboscis/claude-block-checker/internal/profiles"
)

var now = time.Date(2025, 6, 1, 11, 30, 0, 0, time.UTC)

func logLine(at time.Time, in, out int) string {
	return fmt.Sprintf(`{"timestamp":%q,"message":{"model":"claude-sonnet-4-20250514","usage":{"input_tokens":%d,"output_tokens":%d}}}`,
		at.Format(time.RFC3339), in, out)
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func newChecker(t *testing.T, root string) *Checker {
	t.Helper()
	cfg := config.Defaults()
	cfg.ProfilesDir = root
	c, err := NewChecker(&cfg, nil, zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}
	c.Now = func() time.Time { return now }
	return c
}

func fixture(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "work", "projects", "p", "s.jsonl"),
		logLine(now.Add(-80*time.Minute), 45_320, 12_850)+"\n")
	writeFile(t, filepath.Join(root, "personal", "projects", "p", "s.jsonl"),
		logLine(now.Add(-10*time.Hour), 100, 100)+"\n")
	os.MkdirAll(filepath.Join(root, ".git"), 0o755)
	return root
}

func TestCheckAll(t *testing.T) {
	c := newChecker(t, fixture(t))
	s, err := c.Check(context.Background(), "")
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if s.TotalProfiles != 2 || s.ActiveProfiles != 1 {
		t.Errorf("summary = %d/%d", s.ActiveProfiles, s.TotalProfiles)
	}
	if s.Profiles[0].Name != "personal" || s.Profiles[1].Name != "work" {
		t.Errorf("profiles out of order: %s, %s", s.Profiles[0].Name, s.Profiles[1].Name)
	}
	if s.TotalTokens != 58_170 {
		t.Errorf("TotalTokens = %d", s.TotalTokens)
	}
	if rec, ok := s.RecommendedProfile(); !ok || rec.Name != "work" {
		t.Errorf("recommended = %+v", s.Recommended)
	}
	if !s.GeneratedAt.Equal(now) {
		t.Errorf("GeneratedAt = %s", s.GeneratedAt)
	}
}

func TestCheckNamed(t *testing.T) {
	c := newChecker(t, fixture(t))
	s, err := c.Check(context.Background(), "personal")
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if s.TotalProfiles != 1 || s.Profiles[0].HasActiveBlock() {
		t.Errorf("summary = %+v", s)
	}

	if _, err := c.Check(context.Background(), "missing"); !errors.Is(err, profiles.ErrProfileNotFound) {
		t.Errorf("err = %v, want ErrProfileNotFound", err)
	}
}

func TestCheckErrors(t *testing.T) {
	t.Run("missing dir", func(t *testing.T) {
		c := newChecker(t, filepath.Join(t.TempDir(), "nope"))
		if _, err := c.Check(context.Background(), ""); !errors.Is(err, profiles.ErrProfilesDirNotFound) {
			t.Errorf("err = %v", err)
		}
	})
	t.Run("no profiles", func(t *testing.T) {
		c := newChecker(t, t.TempDir())
		if _, err := c.Check(context.Background(), ""); !errors.Is(err, ErrNoProfiles) {
			t.Errorf("err = %v", err)
		}
	})
	t.Run("all unreadable", func(t *testing.T) {
		root := t.TempDir()
		writeFile(t, filepath.Join(root, "a", "projects"), "not a dir")
		writeFile(t, filepath.Join(root, "b", "projects"), "not a dir")
		c := newChecker(t, root)
		if _, err := c.Check(context.Background(), ""); !errors.Is(err, ErrAllSourcesUnreadable) {
			t.Errorf("err = %v", err)
		}
	})
	t.Run("one unreadable", func(t *testing.T) {
		root := fixture(t)
		writeFile(t, filepath.Join(root, "broken", "projects"), "not a dir")
		s, err := newChecker(t, root).Check(context.Background(), "")
		if err != nil {
			t.Fatalf("Check: %v", err)
		}
		if s.Profiles[0].Name != "broken" || s.Profiles[0].SourceError == "" {
			t.Errorf("broken profile = %+v", s.Profiles[0])
		}
	})
}

func TestNewCheckerRejectsBadPricingFile(t *testing.T) {
	cfg := config.Defaults()
	cfg.PricingFile = filepath.Join(t.TempDir(), "missing.yaml")
	if _, err := NewChecker(&cfg, nil, zerolog.Nop()); err == nil {
		t.Error("expected pricing error")
	}
}

func TestMonitorRefresh(t *testing.T) {
	root := fixture(t)
	m := NewMonitor(newChecker(t, root), zerolog.Nop())

	if _, ok := m.Latest(); ok {
		t.Error("no summary expected before the first refresh")
	}

	var calls []error
	m.OnRefresh(func(_ blocks.SummaryReport, _ time.Duration, err error) { calls = append(calls, err) })

	if _, err := m.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	first, ok := m.Latest()
	if !ok || first.ActiveProfiles != 1 {
		t.Fatalf("Latest = %+v, %v", first, ok)
	}

	os.RemoveAll(root)
	if _, err := m.Refresh(context.Background()); err == nil {
		t.Fatal("expected refresh error once the directory is gone")
	}
	kept, ok := m.Latest()
	if !ok || kept.ActiveProfiles != 1 {
		t.Error("failed refresh should keep the previous summary")
	}
	if !errors.Is(m.LastError(), profiles.ErrProfilesDirNotFound) {
		t.Errorf("LastError = %v", m.LastError())
	}
	if len(calls) != 2 || calls[0] != nil || calls[1] == nil {
		t.Errorf("hook calls = %v", calls)
	}
}

func TestActiveBlockEnds(t *testing.T) {
	c := newChecker(t, fixture(t))
	s, err := c.Check(context.Background(), "")
	if err != nil {
		t.Fatal(err)
	}
	ends := ActiveBlockEnds(s)
	want := now.Add(-80 * time.Minute).Truncate(time.Hour).Add(5 * time.Hour)
	if len(ends) != 1 || !ends[0].Equal(want) {
		t.Errorf("ends = %v, want [%s]", ends, want)
	}
}
