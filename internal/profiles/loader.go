package profiles

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/proboscis/claude-block-checker/internal/blocks"
)

// maxLineSize bounds a single JSONL line; tool results can be large.
const maxLineSize = 16 * 1024 * 1024

// Loader reads the raw usage entries of profiles from disk.
type Loader struct {
	cache   *FileCache
	workers int
	logger  zerolog.Logger
}

// NewLoader creates a loader. cache may be nil; workers <= 0 means GOMAXPROCS.
func NewLoader(cache *FileCache, workers int, logger zerolog.Logger) *Loader {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &Loader{cache: cache, workers: workers, logger: logger}
}

// LoadAll loads every profile. Per-profile read failures end up in the
// returned sources; only cancellation is reported as an error.
func (l *Loader) LoadAll(ctx context.Context, profiles []Profile) ([]blocks.Source, error) {
	sources := make([]blocks.Source, len(profiles))
	for i, p := range profiles {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		sources[i] = l.Load(ctx, p)
	}
	return sources, ctx.Err()
}

// Load parses every *.jsonl file under the profile's projects directory.
// Files are parsed concurrently; entries come back in path order, then line
// order. A profile without a projects directory yields an empty source.
func (l *Loader) Load(ctx context.Context, p Profile) blocks.Source {
	src := blocks.Source{Profile: p.Name}
	log := l.logger.With().Str("profile", p.Name).Logger()

	files, err := jsonlFiles(p.ProjectsDir(), log)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return src
		}
		src.Err = err
		return src
	}

	type parsed struct {
		entries     []blocks.RawEntry
		undecodable int
		unreadable  bool
	}
	results := make([]parsed, len(files))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(l.workers)
	for i, path := range files {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			entries, undecodable, err := l.parseCached(path)
			if err != nil {
				log.Warn().Err(err).Str("file", path).Msg("skipping unreadable log file")
				results[i] = parsed{unreadable: true}
				return nil
			}
			results[i] = parsed{entries: entries, undecodable: undecodable}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		src.Err = err
		return src
	}

	total := 0
	for _, r := range results {
		total += len(r.entries)
	}
	src.Entries = make([]blocks.RawEntry, 0, total)
	for _, r := range results {
		src.Entries = append(src.Entries, r.entries...)
		src.Undecodable += r.undecodable
		if r.unreadable {
			src.UnreadableFiles++
		}
	}
	log.Debug().Int("files", len(files)).Int("entries", total).Msg("profile loaded")
	return src
}

func (l *Loader) parseCached(path string) ([]blocks.RawEntry, int, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, 0, fmt.Errorf("stat log file: %w", err)
	}
	if entries, undecodable, ok := l.cache.Get(path, info); ok {
		return entries, undecodable, nil
	}
	entries, undecodable, err := ParseFile(path)
	if err != nil {
		return nil, 0, err
	}
	l.cache.Put(path, info, entries, undecodable)
	return entries, undecodable, nil
}

// jsonlFiles walks dir for *.jsonl files in lexical path order. Unreadable
// subdirectories are skipped; an unreadable dir itself is an error.
func jsonlFiles(dir string, log zerolog.Logger) ([]string, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", dir)
	}

	var files []string
	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == dir {
				return fmt.Errorf("read projects dir: %w", err)
			}
			log.Debug().Err(err).Str("path", path).Msg("skipping unreadable path")
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if !d.IsDir() && strings.HasSuffix(d.Name(), ".jsonl") {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

// ParseFile decodes one JSONL log. Blank lines are ignored and lines that
// are not JSON objects are counted as undecodable.
func ParseFile(path string) ([]blocks.RawEntry, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()

	var (
		entries     []blocks.RawEntry
		undecodable int
	)
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var entry blocks.RawEntry
		if err := json.Unmarshal(line, &entry); err != nil {
			undecodable++
			continue
		}
		entries = append(entries, entry)
	}
	if err := scanner.Err(); err != nil {
		return nil, 0, fmt.Errorf("read log file %s: %w", path, err)
	}
	return entries, undecodable, nil
}
