package profiles

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// DefaultDebounce coalesces the bursts of writes Claude Code makes per turn.
const DefaultDebounce = 500 * time.Millisecond

// Watcher reports changes to the session logs under a profiles root.
// fsnotify is not recursive, so every directory in the tree is watched and
// new directories are added as they appear.
type Watcher struct {
	root     string
	debounce time.Duration
	watcher  *fsnotify.Watcher
	changes  chan struct{}
	logger   zerolog.Logger
}

// NewWatcher starts watching root and everything below it.
func NewWatcher(root string, debounce time.Duration, logger zerolog.Logger) (*Watcher, error) {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	w := &Watcher{
		root:     root,
		debounce: debounce,
		watcher:  fw,
		changes:  make(chan struct{}, 1),
		logger:   logger,
	}
	if err := w.addTree(root); err != nil {
		fw.Close()
		return nil, err
	}
	logger.Debug().Str("root", root).Int("dirs", len(fw.WatchList())).Msg("watching profiles")
	return w, nil
}

// Changes delivers one value per debounced burst of log changes.
func (w *Watcher) Changes() <-chan struct{} {
	return w.changes
}

// Run processes filesystem events until ctx is cancelled, then closes the
// underlying watcher.
func (w *Watcher) Run(ctx context.Context) {
	defer w.watcher.Close()

	var (
		timer *time.Timer
		fire  <-chan time.Time
	)
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !w.handle(event) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			select {
			case w.changes <- struct{}{}:
			default:
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn().Err(err).Msg("profile watcher error")

		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return
		}
	}
}

// handle reports whether event is relevant, registering new directories.
func (w *Watcher) handle(event fsnotify.Event) bool {
	if event.Op&fsnotify.Create != 0 {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := w.addTree(event.Name); err != nil {
				w.logger.Debug().Err(err).Str("dir", event.Name).Msg("cannot watch new directory")
			}
			return true
		}
	}
	if !strings.HasSuffix(event.Name, ".jsonl") {
		return event.Op&fsnotify.Remove != 0
	}
	w.logger.Debug().Str("event", event.Op.String()).Str("file", event.Name).Msg("log changed")
	return event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) != 0
}

func (w *Watcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == dir {
				return fmt.Errorf("watch %s: %w", dir, err)
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != w.root && strings.HasPrefix(d.Name(), ".") {
			return fs.SkipDir
		}
		if err := w.watcher.Add(path); err != nil {
			return fmt.Errorf("watch %s: %w", path, err)
		}
		return nil
	})
}
