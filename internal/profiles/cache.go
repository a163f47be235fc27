package profiles

import (
	"fmt"
	"os"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/proboscis/claude-block-checker/internal/blocks"
)

// DefaultCacheSize is the number of parsed files kept by long-running modes.
const DefaultCacheSize = 4096

type cachedFile struct {
	size        int64
	modTime     time.Time
	entries     []blocks.RawEntry
	undecodable int
}

// FileCache keeps parsed JSONL files keyed by path. An entry is reused only
// while the file's size and modification time are unchanged.
type FileCache struct {
	files *lru.Cache[string, cachedFile]
}

// NewFileCache creates a cache holding at most size files.
func NewFileCache(size int) (*FileCache, error) {
	files, err := lru.New[string, cachedFile](size)
	if err != nil {
		return nil, fmt.Errorf("create file cache: %w", err)
	}
	return &FileCache{files: files}, nil
}

// Get returns the cached parse of path if info still matches it.
func (c *FileCache) Get(path string, info os.FileInfo) ([]blocks.RawEntry, int, bool) {
	if c == nil {
		return nil, 0, false
	}
	f, ok := c.files.Get(path)
	if !ok || f.size != info.Size() || !f.modTime.Equal(info.ModTime()) {
		return nil, 0, false
	}
	return f.entries, f.undecodable, true
}

// Put stores the parse of path as of info.
func (c *FileCache) Put(path string, info os.FileInfo, entries []blocks.RawEntry, undecodable int) {
	if c == nil {
		return
	}
	c.files.Add(path, cachedFile{
		size:        info.Size(),
		modTime:     info.ModTime(),
		entries:     entries,
		undecodable: undecodable,
	})
}

// Len returns the number of cached files.
func (c *FileCache) Len() int {
	if c == nil {
		return 0
	}
	return c.files.Len()
}

// Purge drops every cached file.
func (c *FileCache) Purge() {
	if c != nil {
		c.files.Purge()
	}
}
