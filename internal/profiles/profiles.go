package profiles

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/samber/lo"
)

var (
	// ErrProfilesDirNotFound means the profiles root does not exist.
	ErrProfilesDirNotFound = errors.New("profiles directory not found")
	// ErrProfileNotFound means a named profile has no directory under the root.
	ErrProfileNotFound = errors.New("profile not found")
)

// Profile is one Claude configuration directory under the profiles root.
type Profile struct {
	Name string `json:"name"`
	Dir  string `json:"dir"`
}

// ProjectsDir is where Claude Code writes the profile's session logs.
func (p Profile) ProjectsDir() string {
	return filepath.Join(p.Dir, "projects")
}

// DefaultRoot returns ~/claude-profiles.
func DefaultRoot() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home dir: %w", err)
	}
	return filepath.Join(home, "claude-profiles"), nil
}

// Discover lists the non-hidden subdirectories of root, sorted by name.
func Discover(root string) ([]Profile, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrProfilesDirNotFound, root)
		}
		return nil, fmt.Errorf("read profiles dir: %w", err)
	}

	var profiles []Profile
	for _, entry := range entries {
		if !entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		profiles = append(profiles, Profile{Name: entry.Name(), Dir: filepath.Join(root, entry.Name())})
	}
	sort.Slice(profiles, func(i, j int) bool { return profiles[i].Name < profiles[j].Name })
	return profiles, nil
}

// Find returns the named profile under root.
func Find(root, name string) (Profile, error) {
	if name == "" || strings.ContainsAny(name, `/\`) || strings.HasPrefix(name, ".") {
		return Profile{}, fmt.Errorf("%w: %q", ErrProfileNotFound, name)
	}
	if _, err := os.Stat(root); os.IsNotExist(err) {
		return Profile{}, fmt.Errorf("%w: %s", ErrProfilesDirNotFound, root)
	}
	dir := filepath.Join(root, name)
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return Profile{}, fmt.Errorf("%w: %s", ErrProfileNotFound, name)
	}
	return Profile{Name: name, Dir: dir}, nil
}

// Names returns the profile names in order.
func Names(profiles []Profile) []string {
	return lo.Map(profiles, func(p Profile, _ int) string { return p.Name })
}
