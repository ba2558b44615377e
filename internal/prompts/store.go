package prompts

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

// validKeyPattern matches valid prompt keys (alphanumeric with dots, underscores).
var validKeyPattern = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9._]*$`)

const overrideExt = ".tmpl"

// Store keeps prompt overrides as <key>.tmpl files in one directory.
type Store struct {
	dir string
}

// NewStore creates a store rooted at dir. The directory is created on
// the first Put.
func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// Dir returns the override directory.
func (s *Store) Dir() string {
	return s.dir
}

// Get returns the override text for key. ok is false when no override exists.
func (s *Store) Get(key string) (text string, ok bool, err error) {
	if !validKeyPattern.MatchString(key) {
		return "", false, fmt.Errorf("invalid prompt key: %s", key)
	}
	data, err := os.ReadFile(s.path(key))
	if errors.Is(err, os.ErrNotExist) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("reading override %s: %w", key, err)
	}
	return string(data), true, nil
}

// Put writes an override.
func (s *Store) Put(key, text string) error {
	if !validKeyPattern.MatchString(key) {
		return fmt.Errorf("invalid prompt key: %s", key)
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("creating override directory: %w", err)
	}
	if err := os.WriteFile(s.path(key), []byte(text), 0o644); err != nil {
		return fmt.Errorf("writing override %s: %w", key, err)
	}
	return nil
}

// Delete removes an override. Deleting a missing override is not an error.
func (s *Store) Delete(key string) error {
	if !validKeyPattern.MatchString(key) {
		return fmt.Errorf("invalid prompt key: %s", key)
	}
	if err := os.Remove(s.path(key)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("deleting override %s: %w", key, err)
	}
	return nil
}

// List returns the keys that have overrides, sorted.
func (s *Store) List() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("listing overrides: %w", err)
	}
	var keys []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, overrideExt) {
			continue
		}
		key := strings.TrimSuffix(name, overrideExt)
		if validKeyPattern.MatchString(key) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

func (s *Store) path(key string) string {
	return filepath.Join(s.dir, key+overrideExt)
}
