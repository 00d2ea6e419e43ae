package index

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

const (
	// CacheDirName is the per-site directory holding sitegen state.
	CacheDirName = ".sitegen"
	indexFile    = "index.json"
)

// Store persists a BuildIndex across invocations as a JSON file under the
// site root. A single build process owns the index for the duration of a
// run; the store only guarantees that readers never observe a half-written
// file (write-to-temp-then-rename).
type Store struct {
	root   string
	logger *slog.Logger
}

// NewStore creates a store rooted at the given site directory.
func NewStore(root string) *Store {
	return &Store{
		root:   root,
		logger: slog.Default(),
	}
}

// WithLogger sets a custom logger.
func (s *Store) WithLogger(logger *slog.Logger) *Store {
	s.logger = logger
	return s
}

// Path returns the on-disk location of the index file.
func (s *Store) Path() string {
	return filepath.Join(s.root, CacheDirName, indexFile)
}

// Load reads the persisted index. A missing, unreadable, malformed, or
// schema-mismatched cache is treated as "no cache": Load returns an empty
// index and the run proceeds as a full rebuild. It never fails the build.
func (s *Store) Load() *BuildIndex {
	data, err := os.ReadFile(s.Path())
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Warn("Index cache unreadable, starting fresh", "path", s.Path(), "error", err)
		}
		return New()
	}

	var ix BuildIndex
	if err := json.Unmarshal(data, &ix); err != nil {
		s.logger.Warn("Index cache corrupt, starting fresh", "path", s.Path(), "error", err)
		return New()
	}

	if ix.SchemaVersion != SchemaVersion {
		s.logger.Warn("Index cache schema mismatch, starting fresh",
			"found", ix.SchemaVersion,
			"want", SchemaVersion)
		return New()
	}

	if ix.Entries == nil {
		ix.Entries = make(map[string]*Entry)
	}

	// Entries are keyed by path in the file too; trust the key, not the
	// embedded field, if they ever disagree.
	for path, e := range ix.Entries {
		if e == nil {
			delete(ix.Entries, path)
			continue
		}
		e.Path = path
	}

	return &ix
}

// Persist atomically replaces the on-disk cache with the new state.
// A partial write never corrupts the prior valid cache.
func (s *Store) Persist(ix *BuildIndex) error {
	ix.SchemaVersion = SchemaVersion

	data, err := json.MarshalIndent(ix, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal index: %w", err)
	}

	dir := filepath.Join(s.root, CacheDirName)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("create cache directory: %w", err)
	}

	statePath := s.Path()
	tempPath := statePath + ".tmp"

	if err := os.WriteFile(tempPath, data, 0o644); err != nil {
		return fmt.Errorf("write temporary index file: %w", err)
	}

	if err := os.Rename(tempPath, statePath); err != nil {
		return fmt.Errorf("replace index file: %w", err)
	}

	s.logger.Debug("Index persisted", "path", statePath, "entries", ix.Len())
	return nil
}

// Invalidate returns an empty index, discarding cached state. Used when an
// explicit reindex is requested. The on-disk cache is left untouched until
// the next Persist.
func (s *Store) Invalidate() *BuildIndex {
	return New()
}
