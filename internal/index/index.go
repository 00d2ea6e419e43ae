// Package index provides the durable file index that makes rebuilds
// incremental. The index maps each discovered source path to the cached
// build metadata recorded the last time that file was built.
package index

import (
	"sort"
	"time"
)

// SchemaVersion is bumped whenever the persisted entry layout changes.
// A mismatch on load is treated as "no cache" and triggers a full reindex.
const SchemaVersion = 1

// Kind classifies an indexed source file.
type Kind string

const (
	// KindPage is renderable content (markdown).
	KindPage Kind = "page"
	// KindAsset is tracked but never rendered (templates, static files).
	KindAsset Kind = "asset"
	// KindUnknown is anything the scanner could not classify.
	KindUnknown Kind = "unknown"
)

// Signature is a comparable fingerprint of a source file's content state.
//
// Equality is content-hash based rather than mtime based: two files are
// considered unchanged only if their size and content hash agree. Mtime is
// recorded for reporting and sorting but deliberately excluded from the
// comparison so sub-second edits and clock skew cannot mask a change.
type Signature struct {
	Size    int64     `json:"size"`
	ModTime time.Time `json:"mod_time"`
	Hash    string    `json:"hash"`
}

// Equal reports whether two signatures describe identical content.
func (s Signature) Equal(other Signature) bool {
	return s.Size == other.Size && s.Hash == other.Hash
}

// IsZero reports whether the signature has never been computed.
func (s Signature) IsZero() bool {
	return s.Hash == "" && s.Size == 0
}

// Entry is the cached build metadata for one source file.
type Entry struct {
	// Path is the canonical relative path from the site root. Unique.
	Path string `json:"path"`

	Signature Signature `json:"signature"`
	Kind      Kind      `json:"kind"`

	// LastBuildTime is the time of the last successful render.
	// Zero means the entry has never been built.
	LastBuildTime time.Time `json:"last_build_time,omitzero"`

	// URL is the computed public URL path. Stable across rebuilds
	// unless the source path changes.
	URL string `json:"url"`

	// Template is the page's declared template identifier. Persisted so
	// the template->pages reverse map can be rebuilt without re-reading
	// content.
	Template string `json:"template,omitempty"`
}

// Built reports whether the entry has ever been rendered successfully.
func (e *Entry) Built() bool { return !e.LastBuildTime.IsZero() }

// BuildIndex is the full path -> Entry mapping plus index-level metadata.
//
// It is constructed once per run, threaded explicitly through the pipeline,
// and handed back for persistence. No component holds ambient access to it.
type BuildIndex struct {
	SchemaVersion     int               `json:"schema_version"`
	LastFullBuildTime time.Time         `json:"last_full_build_time,omitzero"`
	Entries           map[string]*Entry `json:"entries"`
}

// New returns an empty index at the current schema version.
func New() *BuildIndex {
	return &BuildIndex{
		SchemaVersion: SchemaVersion,
		Entries:       make(map[string]*Entry),
	}
}

// Get returns the entry for path, or nil.
func (ix *BuildIndex) Get(path string) *Entry {
	return ix.Entries[path]
}

// Put inserts or replaces the entry, keyed by its path.
func (ix *BuildIndex) Put(e *Entry) {
	ix.Entries[e.Path] = e
}

// Delete removes the entry for path if present.
func (ix *BuildIndex) Delete(path string) {
	delete(ix.Entries, path)
}

// Len returns the number of tracked entries.
func (ix *BuildIndex) Len() int { return len(ix.Entries) }

// Paths returns all indexed paths in ascending order.
func (ix *BuildIndex) Paths() []string {
	paths := make([]string, 0, len(ix.Entries))
	for p := range ix.Entries {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// Pages returns all page entries sorted by path.
func (ix *BuildIndex) Pages() []*Entry {
	pages := make([]*Entry, 0, len(ix.Entries))
	for _, e := range ix.Entries {
		if e.Kind == KindPage {
			pages = append(pages, e)
		}
	}
	sort.Slice(pages, func(i, j int) bool { return pages[i].Path < pages[j].Path })
	return pages
}
