// Package scan enumerates the live filesystem state of a site root and
// computes content signatures for change detection.
package scan

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/inful/mdfp"

	"git.home.luguber.info/inful/sitegen/internal/index"
	"git.home.luguber.info/inful/sitegen/internal/page"
	"git.home.luguber.info/inful/sitegen/internal/site"
)

// Entry is one live source file with a freshly computed signature.
// It is the scanner-side counterpart of index.Entry.
type Entry struct {
	// Path is the canonical relative path from the site root,
	// e.g. "source/posts/hello.md" or "templates/page.html".
	Path    string
	AbsPath string

	Signature index.Signature
	Kind      index.Kind

	// URL is set for pages only.
	URL string

	// Template is the declared template identifier for pages, and the
	// template's own identifier for files under the template directory.
	Template string

	// Meta is the parsed publish metadata. Pages only.
	Meta page.Meta
}

// IsPage reports whether the entry is renderable content.
func (e Entry) IsPage() bool { return e.Kind == index.KindPage }

var assetExts = map[string]struct{}{
	".html": {}, ".htm": {}, ".css": {}, ".js": {},
	".png": {}, ".jpg": {}, ".jpeg": {}, ".gif": {}, ".svg": {}, ".ico": {},
	".txt": {}, ".xml": {}, ".woff": {}, ".woff2": {},
}

// Scanner walks a site's source and template directories.
type Scanner struct {
	layout *site.Layout
	logger *slog.Logger
}

// NewScanner creates a scanner for the given layout.
func NewScanner(layout *site.Layout) *Scanner {
	return &Scanner{
		layout: layout,
		logger: slog.Default(),
	}
}

// WithLogger sets a custom logger.
func (s *Scanner) WithLogger(logger *slog.Logger) *Scanner {
	s.logger = logger
	return s
}

// ErrNoSourceRoot reports that the site has no source directory at all.
// Distinct from an empty source directory: an absent root means "nothing to
// build", never "every tracked file was deleted".
var ErrNoSourceRoot = errors.New("source directory does not exist")

// Scan enumerates the source and template trees. A missing source root is a
// recoverable condition: Scan logs it and returns ErrNoSourceRoot so callers
// can stop planning without touching previously built state.
//
// Entries are returned sorted by path. Ordering is for reporting only; no
// downstream component relies on it for correctness.
func (s *Scanner) Scan() ([]Entry, error) {
	var entries []Entry

	if _, err := os.Stat(s.layout.SourceDir); err != nil {
		if os.IsNotExist(err) {
			s.logger.Warn("Source directory missing, nothing to build", "dir", s.layout.SourceDir)
			return nil, ErrNoSourceRoot
		}
		return nil, err
	}

	sourceEntries, err := s.walk(s.layout.SourceDir, site.SourceDirName, s.classifySource)
	if err != nil {
		return nil, err
	}
	entries = append(entries, sourceEntries...)

	if _, err := os.Stat(s.layout.TemplateDir); err == nil {
		tmplEntries, walkErr := s.walk(s.layout.TemplateDir, site.TemplateDirName, s.classifyTemplate)
		if walkErr != nil {
			return nil, walkErr
		}
		entries = append(entries, tmplEntries...)
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Path < entries[j].Path })
	return entries, nil
}

type classifyFunc func(rel, abs string, content []byte) (Entry, error)

func (s *Scanner) walk(dir, prefix string, classify classifyFunc) ([]Entry, error) {
	var entries []Entry

	err := filepath.WalkDir(dir, func(abs string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if strings.HasPrefix(d.Name(), ".") && abs != dir {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasPrefix(d.Name(), ".") {
			return nil
		}

		rel, err := filepath.Rel(dir, abs)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(filepath.Join(prefix, rel))

		content, err := os.ReadFile(abs)
		if err != nil {
			// Unreadable files are tracked as unknown so the tree view
			// still reports them; they are never rendered.
			s.logger.Warn("Source file unreadable", "path", rel, "error", err)
			entries = append(entries, Entry{Path: rel, AbsPath: abs, Kind: index.KindUnknown})
			return nil
		}

		entry, err := classify(rel, abs, content)
		if err != nil {
			return err
		}

		info, statErr := d.Info()
		if statErr == nil {
			entry.Signature.ModTime = info.ModTime().UTC()
		}
		entry.Signature.Size = int64(len(content))
		entries = append(entries, entry)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// classifySource assigns a kind and signature to a file under source/.
func (s *Scanner) classifySource(rel, abs string, content []byte) (Entry, error) {
	ext := strings.ToLower(filepath.Ext(rel))

	entry := Entry{Path: rel, AbsPath: abs}

	switch ext {
	case ".md", ".markdown":
		entry.Kind = index.KindPage
		entry.Signature.Hash = markdownHash(content)

		meta, _, err := page.Parse(content)
		if err != nil {
			// Broken frontmatter still yields a page; the render step
			// reports the failure against this page alone.
			s.logger.Warn("Frontmatter unparsable", "path", rel, "error", err)
			meta = page.Meta{Template: page.DefaultTemplate, Fields: map[string]any{}}
		}
		entry.Meta = meta
		entry.Template = meta.Template

		srcRel := strings.TrimPrefix(rel, site.SourceDirName+"/")
		entry.URL = s.layout.URLFor(srcRel)
	default:
		if _, ok := assetExts[ext]; ok {
			entry.Kind = index.KindAsset
		} else {
			entry.Kind = index.KindUnknown
		}
		entry.Signature.Hash = contentHash(content)
	}

	return entry, nil
}

// classifyTemplate assigns kind asset to every template file; its template
// identifier is its path relative to the template directory.
func (s *Scanner) classifyTemplate(rel, abs string, content []byte) (Entry, error) {
	return Entry{
		Path:      rel,
		AbsPath:   abs,
		Kind:      index.KindAsset,
		Template:  strings.TrimPrefix(rel, site.TemplateDirName+"/"),
		Signature: index.Signature{Hash: contentHash(content)},
	}, nil
}

// markdownHash fingerprints a markdown document through mdfp so the
// signature matches the canonical frontmatter+body hashing used by the
// wider toolchain.
func markdownHash(content []byte) string {
	fm, body, _, err := page.Split(content)
	if err != nil {
		// Unsplittable documents fall back to whole-content hashing.
		return contentHash(content)
	}
	return mdfp.CalculateFingerprintFromParts(string(fm), string(body))
}

func contentHash(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}
