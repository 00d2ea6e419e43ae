// Package query projects the build index into human and machine readable
// views. Projections are read-only: they never mutate or persist the index.
package query

import (
	"encoding/json"
	"fmt"
	"io"
	"iter"
	"sort"
	"strings"

	"git.home.luguber.info/inful/sitegen/internal/index"
	"git.home.luguber.info/inful/sitegen/internal/scan"
)

// Format selects the output shape.
type Format string

const (
	FormatTree Format = "tree"
	FormatURL  Format = "url"
	FormatJSON Format = "json"
)

// Sort selects the entry ordering.
type Sort string

const (
	SortType      Sort = "type"
	SortPath      Sort = "path"
	SortLastMod   Sort = "lastmod"
	SortLastBuild Sort = "lastbuild"
)

// Options controls a single query.
type Options struct {
	Format Format
	Sort   Sort

	// Max caps the number of entries shown. <= 0 means unlimited.
	Max int
}

// Materialize builds a transient index from a live scan. Used when the
// caller wants a view of the filesystem as-is instead of the cached state;
// the result is never persisted.
func Materialize(entries []scan.Entry) *index.BuildIndex {
	ix := index.New()
	for _, e := range entries {
		ix.Put(&index.Entry{
			Path:      e.Path,
			Signature: e.Signature,
			Kind:      e.Kind,
			URL:       e.URL,
			Template:  e.Template,
		})
	}
	return ix
}

// Entries returns a restartable, ordered projection of the index. Each
// range over the sequence yields the same entries in the same order.
func Entries(ix *index.BuildIndex, opts Options) iter.Seq[index.Entry] {
	ordered := make([]*index.Entry, 0, ix.Len())
	for _, p := range ix.Paths() {
		ordered = append(ordered, ix.Get(p))
	}
	sortEntries(ordered, opts.Sort)
	if opts.Max > 0 && len(ordered) > opts.Max {
		ordered = ordered[:opts.Max]
	}

	return func(yield func(index.Entry) bool) {
		for _, e := range ordered {
			if !yield(*e) {
				return
			}
		}
	}
}

// sortEntries orders in place. Path order is the tiebreak everywhere, so
// output stays deterministic.
func sortEntries(entries []*index.Entry, by Sort) {
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		switch by {
		case SortType:
			if a.Kind != b.Kind {
				return a.Kind < b.Kind
			}
		case SortLastMod:
			if !a.Signature.ModTime.Equal(b.Signature.ModTime) {
				return a.Signature.ModTime.After(b.Signature.ModTime)
			}
		case SortLastBuild:
			if !a.LastBuildTime.Equal(b.LastBuildTime) {
				return a.LastBuildTime.After(b.LastBuildTime)
			}
		}
		return a.Path < b.Path
	})
}

// Render writes the projection in the requested format.
func Render(w io.Writer, ix *index.BuildIndex, opts Options) error {
	switch opts.Format {
	case FormatTree, "":
		return renderTree(w, ix, opts)
	case FormatURL:
		return renderURL(w, ix, opts)
	case FormatJSON:
		return renderJSON(w, ix, opts)
	default:
		return fmt.Errorf("unsupported format: %s", opts.Format)
	}
}

// renderURL lists one public URL per renderable page.
func renderURL(w io.Writer, ix *index.BuildIndex, opts Options) error {
	for e := range Entries(ix, opts) {
		if e.Kind != index.KindPage || e.URL == "" {
			continue
		}
		if _, err := fmt.Fprintln(w, e.URL); err != nil {
			return err
		}
	}
	return nil
}

type jsonEntry struct {
	Path      string `json:"path"`
	Kind      string `json:"kind"`
	URL       string `json:"url,omitempty"`
	Template  string `json:"template,omitempty"`
	Size      int64  `json:"size"`
	ModTime   string `json:"mod_time,omitempty"`
	LastBuild string `json:"last_build,omitempty"`
}

func renderJSON(w io.Writer, ix *index.BuildIndex, opts Options) error {
	out := make([]jsonEntry, 0, ix.Len())
	for e := range Entries(ix, opts) {
		je := jsonEntry{
			Path:     e.Path,
			Kind:     string(e.Kind),
			URL:      e.URL,
			Template: e.Template,
			Size:     e.Signature.Size,
		}
		if !e.Signature.ModTime.IsZero() {
			je.ModTime = e.Signature.ModTime.UTC().Format("2006-01-02T15:04:05Z07:00")
		}
		if e.Built() {
			je.LastBuild = e.LastBuildTime.UTC().Format("2006-01-02T15:04:05Z07:00")
		}
		out = append(out, je)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

// treeNode is one directory or file in the rendered hierarchy.
type treeNode struct {
	name     string
	entry    *index.Entry
	children map[string]*treeNode
}

func (n *treeNode) child(name string) *treeNode {
	if n.children == nil {
		n.children = make(map[string]*treeNode)
	}
	c, ok := n.children[name]
	if !ok {
		c = &treeNode{name: name}
		n.children[name] = c
	}
	return c
}

func (n *treeNode) sortedChildren() []*treeNode {
	names := make([]string, 0, len(n.children))
	for name := range n.children {
		names = append(names, name)
	}
	sort.Strings(names)
	out := make([]*treeNode, 0, len(names))
	for _, name := range names {
		out = append(out, n.children[name])
	}
	return out
}

// renderTree draws the indexed paths as an ASCII hierarchy with per-file
// annotation (kind, URL for pages, never-built marker).
func renderTree(w io.Writer, ix *index.BuildIndex, opts Options) error {
	root := &treeNode{name: "."}
	count := 0
	for e := range Entries(ix, opts) {
		node := root
		for _, seg := range strings.Split(e.Path, "/") {
			node = node.child(seg)
		}
		cached := e
		node.entry = &cached
		count++
	}

	if _, err := fmt.Fprintln(w, root.name); err != nil {
		return err
	}
	if err := writeChildren(w, root, ""); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "\n%d entries\n", count)
	return err
}

func writeChildren(w io.Writer, n *treeNode, prefix string) error {
	children := n.sortedChildren()
	for i, c := range children {
		connector, childPrefix := "├── ", prefix+"│   "
		if i == len(children)-1 {
			connector, childPrefix = "└── ", prefix+"    "
		}
		if _, err := fmt.Fprintf(w, "%s%s%s%s\n", prefix, connector, c.name, annotate(c.entry)); err != nil {
			return err
		}
		if err := writeChildren(w, c, childPrefix); err != nil {
			return err
		}
	}
	return nil
}

func annotate(e *index.Entry) string {
	if e == nil {
		return ""
	}
	var parts []string
	if e.Kind == index.KindPage {
		parts = append(parts, "page")
		if e.URL != "" {
			parts = append(parts, e.URL)
		}
		if !e.Built() {
			parts = append(parts, "never built")
		}
	}
	if len(parts) == 0 {
		return ""
	}
	return "  [" + strings.Join(parts, ", ") + "]"
}
