// Package artifact produces derivative outputs (RSS feed, sitemap) from the
// build index. Generators consume accumulated index state only; they never
// invoke the page render callback, so refreshing an artifact does not force
// any page to re-render.
package artifact

import (
	"log/slog"
	"os"
	"time"

	"git.home.luguber.info/inful/sitegen/internal/index"
	"git.home.luguber.info/inful/sitegen/internal/scan"
	"git.home.luguber.info/inful/sitegen/internal/site"
)

// DefaultMaxItems caps the RSS feed when no limit is configured.
const DefaultMaxItems = 20

// SiteMeta is the site-level metadata embedded in artifacts.
type SiteMeta struct {
	Title       string
	Description string
	Author      string
}

// Options selects which artifacts to produce.
type Options struct {
	NoRSS     bool
	NoSitemap bool

	// RSSPath and SitemapPath are output-relative file names.
	RSSPath     string
	SitemapPath string

	// MaxItems caps the RSS feed entry count. <= 0 selects DefaultMaxItems.
	MaxItems int
}

func (o *Options) normalize() {
	if o.RSSPath == "" {
		o.RSSPath = "rss.xml"
	}
	if o.SitemapPath == "" {
		o.SitemapPath = "sitemap.xml"
	}
	if o.MaxItems <= 0 {
		o.MaxItems = DefaultMaxItems
	}
}

// LastModFunc resolves a better last-modified time for a source path
// (e.g. from git history). Returning false falls back to index timestamps.
type LastModFunc func(path string) (time.Time, bool)

// Generator writes RSS and sitemap files under the output directory.
type Generator struct {
	layout  *site.Layout
	meta    SiteMeta
	opts    Options
	lastMod LastModFunc
	logger  *slog.Logger
}

// NewGenerator creates an artifact generator.
func NewGenerator(layout *site.Layout, meta SiteMeta, opts Options) *Generator {
	opts.normalize()
	return &Generator{
		layout: layout,
		meta:   meta,
		opts:   opts,
		logger: slog.Default(),
	}
}

// WithLastMod attaches an optional last-modified resolver.
func (g *Generator) WithLastMod(fn LastModFunc) *Generator {
	g.lastMod = fn
	return g
}

// WithLogger sets a custom logger.
func (g *Generator) WithLogger(logger *slog.Logger) *Generator {
	g.logger = logger
	return g
}

// Generate refreshes the enabled artifacts. pages is the live page set
// (deleted pages are naturally absent and therefore omitted); ix supplies
// build timestamps. When stale is false an existing artifact is left
// untouched, so an all-skip run rewrites nothing.
func (g *Generator) Generate(ix *index.BuildIndex, pages []scan.Entry, stale bool) error {
	if !g.opts.NoRSS {
		if err := g.generateRSS(ix, pages, stale); err != nil {
			return err
		}
	}
	if !g.opts.NoSitemap {
		if err := g.generateSitemap(ix, pages, stale); err != nil {
			return err
		}
	}
	return nil
}

// upToDate reports whether an existing artifact can be kept as-is.
func (g *Generator) upToDate(path string, stale bool) bool {
	if stale {
		return false
	}
	_, err := os.Stat(path)
	return err == nil
}

// entryLastMod picks the best last-modified value for a page.
func (g *Generator) entryLastMod(e scan.Entry, cached *index.Entry) time.Time {
	if g.lastMod != nil {
		if ts, ok := g.lastMod(e.Path); ok {
			return ts
		}
	}
	if cached != nil && cached.Built() {
		return cached.LastBuildTime
	}
	return e.Signature.ModTime
}

// publishTime picks the publication timestamp for feed ordering.
func (g *Generator) publishTime(e scan.Entry, cached *index.Entry) time.Time {
	if !e.Meta.Date.IsZero() {
		return e.Meta.Date
	}
	return g.entryLastMod(e, cached)
}
