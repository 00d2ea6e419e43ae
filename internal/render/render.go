// Package render is the default render collaborator: it turns a markdown
// page into HTML through its declared template. The build core treats
// rendering as a black box; anything satisfying builder.RenderFunc can
// replace this engine.
package render

import (
	"bytes"
	"fmt"
	"html/template"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/yuin/goldmark"
	gmast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	gmhtml "github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/text"

	"git.home.luguber.info/inful/sitegen/internal/page"
	"git.home.luguber.info/inful/sitegen/internal/rendercache"
	"git.home.luguber.info/inful/sitegen/internal/scan"
	"git.home.luguber.info/inful/sitegen/internal/site"
)

// defaultBody substitutes for pages whose source has no content.
const defaultBody = "*Nothing here yet...*"

// SiteInfo is site-level data exposed to templates.
type SiteInfo struct {
	Title       string
	Description string
	Author      string
	BaseURL     string
}

// PageData is the template execution context for one page.
type PageData struct {
	Title    string
	Content  template.HTML
	URL      string
	Modified time.Time
	Now      time.Time
	Meta     map[string]any
	Site     SiteInfo
}

// Engine renders markdown pages through html/template page templates.
type Engine struct {
	layout *site.Layout
	info   SiteInfo
	md     goldmark.Markdown
	cache  *rendercache.Cache
	logger *slog.Logger

	templates map[string]*template.Template
}

// NewEngine creates a render engine for the given layout.
func NewEngine(layout *site.Layout, info SiteInfo) *Engine {
	return &Engine{
		layout: layout,
		info:   info,
		md: goldmark.New(
			goldmark.WithExtensions(extension.GFM, extension.Footnote),
			goldmark.WithParserOptions(parser.WithAutoHeadingID()),
			goldmark.WithRendererOptions(gmhtml.WithUnsafe()),
		),
		logger:    slog.Default(),
		templates: make(map[string]*template.Template),
	}
}

// WithCache attaches a rendered-output cache, shared across runs.
func (e *Engine) WithCache(c *rendercache.Cache) *Engine {
	e.cache = c
	return e
}

// WithLogger sets a custom logger.
func (e *Engine) WithLogger(logger *slog.Logger) *Engine {
	e.logger = logger
	return e
}

// Render produces the final HTML for one page entry.
func (e *Engine) Render(entry scan.Entry) ([]byte, error) {
	cacheKey := entry.Signature.Hash + "|" + entry.Template
	if cached, ok := e.cache.Get(cacheKey); ok {
		return cached, nil
	}

	content, err := os.ReadFile(entry.AbsPath)
	if err != nil {
		return nil, fmt.Errorf("read source: %w", err)
	}

	meta, body, err := page.Parse(content)
	if err != nil {
		return nil, fmt.Errorf("parse frontmatter: %w", err)
	}

	if len(bytes.TrimSpace(body)) == 0 {
		heading := stem(entry.Path)
		body = []byte(fmt.Sprintf("# %s\n%s", heading, defaultBody))
	}

	var html bytes.Buffer
	if err := e.md.Convert(body, &html); err != nil {
		return nil, fmt.Errorf("convert markdown: %w", err)
	}

	data := PageData{
		Title:    pageTitle(e.md, meta, body, entry.Path),
		Content:  template.HTML(html.String()),
		URL:      entry.URL,
		Modified: entry.Signature.ModTime,
		Now:      time.Now().UTC(),
		Meta:     meta.Fields,
		Site:     e.info,
	}

	tmpl, err := e.lookupTemplate(entry.Template)
	if err != nil {
		return nil, err
	}

	var out bytes.Buffer
	if err := tmpl.Execute(&out, data); err != nil {
		return nil, fmt.Errorf("execute template %s: %w", entry.Template, err)
	}

	rendered := out.Bytes()
	e.cache.Put(cacheKey, rendered)
	return rendered, nil
}

// Reset drops parsed templates and cached output so the next render
// reloads everything from disk. Watch mode calls this before each rebuild.
func (e *Engine) Reset() {
	e.templates = make(map[string]*template.Template)
	e.cache.Purge()
}

// lookupTemplate loads a page template by identifier, falling back to the
// built-in default when the file is absent.
func (e *Engine) lookupTemplate(id string) (*template.Template, error) {
	if id == "" {
		id = page.DefaultTemplate
	}
	if t, ok := e.templates[id]; ok {
		return t, nil
	}

	path := filepath.Join(e.layout.TemplateDir, filepath.FromSlash(id))
	raw, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("read template %s: %w", id, err)
		}
		e.logger.Debug("Template missing, using fallback", "template", id)
		raw = []byte(fallbackTemplate)
	}

	t, err := template.New(id).Parse(string(raw))
	if err != nil {
		return nil, fmt.Errorf("parse template %s: %w", id, err)
	}

	e.templates[id] = t
	return t, nil
}

// pageTitle prefers the frontmatter title, then the first H1, then the
// source filename stem.
func pageTitle(md goldmark.Markdown, meta page.Meta, body []byte, path string) string {
	if meta.Title != "" {
		return meta.Title
	}

	root := md.Parser().Parse(text.NewReader(body))
	var title string
	_ = gmast.Walk(root, func(n gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if !entering {
			return gmast.WalkContinue, nil
		}
		if h, ok := n.(*gmast.Heading); ok && h.Level == 1 {
			var sb strings.Builder
			for c := h.FirstChild(); c != nil; c = c.NextSibling() {
				if t, ok := c.(*gmast.Text); ok {
					sb.Write(t.Segment.Value(body))
				}
			}
			title = sb.String()
			return gmast.WalkStop, nil
		}
		return gmast.WalkContinue, nil
	})

	if title != "" {
		return title
	}
	return stem(path)
}

func stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
