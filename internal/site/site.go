// Package site models the on-disk layout of a site root and the mapping
// from source paths to public URLs and output paths.
package site

import (
	"path"
	"path/filepath"
	"strings"
)

// Conventional directory names under the site root.
const (
	SourceDirName   = "source"
	TemplateDirName = "templates"
	OutputDirName   = "build"
)

// Layout resolves the directories of one site root.
type Layout struct {
	Root        string
	SourceDir   string
	TemplateDir string
	OutputDir   string

	// BaseURL prefixes absolute URLs in derivative artifacts
	// (e.g. "https://example.org"). May be empty for relative output.
	BaseURL string
}

// NewLayout builds a layout from a site root using the conventional
// directory names. Callers may override individual directories afterwards.
func NewLayout(root string) *Layout {
	return &Layout{
		Root:        root,
		SourceDir:   filepath.Join(root, SourceDirName),
		TemplateDir: filepath.Join(root, TemplateDirName),
		OutputDir:   filepath.Join(root, OutputDirName),
	}
}

// URLFor derives the public URL path for a source file, relative to the
// site root ("posts/Hello World.md" -> "/posts/hello-world.html").
//
// The mapping is a pure function of the source path, so URLs stay stable
// across rebuilds unless the source path itself changes.
func (l *Layout) URLFor(relSource string) string {
	rel := filepath.ToSlash(relSource)

	dir, file := path.Split(rel)
	ext := path.Ext(file)
	base := strings.TrimSuffix(file, ext)

	switch strings.ToLower(ext) {
	case ".md", ".markdown":
		ext = ".html"
	}

	segments := make([]string, 0, 8)
	for _, seg := range strings.Split(strings.Trim(dir, "/"), "/") {
		if seg == "" {
			continue
		}
		segments = append(segments, Slugify(seg))
	}
	segments = append(segments, Slugify(base)+ext)

	return "/" + path.Join(segments...)
}

// OutputPath maps a public URL path to its file under the output directory.
func (l *Layout) OutputPath(url string) string {
	rel := strings.TrimPrefix(url, "/")
	return filepath.Join(l.OutputDir, filepath.FromSlash(rel))
}

// AbsoluteURL joins the base URL with a site-relative URL path.
func (l *Layout) AbsoluteURL(url string) string {
	if l.BaseURL == "" {
		return url
	}
	return strings.TrimRight(l.BaseURL, "/") + url
}
