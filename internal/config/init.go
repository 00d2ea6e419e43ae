package config

import (
	"fmt"
	"os"
	"path/filepath"

	"git.home.luguber.info/inful/sitegen/internal/site"
)

const starterConfig = `site:
  title: My Site
  description: ""
  base_url: ""
`

const starterPage = `---
title: Welcome
---

# Welcome

This site was just initialized. Edit this page to get started.
`

const starterTemplate = `<!DOCTYPE html>
<html>
<head>
  <meta charset="utf-8">
  <title>{{.Title}}{{with .Site.Title}} &middot; {{.}}{{end}}</title>
</head>
<body>
<main>
{{.Content}}
</main>
</body>
</html>
`

// Init scaffolds a new site under root: config file, source and template
// directories, and a starter page. Existing files are left alone unless
// force is set.
func Init(root string, force bool) error {
	layout := site.NewLayout(root)

	for _, dir := range []string{layout.SourceDir, layout.TemplateDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}

	files := []struct {
		path    string
		content string
	}{
		{filepath.Join(root, DefaultFileName), starterConfig},
		{filepath.Join(layout.SourceDir, "index.md"), starterPage},
		{filepath.Join(layout.TemplateDir, "page.html"), starterTemplate},
	}

	for _, f := range files {
		if !force {
			if _, err := os.Stat(f.path); err == nil {
				continue
			}
		}
		if err := os.WriteFile(f.path, []byte(f.content), 0o644); err != nil {
			return fmt.Errorf("write %s: %w", f.path, err)
		}
	}
	return nil
}
