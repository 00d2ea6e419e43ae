package artifact

import (
	"encoding/xml"
	"fmt"
	"sort"

	"git.home.luguber.info/inful/sitegen/internal/index"
	"git.home.luguber.info/inful/sitegen/internal/scan"
)

const sitemapNS = "http://www.sitemaps.org/schemas/sitemap/0.9"

type urlSet struct {
	XMLName xml.Name     `xml:"urlset"`
	XMLNS   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

type sitemapURL struct {
	Loc     string `xml:"loc"`
	LastMod string `xml:"lastmod,omitempty"`
}

// generateSitemap writes one entry per renderable page. Deleted pages are
// absent from the live set and therefore omitted.
func (g *Generator) generateSitemap(ix *index.BuildIndex, pages []scan.Entry, stale bool) error {
	outPath := g.layout.OutputPath("/" + g.opts.SitemapPath)
	if g.upToDate(outPath, stale) {
		g.logger.Debug("Sitemap up to date", "path", outPath)
		return nil
	}

	urls := make([]sitemapURL, 0, len(pages))
	for _, pg := range pages {
		if !pg.IsPage() || pg.Meta.Draft {
			continue
		}

		u := sitemapURL{Loc: g.layout.AbsoluteURL(pg.URL)}
		if ts := g.entryLastMod(pg, ix.Get(pg.Path)); !ts.IsZero() {
			u.LastMod = ts.UTC().Format("2006-01-02")
		}
		urls = append(urls, u)
	}

	sort.Slice(urls, func(i, j int) bool { return urls[i].Loc < urls[j].Loc })

	data, err := xml.MarshalIndent(urlSet{XMLNS: sitemapNS, URLs: urls}, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal sitemap: %w", err)
	}

	if err := writeArtifact(outPath, append([]byte(xml.Header), data...)); err != nil {
		return fmt.Errorf("write sitemap: %w", err)
	}

	g.logger.Info("Sitemap generated", "path", outPath, "urls", len(urls))
	return nil
}
