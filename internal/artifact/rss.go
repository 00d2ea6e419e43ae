package artifact

import (
	"encoding/xml"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"git.home.luguber.info/inful/sitegen/internal/index"
	"git.home.luguber.info/inful/sitegen/internal/scan"
)

type rssDoc struct {
	XMLName xml.Name   `xml:"rss"`
	Version string     `xml:"version,attr"`
	Channel rssChannel `xml:"channel"`
}

type rssChannel struct {
	Title         string    `xml:"title"`
	Link          string    `xml:"link"`
	Description   string    `xml:"description"`
	LastBuildDate string    `xml:"lastBuildDate,omitempty"`
	Items         []rssItem `xml:"item"`
}

type rssItem struct {
	Title       string `xml:"title"`
	Link        string `xml:"link"`
	GUID        string `xml:"guid"`
	PubDate     string `xml:"pubDate"`
	Description string `xml:"description,omitempty"`
}

// generateRSS writes the feed ordered by descending publish time and capped
// at the configured entry count.
func (g *Generator) generateRSS(ix *index.BuildIndex, pages []scan.Entry, stale bool) error {
	outPath := g.layout.OutputPath("/" + g.opts.RSSPath)
	if g.upToDate(outPath, stale) {
		g.logger.Debug("RSS up to date", "path", outPath)
		return nil
	}

	type datedPage struct {
		entry scan.Entry
		pub   time.Time
	}

	dated := make([]datedPage, 0, len(pages))
	for _, pg := range pages {
		if !pg.IsPage() || pg.Meta.Draft {
			continue
		}
		dated = append(dated, datedPage{entry: pg, pub: g.publishTime(pg, ix.Get(pg.Path))})
	}

	sort.Slice(dated, func(i, j int) bool {
		if !dated[i].pub.Equal(dated[j].pub) {
			return dated[i].pub.After(dated[j].pub)
		}
		return dated[i].entry.Path < dated[j].entry.Path
	})

	if len(dated) > g.opts.MaxItems {
		dated = dated[:g.opts.MaxItems]
	}

	items := make([]rssItem, 0, len(dated))
	var newest time.Time
	for _, dp := range dated {
		link := g.layout.AbsoluteURL(dp.entry.URL)
		items = append(items, rssItem{
			Title:       itemTitle(dp.entry),
			Link:        link,
			GUID:        link,
			PubDate:     dp.pub.UTC().Format(time.RFC1123Z),
			Description: g.itemDescription(dp.entry),
		})
		if dp.pub.After(newest) {
			newest = dp.pub
		}
	}

	doc := rssDoc{
		Version: "2.0",
		Channel: rssChannel{
			Title:       g.meta.Title,
			Link:        g.layout.AbsoluteURL("/"),
			Description: g.meta.Description,
			Items:       items,
		},
	}
	if !newest.IsZero() {
		doc.Channel.LastBuildDate = newest.UTC().Format(time.RFC1123Z)
	}

	data, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal rss: %w", err)
	}

	if err := writeArtifact(outPath, append([]byte(xml.Header), data...)); err != nil {
		return fmt.Errorf("write rss: %w", err)
	}

	g.logger.Info("RSS generated", "path", outPath, "items", len(items))
	return nil
}

// itemTitle falls back from frontmatter to a URL-derived title.
func itemTitle(e scan.Entry) string {
	if e.Meta.Title != "" {
		return e.Meta.Title
	}
	base := e.URL
	if i := strings.LastIndex(base, "/"); i >= 0 {
		base = base[i+1:]
	}
	return strings.TrimSuffix(base, ".html")
}

// itemDescription prefers declared metadata and falls back to the first
// paragraph of the already-rendered output file. Reading rendered output
// never triggers a render.
func (g *Generator) itemDescription(e scan.Entry) string {
	if e.Meta.Description != "" {
		return e.Meta.Description
	}
	return firstParagraph(g.layout.OutputPath(e.URL))
}

func writeArtifact(path string, data []byte) error {
	if err := os.MkdirAll(dirOf(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
