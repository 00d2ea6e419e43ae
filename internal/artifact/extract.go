package artifact

import (
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/net/html"
)

func dirOf(path string) string { return filepath.Dir(path) }

// firstParagraph returns the text of the first <p> element in an HTML file,
// or "" if the file is missing or contains no paragraph.
func firstParagraph(path string) string {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return ""
	}
	defer func() { _ = f.Close() }()

	doc, err := html.Parse(f)
	if err != nil {
		return ""
	}

	var para *html.Node
	var find func(*html.Node)
	find = func(n *html.Node) {
		if para != nil {
			return
		}
		if n.Type == html.ElementNode && n.Data == "p" {
			para = n
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			find(c)
		}
	}
	find(doc)

	if para == nil {
		return ""
	}

	var sb strings.Builder
	var collect func(*html.Node)
	collect = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			collect(c)
		}
	}
	collect(para)

	return strings.TrimSpace(sb.String())
}
