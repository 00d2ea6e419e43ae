package site

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlugify(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Hello World", "hello-world"},
		{"already-good", "already-good"},
		{"Résumé", "resume"},
		{"With  Spaces!!", "with-spaces"},
		{"UPPER_case.1", "upper_case.1"},
		{"---", "untitled"},
		{"", "untitled"},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, Slugify(tc.in), "Slugify(%q)", tc.in)
	}
}

func TestURLFor(t *testing.T) {
	l := NewLayout("/site")

	cases := []struct {
		in   string
		want string
	}{
		{"index.md", "/index.html"},
		{"posts/Hello World.md", "/posts/hello-world.html"},
		{"notes/2026/Trip Report.markdown", "/notes/2026/trip-report.html"},
		{"about.MD", "/about.html"},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, l.URLFor(tc.in), "URLFor(%q)", tc.in)
	}
}

func TestURLForIsStable(t *testing.T) {
	l := NewLayout("/site")
	assert.Equal(t, l.URLFor("posts/a.md"), l.URLFor("posts/a.md"))
}

func TestOutputPath(t *testing.T) {
	l := NewLayout("/site")
	assert.Equal(t, filepath.Join("/site", "build", "posts", "a.html"), l.OutputPath("/posts/a.html"))
}

func TestAbsoluteURL(t *testing.T) {
	l := NewLayout("/site")
	assert.Equal(t, "/a.html", l.AbsoluteURL("/a.html"))

	l.BaseURL = "https://example.org/"
	assert.Equal(t, "https://example.org/a.html", l.AbsoluteURL("/a.html"))
}
