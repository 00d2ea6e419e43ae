package index

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSignatureEqualIsContentBased(t *testing.T) {
	base := Signature{Size: 10, ModTime: time.Unix(100, 0), Hash: "h1"}

	// Mtime differences alone do not make a file "modified".
	touched := Signature{Size: 10, ModTime: time.Unix(200, 0), Hash: "h1"}
	assert.True(t, base.Equal(touched))

	edited := Signature{Size: 10, ModTime: time.Unix(100, 0), Hash: "h2"}
	assert.False(t, base.Equal(edited))

	truncated := Signature{Size: 3, ModTime: time.Unix(100, 0), Hash: "h1"}
	assert.False(t, base.Equal(truncated))
}

func TestPathsAndPagesAreSorted(t *testing.T) {
	ix := New()
	ix.Put(&Entry{Path: "b.md", Kind: KindPage})
	ix.Put(&Entry{Path: "a.md", Kind: KindPage})
	ix.Put(&Entry{Path: "style.css", Kind: KindAsset})

	assert.Equal(t, []string{"a.md", "b.md", "style.css"}, ix.Paths())

	pages := ix.Pages()
	assert.Len(t, pages, 2)
	assert.Equal(t, "a.md", pages[0].Path)
	assert.Equal(t, "b.md", pages[1].Path)
}

func TestDeleteRemovesEntry(t *testing.T) {
	ix := New()
	ix.Put(&Entry{Path: "a.md", Kind: KindPage})
	ix.Delete("a.md")
	assert.Nil(t, ix.Get("a.md"))
	assert.Equal(t, 0, ix.Len())
}
