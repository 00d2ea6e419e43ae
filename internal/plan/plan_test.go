package plan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/sitegen/internal/detect"
	"git.home.luguber.info/inful/sitegen/internal/index"
	"git.home.luguber.info/inful/sitegen/internal/page"
	"git.home.luguber.info/inful/sitegen/internal/scan"
)

func pageEntry(path, template, hash string) scan.Entry {
	return scan.Entry{
		Path:      path,
		Kind:      index.KindPage,
		Template:  template,
		Meta:      page.Meta{Template: template},
		Signature: index.Signature{Size: 1, Hash: hash},
	}
}

func templateEntry(path, id, hash string) scan.Entry {
	return scan.Entry{
		Path:      path,
		Kind:      index.KindAsset,
		Template:  id,
		Signature: index.Signature{Size: 1, Hash: hash},
	}
}

func itemFor(t *testing.T, p Plan, path string) WorkItem {
	t.Helper()
	for _, it := range p.Items {
		if it.Path == path {
			return it
		}
	}
	t.Fatalf("no work item for %s", path)
	return WorkItem{}
}

func TestPolicyMapping(t *testing.T) {
	ix := index.New()
	ix.Put(&index.Entry{Path: "source/old.md", Kind: index.KindPage, URL: "/old.html"})

	live := []scan.Entry{
		pageEntry("source/new.md", "page.html", "h1"),
		pageEntry("source/changed.md", "page.html", "h2"),
		pageEntry("source/same.md", "page.html", "h3"),
	}
	cls := detect.Classification{
		"source/new.md":     detect.StatusNew,
		"source/changed.md": detect.StatusModified,
		"source/same.md":    detect.StatusUnchanged,
		"source/old.md":     detect.StatusDeleted,
	}

	p := Compute(live, cls, ix, Options{})

	assert.Equal(t, ActionRender, itemFor(t, p, "source/new.md").Action)
	assert.Equal(t, ActionRender, itemFor(t, p, "source/changed.md").Action)
	assert.Equal(t, ActionSkip, itemFor(t, p, "source/same.md").Action)
	assert.Equal(t, ActionDelete, itemFor(t, p, "source/old.md").Action)
	assert.True(t, p.ArtifactsStale)
	assert.Equal(t, 2, p.Renders())
	assert.Equal(t, 1, p.Deletes())
}

func TestForcePromotesUnchanged(t *testing.T) {
	live := []scan.Entry{
		pageEntry("source/a.md", "page.html", "h1"),
		pageEntry("source/b.md", "page.html", "h2"),
	}
	cls := detect.Classification{
		"source/a.md": detect.StatusUnchanged,
		"source/b.md": detect.StatusUnchanged,
	}

	p := Compute(live, cls, index.New(), Options{Force: true})

	assert.Equal(t, 2, p.Renders())
	assert.Equal(t, ReasonForced, itemFor(t, p, "source/a.md").Reason)
	assert.True(t, p.ArtifactsStale)
}

func TestCleanImpliesForce(t *testing.T) {
	live := []scan.Entry{pageEntry("source/a.md", "page.html", "h1")}
	cls := detect.Classification{"source/a.md": detect.StatusUnchanged}

	p := Compute(live, cls, index.New(), Options{Clean: true})
	assert.Equal(t, 1, p.Renders())
}

func TestTemplateDependencyPropagation(t *testing.T) {
	// Pages A and B use shared.html, page C uses other.html.
	// Only shared.html changed; A and B render, C skips.
	live := []scan.Entry{
		pageEntry("source/a.md", "shared.html", "ha"),
		pageEntry("source/b.md", "shared.html", "hb"),
		pageEntry("source/c.md", "other.html", "hc"),
		templateEntry("templates/shared.html", "shared.html", "ht1"),
		templateEntry("templates/other.html", "other.html", "ht2"),
	}
	cls := detect.Classification{
		"source/a.md":           detect.StatusUnchanged,
		"source/b.md":           detect.StatusUnchanged,
		"source/c.md":           detect.StatusUnchanged,
		"templates/shared.html": detect.StatusModified,
		"templates/other.html":  detect.StatusUnchanged,
	}

	p := Compute(live, cls, index.New(), Options{})

	a := itemFor(t, p, "source/a.md")
	assert.Equal(t, ActionRender, a.Action)
	assert.Equal(t, ReasonTemplateChanged, a.Reason)
	assert.Equal(t, ActionRender, itemFor(t, p, "source/b.md").Action)
	assert.Equal(t, ActionSkip, itemFor(t, p, "source/c.md").Action)

	// The promoted pages re-render with fresh build times, so the
	// artifact lastmod values they feed must be regenerated too.
	assert.True(t, p.ArtifactsStale)
	assert.Equal(t, []string{"shared.html"}, p.ChangedTemplates)
}

func TestUnusedTemplateChangeLeavesArtifactsAlone(t *testing.T) {
	// A changed template with no pages on it promotes nothing.
	live := []scan.Entry{
		pageEntry("source/a.md", "page.html", "ha"),
		templateEntry("templates/orphan.html", "orphan.html", "ht"),
	}
	cls := detect.Classification{
		"source/a.md":           detect.StatusUnchanged,
		"templates/orphan.html": detect.StatusModified,
	}

	p := Compute(live, cls, index.New(), Options{})
	assert.Equal(t, ActionSkip, itemFor(t, p, "source/a.md").Action)
	assert.False(t, p.ArtifactsStale)
	assert.Equal(t, []string{"orphan.html"}, p.ChangedTemplates)
}

func TestDeletedTemplateInvalidatesItsPages(t *testing.T) {
	ix := index.New()
	ix.Put(&index.Entry{Path: "templates/gone.html", Kind: index.KindAsset, Template: "gone.html"})

	live := []scan.Entry{pageEntry("source/a.md", "gone.html", "ha")}
	cls := detect.Classification{
		"source/a.md":         detect.StatusUnchanged,
		"templates/gone.html": detect.StatusDeleted,
	}

	p := Compute(live, cls, ix, Options{})
	assert.Equal(t, ActionRender, itemFor(t, p, "source/a.md").Action)
	assert.True(t, p.ArtifactsStale)
}

func TestDraftPagesNeverRender(t *testing.T) {
	draft := pageEntry("source/wip.md", "page.html", "h1")
	draft.Meta.Draft = true

	cls := detect.Classification{"source/wip.md": detect.StatusNew}
	p := Compute([]scan.Entry{draft}, cls, index.New(), Options{})

	it := itemFor(t, p, "source/wip.md")
	assert.Equal(t, ActionSkip, it.Action)
	assert.Equal(t, ReasonDraft, it.Reason)
}

func TestAssetsAreTrackedNotRendered(t *testing.T) {
	live := []scan.Entry{
		{Path: "source/style.css", Kind: index.KindAsset, Signature: index.Signature{Hash: "h"}},
	}
	cls := detect.Classification{"source/style.css": detect.StatusModified}

	p := Compute(live, cls, index.New(), Options{})
	it := itemFor(t, p, "source/style.css")
	assert.Equal(t, ActionSkip, it.Action)
	assert.Equal(t, ReasonNotRenderable, it.Reason)

	// Asset changes don't regenerate RSS/sitemap either.
	assert.False(t, p.ArtifactsStale)
}

func TestEmptyInputsYieldEmptyPlan(t *testing.T) {
	p := Compute(nil, detect.Classification{}, index.New(), Options{})
	assert.Empty(t, p.Items)
	assert.False(t, p.ArtifactsStale)
}

func TestPlanIsDeterministicAndSorted(t *testing.T) {
	live := []scan.Entry{
		pageEntry("source/z.md", "page.html", "hz"),
		pageEntry("source/a.md", "page.html", "ha"),
		pageEntry("source/m.md", "page.html", "hm"),
	}
	cls := detect.Classification{
		"source/z.md": detect.StatusNew,
		"source/a.md": detect.StatusNew,
		"source/m.md": detect.StatusNew,
	}

	first := Compute(live, cls, index.New(), Options{})
	second := Compute(live, cls, index.New(), Options{})
	require.Equal(t, first, second)

	for i := 1; i < len(first.Items); i++ {
		assert.Less(t, first.Items[i-1].Path, first.Items[i].Path)
	}
}
