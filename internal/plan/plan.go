// Package plan turns change classifications into the run's action list.
//
// The planner is deterministic: identical filesystem state, cache state and
// flags always produce an identical, path-sorted action list.
package plan

import (
	"sort"
	"strings"

	"git.home.luguber.info/inful/sitegen/internal/detect"
	"git.home.luguber.info/inful/sitegen/internal/index"
	"git.home.luguber.info/inful/sitegen/internal/scan"
	"git.home.luguber.info/inful/sitegen/internal/site"
	"git.home.luguber.info/inful/sitegen/internal/util/sets"
)

// Action is a planned decision for one source path.
type Action string

const (
	ActionRender Action = "render"
	ActionSkip   Action = "skip"
	ActionDelete Action = "delete-output"
)

// Reasons recorded on work items for reporting.
const (
	ReasonNew             = "new"
	ReasonModified        = "modified"
	ReasonUnchanged       = "unchanged"
	ReasonForced          = "forced"
	ReasonTemplateChanged = "template-changed"
	ReasonDraft           = "draft"
	ReasonDeleted         = "deleted"
	ReasonNotRenderable   = "not-renderable"
)

// WorkItem is one planned decision. Ephemeral; produced fresh each run.
type WorkItem struct {
	Path   string
	Action Action
	Reason string
}

// Options are the run-mode flags the planner honors.
type Options struct {
	// Force treats every page as modified.
	Force bool
	// Clean discards the output directory and index before planning.
	// The builder performs the discard; for the planner it implies Force.
	Clean bool
	// DryRun computes the plan but suppresses writes and persistence.
	// The planner itself is unaffected; carried for the builder.
	DryRun bool
}

// Plan is the computed work set for one run.
type Plan struct {
	Items []WorkItem

	// ArtifactsStale is true when RSS/sitemap must be regenerated: some
	// page was added, modified or deleted since the last run, or a template
	// change promoted pages to render (their build times advance, which
	// feeds artifact lastmod).
	ArtifactsStale bool

	// ChangedTemplates lists the template identifiers seen as modified or
	// deleted this run, sorted for reporting.
	ChangedTemplates []string
}

// Renders returns the number of render actions in the plan.
func (p Plan) Renders() int { return p.count(ActionRender) }

// Deletes returns the number of delete-output actions in the plan.
func (p Plan) Deletes() int { return p.count(ActionDelete) }

func (p Plan) count(a Action) int {
	n := 0
	for _, it := range p.Items {
		if it.Action == a {
			n++
		}
	}
	return n
}

// Compute derives the action list from the detector's classification.
//
// Policy: deleted -> delete-output; new/modified pages -> render;
// unchanged pages -> skip unless forced or a template they use changed.
// Assets and unknown files are tracked but never rendered. Draft pages are
// never rendered regardless of change state.
func Compute(live []scan.Entry, cls detect.Classification, ix *index.BuildIndex, opts Options) Plan {
	force := opts.Force || opts.Clean

	invalidated, changed := templateInvalidations(live, cls, ix)

	var p Plan
	p.Items = make([]WorkItem, 0, len(cls))
	if len(changed) > 0 {
		p.ChangedTemplates = sets.SortedStrings(changed)
	}

	for _, e := range live {
		status := cls[e.Path]

		if !e.IsPage() {
			p.Items = append(p.Items, WorkItem{Path: e.Path, Action: ActionSkip, Reason: ReasonNotRenderable})
			continue
		}

		if status != detect.StatusUnchanged {
			p.ArtifactsStale = true
		}

		switch {
		case e.Meta.Draft:
			p.Items = append(p.Items, WorkItem{Path: e.Path, Action: ActionSkip, Reason: ReasonDraft})
		case status == detect.StatusNew:
			p.Items = append(p.Items, WorkItem{Path: e.Path, Action: ActionRender, Reason: ReasonNew})
		case status == detect.StatusModified:
			p.Items = append(p.Items, WorkItem{Path: e.Path, Action: ActionRender, Reason: ReasonModified})
		case force:
			p.Items = append(p.Items, WorkItem{Path: e.Path, Action: ActionRender, Reason: ReasonForced})
		case invalidated.Has(e.Path):
			p.Items = append(p.Items, WorkItem{Path: e.Path, Action: ActionRender, Reason: ReasonTemplateChanged})
			// The re-render advances the page's build time, which artifact
			// lastmod values are derived from.
			p.ArtifactsStale = true
		default:
			p.Items = append(p.Items, WorkItem{Path: e.Path, Action: ActionSkip, Reason: ReasonUnchanged})
		}
	}

	for path, status := range cls {
		if status != detect.StatusDeleted {
			continue
		}
		p.Items = append(p.Items, WorkItem{Path: path, Action: ActionDelete, Reason: ReasonDeleted})
		if cached := ix.Get(path); cached != nil && cached.Kind == index.KindPage {
			p.ArtifactsStale = true
		}
	}

	if force {
		p.ArtifactsStale = true
	}

	sort.Slice(p.Items, func(i, j int) bool { return p.Items[i].Path < p.Items[j].Path })
	return p
}

// templateInvalidations expands template changes into the set of affected
// page paths: a bipartite template->pages adjacency rebuilt each run from
// scan metadata, so a template edit reclassifies its pages without a full
// content re-scan. The second return value is the set of changed template
// identifiers, carried on the plan for reporting.
func templateInvalidations(live []scan.Entry, cls detect.Classification, ix *index.BuildIndex) (sets.Set[string], sets.Set[string]) {
	pagesByTemplate := make(map[string]sets.Set[string])
	for _, e := range live {
		if !e.IsPage() || e.Template == "" {
			continue
		}
		s, ok := pagesByTemplate[e.Template]
		if !ok {
			s = sets.New[string]()
			pagesByTemplate[e.Template] = s
		}
		s.Add(e.Path)
	}

	changed := sets.New[string]()
	for _, e := range live {
		if !isTemplatePath(e.Path) || e.Template == "" {
			continue
		}
		if st := cls[e.Path]; st == detect.StatusModified || st == detect.StatusNew {
			changed.Add(e.Template)
		}
	}
	// A deleted template also invalidates its pages: they fall back to the
	// default template on the next render.
	for path, st := range cls {
		if st == detect.StatusDeleted && isTemplatePath(path) {
			if cached := ix.Get(path); cached != nil && cached.Template != "" {
				changed.Add(cached.Template)
			} else {
				changed.Add(strings.TrimPrefix(path, site.TemplateDirName+"/"))
			}
		}
	}

	invalidated := sets.New[string]()
	for tmpl := range changed {
		for pg := range pagesByTemplate[tmpl] {
			invalidated.Add(pg)
		}
	}
	return invalidated, changed
}

func isTemplatePath(path string) bool {
	return strings.HasPrefix(path, site.TemplateDirName+"/")
}
