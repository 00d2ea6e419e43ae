// Package builder orchestrates one build run: load cache, scan, classify,
// plan, render, generate artifacts, persist. Persisting the index is the
// single commit point and always happens last, so a crash mid-run only
// costs redundant work on the next run, never correctness.
package builder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/sitegen/internal/artifact"
	"git.home.luguber.info/inful/sitegen/internal/detect"
	sgerrors "git.home.luguber.info/inful/sitegen/internal/errors"
	"git.home.luguber.info/inful/sitegen/internal/history"
	"git.home.luguber.info/inful/sitegen/internal/index"
	"git.home.luguber.info/inful/sitegen/internal/logfields"
	"git.home.luguber.info/inful/sitegen/internal/metrics"
	"git.home.luguber.info/inful/sitegen/internal/notify"
	"git.home.luguber.info/inful/sitegen/internal/plan"
	"git.home.luguber.info/inful/sitegen/internal/scan"
	"git.home.luguber.info/inful/sitegen/internal/site"
)

// RenderFunc renders one page to its final output bytes. The builder owns
// writing the bytes to the output path, so render implementations stay pure.
type RenderFunc func(entry scan.Entry) ([]byte, error)

// Builder wires the pipeline collaborators for a site root.
type Builder struct {
	layout    *site.Layout
	store     *index.Store
	scanner   *scan.Scanner
	render    RenderFunc
	artifacts *artifact.Generator

	recorder  *metrics.Recorder
	runs      *history.Store
	publisher *notify.Publisher

	logger *slog.Logger
	clock  func() time.Time
}

// New creates a builder with the mandatory collaborators.
func New(layout *site.Layout, store *index.Store, scanner *scan.Scanner, render RenderFunc) *Builder {
	return &Builder{
		layout:  layout,
		store:   store,
		scanner: scanner,
		render:  render,
		logger:  slog.Default(),
		clock:   time.Now,
	}
}

// WithArtifacts attaches the RSS/sitemap generator.
func (b *Builder) WithArtifacts(g *artifact.Generator) *Builder {
	b.artifacts = g
	return b
}

// WithMetrics attaches a Prometheus recorder.
func (b *Builder) WithMetrics(r *metrics.Recorder) *Builder {
	b.recorder = r
	return b
}

// WithHistory attaches the run database.
func (b *Builder) WithHistory(s *history.Store) *Builder {
	b.runs = s
	return b
}

// WithPublisher attaches the build event publisher.
func (b *Builder) WithPublisher(p *notify.Publisher) *Builder {
	b.publisher = p
	return b
}

// WithLogger sets a custom logger.
func (b *Builder) WithLogger(logger *slog.Logger) *Builder {
	b.logger = logger
	return b
}

// WithClock overrides the time source.
func (b *Builder) WithClock(clock func() time.Time) *Builder {
	b.clock = clock
	return b
}

// Result summarizes one completed run.
type Result struct {
	RunID    string
	Rendered int
	Skipped  int
	Drafts   int
	Deleted  int
	Failed   int
	Total    int
	Duration time.Duration
	DryRun   bool
	Forced   bool
}

// Partial reports whether some pages failed while the run itself completed.
func (r *Result) Partial() bool { return r.Failed > 0 }

// Summary formats the run outcome for terminal output.
func (r *Result) Summary() string {
	if r.Total == 0 {
		return "Nothing to do."
	}

	status := "Build finished successfully."
	if r.Failed > 0 {
		status = "Build finished with errors."
	}
	if r.DryRun {
		status += " (dry run)"
	}

	out := fmt.Sprintf("%s\nProcessed %d files in %.2fs.\n", status, r.Total, r.Duration.Seconds())
	stats := []struct {
		name  string
		value int
	}{
		{"Rendered", r.Rendered},
		{"Skipped", r.Skipped},
		{"Drafts", r.Drafts},
		{"Deleted", r.Deleted},
		{"Failed", r.Failed},
	}
	width := 0
	for _, s := range stats {
		if s.value > 0 && len(s.name) > width {
			width = len(s.name)
		}
	}
	for _, s := range stats {
		if s.value > 0 {
			out += fmt.Sprintf("  %-*s %d\n", width, s.name, s.value)
		}
	}
	return out
}

// Run executes one build. A non-nil error with a non-nil Result means the
// run completed partially: some pages failed but the rest were built and
// the index was persisted without marking the failures as built.
func (b *Builder) Run(ctx context.Context, opts plan.Options) (*Result, error) {
	start := b.clock()
	runID := uuid.NewString()
	logger := b.logger.With(logfields.RunID(runID))

	result := &Result{RunID: runID, DryRun: opts.DryRun, Forced: opts.Force || opts.Clean}

	ix := b.store.Load()
	initialRun := ix.Len() == 0

	if opts.Clean && !opts.DryRun {
		if err := b.cleanOutput(); err != nil {
			b.finish(ctx, result, start, metrics.OutcomeFatal)
			return result, err
		}
		ix = b.store.Invalidate()
	}

	live, err := b.scanner.Scan()
	if err != nil {
		if errors.Is(err, scan.ErrNoSourceRoot) {
			// No source root plans nothing; the cache and any previously
			// built outputs stay untouched.
			b.finish(ctx, result, start, metrics.OutcomeSuccess)
			return result, nil
		}
		b.finish(ctx, result, start, metrics.OutcomeFatal)
		return result, err
	}

	cls := detect.Classify(live, ix)
	p := plan.Compute(live, cls, ix, opts)
	result.Total = len(p.Items)

	logger.Info("Build plan computed",
		"files", len(live), "renders", p.Renders(), "deletes", p.Deletes(),
		"artifacts_stale", p.ArtifactsStale)
	if len(p.ChangedTemplates) > 0 {
		logger.Info("Templates changed", "templates", p.ChangedTemplates)
	}

	liveByPath := make(map[string]scan.Entry, len(live))
	for _, e := range live {
		liveByPath[e.Path] = e
	}

	now := b.clock()
	for _, item := range p.Items {
		if err := ctx.Err(); err != nil {
			b.finish(ctx, result, start, metrics.OutcomeFatal)
			return result, sgerrors.Wrap(err, sgerrors.CategoryRuntime, sgerrors.SeverityFatal, "build interrupted")
		}

		switch item.Action {
		case plan.ActionRender:
			b.runRender(logger, ix, liveByPath[item.Path], item, now, opts.DryRun, result)
		case plan.ActionSkip:
			b.runSkip(ix, liveByPath[item.Path], item, opts.DryRun, result)
		case plan.ActionDelete:
			b.runDelete(logger, ix, item, opts.DryRun, result)
		}
	}

	var artifactErr error
	if b.artifacts != nil && !opts.DryRun {
		stale := p.ArtifactsStale || opts.Force || opts.Clean
		if err := b.artifacts.Generate(ix, live, stale); err != nil {
			artifactErr = sgerrors.ArtifactError("generate", err)
			logger.Error("Artifact generation failed", logfields.Error(err))
		}
	}

	if !opts.DryRun {
		if (opts.Force || opts.Clean || initialRun) && result.Failed == 0 {
			ix.LastFullBuildTime = now
		}
		if err := b.store.Persist(ix); err != nil {
			b.finish(ctx, result, start, metrics.OutcomeFatal)
			return result, sgerrors.IndexPersistError(err)
		}
		b.recorder.SetIndexedFiles(ix.Len())
	}

	outcome := metrics.OutcomeSuccess
	var runErr error
	switch {
	case result.Partial() && artifactErr != nil:
		outcome = metrics.OutcomePartial
		runErr = fmt.Errorf("%d pages failed and artifacts failed: %w", result.Failed, sgerrors.ErrPartialFailure)
	case result.Partial():
		outcome = metrics.OutcomePartial
		runErr = fmt.Errorf("%d pages failed to render: %w", result.Failed, sgerrors.ErrPartialFailure)
	case artifactErr != nil:
		outcome = metrics.OutcomePartial
		runErr = fmt.Errorf("artifact generation failed: %w", errors.Join(artifactErr, sgerrors.ErrPartialFailure))
	}

	b.finish(ctx, result, start, outcome)

	logger.Info("Build finished",
		"rendered", result.Rendered, "skipped", result.Skipped,
		"deleted", result.Deleted, "failed", result.Failed,
		logfields.DurationMS(float64(result.Duration.Milliseconds())))

	return result, runErr
}

func (b *Builder) runRender(logger *slog.Logger, ix *index.BuildIndex, entry scan.Entry, item plan.WorkItem, now time.Time, dryRun bool, result *Result) {
	if dryRun {
		logger.Info("Would render", logfields.Path(item.Path), "reason", item.Reason)
		result.Rendered++
		return
	}

	out, err := b.render(entry)
	if err == nil {
		err = b.writeOutput(entry.URL, out)
	}
	if err != nil {
		// Signature and build time stay as-is so the next run retries.
		logger.Error("Render failed", logfields.Path(item.Path), logfields.Error(err))
		result.Failed++
		return
	}

	ix.Put(&index.Entry{
		Path:          entry.Path,
		Signature:     entry.Signature,
		Kind:          entry.Kind,
		LastBuildTime: now,
		URL:           entry.URL,
		Template:      entry.Template,
	})
	result.Rendered++
	logger.Debug("Rendered", logfields.Path(item.Path), logfields.URL(entry.URL), "reason", item.Reason)
}

// runSkip refreshes tracked metadata without advancing the build time.
// Drafts, assets and unchanged pages all land here.
func (b *Builder) runSkip(ix *index.BuildIndex, entry scan.Entry, item plan.WorkItem, dryRun bool, result *Result) {
	if item.Reason == plan.ReasonDraft {
		result.Drafts++
	} else {
		result.Skipped++
	}
	if dryRun {
		return
	}

	var lastBuild time.Time
	if prev := ix.Get(entry.Path); prev != nil {
		lastBuild = prev.LastBuildTime
	}
	ix.Put(&index.Entry{
		Path:          entry.Path,
		Signature:     entry.Signature,
		Kind:          entry.Kind,
		LastBuildTime: lastBuild,
		URL:           entry.URL,
		Template:      entry.Template,
	})
}

func (b *Builder) runDelete(logger *slog.Logger, ix *index.BuildIndex, item plan.WorkItem, dryRun bool, result *Result) {
	result.Deleted++
	if dryRun {
		logger.Info("Would delete output", logfields.Path(item.Path))
		return
	}

	if cached := ix.Get(item.Path); cached != nil && cached.Kind == index.KindPage && cached.URL != "" {
		outPath := b.layout.OutputPath(cached.URL)
		if err := os.Remove(outPath); err != nil && !os.IsNotExist(err) {
			logger.Warn("Could not remove output file", logfields.Path(outPath), logfields.Error(err))
		}
	}
	ix.Delete(item.Path)
	logger.Debug("Removed from index", logfields.Path(item.Path))
}

func (b *Builder) writeOutput(url string, data []byte) error {
	outPath := b.layout.OutputPath(url)
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return sgerrors.OutputError("create output directory", err)
	}
	if err := os.WriteFile(outPath, data, 0o644); err != nil {
		return sgerrors.OutputError("write output file", err)
	}
	return nil
}

// cleanOutput empties the output directory. The directory itself is
// recreated so a follow-up render never races a missing parent.
func (b *Builder) cleanOutput() error {
	if err := os.RemoveAll(b.layout.OutputDir); err != nil {
		return sgerrors.OutputError("clean output directory", err)
	}
	if err := os.MkdirAll(b.layout.OutputDir, 0o755); err != nil {
		return sgerrors.OutputError("recreate output directory", err)
	}
	return nil
}

// finish records duration, metrics, history and the build event. Recording
// failures are logged, never propagated: observability must not break builds.
func (b *Builder) finish(ctx context.Context, result *Result, start time.Time, outcome metrics.OutcomeLabel) {
	result.Duration = b.clock().Sub(start)

	b.recorder.ObserveBuildDuration(result.Duration)
	b.recorder.IncBuildOutcome(outcome)
	b.recorder.AddPageResults(metrics.PageRendered, result.Rendered)
	b.recorder.AddPageResults(metrics.PageSkipped, result.Skipped)
	b.recorder.AddPageResults(metrics.PageDeleted, result.Deleted)
	b.recorder.AddPageResults(metrics.PageFailed, result.Failed)

	if b.runs != nil && !result.DryRun {
		err := b.runs.Record(ctx, history.Run{
			RunID:      result.RunID,
			StartedAt:  start,
			DurationMS: result.Duration.Milliseconds(),
			Rendered:   result.Rendered,
			Skipped:    result.Skipped,
			Deleted:    result.Deleted,
			Failed:     result.Failed,
			Forced:     result.Forced,
		})
		if err != nil {
			b.logger.Warn("Could not record build history", logfields.Error(err))
		}
	}

	if b.publisher != nil && !result.DryRun {
		err := b.publisher.Publish(notify.BuildEvent{
			RunID:      result.RunID,
			Timestamp:  start,
			Rendered:   result.Rendered,
			Skipped:    result.Skipped,
			Deleted:    result.Deleted,
			Failed:     result.Failed,
			DurationMS: result.Duration.Milliseconds(),
			Partial:    result.Partial(),
		})
		if err != nil {
			b.logger.Warn("Could not publish build event", logfields.Error(err))
		}
	}
}
