package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"git.home.luguber.info/inful/sitegen/internal/history"
	"git.home.luguber.info/inful/sitegen/internal/plan"
)

// BuildCmd implements the 'build' command.
type BuildCmd struct {
	Force     bool `short:"f" help:"Rebuild every page regardless of change state"`
	Clean     bool `help:"Discard the output directory and index, then rebuild from scratch"`
	DryRun    bool `name:"dry-run" help:"Show what would be done without writing anything"`
	NoRSS     bool `name:"no-rss" help:"Skip RSS feed generation"`
	NoSitemap bool `name:"no-sitemap" help:"Skip sitemap generation"`
}

func (b *BuildCmd) Run(_ *Global, root *CLI) error {
	sc, err := loadSite(root)
	if err != nil {
		return err
	}

	bld := sc.newBuilder(b.NoRSS, b.NoSitemap)

	if !sc.cfg.History.Disabled && !b.DryRun {
		if runs, err := history.Open(sc.cfg.HistoryPath(root.Root)); err == nil {
			defer runs.Close()
			bld.WithHistory(runs)
		} else {
			slog.Warn("Build history unavailable", "error", err)
		}
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	result, runErr := bld.Run(ctx, plan.Options{
		Force:  b.Force,
		Clean:  b.Clean,
		DryRun: b.DryRun,
	})
	if result != nil {
		fmt.Fprintln(os.Stdout, result.Summary())
	}
	return runErr
}
