package commands

import (
	"context"
	"log/slog"
	"os/signal"
	"syscall"

	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/sitegen/internal/history"
	"git.home.luguber.info/inful/sitegen/internal/metrics"
	"git.home.luguber.info/inful/sitegen/internal/notify"
	"git.home.luguber.info/inful/sitegen/internal/watch"
)

// WatchCmd implements the 'watch' command.
type WatchCmd struct {
	Addr     string `short:"a" help:"Preview server listen address (overrides config)"`
	NoServer bool   `name:"no-server" help:"Disable the preview server, only rebuild on changes"`
}

func (w *WatchCmd) Run(_ *Global, root *CLI) error {
	sc, err := loadSite(root)
	if err != nil {
		return err
	}

	bld := sc.newBuilder(false, false)

	registry := prom.NewRegistry()
	bld.WithMetrics(metrics.NewRecorder(registry))

	if !sc.cfg.History.Disabled {
		if runs, err := history.Open(sc.cfg.HistoryPath(root.Root)); err == nil {
			defer runs.Close()
			bld.WithHistory(runs)
		} else {
			slog.Warn("Build history unavailable", "error", err)
		}
	}

	if sc.cfg.NATS.URL != "" {
		publisher, err := notify.NewPublisher(sc.cfg.NATS.URL, sc.cfg.NATS.Subject)
		if err != nil {
			slog.Warn("Build event publishing disabled", "error", err)
		} else {
			defer publisher.Close()
			bld.WithPublisher(publisher)
		}
	}

	addr := sc.cfg.Watch.Addr
	if w.Addr != "" {
		addr = w.Addr
	}
	if w.NoServer {
		addr = ""
	}

	daemon := watch.NewDaemon(sc.layout, bld, watch.Options{
		Addr:                addr,
		Debounce:            sc.cfg.Watch.DebounceDuration(),
		FullRebuildInterval: sc.cfg.Watch.RebuildInterval(),
		Registry:            registry,
		// Templates may have changed on disk; drop the parsed set so the
		// rebuild picks them up.
		PreRebuild: sc.engine.Reset,
	})

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	return daemon.Run(ctx)
}
