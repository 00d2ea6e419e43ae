// Package watch runs the rebuild-on-change daemon: a recursive filesystem
// watcher with debounced rebuilds, an optional periodic full rebuild, and a
// local preview server for the output directory.
package watch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-co-op/gocron/v2"
	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"git.home.luguber.info/inful/sitegen/internal/builder"
	"git.home.luguber.info/inful/sitegen/internal/logfields"
	"git.home.luguber.info/inful/sitegen/internal/plan"
	"git.home.luguber.info/inful/sitegen/internal/site"
)

// Options tunes the daemon.
type Options struct {
	// Addr is the preview server listen address. Empty disables the server.
	Addr string
	// Debounce batches filesystem events before triggering a rebuild.
	Debounce time.Duration
	// FullRebuildInterval forces a periodic full rebuild. Zero disables it.
	FullRebuildInterval time.Duration
	// Registry serves /metrics when the preview server is enabled.
	Registry *prom.Registry
	// PreRebuild is called before every rebuild. Optional; used to drop
	// caches that may be stale after a filesystem change.
	PreRebuild func()
	// OnRebuild is called after every completed rebuild. Optional.
	OnRebuild func(*builder.Result)
}

// Daemon owns the watch loop for one site.
type Daemon struct {
	layout  *site.Layout
	builder *builder.Builder
	opts    Options
	logger  *slog.Logger
}

// NewDaemon creates the watch daemon.
func NewDaemon(layout *site.Layout, b *builder.Builder, opts Options) *Daemon {
	if opts.Debounce <= 0 {
		opts.Debounce = 300 * time.Millisecond
	}
	return &Daemon{
		layout:  layout,
		builder: b,
		opts:    opts,
		logger:  slog.Default(),
	}
}

// WithLogger sets a custom logger.
func (d *Daemon) WithLogger(logger *slog.Logger) *Daemon {
	d.logger = logger
	return d
}

// Run blocks until ctx is cancelled. It performs an initial build, then
// rebuilds on filesystem changes. Rebuild failures never stop the daemon.
func (d *Daemon) Run(ctx context.Context) error {
	d.rebuild(ctx, plan.Options{})

	watcher, err := d.setupWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	rebuildReq := make(chan plan.Options, 1)
	trigger := d.setupDebouncer(rebuildReq)

	scheduler, err := d.setupScheduler(rebuildReq)
	if err != nil {
		return err
	}
	if scheduler != nil {
		scheduler.Start()
		defer func() { _ = scheduler.Shutdown() }()
	}

	var httpServer *http.Server
	if d.opts.Addr != "" {
		httpServer = d.startPreviewServer()
		defer d.stopPreviewServer(httpServer)
	}

	d.logger.Info("Watching for changes",
		"source", d.layout.SourceDir, "templates", d.layout.TemplateDir)

	for {
		select {
		case <-ctx.Done():
			return nil
		case opts := <-rebuildReq:
			d.rebuild(ctx, opts)
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			d.handleEvent(watcher, ev, trigger)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			d.logger.Warn("Watcher error", logfields.Error(err))
		}
	}
}

func (d *Daemon) rebuild(ctx context.Context, opts plan.Options) {
	if d.opts.PreRebuild != nil {
		d.opts.PreRebuild()
	}
	result, err := d.builder.Run(ctx, opts)
	if err != nil {
		d.logger.Warn("Rebuild completed with errors", logfields.Error(err))
	}
	if result != nil && d.opts.OnRebuild != nil {
		d.opts.OnRebuild(result)
	}
}

func (d *Daemon) setupWatcher() (*fsnotify.Watcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("fsnotify: %w", err)
	}
	for _, dir := range []string{d.layout.SourceDir, d.layout.TemplateDir} {
		if err := addDirsRecursive(watcher, dir); err != nil {
			_ = watcher.Close()
			return nil, err
		}
	}
	return watcher, nil
}

// setupDebouncer coalesces bursts of events into one rebuild request.
func (d *Daemon) setupDebouncer(rebuildReq chan plan.Options) func() {
	var mu sync.Mutex
	var timer *time.Timer

	return func() {
		mu.Lock()
		defer mu.Unlock()
		if timer != nil {
			timer.Stop()
		}
		timer = time.AfterFunc(d.opts.Debounce, func() {
			select {
			case rebuildReq <- plan.Options{}:
			default:
			}
		})
	}
}

func (d *Daemon) setupScheduler(rebuildReq chan plan.Options) (gocron.Scheduler, error) {
	if d.opts.FullRebuildInterval <= 0 {
		return nil, nil
	}

	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("create scheduler: %w", err)
	}
	_, err = scheduler.NewJob(
		gocron.DurationJob(d.opts.FullRebuildInterval),
		gocron.NewTask(func() {
			d.logger.Info("Periodic full rebuild triggered")
			select {
			case rebuildReq <- plan.Options{Force: true}:
			default:
			}
		}),
		gocron.WithName("full-rebuild"),
	)
	if err != nil {
		_ = scheduler.Shutdown()
		return nil, fmt.Errorf("create periodic rebuild job: %w", err)
	}
	return scheduler, nil
}

func (d *Daemon) handleEvent(watcher *fsnotify.Watcher, ev fsnotify.Event, trigger func()) {
	if shouldIgnore(ev.Name) {
		return
	}

	// New directories must be added to the watch set before anything
	// inside them changes.
	if ev.Op.Has(fsnotify.Create) {
		if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
			if err := addDirsRecursive(watcher, ev.Name); err != nil {
				d.logger.Warn("Could not watch new directory", logfields.Path(ev.Name), logfields.Error(err))
			}
		}
	}

	d.logger.Debug("Change detected", logfields.Path(ev.Name), "op", ev.Op.String())
	trigger()
}

func (d *Daemon) startPreviewServer() *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/", http.FileServer(http.Dir(d.layout.OutputDir)))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	if d.opts.Registry != nil {
		mux.Handle("/metrics", promhttp.HandlerFor(d.opts.Registry, promhttp.HandlerOpts{}))
	}

	server := &http.Server{
		Addr:              d.opts.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		d.logger.Info("Preview server listening", "addr", d.opts.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			d.logger.Error("Preview server failed", logfields.Error(err))
		}
	}()
	return server
}

func (d *Daemon) stopPreviewServer(server *http.Server) {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		d.logger.Warn("Preview server shutdown error", logfields.Error(err))
	}
}

// addDirsRecursive registers dir and all its subdirectories. A missing dir
// is fine; it may be created later and picked up via create events on its
// parent.
func addDirsRecursive(watcher *fsnotify.Watcher, dir string) error {
	if _, err := os.Stat(dir); err != nil {
		return nil
	}
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if strings.HasPrefix(d.Name(), ".") && path != dir {
			return filepath.SkipDir
		}
		return watcher.Add(path)
	})
}

// shouldIgnore filters editor noise: hidden files, swap and backup files.
func shouldIgnore(name string) bool {
	base := filepath.Base(name)
	if strings.HasPrefix(base, ".") {
		return true
	}
	switch {
	case strings.HasSuffix(base, ".swp"), strings.HasSuffix(base, ".swx"),
		strings.HasSuffix(base, "~"), strings.HasSuffix(base, ".tmp"):
		return true
	}
	return false
}
