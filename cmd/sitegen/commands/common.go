package commands

import (
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/sitegen/internal/artifact"
	"git.home.luguber.info/inful/sitegen/internal/builder"
	"git.home.luguber.info/inful/sitegen/internal/config"
	"git.home.luguber.info/inful/sitegen/internal/gitinfo"
	"git.home.luguber.info/inful/sitegen/internal/index"
	"git.home.luguber.info/inful/sitegen/internal/render"
	"git.home.luguber.info/inful/sitegen/internal/rendercache"
	"git.home.luguber.info/inful/sitegen/internal/scan"
	"git.home.luguber.info/inful/sitegen/internal/site"
)

// Global carries shared state into subcommands.
type Global struct {
	Logger *slog.Logger
}

// CLI is the root command definition.
type CLI struct {
	Root    string           `short:"r" help:"Site root directory" default:"."`
	Config  string           `short:"c" help:"Configuration file path (default: <root>/sitegen.yaml)"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Build   BuildCmd   `cmd:"" help:"Build the site incrementally"`
	Query   QueryCmd   `cmd:"" help:"Inspect the file index (tree, url or json view)"`
	Init    InitCmd    `cmd:"" help:"Scaffold a new site in the root directory"`
	Watch   WatchCmd   `cmd:"" help:"Rebuild on changes and serve a local preview"`
	History HistoryCmd `cmd:"" help:"Show recent build runs"`
}

// AfterApply runs after flag parsing; sets up logging once.
func (c *CLI) AfterApply() error {
	level := slog.LevelInfo
	if c.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return nil
}

// siteContext is the assembled per-run wiring shared by build and watch.
type siteContext struct {
	cfg    *config.Config
	layout *site.Layout
	store  *index.Store
	engine *render.Engine
}

func loadSite(root *CLI) (*siteContext, error) {
	cfg, err := config.Load(root.Root, root.Config)
	if err != nil {
		return nil, err
	}

	layout := site.NewLayout(root.Root)
	layout.BaseURL = cfg.Site.BaseURL
	applyDirOverrides(layout, cfg)

	engine := render.NewEngine(layout, render.SiteInfo{
		Title:       cfg.Site.Title,
		Description: cfg.Site.Description,
		Author:      cfg.Site.Author,
		BaseURL:     cfg.Site.BaseURL,
	})
	// A nil cache is a valid no-op, so a cache setup failure only costs speed.
	if cache, err := rendercache.New(rendercache.DefaultSize); err == nil {
		engine.WithCache(cache)
	}

	return &siteContext{
		cfg:    cfg,
		layout: layout,
		store:  index.NewStore(root.Root),
		engine: engine,
	}, nil
}

func applyDirOverrides(layout *site.Layout, cfg *config.Config) {
	if cfg.Dirs.Source != "" {
		layout.SourceDir = resolveDir(layout.Root, cfg.Dirs.Source)
	}
	if cfg.Dirs.Templates != "" {
		layout.TemplateDir = resolveDir(layout.Root, cfg.Dirs.Templates)
	}
	if cfg.Dirs.Output != "" {
		layout.OutputDir = resolveDir(layout.Root, cfg.Dirs.Output)
	}
}

func resolveDir(root, dir string) string {
	if os.IsPathSeparator(dir[0]) {
		return dir
	}
	return root + string(os.PathSeparator) + dir
}

// newBuilder assembles the build pipeline from the loaded site context.
func (sc *siteContext) newBuilder(noRSS, noSitemap bool) *builder.Builder {
	gen := artifact.NewGenerator(sc.layout, artifact.SiteMeta{
		Title:       sc.cfg.Site.Title,
		Description: sc.cfg.Site.Description,
		Author:      sc.cfg.Site.Author,
	}, artifact.Options{
		NoRSS:     noRSS || sc.cfg.RSS.Disabled,
		NoSitemap: noSitemap || sc.cfg.Sitemap.Disabled,
		MaxItems:  sc.cfg.RSS.MaxItems,
	})

	if sc.cfg.Git.LastMod {
		if resolver := gitinfo.Open(sc.layout.Root); resolver != nil {
			gen.WithLastMod(resolver.LastMod)
		}
	}

	scanner := scan.NewScanner(sc.layout)
	return builder.New(sc.layout, sc.store, scanner, sc.engine.Render).
		WithArtifacts(gen)
}
