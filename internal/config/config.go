// Package config loads the site configuration file (sitegen.yaml) and
// merges environment overrides on top.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	sgerrors "git.home.luguber.info/inful/sitegen/internal/errors"
)

// DefaultFileName is looked up under the site root when no explicit config
// path is given.
const DefaultFileName = "sitegen.yaml"

// Config is the full site configuration.
type Config struct {
	Site    SiteConfig    `yaml:"site"`
	Dirs    DirsConfig    `yaml:"dirs"`
	RSS     RSSConfig     `yaml:"rss"`
	Sitemap SitemapConfig `yaml:"sitemap"`
	Watch   WatchConfig   `yaml:"watch"`
	NATS    NATSConfig    `yaml:"nats"`
	History HistoryConfig `yaml:"history"`
	Git     GitConfig     `yaml:"git"`
}

// SiteConfig is metadata embedded in rendered pages and artifacts.
type SiteConfig struct {
	Title       string `yaml:"title"`
	Description string `yaml:"description,omitempty"`
	Author      string `yaml:"author,omitempty"`
	BaseURL     string `yaml:"base_url,omitempty"`
}

// DirsConfig overrides the conventional directory names.
type DirsConfig struct {
	Source    string `yaml:"source,omitempty"`
	Templates string `yaml:"templates,omitempty"`
	Output    string `yaml:"output,omitempty"`
}

type RSSConfig struct {
	Disabled bool `yaml:"disabled,omitempty"`
	MaxItems int  `yaml:"max_items,omitempty"`
}

type SitemapConfig struct {
	Disabled bool `yaml:"disabled,omitempty"`
}

// WatchConfig tunes the watch-mode daemon. Durations are strings in
// time.ParseDuration syntax ("300ms", "5m").
type WatchConfig struct {
	// Addr is the preview server listen address, e.g. ":8080".
	Addr string `yaml:"addr,omitempty"`
	// Debounce batches filesystem events before triggering a rebuild.
	Debounce string `yaml:"debounce,omitempty"`
	// FullRebuildInterval forces a periodic full rebuild. Empty disables it.
	FullRebuildInterval string `yaml:"full_rebuild_interval,omitempty"`
}

// DebounceDuration parses the debounce setting, falling back to the default
// on empty or malformed values.
func (w WatchConfig) DebounceDuration() time.Duration {
	if d, err := time.ParseDuration(w.Debounce); err == nil && d > 0 {
		return d
	}
	return 300 * time.Millisecond
}

// RebuildInterval parses the periodic full rebuild setting. Zero means
// disabled.
func (w WatchConfig) RebuildInterval() time.Duration {
	if d, err := time.ParseDuration(w.FullRebuildInterval); err == nil && d > 0 {
		return d
	}
	return 0
}

// NATSConfig enables build event publishing.
type NATSConfig struct {
	URL     string `yaml:"url,omitempty"`
	Subject string `yaml:"subject,omitempty"`
}

// HistoryConfig enables the build run database.
type HistoryConfig struct {
	Disabled bool `yaml:"disabled,omitempty"`
	// Path defaults to .sitegen/history.db under the site root.
	Path string `yaml:"path,omitempty"`
}

type GitConfig struct {
	// LastMod resolves page modification times from git history.
	LastMod bool `yaml:"lastmod,omitempty"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		Site: SiteConfig{Title: "My Site"},
		Watch: WatchConfig{
			Addr:     ":8080",
			Debounce: "300ms",
		},
	}
}

// Load reads the config file under root. A missing file yields the default
// configuration; an unreadable or malformed file is fatal. A .env file next
// to the config is loaded first so ${VAR} expansion sees it.
func Load(root, path string) (*Config, error) {
	if path == "" {
		path = filepath.Join(root, DefaultFileName)
	}

	// Missing .env is the common case, not an error.
	_ = godotenv.Load(filepath.Join(root, ".env"))

	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnv()
			return cfg, nil
		}
		return nil, sgerrors.Wrap(err, sgerrors.CategoryConfig, sgerrors.SeverityFatal,
			fmt.Sprintf("read config file %s", path))
	}

	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), cfg); err != nil {
		return nil, sgerrors.Wrap(err, sgerrors.CategoryConfig, sgerrors.SeverityFatal,
			fmt.Sprintf("parse config file %s", path))
	}

	cfg.applyEnv()
	return cfg, nil
}

// applyEnv overlays SITEGEN_* process environment on top of the file.
func (c *Config) applyEnv() {
	if v := os.Getenv("SITEGEN_BASE_URL"); v != "" {
		c.Site.BaseURL = v
	}
	if v := os.Getenv("SITEGEN_TITLE"); v != "" {
		c.Site.Title = v
	}
	if v := os.Getenv("SITEGEN_NATS_URL"); v != "" {
		c.NATS.URL = v
	}
	if v := os.Getenv("SITEGEN_WATCH_ADDR"); v != "" {
		c.Watch.Addr = v
	}
	if v := os.Getenv("SITEGEN_RSS_MAX_ITEMS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.RSS.MaxItems = n
		}
	}
}

// HistoryPath resolves the run database location under root.
func (c *Config) HistoryPath(root string) string {
	if c.History.Path != "" {
		return c.History.Path
	}
	return filepath.Join(root, ".sitegen", "history.db")
}
