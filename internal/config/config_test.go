package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sgerrors "git.home.luguber.info/inful/sitegen/internal/errors"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(t.TempDir(), "")
	require.NoError(t, err)
	assert.Equal(t, "My Site", cfg.Site.Title)
	assert.Equal(t, ":8080", cfg.Watch.Addr)
	assert.Equal(t, 300*time.Millisecond, cfg.Watch.DebounceDuration())
	assert.Equal(t, time.Duration(0), cfg.Watch.RebuildInterval())
}

func TestLoadParsesFile(t *testing.T) {
	root := t.TempDir()
	content := `site:
  title: Example
  base_url: https://example.org
rss:
  max_items: 5
watch:
  debounce: 1s
git:
  lastmod: true
`
	require.NoError(t, os.WriteFile(filepath.Join(root, DefaultFileName), []byte(content), 0o644))

	cfg, err := Load(root, "")
	require.NoError(t, err)
	assert.Equal(t, "Example", cfg.Site.Title)
	assert.Equal(t, "https://example.org", cfg.Site.BaseURL)
	assert.Equal(t, 5, cfg.RSS.MaxItems)
	assert.Equal(t, time.Second, cfg.Watch.DebounceDuration())
	assert.True(t, cfg.Git.LastMod)
}

func TestLoadMalformedFileIsFatalConfigError(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, DefaultFileName), []byte("site: [broken"), 0o644))

	_, err := Load(root, "")
	require.Error(t, err)
	assert.True(t, sgerrors.IsCategory(err, sgerrors.CategoryConfig))
}

func TestEnvOverridesFile(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, DefaultFileName),
		[]byte("site:\n  title: FromFile\n"), 0o644))
	t.Setenv("SITEGEN_TITLE", "FromEnv")
	t.Setenv("SITEGEN_RSS_MAX_ITEMS", "7")

	cfg, err := Load(root, "")
	require.NoError(t, err)
	assert.Equal(t, "FromEnv", cfg.Site.Title)
	assert.Equal(t, 7, cfg.RSS.MaxItems)
}

func TestExpandEnvInFile(t *testing.T) {
	root := t.TempDir()
	t.Setenv("MY_BASE", "https://env.example.org")
	require.NoError(t, os.WriteFile(filepath.Join(root, DefaultFileName),
		[]byte("site:\n  base_url: ${MY_BASE}\n"), 0o644))

	cfg, err := Load(root, "")
	require.NoError(t, err)
	assert.Equal(t, "https://env.example.org", cfg.Site.BaseURL)
}

func TestHistoryPathDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, filepath.Join("/site", ".sitegen", "history.db"), cfg.HistoryPath("/site"))
	cfg.History.Path = "/tmp/custom.db"
	assert.Equal(t, "/tmp/custom.db", cfg.HistoryPath("/site"))
}

func TestInitScaffoldsSite(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, Init(root, false))

	assert.FileExists(t, filepath.Join(root, DefaultFileName))
	assert.FileExists(t, filepath.Join(root, "source", "index.md"))
	assert.FileExists(t, filepath.Join(root, "templates", "page.html"))
}

func TestInitPreservesExistingFilesWithoutForce(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, DefaultFileName), []byte("custom"), 0o644))

	require.NoError(t, Init(root, false))
	data, err := os.ReadFile(filepath.Join(root, DefaultFileName))
	require.NoError(t, err)
	assert.Equal(t, "custom", string(data))

	require.NoError(t, Init(root, true))
	data, err = os.ReadFile(filepath.Join(root, DefaultFileName))
	require.NoError(t, err)
	assert.NotEqual(t, "custom", string(data))
}
