package watch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/sitegen/internal/builder"
	"git.home.luguber.info/inful/sitegen/internal/index"
	"git.home.luguber.info/inful/sitegen/internal/scan"
	"git.home.luguber.info/inful/sitegen/internal/site"
)

func TestShouldIgnore(t *testing.T) {
	assert.True(t, shouldIgnore("/site/source/.hidden.md"))
	assert.True(t, shouldIgnore("/site/source/page.md.swp"))
	assert.True(t, shouldIgnore("/site/source/page.md~"))
	assert.True(t, shouldIgnore("/site/source/page.tmp"))
	assert.False(t, shouldIgnore("/site/source/page.md"))
	assert.False(t, shouldIgnore("/site/templates/page.html"))
}

func TestAddDirsRecursiveToleratesMissingDir(t *testing.T) {
	watcher, err := fsnotify.NewWatcher()
	require.NoError(t, err)
	defer watcher.Close()

	require.NoError(t, addDirsRecursive(watcher, filepath.Join(t.TempDir(), "nope")))
}

func TestAddDirsRecursiveSkipsHiddenDirs(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "a", "b"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(root, ".git", "objects"), 0o755))

	watcher, err := fsnotify.NewWatcher()
	require.NoError(t, err)
	defer watcher.Close()

	require.NoError(t, addDirsRecursive(watcher, root))
	list := watcher.WatchList()
	assert.Contains(t, list, filepath.Join(root, "a", "b"))
	assert.NotContains(t, list, filepath.Join(root, ".git"))
}

func TestDaemonRebuildsOnChange(t *testing.T) {
	root := t.TempDir()
	layout := site.NewLayout(root)
	require.NoError(t, os.MkdirAll(layout.SourceDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(layout.SourceDir, "a.md"), []byte("# A"), 0o644))

	renderFn := func(e scan.Entry) ([]byte, error) { return []byte("out"), nil }
	b := builder.New(layout, index.NewStore(root), scan.NewScanner(layout), renderFn)

	results := make(chan *builder.Result, 16)
	d := NewDaemon(layout, b, Options{
		Debounce:  20 * time.Millisecond,
		OnRebuild: func(r *builder.Result) { results <- r },
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		_ = d.Run(ctx)
		close(done)
	}()

	// Initial build.
	select {
	case r := <-results:
		assert.Equal(t, 1, r.Rendered)
	case <-time.After(5 * time.Second):
		t.Fatal("initial build did not complete")
	}

	require.NoError(t, os.WriteFile(filepath.Join(layout.SourceDir, "b.md"), []byte("# B"), 0o644))

	deadline := time.After(5 * time.Second)
	for {
		select {
		case r := <-results:
			if r.Rendered >= 1 {
				cancel()
				<-done
				return
			}
		case <-deadline:
			t.Fatal("rebuild after change did not happen")
		}
	}
}
