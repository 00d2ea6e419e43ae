// Package gitinfo resolves per-file last-commit times from the site's git
// history. Everything here degrades silently: a site that is not a git
// repository, or a file with no commit history, simply falls back to
// filesystem timestamps.
package gitinfo

import (
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	git "github.com/go-git/go-git/v5"
)

// Resolver maps site-relative file paths to their last commit time.
type Resolver struct {
	repo   *git.Repository
	prefix string
	cache  map[string]time.Time
	logger *slog.Logger
}

// Open locates the repository containing root. Returns nil (not an error)
// when root is not inside a work tree.
func Open(root string) *Resolver {
	logger := slog.Default()

	abs, err := filepath.Abs(root)
	if err != nil {
		return nil
	}

	repo, err := git.PlainOpenWithOptions(abs, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		logger.Debug("No git repository found", "root", root)
		return nil
	}

	wt, err := repo.Worktree()
	if err != nil {
		return nil
	}

	prefix, err := filepath.Rel(wt.Filesystem.Root(), abs)
	if err != nil {
		return nil
	}
	if prefix == "." {
		prefix = ""
	}

	return &Resolver{
		repo:   repo,
		prefix: filepath.ToSlash(prefix),
		cache:  make(map[string]time.Time),
		logger: logger,
	}
}

// WithLogger sets a custom logger.
func (r *Resolver) WithLogger(logger *slog.Logger) *Resolver {
	if r != nil {
		r.logger = logger
	}
	return r
}

// LastMod returns the committer time of the newest commit touching path
// (site-root relative). A nil resolver, uncommitted file, or any git error
// reports false.
func (r *Resolver) LastMod(path string) (time.Time, bool) {
	if r == nil {
		return time.Time{}, false
	}
	if ts, ok := r.cache[path]; ok {
		return ts, !ts.IsZero()
	}

	ts := r.lookup(path)
	r.cache[path] = ts
	return ts, !ts.IsZero()
}

func (r *Resolver) lookup(path string) time.Time {
	repoPath := r.repoRelative(path)

	iter, err := r.repo.Log(&git.LogOptions{
		FileName: &repoPath,
		Order:    git.LogOrderCommitterTime,
	})
	if err != nil {
		r.logger.Debug("Git log failed", "path", path, "error", err)
		return time.Time{}
	}
	defer iter.Close()

	// The file-filtered log is ordered newest first, so the first commit
	// is the one we want.
	commit, err := iter.Next()
	if err != nil {
		return time.Time{}
	}
	return commit.Committer.When
}

// repoRelative maps a site path to its repository-relative form.
func (r *Resolver) repoRelative(path string) string {
	if r.prefix == "" {
		return path
	}
	return r.prefix + "/" + strings.TrimPrefix(path, "/")
}
