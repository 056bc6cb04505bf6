// Package treewalk lists every file beneath a directory of the working copy.
package treewalk

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Adapter implements ports.TreeListingPort by walking the filesystem.
type Adapter struct {
	root   string
	logger *slog.Logger
}

// New creates a tree listing adapter for the invocation root.
func New(root string, logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stderr, nil))
	}
	return &Adapter{root: root, logger: logger}
}

// ListFiles returns every regular file under dir, relative to the root and
// slash-separated, in lexical order. VCS metadata directories are skipped.
// A missing dir is an error.
func (a *Adapter) ListFiles(ctx context.Context, dir string) ([]string, error) {
	start := dir
	if !filepath.IsAbs(start) {
		start = filepath.Join(a.root, filepath.FromSlash(dir))
	}

	info, err := os.Stat(start)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", start, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", start)
	}

	var files []string
	err = filepath.WalkDir(start, func(path string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			a.logger.Warn("error accessing path, skipping", "path", path, "error", err)
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if d.IsDir() {
			if isVCSDir(d.Name()) && path != start {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() && d.Type()&fs.ModeSymlink == 0 {
			return nil
		}

		files = append(files, a.rel(path))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", start, err)
	}

	sort.Strings(files)
	a.logger.Debug("listed files", "dir", dir, "count", len(files))
	return files, nil
}

// rel expresses path relative to the root, falling back to the absolute
// path when it lies outside.
func (a *Adapter) rel(path string) string {
	rel, err := filepath.Rel(a.root, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}

func isVCSDir(name string) bool {
	switch name {
	case ".git", ".hg", ".svn":
		return true
	}
	return false
}
