// Package gitrepo runs git commands against a local working copy.
package gitrepo

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
)

// GitRepo wraps the git CLI for a single working copy.
type GitRepo struct {
	root   string
	logger *slog.Logger
}

// New creates a GitRepo rooted at root. No I/O is performed.
func New(root string, logger *slog.Logger) *GitRepo {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stderr, nil))
	}
	if abs, err := filepath.Abs(root); err == nil {
		root = abs
	}
	return &GitRepo{
		root:   root,
		logger: logger,
	}
}

// Path returns the root of the working copy.
func (r *GitRepo) Path() string {
	return r.root
}

// IsWorkTree reports whether root is inside a git working tree with git available.
func (r *GitRepo) IsWorkTree(ctx context.Context) bool {
	out, err := r.run(ctx, "rev-parse", "--is-inside-work-tree")
	if err != nil {
		r.logger.Debug("not a git working tree", "path", r.root, "error", err)
		return false
	}
	return strings.TrimSpace(out) == "true"
}

// DiffNames returns the newline-delimited paths that differ between base and head.
// Paths are relative to root, and changes outside root are left out, even when
// root is a subdirectory of the repository.
func (r *GitRepo) DiffNames(ctx context.Context, base, head string) (string, error) {
	if err := checkRevisions(base, head); err != nil {
		return "", err
	}
	return r.run(ctx, "diff", "--relative", "--name-only", base, head, "--")
}

// RevList returns up to n commit SHAs reachable from ref, newest first.
func (r *GitRepo) RevList(ctx context.Context, ref string, n int) ([]string, error) {
	if ref == "" {
		ref = "HEAD"
	}
	if err := checkRevisions(ref); err != nil {
		return nil, err
	}
	out, err := r.run(ctx, "rev-list", "--max-count="+strconv.Itoa(n), ref, "--")
	if err != nil {
		return nil, err
	}
	return strings.Fields(out), nil
}

// checkRevisions rejects revisions git would parse as options.
func checkRevisions(revs ...string) error {
	for _, rev := range revs {
		if rev == "" || strings.HasPrefix(rev, "-") {
			return fmt.Errorf("invalid revision %q", rev)
		}
	}
	return nil
}

// run executes git in the working copy and returns stdout. The working copy is
// marked safe for this invocation only, since CI containers often check out
// as a different user.
func (r *GitRepo) run(ctx context.Context, args ...string) (string, error) {
	full := append([]string{
		"-C", r.root,
		"-c", "safe.directory=" + r.root,
		"-c", "core.quotePath=false",
	}, args...)

	//nolint:gosec // G204: arguments are revisions from the event payload, passed without a shell
	cmd := exec.CommandContext(ctx, "git", full...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	out, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("git %s failed: %w\noutput: %s", strings.Join(args, " "), err, strings.TrimSpace(stderr.String()))
	}
	return string(out), nil
}
