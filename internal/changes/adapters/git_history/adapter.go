// Package githistory computes changed files from the local git history.
package githistory

import (
	"context"
	"fmt"

	"github.com/nathantilsley/changed-dirs/internal/changes/domain"
)

// Git is the subset of gitrepo.GitRepo the adapter needs.
type Git interface {
	DiffNames(ctx context.Context, base, head string) (string, error)
	RevList(ctx context.Context, ref string, n int) ([]string, error)
}

// Adapter implements ports.LocalHistoryPort on top of a working copy.
type Adapter struct {
	git Git
}

// New creates a new local history adapter.
func New(git Git) *Adapter {
	return &Adapter{git: git}
}

// DiffNames returns the paths changed within pair. Without a pair the
// checked-out commit is compared against its parent.
func (a *Adapter) DiffNames(ctx context.Context, pair *domain.RevisionPair) (string, error) {
	if pair != nil {
		return a.git.DiffNames(ctx, pair.Base, pair.Head)
	}

	revs, err := a.git.RevList(ctx, "HEAD", 2)
	if err != nil {
		return "", fmt.Errorf("listing local commits: %w", err)
	}
	if len(revs) < 2 {
		return "", fmt.Errorf("%w: working copy has %d commit(s)", domain.ErrInsufficientHistory, len(revs))
	}
	return a.git.DiffNames(ctx, revs[1], revs[0])
}
