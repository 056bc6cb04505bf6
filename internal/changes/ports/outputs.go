package ports

import (
	"context"

	"github.com/nathantilsley/changed-dirs/internal/changes/domain"
)

// RevisionComparePort abstracts the hosting service's commit comparison API.
type RevisionComparePort interface {
	// CompareFiles returns the paths of all files changed between pair.Base and pair.Head.
	CompareFiles(ctx context.Context, repo domain.Repository, pair domain.RevisionPair) ([]string, error)
	// RecentRevisions returns up to n commit SHAs reachable from ref, newest first.
	RecentRevisions(ctx context.Context, repo domain.Repository, ref string, n int) ([]string, error)
}

// LocalHistoryPort abstracts a local working copy with history.
type LocalHistoryPort interface {
	// DiffNames returns the newline-delimited paths changed within pair, or
	// between the current position and its predecessor when pair is nil.
	DiffNames(ctx context.Context, pair *domain.RevisionPair) (string, error)
}

// TreeListingPort abstracts enumerating every file beneath a directory.
type TreeListingPort interface {
	// ListFiles returns the paths of all files under dir, relative to the invocation root.
	ListFiles(ctx context.Context, dir string) ([]string, error)
}

// PublishPort abstracts the invocation's output and failure channels.
type PublishPort interface {
	Publish(ctx context.Context, result domain.Result) error
	Fail(err error)
}
