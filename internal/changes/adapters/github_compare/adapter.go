// Package githubcompare lists changed files through the GitHub compare API.
package githubcompare

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/go-github/v68/github"

	"github.com/nathantilsley/changed-dirs/internal/changes/domain"
)

const perPage = 100

// maxCompareFiles is the most files the compare API reports for one
// comparison. A larger diff is silently truncated.
const maxCompareFiles = 300

// Adapter implements ports.RevisionComparePort using the GitHub REST API.
type Adapter struct {
	client *github.Client
	logger *slog.Logger
}

// New creates a new compare adapter.
func New(client *github.Client, logger *slog.Logger) *Adapter {
	return &Adapter{
		client: client,
		logger: logger,
	}
}

// CompareFiles returns every file path touched between pair.Base and
// pair.Head. Renamed files contribute both their old and new path.
// A comparison that reaches the API's file limit is reported as an error,
// since the list may be incomplete.
func (a *Adapter) CompareFiles(ctx context.Context, repo domain.Repository, pair domain.RevisionPair) ([]string, error) {
	var files []string
	var listed int
	opts := &github.ListOptions{PerPage: perPage}

	for {
		cmp, resp, err := a.client.Repositories.CompareCommits(ctx, repo.Owner, repo.Name, pair.Base, pair.Head, opts)
		if err != nil {
			return nil, fmt.Errorf("comparing commits: %w", err)
		}

		listed += len(cmp.Files)
		if listed >= maxCompareFiles {
			return nil, fmt.Errorf("comparison lists %d files, the API limit; the list may be truncated", listed)
		}

		for _, f := range cmp.Files {
			files = append(files, f.GetFilename())
			if f.GetStatus() == "renamed" && f.GetPreviousFilename() != "" {
				files = append(files, f.GetPreviousFilename())
			}
		}

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	a.logger.Debug("compared revisions", "repo", repo.String(), "pair", pair.String(), "files", len(files))
	return files, nil
}

// RecentRevisions returns up to n commit SHAs reachable from ref, newest first.
// An empty ref means the default branch.
func (a *Adapter) RecentRevisions(ctx context.Context, repo domain.Repository, ref string, n int) ([]string, error) {
	opts := &github.CommitsListOptions{
		SHA:         ref,
		ListOptions: github.ListOptions{PerPage: n},
	}
	commits, _, err := a.client.Repositories.ListCommits(ctx, repo.Owner, repo.Name, opts)
	if err != nil {
		return nil, fmt.Errorf("listing commits: %w", err)
	}

	shas := make([]string, 0, len(commits))
	for _, c := range commits {
		if len(shas) == n {
			break
		}
		shas = append(shas, c.GetSHA())
	}
	return shas, nil
}
