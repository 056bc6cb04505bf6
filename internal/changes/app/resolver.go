package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	noopmetric "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"

	"github.com/nathantilsley/changed-dirs/internal/changes/domain"
	"github.com/nathantilsley/changed-dirs/internal/changes/ports"
)

// Resolver produces the list of changed files by trying each available
// change source in order of fidelity:
//  1. remote comparison through the hosting service API
//  2. local git history
//  3. a full listing of the base directory
//
// A failing source is logged and the next one is tried. Resolve never fails;
// when even the listing fails the result is an empty list.
type Resolver struct {
	compare       ports.RevisionComparePort // nil when the remote API is unavailable
	history       ports.LocalHistoryPort    // nil when there is no local history
	listing       ports.TreeListingPort
	baseDir       string
	remoteTimeout time.Duration
	logger        *slog.Logger
	tracer        trace.Tracer
	attempts      metric.Int64Counter
}

// NewResolver creates a Resolver. compare and history may be nil, in which
// case the corresponding step is skipped.
func NewResolver(
	compare ports.RevisionComparePort,
	history ports.LocalHistoryPort,
	listing ports.TreeListingPort,
	baseDir string,
	remoteTimeout time.Duration,
	logger *slog.Logger,
	meter metric.Meter,
	tracer trace.Tracer,
) *Resolver {
	attempts, err := meter.Int64Counter(
		"changed_dirs.source.attempts",
		metric.WithDescription("Change source attempts by source and outcome"),
	)
	if err != nil {
		logger.Warn("failed to create source attempts counter", "error", err)
		attempts = noopmetric.Int64Counter{}
	}

	return &Resolver{
		compare:       compare,
		history:       history,
		listing:       listing,
		baseDir:       baseDir,
		remoteTimeout: remoteTimeout,
		logger:        logger,
		tracer:        tracer,
		attempts:      attempts,
	}
}

type strategy struct {
	name string
	run  func(ctx context.Context) ([]string, error)
}

// resolveState carries what earlier strategies learned to later ones.
type resolveState struct {
	trigger domain.Trigger
	pair    *domain.RevisionPair
}

// Resolve returns the changed files and the source that produced them.
func (r *Resolver) Resolve(ctx context.Context, trigger domain.Trigger) domain.Resolution {
	st := &resolveState{trigger: trigger}

	for _, s := range r.strategies(st) {
		files, err := r.attempt(ctx, s)
		if err == nil {
			r.logger.Info("resolved changed files", "source", s.name, "count", len(files))
			return domain.Resolution{Source: s.name, Files: files}
		}

		if domain.IsRecoverable(err) {
			r.logger.Warn("change source unavailable, falling back", "source", s.name, "reason", err)
		} else {
			r.logger.Warn("change source failed, falling back", "source", s.name, "error", err)
		}
	}

	r.logger.Warn("no change source succeeded, treating as no changes", "baseDir", r.baseDir)
	return domain.Resolution{Source: domain.SourceNone, Files: []string{}}
}

func (r *Resolver) strategies(st *resolveState) []strategy {
	var list []strategy
	if r.compare != nil {
		list = append(list, strategy{
			name: domain.SourceRemoteCompare,
			run:  func(ctx context.Context) ([]string, error) { return r.remoteCompare(ctx, st) },
		})
	}
	if r.history != nil {
		list = append(list, strategy{
			name: domain.SourceLocalHistory,
			run:  func(ctx context.Context) ([]string, error) { return r.localHistory(ctx, st) },
		})
	}
	list = append(list, strategy{
		name: domain.SourceFullListing,
		run:  r.fullListing,
	})
	return list
}

func (r *Resolver) attempt(ctx context.Context, s strategy) ([]string, error) {
	ctx, span := r.tracer.Start(ctx, "resolve."+s.name)
	defer span.End()

	files, err := s.run(ctx)

	outcome := "success"
	if err != nil {
		outcome = "failure"
		err = domain.NewSourceError(s.name, err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.SetAttributes(attribute.Int("files", len(files)))
	r.attempts.Add(ctx, 1, metric.WithAttributes(
		attribute.String("source", s.name),
		attribute.String("outcome", outcome),
	))
	return files, err
}

func (r *Resolver) remoteCompare(ctx context.Context, st *resolveState) ([]string, error) {
	if r.remoteTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.remoteTimeout)
		defer cancel()
	}

	repo := st.trigger.Repo
	if !repo.Valid() {
		return nil, fmt.Errorf("%w: repository not known", domain.ErrSourceUnavailable)
	}

	pair, err := st.trigger.RevisionPair()
	if errors.Is(err, domain.ErrUnsupportedEvent) {
		r.logger.Debug("event carries no revisions, deriving from recent history", "event", st.trigger.Name)
		pair, err = r.recentPair(ctx, repo, st.trigger.Ref)
	}
	if err != nil {
		return nil, err
	}
	st.pair = &pair

	r.logger.Debug("comparing revisions", "repo", repo.String(), "base", pair.Base, "head", pair.Head)
	files, err := r.compare.CompareFiles(ctx, repo, pair)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("comparing %s timed out after %s: %w", pair, r.remoteTimeout, err)
		}
		return nil, fmt.Errorf("comparing %s: %w", pair, err)
	}
	return files, nil
}

// recentPair derives a pair from the two most recent commits reachable from ref.
func (r *Resolver) recentPair(ctx context.Context, repo domain.Repository, ref string) (domain.RevisionPair, error) {
	revs, err := r.compare.RecentRevisions(ctx, repo, ref, 2)
	if err != nil {
		return domain.RevisionPair{}, fmt.Errorf("listing recent commits: %w", err)
	}
	if len(revs) < 2 {
		return domain.RevisionPair{}, fmt.Errorf("%w: found %d commit(s) reachable from %q",
			domain.ErrInsufficientHistory, len(revs), ref)
	}
	return domain.RevisionPair{Base: revs[1], Head: revs[0]}, nil
}

func (r *Resolver) localHistory(ctx context.Context, st *resolveState) ([]string, error) {
	pair := st.pair
	if pair == nil {
		if p, err := st.trigger.RevisionPair(); err == nil {
			pair = &p
		}
	}

	out, err := r.history.DiffNames(ctx, pair)
	if err != nil {
		return nil, err
	}
	return domain.SplitLines(out), nil
}

func (r *Resolver) fullListing(ctx context.Context) ([]string, error) {
	files, err := r.listing.ListFiles(ctx, r.baseDir)
	if err != nil {
		return nil, fmt.Errorf("listing %q: %w", r.baseDir, err)
	}
	return files, nil
}
