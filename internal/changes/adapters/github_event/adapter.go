// Package githubevent builds the run's trigger from the GitHub Actions event payload.
package githubevent

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/google/go-github/v68/github"

	"github.com/nathantilsley/changed-dirs/internal/changes/domain"
)

// Env is the part of the runner environment that describes the event.
type Env struct {
	Name       string // GITHUB_EVENT_NAME
	Path       string // GITHUB_EVENT_PATH
	Repository string // GITHUB_REPOSITORY
	SHA        string // GITHUB_SHA
}

// Reader turns an event environment into a trigger.
type Reader struct {
	logger *slog.Logger
}

// New creates a new event reader.
func New(logger *slog.Logger) *Reader {
	return &Reader{logger: logger}
}

// Read loads the payload file named by env and builds the trigger. Problems
// reading or parsing the payload are logged and produce an unknown trigger,
// which later falls through to history-derived comparisons.
func (r *Reader) Read(env Env) domain.Trigger {
	if env.Path == "" {
		r.logger.Debug("no event payload available", "event", env.Name)
		return r.unknown(env)
	}

	//nolint:gosec // G304: path is provided by the runner
	payload, err := os.ReadFile(env.Path)
	if err != nil {
		r.logger.Warn("failed to read event payload", "path", env.Path, "error", err)
		return r.unknown(env)
	}
	return r.Parse(env, payload)
}

// Parse builds the trigger from an already loaded payload.
func (r *Reader) Parse(env Env, payload []byte) domain.Trigger {
	if env.Name == "" {
		return r.unknown(env)
	}

	event, err := github.ParseWebHook(env.Name, payload)
	if err != nil {
		r.logger.Warn("failed to parse event payload", "event", env.Name, "error", err)
		return r.unknown(env)
	}

	switch e := event.(type) {
	case *github.PullRequestEvent:
		pr := e.GetPullRequest()
		repo := r.repository(env, e.GetRepo().GetFullName())
		return domain.NewPullRequestTrigger(repo, pr.GetBase().GetSHA(), pr.GetHead().GetSHA())
	case *github.PullRequestTargetEvent:
		pr := e.GetPullRequest()
		repo := r.repository(env, e.GetRepo().GetFullName())
		return domain.NewPullRequestTrigger(repo, pr.GetBase().GetSHA(), pr.GetHead().GetSHA())
	case *github.PushEvent:
		repo := r.repository(env, e.GetRepo().GetFullName())
		return domain.NewPushTrigger(repo, e.GetBefore(), e.GetAfter())
	default:
		r.logger.Debug("event carries no revision pair", "event", env.Name, "type", fmt.Sprintf("%T", event))
		return r.unknown(env)
	}
}

func (r *Reader) unknown(env Env) domain.Trigger {
	return domain.NewUnknownTrigger(r.repository(env, ""), env.Name, env.SHA)
}

// repository prefers GITHUB_REPOSITORY and falls back to the payload's full name.
func (r *Reader) repository(env Env, payloadFullName string) domain.Repository {
	for _, candidate := range []string{env.Repository, payloadFullName} {
		if candidate == "" {
			continue
		}
		repo, err := domain.ParseRepository(candidate)
		if err != nil {
			r.logger.Warn("ignoring malformed repository", "value", candidate, "error", err)
			continue
		}
		return repo
	}
	return domain.Repository{}
}
