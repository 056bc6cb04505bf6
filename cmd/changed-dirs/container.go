// Package main provides the changed-dirs GitHub Action entrypoint.
package main

import (
	"context"
	"fmt"
	"log/slog"

	gogithub "github.com/google/go-github/v68/github"

	actionsout "github.com/nathantilsley/changed-dirs/internal/changes/adapters/actions_out"
	githistory "github.com/nathantilsley/changed-dirs/internal/changes/adapters/git_history"
	githubcompare "github.com/nathantilsley/changed-dirs/internal/changes/adapters/github_compare"
	githubevent "github.com/nathantilsley/changed-dirs/internal/changes/adapters/github_event"
	treewalk "github.com/nathantilsley/changed-dirs/internal/changes/adapters/tree_walk"
	"github.com/nathantilsley/changed-dirs/internal/changes/app"
	"github.com/nathantilsley/changed-dirs/internal/changes/domain"
	"github.com/nathantilsley/changed-dirs/internal/changes/ports"
	"github.com/nathantilsley/changed-dirs/internal/platform/config"
	ghclient "github.com/nathantilsley/changed-dirs/internal/platform/github"
	"github.com/nathantilsley/changed-dirs/internal/platform/gitrepo"
	"github.com/nathantilsley/changed-dirs/internal/platform/telemetry"
)

// Container holds all application dependencies.
type Container struct {
	Config        config.Config
	Logger        *slog.Logger
	GitHubClient  *gogithub.Client // nil outside GitHub Actions
	Events        *githubevent.Reader
	Publisher     *actionsout.Adapter
	DetectService ports.DetectUseCase
}

// NewContainer builds and wires all dependencies.
func NewContainer(ctx context.Context, cfg config.Config, log *slog.Logger, tel *telemetry.Telemetry) (*Container, error) {
	if err := cfg.ValidateRemote(); err != nil {
		return nil, err
	}

	// Remote comparison only inside GitHub Actions, where the event and token exist.
	var (
		githubClient *gogithub.Client
		compare      ports.RevisionComparePort
	)
	if cfg.RemoteEnabled() {
		client, err := newGitHubClient(cfg)
		if err != nil {
			return nil, fmt.Errorf("creating github client: %w", err)
		}
		githubClient = client
		compare = githubcompare.New(client, log)
	} else {
		log.Debug("not running in GitHub Actions, remote comparison disabled")
	}

	repo := gitrepo.New(cfg.Workspace, log)

	var history ports.LocalHistoryPort
	if repo.IsWorkTree(ctx) {
		history = githistory.New(repo)
	} else {
		log.Info("no git working copy, local history disabled", "path", repo.Path())
	}

	listing := treewalk.New(repo.Path(), log)

	opts := []domain.ClassifierOption{domain.WithRoot(repo.Path())}
	if cfg.CaseSensitive {
		opts = append(opts, domain.WithCaseSensitive())
	}
	classifier := domain.NewClassifier(cfg.BaseDirectory, cfg.ExcludeDirs, opts...)

	resolver := app.NewResolver(
		compare, // nil outside GitHub Actions
		history, // nil without a working copy
		listing,
		cfg.BaseDirectory,
		cfg.RemoteTimeout,
		log,
		tel.Meter,
		tel.Tracer,
	)

	publisher := actionsout.New(actionsout.Options{
		OutputPath:  cfg.OutputPath,
		SummaryPath: cfg.SummaryPath,
		Annotate:    cfg.InAutomation,
	}, log)

	return &Container{
		Config:        cfg,
		Logger:        log,
		GitHubClient:  githubClient,
		Events:        githubevent.New(log),
		Publisher:     publisher,
		DetectService: app.NewDetectService(resolver, classifier, publisher, log, tel.Tracer),
	}, nil
}

// newGitHubClient prefers GitHub App credentials over a token.
func newGitHubClient(cfg config.Config) (*gogithub.Client, error) {
	if cfg.HasGitHubApp() {
		return ghclient.NewAppClient(cfg.GitHubAppID, cfg.GitHubInstallationID, cfg.GitHubPrivateKey, cfg.GitHubAPIURL)
	}
	return ghclient.NewClient(cfg.Token, cfg.GitHubAPIURL)
}

// eventEnv describes the triggering event from the loaded configuration.
func eventEnv(cfg config.Config) githubevent.Env {
	return githubevent.Env{
		Name:       cfg.EventName,
		Path:       cfg.EventPath,
		Repository: cfg.Repository,
		SHA:        cfg.SHA,
	}
}
