// Command changed-dirs-cli reports which first-level directories under a base
// directory changed, for use outside GitHub Actions.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"regexp"
	"strconv"
	"strings"
	"syscall"
	"time"

	gogithub "github.com/google/go-github/v68/github"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/tcnksm/go-latest"

	actionsout "github.com/nathantilsley/changed-dirs/internal/changes/adapters/actions_out"
	githistory "github.com/nathantilsley/changed-dirs/internal/changes/adapters/git_history"
	githubcompare "github.com/nathantilsley/changed-dirs/internal/changes/adapters/github_compare"
	treewalk "github.com/nathantilsley/changed-dirs/internal/changes/adapters/tree_walk"
	"github.com/nathantilsley/changed-dirs/internal/changes/app"
	"github.com/nathantilsley/changed-dirs/internal/changes/domain"
	"github.com/nathantilsley/changed-dirs/internal/changes/ports"
	"github.com/nathantilsley/changed-dirs/internal/platform/config"
	ghclient "github.com/nathantilsley/changed-dirs/internal/platform/github"
	"github.com/nathantilsley/changed-dirs/internal/platform/gitrepo"
	"github.com/nathantilsley/changed-dirs/internal/platform/logger"
	"github.com/nathantilsley/changed-dirs/internal/platform/telemetry"
)

var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()

	if errors.Is(err, pflag.ErrHelp) {
		return
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %s\n", err)
		os.Exit(1)
	}
}

// options are the parsed command-line flags.
type options struct {
	root          string
	baseDir       string
	exclude       string
	token         string
	base          string
	head          string
	repo          string
	caseSensitive bool
	timeout       time.Duration
	configFile    string
	logLevel      string
	version       bool
	update        bool
}

func newFlagSet(opts *options, stderr io.Writer) *pflag.FlagSet {
	fs := pflag.NewFlagSet("changed-dirs-cli", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: changed-dirs-cli [flags] [pr-url]\n\n")
		fmt.Fprintf(stderr, "Prints the changed first-level directories under --base-dir as a JSON array.\n\n")
		fmt.Fprintf(stderr, "Flags:\n")
		fs.PrintDefaults()
		fmt.Fprintf(stderr, "\nExamples:\n")
		fmt.Fprintf(stderr, "  changed-dirs-cli --base-dir services/\n")
		fmt.Fprintf(stderr, "  changed-dirs-cli --base-dir services/ --base main --head HEAD\n")
		fmt.Fprintf(stderr, "  GITHUB_TOKEN=ghp_xxx changed-dirs-cli --base-dir services/ https://github.com/owner/repo/pull/123\n")
	}

	fs.StringVarP(&opts.root, "root", "C", ".", "Repository root the paths are relative to")
	fs.StringVarP(&opts.baseDir, "base-dir", "b", "", "Base directory whose subdirectories are reported (or BASE_DIRECTORY)")
	fs.StringVarP(&opts.exclude, "exclude", "x", "", "Comma-separated directory names to leave out (or EXCLUDE_DIRS)")
	fs.StringVar(&opts.token, "token", "", "GitHub token for the compare API (or GITHUB_TOKEN)")
	fs.StringVar(&opts.base, "base", "", "Base revision of the comparison")
	fs.StringVar(&opts.head, "head", "", "Head revision of the comparison")
	fs.StringVar(&opts.repo, "repo", "", "Repository as owner/name (or GITHUB_REPOSITORY)")
	fs.BoolVar(&opts.caseSensitive, "case-sensitive", false, "Match the base directory case-sensitively")
	fs.DurationVar(&opts.timeout, "timeout", 0, "Timeout for the compare API (default 30s, or REMOTE_TIMEOUT)")
	fs.StringVarP(&opts.configFile, "config", "c", "", "Config file (default <root>/"+config.DefaultConfigFile+")")
	fs.StringVar(&opts.logLevel, "log-level", "", "Log level: debug, info, warn, error (or LOG_LEVEL)")
	fs.BoolVarP(&opts.version, "version", "V", false, "Print version information")
	fs.BoolVarP(&opts.update, "update", "u", false, "Check for a newer release")
	return fs
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	var opts options
	fs := newFlagSet(&opts, stderr)
	if err := fs.Parse(args); err != nil {
		return err
	}

	if opts.version {
		fmt.Fprintf(stdout, "changed-dirs-cli version %s\n", version)
		return nil
	}
	if opts.update {
		return checkUpdate(stdout, version)
	}
	if fs.NArg() > 1 {
		fs.Usage()
		return fmt.Errorf("expected at most one PR URL, got %d arguments", fs.NArg())
	}

	_ = godotenv.Load()
	cfg, err := config.LoadFrom(flagEnv(opts, fs, os.Getenv))
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	log := logger.New(cfg.LogLevel)

	tel, err := telemetry.New(ctx, cfg.OTelEnabled, version)
	if err != nil {
		return fmt.Errorf("initializing telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tel.Shutdown(shutdownCtx); err != nil {
			log.Warn("telemetry shutdown failed", "error", err)
		}
	}()

	var client *gogithub.Client
	if cfg.Token != "" || cfg.HasGitHubApp() {
		client, err = newGitHubClient(cfg)
		if err != nil {
			return fmt.Errorf("creating github client: %w", err)
		}
	}

	trigger, err := buildTrigger(ctx, client, opts, cfg, fs.Args())
	if err != nil {
		return err
	}

	svc := newService(ctx, cfg, client, stdout, log, tel)
	_, err = svc.Execute(ctx, trigger)
	return err
}

// flagEnv layers explicitly set flags over the process environment so that
// config.LoadFrom applies the same precedence and validation as the action.
// Action inputs are ignored.
func flagEnv(opts options, fs *pflag.FlagSet, getenv func(string) string) func(string) string {
	overrides := map[string]string{
		"GITHUB_ACTIONS":   "",
		"GITHUB_WORKSPACE": opts.root,
	}
	set := func(flag, key, value string) {
		if fs.Changed(flag) {
			overrides[key] = value
		}
	}
	set("base-dir", "BASE_DIRECTORY", opts.baseDir)
	set("exclude", "EXCLUDE_DIRS", opts.exclude)
	set("token", "GITHUB_TOKEN", opts.token)
	set("repo", "GITHUB_REPOSITORY", opts.repo)
	set("case-sensitive", "CASE_SENSITIVE", strconv.FormatBool(opts.caseSensitive))
	set("timeout", "REMOTE_TIMEOUT", opts.timeout.String())
	set("config", "CONFIG_FILE", opts.configFile)
	set("log-level", "LOG_LEVEL", opts.logLevel)

	return func(key string) string {
		if v, ok := overrides[key]; ok {
			return v
		}
		if strings.HasPrefix(key, "INPUT_") {
			return ""
		}
		return getenv(key)
	}
}

// buildTrigger picks the comparison window: a PR URL, an explicit
// --base/--head pair, or the recent history of --head.
func buildTrigger(ctx context.Context, client *gogithub.Client, opts options, cfg config.Config, args []string) (domain.Trigger, error) {
	var repo domain.Repository
	if cfg.Repository != "" {
		r, err := domain.ParseRepository(cfg.Repository)
		if err != nil {
			return domain.Trigger{}, err
		}
		repo = r
	}

	if len(args) == 1 {
		owner, name, prNum, err := parsePRURL(args[0])
		if err != nil {
			return domain.Trigger{}, fmt.Errorf("parsing PR URL: %w", err)
		}
		if client == nil {
			return domain.Trigger{}, errors.New("a GitHub token is required to look up a pull request (--token or GITHUB_TOKEN)")
		}
		pr, _, err := client.PullRequests.Get(ctx, owner, name, prNum)
		if err != nil {
			return domain.Trigger{}, fmt.Errorf("fetching PR: %w", err)
		}
		return domain.NewPullRequestTrigger(
			domain.Repository{Owner: owner, Name: name},
			pr.GetBase().GetSHA(),
			pr.GetHead().GetSHA(),
		), nil
	}

	if opts.base != "" || opts.head != "" {
		if opts.base == "" || opts.head == "" {
			return domain.Trigger{}, errors.New("--base and --head must be given together")
		}
		return domain.NewPushTrigger(repo, opts.base, opts.head), nil
	}

	return domain.NewUnknownTrigger(repo, "cli", ""), nil
}

func newService(
	ctx context.Context,
	cfg config.Config,
	client *gogithub.Client,
	stdout io.Writer,
	log *slog.Logger,
	tel *telemetry.Telemetry,
) *app.DetectService {
	var compare ports.RevisionComparePort
	if client != nil {
		compare = githubcompare.New(client, log)
	}

	repo := gitrepo.New(cfg.Workspace, log)
	var history ports.LocalHistoryPort
	if repo.IsWorkTree(ctx) {
		history = githistory.New(repo)
	}

	opts := []domain.ClassifierOption{domain.WithRoot(repo.Path())}
	if cfg.CaseSensitive {
		opts = append(opts, domain.WithCaseSensitive())
	}
	classifier := domain.NewClassifier(cfg.BaseDirectory, cfg.ExcludeDirs, opts...)

	resolver := app.NewResolver(
		compare,
		history,
		treewalk.New(repo.Path(), log),
		cfg.BaseDirectory,
		cfg.RemoteTimeout,
		log,
		tel.Meter,
		tel.Tracer,
	)
	publisher := actionsout.New(actionsout.Options{Stdout: stdout}, log)
	return app.NewDetectService(resolver, classifier, publisher, log, tel.Tracer)
}

func newGitHubClient(cfg config.Config) (*gogithub.Client, error) {
	if cfg.HasGitHubApp() {
		return ghclient.NewAppClient(cfg.GitHubAppID, cfg.GitHubInstallationID, cfg.GitHubPrivateKey, cfg.GitHubAPIURL)
	}
	return ghclient.NewClient(cfg.Token, cfg.GitHubAPIURL)
}

// parsePRURL extracts owner, repo, and PR number from a GitHub PR URL.
// Handles formats:
//   - https://github.com/owner/repo/pull/123
//   - https://github.com/owner/repo/pull/123/files
//   - https://ghe.example.com/owner/repo/pull/123
func parsePRURL(url string) (string, string, int, error) {
	re := regexp.MustCompile(`^https?://[^/]+/([^/]+)/([^/]+)/pull/(\d+)(?:/.*)?$`)
	matches := re.FindStringSubmatch(url)
	if len(matches) != 4 {
		return "", "", 0, fmt.Errorf("invalid PR URL format, expected: https://github.com/owner/repo/pull/123, got: %s", url)
	}

	prNum, err := strconv.Atoi(matches[3])
	if err != nil {
		return "", "", 0, fmt.Errorf("invalid PR number: %w", err)
	}
	return matches[1], matches[2], prNum, nil
}

func checkUpdate(stdout io.Writer, currentVer string) error {
	githubTag := &latest.GithubTag{
		Owner:      "nathantilsley",
		Repository: "changed-dirs",
	}

	res, err := latest.Check(githubTag, currentVer)
	if err != nil {
		return fmt.Errorf("checking for updates: %w", err)
	}

	if res.Outdated {
		fmt.Fprintf(stdout, "A new version is available: %s (you have %s)\n", res.Current, currentVer)
		fmt.Fprintln(stdout, "Download it from https://github.com/nathantilsley/changed-dirs/releases")
		return nil
	}
	fmt.Fprintf(stdout, "You are using the latest version: %s\n", currentVer)
	return nil
}
