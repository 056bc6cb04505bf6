// Package config provides application configuration from action inputs,
// environment variables, an optional .env file, and the repository's
// .changed-dirs.yaml file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/nathantilsley/changed-dirs/api"
	"github.com/nathantilsley/changed-dirs/internal/changes/domain"
)

// DefaultConfigFile is looked up in the workspace when CONFIG_FILE is unset.
const DefaultConfigFile = ".changed-dirs.yaml"

// Config holds the application configuration.
type Config struct {
	BaseDirectory string
	ExcludeDirs   []string
	CaseSensitive bool

	// Remote comparison credentials: a token, or a GitHub App installation.
	Token                string
	GitHubAppID          int64
	GitHubInstallationID int64
	GitHubPrivateKey     string // PEM file contents
	GitHubAPIURL         string // non-empty for GitHub Enterprise Server

	// Runner environment
	InAutomation bool   // GITHUB_ACTIONS=true
	Workspace    string // invocation root
	EventName    string
	EventPath    string
	Repository   string // owner/name
	SHA          string
	OutputPath   string // GITHUB_OUTPUT
	SummaryPath  string // GITHUB_STEP_SUMMARY

	RemoteTimeout time.Duration
	ConfigFile    string
	LogLevel      string
	OTelEnabled   bool
}

// Load reads a .env file from the working directory if present (existing
// variables win), then builds the configuration from the process environment.
func Load() (Config, error) {
	_ = godotenv.Load()
	return LoadFrom(os.Getenv)
}

// LoadFrom builds the configuration from getenv, validates required fields,
// and applies defaults for RemoteTimeout (30s) and LogLevel ("info").
func LoadFrom(getenv func(string) string) (Config, error) {
	cfg := Config{
		RemoteTimeout: 30 * time.Second,
		LogLevel:      "info",
		GitHubAPIURL:  getenv("GITHUB_API_URL"),
	}

	loadRunnerConfig(&cfg, getenv)

	if err := loadRepoConfigFile(&cfg, getenv); err != nil {
		return Config{}, err
	}

	if err := loadInputs(&cfg, getenv); err != nil {
		return Config{}, err
	}

	if err := loadGitHubAppConfig(&cfg, getenv); err != nil {
		return Config{}, err
	}

	if cfg.BaseDirectory == "" {
		return Config{}, errors.New("base directory is required (input base-directory or BASE_DIRECTORY)")
	}

	return cfg, nil
}

func loadRunnerConfig(cfg *Config, getenv func(string) string) {
	cfg.InAutomation = getenv("GITHUB_ACTIONS") == "true"
	cfg.Workspace = getEnvOrDefault(getenv, "GITHUB_WORKSPACE", ".")
	cfg.EventName = getenv("GITHUB_EVENT_NAME")
	cfg.EventPath = getenv("GITHUB_EVENT_PATH")
	cfg.Repository = getenv("GITHUB_REPOSITORY")
	cfg.SHA = getenv("GITHUB_SHA")
	cfg.OutputPath = getenv("GITHUB_OUTPUT")
	cfg.SummaryPath = getenv("GITHUB_STEP_SUMMARY")
	cfg.OTelEnabled = getenv("OTEL_ENABLED") == "true"
	if v := getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
}

func loadInputs(cfg *Config, getenv func(string) string) error {
	if v := input(getenv, "base-directory", "BASE_DIRECTORY"); v != "" {
		cfg.BaseDirectory = v
	}
	if v := input(getenv, "exclude-dirs", "EXCLUDE_DIRS"); v != "" {
		cfg.ExcludeDirs = domain.ParseExcludeList(v)
	}
	if v := input(getenv, "case-sensitive", "CASE_SENSITIVE"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid case-sensitive %q: %w", v, err)
		}
		cfg.CaseSensitive = b
	}

	cfg.Token = input(getenv, "token", "GITHUB_TOKEN")

	dur, err := parseDurationOrDefault(getenv, "REMOTE_TIMEOUT", cfg.RemoteTimeout)
	if err != nil {
		return err
	}
	cfg.RemoteTimeout = dur

	return nil
}

// loadGitHubAppConfig reads App credentials. They are optional, but once
// GITHUB_APP_ID is set the other two become required.
func loadGitHubAppConfig(cfg *Config, getenv func(string) string) error {
	if getenv("GITHUB_APP_ID") == "" {
		return nil
	}

	var err error
	cfg.GitHubAppID, err = parseRequiredInt64(getenv, "GITHUB_APP_ID")
	if err != nil {
		return err
	}

	cfg.GitHubInstallationID, err = parseRequiredInt64(getenv, "GITHUB_INSTALLATION_ID")
	if err != nil {
		return err
	}

	cfg.GitHubPrivateKey = getenv("GITHUB_PRIVATE_KEY")
	if cfg.GitHubPrivateKey == "" {
		return errors.New("GITHUB_PRIVATE_KEY is required when GITHUB_APP_ID is set")
	}

	return nil
}

// loadRepoConfigFile applies .changed-dirs.yaml. An explicit CONFIG_FILE must
// exist; the default location is optional.
func loadRepoConfigFile(cfg *Config, getenv func(string) string) error {
	path := getenv("CONFIG_FILE")
	explicit := path != ""
	if !explicit {
		path = filepath.Join(cfg.Workspace, DefaultConfigFile)
	}
	cfg.ConfigFile = path

	data, err := os.ReadFile(path)
	if err != nil {
		if !explicit && errors.Is(err, os.ErrNotExist) {
			cfg.ConfigFile = ""
			return nil
		}
		return fmt.Errorf("reading config file %s: %w", path, err)
	}

	var rc api.RepoConfig
	if err := yaml.Unmarshal(data, &rc); err != nil {
		return fmt.Errorf("parsing config file %s: %w", path, err)
	}

	cfg.BaseDirectory = strings.TrimSpace(rc.BaseDirectory)
	for _, dir := range rc.ExcludeDirs {
		cfg.ExcludeDirs = append(cfg.ExcludeDirs, domain.ParseExcludeList(dir)...)
	}
	if rc.CaseSensitive != nil {
		cfg.CaseSensitive = *rc.CaseSensitive
	}
	return nil
}

// RemoteEnabled reports whether the remote comparison should be attempted.
func (c Config) RemoteEnabled() bool {
	return c.InAutomation
}

// HasGitHubApp reports whether App installation credentials are configured.
func (c Config) HasGitHubApp() bool {
	return c.GitHubAppID != 0
}

// ValidateRemote returns an error when the remote comparison will be
// attempted without any credentials.
func (c Config) ValidateRemote() error {
	if !c.RemoteEnabled() {
		return nil
	}
	if c.Token == "" && !c.HasGitHubApp() {
		return errors.New("GITHUB_TOKEN (or input token) is required when running in GitHub Actions")
	}
	return nil
}

// input reads an action input the way the Actions toolkit exposes it
// (INPUT_<NAME> upper-cased, spaces as underscores), falling back to a plain
// environment variable.
func input(getenv func(string) string, name, fallbackEnv string) string {
	key := "INPUT_" + strings.ToUpper(strings.ReplaceAll(name, " ", "_"))
	if v := strings.TrimSpace(getenv(key)); v != "" {
		return v
	}
	// Some runners rewrite dashes in input names.
	if v := strings.TrimSpace(getenv(strings.ReplaceAll(key, "-", "_"))); v != "" {
		return v
	}
	return strings.TrimSpace(getenv(fallbackEnv))
}

func parseRequiredInt64(getenv func(string) string, envKey string) (int64, error) {
	v := getenv(envKey)
	if v == "" {
		return 0, fmt.Errorf("%s is required", envKey)
	}
	id, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", envKey, v, err)
	}
	return id, nil
}

func getEnvOrDefault(getenv func(string) string, envKey, defaultValue string) string {
	if v := getenv(envKey); v != "" {
		return v
	}
	return defaultValue
}

func parseDurationOrDefault(getenv func(string) string, envKey string, defaultValue time.Duration) (time.Duration, error) {
	v := getenv(envKey)
	if v == "" {
		return defaultValue, nil
	}
	dur, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", envKey, v, err)
	}
	return dur, nil
}
