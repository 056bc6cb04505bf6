package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	actionsout "github.com/nathantilsley/changed-dirs/internal/changes/adapters/actions_out"
	"github.com/nathantilsley/changed-dirs/internal/platform/config"
	"github.com/nathantilsley/changed-dirs/internal/platform/logger"
	"github.com/nathantilsley/changed-dirs/internal/platform/telemetry"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx)
	stop()

	if err != nil {
		// Failures carry no outputs, only the error annotation.
		reporter := actionsout.New(actionsout.Options{Annotate: os.Getenv("GITHUB_ACTIONS") == "true"}, nil)
		reporter.Fail(err)
		os.Exit(1)
	}
}

func run(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("unexpected panic: %v", r)
		}
	}()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	// Initialize logger
	log := logger.New(cfg.LogLevel)
	log.Debug("configuration loaded",
		"baseDir", cfg.BaseDirectory,
		"exclude", cfg.ExcludeDirs,
		"workspace", cfg.Workspace,
		"configFile", cfg.ConfigFile,
		"event", cfg.EventName,
	)

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

	// Build dependency container
	container, err := NewContainer(ctx, cfg, log, tel)
	if err != nil {
		return fmt.Errorf("building container: %w", err)
	}

	trigger := container.Events.Read(eventEnv(cfg))
	if _, err := container.DetectService.Execute(ctx, trigger); err != nil {
		return err
	}
	return nil
}
