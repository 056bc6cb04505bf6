// Package actionsout publishes results through the GitHub Actions output
// files and workflow commands.
package actionsout

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/nathantilsley/changed-dirs/internal/changes/domain"
	"github.com/nathantilsley/changed-dirs/internal/platform/logger"
)

// Output names set on the step.
const (
	OutputChangedDirs = "changed-dirs"
	OutputSource      = "source"
)

// Options configures where results and failures go.
type Options struct {
	OutputPath  string    // GITHUB_OUTPUT; empty writes the JSON array to Stdout
	SummaryPath string    // GITHUB_STEP_SUMMARY; empty skips the summary
	Annotate    bool      // report failures as ::error:: workflow commands
	Stdout      io.Writer // defaults to os.Stdout
	Stderr      io.Writer // defaults to os.Stderr
}

// Adapter implements ports.PublishPort.
type Adapter struct {
	opts   Options
	logger *slog.Logger
}

// New creates a new Actions output adapter.
func New(opts Options, logger *slog.Logger) *Adapter {
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Adapter{opts: opts, logger: logger}
}

// Publish sets the step outputs and appends the job summary.
func (a *Adapter) Publish(_ context.Context, result domain.Result) error {
	dirs, err := encodeDirs(result.Dirs)
	if err != nil {
		return err
	}

	if a.opts.OutputPath == "" {
		if _, err := fmt.Fprintln(a.opts.Stdout, dirs); err != nil {
			return fmt.Errorf("writing result: %w", err)
		}
	} else {
		if err := appendFile(a.opts.OutputPath, formatOutputs(dirs, result.Source)); err != nil {
			return fmt.Errorf("writing step outputs: %w", err)
		}
		a.logger.Debug("step outputs written", "path", a.opts.OutputPath)
	}

	if a.opts.SummaryPath != "" {
		if err := appendFile(a.opts.SummaryPath, formatSummary(result)); err != nil {
			// The summary is informational; the outputs are already set.
			a.logger.Warn("failed to write job summary", "path", a.opts.SummaryPath, "error", err)
		}
	}
	return nil
}

// Fail reports err on the failure channel.
func (a *Adapter) Fail(err error) {
	if a.opts.Annotate {
		fmt.Fprintf(a.opts.Stdout, "::error::%s\n", logger.EscapeData(err.Error()))
		return
	}
	fmt.Fprintf(a.opts.Stderr, "error: %s\n", err)
}

// encodeDirs renders dirs as a JSON array, never null.
func encodeDirs(dirs []string) (string, error) {
	if dirs == nil {
		dirs = []string{}
	}
	b, err := json.Marshal(dirs)
	if err != nil {
		return "", fmt.Errorf("encoding directories: %w", err)
	}
	return string(b), nil
}

func formatOutputs(dirs, source string) string {
	return fmt.Sprintf("%s=%s\n%s=%s\n", OutputChangedDirs, dirs, OutputSource, source)
}

func formatSummary(result domain.Result) string {
	var sb strings.Builder

	sb.WriteString("### Changed directories\n\n")
	if len(result.Dirs) == 0 {
		sb.WriteString("_No directories changed._\n")
	} else {
		sb.WriteString("| Directory |\n| --- |\n")
		for _, d := range result.Dirs {
			fmt.Fprintf(&sb, "| `%s` |\n", strings.ReplaceAll(d, "|", `\|`))
		}
	}

	base := result.BaseDir
	if base == "" {
		base = "."
	}
	fmt.Fprintf(&sb, "\nBase directory `%s`, %d file(s) from `%s`.\n\n", base, result.FileCount, result.Source)
	return sb.String()
}

func appendFile(path, content string) error {
	//nolint:gosec // G304: path is provided by the runner
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	if _, err := f.WriteString(content); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
