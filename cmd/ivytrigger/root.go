// SPDX-License-Identifier: MPL-2.0

// Package cmd contains all CLI commands for ivytrigger.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"

	"github.com/charmbracelet/fang"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"ivytrigger/internal/config"
	"ivytrigger/internal/evaluator"
	"ivytrigger/internal/issue"
	"ivytrigger/internal/props"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"

	// verbose enables verbose output
	verbose bool
	// cfgFile allows specifying a custom config file
	cfgFile string

	// rootCmd represents the base command when called without any subcommands
	rootCmd = &cobra.Command{
		Use:   "ivytrigger",
		Short: "Poll Ivy dependency resolution for changes",
		Long: TitleStyle.Render("ivytrigger") + SubtitleStyle.Render(" - poll Ivy dependency resolution for changes") + `

ivytrigger resolves an Ivy dependency descriptor against a repository,
captures the resolved revisions and downloaded artifact metadata as a
snapshot, and compares snapshots across polling cycles so downstream
automation can react to dependency changes.

` + SubtitleStyle.Render("Examples:") + `
  ivytrigger evaluate            Resolve once and print the snapshot
  ivytrigger evaluate --json     Same, as JSON for scripting
  ivytrigger watch               Poll on an interval and run the hook on change
  ivytrigger config show         Show the resolved configuration`,
	}
)

func init() {
	cobra.OnInitialize(initRootConfig)

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./ivytrigger.cue)")

	rootCmd.AddCommand(evaluateCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(configCmd)
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// Execute adds all child commands to the root command and sets flags
// appropriately. This is called by main.main().
func Execute() {
	if err := fang.Execute(
		context.Background(),
		rootCmd,
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
	); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.Code)
		}
		os.Exit(1)
	}
}

// initRootConfig wires the --config flag before any command runs.
func initRootConfig() {
	if cfgFile != "" {
		config.SetConfigFilePathOverride(cfgFile)
	}
}

// loadConfig loads and validates the trigger configuration for a command.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if valid, errs := cfg.IsValid(); !valid {
		return nil, issue.NewErrorContext().
			WithOperation("validate configuration").
			WithSuggestion("Set namespace, descriptor, and exactly one of settings.file / settings.url").
			Wrap(errors.Join(errs...)).
			BuildError()
	}
	return cfg, nil
}

// newLogger builds the evaluation logger. Debug mode lowers the level so the
// engine's forwarded verbose output is visible.
func newLogger(debug bool) *log.Logger {
	logger := log.NewWithOptions(os.Stderr, log.Options{
		Prefix: "ivytrigger",
	})
	if debug || verbose {
		logger.SetLevel(log.DebugLevel)
	}
	return logger
}

// formatErrorForDisplay formats an error for user display. ActionableErrors
// render their suggestions; verbose mode shows the full error chain.
func formatErrorForDisplay(err error, verboseMode bool) string {
	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		return ae.Format(verboseMode)
	}
	return err.Error()
}

// issuePageFor maps an evaluation failure to its catalog page, if one covers
// that failure class.
func issuePageFor(err error) *issue.Issue {
	var readErr *props.FileReadError
	switch {
	case errors.Is(err, evaluator.ErrNoSettingsSource):
		return issue.Get(issue.SettingsNotConfiguredId)
	case errors.As(err, &readErr):
		return issue.Get(issue.PropertiesReadFailedId)
	case errors.Is(err, exec.ErrNotFound):
		return issue.Get(issue.EngineNotAvailableId)
	}
	return nil
}

// renderIssue prints an issue page. Rendering is best-effort: a page that
// cannot be rendered is dropped, the error itself is still reported.
func renderIssue(w io.Writer, iss *issue.Issue) {
	if iss == nil {
		return
	}
	if rendered, err := iss.Render("dark"); err == nil {
		fmt.Fprint(w, rendered)
	}
}

// checkDescriptor verifies the descriptor file exists before an evaluation is
// attempted, so the failure points at the config instead of surfacing as a
// resolver error deep in the pass.
func checkDescriptor(cfg *config.Config) error {
	if _, err := os.Stat(cfg.Descriptor); err != nil {
		return issue.NewErrorContext().
			WithOperation("locate dependency descriptor").
			WithResource(cfg.Descriptor).
			WithSuggestion("Check the 'descriptor' path in your config; it resolves relative to the working directory").
			Wrap(err).
			BuildError()
	}
	return nil
}
