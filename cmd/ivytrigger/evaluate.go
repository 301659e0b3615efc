// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"ivytrigger/internal/config"
	"ivytrigger/internal/engine/ivyexec"
	"ivytrigger/internal/evaluator"
	"ivytrigger/internal/issue"
)

var (
	// jsonOutput switches the snapshot listing to JSON for scripting.
	jsonOutput bool
	// saveSnapshot persists the result so a later run can compare against it.
	saveSnapshot bool

	evaluateCmd = &cobra.Command{
		Use:   "evaluate",
		Short: "Resolve the descriptor once and print the dependency snapshot",
		Long: `Resolve the configured dependency descriptor once and print the resulting
snapshot: every resolved dependency with its revision and, when artifacts
were fetched in this pass, their names and timestamps.

Examples:
  ivytrigger evaluate                Print the snapshot, human-readable
  ivytrigger evaluate --json         Print the snapshot as JSON
  ivytrigger evaluate --save         Also persist it as the comparison baseline`,
		Args: cobra.NoArgs,
		RunE: runEvaluate,
	}
)

func init() {
	evaluateCmd.Flags().BoolVar(&jsonOutput, "json", false, "print the snapshot as JSON")
	evaluateCmd.Flags().BoolVar(&saveSnapshot, "save", false, "persist the snapshot as the comparison baseline")
}

func runEvaluate(cmd *cobra.Command, _ []string) error {
	stdout := cmd.OutOrStdout()
	stderr := cmd.ErrOrStderr()

	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(stderr, "%s %s\n", errorIcon, formatErrorForDisplay(err, verbose))
		cmd.SilenceUsage = true
		cmd.SilenceErrors = true
		return &ExitError{Code: 1, Err: err}
	}

	if err := checkDescriptor(cfg); err != nil {
		renderIssue(stderr, issue.Get(issue.DescriptorNotFoundId))
		fmt.Fprintf(stderr, "%s %s\n", errorIcon, formatErrorForDisplay(err, verbose))
		cmd.SilenceUsage = true
		cmd.SilenceErrors = true
		return &ExitError{Code: 1, Err: err}
	}

	ev := newEvaluator(cfg, newLogger(cfg.Debug))

	snapshot, err := ev.Evaluate(cmd.Context())
	if err != nil {
		renderIssue(stderr, issuePageFor(err))
		fmt.Fprintf(stderr, "%s %s\n", errorIcon, formatErrorForDisplay(err, verbose))
		cmd.SilenceUsage = true
		cmd.SilenceErrors = true
		return &ExitError{Code: 1, Err: err}
	}

	if jsonOutput {
		data, err := json.MarshalIndent(snapshot, "", "  ")
		if err != nil {
			return fmt.Errorf("encode snapshot: %w", err)
		}
		fmt.Fprintln(stdout, string(data))
	} else {
		printSnapshot(stdout, cfg.Namespace, snapshot)
	}

	if saveSnapshot {
		path := cfg.SnapshotPath()
		if err := writeSnapshot(snapshot, path); err != nil {
			fmt.Fprintf(stderr, "%s %s\n", errorIcon, err)
			cmd.SilenceUsage = true
			cmd.SilenceErrors = true
			return &ExitError{Code: 1, Err: err}
		}
		fmt.Fprintf(stdout, "%s Snapshot saved to %s\n", successIcon, DetailStyle.Render(path))
	}

	return nil
}

// newEvaluator maps the trigger configuration onto an evaluator backed by the
// Apache Ivy command-line engine. The process environment is the
// lowest-precedence variable source, matching how resolver settings files
// typically reference ${env} placeholders.
func newEvaluator(cfg *config.Config, logger *log.Logger) *evaluator.Evaluator {
	return &evaluator.Evaluator{
		Namespace:         cfg.Namespace,
		DescriptorPath:    cfg.Descriptor,
		SettingsFile:      cfg.Settings.File,
		SettingsURL:       cfg.Settings.URL,
		PropertiesFiles:   cfg.Properties.Files,
		PropertiesContent: cfg.Properties.Content,
		Env:               environMap(),
		Debug:             cfg.Debug,
		DownloadArtifacts: cfg.DownloadArtifacts,
		ExecRoot:          cfg.ExecRoot,
		NewEngine: ivyexec.New(ivyexec.Options{
			Command:   cfg.Ivy.Command,
			ExtraArgs: cfg.Ivy.ExtraArgs,
		}),
		Logger: logger,
	}
}

// environMap converts os.Environ to a map, keeping the last value for
// duplicate keys the way the OS resolves them.
func environMap() map[string]string {
	env := make(map[string]string)
	for _, kv := range os.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok {
			env[k] = v
		}
	}
	return env
}

// printSnapshot renders a human-readable snapshot listing, sorted by
// dependency identity so output is stable across runs.
func printSnapshot(w io.Writer, namespace string, snapshot evaluator.Snapshot) {
	fmt.Fprintln(w, TitleStyle.Render("Dependency Snapshot")+SubtitleStyle.Render(" ("+namespace+")"))
	fmt.Fprintln(w)

	if len(snapshot) == 0 {
		fmt.Fprintln(w, SubtitleStyle.Render("  (no dependencies resolved)"))
		return
	}

	ids := make([]string, 0, len(snapshot))
	for id := range snapshot {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		value := snapshot[id]
		fmt.Fprintf(w, "  %s %s\n", DepStyle.Render(id), SubtitleStyle.Render("rev "+value.Revision))
		for _, a := range value.Artifacts {
			fmt.Fprintf(w, "      %s\n", DetailStyle.Render(fmt.Sprintf("%s.%s (modified %d)", a.Name, a.Ext, a.LastModified)))
		}
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "%s %d dependencies\n", successIcon, len(snapshot))
}

// writeSnapshot persists a snapshot, creating the parent directory when the
// snapshot path points outside the already-created cache directory.
func writeSnapshot(snapshot evaluator.Snapshot, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create snapshot directory: %w", err)
	}
	return snapshot.Save(path)
}
