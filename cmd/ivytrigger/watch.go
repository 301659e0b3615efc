// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"mvdan.cc/sh/v3/expand"
	"mvdan.cc/sh/v3/interp"
	"mvdan.cc/sh/v3/syntax"

	"ivytrigger/internal/config"
	"ivytrigger/internal/evaluator"
	"ivytrigger/internal/issue"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Poll the descriptor on an interval and react to snapshot changes",
	Long: `Resolve the configured dependency descriptor on the watch interval and
compare each snapshot against the previous one. When the snapshot changes,
the differences are logged and the configured hook script (if any) runs with
the change list in its environment:

  IVYTRIGGER_NAMESPACE   the trigger namespace
  IVYTRIGGER_CHANGES     one "dependency: reason" line per change
  IVYTRIGGER_SNAPSHOT    path of the persisted snapshot file

A failed evaluation keeps the previous baseline; the next successful cycle
compares against it, so transient repository outages do not masquerade as
dependency changes.`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func runWatch(cmd *cobra.Command, _ []string) error {
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
	if valid, errs := cfg.ValidWatch(); !valid {
		err := issue.NewErrorContext().
			WithOperation("start watch").
			WithSuggestion("Set watch.interval to a positive duration, e.g. \"30s\" or \"5m\"").
			Wrap(errors.Join(errs...)).
			BuildError()
		fmt.Fprintf(stderr, "%s %s\n", errorIcon, formatErrorForDisplay(err, verbose))
		cmd.SilenceUsage = true
		cmd.SilenceErrors = true
		return &ExitError{Code: 1, Err: err}
	}

	logger := newLogger(cfg.Debug)
	ev := newEvaluator(cfg, logger)
	snapshotPath := cfg.SnapshotPath()

	baseline, err := evaluator.LoadSnapshot(snapshotPath)
	if err != nil {
		renderIssue(stderr, issue.Get(issue.SnapshotCorruptId))
		err = issue.NewErrorContext().
			WithOperation("load snapshot baseline").
			WithResource(snapshotPath).
			WithSuggestion("Delete the snapshot file to start from a fresh baseline").
			Wrap(err).
			BuildError()
		fmt.Fprintf(stderr, "%s %s\n", errorIcon, formatErrorForDisplay(err, verbose))
		cmd.SilenceUsage = true
		cmd.SilenceErrors = true
		return &ExitError{Code: 1, Err: err}
	}
	if baseline == nil {
		logger.Info("no snapshot baseline, first cycle establishes one", "path", snapshotPath)
	}

	logger.Info("watching dependencies",
		"namespace", cfg.Namespace,
		"descriptor", cfg.Descriptor,
		"interval", cfg.Watch.Interval,
	)

	ticker := time.NewTicker(cfg.Watch.Interval)
	defer ticker.Stop()

	ctx := cmd.Context()
	for {
		baseline = watchCycle(ctx, cfg, ev, logger, baseline, snapshotPath)

		select {
		case <-ctx.Done():
			logger.Info("watch stopped")
			return nil
		case <-ticker.C:
		}
	}
}

// watchCycle runs one evaluation, compares against the baseline, reacts to
// changes, and returns the baseline for the next cycle. Failures inside a
// cycle never stop the loop: the old baseline carries over.
func watchCycle(ctx context.Context, cfg *config.Config, ev *evaluator.Evaluator, logger *log.Logger, baseline evaluator.Snapshot, snapshotPath string) evaluator.Snapshot {
	current, err := ev.Evaluate(ctx)
	if err != nil {
		logger.Error("evaluation failed, keeping previous baseline", "err", err)
		return baseline
	}

	if baseline != nil {
		changes := evaluator.Diff(baseline, current)
		if len(changes) > 0 {
			for _, c := range changes {
				logger.Warn("dependency change", "dependency", c.Dependency, "reason", c.Reason)
			}
			fmt.Fprintf(os.Stderr, "%s %d dependency change(s) detected\n", changeIcon, len(changes))
			if cfg.Watch.Hook != "" {
				runHook(ctx, cfg, logger, changes, snapshotPath)
			}
		} else {
			logger.Debug("no dependency changes")
		}
	}

	if err := writeSnapshot(current, snapshotPath); err != nil {
		logger.Error("cannot persist snapshot", "path", snapshotPath, "err", err)
		return baseline
	}
	return current
}

// runHook executes the configured hook script with the change list in its
// environment. Hook failures are logged but never stop the watch loop.
func runHook(ctx context.Context, cfg *config.Config, logger *log.Logger, changes []evaluator.Change, snapshotPath string) {
	prog, err := syntax.NewParser().Parse(strings.NewReader(cfg.Watch.Hook), "watch-hook")
	if err != nil {
		logger.Error("cannot parse watch hook", "err", err)
		return
	}

	lines := make([]string, 0, len(changes))
	for _, c := range changes {
		lines = append(lines, c.Dependency+": "+c.Reason)
	}
	env := append(os.Environ(),
		"IVYTRIGGER_NAMESPACE="+cfg.Namespace,
		"IVYTRIGGER_CHANGES="+strings.Join(lines, "\n"),
		"IVYTRIGGER_SNAPSHOT="+snapshotPath,
	)

	runner, err := interp.New(
		interp.Env(expand.ListEnviron(env...)),
		interp.StdIO(nil, os.Stdout, os.Stderr),
	)
	if err != nil {
		logger.Error("cannot create hook interpreter", "err", err)
		return
	}

	logger.Info("running watch hook", "changes", len(changes))
	if err := runner.Run(ctx, prog); err != nil {
		var exitStatus interp.ExitStatus
		if errors.As(err, &exitStatus) {
			logger.Error("watch hook exited non-zero", "status", int(exitStatus))
			return
		}
		logger.Error("watch hook failed", "err", err)
	}
}
