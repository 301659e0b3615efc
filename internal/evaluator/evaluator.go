// SPDX-License-Identifier: MPL-2.0

// Package evaluator runs one dependency-resolution pass and captures its
// outcome as a comparable snapshot.
//
// An evaluation is strictly sequential: assemble variables, load resolver
// settings into a fresh engine, resolve the descriptor once, then extract a
// normalized dependency map from the report. Nothing is shared between
// evaluations except the per-namespace cache directory, and that directory is
// not locked here — callers must run at most one evaluation per namespace at
// a time.
package evaluator

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/charmbracelet/log"

	"ivytrigger/internal/engine"
	"ivytrigger/internal/props"
)

// Evaluator holds the inputs for one logical trigger. The zero value is not
// usable: Namespace, DescriptorPath, a settings source, and NewEngine are
// required. An Evaluator may be reused across polling cycles; each Evaluate
// call builds a fresh settings/engine pair.
type Evaluator struct {
	// Namespace scopes the resolver cache directory to one trigger.
	Namespace string

	// DescriptorPath is the dependency descriptor file to resolve.
	DescriptorPath string

	// SettingsFile and SettingsURL locate the resolver settings text.
	// Exactly one of the two must be set; the file takes priority.
	SettingsFile string
	SettingsURL  string

	// PropertiesFiles is an optional ";"-delimited list of properties file
	// paths, each trimmed before use.
	PropertiesFiles string

	// PropertiesContent is optional inline properties text, overlaid last.
	PropertiesContent string

	// Env contributes environment variables as the lowest-precedence
	// variable source.
	Env map[string]string

	// Debug forwards the engine's verbose/debug log callbacks to the logger.
	Debug bool

	// DownloadArtifacts selects a full download pass instead of
	// metadata-only resolution.
	DownloadArtifacts bool

	// ExecRoot is the directory under which the cache directory is created.
	// Empty means the current working directory.
	ExecRoot string

	// NewEngine builds the resolve engine from per-evaluation settings.
	NewEngine engine.Factory

	// Logger receives evaluation diagnostics and forwarded engine output.
	// nil discards everything.
	Logger *log.Logger

	// HTTPClient overrides the client used to fetch SettingsURL. nil means
	// http.DefaultClient.
	HTTPClient *http.Client
}

// Evaluate runs exactly one resolution pass and returns the snapshot of
// resolved dependency revisions and downloaded artifact metadata.
//
// A nil snapshot with a non-nil error signals a fatal failure (configuration
// or I/O class): the caller cannot determine state and must not compare
// against a prior snapshot. Diagnostics are sent to the logger before the
// error is returned. Problems the engine reports inside a completed pass are
// logged as one consolidated block and do not prevent a usable — possibly
// partial — snapshot.
func (e *Evaluator) Evaluate(ctx context.Context) (Snapshot, error) {
	fileContent, err := props.ExtractFileContents(e.PropertiesFiles)
	if err != nil {
		e.logger().Error("cannot read properties files", "err", err)
		return nil, err
	}

	vars, err := props.Assemble(e.Env, fileContent, e.PropertiesContent)
	if err != nil {
		e.logger().Error("cannot assemble resolver variables", "err", err)
		return nil, err
	}

	eng, err := e.buildEngine(ctx, vars)
	if err != nil {
		e.logger().Error("cannot build resolve engine", "err", err)
		return nil, err
	}

	e.logger().Info("resolving dependencies", "descriptor", e.DescriptorPath, "namespace", e.Namespace)

	report, err := eng.Resolve(ctx, e.DescriptorPath, engine.ResolveOptions{
		DownloadArtifacts: e.DownloadArtifacts,
	})
	if err != nil {
		e.logger().Error("resolution failed", "descriptor", e.DescriptorPath, "err", err)
		return nil, fmt.Errorf("evaluator: resolve %q: %w", e.DescriptorPath, err)
	}

	// Engines routinely lump recoverable warnings in with errors here, so a
	// problem block is logged but never aborts the evaluation.
	if report.HasProblems() {
		e.logger().Error(problemBlock(report.Problems))
	}

	return e.extract(report), nil
}

// logger returns the configured logger, or a discarding one so call sites
// never have to nil-check.
func (e *Evaluator) logger() *log.Logger {
	if e.Logger != nil {
		return e.Logger
	}
	return log.New(io.Discard)
}

// problemBlock formats the engine's problem messages as one block, matching
// the consolidated "Errors:" form the trigger log expects.
func problemBlock(problems []string) string {
	var b strings.Builder
	b.WriteString("Errors:\n")
	for _, p := range problems {
		b.WriteString(p)
		b.WriteString("\n")
	}
	return b.String()
}
