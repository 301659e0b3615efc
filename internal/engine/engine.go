// SPDX-License-Identifier: MPL-2.0

// Package engine defines the boundary to the external dependency-resolution
// engine. The evaluator never talks to a concrete resolver directly: it
// builds a Settings value, obtains an Engine from a Factory, and consumes the
// strongly-typed Report the engine returns. Implementations live in
// subpackages (ivyexec wraps the Apache Ivy command line, enginetest is a
// scripted fake for tests).
package engine

import "context"

type (
	// Settings is the per-evaluation resolver configuration. A Settings value
	// is built fresh for every evaluation and must not be reused: File points
	// at a transient settings file that the caller removes once the Factory
	// has returned.
	Settings struct {
		// File is the path of the resolver settings file (Ivy settings XML).
		File string

		// Variables parameterize the settings file. Substitution is the
		// engine's job; the evaluator only assembles and hands them over.
		Variables map[string]string

		// CacheDir is the resolver cache directory for this evaluation's
		// namespace. It exists by the time the Factory is called.
		CacheDir string
	}

	// ResolveOptions controls a single resolution pass.
	ResolveOptions struct {
		// DownloadArtifacts selects a full download pass. When false the
		// engine resolves metadata only, and nodes report no downloads.
		DownloadArtifacts bool
	}

	// Engine performs dependency resolution. An Engine is single-evaluation:
	// AttachLogger must be called before Resolve so no diagnostic output is
	// lost, and Resolve is called exactly once.
	Engine interface {
		// AttachLogger registers the sink that receives the engine's internal
		// log callbacks during Resolve.
		AttachLogger(sink LogSink)

		// Resolve runs one resolution pass against the descriptor file and
		// returns the typed report. A non-nil error means the pass could not
		// run at all (descriptor unreadable, settings unusable); problems
		// found while resolving are reported inside the Report instead.
		Resolve(ctx context.Context, descriptorPath string, opts ResolveOptions) (*Report, error)
	}

	// Factory builds an Engine from per-evaluation settings. Factories are
	// where settings text is actually parsed, so a Factory error is a fatal
	// configuration error for the evaluation.
	Factory func(settings Settings) (Engine, error)
)
