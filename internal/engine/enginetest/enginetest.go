// SPDX-License-Identifier: MPL-2.0

// Package enginetest provides a scripted resolve engine for tests. The
// engine returns canned reports, records how it was driven (attached sink,
// descriptor, options), and can inject resolve failures. Reports can be
// built in Go or loaded from TOML fixtures.
package enginetest

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/pelletier/go-toml/v2"

	"ivytrigger/internal/engine"
)

// Engine is a scripted engine.Engine. Configure Report and ResolveErr before
// use; the recorded fields are filled in as the evaluator drives it.
type Engine struct {
	// Report is returned from Resolve (after download-flag filtering).
	Report *engine.Report

	// ResolveErr, when set, makes Resolve fail without producing a report.
	ResolveErr error

	mu sync.Mutex

	// Recorded state.
	Sink           engine.LogSink
	Settings       engine.Settings
	ResolveCalls   int
	LastDescriptor string
	LastOptions    engine.ResolveOptions
}

// Factory returns an engine.Factory that records the settings it was built
// with and hands out this same Engine.
func (e *Engine) Factory() engine.Factory {
	return func(settings engine.Settings) (engine.Engine, error) {
		e.mu.Lock()
		defer e.mu.Unlock()
		e.Settings = settings
		return e, nil
	}
}

// FailingFactory returns an engine.Factory that always fails, standing in
// for unparseable settings text.
func FailingFactory(err error) engine.Factory {
	return func(engine.Settings) (engine.Engine, error) {
		return nil, err
	}
}

// AttachLogger implements engine.Engine.
func (e *Engine) AttachLogger(sink engine.LogSink) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.Sink = sink
}

// Resolve implements engine.Engine. It records the call, emits a couple of
// log events through the attached sink so adapter behaviour is observable,
// and returns the scripted report. With DownloadArtifacts off the returned
// report has every download flag cleared, the way a metadata-only pass
// behaves.
func (e *Engine) Resolve(_ context.Context, descriptorPath string, opts engine.ResolveOptions) (*engine.Report, error) {
	e.mu.Lock()
	e.ResolveCalls++
	e.LastDescriptor = descriptorPath
	e.LastOptions = opts
	sink := e.Sink
	e.mu.Unlock()

	if sink != nil {
		sink.Log(engine.LevelVerbose, "resolving "+descriptorPath)
		sink.Log(engine.LevelInfo, "resolve pass complete")
	}

	if e.ResolveErr != nil {
		return nil, e.ResolveErr
	}
	if e.Report == nil {
		return &engine.Report{}, nil
	}
	if opts.DownloadArtifacts {
		return e.Report, nil
	}
	return withoutDownloads(e.Report), nil
}

// withoutDownloads deep-copies the report with all download flags cleared.
func withoutDownloads(r *engine.Report) *engine.Report {
	out := &engine.Report{Problems: r.Problems}
	for _, node := range r.Dependencies {
		copied := node
		copied.Downloads = make(map[string][]engine.ArtifactDownload, len(node.Downloads))
		for conf, downloads := range node.Downloads {
			cleared := make([]engine.ArtifactDownload, len(downloads))
			for i, d := range downloads {
				d.Downloaded = false
				cleared[i] = d
			}
			copied.Downloads[conf] = cleared
		}
		out.Dependencies = append(out.Dependencies, copied)
	}
	return out
}

type (
	fixture struct {
		Problems     []string     `toml:"problems"`
		Dependencies []fixtureDep `toml:"dependency"`
	}

	fixtureDep struct {
		Organisation   string            `toml:"organisation"`
		Name           string            `toml:"name"`
		Revision       string            `toml:"revision"`
		Resolved       string            `toml:"resolved"`
		Configurations []string          `toml:"configurations"`
		Downloads      []fixtureDownload `toml:"download"`
	}

	fixtureDownload struct {
		Configuration string `toml:"configuration"`
		Name          string `toml:"name"`
		Ext           string `toml:"ext"`
		Downloaded    bool   `toml:"downloaded"`
		File          string `toml:"file"`
	}
)

// LoadReport reads a canned report from a TOML fixture. A dependency's
// "resolved" revision defaults to its requested revision when omitted.
func LoadReport(path string) (*engine.Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("enginetest: read fixture %q: %w", path, err)
	}

	var f fixture
	if err := toml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("enginetest: parse fixture %q: %w", path, err)
	}

	report := &engine.Report{Problems: f.Problems}
	for _, dep := range f.Dependencies {
		resolved := dep.Resolved
		if resolved == "" {
			resolved = dep.Revision
		}
		node := engine.DependencyNode{
			ID: engine.ModuleID{
				Organisation: dep.Organisation,
				Name:         dep.Name,
				Revision:     dep.Revision,
			},
			ResolvedRevision: resolved,
			Configurations:   dep.Configurations,
			Downloads:        make(map[string][]engine.ArtifactDownload),
		}
		for _, d := range dep.Downloads {
			node.Downloads[d.Configuration] = append(node.Downloads[d.Configuration], engine.ArtifactDownload{
				Name:       d.Name,
				Ext:        d.Ext,
				Downloaded: d.Downloaded,
				LocalFile:  d.File,
			})
		}
		report.Dependencies = append(report.Dependencies, node)
	}
	return report, nil
}
