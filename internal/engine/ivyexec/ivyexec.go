// SPDX-License-Identifier: MPL-2.0

// Package ivyexec adapts the Apache Ivy command line to the engine boundary.
// The resolution algorithm stays entirely inside Ivy: this package only
// stages inputs (settings file, variables file, cache directory), runs one
// resolve, forwards process output to the log sink, and reads the resolution
// reports Ivy writes into the cache back into a typed Report.
package ivyexec

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"

	"github.com/magiconair/properties"

	"ivytrigger/internal/engine"
	"ivytrigger/internal/props"
)

// DefaultCommand is the Ivy launcher looked up on PATH when Options.Command
// is empty.
const DefaultCommand = "ivy"

// Options configures the adapter.
type Options struct {
	// Command is the Ivy executable. Empty means DefaultCommand.
	Command string

	// ExtraArgs are appended verbatim to every invocation.
	ExtraArgs []string
}

// Engine drives one Ivy process per Resolve call.
//
// The Ivy command line has no artifact-download toggle, so
// ResolveOptions.DownloadArtifacts=false is honoured indirectly: the pass
// still runs, and the per-artifact download flags in the parsed report tell
// the extractor that nothing new was fetched.
type Engine struct {
	settings engine.Settings
	opts     Options

	// settingsContent is the resolver settings text, captured at factory
	// time. Settings.File is transient and may be gone by Resolve, so the
	// content is re-staged into a fresh file per pass.
	settingsContent []byte

	mu   sync.Mutex
	sink engine.LogSink
}

// New returns an engine.Factory producing Ivy command-line engines. The
// factory fails when the Ivy executable cannot be found or the settings file
// cannot be read, which surfaces as a fatal configuration error for the
// evaluation.
func New(opts Options) engine.Factory {
	return func(settings engine.Settings) (engine.Engine, error) {
		command := opts.Command
		if command == "" {
			command = DefaultCommand
		}
		if _, err := exec.LookPath(command); err != nil {
			return nil, fmt.Errorf("ivyexec: locate %q: %w", command, err)
		}
		content, err := os.ReadFile(settings.File)
		if err != nil {
			return nil, fmt.Errorf("ivyexec: read settings file %q: %w", settings.File, err)
		}
		resolved := opts
		resolved.Command = command
		return &Engine{settings: settings, opts: resolved, settingsContent: content}, nil
	}
}

// AttachLogger implements engine.Engine.
func (e *Engine) AttachLogger(sink engine.LogSink) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.sink = sink
}

// Resolve implements engine.Engine. The subprocess inherits nothing from the
// evaluation except the staged files; variables travel through a temporary
// properties file passed with -properties.
func (e *Engine) Resolve(ctx context.Context, descriptorPath string, _ engine.ResolveOptions) (*engine.Report, error) {
	settingsFile, err := e.writeSettingsFile()
	if err != nil {
		return nil, err
	}
	defer func() {
		if removeErr := os.Remove(settingsFile); removeErr != nil {
			e.log(engine.LevelWarn, "cannot delete staged settings file: "+removeErr.Error())
		}
	}()

	varsFile, err := e.writeVariablesFile()
	if err != nil {
		return nil, err
	}
	defer func() {
		if removeErr := os.Remove(varsFile); removeErr != nil {
			e.log(engine.LevelWarn, "cannot delete temporary variables file: "+removeErr.Error())
		}
	}()

	args := []string{
		"-settings", settingsFile,
		"-properties", varsFile,
		"-ivy", descriptorPath,
		"-cache", e.settings.CacheDir,
	}
	args = append(args, e.opts.ExtraArgs...)

	cmd := exec.CommandContext(ctx, e.opts.Command, args...)

	var stderr bytes.Buffer
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("ivyexec: open stdout pipe: %w", err)
	}
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("ivyexec: start %q: %w", e.opts.Command, err)
	}

	e.forwardOutput(stdout)

	runErr := cmd.Wait()

	problems := stderrProblems(stderr.String())
	for _, p := range problems {
		e.log(engine.LevelError, p)
	}

	if runErr != nil {
		var exitErr *exec.ExitError
		if !errors.As(runErr, &exitErr) {
			return nil, fmt.Errorf("ivyexec: run %q: %w", e.opts.Command, runErr)
		}
		// A non-zero exit with reports present is Ivy's "resolved with
		// errors": the problems flow into the report instead of aborting.
	}

	report, err := readReports(e.settings.CacheDir)
	if err != nil {
		if runErr != nil {
			return nil, fmt.Errorf("ivyexec: resolve failed (%v) and no report could be read: %w", runErr, err)
		}
		return nil, err
	}
	report.Problems = append(report.Problems, problems...)

	return report, nil
}

// forwardOutput streams the process output to the attached sink. Ivy logs
// its resolve progress on stdout without level markers; the ":::"-prefixed
// section headers are the informative ones. A read error only truncates the
// forwarded output, so it is reported as a warning rather than failing the
// pass.
func (e *Engine) forwardOutput(r io.Reader) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(strings.TrimSpace(line), "::") {
			e.log(engine.LevelInfo, line)
		} else {
			e.log(engine.LevelVerbose, line)
		}
	}
	if err := scanner.Err(); err != nil {
		e.log(engine.LevelWarn, "engine output truncated: "+err.Error())
	}
}

// writeSettingsFile stages the captured settings text for Ivy's -settings
// option.
func (e *Engine) writeSettingsFile() (string, error) {
	tmp, err := os.CreateTemp("", "ivytrigger-settings-*.xml")
	if err != nil {
		return "", fmt.Errorf("ivyexec: create settings file: %w", err)
	}
	if _, err := tmp.Write(e.settingsContent); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", fmt.Errorf("ivyexec: write settings file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("ivyexec: close settings file: %w", err)
	}
	return tmp.Name(), nil
}

// writeVariablesFile stages the settings variables as an ISO-8859-1
// properties file for Ivy's -properties option, in sorted key order.
func (e *Engine) writeVariablesFile() (string, error) {
	p := properties.NewProperties()
	p.DisableExpansion = true
	for _, k := range props.SortedKeys(e.settings.Variables) {
		if _, _, err := p.Set(k, e.settings.Variables[k]); err != nil {
			return "", fmt.Errorf("ivyexec: stage variable %q: %w", k, err)
		}
	}

	tmp, err := os.CreateTemp("", "ivytrigger-vars-*.properties")
	if err != nil {
		return "", fmt.Errorf("ivyexec: create variables file: %w", err)
	}
	if _, err := p.Write(tmp, properties.ISO_8859_1); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", fmt.Errorf("ivyexec: write variables file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("ivyexec: close variables file: %w", err)
	}
	return tmp.Name(), nil
}

// log forwards a message to the attached sink, if any.
func (e *Engine) log(level engine.LogLevel, msg string) {
	e.mu.Lock()
	sink := e.sink
	e.mu.Unlock()
	if sink != nil {
		sink.Log(level, msg)
	}
}

// stderrProblems turns the process's stderr into individual problem
// messages, dropping blank lines.
func stderrProblems(stderr string) []string {
	var problems []string
	for _, line := range strings.Split(stderr, "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		problems = append(problems, line)
	}
	return problems
}
