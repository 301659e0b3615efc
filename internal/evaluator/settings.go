// SPDX-License-Identifier: MPL-2.0

package evaluator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"ivytrigger/internal/engine"
)

// cacheDirName is the directory created under the execution root to hold
// per-namespace resolver caches.
const cacheDirName = "ivy-trigger-cache"

// ErrNoSettingsSource is returned when neither a settings file nor a settings
// URL is configured. Exactly one of the two must be set.
var ErrNoSettingsSource = errors.New("evaluator: no resolver settings source configured (need a settings file or a settings URL)")

// buildEngine assembles per-evaluation settings and obtains a fresh engine
// from the factory. The settings text is staged through a temporary file
// that is removed on every path once the factory has consumed it; a failed
// removal is logged and ignored.
func (e *Evaluator) buildEngine(ctx context.Context, vars map[string]string) (engine.Engine, error) {
	content, err := e.settingsContent(ctx)
	if err != nil {
		return nil, err
	}

	tmp, err := os.CreateTemp("", "ivytrigger-settings-*.xml")
	if err != nil {
		return nil, fmt.Errorf("evaluator: create temporary settings file: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() {
		if removeErr := os.Remove(tmpPath); removeErr != nil {
			e.logger().Error("cannot delete temporary settings file", "path", tmpPath, "err", removeErr)
		}
	}()

	if _, err := tmp.WriteString(content); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("evaluator: write temporary settings file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return nil, fmt.Errorf("evaluator: close temporary settings file: %w", err)
	}

	cacheDir, err := e.initCacheDir()
	if err != nil {
		return nil, err
	}

	eng, err := e.NewEngine(engine.Settings{
		File:      tmpPath,
		Variables: vars,
		CacheDir:  cacheDir,
	})
	if err != nil {
		return nil, fmt.Errorf("evaluator: load resolver settings: %w", err)
	}

	// Attach before any resolution activity so no diagnostics are lost.
	eng.AttachLogger(NewResolverLogSink(e.logger(), e.Debug))

	return eng, nil
}

// settingsContent fetches the resolver settings text from the configured
// source. A file path takes priority; otherwise the URL is fetched. Both are
// decoded as UTF-8 text.
func (e *Evaluator) settingsContent(ctx context.Context) (string, error) {
	switch {
	case e.SettingsFile != "":
		e.logger().Info("getting resolver settings from file", "path", e.SettingsFile)
		data, err := os.ReadFile(e.SettingsFile)
		if err != nil {
			return "", fmt.Errorf("evaluator: read settings file %q: %w", e.SettingsFile, err)
		}
		return string(data), nil

	case e.SettingsURL != "":
		e.logger().Info("getting resolver settings from URL", "url", e.SettingsURL)
		return e.fetchSettingsURL(ctx)

	default:
		return "", ErrNoSettingsSource
	}
}

// fetchSettingsURL performs a single blocking GET of the settings URL.
func (e *Evaluator) fetchSettingsURL(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, e.SettingsURL, nil)
	if err != nil {
		return "", fmt.Errorf("evaluator: build settings request for %q: %w", e.SettingsURL, err)
	}

	client := e.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("evaluator: fetch settings from %q: %w", e.SettingsURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("evaluator: fetch settings from %q: unexpected status %s", e.SettingsURL, resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("evaluator: read settings from %q: %w", e.SettingsURL, err)
	}
	return string(data), nil
}

// initCacheDir creates (idempotently) the cache directory for this
// evaluation's namespace. The same namespace always maps to the same path so
// consecutive evaluations of one trigger share a resolver cache. Callers must
// serialize evaluations per namespace; this directory carries no lock.
func (e *Evaluator) initCacheDir() (string, error) {
	root := e.ExecRoot
	if root == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("evaluator: determine working directory: %w", err)
		}
		root = wd
	}

	dir := filepath.Join(root, cacheDirName, e.Namespace)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("evaluator: create cache directory %q: %w", dir, err)
	}
	return dir, nil
}
