// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

// isolateConfig keeps the test away from the developer's real config files
// and cleans up any override it sets.
func isolateConfig(t *testing.T) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Cleanup(Reset)
}

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ivytrigger.cue")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	isolateConfig(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Namespace != "default" {
		t.Errorf("namespace = %q, want %q", cfg.Namespace, "default")
	}
	if cfg.Descriptor != "ivy.xml" {
		t.Errorf("descriptor = %q, want %q", cfg.Descriptor, "ivy.xml")
	}
	if !cfg.DownloadArtifacts {
		t.Error("download_artifacts should default to true")
	}
	if cfg.Watch.Interval != 5*time.Minute {
		t.Errorf("watch interval = %v, want 5m", cfg.Watch.Interval)
	}
}

func TestLoadFromCUEFile(t *testing.T) {
	isolateConfig(t)

	path := writeConfigFile(t, `
namespace:  "billing"
descriptor: "deps/ivy.xml"

settings: file: "ivysettings.xml"

properties: {
	files:   "a.properties;b.properties"
	content: "rev=1.0"
}

debug:              true
download_artifacts: false

watch: {
	interval: "30s"
	hook:     "echo changed"
}

ivy: {
	command: "/opt/ivy/bin/ivy"
	extra_args: ["-refresh"]
}
`)
	SetConfigFilePathOverride(path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Namespace != "billing" {
		t.Errorf("namespace = %q", cfg.Namespace)
	}
	if cfg.Descriptor != "deps/ivy.xml" {
		t.Errorf("descriptor = %q", cfg.Descriptor)
	}
	if cfg.Settings.File != "ivysettings.xml" || cfg.Settings.URL != "" {
		t.Errorf("settings = %+v", cfg.Settings)
	}
	if cfg.Properties.Files != "a.properties;b.properties" || cfg.Properties.Content != "rev=1.0" {
		t.Errorf("properties = %+v", cfg.Properties)
	}
	if !cfg.Debug {
		t.Error("debug should be true")
	}
	if cfg.DownloadArtifacts {
		t.Error("download_artifacts should be false")
	}
	if cfg.Watch.Interval != 30*time.Second {
		t.Errorf("watch interval = %v, want 30s", cfg.Watch.Interval)
	}
	if cfg.Watch.Hook != "echo changed" {
		t.Errorf("watch hook = %q", cfg.Watch.Hook)
	}
	if cfg.Ivy.Command != "/opt/ivy/bin/ivy" {
		t.Errorf("ivy command = %q", cfg.Ivy.Command)
	}
	if !reflect.DeepEqual(cfg.Ivy.ExtraArgs, []string{"-refresh"}) {
		t.Errorf("ivy extra_args = %v", cfg.Ivy.ExtraArgs)
	}
}

func TestLoadInvalidCUESyntax(t *testing.T) {
	isolateConfig(t)

	SetConfigFilePathOverride(writeConfigFile(t, `namespace: "unclosed`))

	if _, err := Load(); err == nil {
		t.Fatal("expected error for invalid CUE syntax")
	}
}

func TestLoadSchemaViolations(t *testing.T) {
	isolateConfig(t)

	tests := []struct {
		name    string
		content string
	}{
		{name: "unknown field", content: `bogus_field: true`},
		{name: "wrong type", content: `debug: "yes"`},
		{name: "empty namespace", content: `namespace: ""`},
		{name: "malformed interval", content: `watch: interval: "soon"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			SetConfigFilePathOverride(writeConfigFile(t, tt.content))
			t.Cleanup(Reset)

			if _, err := Load(); err == nil {
				t.Fatalf("expected schema error for %q", tt.content)
			}
		})
	}
}

func TestLoadEnvOverride(t *testing.T) {
	isolateConfig(t)
	t.Setenv("IVYTRIGGER_NAMESPACE", "from-env")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Namespace != "from-env" {
		t.Errorf("namespace = %q, want %q", cfg.Namespace, "from-env")
	}
}

func TestConfigIsValid(t *testing.T) {
	t.Parallel()

	valid := Config{
		Namespace:  "app",
		Descriptor: "ivy.xml",
		Settings:   SettingsConfig{File: "ivysettings.xml"},
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{
			name:   "valid config",
			mutate: func(*Config) {},
		},
		{
			name:    "empty namespace",
			mutate:  func(c *Config) { c.Namespace = "" },
			wantErr: ErrInvalidNamespace,
		},
		{
			name:    "namespace with path separator",
			mutate:  func(c *Config) { c.Namespace = "a/b" },
			wantErr: ErrInvalidNamespace,
		},
		{
			name:    "empty descriptor",
			mutate:  func(c *Config) { c.Descriptor = "  " },
			wantErr: ErrInvalidDescriptor,
		},
		{
			name:    "no settings source",
			mutate:  func(c *Config) { c.Settings = SettingsConfig{} },
			wantErr: ErrInvalidSettingsSource,
		},
		{
			name: "both settings sources",
			mutate: func(c *Config) {
				c.Settings = SettingsConfig{File: "a.xml", URL: "https://example.com/b.xml"}
			},
			wantErr: ErrInvalidSettingsSource,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := valid
			tt.mutate(&cfg)

			ok, errs := cfg.IsValid()
			if tt.wantErr == nil {
				if !ok {
					t.Fatalf("expected valid config, got %v", errs)
				}
				return
			}
			if ok {
				t.Fatal("expected invalid config")
			}
			if !errors.Is(errors.Join(errs...), tt.wantErr) {
				t.Errorf("errors %v do not wrap %v", errs, tt.wantErr)
			}
			if !errors.Is(errors.Join(errs...), ErrInvalidConfig) {
				t.Errorf("errors %v do not wrap ErrInvalidConfig", errs)
			}
		})
	}
}

func TestValidWatch(t *testing.T) {
	t.Parallel()

	c := Config{Watch: WatchConfig{Interval: time.Minute}}
	if ok, errs := c.ValidWatch(); !ok {
		t.Fatalf("expected valid watch config, got %v", errs)
	}

	c.Watch.Interval = 0
	ok, errs := c.ValidWatch()
	if ok {
		t.Fatal("expected invalid watch config")
	}
	if !errors.Is(errors.Join(errs...), ErrInvalidWatchInterval) {
		t.Errorf("errors %v do not wrap ErrInvalidWatchInterval", errs)
	}
}

func TestSnapshotPath(t *testing.T) {
	t.Parallel()

	c := Config{Namespace: "app", ExecRoot: "/work"}
	if got, want := c.SnapshotPath(), filepath.Join("/work", "ivy-trigger-cache", "app", "snapshot.json"); got != want {
		t.Errorf("SnapshotPath = %q, want %q", got, want)
	}

	c.SnapshotFile = "/tmp/custom.json"
	if got := c.SnapshotPath(); got != "/tmp/custom.json" {
		t.Errorf("SnapshotPath = %q, want override", got)
	}

	c = Config{Namespace: "app"}
	if got, want := c.SnapshotPath(), filepath.Join(".", "ivy-trigger-cache", "app", "snapshot.json"); got != want {
		t.Errorf("SnapshotPath = %q, want %q", got, want)
	}
}
