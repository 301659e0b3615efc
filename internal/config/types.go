// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

var (
	// ErrInvalidNamespace is the sentinel error wrapped by InvalidNamespaceError.
	ErrInvalidNamespace = errors.New("invalid namespace")
	// ErrInvalidDescriptor is the sentinel error wrapped by InvalidDescriptorError.
	ErrInvalidDescriptor = errors.New("invalid descriptor")
	// ErrInvalidSettingsSource is the sentinel error wrapped by InvalidSettingsSourceError.
	ErrInvalidSettingsSource = errors.New("invalid settings source")
	// ErrInvalidWatchInterval is the sentinel error wrapped by InvalidWatchIntervalError.
	ErrInvalidWatchInterval = errors.New("invalid watch interval")
	// ErrInvalidConfig is the sentinel error wrapped by InvalidConfigError.
	ErrInvalidConfig = errors.New("invalid config")
)

type (
	// SettingsConfig locates the resolver settings text. Exactly one of the
	// two fields must be set.
	SettingsConfig struct {
		// File is a local resolver settings file path.
		File string `json:"file" mapstructure:"file"`
		// URL fetches the resolver settings over HTTP(S).
		URL string `json:"url" mapstructure:"url"`
	}

	// PropertiesConfig feeds the variable assembler.
	PropertiesConfig struct {
		// Files is a ";"-delimited list of properties file paths.
		Files string `json:"files" mapstructure:"files"`
		// Content is inline properties text, overlaid last.
		Content string `json:"content" mapstructure:"content"`
	}

	// WatchConfig drives the polling loop.
	WatchConfig struct {
		// Interval is the time between evaluations.
		Interval time.Duration `json:"interval" mapstructure:"interval"`
		// Hook is a shell script run when the snapshot changes.
		Hook string `json:"hook" mapstructure:"hook"`
	}

	// IvyConfig configures the Apache Ivy command-line engine.
	IvyConfig struct {
		// Command is the Ivy launcher; empty means "ivy" on PATH.
		Command string `json:"command" mapstructure:"command"`
		// ExtraArgs are appended verbatim to every Ivy invocation.
		ExtraArgs []string `json:"extra_args" mapstructure:"extra_args"`
	}

	// Config holds the trigger configuration.
	Config struct {
		// Namespace scopes the resolver cache and snapshot to one trigger.
		Namespace string `json:"namespace" mapstructure:"namespace"`
		// Descriptor is the dependency descriptor file to resolve.
		Descriptor string `json:"descriptor" mapstructure:"descriptor"`
		// Settings locates the resolver settings text.
		Settings SettingsConfig `json:"settings" mapstructure:"settings"`
		// Properties feeds the variable assembler.
		Properties PropertiesConfig `json:"properties" mapstructure:"properties"`
		// Debug forwards the engine's verbose/debug output to the log.
		Debug bool `json:"debug" mapstructure:"debug"`
		// DownloadArtifacts selects a full download pass.
		DownloadArtifacts bool `json:"download_artifacts" mapstructure:"download_artifacts"`
		// ExecRoot is where the cache directory tree is created; empty means
		// the working directory.
		ExecRoot string `json:"exec_root" mapstructure:"exec_root"`
		// SnapshotFile overrides the snapshot location; empty derives a path
		// inside the namespace cache directory.
		SnapshotFile string `json:"snapshot_file" mapstructure:"snapshot_file"`
		// Watch drives the polling loop.
		Watch WatchConfig `json:"watch" mapstructure:"watch"`
		// Ivy configures the command-line engine.
		Ivy IvyConfig `json:"ivy" mapstructure:"ivy"`
	}

	// InvalidNamespaceError is returned for an empty namespace or one that
	// cannot name a directory. It wraps ErrInvalidNamespace for errors.Is().
	InvalidNamespaceError struct {
		Value string
	}

	// InvalidDescriptorError is returned for an empty descriptor path.
	// It wraps ErrInvalidDescriptor for errors.Is() compatibility.
	InvalidDescriptorError struct{}

	// InvalidSettingsSourceError is returned when not exactly one settings
	// source is set. It wraps ErrInvalidSettingsSource for errors.Is().
	InvalidSettingsSourceError struct {
		// Both is true when file and URL are both set; false when neither is.
		Both bool
	}

	// InvalidWatchIntervalError is returned for a non-positive watch
	// interval. It wraps ErrInvalidWatchInterval for errors.Is().
	InvalidWatchIntervalError struct {
		Value time.Duration
	}

	// InvalidConfigError is returned when a Config has invalid fields. It
	// wraps ErrInvalidConfig for errors.Is() compatibility and collects the
	// field-level validation errors.
	InvalidConfigError struct {
		FieldErrors []error
	}
)

// Error implements the error interface for InvalidNamespaceError.
func (e *InvalidNamespaceError) Error() string {
	return fmt.Sprintf("invalid namespace %q: must be non-empty and contain no path separators", e.Value)
}

// Unwrap returns ErrInvalidNamespace for errors.Is() compatibility.
func (e *InvalidNamespaceError) Unwrap() error { return ErrInvalidNamespace }

// Error implements the error interface for InvalidDescriptorError.
func (e *InvalidDescriptorError) Error() string {
	return "invalid descriptor: path must be non-empty"
}

// Unwrap returns ErrInvalidDescriptor for errors.Is() compatibility.
func (e *InvalidDescriptorError) Unwrap() error { return ErrInvalidDescriptor }

// Error implements the error interface for InvalidSettingsSourceError.
func (e *InvalidSettingsSourceError) Error() string {
	if e.Both {
		return "invalid settings source: settings.file and settings.url are both set; configure exactly one"
	}
	return "invalid settings source: neither settings.file nor settings.url is set; configure exactly one"
}

// Unwrap returns ErrInvalidSettingsSource for errors.Is() compatibility.
func (e *InvalidSettingsSourceError) Unwrap() error { return ErrInvalidSettingsSource }

// Error implements the error interface for InvalidWatchIntervalError.
func (e *InvalidWatchIntervalError) Error() string {
	return fmt.Sprintf("invalid watch interval %s: must be positive", e.Value)
}

// Unwrap returns ErrInvalidWatchInterval for errors.Is() compatibility.
func (e *InvalidWatchIntervalError) Unwrap() error { return ErrInvalidWatchInterval }

// Error implements the error interface for InvalidConfigError.
func (e *InvalidConfigError) Error() string {
	return fmt.Sprintf("invalid config: %d field error(s)", len(e.FieldErrors))
}

// Unwrap returns ErrInvalidConfig for errors.Is() compatibility.
func (e *InvalidConfigError) Unwrap() error { return ErrInvalidConfig }

// IsValid reports whether the settings source is well-formed: exactly one
// of file and URL set.
func (s SettingsConfig) IsValid() (bool, []error) {
	hasFile := strings.TrimSpace(s.File) != ""
	hasURL := strings.TrimSpace(s.URL) != ""
	if hasFile == hasURL {
		return false, []error{&InvalidSettingsSourceError{Both: hasFile}}
	}
	return true, nil
}

// IsValid reports whether the Config can drive an evaluation. Watch-specific
// fields are validated separately by ValidWatch, since one-shot evaluation
// does not need them.
func (c Config) IsValid() (bool, []error) {
	var errs []error
	if strings.TrimSpace(c.Namespace) == "" || c.Namespace != filepath.Base(c.Namespace) {
		errs = append(errs, &InvalidNamespaceError{Value: c.Namespace})
	}
	if strings.TrimSpace(c.Descriptor) == "" {
		errs = append(errs, &InvalidDescriptorError{})
	}
	if valid, fieldErrs := c.Settings.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if len(errs) > 0 {
		return false, []error{&InvalidConfigError{FieldErrors: errs}}
	}
	return true, nil
}

// ValidWatch reports whether the watch section can drive a polling loop.
func (c Config) ValidWatch() (bool, []error) {
	if c.Watch.Interval <= 0 {
		return false, []error{&InvalidWatchIntervalError{Value: c.Watch.Interval}}
	}
	return true, nil
}

// SnapshotPath resolves where the dependency snapshot is persisted: the
// configured override, or snapshot.json inside the namespace cache directory.
func (c Config) SnapshotPath() string {
	if c.SnapshotFile != "" {
		return c.SnapshotFile
	}
	root := c.ExecRoot
	if root == "" {
		root = "."
	}
	return filepath.Join(root, "ivy-trigger-cache", c.Namespace, "snapshot.json")
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Namespace:         "default",
		Descriptor:        "ivy.xml",
		DownloadArtifacts: true,
		Watch: WatchConfig{
			Interval: 5 * time.Minute,
		},
	}
}
