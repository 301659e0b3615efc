// SPDX-License-Identifier: MPL-2.0

package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/spf13/viper"

	"ivytrigger/internal/cueutil"
	"ivytrigger/internal/issue"
)

const (
	// AppName is the application name.
	AppName = "ivytrigger"
	// ConfigFileName is the name of the config file (without extension).
	ConfigFileName = "config"
	// ConfigFileExt is the config file extension.
	ConfigFileExt = "cue"
	// localConfigFileName is the per-project config looked up in the working
	// directory before the platform config directory.
	localConfigFileName = "ivytrigger.cue"
)

//go:embed config_schema.cue
var configSchema string

// configFileOverride forces loading from a specific file (set via --config).
var configFileOverride string

// SetConfigFilePathOverride sets a custom config file path. Primarily driven
// by the --config flag; tests use it to point at fixtures.
func SetConfigFilePathOverride(path string) {
	configFileOverride = path
}

// Reset clears overrides. Call from test cleanup to restore defaults.
func Reset() {
	configFileOverride = ""
}

// ConfigDir returns the ivytrigger configuration directory using
// platform-specific conventions: Windows uses %APPDATA%, macOS uses
// ~/Library/Application Support, and Linux/others use $XDG_CONFIG_HOME
// (defaulting to ~/.config).
func ConfigDir() (string, error) {
	var configDir string

	switch runtime.GOOS {
	case "windows":
		configDir = os.Getenv("APPDATA")
		if configDir == "" {
			configDir = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("config: get home directory: %w", err)
		}
		configDir = filepath.Join(home, "Library", "Application Support")
	default:
		configDir = os.Getenv("XDG_CONFIG_HOME")
		if configDir == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", fmt.Errorf("config: get home directory: %w", err)
			}
			configDir = filepath.Join(home, ".config")
		}
	}

	return filepath.Join(configDir, AppName), nil
}

// Load reads the trigger configuration. Defaults apply when no config file
// exists; IVYTRIGGER_* environment variables override file values. The
// returned config has passed schema validation but not Config.IsValid —
// commands check that at the point of use so error messages can name the
// operation that needed the field.
func Load() (*Config, error) {
	v := viper.New()

	defaults := DefaultConfig()
	v.SetDefault("namespace", defaults.Namespace)
	v.SetDefault("descriptor", defaults.Descriptor)
	v.SetDefault("download_artifacts", defaults.DownloadArtifacts)
	v.SetDefault("watch.interval", defaults.Watch.Interval)

	v.SetEnvPrefix(strings.ToUpper(AppName))
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path, ok := resolveConfigFile(); ok {
		if err := loadCUEIntoViper(v, path); err != nil {
			return nil, issue.NewErrorContext().
				WithOperation("load configuration").
				WithResource(path).
				WithSuggestion("Check that the file contains valid CUE syntax").
				WithSuggestion("Verify the values match the expected schema (see 'ivytrigger config show')").
				Wrap(err).
				BuildError()
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: parse configuration: %w", err)
	}

	return &cfg, nil
}

// resolveConfigFile picks the config file to load: the explicit override,
// then ./ivytrigger.cue, then the platform config directory. A missing file
// is not an error — defaults apply.
func resolveConfigFile() (string, bool) {
	if configFileOverride != "" {
		return configFileOverride, true
	}
	if fileExists(localConfigFileName) {
		return localConfigFileName, true
	}
	cfgDir, err := ConfigDir()
	if err != nil {
		return "", false
	}
	path := filepath.Join(cfgDir, ConfigFileName+"."+ConfigFileExt)
	if fileExists(path) {
		return path, true
	}
	return "", false
}

// loadCUEIntoViper parses a CUE file, validates it against the #Config
// schema, and merges its contents into Viper. Decoding goes through a
// map[string]any (not a struct) so Viper keeps its default/env layering.
func loadCUEIntoViper(v *viper.Viper, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: read config file: %w", err)
	}

	if err := cueutil.CheckFileSize(data, cueutil.DefaultMaxFileSize, path); err != nil {
		return err
	}

	ctx := cuecontext.New()

	schemaValue := ctx.CompileString(configSchema)
	if schemaValue.Err() != nil {
		return fmt.Errorf("config: internal error: compile config schema: %w", schemaValue.Err())
	}

	userValue := ctx.CompileBytes(data, cue.Filename(path))
	if userValue.Err() != nil {
		return cueutil.FormatError(userValue.Err(), path)
	}

	schema := schemaValue.LookupPath(cue.ParsePath("#Config"))
	unified := schema.Unify(userValue)
	if err := unified.Validate(cue.Concrete(false)); err != nil {
		return cueutil.FormatError(err, path)
	}

	var configMap map[string]any
	if err := unified.Decode(&configMap); err != nil {
		return cueutil.FormatError(err, path)
	}

	if err := v.MergeConfigMap(configMap); err != nil {
		return fmt.Errorf("config: merge config: %w", err)
	}

	return nil
}

// fileExists checks if a file exists and is not a directory.
func fileExists(path string) bool {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return false
	}
	return err == nil && !info.IsDir()
}
