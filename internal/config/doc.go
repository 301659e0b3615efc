// SPDX-License-Identifier: MPL-2.0

// Package config handles trigger configuration using Viper with CUE as the
// file format.
//
// Configuration is loaded from ./ivytrigger.cue in the working directory or
// from the platform config directory (~/.config/ivytrigger/config.cue on
// Linux, ~/Library/Application Support/ivytrigger/config.cue on macOS,
// %APPDATA%\ivytrigger\config.cue on Windows). Values are validated against
// a CUE schema (config_schema.cue) before use, and IVYTRIGGER_* environment
// variables override file values.
package config
