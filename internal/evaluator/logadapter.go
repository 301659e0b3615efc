// SPDX-License-Identifier: MPL-2.0

package evaluator

import (
	"github.com/charmbracelet/log"

	"ivytrigger/internal/engine"
)

// NewResolverLogSink bridges the engine's internal log callbacks onto the
// evaluation logger. With debug off, only warning- and error-level callbacks
// are forwarded; verbose and debug chatter from the resolver is discarded.
// With debug on, every level is forwarded. The sink is best-effort and never
// panics, whatever the engine throws at it.
func NewResolverLogSink(logger *log.Logger, debug bool) engine.LogSink {
	return engine.SinkFunc(func(level engine.LogLevel, msg string) {
		defer func() {
			// Logging failures must never disturb the resolution pass.
			_ = recover()
		}()

		if logger == nil {
			return
		}
		if !debug && level < engine.LevelWarn {
			return
		}

		switch level {
		case engine.LevelError:
			logger.Error(msg)
		case engine.LevelWarn:
			logger.Warn(msg)
		case engine.LevelInfo:
			logger.Info(msg)
		default:
			logger.Debug(msg)
		}
	})
}
