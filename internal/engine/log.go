// SPDX-License-Identifier: MPL-2.0

package engine

// LogLevel is the severity of an engine log callback. The values mirror the
// levels resolution engines commonly emit; Debug is the lowest.
type LogLevel int

const (
	LevelDebug LogLevel = iota
	LevelVerbose
	LevelInfo
	LevelWarn
	LevelError
)

// String returns the lowercase level name.
func (l LogLevel) String() string {
	switch l {
	case LevelDebug:
		return "debug"
	case LevelVerbose:
		return "verbose"
	case LevelInfo:
		return "info"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	default:
		return "unknown"
	}
}

// LogSink receives the engine's internal log callbacks. Implementations must
// never panic and must tolerate being called from whatever goroutine the
// engine uses for its internal I/O.
type LogSink interface {
	Log(level LogLevel, msg string)
}

// SinkFunc adapts a function to the LogSink interface.
type SinkFunc func(level LogLevel, msg string)

// Log implements LogSink.
func (f SinkFunc) Log(level LogLevel, msg string) { f(level, msg) }
