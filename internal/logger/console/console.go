package console

import (
	"io"
	"os"

	"github.com/charmbracelet/log"
)

// Logger implements logger.Instance on top of charmbracelet/log
type Logger struct {
	logger *log.Logger
}

// Params configures a console Logger
type Params struct {
	// Level is one of debug, info, warn, error. Empty means info.
	Level      string
	Timestamps bool
	// Output defaults to stderr
	Output io.Writer
}

// New creates a console logger
func New(params Params) *Logger {
	level, err := log.ParseLevel(params.Level)
	if err != nil || params.Level == "" {
		level = log.InfoLevel
	}
	out := params.Output
	if out == nil {
		out = os.Stderr
	}
	return &Logger{
		logger: log.NewWithOptions(out, log.Options{
			ReportTimestamp: params.Timestamps,
			Level:           level,
			Prefix:          "netscheme",
		}),
	}
}

// Debug writes a message at DEBUG level
func (c *Logger) Debug(message string, keyvals ...any) {
	c.logger.Debug(message, keyvals...)
}

// Info writes a message at INFO level
func (c *Logger) Info(message string, keyvals ...any) {
	c.logger.Info(message, keyvals...)
}

// Warn writes a message at WARN level
func (c *Logger) Warn(message string, keyvals ...any) {
	c.logger.Warn(message, keyvals...)
}

// Error writes a message at ERROR level
func (c *Logger) Error(message string, keyvals ...any) {
	c.logger.Error(message, keyvals...)
}
