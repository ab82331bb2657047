// Package logs provides the logging facility for akb.
// Build tools write their own output to the terminal, so log records go to
// stderr by default. A log file can receive a copy of every record, which
// keeps a build log next to CI artifacts.
package logs

import (
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/bitswalk/akb/src/common/paths"
)

// LogOutput is the terminal stream records are written to
type LogOutput string

const (
	OutputStderr LogOutput = "stderr"
	OutputStdout LogOutput = "stdout"
)

// Format selects the record encoding
type Format string

const (
	FormatText   Format = "text"
	FormatJSON   Format = "json"
	FormatLogfmt Format = "logfmt"
)

// Logger wraps the charm log.Logger
type Logger struct {
	*log.Logger
	output LogOutput
	file   *os.File
}

// Config holds the configuration for the logger
type Config struct {
	// Output is the terminal stream (stderr, stdout)
	Output LogOutput
	// Level sets the minimum log level (debug, info, warn, error)
	Level string
	// Format is text, json or logfmt
	Format Format
	// File, when set, receives a copy of every record (appended)
	File string
	// Prefix sets a prefix for all log messages
	Prefix string
	// Writer replaces the terminal stream when set
	Writer io.Writer
}

// DefaultConfig returns a default configuration
func DefaultConfig() Config {
	return Config{
		Output: OutputStderr,
		Level:  "info",
		Format: FormatText,
	}
}

// ParseLevel converts a string level to log.Level
func ParseLevel(level string) log.Level {
	switch strings.ToLower(level) {
	case "debug":
		return log.DebugLevel
	case "info":
		return log.InfoLevel
	case "warn", "warning":
		return log.WarnLevel
	case "error":
		return log.ErrorLevel
	default:
		return log.InfoLevel
	}
}

func formatter(f Format) log.Formatter {
	switch Format(strings.ToLower(string(f))) {
	case FormatJSON:
		return log.JSONFormatter
	case FormatLogfmt:
		return log.LogfmtFormatter
	default:
		return log.TextFormatter
	}
}

func terminal(cfg Config) (io.Writer, LogOutput) {
	if cfg.Writer != nil {
		return cfg.Writer, cfg.Output
	}
	if cfg.Output == OutputStdout {
		return os.Stdout, OutputStdout
	}
	return os.Stderr, OutputStderr
}

// New creates a Logger. A log file that cannot be opened is reported on
// the terminal stream and skipped.
func New(cfg Config) *Logger {
	writer, output := terminal(cfg)

	var file *os.File
	var fileErr error
	if cfg.File != "" {
		path := paths.Expand(cfg.File)
		if fileErr = paths.EnsureDir(path); fileErr == nil {
			file, fileErr = os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		}
		if file != nil {
			writer = io.MultiWriter(writer, file)
		}
	}

	logger := log.NewWithOptions(writer, log.Options{
		Level:           ParseLevel(cfg.Level),
		Prefix:          cfg.Prefix,
		Formatter:       formatter(cfg.Format),
		ReportTimestamp: true,
		TimeFormat:      "2006-01-02 15:04:05",
	})

	if fileErr != nil {
		logger.Warn("Log file unavailable", "path", cfg.File, "error", fileErr)
	}

	return &Logger{
		Logger: logger,
		output: output,
		file:   file,
	}
}

// NewDefault creates a new Logger with default configuration
func NewDefault() *Logger {
	return New(DefaultConfig())
}

// Output returns the terminal stream in use
func (l *Logger) Output() LogOutput {
	return l.output
}

// Close closes the log file, if any
func (l *Logger) Close() error {
	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	return err
}
