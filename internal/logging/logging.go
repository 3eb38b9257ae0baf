// Package logging configures the process-wide structured loggers.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	structuredLogger *slog.Logger
	defaultLevelVar  = new(slog.LevelVar)
)

// Init initializes the logging system. Structured JSON logs go to stdout,
// the default level is Info until SetLevel is called.
func Init() {
	defaultLevelVar.Set(slog.LevelInfo)

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: defaultLevelVar,
	})
	structuredLogger = slog.New(handler)
	slog.SetDefault(structuredLogger)
}

// SetLevel sets the minimum logging level for the default loggers.
// Safe to call at runtime, the handlers share a single LevelVar.
func SetLevel(level slog.Level) {
	defaultLevelVar.Set(level)
}

// Level returns the shared level handle, for handlers that should follow
// runtime level changes.
func Level() slog.Leveler {
	return defaultLevelVar
}

// SetOutput redirects structured log output, used by tests to capture logs.
func SetOutput(w io.Writer) {
	structuredLogger = slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: defaultLevelVar,
	}))
	slog.SetDefault(structuredLogger)
}

// Structured returns the globally configured structured logger.
// Returns nil if Init() has not been called.
func Structured() *slog.Logger {
	return structuredLogger
}

// ForService creates a new logger instance with the 'service' attribute added.
// Falls back to slog.Default() when Init() has not been called.
func ForService(serviceName string) *slog.Logger {
	if structuredLogger == nil {
		return slog.Default().With("service", serviceName)
	}
	return structuredLogger.With("service", serviceName)
}

// NewFileLogger creates a slog.Logger writing JSON logs to the given file,
// rotated by lumberjack. It returns the logger, a close function for the
// underlying writer, and an error if directory setup fails.
func NewFileLogger(filePath, serviceName string, level slog.Leveler) (*slog.Logger, func() error, error) {
	logDir := filepath.Dir(filePath)
	if logDir != "." {
		if err := os.MkdirAll(logDir, 0o755); err != nil {
			return nil, nil, fmt.Errorf("failed to create log directory %s: %w", logDir, err)
		}
	}

	logWriter := &lumberjack.Logger{
		Filename:   filePath,
		MaxSize:    100, // megabytes
		MaxBackups: 3,
		MaxAge:     28, // days
	}

	fileHandler := slog.NewJSONHandler(logWriter, &slog.HandlerOptions{
		Level: level,
	})

	logger := slog.New(fileHandler).With("service", serviceName)

	return logger, logWriter.Close, nil
}
