// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package logging provides structured logging for Aleutian components.
//
// The logger is built on Go's standard library slog package with one
// extension: multi-destination output. The default destination is stderr
// (text, following Unix CLI conventions); setting LogDir additionally
// writes a JSON log file per service per day, so a review run leaves a
// machine-parseable trail next to its results.
//
// # Basic Usage
//
//	logger := logging.Default()
//	logger.Info("opened session", "session", name)
//
// # File Logging
//
//	logger := logging.New(logging.Config{
//	    Level:   logging.LevelInfo,
//	    LogDir:  "~/.aleutian/logs",  // Supports ~ expansion
//	    Service: "validate",
//	})
//	defer logger.Close()  // Important: flushes and closes the file
//
// This creates log files named `{service}_{date}.log` in JSON format.
//
// # Thread Safety
//
// Logger is safe for concurrent use. The underlying slog.Logger is
// thread-safe and the file handle is only touched under a mutex.
//
// # Security Considerations
//
// This package does NOT automatically redact sensitive data. Callers
// must ensure reviewer payloads and tokens are not logged verbatim.
package logging

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// =============================================================================
// Log Levels
// =============================================================================

// Level represents log severity levels, ordered by severity:
// Debug < Info < Warn < Error. Setting a minimum level filters out all
// logs below it.
type Level int

const (
	// LevelDebug is for development troubleshooting.
	LevelDebug Level = iota

	// LevelInfo is for normal operational messages.
	LevelInfo

	// LevelWarn is for potentially problematic situations.
	LevelWarn

	// LevelError is for error conditions the system survives.
	LevelError
)

// String returns the human-readable name of the level.
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// toSlogLevel converts our Level to slog.Level.
func (l Level) toSlogLevel() slog.Level {
	switch l {
	case LevelDebug:
		return slog.LevelDebug
	case LevelInfo:
		return slog.LevelInfo
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// =============================================================================
// Configuration
// =============================================================================

// Config configures the Logger behavior.
//
// All fields have sensible defaults. A zero-value Config creates a logger
// that writes Info+ messages to stderr in text format.
type Config struct {
	// Level sets the minimum log level. Messages below it are discarded.
	// Default: LevelInfo
	Level Level

	// LogDir enables file logging to the specified directory.
	//
	// When set, logs are written to both stderr and a file named
	// "{Service}_{YYYY-MM-DD}.log". File logs are always JSON.
	// The directory is created with 0750 permissions if needed.
	// Supports ~ for home directory expansion.
	//
	// Default: "" (file logging disabled)
	LogDir string

	// Service identifies the component generating logs. Included in every
	// entry as the "service" attribute.
	// Default: "" (no service attribute)
	Service string

	// JSON enables JSON output on stderr. File logs are JSON regardless.
	// Default: false (text format for stderr)
	JSON bool

	// Quiet disables stderr output; logs go only to the file, if any.
	// Default: false (stderr enabled)
	Quiet bool
}

// =============================================================================
// Logger
// =============================================================================

// Logger provides structured logging with multi-destination output.
//
// Always call Close() when done with a logger that has file logging
// configured so the file is synced and released.
type Logger struct {
	slog   *slog.Logger
	config Config

	// file is the optional log file handle (nil if file logging disabled)
	file *os.File

	mu sync.Mutex
}

// New creates a new Logger with the given configuration.
//
// Sets up a stderr handler (unless Quiet) and a file handler (if LogDir
// is set). File open failures degrade silently to stderr-only: logging
// must never stop the review tool from starting.
func New(config Config) *Logger {
	var handlers []slog.Handler

	opts := &slog.HandlerOptions{
		Level: config.Level.toSlogLevel(),
	}

	if !config.Quiet {
		var stderrHandler slog.Handler
		if config.JSON {
			stderrHandler = slog.NewJSONHandler(os.Stderr, opts)
		} else {
			stderrHandler = slog.NewTextHandler(os.Stderr, opts)
		}
		handlers = append(handlers, stderrHandler)
	}

	logger := &Logger{config: config}

	if config.LogDir != "" {
		logDir := expandPath(config.LogDir)
		if err := os.MkdirAll(logDir, 0750); err == nil {
			serviceName := config.Service
			if serviceName == "" {
				serviceName = "aleutian"
			}
			filename := fmt.Sprintf("%s_%s.log", serviceName, time.Now().Format("2006-01-02"))
			logPath := filepath.Join(logDir, filename)

			file, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0640)
			if err == nil {
				logger.file = file
				handlers = append(handlers, slog.NewJSONHandler(file, opts))
			}
		}
	}

	var handler slog.Handler
	switch len(handlers) {
	case 0:
		// Fallback: at least write to stderr
		handler = slog.NewTextHandler(os.Stderr, opts)
	case 1:
		handler = handlers[0]
	default:
		handler = &multiHandler{handlers: handlers}
	}

	if config.Service != "" {
		handler = handler.WithAttrs([]slog.Attr{
			slog.String("service", config.Service),
		})
	}

	logger.slog = slog.New(handler)
	return logger
}

// Default returns a stderr-only, Info-level, text-format logger.
func Default() *Logger {
	return New(Config{
		Level:   LevelInfo,
		Service: "aleutian",
	})
}

// Debug logs a message at Debug level.
func (l *Logger) Debug(msg string, args ...any) {
	l.slog.Debug(msg, args...)
}

// Info logs a message at Info level.
func (l *Logger) Info(msg string, args ...any) {
	l.slog.Info(msg, args...)
}

// Warn logs a message at Warn level.
func (l *Logger) Warn(msg string, args ...any) {
	l.slog.Warn(msg, args...)
}

// Error logs a message at Error level.
func (l *Logger) Error(msg string, args ...any) {
	l.slog.Error(msg, args...)
}

// With returns a new Logger carrying additional attributes.
// The parent logger is not modified; the file handle is shared.
func (l *Logger) With(args ...any) *Logger {
	return &Logger{
		slog:   l.slog.With(args...),
		config: l.config,
		file:   l.file,
	}
}

// Slog returns the underlying slog.Logger, e.g. for slog.SetDefault.
func (l *Logger) Slog() *slog.Logger {
	return l.slog
}

// Close syncs and closes the log file, if one is open.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file == nil {
		return nil
	}
	if err := l.file.Sync(); err != nil {
		_ = l.file.Close()
		return fmt.Errorf("sync log file: %w", err)
	}
	if err := l.file.Close(); err != nil {
		return fmt.Errorf("close log file: %w", err)
	}
	l.file = nil
	return nil
}

// =============================================================================
// Multi-Handler (Internal)
// =============================================================================

// multiHandler fans out log records to multiple slog handlers, enabling
// simultaneous stderr and file output with different formats.
type multiHandler struct {
	handlers []slog.Handler
}

// Enabled returns true if any handler is enabled for the level.
func (h *multiHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, handler := range h.handlers {
		if handler.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

// Handle sends the record to all enabled handlers.
func (h *multiHandler) Handle(ctx context.Context, r slog.Record) error {
	for _, handler := range h.handlers {
		if handler.Enabled(ctx, r.Level) {
			if err := handler.Handle(ctx, r); err != nil {
				return err
			}
		}
	}
	return nil
}

// WithAttrs returns a new handler with additional attributes.
func (h *multiHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	handlers := make([]slog.Handler, len(h.handlers))
	for i, handler := range h.handlers {
		handlers[i] = handler.WithAttrs(attrs)
	}
	return &multiHandler{handlers: handlers}
}

// WithGroup returns a new handler with a group name.
func (h *multiHandler) WithGroup(name string) slog.Handler {
	handlers := make([]slog.Handler, len(h.handlers))
	for i, handler := range h.handlers {
		handlers[i] = handler.WithGroup(name)
	}
	return &multiHandler{handlers: handlers}
}

// =============================================================================
// Helper Functions
// =============================================================================

// expandPath expands a leading ~ to the user's home directory.
func expandPath(path string) string {
	if len(path) > 0 && path[0] == '~' {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[1:])
		}
	}
	return path
}
