package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

var defaultLogger *slog.Logger

func init() {
	Configure(os.Getenv("ENVIRONMENT"), os.Getenv("LOG_LEVEL"), nil)
}

// Configure replaces the default logger. production gets JSON on stdout,
// everything else gets text on stderr. out overrides the destination.
func Configure(env, level string, out io.Writer) {
	lvl := parseLevel(level, env)
	opts := &slog.HandlerOptions{Level: lvl}

	var handler slog.Handler

	if env == "production" {
		if out == nil {
			out = os.Stdout
		}
		handler = slog.NewJSONHandler(out, opts)
	} else {
		if out == nil {
			out = os.Stderr
		}
		handler = slog.NewTextHandler(out, opts)
	}

	defaultLogger = slog.New(handler)
}

func parseLevel(level, env string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}

	if env == "production" {
		return slog.LevelInfo
	}

	return slog.LevelDebug
}

// returns the default logger instance
func Default() *slog.Logger {
	return defaultLogger
}

// creates a logger with additional context fields
func With(args ...any) *slog.Logger {
	return defaultLogger.With(args...)
}

// scopes a logger to a workspace
func ForWorkspace(workspaceID string) *slog.Logger {
	return defaultLogger.With("workspace_id", workspaceID)
}

// gin middleware that logs one line per request
func GinLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		attrs := []any{
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
		}

		if id := c.Param("id"); id != "" {
			attrs = append(attrs, "workspace_id", id)
		}

		switch {
		case c.Writer.Status() >= 500:
			defaultLogger.Error("request", attrs...)
		case c.Writer.Status() >= 400:
			defaultLogger.Warn("request", attrs...)
		default:
			defaultLogger.Debug("request", attrs...)
		}
	}
}

func Debug(msg string, args ...any) {
	defaultLogger.Debug(msg, args...)
}

func Info(msg string, args ...any) {
	defaultLogger.Info(msg, args...)
}

func Warn(msg string, args ...any) {
	defaultLogger.Warn(msg, args...)
}

func Error(msg string, args ...any) {
	defaultLogger.Error(msg, args...)
}

// logs an error with context
func ErrorErr(err error, msg string, args ...any) {
	args = append(args, "error", err)
	defaultLogger.Error(msg, args...)
}

// logs a fatal error and exits (for CLI tools)
func Fatal(msg string, args ...any) {
	defaultLogger.Error(msg, args...)
	os.Exit(1)
}
