package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"absence-desk/pkg/errors"
)

// LogContext represents contextual information for log entries
type LogContext map[string]interface{}

// StructuredLogger provides structured logging capabilities
type StructuredLogger struct {
	logger    *slog.Logger
	component string
	context   LogContext
}

// NewStructuredLogger creates a new structured logger writing JSON to stderr.
// stdout belongs to the host IPC channel.
func NewStructuredLogger(component string) *StructuredLogger {
	return newStructuredLogger(component, os.Stderr, slog.LevelDebug)
}

func newStructuredLogger(component string, w io.Writer, level slog.Leveler) *StructuredLogger {
	return newStructuredLoggerWithHandler(component, newJSONHandler(w, level))
}

// newJSONHandler builds the shared JSON handler. Loggers that write to the
// same output must share one handler so that records are not interleaved.
func newJSONHandler(w io.Writer, level slog.Leveler) slog.Handler {
	opts := &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			switch a.Key {
			case slog.TimeKey:
				return slog.Attr{
					Key:   "timestamp",
					Value: slog.StringValue(a.Value.Time().UTC().Format(time.RFC3339Nano)),
				}
			case slog.MessageKey:
				return slog.Attr{Key: "message", Value: a.Value}
			}
			return a
		},
	}
	return slog.NewJSONHandler(w, opts)
}

func newStructuredLoggerWithHandler(component string, handler slog.Handler) *StructuredLogger {
	return &StructuredLogger{
		logger:    slog.New(handler),
		component: component,
		context:   make(LogContext),
	}
}

// WithContext adds context to the logger (returns a new logger instance)
func (sl *StructuredLogger) WithContext(key string, value interface{}) *StructuredLogger {
	newLogger := &StructuredLogger{
		logger:    sl.logger,
		component: sl.component,
		context:   make(LogContext, len(sl.context)+1),
	}

	for k, v := range sl.context {
		newLogger.context[k] = v
	}

	newLogger.context[key] = value
	return newLogger
}

// WithError adds error information to the logger context
func (sl *StructuredLogger) WithError(err error) *StructuredLogger {
	if err == nil {
		return sl
	}

	newLogger := sl.WithContext("error", err.Error())

	if structuredErr, ok := errors.AsStructured(err); ok {
		newLogger = newLogger.
			WithContext("error_category", structuredErr.Category).
			WithContext("error_code", structuredErr.Code).
			WithContext("error_severity", structuredErr.Severity)

		for k, v := range structuredErr.Context {
			newLogger = newLogger.WithContext(fmt.Sprintf("error_ctx_%s", k), v)
		}
	}

	return newLogger
}

func (sl *StructuredLogger) buildLogAttributes() []slog.Attr {
	attrs := make([]slog.Attr, 0, len(sl.context)+1)
	attrs = append(attrs, slog.String("component", sl.component))

	for key, value := range sl.context {
		attrs = append(attrs, slog.Any(key, value))
	}

	return attrs
}

// Debug logs a debug message
func (sl *StructuredLogger) Debug(message string) {
	sl.logger.LogAttrs(context.Background(), slog.LevelDebug, message, sl.buildLogAttributes()...)
}

// Info logs an info message
func (sl *StructuredLogger) Info(message string) {
	sl.logger.LogAttrs(context.Background(), slog.LevelInfo, message, sl.buildLogAttributes()...)
}

// Warn logs a warning message
func (sl *StructuredLogger) Warn(message string) {
	sl.logger.LogAttrs(context.Background(), slog.LevelWarn, message, sl.buildLogAttributes()...)
}

// Error logs an error message
func (sl *StructuredLogger) Error(message string) {
	sl.logger.LogAttrs(context.Background(), slog.LevelError, message, sl.buildLogAttributes()...)
}

// LogInvocation logs a host command invocation with timing information
func (sl *StructuredLogger) LogInvocation(method string, requestID interface{}, duration time.Duration, success bool) {
	logger := sl.WithContext("ipc_method", method).
		WithContext("request_id", requestID).
		WithContext("duration_ms", duration.Milliseconds()).
		WithContext("success", success)

	if success {
		logger.Debug("Invocation processed")
	} else {
		logger.Warn("Invocation failed")
	}
}

// LogStartup logs application startup events
func (sl *StructuredLogger) LogStartup(event string, details map[string]interface{}) {
	logger := sl.WithContext("startup_event", event)
	for k, v := range details {
		logger = logger.WithContext(k, v)
	}
	logger.Info("Application startup event")
}

// LogShutdown logs application shutdown events
func (sl *StructuredLogger) LogShutdown(event string, details map[string]interface{}) {
	logger := sl.WithContext("shutdown_event", event)
	for k, v := range details {
		logger = logger.WithContext(k, v)
	}
	logger.Info("Application shutdown event")
}

// LogAssetEvent logs asset file changes seen by the watcher
func (sl *StructuredLogger) LogAssetEvent(eventType, asset, path string) {
	sl.WithContext("fs_event_type", eventType).
		WithContext("asset", asset).
		WithContext("fs_path", path).
		Info("Asset change detected")
}
