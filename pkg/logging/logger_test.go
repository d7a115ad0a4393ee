package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
	"time"

	"absence-desk/pkg/errors"
)

// Helper to create test logger with buffer
func newTestLogger() (*StructuredLogger, *bytes.Buffer) {
	var buf bytes.Buffer
	return newStructuredLogger("test", &buf, slog.LevelDebug), &buf
}

func TestStructuredLogger(t *testing.T) {
	t.Run("Initialization", func(t *testing.T) {
		logger := NewStructuredLogger("test-component")
		if logger.component != "test-component" || logger.context == nil {
			t.Error("Expected logger to be initialized correctly")
		}
	})

	t.Run("WithContext immutability", func(t *testing.T) {
		logger := NewStructuredLogger("test")
		newLogger := logger.WithContext("asset", "codes").WithContext("count", 42)

		if len(logger.context) != 0 || len(newLogger.context) != 2 {
			t.Error("Expected WithContext to return new logger without modifying original")
		}
		if newLogger.context["asset"] != "codes" {
			t.Errorf("Expected asset to be 'codes', got %v", newLogger.context["asset"])
		}
	})

	t.Run("WithError", func(t *testing.T) {
		logger := NewStructuredLogger("test")
		testErr := errors.NewFileSystemError(errors.ErrCodeFileNotFound, "failed to read asset", nil).
			WithContext("asset", "employees")

		newLogger := logger.WithError(testErr)
		if _, ok := newLogger.context["error"]; !ok {
			t.Error("Expected error to be added to context")
		}
		if newLogger.context["error_code"] != errors.ErrCodeFileNotFound {
			t.Error("Expected error_code to be added for structured errors")
		}
		if newLogger.context["error_ctx_asset"] != "employees" {
			t.Error("Expected structured error context to be flattened")
		}
	})

	t.Run("WithError nil is a no-op", func(t *testing.T) {
		logger := NewStructuredLogger("test")
		if logger.WithError(nil) != logger {
			t.Error("Expected WithError(nil) to return the same logger")
		}
	})

	t.Run("Log levels", func(t *testing.T) {
		logger, buf := newTestLogger()

		logger.Debug("debug message")
		logger.Info("info message")
		logger.Warn("warn message")
		logger.Error("error message")

		output := buf.String()
		for _, want := range []string{"debug message", "info message", "warn message", "error message"} {
			if !strings.Contains(output, want) {
				t.Errorf("Expected %q in output", want)
			}
		}
	})

	t.Run("Context in output", func(t *testing.T) {
		logger, buf := newTestLogger()
		logger.WithContext("request_id", 7).
			WithContext("ipc_method", "read_code_json").
			Info("Invocation processed")

		var logEntry map[string]any
		if err := json.Unmarshal(buf.Bytes(), &logEntry); err != nil {
			t.Fatalf("Failed to parse log output: %v", err)
		}

		if logEntry["request_id"] != float64(7) {
			t.Error("Expected request_id in log output")
		}
		if logEntry["component"] != "test" {
			t.Error("Expected component in log output")
		}
		if logEntry["message"] != "Invocation processed" {
			t.Error("Expected message key in log output")
		}
		if _, ok := logEntry["timestamp"]; !ok {
			t.Error("Expected timestamp key in log output")
		}
	})

	t.Run("LogInvocation failure logs at warn", func(t *testing.T) {
		logger, buf := newTestLogger()
		logger.LogInvocation("read_code_json", 3, 5*time.Millisecond, false)

		if !strings.Contains(buf.String(), `"level":"WARN"`) {
			t.Errorf("Expected WARN level, got %s", buf.String())
		}
	})
}
