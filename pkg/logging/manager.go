package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"
)

// LoggingManager manages structured logging across the application
type LoggingManager struct {
	loggers map[string]*StructuredLogger
	mutex   sync.RWMutex

	handler slog.Handler
	level   *slog.LevelVar

	// Global context that gets added to all log entries
	globalContext LogContext

	stats LoggingStats
}

// LoggingStats tracks logging statistics
type LoggingStats struct {
	TotalMessages    int64            `json:"totalMessages"`
	MessagesByLevel  map[string]int64 `json:"messagesByLevel"`
	MessagesByLogger map[string]int64 `json:"messagesByLogger"`
	ErrorCount       int64            `json:"errorCount"`
	LastLogTime      time.Time        `json:"lastLogTime"`
}

// NewLoggingManager creates a new logging manager writing to stderr
func NewLoggingManager() *LoggingManager {
	return NewLoggingManagerWithWriter(os.Stderr)
}

// NewLoggingManagerWithWriter creates a logging manager writing to w
func NewLoggingManagerWithWriter(w io.Writer) *LoggingManager {
	level := new(slog.LevelVar)
	level.Set(slog.LevelInfo)

	return &LoggingManager{
		loggers:       make(map[string]*StructuredLogger),
		handler:       newJSONHandler(w, level),
		level:         level,
		globalContext: make(LogContext),
		stats: LoggingStats{
			MessagesByLevel:  make(map[string]int64),
			MessagesByLogger: make(map[string]int64),
		},
	}
}

// GetLogger gets or creates a logger for a specific component
func (lm *LoggingManager) GetLogger(component string) *StructuredLogger {
	lm.mutex.Lock()
	defer lm.mutex.Unlock()

	if logger, exists := lm.loggers[component]; exists {
		return logger
	}

	logger := newStructuredLoggerWithHandler(component, lm.handler)
	for key, value := range lm.globalContext {
		logger = logger.WithContext(key, value)
	}

	lm.loggers[component] = logger
	return logger
}

// SetLogLevel sets the logging level for all loggers.
// Invalid levels fall back to INFO.
func (lm *LoggingManager) SetLogLevel(level string) {
	lm.level.Set(ParseLevel(level))
}

// Level returns the active logging level
func (lm *LoggingManager) Level() slog.Level {
	return lm.level.Level()
}

// ParseLevel converts a level name to a slog level, defaulting to INFO
func ParseLevel(level string) slog.Level {
	switch strings.ToUpper(strings.TrimSpace(level)) {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// SetGlobalContext sets global context that will be added to all log entries
func (lm *LoggingManager) SetGlobalContext(key string, value interface{}) {
	lm.mutex.Lock()
	defer lm.mutex.Unlock()

	lm.globalContext[key] = value

	for component, logger := range lm.loggers {
		lm.loggers[component] = logger.WithContext(key, value)
	}
}

// GetGlobalContext returns a copy of the global context
func (lm *LoggingManager) GetGlobalContext() LogContext {
	lm.mutex.RLock()
	defer lm.mutex.RUnlock()

	context := make(LogContext, len(lm.globalContext))
	for k, v := range lm.globalContext {
		context[k] = v
	}
	return context
}

// LogError logs an error with full context
func (lm *LoggingManager) LogError(component string, err error, message string, context map[string]interface{}) {
	logger := lm.GetLogger(component).WithError(err)

	for k, v := range context {
		logger = logger.WithContext(k, v)
	}

	logger.Error(message)
	lm.updateStats(component, "ERROR")
}

// LogInvoke logs a host invocation with timing
func (lm *LoggingManager) LogInvoke(method string, requestID interface{}, duration time.Duration, success bool, errorMsg string) {
	logger := lm.GetLogger("ipc")

	if !success && errorMsg != "" {
		logger = logger.WithContext("error_message", errorMsg)
	}

	logger.LogInvocation(method, requestID, duration, success)

	level := "DEBUG"
	if !success {
		level = "WARN"
	}
	lm.updateStats("ipc", level)
}

// LogAssetEvent logs asset watcher events
func (lm *LoggingManager) LogAssetEvent(eventType, asset, path string) {
	lm.GetLogger("asset_watch").LogAssetEvent(eventType, asset, path)
	lm.updateStats("asset_watch", "INFO")
}

// LogStartupSequence logs application startup sequence
func (lm *LoggingManager) LogStartupSequence(phase string, details map[string]interface{}, duration time.Duration, success bool) {
	startupDetails := make(map[string]interface{}, len(details)+2)
	for k, v := range details {
		startupDetails[k] = v
	}
	startupDetails["duration_ms"] = duration.Milliseconds()
	startupDetails["success"] = success

	lm.GetLogger("startup").LogStartup(phase, startupDetails)

	level := "INFO"
	if !success {
		level = "ERROR"
	}
	lm.updateStats("startup", level)
}

// LogShutdownSequence logs application shutdown sequence
func (lm *LoggingManager) LogShutdownSequence(phase string, details map[string]interface{}, duration time.Duration, success bool) {
	shutdownDetails := make(map[string]interface{}, len(details)+2)
	for k, v := range details {
		shutdownDetails[k] = v
	}
	shutdownDetails["duration_ms"] = duration.Milliseconds()
	shutdownDetails["success"] = success

	lm.GetLogger("shutdown").LogShutdown(phase, shutdownDetails)

	level := "INFO"
	if !success {
		level = "ERROR"
	}
	lm.updateStats("shutdown", level)
}

func (lm *LoggingManager) updateStats(component, level string) {
	lm.mutex.Lock()
	defer lm.mutex.Unlock()

	lm.stats.TotalMessages++
	lm.stats.MessagesByLevel[level]++
	lm.stats.MessagesByLogger[component]++
	lm.stats.LastLogTime = time.Now()

	if level == "ERROR" {
		lm.stats.ErrorCount++
	}
}

// GetStats returns current logging statistics
func (lm *LoggingManager) GetStats() LoggingStats {
	lm.mutex.RLock()
	defer lm.mutex.RUnlock()

	stats := LoggingStats{
		TotalMessages:    lm.stats.TotalMessages,
		ErrorCount:       lm.stats.ErrorCount,
		LastLogTime:      lm.stats.LastLogTime,
		MessagesByLevel:  make(map[string]int64, len(lm.stats.MessagesByLevel)),
		MessagesByLogger: make(map[string]int64, len(lm.stats.MessagesByLogger)),
	}

	for k, v := range lm.stats.MessagesByLevel {
		stats.MessagesByLevel[k] = v
	}
	for k, v := range lm.stats.MessagesByLogger {
		stats.MessagesByLogger[k] = v
	}

	return stats
}
