// Package logging provides categorized file-based logging for tablenerd.
// Logs are written to <workspace>/.tablenerd/logs/ with one file per
// category. The service is initialized once at startup with explicit
// settings and torn down with Close; when debug mode is off every call
// is a silent no-op.
package logging

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Category represents a log category/system.
type Category string

const (
	CategoryBoot       Category = "boot"       // Startup and initialization
	CategoryAgent      Category = "agent"      // Orchestrator planning loop
	CategoryTools      Category = "tools"      // Tool execution
	CategoryTable      Category = "table"      // Table ingest/egress
	CategoryPerception Category = "perception" // LLM API calls
	CategoryStore      Category = "store"      // Session store operations
)

// Log levels.
const (
	LevelDebug = 0
	LevelInfo  = 1
	LevelWarn  = 2
	LevelError = 3
)

// Settings controls the logging service. Passed explicitly at Initialize
// so the package never reads configuration on its own.
type Settings struct {
	DebugMode  bool
	Level      string
	Categories map[string]bool // nil = all categories enabled
}

// Logger wraps a standard logger with category and file output.
type Logger struct {
	category Category
	logger   *log.Logger
	file     *os.File
}

var (
	mu       sync.RWMutex
	loggers  = make(map[Category]*Logger)
	logsDir  string
	settings Settings
	logLevel = LevelInfo
)

// Initialize sets up the logging directory. Should be called once at
// startup with the workspace path. A disabled debug mode makes the whole
// package a no-op without touching the filesystem.
func Initialize(workspace string, s Settings) error {
	if workspace == "" {
		return fmt.Errorf("workspace path required")
	}

	mu.Lock()
	settings = s
	logLevel = parseLevel(s.Level)
	logsDir = filepath.Join(workspace, ".tablenerd", "logs")
	enabled := s.DebugMode
	mu.Unlock()

	if !enabled {
		return nil
	}
	if err := os.MkdirAll(logsDir, 0755); err != nil {
		return fmt.Errorf("failed to create logs directory: %w", err)
	}

	boot := Get(CategoryBoot)
	boot.Info("=== tablenerd logging initialized ===")
	boot.Info("Logs directory: %s", logsDir)
	boot.Info("Log level: %s", s.Level)
	return nil
}

// Close flushes and closes every open log file. Safe to call when
// logging was never initialized.
func Close() {
	mu.Lock()
	defer mu.Unlock()
	for cat, l := range loggers {
		if l.file != nil {
			_ = l.file.Close()
		}
		delete(loggers, cat)
	}
	logsDir = ""
}

// IsCategoryEnabled reports whether a category currently logs.
func IsCategoryEnabled(category Category) bool {
	mu.RLock()
	defer mu.RUnlock()
	if !settings.DebugMode {
		return false
	}
	if settings.Categories == nil {
		return true
	}
	enabled, exists := settings.Categories[string(category)]
	if !exists {
		return true
	}
	return enabled
}

// Get returns (or creates) a logger for the given category. Returns a
// no-op logger if the category is disabled.
func Get(category Category) *Logger {
	if !IsCategoryEnabled(category) {
		return &Logger{category: category}
	}

	mu.RLock()
	if l, ok := loggers[category]; ok {
		mu.RUnlock()
		return l
	}
	dir := logsDir
	mu.RUnlock()

	if dir == "" {
		return &Logger{category: category}
	}

	mu.Lock()
	defer mu.Unlock()
	if l, ok := loggers[category]; ok {
		return l
	}

	// Date prefix keeps rotation a matter of deleting old files.
	date := time.Now().Format("2006-01-02")
	logPath := filepath.Join(dir, fmt.Sprintf("%s_%s.log", date, category))
	file, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		fmt.Fprintf(os.Stderr, "[logging] warning: could not open log file %s: %v\n", logPath, err)
		return &Logger{category: category}
	}

	l := &Logger{
		category: category,
		file:     file,
		logger:   log.New(file, "", log.Ldate|log.Ltime|log.Lmicroseconds),
	}
	loggers[category] = l
	return l
}

// Debug logs a debug message.
func (l *Logger) Debug(format string, args ...any) { l.write(LevelDebug, "DEBUG", format, args...) }

// Info logs an informational message.
func (l *Logger) Info(format string, args ...any) { l.write(LevelInfo, "INFO", format, args...) }

// Warn logs a warning message.
func (l *Logger) Warn(format string, args ...any) { l.write(LevelWarn, "WARN", format, args...) }

// Error logs an error message.
func (l *Logger) Error(format string, args ...any) { l.write(LevelError, "ERROR", format, args...) }

func (l *Logger) write(level int, tag, format string, args ...any) {
	if l.logger == nil {
		return
	}
	mu.RLock()
	min := logLevel
	mu.RUnlock()
	if level < min {
		return
	}
	l.logger.Printf("[%s] %s", tag, fmt.Sprintf(format, args...))
}

func parseLevel(level string) int {
	switch level {
	case "debug":
		return LevelDebug
	case "info", "":
		return LevelInfo
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

// Category convenience wrappers, matching call sites across the repo.

func Agent(format string, args ...any)      { Get(CategoryAgent).Info(format, args...) }
func AgentDebug(format string, args ...any) { Get(CategoryAgent).Debug(format, args...) }
func AgentError(format string, args ...any) { Get(CategoryAgent).Error(format, args...) }

func Tools(format string, args ...any)      { Get(CategoryTools).Info(format, args...) }
func ToolsDebug(format string, args ...any) { Get(CategoryTools).Debug(format, args...) }

func Table(format string, args ...any)      { Get(CategoryTable).Info(format, args...) }
func TableDebug(format string, args ...any) { Get(CategoryTable).Debug(format, args...) }

func Perception(format string, args ...any)      { Get(CategoryPerception).Info(format, args...) }
func PerceptionDebug(format string, args ...any) { Get(CategoryPerception).Debug(format, args...) }
func PerceptionWarn(format string, args ...any)  { Get(CategoryPerception).Warn(format, args...) }
func PerceptionError(format string, args ...any) { Get(CategoryPerception).Error(format, args...) }

func Store(format string, args ...any)      { Get(CategoryStore).Info(format, args...) }
func StoreDebug(format string, args ...any) { Get(CategoryStore).Debug(format, args...) }
func StoreError(format string, args ...any) { Get(CategoryStore).Error(format, args...) }
