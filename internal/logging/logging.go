// Package logging provides categorized logging for dialogic, backed by zap.
// Each subsystem logs under its own category so a session transcript can be
// filtered down to, say, only gateway traffic. Logging defaults to a no-op
// until Initialize is called, so library code can log unconditionally.
package logging

import (
	"fmt"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Category labels a log stream by subsystem.
type Category string

const (
	CategorySession  Category = "session"  // scenario orchestration, turn lifecycle
	CategoryGateway  Category = "gateway"  // provider calls, streaming
	CategoryStore    Category = "store"    // persistence operations
	CategoryPrompt   Category = "prompt"   // instruction composition
	CategoryEnvelope Category = "envelope" // model output decoding
)

var (
	mu   sync.RWMutex
	root = zap.NewNop()
)

// Initialize installs the process-wide logger. Pass debug=true to enable
// debug-level output (the --verbose flag); otherwise only warnings and
// errors are emitted so the TUI stays quiet.
func Initialize(debug bool) error {
	cfg := zap.NewProductionConfig()
	cfg.OutputPaths = []string{"stderr"}
	if debug {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	} else {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	}
	logger, err := cfg.Build()
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	mu.Lock()
	root = logger
	mu.Unlock()
	return nil
}

// SetLogger replaces the process-wide logger. Used by tests and by callers
// that build their own zap configuration.
func SetLogger(logger *zap.Logger) {
	if logger == nil {
		logger = zap.NewNop()
	}
	mu.Lock()
	root = logger
	mu.Unlock()
}

// Sync flushes buffered log entries. Called on shutdown.
func Sync() {
	mu.RLock()
	defer mu.RUnlock()
	_ = root.Sync()
}

// Get returns the sugared logger for a category.
func Get(category Category) *zap.SugaredLogger {
	mu.RLock()
	defer mu.RUnlock()
	return root.Sugar().Named(string(category))
}

// Convenience helpers in the house style: Category + level in one call.

func SessionDebug(format string, args ...interface{}) {
	Get(CategorySession).Debugf(format, args...)
}

func GatewayDebug(format string, args ...interface{}) {
	Get(CategoryGateway).Debugf(format, args...)
}

func GatewayWarn(format string, args ...interface{}) {
	Get(CategoryGateway).Warnf(format, args...)
}

func StoreDebug(format string, args ...interface{}) {
	Get(CategoryStore).Debugf(format, args...)
}
