// Package logger wraps zap for structured logging.
package logger

import (
	"fmt"
	"io"
	"os"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	log     *zap.Logger
	once    sync.Once
	mu      sync.Mutex
	logFile string // no file output unless set
	level   = zap.NewAtomicLevelAt(zap.WarnLevel)
	console io.Writer = os.Stderr
)

// SetLogPath sets the JSON log file. Must be called before InitLogger.
func SetLogPath(path string) {
	mu.Lock()
	defer mu.Unlock()
	logFile = path
}

// SetOutput redirects console logging. Must be called before InitLogger.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	console = w
}

// SetLevel parses and applies a level name such as "debug" or "warn". It may
// be called at any time.
func SetLevel(name string) error {
	var l zapcore.Level
	if err := l.UnmarshalText([]byte(name)); err != nil {
		return fmt.Errorf("invalid log level %q: %w", name, err)
	}
	level.SetLevel(l)
	return nil
}

// InitLogger initializes the Zap logger with structured logging.
func InitLogger() {
	once.Do(func() {
		mu.Lock()
		defer mu.Unlock()

		// Console logging goes to stderr so reports on stdout stay clean
		consoleEncoder := zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig())
		cores := []zapcore.Core{
			zapcore.NewCore(consoleEncoder, zapcore.AddSync(console), level),
		}

		// Optional file logging
		if logFile != "" {
			file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
			if err != nil {
				fmt.Fprintf(os.Stderr, "failed to open log file %s: %v\n", logFile, err)
			} else {
				fileEncoder := zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
				cores = append(cores, zapcore.NewCore(fileEncoder, zapcore.AddSync(file), level))
			}
		}

		log = zap.New(zapcore.NewTee(cores...), zap.AddCaller())
	})
}

// GetLogger provides access to the initialized logger.
func GetLogger() *zap.Logger {
	InitLogger()
	return log
}

// Sync ensures buffered logs are written before the application exits.
func Sync() {
	if log != nil {
		_ = log.Sync()
	}
}

// ResetLogger discards the current logger so the next call initializes a new
// one. Intended for tests.
func ResetLogger() {
	Sync()
	mu.Lock()
	defer mu.Unlock()
	log = nil
	once = sync.Once{}
	logFile = ""
	console = os.Stderr
	level.SetLevel(zap.WarnLevel)
}
