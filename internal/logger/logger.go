package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	defaultMaxSizeMB  = 10
	defaultMaxBackups = 3
	defaultMaxAgeDays = 28
)

var (
	mu          sync.RWMutex
	debugLogger *log.Logger

	DebugEnabled = false

	logFile io.WriteCloser
)

// Options controls rotation of the debug log file.
type Options struct {
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

// InitLogging sets up logging based on configuration. Nothing is written
// unless debugMode is set; an empty logPath sends debug output to stderr.
func InitLogging(debugMode bool, logPath string, opts ...Options) error {
	mu.Lock()
	defer mu.Unlock()

	DebugEnabled = debugMode
	if !DebugEnabled {
		return nil
	}

	if logPath == "" {
		debugLogger = log.New(os.Stderr, "", log.Ldate|log.Ltime|log.Lmicroseconds)
		return nil
	}

	err := os.MkdirAll(filepath.Dir(logPath), 0o755)
	if err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}

	o := Options{MaxSizeMB: defaultMaxSizeMB, MaxBackups: defaultMaxBackups, MaxAgeDays: defaultMaxAgeDays}
	if len(opts) > 0 {
		o = opts[0]
	}

	rotating := &lumberjack.Logger{
		Filename:   logPath,
		MaxSize:    o.MaxSizeMB,
		MaxBackups: o.MaxBackups,
		MaxAge:     o.MaxAgeDays,
		Compress:   o.Compress,
	}

	logFile = rotating
	debugLogger = log.New(rotating, "", log.Ldate|log.Ltime|log.Lmicroseconds|log.Lshortfile)

	return nil
}

// SetOutput routes debug output to w and enables debug mode. Used by tests.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()

	DebugEnabled = true
	debugLogger = log.New(w, "", 0)
}

// Close closes the log file if open.
func Close() {
	mu.Lock()
	defer mu.Unlock()

	if logFile != nil {
		logFile.Close()
		logFile = nil
	}

	debugLogger = nil
	DebugEnabled = false
}

func Infof(format string, v ...interface{}) {
	output("[INFO] ", format, v...)
}

// Errorf logs an error message if debug mode is enabled.
func Errorf(format string, v ...interface{}) {
	output("[ERROR] ", format, v...)
}

func Debugf(format string, v ...interface{}) {
	output("[DEBUG] ", format, v...)
}

func Warnf(format string, v ...interface{}) {
	output("[WARNING] ", format, v...)
}

func output(level, format string, v ...interface{}) {
	mu.RLock()
	defer mu.RUnlock()

	if DebugEnabled && debugLogger != nil {
		debugLogger.Output(3, level+fmt.Sprintf(format, v...))
	}
}
