// Package logging provides the leveled, component-tagged logger shared by
// every package in the detector.
//
// Output goes through the standard log package to stderr by default, with
// date, time and source location. The minimum severity is read once from
// PLANAR_LOG_LEVEL and can be changed at runtime with SetLevel.
package logging

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync"
)

// Severity orders log records from most to least important.
type Severity int

const (
	SeverityNone Severity = iota
	SeverityFatal
	SeverityError
	SeverityWarning
	SeverityInfo
	SeverityDebug
	SeverityVerbose
)

// String returns the upper-case tag printed in front of each record.
func (s Severity) String() string {
	switch s {
	case SeverityFatal:
		return "FATAL"
	case SeverityError:
		return "ERROR"
	case SeverityWarning:
		return "WARN"
	case SeverityInfo:
		return "INFO"
	case SeverityDebug:
		return "DEBUG"
	case SeverityVerbose:
		return "VERBOSE"
	default:
		return "NONE"
	}
}

// ParseSeverity maps a level name ("error", "debug", ...) to a Severity.
// Unknown names return SeverityInfo and false.
func ParseSeverity(name string) (Severity, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "none", "off":
		return SeverityNone, true
	case "fatal":
		return SeverityFatal, true
	case "error":
		return SeverityError, true
	case "warn", "warning":
		return SeverityWarning, true
	case "info":
		return SeverityInfo, true
	case "debug":
		return SeverityDebug, true
	case "verbose", "verb", "trace":
		return SeverityVerbose, true
	}
	return SeverityInfo, false
}

var (
	mu       sync.Mutex
	minLevel = levelFromEnv()
	sink     = log.New(os.Stderr, "", log.Ldate|log.Ltime|log.Lshortfile)
)

func levelFromEnv() Severity {
	level, _ := ParseSeverity(os.Getenv("PLANAR_LOG_LEVEL"))
	return level
}

// SetLevel sets the minimum severity written by every Logger.
func SetLevel(level Severity) {
	mu.Lock()
	minLevel = level
	mu.Unlock()
}

// Level returns the current minimum severity.
func Level() Severity {
	mu.Lock()
	defer mu.Unlock()
	return minLevel
}

// SetOutput redirects all loggers. Tests use it to capture records.
func SetOutput(w io.Writer) {
	mu.Lock()
	sink.SetOutput(w)
	mu.Unlock()
}

// Logger writes records tagged with a component name.
type Logger struct {
	component string
}

// New returns a logger for the named component.
func New(component string) *Logger {
	return &Logger{component: component}
}

// Enabled reports whether records at level would be written.
func (l *Logger) Enabled(level Severity) bool {
	return level != SeverityNone && level <= Level()
}

func (l *Logger) logf(level Severity, format string, args ...interface{}) {
	mu.Lock()
	defer mu.Unlock()
	if level == SeverityNone || level > minLevel {
		return
	}
	msg := fmt.Sprintf(format, args...)
	// depth 3: Output <- logf <- Errorf/Infof/... <- caller
	sink.Output(3, fmt.Sprintf("%-7s [%s] %s", level, l.component, msg))
}

// Errorf logs at error severity.
func (l *Logger) Errorf(format string, args ...interface{}) {
	l.logf(SeverityError, format, args...)
}

// Warnf logs at warning severity.
func (l *Logger) Warnf(format string, args ...interface{}) {
	l.logf(SeverityWarning, format, args...)
}

// Infof logs at info severity.
func (l *Logger) Infof(format string, args ...interface{}) {
	l.logf(SeverityInfo, format, args...)
}

// Debugf logs at debug severity.
func (l *Logger) Debugf(format string, args ...interface{}) {
	l.logf(SeverityDebug, format, args...)
}

// Verbosef logs at verbose severity.
func (l *Logger) Verbosef(format string, args ...interface{}) {
	l.logf(SeverityVerbose, format, args...)
}
