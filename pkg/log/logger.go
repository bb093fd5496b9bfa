// Structured logging for the stroke engine.
//
// Replaces the compile-time serial debug switches of typical motion firmware
// with a runtime-leveled logger: levels, structured fields, text or JSON
// output, ANSI colors on terminals and per-component prefixes.
//
// Copyright (C) 2026  Go Migration Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package log

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"
	"time"
)

// Level represents the severity of a log message.
type Level int

const (
	DEBUG Level = iota
	INFO
	WARN
	ERROR
)

func (l Level) String() string {
	switch l {
	case DEBUG:
		return "DEBUG"
	case INFO:
		return "INFO"
	case WARN:
		return "WARN"
	case ERROR:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel parses a level name, defaulting to INFO.
func ParseLevel(s string) Level {
	switch strings.ToUpper(s) {
	case "DEBUG":
		return DEBUG
	case "INFO":
		return INFO
	case "WARN", "WARNING":
		return WARN
	case "ERROR":
		return ERROR
	default:
		return INFO
	}
}

// Format selects the output encoding.
type Format int

const (
	FormatText Format = iota
	FormatJSON
)

// Fields is a set of structured key-value pairs attached to a message.
type Fields map[string]interface{}

var (
	ansiColors = map[Level]string{
		DEBUG: "\x1b[36m",
		INFO:  "\x1b[32m",
		WARN:  "\x1b[33m",
		ERROR: "\x1b[31m",
	}
	ansiReset = "\x1b[0m"
)

// Logger writes leveled log messages with an optional component prefix.
type Logger struct {
	mu         sync.Mutex
	prefix     string
	writer     io.Writer
	level      Level
	timeFormat string
	colorize   bool
	format     Format
}

// New creates a logger writing to stderr at INFO level.
func New(prefix string) *Logger {
	return &Logger{
		prefix:     prefix,
		writer:     os.Stderr,
		level:      INFO,
		timeFormat: "2006-01-02 15:04:05.000",
		colorize:   os.Getenv("NO_COLOR") == "",
		format:     FormatText,
	}
}

// SetLevel sets the minimum level emitted.
func (l *Logger) SetLevel(level Level) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.level = level
}

// GetLevel returns the current minimum level.
func (l *Logger) GetLevel() Level {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.level
}

// SetWriter redirects output, e.g. to a rotating file or a test buffer.
func (l *Logger) SetWriter(w io.Writer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.writer = w
}

// SetColorize enables or disables ANSI colors.
func (l *Logger) SetColorize(enable bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.colorize = enable
}

// SetFormat selects text or JSON output.
func (l *Logger) SetFormat(f Format) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.format = f
}

// WithPrefix returns a logger sharing all settings but with another prefix.
func (l *Logger) WithPrefix(prefix string) *Logger {
	l.mu.Lock()
	defer l.mu.Unlock()
	return &Logger{
		prefix:     prefix,
		writer:     l.writer,
		level:      l.level,
		timeFormat: l.timeFormat,
		colorize:   l.colorize,
		format:     l.format,
	}
}

// Entry carries structured fields toward a single log call.
type Entry struct {
	logger *Logger
	fields Fields
}

// WithField returns an Entry with one field attached.
func (l *Logger) WithField(key string, value interface{}) *Entry {
	return &Entry{logger: l, fields: Fields{key: value}}
}

// WithFields returns an Entry with the given fields attached.
func (l *Logger) WithFields(fields Fields) *Entry {
	return &Entry{logger: l, fields: fields}
}

// WithError returns an Entry with the error string attached.
func (l *Logger) WithError(err error) *Entry {
	return l.WithField("error", err.Error())
}

func (e *Entry) WithField(key string, value interface{}) *Entry {
	merged := make(Fields, len(e.fields)+1)
	for k, v := range e.fields {
		merged[k] = v
	}
	merged[key] = value
	return &Entry{logger: e.logger, fields: merged}
}

func (e *Entry) Debug(msg string) { e.logger.write(DEBUG, msg, e.fields) }
func (e *Entry) Info(msg string)  { e.logger.write(INFO, msg, e.fields) }
func (e *Entry) Warn(msg string)  { e.logger.write(WARN, msg, e.fields) }
func (e *Entry) Error(msg string) { e.logger.write(ERROR, msg, e.fields) }

func (e *Entry) Debugf(format string, args ...interface{}) {
	e.logger.write(DEBUG, fmt.Sprintf(format, args...), e.fields)
}

func (e *Entry) Infof(format string, args ...interface{}) {
	e.logger.write(INFO, fmt.Sprintf(format, args...), e.fields)
}

func (e *Entry) Warnf(format string, args ...interface{}) {
	e.logger.write(WARN, fmt.Sprintf(format, args...), e.fields)
}

func (e *Entry) Errorf(format string, args ...interface{}) {
	e.logger.write(ERROR, fmt.Sprintf(format, args...), e.fields)
}

// Debug logs a formatted message at DEBUG level.
func (l *Logger) Debug(msg string, args ...interface{}) { l.logf(DEBUG, msg, args...) }

// Info logs a formatted message at INFO level.
func (l *Logger) Info(msg string, args ...interface{}) { l.logf(INFO, msg, args...) }

// Warn logs a formatted message at WARN level.
func (l *Logger) Warn(msg string, args ...interface{}) { l.logf(WARN, msg, args...) }

// Error logs a formatted message at ERROR level.
func (l *Logger) Error(msg string, args ...interface{}) { l.logf(ERROR, msg, args...) }

func (l *Logger) logf(level Level, msg string, args ...interface{}) {
	if len(args) > 0 {
		msg = fmt.Sprintf(msg, args...)
	}
	l.write(level, msg, nil)
}

func (l *Logger) write(level Level, msg string, fields Fields) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if level < l.level {
		return
	}

	var out string
	if l.format == FormatJSON {
		out = l.formatJSON(level, msg, fields)
	} else {
		out = l.formatText(level, msg, fields)
	}
	fmt.Fprint(l.writer, out)
}

func (l *Logger) formatText(level Level, msg string, fields Fields) string {
	var sb strings.Builder

	sb.WriteString(time.Now().Format(l.timeFormat))
	sb.WriteString(" [")
	sb.WriteString(fmt.Sprintf("%-5s", level.String()))
	sb.WriteString("] ")

	if l.colorize {
		sb.WriteString(ansiColors[level])
	}
	sb.WriteString(l.prefix)
	if l.colorize {
		sb.WriteString(ansiReset)
	}
	sb.WriteString(": ")
	sb.WriteString(msg)

	if len(fields) > 0 {
		sb.WriteString(" {")
		keys := make([]string, 0, len(fields))
		for k := range fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for i, k := range keys {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(k)
			sb.WriteString("=")
			sb.WriteString(fmt.Sprintf("%v", fields[k]))
		}
		sb.WriteString("}")
	}

	sb.WriteString("\n")
	return sb.String()
}

type jsonEntry struct {
	Timestamp string                 `json:"timestamp"`
	Level     string                 `json:"level"`
	Logger    string                 `json:"logger"`
	Message   string                 `json:"message"`
	Fields    map[string]interface{} `json:"fields,omitempty"`
}

func (l *Logger) formatJSON(level Level, msg string, fields Fields) string {
	entry := jsonEntry{
		Timestamp: time.Now().Format(time.RFC3339Nano),
		Level:     level.String(),
		Logger:    l.prefix,
		Message:   msg,
		Fields:    fields,
	}
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Sprintf(`{"error":"failed to marshal log entry: %v"}`+"\n", err)
	}
	return string(data) + "\n"
}

// Package-level default logger

var (
	defaultMu     sync.Mutex
	defaultLogger *Logger
)

// SetDefaultLogger replaces the process-wide default logger.
func SetDefaultLogger(logger *Logger) {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultLogger = logger
}

// GetLogger returns a component logger derived from the default logger.
func GetLogger(prefix string) *Logger {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultLogger == nil {
		defaultLogger = New("stroked")
		configureFromEnv(defaultLogger)
	}
	return defaultLogger.WithPrefix(prefix)
}

// ConfigureFromEnv applies environment-based settings to the logger.
// Environment variables:
//   - STROKED_LOG_LEVEL: DEBUG, INFO, WARN, ERROR
//   - STROKED_LOG_FORMAT: text, json
//   - NO_COLOR: any non-empty value disables colors
func ConfigureFromEnv(l *Logger) {
	configureFromEnv(l)
}

func configureFromEnv(l *Logger) {
	if levelStr := os.Getenv("STROKED_LOG_LEVEL"); levelStr != "" {
		l.SetLevel(ParseLevel(levelStr))
	}
	switch strings.ToLower(os.Getenv("STROKED_LOG_FORMAT")) {
	case "json":
		l.SetFormat(FormatJSON)
	case "text":
		l.SetFormat(FormatText)
	}
	if os.Getenv("NO_COLOR") != "" {
		l.SetColorize(false)
	}
}
