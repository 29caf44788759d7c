// Package logging provides structured JSON logging with trace ID
// support for the recommendation service.
package logging

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Logger is the structured logging interface used across the service.
type Logger interface {
	Debug(msg string, fields ...interface{})
	Info(msg string, fields ...interface{})
	Warn(msg string, fields ...interface{})
	Error(msg string, fields ...interface{})

	DebugContext(ctx context.Context, msg string, fields ...interface{})
	InfoContext(ctx context.Context, msg string, fields ...interface{})
	WarnContext(ctx context.Context, msg string, fields ...interface{})
	ErrorContext(ctx context.Context, msg string, fields ...interface{})

	WithComponent(component string) Logger
}

// LogLevel represents logging levels.
type LogLevel int

const (
	DEBUG LogLevel = iota
	INFO
	WARN
	ERROR
)

// ParseLogLevel parses a level name, defaulting to INFO.
func ParseLogLevel(level string) LogLevel {
	switch strings.ToUpper(level) {
	case "DEBUG":
		return DEBUG
	case "WARN", "WARNING":
		return WARN
	case "ERROR":
		return ERROR
	default:
		return INFO
	}
}

// ContextKey is the type for context values set by this package.
type ContextKey string

// TraceIDKey carries the request trace ID through contexts.
const TraceIDKey ContextKey = "trace_id"

// entry is the wire format of one log line.
type entry struct {
	Timestamp string                 `json:"timestamp"`
	Level     string                 `json:"level"`
	Message   string                 `json:"message"`
	TraceID   string                 `json:"trace_id,omitempty"`
	Component string                 `json:"component,omitempty"`
	Fields    map[string]interface{} `json:"fields,omitempty"`
}

// StructuredLogger writes JSON (or plain text) log lines to stdout.
type StructuredLogger struct {
	level     LogLevel
	component string
	useJSON   bool
}

// NewLogger creates a new JSON structured logger at the given level.
func NewLogger(level LogLevel) Logger {
	return NewLoggerWithFormat(level, "json")
}

// NewLoggerWithFormat creates a logger at the given level writing either
// "json" or "text" lines.
func NewLoggerWithFormat(level LogLevel, format string) Logger {
	return &StructuredLogger{
		level:   level,
		useJSON: !strings.EqualFold(format, "text"),
	}
}

// WithComponent returns a logger tagging every line with a component name.
func (l *StructuredLogger) WithComponent(component string) Logger {
	return &StructuredLogger{
		level:     l.level,
		component: component,
		useJSON:   l.useJSON,
	}
}

func (l *StructuredLogger) Debug(msg string, fields ...interface{}) {
	l.log(DEBUG, "DEBUG", msg, "", fields...)
}

func (l *StructuredLogger) Info(msg string, fields ...interface{}) {
	l.log(INFO, "INFO", msg, "", fields...)
}

func (l *StructuredLogger) Warn(msg string, fields ...interface{}) {
	l.log(WARN, "WARN", msg, "", fields...)
}

func (l *StructuredLogger) Error(msg string, fields ...interface{}) {
	l.log(ERROR, "ERROR", msg, "", fields...)
}

func (l *StructuredLogger) DebugContext(ctx context.Context, msg string, fields ...interface{}) {
	l.log(DEBUG, "DEBUG", msg, GetTraceID(ctx), fields...)
}

func (l *StructuredLogger) InfoContext(ctx context.Context, msg string, fields ...interface{}) {
	l.log(INFO, "INFO", msg, GetTraceID(ctx), fields...)
}

func (l *StructuredLogger) WarnContext(ctx context.Context, msg string, fields ...interface{}) {
	l.log(WARN, "WARN", msg, GetTraceID(ctx), fields...)
}

func (l *StructuredLogger) ErrorContext(ctx context.Context, msg string, fields ...interface{}) {
	l.log(ERROR, "ERROR", msg, GetTraceID(ctx), fields...)
}

func (l *StructuredLogger) log(level LogLevel, name, msg, traceID string, fields ...interface{}) {
	if l.level > level {
		return
	}

	fieldMap := make(map[string]interface{})
	for i := 0; i+1 < len(fields); i += 2 {
		fieldMap[fmt.Sprintf("%v", fields[i])] = fields[i+1]
	}

	e := entry{
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
		Level:     name,
		Message:   msg,
		TraceID:   traceID,
		Component: l.component,
		Fields:    fieldMap,
	}

	if l.useJSON {
		data, err := json.Marshal(e)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to marshal log entry: %v\n", err)
			return
		}
		fmt.Println(string(data))
		return
	}

	parts := []string{e.Timestamp, "[" + e.Level + "]"}
	if e.Component != "" {
		parts = append(parts, "component:"+e.Component)
	}
	if e.TraceID != "" {
		parts = append(parts, "trace:"+e.TraceID)
	}
	parts = append(parts, e.Message)
	for k, v := range e.Fields {
		parts = append(parts, fmt.Sprintf("%s=%v", k, v))
	}
	fmt.Println(strings.Join(parts, " "))
}

// Default logger instance and package-level convenience functions.
var defaultLogger = NewLogger(ParseLogLevel(os.Getenv("HEARTPET_LOG_LEVEL")))

func Debug(msg string, fields ...interface{}) { defaultLogger.Debug(msg, fields...) }
func Info(msg string, fields ...interface{})  { defaultLogger.Info(msg, fields...) }
func Warn(msg string, fields ...interface{})  { defaultLogger.Warn(msg, fields...) }
func Error(msg string, fields ...interface{}) { defaultLogger.Error(msg, fields...) }

// SetDefaultLogger replaces the package-level logger.
func SetDefaultLogger(logger Logger) {
	defaultLogger = logger
}

// WithComponent returns a component logger off the default instance.
func WithComponent(component string) Logger {
	return defaultLogger.WithComponent(component)
}

// GenerateTraceID returns a fresh trace ID.
func GenerateTraceID() string {
	return uuid.New().String()
}

// WithTraceID attaches a trace ID to the context, generating one if empty.
func WithTraceID(ctx context.Context, traceID string) context.Context {
	if traceID == "" {
		traceID = GenerateTraceID()
	}
	return context.WithValue(ctx, TraceIDKey, traceID)
}

// GetTraceID extracts the trace ID from a context, if any.
func GetTraceID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if traceID, ok := ctx.Value(TraceIDKey).(string); ok {
		return traceID
	}
	return ""
}
