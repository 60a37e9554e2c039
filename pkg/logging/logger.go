package logging

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// NewJSONLogger creates a new JSON logger
func NewJSONLogger(writer io.Writer, level Level) *JSONLogger {
	return New(writer, level, FormatJSON)
}

// NewTextLogger creates a logger that writes human-readable lines. Level
// names are coloured when the writer is a terminal.
func NewTextLogger(writer io.Writer, level Level) *JSONLogger {
	return New(writer, level, FormatText)
}

// New creates a logger with the given output format. Unknown formats fall
// back to JSON.
func New(writer io.Writer, level Level, format Format) *JSONLogger {
	if format != FormatText {
		format = FormatJSON
	}
	return &JSONLogger{
		sink: &sink{
			writer: writer,
			level:  level,
			format: format,
			now:    time.Now,
		},
		fields: make([]Field, 0),
	}
}

// NewDefaultLogger creates a logger that writes to stderr at INFO level.
// Stdout is left to command output.
func NewDefaultLogger() *JSONLogger {
	return NewJSONLogger(os.Stderr, InfoLevel)
}

// log is the internal logging method
func (l *JSONLogger) log(level Level, msg string, fields ...Field) {
	s := l.sink
	s.mu.Lock()
	defer s.mu.Unlock()

	if level < s.level {
		return
	}

	// Later fields override pre-set ones with the same key
	fieldMap := make(map[string]any, len(l.fields)+len(fields))
	for _, f := range l.fields {
		fieldMap[f.Key] = f.Value
	}
	for _, f := range fields {
		fieldMap[f.Key] = f.Value
	}

	var data []byte
	if s.format == FormatText {
		data = s.renderText(level, msg, fieldMap)
	} else {
		entry := LogEntry{
			Time:    s.now().Format(time.RFC3339Nano),
			Level:   level.String(),
			Message: msg,
		}
		if len(fieldMap) > 0 {
			entry.Fields = fieldMap
		}
		var err error
		data, err = json.Marshal(entry)
		if err != nil {
			fmt.Fprintf(s.writer, "[ERROR] Failed to marshal log entry: %v\n", err)
			return
		}
	}

	s.writer.Write(data)
	s.writer.Write([]byte("\n"))
}

var levelColors = map[Level]lipgloss.Color{
	DebugLevel: lipgloss.Color("8"),
	InfoLevel:  lipgloss.Color("12"),
	WarnLevel:  lipgloss.Color("11"),
	ErrorLevel: lipgloss.Color("9"),
}

// renderText formats "time LEVEL msg key=value ..." with keys sorted.
func (s *sink) renderText(level Level, msg string, fields map[string]any) []byte {
	style := lipgloss.NewRenderer(s.writer).NewStyle().
		Foreground(levelColors[level]).
		Bold(level >= WarnLevel).
		Width(5)

	var b strings.Builder
	b.WriteString(s.now().Format("15:04:05.000"))
	b.WriteByte(' ')
	b.WriteString(style.Render(level.String()))
	b.WriteByte(' ')
	b.WriteString(msg)

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		b.WriteByte(' ')
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(textValue(fields[k]))
	}
	return []byte(b.String())
}

func textValue(v any) string {
	if v == nil {
		return "<nil>"
	}
	s := fmt.Sprint(v)
	if s == "" || strings.ContainsAny(s, " \t\"=") {
		return fmt.Sprintf("%q", s)
	}
	return s
}

// Debug logs a debug-level message
func (l *JSONLogger) Debug(msg string, fields ...Field) {
	l.log(DebugLevel, msg, fields...)
}

// Info logs an info-level message
func (l *JSONLogger) Info(msg string, fields ...Field) {
	l.log(InfoLevel, msg, fields...)
}

// Warn logs a warning-level message
func (l *JSONLogger) Warn(msg string, fields ...Field) {
	l.log(WarnLevel, msg, fields...)
}

// Error logs an error-level message
func (l *JSONLogger) Error(msg string, fields ...Field) {
	l.log(ErrorLevel, msg, fields...)
}

// With creates a child logger with the given fields pre-set. The child
// shares the parent's writer and level.
func (l *JSONLogger) With(fields ...Field) Logger {
	newFields := make([]Field, len(l.fields)+len(fields))
	copy(newFields, l.fields)
	copy(newFields[len(l.fields):], fields)

	return &JSONLogger{
		sink:   l.sink,
		fields: newFields,
	}
}

// SetLevel sets the minimum log level
func (l *JSONLogger) SetLevel(level Level) {
	l.sink.mu.Lock()
	defer l.sink.mu.Unlock()
	l.sink.level = level
}

// GetLevel returns the current log level
func (l *JSONLogger) GetLevel() Level {
	l.sink.mu.Lock()
	defer l.sink.mu.Unlock()
	return l.sink.level
}

// Global default logger
var (
	defaultMu     sync.RWMutex
	defaultLogger Logger
	once          sync.Once
)

// DefaultLogger returns the global default logger. PATCHPLAN_LOG_LEVEL sets
// its level until SetDefaultLogger replaces it.
func DefaultLogger() Logger {
	once.Do(func() {
		level := ParseLevel(os.Getenv("PATCHPLAN_LOG_LEVEL"))
		defaultMu.Lock()
		if defaultLogger == nil {
			defaultLogger = NewJSONLogger(os.Stderr, level)
		}
		defaultMu.Unlock()
	})
	defaultMu.RLock()
	defer defaultMu.RUnlock()
	return defaultLogger
}

// SetDefaultLogger sets the global default logger
func SetDefaultLogger(logger Logger) {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultLogger = logger
}

// Debug logs a debug-level message using the default logger
func Debug(msg string, fields ...Field) {
	DefaultLogger().Debug(msg, fields...)
}

// Info logs an info-level message using the default logger
func Info(msg string, fields ...Field) {
	DefaultLogger().Info(msg, fields...)
}

// Warn logs a warning-level message using the default logger
func Warn(msg string, fields ...Field) {
	DefaultLogger().Warn(msg, fields...)
}

// ErrorLog logs an error-level message using the default logger.
// Named ErrorLog to avoid conflict with the Error field constructor.
func ErrorLog(msg string, fields ...Field) {
	DefaultLogger().Error(msg, fields...)
}

// With creates a child of the default logger with the given fields pre-set
func With(fields ...Field) Logger {
	return DefaultLogger().With(fields...)
}

// StartTimer begins timing an operation
func StartTimer(logger Logger, msg string, fields ...Field) *TimedOperation {
	return &TimedOperation{
		logger: logger,
		msg:    msg,
		start:  time.Now(),
		fields: fields,
	}
}

// End logs the operation at info level with its wall-clock latency
func (t *TimedOperation) End(extra ...Field) {
	t.EndWithLevel(InfoLevel, t.msg, extra...)
}

// EndWithLevel logs the operation at the specified level with its latency
func (t *TimedOperation) EndWithLevel(level Level, msg string, extra ...Field) {
	fields := make([]Field, 0, len(t.fields)+len(extra)+1)
	fields = append(fields, t.fields...)
	fields = append(fields, extra...)
	fields = append(fields, Latency(time.Since(t.start)))
	switch level {
	case DebugLevel:
		t.logger.Debug(msg, fields...)
	case InfoLevel:
		t.logger.Info(msg, fields...)
	case WarnLevel:
		t.logger.Warn(msg, fields...)
	default:
		t.logger.Error(msg, fields...)
	}
}

// EndError logs the operation as an error with its latency
func (t *TimedOperation) EndError(err error) {
	t.EndWithLevel(ErrorLevel, t.msg, Error(err))
}
