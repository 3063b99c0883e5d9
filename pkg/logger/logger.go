package logger

import (
	"encoding/json"
	"fmt"
	"os"
	"runtime"
	"strings"
	"sync"
	"time"
)

type LogLevel string

const (
	LevelInfo  LogLevel = "INFO"
	LevelDebug LogLevel = "DEBUG"
	LevelError LogLevel = "ERROR"
)

type LogFields map[string]interface{}

type Logger interface {
	WithFields(fields LogFields) Logger

	Info(action, message string)
	Debug(action, message string)
	Error(action string, err error)
}

// jsonLogger writes one JSON object per log line.
type jsonLogger struct {
	mu         sync.Mutex // Ensures concurrent writes are safe
	out        *os.File
	service    string
	hostname   string
	baseFields LogFields // Fields attached to every entry (e.g. booking_id)
}

// logEntry is the wire shape of a log line. omitempty keeps entries clean.
type logEntry struct {
	Timestamp string   `json:"timestamp"`
	Level     LogLevel `json:"level"`
	Service   string   `json:"service"`
	Action    string   `json:"action"`
	Message   string   `json:"message"`
	Hostname  string   `json:"hostname"`
	RequestID string   `json:"request_id,omitempty"`
	BookingID string   `json:"booking_id,omitempty"`

	Error *errorEntry `json:"error,omitempty"`

	Fields LogFields `json:"fields,omitempty"`
}

type errorEntry struct {
	Msg   string `json:"msg"`
	Stack string `json:"stack"`
}

// NewLogger creates a structured JSON logger for a named service.
func NewLogger(serviceName string) Logger {
	host, err := os.Hostname()
	if err != nil {
		host = "unknown"
	}

	return &jsonLogger{
		out:        os.Stdout,
		service:    serviceName,
		hostname:   host,
		baseFields: make(LogFields),
	}
}

// WithFields returns a logger that inherits the base fields plus the given ones.
func (l *jsonLogger) WithFields(fields LogFields) Logger {
	newFields := make(LogFields, len(l.baseFields)+len(fields))
	for k, v := range l.baseFields {
		newFields[k] = v
	}
	for k, v := range fields {
		newFields[k] = v
	}

	return &jsonLogger{
		out:        l.out,
		service:    l.service,
		hostname:   l.hostname,
		baseFields: newFields,
	}
}

func (l *jsonLogger) Info(action, message string) {
	l.log(LevelInfo, action, message, nil)
}

func (l *jsonLogger) Debug(action, message string) {
	l.log(LevelDebug, action, message, nil)
}

// Error logs an error together with a cleaned stack trace.
func (l *jsonLogger) Error(action string, err error) {
	if err == nil {
		err = fmt.Errorf("unknown error")
	}
	buf := make([]byte, 4096)
	n := runtime.Stack(buf, false)

	errData := &errorEntry{
		Msg:   err.Error(),
		Stack: cleanStack(string(buf[:n])),
	}
	l.log(LevelError, action, err.Error(), errData)
}

func (l *jsonLogger) log(level LogLevel, action, message string, errData *errorEntry) {
	entry := &logEntry{
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
		Level:     level,
		Service:   l.service,
		Action:    action,
		Message:   message,
		Hostname:  l.hostname,
		Error:     errData,
		Fields:    make(LogFields),
	}

	// Promote the well-known fields, everything else goes into 'fields'.
	for k, v := range l.baseFields {
		switch k {
		case "booking_id":
			if id, ok := v.(string); ok {
				entry.BookingID = id
			}
		case "request_id":
			if id, ok := v.(string); ok {
				entry.RequestID = id
			}
		default:
			entry.Fields[k] = v
		}
	}
	if len(entry.Fields) == 0 {
		entry.Fields = nil
	}

	line, err := json.Marshal(entry)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to marshal log: %v\n", err)
		fmt.Fprintf(l.out, "%s [%s] %s: %s\n", entry.Timestamp, entry.Level, entry.Action, entry.Message)
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintln(l.out, string(line))
}

// cleanStack strips Go runtime internals from a stack trace.
func cleanStack(stack string) string {
	lines := strings.Split(stack, "\n")
	var cleaned []string

	if len(lines) > 0 {
		cleaned = append(cleaned, lines[0])
	}

	for i := 1; i < len(lines); i += 2 {
		if i+1 >= len(lines) {
			break
		}
		funcName := lines[i]
		filePath := lines[i+1]

		if strings.HasPrefix(funcName, "runtime.") ||
			strings.HasPrefix(funcName, "testing.") ||
			strings.Contains(funcName, "logger.Error") ||
			strings.Contains(filePath, "runtime/panic.go") {
			continue
		}

		cleaned = append(cleaned, funcName, "    "+strings.TrimSpace(filePath))
	}

	return strings.Join(cleaned, "\n")
}
