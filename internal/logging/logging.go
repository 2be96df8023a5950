// Package logging writes one JSON object per line, the format every component
// of the service uses for its operational logs.
package logging

import (
	"encoding/json"
	"io"
	"os"
	"sync"
	"time"
)

// Logger serializes structured entries to an io.Writer.
// It is safe for concurrent use by multiple goroutines.
type Logger struct {
	mu  sync.Mutex
	w   io.Writer
	loc *time.Location
}

// New returns a Logger writing to w with timestamps in loc.
// A nil loc means UTC.
func New(w io.Writer, loc *time.Location) *Logger {
	if loc == nil {
		loc = time.UTC
	}
	return &Logger{w: w, loc: loc}
}

// Default logs to stdout in UTC.
func Default() *Logger {
	return New(os.Stdout, time.UTC)
}

// Location returns the time zone used for the ts field.
func (l *Logger) Location() *time.Location {
	return l.loc
}

// Info logs msg at info level with the given fields.
func (l *Logger) Info(msg string, fields map[string]any) {
	l.write("info", msg, fields)
}

// Error logs msg at error level. err, when non-nil, is stored under "error".
func (l *Logger) Error(msg string, err error, fields map[string]any) {
	if fields == nil {
		fields = map[string]any{}
	}
	if err != nil {
		fields["error"] = err.Error()
	}
	l.write("error", msg, fields)
}

// Log writes data as-is, adding ts and deriving level from status when absent.
func (l *Logger) Log(data map[string]any) {
	if _, ok := data["level"]; !ok {
		if data["status"] == "error" {
			data["level"] = "error"
		} else {
			data["level"] = "info"
		}
	}
	l.encode(data)
}

func (l *Logger) write(level, msg string, fields map[string]any) {
	entry := make(map[string]any, len(fields)+3)
	for k, v := range fields {
		entry[k] = v
	}
	entry["level"] = level
	entry["msg"] = msg
	l.encode(entry)
}

func (l *Logger) encode(entry map[string]any) {
	entry["ts"] = time.Now().In(l.loc).Format(time.RFC3339Nano)

	b, err := json.Marshal(entry)
	if err != nil {
		return
	}
	b = append(b, '\n')

	l.mu.Lock()
	defer l.mu.Unlock()
	_, _ = l.w.Write(b)
}
