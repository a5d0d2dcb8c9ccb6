// Package logging provides the leveled, structured logger shared by every
// zor component.
//
// A Logger is built once per invocation and handed to the components that
// need it; there is no package-level default.
//
//	logger := logging.New(logging.Options{
//	    Level:  logging.LevelDebug,
//	    Format: logging.FormatJSON,
//	    Output: os.Stderr,
//	})
//
//	logger.Warn("Skipping unreadable file", logging.Fields{
//	    "path": "src/secret.txt",
//	})
package logging

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"
	"time"
)

// Level orders log records by severity
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
	// LevelNone disables all logging
	LevelNone
)

var levelNames = map[Level]string{
	LevelDebug: "DEBUG",
	LevelInfo:  "INFO",
	LevelWarn:  "WARN",
	LevelError: "ERROR",
}

func (l Level) String() string {
	if name, ok := levelNames[l]; ok {
		return name
	}
	return "UNKNOWN"
}

// ParseLevel reads a --log-level value. Unknown values map to LevelWarn,
// the CLI default.
func ParseLevel(s string) Level {
	name := strings.ToUpper(strings.TrimSpace(s))
	switch name {
	case "WARNING":
		return LevelWarn
	case "NONE", "OFF":
		return LevelNone
	}
	for level, n := range levelNames {
		if n == name {
			return level
		}
	}
	return LevelWarn
}

// Format selects how records are encoded
type Format int

const (
	// FormatText is one human-readable line per record
	FormatText Format = iota
	// FormatJSON is one JSON object per line
	FormatJSON
)

// ParseFormat maps "json" to FormatJSON and everything else to FormatText.
func ParseFormat(s string) Format {
	if strings.EqualFold(strings.TrimSpace(s), "json") {
		return FormatJSON
	}
	return FormatText
}

// Fields is a map of structured log fields
type Fields map[string]interface{}

// Record is one encoded log line
type Record struct {
	Timestamp time.Time `json:"timestamp"`
	Level     string    `json:"level"`
	Message   string    `json:"message"`
	Fields    Fields    `json:"fields,omitempty"`
	Error     string    `json:"error,omitempty"`
}

type encoder func(buf *bytes.Buffer, r Record)

var encoders = map[Format]encoder{
	FormatText: encodeText,
	FormatJSON: encodeJSON,
}

// Options configures the logger
type Options struct {
	Level  Level
	Format Format
	Output io.Writer
}

// Logger writes records at or above its level to one output
type Logger struct {
	mu     sync.Mutex
	level  Level
	encode encoder
	output io.Writer
	now    func() time.Time
}

// New creates a Logger. A nil Output means stderr.
func New(opts Options) *Logger {
	if opts.Output == nil {
		opts.Output = os.Stderr
	}
	enc, ok := encoders[opts.Format]
	if !ok {
		enc = encodeText
	}
	return &Logger{
		level:  opts.Level,
		encode: enc,
		output: opts.Output,
		now:    time.Now,
	}
}

// Nop returns a logger that discards everything.
func Nop() *Logger {
	return New(Options{Level: LevelNone, Output: io.Discard})
}

func (l *Logger) SetLevel(level Level) {
	l.mu.Lock()
	l.level = level
	l.mu.Unlock()
}

func (l *Logger) Level() Level {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.level
}

// Enabled reports whether messages at level would be written. Callers use it
// to skip building expensive fields such as HTTP bodies.
func (l *Logger) Enabled(level Level) bool {
	return level != LevelNone && level >= l.Level()
}

func (l *Logger) Debug(msg string, fields ...Fields) {
	l.emit(LevelDebug, msg, nil, nil, fields)
}

func (l *Logger) Info(msg string, fields ...Fields) {
	l.emit(LevelInfo, msg, nil, nil, fields)
}

func (l *Logger) Warn(msg string, fields ...Fields) {
	l.emit(LevelWarn, msg, nil, nil, fields)
}

func (l *Logger) Error(msg string, err error, fields ...Fields) {
	l.emit(LevelError, msg, err, nil, fields)
}

// WithFields returns a logger that adds fields to every record
func (l *Logger) WithFields(fields Fields) *FieldLogger {
	return &FieldLogger{logger: l, fields: merge(nil, []Fields{fields})}
}

// emit merges base and extra (later keys win) and writes one line
func (l *Logger) emit(level Level, msg string, err error, base Fields, extra []Fields) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if level < l.level || level == LevelNone {
		return
	}

	r := Record{
		Timestamp: l.now(),
		Level:     level.String(),
		Message:   msg,
		Fields:    merge(base, extra),
	}
	if err != nil {
		r.Error = err.Error()
	}

	var buf bytes.Buffer
	l.encode(&buf, r)
	buf.WriteByte('\n')
	_, _ = l.output.Write(buf.Bytes())
}

func merge(base Fields, extra []Fields) Fields {
	n := len(base)
	for _, f := range extra {
		n += len(f)
	}
	if n == 0 {
		return nil
	}
	out := make(Fields, n)
	for k, v := range base {
		out[k] = v
	}
	for _, f := range extra {
		for k, v := range f {
			out[k] = v
		}
	}
	return out
}

func encodeJSON(buf *bytes.Buffer, r Record) {
	data, err := json.Marshal(r)
	if err != nil {
		fmt.Fprintf(buf, `{"level":%q,"message":%q,"error":"unencodable fields: %s"}`, r.Level, r.Message, err)
		return
	}
	buf.Write(data)
}

// encodeText writes fields in key order so output is stable
func encodeText(buf *bytes.Buffer, r Record) {
	fmt.Fprintf(buf, "[%s] %s: %s", r.Timestamp.Format("2006-01-02 15:04:05.000"), r.Level, r.Message)
	if r.Error != "" {
		fmt.Fprintf(buf, " error=%q", r.Error)
	}

	keys := make([]string, 0, len(r.Fields))
	for k := range r.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(buf, " %s=%v", k, r.Fields[k])
	}
}

// FieldLogger carries fields into every record, such as a session id
type FieldLogger struct {
	logger *Logger
	fields Fields
}

// WithFields returns a FieldLogger carrying both field sets
func (fl *FieldLogger) WithFields(fields Fields) *FieldLogger {
	return &FieldLogger{logger: fl.logger, fields: merge(fl.fields, []Fields{fields})}
}

func (fl *FieldLogger) Debug(msg string, fields ...Fields) {
	fl.logger.emit(LevelDebug, msg, nil, fl.fields, fields)
}

func (fl *FieldLogger) Info(msg string, fields ...Fields) {
	fl.logger.emit(LevelInfo, msg, nil, fl.fields, fields)
}

func (fl *FieldLogger) Warn(msg string, fields ...Fields) {
	fl.logger.emit(LevelWarn, msg, nil, fl.fields, fields)
}

func (fl *FieldLogger) Error(msg string, err error, fields ...Fields) {
	fl.logger.emit(LevelError, msg, err, fl.fields, fields)
}
