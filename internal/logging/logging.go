// Package logging provides a leveled logger handle that is constructed once
// in main and passed down explicitly. There is no package-level instance.
package logging

import (
	"fmt"
	"log"
	"sort"
	"strings"
)

type Level int

const (
	Off Level = iota
	Basic
	Detailed
)

func ParseLevel(v string) (Level, bool) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "off":
		return Off, true
	case "basic", "":
		return Basic, true
	case "detailed":
		return Detailed, true
	default:
		return Basic, false
	}
}

type Logger struct {
	level Level
	out   *log.Logger
}

// New wraps a stdlib logger. A nil out uses the default logger destination.
func New(level Level, out *log.Logger) *Logger {
	if out == nil {
		out = log.Default()
	}
	return &Logger{level: level, out: out}
}

func (l *Logger) Enabled(level Level) bool {
	return l != nil && level != Off && level <= l.level
}

// Basic logs an event visible at basic verbosity and above.
func (l *Logger) Basic(event string, fields map[string]string) {
	l.emit(Basic, "INFO", event, fields)
}

// Detailed logs an event visible only at detailed verbosity.
func (l *Logger) Detailed(event string, fields map[string]string) {
	l.emit(Detailed, "DEBUG", event, fields)
}

// Warn logs at basic verbosity with a WARN marker.
func (l *Logger) Warn(event string, fields map[string]string) {
	l.emit(Basic, "WARN", event, fields)
}

// Error always logs, regardless of verbosity, unless logging is off.
func (l *Logger) Error(event string, fields map[string]string) {
	l.emit(Basic, "ERROR", event, fields)
}

func (l *Logger) emit(min Level, marker, event string, fields map[string]string) {
	if !l.Enabled(min) {
		return
	}
	var b strings.Builder
	b.WriteString("level=")
	b.WriteString(marker)
	b.WriteString(" event=")
	b.WriteString(event)
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		b.WriteString(" ")
		b.WriteString(k)
		b.WriteString("=")
		b.WriteString(fmt.Sprintf("%q", fields[k]))
	}
	l.out.Print(b.String())
}
