package logging

import (
	"context"
	"fmt"
	"io"
	"log"
	"maps"
	"os"
	"slices"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

// DefaultLogger is a colored logger implementation using Go's standard log package
// Debug/Info -> stdout (no color)
// Warn -> stderr (yellow)
// Error -> stderr (red)
// Fatal -> stderr (bold red)
type DefaultLogger struct {
	stdoutLogger *log.Logger
	stderrLogger *log.Logger
	level        Level
	fields       Fields
	useColors    bool
	exit         func(code int)
}

var (
	warnColor  = newForcedColor(color.FgYellow)
	errorColor = newForcedColor(color.FgRed)
	fatalColor = newForcedColor(color.FgRed, color.Bold)
)

// newForcedColor builds a color that ignores color.NoColor; whether colors are
// used at all is decided per logger.
func newForcedColor(attrs ...color.Attribute) *color.Color {
	c := color.New(attrs...)
	c.EnableColor()
	return c
}

// NewDefaultLogger creates a new default logger with colored output
func NewDefaultLogger() *DefaultLogger {
	return &DefaultLogger{
		stdoutLogger: log.New(os.Stdout, "", log.LstdFlags),
		stderrLogger: log.New(os.Stderr, "", log.LstdFlags),
		level:        InfoLevel,
		fields:       make(Fields),
		useColors:    isTerminal(os.Stderr),
		exit:         os.Exit,
	}
}

// NewDefaultLoggerNoColor creates a new default logger without colored output
func NewDefaultLoggerNoColor() *DefaultLogger {
	l := NewDefaultLogger()
	l.useColors = false
	return l
}

// NewDefaultLoggerTo creates an uncolored logger writing to the given streams
// without timestamps.
func NewDefaultLoggerTo(stdout, stderr io.Writer) *DefaultLogger {
	return &DefaultLogger{
		stdoutLogger: log.New(stdout, "", 0),
		stderrLogger: log.New(stderr, "", 0),
		level:        InfoLevel,
		fields:       make(Fields),
		exit:         os.Exit,
	}
}

func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func (d *DefaultLogger) formatMessage(level Level, err error, msg string, fields ...Fields) string {
	allFields := make(Fields)
	maps.Copy(allFields, d.fields)
	for _, f := range fields {
		maps.Copy(allFields, f)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s", level.String(), msg)

	if err != nil {
		fmt.Fprintf(&b, ": %v", err)
	}

	// sorted so that identical calls render identically
	for _, key := range slices.Sorted(maps.Keys(allFields)) {
		fmt.Fprintf(&b, " %s=%v", key, allFields[key])
	}

	logMsg := b.String()
	if d.useColors {
		switch level {
		case WarnLevel:
			logMsg = warnColor.Sprint(logMsg)
		case ErrorLevel:
			logMsg = errorColor.Sprint(logMsg)
		case FatalLevel:
			logMsg = fatalColor.Sprint(logMsg)
		}
	}

	return logMsg
}

func (d *DefaultLogger) log(level Level, err error, msg string, fields ...Fields) {
	if level < d.level {
		return
	}

	formattedMsg := d.formatMessage(level, err, msg, fields...)

	switch level {
	case DebugLevel, InfoLevel:
		d.stdoutLogger.Println(formattedMsg)
	case WarnLevel, ErrorLevel:
		d.stderrLogger.Println(formattedMsg)
	case FatalLevel:
		d.stderrLogger.Println(formattedMsg)
		d.exit(1)
	}
}

func (d *DefaultLogger) Debug(msg string, fields ...Fields) {
	d.log(DebugLevel, nil, msg, fields...)
}

func (d *DefaultLogger) Info(msg string, fields ...Fields) {
	d.log(InfoLevel, nil, msg, fields...)
}

func (d *DefaultLogger) Warn(msg string, fields ...Fields) {
	d.log(WarnLevel, nil, msg, fields...)
}

func (d *DefaultLogger) Error(err error, msg string, fields ...Fields) {
	d.log(ErrorLevel, err, msg, fields...)
}

func (d *DefaultLogger) Fatal(err error, msg string, fields ...Fields) {
	d.log(FatalLevel, err, msg, fields...)
}

func (d *DefaultLogger) WithFields(fields Fields) Logger {
	newFields := make(Fields)
	maps.Copy(newFields, d.fields)
	maps.Copy(newFields, fields)

	return &DefaultLogger{
		stdoutLogger: d.stdoutLogger,
		stderrLogger: d.stderrLogger,
		level:        d.level,
		fields:       newFields,
		useColors:    d.useColors,
		exit:         d.exit,
	}
}

func (d *DefaultLogger) WithContext(ctx context.Context) Logger {
	if fields, ok := fieldsFromContext(ctx); ok {
		return d.WithFields(fields)
	}
	return d
}

func (d *DefaultLogger) SetLevel(level Level) {
	d.level = level
}

// NoOpLogger discards everything. Tests and library callers that do not want
// output install it with SetGlobalLogger(nil).
type NoOpLogger struct{}

func (n *NoOpLogger) Debug(msg string, fields ...Fields)            {}
func (n *NoOpLogger) Info(msg string, fields ...Fields)             {}
func (n *NoOpLogger) Warn(msg string, fields ...Fields)             {}
func (n *NoOpLogger) Error(err error, msg string, fields ...Fields) {}
func (n *NoOpLogger) Fatal(err error, msg string, fields ...Fields) {}
func (n *NoOpLogger) WithFields(fields Fields) Logger               { return n }
func (n *NoOpLogger) WithContext(ctx context.Context) Logger        { return n }
func (n *NoOpLogger) SetLevel(level Level)                          {}
