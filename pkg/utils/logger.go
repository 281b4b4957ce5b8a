package utils

import (
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// LogLevel represents the verbosity level of logging
type LogLevel int

const (
	ErrorLevel LogLevel = iota
	WarningLevel
	InfoLevel
	DebugLevel
	TraceLevel
)

// String returns a string representation of the log level
func (l LogLevel) String() string {
	switch l {
	case ErrorLevel:
		return "ERROR"
	case WarningLevel:
		return "WARNING"
	case InfoLevel:
		return "INFO"
	case DebugLevel:
		return "DEBUG"
	case TraceLevel:
		return "TRACE"
	default:
		return "UNKNOWN"
	}
}

func (l LogLevel) logrus() logrus.Level {
	switch l {
	case ErrorLevel:
		return logrus.ErrorLevel
	case WarningLevel:
		return logrus.WarnLevel
	case InfoLevel:
		return logrus.InfoLevel
	case DebugLevel:
		return logrus.DebugLevel
	default:
		return logrus.TraceLevel
	}
}

// Logger is a leveled logger with helpers for the locking pipeline stages.
// It wraps a logrus entry so fields attached with WithField travel along.
type Logger struct {
	entry  *logrus.Entry
	closer io.Closer
}

// NewLogger creates a new logger with the specified verbosity level
func NewLogger(level LogLevel) *Logger {
	base := logrus.New()
	base.SetOutput(os.Stdout)
	base.SetLevel(level.logrus())
	base.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "15:04:05.000",
	})
	return &Logger{entry: logrus.NewEntry(base)}
}

// NewFileLogger creates a new logger that writes to a file
func NewFileLogger(level LogLevel, filename string) (*Logger, error) {
	file, err := os.Create(filename)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to create log file %s", filename)
	}

	l := NewLogger(level)
	l.entry.Logger.SetOutput(file)
	l.closer = file
	return l, nil
}

// Discard returns a logger that drops every message
func Discard() *Logger {
	l := NewLogger(ErrorLevel)
	l.entry.Logger.SetOutput(io.Discard)
	return l
}

// OrDiscard returns l, or a discarding logger when l is nil
func OrDiscard(l *Logger) *Logger {
	if l == nil {
		return Discard()
	}
	return l
}

// SetOutput sets the output writer
func (l *Logger) SetOutput(w io.Writer) {
	l.entry.Logger.SetOutput(w)
}

// SetLevel changes the verbosity
func (l *Logger) SetLevel(level LogLevel) {
	l.entry.Logger.SetLevel(level.logrus())
}

// WithField returns a logger that attaches key=value to every message
func (l *Logger) WithField(key string, value interface{}) *Logger {
	return &Logger{entry: l.entry.WithField(key, value), closer: l.closer}
}

// Close releases the log file, if any
func (l *Logger) Close() error {
	if l.closer == nil {
		return nil
	}
	return l.closer.Close()
}

// Error logs an error message
func (l *Logger) Error(format string, args ...interface{}) {
	l.entry.Errorf(format, args...)
}

// Warning logs a warning message
func (l *Logger) Warning(format string, args ...interface{}) {
	l.entry.Warnf(format, args...)
}

// Info logs an informational message
func (l *Logger) Info(format string, args ...interface{}) {
	l.entry.Infof(format, args...)
}

// Debug logs a debug message
func (l *Logger) Debug(format string, args ...interface{}) {
	l.entry.Debugf(format, args...)
}

// Netlist logs information about netlist reading and writing
func (l *Logger) Netlist(format string, args ...interface{}) {
	l.entry.WithField("stage", "netlist").Debugf(format, args...)
}

// Locking logs information about key gate selection and insertion
func (l *Logger) Locking(format string, args ...interface{}) {
	l.entry.WithField("stage", "locking").Debugf(format, args...)
}

// Analysis logs information about fault impact analysis
func (l *Logger) Analysis(format string, args ...interface{}) {
	l.entry.WithField("stage", "analysis").Debugf(format, args...)
}

// Simulation logs information about individual simulation runs
func (l *Logger) Simulation(format string, args ...interface{}) {
	l.entry.WithField("stage", "simulation").Tracef(format, args...)
}

// ParseLogLevel converts a level name into a LogLevel
func ParseLogLevel(s string) (LogLevel, bool) {
	switch strings.ToUpper(s) {
	case "ERROR":
		return ErrorLevel, true
	case "WARN", "WARNING":
		return WarningLevel, true
	case "INFO":
		return InfoLevel, true
	case "DEBUG":
		return DebugLevel, true
	case "TRACE":
		return TraceLevel, true
	default:
		return InfoLevel, false
	}
}
