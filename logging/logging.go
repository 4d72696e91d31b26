// Package logging provides the logrus field helper shared by the plugin's
// packages and the mapping from the persisted logging level to logrus.
package logging

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/sirupsen/logrus"
)

// Logger provides standardized logging fields for one function.
type Logger struct {
	fields logrus.Fields
}

// NewLogger creates a new logger with the function and package fields set.
func NewLogger(pkg, function string) *Logger {
	return &Logger{
		fields: logrus.Fields{
			"function": function,
			"package":  pkg,
		},
	}
}

// WithCaller adds caller information to the logger
func (l *Logger) WithCaller() *Logger {
	if pc, file, line, ok := runtime.Caller(1); ok {
		if fn := runtime.FuncForPC(pc); fn != nil {
			funcName := fn.Name()
			if lastSlash := strings.LastIndex(funcName, "/"); lastSlash >= 0 {
				funcName = funcName[lastSlash+1:]
			}
			l.fields["caller"] = fmt.Sprintf("%s:%d", file, line)
			l.fields["caller_func"] = funcName
		}
	}
	return l
}

// WithField adds a custom field to the logger
func (l *Logger) WithField(key string, value interface{}) *Logger {
	l.fields[key] = value
	return l
}

// WithFields adds multiple custom fields to the logger
func (l *Logger) WithFields(fields logrus.Fields) *Logger {
	for k, v := range fields {
		l.fields[k] = v
	}
	return l
}

// WithError adds error information and the failed operation to the logger.
func (l *Logger) WithError(err error, operation string) *Logger {
	if err != nil {
		l.fields["error"] = err.Error()
	}
	l.fields["operation"] = operation
	return l
}

// Fields returns a copy of the accumulated fields.
func (l *Logger) Fields() logrus.Fields {
	fields := make(logrus.Fields, len(l.fields))
	for k, v := range l.fields {
		fields[k] = v
	}
	return fields
}

// Debug logs a debug message
func (l *Logger) Debug(message string) {
	logrus.WithFields(l.fields).Debug(message)
}

// Info logs an info message
func (l *Logger) Info(message string) {
	logrus.WithFields(l.fields).Info(message)
}

// Warn logs a warning message
func (l *Logger) Warn(message string) {
	logrus.WithFields(l.fields).Warn(message)
}

// Error logs an error message
func (l *Logger) Error(message string) {
	logrus.WithFields(l.fields).Error(message)
}

// Level values as persisted in the plugin settings.
const (
	LevelDisabled = 0
	LevelError    = 1
	LevelWarning  = 2
	LevelInfo     = 3
	LevelDebug    = 4
)

// ToLogrus maps a persisted logging level to a logrus level.
// Values outside 0..4 are clamped.
func ToLogrus(level int) logrus.Level {
	switch {
	case level <= LevelDisabled:
		return logrus.PanicLevel
	case level == LevelError:
		return logrus.ErrorLevel
	case level == LevelWarning:
		return logrus.WarnLevel
	case level == LevelInfo:
		return logrus.InfoLevel
	default:
		return logrus.DebugLevel
	}
}

// Configure applies the persisted logging level to the standard logrus logger.
func Configure(level int) {
	logrus.SetLevel(ToLogrus(level))
	logrus.SetFormatter(&logrus.TextFormatter{
		DisableColors: true,
		FullTimestamp: true,
	})
}
