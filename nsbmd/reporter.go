package nsbmd

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// Level is the severity of a diagnostic message.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "debug"
	case LevelInfo:
		return "info"
	case LevelError:
		return "error"
	}
	return fmt.Sprintf("level(%d)", int(l))
}

type (
	// Reporter receives the narration of a decode. It never influences the
	// result. Reporters passed together with Config.Workers > 1 are called
	// from multiple goroutines.
	Reporter interface {
		Report(level Level, msg string)
	}

	// ReporterFunc adapts a plain function to Reporter
	ReporterFunc func(level Level, msg string)

	logrusReporter struct {
		logger logrus.FieldLogger
	}
)

// Discard drops every message.
var Discard Reporter = ReporterFunc(func(Level, string) {})

func (f ReporterFunc) Report(level Level, msg string) { f(level, msg) }

// NewLogrusReporter forwards messages to logger using the matching logrus level.
func NewLogrusReporter(logger logrus.FieldLogger) Reporter {
	return logrusReporter{logger: logger}
}

func (l logrusReporter) Report(level Level, msg string) {
	switch level {
	case LevelDebug:
		l.logger.Debug(msg)
	case LevelError:
		l.logger.Error(msg)
	default:
		l.logger.Info(msg)
	}
}

func infof(r Reporter, format string, args ...any) {
	r.Report(LevelInfo, fmt.Sprintf(format, args...))
}

func debugf(r Reporter, format string, args ...any) {
	r.Report(LevelDebug, fmt.Sprintf(format, args...))
}
