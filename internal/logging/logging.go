// Package logging builds the logrus logger shared by the CLI and pipeline.
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// Formats accepted by New.
const (
	FormatJSON = "json"
	FormatText = "text"
)

// New returns a logger writing to stderr. Unknown levels fall back to info
// and unknown formats to text.
func New(level, format string) *logrus.Logger {
	return NewWithOutput(level, format, os.Stderr)
}

// NewWithOutput is New with an explicit writer.
func NewWithOutput(level, format string, out io.Writer) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(out)

	switch strings.ToLower(format) {
	case FormatJSON:
		logger.SetFormatter(&logrus.JSONFormatter{})
	default:
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		logger.WithField("level", level).Warn("Invalid log level, defaulting to info")
		parsed = logrus.InfoLevel
	}
	logger.SetLevel(parsed)

	return logger
}

// Quiet returns a logger that discards everything, for tests and library use.
func Quiet() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}
