package logging

import (
	"io"

	"github.com/sirupsen/logrus"
)

// New builds the logger shared by every command. Output is kept off stdout
// so command results stay clean for piping.
func New(out io.Writer, level logrus.Level, format string) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(out)
	logger.SetLevel(level)
	if format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, DisableColors: true})
	}
	return logger
}

// Discard drops everything. Used when a caller supplies no logger.
func Discard() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}
