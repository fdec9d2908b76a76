// Package logging builds the shared logrus logger and names the structured
// fields the pipeline logs with, so log output stays grep-able across
// packages.
package logging

import (
	"github.com/sirupsen/logrus"
)

// NewLogrus builds a configured logrus.Logger with the given level
// ("debug", "info", "warn", "error") and format ("text" or "json"). The
// container hands this logger to every package's SetLogger.
func NewLogrus(level, format string) *logrus.Logger {
	logger := logrus.New()

	logLevel, err := logrus.ParseLevel(level)
	if err != nil {
		logger.Warnf("Invalid log level '%s', using 'info'", level)
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)

	if format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	}
	return logger
}
