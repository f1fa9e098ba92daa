// Package log builds the logrus logger shared by the CLI and the engine.
package log

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/suzuki-shunsuke/logrus-error/logerr"
)

// New returns a stderr text logger tagged with the program name and version.
func New(version string) *logrus.Entry {
	logger := logrus.New()
	logger.Out = os.Stderr
	logger.Formatter = &logrus.TextFormatter{
		DisableTimestamp: true,
	}
	return logger.WithFields(logrus.Fields{
		"version": version,
		"program": "riskscan",
	})
}

// SetLevel applies a --log-level value. Empty leaves the current level alone;
// an unknown level is reported and ignored.
func SetLevel(level string, logE *logrus.Entry) {
	if level == "" {
		return
	}
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		logerr.WithError(logE, err).WithField("log_level", level).Error("the log level is invalid")
		return
	}
	logE.Logger.Level = lvl
}

// Discard returns a logger that drops everything. Library callers that pass
// no logger get this one.
func Discard() *logrus.Entry {
	logger := logrus.New()
	logger.Out = io.Discard
	return logrus.NewEntry(logger)
}
