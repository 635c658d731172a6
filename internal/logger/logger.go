// Package logger builds the shared structured logger.
package logger

import (
	"github.com/sirupsen/logrus"
)

// New returns a logrus logger at the given level. Unknown levels fall back
// to warn so CLI output stays quiet by default.
func New(logLevel string) *logrus.Logger {
	log := logrus.New()
	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		level = logrus.WarnLevel
	}
	log.SetLevel(level)
	log.SetFormatter(&logrus.JSONFormatter{})
	return log
}
