package xarray

import (
	"os"

	"github.com/sirupsen/logrus"
)

var log = newLogger()

func newLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	l.SetLevel(logrus.WarnLevel)
	return l
}

// SetLogger replaces the package logger. Passing nil restores the default,
// which only reports warnings and errors
func SetLogger(l *logrus.Logger) {
	if l == nil {
		l = newLogger()
	}
	log = l
}

// Logger returns the package logger
func Logger() *logrus.Logger { return log }
