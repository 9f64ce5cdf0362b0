package logger

import (
	"os"

	"github.com/sirupsen/logrus"
)

// New creates a logger with the given level. Unknown levels fall back to info.
func New(level string) *logrus.Logger {
	l := logrus.New()

	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		parsed = logrus.InfoLevel
	}
	l.SetLevel(parsed)

	l.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})
	l.SetOutput(os.Stdout)

	return l
}
