// FILE: lixenwraith/presets/log.go
package presets

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// NewLogger returns the default logger used when a Builder or Loader is given none.
func NewLogger() logrus.FieldLogger {
	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	logger.SetFormatter(&logrus.TextFormatter{
		DisableTimestamp: true,
	})
	logger.SetLevel(logrus.InfoLevel)
	return logger
}

// NewNopLogger returns a logger that discards everything
func NewNopLogger() logrus.FieldLogger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}
