// Package logging routes structured logs to a file. The TUI owns the
// terminal, so nothing may write to stdout or stderr while it runs.
package logging

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
)

// Setup points logrus at the configured log file and level.
func Setup(fs afero.Fs, file, level string) error {
	if err := fs.MkdirAll(filepath.Dir(file), 0o755); err != nil {
		return errors.Wrap(err, "create log directory")
	}
	f, err := fs.OpenFile(file, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0o666)
	if err != nil {
		return errors.Wrap(err, "open log file")
	}
	logrus.SetOutput(f)
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		parsed = logrus.InfoLevel
	}
	logrus.SetLevel(parsed)
	return nil
}
