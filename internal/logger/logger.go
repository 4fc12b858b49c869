// Package logger configures the process-wide logrus logger and hands out
// per-component entries.
package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
)

// Entry and Fields re-export the underlying types so callers do not import
// logrus directly.
type Entry = logrus.Entry
type Fields = logrus.Fields

// Configure sets the global format and level. An empty level means "info".
func Configure(level string) error {
	if level == "" {
		level = "info"
	}
	lv, err := logrus.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("logger: bad level %q: %w", level, err)
	}
	logrus.SetLevel(lv)
	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	return nil
}

// SetupFile redirects the global logger to the given path, creating parent
// directories as needed. It returns the file's closer and the resolved path.
func SetupFile(path string) (io.Closer, string, error) {
	if path == "" {
		return nil, "", fmt.Errorf("logger: empty log path")
	}
	resolved, err := filepath.Abs(path)
	if err != nil {
		return nil, "", err
	}
	if err := os.MkdirAll(filepath.Dir(resolved), 0o755); err != nil {
		return nil, "", err
	}
	f, err := os.OpenFile(resolved, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, "", err
	}
	logrus.SetOutput(f)
	return f, resolved, nil
}

// Named returns a global entry carrying a component field.
func Named(component string) *Entry {
	e := logrus.NewEntry(logrus.StandardLogger())
	if component != "" {
		e = e.WithField("component", component)
	}
	return e
}
