package logging

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

type Options struct {
	// File enables rotated file output. Empty means Stderr.
	File  string
	Level string

	// Stderr overrides the non-file writer (tests).
	Stderr io.Writer
}

// New builds a logger. The TUI always passes a File so nothing is written to the
// terminal it draws on.
func New(opts Options) (*logrus.Logger, error) {
	lg := logrus.New()

	lvl := logrus.WarnLevel
	if s := strings.TrimSpace(opts.Level); s != "" {
		parsed, err := logrus.ParseLevel(s)
		if err != nil {
			return nil, err
		}
		lvl = parsed
	}
	lg.SetLevel(lvl)

	if strings.TrimSpace(opts.File) == "" {
		out := opts.Stderr
		if out == nil {
			out = os.Stderr
		}
		lg.SetOutput(out)
		lg.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
		return lg, nil
	}

	if err := os.MkdirAll(filepath.Dir(opts.File), 0o755); err != nil {
		return nil, err
	}
	lg.SetOutput(&lumberjack.Logger{
		Filename:   opts.File,
		MaxSize:    10, // megabytes
		MaxBackups: 3,
		MaxAge:     28, // days
		Compress:   true,
	})
	lg.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, DisableColors: true})
	return lg, nil
}

// Discard is a logger for callers that were not given one.
func Discard() *logrus.Logger {
	lg := logrus.New()
	lg.SetOutput(io.Discard)
	return lg
}
