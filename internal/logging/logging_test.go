package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
)

func TestNew_StderrDefaultsToWarn(t *testing.T) {
	var buf bytes.Buffer
	lg, err := New(Options{Stderr: &buf})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	lg.Info("hidden")
	lg.Warn("shown")
	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("expected info to be filtered at default level, got %q", out)
	}
	if !strings.Contains(out, "shown") {
		t.Fatalf("expected warn line, got %q", out)
	}
}

func TestNew_FileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "taskboard.log")
	lg, err := New(Options{File: path, Level: "debug"})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if lg.GetLevel() != logrus.DebugLevel {
		t.Fatalf("expected debug level, got %s", lg.GetLevel())
	}
	lg.Debug("to file")
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(b), "to file") {
		t.Fatalf("expected log line in file, got %q", string(b))
	}
}

func TestNew_RejectsUnknownLevel(t *testing.T) {
	if _, err := New(Options{Level: "loud"}); err == nil {
		t.Fatalf("expected error for unknown level")
	}
}
