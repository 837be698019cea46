package obslog

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewWritesToFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "supervisor.log")

	l, err := New(path, DefaultMaxFileSizeBytes, "info")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer l.Close()

	l.Info("hello world")

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !strings.Contains(string(data), "hello world") {
		t.Errorf("log file missing expected message, got: %s", data)
	}
}

func TestRotateIfNeededRenamesOversizeFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "supervisor.log")

	l, err := New(path, 10, "info")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer l.Close()

	l.Info("this line alone is longer than ten bytes")
	if err := l.RotateIfNeeded(); err != nil {
		t.Fatalf("RotateIfNeeded: %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) < 2 {
		t.Errorf("expected a rotated file alongside the fresh one, got %d entries", len(entries))
	}
}
