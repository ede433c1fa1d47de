package rlog

import (
	"os"
	"strings"
	"testing"
)

func TestNewWritesSessionFile(t *testing.T) {
	dir := t.TempDir()
	l, err := New(dir, true)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	l.Info("hello %s", "world")
	if err := l.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	data, err := os.ReadFile(l.Path())
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !strings.Contains(string(data), "hello world") {
		t.Fatalf("session file does not contain logged message: %s", data)
	}
}

func TestNewWithEmptyDirLogsToConsoleOnly(t *testing.T) {
	l, err := New("", true)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if l.Path() != "" {
		t.Fatalf("Path() = %q, want empty for a console-only logger", l.Path())
	}
	l.Info("no file backing this")
	if err := l.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}
