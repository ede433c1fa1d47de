// Package rlog provides session-based logging for a running node: debug
// detail always goes to the session file, info messages also echo to the
// console unless the logger is in quiet mode, and error messages always
// echo to the console.
package rlog

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Logger writes timestamped lines to a per-run session file and,
// selectively, to the console.
type Logger struct {
	file  *os.File
	mu    sync.Mutex
	path  string
	quiet bool
}

// New creates a session log file under dir and returns a Logger writing to
// it. If dir is empty, the logger writes only to the console (no file).
func New(dir string, quiet bool) (*Logger, error) {
	l := &Logger{quiet: quiet}
	if dir == "" {
		return l, nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("rlog: create log dir: %w", err)
	}
	name := fmt.Sprintf("node-%s.log", time.Now().Format("20060102-150405"))
	path := filepath.Join(dir, name)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("rlog: open session log: %w", err)
	}
	l.file = f
	l.path = path
	l.writeFile("=== node session started %s ===", time.Now().Format(time.RFC3339))
	return l, nil
}

// Path returns the session log file path, or "" if logging to console only.
func (l *Logger) Path() string { return l.path }

// Close closes the session file, if one is open.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil {
		return nil
	}
	l.writeFileLocked("=== node session ended %s ===", time.Now().Format(time.RFC3339))
	return l.file.Close()
}

// Debug logs detail that only belongs in the session file.
func (l *Logger) Debug(format string, args ...interface{}) {
	l.write("DEBUG", format, args...)
}

// Info logs a message that also echoes to the console unless quiet.
func (l *Logger) Info(format string, args ...interface{}) {
	msg := l.write("INFO", format, args...)
	if !l.quiet {
		fmt.Println(msg)
	}
}

// Error always echoes to the console, quiet or not.
func (l *Logger) Error(format string, args ...interface{}) {
	msg := l.write("ERROR", format, args...)
	fmt.Fprintln(os.Stderr, msg)
}

func (l *Logger) write(level, format string, args ...interface{}) string {
	msg := fmt.Sprintf(format, args...)
	l.mu.Lock()
	l.writeFileLocked("[%s] %s: %s", time.Now().Format("15:04:05"), level, msg)
	l.mu.Unlock()
	return msg
}

func (l *Logger) writeFile(format string, args ...interface{}) {
	l.mu.Lock()
	l.writeFileLocked(format, args...)
	l.mu.Unlock()
}

func (l *Logger) writeFileLocked(format string, args ...interface{}) {
	if l.file == nil {
		return
	}
	fmt.Fprintf(l.file, format+"\n", args...)
}

// RedirectStdlibLog points the stdlib "log" package at this logger's
// session file, so library code using log.Printf lands in the same place,
// matching the convention the rest of the node runtime follows.
func (l *Logger) RedirectStdlibLog() {
	if l.file == nil {
		return
	}
	log.SetOutput(l.file)
	log.SetFlags(log.Ldate | log.Ltime)
}
