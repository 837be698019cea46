// Package obslog wires up structured logging for the supervisor: every
// message goes to stdout and, when a log file path is configured, to a
// size-rotated file on disk.
package obslog

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

// DefaultMaxFileSizeBytes is the rotation threshold applied before a log
// file is renamed aside.
const DefaultMaxFileSizeBytes = 1 * 1024 * 1024

// Logger wraps a *logrus.Logger with the file-rotation behavior the
// stdlib logrus hooks don't provide out of the box.
type Logger struct {
	*log.Logger

	mu           sync.Mutex
	path         string
	maxSizeBytes int64
	file         *os.File
}

// New builds a Logger that writes to stdout, and additionally to path if
// path is non-empty. level follows logrus's level names
// ("debug","info","warn","error").
func New(path string, maxSizeBytes int64, level string) (*Logger, error) {
	if maxSizeBytes <= 0 {
		maxSizeBytes = DefaultMaxFileSizeBytes
	}
	base := log.New()
	base.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	lvl, err := log.ParseLevel(level)
	if err != nil {
		lvl = log.InfoLevel
	}
	base.SetLevel(lvl)

	l := &Logger{Logger: base, path: path, maxSizeBytes: maxSizeBytes}

	if path == "" {
		base.SetOutput(os.Stdout)
		return l, nil
	}

	f, err := l.openForAppend()
	if err != nil {
		return nil, err
	}
	l.file = f
	base.SetOutput(io.MultiWriter(os.Stdout, f))
	base.AddHook(rotateHook{l})
	return l, nil
}

// rotateHook checks the file sink's size on every logged entry, so
// rotation happens on each write rather than on some separate timer.
type rotateHook struct {
	l *Logger
}

func (h rotateHook) Levels() []log.Level { return log.AllLevels }

func (h rotateHook) Fire(*log.Entry) error {
	return h.l.RotateIfNeeded()
}

func (l *Logger) openForAppend() (*os.File, error) {
	if dir := filepath.Dir(l.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("obslog: create log dir: %w", err)
		}
	}
	return os.OpenFile(l.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
}

// RotateIfNeeded renames the current log file aside with a timestamp
// suffix once it exceeds maxSizeBytes, then opens a fresh file at the
// original path. It's a no-op when no file sink is configured.
func (l *Logger) RotateIfNeeded() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil {
		return nil
	}
	info, err := l.file.Stat()
	if err != nil {
		return fmt.Errorf("obslog: stat log file: %w", err)
	}
	if info.Size() <= l.maxSizeBytes {
		return nil
	}

	if err := l.file.Close(); err != nil {
		return fmt.Errorf("obslog: close log file before rotation: %w", err)
	}

	suffix := time.Now().Format("02-Jan-2006-15-04-05")
	ext := filepath.Ext(l.path)
	rotated := l.path[:len(l.path)-len(ext)] + "-" + suffix + ext
	if err := os.Rename(l.path, rotated); err != nil {
		return fmt.Errorf("obslog: rotate log file: %w", err)
	}

	f, err := l.openForAppend()
	if err != nil {
		return err
	}
	l.file = f
	l.Logger.SetOutput(io.MultiWriter(os.Stdout, f))
	return nil
}

// Close releases the underlying file sink, if any.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil {
		return nil
	}
	return l.file.Close()
}
