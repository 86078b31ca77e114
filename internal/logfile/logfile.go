// Package logfile owns the per-run log: an append-mode file that collects
// phase output and timestamped lifecycle markers, optionally teed to a
// secondary sink, and scrubbed of terminal escape sequences after the run.
package logfile

import (
	"fmt"
	"io"
	"os"
	"time"
)

const timeLayout = "2006-01-02 15:04:05"

// Log is the run log handle. It is exclusively owned by the active run and
// must be closed on every exit path.
type Log struct {
	file *os.File
	w    io.Writer
}

// Open opens (or creates) the log at path in append mode. When tee is
// non-nil every write is duplicated to it, which verbose runs use to
// mirror the log to the console.
func Open(path string, tee io.Writer) (*Log, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log: %w", err)
	}

	l := &Log{file: f, w: f}
	if tee != nil {
		l.w = io.MultiWriter(f, tee)
	}
	return l, nil
}

// Write appends raw phase output.
func (l *Log) Write(p []byte) (int, error) {
	return l.w.Write(p)
}

// Mark appends a timestamped lifecycle marker line.
func (l *Log) Mark(msg string) {
	fmt.Fprintf(l.w, "%s [itest] %s\n", time.Now().Format(timeLayout), msg)
}

// Close releases the underlying file.
func (l *Log) Close() error {
	return l.file.Close()
}
