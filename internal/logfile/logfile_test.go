package logfile

import (
	"bytes"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
)

func TestMarkFormat(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "log")
	l, err := Open(path, nil)
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	l.Mark("INFO: steps start")
	if err := l.Close(); err != nil {
		t.Fatalf("Close returned error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}

	marker := regexp.MustCompile(`^\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2} \[itest\] INFO: steps start\n$`)
	if !marker.Match(data) {
		t.Fatalf("unexpected marker line %q", data)
	}
}

func TestOpenAppends(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "log")
	if err := os.WriteFile(path, []byte("existing\n"), 0o644); err != nil {
		t.Fatalf("seed log: %v", err)
	}

	l, err := Open(path, nil)
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	if _, err := l.Write([]byte("appended\n")); err != nil {
		t.Fatalf("Write returned error: %v", err)
	}
	if err := l.Close(); err != nil {
		t.Fatalf("Close returned error: %v", err)
	}

	data, _ := os.ReadFile(path)
	if string(data) != "existing\nappended\n" {
		t.Fatalf("log not appended: %q", data)
	}
}

func TestTeeDuplicatesWrites(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "log")
	var mirror bytes.Buffer

	l, err := Open(path, &mirror)
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	if _, err := l.Write([]byte("phase output\n")); err != nil {
		t.Fatalf("Write returned error: %v", err)
	}
	l.Mark("INFO: setup start")
	if err := l.Close(); err != nil {
		t.Fatalf("Close returned error: %v", err)
	}

	data, _ := os.ReadFile(path)
	if string(data) != mirror.String() {
		t.Fatalf("mirror diverged from file:\nfile:   %q\nmirror: %q", data, mirror.String())
	}
	if !strings.Contains(mirror.String(), "phase output") {
		t.Fatalf("mirror missing phase output: %q", mirror.String())
	}
}
