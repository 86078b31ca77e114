package logfile

import (
	"fmt"
	"os"
	"regexp"
)

// Interactive tools color their output and erase lines while redrawing
// progress; both sequence families survive into the captured log. Only
// these two are removed, anything else stays byte-for-byte intact.
var (
	colorSeq = regexp.MustCompile(`\x1b\[[0-9]*m`)
	eraseSeq = regexp.MustCompile(`\x1b\[[0-9]*K`)
)

// Scrub rewrites the persisted log at path in place, dropping
// color-setting and line/cursor-erase escape sequences. The
// transformation is idempotent.
func Scrub(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read log: %w", err)
	}

	cleaned := colorSeq.ReplaceAll(data, nil)
	cleaned = eraseSeq.ReplaceAll(cleaned, nil)
	if len(cleaned) == len(data) {
		return nil
	}

	if err := os.WriteFile(path, cleaned, 0o644); err != nil {
		return fmt.Errorf("rewrite log: %w", err)
	}
	return nil
}
