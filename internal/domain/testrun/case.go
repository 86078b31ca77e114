package testrun

import (
	"path/filepath"
	"strings"
)

// Case describes a single functional test: raw shell fragments for its
// phases plus the metadata the loader extracted from the case file.
//
// Identity derives from Filename: two cases with the same absolute path are
// the same test.
type Case struct {
	// Filename is the absolute path of the case file and the unique key.
	Filename string
	Summary  string

	// Raw shell fragments. Steps is required; Setup and Teardown may be empty.
	Steps    string
	Setup    string
	Teardown string

	// QA answers steps-phase prompts beyond the elevated-privilege ones,
	// in declaration order.
	QA []ExpectRule

	// Issue maps reference tokens (e.g. "#123", "bug-45") to numeric ids.
	Issue map[string]string

	Version    string
	Tag        string
	Fixtures   []string
	Conditions Conditions

	// Component is the first path segment under the cases root, or
	// "unknown" when the case lives outside it.
	Component string
}

// ExpectRule pairs a prompt pattern with the response to send when the
// pattern matches child output.
type ExpectRule struct {
	Pattern  string
	Response string
}

// ComponentOf derives the component name for a case file: the first
// directory segment below casesDir, or "unknown" for files directly inside
// it or outside of it.
func ComponentOf(filename, casesDir string) string {
	if casesDir == "" {
		return "unknown"
	}
	rel, err := filepath.Rel(casesDir, filename)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return "unknown"
	}
	parts := strings.Split(rel, string(filepath.Separator))
	if len(parts) < 2 {
		return "unknown"
	}
	return parts[0]
}
