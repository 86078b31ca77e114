package loader

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/huanghao/nose-xcase/internal/domain/testrun"
)

// A section header is __name__ at the start of a line, name being one or
// more alphanumerics, with an optional trailing colon. Names are
// case-insensitive. Sections cannot nest: a new header ends the previous
// section.
var sectionHeader = regexp.MustCompile(`(?m)^__([a-zA-Z0-9]+?)__(\s*:)?`)

type section struct {
	name    string
	content string
}

func sections(text string) []section {
	matches := sectionHeader.FindAllStringSubmatchIndex(text, -1)
	out := make([]section, 0, len(matches))
	for i, m := range matches {
		end := len(text)
		if i+1 < len(matches) {
			end = matches[i+1][0]
		}
		out = append(out, section{
			name:    strings.ToLower(text[m[2]:m[3]]),
			content: text[m[1]:end],
		})
	}
	return out
}

// ParseCase parses case-file text into a Case. summary and steps are
// required; casesDir is used to derive the component name.
func ParseCase(filename, text, casesDir string) (*testrun.Case, error) {
	c := &testrun.Case{
		Filename:  filename,
		Component: testrun.ComponentOf(filename, casesDir),
	}

	// One handler per known section name; unknown sections are ignored.
	handlers := map[string]func(string) error{
		"summary": func(s string) error {
			c.Summary = strings.TrimSpace(s)
			return nil
		},
		"steps": func(s string) error {
			c.Steps = s
			return nil
		},
		"setup": func(s string) error {
			c.Setup = s
			return nil
		},
		"teardown": func(s string) error {
			c.Teardown = s
			return nil
		},
		"qa": func(s string) (err error) {
			c.QA, err = parseQA(s)
			return err
		},
		"issue": func(s string) (err error) {
			c.Issue, err = parseIssue(s)
			return err
		},
		"conditions": func(s string) (err error) {
			c.Conditions, err = parseConditions(s)
			return err
		},
		"fixtures": func(s string) error {
			c.Fixtures = strings.Fields(s)
			return nil
		},
		"version": func(s string) error {
			c.Version = strings.TrimSpace(s)
			return nil
		},
		"tag": func(s string) error {
			c.Tag = strings.TrimSpace(s)
			return nil
		},
		// Accepted for compatibility with older case files.
		"precondition": func(string) error { return nil },
	}

	seen := make(map[string]bool)
	for _, sec := range sections(text) {
		handler, ok := handlers[sec.name]
		if !ok {
			continue
		}
		if err := handler(sec.content); err != nil {
			return nil, fmt.Errorf("%s: %w", filename, err)
		}
		seen[sec.name] = true
	}

	for _, required := range []string{"summary", "steps"} {
		if !seen[required] {
			return nil, fmt.Errorf("%s: %q section is required", filename, required)
		}
	}
	return c, nil
}

// parseQA reads alternating "Q: <prompt pattern>" / "A: <answer>" lines
// into ordered expect rules.
func parseQA(text string) ([]testrun.ExpectRule, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, nil
	}

	var (
		qa       []testrun.ExpectRule
		question string
		answer   string
		state    int
	)
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimRight(line, "\r")
		if line == "" {
			continue
		}
		switch {
		case state == 0 && strings.HasPrefix(line, "Q:"):
			question = strings.TrimLeft(line[2:], " \t")
			state = 1
		case state == 1 && strings.HasPrefix(line, "A:"):
			answer = strings.TrimLeft(line[2:], " \t")
			state = 2
		case state == 2 && strings.HasPrefix(line, "Q:"):
			qa = append(qa, testrun.ExpectRule{Pattern: question, Response: answer})
			question = strings.TrimLeft(line[2:], " \t")
			state = 1
		default:
			return nil, fmt.Errorf("invalid format of QA:%s", line)
		}
	}
	if state == 2 {
		qa = append(qa, testrun.ExpectRule{Pattern: question, Response: answer})
	}
	return qa, nil
}

// Issue references come in several shorthand forms; the trailing digits
// are the numeric id.
var issueToken = regexp.MustCompile(`(?i)^(#|issue|feature|bug|((c|C)(hange)?))?-?(\d+)`)

func parseIssue(text string) (map[string]string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return map[string]string{}, nil
	}

	nums := make(map[string]string)
	for _, token := range strings.Fields(strings.ReplaceAll(text, ",", " ")) {
		if m := issueToken.FindStringSubmatch(token); m != nil {
			nums[m[0]] = m[5]
		}
	}
	if len(nums) == 0 {
		return nil, fmt.Errorf("unrecognized issue number:%s", text)
	}
	return nums, nil
}

// parseConditions reads "distblacklist: <labels>" / "distwhitelist:
// <labels>" lines; labels are whitespace-separated and lower-cased.
func parseConditions(text string) (testrun.Conditions, error) {
	var c testrun.Conditions
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, rest, ok := strings.Cut(line, ":")
		if !ok {
			return c, fmt.Errorf("invalid condition line:%s", line)
		}

		labels := strings.Fields(strings.ToLower(rest))
		switch strings.ToLower(strings.TrimSpace(key)) {
		case "distblacklist":
			c.DistBlacklist = append(c.DistBlacklist, labels...)
		case "distwhitelist":
			c.DistWhitelist = append(c.DistWhitelist, labels...)
		default:
			return c, fmt.Errorf("unknown condition:%s", key)
		}
	}
	return c, nil
}
