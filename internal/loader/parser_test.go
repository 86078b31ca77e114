package loader

import (
	"strings"
	"testing"
)

const fullCaseText = `__summary__
  verify package upgrade keeps config

__setup__
export PKG=demo

__steps__
rpm -q $PKG
__teardown__
rm -f /tmp/demo.lock
__qa__
Q: Are you sure\? \[y/N\]
A: y
Q: Continue\?
A: yes
__issue__
#123 bug456, C-789
__conditions__
distblacklist: suse121 Fedora16
distwhitelist: u1110
__fixtures__
data.tar helper.sh
__version__
 1.2
__tag__
smoke
__whatever__
ignored entirely
__precondition__
legacy text
`

func TestParseCaseFull(t *testing.T) {
	t.Parallel()

	c, err := ParseCase("/cases/pkg/upgrade.case", fullCaseText, "/cases")
	if err != nil {
		t.Fatalf("ParseCase returned error: %v", err)
	}

	if c.Summary != "verify package upgrade keeps config" {
		t.Fatalf("summary = %q", c.Summary)
	}
	if !strings.Contains(c.Setup, "export PKG=demo") {
		t.Fatalf("setup = %q", c.Setup)
	}
	if !strings.Contains(c.Steps, "rpm -q $PKG") {
		t.Fatalf("steps = %q", c.Steps)
	}
	if !strings.Contains(c.Teardown, "rm -f /tmp/demo.lock") {
		t.Fatalf("teardown = %q", c.Teardown)
	}
	if c.Component != "pkg" {
		t.Fatalf("component = %q, want pkg", c.Component)
	}
	if c.Version != "1.2" || c.Tag != "smoke" {
		t.Fatalf("version/tag = %q/%q", c.Version, c.Tag)
	}

	if len(c.QA) != 2 {
		t.Fatalf("expected 2 QA rules, got %d", len(c.QA))
	}
	if c.QA[0].Pattern != `Are you sure\? \[y/N\]` || c.QA[0].Response != "y" {
		t.Fatalf("first QA rule = %+v", c.QA[0])
	}
	if c.QA[1].Response != "yes" {
		t.Fatalf("second QA rule = %+v", c.QA[1])
	}

	wantIssues := map[string]string{"#123": "123", "bug456": "456", "C-789": "789"}
	for token, num := range wantIssues {
		if c.Issue[token] != num {
			t.Fatalf("issue map %v, want %s=%s", c.Issue, token, num)
		}
	}

	if len(c.Conditions.DistBlacklist) != 2 || c.Conditions.DistBlacklist[1] != "fedora16" {
		t.Fatalf("blacklist = %v", c.Conditions.DistBlacklist)
	}
	if len(c.Conditions.DistWhitelist) != 1 || c.Conditions.DistWhitelist[0] != "u1110" {
		t.Fatalf("whitelist = %v", c.Conditions.DistWhitelist)
	}

	if len(c.Fixtures) != 2 || c.Fixtures[0] != "data.tar" {
		t.Fatalf("fixtures = %v", c.Fixtures)
	}
}

func TestParseCaseHeaderVariants(t *testing.T) {
	t.Parallel()

	// Optional trailing colon and mixed-case names are accepted.
	text := "__Summary__: mixed case header\n__STEPS__\ntrue\n"
	c, err := ParseCase("/cases/x.case", text, "/cases")
	if err != nil {
		t.Fatalf("ParseCase returned error: %v", err)
	}
	if c.Summary != "mixed case header" {
		t.Fatalf("summary = %q", c.Summary)
	}
	if !strings.Contains(c.Steps, "true") {
		t.Fatalf("steps = %q", c.Steps)
	}
}

func TestParseCaseRequiredSections(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		text string
		want string
	}{
		{"no steps", "__summary__\nonly a summary\n", `"steps" section is required`},
		{"no summary", "__steps__\ntrue\n", `"summary" section is required`},
		{"empty file", "", `section is required`},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := ParseCase("/cases/x.case", tc.text, "/cases")
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("error = %v, want %q", err, tc.want)
			}
		})
	}
}

func TestParseCaseRejectsMalformedQA(t *testing.T) {
	t.Parallel()

	tests := []string{
		"__summary__\ns\n__steps__\ntrue\n__qa__\nA: answer before question\n",
		"__summary__\ns\n__steps__\ntrue\n__qa__\nQ: one\nQ: two\n",
		"__summary__\ns\n__steps__\ntrue\n__qa__\nnot a qa line\n",
	}
	for _, text := range tests {
		_, err := ParseCase("/cases/x.case", text, "/cases")
		if err == nil || !strings.Contains(err.Error(), "invalid format of QA") {
			t.Fatalf("error = %v for %q", err, text)
		}
	}
}

func TestParseCaseRejectsUnknownIssue(t *testing.T) {
	t.Parallel()

	text := "__summary__\ns\n__steps__\ntrue\n__issue__\nnot-a-number\n"
	_, err := ParseCase("/cases/x.case", text, "/cases")
	if err == nil || !strings.Contains(err.Error(), "unrecognized issue number") {
		t.Fatalf("error = %v", err)
	}
}

func TestParseCaseRejectsUnknownCondition(t *testing.T) {
	t.Parallel()

	text := "__summary__\ns\n__steps__\ntrue\n__conditions__\narchblacklist: arm\n"
	_, err := ParseCase("/cases/x.case", text, "/cases")
	if err == nil || !strings.Contains(err.Error(), "unknown condition") {
		t.Fatalf("error = %v", err)
	}
}

func TestSections(t *testing.T) {
	t.Parallel()

	got := sections("prelude is ignored\n__a__\nfirst\n__b__:\nsecond\n")
	if len(got) != 2 {
		t.Fatalf("expected 2 sections, got %d: %v", len(got), got)
	}
	if got[0].name != "a" || !strings.Contains(got[0].content, "first") {
		t.Fatalf("first section = %+v", got[0])
	}
	if got[1].name != "b" || strings.Contains(got[1].content, "first") {
		t.Fatalf("second section = %+v", got[1])
	}
}
