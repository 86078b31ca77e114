// Package report contains result sink implementations.
package report

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/huanghao/nose-xcase/internal/domain/testrun"
	"github.com/huanghao/nose-xcase/internal/ports"
)

// Ensure Console implements ports.ResultSink.
var _ ports.ResultSink = (*Console)(nil)

// Console prints one line per case plus a final summary. The engine runs
// cases one at a time, so no locking is needed.
type Console struct {
	out io.Writer

	total      int
	success    int
	failure    int
	skipped    int
	exceptions int
}

// NewConsole builds a Console writing to out.
func NewConsole(out io.Writer) *Console {
	return &Console{out: out}
}

func (c *Console) TestStart(tc *testrun.Case) {
	c.total++
	fmt.Fprintf(c.out, "RUN  %s: %s\n", c.label(tc), tc.Summary)
}

func (c *Console) TestStop(*testrun.Case) {}

func (c *Console) AddSuccess(tc *testrun.Case) {
	c.success++
	fmt.Fprintf(c.out, "OK   %s\n", c.label(tc))
}

func (c *Console) AddFailure(tc *testrun.Case) {
	c.failure++
	fmt.Fprintf(c.out, "FAIL %s\n", c.label(tc))
}

func (c *Console) AddSkipped(tc *testrun.Case, reason string) {
	c.skipped++
	fmt.Fprintf(c.out, "SKIP %s (%s)\n", c.label(tc), reason)
}

func (c *Console) AddException(tc *testrun.Case, err error) {
	c.exceptions++
	fmt.Fprintf(c.out, "ERROR %s: %v\n", c.label(tc), err)
}

// Summary prints run totals and reports whether every case passed.
func (c *Console) Summary() bool {
	fmt.Fprintf(c.out, "\n%d run, %d passed, %d failed, %d skipped, %d errors\n",
		c.total, c.success, c.failure, c.skipped, c.exceptions)
	return c.failure == 0 && c.exceptions == 0
}

func (c *Console) label(tc *testrun.Case) string {
	base := filepath.Base(tc.Filename)
	if tc.Component == "" || tc.Component == "unknown" {
		return base
	}
	return tc.Component + "/" + base
}
