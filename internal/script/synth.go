// Package script turns the shell fragments of a test case into the three
// phase scripts executed by the engine. Synthesis is a pure function of
// the case fields and the fixed settings: identical inputs yield
// byte-identical script text.
package script

import (
	"fmt"
	"path/filepath"

	"github.com/huanghao/nose-xcase/internal/domain/testrun"
)

// MetaDir is the fixed-name metadata subdirectory of a run directory,
// holding generated scripts, the run log, and variable snapshots.
const MetaDir = ".meta"

// Paths inside the run directory, relative because every script starts
// with a cd into it.
const (
	varOldFile = MetaDir + "/var.old"
	varNewFile = MetaDir + "/var.new"

	// VarsFile persists the line-level difference of exported-variable
	// snapshots taken around setup; steps and teardown source it.
	VarsFile = MetaDir + "/var.out"
)

// Config carries the settings that influence synthesis.
type Config struct {
	// EnableCoverage turns on the coverage-wrapping glue in the steps
	// script. It has no effect without TargetName.
	EnableCoverage bool
	// TargetName is the executable under test, wrapped for coverage.
	TargetName string
	// CoverageRcfile is a resolved rcfile path, or empty when none exists.
	CoverageRcfile string
}

// Texts holds the synthesized script bodies. Setup and Teardown are empty
// when the case declares no such phase.
type Texts struct {
	Setup    string
	Steps    string
	Teardown string
}

// Synthesize builds the three phase scripts for a case running in rundir,
// with its log at logPath.
func Synthesize(c *testrun.Case, rundir, logPath string, cfg Config) Texts {
	return Texts{
		Setup:    setupText(c, rundir),
		Steps:    stepsText(c, rundir, logPath, cfg),
		Teardown: teardownText(c, rundir),
	}
}

// setupText snapshots the shell variable state before and after the setup
// body and persists the line-level diff, capturing both newly defined
// variables and variables whose value changed.
func setupText(c *testrun.Case, rundir string) string {
	if c.Setup == "" {
		return ""
	}
	return fmt.Sprintf(`cd %s
(set -o posix; set) > %s
set -x
%s
set +x
(set -o posix; set) > %s
diff --unchanged-line-format= --old-line-format= --new-line-format='%%L' \
    %s %s > %s
`, rundir, varOldFile, c.Setup, varNewFile, varOldFile, varNewFile, VarsFile)
}

// stepsText inherits setup's environment additions by sourcing the
// variable-diff file, then runs the steps body with pipefail and
// trace+exit-on-error semantics.
func stepsText(c *testrun.Case, rundir, logPath string, cfg Config) string {
	return fmt.Sprintf(`cd %s
if [ -f %s ]; then
    . %s
fi
%s
set -o pipefail
set -ex
%s
`, rundir, VarsFile, VarsFile, coverageText(logPath, cfg), c.Steps)
}

// teardownText sources the same variable file and runs the teardown body
// with tracing but without exit-on-error: teardown must attempt all of
// its statements even if one fails.
func teardownText(c *testrun.Case, rundir string) string {
	if c.Teardown == "" {
		return ""
	}
	return fmt.Sprintf(`cd %s
if [ -f %s ]; then
    . %s
fi
set -x
%s
`, rundir, VarsFile, VarsFile, c.Teardown)
}

// coverageText redefines invocations of the target executable, and of
// sudo when its first argument is the target, to run under a
// coverage-collecting wrapper. Coverage data accumulates next to the run
// log; the target's exit code and output are unaffected.
func coverageText(logPath string, cfg Config) string {
	if !cfg.EnableCoverage || cfg.TargetName == "" {
		return ""
	}

	opts := ""
	if cfg.CoverageRcfile != "" {
		opts = "--rcfile " + cfg.CoverageRcfile
	}
	coverageFile := filepath.Join(filepath.Dir(logPath), ".coverage")

	return fmt.Sprintf(`
__ITEST_ORIG_TARGET__=$(which %[1]s)
shopt -s expand_aliases
coverage=$(which python-coverage 2>/dev/null || which coverage)
runsudo()
{
if [ $1 == %[1]s ]; then
shift
sudo COVERAGE_FILE=%[2]s $coverage run -p %[3]s $(which %[1]s) "$@" && set -o pipefail
else
sudo "$@" && set -o pipefail
fi
}
alias sudo=runsudo
alias %[1]s='COVERAGE_FILE=%[2]s $coverage run -p %[3]s '$__ITEST_ORIG_TARGET__
`, cfg.TargetName, coverageFile, opts)
}
