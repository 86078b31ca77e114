package expect

import (
	"context"
	"io"
	"time"

	"github.com/huanghao/nose-xcase/internal/domain/testrun"
	"github.com/huanghao/nose-xcase/internal/ports"
)

// Ensure ShellAutomaton implements ports.ShellRunner.
var _ ports.ShellRunner = (*ShellAutomaton)(nil)

// AutomatonConfig configures the phase-script runner.
type AutomatonConfig struct {
	// Shell interprets generated phase scripts. Defaults to /bin/bash.
	Shell string
	// SudoPassword answers elevated-privilege prompts in every phase.
	SudoPassword string
	// AbsoluteTimeout caps one phase script's total run time.
	AbsoluteTimeout time.Duration
	// IdleTimeout fails a phase that produces no output for that long.
	IdleTimeout time.Duration
}

// ShellAutomaton runs generated phase scripts under a pseudo-terminal with
// the elevated-privilege responder always checked first.
type ShellAutomaton struct {
	shell    string
	password string
	absolute time.Duration
	idle     time.Duration
}

// NewShellAutomaton constructs a ShellAutomaton from the configuration.
func NewShellAutomaton(cfg AutomatonConfig) *ShellAutomaton {
	shell := cfg.Shell
	if shell == "" {
		shell = "/bin/bash"
	}
	return &ShellAutomaton{
		shell:    shell,
		password: cfg.SudoPassword,
		absolute: cfg.AbsoluteTimeout,
		idle:     cfg.IdleTimeout,
	}
}

// RunScript executes one phase script, merging the case's extra rules
// after the elevation rules.
func (a *ShellAutomaton) RunScript(ctx context.Context, script string, extra []testrun.ExpectRule, output io.Writer) (int, error) {
	rules := SudoRules(a.password)
	compiled, err := Compile(extra)
	if err != nil {
		return -1, err
	}
	rules = append(rules, compiled...)

	return Call(ctx, a.shell, []string{script}, Options{
		Rules:           rules,
		Output:          output,
		AbsoluteTimeout: a.absolute,
		IdleTimeout:     a.idle,
	})
}
