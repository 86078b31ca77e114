package testrun

import "time"

// Outcome classifies a finished run. Exactly one outcome is reported per run.
type Outcome string

const (
	OutcomeSuccess   Outcome = "success"
	OutcomeFailure   Outcome = "failure"
	OutcomeSkipped   Outcome = "skipped"
	OutcomeException Outcome = "exception"
)

// Report captures everything known about one finished run, for result
// publishers and the suite driver.
type Report struct {
	Case    *Case
	Outcome Outcome

	// Reason is set for skipped runs (the triggering condition).
	Reason string
	// Err is set for exception runs.
	Err error

	// ExitCode is the steps-phase exit status; -1 stands for an internal
	// execution failure. Meaningful for success/failure outcomes only.
	ExitCode int

	Duration time.Duration
	// RunDir is the workspace directory the case ran in. Empty for
	// skipped runs and workspace acquisition failures.
	RunDir  string
	LogPath string
}
