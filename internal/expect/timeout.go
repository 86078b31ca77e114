package expect

import (
	"fmt"
	"strings"
	"time"
)

// TimeoutKind tells the two deadline families apart.
type TimeoutKind int

const (
	// TimeoutAbsolute means the hard ceiling on total run time elapsed.
	TimeoutAbsolute TimeoutKind = iota
	// TimeoutIdle means the child stayed silent longer than allowed.
	TimeoutIdle
)

// TimeoutError reports a deadline expiry during Call.
type TimeoutError struct {
	Kind    TimeoutKind
	Limit   time.Duration
	Elapsed time.Duration
	Cmd     string
	Args    []string
}

func newTimeout(kind TimeoutKind, limit, elapsed time.Duration, cmd string, args []string) *TimeoutError {
	return &TimeoutError{Kind: kind, Limit: limit, Elapsed: elapsed, Cmd: cmd, Args: args}
}

func (e *TimeoutError) Error() string {
	cmdline := strings.TrimSpace(e.Cmd + " " + strings.Join(e.Args, " "))
	if e.Kind == TimeoutIdle {
		return fmt.Sprintf("hanging for %s!:%s", e.Limit, cmdline)
	}
	return fmt.Sprintf("run out of time in %s!:%s", e.Elapsed.Round(time.Millisecond), cmdline)
}
