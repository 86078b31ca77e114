package expect

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"regexp"
	"time"

	"github.com/creack/pty"

	"github.com/huanghao/nose-xcase/internal/domain/testrun"
)

// Rule pairs a compiled prompt pattern with the response written to the
// child when the pattern matches its output.
type Rule struct {
	Pattern  *regexp.Regexp
	Response string
}

// Compile translates author-supplied QA rules into matchable rules,
// preserving declaration order.
func Compile(rules []testrun.ExpectRule) ([]Rule, error) {
	out := make([]Rule, 0, len(rules))
	for _, r := range rules {
		re, err := regexp.Compile(r.Pattern)
		if err != nil {
			return nil, fmt.Errorf("compile expect pattern %q: %w", r.Pattern, err)
		}
		out = append(out, Rule{Pattern: re, Response: r.Response})
	}
	return out, nil
}

// Options configure a single Call.
type Options struct {
	// Rules are checked in order; the first match wins.
	Rules []Rule
	// Output receives everything the child writes, including echoed
	// responses. May be nil.
	Output io.Writer
	// AbsoluteTimeout caps total run time. Zero means no ceiling.
	AbsoluteTimeout time.Duration
	// IdleTimeout fails the call after that much silence even when the
	// absolute ceiling has not elapsed. Zero disables idle detection.
	IdleTimeout time.Duration
	// Dir is the child's working directory.
	Dir string
	// Env replaces the child's environment when non-empty.
	Env []string
}

// Patterns are matched against a sliding window of unconsumed output; a
// prompt is assumed to fit in it.
const maxScanWindow = 1 << 16

type chunk struct {
	data []byte
}

// Call spawns name with args attached to a pseudo-terminal and drives it
// through the rule set: child output is copied to opts.Output and scanned
// for prompts; each match sends the rule's response plus a newline to the
// child's input. The loop ends on end-of-stream, deadline expiry, or
// cancellation.
//
// On normal completion Call returns the child's exit status. On any other
// path the pseudo-terminal is closed, the child is killed, and the error
// (a *TimeoutError for deadline expiry) is returned with status -1.
func Call(ctx context.Context, name string, args []string, opts Options) (int, error) {
	cmd := exec.Command(name, args...)
	cmd.Dir = opts.Dir
	if len(opts.Env) > 0 {
		cmd.Env = opts.Env
	}

	ptmx, err := pty.Start(cmd)
	if err != nil {
		return -1, fmt.Errorf("spawn %s: %w", name, err)
	}

	reads := make(chan chunk, 1)
	go func() {
		defer close(reads)
		buf := make([]byte, 4096)
		for {
			n, err := ptmx.Read(buf)
			if n > 0 {
				data := make([]byte, n)
				copy(data, buf[:n])
				reads <- chunk{data: data}
			}
			if err != nil {
				// The master side errors out (EIO on Linux) once the
				// child exits; either way the stream is over.
				return
			}
		}
	}()

	abort := func() {
		_ = ptmx.Close()
		if cmd.Process != nil {
			_ = cmd.Process.Kill()
		}
		// Let the reader drain and exit before reaping the child.
		go func() {
			for range reads {
			}
		}()
		_ = cmd.Wait()
	}

	start := time.Now()
	readTimeout := opts.AbsoluteTimeout
	if opts.IdleTimeout > 0 {
		readTimeout = opts.IdleTimeout
	}

	var expire <-chan time.Time
	var timer *time.Timer
	if readTimeout > 0 {
		timer = time.NewTimer(readTimeout)
		defer timer.Stop()
		expire = timer.C
	}

	var window []byte

loop:
	for {
		// With idle detection on, the per-read timeout is the idle value,
		// so the absolute ceiling has to be re-checked against wall-clock
		// time; continuous output must not extend it.
		if opts.IdleTimeout > 0 && opts.AbsoluteTimeout > 0 && time.Since(start) >= opts.AbsoluteTimeout {
			abort()
			return -1, newTimeout(TimeoutAbsolute, opts.AbsoluteTimeout, time.Since(start), name, args)
		}

		select {
		case c, ok := <-reads:
			if !ok {
				break loop
			}
			if opts.Output != nil {
				if _, werr := opts.Output.Write(c.data); werr != nil {
					abort()
					return -1, fmt.Errorf("write output: %w", werr)
				}
			}
			window = append(window, c.data...)
			if err := respond(ptmx, opts.Rules, &window); err != nil {
				abort()
				return -1, err
			}
			if len(window) > maxScanWindow {
				window = append(window[:0:0], window[len(window)-maxScanWindow:]...)
			}
			// Any output resets the idle clock, matched or not. Without
			// idle detection the timer holds the absolute deadline and
			// must keep running: continuous output never extends it.
			if timer != nil && opts.IdleTimeout > 0 {
				resetTimer(timer, readTimeout)
			}
		case <-expire:
			abort()
			elapsed := time.Since(start)
			if opts.IdleTimeout > 0 {
				if opts.AbsoluteTimeout > 0 && elapsed >= opts.AbsoluteTimeout {
					return -1, newTimeout(TimeoutAbsolute, opts.AbsoluteTimeout, elapsed, name, args)
				}
				return -1, newTimeout(TimeoutIdle, opts.IdleTimeout, elapsed, name, args)
			}
			return -1, newTimeout(TimeoutAbsolute, opts.AbsoluteTimeout, elapsed, name, args)
		case <-ctx.Done():
			abort()
			return -1, ctx.Err()
		}
	}

	_ = ptmx.Close()
	if err := cmd.Wait(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return exitErr.ExitCode(), nil
		}
		return -1, fmt.Errorf("wait for %s: %w", name, err)
	}
	return 0, nil
}

// respond answers every prompt currently visible in the window, first
// matching rule in declaration order wins. Matched output is consumed so a
// prompt triggers exactly one response.
func respond(w io.Writer, rules []Rule, window *[]byte) error {
	for {
		matched := false
		for _, r := range rules {
			loc := r.Pattern.FindIndex(*window)
			if loc == nil {
				continue
			}
			if _, err := w.Write([]byte(r.Response + "\n")); err != nil {
				return fmt.Errorf("send response %q: %w", r.Response, err)
			}
			*window = (*window)[loc[1]:]
			matched = true
			break
		}
		if !matched {
			return nil
		}
	}
}

func resetTimer(t *time.Timer, d time.Duration) {
	if !t.Stop() {
		select {
		case <-t.C:
		default:
		}
	}
	t.Reset(d)
}
