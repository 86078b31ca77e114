// Package runner sequences a test case through its phases and classifies
// the outcome.
package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	stdlog "log"
	"os"
	"path/filepath"
	"time"

	"github.com/huanghao/nose-xcase/internal/domain/testrun"
	"github.com/huanghao/nose-xcase/internal/logfile"
	"github.com/huanghao/nose-xcase/internal/ports"
	"github.com/huanghao/nose-xcase/internal/script"
)

// Config carries the immutable settings the controller needs.
type Config struct {
	// Labels are the machine's distribution labels for condition checks.
	Labels []string
	// Script configures phase-script synthesis.
	Script script.Config
	// Verbose, when non-nil, receives a live copy of every run log.
	Verbose io.Writer
}

// Service is the run lifecycle controller. It owns a case for the
// duration of one run: condition check, workspace acquisition, logging,
// script synthesis, phase execution, and outcome classification.
type Service struct {
	shell ports.ShellRunner
	space ports.Workspace
	sink  ports.ResultSink
	cfg   Config
}

// NewService constructs a Service with its collaborators.
func NewService(shell ports.ShellRunner, space ports.Workspace, sink ports.ResultSink, cfg Config) *Service {
	return &Service{shell: shell, space: space, sink: sink, cfg: cfg}
}

// Run executes one case end to end. The sink receives exactly one
// terminal notification, bracketed by TestStart/TestStop. The returned
// error is non-nil only for operator cancellation, which the surrounding
// driver must treat as an instruction to stop issuing runs.
func (s *Service) Run(ctx context.Context, c *testrun.Case) (testrun.Report, error) {
	report := testrun.Report{Case: c}
	start := time.Now()

	s.sink.TestStart(c)
	defer s.sink.TestStop(c)

	// A condition mismatch skips before any workspace is acquired.
	if reason, skip := c.Conditions.Skip(s.cfg.Labels); skip {
		report.Outcome = testrun.OutcomeSkipped
		report.Reason = reason
		s.sink.AddSkipped(c, reason)
		return report, nil
	}

	exit, rundir, logPath, err := s.execute(ctx, c)
	report.Duration = time.Since(start)
	report.RunDir = rundir
	report.LogPath = logPath
	report.ExitCode = exit

	switch {
	case err == nil && exit == 0:
		report.Outcome = testrun.OutcomeSuccess
		s.sink.AddSuccess(c)
	case err == nil:
		report.Outcome = testrun.OutcomeFailure
		s.sink.AddFailure(c)
	case isCancellation(err):
		// Broken off by the operator: count as a failure, then re-raise.
		report.Outcome = testrun.OutcomeFailure
		s.sink.AddFailure(c)
		return report, err
	default:
		report.Outcome = testrun.OutcomeException
		report.Err = err
		s.sink.AddException(c, err)
	}
	return report, nil
}

// RunSuite drives the cases sequentially, invoking onReport after every
// finished run. It stops issuing runs on operator cancellation.
func (s *Service) RunSuite(ctx context.Context, suite *testrun.Suite, onReport func(testrun.Report)) error {
	for _, c := range suite.Cases() {
		if err := ctx.Err(); err != nil {
			return err
		}
		report, err := s.Run(ctx, c)
		if onReport != nil {
			onReport(report)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// execute acquires the run directory, opens the log, synthesizes the
// scripts, and drives the phases. The log handle is released and the
// persisted log scrubbed on every exit path.
func (s *Service) execute(ctx context.Context, c *testrun.Case) (exit int, rundir, logPath string, err error) {
	rundir, err = s.space.NewRunDirectory(c.Version, filepath.Dir(c.Filename), c.Fixtures)
	if err != nil {
		return 0, "", "", fmt.Errorf("acquire run directory: %w", err)
	}

	metaDir := filepath.Join(rundir, script.MetaDir)
	if err := os.Mkdir(metaDir, 0o755); err != nil {
		return 0, rundir, "", fmt.Errorf("create metadata directory: %w", err)
	}

	logPath = filepath.Join(metaDir, "log")
	runLog, err := logfile.Open(logPath, s.cfg.Verbose)
	if err != nil {
		return 0, rundir, logPath, err
	}
	defer func() {
		_ = runLog.Close()
		if serr := logfile.Scrub(logPath); serr != nil {
			stdlog.Printf("warning: scrub %s: %v", logPath, serr)
		}
	}()

	files, err := script.Write(script.Synthesize(c, rundir, logPath, s.cfg.Script), metaDir)
	if err != nil {
		return 0, rundir, logPath, err
	}

	exit, err = s.phases(ctx, c, runLog, files)
	return exit, rundir, logPath, err
}

// phases runs setup, steps, and teardown in order. Setup and teardown
// exit statuses are observational only; the returned status is the steps
// phase's.
func (s *Service) phases(ctx context.Context, c *testrun.Case, runLog *logfile.Log, files script.Files) (exit int, err error) {
	runLog.Mark("INFO: case start to run!")
	// Teardown and the finish marker run on every path out of the
	// phases. Cleanup is detached from the run context so an interrupt
	// during steps still lets it execute once.
	defer func() {
		s.teardown(context.WithoutCancel(ctx), runLog, files)
		runLog.Mark("INFO: case is finished!")
	}()

	if files.Setup != "" {
		runLog.Mark("INFO: setup start")
		if _, err = s.phase(ctx, runLog, files.Setup, nil); err != nil {
			return 0, err
		}
		runLog.Mark("INFO: setup finish")
	}

	runLog.Mark("INFO: steps start")
	exit, err = s.phase(ctx, runLog, files.Steps, c.QA)
	if err != nil {
		return exit, err
	}
	runLog.Mark("INFO: steps finish")
	return exit, nil
}

func (s *Service) teardown(ctx context.Context, runLog *logfile.Log, files script.Files) {
	if files.Teardown == "" {
		return
	}
	runLog.Mark("INFO: teardown start")
	if _, err := s.phase(ctx, runLog, files.Teardown, nil); err != nil {
		// Teardown failures never override the steps outcome.
		return
	}
	runLog.Mark("INFO: teardown finish")
}

// phase runs one generated script. Timeouts and other internal execution
// failures are logged and folded into exit status -1; only cancellation
// propagates.
func (s *Service) phase(ctx context.Context, runLog *logfile.Log, path string, qa []testrun.ExpectRule) (int, error) {
	exit, err := s.shell.RunScript(ctx, path, qa, runLog)
	if err != nil {
		if isCancellation(err) {
			return exit, err
		}
		runLog.Mark(fmt.Sprintf("ERROR: pcall error:%s\n%s", path, err))
		return -1, nil
	}
	return exit, nil
}

func isCancellation(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
