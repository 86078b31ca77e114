package kafka

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/huanghao/nose-xcase/internal/domain/testrun"
)

type reportEnvelope struct {
	Case       string            `json:"case"`
	Component  string            `json:"component,omitempty"`
	Summary    string            `json:"summary,omitempty"`
	Version    string            `json:"version,omitempty"`
	Issue      map[string]string `json:"issue,omitempty"`
	Outcome    string            `json:"outcome"`
	Reason     string            `json:"reason,omitempty"`
	Error      string            `json:"error,omitempty"`
	ExitCode   *int              `json:"exit_code,omitempty"`
	DurationMs *int64            `json:"duration_ms,omitempty"`
	LogPath    string            `json:"log_path,omitempty"`
	Timestamp  time.Time         `json:"timestamp"`
}

func encodeReport(report testrun.Report) ([]byte, error) {
	payload, err := json.Marshal(makeReportEnvelope(report))
	if err != nil {
		return nil, fmt.Errorf("marshal report: %w", err)
	}
	return payload, nil
}

func makeReportEnvelope(report testrun.Report) reportEnvelope {
	env := reportEnvelope{
		Case:      report.Case.Filename,
		Component: report.Case.Component,
		Summary:   report.Case.Summary,
		Version:   report.Case.Version,
		Issue:     report.Case.Issue,
		Outcome:   string(report.Outcome),
		Reason:    report.Reason,
		LogPath:   report.LogPath,
		Timestamp: time.Now().UTC(),
	}

	if report.Err != nil {
		env.Error = report.Err.Error()
	}

	// Exit code and duration only exist once the phases actually ran.
	switch report.Outcome {
	case testrun.OutcomeSuccess, testrun.OutcomeFailure:
		exit := report.ExitCode
		env.ExitCode = &exit
		ms := report.Duration.Milliseconds()
		env.DurationMs = &ms
	}
	return env
}
