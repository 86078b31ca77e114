// Package config loads process-wide settings: an optional YAML file with
// environment-variable overrides. The resulting Settings value is
// immutable and threaded into the controller and automaton explicitly.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Settings are the fixed inputs of a test session.
type Settings struct {
	// SudoPassword answers elevated-privilege prompts.
	SudoPassword string `yaml:"sudo_password"`

	// RunCaseTimeout is the absolute deadline per phase script.
	RunCaseTimeout time.Duration `yaml:"run_case_timeout"`
	// HangingTimeout is the idle deadline: silence longer than this
	// fails the phase. Zero disables idle detection.
	HangingTimeout time.Duration `yaml:"hanging_timeout"`

	// CasesDir is the root of the case tree.
	CasesDir string `yaml:"cases_dir"`
	// FixturesDir holds named fixtures.
	FixturesDir string `yaml:"fixtures_dir"`
	// Workspace is the base directory for run directories.
	Workspace string `yaml:"workspace"`
	// CleanupWorkspace removes the run directories of passing cases.
	// Failing, erroring and interrupted runs always keep theirs for
	// inspection.
	CleanupWorkspace bool `yaml:"cleanup_workspace"`

	// Suites maps alias names to selector lists.
	Suites map[string][]string `yaml:"suites"`

	// DistLabels override detected machine labels when non-empty.
	DistLabels []string `yaml:"dist_labels"`

	// Target coverage collection.
	EnableCoverage bool   `yaml:"enable_coverage"`
	TargetName     string `yaml:"target_name"`
	CoverageRcfile string `yaml:"coverage_rcfile"`

	Kafka KafkaSettings `yaml:"kafka"`
}

// KafkaSettings configure the optional run-report publisher; empty
// brokers disable it.
type KafkaSettings struct {
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
}

// Default returns the built-in settings.
func Default() Settings {
	return Settings{
		RunCaseTimeout: 30 * time.Minute,
		HangingTimeout: 5 * time.Minute,
		Workspace:      filepath.Join(os.TempDir(), "itest-workspace"),
		Kafka:          KafkaSettings{Topic: "itest-reports"},
	}
}

// Load reads settings from the YAML file at path over the defaults, then
// applies environment overrides. An empty path skips the file.
func Load(path string) (Settings, error) {
	s := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return s, fmt.Errorf("read settings: %w", err)
		}
		if err := yaml.Unmarshal(data, &s); err != nil {
			return s, fmt.Errorf("parse settings: %w", err)
		}
	}

	s.applyEnv()

	// The coverage rcfile only matters when it actually exists.
	if s.CoverageRcfile != "" {
		if _, err := os.Stat(s.CoverageRcfile); err != nil {
			s.CoverageRcfile = ""
		}
	}
	return s, nil
}

func (s *Settings) applyEnv() {
	s.SudoPassword = envOrDefault("ITEST_SUDO_PASSWORD", s.SudoPassword)
	s.RunCaseTimeout = parseDuration(os.Getenv("ITEST_RUN_CASE_TIMEOUT"), s.RunCaseTimeout)
	s.HangingTimeout = parseDuration(os.Getenv("ITEST_HANGING_TIMEOUT"), s.HangingTimeout)
	s.CasesDir = envOrDefault("ITEST_CASES_DIR", s.CasesDir)
	s.FixturesDir = envOrDefault("ITEST_FIXTURES_DIR", s.FixturesDir)
	s.Workspace = envOrDefault("ITEST_WORKSPACE", s.Workspace)
	s.CleanupWorkspace = parseBool(os.Getenv("ITEST_CLEANUP_WORKSPACE"), s.CleanupWorkspace)
	s.TargetName = envOrDefault("ITEST_TARGET_NAME", s.TargetName)
	s.EnableCoverage = parseBool(os.Getenv("ITEST_ENABLE_COVERAGE"), s.EnableCoverage)
	s.CoverageRcfile = envOrDefault("ITEST_COVERAGE_RCFILE", s.CoverageRcfile)

	if brokers := parseBrokerList(os.Getenv("ITEST_KAFKA_BROKERS")); len(brokers) > 0 {
		s.Kafka.Brokers = brokers
	}
	s.Kafka.Topic = envOrDefault("ITEST_KAFKA_TOPIC", s.Kafka.Topic)

	if labels := os.Getenv("ITEST_DIST_LABELS"); labels != "" {
		s.DistLabels = strings.Fields(labels)
	}
}

func envOrDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		// Bare numbers are accepted as seconds.
		secs, serr := strconv.ParseFloat(raw, 64)
		if serr != nil {
			return fallback
		}
		return time.Duration(secs * float64(time.Second))
	}
	return d
}

func parseBool(raw string, fallback bool) bool {
	if raw == "" {
		return fallback
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		return fallback
	}
	return value
}

func parseBrokerList(raw string) []string {
	fields := strings.Split(raw, ",")
	brokers := make([]string, 0, len(fields))
	for _, field := range fields {
		if trimmed := strings.TrimSpace(field); trimmed != "" {
			brokers = append(brokers, trimmed)
		}
	}
	return brokers
}
