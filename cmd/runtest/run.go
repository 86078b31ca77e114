package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/huanghao/nose-xcase/internal/app/runner"
	"github.com/huanghao/nose-xcase/internal/config"
	"github.com/huanghao/nose-xcase/internal/domain/testrun"
	"github.com/huanghao/nose-xcase/internal/expect"
	kafkainfra "github.com/huanghao/nose-xcase/internal/infra/kafka"
	"github.com/huanghao/nose-xcase/internal/infra/workspace"
	"github.com/huanghao/nose-xcase/internal/loader"
	"github.com/huanghao/nose-xcase/internal/report"
	"github.com/huanghao/nose-xcase/internal/script"
)

func newRunCmd() *cobra.Command {
	var settingsFile string
	var verbose bool

	cmd := &cobra.Command{
		Use:   "run [selector...]",
		Short: "Run the selected test cases",
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := config.Load(settingsFile)
			if err != nil {
				return err
			}
			return runCases(settings, args, verbose)
		},
	}

	cmd.Flags().StringVarP(&settingsFile, "settings", "s", "", "settings file (YAML)")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "mirror run logs to the console")
	return cmd
}

func runCases(settings config.Settings, selectors []string, verbose bool) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	suite, err := loadSuite(settings, selectors)
	if err != nil {
		return err
	}
	if suite.Len() == 0 {
		return fmt.Errorf("no test cases matched")
	}

	console := report.NewConsole(os.Stdout)

	var publisher *kafkainfra.Publisher
	if len(settings.Kafka.Brokers) > 0 {
		publisher, err = kafkainfra.NewPublisher(kafkainfra.PublisherConfig{
			Brokers: settings.Kafka.Brokers,
			Topic:   settings.Kafka.Topic,
		})
		if err != nil {
			return fmt.Errorf("initialize kafka publisher: %w", err)
		}
		defer func() {
			if cerr := publisher.Close(); cerr != nil {
				log.Printf("warning: close kafka publisher: %v", cerr)
			}
		}()
	}

	shell := expect.NewShellAutomaton(expect.AutomatonConfig{
		SudoPassword:    settings.SudoPassword,
		AbsoluteTimeout: settings.RunCaseTimeout,
		IdleTimeout:     settings.HangingTimeout,
	})
	space := workspace.NewProvider(workspace.Config{
		Root:         settings.Workspace,
		FixturesDir:  settings.FixturesDir,
		SudoPassword: settings.SudoPassword,
	})

	cfg := runner.Config{
		Labels: config.MachineLabels(settings),
		Script: script.Config{
			EnableCoverage: settings.EnableCoverage,
			TargetName:     settings.TargetName,
			CoverageRcfile: settings.CoverageRcfile,
		},
	}
	if verbose {
		cfg.Verbose = os.Stdout
	}

	service := runner.NewService(shell, space, console, cfg)

	// Reports of a cancelled run must still go out, and cleanup of a
	// cancelled run's workspace must still happen.
	pubCtx := context.WithoutCancel(ctx)
	runErr := service.RunSuite(ctx, suite, func(r testrun.Report) {
		if publisher != nil {
			if perr := publisher.PublishReport(pubCtx, r); perr != nil {
				log.Printf("warning: publish report for %s: %v", r.Case.Filename, perr)
			}
		}
		if settings.CleanupWorkspace && r.Outcome == testrun.OutcomeSuccess && r.RunDir != "" {
			if cerr := space.Cleanup(pubCtx, r.RunDir); cerr != nil {
				log.Printf("warning: cleanup %s: %v", r.RunDir, cerr)
			}
		}
	})

	passed := console.Summary()
	if runErr != nil {
		return runErr
	}
	if !passed {
		return fmt.Errorf("some cases did not pass")
	}
	return nil
}

func loadSuite(settings config.Settings, selectors []string) (*testrun.Suite, error) {
	if settings.CasesDir == "" && len(selectors) == 0 {
		return nil, fmt.Errorf("no selectors given and no cases_dir configured")
	}
	ld := loader.New(loader.Env{CasesDir: settings.CasesDir, Suites: settings.Suites})
	return ld.LoadArgs(selectors)
}
