package main

import (
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "runtest",
		Short: "Run black-box functional tests against this machine",
		Long: `runtest executes functional tests written as shell fragments
(setup/steps/teardown), automating interactive prompts such as sudo
password requests and enforcing run-time limits.`,
		SilenceUsage: true,
	}

	root.AddCommand(newRunCmd())
	root.AddCommand(newListCmd())
	return root
}
