package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/huanghao/nose-xcase/internal/config"
)

func newListCmd() *cobra.Command {
	var settingsFile string

	cmd := &cobra.Command{
		Use:   "list [selector...]",
		Short: "List the case files the selectors resolve to",
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := config.Load(settingsFile)
			if err != nil {
				return err
			}
			suite, err := loadSuite(settings, args)
			if err != nil {
				return err
			}
			for _, c := range suite.Cases() {
				fmt.Fprintln(cmd.OutOrStdout(), c.Filename)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&settingsFile, "settings", "s", "", "settings file (YAML)")
	return cmd
}
