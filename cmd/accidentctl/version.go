package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newVersionCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show API and model version",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "API:    %s\n", cfg.App.Version)
			fmt.Fprintf(cmd.OutOrStdout(), "Model:  %s\n", cfg.Model.Version)
			return nil
		},
	}
}
