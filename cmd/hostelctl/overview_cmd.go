package main

import (
	"github.com/spf13/cobra"
)

func newOverviewCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "overview",
		Short: "Issue analytics for management",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := a.gate(cmd.Context(), management); err != nil {
				return err
			}
			o, err := a.client.Overview(cmd.Context())
			if err != nil {
				return err
			}
			printOverview(cmd.OutOrStdout(), o)
			return nil
		},
	}
}
