package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newRegressionCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "regression",
		Short: "Sample random passing features for regression testing",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withBacklog(func(api backlogAPI) error {
				resp, err := api.Regression(cmd.Context(), limit)
				if err != nil {
					return err
				}
				if resp.Count == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No passing features to sample")
					return nil
				}
				table := renderTable(featureListHeaders, buildFeatureRows(resp.Features), featureListAligns)
				fmt.Fprintln(cmd.OutOrStdout(), table)
				return nil
			})
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Sample size (1-10, default 3)")
	return cmd
}
