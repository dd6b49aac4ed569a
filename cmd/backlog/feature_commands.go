package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

func newStatsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show backlog completion statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withBacklog(func(api backlogAPI) error {
				stats, err := api.Stats(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%d of %d features passing (%s)\n",
					stats.Passing, stats.Total, formatPercent(stats.Percentage))
				return nil
			})
		},
	}
}

func newListCommand(ctx *commandContext) *cobra.Command {
	var pendingOnly bool
	var passingOnly bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List backlog features in queue order",
		RunE: func(cmd *cobra.Command, args []string) error {
			if pendingOnly && passingOnly {
				return errors.New("--pending and --passing are mutually exclusive")
			}
			return ctx.withBacklog(func(api backlogAPI) error {
				items, err := api.List(cmd.Context())
				if err != nil {
					return err
				}
				if pendingOnly || passingOnly {
					filtered := items[:0]
					for _, item := range items {
						if item.Passes == passingOnly {
							filtered = append(filtered, item)
						}
					}
					items = filtered
				}
				if len(items) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "Backlog is empty")
					return nil
				}
				table := renderTable(featureListHeaders, buildFeatureRows(items), featureListAligns)
				fmt.Fprintln(cmd.OutOrStdout(), table)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&pendingOnly, "pending", false, "Only show features that are not passing")
	cmd.Flags().BoolVar(&passingOnly, "passing", false, "Only show passing features")
	return cmd
}

func newShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show full details for one feature",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return ctx.withBacklog(func(api backlogAPI) error {
				resp, err := api.Get(cmd.Context(), id)
				if err != nil {
					return err
				}
				if resp.Error != "" {
					return errors.New(resp.Error)
				}
				feature := resp.Feature

				pairs := [][2]string{
					{"ID", strconv.FormatInt(feature.ID, 10)},
					{"Priority", strconv.FormatInt(feature.Priority, 10)},
					{"Category", displayCategory(feature.Category)},
					{"Name", feature.Name},
					{"State", featureState(*feature)},
					{"Failures", strconv.Itoa(feature.FailureCount)},
				}
				if feature.LastError != "" {
					pairs = append(pairs, [2]string{"Last error", feature.LastError})
				}
				if feature.CreatedAt != "" {
					pairs = append(pairs, [2]string{"Created", feature.CreatedAt})
				}

				out := cmd.OutOrStdout()
				fmt.Fprintln(out, renderPairs(pairs))
				fmt.Fprintln(out, "Description:")
				fmt.Fprintln(out, "  "+strings.ReplaceAll(feature.Description, "\n", "\n  "))
				if len(feature.Steps) > 0 {
					fmt.Fprintln(out, "Steps:")
					for i, step := range feature.Steps {
						fmt.Fprintf(out, "  %d. %s\n", i+1, step)
					}
				}
				return nil
			})
		},
	}
}
