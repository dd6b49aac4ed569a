package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"backlog/internal/ipc"
)

func newNextCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "next",
		Short: "Fetch the next feature to work on",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withBacklog(func(api backlogAPI) error {
				resp, err := api.FetchNext(cmd.Context())
				if err != nil {
					return err
				}
				printFetchResponse(cmd, resp)
				return nil
			})
		},
	}
}

func printFetchResponse(cmd *cobra.Command, resp *ipc.FetchNextResponse) {
	out := cmd.OutOrStdout()
	switch {
	case resp.Error != "":
		fmt.Fprintln(out, resp.Error)
	case resp.AllComplete:
		fmt.Fprintln(out, "All features are passing. Nothing left to do.")
	case resp.AutoSkipped:
		fmt.Fprintf(out, "Auto-skipped #%d %s: %s\n", resp.SkippedFeatureID, resp.SkippedFeatureName, resp.Reason)
		if resp.LastError != "" {
			fmt.Fprintf(out, "Last error: %s\n", resp.LastError)
		}
		fmt.Fprintln(out, "Run `backlog next` again for the next feature.")
	default:
		feature := resp.Feature
		verb := "Claimed"
		if resp.Resumed {
			verb = "Resumed"
		}
		fmt.Fprintf(out, "%s #%d [%s] %s\n", verb, feature.ID, displayCategory(feature.Category), feature.Name)
		if resp.AttemptsRemaining > 0 {
			fmt.Fprintf(out, "Attempts remaining: %d\n", resp.AttemptsRemaining)
		}
		if resp.Warning != "" {
			fmt.Fprintln(out, "Warning: "+resp.Warning)
		}
		fmt.Fprintln(out, feature.Description)
		for i, step := range feature.Steps {
			fmt.Fprintf(out, "  %d. %s\n", i+1, step)
		}
	}
}

func newPassCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "pass <id>",
		Short: "Mark a feature as passing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return ctx.withBacklog(func(api backlogAPI) error {
				resp, err := api.MarkPassing(cmd.Context(), id)
				if err != nil {
					return err
				}
				if resp.Error != "" {
					return errors.New(resp.Error)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Feature #%d %s marked passing\n", resp.Feature.ID, resp.Feature.Name)
				return nil
			})
		},
	}
}

func newSkipCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "skip <id>",
		Short: "Move a feature to the back of the queue",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return ctx.withBacklog(func(api backlogAPI) error {
				resp, err := api.Skip(cmd.Context(), id)
				if err != nil {
					return err
				}
				if resp.Error != "" {
					return errors.New(resp.Error)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Feature #%d %s moved to back of queue (priority %d -> %d)\n",
					resp.ID, resp.Name, resp.OldPriority, resp.NewPriority)
				return nil
			})
		},
	}
}

func newFailCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "fail <id> <message>",
		Short: "Record a failure against a feature",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			message := strings.TrimSpace(strings.Join(args[1:], " "))
			return ctx.withBacklog(func(api backlogAPI) error {
				resp, err := api.RecordFailure(cmd.Context(), id, message)
				if err != nil {
					return err
				}
				if resp.Error != "" {
					return errors.New(resp.Error)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Recorded failure %d of %d for feature #%d %s\n",
					resp.FailureCount, resp.MaxFailures, resp.FeatureID, resp.FeatureName)
				if resp.Warning != "" {
					fmt.Fprintln(cmd.OutOrStdout(), "Warning: "+resp.Warning)
				}
				return nil
			})
		},
	}
}
