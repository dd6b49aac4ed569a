package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"backlog/internal/ipc"
)

func newStopCommand(ctx *commandContext) *cobra.Command {
	var clear bool

	cmd := &cobra.Command{
		Use:   "stop",
		Short: "Request the agent loop to stop after the current feature",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				if clear {
					if _, err := client.ClearStop(); err != nil {
						return err
					}
					fmt.Fprintln(cmd.OutOrStdout(), "Stop request cleared")
					return nil
				}
				if _, err := client.RequestStop(); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Stop requested; the agent will halt after the current feature")
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&clear, "clear", false, "Clear a pending stop request instead")
	return cmd
}
