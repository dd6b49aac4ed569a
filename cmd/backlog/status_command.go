package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"backlog/internal/ipc"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show daemon and backlog status",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				status, err := client.Status()
				if err != nil {
					return err
				}

				pairs := [][2]string{
					{"Running", yesNo(status.Running)},
					{"PID", strconv.Itoa(status.PID)},
					{"Run ID", status.RunID},
					{"Started", status.StartedAt},
					{"Database", status.DBPath},
					{"Socket", status.SocketPath},
					{"Stop requested", yesNo(status.StopRequested)},
					{"Progress", fmt.Sprintf("%d/%d (%s)", status.Passing, status.Total, formatPercent(status.Percentage))},
					{"DB readable", yesNo(status.DatabaseReadable)},
					{"DB integrity", yesNo(status.IntegrityCheck)},
				}
				if status.DatabaseError != "" {
					pairs = append(pairs, [2]string{"DB error", status.DatabaseError})
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderPairs(pairs))
				return nil
			})
		},
	}
}
