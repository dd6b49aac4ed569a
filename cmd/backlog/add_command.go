package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"backlog/internal/ipc"
)

func newAddCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "add <file.json>",
		Short: "Bulk-load features from a JSON file",
		Long: `Bulk-load features from a JSON file. The file holds an array of drafts:

  [{"category": "...", "name": "...", "description": "...", "steps": ["..."]}]

Creation is all-or-nothing: an invalid entry aborts the whole batch. Pass "-"
to read from stdin.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			drafts, err := readDrafts(cmd, args[0])
			if err != nil {
				return err
			}
			if len(drafts) == 0 {
				return errors.New("no features to create")
			}
			return ctx.withBacklog(func(api backlogAPI) error {
				resp, err := api.CreateBulk(cmd.Context(), drafts)
				if err != nil {
					return err
				}
				if resp.Error != "" {
					return errors.New(resp.Error)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Created %d feature(s)\n", resp.Created)
				return nil
			})
		},
	}
}

func readDrafts(cmd *cobra.Command, path string) ([]ipc.Draft, error) {
	var data []byte
	var err error
	if strings.TrimSpace(path) == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("read features file: %w", err)
	}

	var drafts []ipc.Draft
	if err := json.Unmarshal(data, &drafts); err != nil {
		return nil, fmt.Errorf("parse features file: %w", err)
	}
	return drafts, nil
}
