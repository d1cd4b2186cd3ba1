package command

import (
	"errors"
	"fmt"

	"github.com/dennisdiepolder/monti/calldesk/internal/types"
	"github.com/dennisdiepolder/monti/calldesk/internal/view"
	"github.com/spf13/cobra"
)

// NewEditCmd creates the edit command.
func NewEditCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Replace a record, keeping fields that are not given",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, err := GetContext(cmd, contextOptions{})
			if err != nil {
				return writeCommandError(cmd, err)
			}
			defer ctx.Close()

			id := types.RecordID(args[0])
			manager := ctx.NewManager(types.ModeFullEdit)
			manager.Mount(cmd.Context())

			if err := manager.BeginEdit(id); err != nil {
				// The list degrades to empty when the server is down, so tell
				// an unreachable server apart from an unknown id.
				if errors.Is(err, view.ErrNotFound) {
					if _, ferr := ctx.Client.Fetch(cmd.Context()); ferr != nil {
						err = ferr
					}
				}
				return writeCommandError(cmd, err)
			}
			if err := applyFieldFlags(cmd.Flags(), manager); err != nil {
				return writeCommandError(cmd, err)
			}
			if err := manager.Submit(cmd.Context()); err != nil {
				return writeCommandError(cmd, err)
			}

			updated, ok := manager.Snapshot().List.Find(id)
			if ctx.JSONMode {
				if !ok {
					return writeJSON(cmd.OutOrStdout(), map[string]any{"id": id, "updated": true})
				}
				return writeJSON(cmd.OutOrStdout(), updated)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated record %s\n", id)
			if ok {
				printRecords(cmd.OutOrStdout(), []types.Record{updated})
			}
			return nil
		},
	}

	addFieldFlags(cmd)
	return cmd
}
