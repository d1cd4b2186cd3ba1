package command

import (
	"fmt"

	"github.com/dennisdiepolder/monti/calldesk/internal/types"
	"github.com/spf13/cobra"
)

// NewRmCmd creates the rm command.
func NewRmCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "rm <id>",
		Aliases: []string{"delete"},
		Short:   "Delete a record",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, err := GetContext(cmd, contextOptions{})
			if err != nil {
				return writeCommandError(cmd, err)
			}
			defer ctx.Close()

			id := types.RecordID(args[0])
			if err := ctx.NewManager(types.ModeSimple).Delete(cmd.Context(), id); err != nil {
				return writeCommandError(cmd, err)
			}

			if ctx.JSONMode {
				return writeJSON(cmd.OutOrStdout(), map[string]any{"id": id, "deleted": true})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted record %s\n", id)
			return nil
		},
	}

	return cmd
}
