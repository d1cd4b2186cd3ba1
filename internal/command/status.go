package command

import (
	"fmt"

	"github.com/dennisdiepolder/monti/calldesk/internal/types"
	"github.com/spf13/cobra"
)

// NewStatusCmd creates the status command.
func NewStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status <id> <status>",
		Short: "Change a record's status",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, err := GetContext(cmd, contextOptions{})
			if err != nil {
				return writeCommandError(cmd, err)
			}
			defer ctx.Close()

			id := types.RecordID(args[0])
			manager := ctx.NewManager(types.ModeSimple)
			status := resolveStatus(manager.Vocabulary(), args[1])

			if err := manager.ChangeStatus(cmd.Context(), id, status); err != nil {
				return writeCommandError(cmd, err)
			}

			if ctx.JSONMode {
				return writeJSON(cmd.OutOrStdout(), map[string]any{"id": id, "status": status})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Record %s is now %s\n", id, status)
			return nil
		},
	}

	return cmd
}
