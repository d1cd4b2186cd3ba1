package command

import (
	"github.com/dennisdiepolder/monti/calldesk/internal/types"
	"github.com/spf13/cobra"
)

// NewListCmd creates the list command.
func NewListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List all records",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, err := GetContext(cmd, contextOptions{})
			if err != nil {
				return writeCommandError(cmd, err)
			}
			defer ctx.Close()

			manager := ctx.NewManager(types.ModeSimple)
			manager.Mount(cmd.Context())
			records := manager.Snapshot().List.Records

			if ctx.JSONMode {
				return writeJSON(cmd.OutOrStdout(), records)
			}
			printRecords(cmd.OutOrStdout(), records)
			return nil
		},
	}

	return cmd
}
