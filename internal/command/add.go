package command

import (
	"fmt"

	"github.com/dennisdiepolder/monti/calldesk/internal/types"
	"github.com/spf13/cobra"
)

// NewAddCmd creates the add command.
func NewAddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create a record",
		Example: `  calldesk add --agent Alice --customer "Jane Doe" --phone 555-0100 \
    --issue Billing --duration 12`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, err := GetContext(cmd, contextOptions{})
			if err != nil {
				return writeCommandError(cmd, err)
			}
			defer ctx.Close()

			manager := ctx.NewManager(types.ModeFullEdit)
			if err := applyFieldFlags(cmd.Flags(), manager); err != nil {
				return writeCommandError(cmd, err)
			}
			fields := manager.Snapshot().Form.Fields

			if err := manager.Submit(cmd.Context()); err != nil {
				return writeCommandError(cmd, err)
			}

			if ctx.JSONMode {
				return writeJSON(cmd.OutOrStdout(), map[string]any{"created": true, "record": fields})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created record for %s (%s)\n", fields.CustomerName, fields.Status)
			return nil
		},
	}

	addFieldFlags(cmd)
	return cmd
}
