package command

import (
	"errors"
	"fmt"

	"github.com/dennisdiepolder/monti/calldesk/internal/view"
	"github.com/dennisdiepolder/monti/calldesk/pkg/client"
	"github.com/spf13/cobra"
)

func writeCommandError(cmd *cobra.Command, err error) error {
	fmt.Fprintf(cmd.ErrOrStderr(), "Error: %s\n", err.Error())

	var terr *client.TransportError
	switch {
	case client.IsNotFound(err):
		fmt.Fprintln(cmd.ErrOrStderr(), "Hint: Run 'calldesk list' to see record ids.")
	case errors.As(err, &terr) && terr.StatusCode == 0:
		fmt.Fprintf(cmd.ErrOrStderr(), "Hint: Is the server running at %s? Set --api-url or API_BASE_URL.\n", terr.URL)
	case errors.Is(err, view.ErrInvalidStatus):
		fmt.Fprintln(cmd.ErrOrStderr(), "Hint: Use --status-set to switch between call statuses and playlist modes.")
	}

	return err
}
