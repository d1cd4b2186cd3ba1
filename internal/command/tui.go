package command

import (
	"context"
	"os/signal"
	"strings"
	"syscall"

	"github.com/dennisdiepolder/monti/calldesk/internal/ticker"
	"github.com/dennisdiepolder/monti/calldesk/internal/tui"
	"github.com/dennisdiepolder/monti/calldesk/internal/types"
	"github.com/dennisdiepolder/monti/calldesk/internal/websocket"
	"github.com/spf13/cobra"
)

// NewTUICmd creates the tui command.
func NewTUICmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tui",
		Short: "Open the interactive record manager",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, err := GetContext(cmd, contextOptions{logToFile: true})
			if err != nil {
				return writeCommandError(cmd, err)
			}
			defer ctx.Close()

			mode := ctx.Config.ViewMode
			if v, _ := cmd.Flags().GetString("mode"); v != "" {
				if mode, err = types.ParseViewMode(v); err != nil {
					return writeCommandError(cmd, err)
				}
			}
			if v, _ := cmd.Flags().GetString("live"); v != "" {
				ctx.Config.LiveUpdatesURL = v
			}

			runCtx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGTERM)
			defer stop()
			runCtx, cancel := context.WithCancel(runCtx)
			defer cancel()

			manager := ctx.NewManager(mode)

			refresher := ticker.NewTicker(manager, ctx.Config.AutoRefreshInterval, ctx.Logger)
			go refresher.Start(runCtx)

			if url := ctx.Config.LiveUpdatesURL; url != "" {
				listener := websocket.NewListener(url, func(types.ChangeMessage) {
					refresher.Nudge()
				}, ctx.Logger)
				go listener.Run(runCtx)
			}

			ctx.Logger.Info().
				Str("mode", string(mode)).
				Str("api_url", ctx.Client.BaseURL()).
				Dur("auto_refresh", ctx.Config.AutoRefreshInterval).
				Str("live_updates", ctx.Config.LiveUpdatesURL).
				Msg("starting tui")

			if err := tui.Run(runCtx, manager); err != nil {
				return writeCommandError(cmd, err)
			}
			return nil
		},
	}

	modes := make([]string, len(types.AllViewModes))
	for i, m := range types.AllViewModes {
		modes[i] = string(m)
	}
	cmd.Flags().String("mode", "", "view mode: "+strings.Join(modes, ", ")+" (overrides VIEW_MODE)")
	cmd.Flags().String("live", "", "websocket change feed URL (overrides LIVE_UPDATES_URL)")
	return cmd
}
