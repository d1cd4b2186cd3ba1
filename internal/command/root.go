package command

import (
	"os"

	"github.com/spf13/cobra"
)

const AppName = "calldesk"

// Version is overwritten at build time using -ldflags.
var Version = "dev"

func NewRootCmd(version string) *cobra.Command {
	cmd := &cobra.Command{
		Use:           AppName,
		Short:         "calldesk - manage call records from the terminal",
		Long:          "calldesk lists, creates, edits and deletes call records on a calldesk server.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cmd.Version = version
	cmd.SetVersionTemplate(AppName + " version {{.Version}}\n")
	cmd.SetOut(os.Stdout)
	cmd.SetErr(os.Stderr)

	cmd.PersistentFlags().String("api-url", "", "records endpoint (overrides API_BASE_URL)")
	cmd.PersistentFlags().Bool("json", false, "output in JSON format")
	cmd.PersistentFlags().String("log-level", "", "log level (overrides LOG_LEVEL)")
	cmd.PersistentFlags().String("status-set", "", "status vocabulary: calls or playlist (overrides STATUS_SET)")

	cmd.AddCommand(
		NewListCmd(),
		NewAddCmd(),
		NewEditCmd(),
		NewStatusCmd(),
		NewRmCmd(),
		NewTUICmd(),
	)

	return cmd
}

func Execute() error {
	return NewRootCmd(Version).Execute()
}
