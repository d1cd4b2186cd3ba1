package command

import (
	"strings"

	"github.com/dennisdiepolder/monti/calldesk/internal/types"
	"github.com/dennisdiepolder/monti/calldesk/internal/view"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// fieldFlags maps flag names to form field names
var fieldFlags = []struct {
	flag  string
	field string
	usage string
}{
	{"agent", view.FieldAgentName, "agent name"},
	{"customer", view.FieldCustomerName, "customer name"},
	{"phone", view.FieldPhoneNumber, "phone number"},
	{"issue", view.FieldIssue, "issue description"},
	{"status", view.FieldStatus, "status"},
	{"duration", view.FieldCallDuration, "call duration in minutes"},
}

func addFieldFlags(cmd *cobra.Command) {
	for _, f := range fieldFlags {
		cmd.Flags().String(f.flag, "", f.usage)
	}
}

// applyFieldFlags copies every flag the user set into the manager's form
func applyFieldFlags(flags *pflag.FlagSet, manager *view.Manager) error {
	for _, f := range fieldFlags {
		if !flags.Changed(f.flag) {
			continue
		}
		v, _ := flags.GetString(f.flag)
		if f.field == view.FieldStatus {
			v = string(resolveStatus(manager.Vocabulary(), v))
		}
		if err := manager.SetField(f.field, v); err != nil {
			return err
		}
	}
	return nil
}

// resolveStatus matches s case-insensitively against the vocabulary and the
// initial status, returning s unchanged when nothing matches.
func resolveStatus(vocab types.Vocabulary, s string) types.Status {
	s = strings.TrimSpace(s)
	candidates := append([]types.Status{types.InitialStatus}, vocab.Options...)
	for _, c := range candidates {
		if strings.EqualFold(string(c), s) {
			return c
		}
	}
	return types.Status(s)
}
