package commands

import (
	"github.com/spf13/cobra"
)

func delCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "del <key>",
		Short: "Remove a key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return st.Raw().Delete(cmd.Context(), args[0])
		},
	}
}
