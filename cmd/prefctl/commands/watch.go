package commands

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

func watchCmd() *cobra.Command {
	var typ string
	cmd := &cobra.Command{
		Use:   "watch <key>",
		Short: "Stream value updates for a key until interrupted",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			key := args[0]

			switch typ {
			case "string":
				return watchTyped(ctx, st.String(key, ""))
			case "bool":
				return watchTyped(ctx, st.Bool(key, false))
			case "int":
				return watchTyped(ctx, st.Int(key, 0))
			case "int64":
				return watchTyped(ctx, st.Int64(key, 0))
			case "float":
				return watchTyped(ctx, st.Float64(key, 0))
			case "strings":
				return watchTyped(ctx, st.StringSet(key, nil))
			default:
				return fmt.Errorf("unknown type %q", typ)
			}
		},
	}
	cmd.Flags().StringVar(&typ, "type", "string", typeHelp)
	return cmd
}
