package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func getCmd() *cobra.Command {
	var typ string
	cmd := &cobra.Command{
		Use:   "get <key>",
		Short: "Print the value stored under a key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			key := args[0]

			var (
				out string
				ok  bool
				err error
			)
			switch typ {
			case "string":
				out, ok, err = getTyped(ctx, st.String(key, ""))
			case "bool":
				out, ok, err = getTyped(ctx, st.Bool(key, false))
			case "int":
				out, ok, err = getTyped(ctx, st.Int(key, 0))
			case "int64":
				out, ok, err = getTyped(ctx, st.Int64(key, 0))
			case "float":
				out, ok, err = getTyped(ctx, st.Float64(key, 0))
			case "strings":
				out, ok, err = getTyped(ctx, st.StringSet(key, nil))
			default:
				return fmt.Errorf("unknown type %q", typ)
			}
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("key %q is not set", key)
			}
			fmt.Println(out)
			return nil
		},
	}
	cmd.Flags().StringVar(&typ, "type", "string", typeHelp)
	return cmd
}
