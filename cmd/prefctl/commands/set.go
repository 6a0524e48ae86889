package commands

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

func setCmd() *cobra.Command {
	var typ string
	cmd := &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Store a value under a key",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			key, raw := args[0], args[1]

			switch typ {
			case "string":
				return st.String(key, "").Set(ctx, raw)
			case "bool":
				v, err := strconv.ParseBool(raw)
				if err != nil {
					return err
				}
				return st.Bool(key, false).Set(ctx, v)
			case "int":
				v, err := strconv.Atoi(raw)
				if err != nil {
					return err
				}
				return st.Int(key, 0).Set(ctx, v)
			case "int64":
				v, err := strconv.ParseInt(raw, 10, 64)
				if err != nil {
					return err
				}
				return st.Int64(key, 0).Set(ctx, v)
			case "float":
				v, err := strconv.ParseFloat(raw, 64)
				if err != nil {
					return err
				}
				return st.Float64(key, 0).Set(ctx, v)
			case "strings":
				return st.StringSet(key, nil).Set(ctx, strings.Split(raw, ","))
			default:
				return fmt.Errorf("unknown type %q", typ)
			}
		},
	}
	cmd.Flags().StringVar(&typ, "type", "string", typeHelp)
	return cmd
}
