package commands

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"code.byted.org/khicago/prefstore"
)

var (
	dir       string
	storeName string

	st *prefstore.Store
)

func Execute() error {
	root := &cobra.Command{
		Use:   "prefctl",
		Short: "Inspect and edit prefstore preference files",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if dir == "" {
				home, err := os.UserHomeDir()
				if err != nil {
					return err
				}
				dir = filepath.Join(home, ".prefstore")
			}
			var err error
			st, err = prefstore.Open(cmd.Context(), storeName, prefstore.WithDir(dir))
			return err
		},
	}

	root.PersistentFlags().StringVar(&dir, "dir", "", "store directory (default ~/.prefstore)")
	root.PersistentFlags().StringVar(&storeName, "store", "default", "store name")

	root.AddCommand(getCmd(), setCmd(), delCmd(), keysCmd(), watchCmd(), clearCmd())
	return root.Execute()
}
