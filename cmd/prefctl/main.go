package main

import (
	"os"

	"code.byted.org/khicago/prefstore/cmd/prefctl/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
