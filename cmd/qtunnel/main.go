package main

import (
	"os"

	"qtunnel/cmd/qtunnel/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
