package main

import (
	"os"

	"github.com/mossy-p/arshare/cmd/arshare/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
