package main

import (
	"os"

	"github.com/unitlink/unitlink/cmd"
)

func main() {
	if err := cmd.CmdUnitlink.Execute(); err != nil {
		os.Exit(1)
	}
}
