package main

import (
	"os"

	"github.com/broce-labs/partsline/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
