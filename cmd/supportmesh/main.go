package main

import (
	"os"

	"github.com/supportmesh/supportmesh/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
