package main

import (
	"os"

	"uk.co.dudmesh.bulksms/cmd/bulksms/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
