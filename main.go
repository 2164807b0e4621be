package main

import (
	"os"

	"github.com/qualitygate/quality-gate/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
