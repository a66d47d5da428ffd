package main

import (
	"os"

	"github.com/JustinTDCT/OralVault/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
