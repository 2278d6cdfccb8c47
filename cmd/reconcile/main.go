package main

import (
	"os"

	"github.com/eshaffer321/ledger-reconcile/internal/cli"
)

func main() {
	if err := cli.NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
