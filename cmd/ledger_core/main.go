package main

import (
	"os"

	"github.com/SscSPs/estate_ledger_core/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
