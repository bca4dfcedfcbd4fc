package main

import (
	"os"

	"github.com/quantrig/bridgecli/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
