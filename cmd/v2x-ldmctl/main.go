package main

import (
	"fmt"
	"os"

	"github.com/openv2x/openv2x/cmd/v2x-ldmctl/app"
)

func main() {
	if err := app.NewLdmctlCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
