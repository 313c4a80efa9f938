// Package main is used for the companionctl client.
package main

import (
	"fmt"
	"os"

	"github.com/duotasks/companiond/cli"
)

func main() {
	err := cli.NewCommand().Execute()
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
