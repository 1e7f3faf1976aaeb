package main

import (
	"fmt"
	"os"

	"loom/internal/cli"
)

func main() {
	root := cli.NewRootCommand()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(cli.ExitRunFailure)
	}
}
