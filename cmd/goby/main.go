// Command goby manages a local database of user-defined classes, their
// items and the relations between them.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/goby/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
