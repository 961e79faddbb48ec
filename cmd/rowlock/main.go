// Command rowlock assigns work items under pessimistic and optimistic
// locking strategies backed by SQLite.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/rowlock/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(cli.GetExitCode(err))
	}
}
