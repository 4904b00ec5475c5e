// Command modsync installs and updates game mods described by a remote
// catalog, downloading only the files whose versions changed.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/klauern/modsync/internal/cli"
)

func main() {
	if err := cli.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
