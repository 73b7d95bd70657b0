// Command rnp is the CLI entry point.
package main

import (
	"fmt"
	"os"

	"github.com/a-khushal/rnp/internal/cmd"
)

// version is overridden at build time via -ldflags.
var version = "dev"

func main() {
	root := cmd.NewRootCommand(version)
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "rnp:", err)
		os.Exit(1)
	}
}
