// Command mindbuddy is a supportive chat companion that remembers past
// conversations and speaks in the style you choose.
package main

import (
	"fmt"
	"os"

	"github.com/petasbytes/mindbuddy/cmd/mindbuddy/commands"
)

// version is set at build time via ldflags.
var version = "dev"

func main() {
	rootCmd := commands.NewRootCmd(version)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
