// Command pbxpatch registers source files in an Xcode project descriptor.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/pbxpatch/internal/cli"
)

func main() {
	cmd := cli.NewRootCommand()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
