// Command elongatd captures X threads, stores them and rewrites them into
// blog posts.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"
)

// Version is overwritten at build time using -ldflags.
var Version = "dev"

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	cmd := newRootCmd(Version)
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	if err := cmd.Execute(); err != nil {
		// usage and flag errors come from cobra before any RunE prints them
		var reported reportedError
		if !errors.As(err, &reported) {
			fmt.Fprintf(stderr, "Error: %s\n", err)
		}
		return 1
	}
	return 0
}
