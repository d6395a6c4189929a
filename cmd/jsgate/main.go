// jsgate evaluates untrusted JavaScript snippets against JSON variables, once from the
// command line or as an HTTP service.
package main

import (
	"os"
)

func main() {
	rootCmd := newRootCmd(os.Stdin, os.Stdout, os.Stderr)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
