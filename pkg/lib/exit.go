// Package lib holds small helpers shared by dply's command-line entry point.
package lib

import (
	"fmt"
	"os"
)

// Exit prints err prefixed with the program name and exits with status 1.
// Used by cmd/dply's main() so a parse, signature, schema, runtime, or
// variable error ends the process with a non-zero code.
func Exit(err error) {
	if err == nil {
		return
	}
	fmt.Fprintln(os.Stderr, "dply:", err)
	os.Exit(1)
}
