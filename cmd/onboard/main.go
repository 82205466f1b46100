// Command onboard is a terminal client for the accounts API: an interactive
// signup wizard plus login, logout and whoami. Tokens are kept in a session
// file under the user config directory.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd(os.Stdin, os.Stdout).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
