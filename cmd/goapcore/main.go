// goapcore runs goal-oriented action planning domains written in Lua.
// Usage: goapcore [flags] <domain>, goapcore plan <domain> <goal>,
// goapcore run <domain>.
package main

import (
	"fmt"
	"os"
)

// Set via -ldflags at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
