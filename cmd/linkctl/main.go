// Command linkctl is the operator CLI for the link-graph indexing service.
package main

import (
	"fmt"
	"os"

	"github.com/ali01/linkweave/cmd/linkctl/cmd"
)

func main() {
	if err := cmd.NewRootCommand().Execute(); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
