// nocterm is a simulated network operations terminal: a Linux shell and
// an IOS-style CLI over one in-memory network.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "nocterm: %v\n", err)
		os.Exit(1)
	}
}
