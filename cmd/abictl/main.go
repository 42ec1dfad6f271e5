// Command abictl inspects ABI files and converts JSON arguments into call
// data offline, using the same coercion rules as the gateway.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
