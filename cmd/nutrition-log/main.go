// cmd/nutrition-log/main.go
package main

import (
	"os"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	// Cobra has already printed the error.
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
