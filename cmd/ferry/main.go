// Command ferry ships documents from configured sources to an
// ingestion backend.
package main

import (
	"os"

	"github.com/custodia-labs/ferry-cli/internal/adapters/driving/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
