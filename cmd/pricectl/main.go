// pricectl searches, charts and exports Cijene API prices from the terminal.
package main

import (
	"os"

	"github.com/disscount/disscount/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
