// Command inkgrid samples a local image into a colour grid and prints ink
// mixtures for its cells.
package main

import (
	"os"

	"github.com/inkgrid/server/internal/cli"
)

func main() {
	if err := cli.NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
