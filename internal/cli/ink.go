package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/inkgrid/server/internal/ink"
)

func newInkCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ink <#rrggbb>",
		Short: "Convert a hex colour into an ink mixture",
		Long: `Convert a #rrggbb colour into cyan, magenta, yellow, black and white ink
shares in percent, rounded to two decimals.

Examples:
  inkgrid ink '#6496c8'
  inkgrid ink ff0000`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInk(cmd.OutOrStdout(), args[0])
		},
	}
}

func runInk(w io.Writer, hex string) error {
	if !strings.HasPrefix(hex, "#") {
		hex = "#" + hex
	}
	m, err := ink.FromHex(hex)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "colour %s\n", strings.ToLower(hex))
	printMix(w, m.Rounded())
	return nil
}

func printMix(w io.Writer, m ink.Mix) {
	fmt.Fprintf(w, "C %6.2f%%\n", m.Cyan)
	fmt.Fprintf(w, "M %6.2f%%\n", m.Magenta)
	fmt.Fprintf(w, "Y %6.2f%%\n", m.Yellow)
	fmt.Fprintf(w, "K %6.2f%%\n", m.Black)
	fmt.Fprintf(w, "W %6.2f%%\n", m.White)
}
