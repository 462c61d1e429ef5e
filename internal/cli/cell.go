package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/inkgrid/server/internal/grid"
	"github.com/inkgrid/server/internal/ink"
)

func newCellCmd(opts *options) *cobra.Command {
	var spec grid.Spec

	cmd := &cobra.Command{
		Use:   "cell <image> <address>",
		Short: "Show the colour and ink mixture of one grid cell",
		Long: `Sample an image into a grid and show one cell.

The address is four digits: the 1-based column followed by the 1-based row,
each zero-padded to two digits. "0304" is the third column of the fourth row.

Examples:
  inkgrid cell --cols 8 --rows 8 photo.png 0304`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCell(cmd.OutOrStdout(), opts, spec, args[0], args[1])
		},
	}

	addGridFlags(cmd, &spec)
	return cmd
}

func runCell(w io.Writer, opts *options, spec grid.Spec, path, addr string) error {
	if err := spec.Validate(); err != nil {
		return fmt.Errorf("invalid grid: %w", err)
	}
	// Reject bad addresses before decoding the image.
	if _, err := spec.Resolve(addr); err != nil {
		return err
	}

	_, g, err := loadAndSample(opts, path, spec)
	if err != nil {
		return err
	}
	pos, c, err := g.Lookup(addr)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "cell   %s (column %d, row %d)\n", pos, pos.Col+1, pos.Row+1)
	fmt.Fprintf(w, "colour %s\n", c.Hex())
	printMix(w, ink.FromRGB(c).Rounded())
	return nil
}
