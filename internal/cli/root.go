// Package cli provides the command-line interface for inkgrid.
package cli

import (
	"os"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"

	"github.com/inkgrid/server/internal/grid"
	"github.com/inkgrid/server/internal/imageio"
)

// options holds flags shared by all subcommands.
type options struct {
	verbose   bool
	maxPixels int
}

func (o *options) logger() hclog.Logger {
	level := hclog.Warn
	if o.verbose {
		level = hclog.Debug
	}
	return hclog.New(&hclog.LoggerOptions{
		Name:   "inkgrid",
		Level:  level,
		Output: os.Stderr,
	})
}

func (o *options) decoder() *imageio.Decoder {
	return imageio.NewDecoder(o.maxPixels)
}

// NewRootCmd builds the inkgrid command tree.
func NewRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "inkgrid",
		Short: "Sample an image into a colour grid and derive ink mixtures",
		Long: `inkgrid divides an image into a grid of equal cells, takes the mean colour
of every cell and converts each colour into a cyan, magenta, yellow, black
and white ink mixture in percent.

It runs the same engine as the inkgrid server over a local image file.`,
		SilenceUsage: true,
	}

	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "enable verbose output")
	root.PersistentFlags().IntVar(&opts.maxPixels, "max-pixels", imageio.DefaultMaxPixels, "refuse images with more pixels than this")

	root.AddCommand(newAnalyzeCmd(opts))
	root.AddCommand(newCellCmd(opts))
	root.AddCommand(newInkCmd())

	return root
}

// addGridFlags registers --cols and --rows on cmd.
func addGridFlags(cmd *cobra.Command, spec *grid.Spec) {
	cmd.Flags().IntVarP(&spec.Cols, "cols", "c", grid.DefaultSpec.Cols, "number of grid columns (1-50)")
	cmd.Flags().IntVarP(&spec.Rows, "rows", "r", grid.DefaultSpec.Rows, "number of grid rows (1-50)")
}

// loadAndSample decodes the image at path and samples it with spec.
func loadAndSample(opts *options, path string, spec grid.Spec) (*grid.Image, *grid.ColorGrid, error) {
	logger := opts.logger()

	img, format, err := opts.decoder().Load(path)
	if err != nil {
		return nil, nil, err
	}
	logger.Debug("image loaded", "path", path, "format", format, "width", img.Width(), "height", img.Height())

	g, err := grid.Sample(img, spec)
	if err != nil {
		return nil, nil, err
	}
	logger.Debug("grid sampled", "grid", spec.String())
	return img, g, nil
}
