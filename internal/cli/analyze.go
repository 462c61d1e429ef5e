package cli

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/inkgrid/server/internal/grid"
	"github.com/inkgrid/server/internal/render"
	"github.com/inkgrid/server/internal/report"
)

type analyzeOptions struct {
	spec   grid.Spec
	out    string
	mosaic string
}

func newAnalyzeCmd(opts *options) *cobra.Command {
	a := &analyzeOptions{}

	cmd := &cobra.Command{
		Use:   "analyze <image>",
		Short: "Sample an image into a colour grid",
		Long: `Sample an image into a grid of mean colours and print the grid as hex
codes, one grid row per line.

Examples:
  # Print a 4x4 grid of hex colours
  inkgrid analyze photo.png

  # Sample a 12x8 grid and write the ink mixing table
  inkgrid analyze --cols 12 --rows 8 --out color_mix_info.csv photo.jpg

  # Also render the grid as a PNG mosaic
  inkgrid analyze -c 10 -r 10 --mosaic mosaic.png photo.webp`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(cmd.OutOrStdout(), opts, a, args[0])
		},
	}

	addGridFlags(cmd, &a.spec)
	cmd.Flags().StringVarP(&a.out, "out", "o", "", "write the ink mixing table as CSV to this file")
	cmd.Flags().StringVar(&a.mosaic, "mosaic", "", "write a PNG mosaic of the grid to this file")

	return cmd
}

func runAnalyze(w io.Writer, opts *options, a *analyzeOptions, path string) error {
	if err := a.spec.Validate(); err != nil {
		return fmt.Errorf("invalid grid: %w", err)
	}

	_, g, err := loadAndSample(opts, path, a.spec)
	if err != nil {
		return err
	}

	for _, row := range g.HexRows() {
		fmt.Fprintln(w, strings.Join(row, " "))
	}

	if a.out != "" {
		var buf bytes.Buffer
		if err := report.WriteCSV(&buf, report.Build(g)); err != nil {
			return fmt.Errorf("failed to encode report: %w", err)
		}
		if err := writeFile(a.out, buf.Bytes()); err != nil {
			return err
		}
		opts.logger().Info("report written", "path", a.out, "size", humanize.Bytes(uint64(buf.Len())))
	}

	if a.mosaic != "" {
		data, err := render.NewRenderer(render.Config{Gap: 1}).Mosaic(g)
		if err != nil {
			return fmt.Errorf("failed to render mosaic: %w", err)
		}
		if err := writeFile(a.mosaic, data); err != nil {
			return err
		}
		opts.logger().Info("mosaic written", "path", a.mosaic, "size", humanize.Bytes(uint64(len(data))))
	}

	return nil
}

func writeFile(path string, data []byte) error {
	if err := os.WriteFile(path, data, 0o644); err != nil { // #nosec G306 - user output file
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
