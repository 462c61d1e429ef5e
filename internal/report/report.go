// Package report turns a colour grid into the per-cell ink mixing table and
// its CSV export.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/inkgrid/server/internal/grid"
	"github.com/inkgrid/server/internal/ink"
	"github.com/inkgrid/server/pkg/hexcolor"
)

// Filename is the suggested download name for the CSV export.
const Filename = "color_mix_info.csv"

// Header is the CSV header row.
var Header = []string{
	"No", "Grid Position", "Color Code",
	"Cyan(%)", "Magenta(%)", "Yellow(%)", "Black(%)", "White(%)",
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Record is one row of the report.
type Record struct {
	Ordinal string  `json:"no"`
	Address string  `json:"address"`
	Hex     string  `json:"hex"`
	Ink     ink.Mix `json:"ink"`
}

// Build returns one record per cell, row 0 first and columns left to right
// within a row. Ordinals run 0001…rows*cols in that order; ink shares are
// rounded to two decimals.
func Build(g *grid.ColorGrid) []Record {
	records := make([]Record, 0, g.Spec().Len())
	g.Each(func(a grid.Address, c hexcolor.RGB) {
		records = append(records, Record{
			Ordinal: fmt.Sprintf("%04d", len(records)+1),
			Address: a.String(),
			Hex:     c.Hex(),
			Ink:     ink.FromRGB(c).Rounded(),
		})
	})
	return records
}

// WriteCSV writes records as UTF-8 CSV prefixed with a byte order mark so
// spreadsheet applications pick the right encoding.
func WriteCSV(w io.Writer, records []Record) error {
	if _, err := w.Write(utf8BOM); err != nil {
		return fmt.Errorf("write BOM: %w", err)
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, rec := range records {
		row := []string{rec.Ordinal, rec.Address, rec.Hex}
		for _, v := range rec.Ink.Values() {
			row = append(row, formatShare(v))
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write record %s: %w", rec.Ordinal, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// formatShare writes a rounded share in its shortest form, always keeping
// one decimal: 100.0, 53.12, 0.5.
func formatShare(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}
