package grid

import (
	"encoding/json"
	"fmt"

	"github.com/inkgrid/server/pkg/hexcolor"
)

// ColorGrid is the rows×cols matrix of mean cell colours produced by one
// Sample call. It is never modified after construction.
type ColorGrid struct {
	spec  Spec
	cells []hexcolor.RGB // row-major
}

// NewColorGrid builds a grid from row-major colours. Every row must have
// exactly spec.Cols entries and there must be spec.Rows rows.
func NewColorGrid(spec Spec, rows [][]hexcolor.RGB) (*ColorGrid, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	if len(rows) != spec.Rows {
		return nil, fmt.Errorf("got %d rows, want %d", len(rows), spec.Rows)
	}
	cells := make([]hexcolor.RGB, 0, spec.Len())
	for r, row := range rows {
		if len(row) != spec.Cols {
			return nil, fmt.Errorf("row %d has %d columns, want %d", r, len(row), spec.Cols)
		}
		cells = append(cells, row...)
	}
	return &ColorGrid{spec: spec, cells: cells}, nil
}

// Spec returns the grid size the colours were sampled with.
func (g *ColorGrid) Spec() Spec { return g.spec }

// Cols returns the number of columns.
func (g *ColorGrid) Cols() int { return g.spec.Cols }

// Rows returns the number of rows.
func (g *ColorGrid) Rows() int { return g.spec.Rows }

// At returns the colour of cell a.
func (g *ColorGrid) At(a Address) (hexcolor.RGB, error) {
	if !g.spec.Contains(a) {
		return hexcolor.RGB{}, fmt.Errorf("%w: %s on a %s grid", ErrAddressOutOfRange, a, g.spec)
	}
	return g.cells[a.Row*g.spec.Cols+a.Col], nil
}

// Lookup resolves a CCRR address and returns it with the cell colour.
func (g *ColorGrid) Lookup(addr string) (Address, hexcolor.RGB, error) {
	a, err := g.spec.Resolve(addr)
	if err != nil {
		return Address{}, hexcolor.RGB{}, err
	}
	return a, g.cells[a.Row*g.spec.Cols+a.Col], nil
}

// Each calls fn for every cell in row-major order.
func (g *ColorGrid) Each(fn func(a Address, c hexcolor.RGB)) {
	for r := 0; r < g.spec.Rows; r++ {
		for c := 0; c < g.spec.Cols; c++ {
			fn(Address{Col: c, Row: r}, g.cells[r*g.spec.Cols+c])
		}
	}
}

// HexRows returns the grid as rows of #rrggbb strings.
func (g *ColorGrid) HexRows() [][]string {
	out := make([][]string, g.spec.Rows)
	for r := range out {
		row := make([]string, g.spec.Cols)
		for c := range row {
			row[c] = g.cells[r*g.spec.Cols+c].Hex()
		}
		out[r] = row
	}
	return out
}

// MarshalJSON encodes the grid as its HexRows matrix.
func (g *ColorGrid) MarshalJSON() ([]byte, error) {
	return json.Marshal(g.HexRows())
}
