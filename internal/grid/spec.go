// Package grid partitions an image into a rectangular grid of cells and
// computes the mean colour of each cell.
package grid

import (
	"errors"
	"fmt"
	"image"
)

const (
	// MinCells is the smallest allowed number of columns or rows.
	MinCells = 1
	// MaxCells is the largest allowed number of columns or rows.
	MaxCells = 50
)

var (
	// ErrSpecOutOfRange is returned when cols or rows is outside [MinCells, MaxCells].
	ErrSpecOutOfRange = errors.New("grid size out of range")
	// ErrDegenerateGrid is returned when the grid has more columns or rows
	// than the image has pixels, so a cell would be zero-sized.
	ErrDegenerateGrid = errors.New("grid is finer than the image")
	// ErrInvalidAddress is returned for a cell address that is not four digits.
	ErrInvalidAddress = errors.New("invalid cell address")
	// ErrAddressOutOfRange is returned for a well-formed address outside the grid.
	ErrAddressOutOfRange = errors.New("cell address out of range")
)

// IsValidation reports whether err is a caller-correctable grid error.
func IsValidation(err error) bool {
	return errors.Is(err, ErrSpecOutOfRange) ||
		errors.Is(err, ErrDegenerateGrid) ||
		errors.Is(err, ErrInvalidAddress) ||
		errors.Is(err, ErrAddressOutOfRange)
}

// Spec is a grid size in columns and rows.
type Spec struct {
	Cols int `json:"cols" yaml:"cols"`
	Rows int `json:"rows" yaml:"rows"`
}

// DefaultSpec is the grid offered before the user picks one.
var DefaultSpec = Spec{Cols: 4, Rows: 4}

// Validate checks that both dimensions are within [MinCells, MaxCells].
func (s Spec) Validate() error {
	if s.Cols < MinCells || s.Cols > MaxCells {
		return fmt.Errorf("%w: cols=%d (allowed %d-%d)", ErrSpecOutOfRange, s.Cols, MinCells, MaxCells)
	}
	if s.Rows < MinCells || s.Rows > MaxCells {
		return fmt.Errorf("%w: rows=%d (allowed %d-%d)", ErrSpecOutOfRange, s.Rows, MinCells, MaxCells)
	}
	return nil
}

// CellSize returns the floor-divided cell dimensions for a width×height image.
func (s Spec) CellSize(width, height int) (cellW, cellH int) {
	return width / s.Cols, height / s.Rows
}

// Fit validates the spec and checks that every cell of a width×height image
// is at least one pixel in each direction.
func (s Spec) Fit(width, height int) error {
	if err := s.Validate(); err != nil {
		return err
	}
	cellW, cellH := s.CellSize(width, height)
	if cellW == 0 || cellH == 0 {
		return fmt.Errorf("%w: %dx%d grid on a %dx%d image", ErrDegenerateGrid, s.Cols, s.Rows, width, height)
	}
	return nil
}

// Contains reports whether a lies inside the grid.
func (s Spec) Contains(a Address) bool {
	return a.Col >= 0 && a.Col < s.Cols && a.Row >= 0 && a.Row < s.Rows
}

// Len returns the number of cells.
func (s Spec) Len() int {
	return s.Cols * s.Rows
}

// String returns "COLSxROWS".
func (s Spec) String() string {
	return fmt.Sprintf("%dx%d", s.Cols, s.Rows)
}

// CellRect returns the pixel rectangle of cell a for a width×height image.
// Pixels right of Cols*cellW and below Rows*cellH belong to no cell.
func (s Spec) CellRect(width, height int, a Address) image.Rectangle {
	cellW, cellH := s.CellSize(width, height)
	return image.Rect(a.Col*cellW, a.Row*cellH, (a.Col+1)*cellW, (a.Row+1)*cellH)
}
