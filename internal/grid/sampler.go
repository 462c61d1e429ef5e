package grid

import (
	"image"

	"github.com/inkgrid/server/pkg/hexcolor"
)

// Sample partitions img into spec.Cols×spec.Rows cells of floor-divided size
// and returns the mean colour of each. The remainder strip on the right and
// bottom edges is never sampled. A grid finer than the image is rejected with
// ErrDegenerateGrid before any pixel is read.
func Sample(img *Image, spec Spec) (*ColorGrid, error) {
	if err := spec.Fit(img.Width(), img.Height()); err != nil {
		return nil, err
	}

	cells := make([]hexcolor.RGB, 0, spec.Len())
	for r := 0; r < spec.Rows; r++ {
		for c := 0; c < spec.Cols; c++ {
			rect := spec.CellRect(img.Width(), img.Height(), Address{Col: c, Row: r})
			cells = append(cells, Mean(img, rect))
		}
	}
	return &ColorGrid{spec: spec, cells: cells}, nil
}

// Mean returns the per-channel arithmetic mean of the pixels in rect,
// truncated to an integer. rect must lie inside img; an empty rect yields black.
func Mean(img *Image, rect image.Rectangle) hexcolor.RGB {
	if rect.Empty() {
		return hexcolor.RGB{}
	}
	n := uint64(rect.Dx()) * uint64(rect.Dy())

	var rSum, gSum, bSum uint64
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		o := (y*img.width + rect.Min.X) * 3
		row := img.pix[o : o+rect.Dx()*3]
		for i := 0; i < len(row); i += 3 {
			rSum += uint64(row[i])
			gSum += uint64(row[i+1])
			bSum += uint64(row[i+2])
		}
	}
	return hexcolor.RGB{R: uint8(rSum / n), G: uint8(gSum / n), B: uint8(bSum / n)}
}
