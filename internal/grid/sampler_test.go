package grid

import (
	"errors"
	"image"
	"regexp"
	"testing"

	"github.com/inkgrid/server/pkg/hexcolor"
)

var hexPattern = regexp.MustCompile(`^#[0-9a-f]{6}$`)

// gradientImage returns an image whose pixels vary with x and y so that
// every cell of a grid gets a different mean.
func gradientImage(t *testing.T, w, h int) *Image {
	t.Helper()
	pix := make([]uint8, w*h*3)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			o := (y*w + x) * 3
			pix[o] = uint8(x * 255 / w)
			pix[o+1] = uint8(y * 255 / h)
			pix[o+2] = uint8((x + y) % 256)
		}
	}
	img, err := NewImage(w, h, pix)
	if err != nil {
		t.Fatalf("NewImage: %v", err)
	}
	return img
}

func TestSampleUniformImage(t *testing.T) {
	img := Uniform(10, 10, hexcolor.RGB{R: 100, G: 150, B: 200})

	g, err := Sample(img, Spec{Cols: 2, Rows: 2})
	if err != nil {
		t.Fatalf("Sample: %v", err)
	}
	for r, row := range g.HexRows() {
		for c, hex := range row {
			if hex != "#6496c8" {
				t.Errorf("cell (%d,%d) = %s, want #6496c8", c, r, hex)
			}
		}
	}
}

func TestSampleShapeAndFormat(t *testing.T) {
	img := gradientImage(t, 97, 61)

	specs := []Spec{{1, 1}, {3, 7}, {12, 8}, {50, 50}, {50, 1}, {1, 50}}
	for _, spec := range specs {
		g, err := Sample(img, spec)
		if err != nil {
			t.Fatalf("Sample(%s): %v", spec, err)
		}
		rows := g.HexRows()
		if len(rows) != spec.Rows {
			t.Fatalf("%s: got %d rows, want %d", spec, len(rows), spec.Rows)
		}
		for r, row := range rows {
			if len(row) != spec.Cols {
				t.Fatalf("%s: row %d has %d cols, want %d", spec, r, len(row), spec.Cols)
			}
			for _, hex := range row {
				if !hexPattern.MatchString(hex) {
					t.Fatalf("%s: malformed hex %q", spec, hex)
				}
			}
		}
	}
}

func TestSampleIsDeterministic(t *testing.T) {
	img := gradientImage(t, 40, 30)
	spec := Spec{Cols: 6, Rows: 4}

	a, err := Sample(img, spec)
	if err != nil {
		t.Fatalf("Sample: %v", err)
	}
	b, err := Sample(img, spec)
	if err != nil {
		t.Fatalf("Sample: %v", err)
	}
	ra, rb := a.HexRows(), b.HexRows()
	for r := range ra {
		for c := range ra[r] {
			if ra[r][c] != rb[r][c] {
				t.Fatalf("cell (%d,%d) differs: %s vs %s", c, r, ra[r][c], rb[r][c])
			}
		}
	}
}

func TestSampleDropsRemainderStrip(t *testing.T) {
	// 5x5 image, 2x2 grid: cell size 2x2, column 4 and row 4 are never sampled.
	img := Uniform(5, 5, hexcolor.RGB{R: 10, G: 20, B: 30})
	pix := make([]uint8, 0, 75)
	for y := 0; y < 5; y++ {
		for x := 0; x < 5; x++ {
			c := img.RGBAt(x, y)
			if x == 4 || y == 4 {
				c = hexcolor.RGB{R: 255, G: 255, B: 255}
			}
			pix = append(pix, c.R, c.G, c.B)
		}
	}
	edged, err := NewImage(5, 5, pix)
	if err != nil {
		t.Fatalf("NewImage: %v", err)
	}

	g, err := Sample(edged, Spec{Cols: 2, Rows: 2})
	if err != nil {
		t.Fatalf("Sample: %v", err)
	}
	g.Each(func(a Address, c hexcolor.RGB) {
		if c.Hex() != "#0a141e" {
			t.Errorf("cell %s picked up the remainder strip: %s", a, c.Hex())
		}
	})
}

func TestSampleFloorsMean(t *testing.T) {
	// Two pixels, 0 and 255: mean 127.5 floors to 127.
	img, err := NewImage(2, 1, []uint8{0, 0, 0, 255, 255, 255})
	if err != nil {
		t.Fatalf("NewImage: %v", err)
	}
	g, err := Sample(img, Spec{Cols: 1, Rows: 1})
	if err != nil {
		t.Fatalf("Sample: %v", err)
	}
	c, _ := g.At(Address{})
	if c != (hexcolor.RGB{R: 127, G: 127, B: 127}) {
		t.Fatalf("unexpected mean %v", c)
	}
}

func TestSampleRejectsDegenerateGrid(t *testing.T) {
	img := Uniform(3, 10, hexcolor.RGB{})

	_, err := Sample(img, Spec{Cols: 4, Rows: 2})
	if !errors.Is(err, ErrDegenerateGrid) {
		t.Fatalf("expected ErrDegenerateGrid, got %v", err)
	}
	if !IsValidation(err) {
		t.Fatalf("expected degenerate grid to be a validation error")
	}
}

func TestSampleRejectsOutOfRangeSpec(t *testing.T) {
	img := Uniform(100, 100, hexcolor.RGB{})

	for _, spec := range []Spec{{0, 4}, {4, 0}, {51, 4}, {4, 51}, {-1, -1}} {
		if _, err := Sample(img, spec); !errors.Is(err, ErrSpecOutOfRange) {
			t.Errorf("Sample(%s): expected ErrSpecOutOfRange, got %v", spec, err)
		}
	}
}

func TestMeanOfSubRectangle(t *testing.T) {
	img := gradientImage(t, 8, 8)
	rect := image.Rect(2, 2, 4, 4)

	var r, g, b int
	for y := 2; y < 4; y++ {
		for x := 2; x < 4; x++ {
			c := img.RGBAt(x, y)
			r += int(c.R)
			g += int(c.G)
			b += int(c.B)
		}
	}
	want := hexcolor.RGB{R: uint8(r / 4), G: uint8(g / 4), B: uint8(b / 4)}
	if got := Mean(img, rect); got != want {
		t.Fatalf("Mean = %v, want %v", got, want)
	}
	if got := Mean(img, image.Rectangle{}); got != (hexcolor.RGB{}) {
		t.Fatalf("Mean of empty rect = %v, want black", got)
	}
}

func BenchmarkSample(b *testing.B) {
	img := Uniform(1920, 1080, hexcolor.RGB{R: 12, G: 34, B: 56})
	spec := Spec{Cols: 50, Rows: 50}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = Sample(img, spec)
	}
}
