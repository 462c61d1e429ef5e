package grid

import (
	"fmt"
	"image"
	"image/color"

	"github.com/inkgrid/server/pkg/hexcolor"
)

// Image is an immutable 8-bit RGB pixel buffer. It implements image.Image so
// it can be handed straight to encoders and renderers.
type Image struct {
	width  int
	height int
	pix    []uint8 // 3 bytes per pixel, row-major
}

// NewImage wraps a packed RGB buffer. The buffer is copied.
func NewImage(width, height int, pix []uint8) (*Image, error) {
	if width < 1 || height < 1 {
		return nil, fmt.Errorf("image dimensions must be positive, got %dx%d", width, height)
	}
	if len(pix) != width*height*3 {
		return nil, fmt.Errorf("pixel buffer has %d bytes, want %d for %dx%d RGB", len(pix), width*height*3, width, height)
	}
	buf := make([]uint8, len(pix))
	copy(buf, pix)
	return &Image{width: width, height: height, pix: buf}, nil
}

// Uniform returns a width×height image filled with c.
func Uniform(width, height int, c hexcolor.RGB) *Image {
	pix := make([]uint8, width*height*3)
	for i := 0; i < len(pix); i += 3 {
		pix[i], pix[i+1], pix[i+2] = c.R, c.G, c.B
	}
	return &Image{width: width, height: height, pix: pix}
}

// FromImage converts a decoded image to RGB. Alpha is dropped without
// compositing, so translucent pixels keep their straight colour values.
func FromImage(src image.Image) *Image {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	pix := make([]uint8, w*h*3)

	if n, ok := src.(*image.NRGBA); ok {
		for y := 0; y < h; y++ {
			row := n.Pix[n.PixOffset(b.Min.X, b.Min.Y+y):]
			for x := 0; x < w; x++ {
				o := (y*w + x) * 3
				pix[o], pix[o+1], pix[o+2] = row[x*4], row[x*4+1], row[x*4+2]
			}
		}
		return &Image{width: w, height: h, pix: pix}
	}

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := color.NRGBAModel.Convert(src.At(b.Min.X+x, b.Min.Y+y)).(color.NRGBA)
			o := (y*w + x) * 3
			pix[o], pix[o+1], pix[o+2] = c.R, c.G, c.B
		}
	}
	return &Image{width: w, height: h, pix: pix}
}

// Width returns the image width in pixels.
func (m *Image) Width() int { return m.width }

// Height returns the image height in pixels.
func (m *Image) Height() int { return m.height }

// RGBAt returns the pixel at (x, y). Coordinates must be inside the image.
func (m *Image) RGBAt(x, y int) hexcolor.RGB {
	o := (y*m.width + x) * 3
	return hexcolor.RGB{R: m.pix[o], G: m.pix[o+1], B: m.pix[o+2]}
}

// ColorModel implements image.Image.
func (m *Image) ColorModel() color.Model { return color.RGBAModel }

// Bounds implements image.Image.
func (m *Image) Bounds() image.Rectangle { return image.Rect(0, 0, m.width, m.height) }

// At implements image.Image.
func (m *Image) At(x, y int) color.Color {
	if x < 0 || y < 0 || x >= m.width || y >= m.height {
		return color.RGBA{}
	}
	return m.RGBAt(x, y).Color()
}

// Crop copies the part of the image inside r. The result is empty (nil) if
// r does not overlap the image.
func (m *Image) Crop(r image.Rectangle) *Image {
	r = r.Intersect(m.Bounds())
	if r.Empty() {
		return nil
	}
	w, h := r.Dx(), r.Dy()
	pix := make([]uint8, 0, w*h*3)
	for y := r.Min.Y; y < r.Max.Y; y++ {
		start := (y*m.width + r.Min.X) * 3
		pix = append(pix, m.pix[start:start+w*3]...)
	}
	return &Image{width: w, height: h, pix: pix}
}
