// Package render draws colour grids and grid overlays as PNG using fogleman/gg.
package render

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"sync"

	"github.com/fogleman/gg"

	"github.com/inkgrid/server/internal/grid"
	"github.com/inkgrid/server/pkg/hexcolor"
)

// Config contains renderer configuration.
type Config struct {
	CellSize   int          // mosaic cell edge in pixels
	Gap        int          // mosaic gap between cells in pixels
	SwatchSize int          // edge of a single-colour swatch
	LineColor  hexcolor.RGB // grid line colour on overlays
}

// Renderer renders grid previews.
type Renderer struct {
	config     Config
	bufferPool sync.Pool
}

// NewRenderer creates a new renderer.
func NewRenderer(cfg Config) *Renderer {
	if cfg.CellSize <= 0 {
		cfg.CellSize = 24
	}
	if cfg.Gap < 0 {
		cfg.Gap = 0
	}
	if cfg.SwatchSize <= 0 {
		cfg.SwatchSize = 128
	}
	return &Renderer{
		config: cfg,
		bufferPool: sync.Pool{
			New: func() interface{} {
				return bytes.NewBuffer(make([]byte, 0, 32*1024))
			},
		},
	}
}

// MosaicSize returns the pixel size of the mosaic for a grid spec.
func (r *Renderer) MosaicSize(spec grid.Spec) (w, h int) {
	step := r.config.CellSize + r.config.Gap
	return spec.Cols*step - r.config.Gap, spec.Rows*step - r.config.Gap
}

// Mosaic renders each cell as a filled square on a white background,
// separated by the configured gap.
func (r *Renderer) Mosaic(g *grid.ColorGrid) ([]byte, error) {
	w, h := r.MosaicSize(g.Spec())
	dc := gg.NewContext(w, h)

	dc.SetColor(color.White)
	dc.Clear()

	cell := float64(r.config.CellSize)
	step := float64(r.config.CellSize + r.config.Gap)
	g.Each(func(a grid.Address, c hexcolor.RGB) {
		dc.SetColor(c.Color())
		dc.DrawRectangle(float64(a.Col)*step, float64(a.Row)*step, cell, cell)
		dc.Fill()
	})

	return r.encode(dc.Image())
}

// Overlay draws the grid lines of spec over img. The strip that no cell
// covers is dimmed so users see what is dropped.
func (r *Renderer) Overlay(img *grid.Image, spec grid.Spec) ([]byte, error) {
	if err := spec.Fit(img.Width(), img.Height()); err != nil {
		return nil, err
	}
	dc := gg.NewContextForImage(img)

	cellW, cellH := spec.CellSize(img.Width(), img.Height())
	usedW := float64(cellW * spec.Cols)
	usedH := float64(cellH * spec.Rows)
	W, H := float64(img.Width()), float64(img.Height())

	dc.SetRGBA(0, 0, 0, 0.45)
	if usedW < W {
		dc.DrawRectangle(usedW, 0, W-usedW, H)
		dc.Fill()
	}
	if usedH < H {
		dc.DrawRectangle(0, usedH, usedW, H-usedH)
		dc.Fill()
	}

	dc.SetColor(r.config.LineColor.Color())
	dc.SetLineWidth(1)
	for c := 0; c <= spec.Cols; c++ {
		x := float64(c*cellW) + 0.5
		dc.DrawLine(x, 0, x, usedH)
	}
	for row := 0; row <= spec.Rows; row++ {
		y := float64(row*cellH) + 0.5
		dc.DrawLine(0, y, usedW, y)
	}
	dc.Stroke()

	return r.encode(dc.Image())
}

// Cell renders the pixels of one cell rectangle.
func (r *Renderer) Cell(img *grid.Image, rect image.Rectangle) ([]byte, error) {
	sub := img.Crop(rect)
	if sub == nil {
		return nil, grid.ErrDegenerateGrid
	}
	return r.encode(sub)
}

// Swatch renders a square filled with c.
func (r *Renderer) Swatch(c hexcolor.RGB) ([]byte, error) {
	size := r.config.SwatchSize
	dc := gg.NewContext(size, size)
	dc.SetColor(c.Color())
	dc.Clear()
	return r.encode(dc.Image())
}

func (r *Renderer) encode(img image.Image) ([]byte, error) {
	buf := r.bufferPool.Get().(*bytes.Buffer)
	defer func() {
		buf.Reset()
		r.bufferPool.Put(buf)
	}()

	// Use fast PNG encoder
	encoder := png.Encoder{CompressionLevel: png.BestSpeed}
	if err := encoder.Encode(buf, img); err != nil {
		return nil, err
	}

	// Copy buffer contents (buffer will be reused)
	result := make([]byte, buf.Len())
	copy(result, buf.Bytes())
	return result, nil
}
