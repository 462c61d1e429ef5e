// Package ink converts colours into a five-ink mixture: cyan, magenta,
// yellow and black from a naive RGB→CMYK split, plus a white share taken
// from the darkest channel. The five shares are normalised to 100 percent.
//
// This is a mixing heuristic for painters, not a colorimetric conversion.
package ink

import (
	"math"
	"strconv"

	"github.com/inkgrid/server/pkg/hexcolor"
)

// Mix holds ink shares in percent.
type Mix struct {
	Cyan    float64 `json:"cyan"`
	Magenta float64 `json:"magenta"`
	Yellow  float64 `json:"yellow"`
	Black   float64 `json:"black"`
	White   float64 `json:"white"`
}

// FromRGB returns the unrounded mixture for c. The shares sum to 100, except
// when every component is zero, in which case all shares are zero.
func FromRGB(c hexcolor.RGB) Mix {
	r, g, b := c.Normalized()

	k := 1 - math.Max(r, math.Max(g, b))
	var cy, mg, ye float64
	if k < 1 {
		cy = (1 - r - k) / (1 - k)
		mg = (1 - g - k) / (1 - k)
		ye = (1 - b - k) / (1 - k)
	}
	w := math.Min(r, math.Min(g, b))

	return normalize(cy, mg, ye, k, w)
}

// normalize scales the raw shares to percentages of their total. A zero
// total yields the zero Mix.
func normalize(c, m, y, k, w float64) Mix {
	total := c + m + y + k + w
	if total == 0 {
		return Mix{}
	}
	return Mix{
		Cyan:    c / total * 100,
		Magenta: m / total * 100,
		Yellow:  y / total * 100,
		Black:   k / total * 100,
		White:   w / total * 100,
	}
}

// FromHex parses a #rrggbb colour and returns its unrounded mixture.
func FromHex(s string) (Mix, error) {
	c, err := hexcolor.Parse(s)
	if err != nil {
		return Mix{}, err
	}
	return FromRGB(c), nil
}

// Rounded rounds every share to two decimals. Rounding is exact on the
// binary value, so decimal ties such as 53.125 go to the even digit. The
// rounded shares may drift
// from 100 by a few hundredths; the drift is not redistributed.
func (m Mix) Rounded() Mix {
	return Mix{
		Cyan:    round2(m.Cyan),
		Magenta: round2(m.Magenta),
		Yellow:  round2(m.Yellow),
		Black:   round2(m.Black),
		White:   round2(m.White),
	}
}

// Sum returns the total of all five shares.
func (m Mix) Sum() float64 {
	return m.Cyan + m.Magenta + m.Yellow + m.Black + m.White
}

// Values returns the shares in C, M, Y, K, W order.
func (m Mix) Values() [5]float64 {
	return [5]float64{m.Cyan, m.Magenta, m.Yellow, m.Black, m.White}
}

func round2(v float64) float64 {
	r, err := strconv.ParseFloat(strconv.FormatFloat(v, 'f', 2, 64), 64)
	if err != nil {
		return v
	}
	return r
}
