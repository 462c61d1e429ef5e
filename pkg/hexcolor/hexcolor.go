// Package hexcolor provides the 8-bit RGB value type shared by the sampler,
// the ink converter and the renderers, and its #rrggbb text form.
package hexcolor

import (
	"errors"
	"fmt"
	"image/color"
)

// ErrInvalidHex is returned when a string is not a #rrggbb colour.
var ErrInvalidHex = errors.New("invalid hex colour")

// RGB is an opaque 8-bit-per-channel colour.
type RGB struct {
	R, G, B uint8
}

// Hex returns the lowercase #rrggbb form.
func (c RGB) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// String implements fmt.Stringer.
func (c RGB) String() string {
	return c.Hex()
}

// Normalized returns the channels scaled to [0, 1].
func (c RGB) Normalized() (r, g, b float64) {
	return float64(c.R) / 255, float64(c.G) / 255, float64(c.B) / 255
}

// Color returns the colour as an opaque color.RGBA.
func (c RGB) Color() color.RGBA {
	return color.RGBA{R: c.R, G: c.G, B: c.B, A: 255}
}

// Parse parses "#rrggbb". Hex digits may be upper or lower case.
func Parse(s string) (RGB, error) {
	if len(s) != 7 || s[0] != '#' {
		return RGB{}, fmt.Errorf("%w: %q", ErrInvalidHex, s)
	}
	var ch [3]uint8
	for i := range ch {
		hi, ok1 := nibble(s[1+2*i])
		lo, ok2 := nibble(s[2+2*i])
		if !ok1 || !ok2 {
			return RGB{}, fmt.Errorf("%w: %q", ErrInvalidHex, s)
		}
		ch[i] = hi<<4 | lo
	}
	return RGB{R: ch[0], G: ch[1], B: ch[2]}, nil
}

// MustParse is like Parse but panics on error. Intended for constants and tests.
func MustParse(s string) RGB {
	c, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return c
}

func nibble(b byte) (uint8, bool) {
	switch {
	case b >= '0' && b <= '9':
		return b - '0', true
	case b >= 'a' && b <= 'f':
		return b - 'a' + 10, true
	case b >= 'A' && b <= 'F':
		return b - 'A' + 10, true
	}
	return 0, false
}
