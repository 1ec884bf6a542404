// Package draw defines the minimal drawing contract used by the particle
// engine and implements it on a terminal half-block canvas.
package draw

import (
	"errors"
	"fmt"
	"image/color"
	"math"
	"strconv"
	"strings"
)

var (
	// ErrInvalidShape is returned for draw calls with non-finite geometry.
	ErrInvalidShape = errors.New("invalid shape")
	// ErrNoTarget is returned when a surface has nothing to draw into.
	ErrNoTarget = errors.New("no draw target")
)

// Renderer is the drawing vocabulary the particle engine needs. Alpha applies
// to the single draw operation, not to any later flush.
type Renderer interface {
	DrawFilledCircle(x, y, radius float64, c color.RGBA, alpha float64) error
}

// Surface is a Renderer with frame boundaries.
type Surface interface {
	// BeginDraw clears or prepares the surface for a new frame.
	BeginDraw() error
	Renderer
	// EndDraw finishes the frame.
	EndDraw() error
}

// Shade characters from lightest to darkest.
var Shades = []rune{' ', '░', '▒', '▓', '█'}

// ShadeLevel returns a shade character for a value between 0.0 (empty) and 1.0 (solid).
func ShadeLevel(intensity float64) rune {
	if intensity <= 0 {
		return Shades[0]
	}
	if intensity >= 1 {
		return Shades[len(Shades)-1]
	}
	idx := int(math.Ceil(intensity * float64(len(Shades)-1)))
	return Shades[idx]
}

// Block characters for drawing.
const (
	BlockFull      = '█'
	BlockUpperHalf = '▀'
	BlockLowerHalf = '▄'
)

// Blend mixes src over dst with the given alpha (0 keeps dst, 1 yields src).
func Blend(dst, src color.RGBA, alpha float64) color.RGBA {
	if alpha <= 0 {
		return dst
	}
	if alpha >= 1 {
		return color.RGBA{R: src.R, G: src.G, B: src.B, A: 255}
	}
	mix := func(d, s uint8) uint8 {
		return uint8(math.Round(float64(d) + (float64(s)-float64(d))*alpha))
	}
	return color.RGBA{R: mix(dst.R, src.R), G: mix(dst.G, src.G), B: mix(dst.B, src.B), A: 255}
}

// ParseColor parses "#rrggbb" or "#rgb" into an opaque color.
func ParseColor(s string) (color.RGBA, error) {
	hex := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) != 6 {
		return color.RGBA{}, fmt.Errorf("parse color %q: want #rrggbb", s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("parse color %q: %w", s, err)
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 255}, nil
}

func finite(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
