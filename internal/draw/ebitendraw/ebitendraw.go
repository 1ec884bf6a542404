// Package ebitendraw renders frames onto an ebiten image.
package ebitendraw

import (
	"image/color"
	"math"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"

	"github.com/tomz197/invaders-fx/internal/draw"
)

// Background is the clear color used by BeginDraw.
var Background = color.RGBA{R: 8, G: 8, B: 16, A: 255}

// Surface draws into a target image that the host swaps in each frame,
// usually the screen passed to ebiten's Draw.
type Surface struct {
	target        *ebiten.Image
	logicalWidth  float64
	logicalHeight float64
	scale         float64
}

// New creates a surface for a logical view of the given size.
func New(logicalWidth, logicalHeight float64) *Surface {
	return &Surface{logicalWidth: logicalWidth, logicalHeight: logicalHeight, scale: 1}
}

// SetTarget points the surface at the image for the next frame and fits the
// logical view into it.
func (s *Surface) SetTarget(img *ebiten.Image) {
	s.target = img
	if img == nil {
		return
	}
	b := img.Bounds()
	s.scale = math.Min(float64(b.Dx())/s.logicalWidth, float64(b.Dy())/s.logicalHeight)
}

// Target returns the image set by SetTarget.
func (s *Surface) Target() *ebiten.Image {
	return s.target
}

func (s *Surface) BeginDraw() error {
	if s.target == nil {
		return draw.ErrNoTarget
	}
	s.target.Fill(Background)
	return nil
}

func (s *Surface) DrawFilledCircle(x, y, radius float64, c color.RGBA, alpha float64) error {
	if s.target == nil {
		return draw.ErrNoTarget
	}
	if math.IsNaN(x+y+radius) || math.IsInf(x+y+radius, 0) || radius < 0 {
		return draw.ErrInvalidShape
	}
	if alpha <= 0 {
		return nil
	}
	r := float32(max(radius*s.scale, 0.5))
	vector.DrawFilledCircle(s.target, float32(x*s.scale), float32(y*s.scale), r, premultiply(c, alpha), true)
	return nil
}

func (s *Surface) EndDraw() error {
	return nil
}

// Scale returns the current logical to pixel factor.
func (s *Surface) Scale() float64 {
	return s.scale
}

// premultiply scales c by alpha; ebiten expects premultiplied colors.
func premultiply(c color.RGBA, alpha float64) color.RGBA {
	alpha = min(alpha, 1) * float64(c.A) / 255
	return color.RGBA{
		R: uint8(float64(c.R) * alpha),
		G: uint8(float64(c.G) * alpha),
		B: uint8(float64(c.B) * alpha),
		A: uint8(255 * alpha),
	}
}
