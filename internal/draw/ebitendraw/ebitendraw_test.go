package ebitendraw

import (
	"errors"
	"image/color"
	"testing"

	"github.com/tomz197/invaders-fx/internal/draw"
)

func TestPremultiply(t *testing.T) {
	tests := []struct {
		name  string
		c     color.RGBA
		alpha float64
		want  color.RGBA
	}{
		{"opaque", color.RGBA{R: 200, G: 100, B: 50, A: 255}, 1, color.RGBA{R: 200, G: 100, B: 50, A: 255}},
		{"half", color.RGBA{R: 200, G: 100, B: 50, A: 255}, 0.5, color.RGBA{R: 100, G: 50, B: 25, A: 127}},
		{"clamped", color.RGBA{R: 10, A: 255}, 3, color.RGBA{R: 10, A: 255}},
		{"transparent source", color.RGBA{R: 200, A: 0}, 1, color.RGBA{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := premultiply(tt.c, tt.alpha); got != tt.want {
				t.Errorf("premultiply(%v, %v) = %v, want %v", tt.c, tt.alpha, got, tt.want)
			}
		})
	}
}

func TestSurface_NoTarget(t *testing.T) {
	s := New(120, 80)
	if err := s.BeginDraw(); !errors.Is(err, draw.ErrNoTarget) {
		t.Errorf("expected ErrNoTarget, got %v", err)
	}
	if err := s.DrawFilledCircle(1, 1, 1, color.RGBA{}, 1); !errors.Is(err, draw.ErrNoTarget) {
		t.Errorf("expected ErrNoTarget, got %v", err)
	}
	if s.Scale() != 1 {
		t.Errorf("expected unit scale before a target is set, got %v", s.Scale())
	}
}
