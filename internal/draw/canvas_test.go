package draw

import (
	"errors"
	"image/color"
	"math"
	"strings"
	"testing"
)

var (
	red   = color.RGBA{R: 255, A: 255}
	white = color.RGBA{R: 255, G: 255, B: 255, A: 255}
)

func TestCanvas_DrawFilledCircleSinglePixel(t *testing.T) {
	c := NewCanvas(10, 5) // 10x10 sub-pixels, 1:1

	if err := c.DrawFilledCircle(3, 4, 0.2, red, 1); err != nil {
		t.Fatalf("draw: %v", err)
	}

	got, lit := c.PixelAt(3, 4)
	if !lit {
		t.Fatal("expected pixel (3,4) to be lit")
	}
	if got != red {
		t.Errorf("expected %v, got %v", red, got)
	}
	if c.LitCount() != 1 {
		t.Errorf("expected exactly one lit pixel, got %d", c.LitCount())
	}
}

func TestCanvas_DrawFilledCircleRadius(t *testing.T) {
	c := NewCanvas(20, 10)

	if err := c.DrawFilledCircle(10, 10, 3, white, 1); err != nil {
		t.Fatalf("draw: %v", err)
	}

	if _, lit := c.PixelAt(10, 10); !lit {
		t.Error("center not lit")
	}
	if _, lit := c.PixelAt(13, 10); !lit {
		t.Error("edge pixel on radius not lit")
	}
	if _, lit := c.PixelAt(13, 13); lit {
		t.Error("corner outside the circle lit")
	}
}

func TestCanvas_AlphaAppliesPerDraw(t *testing.T) {
	c := NewCanvas(4, 2)

	_ = c.DrawFilledCircle(1, 1, 0, red, 0.5)
	got, _ := c.PixelAt(1, 1)
	if got.R < 126 || got.R > 129 || got.G != 0 {
		t.Errorf("expected half-intensity red over black, got %v", got)
	}

	// A second, opaque draw on another pixel must not be affected by the first alpha.
	_ = c.DrawFilledCircle(2, 1, 0, red, 1)
	got, _ = c.PixelAt(2, 1)
	if got != red {
		t.Errorf("expected opaque red, got %v", got)
	}
}

func TestCanvas_ZeroAlphaDrawsNothing(t *testing.T) {
	c := NewCanvas(4, 2)
	if err := c.DrawFilledCircle(1, 1, 1, red, 0); err != nil {
		t.Fatalf("draw: %v", err)
	}
	if c.LitCount() != 0 {
		t.Errorf("expected no lit pixels, got %d", c.LitCount())
	}
}

func TestCanvas_RejectsNonFinite(t *testing.T) {
	c := NewCanvas(4, 2)
	tests := []struct {
		name      string
		x, y, r   float64
		alphaness float64
	}{
		{"nan x", math.NaN(), 0, 1, 1},
		{"inf y", 0, math.Inf(1), 1, 1},
		{"negative radius", 0, 0, -1, 1},
		{"nan alpha", 0, 0, 1, math.NaN()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := c.DrawFilledCircle(tt.x, tt.y, tt.r, red, tt.alphaness)
			if !errors.Is(err, ErrInvalidShape) {
				t.Errorf("expected ErrInvalidShape, got %v", err)
			}
		})
	}
}

func TestCanvas_ScaledCoordinates(t *testing.T) {
	// 20 columns x 10 rows => 20x20 sub-pixels for a 40x40 logical view.
	c := NewScaledCanvas(20, 10, 40, 40)
	_ = c.DrawFilledCircle(20, 20, 0, white, 1)
	if _, lit := c.PixelAt(10, 10); !lit {
		t.Error("expected logical (20,20) to map to pixel (10,10)")
	}
}

func TestCanvas_RenderDiffs(t *testing.T) {
	c := NewCanvas(4, 2)
	var out strings.Builder

	_ = c.BeginDraw()
	_ = c.DrawFilledCircle(1, 0, 0, red, 1)
	c.Render(&out)
	first := out.String()
	if !strings.Contains(first, string(BlockUpperHalf)) {
		t.Fatalf("expected upper half block in first render, got %q", first)
	}
	if !strings.Contains(first, "\033[38;2;255;0;0m") {
		t.Errorf("expected 24-bit red foreground, got %q", first)
	}

	out.Reset()
	_ = c.BeginDraw()
	_ = c.DrawFilledCircle(1, 0, 0, red, 1)
	c.Render(&out)
	if out.Len() != 0 {
		t.Errorf("unchanged frame should emit nothing, got %q", out.String())
	}

	out.Reset()
	_ = c.BeginDraw()
	c.Render(&out)
	if !strings.Contains(out.String(), "\033[0m ") {
		t.Errorf("cleared cell should be blanked, got %q", out.String())
	}

	out.Reset()
	_ = c.DrawFilledCircle(1, 0, 0, red, 1)
	c.ForceRedraw()
	c.Render(&out)
	if !strings.Contains(out.String(), string(BlockUpperHalf)) {
		t.Errorf("forced redraw should re-emit lit cells, got %q", out.String())
	}
}

func TestCanvas_RenderBothHalves(t *testing.T) {
	c := NewCanvas(1, 1)
	var out strings.Builder

	_ = c.DrawFilledCircle(0, 0, 0, red, 1)
	_ = c.DrawFilledCircle(0, 1, 0, white, 1)
	c.Render(&out)

	s := out.String()
	if !strings.Contains(s, "\033[38;2;255;0;0m") || !strings.Contains(s, "\033[48;2;255;255;255m") {
		t.Errorf("expected red foreground over white background, got %q", s)
	}
}

func TestBlend(t *testing.T) {
	black := color.RGBA{A: 255}
	if got := Blend(black, white, 0); got != black {
		t.Errorf("alpha 0: got %v", got)
	}
	if got := Blend(black, white, 1); got != white {
		t.Errorf("alpha 1: got %v", got)
	}
	if got := Blend(black, white, 0.25); got.R != 64 {
		t.Errorf("alpha 0.25: expected R=64, got %v", got)
	}
}

func TestParseColor(t *testing.T) {
	tests := []struct {
		in      string
		want    color.RGBA
		wantErr bool
	}{
		{"#ff8800", color.RGBA{R: 255, G: 136, A: 255}, false},
		{"0f0", color.RGBA{G: 255, A: 255}, false},
		{"#12345", color.RGBA{}, true},
		{"#zzzzzz", color.RGBA{}, true},
	}
	for _, tt := range tests {
		got, err := ParseColor(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseColor(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if !tt.wantErr && got != tt.want {
			t.Errorf("ParseColor(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestChunkWriter_Flush(t *testing.T) {
	var out strings.Builder
	cw := NewChunkWriter(&out, 2, 1)

	cw.WriteAt(1, 1, "hi")
	cw.WriteAtColor(3, 2, "x", red)
	if err := cw.Flush(); err != nil {
		t.Fatalf("flush: %v", err)
	}

	s := out.String()
	if !strings.HasPrefix(s, "\033[2;3Hhi") {
		t.Errorf("offset not applied: %q", s)
	}
	if !strings.Contains(s, "\033[3;5H\033[38;2;255;0;0mx\033[0m") {
		t.Errorf("colored write missing: %q", s)
	}
	if cw.Pending() != 0 {
		t.Errorf("buffer not reset after flush")
	}
}
