// Package tcelldraw renders frames onto a tcell screen, one shaded cell per
// logical unit after scaling.
package tcelldraw

import (
	"image/color"
	"math"

	"github.com/gdamore/tcell/v2"

	"github.com/tomz197/invaders-fx/internal/draw"
)

type cell struct {
	col       color.RGBA
	intensity float64
}

// Surface accumulates circles into a cell buffer between BeginDraw and
// EndDraw and then shows the buffer on the screen.
type Surface struct {
	screen        tcell.Screen
	logicalWidth  float64
	logicalHeight float64
	cols, rows    int
	scaleX        float64
	scaleY        float64
	cells         []cell
	background    tcell.Style
}

// New creates a surface covering the whole screen.
func New(screen tcell.Screen, logicalWidth, logicalHeight float64) *Surface {
	s := &Surface{
		screen:        screen,
		logicalWidth:  logicalWidth,
		logicalHeight: logicalHeight,
		background:    tcell.StyleDefault.Background(tcell.ColorBlack),
	}
	s.Resize()
	return s
}

// Resize re-reads the screen size. Call it after a tcell.EventResize.
func (s *Surface) Resize() {
	s.cols, s.rows = s.screen.Size()
	s.cols, s.rows = max(s.cols, 1), max(s.rows, 1)
	s.scaleX = float64(s.cols) / s.logicalWidth
	s.scaleY = float64(s.rows) / s.logicalHeight
	if cap(s.cells) < s.cols*s.rows {
		s.cells = make([]cell, s.cols*s.rows)
	}
	s.cells = s.cells[:s.cols*s.rows]
}

func (s *Surface) BeginDraw() error {
	clear(s.cells)
	return nil
}

// DrawFilledCircle adds the circle's coverage to every cell whose center it
// contains. Circles smaller than a cell still light the cell they fall in.
func (s *Surface) DrawFilledCircle(x, y, radius float64, c color.RGBA, alpha float64) error {
	if math.IsNaN(x) || math.IsNaN(y) || math.IsNaN(radius) || math.IsInf(x, 0) || math.IsInf(y, 0) || math.IsInf(radius, 0) || radius < 0 {
		return draw.ErrInvalidShape
	}
	if alpha <= 0 {
		return nil
	}
	alpha = min(alpha, 1)

	cx, cy := x*s.scaleX, y*s.scaleY
	rx, ry := radius*s.scaleX, radius*s.scaleY
	if rx < 0.5 && ry < 0.5 {
		s.blend(floorCell(cx), floorCell(cy), c, alpha)
		return nil
	}

	for row := floorCell(cy - ry); row <= floorCell(cy+ry); row++ {
		for col := floorCell(cx - rx); col <= floorCell(cx+rx); col++ {
			dx := (float64(col) + 0.5 - cx) / max(rx, 0.5)
			dy := (float64(row) + 0.5 - cy) / max(ry, 0.5)
			if dx*dx+dy*dy <= 1 {
				s.blend(col, row, c, alpha)
			}
		}
	}
	return nil
}

// floorCell maps a scaled coordinate to the cell containing it.
func floorCell(v float64) int {
	return int(math.Floor(v))
}

func (s *Surface) blend(col, row int, c color.RGBA, alpha float64) {
	if col < 0 || row < 0 || col >= s.cols || row >= s.rows {
		return
	}
	dst := &s.cells[row*s.cols+col]
	dst.col = draw.Blend(dst.col, c, alpha)
	dst.intensity = min(dst.intensity+alpha, 1)
}

// EndDraw writes the buffer to the screen. Call Show once any text is on
// top of it.
func (s *Surface) EndDraw() error {
	for row := range s.rows {
		for col := range s.cols {
			cl := s.cells[row*s.cols+col]
			if cl.intensity <= 0 {
				s.screen.SetContent(col, row, ' ', nil, s.background)
				continue
			}
			fg := tcell.NewRGBColor(int32(cl.col.R), int32(cl.col.G), int32(cl.col.B))
			s.screen.SetContent(col, row, draw.ShadeLevel(cl.intensity), nil, s.background.Foreground(fg))
		}
	}
	return nil
}

// Show makes the frame visible.
func (s *Surface) Show() {
	s.screen.Show()
}

// Text writes a status line at the given cell, clipped to the screen.
func (s *Surface) Text(col, row int, text string, fg color.RGBA) {
	style := s.background.Foreground(tcell.NewRGBColor(int32(fg.R), int32(fg.G), int32(fg.B)))
	for _, r := range text {
		if col >= s.cols {
			return
		}
		s.screen.SetContent(col, row, r, nil, style)
		col++
	}
}
