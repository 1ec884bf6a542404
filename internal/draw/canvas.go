package draw

import (
	"image/color"
	"io"
	"math"
	"strconv"
	"strings"
)

// Canvas is a color drawing buffer with 2x vertical resolution using
// half-block characters. Game code draws in logical coordinates which the
// canvas scales to terminal sub-pixels.
//
// Canvas implements Surface. Alpha is blended into the pixel at draw time, so
// every particle keeps its own alpha regardless of how calls are batched.
type Canvas struct {
	termWidth      int // Actual terminal columns
	termHeight     int // Actual terminal rows
	subPixelHeight int // termHeight * 2

	pixels []color.RGBA // Flat slice: [y * termWidth + x]
	lit    []bool       // Whether the pixel was drawn this frame
	prev   []cell       // Cells emitted by the previous Render, for diffing
	redraw bool         // Next Render emits every cell

	// Scaling from logical to pixel coordinates
	logicalWidth  float64
	logicalHeight float64 // in sub-pixels
	scaleX        float64
	scaleY        float64

	// 0-based terminal offsets for centering the render area
	offsetCol int
	offsetRow int

	// Reusable buffers to reduce allocations
	renderBuf strings.Builder
	numBuf    [20]byte
}

// cell is the visible state of one terminal character.
type cell struct {
	top, bottom       color.RGBA
	topLit, bottomLit bool
}

// NewCanvas creates a canvas for the given terminal dimensions with a 1:1
// logical mapping.
func NewCanvas(width, height int) *Canvas {
	return NewScaledCanvas(width, height, float64(width), float64(height*2))
}

// NewScaledCanvas creates a canvas that scales from logical coordinates to terminal pixels.
func NewScaledCanvas(termWidth, termHeight int, logicalWidth, logicalHeight float64) *Canvas {
	c := &Canvas{
		logicalWidth:  logicalWidth,
		logicalHeight: logicalHeight,
		redraw:        true,
	}
	c.allocate(termWidth, termHeight)
	return c
}

func (c *Canvas) allocate(termWidth, termHeight int) {
	c.termWidth = termWidth
	c.termHeight = termHeight
	c.subPixelHeight = termHeight * 2
	c.pixels = make([]color.RGBA, c.subPixelHeight*termWidth)
	c.lit = make([]bool, c.subPixelHeight*termWidth)
	c.prev = make([]cell, termHeight*termWidth)
	c.scaleX = float64(termWidth) / c.logicalWidth
	c.scaleY = float64(c.subPixelHeight) / c.logicalHeight
	c.redraw = true
}

// Resize updates the canvas for new terminal dimensions while keeping logical size.
func (c *Canvas) Resize(termWidth, termHeight int) {
	if termWidth != c.termWidth || termHeight != c.termHeight {
		c.allocate(termWidth, termHeight)
	}
}

// SetOffset sets the column and row offset for centering the canvas.
func (c *Canvas) SetOffset(col, row int) {
	if col != c.offsetCol || row != c.offsetRow {
		c.redraw = true
	}
	c.offsetCol = col
	c.offsetRow = row
}

// OffsetCol returns the column offset used for centering.
func (c *Canvas) OffsetCol() int {
	return c.offsetCol
}

// OffsetRow returns the row offset used for centering.
func (c *Canvas) OffsetRow() int {
	return c.offsetRow
}

// ForceRedraw makes the next Render emit every cell, e.g. after the terminal
// was cleared externally.
func (c *Canvas) ForceRedraw() {
	c.redraw = true
}

// Clear resets all pixels in the canvas.
func (c *Canvas) Clear() {
	clear(c.lit)
}

// BeginDraw clears the canvas for a new frame.
func (c *Canvas) BeginDraw() error {
	c.Clear()
	return nil
}

// EndDraw is a no-op; output happens in Render.
func (c *Canvas) EndDraw() error {
	return nil
}

// blendPixel blends a color into a pixel at terminal coordinates (no scaling).
func (c *Canvas) blendPixel(x, y int, col color.RGBA, alpha float64) {
	if x < 0 || x >= c.termWidth || y < 0 || y >= c.subPixelHeight {
		return
	}
	i := y*c.termWidth + x
	var dst color.RGBA
	if c.lit[i] {
		dst = c.pixels[i]
	}
	c.pixels[i] = Blend(dst, col, alpha)
	c.lit[i] = true
}

// DrawFilledCircle fills an ellipse-corrected circle of logical radius at
// (x, y). Circles smaller than a sub-pixel light a single pixel.
func (c *Canvas) DrawFilledCircle(x, y, radius float64, col color.RGBA, alpha float64) error {
	if !finite(x, y, radius, alpha) || radius < 0 {
		return ErrInvalidShape
	}
	if alpha <= 0 {
		return nil
	}
	if alpha > 1 {
		alpha = 1
	}

	cx := x * c.scaleX
	cy := y * c.scaleY
	rx := radius * c.scaleX
	ry := radius * c.scaleY

	if rx < 0.5 && ry < 0.5 {
		c.blendPixel(int(math.Round(cx)), int(math.Round(cy)), col, alpha)
		return nil
	}
	rx = math.Max(rx, 0.5)
	ry = math.Max(ry, 0.5)

	x0 := int(math.Floor(cx - rx))
	x1 := int(math.Ceil(cx + rx))
	y0 := int(math.Floor(cy - ry))
	y1 := int(math.Ceil(cy + ry))
	for py := y0; py <= y1; py++ {
		dy := (float64(py) - cy) / ry
		for px := x0; px <= x1; px++ {
			dx := (float64(px) - cx) / rx
			if dx*dx+dy*dy <= 1 {
				c.blendPixel(px, py, col, alpha)
			}
		}
	}
	return nil
}

// maxChunkSize is the maximum bytes to write at once; it matches a typical
// MTU so SSH sessions stream smoothly.
const maxChunkSize = 1400

// Render writes the cells that changed since the previous Render as 24-bit
// color half-block characters.
func (c *Canvas) Render(w io.Writer) {
	c.renderBuf.Reset()
	c.renderBuf.Grow(c.termWidth * c.termHeight * 4)

	for row := 0; row < c.termHeight; row++ {
		topOffset := row * 2 * c.termWidth
		bottomOffset := topOffset + c.termWidth

		for col := 0; col < c.termWidth; col++ {
			next := cell{
				top:       c.pixels[topOffset+col],
				bottom:    c.pixels[bottomOffset+col],
				topLit:    c.lit[topOffset+col],
				bottomLit: c.lit[bottomOffset+col],
			}
			if !next.topLit {
				next.top = color.RGBA{}
			}
			if !next.bottomLit {
				next.bottom = color.RGBA{}
			}

			idx := row*c.termWidth + col
			if !c.redraw && c.prev[idx] == next {
				continue
			}
			c.prev[idx] = next
			if c.redraw && !next.topLit && !next.bottomLit {
				continue // screen was cleared by the caller
			}
			c.writeCell(row, col, next)
		}
	}
	if c.renderBuf.Len() > 0 {
		c.renderBuf.WriteString("\033[0m")
	}
	c.redraw = false

	data := c.renderBuf.String()
	for len(data) > 0 {
		chunk := data
		if len(chunk) > maxChunkSize {
			chunk = data[:maxChunkSize]
		}
		io.WriteString(w, chunk)
		data = data[len(chunk):]
	}
}

func (c *Canvas) writeCell(row, col int, cl cell) {
	b := &c.renderBuf
	b.WriteString("\033[")
	b.Write(strconv.AppendInt(c.numBuf[:0], int64(row+1+c.offsetRow), 10))
	b.WriteByte(';')
	b.Write(strconv.AppendInt(c.numBuf[:0], int64(col+1+c.offsetCol), 10))
	b.WriteByte('H')

	switch {
	case cl.topLit && cl.bottomLit:
		c.writeColor(38, cl.top)
		c.writeColor(48, cl.bottom)
		b.WriteRune(BlockUpperHalf)
	case cl.topLit:
		c.writeColor(38, cl.top)
		b.WriteString("\033[49m")
		b.WriteRune(BlockUpperHalf)
	case cl.bottomLit:
		c.writeColor(38, cl.bottom)
		b.WriteString("\033[49m")
		b.WriteRune(BlockLowerHalf)
	default:
		b.WriteString("\033[0m ")
	}
}

func (c *Canvas) writeColor(layer int, col color.RGBA) {
	b := &c.renderBuf
	b.WriteString("\033[")
	b.Write(strconv.AppendInt(c.numBuf[:0], int64(layer), 10))
	b.WriteString(";2;")
	b.Write(strconv.AppendInt(c.numBuf[:0], int64(col.R), 10))
	b.WriteByte(';')
	b.Write(strconv.AppendInt(c.numBuf[:0], int64(col.G), 10))
	b.WriteByte(';')
	b.Write(strconv.AppendInt(c.numBuf[:0], int64(col.B), 10))
	b.WriteByte('m')
}

// PixelAt returns the color of a terminal sub-pixel and whether it was drawn
// this frame.
func (c *Canvas) PixelAt(x, y int) (color.RGBA, bool) {
	if x < 0 || x >= c.termWidth || y < 0 || y >= c.subPixelHeight {
		return color.RGBA{}, false
	}
	i := y*c.termWidth + x
	return c.pixels[i], c.lit[i]
}

// LitCount returns the number of sub-pixels drawn this frame.
func (c *Canvas) LitCount() int {
	n := 0
	for _, l := range c.lit {
		if l {
			n++
		}
	}
	return n
}

// LogicalWidth returns the logical width (target resolution).
func (c *Canvas) LogicalWidth() float64 {
	return c.logicalWidth
}

// LogicalHeight returns the logical height (target resolution, in sub-pixels).
func (c *Canvas) LogicalHeight() float64 {
	return c.logicalHeight
}

// TerminalWidth returns the actual terminal column count.
func (c *Canvas) TerminalWidth() int {
	return c.termWidth
}

// TerminalHeight returns the actual terminal row count.
func (c *Canvas) TerminalHeight() int {
	return c.termHeight
}

var _ Surface = (*Canvas)(nil)
