package physics

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// SpatialGrid is a uniform grid for broad-phase collision detection over a
// bounded area. Items are inserted by position and index, then nearby items
// are found through a 3x3 neighborhood lookup.
//
// Cell size must be >= the maximum interaction distance between any two
// colliding items so that every candidate lies in the neighborhood.
type SpatialGrid struct {
	invCellSize float64
	cols        int
	rows        int
	cells       [][]int // Item indices per cell, reused between frames
}

// NewSpatialGrid creates a grid covering width x height.
func NewSpatialGrid(width, height, cellSize float64) *SpatialGrid {
	cols := max(int(math.Ceil(width/cellSize)), 1)
	rows := max(int(math.Ceil(height/cellSize)), 1)
	return &SpatialGrid{
		invCellSize: 1 / cellSize,
		cols:        cols,
		rows:        rows,
		cells:       make([][]int, cols*rows),
	}
}

// Clear empties every cell without releasing memory.
func (g *SpatialGrid) Clear() {
	for i := range g.cells {
		g.cells[i] = g.cells[i][:0]
	}
}

// Insert adds item index at pos. Positions outside the area land in the
// nearest edge cell.
func (g *SpatialGrid) Insert(pos mgl64.Vec2, index int) {
	col, row := g.cell(pos)
	i := row*g.cols + col
	g.cells[i] = append(g.cells[i], index)
}

// QueryAround calls fn for each item in the 3x3 neighborhood of pos until
// fn returns true.
func (g *SpatialGrid) QueryAround(pos mgl64.Vec2, fn func(index int) bool) {
	col, row := g.cell(pos)
	for r := max(row-1, 0); r <= min(row+1, g.rows-1); r++ {
		for c := max(col-1, 0); c <= min(col+1, g.cols-1); c++ {
			for _, item := range g.cells[r*g.cols+c] {
				if fn(item) {
					return
				}
			}
		}
	}
}

func (g *SpatialGrid) cell(pos mgl64.Vec2) (col, row int) {
	col = min(max(int(math.Floor(pos.X()*g.invCellSize)), 0), g.cols-1)
	row = min(max(int(math.Floor(pos.Y()*g.invCellSize)), 0), g.rows-1)
	return col, row
}
