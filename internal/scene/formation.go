package scene

import (
	"image/color"
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/tomz197/invaders-fx/internal/config"
	"github.com/tomz197/invaders-fx/internal/draw"
	"github.com/tomz197/invaders-fx/internal/physics"
)

var rowColors = []color.RGBA{
	{R: 239, G: 71, B: 111, A: 255},
	{R: 255, G: 209, B: 102, A: 255},
	{R: 6, G: 214, B: 160, A: 255},
	{R: 17, G: 138, B: 178, A: 255},
}

// Invader is one member of the formation. Home is its position relative to
// the formation origin.
type Invader struct {
	Home  mgl64.Vec2
	Alive bool
	Color color.RGBA
}

// Formation is a grid of invaders marching side to side and stepping down
// at each edge.
type Formation struct {
	Invaders   []Invader
	offset     mgl64.Vec2
	prevOffset mgl64.Vec2
	dir        float64
	alive      int
	width      float64
}

func newFormation(rows, cols int, width float64) *Formation {
	f := &Formation{
		Invaders: make([]Invader, 0, rows*cols),
		dir:      1,
		width:    width,
	}
	span := float64(cols-1) * config.InvaderSpacingX
	left := (width - span) / 2
	for r := range rows {
		for c := range cols {
			f.Invaders = append(f.Invaders, Invader{
				Home:  mgl64.Vec2{left + float64(c)*config.InvaderSpacingX, config.InvaderTop + float64(r)*config.InvaderSpacingY},
				Alive: true,
				Color: rowColors[r%len(rowColors)],
			})
		}
	}
	f.alive = len(f.Invaders)
	return f
}

// Pos returns the current position of invader i.
func (f *Formation) Pos(i int) mgl64.Vec2 {
	return f.Invaders[i].Home.Add(f.offset)
}

// Alive returns the number of invaders left.
func (f *Formation) Alive() int {
	return f.alive
}

// Kill removes invader i and reports whether it was alive.
func (f *Formation) Kill(i int) bool {
	if !f.Invaders[i].Alive {
		return false
	}
	f.Invaders[i].Alive = false
	f.alive--
	return true
}

// Bottom returns the lowest y of any live invader.
func (f *Formation) Bottom() float64 {
	bottom := 0.0
	for i, inv := range f.Invaders {
		if inv.Alive {
			bottom = max(bottom, f.Pos(i).Y()+config.InvaderRadius)
		}
	}
	return bottom
}

func (f *Formation) update(dt time.Duration) {
	f.prevOffset = f.offset
	if f.alive == 0 {
		return
	}
	f.offset[0] += f.dir * config.InvaderSpeed * dt.Seconds()

	lo, hi := f.width, 0.0
	for i, inv := range f.Invaders {
		if inv.Alive {
			x := f.Pos(i).X()
			lo, hi = min(lo, x), max(hi, x)
		}
	}
	margin := config.InvaderRadius + 1
	switch {
	case hi > f.width-margin && f.dir > 0:
		f.offset[0] -= hi - (f.width - margin)
		f.dir = -1
		f.offset[1] += config.InvaderDrop
	case lo < margin && f.dir < 0:
		f.offset[0] += margin - lo
		f.dir = 1
		f.offset[1] += config.InvaderDrop
	}
}

func (f *Formation) draw(r draw.Renderer, alpha float64) error {
	off := physics.Lerp(f.prevOffset, f.offset, alpha)
	for _, inv := range f.Invaders {
		if !inv.Alive {
			continue
		}
		at := inv.Home.Add(off)
		if err := r.DrawFilledCircle(at.X(), at.Y(), config.InvaderRadius, inv.Color, 1); err != nil {
			return err
		}
		// Eyes
		for _, dx := range []float64{-1, 1} {
			if err := r.DrawFilledCircle(at.X()+dx, at.Y()-0.5, 0.4, color.RGBA{A: 255}, 1); err != nil {
				return err
			}
		}
	}
	return nil
}
