// Package physics provides collision tests and a broad-phase grid.
package physics

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// DistanceSquared returns the squared distance between a and b.
// Use this when comparing distances to avoid the sqrt cost.
func DistanceSquared(a, b mgl64.Vec2) float64 {
	d := b.Sub(a)
	return d.Dot(d)
}

// PointInCircle checks if p is within radius of center.
func PointInCircle(p, center mgl64.Vec2, radius float64) bool {
	return DistanceSquared(p, center) <= radius*radius
}

// CirclesOverlap checks if two circles overlap. Touching circles do not.
func CirclesOverlap(a mgl64.Vec2, ra float64, b mgl64.Vec2, rb float64) bool {
	minDist := ra + rb
	return DistanceSquared(a, b) < minDist*minDist
}

// Clamp limits v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

// Lerp interpolates between the previous and current position of a body.
func Lerp(prev, cur mgl64.Vec2, alpha float64) mgl64.Vec2 {
	return prev.Add(cur.Sub(prev).Mul(alpha))
}
