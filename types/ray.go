package types

import "github.com/chewxy/math32"

// Ray is a half line Origin + t*Dir restricted to t in [MinT, MaxT].
type Ray struct {
	Origin Vec3
	Dir    Vec3

	MinT float32
	MaxT float32
}

// NewRay creates a ray with an unbounded valid range starting at the origin.
func NewRay(origin, dir Vec3) Ray {
	return Ray{
		Origin: origin,
		Dir:    dir,
		MinT:   0,
		MaxT:   math32.Inf(1),
	}
}

// At returns the point at parameter t.
func (r Ray) At(t float32) Vec3 {
	return r.Origin.Add(r.Dir.Mul(t))
}

// InRange returns true if t lies inside the ray's valid range.
func (r Ray) InRange(t float32) bool {
	return t >= r.MinT && t <= r.MaxT
}
