package types

import "github.com/chewxy/math32"

// BBox is an axis aligned bounding box. A valid box satisfies
// Min[axis] <= Max[axis] for every axis.
type BBox struct {
	Min Vec3
	Max Vec3
}

// EmptyBBox returns an inverted box that acts as the identity for Combine.
func EmptyBBox() BBox {
	inf := math32.Inf(1)
	return BBox{
		Min: Vec3{inf, inf, inf},
		Max: Vec3{-inf, -inf, -inf},
	}
}

// NewBBox creates a box spanning two arbitrary corner points.
func NewBBox(p1, p2 Vec3) BBox {
	return BBox{
		Min: MinVec3(p1, p2),
		Max: MaxVec3(p1, p2),
	}
}

// BBoxFromPoints returns the tightest box enclosing all points.
func BBoxFromPoints(points ...Vec3) BBox {
	box := EmptyBBox()
	for _, p := range points {
		box = box.CombinePoint(p)
	}
	return box
}

// IsValid returns true if the lower corner does not exceed the upper corner.
func (b BBox) IsValid() bool {
	return b.Min[0] <= b.Max[0] && b.Min[1] <= b.Max[1] && b.Min[2] <= b.Max[2]
}

// Edge returns the box extent along an axis.
func (b BBox) Edge(axis int) float32 {
	return b.Max[axis] - b.Min[axis]
}

// SurfaceArea returns the total area of the six box faces.
func (b BBox) SurfaceArea() float32 {
	w, h, d := b.Edge(0), b.Edge(1), b.Edge(2)
	return 2 * (w*h + w*d + h*d)
}

// Volume returns the box volume.
func (b BBox) Volume() float32 {
	return b.Edge(0) * b.Edge(1) * b.Edge(2)
}

// IsPlanar returns true if the box extent along any axis is <= eps.
func (b BBox) IsPlanar(eps float32) bool {
	return b.Edge(0) <= eps || b.Edge(1) <= eps || b.Edge(2) <= eps
}

// Combine returns the union of two boxes.
func (b BBox) Combine(other BBox) BBox {
	return BBox{
		Min: MinVec3(b.Min, other.Min),
		Max: MaxVec3(b.Max, other.Max),
	}
}

// CombinePoint grows the box so that it contains p.
func (b BBox) CombinePoint(p Vec3) BBox {
	return BBox{
		Min: MinVec3(b.Min, p),
		Max: MaxVec3(b.Max, p),
	}
}

// ClipBy restricts the box to the volume of other. Both corners are clamped
// into other so the result stays valid even when the boxes are disjoint.
func (b BBox) ClipBy(other BBox) BBox {
	return BBox{
		Min: MinVec3(MaxVec3(b.Min, other.Min), other.Max),
		Max: MinVec3(MaxVec3(b.Max, other.Min), other.Max),
	}
}

// Split cuts the box with the plane axis = pos.
func (b BBox) Split(axis int, pos float32) (left, right BBox) {
	left, right = b, b
	left.Max[axis] = pos
	right.Min[axis] = pos
	return left, right
}

// Inflate grows every axis whose extent is <= eps by eps in both directions.
func (b BBox) Inflate(eps float32) BBox {
	for axis := 0; axis < 3; axis++ {
		if b.Edge(axis) <= eps {
			b.Min[axis] -= eps
			b.Max[axis] += eps
		}
	}
	return b
}

// Contains returns true if p lies inside or on the boundary of the box.
func (b BBox) Contains(p Vec3) bool {
	for axis := 0; axis < 3; axis++ {
		if p[axis] < b.Min[axis] || p[axis] > b.Max[axis] {
			return false
		}
	}
	return true
}

// IntersectRange clips the ray against the box slabs and returns the
// parametric interval [entry, exit] that lies inside the box, already
// restricted to the ray's valid range. ok is false if the box is missed.
//
// Axes along which the ray is parallel are handled explicitly so that rays
// starting on a slab boundary never produce NaN intervals.
func (b BBox) IntersectRange(r Ray) (entry, exit float32, ok bool) {
	entry, exit = r.MinT, r.MaxT
	for axis := 0; axis < 3; axis++ {
		d := r.Dir[axis]
		o := r.Origin[axis]
		if d == 0 {
			if o < b.Min[axis] || o > b.Max[axis] {
				return 0, 0, false
			}
			continue
		}

		inv := 1.0 / d
		t0 := (b.Min[axis] - o) * inv
		t1 := (b.Max[axis] - o) * inv
		if t0 > t1 {
			t0, t1 = t1, t0
		}
		entry = math32.Max(entry, t0)
		exit = math32.Min(exit, t1)
		if entry > exit {
			return 0, 0, false
		}
	}
	return entry, exit, true
}
