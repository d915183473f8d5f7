package kdtree

import (
	"math"

	"github.com/achilleasa/kdtrace/types"
)

// UniformCost is passed to PrimitiveAccessor.Cost when the builder runs in
// uniform cost mode and needs a single cost shared by all primitives.
const UniformCost uint32 = math.MaxUint32

// The PrimitiveAccessor interface is implemented by primitive collections
// that can be partitioned by the kd-tree builder.
type PrimitiveAccessor interface {
	// BBox returns the bounding box of a primitive.
	BBox(primitive uint32) types.BBox

	// Cost returns the cost of a ray intersection test against a primitive.
	// In uniform mode the builder calls it once with UniformCost.
	Cost(primitive uint32) float32
}

// AccessorFuncs adapts a pair of functions to the PrimitiveAccessor
// interface. A nil CostFn yields a cost of 1 for every primitive.
type AccessorFuncs struct {
	BBoxFn func(primitive uint32) types.BBox
	CostFn func(primitive uint32) float32
}

func (a AccessorFuncs) BBox(primitive uint32) types.BBox {
	return a.BBoxFn(primitive)
}

func (a AccessorFuncs) Cost(primitive uint32) float32 {
	if a.CostFn == nil {
		return 1
	}
	return a.CostFn(primitive)
}

// AddedFunc is invoked once for every primitive stored in a leaf, with the
// post-order id of that leaf.
type AddedFunc func(primitive uint32, leafID uint32)

// Options tune the kd-tree builder.
type Options struct {
	// Query the cost of each primitive and average it per node instead of
	// using a single uniform cost.
	ElementWise bool

	// Cost of traversing an inner node relative to intersection costs.
	TraversalCost float32

	// Factor applied to the SAH cost of splits that leave one side empty.
	EmptySideDiscount float32

	// Tolerance for planar boxes, coincident split positions and on-plane
	// tie breaking.
	Epsilon float32

	// Optional callback for building primitive to leaf lookup tables.
	OnAdded AddedFunc
}

// DefaultOptions returns the builder defaults.
func DefaultOptions() Options {
	return Options{
		TraversalCost:     1,
		EmptySideDiscount: 0.8,
		Epsilon:           types.Epsilon,
	}
}
