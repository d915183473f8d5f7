package kdtree

import (
	"github.com/achilleasa/kdtrace/types"
	"github.com/chewxy/math32"
)

type planeSide uint8

const (
	sideBoth planeSide = iota
	sideLeft
	sideRight
)

// A split plane candidate and the side that primitives lying on the plane
// are assigned to.
type splitPlane struct {
	axis   uint8
	pos    float32
	side   planeSide
	cost   float32
	vl, vr types.BBox
}

// Cost of a split given the child hit probabilities and primitive counts.
func (b *Builder) splitCost(pl, pr float32, nl, nr int, isectCost float32) float32 {
	cost := b.opts.TraversalCost + isectCost*(pl*float32(nl)+pr*float32(nr))
	if nl == 0 || nr == 0 {
		cost *= b.opts.EmptySideDiscount
	}
	return cost
}

// Evaluate the surface area heuristic for a plane and pick the cheaper
// placement for the primitives that lie on it.
func (b *Builder) sah(volume types.BBox, axis uint8, pos float32, nl, nr, np int, isectCost float32) splitPlane {
	eps := b.opts.Epsilon
	plane := splitPlane{axis: axis, pos: pos, cost: math32.Inf(1)}
	plane.vl, plane.vr = volume.Split(int(axis), pos)

	// Splits that produce a degenerate child are never useful.
	if plane.vl.Edge(int(axis)) <= eps || plane.vr.Edge(int(axis)) <= eps {
		return plane
	}

	invSA := 1.0 / volume.SurfaceArea()
	pl := plane.vl.SurfaceArea() * invSA
	pr := plane.vr.SurfaceArea() * invSA

	costLeft := b.splitCost(pl, pr, nl+np, nr, isectCost)
	costRight := b.splitCost(pl, pr, nl, nr+np, isectCost)
	if costLeft < costRight {
		plane.cost, plane.side = costLeft, sideLeft
	} else {
		plane.cost, plane.side = costRight, sideRight
	}
	return plane
}

// Sweep the sorted event list of a node and return the cheapest split plane.
// The first candidate wins when two planes have the same cost. If no plane
// can be evaluated the returned cost is +Inf.
func (b *Builder) findSplit(events []event, primCount int, volume types.BBox, isectCost float32) splitPlane {
	eps := b.opts.Epsilon
	best := splitPlane{cost: math32.Inf(1)}

	var nl, np [3]int
	nr := [3]int{primCount, primCount, primCount}

	for i := 0; i < len(events); {
		axis, pos := events[i].axis, events[i].pos

		var ends, flats, starts int
		for ; i < len(events) && coincident(events[i], axis, pos, eps) && events[i].typ == endEvent; i++ {
			ends++
		}
		for ; i < len(events) && coincident(events[i], axis, pos, eps) && events[i].typ == flatEvent; i++ {
			flats++
		}
		for ; i < len(events) && coincident(events[i], axis, pos, eps) && events[i].typ == startEvent; i++ {
			starts++
		}

		np[axis] = flats
		nr[axis] -= flats + ends

		if plane := b.sah(volume, axis, pos, nl[axis], nr[axis], np[axis], isectCost); plane.cost < best.cost {
			best = plane
		}

		nl[axis] += starts + flats
		np[axis] = 0
	}

	return best
}

func coincident(e event, axis uint8, pos, eps float32) bool {
	return e.axis == axis && math32.Abs(e.pos-pos) <= eps
}
