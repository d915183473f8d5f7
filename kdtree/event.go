package kdtree

import (
	"cmp"
	"slices"

	"github.com/achilleasa/kdtrace/types"
)

type eventType uint8

// The ordering of the event types matters: at equal positions ends are
// processed before planar events which are processed before starts.
const (
	endEvent eventType = iota
	flatEvent
	startEvent
)

// An event marks the position where a primitive's box starts, ends or lies
// flat along a candidate split axis.
type event struct {
	pos  float32
	prim int32
	axis uint8
	typ  eventType
}

func compareEvents(a, b event) int {
	if a.axis != b.axis {
		return cmp.Compare(a.axis, b.axis)
	}
	if a.pos != b.pos {
		return cmp.Compare(a.pos, b.pos)
	}
	return cmp.Compare(a.typ, b.typ)
}

// Append the events generated by a primitive whose box has been clipped to
// the volume of the node being built. Extents <= eps produce a single flat
// event; everything else produces a start and an end event.
func appendEvents(events []event, prim int32, box types.BBox, eps float32) []event {
	for axis := uint8(0); axis < 3; axis++ {
		lo, hi := box.Min[axis], box.Max[axis]
		if hi-lo <= eps {
			events = append(events, event{pos: lo, prim: prim, axis: axis, typ: flatEvent})
			continue
		}
		events = append(events,
			event{pos: lo, prim: prim, axis: axis, typ: startEvent},
			event{pos: hi, prim: prim, axis: axis, typ: endEvent},
		)
	}
	return events
}

func sortEvents(events []event) {
	slices.SortFunc(events, compareEvents)
}

// Merge two sorted event lists into dst. On ties the event from a is
// emitted first.
func mergeEvents(dst, a, b []event) []event {
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		if compareEvents(b[j], a[i]) < 0 {
			dst = append(dst, b[j])
			j++
			continue
		}
		dst = append(dst, a[i])
		i++
	}
	dst = append(dst, a[i:]...)
	return append(dst, b[j:]...)
}
