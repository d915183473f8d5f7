package kdtree

import (
	"testing"

	"github.com/achilleasa/kdtrace/types"
)

func TestEventOrdering(t *testing.T) {
	events := []event{
		{pos: 1, axis: 1, typ: startEvent},
		{pos: 2, axis: 0, typ: endEvent},
		{pos: 1, axis: 0, typ: startEvent},
		{pos: 1, axis: 0, typ: flatEvent},
		{pos: 1, axis: 0, typ: endEvent},
		{pos: -1, axis: 2, typ: flatEvent},
	}
	sortEvents(events)

	exp := []event{
		{pos: 1, axis: 0, typ: endEvent},
		{pos: 1, axis: 0, typ: flatEvent},
		{pos: 1, axis: 0, typ: startEvent},
		{pos: 2, axis: 0, typ: endEvent},
		{pos: 1, axis: 1, typ: startEvent},
		{pos: -1, axis: 2, typ: flatEvent},
	}
	for i := range exp {
		if events[i] != exp[i] {
			t.Fatalf("[event %d] expected %+v; got %+v", i, exp[i], events[i])
		}
	}
}

func TestAppendEvents(t *testing.T) {
	box := types.BBox{Min: types.Vec3{0, 1, 2}, Max: types.Vec3{1, 1, 3}}
	events := appendEvents(nil, 4, box, types.Epsilon)

	exp := []event{
		{pos: 0, prim: 4, axis: 0, typ: startEvent},
		{pos: 1, prim: 4, axis: 0, typ: endEvent},
		{pos: 1, prim: 4, axis: 1, typ: flatEvent},
		{pos: 2, prim: 4, axis: 2, typ: startEvent},
		{pos: 3, prim: 4, axis: 2, typ: endEvent},
	}
	if len(events) != len(exp) {
		t.Fatalf("expected %d events; got %d", len(exp), len(events))
	}
	for i := range exp {
		if events[i] != exp[i] {
			t.Fatalf("[event %d] expected %+v; got %+v", i, exp[i], events[i])
		}
	}
}

func TestMergeEvents(t *testing.T) {
	a := []event{
		{pos: 0, prim: 0, typ: startEvent},
		{pos: 2, prim: 0, typ: endEvent},
	}
	b := []event{
		{pos: 1, prim: 1, typ: startEvent},
		{pos: 2, prim: 1, typ: endEvent},
		{pos: 3, prim: 1, typ: endEvent},
	}

	merged := mergeEvents(nil, a, b)
	expPrims := []int32{0, 1, 0, 1, 1}
	if len(merged) != len(expPrims) {
		t.Fatalf("expected %d merged events; got %d", len(expPrims), len(merged))
	}
	for i, exp := range expPrims {
		if merged[i].prim != exp {
			t.Fatalf("[event %d] expected event for primitive %d; got %d", i, exp, merged[i].prim)
		}
	}
}
