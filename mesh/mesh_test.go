package mesh

import (
	"testing"

	"github.com/achilleasa/kdtrace/kdtree"
	"github.com/achilleasa/kdtrace/types"
)

func TestNewValidatesIndices(t *testing.T) {
	verts := []types.Vec3{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}}

	if _, err := New("bad", verts, []uint32{0, 1}); err == nil {
		t.Fatal("expected an error for a partial triangle")
	}
	if _, err := New("bad", verts, []uint32{0, 1, 3}); err == nil {
		t.Fatal("expected an error for an out of range index")
	}

	m, err := New("tri", verts, []uint32{0, 1, 2})
	if err != nil {
		t.Fatal(err)
	}
	if m.Len() != 1 {
		t.Fatalf("expected 1 triangle; got %d", m.Len())
	}

	expBox := types.BBox{Min: types.Vec3{0, 0, 0}, Max: types.Vec3{1, 1, 0}}
	if box := m.BBox(0); box != expBox {
		t.Fatalf("expected triangle bbox %v; got %v", expBox, box)
	}
	if box := m.Bounds(); box != expBox {
		t.Fatalf("expected mesh bounds %v; got %v", expBox, box)
	}
	if cost := m.Cost(kdtree.UniformCost); cost != IntersectionCost {
		t.Fatalf("expected uniform cost %f; got %f", IntersectionCost, cost)
	}
}

func TestIntersectTriangle(t *testing.T) {
	v0, v1, v2 := types.Vec3{0, 0, 0}, types.Vec3{1, 0, 0}, types.Vec3{0, 1, 0}

	type spec struct {
		origin types.Vec3
		dir    types.Vec3
		expHit bool
		expT   float32
	}
	specs := []spec{
		{types.Vec3{0.25, 0.25, 1}, types.Vec3{0, 0, -1}, true, 1},
		{types.Vec3{0.25, 0.25, -2}, types.Vec3{0, 0, 1}, true, 2},
		// Edges and vertices are inclusive.
		{types.Vec3{0.5, 0, 1}, types.Vec3{0, 0, -1}, true, 1},
		{types.Vec3{0.5, 0.5, 1}, types.Vec3{0, 0, -1}, true, 1},
		{types.Vec3{0, 0, 1}, types.Vec3{0, 0, -1}, true, 1},
		// Misses.
		{types.Vec3{0.75, 0.75, 1}, types.Vec3{0, 0, -1}, false, 0},
		{types.Vec3{-0.1, 0.5, 1}, types.Vec3{0, 0, -1}, false, 0},
		// Triangle behind the origin.
		{types.Vec3{0.25, 0.25, 1}, types.Vec3{0, 0, 1}, false, 0},
		// Parallel to the triangle plane.
		{types.Vec3{0.25, 0.25, 0}, types.Vec3{1, 0, 0}, false, 0},
	}

	for idx, s := range specs {
		tHit, _, _, ok := IntersectTriangle(types.NewRay(s.origin, s.dir), v0, v1, v2)
		if ok != s.expHit {
			t.Fatalf("[spec %d] expected hit to be %t", idx, s.expHit)
		}
		if ok && tHit != s.expT {
			t.Fatalf("[spec %d] expected t = %f; got %f", idx, s.expT, tHit)
		}
	}
}

func TestIntersectFillsHit(t *testing.T) {
	m := &Mesh{
		Vertices: []types.Vec3{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}},
		Indices:  []uint32{0, 1, 2},
	}

	var hit kdtree.Hit
	if !m.Intersect(types.NewRay(types.Vec3{0.25, 0.5, 3}, types.Vec3{0, 0, -1}), 0, &hit) {
		t.Fatal("expected ray to hit the triangle")
	}
	if hit.Distance != 3 || hit.U != 0.25 || hit.V != 0.5 {
		t.Fatalf("expected hit (t: 3, u: 0.25, v: 0.5); got %+v", hit)
	}
}

func TestCompile(t *testing.T) {
	m := &Mesh{
		Vertices: []types.Vec3{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}, {5, 0, 0}, {6, 0, 0}, {5, 1, 0}},
		Indices:  []uint32{0, 1, 2, 3, 4, 5},
	}

	c, stats, err := m.Compile(kdtree.DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	if stats.Primitives != 2 {
		t.Fatalf("expected stats for 2 primitives; got %d", stats.Primitives)
	}
	if c.IsEmpty() {
		t.Fatal("expected a non-empty collider")
	}

	hit, found, err := c.ClosestHit(types.NewRay(types.Vec3{5.25, 0.25, 1}, types.Vec3{0, 0, -1}), m.Intersect)
	if err != nil || !found || hit.Primitive != 1 {
		t.Fatalf("expected to hit triangle 1; got %t, %d, %v", found, hit.Primitive, err)
	}
}
