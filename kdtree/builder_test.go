package kdtree

import (
	"math/rand"
	"testing"

	"github.com/achilleasa/kdtrace/types"
	"github.com/chewxy/math32"
)

func boxAccessor(boxes []types.BBox, cost float32) AccessorFuncs {
	return AccessorFuncs{
		BBoxFn: func(prim uint32) types.BBox { return boxes[prim] },
		CostFn: func(uint32) float32 { return cost },
	}
}

func unitBox(x float32) types.BBox {
	return types.BBox{Min: types.Vec3{x, 0, 0}, Max: types.Vec3{x + 1, 1, 1}}
}

func TestNilAccessorPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected NewBuilder to panic with a nil accessor")
		}
	}()
	NewBuilder(nil, DefaultOptions())
}

func TestBuildEmpty(t *testing.T) {
	b := NewBuilder(boxAccessor(nil, 1), DefaultOptions())
	b.Build(0)

	if !b.IsEmpty() {
		t.Fatal("expected tree to be empty")
	}
	if stats := b.Stats(); stats.Nodes != 0 || stats.Leaves != 0 {
		t.Fatalf("expected no nodes; got %d nodes and %d leaves", stats.Nodes, stats.Leaves)
	}
}

func TestBuildSinglePrimitive(t *testing.T) {
	box := unitBox(5)
	var added [][2]uint32
	opts := DefaultOptions()
	opts.OnAdded = func(prim, leaf uint32) { added = append(added, [2]uint32{prim, leaf}) }

	b := NewBuilder(boxAccessor([]types.BBox{box}, 1), opts)
	b.Build(1)

	if b.IsEmpty() {
		t.Fatal("expected tree not to be empty")
	}
	if b.BBox() != box {
		t.Fatalf("expected root bbox %v; got %v", box, b.BBox())
	}

	stats := b.Stats()
	if stats.Depth != 1 || stats.Leaves != 1 || stats.Nodes != 1 {
		t.Fatalf("expected a single leaf with depth 1; got depth %d with %d leaves", stats.Depth, stats.Leaves)
	}

	leaf, ok := b.nodes[b.root].(*leafNode)
	if !ok {
		t.Fatal("expected root to be a leaf")
	}
	if len(leaf.primitives) != 1 || leaf.primitives[0] != 0 {
		t.Fatalf("expected leaf to contain primitive 0; got %v", leaf.primitives)
	}
	if len(added) != 1 || added[0] != [2]uint32{0, 0} {
		t.Fatalf("expected added callback for primitive 0 in leaf 0; got %v", added)
	}
}

func TestSplitBetweenSeparatedBoxes(t *testing.T) {
	boxes := []types.BBox{unitBox(0), unitBox(3)}
	var added [][2]uint32
	opts := DefaultOptions()
	opts.OnAdded = func(prim, leaf uint32) { added = append(added, [2]uint32{prim, leaf}) }

	b := NewBuilder(boxAccessor(boxes, 4), opts)
	b.Build(len(boxes))

	root, ok := b.nodes[b.root].(*innerNode)
	if !ok {
		t.Fatal("expected root to be an inner node")
	}
	if root.axis != 0 {
		t.Fatalf("expected split along the X axis; got axis %d", root.axis)
	}
	if root.split < 1 || root.split > 3 {
		t.Fatalf("expected split position between the boxes; got %f", root.split)
	}

	for side, child := range []nodeID{root.left, root.right} {
		leaf, ok := b.nodes[child].(*leafNode)
		if !ok {
			t.Fatalf("[child %d] expected a leaf", side)
		}
		if len(leaf.primitives) != 1 || leaf.primitives[0] != uint32(side) {
			t.Fatalf("[child %d] expected leaf with primitive %d; got %v", side, side, leaf.primitives)
		}
	}

	stats := b.Stats()
	if stats.Nodes != 3 || stats.Leaves != 2 || stats.InnerNodes != 1 || stats.Depth != 2 {
		t.Fatalf("expected 3 nodes, 2 leaves, 1 inner node and depth 2; got %+v", stats)
	}
	if stats.ExpectedTraversals != 1 {
		t.Fatalf("expected root to contribute a single traversal step; got %f", stats.ExpectedTraversals)
	}
	if exp := float32(20.0 / 18.0); math32.Abs(stats.ExpectedLeaves-exp) > 1e-5 {
		t.Fatalf("expected leaf visits %f; got %f", exp, stats.ExpectedLeaves)
	}

	// Leaves get post-order ids.
	expAdded := [][2]uint32{{0, 0}, {1, 1}}
	if len(added) != len(expAdded) {
		t.Fatalf("expected %d added callbacks; got %d", len(expAdded), len(added))
	}
	for i := range expAdded {
		if added[i] != expAdded[i] {
			t.Fatalf("[callback %d] expected %v; got %v", i, expAdded[i], added[i])
		}
	}
}

func TestIdenticalBoxesProduceSingleLeaf(t *testing.T) {
	boxes := make([]types.BBox, 10)
	for i := range boxes {
		boxes[i] = unitBox(0)
	}

	b := NewBuilder(boxAccessor(boxes, 4), DefaultOptions())
	b.Build(len(boxes))

	leaf, ok := b.nodes[b.root].(*leafNode)
	if !ok {
		t.Fatal("expected root to be a leaf")
	}
	if len(leaf.primitives) != len(boxes) {
		t.Fatalf("expected leaf to contain %d primitives; got %d", len(boxes), len(leaf.primitives))
	}
	for i, prim := range leaf.primitives {
		if prim != uint32(i) {
			t.Fatalf("expected leaf primitives to keep their order; got %v", leaf.primitives)
		}
	}
}

func TestPlanarInputInflatesRoot(t *testing.T) {
	boxes := []types.BBox{
		{Min: types.Vec3{0, 0, 0}, Max: types.Vec3{1, 1, 0}},
		{Min: types.Vec3{4, 0, 0}, Max: types.Vec3{5, 1, 0}},
	}
	opts := DefaultOptions()
	b := NewBuilder(boxAccessor(boxes, 4), opts)
	b.Build(len(boxes))

	if edge := b.BBox().Edge(2); edge != 2*opts.Epsilon {
		t.Fatalf("expected planar axis to be inflated to %g; got %g", 2*opts.Epsilon, edge)
	}
	if b.Stats().Leaves != 2 {
		t.Fatalf("expected 2 leaves; got %d", b.Stats().Leaves)
	}
}

func TestCostQueries(t *testing.T) {
	boxes := []types.BBox{unitBox(0), unitBox(3), unitBox(6)}

	type spec struct {
		elementWise bool
		expUniform  bool
	}
	specs := []spec{
		{false, true},
		{true, false},
	}

	for idx, s := range specs {
		var uniformCalls, elementCalls int
		accessor := AccessorFuncs{
			BBoxFn: func(prim uint32) types.BBox { return boxes[prim] },
			CostFn: func(prim uint32) float32 {
				if prim == UniformCost {
					uniformCalls++
				} else {
					elementCalls++
				}
				return 4
			},
		}

		opts := DefaultOptions()
		opts.ElementWise = s.elementWise
		NewBuilder(accessor, opts).Build(len(boxes))

		if s.expUniform && (uniformCalls != 1 || elementCalls != 0) {
			t.Fatalf("[spec %d] expected a single uniform cost query; got %d uniform and %d element queries", idx, uniformCalls, elementCalls)
		}
		if !s.expUniform && (uniformCalls != 0 || elementCalls == 0) {
			t.Fatalf("[spec %d] expected only element cost queries; got %d uniform and %d element queries", idx, uniformCalls, elementCalls)
		}
	}
}

func TestClassify(t *testing.T) {
	type spec struct {
		box     types.BBox
		side    planeSide
		expSide planeSide
	}
	flat := types.BBox{Min: types.Vec3{1, 0, 0}, Max: types.Vec3{1, 1, 1}}
	specs := []spec{
		{unitBox(0), sideLeft, sideLeft},
		{unitBox(1), sideLeft, sideRight},
		{types.BBox{Min: types.Vec3{0.5, 0, 0}, Max: types.Vec3{1.5, 1, 1}}, sideLeft, sideBoth},
		{flat, sideLeft, sideLeft},
		{flat, sideRight, sideRight},
		{types.BBox{Min: types.Vec3{0.5, 0, 0}, Max: types.Vec3{0.5, 1, 1}}, sideRight, sideLeft},
		{types.BBox{Min: types.Vec3{1.5, 0, 0}, Max: types.Vec3{1.5, 1, 1}}, sideLeft, sideRight},
	}

	for idx, s := range specs {
		b := NewBuilder(boxAccessor([]types.BBox{s.box}, 1), DefaultOptions())
		b.prims = []primitive{{index: 0, box: s.box}}
		events := appendEvents(nil, 0, s.box, b.opts.Epsilon)
		sortEvents(events)

		b.classify(events, []int32{0}, splitPlane{axis: 0, pos: 1, side: s.side})
		if got := b.prims[0].side; got != s.expSide {
			t.Fatalf("[spec %d] expected side %d; got %d", idx, s.expSide, got)
		}
	}
}

func TestCleanupCollapsesMissingChildren(t *testing.T) {
	b := NewBuilder(boxAccessor(nil, 1), DefaultOptions())
	b.nodes = []buildNode{
		&innerNode{left: nilNode, right: 1},
		&innerNode{left: 2, right: 3},
		&innerNode{left: 4, right: nilNode},
		&leafNode{primitives: []uint32{1}},
		&leafNode{primitives: []uint32{0}},
	}
	b.root = 0
	b.cleanup()

	if b.root != 1 {
		t.Fatalf("expected node 1 to become the root; got %d", b.root)
	}
	inner := b.nodes[1].(*innerNode)
	if inner.left != 4 || inner.right != 3 {
		t.Fatalf("expected children [4, 3]; got [%d, %d]", inner.left, inner.right)
	}
}

func TestEveryPrimitiveReachesALeaf(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	boxes := make([]types.BBox, 500)
	for i := range boxes {
		p := types.Vec3{rng.Float32() * 100, rng.Float32() * 100, rng.Float32() * 100}
		ext := types.Vec3{rng.Float32() * 5, rng.Float32() * 5, rng.Float32() * 5}
		boxes[i] = types.BBox{Min: p, Max: p.Add(ext)}
	}

	seen := make([]int, len(boxes))
	leaves := make(map[uint32]struct{})
	opts := DefaultOptions()
	opts.OnAdded = func(prim, leaf uint32) {
		seen[prim]++
		leaves[leaf] = struct{}{}
	}

	b := NewBuilder(boxAccessor(boxes, 4), opts)
	b.Build(len(boxes))

	for prim, count := range seen {
		if count == 0 {
			t.Fatalf("expected primitive %d to be stored in at least one leaf", prim)
		}
	}

	stats := b.Stats()
	if len(leaves) != stats.Leaves {
		t.Fatalf("expected %d distinct leaf ids; got %d", stats.Leaves, len(leaves))
	}
	// The root is built at depth 0 and counted as level 1.
	if stats.Depth > stats.MaxDepth+2 {
		t.Fatalf("expected depth to stay within %d; got %d", stats.MaxDepth+2, stats.Depth)
	}
	if stats.Nodes != stats.Leaves+stats.InnerNodes || stats.Leaves != stats.InnerNodes+1 {
		t.Fatalf("expected a full binary tree; got %d leaves and %d inner nodes", stats.Leaves, stats.InnerNodes)
	}
}
