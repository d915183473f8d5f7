// Package kdtree builds, persists and traverses kd-trees over arbitrary
// primitives.
//
// Trees are constructed with the O(N log N) surface area heuristic builder by
// Wald and Havran. The builder only ever sees primitive bounding boxes and
// intersection costs through a PrimitiveAccessor. A finished tree is written
// to a compact binary stream and loaded into an immutable Collider which
// answers closest and any hit queries.
package kdtree

import (
	"fmt"
	"io"
	"time"

	"github.com/achilleasa/kdtrace/log"
	"github.com/achilleasa/kdtrace/types"
	"github.com/chewxy/math32"
)

type nodeID int32

// Marks a missing child. Splits that leave one side without primitives
// produce a missing child which is later removed by cleanup.
const nilNode nodeID = -1

type buildNode interface {
	isLeaf() bool
}

type leafNode struct {
	id         uint32
	primitives []uint32
}

type innerNode struct {
	id    uint32
	axis  uint8
	split float32

	left, right nodeID
}

func (*leafNode) isLeaf() bool  { return true }
func (*innerNode) isLeaf() bool { return false }

// Per build bookkeeping for a primitive.
type primitive struct {
	index uint32
	side  planeSide
	box   types.BBox
}

// Builder constructs kd-trees. A builder instance may be reused for multiple
// builds but is not safe for concurrent use.
type Builder struct {
	logger   log.Logger
	accessor PrimitiveAccessor
	opts     Options

	// Node arena; parents refer to their children by arena index.
	nodes []buildNode
	root  nodeID
	bbox  types.BBox

	// Working set; only valid while building.
	prims     []primitive
	isectCost float32
	maxDepth  int

	stats Stats
}

// NewBuilder creates a new kd-tree builder that queries primitive bounding
// boxes and costs through accessor. It panics if accessor is nil.
func NewBuilder(accessor PrimitiveAccessor, opts Options) *Builder {
	if accessor == nil {
		panic("kdtree: nil primitive accessor")
	}
	if opts.Epsilon <= 0 {
		opts.Epsilon = types.Epsilon
	}

	return &Builder{
		logger:   log.New("kdtree"),
		accessor: accessor,
		opts:     opts,
		root:     nilNode,
	}
}

// Build partitions primitives [0, count) into a new tree replacing any tree
// built previously.
func (b *Builder) Build(count int) {
	b.reset()
	start := time.Now()
	b.stats.Primitives = count

	switch count {
	case 0:
		b.logger.Notice("no primitives supplied; building empty tree")
	case 1:
		b.bbox = b.accessor.BBox(0)
		b.root = b.newLeaf([]int32{0})
	default:
		b.buildTree(count)
	}

	b.prims = nil
	b.cleanup()
	b.collectStats()
	b.stats.BuildTime = time.Since(start)

	b.logger.Infof(
		"kd-tree build time: %d ms, primitives: %d, depth: %d, nodes: %d, leafs: %d",
		b.stats.BuildTime.Nanoseconds()/1e6,
		b.stats.Primitives, b.stats.Depth, b.stats.Nodes, b.stats.Leaves,
	)
}

// IsEmpty returns true if the last build produced no nodes.
func (b *Builder) IsEmpty() bool {
	return b.root == nilNode
}

// BBox returns the bounding box of the tree root.
func (b *Builder) BBox() types.BBox {
	return b.bbox
}

// Stats returns statistics for the last build.
func (b *Builder) Stats() Stats {
	return b.stats
}

// Release drops the built tree. Builders are typically released right after
// the tree has been saved.
func (b *Builder) Release() {
	b.reset()
}

// Save writes the tree to w using the kd-tree stream format.
func (b *Builder) Save(w io.Writer) error {
	if err := writeTree(w, b); err != nil {
		return fmt.Errorf("kdtree: write tree: %w", err)
	}
	return nil
}

func (b *Builder) reset() {
	b.nodes = nil
	b.root = nilNode
	b.bbox = types.BBox{}
	b.prims = nil
	b.stats = Stats{}
}

func (b *Builder) buildTree(count int) {
	eps := b.opts.Epsilon
	b.maxDepth = int(math32.Ceil(8 + 4.5*math32.Log2(float32(count))))
	b.stats.MaxDepth = b.maxDepth

	b.prims = make([]primitive, count)
	volume := types.EmptyBBox()
	for i := range b.prims {
		b.prims[i] = primitive{index: uint32(i), box: b.accessor.BBox(uint32(i))}
		volume = volume.Combine(b.prims[i].box)
	}
	if volume.IsPlanar(eps) {
		volume = volume.Inflate(eps)
	}
	b.bbox = volume

	if b.opts.ElementWise {
		b.isectCost = 0
	} else {
		b.isectCost = b.accessor.Cost(UniformCost)
	}

	events := make([]event, 0, 6*count)
	nodePrims := make([]int32, count)
	for i := range b.prims {
		nodePrims[i] = int32(i)
		events = appendEvents(events, int32(i), b.prims[i].box.ClipBy(volume), eps)
	}
	sortEvents(events)

	b.root = b.buildNode(&events, &nodePrims, volume, 0)
}

// Recursively build the subtree for a node. The event and primitive lists
// are owned by the callee which releases them once the child lists have
// been generated.
func (b *Builder) buildNode(eventsRef *[]event, primsRef *[]int32, volume types.BBox, depth int) nodeID {
	events, nodePrims := *eventsRef, *primsRef
	*eventsRef, *primsRef = nil, nil

	if len(nodePrims) == 0 {
		return nilNode
	}
	if volume.SurfaceArea() <= b.opts.Epsilon || depth > b.maxDepth {
		return b.newLeaf(nodePrims)
	}

	isectCost := b.intersectionCost(nodePrims)
	plane := b.findSplit(events, len(nodePrims), volume, isectCost)
	if plane.cost >= float32(len(nodePrims))*isectCost {
		return b.newLeaf(nodePrims)
	}

	b.classify(events, nodePrims, plane)
	leftEvents, rightEvents := b.splitEvents(events, nodePrims, plane)
	leftPrims, rightPrims := b.splitPrimitives(nodePrims)

	id := nodeID(len(b.nodes))
	node := &innerNode{axis: plane.axis, split: plane.pos}
	b.nodes = append(b.nodes, node)

	node.left = b.buildNode(&leftEvents, &leftPrims, plane.vl, depth+1)
	node.right = b.buildNode(&rightEvents, &rightPrims, plane.vr, depth+1)
	return id
}

func (b *Builder) newLeaf(nodePrims []int32) nodeID {
	leaf := &leafNode{primitives: make([]uint32, len(nodePrims))}
	for i, p := range nodePrims {
		if b.prims == nil {
			leaf.primitives[i] = uint32(p)
			continue
		}
		leaf.primitives[i] = b.prims[p].index
	}

	b.nodes = append(b.nodes, leaf)
	return nodeID(len(b.nodes) - 1)
}

func (b *Builder) intersectionCost(nodePrims []int32) float32 {
	if !b.opts.ElementWise {
		return b.isectCost
	}

	var sum float32
	for _, p := range nodePrims {
		sum += b.accessor.Cost(b.prims[p].index)
	}
	return sum / float32(len(nodePrims))
}

// Tag each primitive of a node with the side of the split plane it belongs
// to. Primitives that are neither fully left nor fully right straddle the
// plane and stay tagged as both.
func (b *Builder) classify(events []event, nodePrims []int32, plane splitPlane) {
	eps := b.opts.Epsilon
	for _, p := range nodePrims {
		b.prims[p].side = sideBoth
	}

	for _, e := range events {
		if e.axis != plane.axis {
			continue
		}

		prim := &b.prims[e.prim]
		switch e.typ {
		case endEvent:
			if e.pos <= plane.pos {
				prim.side = sideLeft
			}
		case startEvent:
			if e.pos >= plane.pos {
				prim.side = sideRight
			}
		case flatEvent:
			if e.pos < plane.pos || (math32.Abs(e.pos-plane.pos) <= eps && plane.side == sideLeft) {
				prim.side = sideLeft
			} else {
				prim.side = sideRight
			}
		}
	}
}

// Generate the sorted event lists of both children. Events of primitives
// that end up on a single side are copied as is; straddling primitives get
// fresh events from their boxes clipped to each child volume.
func (b *Builder) splitEvents(events []event, nodePrims []int32, plane splitPlane) (left, right []event) {
	var leftOnly, rightOnly []event
	for _, e := range events {
		switch b.prims[e.prim].side {
		case sideLeft:
			leftOnly = append(leftOnly, e)
		case sideRight:
			rightOnly = append(rightOnly, e)
		}
	}

	var leftBoth, rightBoth []event
	for _, p := range nodePrims {
		if b.prims[p].side != sideBoth {
			continue
		}
		box := b.prims[p].box
		leftBoth = appendEvents(leftBoth, p, box.ClipBy(plane.vl), b.opts.Epsilon)
		rightBoth = appendEvents(rightBoth, p, box.ClipBy(plane.vr), b.opts.Epsilon)
	}
	sortEvents(leftBoth)
	sortEvents(rightBoth)

	left = mergeEvents(make([]event, 0, len(leftOnly)+len(leftBoth)), leftOnly, leftBoth)
	right = mergeEvents(make([]event, 0, len(rightOnly)+len(rightBoth)), rightOnly, rightBoth)
	return left, right
}

// Distribute node primitives to the children preserving their order.
func (b *Builder) splitPrimitives(nodePrims []int32) (left, right []int32) {
	for _, p := range nodePrims {
		switch b.prims[p].side {
		case sideLeft:
			left = append(left, p)
		case sideRight:
			right = append(right, p)
		default:
			left = append(left, p)
			right = append(right, p)
		}
	}
	return left, right
}
