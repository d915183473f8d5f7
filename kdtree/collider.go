package kdtree

import (
	"errors"
	"fmt"
	"io"
	"math"
	"sync"

	"github.com/achilleasa/kdtrace/log"
	"github.com/achilleasa/kdtrace/stream"
	"github.com/achilleasa/kdtrace/types"
)

// Loaded trees deeper than this are rejected as corrupt. The builder depth
// cap stays well below this value for any realistic primitive count.
const MaxTreeDepth = 512

// LeafTag is stored in Node.Axis to mark leaf nodes.
const LeafTag uint8 = 3

// Collider nodes are stored as a flat pre-order list. The meaning of Data
// depends on the node type:
//
// - For inner nodes the left child immediately follows the node and Data
// holds the index of the right child.
// - For leaves Data holds the offset of the first primitive in the collider
// primitive list and Count holds the number of leaf primitives.
type Node struct {
	Split float32
	Data  uint32
	Count uint32
	Axis  uint8
}

// IsLeaf returns true if this is a leaf node.
func (n *Node) IsLeaf() bool {
	return n.Axis == LeafTag
}

// Collider is an immutable kd-tree loaded from a stream. It is safe for
// concurrent queries as long as each goroutine uses its own Stack.
type Collider struct {
	bbox       types.BBox
	nodes      []Node
	primitives []uint32
	depth      int

	stacks sync.Pool
}

// Load reads a tree from r. It always returns a usable collider: if the
// stream can not be decoded a warning is logged and an empty collider is
// returned together with the decoding error.
func Load(r io.Reader) (*Collider, error) {
	c, err := loadTree(r)
	if err != nil {
		log.New("kdtree").Warningf("could not load kd-tree; using empty tree: %v", err)
		return &Collider{}, err
	}
	return c, nil
}

// IsEmpty returns true if the collider contains no nodes.
func (c *Collider) IsEmpty() bool {
	return len(c.nodes) == 0
}

// BBox returns the bounding box of the tree root.
func (c *Collider) BBox() types.BBox {
	return c.bbox
}

// Depth returns the number of node levels in the tree.
func (c *Collider) Depth() int {
	return c.depth
}

// Nodes returns the flattened node list.
func (c *Collider) Nodes() []Node {
	return c.nodes
}

// Primitives returns the primitive indices stored in a leaf node.
func (c *Collider) Primitives(leaf *Node) []uint32 {
	return c.primitives[leaf.Data : leaf.Data+leaf.Count]
}

type treeLoader struct {
	r *stream.Reader
	c *Collider
}

func loadTree(r io.Reader) (*Collider, error) {
	sr := stream.NewReader(r)

	magic := sr.ReadString(len(Magic))
	if err := sr.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadMagic, err)
	}
	if magic != Magic {
		return nil, fmt.Errorf("%w: got %q", ErrBadMagic, magic)
	}

	c := &Collider{}
	if sr.AtEOF() {
		return c, nil
	}

	for axis := 0; axis < 3; axis++ {
		c.bbox.Min[axis] = sr.ReadFloat32()
	}
	for axis := 0; axis < 3; axis++ {
		c.bbox.Max[axis] = sr.ReadFloat32()
	}

	l := &treeLoader{r: sr, c: c}
	if sr.Err() != nil {
		return nil, l.streamErr("read root bbox")
	}
	if err := l.loadNode(1); err != nil {
		return nil, err
	}
	return c, nil
}

func (l *treeLoader) streamErr(what string) error {
	err := l.r.Err()
	if errors.Is(err, io.EOF) {
		err = io.ErrUnexpectedEOF
	}
	return fmt.Errorf("%w: %s at offset %d: %v", ErrCorruptStream, what, l.r.Len(), err)
}

func (l *treeLoader) loadNode(depth int) error {
	if depth > MaxTreeDepth {
		return fmt.Errorf("%w: depth %d", ErrTreeTooDeep, depth)
	}
	if depth > l.c.depth {
		l.c.depth = depth
	}

	index := len(l.c.nodes)
	l.c.nodes = append(l.c.nodes, Node{})

	flag := l.r.ReadUint8()
	if l.r.Err() != nil {
		return l.streamErr("read node flag")
	}

	switch flag {
	case 1:
		count := l.r.ReadUint64()
		if l.r.Err() != nil {
			return l.streamErr("read leaf size")
		}
		offset := len(l.c.primitives)
		for i := uint64(0); i < count; i++ {
			prim := l.r.ReadUint64()
			if l.r.Err() != nil {
				return l.streamErr("read leaf primitives")
			}
			if prim > math.MaxUint32 {
				return fmt.Errorf("%w: primitive index %d out of range", ErrCorruptStream, prim)
			}
			l.c.primitives = append(l.c.primitives, uint32(prim))
		}
		l.c.nodes[index] = Node{Axis: LeafTag, Data: uint32(offset), Count: uint32(count)}
	case 0:
		axis := l.r.ReadUint8()
		split := l.r.ReadFloat32()
		if l.r.Err() != nil {
			return l.streamErr("read split plane")
		}
		if axis > 2 {
			return fmt.Errorf("%w: invalid split axis %d", ErrCorruptStream, axis)
		}
		if err := l.loadNode(depth + 1); err != nil {
			return err
		}
		right := len(l.c.nodes)
		if err := l.loadNode(depth + 1); err != nil {
			return err
		}
		l.c.nodes[index] = Node{Axis: axis, Split: split, Data: uint32(right)}
	default:
		return fmt.Errorf("%w: invalid node flag %d", ErrCorruptStream, flag)
	}

	return nil
}
