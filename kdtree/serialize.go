package kdtree

import (
	"io"

	"github.com/achilleasa/kdtrace/stream"
	"github.com/achilleasa/kdtrace/types"
)

// Magic identifies kd-tree streams. It is written NUL terminated.
const Magic = "pearray_kdtree"

// The stream layout is:
//
//	magic
//	root bbox: min xyz, max xyz (float32)
//	root node
//
// Nodes are written in pre-order. Each node starts with a uint8 leaf flag.
// Leaves continue with a uint64 primitive count followed by that many uint64
// primitive indices. Inner nodes continue with a uint8 split axis, a float32
// split position and their left and right subtrees. Empty trees consist of
// the magic alone.
func writeTree(w io.Writer, b *Builder) error {
	sw := stream.NewWriter(w)
	sw.WriteString(Magic)

	if b.root != nilNode {
		writeBBox(sw, b.bbox)
		writeNode(sw, b.nodes, b.root)
	}

	return sw.Flush()
}

func writeBBox(sw *stream.Writer, box types.BBox) {
	for _, v := range box.Min {
		sw.WriteFloat32(v)
	}
	for _, v := range box.Max {
		sw.WriteFloat32(v)
	}
}

func writeNode(sw *stream.Writer, nodes []buildNode, id nodeID) {
	switch node := nodes[id].(type) {
	case *leafNode:
		sw.WriteBool(true)
		sw.WriteUint64(uint64(len(node.primitives)))
		for _, p := range node.primitives {
			sw.WriteUint64(uint64(p))
		}
	case *innerNode:
		sw.WriteBool(false)
		sw.WriteUint8(node.axis)
		sw.WriteFloat32(node.split)
		writeNode(sw, nodes, node.left)
		writeNode(sw, nodes, node.right)
	}
}
