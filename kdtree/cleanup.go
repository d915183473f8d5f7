package kdtree

// Remove missing children from the tree. An inner node with a single child
// is replaced by that child. Collapsing a present child never yields a
// missing node so a single pass reaches the fixed point.
func (b *Builder) cleanup() {
	if b.root == nilNode {
		return
	}
	b.root = b.collapse(b.root)
}

func (b *Builder) collapse(id nodeID) nodeID {
	inner, ok := b.nodes[id].(*innerNode)
	if !ok {
		return id
	}

	switch {
	case inner.left == nilNode && inner.right == nilNode:
		b.nodes[id] = nil
		return nilNode
	case inner.left == nilNode:
		b.nodes[id] = nil
		return b.collapse(inner.right)
	case inner.right == nilNode:
		b.nodes[id] = nil
		return b.collapse(inner.left)
	}

	inner.left = b.collapse(inner.left)
	inner.right = b.collapse(inner.right)
	return id
}
