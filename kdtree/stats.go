package kdtree

import (
	"bytes"
	"fmt"
	"time"

	"github.com/achilleasa/kdtrace/types"
	"github.com/olekukonko/tablewriter"
)

// Stats describes the shape of a built tree.
type Stats struct {
	Primitives int

	// Number of node levels; a single leaf has depth 1.
	Depth int

	// Depth past which the builder stops splitting.
	MaxDepth int

	Nodes      int
	InnerNodes int
	Leaves     int

	MinLeafPrimitives int
	MaxLeafPrimitives int
	AvgLeafPrimitives float32

	// Expected work for a random ray hitting the root volume. Each node
	// contributes its surface area relative to the root surface area.
	ExpectedTraversals float32
	ExpectedLeaves     float32
	ExpectedIntersects float32

	BuildTime time.Duration
}

// Table renders the stats as a text table.
func (s Stats) Table() string {
	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetAutoFormatHeaders(false)
	table.SetHeader([]string{"Section", "Metric", "Value"})
	table.Append([]string{"Input", "Primitives", fmt.Sprint(s.Primitives)})
	table.Append([]string{" ", " ", " "})
	table.Append([]string{"Nodes", "Total", fmt.Sprint(s.Nodes)})
	table.Append([]string{"", "Inner", fmt.Sprint(s.InnerNodes)})
	table.Append([]string{"", "Leaves", fmt.Sprint(s.Leaves)})
	table.Append([]string{"", "Depth", fmt.Sprintf("%d (max %d)", s.Depth, s.MaxDepth)})
	table.Append([]string{" ", " ", " "})
	table.Append([]string{"Leaf primitives", "Min", fmt.Sprint(s.MinLeafPrimitives)})
	table.Append([]string{"", "Avg", fmt.Sprintf("%.2f", s.AvgLeafPrimitives)})
	table.Append([]string{"", "Max", fmt.Sprint(s.MaxLeafPrimitives)})
	table.Append([]string{" ", " ", " "})
	table.Append([]string{"Expected cost", "Traversal steps", fmt.Sprintf("%.3f", s.ExpectedTraversals)})
	table.Append([]string{"", "Leaves visited", fmt.Sprintf("%.3f", s.ExpectedLeaves)})
	table.Append([]string{"", "Intersections", fmt.Sprintf("%.3f", s.ExpectedIntersects)})
	table.SetFooter([]string{"Build time", " ", s.BuildTime.String()})

	table.Render()
	return buf.String()
}

// Walk the final tree in post-order assigning node ids and collecting stats.
// The added callback is invoked here so that leaf ids match the ids of the
// persisted tree.
func (b *Builder) collectStats() {
	if b.root == nilNode {
		return
	}

	rootSA := b.bbox.SurfaceArea()
	var nextID uint32
	var leafPrims int
	b.stats.MinLeafPrimitives = -1

	var visit func(id nodeID, volume types.BBox, depth int)
	visit = func(id nodeID, volume types.BBox, depth int) {
		if depth > b.stats.Depth {
			b.stats.Depth = depth
		}
		b.stats.Nodes++

		ratio := float32(1)
		if rootSA > b.opts.Epsilon {
			ratio = volume.SurfaceArea() / rootSA
		}

		switch node := b.nodes[id].(type) {
		case *innerNode:
			vl, vr := volume.Split(int(node.axis), node.split)
			visit(node.left, vl, depth+1)
			visit(node.right, vr, depth+1)

			node.id = nextID
			b.stats.InnerNodes++
			b.stats.ExpectedTraversals += ratio
		case *leafNode:
			node.id = nextID
			count := len(node.primitives)
			b.stats.Leaves++
			b.stats.ExpectedLeaves += ratio
			b.stats.ExpectedIntersects += ratio * float32(count)

			leafPrims += count
			if b.stats.MinLeafPrimitives < 0 || count < b.stats.MinLeafPrimitives {
				b.stats.MinLeafPrimitives = count
			}
			if count > b.stats.MaxLeafPrimitives {
				b.stats.MaxLeafPrimitives = count
			}

			if b.opts.OnAdded != nil {
				for _, p := range node.primitives {
					b.opts.OnAdded(p, node.id)
				}
			}
		}
		nextID++
	}
	visit(b.root, b.bbox, 1)

	b.stats.AvgLeafPrimitives = float32(leafPrims) / float32(b.stats.Leaves)
}
