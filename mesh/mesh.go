// Package mesh provides an indexed triangle mesh that can be partitioned and
// queried through the kdtree package.
package mesh

import (
	"bytes"
	"fmt"

	"github.com/achilleasa/kdtrace/kdtree"
	"github.com/achilleasa/kdtrace/types"
)

// IntersectionCost is the cost reported for every triangle relative to a
// kd-tree traversal step.
const IntersectionCost float32 = 4

// Mesh is an indexed triangle list. Triangle i uses the vertices referenced
// by Indices[3*i : 3*i+3].
type Mesh struct {
	Name     string
	Vertices []types.Vec3
	Indices  []uint32
}

// New creates a mesh after checking that indices describe whole triangles
// and only reference existing vertices.
func New(name string, vertices []types.Vec3, indices []uint32) (*Mesh, error) {
	if len(indices)%3 != 0 {
		return nil, fmt.Errorf("mesh %q: index count %d is not a multiple of 3", name, len(indices))
	}
	for i, index := range indices {
		if int(index) >= len(vertices) {
			return nil, fmt.Errorf("mesh %q: index %d references missing vertex %d", name, i, index)
		}
	}

	return &Mesh{
		Name:     name,
		Vertices: vertices,
		Indices:  indices,
	}, nil
}

// Len returns the number of triangles in the mesh.
func (m *Mesh) Len() int {
	return len(m.Indices) / 3
}

// Triangle returns the vertices of a triangle.
func (m *Mesh) Triangle(tri uint32) (v0, v1, v2 types.Vec3) {
	base := 3 * tri
	return m.Vertices[m.Indices[base]], m.Vertices[m.Indices[base+1]], m.Vertices[m.Indices[base+2]]
}

// BBox returns the bounding box of a triangle.
func (m *Mesh) BBox(tri uint32) types.BBox {
	v0, v1, v2 := m.Triangle(tri)
	return types.BBoxFromPoints(v0, v1, v2)
}

// Cost returns the cost of a ray-triangle test.
func (m *Mesh) Cost(uint32) float32 {
	return IntersectionCost
}

// Bounds returns the bounding box of all triangles.
func (m *Mesh) Bounds() types.BBox {
	box := types.EmptyBBox()
	for tri := 0; tri < m.Len(); tri++ {
		box = box.Combine(m.BBox(uint32(tri)))
	}
	return box
}

// Intersect tests a ray against a single triangle. Its signature matches
// kdtree.QueryFunc.
func (m *Mesh) Intersect(ray types.Ray, tri uint32, hit *kdtree.Hit) bool {
	v0, v1, v2 := m.Triangle(tri)
	t, u, v, ok := IntersectTriangle(ray, v0, v1, v2)
	if !ok {
		return false
	}

	hit.Distance, hit.U, hit.V = t, u, v
	return true
}

// BuildTree partitions the mesh triangles into a kd-tree.
func (m *Mesh) BuildTree(opts kdtree.Options) *kdtree.Builder {
	b := kdtree.NewBuilder(m, opts)
	b.Build(m.Len())
	return b
}

// Compile builds a kd-tree for the mesh and loads it into a collider. The
// returned stats describe the built tree.
func (m *Mesh) Compile(opts kdtree.Options) (*kdtree.Collider, kdtree.Stats, error) {
	b := m.BuildTree(opts)
	stats := b.Stats()

	var buf bytes.Buffer
	if err := b.Save(&buf); err != nil {
		return nil, stats, err
	}
	b.Release()

	c, err := kdtree.Load(&buf)
	if err != nil {
		return nil, stats, err
	}
	return c, stats, nil
}
