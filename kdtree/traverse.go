package kdtree

import (
	"github.com/achilleasa/kdtrace/types"
	"github.com/chewxy/math32"
)

// Hit describes a ray intersection.
type Hit struct {
	// Ray parameter of the intersection point.
	Distance float32

	// Surface parametrization at the intersection point.
	U, V float32

	// Index of the intersected primitive. Set by the collider.
	Primitive uint32
}

// QueryFunc tests a ray against a single primitive. It returns true and
// fills in hit.Distance, hit.U and hit.V if the primitive is intersected.
type QueryFunc func(ray types.Ray, primitive uint32, hit *Hit) bool

// Closest returns the intersection with the smallest distance inside the
// ray's valid range. The returned bool is false if nothing was hit.
func (c *Collider) Closest(stack *Stack, ray types.Ray, fn QueryFunc) (Hit, bool, error) {
	return c.traverse(stack, ray, fn, false)
}

// Any returns the first intersection found inside the ray's valid range.
// It is typically used for occlusion tests.
func (c *Collider) Any(stack *Stack, ray types.Ray, fn QueryFunc) (Hit, bool, error) {
	return c.traverse(stack, ray, fn, true)
}

// ClosestHit is a convenience wrapper around Closest that uses a pooled stack.
func (c *Collider) ClosestHit(ray types.Ray, fn QueryFunc) (Hit, bool, error) {
	stack := c.getStack()
	defer c.stacks.Put(stack)
	return c.traverse(stack, ray, fn, false)
}

// AnyHit is a convenience wrapper around Any that uses a pooled stack.
func (c *Collider) AnyHit(ray types.Ray, fn QueryFunc) (Hit, bool, error) {
	stack := c.getStack()
	defer c.stacks.Put(stack)
	return c.traverse(stack, ray, fn, true)
}

func (c *Collider) traverse(stack *Stack, ray types.Ray, fn QueryFunc, anyHit bool) (Hit, bool, error) {
	if c.IsEmpty() {
		return Hit{}, false, nil
	}

	entry, exit, ok := c.bbox.IntersectRange(ray)
	if !ok {
		return Hit{}, false, nil
	}
	entry = math32.Max(entry, 0)
	if entry > exit {
		return Hit{}, false, nil
	}

	stack.reset()
	if err := stack.push(0, entry, exit); err != nil {
		return Hit{}, false, err
	}

	invDir := ray.Dir.Inverse()
	best := Hit{Distance: math32.Inf(1)}
	found := false

	for !stack.empty() {
		frame := stack.pop()

		// Nodes left on the stack lie further along the ray than anything
		// we already hit.
		if found && best.Distance < frame.entry {
			break
		}

		index, entry, exit := frame.node, frame.entry, frame.exit
		node := &c.nodes[index]
		for !node.IsLeaf() {
			axis := node.Axis
			left, right := index+1, node.Data
			o, d := ray.Origin[axis], ray.Dir[axis]

			if d == 0 {
				switch {
				case o < node.Split:
					index = left
				case o > node.Split:
					index = right
				default:
					if err := stack.push(right, entry, exit); err != nil {
						return Hit{}, false, err
					}
					index = left
				}
				node = &c.nodes[index]
				continue
			}

			near, far := left, right
			if d < 0 {
				near, far = right, left
			}

			t := (node.Split - o) * invDir[axis]
			switch {
			case t > exit:
				index = near
			case t <= 0 || t < entry:
				index = far
			default:
				if err := stack.push(far, t, exit); err != nil {
					return Hit{}, false, err
				}
				index = near
				exit = t
			}
			node = &c.nodes[index]
		}

		hit := &stack.scratch
		for _, prim := range c.primitives[node.Data : node.Data+node.Count] {
			*hit = Hit{Distance: math32.Inf(1)}
			if !fn(ray, prim, hit) || !ray.InRange(hit.Distance) {
				continue
			}
			hit.Primitive = prim

			if anyHit {
				return *hit, true, nil
			}
			if hit.Distance < best.Distance {
				best = *hit
				found = true
			}
		}
	}

	if !found {
		return Hit{}, false, nil
	}
	return best, true, nil
}
