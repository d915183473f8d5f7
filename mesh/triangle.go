package mesh

import "github.com/achilleasa/kdtrace/types"

// IntersectTriangle tests a ray against triangle (v0, v1, v2) using the
// Möller-Trumbore algorithm. Points on the triangle edges count as hits.
// On a hit it returns the ray parameter t and the barycentric coordinates
// of the hit point with respect to v1 and v2.
func IntersectTriangle(ray types.Ray, v0, v1, v2 types.Vec3) (t, u, v float32, ok bool) {
	e1 := v1.Sub(v0)
	e2 := v2.Sub(v0)

	pvec := ray.Dir.Cross(e2)
	det := e1.Dot(pvec)

	// Ray is parallel to the triangle plane
	if det > -types.Epsilon && det < types.Epsilon {
		return 0, 0, 0, false
	}
	invDet := 1.0 / det

	tvec := ray.Origin.Sub(v0)
	u = tvec.Dot(pvec) * invDet
	if u < 0 || u > 1 {
		return 0, 0, 0, false
	}

	qvec := tvec.Cross(e1)
	v = ray.Dir.Dot(qvec) * invDet
	if v < 0 || u+v > 1 {
		return 0, 0, 0, false
	}

	t = e2.Dot(qvec) * invDet
	if t <= types.Epsilon {
		return 0, 0, 0, false
	}
	return t, u, v, true
}
