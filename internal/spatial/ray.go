package spatial

import "math"

// Ray is a parametric ray Origin + t*Dir, t >= 0.
type Ray struct {
	Origin, Dir Vec3
}

// At returns the point at parameter t along the ray.
func (r Ray) At(t float64) Vec3 {
	return r.Origin.Add(r.Dir.Mul(t))
}

// IntersectTriangle performs a Möller-Trumbore ray-triangle intersection.
// Returns the hit distance t and true if the ray hits the triangle at
// t >= epsilon; otherwise ok is false. Used both for the Backproject
// Texturer's occlusion test (spec §4.C step 4) and for building the tile's
// spatial index.
func (r Ray) IntersectTriangle(p0, p1, p2 Vec3) (t float64, ok bool) {
	const epsilon = 1e-9

	e1 := p1.Sub(p0)
	e2 := p2.Sub(p0)
	pvec := r.Dir.Cross(e2)
	det := e1.Dot(pvec)
	if det > -epsilon && det < epsilon {
		return 0, false // ray parallel to triangle plane
	}
	invDet := 1.0 / det

	tvec := r.Origin.Sub(p0)
	u := tvec.Dot(pvec) * invDet
	if u < 0 || u > 1 {
		return 0, false
	}

	qvec := tvec.Cross(e1)
	v := r.Dir.Dot(qvec) * invDet
	if v < 0 || u+v > 1 {
		return 0, false
	}

	t = e2.Dot(qvec) * invDet
	if t < epsilon {
		return 0, false
	}
	return t, true
}

// TriangleNormal returns the unit normal of the triangle with the given
// winding (p0,p1,p2 counter-clockwise defines the outward direction).
func TriangleNormal(p0, p1, p2 Vec3) Vec3 {
	n := p1.Sub(p0).Cross(p2.Sub(p0))
	l := n.Len()
	if l < 1e-20 {
		return Vec3{}
	}
	return n.Mul(1 / l)
}

// TriangleArea returns the area of the triangle p0,p1,p2.
func TriangleArea(p0, p1, p2 Vec3) float64 {
	return p1.Sub(p0).Cross(p2.Sub(p0)).Len() / 2
}

// ClosestPointOnTriangle returns the point on triangle (a,b,c) nearest to
// p, clamping the projection to the triangle's edges and vertices as
// needed. Used by the Parent Tile Builder's texture transfer and
// Hausdorff-distance error estimate, both of which need nearest-point
// rather than ray-intersection queries.
func ClosestPointOnTriangle(p, a, b, c Vec3) Vec3 {
	ab := b.Sub(a)
	ac := c.Sub(a)
	ap := p.Sub(a)

	d1 := ab.Dot(ap)
	d2 := ac.Dot(ap)
	if d1 <= 0 && d2 <= 0 {
		return a
	}

	bp := p.Sub(b)
	d3 := ab.Dot(bp)
	d4 := ac.Dot(bp)
	if d3 >= 0 && d4 <= d3 {
		return b
	}

	vc := d1*d4 - d3*d2
	if vc <= 0 && d1 >= 0 && d3 <= 0 {
		v := d1 / (d1 - d3)
		return a.Add(ab.Mul(v))
	}

	cp := p.Sub(c)
	d5 := ab.Dot(cp)
	d6 := ac.Dot(cp)
	if d6 >= 0 && d5 <= d6 {
		return c
	}

	vb := d5*d2 - d1*d6
	if vb <= 0 && d2 >= 0 && d6 <= 0 {
		w := d2 / (d2 - d6)
		return a.Add(ac.Mul(w))
	}

	va := d3*d6 - d5*d4
	if va <= 0 && (d4-d3) >= 0 && (d5-d6) >= 0 {
		w := (d4 - d3) / ((d4 - d3) + (d5 - d6))
		return b.Add(c.Sub(b).Mul(w))
	}

	denom := 1 / (va + vb + vc)
	v := vb * denom
	w := vc * denom
	return a.Add(ab.Mul(v)).Add(ac.Mul(w))
}

// SmallestAngle returns the smallest interior angle (radians) of the
// triangle, used by the avoid_small_triangles guard.
func SmallestAngle(p0, p1, p2 Vec3) float64 {
	angle := func(a, b, c Vec3) float64 {
		u := b.Sub(a).Normalize()
		v := c.Sub(a).Normalize()
		cosT := u.Dot(v)
		if cosT > 1 {
			cosT = 1
		}
		if cosT < -1 {
			cosT = -1
		}
		return math.Acos(cosT)
	}
	a0 := angle(p0, p1, p2)
	a1 := angle(p1, p2, p0)
	a2 := angle(p2, p0, p1)
	m := a0
	if a1 < m {
		m = a1
	}
	if a2 < m {
		m = a2
	}
	return m
}
