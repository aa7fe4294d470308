package spatial

import "github.com/go-gl/mathgl/mgl64"

// Quadric is the 4x4 symmetric error matrix of Garland-Heckbert QEM
// simplification: evaluating p^T Q p on a homogeneous point p estimates the
// squared sum of distances from p to the set of planes Q was accumulated
// from.
type Quadric struct {
	// Stored as the upper triangle of the symmetric 4x4 matrix:
	// [a b c d]
	// [b e f g]
	// [c f h i]
	// [d g i j]
	a, b, c, d, e, f, g, h, i, j float64
}

// PlaneQuadric builds the quadric for a single plane with unit normal n and
// signed distance-to-origin d (the plane equation is n.x + d = 0).
func PlaneQuadric(n Vec3, d float64) Quadric {
	return Quadric{
		a: n.X() * n.X(), b: n.X() * n.Y(), c: n.X() * n.Z(), d: n.X() * d,
		e: n.Y() * n.Y(), f: n.Y() * n.Z(), g: n.Y() * d,
		h: n.Z() * n.Z(), i: n.Z() * d,
		j: d * d,
	}
}

// TriangleQuadric builds the quadric for the plane through p0,p1,p2,
// optionally scaled by triangle area (spec §4.A weight_by_area option).
// Returns the zero quadric if the triangle is degenerate.
func TriangleQuadric(p0, p1, p2 Vec3, weightByArea bool) Quadric {
	e1 := p1.Sub(p0)
	e2 := p2.Sub(p0)
	cross := e1.Cross(e2)
	area2 := cross.Len() // == 2*triangle area
	if area2 < 1e-20 {
		return Quadric{}
	}
	n := cross.Mul(1.0 / area2)
	d := -n.Dot(p0)
	q := PlaneQuadric(n, d)
	if weightByArea {
		q = q.Scale(area2 / 2)
	}
	return q
}

// Add returns the sum of two quadrics.
func (q Quadric) Add(o Quadric) Quadric {
	return Quadric{
		a: q.a + o.a, b: q.b + o.b, c: q.c + o.c, d: q.d + o.d,
		e: q.e + o.e, f: q.f + o.f, g: q.g + o.g,
		h: q.h + o.h, i: q.i + o.i,
		j: q.j + o.j,
	}
}

// Scale returns the quadric scaled by s, used for the perimeter penalty.
func (q Quadric) Scale(s float64) Quadric {
	return Quadric{
		a: q.a * s, b: q.b * s, c: q.c * s, d: q.d * s,
		e: q.e * s, f: q.f * s, g: q.g * s,
		h: q.h * s, i: q.i * s,
		j: q.j * s,
	}
}

// Eval evaluates v^T Q v for homogeneous point (v, 1) — the squared
// sum-of-plane-distances estimate.
func (q Quadric) Eval(v Vec3) float64 {
	x, y, z := v.X(), v.Y(), v.Z()
	return x*x*q.a + 2*x*y*q.b + 2*x*z*q.c + 2*x*q.d +
		y*y*q.e + 2*y*z*q.f + 2*y*q.g +
		z*z*q.h + 2*z*q.i +
		q.j
}

// upperLeft3x3 returns the quadratic-form part of the matrix (A in Ax=b).
func (q Quadric) upperLeft3x3() mgl64.Mat3 {
	return mgl64.Mat3{
		q.a, q.b, q.c,
		q.b, q.e, q.f,
		q.c, q.f, q.h,
	}
}

// gradientConstant returns b in Ax = -b (the linear term of the gradient).
func (q Quadric) gradientConstant() Vec3 {
	return Vec3{q.d, q.g, q.i}
}

// OptimalPoint solves for the point minimizing the quadric, per spec §4.A
// step 3: zero the gradient of Q and solve the resulting 3x3 linear system.
// Returns ok=false if the system is ill-conditioned (|det| <= 1e-8), in
// which case the caller should fall back to the {src, dst, midpoint} argmin.
func (q Quadric) OptimalPoint() (v Vec3, ok bool) {
	a := q.upperLeft3x3()
	det := a.Det()
	if det < 1e-8 && det > -1e-8 {
		return Vec3{}, false
	}
	inv := a.Inv()
	b := q.gradientConstant()
	// Ax = -b  =>  x = -A^-1 b
	x := inv.Mul3x1(b.Mul(-1))
	return x, true
}
