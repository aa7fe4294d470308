// Package spatial provides the vector, matrix, quadric, and ray-geometry
// primitives shared by the mesh decimator, tile tree, and backproject
// texturer.
package spatial

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Vec3 is an alias for the double-precision vector type used throughout.
// Quadric error accumulation sums many plane terms per vertex, so the core
// uses mgl64 rather than mgl32 despite the extra 8 bytes per component.
type Vec3 = mgl64.Vec3

// Mat4 is a 4x4 matrix, used for rigid poses.
type Mat4 = mgl64.Mat4

// AABB is an axis-aligned bounding box.
type AABB struct {
	Min, Max Vec3
}

// EmptyAABB returns a degenerate box that Expand will grow from.
func EmptyAABB() AABB {
	return AABB{
		Min: Vec3{math.MaxFloat64, math.MaxFloat64, math.MaxFloat64},
		Max: Vec3{-math.MaxFloat64, -math.MaxFloat64, -math.MaxFloat64},
	}
}

// Expand grows the box to include p.
func (b AABB) Expand(p Vec3) AABB {
	for i := 0; i < 3; i++ {
		if p[i] < b.Min[i] {
			b.Min[i] = p[i]
		}
		if p[i] > b.Max[i] {
			b.Max[i] = p[i]
		}
	}
	return b
}

// Union returns the smallest box containing both b and o.
func (b AABB) Union(o AABB) AABB {
	return b.Expand(o.Min).Expand(o.Max)
}

// Contains reports whether o is entirely within b (inclusive).
func (b AABB) Contains(o AABB) bool {
	for i := 0; i < 3; i++ {
		if o.Min[i] < b.Min[i]-1e-9 || o.Max[i] > b.Max[i]+1e-9 {
			return false
		}
	}
	return true
}

// ContainsPoint reports whether p lies within b (inclusive).
func (b AABB) ContainsPoint(p Vec3) bool {
	for i := 0; i < 3; i++ {
		if p[i] < b.Min[i] || p[i] > b.Max[i] {
			return false
		}
	}
	return true
}

// Extent returns the box's size along each axis.
func (b AABB) Extent() Vec3 {
	return b.Max.Sub(b.Min)
}

// Center returns the box's midpoint.
func (b AABB) Center() Vec3 {
	return b.Min.Add(b.Max).Mul(0.5)
}

// LongestAxis returns the index (0=X,1=Y,2=Z) of the box's longest axis,
// ties broken toward X then Y per spec §4.B ("if equal, X first").
func (b AABB) LongestAxis() int {
	e := b.Extent()
	axis := 0
	best := e[0]
	for i := 1; i < 3; i++ {
		if e[i] > best {
			best = e[i]
			axis = i
		}
	}
	return axis
}

// LongestHorizontalAxis returns the longer of X or Y, used by quadtree
// splitting which never subdivides along Z.
func (b AABB) LongestHorizontalAxis() int {
	e := b.Extent()
	if e[1] > e[0] {
		return 1
	}
	return 0
}

// Expanded returns a copy of b grown outward by margin on every side.
func (b AABB) Expanded(margin float64) AABB {
	d := Vec3{margin, margin, margin}
	return AABB{Min: b.Min.Sub(d), Max: b.Max.Add(d)}
}

// Intersects reports whether two boxes overlap (inclusive of touching faces).
func (b AABB) Intersects(o AABB) bool {
	for i := 0; i < 3; i++ {
		if b.Max[i] < o.Min[i] || b.Min[i] > o.Max[i] {
			return false
		}
	}
	return true
}

// Dist returns the Euclidean distance between two points.
func Dist(a, b Vec3) float64 {
	return a.Sub(b).Len()
}

// Vec3ToHomogeneous lifts p to a homogeneous point (w=1), for
// transforming by a Mat4 pose.
func Vec3ToHomogeneous(p Vec3) mgl64.Vec4 {
	return mgl64.Vec4{p.X(), p.Y(), p.Z(), 1}
}

// Vec3ToHomogeneousDir lifts p to a homogeneous direction (w=0), so a Mat4
// translation component has no effect.
func Vec3ToHomogeneousDir(p Vec3) mgl64.Vec4 {
	return mgl64.Vec4{p.X(), p.Y(), p.Z(), 0}
}

// HomogeneousToVec3 projects a homogeneous point back to Vec3 by dividing
// through by w (a no-op for w=1 affine transforms).
func HomogeneousToVec3(v mgl64.Vec4) Vec3 {
	if v.W() == 0 || v.W() == 1 {
		return Vec3{v.X(), v.Y(), v.Z()}
	}
	return Vec3{v.X() / v.W(), v.Y() / v.W(), v.Z() / v.W()}
}

// Mat4FromRowMajor builds a Mat4 from vals given in row-major order (the
// natural way a pose reads in a manifest file), converting to mathgl's
// column-major in-memory layout.
func Mat4FromRowMajor(vals [16]float64) Mat4 {
	var m Mat4
	for r := 0; r < 4; r++ {
		for c := 0; c < 4; c++ {
			m[c*4+r] = vals[r*4+c]
		}
	}
	return m
}
