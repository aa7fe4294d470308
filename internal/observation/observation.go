// Package observation models a single captured image used to texture a
// mesh, its camera, and the bounded image cache the Backproject Texturer
// shares across many tiles.
package observation

import (
	"image"

	"github.com/landform/terracore/internal/spatial"
)

// Camera is a pinhole camera model: focal lengths and principal point in
// pixels, plus the pixel dimensions of the image it was captured with.
type Camera struct {
	Width, Height int
	Fx, Fy        float64
	Cx, Cy        float64
}

// Project maps a world-space point into this camera's pixel space given
// worldToCamera, the camera's inverse pose. Returns the pixel coordinates,
// the point's depth along the camera's look axis, and whether the point is
// in front of the camera at all (depth > 0).
func (c Camera) Project(worldToCamera spatial.Mat4, p spatial.Vec3) (u, v, depth float64, inFront bool) {
	hp := worldToCamera.Mul4x1(spatial.Vec3ToHomogeneous(p))
	x, y, z := hp.X(), hp.Y(), hp.Z()
	if z <= 0 {
		return 0, 0, z, false
	}
	u = c.Fx*(x/z) + c.Cx
	v = c.Fy*(y/z) + c.Cy
	return u, v, z, true
}

// InBounds reports whether pixel coordinates (u,v) land inside the image.
func (c Camera) InBounds(u, v float64) bool {
	return u >= 0 && v >= 0 && u < float64(c.Width) && v < float64(c.Height)
}

// Observation is one captured image plus the pose it was captured from,
// identified by a stable Index used both as the cache key and as the
// provenance value recorded in a texel's IndexImage entry. Index is
// assigned starting at 1; 0 is reserved by IndexImage to mean "no
// observation contributed this texel."
type Observation struct {
	Index uint32
	Path  string
	Camera Camera
	// Pose is the camera's world-to-camera transform, i.e. the inverse of
	// the camera's placement in world space.
	Pose spatial.Mat4
	// ViewDir is the camera's look direction in world space, used for the
	// grazing-angle rejection test.
	ViewDir spatial.Vec3
	// Origin is the camera's world-space position, used to cast occlusion
	// rays toward candidate surface points.
	Origin spatial.Vec3
	// ValidityMask is optional; when non-nil, a pixel is usable only if
	// its corresponding mask value is non-zero.
	ValidityMask *image.Alpha
}

// Valid reports whether pixel (col,row) is usable: in bounds and, if a
// validity mask is present, marked valid in it.
func (o *Observation) Valid(col, row int) bool {
	if col < 0 || row < 0 || col >= o.Camera.Width || row >= o.Camera.Height {
		return false
	}
	if o.ValidityMask == nil {
		return true
	}
	return o.ValidityMask.AlphaAt(col, row).A != 0
}
