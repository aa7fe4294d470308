package parenttile

import (
	"math"
	"math/rand"

	"github.com/landform/terracore/internal/meshmodel"
	"github.com/landform/terracore/internal/spatial"
)

// GeometricError estimates the two-sided Hausdorff distance in meters
// between parent and the union of children's meshes, by sampling a fixed
// number of points on each side and taking the max over both directions
// of the max-over-samples nearest-point distance. samplesPerSide bounds
// the cost; the true Hausdorff distance is a supremum over infinitely
// many points, so this is necessarily an approximation from sampling.
func GeometricError(parent *meshmodel.Mesh, children []*Child, samplesPerSide int, rng *rand.Rand) float64 {
	toChildren := maxNearestDistance(samplePositions(parent, samplesPerSide, rng), children)
	toParent := maxNearestDistanceToMesh(sampleChildPositions(children, samplesPerSide, rng), parent)
	return math.Max(toChildren, toParent)
}

func samplePositions(mesh *meshmodel.Mesh, n int, rng *rand.Rand) []spatial.Vec3 {
	if mesh.FaceCount() == 0 || n <= 0 {
		return nil
	}
	out := make([]spatial.Vec3, 0, n)
	for i := 0; i < n; i++ {
		fi := rng.Intn(mesh.FaceCount())
		pt := samplePointOnFace(mesh, fi, rng)
		out = append(out, pt.Position)
	}
	return out
}

func sampleChildPositions(children []*Child, n int, rng *rand.Rand) []spatial.Vec3 {
	if len(children) == 0 {
		return nil
	}
	per := n / len(children)
	if per == 0 {
		per = 1
	}
	var out []spatial.Vec3
	for _, c := range children {
		out = append(out, samplePositions(c.Mesh, per, rng)...)
	}
	return out
}

func maxNearestDistance(points []spatial.Vec3, children []*Child) float64 {
	max := 0.0
	for _, p := range points {
		d := nearestDistanceToChildren(p, children)
		if d > max {
			max = d
		}
	}
	return max
}

func maxNearestDistanceToMesh(points []spatial.Vec3, mesh *meshmodel.Mesh) float64 {
	max := 0.0
	for _, p := range points {
		d := nearestDistanceToMesh(p, mesh)
		if d > max {
			max = d
		}
	}
	return max
}

func nearestDistanceToChildren(p spatial.Vec3, children []*Child) float64 {
	best := math.MaxFloat64
	for _, c := range children {
		if d := nearestDistanceToMesh(p, c.Mesh); d < best {
			best = d
		}
	}
	if best == math.MaxFloat64 {
		return 0
	}
	return best
}

func nearestDistanceToMesh(p spatial.Vec3, mesh *meshmodel.Mesh) float64 {
	best := math.MaxFloat64
	for fi := range mesh.Faces {
		p0, p1, p2 := mesh.Triangle(fi)
		cp := spatial.ClosestPointOnTriangle(p, p0, p1, p2)
		if d := spatial.Dist(p, cp); d < best {
			best = d
		}
	}
	if best == math.MaxFloat64 {
		return 0
	}
	return best
}

// TextureError estimates the meters of parent-surface length a single
// texel group subtends: the parent mesh's surface area divided by its
// texel budget (texelGroupSize texels per group), square-rooted to turn
// an area-per-group figure into a length.
func TextureError(parent *meshmodel.Mesh, textureWidth, textureHeight int, texelGroupSize float64) float64 {
	if textureWidth <= 0 || textureHeight <= 0 || texelGroupSize <= 0 {
		return 0
	}
	area := 0.0
	for fi := range parent.Faces {
		p0, p1, p2 := parent.Triangle(fi)
		area += spatial.TriangleArea(p0, p1, p2)
	}
	groups := float64(textureWidth*textureHeight) / texelGroupSize
	if groups <= 0 {
		return 0
	}
	return math.Sqrt(area / groups)
}

// AggregateError combines this tile's own error with the worst of its
// children's, per spec §4.D step 6: "max(geometric, texture) +
// max_i(child_i.error)".
func AggregateError(geometric, texture float64, childErrors []float64) float64 {
	childMax := 0.0
	for _, e := range childErrors {
		if e > childMax {
			childMax = e
		}
	}
	return math.Max(geometric, texture) + childMax
}
