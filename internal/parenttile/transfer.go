package parenttile

import (
	"github.com/landform/terracore/internal/meshmodel"
	"github.com/landform/terracore/internal/spatial"
)

// TransferVertexColors assigns every vertex of parent the color of the
// nearest point among children's meshes, preferring the highest-confidence
// sample when multiple children's surfaces are comparably close (spec
// §4.D step 5: "if multiple finer tiles overlap, prefer the
// highest-confidence sample").
func TransferVertexColors(parent *meshmodel.Mesh, children []*Child) []spatial.Vec3 {
	colors := make([]spatial.Vec3, len(parent.Positions))
	for i, p := range parent.Positions {
		colors[i] = nearestColor(p, children)
	}
	return colors
}

// nearestColor finds, across every child mesh, the closest point to p on
// any triangle, weighting ties by confidence rather than pure distance:
// a farther but higher-confidence sample is preferred when within
// confidenceSlack of the closest distance found so far.
const confidenceSlack = 1e-6

func nearestColor(p spatial.Vec3, children []*Child) spatial.Vec3 {
	bestDist := mathMaxFloat
	var bestColor spatial.Vec3
	bestConfidence := -mathMaxFloat

	for _, c := range children {
		if len(c.Colors) == 0 {
			continue
		}
		for fi := range c.Mesh.Faces {
			f := c.Mesh.Faces[fi]
			p0, p1, p2 := c.Mesh.Positions[f[0]], c.Mesh.Positions[f[1]], c.Mesh.Positions[f[2]]
			cp := spatial.ClosestPointOnTriangle(p, p0, p1, p2)
			d := spatial.Dist(p, cp)

			vi, conf := nearestVertexConfidence(c, f, cp)
			if d < bestDist-confidenceSlack {
				bestDist, bestColor, bestConfidence = d, c.Colors[vi], conf
			} else if d < bestDist+confidenceSlack && conf > bestConfidence {
				bestDist, bestColor, bestConfidence = d, c.Colors[vi], conf
			}
		}
	}
	return bestColor
}

// nearestVertexConfidence picks whichever corner of face f is nearest to
// cp and returns its index (into c.Mesh.Positions) and confidence.
func nearestVertexConfidence(c *Child, f meshmodel.Face, cp spatial.Vec3) (int, float64) {
	best := f[0]
	bestD := spatial.Dist(cp, c.Mesh.Positions[f[0]])
	for _, vi := range f[1:] {
		if d := spatial.Dist(cp, c.Mesh.Positions[vi]); d < bestD {
			best, bestD = vi, d
		}
	}
	conf := 0.0
	if c.Confidence != nil {
		conf = c.Confidence[best]
	}
	return best, conf
}

const mathMaxFloat = 1.7976931348623157e+308
