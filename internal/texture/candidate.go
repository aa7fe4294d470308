package texture

import (
	"math"

	"github.com/landform/terracore/internal/observation"
	"github.com/landform/terracore/internal/spatial"
)

// candidate is one observation's bid to texture a surface point.
type candidate struct {
	obsIndex   uint32
	srcCol     int
	srcRow     int
	srcU       float64 // fractional source pixel column, for bilinear sampling
	srcV       float64 // fractional source pixel row, for bilinear sampling
	resolution float64 // texels per meter the observation can resolve here
	score      float64 // higher is better; combines resolution and view angle
}

// evaluateCandidates scores every observation against a surface point and
// normal, rejecting ones that are behind the camera, out of frame, masked
// invalid, too grazing, or occluded. occluder is the tile's own triangle
// index; a candidate whose sight line is blocked by the tile's own
// geometry before reaching the point is rejected (spec §4.C step 4).
func evaluateCandidates(point, normal spatial.Vec3, observations []*observation.Observation, occluder *spatial.TriangleIndex, selfFace int, cfg Config) []candidate {
	var out []candidate
	for _, obs := range observations {
		u, v, depth, inFront := obs.Camera.Project(obs.Pose, point)
		if !inFront || !obs.Camera.InBounds(u, v) {
			continue
		}
		col, row := int(u), int(v)
		if !obs.Valid(col, row) {
			continue
		}

		toPoint := point.Sub(obs.Origin)
		dist := toPoint.Len()
		if dist < 1e-9 {
			continue
		}
		viewDir := toPoint.Mul(1 / dist)

		grazing := math.Asin(clamp(math.Abs(viewDir.Dot(normal)), 0, 1))
		if grazing < cfg.MaxGrazingAngle {
			continue
		}

		if occluder != nil {
			ray := spatial.Ray{Origin: obs.Origin, Dir: viewDir}
			if t, hitFace, ok := occluder.Nearest(ray); ok && hitFace != selfFace && t < dist-1e-6 {
				continue
			}
		}

		resolution := obs.Camera.Fx / depth
		score := resolution * math.Sin(grazing)
		out = append(out, candidate{
			obsIndex:   obs.Index,
			srcCol:     col,
			srcRow:     row,
			srcU:       u,
			srcV:       v,
			resolution: resolution,
			score:      score,
		})
	}
	return out
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// best returns the highest-scoring candidate, or ok=false if cands is
// empty.
func best(cands []candidate) (c candidate, ok bool) {
	if len(cands) == 0 {
		return candidate{}, false
	}
	best := cands[0]
	for _, c := range cands[1:] {
		if c.score > best.score {
			best = c
		}
	}
	return best, true
}
