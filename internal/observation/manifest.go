package observation

import (
	"encoding/json"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"

	"github.com/landform/terracore/internal/encode"
	"github.com/landform/terracore/internal/spatial"
)

// manifestEntry is one observation's JSON representation: a camera image
// path (resolved relative to the manifest file, same convention as the
// teacher resolving sibling GeoTIFFs next to a directory argument), its
// pinhole intrinsics, and its placement in world space.
type manifestEntry struct {
	Path   string  `json:"path"`
	Width  int     `json:"width"`
	Height int     `json:"height"`
	Fx     float64 `json:"fx"`
	Fy     float64 `json:"fy"`
	Cx     float64 `json:"cx"`
	Cy     float64 `json:"cy"`
	// CameraToWorld is the camera's placement in world space, row-major,
	// with the camera looking down its own +Z axis (matching
	// Camera.Project's in-front test).
	CameraToWorld [16]float64 `json:"cameraToWorld"`
}

type manifest struct {
	Observations []manifestEntry `json:"observations"`
}

// LoadManifest reads a JSON observation manifest at path and returns one
// Observation per entry, indexed starting at 1 (0 stays reserved for
// IndexImage's "unassigned" sentinel). Image paths are resolved relative
// to the manifest file's directory if not already absolute; image bytes
// themselves are not read here — pair the result with NewLoader to build
// an observation.Cache.
func LoadManifest(path string) ([]*Observation, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("observation: reading manifest %s: %w", path, err)
	}
	var m manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("observation: parsing manifest %s: %w", path, err)
	}

	dir := filepath.Dir(path)
	out := make([]*Observation, 0, len(m.Observations))
	for i, e := range m.Observations {
		camToWorld := spatial.Mat4FromRowMajor(e.CameraToWorld)
		worldToCam := camToWorld.Inv()

		origin := spatial.Vec3{e.CameraToWorld[3], e.CameraToWorld[7], e.CameraToWorld[11]}
		viewDir := spatial.Vec3{e.CameraToWorld[2], e.CameraToWorld[6], e.CameraToWorld[10]}
		if l := viewDir.Len(); l > 1e-12 {
			viewDir = viewDir.Mul(1 / l)
		}

		imgPath := e.Path
		if !filepath.IsAbs(imgPath) {
			imgPath = filepath.Join(dir, imgPath)
		}

		out = append(out, &Observation{
			Index: uint32(i + 1),
			Path:  imgPath,
			Camera: Camera{
				Width: e.Width, Height: e.Height,
				Fx: e.Fx, Fy: e.Fy,
				Cx: e.Cx, Cy: e.Cy,
			},
			Pose:    worldToCam,
			ViewDir: viewDir,
			Origin:  origin,
		})
	}
	return out, nil
}

// NewLoader builds a Loader that reads an observation's image bytes from
// disk and decodes them by file extension, for use with NewCache.
// Observations passed to it are keyed by their Index field, the same key
// Cache.Acquire uses.
func NewLoader(observations []*Observation) Loader {
	byIndex := make(map[uint32]string, len(observations))
	for _, o := range observations {
		byIndex[o.Index] = o.Path
	}
	return func(idx uint32) (image.Image, int64, error) {
		path, ok := byIndex[idx]
		if !ok {
			return nil, 0, fmt.Errorf("observation: no observation registered for index %d", idx)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, 0, fmt.Errorf("observation: reading image %s: %w", path, err)
		}
		img, err := encode.DecodeImage(data, imageFormat(path))
		if err != nil {
			return nil, 0, fmt.Errorf("observation: decoding image %s: %w", path, err)
		}
		return img, int64(len(data)), nil
	}
}

// imageFormat maps a file extension to the format name encode.DecodeImage
// expects, defaulting to "jpeg" for anything unrecognized (observation
// captures in this system are overwhelmingly JPEG).
func imageFormat(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return "png"
	case ".webp":
		return "webp"
	default:
		return "jpeg"
	}
}
