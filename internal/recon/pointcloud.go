package recon

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/landform/terracore/internal/meshmodel"
	"github.com/landform/terracore/internal/spatial"
)

// Point is one sample fed to the external surface reconstructor: a
// position, an optional normal whose length encodes confidence or scale,
// and an optional color.
type Point struct {
	Position spatial.Vec3
	Normal   spatial.Vec3 // zero length if unavailable
	HasColor bool
	R, G, B  uint8
}

// WritePointCloud writes points to path in the reconstructor's plain-text
// point-cloud format: one line per point, "x y z [nx ny nz]". The
// reconstructor only consumes positions and normals; color is carried
// separately by the caller for the post-reconstruction transfer step, not
// written here.
func WritePointCloud(path string, points []Point) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("recon: creating point cloud file: %w", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	for _, p := range points {
		if p.Normal.Len() > 0 {
			if _, err := fmt.Fprintf(w, "%g %g %g %g %g %g\n",
				p.Position.X(), p.Position.Y(), p.Position.Z(),
				p.Normal.X(), p.Normal.Y(), p.Normal.Z()); err != nil {
				return fmt.Errorf("recon: writing point cloud: %w", err)
			}
			continue
		}
		if _, err := fmt.Fprintf(w, "%g %g %g\n", p.Position.X(), p.Position.Y(), p.Position.Z()); err != nil {
			return fmt.Errorf("recon: writing point cloud: %w", err)
		}
	}
	return w.Flush()
}

// PointsFromMesh samples one point per vertex of mesh, carrying its normal
// (if present) and color (if present) forward into the reconstruction
// input.
func PointsFromMesh(mesh *meshmodel.Mesh) []Point {
	points := make([]Point, len(mesh.Positions))
	for i, p := range mesh.Positions {
		pt := Point{Position: p}
		if mesh.Normals != nil {
			pt.Normal = mesh.Normals[i]
		}
		if mesh.Colors != nil {
			c := mesh.Colors[i]
			pt.HasColor = true
			pt.R, pt.G, pt.B = c.R, c.G, c.B
		}
		points[i] = pt
	}
	return points
}

// ReadMeshOBJ reads the reconstructor's output mesh back. The Poisson and
// FSSR executables both emit Wavefront OBJ in their default builds; "v"
// lines give positions, "vn" lines give normals, and "f" lines give
// 1-indexed triangle faces.
func ReadMeshOBJ(path string) (*meshmodel.Mesh, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("recon: opening reconstructed mesh: %w", err)
	}
	defer f.Close()
	return parseOBJ(f)
}

func parseOBJ(r io.Reader) (*meshmodel.Mesh, error) {
	mesh := meshmodel.New(0, 0)
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for sc.Scan() {
		line := sc.Text()
		var tag string
		var a, b, c string
		n, _ := fmt.Sscanf(line, "%s %s %s %s", &tag, &a, &b, &c)
		if n < 1 {
			continue
		}
		switch tag {
		case "v":
			var x, y, z float64
			if _, err := fmt.Sscanf(line, "v %g %g %g", &x, &y, &z); err == nil {
				mesh.Positions = append(mesh.Positions, spatial.Vec3{x, y, z})
			}
		case "vn":
			var x, y, z float64
			if _, err := fmt.Sscanf(line, "vn %g %g %g", &x, &y, &z); err == nil {
				mesh.Normals = append(mesh.Normals, spatial.Vec3{x, y, z})
			}
		case "f":
			idx, err := parseFaceIndices(a, b, c)
			if err == nil {
				mesh.Faces = append(mesh.Faces, meshmodel.Face{idx[0], idx[1], idx[2]})
			}
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("recon: reading reconstructed mesh: %w", err)
	}
	if len(mesh.Normals) != 0 && len(mesh.Normals) != len(mesh.Positions) {
		mesh.Normals = nil
	}
	return mesh, nil
}

func parseFaceIndices(a, b, c string) ([3]int, error) {
	var idx [3]int
	for i, tok := range []string{a, b, c} {
		var v int
		if _, err := fmt.Sscanf(tok, "%d", &v); err != nil {
			return idx, err
		}
		idx[i] = v - 1 // OBJ indices are 1-based
	}
	return idx, nil
}
