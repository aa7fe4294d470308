package tileset

import (
	"bytes"
	"fmt"

	"github.com/landform/terracore/internal/recon"
)

// EncodePointCloud serializes a coarse fallback tile's point sample to the
// published point-cloud asset format: one line per point, "x y z r g b",
// with color defaulting to white when a point carries none.
func EncodePointCloud(points []recon.Point) []byte {
	var buf bytes.Buffer
	for _, p := range points {
		r, g, b := p.R, p.G, p.B
		if !p.HasColor {
			r, g, b = 255, 255, 255
		}
		fmt.Fprintf(&buf, "%g %g %g %d %d %d\n",
			p.Position.X(), p.Position.Y(), p.Position.Z(), r, g, b)
	}
	return buf.Bytes()
}
