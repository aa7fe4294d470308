package tileset

import (
	"strings"
	"testing"

	"github.com/landform/terracore/internal/recon"
	"github.com/landform/terracore/internal/spatial"
	"github.com/stretchr/testify/require"
)

func TestEncodePointCloudWritesOneLinePerPoint(t *testing.T) {
	points := []recon.Point{
		{Position: spatial.Vec3{1, 2, 3}, HasColor: true, R: 10, G: 20, B: 30},
		{Position: spatial.Vec3{4, 5, 6}},
	}
	data := EncodePointCloud(points)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)
	require.Contains(t, lines[0], "10 20 30")
	require.Contains(t, lines[1], "255 255 255")
}
