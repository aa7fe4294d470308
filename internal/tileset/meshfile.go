// Package tileset writes a built tile tree out as a directory of per-tile
// mesh/texture/index files plus the JSON manifests that tie them together:
// a root manifest describing the hierarchy (bounds, errors, child refs,
// content URIs) and a terrain manifest listing the contributing
// observations.
package tileset

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"image/color"
	"io"
	"math"

	"github.com/landform/terracore/internal/meshmodel"
	"github.com/landform/terracore/internal/spatial"
)

// meshMagic identifies the binary mesh format; meshVersion lets a future
// format revision change the layout without breaking old tiles.
const (
	meshMagic   = "TMSH"
	meshVersion = 1

	meshFlagNormals = 1 << 0
	meshFlagUVs     = 1 << 1
	meshFlagColors  = 1 << 2
)

// EncodeMesh serializes mesh to the binary tile mesh format: a 17-byte
// header (magic, version, vertex/face counts, attribute flags) followed by
// positions, then whichever optional attributes are present, then the
// triangle index.
func EncodeMesh(mesh *meshmodel.Mesh) []byte {
	var flags byte
	if mesh.Normals != nil {
		flags |= meshFlagNormals
	}
	if mesh.UVs != nil {
		flags |= meshFlagUVs
	}
	if mesh.Colors != nil {
		flags |= meshFlagColors
	}

	var buf bytes.Buffer
	buf.WriteString(meshMagic)
	writeUint32(&buf, meshVersion)
	writeUint32(&buf, uint32(len(mesh.Positions)))
	writeUint32(&buf, uint32(len(mesh.Faces)))
	buf.WriteByte(flags)

	for _, p := range mesh.Positions {
		writeVec3(&buf, p)
	}
	if mesh.Normals != nil {
		for _, n := range mesh.Normals {
			writeVec3(&buf, n)
		}
	}
	if mesh.UVs != nil {
		for _, uv := range mesh.UVs {
			writeFloat32(&buf, uv.X())
			writeFloat32(&buf, uv.Y())
		}
	}
	if mesh.Colors != nil {
		for _, c := range mesh.Colors {
			buf.WriteByte(c.R)
			buf.WriteByte(c.G)
			buf.WriteByte(c.B)
			buf.WriteByte(c.A)
		}
	}
	for _, f := range mesh.Faces {
		writeUint32(&buf, uint32(f[0]))
		writeUint32(&buf, uint32(f[1]))
		writeUint32(&buf, uint32(f[2]))
	}

	return buf.Bytes()
}

// DecodeMesh parses the format EncodeMesh writes.
func DecodeMesh(data []byte) (*meshmodel.Mesh, error) {
	const headerSize = 4 + 4 + 4 + 4 + 1
	if len(data) < headerSize {
		return nil, fmt.Errorf("tileset: mesh data too short (%d bytes)", len(data))
	}
	if string(data[0:4]) != meshMagic {
		return nil, fmt.Errorf("tileset: invalid mesh magic %q", data[0:4])
	}
	version := binary.LittleEndian.Uint32(data[4:8])
	if version != meshVersion {
		return nil, fmt.Errorf("tileset: unsupported mesh format version %d", version)
	}
	nVerts := int(binary.LittleEndian.Uint32(data[8:12]))
	nFaces := int(binary.LittleEndian.Uint32(data[12:16]))
	flags := data[16]

	r := bytes.NewReader(data[headerSize:])
	mesh := meshmodel.New(nVerts, nFaces)

	mesh.Positions = make([]spatial.Vec3, nVerts)
	for i := range mesh.Positions {
		v, err := readVec3(r)
		if err != nil {
			return nil, fmt.Errorf("tileset: reading positions: %w", err)
		}
		mesh.Positions[i] = v
	}

	if flags&meshFlagNormals != 0 {
		mesh.Normals = make([]spatial.Vec3, nVerts)
		for i := range mesh.Normals {
			v, err := readVec3(r)
			if err != nil {
				return nil, fmt.Errorf("tileset: reading normals: %w", err)
			}
			mesh.Normals[i] = v
		}
	}
	if flags&meshFlagUVs != 0 {
		mesh.UVs = make([]spatial.Vec3, nVerts)
		for i := range mesh.UVs {
			u, err := readFloat32(r)
			if err != nil {
				return nil, fmt.Errorf("tileset: reading uvs: %w", err)
			}
			v, err := readFloat32(r)
			if err != nil {
				return nil, fmt.Errorf("tileset: reading uvs: %w", err)
			}
			mesh.UVs[i] = spatial.Vec3{u, v, 0}
		}
	}
	if flags&meshFlagColors != 0 {
		mesh.Colors = make([]color.RGBA, nVerts)
		for i := range mesh.Colors {
			var rgba [4]byte
			if _, err := io.ReadFull(r, rgba[:]); err != nil {
				return nil, fmt.Errorf("tileset: reading colors: %w", err)
			}
			mesh.Colors[i] = color.RGBA{R: rgba[0], G: rgba[1], B: rgba[2], A: rgba[3]}
		}
	}

	mesh.Faces = make([]meshmodel.Face, nFaces)
	for i := range mesh.Faces {
		a, err := readUint32(r)
		if err != nil {
			return nil, fmt.Errorf("tileset: reading faces: %w", err)
		}
		b, err := readUint32(r)
		if err != nil {
			return nil, fmt.Errorf("tileset: reading faces: %w", err)
		}
		c, err := readUint32(r)
		if err != nil {
			return nil, fmt.Errorf("tileset: reading faces: %w", err)
		}
		mesh.Faces[i] = meshmodel.Face{int(a), int(b), int(c)}
	}

	return mesh, nil
}

func writeUint32(buf *bytes.Buffer, v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	buf.Write(b[:])
}

func writeFloat32(buf *bytes.Buffer, v float64) {
	writeUint32(buf, math.Float32bits(float32(v)))
}

func writeVec3(buf *bytes.Buffer, v spatial.Vec3) {
	writeFloat32(buf, v.X())
	writeFloat32(buf, v.Y())
	writeFloat32(buf, v.Z())
}

func readUint32(r *bytes.Reader) (uint32, error) {
	var b [4]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b[:]), nil
}

func readFloat32(r *bytes.Reader) (float64, error) {
	bits, err := readUint32(r)
	if err != nil {
		return 0, err
	}
	return float64(math.Float32frombits(bits)), nil
}

func readVec3(r *bytes.Reader) (spatial.Vec3, error) {
	x, err := readFloat32(r)
	if err != nil {
		return spatial.Vec3{}, err
	}
	y, err := readFloat32(r)
	if err != nil {
		return spatial.Vec3{}, err
	}
	z, err := readFloat32(r)
	if err != nil {
		return spatial.Vec3{}, err
	}
	return spatial.Vec3{x, y, z}, nil
}
