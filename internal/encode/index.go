package encode

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
)

// IndexImage is a texel provenance image: for each texel, the observation
// index that contributed it plus the source pixel row/column it was sampled
// from. A zero observation index means "unassigned" (spec §3 Texel
// Provenance Record).
//
// Backed by image.RGBA64 so all three bands and the fixed alpha channel
// round-trip losslessly through 16-bit PNG.
type IndexImage struct {
	Pix *image.RGBA64
}

// NewIndexImage allocates a zeroed index image of the given size.
func NewIndexImage(w, h int) *IndexImage {
	return &IndexImage{Pix: image.NewRGBA64(image.Rect(0, 0, w, h))}
}

// Set records provenance for one texel. obsIndex, row, col are all
// non-negative; obsIndex 0 means unassigned and should never be paired with
// a nonzero row/col.
func (ii *IndexImage) Set(x, y int, obsIndex, row, col uint16) {
	ii.Pix.SetRGBA64(x, y, color.RGBA64{R: obsIndex, G: row, B: col, A: 0xffff})
}

// At returns the recorded provenance for one texel.
func (ii *IndexImage) At(x, y int) (obsIndex, row, col uint16) {
	c := ii.Pix.RGBA64At(x, y)
	return c.R, c.G, c.B
}

// IndexImageEncoder encodes provenance index images as 16-bit-per-channel
// PNG. Mirrors the Encoder interface so the same pipeline plumbing that
// writes texture images can write index images.
type IndexImageEncoder struct{}

func (e *IndexImageEncoder) Encode(img image.Image) ([]byte, error) {
	rgba64, ok := img.(*image.RGBA64)
	if !ok {
		return nil, fmt.Errorf("index image encoder requires *image.RGBA64, got %T", img)
	}
	var buf bytes.Buffer
	enc := &png.Encoder{CompressionLevel: png.BestSpeed}
	if err := enc.Encode(&buf, rgba64); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (e *IndexImageEncoder) Format() string        { return "png16" }
func (e *IndexImageEncoder) FileExtension() string { return ".idx.png" }

// DecodeIndexImage decodes a 16-bit PNG provenance image.
func DecodeIndexImage(data []byte) (*IndexImage, error) {
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decoding index image: %w", err)
	}
	rgba64, ok := img.(*image.RGBA64)
	if !ok {
		return nil, fmt.Errorf("index image is not 16-bit RGBA (got %T)", img)
	}
	return &IndexImage{Pix: rgba64}, nil
}
