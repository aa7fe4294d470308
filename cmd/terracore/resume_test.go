package main

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestToRGBAPassesThroughExistingRGBA(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 2, 2))
	src.Set(0, 0, color.RGBA{R: 1, G: 2, B: 3, A: 255})
	got := toRGBA(src)
	require.Same(t, src, got)
}

func TestToRGBAConvertsOtherImageTypes(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	src.Set(1, 1, color.NRGBA{R: 10, G: 20, B: 30, A: 255})

	got := toRGBA(src)
	r, g, b, _ := got.At(1, 1).RGBA()
	require.Equal(t, uint32(10), r>>8)
	require.Equal(t, uint32(20), g>>8)
	require.Equal(t, uint32(30), b>>8)
}

func TestTextureFormatFromExt(t *testing.T) {
	require.Equal(t, "png", textureFormatFromExt("0000000000000001.png"))
	require.Equal(t, "webp", textureFormatFromExt("0000000000000001.webp"))
	require.Equal(t, "jpeg", textureFormatFromExt("0000000000000001.jpg"))
	require.Equal(t, "jpeg", textureFormatFromExt("0000000000000001"))
}
