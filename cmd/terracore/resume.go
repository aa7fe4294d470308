package main

import (
	"image"
	"image/draw"
	"path/filepath"
)

// toRGBA converts any decoded image to *image.RGBA, the concrete type
// texture.BakeVertexColors and texture.Leaf's writers expect, mirroring
// the internal/encode codecs' own decode-then-convert pattern.
func toRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok {
		return rgba
	}
	b := img.Bounds()
	rgba := image.NewRGBA(b)
	draw.Draw(rgba, b, img, b.Min, draw.Src)
	return rgba
}

// textureFormatFromExt maps a published texture file's extension to the
// format name encode.DecodeImage expects.
func textureFormatFromExt(name string) string {
	switch filepath.Ext(name) {
	case ".png":
		return "png"
	case ".webp":
		return "webp"
	default:
		return "jpeg"
	}
}
