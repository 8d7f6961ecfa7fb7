package vision

import (
	"image"

	xdraw "golang.org/x/image/draw"
)

// EmbeddingSize is the fixed feature vector length: a 32x32 grayscale patch.
const (
	EmbeddingSide = 32
	EmbeddingSize = EmbeddingSide * EmbeddingSide
)

// Embedding is a flattened normalized grayscale patch.
type Embedding []float32

// Embed converts a face crop into its feature vector. The crop is scaled to
// 32x32 with bilinear interpolation, reduced to luma and normalized to [0, 1].
func Embed(face image.Image) Embedding {
	resized := resize(face, EmbeddingSide, EmbeddingSide)
	vec := make(Embedding, 0, EmbeddingSize)
	bounds := resized.Bounds()
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, _ := resized.At(x, y).RGBA()
			luma := 0.299*float64(r>>8) + 0.587*float64(g>>8) + 0.114*float64(b>>8)
			vec = append(vec, float32(luma/255.0))
		}
	}
	return vec
}

// Crop extracts a sub-image clipped to the source bounds.
func Crop(src image.Image, region image.Rectangle) image.Image {
	region = region.Intersect(src.Bounds())
	out := image.NewRGBA(image.Rect(0, 0, region.Dx(), region.Dy()))
	xdraw.Draw(out, out.Bounds(), src, region.Min, xdraw.Src)
	return out
}

func resize(src image.Image, width, height int) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	xdraw.BiLinear.Scale(dst, dst.Bounds(), src, src.Bounds(), xdraw.Over, nil)
	return dst
}
