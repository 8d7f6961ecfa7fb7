package vision

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func solidImage(w, h int, c color.Color) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func TestEmbedSizeAndRange(t *testing.T) {
	vec := Embed(solidImage(100, 80, color.RGBA{R: 200, G: 100, B: 50, A: 255}))
	require.Len(t, vec, EmbeddingSize)
	for _, v := range vec {
		assert.GreaterOrEqual(t, v, float32(0))
		assert.LessOrEqual(t, v, float32(1))
	}
}

func TestEmbedDeterministic(t *testing.T) {
	img := solidImage(64, 64, color.RGBA{R: 10, G: 220, B: 130, A: 255})
	first := Embed(img)
	second := Embed(img)
	assert.Equal(t, first, second)
}

func TestEmbedGrayscaleExtremes(t *testing.T) {
	white := Embed(solidImage(40, 40, color.White))
	black := Embed(solidImage(40, 40, color.Black))
	assert.InDelta(t, 1.0, float64(white[0]), 0.01)
	assert.InDelta(t, 0.0, float64(black[0]), 0.01)
}

func TestCropClipsToBounds(t *testing.T) {
	src := solidImage(50, 50, color.White)
	out := Crop(src, image.Rect(40, 40, 120, 120))
	assert.Equal(t, 10, out.Bounds().Dx())
	assert.Equal(t, 10, out.Bounds().Dy())
}
