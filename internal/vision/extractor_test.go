package vision

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDetector struct {
	rects []image.Rectangle
	err   error
}

func (d *fakeDetector) Detect(image.Image) ([]image.Rectangle, error) {
	return d.rects, d.err
}

func (d *fakeDetector) Close() error { return nil }

func TestExtractFirstNoFace(t *testing.T) {
	extractor := NewExtractor(&fakeDetector{})
	_, err := extractor.ExtractFirst(solidImage(64, 64, color.White))
	assert.ErrorIs(t, err, ErrNoFace)
}

func TestExtractFirstPicksFirstRegion(t *testing.T) {
	first := image.Rect(0, 0, 20, 20)
	second := image.Rect(30, 30, 60, 60)
	extractor := NewExtractor(&fakeDetector{rects: []image.Rectangle{first, second}})

	sample, err := extractor.ExtractFirst(solidImage(64, 64, color.White))
	require.NoError(t, err)
	assert.Equal(t, first, sample.Region)
	assert.Len(t, sample.Vector, EmbeddingSize)
}

func TestExtractAll(t *testing.T) {
	rects := []image.Rectangle{
		image.Rect(0, 0, 10, 10),
		image.Rect(20, 20, 40, 40),
		image.Rect(5, 5, 30, 30),
	}
	extractor := NewExtractor(&fakeDetector{rects: rects})

	samples, err := extractor.ExtractAll(solidImage(64, 64, color.Black))
	require.NoError(t, err)
	require.Len(t, samples, 3)
	for i, sample := range samples {
		assert.Equal(t, rects[i], sample.Region)
		assert.Len(t, sample.Vector, EmbeddingSize)
	}
}

func TestExtractDetectorError(t *testing.T) {
	wantErr := errors.New("camera unplugged")
	extractor := NewExtractor(&fakeDetector{err: wantErr})

	_, err := extractor.ExtractFirst(solidImage(10, 10, color.White))
	assert.ErrorIs(t, err, wantErr)
	_, err = extractor.ExtractAll(solidImage(10, 10, color.White))
	assert.ErrorIs(t, err, wantErr)
}

func TestDecodeJPEG(t *testing.T) {
	buf := &bytes.Buffer{}
	require.NoError(t, jpeg.Encode(buf, solidImage(16, 16, color.White), nil))

	img, err := Decode(buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, 16, img.Bounds().Dx())
}

func TestDecodeGarbage(t *testing.T) {
	_, err := Decode([]byte("definitely not an image"))
	assert.Error(t, err)
}
