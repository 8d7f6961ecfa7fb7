package vision

import (
	"bytes"
	"errors"
	"fmt"
	"image"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
)

// ErrNoFace indicates the detector found no face in the image.
var ErrNoFace = errors.New("no face detected")

// Sample pairs a face embedding with the box it came from.
type Sample struct {
	Vector Embedding
	Region image.Rectangle
}

// Extractor turns raw images into face embeddings using a Detector.
type Extractor struct {
	detector Detector
}

// NewExtractor builds an extractor on top of the given detector.
func NewExtractor(detector Detector) *Extractor {
	return &Extractor{detector: detector}
}

// Decode parses raw bytes into an image. JPEG, PNG, GIF and BMP register
// themselves through the underscore imports above.
func Decode(data []byte) (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	return img, nil
}

// ExtractFirst embeds the first detected face. When several faces are
// present the detector's first box wins; the choice is arbitrary but
// stable for a given detector and image.
func (e *Extractor) ExtractFirst(img image.Image) (Sample, error) {
	rects, err := e.detector.Detect(img)
	if err != nil {
		return Sample{}, fmt.Errorf("detect faces: %w", err)
	}
	if len(rects) == 0 {
		return Sample{}, ErrNoFace
	}
	region := rects[0]
	return Sample{Vector: Embed(Crop(img, region)), Region: region}, nil
}

// ExtractAll embeds every detected face.
func (e *Extractor) ExtractAll(img image.Image) ([]Sample, error) {
	rects, err := e.detector.Detect(img)
	if err != nil {
		return nil, fmt.Errorf("detect faces: %w", err)
	}
	samples := make([]Sample, 0, len(rects))
	for _, region := range rects {
		samples = append(samples, Sample{Vector: Embed(Crop(img, region)), Region: region})
	}
	return samples, nil
}
