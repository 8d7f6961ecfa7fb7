package vision

import (
	"fmt"
	"image"
	"sync"

	"gocv.io/x/gocv"
)

// Detector locates faces in a frame. Implementations are safe for
// concurrent use.
type Detector interface {
	Detect(img image.Image) ([]image.Rectangle, error)
	Close() error
}

// CascadeDetector finds frontal faces with a Haar cascade.
// OpenCV classifiers are not reentrant, so detection is serialized.
type CascadeDetector struct {
	mu         sync.Mutex
	classifier gocv.CascadeClassifier
}

// NewCascadeDetector loads the cascade definition from an XML file.
func NewCascadeDetector(cascadeFile string) (*CascadeDetector, error) {
	classifier := gocv.NewCascadeClassifier()
	if !classifier.Load(cascadeFile) {
		classifier.Close()
		return nil, fmt.Errorf("load cascade file %q", cascadeFile)
	}
	return &CascadeDetector{classifier: classifier}, nil
}

// Detect returns face bounding boxes in reading order of discovery.
func (d *CascadeDetector) Detect(img image.Image) ([]image.Rectangle, error) {
	mat, err := gocv.ImageToMatRGB(img)
	if err != nil {
		return nil, fmt.Errorf("convert image to mat: %w", err)
	}
	defer mat.Close()

	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(mat, &gray, gocv.ColorRGBToGray)

	d.mu.Lock()
	rects := d.classifier.DetectMultiScaleWithParams(
		gray, 1.1, 4, 0, image.Point{}, image.Point{},
	)
	d.mu.Unlock()
	return rects, nil
}

// Close releases the underlying classifier.
func (d *CascadeDetector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.classifier.Close()
}

// LongRangeDetector finds faces with a single-shot detector network.
// It holds up better than the cascade on small or angled faces, so the
// live sampler prefers it when model files are configured.
type LongRangeDetector struct {
	mu        sync.Mutex
	net       gocv.Net
	threshold float32
}

// NewLongRangeDetector loads a Caffe SSD face model.
func NewLongRangeDetector(modelFile, configFile string) (*LongRangeDetector, error) {
	net := gocv.ReadNetFromCaffe(configFile, modelFile)
	if net.Empty() {
		return nil, fmt.Errorf("load dnn model %q", modelFile)
	}
	return &LongRangeDetector{net: net, threshold: 0.5}, nil
}

// Detect runs one forward pass and returns boxes above the score threshold.
func (d *LongRangeDetector) Detect(img image.Image) ([]image.Rectangle, error) {
	mat, err := gocv.ImageToMatRGB(img)
	if err != nil {
		return nil, fmt.Errorf("convert image to mat: %w", err)
	}
	defer mat.Close()

	blob := gocv.BlobFromImage(mat, 1.0, image.Pt(300, 300),
		gocv.NewScalar(104, 177, 123, 0), false, false)
	defer blob.Close()

	d.mu.Lock()
	d.net.SetInput(blob, "")
	detections := d.net.Forward("")
	d.mu.Unlock()
	defer detections.Close()

	width := float32(mat.Cols())
	height := float32(mat.Rows())
	var rects []image.Rectangle
	for i := 0; i < detections.Total(); i += 7 {
		score := detections.GetFloatAt(0, i+2)
		if score < d.threshold {
			continue
		}
		x0 := int(detections.GetFloatAt(0, i+3) * width)
		y0 := int(detections.GetFloatAt(0, i+4) * height)
		x1 := int(detections.GetFloatAt(0, i+5) * width)
		y1 := int(detections.GetFloatAt(0, i+6) * height)
		rects = append(rects, image.Rect(x0, y0, x1, y1))
	}
	return rects, nil
}

// Close releases the network.
func (d *LongRangeDetector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.net.Close()
}
