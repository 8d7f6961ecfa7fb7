package stream

import (
	"context"
	"errors"
	"image"
	"image/color"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/facemark/facemark-api/internal/classifier"
	"github.com/facemark/facemark-api/internal/models"
	"github.com/facemark/facemark-api/internal/vision"
)

type scriptedSource struct {
	frames int
	served int
}

func (s *scriptedSource) Read() (image.Image, error) {
	if s.served >= s.frames {
		return nil, errors.New("camera unplugged")
	}
	s.served++
	img := image.NewRGBA(image.Rect(0, 0, 64, 48))
	for y := 0; y < 48; y++ {
		for x := 0; x < 64; x++ {
			img.Set(x, y, color.RGBA{R: 30, G: 30, B: 30, A: 255})
		}
	}
	return img, nil
}

func (s *scriptedSource) Close() error { return nil }

type countingDetector struct {
	mu    sync.Mutex
	calls int
	rects []image.Rectangle
	err   error
}

func (d *countingDetector) Detect(image.Image) ([]image.Rectangle, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls++
	return d.rects, d.err
}

func (d *countingDetector) Close() error { return nil }

func (d *countingDetector) count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.calls
}

type fixedIdentifier struct {
	pred      classifier.Prediction
	threshold float64
	err       error
}

func (f *fixedIdentifier) Identify(vision.Embedding) (classifier.Prediction, error) {
	return f.pred, f.err
}

func (f *fixedIdentifier) Threshold() float64 { return f.threshold }

type countingMarker struct {
	mu    sync.Mutex
	calls []string
}

func (m *countingMarker) Mark(_ context.Context, studentID, _, _ string, _ float64) (*models.MarkResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, studentID)
	return &models.MarkResult{StudentID: studentID, Marked: true}, nil
}

func (m *countingMarker) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

func newTestSampler(t *testing.T, source FrameSource, detector vision.Detector, identifier Identifier, marker Marker) *Sampler {
	t.Helper()
	overlay, err := NewOverlay("")
	require.NoError(t, err)
	return NewSampler(
		source, detector, identifier, marker, nil,
		NewDedupeCache(5*time.Minute, time.Hour), overlay, nil,
		SamplerConfig{DetectionInterval: 3, JPEGQuality: 70},
		zap.NewNop(),
	)
}

func TestSamplerDetectsEveryNthFrame(t *testing.T) {
	detector := &countingDetector{}
	sampler := newTestSampler(t,
		&scriptedSource{frames: 10}, detector,
		&fixedIdentifier{threshold: 0.5}, &countingMarker{})

	err := sampler.Run(context.Background())
	assert.Error(t, err)
	// 10 frames at interval 3: detection on frames 3, 6 and 9.
	assert.Equal(t, 3, detector.count())
	assert.False(t, sampler.Running())
}

func TestSamplerMarksConfidentMatchOnce(t *testing.T) {
	detector := &countingDetector{rects: []image.Rectangle{image.Rect(4, 4, 24, 24)}}
	marker := &countingMarker{}
	sampler := newTestSampler(t,
		&scriptedSource{frames: 12}, detector,
		&fixedIdentifier{pred: classifier.Prediction{Label: "s001", Confidence: 0.9}, threshold: 0.5},
		marker)

	_ = sampler.Run(context.Background())
	// Several detections land in the same minute bucket; only the first marks.
	assert.Equal(t, 1, marker.count())
}

func TestSamplerLowConfidenceNeverMarks(t *testing.T) {
	detector := &countingDetector{rects: []image.Rectangle{image.Rect(0, 0, 16, 16)}}
	marker := &countingMarker{}
	sampler := newTestSampler(t,
		&scriptedSource{frames: 9}, detector,
		&fixedIdentifier{pred: classifier.Prediction{Label: "s001", Confidence: 0.3}, threshold: 0.5},
		marker)

	_ = sampler.Run(context.Background())
	assert.Equal(t, 0, marker.count())
}

func TestSamplerDetectionErrorsAreNotFatal(t *testing.T) {
	detector := &countingDetector{err: errors.New("detector hiccup")}
	sampler := newTestSampler(t,
		&scriptedSource{frames: 9}, detector,
		&fixedIdentifier{threshold: 0.5}, &countingMarker{})

	err := sampler.Run(context.Background())
	// The run ends on camera exhaustion, not on the detector error.
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read frame")
	assert.Equal(t, 3, detector.count())
}

func TestSamplerSubscribersReceiveFrames(t *testing.T) {
	sampler := newTestSampler(t,
		&scriptedSource{frames: 6}, &countingDetector{},
		&fixedIdentifier{threshold: 0.5}, &countingMarker{})

	frames, cancel := sampler.Subscribe()
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- sampler.Run(context.Background()) }()

	select {
	case frame := <-frames:
		// JPEG SOI marker.
		require.GreaterOrEqual(t, len(frame), 2)
		assert.Equal(t, byte(0xFF), frame[0])
		assert.Equal(t, byte(0xD8), frame[1])
	case <-time.After(5 * time.Second):
		t.Fatal("no frame received")
	}
	<-done
}

func TestSamplerContextCancelStopsRun(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	sampler := newTestSampler(t,
		&scriptedSource{frames: 1000}, &countingDetector{},
		&fixedIdentifier{threshold: 0.5}, &countingMarker{})

	err := sampler.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
