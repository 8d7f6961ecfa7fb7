package stream

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"sync"

	"go.uber.org/zap"

	"github.com/facemark/facemark-api/internal/classifier"
	"github.com/facemark/facemark-api/internal/models"
	"github.com/facemark/facemark-api/internal/vision"
)

// Identifier classifies face embeddings.
type Identifier interface {
	Identify(vec vision.Embedding) (classifier.Prediction, error)
	Threshold() float64
}

// Marker records attendance for recognized identities.
type Marker interface {
	Mark(ctx context.Context, studentID, date, source string, confidence float64) (*models.MarkResult, error)
}

// NameResolver maps student ids to display names.
type NameResolver interface {
	GetByID(ctx context.Context, id string) (*models.Student, error)
}

// FrameObserver counts sampled frames, satisfied by the metrics service.
type FrameObserver interface {
	ObserveFrameSampled()
}

// SamplerConfig tunes the live pipeline.
type SamplerConfig struct {
	DetectionInterval int
	JPEGQuality       int
}

// Sampler pulls frames from a camera, runs detection on every Nth frame
// and marks attendance for confident matches. Every frame is annotated
// with the latest detections and published to stream subscribers.
type Sampler struct {
	source     FrameSource
	detector   vision.Detector
	identifier Identifier
	marker     Marker
	names      NameResolver
	dedupe     *DedupeCache
	overlay    *Overlay
	observer   FrameObserver
	cfg        SamplerConfig
	logger     *zap.Logger

	mu          sync.Mutex
	subscribers map[chan []byte]struct{}
	lastLabels  []Label
	running     bool
}

// NewSampler wires the live pipeline.
func NewSampler(
	source FrameSource,
	detector vision.Detector,
	identifier Identifier,
	marker Marker,
	names NameResolver,
	dedupe *DedupeCache,
	overlay *Overlay,
	observer FrameObserver,
	cfg SamplerConfig,
	logger *zap.Logger,
) *Sampler {
	if cfg.DetectionInterval <= 0 {
		cfg.DetectionInterval = 30
	}
	if cfg.JPEGQuality <= 0 {
		cfg.JPEGQuality = 80
	}
	return &Sampler{
		source:      source,
		detector:    detector,
		identifier:  identifier,
		marker:      marker,
		names:       names,
		dedupe:      dedupe,
		overlay:     overlay,
		observer:    observer,
		cfg:         cfg,
		logger:      logger,
		subscribers: make(map[chan []byte]struct{}),
	}
}

// Running reports whether the capture loop is active.
func (s *Sampler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Subscribe registers a stream consumer. The returned cancel func must be
// called when the consumer goes away. Slow consumers drop frames.
func (s *Sampler) Subscribe() (<-chan []byte, func()) {
	ch := make(chan []byte, 4)
	s.mu.Lock()
	s.subscribers[ch] = struct{}{}
	s.mu.Unlock()
	return ch, func() {
		s.mu.Lock()
		delete(s.subscribers, ch)
		s.mu.Unlock()
	}
}

// Run drives the capture loop until the context ends or the camera dies.
// A failed read is fatal for the loop; per-frame detection errors only
// skip that frame's annotation refresh.
func (s *Sampler) Run(ctx context.Context) error {
	s.setRunning(true)
	defer s.setRunning(false)
	s.dedupe.Start(ctx)
	defer s.dedupe.Stop()

	frameCount := 0
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		frame, err := s.source.Read()
		if err != nil {
			s.logger.Error("camera read failed, stopping live sampler", zap.Error(err))
			return fmt.Errorf("read frame: %w", err)
		}
		frameCount++

		if frameCount%s.cfg.DetectionInterval == 0 {
			if labels, err := s.sample(ctx, frame); err != nil {
				s.logger.Warn("frame detection failed", zap.Error(err))
			} else {
				s.mu.Lock()
				s.lastLabels = labels
				s.mu.Unlock()
			}
		}

		s.publish(frame)
	}
}

func (s *Sampler) sample(ctx context.Context, frame image.Image) ([]Label, error) {
	if s.observer != nil {
		s.observer.ObserveFrameSampled()
	}
	rects, err := s.detector.Detect(frame)
	if err != nil {
		return nil, err
	}

	labels := make([]Label, 0, len(rects))
	for _, region := range rects {
		label := Label{Region: region, Text: "Unknown"}
		vec := vision.Embed(vision.Crop(frame, region))
		pred, err := s.identifier.Identify(vec)
		if err == nil && pred.Confidence >= s.identifier.Threshold() {
			label.Known = true
			name := pred.Label
			if s.names != nil {
				if student, err := s.names.GetByID(ctx, pred.Label); err == nil {
					name = student.FullName
				}
			}
			label.Text = fmt.Sprintf("%s %.2f", name, pred.Confidence)
			if !s.dedupe.Seen(pred.Label) {
				if _, err := s.marker.Mark(ctx, pred.Label, "", models.SourceLive, pred.Confidence); err != nil {
					s.logger.Warn("live mark failed",
						zap.String("student_id", pred.Label), zap.Error(err))
				}
			}
		}
		labels = append(labels, label)
	}
	return labels, nil
}

func (s *Sampler) publish(frame image.Image) {
	s.mu.Lock()
	labels := s.lastLabels
	s.mu.Unlock()

	annotated := s.overlay.Draw(frame, labels)
	buf := &bytes.Buffer{}
	if err := jpeg.Encode(buf, annotated, &jpeg.Options{Quality: s.cfg.JPEGQuality}); err != nil {
		s.logger.Warn("encode frame", zap.Error(err))
		return
	}
	data := buf.Bytes()

	s.mu.Lock()
	defer s.mu.Unlock()
	for ch := range s.subscribers {
		select {
		case ch <- data:
		default:
		}
	}
}

func (s *Sampler) setRunning(v bool) {
	s.mu.Lock()
	s.running = v
	s.mu.Unlock()
}
