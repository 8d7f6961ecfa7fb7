package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/facemark/facemark-api/internal/classifier"
	"github.com/facemark/facemark-api/internal/models"
	"github.com/facemark/facemark-api/internal/vision"
	appErrors "github.com/facemark/facemark-api/pkg/errors"
)

// ModelProvider serves the currently loaded classifier.
type ModelProvider interface {
	Current() (*classifier.Model, error)
	Trained() bool
}

// AttendanceMarker records a day's attendance for a recognized student.
type AttendanceMarker interface {
	Mark(ctx context.Context, studentID, date, source string, confidence float64) (*models.MarkResult, error)
}

// RecognitionService identifies a face in an uploaded image and, when the
// classifier is confident enough, marks attendance through the ledger.
type RecognitionService struct {
	extractor EmbeddingExtractor
	models    ModelProvider
	ledger    AttendanceMarker
	students  StudentLookup
	threshold float64
	logger    *zap.Logger
}

// NewRecognitionService creates the service.
func NewRecognitionService(
	extractor EmbeddingExtractor,
	provider ModelProvider,
	ledger AttendanceMarker,
	students StudentLookup,
	threshold float64,
	logger *zap.Logger,
) *RecognitionService {
	if threshold <= 0 {
		threshold = 0.5
	}
	return &RecognitionService{
		extractor: extractor,
		models:    provider,
		ledger:    ledger,
		students:  students,
		threshold: threshold,
		logger:    logger,
	}
}

// Identify classifies the first face in the image without touching the
// ledger. Used by the live sampler, which marks through its own dedupe.
func (s *RecognitionService) Identify(vec vision.Embedding) (classifier.Prediction, error) {
	model, err := s.models.Current()
	if err != nil {
		if errors.Is(err, classifier.ErrNotTrained) {
			return classifier.Prediction{}, appErrors.ErrNotTrained
		}
		return classifier.Prediction{}, appErrors.FromError(err)
	}
	return model.Predict(vec)
}

// Threshold reports the minimum confidence required to accept a match.
func (s *RecognitionService) Threshold() float64 {
	return s.threshold
}

// RecognizeAndMark runs the full pipeline on raw image bytes: decode,
// detect, classify, and mark attendance for the given day when confident.
func (s *RecognitionService) RecognizeAndMark(ctx context.Context, imageData []byte, date string) (*models.RecognitionResult, error) {
	img, err := vision.Decode(imageData)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "uploaded file is not a readable image")
	}

	sample, err := s.extractor.ExtractFirst(img)
	if err != nil {
		if errors.Is(err, vision.ErrNoFace) {
			return &models.RecognitionResult{Recognized: false, Reason: "no face detected"}, nil
		}
		return nil, appErrors.FromError(err)
	}

	pred, err := s.Identify(sample.Vector)
	if err != nil {
		return nil, err
	}
	if pred.Confidence < s.threshold {
		s.logger.Debug("match below confidence threshold",
			zap.String("candidate", pred.Label),
			zap.Float64("confidence", pred.Confidence))
		return &models.RecognitionResult{
			Recognized: false,
			Confidence: pred.Confidence,
			Reason:     "no confident match",
		}, nil
	}

	result := &models.RecognitionResult{
		Recognized: true,
		StudentID:  pred.Label,
		Confidence: pred.Confidence,
	}
	if student, err := s.students.GetByID(ctx, pred.Label); err == nil {
		result.FullName = student.FullName
	}

	mark, err := s.ledger.Mark(ctx, pred.Label, date, models.SourceRecognition, pred.Confidence)
	if err != nil {
		return nil, err
	}
	result.Marked = mark.Marked
	result.Duplicate = mark.Duplicate
	attendedOn := mark.AttendedOn
	result.AttendedOn = &attendedOn
	return result, nil
}
