package service

import (
	"context"
	"database/sql"

	"go.uber.org/zap"

	"github.com/facemark/facemark-api/internal/models"
	"github.com/facemark/facemark-api/internal/vision"
	appErrors "github.com/facemark/facemark-api/pkg/errors"
	"github.com/facemark/facemark-api/pkg/storage"
)

// EnrollmentService stores face uploads into the per-student dataset.
// An upload is accepted only when it decodes and contains a face, so the
// dataset stays clean for the trainer.
type EnrollmentService struct {
	dataset   *storage.DatasetStore
	extractor EmbeddingExtractor
	students  StudentRepo
	logger    *zap.Logger
}

// StudentRepo is the student persistence surface services share.
type StudentRepo interface {
	StudentLookup
	Create(ctx context.Context, s *models.Student) error
	List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int64, error)
	Update(ctx context.Context, id string, req models.UpdateStudentRequest) error
	SetEnrollment(ctx context.Context, id string, photoCount int, enrolled bool) error
	Delete(ctx context.Context, id string) error
	CountEnrolled(ctx context.Context) (int, error)
	CountAll(ctx context.Context) (int, error)
}

// NewEnrollmentService creates the service.
func NewEnrollmentService(
	dataset *storage.DatasetStore,
	extractor EmbeddingExtractor,
	students StudentRepo,
	logger *zap.Logger,
) *EnrollmentService {
	return &EnrollmentService{dataset: dataset, extractor: extractor, students: students, logger: logger}
}

// AddImages validates and stores a batch of face uploads for a student.
// Images without a detectable face are rejected individually; the batch
// succeeds as long as the student exists.
func (s *EnrollmentService) AddImages(ctx context.Context, studentID string, images [][]byte) (*models.EnrollmentResult, error) {
	if _, err := s.students.GetByID(ctx, studentID); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.FromError(err)
	}
	if len(images) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "at least one image is required")
	}

	result := &models.EnrollmentResult{StudentID: studentID}
	for i, data := range images {
		img, err := vision.Decode(data)
		if err != nil {
			result.Rejected++
			continue
		}
		if _, err := s.extractor.ExtractFirst(img); err != nil {
			result.Rejected++
			continue
		}
		if _, err := s.dataset.SaveImage(studentID, i, data); err != nil {
			return nil, appErrors.FromError(err)
		}
		result.Saved++
	}

	count, err := s.dataset.CountImages(studentID)
	if err != nil {
		return nil, appErrors.FromError(err)
	}
	result.PhotoCount = count

	if err := s.students.SetEnrollment(ctx, studentID, count, count > 0); err != nil {
		return nil, appErrors.FromError(err)
	}
	s.logger.Info("enrollment images stored",
		zap.String("student_id", studentID),
		zap.Int("saved", result.Saved),
		zap.Int("rejected", result.Rejected))
	return result, nil
}

// Count reports how many face images are stored for a student.
func (s *EnrollmentService) Count(ctx context.Context, studentID string) (int, error) {
	if _, err := s.students.GetByID(ctx, studentID); err != nil {
		if err == sql.ErrNoRows {
			return 0, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return 0, appErrors.FromError(err)
	}
	count, err := s.dataset.CountImages(studentID)
	if err != nil {
		return 0, appErrors.FromError(err)
	}
	return count, nil
}

// RemoveAll deletes a student's dataset folder and clears the flags.
func (s *EnrollmentService) RemoveAll(ctx context.Context, studentID string) error {
	if err := s.dataset.RemoveStudent(studentID); err != nil {
		return appErrors.FromError(err)
	}
	if err := s.students.SetEnrollment(ctx, studentID, 0, false); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return appErrors.FromError(err)
	}
	return nil
}
