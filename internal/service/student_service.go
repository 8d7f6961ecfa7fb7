package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/facemark/facemark-api/internal/models"
	appErrors "github.com/facemark/facemark-api/pkg/errors"
	"github.com/facemark/facemark-api/pkg/storage"
)

// StudentService manages the student roster.
type StudentService struct {
	repo     StudentRepo
	dataset  *storage.DatasetStore
	validate *validator.Validate
	logger   *zap.Logger
}

// NewStudentService creates the service.
func NewStudentService(repo StudentRepo, dataset *storage.DatasetStore, logger *zap.Logger) *StudentService {
	return &StudentService{
		repo:     repo,
		dataset:  dataset,
		validate: validator.New(),
		logger:   logger,
	}
}

// Create registers a student.
func (s *StudentService) Create(ctx context.Context, req models.CreateStudentRequest) (*models.Student, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, validationMessage(err))
	}
	student := &models.Student{
		ID:            strings.TrimSpace(req.ID),
		FullName:      strings.TrimSpace(req.FullName),
		ClassName:     strings.TrimSpace(req.ClassName),
		GuardianEmail: strings.TrimSpace(req.GuardianEmail),
	}
	if err := s.repo.Create(ctx, student); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return nil, appErrors.Clone(appErrors.ErrConflict, "student id already registered")
		}
		return nil, appErrors.FromError(err)
	}
	s.logger.Info("student registered", zap.String("student_id", student.ID))
	return student, nil
}

// Get fetches one student.
func (s *StudentService) Get(ctx context.Context, id string) (*models.Student, error) {
	student, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.FromError(err)
	}
	return student, nil
}

// List returns students matching the filter.
func (s *StudentService) List(ctx context.Context, filter models.StudentFilter) ([]models.Student, *models.Pagination, error) {
	students, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.FromError(err)
	}
	return students, models.NewPagination(filter.Page, filter.PerPage, total), nil
}

// Update patches a student's mutable fields.
func (s *StudentService) Update(ctx context.Context, id string, req models.UpdateStudentRequest) (*models.Student, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, validationMessage(err))
	}
	if err := s.repo.Update(ctx, id, req); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.FromError(err)
	}
	return s.Get(ctx, id)
}

// Delete removes a student along with their dataset images.
func (s *StudentService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return appErrors.FromError(err)
	}
	if err := s.dataset.RemoveStudent(id); err != nil {
		// The roster row is gone; surviving images only waste disk.
		s.logger.Warn("remove dataset folder", zap.String("student_id", id), zap.Error(err))
	}
	s.logger.Info("student removed", zap.String("student_id", id))
	return nil
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		first := verrs[0]
		return strings.ToLower(first.Field()) + " failed on " + first.Tag()
	}
	return "validation failed"
}
