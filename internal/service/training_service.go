package service

import (
	"context"
	"fmt"
	"image"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/facemark/facemark-api/internal/classifier"
	"github.com/facemark/facemark-api/internal/models"
	"github.com/facemark/facemark-api/internal/vision"
	appErrors "github.com/facemark/facemark-api/pkg/errors"
	"github.com/facemark/facemark-api/pkg/storage"
)

// EmbeddingExtractor turns a decoded image into its first face embedding.
type EmbeddingExtractor interface {
	ExtractFirst(img image.Image) (vision.Sample, error)
}

// ModelSaver persists trained models.
type ModelSaver interface {
	Save(m *classifier.Model) error
}

// EnrollmentFlagger records per-student dataset state after training.
type EnrollmentFlagger interface {
	SetEnrollment(ctx context.Context, id string, photoCount int, enrolled bool) error
}

// TrainingService runs the extract-fit-save pipeline. Only one run may be
// in flight; progress is exposed as immutable snapshots swapped under a
// short lock so status reads never block the pipeline.
type TrainingService struct {
	dataset   *storage.DatasetStore
	extractor EmbeddingExtractor
	saver     ModelSaver
	students  EnrollmentFlagger
	neighbors int
	logger    *zap.Logger

	mu       sync.Mutex
	running  bool
	snapshot models.TrainingStatus
}

// NewTrainingService creates the service.
func NewTrainingService(
	dataset *storage.DatasetStore,
	extractor EmbeddingExtractor,
	saver ModelSaver,
	students EnrollmentFlagger,
	neighbors int,
	logger *zap.Logger,
) *TrainingService {
	return &TrainingService{
		dataset:   dataset,
		extractor: extractor,
		saver:     saver,
		students:  students,
		neighbors: neighbors,
		logger:    logger,
		snapshot:  models.TrainingStatus{Stage: models.StageIdle},
	}
}

// Status returns the latest progress snapshot.
func (s *TrainingService) Status() models.TrainingStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot
}

// Start claims the single training slot. It returns ErrAlreadyRunning when
// a run is in flight; otherwise the caller must invoke Run to execute.
func (s *TrainingService) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return appErrors.ErrAlreadyRunning
	}
	s.running = true
	s.snapshot = models.TrainingStatus{
		Running:   true,
		Progress:  0,
		Stage:     models.StageExtracting,
		StartedAt: time.Now().UTC(),
	}
	return nil
}

// Abort releases a claimed run slot without executing, recording the
// reason. Used when the run could not be scheduled.
func (s *TrainingService) Abort(err error) {
	s.fail(err)
}

// Run executes the pipeline after a successful Start. It is meant to be
// called from a background job. A panicking run is reported through the
// status snapshot like any other failure.
func (s *TrainingService) Run(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("training panicked: %v", r)
			s.fail(err)
		}
	}()
	if err = s.train(ctx); err != nil {
		s.fail(err)
		return err
	}
	return nil
}

func (s *TrainingService) train(ctx context.Context) error {
	started := s.Status().StartedAt

	studentIDs, err := s.dataset.StudentIDs()
	if err != nil {
		return err
	}
	if len(studentIDs) == 0 {
		return appErrors.Clone(appErrors.ErrValidation, "no students enrolled")
	}
	s.publish(models.TrainingStatus{
		Running: true, Progress: 5, Stage: models.StageExtracting,
		Students: len(studentIDs), StartedAt: started,
	})

	var labels []string
	var vectors []vision.Embedding
	for i, studentID := range studentIDs {
		if err := ctx.Err(); err != nil {
			return err
		}
		paths, err := s.dataset.ImagePaths(studentID)
		if err != nil {
			return err
		}
		count := 0
		for _, path := range paths {
			sample, err := s.embedFile(path)
			if err != nil {
				// Unreadable uploads and faceless shots are skipped, not fatal.
				s.logger.Debug("skipping dataset image",
					zap.String("path", path), zap.Error(err))
				continue
			}
			labels = append(labels, studentID)
			vectors = append(vectors, sample.Vector)
			count++
		}
		if s.students != nil {
			if err := s.students.SetEnrollment(ctx, studentID, len(paths), count > 0); err != nil {
				s.logger.Warn("update enrollment state",
					zap.String("student_id", studentID), zap.Error(err))
			}
		}
		// Extraction spans 5..80 of the progress scale.
		progress := 5 + int(float64(i+1)/float64(len(studentIDs))*75)
		s.publish(models.TrainingStatus{
			Running: true, Progress: progress, Stage: models.StageExtracting,
			Students: len(studentIDs), Samples: len(vectors), StartedAt: started,
		})
	}

	if len(vectors) == 0 {
		// Nothing to learn from. Leave any previous artifact untouched.
		return appErrors.Clone(appErrors.ErrValidation, "no usable face images in dataset")
	}

	s.publish(models.TrainingStatus{
		Running: true, Progress: 85, Stage: models.StageFitting,
		Students: len(studentIDs), Samples: len(vectors), StartedAt: started,
	})
	model := classifier.NewModel(s.neighbors)
	if err := model.Fit(labels, vectors); err != nil {
		return err
	}

	s.publish(models.TrainingStatus{
		Running: true, Progress: 95, Stage: models.StageSaving,
		Students: len(studentIDs), Samples: len(vectors), StartedAt: started,
	})
	if err := s.saver.Save(model); err != nil {
		return err
	}

	s.mu.Lock()
	s.running = false
	s.snapshot = models.TrainingStatus{
		Running:    false,
		Progress:   100,
		Stage:      models.StageDone,
		Students:   len(studentIDs),
		Samples:    len(vectors),
		StartedAt:  started,
		FinishedAt: time.Now().UTC(),
	}
	s.mu.Unlock()

	s.logger.Info("training completed",
		zap.Int("students", len(studentIDs)),
		zap.Int("samples", len(vectors)))
	return nil
}

func (s *TrainingService) embedFile(path string) (vision.Sample, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return vision.Sample{}, err
	}
	img, err := vision.Decode(data)
	if err != nil {
		return vision.Sample{}, err
	}
	return s.extractor.ExtractFirst(img)
}

func (s *TrainingService) publish(snapshot models.TrainingStatus) {
	s.mu.Lock()
	s.snapshot = snapshot
	s.mu.Unlock()
}

// fail resets the run slot; progress drops back to zero so clients see a
// clean failed state rather than a stuck percentage.
func (s *TrainingService) fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.running = false
	s.snapshot = models.TrainingStatus{
		Running:    false,
		Progress:   0,
		Stage:      models.StageFailed,
		Error:      err.Error(),
		StartedAt:  s.snapshot.StartedAt,
		FinishedAt: time.Now().UTC(),
	}
	s.logger.Error("training failed", zap.Error(err))
}
