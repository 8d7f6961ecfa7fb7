package service

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/facemark/facemark-api/internal/models"
	appErrors "github.com/facemark/facemark-api/pkg/errors"
)

// AttendanceRepo is the persistence surface the ledger needs.
type AttendanceRepo interface {
	InsertIfAbsent(ctx context.Context, a *models.Attendance) (bool, error)
	ExistsOn(ctx context.Context, studentID string, day time.Time) (bool, error)
	List(ctx context.Context, filter models.AttendanceFilter) ([]models.AttendanceRecord, int64, error)
	CountOn(ctx context.Context, day time.Time) (int, error)
	DailyCounts(ctx context.Context, from, to time.Time) ([]models.DailyCount, error)
	DayRoster(ctx context.Context, day time.Time) ([]models.DayRosterEntry, error)
	DeleteDuplicates(ctx context.Context) (int64, error)
}

// StudentLookup resolves student identity for marking.
type StudentLookup interface {
	GetByID(ctx context.Context, id string) (*models.Student, error)
}

// LedgerService guards the one-mark-per-student-per-day invariant.
// A process-wide mutex serializes concurrent marks from the recognizer,
// the live sampler and manual requests; the table's unique constraint
// absorbs anything that still races past it.
type LedgerService struct {
	repo     AttendanceRepo
	students StudentLookup
	logger   *zap.Logger
	now      func() time.Time

	mu sync.Mutex
}

// NewLedgerService creates the service.
func NewLedgerService(repo AttendanceRepo, students StudentLookup, logger *zap.Logger) *LedgerService {
	return &LedgerService{repo: repo, students: students, logger: logger, now: time.Now}
}

// Mark records attendance for the student on the given day. An empty date
// means today; marks for today carry the current instant, marks for an
// explicit past day carry that day's noon so exports sort sensibly.
func (s *LedgerService) Mark(ctx context.Context, studentID, date, source string, confidence float64) (*models.MarkResult, error) {
	if _, err := s.students.GetByID(ctx, studentID); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("student %s not found", studentID))
		}
		return nil, appErrors.FromError(err)
	}

	day, markedAt, err := s.resolveDay(date)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "date must be formatted as YYYY-MM-DD")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	exists, err := s.repo.ExistsOn(ctx, studentID, day)
	if err != nil {
		return nil, appErrors.FromError(err)
	}
	if exists {
		return &models.MarkResult{StudentID: studentID, AttendedOn: day, Marked: false, Duplicate: true}, nil
	}

	record := &models.Attendance{
		StudentID:  studentID,
		AttendedOn: day,
		MarkedAt:   markedAt,
		Source:     source,
		Confidence: confidence,
	}
	inserted, err := s.repo.InsertIfAbsent(ctx, record)
	if err != nil {
		return nil, appErrors.FromError(err)
	}
	if inserted {
		s.logger.Info("attendance marked",
			zap.String("student_id", studentID),
			zap.Time("attended_on", day),
			zap.String("source", source))
	}
	return &models.MarkResult{
		StudentID:  studentID,
		AttendedOn: day,
		Marked:     inserted,
		Duplicate:  !inserted,
	}, nil
}

// List returns attendance records matching the filter.
func (s *LedgerService) List(ctx context.Context, filter models.AttendanceFilter) ([]models.AttendanceRecord, *models.Pagination, error) {
	records, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.FromError(err)
	}
	return records, models.NewPagination(filter.Page, filter.PerPage, total), nil
}

// DayRoster returns every student with their presence state for the day.
// An empty date means today.
func (s *LedgerService) DayRoster(ctx context.Context, date string) ([]models.DayRosterEntry, error) {
	day, _, err := s.resolveDay(date)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "date must be formatted as YYYY-MM-DD")
	}
	roster, err := s.repo.DayRoster(ctx, day)
	if err != nil {
		return nil, appErrors.FromError(err)
	}
	return roster, nil
}

// CleanupDuplicates repairs (student, day) duplicates, keeping the
// earliest mark per pair.
func (s *LedgerService) CleanupDuplicates(ctx context.Context) (int64, error) {
	removed, err := s.repo.DeleteDuplicates(ctx)
	if err != nil {
		return 0, appErrors.FromError(err)
	}
	if removed > 0 {
		s.logger.Warn("removed duplicate attendance rows", zap.Int64("count", removed))
	}
	return removed, nil
}

func (s *LedgerService) resolveDay(date string) (day, markedAt time.Time, err error) {
	now := s.now()
	if date == "" {
		day = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
		return day, now, nil
	}
	parsed, err := time.Parse("2006-01-02", date)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	day = parsed
	markedAt = parsed.Add(12 * time.Hour)
	return day, markedAt, nil
}
