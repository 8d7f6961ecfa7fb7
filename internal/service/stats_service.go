package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/facemark/facemark-api/internal/models"
	appErrors "github.com/facemark/facemark-api/pkg/errors"
)

const statsCacheKey = "facemark:stats:overview"

// StatsService computes dashboard numbers, cached in Redis so the
// aggregate queries do not run on every page load.
type StatsService struct {
	attendance AttendanceRepo
	students   StudentRepo
	cache      *redis.Client
	ttl        time.Duration
	logger     *zap.Logger
	now        func() time.Time
}

// NewStatsService creates the service.
func NewStatsService(attendance AttendanceRepo, students StudentRepo, cache *redis.Client, ttl time.Duration, logger *zap.Logger) *StatsService {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &StatsService{
		attendance: attendance,
		students:   students,
		cache:      cache,
		ttl:        ttl,
		logger:     logger,
		now:        time.Now,
	}
}

// Overview returns roster and attendance statistics for the last 30 days.
func (s *StatsService) Overview(ctx context.Context) (*models.AttendanceStats, error) {
	if s.cache != nil {
		if raw, err := s.cache.Get(ctx, statsCacheKey).Bytes(); err == nil {
			var cached models.AttendanceStats
			if err := json.Unmarshal(raw, &cached); err == nil {
				return &cached, nil
			}
		}
	}

	stats, err := s.compute(ctx)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if raw, err := json.Marshal(stats); err == nil {
			if err := s.cache.Set(ctx, statsCacheKey, raw, s.ttl).Err(); err != nil {
				s.logger.Warn("cache stats overview", zap.Error(err))
			}
		}
	}
	return stats, nil
}

// Invalidate drops the cached overview, used after bulk changes.
func (s *StatsService) Invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, statsCacheKey).Err(); err != nil {
		s.logger.Warn("invalidate stats cache", zap.Error(err))
	}
}

func (s *StatsService) compute(ctx context.Context) (*models.AttendanceStats, error) {
	now := s.now().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	total, err := s.students.CountAll(ctx)
	if err != nil {
		return nil, appErrors.FromError(err)
	}
	enrolled, err := s.students.CountEnrolled(ctx)
	if err != nil {
		return nil, appErrors.FromError(err)
	}
	present, err := s.attendance.CountOn(ctx, today)
	if err != nil {
		return nil, appErrors.FromError(err)
	}
	counts, err := s.attendance.DailyCounts(ctx, today.AddDate(0, 0, -29), today)
	if err != nil {
		return nil, appErrors.FromError(err)
	}

	return &models.AttendanceStats{
		TotalStudents: total,
		EnrolledCount: enrolled,
		PresentToday:  present,
		Last30Days:    counts,
		GeneratedAt:   now,
	}, nil
}
