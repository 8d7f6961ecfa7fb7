package service

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/facemark/facemark-api/internal/models"
)

type memoryAttendanceRepo struct {
	mu      sync.Mutex
	rows    map[string]models.Attendance
	inserts int
}

func newMemoryAttendanceRepo() *memoryAttendanceRepo {
	return &memoryAttendanceRepo{rows: make(map[string]models.Attendance)}
}

func attendanceKey(studentID string, day time.Time) string {
	return studentID + "|" + day.Format("2006-01-02")
}

func (r *memoryAttendanceRepo) InsertIfAbsent(_ context.Context, a *models.Attendance) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := attendanceKey(a.StudentID, a.AttendedOn)
	if _, ok := r.rows[key]; ok {
		return false, nil
	}
	a.ID = int64(len(r.rows) + 1)
	r.rows[key] = *a
	r.inserts++
	return true, nil
}

func (r *memoryAttendanceRepo) ExistsOn(_ context.Context, studentID string, day time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.rows[attendanceKey(studentID, day)]
	return ok, nil
}

func (r *memoryAttendanceRepo) List(context.Context, models.AttendanceFilter) ([]models.AttendanceRecord, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	records := make([]models.AttendanceRecord, 0, len(r.rows))
	for _, row := range r.rows {
		records = append(records, models.AttendanceRecord{Attendance: row})
	}
	return records, int64(len(records)), nil
}

func (r *memoryAttendanceRepo) CountOn(_ context.Context, day time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for _, row := range r.rows {
		if row.AttendedOn.Equal(day) {
			count++
		}
	}
	return count, nil
}

func (r *memoryAttendanceRepo) DailyCounts(context.Context, time.Time, time.Time) ([]models.DailyCount, error) {
	return nil, nil
}

func (r *memoryAttendanceRepo) DayRoster(context.Context, time.Time) ([]models.DayRosterEntry, error) {
	return nil, nil
}

func (r *memoryAttendanceRepo) DeleteDuplicates(context.Context) (int64, error) {
	return 0, nil
}

type fakeStudentLookup struct {
	known map[string]*models.Student
}

func (f *fakeStudentLookup) GetByID(_ context.Context, id string) (*models.Student, error) {
	if student, ok := f.known[id]; ok {
		return student, nil
	}
	return nil, sql.ErrNoRows
}

func newLedger(repo AttendanceRepo, students StudentLookup) *LedgerService {
	return NewLedgerService(repo, students, zap.NewNop())
}

func knownStudents(ids ...string) *fakeStudentLookup {
	lookup := &fakeStudentLookup{known: make(map[string]*models.Student)}
	for _, id := range ids {
		lookup.known[id] = &models.Student{ID: id, FullName: "Student " + id}
	}
	return lookup
}

func TestMarkFirstTime(t *testing.T) {
	repo := newMemoryAttendanceRepo()
	ledger := newLedger(repo, knownStudents("s001"))

	result, err := ledger.Mark(context.Background(), "s001", "2026-09-01", models.SourceManual, 1)
	require.NoError(t, err)
	assert.True(t, result.Marked)
	assert.False(t, result.Duplicate)
	assert.Equal(t, 1, repo.inserts)
}

func TestMarkSameDayIsDuplicate(t *testing.T) {
	repo := newMemoryAttendanceRepo()
	ledger := newLedger(repo, knownStudents("s001"))

	first, err := ledger.Mark(context.Background(), "s001", "2026-09-01", models.SourceManual, 1)
	require.NoError(t, err)
	require.True(t, first.Marked)

	second, err := ledger.Mark(context.Background(), "s001", "2026-09-01", models.SourceLive, 0.8)
	require.NoError(t, err)
	assert.False(t, second.Marked)
	assert.True(t, second.Duplicate)
	assert.Equal(t, 1, repo.inserts)
}

func TestMarkDifferentDaysBothStick(t *testing.T) {
	repo := newMemoryAttendanceRepo()
	ledger := newLedger(repo, knownStudents("s001"))

	first, err := ledger.Mark(context.Background(), "s001", "2026-08-31", models.SourceManual, 1)
	require.NoError(t, err)
	second, err := ledger.Mark(context.Background(), "s001", "2026-09-01", models.SourceManual, 1)
	require.NoError(t, err)

	assert.True(t, first.Marked)
	assert.True(t, second.Marked)
	assert.Equal(t, 2, repo.inserts)
}

func TestMarkConcurrentSingleInsert(t *testing.T) {
	repo := newMemoryAttendanceRepo()
	ledger := newLedger(repo, knownStudents("s001"))

	const writers = 32
	var wg sync.WaitGroup
	results := make([]*models.MarkResult, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			result, err := ledger.Mark(context.Background(), "s001", "2026-09-01", models.SourceLive, 0.9)
			if !assert.NoError(t, err) {
				return
			}
			results[i] = result
		}(i)
	}
	wg.Wait()

	marked := 0
	for _, result := range results {
		require.NotNil(t, result)
		if result.Marked {
			marked++
		} else {
			assert.True(t, result.Duplicate)
		}
	}
	assert.Equal(t, 1, marked)
	assert.Equal(t, 1, repo.inserts)
}

func TestMarkUnknownStudent(t *testing.T) {
	ledger := newLedger(newMemoryAttendanceRepo(), knownStudents())

	_, err := ledger.Mark(context.Background(), "ghost", "", models.SourceManual, 1)
	assert.Error(t, err)
}

func TestMarkBadDate(t *testing.T) {
	ledger := newLedger(newMemoryAttendanceRepo(), knownStudents("s001"))

	_, err := ledger.Mark(context.Background(), "s001", "01-09-2026", models.SourceManual, 1)
	assert.Error(t, err)
}

func TestMarkExplicitDateUsesNoon(t *testing.T) {
	repo := newMemoryAttendanceRepo()
	ledger := newLedger(repo, knownStudents("s001"))

	_, err := ledger.Mark(context.Background(), "s001", "2026-09-01", models.SourceManual, 1)
	require.NoError(t, err)

	row := repo.rows[attendanceKey("s001", time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC))]
	assert.Equal(t, 12, row.MarkedAt.Hour())
}

func TestMarkEmptyDateMeansToday(t *testing.T) {
	repo := newMemoryAttendanceRepo()
	ledger := newLedger(repo, knownStudents("s001"))
	fixed := time.Date(2026, 9, 1, 10, 30, 0, 0, time.UTC)
	ledger.now = func() time.Time { return fixed }

	result, err := ledger.Mark(context.Background(), "s001", "", models.SourceRecognition, 0.95)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC), result.AttendedOn)

	row := repo.rows[attendanceKey("s001", result.AttendedOn)]
	assert.Equal(t, fixed, row.MarkedAt)
}
