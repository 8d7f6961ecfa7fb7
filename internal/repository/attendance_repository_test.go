package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/facemark/facemark-api/internal/models"
)

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return sqlx.NewDb(db, "postgres"), mock
}

func TestInsertIfAbsentInserts(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAttendanceRepository(db)

	day := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	record := &models.Attendance{
		StudentID:  "s001",
		AttendedOn: day,
		MarkedAt:   day.Add(8 * time.Hour),
		Source:     models.SourceRecognition,
		Confidence: 0.92,
	}

	mock.ExpectQuery(`INSERT INTO attendance`).
		WithArgs(record.StudentID, record.AttendedOn, record.MarkedAt, record.Source, record.Confidence).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(7)))

	inserted, err := repo.InsertIfAbsent(context.Background(), record)
	require.NoError(t, err)
	assert.True(t, inserted)
	assert.Equal(t, int64(7), record.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertIfAbsentDuplicate(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAttendanceRepository(db)

	day := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	record := &models.Attendance{
		StudentID:  "s001",
		AttendedOn: day,
		MarkedAt:   day.Add(9 * time.Hour),
		Source:     models.SourceLive,
		Confidence: 0.81,
	}

	// ON CONFLICT DO NOTHING yields no RETURNING row for duplicates.
	mock.ExpectQuery(`INSERT INTO attendance`).
		WithArgs(record.StudentID, record.AttendedOn, record.MarkedAt, record.Source, record.Confidence).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	inserted, err := repo.InsertIfAbsent(context.Background(), record)
	require.NoError(t, err)
	assert.False(t, inserted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExistsOn(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAttendanceRepository(db)

	day := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs("s001", day).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	exists, err := repo.ExistsOn(context.Background(), "s001", day)
	require.NoError(t, err)
	assert.True(t, exists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListAttendanceWithFilter(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAttendanceRepository(db)

	day := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM attendance a`).
		WithArgs("s001").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery(`SELECT a.id, a.student_id`).
		WithArgs("s001", 20, 0).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "student_id", "attended_on", "marked_at", "source", "confidence", "full_name", "class_name",
		}).AddRow(int64(1), "s001", day, day.Add(8*time.Hour), models.SourceRecognition, 0.9, "Ada Lovelace", "10-A"))

	records, total, err := repo.List(context.Background(), models.AttendanceFilter{StudentID: "s001"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, records, 1)
	assert.Equal(t, "Ada Lovelace", records[0].FullName)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDailyCounts(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAttendanceRepository(db)

	from := time.Date(2026, 8, 3, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`SELECT attended_on AS day`).
		WithArgs(from, to).
		WillReturnRows(sqlmock.NewRows([]string{"day", "count"}).
			AddRow(from, 12).
			AddRow(to, 19))

	counts, err := repo.DailyCounts(context.Background(), from, to)
	require.NoError(t, err)
	require.Len(t, counts, 2)
	assert.Equal(t, 19, counts[1].Count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteDuplicates(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAttendanceRepository(db)

	mock.ExpectExec(`DELETE FROM attendance`).
		WillReturnResult(sqlmock.NewResult(0, 3))

	removed, err := repo.DeleteDuplicates(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3), removed)
	assert.NoError(t, mock.ExpectationsWereMet())
}
