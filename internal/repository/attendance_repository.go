package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/facemark/facemark-api/internal/models"
)

// AttendanceRepository persists daily attendance marks. The table carries
// UNIQUE (student_id, attended_on) so a student can be marked once per day
// no matter how many writers race.
type AttendanceRepository struct {
	db *sqlx.DB
}

// NewAttendanceRepository creates the repository.
func NewAttendanceRepository(db *sqlx.DB) *AttendanceRepository {
	return &AttendanceRepository{db: db}
}

// InsertIfAbsent marks attendance for the day unless a row already exists.
// Returns inserted=false when the unique constraint absorbed the write.
func (r *AttendanceRepository) InsertIfAbsent(ctx context.Context, a *models.Attendance) (bool, error) {
	query := `
		INSERT INTO attendance (student_id, attended_on, marked_at, source, confidence)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (student_id, attended_on) DO NOTHING
		RETURNING id`
	err := r.db.QueryRowxContext(ctx, query,
		a.StudentID, a.AttendedOn, a.MarkedAt, a.Source, a.Confidence,
	).Scan(&a.ID)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("insert attendance: %w", err)
	}
	return true, nil
}

// ExistsOn reports whether the student already has a mark for the day.
func (r *AttendanceRepository) ExistsOn(ctx context.Context, studentID string, day time.Time) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM attendance WHERE student_id = $1 AND attended_on = $2)`
	if err := r.db.GetContext(ctx, &exists, query, studentID, day); err != nil {
		return false, fmt.Errorf("check attendance existence: %w", err)
	}
	return exists, nil
}

// List returns attendance records joined with student identity.
func (r *AttendanceRepository) List(ctx context.Context, filter models.AttendanceFilter) ([]models.AttendanceRecord, int64, error) {
	conditions := []string{"1=1"}
	args := []interface{}{}
	idx := 1

	if filter.StudentID != "" {
		conditions = append(conditions, fmt.Sprintf("a.student_id = $%d", idx))
		args = append(args, filter.StudentID)
		idx++
	}
	if filter.ClassName != "" {
		conditions = append(conditions, fmt.Sprintf("s.class_name = $%d", idx))
		args = append(args, filter.ClassName)
		idx++
	}
	if filter.From != nil {
		conditions = append(conditions, fmt.Sprintf("a.attended_on >= $%d", idx))
		args = append(args, *filter.From)
		idx++
	}
	if filter.To != nil {
		conditions = append(conditions, fmt.Sprintf("a.attended_on <= $%d", idx))
		args = append(args, *filter.To)
		idx++
	}
	where := strings.Join(conditions, " AND ")

	var total int64
	countQuery := fmt.Sprintf(`
		SELECT COUNT(*) FROM attendance a
		JOIN students s ON s.id = a.student_id
		WHERE %s`, where)
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count attendance: %w", err)
	}

	perPage := filter.PerPage
	if perPage <= 0 {
		perPage = 20
	}
	page := filter.Page
	if page <= 0 {
		page = 1
	}
	query := fmt.Sprintf(`
		SELECT a.id, a.student_id, a.attended_on, a.marked_at, a.source, a.confidence,
		       s.full_name, s.class_name
		FROM attendance a
		JOIN students s ON s.id = a.student_id
		WHERE %s
		ORDER BY a.attended_on DESC, a.marked_at DESC
		LIMIT $%d OFFSET $%d`, where, idx, idx+1)
	args = append(args, perPage, (page-1)*perPage)

	records := []models.AttendanceRecord{}
	if err := r.db.SelectContext(ctx, &records, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list attendance: %w", err)
	}
	return records, total, nil
}

// CountOn reports how many students were marked present on the day.
func (r *AttendanceRepository) CountOn(ctx context.Context, day time.Time) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM attendance WHERE attended_on = $1`
	if err := r.db.GetContext(ctx, &count, query, day); err != nil {
		return 0, fmt.Errorf("count attendance on %s: %w", day.Format("2006-01-02"), err)
	}
	return count, nil
}

// DailyCounts aggregates marks per day over an inclusive window.
func (r *AttendanceRepository) DailyCounts(ctx context.Context, from, to time.Time) ([]models.DailyCount, error) {
	query := `
		SELECT attended_on AS day, COUNT(*) AS count
		FROM attendance
		WHERE attended_on BETWEEN $1 AND $2
		GROUP BY attended_on
		ORDER BY attended_on ASC`
	counts := []models.DailyCount{}
	if err := r.db.SelectContext(ctx, &counts, query, from, to); err != nil {
		return nil, fmt.Errorf("aggregate daily attendance: %w", err)
	}
	return counts, nil
}

// DayRoster lists every student with their presence state for one day.
func (r *AttendanceRepository) DayRoster(ctx context.Context, day time.Time) ([]models.DayRosterEntry, error) {
	query := `
		SELECT s.id AS student_id, s.full_name, s.class_name,
		       a.id IS NOT NULL AS present,
		       a.marked_at, a.source
		FROM students s
		LEFT JOIN attendance a ON a.student_id = s.id AND a.attended_on = $1
		ORDER BY s.class_name, s.full_name`
	entries := []models.DayRosterEntry{}
	if err := r.db.SelectContext(ctx, &entries, query, day); err != nil {
		return nil, fmt.Errorf("day roster: %w", err)
	}
	return entries, nil
}

// DeleteDuplicates removes redundant rows per (student, day), keeping the
// earliest mark. The unique constraint makes this a no-op on healthy data;
// it exists to repair tables imported from older systems.
func (r *AttendanceRepository) DeleteDuplicates(ctx context.Context) (int64, error) {
	query := `
		DELETE FROM attendance
		WHERE id NOT IN (
			SELECT MIN(id) FROM attendance GROUP BY student_id, attended_on
		)`
	result, err := r.db.ExecContext(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("delete duplicate attendance: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete duplicate attendance: %w", err)
	}
	return rows, nil
}
