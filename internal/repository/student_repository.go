package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/facemark/facemark-api/internal/models"
)

// StudentRepository persists student records.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository creates the repository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

// Create inserts a student row.
func (r *StudentRepository) Create(ctx context.Context, s *models.Student) error {
	query := `
		INSERT INTO students (id, full_name, class_name, guardian_email, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NOW(), NOW())
		RETURNING created_at, updated_at`
	err := r.db.QueryRowxContext(ctx, query,
		s.ID, s.FullName, s.ClassName, s.GuardianEmail,
	).Scan(&s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert student: %w", err)
	}
	return nil
}

// GetByID fetches one student or sql.ErrNoRows.
func (r *StudentRepository) GetByID(ctx context.Context, id string) (*models.Student, error) {
	var s models.Student
	query := `
		SELECT id, full_name, class_name, guardian_email, photo_count, enrolled, created_at, updated_at
		FROM students WHERE id = $1`
	if err := r.db.GetContext(ctx, &s, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("get student %s: %w", id, err)
	}
	return &s, nil
}

// List returns students matching the filter plus the unpaged total.
func (r *StudentRepository) List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int64, error) {
	conditions := []string{"1=1"}
	args := []interface{}{}
	idx := 1

	if filter.ClassName != "" {
		conditions = append(conditions, fmt.Sprintf("class_name = $%d", idx))
		args = append(args, filter.ClassName)
		idx++
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(full_name ILIKE $%d OR id ILIKE $%d)", idx, idx))
		args = append(args, "%"+filter.Search+"%")
		idx++
	}
	where := strings.Join(conditions, " AND ")

	var total int64
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM students WHERE %s", where)
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count students: %w", err)
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
		SELECT id, full_name, class_name, guardian_email, photo_count, enrolled, created_at, updated_at
		FROM students WHERE %s
		ORDER BY full_name ASC
		LIMIT $%d OFFSET $%d`, where, idx, idx+1)
	args = append(args, perPage, (page-1)*perPage)

	students := []models.Student{}
	if err := r.db.SelectContext(ctx, &students, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list students: %w", err)
	}
	return students, total, nil
}

// Update patches mutable fields.
func (r *StudentRepository) Update(ctx context.Context, id string, req models.UpdateStudentRequest) error {
	sets := []string{"updated_at = NOW()"}
	args := []interface{}{}
	idx := 1

	if req.FullName != nil {
		sets = append(sets, fmt.Sprintf("full_name = $%d", idx))
		args = append(args, *req.FullName)
		idx++
	}
	if req.ClassName != nil {
		sets = append(sets, fmt.Sprintf("class_name = $%d", idx))
		args = append(args, *req.ClassName)
		idx++
	}
	if req.GuardianEmail != nil {
		sets = append(sets, fmt.Sprintf("guardian_email = $%d", idx))
		args = append(args, *req.GuardianEmail)
		idx++
	}

	query := fmt.Sprintf("UPDATE students SET %s WHERE id = $%d", strings.Join(sets, ", "), idx)
	args = append(args, id)

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update student %s: %w", id, err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update student %s: %w", id, err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// SetEnrollment records the photo count and enrolled flag after uploads.
func (r *StudentRepository) SetEnrollment(ctx context.Context, id string, photoCount int, enrolled bool) error {
	query := `UPDATE students SET photo_count = $1, enrolled = $2, updated_at = NOW() WHERE id = $3`
	result, err := r.db.ExecContext(ctx, query, photoCount, enrolled, id)
	if err != nil {
		return fmt.Errorf("set enrollment for student %s: %w", id, err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("set enrollment for student %s: %w", id, err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete removes a student row.
func (r *StudentRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM students WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete student %s: %w", id, err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete student %s: %w", id, err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// CountEnrolled reports students with stored face images.
func (r *StudentRepository) CountEnrolled(ctx context.Context) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM students WHERE enrolled = TRUE`); err != nil {
		return 0, fmt.Errorf("count enrolled students: %w", err)
	}
	return count, nil
}

// CountAll reports the total student population.
func (r *StudentRepository) CountAll(ctx context.Context) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM students`); err != nil {
		return 0, fmt.Errorf("count students: %w", err)
	}
	return count, nil
}
