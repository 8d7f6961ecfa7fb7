package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/facemark/facemark-api/internal/models"
)

func TestCreateStudent(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewStudentRepository(db)

	now := time.Now()
	mock.ExpectQuery(`INSERT INTO students`).
		WithArgs("s001", "Ada Lovelace", "10-A", "guardian@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))

	student := &models.Student{
		ID:            "s001",
		FullName:      "Ada Lovelace",
		ClassName:     "10-A",
		GuardianEmail: "guardian@example.com",
	}
	require.NoError(t, repo.Create(context.Background(), student))
	assert.Equal(t, now, student.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetStudentNotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewStudentRepository(db)

	mock.ExpectQuery(`SELECT id, full_name`).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), "missing")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListStudentsSearch(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewStudentRepository(db)

	now := time.Now()
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM students`).
		WithArgs("%ada%").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery(`SELECT id, full_name`).
		WithArgs("%ada%", 20, 0).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "full_name", "class_name", "guardian_email", "photo_count", "enrolled", "created_at", "updated_at",
		}).AddRow("s001", "Ada Lovelace", "10-A", "", 25, true, now, now))

	students, total, err := repo.List(context.Background(), models.StudentFilter{Search: "ada"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, students, 1)
	assert.True(t, students[0].Enrolled)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSetEnrollment(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewStudentRepository(db)

	mock.ExpectExec(`UPDATE students SET photo_count`).
		WithArgs(25, true, "s001").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.SetEnrollment(context.Background(), "s001", 25, true))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateStudentNoRows(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewStudentRepository(db)

	name := "Grace Hopper"
	mock.ExpectExec(`UPDATE students SET`).
		WithArgs(name, "missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Update(context.Background(), "missing", models.UpdateStudentRequest{FullName: &name})
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteStudent(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewStudentRepository(db)

	mock.ExpectExec(`DELETE FROM students`).
		WithArgs("s001").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Delete(context.Background(), "s001"))
	assert.NoError(t, mock.ExpectationsWereMet())
}
