package repository

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lnjng/courselog-api/internal/models"
)

var courseColumns = []string{"id", "semester_id", "code", "title", "is_published", "public_slug", "show_lecture_links"}

func TestCourseRepositoryFindPublishedBySlug(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewCourseRepository(db)
	rows := sqlmock.NewRows(courseColumns).
		AddRow(int64(7), int64(1), "CS101", "数据结构", true, "cs101-fall", true)
	mock.ExpectQuery("SELECT id, semester_id, code, title").
		WithArgs("cs101-fall").
		WillReturnRows(rows)

	course, err := repo.FindPublishedBySlug(context.Background(), "cs101-fall")
	require.NoError(t, err)
	assert.Equal(t, int64(7), course.ID)
	assert.True(t, course.IsPublished)
}

func TestCourseRepositoryFindPublishedBySlugUnpublished(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewCourseRepository(db)
	mock.ExpectQuery("SELECT id, semester_id, code, title").
		WithArgs("hidden-course").
		WillReturnRows(sqlmock.NewRows(courseColumns))

	_, err := repo.FindPublishedBySlug(context.Background(), "hidden-course")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestCourseRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewCourseRepository(db)
	mock.ExpectQuery("INSERT INTO courses").
		WithArgs(int64(1), "CS101", "数据结构", false, nil, true).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(7)))

	course := &models.Course{
		SemesterID:       1,
		Code:             "CS101",
		Title:            "数据结构",
		ShowLectureLinks: true,
	}
	require.NoError(t, repo.Create(context.Background(), course))
	assert.Equal(t, int64(7), course.ID)
}

func TestCourseRepositoryUpdate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewCourseRepository(db)
	mock.ExpectExec("UPDATE courses").
		WillReturnResult(sqlmock.NewResult(0, 1))

	course := &models.Course{
		ID:          7,
		SemesterID:  1,
		Code:        "CS101",
		Title:       "数据结构",
		IsPublished: true,
		PublicSlug:  strPtr("cs101-fall"),
	}
	require.NoError(t, repo.Update(context.Background(), course))
	require.NoError(t, mock.ExpectationsWereMet())
}
