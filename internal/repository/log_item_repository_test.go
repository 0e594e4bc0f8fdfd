package repository

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lnjng/courselog-api/internal/models"
)

func TestLogItemRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewLogItemRepository(db)
	mock.ExpectQuery("INSERT INTO log_items").
		WithArgs(int64(7), models.KindLecture, "第三讲", nil, nil, "2024-09-16").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(42)))

	item := &models.LogItem{
		CourseID: 7,
		Kind:     models.KindLecture,
		Title:    "第三讲",
		Date:     strPtr("2024-09-16"),
	}
	require.NoError(t, repo.Create(context.Background(), item))
	assert.Equal(t, int64(42), item.ID)
}

func TestLogItemRepositoryListByCourse(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewLogItemRepository(db)
	rows := sqlmock.NewRows([]string{"id", "course_id", "kind", "title", "description", "link", "date"}).
		AddRow(int64(1), int64(7), models.KindLecture, "第一讲", nil, nil, "2024-09-02").
		AddRow(int64(2), int64(7), models.KindHomework, "作业一", "chapters 1-2", nil, "2024-09-09").
		AddRow(int64(3), int64(7), models.KindQuiz, "测验一", nil, nil, nil)
	mock.ExpectQuery("SELECT id, course_id, kind, title").
		WithArgs(int64(7)).
		WillReturnRows(rows)

	items, err := repo.ListByCourse(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, "第一讲", items[0].Title)
	assert.Nil(t, items[2].Date)
}

func TestLogItemRepositoryUpdateMissing(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewLogItemRepository(db)
	mock.ExpectExec("UPDATE log_items").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Update(context.Background(), &models.LogItem{ID: 99, Kind: models.KindLecture, Title: "x"})
	assert.Error(t, err)
}

func TestLogItemRepositoryDelete(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewLogItemRepository(db)
	mock.ExpectExec("DELETE FROM log_items").
		WithArgs(int64(42)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Delete(context.Background(), 42))
	require.NoError(t, mock.ExpectationsWereMet())
}

func strPtr(value string) *string {
	return &value
}
