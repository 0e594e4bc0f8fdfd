package repository

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lnjng/courselog-api/internal/models"
)

var problemColumns = []string{
	"id", "log_item_id", "exam_id", "description", "notes", "image_url",
	"solution_link", "is_incorrect", "category_names", "source_kind", "source_title",
}

func TestProblemRepositoryListByCourse(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewProblemRepository(db)
	rows := sqlmock.NewRows(problemColumns).
		AddRow(int64(1), int64(5), nil, "p1", nil, nil, nil, false, "递归, 图论", models.KindHomework, "作业一").
		AddRow(int64(2), nil, int64(3), "p2", "tricky", nil, nil, true, nil, "Exam", "2023 期中")
	mock.ExpectQuery("SELECT p.id, p.log_item_id").
		WithArgs(int64(7)).
		WillReturnRows(rows)

	problems, err := repo.ListByCourse(context.Background(), 7, nil)
	require.NoError(t, err)
	require.Len(t, problems, 2)
	assert.Equal(t, "递归, 图论", *problems[0].CategoryNames)
	assert.Equal(t, "Exam", problems[1].SourceKind)
	assert.True(t, problems[1].IsIncorrect)
}

func TestProblemRepositoryListByCourseWithFilter(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewProblemRepository(db)
	rows := sqlmock.NewRows(problemColumns).
		AddRow(int64(2), nil, int64(3), "p2", nil, nil, nil, true, nil, "Exam", "2023 期中")
	// kinds and category ids travel as array parameters; incorrect-only is a
	// plain predicate.
	mock.ExpectQuery("SELECT p.id, p.log_item_id").
		WithArgs(int64(7), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(rows)

	filter := &models.StudyFilter{
		Kinds:         []string{models.KindQuiz, "Exam"},
		CategoryIDs:   []int64{11, 12},
		IncorrectOnly: true,
	}
	problems, err := repo.ListByCourse(context.Background(), 7, filter)
	require.NoError(t, err)
	require.Len(t, problems, 1)
	assert.Equal(t, int64(2), problems[0].ID)
}

func TestProblemRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewProblemRepository(db)
	logItemID := int64(5)
	mock.ExpectQuery("INSERT INTO problems").
		WithArgs(&logItemID, nil, "desc", nil, "/uploads/abc.png", nil, false).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(9)))

	problem := &models.Problem{
		LogItemID:   &logItemID,
		Description: "desc",
		ImageURL:    strPtr("/uploads/abc.png"),
	}
	require.NoError(t, repo.Create(context.Background(), problem))
	assert.Equal(t, int64(9), problem.ID)
}

func TestProblemRepositoryDeleteMissing(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewProblemRepository(db)
	mock.ExpectExec("DELETE FROM problems").
		WithArgs(int64(404)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.Error(t, repo.Delete(context.Background(), 404))
}
