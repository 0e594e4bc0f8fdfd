package repository

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/lnjng/courselog-api/pkg/errors"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	sqlxDB := sqlx.NewDb(db, "postgres")
	return sqlxDB, mock, func() {
		sqlxDB.Close()
		db.Close()
	}
}

func TestTranslationRepositoryGetHit(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewTranslationRepository(db)
	rows := sqlmock.NewRows([]string{"translated_text"}).AddRow("Lecture 3")
	mock.ExpectQuery("SELECT translated_text FROM translations").
		WithArgs("第三讲", "zh", "en").
		WillReturnRows(rows)

	translated, err := repo.Get(context.Background(), "第三讲", "zh", "en")
	require.NoError(t, err)
	assert.Equal(t, "Lecture 3", translated)
}

func TestTranslationRepositoryGetMiss(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewTranslationRepository(db)
	mock.ExpectQuery("SELECT translated_text FROM translations").
		WithArgs("未见过的文本", "zh", "en").
		WillReturnRows(sqlmock.NewRows([]string{"translated_text"}))

	_, err := repo.Get(context.Background(), "未见过的文本", "zh", "en")
	assert.ErrorIs(t, err, appErrors.ErrCacheMiss)
}

func TestTranslationRepositoryUpsert(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewTranslationRepository(db)
	mock.ExpectExec("INSERT INTO translations").
		WithArgs("第三讲", "zh", "en", "Lecture 3").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Upsert(context.Background(), "第三讲", "zh", "en", "Lecture 3"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTranslationRepositoryUpsertIsIdempotent(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewTranslationRepository(db)
	mock.ExpectExec("INSERT INTO translations").
		WithArgs("第三讲", "zh", "en", "Lecture 3").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO translations").
		WithArgs("第三讲", "zh", "en", "Lecture 3").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Upsert(context.Background(), "第三讲", "zh", "en", "Lecture 3"))
	require.NoError(t, repo.Upsert(context.Background(), "第三讲", "zh", "en", "Lecture 3"))
	require.NoError(t, mock.ExpectationsWereMet())
}
