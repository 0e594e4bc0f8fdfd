package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/lnjng/courselog-api/internal/models"
)

// SemesterRepository manages persistence for semesters.
type SemesterRepository struct {
	db *sqlx.DB
}

// NewSemesterRepository constructs a SemesterRepository.
func NewSemesterRepository(db *sqlx.DB) *SemesterRepository {
	return &SemesterRepository{db: db}
}

// Create inserts a semester and populates the generated id.
func (r *SemesterRepository) Create(ctx context.Context, semester *models.Semester) error {
	const query = `INSERT INTO semesters (name, created_at) VALUES ($1, $2) RETURNING id`
	if semester.CreatedAt.IsZero() {
		semester.CreatedAt = time.Now().UTC()
	}
	if err := r.db.GetContext(ctx, &semester.ID, query, semester.Name, semester.CreatedAt); err != nil {
		return fmt.Errorf("create semester: %w", err)
	}
	return nil
}

// GetByID fetches a semester by id.
func (r *SemesterRepository) GetByID(ctx context.Context, id int64) (*models.Semester, error) {
	const query = `SELECT id, name, created_at FROM semesters WHERE id = $1`
	var semester models.Semester
	if err := r.db.GetContext(ctx, &semester, query, id); err != nil {
		return nil, err
	}
	return &semester, nil
}

// List returns every semester, newest first.
func (r *SemesterRepository) List(ctx context.Context) ([]models.Semester, error) {
	const query = `SELECT id, name, created_at FROM semesters ORDER BY created_at DESC, id DESC`
	semesters := []models.Semester{}
	if err := r.db.SelectContext(ctx, &semesters, query); err != nil {
		return nil, fmt.Errorf("list semesters: %w", err)
	}
	return semesters, nil
}

// Delete removes a semester. Courses under it cascade at the schema level.
func (r *SemesterRepository) Delete(ctx context.Context, id int64) error {
	const query = `DELETE FROM semesters WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete semester: %w", err)
	}
	if rows, err := result.RowsAffected(); err == nil && rows == 0 {
		return fmt.Errorf("semester %d not found", id)
	}
	return nil
}
