package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/lnjng/courselog-api/internal/models"
)

// CategoryRepository manages persistence for per-course problem categories.
type CategoryRepository struct {
	db *sqlx.DB
}

// NewCategoryRepository constructs a CategoryRepository.
func NewCategoryRepository(db *sqlx.DB) *CategoryRepository {
	return &CategoryRepository{db: db}
}

// ListByCourse returns the course's categories ordered by name.
func (r *CategoryRepository) ListByCourse(ctx context.Context, courseID int64) ([]models.Category, error) {
	const query = `SELECT id, course_id, name FROM categories WHERE course_id = $1 ORDER BY name`
	categories := []models.Category{}
	if err := r.db.SelectContext(ctx, &categories, query, courseID); err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return categories, nil
}

// FindOrCreate returns the id of the named category in the course, creating
// it on first use. Names are unique per course; concurrent creates resolve to
// the existing row.
func (r *CategoryRepository) FindOrCreate(ctx context.Context, courseID int64, name string) (int64, error) {
	const query = `INSERT INTO categories (course_id, name) VALUES ($1, $2)
ON CONFLICT (course_id, name) DO UPDATE SET name = EXCLUDED.name
RETURNING id`
	var id int64
	if err := r.db.GetContext(ctx, &id, query, courseID, name); err != nil {
		return 0, fmt.Errorf("find or create category: %w", err)
	}
	return id, nil
}

// ReplaceProblemCategories resets the set of categories linked to a problem.
func (r *CategoryRepository) ReplaceProblemCategories(ctx context.Context, problemID int64, categoryIDs []int64) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace categories: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM problem_categories WHERE problem_id = $1`, problemID); err != nil {
		return fmt.Errorf("clear problem categories: %w", err)
	}
	for _, categoryID := range categoryIDs {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO problem_categories (problem_id, category_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
			problemID, categoryID)
		if err != nil {
			return fmt.Errorf("link problem category: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit replace categories: %w", err)
	}
	return nil
}
