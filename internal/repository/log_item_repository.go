package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/lnjng/courselog-api/internal/models"
)

// LogItemRepository manages persistence for course log items.
type LogItemRepository struct {
	db *sqlx.DB
}

// NewLogItemRepository constructs a LogItemRepository.
func NewLogItemRepository(db *sqlx.DB) *LogItemRepository {
	return &LogItemRepository{db: db}
}

// Create inserts a log item and populates the generated id.
func (r *LogItemRepository) Create(ctx context.Context, item *models.LogItem) error {
	const query = `INSERT INTO log_items (course_id, kind, title, description, link, date)
VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`
	err := r.db.GetContext(ctx, &item.ID, query,
		item.CourseID, item.Kind, item.Title, item.Description, item.Link, item.Date)
	if err != nil {
		return fmt.Errorf("create log item: %w", err)
	}
	return nil
}

// GetByID fetches a log item by id.
func (r *LogItemRepository) GetByID(ctx context.Context, id int64) (*models.LogItem, error) {
	const query = `SELECT id, course_id, kind, title, description, link, date FROM log_items WHERE id = $1`
	var item models.LogItem
	if err := r.db.GetContext(ctx, &item, query, id); err != nil {
		return nil, err
	}
	return &item, nil
}

// ListByCourse returns the course's log items ordered by date ascending with
// undated items last, then by id so repeated reads are stable.
func (r *LogItemRepository) ListByCourse(ctx context.Context, courseID int64) ([]models.LogItem, error) {
	const query = `SELECT id, course_id, kind, title, description, link, date
FROM log_items WHERE course_id = $1 ORDER BY date ASC NULLS LAST, id ASC`
	items := []models.LogItem{}
	if err := r.db.SelectContext(ctx, &items, query, courseID); err != nil {
		return nil, fmt.Errorf("list log items: %w", err)
	}
	return items, nil
}

// Update persists mutable log item fields.
func (r *LogItemRepository) Update(ctx context.Context, item *models.LogItem) error {
	const query = `UPDATE log_items
SET kind = :kind, title = :title, description = :description, link = :link, date = :date
WHERE id = :id`
	result, err := r.db.NamedExecContext(ctx, query, item)
	if err != nil {
		return fmt.Errorf("update log item: %w", err)
	}
	if rows, err := result.RowsAffected(); err == nil && rows == 0 {
		return fmt.Errorf("log item %d not found", item.ID)
	}
	return nil
}

// Delete removes a log item. Attached problems cascade at the schema level.
func (r *LogItemRepository) Delete(ctx context.Context, id int64) error {
	const query = `DELETE FROM log_items WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete log item: %w", err)
	}
	if rows, err := result.RowsAffected(); err == nil && rows == 0 {
		return fmt.Errorf("log item %d not found", id)
	}
	return nil
}
