package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/lnjng/courselog-api/internal/models"
)

// ExportJobRepository manages persistence for background export jobs.
type ExportJobRepository struct {
	db *sqlx.DB
}

// NewExportJobRepository constructs an ExportJobRepository.
func NewExportJobRepository(db *sqlx.DB) *ExportJobRepository {
	return &ExportJobRepository{db: db}
}

// Create inserts a pending export job.
func (r *ExportJobRepository) Create(ctx context.Context, job *models.ExportJob) error {
	const query = `INSERT INTO export_jobs (id, course_id, format, status, created_at)
VALUES (:id, :course_id, :format, :status, :created_at)`
	if job.CreatedAt.IsZero() {
		job.CreatedAt = time.Now().UTC()
	}
	if _, err := r.db.NamedExecContext(ctx, query, job); err != nil {
		return fmt.Errorf("create export job: %w", err)
	}
	return nil
}

// GetByID fetches an export job by id.
func (r *ExportJobRepository) GetByID(ctx context.Context, id string) (*models.ExportJob, error) {
	const query = `SELECT id, course_id, format, status, file_path, error, created_at, completed_at
FROM export_jobs WHERE id = $1`
	var job models.ExportJob
	if err := r.db.GetContext(ctx, &job, query, id); err != nil {
		return nil, err
	}
	return &job, nil
}

// MarkRunning transitions a job to RUNNING.
func (r *ExportJobRepository) MarkRunning(ctx context.Context, id string) error {
	const query = `UPDATE export_jobs SET status = $2 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, models.ExportStatusRunning); err != nil {
		return fmt.Errorf("mark export job running: %w", err)
	}
	return nil
}

// MarkCompleted records the result file and transitions the job to COMPLETED.
func (r *ExportJobRepository) MarkCompleted(ctx context.Context, id, filePath string) error {
	const query = `UPDATE export_jobs SET status = $2, file_path = $3, completed_at = $4 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, models.ExportStatusCompleted, filePath, time.Now().UTC()); err != nil {
		return fmt.Errorf("mark export job completed: %w", err)
	}
	return nil
}

// MarkFailed records the failure reason and transitions the job to FAILED.
func (r *ExportJobRepository) MarkFailed(ctx context.Context, id, reason string) error {
	const query = `UPDATE export_jobs SET status = $2, error = $3, completed_at = $4 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, models.ExportStatusFailed, reason, time.Now().UTC()); err != nil {
		return fmt.Errorf("mark export job failed: %w", err)
	}
	return nil
}
