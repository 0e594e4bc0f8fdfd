package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/lnjng/courselog-api/internal/models"
)

// ExamRepository manages persistence for past-exam records.
type ExamRepository struct {
	db *sqlx.DB
}

// NewExamRepository constructs an ExamRepository.
func NewExamRepository(db *sqlx.DB) *ExamRepository {
	return &ExamRepository{db: db}
}

// Create inserts an exam and populates the generated id.
func (r *ExamRepository) Create(ctx context.Context, exam *models.Exam) error {
	const query = `INSERT INTO exams (course_id, title, semester) VALUES ($1, $2, $3) RETURNING id`
	if err := r.db.GetContext(ctx, &exam.ID, query, exam.CourseID, exam.Title, exam.Semester); err != nil {
		return fmt.Errorf("create exam: %w", err)
	}
	return nil
}

// GetByID fetches an exam by id.
func (r *ExamRepository) GetByID(ctx context.Context, id int64) (*models.Exam, error) {
	const query = `SELECT id, course_id, title, semester FROM exams WHERE id = $1`
	var exam models.Exam
	if err := r.db.GetContext(ctx, &exam, query, id); err != nil {
		return nil, err
	}
	return &exam, nil
}

// ListByCourse returns the course's exams ordered by id.
func (r *ExamRepository) ListByCourse(ctx context.Context, courseID int64) ([]models.Exam, error) {
	const query = `SELECT id, course_id, title, semester FROM exams WHERE course_id = $1 ORDER BY id`
	exams := []models.Exam{}
	if err := r.db.SelectContext(ctx, &exams, query, courseID); err != nil {
		return nil, fmt.Errorf("list exams: %w", err)
	}
	return exams, nil
}

// Update persists mutable exam fields.
func (r *ExamRepository) Update(ctx context.Context, exam *models.Exam) error {
	const query = `UPDATE exams SET title = :title, semester = :semester WHERE id = :id`
	result, err := r.db.NamedExecContext(ctx, query, exam)
	if err != nil {
		return fmt.Errorf("update exam: %w", err)
	}
	if rows, err := result.RowsAffected(); err == nil && rows == 0 {
		return fmt.Errorf("exam %d not found", exam.ID)
	}
	return nil
}

// Delete removes an exam. Attached problems cascade at the schema level.
func (r *ExamRepository) Delete(ctx context.Context, id int64) error {
	const query = `DELETE FROM exams WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete exam: %w", err)
	}
	if rows, err := result.RowsAffected(); err == nil && rows == 0 {
		return fmt.Errorf("exam %d not found", id)
	}
	return nil
}
