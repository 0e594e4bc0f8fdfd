package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/lnjng/courselog-api/internal/models"
)

// CourseRepository manages persistence for courses.
type CourseRepository struct {
	db *sqlx.DB
}

// NewCourseRepository constructs a CourseRepository.
func NewCourseRepository(db *sqlx.DB) *CourseRepository {
	return &CourseRepository{db: db}
}

// Create inserts a course and populates the generated id.
func (r *CourseRepository) Create(ctx context.Context, course *models.Course) error {
	const query = `INSERT INTO courses (semester_id, code, title, is_published, public_slug, show_lecture_links)
VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`
	err := r.db.GetContext(ctx, &course.ID, query,
		course.SemesterID, course.Code, course.Title,
		course.IsPublished, course.PublicSlug, course.ShowLectureLinks)
	if err != nil {
		return fmt.Errorf("create course: %w", err)
	}
	return nil
}

// GetByID fetches a course by id.
func (r *CourseRepository) GetByID(ctx context.Context, id int64) (*models.Course, error) {
	const query = `SELECT id, semester_id, code, title, is_published, public_slug, show_lecture_links
FROM courses WHERE id = $1`
	var course models.Course
	if err := r.db.GetContext(ctx, &course, query, id); err != nil {
		return nil, err
	}
	return &course, nil
}

// ListBySemester returns the semester's courses ordered by code.
func (r *CourseRepository) ListBySemester(ctx context.Context, semesterID int64) ([]models.Course, error) {
	const query = `SELECT id, semester_id, code, title, is_published, public_slug, show_lecture_links
FROM courses WHERE semester_id = $1 ORDER BY code, id`
	courses := []models.Course{}
	if err := r.db.SelectContext(ctx, &courses, query, semesterID); err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}
	return courses, nil
}

// FindPublishedBySlug fetches a published course by its public slug.
// Unpublished courses are invisible through this path regardless of slug.
func (r *CourseRepository) FindPublishedBySlug(ctx context.Context, slug string) (*models.Course, error) {
	const query = `SELECT id, semester_id, code, title, is_published, public_slug, show_lecture_links
FROM courses WHERE public_slug = $1 AND is_published = TRUE`
	var course models.Course
	if err := r.db.GetContext(ctx, &course, query, slug); err != nil {
		return nil, err
	}
	return &course, nil
}

// Update persists mutable course fields.
func (r *CourseRepository) Update(ctx context.Context, course *models.Course) error {
	const query = `UPDATE courses
SET code = :code, title = :title, is_published = :is_published,
    public_slug = :public_slug, show_lecture_links = :show_lecture_links
WHERE id = :id`
	result, err := r.db.NamedExecContext(ctx, query, course)
	if err != nil {
		return fmt.Errorf("update course: %w", err)
	}
	if rows, err := result.RowsAffected(); err == nil && rows == 0 {
		return fmt.Errorf("course %d not found", course.ID)
	}
	return nil
}

// Delete removes a course. Log items, exams and problems cascade at the
// schema level.
func (r *CourseRepository) Delete(ctx context.Context, id int64) error {
	const query = `DELETE FROM courses WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete course: %w", err)
	}
	if rows, err := result.RowsAffected(); err == nil && rows == 0 {
		return fmt.Errorf("course %d not found", id)
	}
	return nil
}
