package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/lnjng/courselog-api/internal/models"
)

// ProblemRepository manages persistence for problems and their category
// links. Problems attach to exactly one of a log item or an exam.
type ProblemRepository struct {
	db *sqlx.DB
}

// NewProblemRepository constructs a ProblemRepository.
func NewProblemRepository(db *sqlx.DB) *ProblemRepository {
	return &ProblemRepository{db: db}
}

// problemJoinColumns aggregates category names per problem and resolves the
// source kind/title from whichever parent the problem hangs off. Exam-attached
// problems report the pseudo-kind "Exam".
const problemJoinColumns = `p.id, p.log_item_id, p.exam_id, p.description, p.notes, p.image_url, p.solution_link, p.is_incorrect,
	string_agg(DISTINCT c.name, ', ') AS category_names,
	COALESCE(li.kind, 'Exam') AS source_kind,
	COALESCE(li.title, e.title, '') AS source_title
FROM problems p
LEFT JOIN log_items li ON li.id = p.log_item_id
LEFT JOIN exams e ON e.id = p.exam_id
LEFT JOIN problem_categories pc ON pc.problem_id = p.id
LEFT JOIN categories c ON c.id = pc.category_id`

const problemGroupBy = ` GROUP BY p.id, li.kind, li.title, e.title ORDER BY p.id`

// Create inserts a problem and populates the generated id.
func (r *ProblemRepository) Create(ctx context.Context, problem *models.Problem) error {
	const query = `INSERT INTO problems (log_item_id, exam_id, description, notes, image_url, solution_link, is_incorrect)
VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`
	err := r.db.GetContext(ctx, &problem.ID, query,
		problem.LogItemID, problem.ExamID, problem.Description, problem.Notes,
		problem.ImageURL, problem.SolutionLink, problem.IsIncorrect)
	if err != nil {
		return fmt.Errorf("create problem: %w", err)
	}
	return nil
}

// GetByID fetches a single problem with its aggregated categories.
func (r *ProblemRepository) GetByID(ctx context.Context, id int64) (*models.ProblemWithCategories, error) {
	query := `SELECT ` + problemJoinColumns + ` WHERE p.id = $1` + problemGroupBy
	var problem models.ProblemWithCategories
	if err := r.db.GetContext(ctx, &problem, query, id); err != nil {
		return nil, err
	}
	return &problem, nil
}

// ListByLogItem returns the problems attached to a log item.
func (r *ProblemRepository) ListByLogItem(ctx context.Context, logItemID int64) ([]models.ProblemWithCategories, error) {
	query := `SELECT ` + problemJoinColumns + ` WHERE p.log_item_id = $1` + problemGroupBy
	problems := []models.ProblemWithCategories{}
	if err := r.db.SelectContext(ctx, &problems, query, logItemID); err != nil {
		return nil, fmt.Errorf("list problems by log item: %w", err)
	}
	return problems, nil
}

// ListByExam returns the problems attached to an exam.
func (r *ProblemRepository) ListByExam(ctx context.Context, examID int64) ([]models.ProblemWithCategories, error) {
	query := `SELECT ` + problemJoinColumns + ` WHERE p.exam_id = $1` + problemGroupBy
	problems := []models.ProblemWithCategories{}
	if err := r.db.SelectContext(ctx, &problems, query, examID); err != nil {
		return nil, fmt.Errorf("list problems by exam: %w", err)
	}
	return problems, nil
}

// ListByCourse returns every problem in the course, across both log items and
// exams, optionally narrowed by the study filter.
func (r *ProblemRepository) ListByCourse(ctx context.Context, courseID int64, filter *models.StudyFilter) ([]models.ProblemWithCategories, error) {
	var sb strings.Builder
	sb.WriteString(`SELECT ` + problemJoinColumns + ` WHERE COALESCE(li.course_id, e.course_id) = $1`)
	args := []interface{}{courseID}

	if filter != nil {
		if len(filter.Kinds) > 0 {
			args = append(args, pq.Array(filter.Kinds))
			fmt.Fprintf(&sb, " AND COALESCE(li.kind, 'Exam') = ANY($%d)", len(args))
		}
		if len(filter.CategoryIDs) > 0 {
			args = append(args, pq.Array(filter.CategoryIDs))
			fmt.Fprintf(&sb, ` AND EXISTS (SELECT 1 FROM problem_categories fpc WHERE fpc.problem_id = p.id AND fpc.category_id = ANY($%d))`, len(args))
		}
		if filter.IncorrectOnly {
			sb.WriteString(" AND p.is_incorrect = TRUE")
		}
	}
	sb.WriteString(problemGroupBy)

	problems := []models.ProblemWithCategories{}
	if err := r.db.SelectContext(ctx, &problems, sb.String(), args...); err != nil {
		return nil, fmt.Errorf("list problems by course: %w", err)
	}
	return problems, nil
}

// Update persists mutable problem fields. Parent attachment is fixed at
// creation.
func (r *ProblemRepository) Update(ctx context.Context, problem *models.Problem) error {
	const query = `UPDATE problems
SET description = :description, notes = :notes, image_url = :image_url,
    solution_link = :solution_link, is_incorrect = :is_incorrect
WHERE id = :id`
	result, err := r.db.NamedExecContext(ctx, query, problem)
	if err != nil {
		return fmt.Errorf("update problem: %w", err)
	}
	if rows, err := result.RowsAffected(); err == nil && rows == 0 {
		return fmt.Errorf("problem %d not found", problem.ID)
	}
	return nil
}

// Delete removes a problem and its category links.
func (r *ProblemRepository) Delete(ctx context.Context, id int64) error {
	const query = `DELETE FROM problems WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete problem: %w", err)
	}
	if rows, err := result.RowsAffected(); err == nil && rows == 0 {
		return fmt.Errorf("problem %d not found", id)
	}
	return nil
}
