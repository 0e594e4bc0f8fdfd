package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lnjng/courselog-api/internal/models"
	appErrors "github.com/lnjng/courselog-api/pkg/errors"
	"github.com/lnjng/courselog-api/pkg/jobs"
)

type courseTextSource interface {
	GetByID(ctx context.Context, id int64) (*models.Course, error)
}

type courseLogItems interface {
	ListByCourse(ctx context.Context, courseID int64) ([]models.LogItem, error)
}

type courseCategories interface {
	ListByCourse(ctx context.Context, courseID int64) ([]models.Category, error)
}

type courseProblems interface {
	ListByCourse(ctx context.Context, courseID int64, filter *models.StudyFilter) ([]models.ProblemWithCategories, error)
}

type courseExams interface {
	ListByCourse(ctx context.Context, courseID int64) ([]models.Exam, error)
}

type batchTranslator interface {
	Translate(ctx context.Context, texts []string, courseContext string) map[string]string
}

// JobTypeTranslateCourse tags course translation jobs on the queue.
const JobTypeTranslateCourse = "translate_course"

// TranslateCoursePayload is the queue payload for a course translation run.
type TranslateCoursePayload struct {
	CourseID int64
}

// CourseTranslationService pre-warms the translation cache for everything a
// course's public pages will need: log item descriptions, category names,
// problem notes and exam titles. Runs happen off the request path on the
// shared job queue.
type CourseTranslationService struct {
	courses      courseTextSource
	logItems     courseLogItems
	categories   courseCategories
	problems     courseProblems
	exams        courseExams
	translations batchTranslator
	queue        *jobs.Queue
	logger       *zap.Logger
}

// NewCourseTranslationService constructs the service. The queue is attached
// later via SetQueue because the queue handler closes over the service.
func NewCourseTranslationService(courses courseTextSource, logItems courseLogItems, categories courseCategories, problems courseProblems, exams courseExams, translations batchTranslator, logger *zap.Logger) *CourseTranslationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CourseTranslationService{
		courses:      courses,
		logItems:     logItems,
		categories:   categories,
		problems:     problems,
		exams:        exams,
		translations: translations,
		logger:       logger,
	}
}

// SetQueue wires the background queue used by Enqueue.
func (s *CourseTranslationService) SetQueue(queue *jobs.Queue) {
	s.queue = queue
}

// Enqueue schedules a translation run for the course and returns the job id.
func (s *CourseTranslationService) Enqueue(ctx context.Context, courseID int64) (string, error) {
	if _, err := s.courses.GetByID(ctx, courseID); err != nil {
		return "", appErrors.Clone(appErrors.ErrNotFound, "course not found")
	}
	if s.queue == nil {
		return "", appErrors.Clone(appErrors.ErrInternal, "translation queue is not running")
	}

	jobID := uuid.NewString()
	err := s.queue.Enqueue(jobs.Job{
		ID:      jobID,
		Type:    JobTypeTranslateCourse,
		Payload: TranslateCoursePayload{CourseID: courseID},
	})
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to enqueue translation job")
	}
	return jobID, nil
}

// Run collects the course's translatable texts and pushes them through the
// translation gateway in one batch. Returns the number of distinct texts
// processed.
func (s *CourseTranslationService) Run(ctx context.Context, courseID int64) (int, error) {
	course, err := s.courses.GetByID(ctx, courseID)
	if err != nil {
		return 0, fmt.Errorf("load course %d: %w", courseID, err)
	}
	courseContext := fmt.Sprintf("%s %s", course.Code, course.Title)

	var texts []string

	items, err := s.logItems.ListByCourse(ctx, courseID)
	if err != nil {
		return 0, fmt.Errorf("load log items: %w", err)
	}
	for _, item := range items {
		if item.Description != nil && *item.Description != "" {
			texts = append(texts, *item.Description)
		}
	}

	categories, err := s.categories.ListByCourse(ctx, courseID)
	if err != nil {
		return 0, fmt.Errorf("load categories: %w", err)
	}
	for _, category := range categories {
		texts = append(texts, category.Name)
	}

	problems, err := s.problems.ListByCourse(ctx, courseID, nil)
	if err != nil {
		return 0, fmt.Errorf("load problems: %w", err)
	}
	for _, problem := range problems {
		if problem.Notes != nil && *problem.Notes != "" {
			texts = append(texts, *problem.Notes)
		}
	}

	exams, err := s.exams.ListByCourse(ctx, courseID)
	if err != nil {
		return 0, fmt.Errorf("load exams: %w", err)
	}
	for _, exam := range exams {
		texts = append(texts, exam.Title)
	}

	if len(texts) == 0 {
		return 0, nil
	}

	result := s.translations.Translate(ctx, texts, courseContext)
	s.logger.Info("course translation run finished",
		zap.Int64("course_id", courseID), zap.Int("texts", len(result)))
	return len(result), nil
}
