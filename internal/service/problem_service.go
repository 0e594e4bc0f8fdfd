package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lnjng/courselog-api/internal/models"
	appErrors "github.com/lnjng/courselog-api/pkg/errors"
)

type problemRepository interface {
	Create(ctx context.Context, problem *models.Problem) error
	GetByID(ctx context.Context, id int64) (*models.ProblemWithCategories, error)
	ListByLogItem(ctx context.Context, logItemID int64) ([]models.ProblemWithCategories, error)
	ListByExam(ctx context.Context, examID int64) ([]models.ProblemWithCategories, error)
	ListByCourse(ctx context.Context, courseID int64, filter *models.StudyFilter) ([]models.ProblemWithCategories, error)
	Update(ctx context.Context, problem *models.Problem) error
	Delete(ctx context.Context, id int64) error
}

type problemCategoryRepository interface {
	ListByCourse(ctx context.Context, courseID int64) ([]models.Category, error)
	FindOrCreate(ctx context.Context, courseID int64, name string) (int64, error)
	ReplaceProblemCategories(ctx context.Context, problemID int64, categoryIDs []int64) error
}

type problemParentResolver interface {
	GetByID(ctx context.Context, id int64) (*models.LogItem, error)
}

type problemExamResolver interface {
	GetByID(ctx context.Context, id int64) (*models.Exam, error)
}

type screenshotStorage interface {
	SaveStream(filename string, r io.Reader) (string, error)
	Delete(filename string) error
}

// ProblemService handles the problem bank: screenshots of problems filed
// under log items or exams, tagged with per-course categories.
type ProblemService struct {
	repo       problemRepository
	categories problemCategoryRepository
	logItems   problemParentResolver
	exams      problemExamResolver
	storage    screenshotStorage
	courses    courseInvalidator
	validator  *validator.Validate
	logger     *zap.Logger
}

// NewProblemService constructs the service. storage and courses may be nil.
func NewProblemService(repo problemRepository, categories problemCategoryRepository, logItems problemParentResolver, exams problemExamResolver, storage screenshotStorage, courses courseInvalidator, validate *validator.Validate, logger *zap.Logger) *ProblemService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProblemService{
		repo:       repo,
		categories: categories,
		logItems:   logItems,
		exams:      exams,
		storage:    storage,
		courses:    courses,
		validator:  validate,
		logger:     logger,
	}
}

// ProblemRequest describes the create/update payload. Exactly one of
// LogItemID and ExamID must be set on create.
type ProblemRequest struct {
	LogItemID    *int64  `json:"log_item_id,omitempty"`
	ExamID       *int64  `json:"exam_id,omitempty"`
	Description  string  `json:"description" validate:"required,max=500"`
	Notes        *string `json:"notes,omitempty"`
	SolutionLink *string `json:"solution_link,omitempty" validate:"omitempty,url"`
	IsIncorrect  bool    `json:"is_incorrect"`
	// Categories is the raw tag string; names split on "、" and ",".
	Categories *string `json:"categories,omitempty"`
}

// Screenshot carries an uploaded problem image.
type Screenshot struct {
	Reader   io.Reader
	Filename string
}

// splitCategoryNames splits a raw tag string on Chinese and ASCII commas,
// trimming whitespace and dropping empties.
func splitCategoryNames(raw string) []string {
	fields := strings.FieldsFunc(raw, func(r rune) bool {
		return r == '、' || r == ',' || r == '，'
	})
	names := make([]string, 0, len(fields))
	for _, f := range fields {
		if name := strings.TrimSpace(f); name != "" {
			names = append(names, name)
		}
	}
	return names
}

// Create files a problem under a log item or exam, storing the screenshot
// and resolving category tags against the owning course.
func (s *ProblemService) Create(ctx context.Context, req ProblemRequest, screenshot *Screenshot) (*models.ProblemWithCategories, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid problem payload")
	}
	if (req.LogItemID == nil) == (req.ExamID == nil) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "problem must attach to exactly one of a log item or an exam")
	}

	courseID, err := s.resolveCourse(ctx, req.LogItemID, req.ExamID)
	if err != nil {
		return nil, err
	}

	var imageURL *string
	if screenshot != nil {
		url, err := s.storeScreenshot(screenshot)
		if err != nil {
			return nil, err
		}
		imageURL = &url
	}

	problem := &models.Problem{
		LogItemID:    req.LogItemID,
		ExamID:       req.ExamID,
		Description:  req.Description,
		Notes:        emptyToNil(req.Notes),
		ImageURL:     imageURL,
		SolutionLink: emptyToNil(req.SolutionLink),
		IsIncorrect:  req.IsIncorrect,
	}
	if err := s.repo.Create(ctx, problem); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create problem")
	}

	if err := s.applyCategories(ctx, courseID, problem.ID, req.Categories); err != nil {
		return nil, err
	}

	s.invalidate(ctx, courseID)
	return s.Get(ctx, problem.ID)
}

// Get fetches one problem with aggregated categories.
func (s *ProblemService) Get(ctx context.Context, id int64) (*models.ProblemWithCategories, error) {
	problem, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "problem not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load problem")
	}
	return problem, nil
}

// ListByLogItem returns the problems filed under a log item.
func (s *ProblemService) ListByLogItem(ctx context.Context, logItemID int64) ([]models.ProblemWithCategories, error) {
	problems, err := s.repo.ListByLogItem(ctx, logItemID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list problems")
	}
	return problems, nil
}

// ListByExam returns the problems filed under an exam.
func (s *ProblemService) ListByExam(ctx context.Context, examID int64) ([]models.ProblemWithCategories, error) {
	problems, err := s.repo.ListByExam(ctx, examID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list problems")
	}
	return problems, nil
}

// Study returns the course's problem bank narrowed by the filter. The
// pseudo-kind "Exam" selects exam-attached problems.
func (s *ProblemService) Study(ctx context.Context, courseID int64, filter models.StudyFilter) ([]models.ProblemWithCategories, error) {
	problems, err := s.repo.ListByCourse(ctx, courseID, &filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to query problem bank")
	}
	return problems, nil
}

// Categories lists the course's category tags.
func (s *ProblemService) Categories(ctx context.Context, courseID int64) ([]models.Category, error) {
	categories, err := s.categories.ListByCourse(ctx, courseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list categories")
	}
	return categories, nil
}

// Update replaces a problem's fields and category tags. A new screenshot
// replaces the stored one.
func (s *ProblemService) Update(ctx context.Context, id int64, req ProblemRequest, screenshot *Screenshot) (*models.ProblemWithCategories, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid problem payload")
	}

	existing, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	courseID, err := s.resolveCourse(ctx, existing.LogItemID, existing.ExamID)
	if err != nil {
		return nil, err
	}

	imageURL := existing.ImageURL
	if screenshot != nil {
		url, err := s.storeScreenshot(screenshot)
		if err != nil {
			return nil, err
		}
		s.removeScreenshot(existing.ImageURL)
		imageURL = &url
	}

	problem := &models.Problem{
		ID:           id,
		LogItemID:    existing.LogItemID,
		ExamID:       existing.ExamID,
		Description:  req.Description,
		Notes:        emptyToNil(req.Notes),
		ImageURL:     imageURL,
		SolutionLink: emptyToNil(req.SolutionLink),
		IsIncorrect:  req.IsIncorrect,
	}
	if err := s.repo.Update(ctx, problem); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update problem")
	}

	if req.Categories != nil {
		if err := s.applyCategories(ctx, courseID, id, req.Categories); err != nil {
			return nil, err
		}
	}

	s.invalidate(ctx, courseID)
	return s.Get(ctx, id)
}

// Delete removes a problem and its stored screenshot.
func (s *ProblemService) Delete(ctx context.Context, id int64) error {
	existing, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete problem")
	}
	s.removeScreenshot(existing.ImageURL)

	if courseID, err := s.resolveCourse(ctx, existing.LogItemID, existing.ExamID); err == nil {
		s.invalidate(ctx, courseID)
	}
	return nil
}

func (s *ProblemService) resolveCourse(ctx context.Context, logItemID, examID *int64) (int64, error) {
	switch {
	case logItemID != nil:
		item, err := s.logItems.GetByID(ctx, *logItemID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return 0, appErrors.Clone(appErrors.ErrNotFound, "log item not found")
			}
			return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load log item")
		}
		return item.CourseID, nil
	case examID != nil:
		exam, err := s.exams.GetByID(ctx, *examID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return 0, appErrors.Clone(appErrors.ErrNotFound, "exam not found")
			}
			return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load exam")
		}
		return exam.CourseID, nil
	}
	return 0, appErrors.Clone(appErrors.ErrValidation, "problem has no parent")
}

func (s *ProblemService) applyCategories(ctx context.Context, courseID, problemID int64, raw *string) error {
	if raw == nil {
		return nil
	}
	names := splitCategoryNames(*raw)
	ids := make([]int64, 0, len(names))
	for _, name := range names {
		id, err := s.categories.FindOrCreate(ctx, courseID, name)
		if err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve category")
		}
		ids = append(ids, id)
	}
	if err := s.categories.ReplaceProblemCategories(ctx, problemID, ids); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to link categories")
	}
	return nil
}

func (s *ProblemService) storeScreenshot(screenshot *Screenshot) (string, error) {
	if s.storage == nil {
		return "", appErrors.Clone(appErrors.ErrInternal, "screenshot storage is not configured")
	}
	ext := strings.ToLower(filepath.Ext(screenshot.Filename))
	switch ext {
	case ".png", ".jpg", ".jpeg", ".gif", ".webp":
	default:
		return "", appErrors.Clone(appErrors.ErrValidation, "unsupported image type")
	}
	filename := uuid.NewString() + ext
	if _, err := s.storage.SaveStream(filename, screenshot.Reader); err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store screenshot")
	}
	return fmt.Sprintf("/uploads/%s", filename), nil
}

func (s *ProblemService) removeScreenshot(imageURL *string) {
	if s.storage == nil || imageURL == nil {
		return
	}
	filename := strings.TrimPrefix(*imageURL, "/uploads/")
	if filename == "" || filename == *imageURL {
		return
	}
	if err := s.storage.Delete(filename); err != nil {
		s.logger.Warn("failed to remove screenshot", zap.String("file", filename), zap.Error(err))
	}
}

func (s *ProblemService) invalidate(ctx context.Context, courseID int64) {
	if s.courses != nil {
		s.courses.InvalidatePublic(ctx, courseID)
	}
}
