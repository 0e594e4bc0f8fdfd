package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/lnjng/courselog-api/internal/models"
	appErrors "github.com/lnjng/courselog-api/pkg/errors"
)

type logItemRepository interface {
	Create(ctx context.Context, item *models.LogItem) error
	GetByID(ctx context.Context, id int64) (*models.LogItem, error)
	ListByCourse(ctx context.Context, courseID int64) ([]models.LogItem, error)
	Update(ctx context.Context, item *models.LogItem) error
	Delete(ctx context.Context, id int64) error
}

type courseInvalidator interface {
	InvalidatePublic(ctx context.Context, courseID int64)
}

// LogItemService handles course log workflows.
type LogItemService struct {
	repo      logItemRepository
	courses   courseInvalidator
	validator *validator.Validate
	logger    *zap.Logger
}

// NewLogItemService constructs the service. courses may be nil when public
// cache invalidation is not wired.
func NewLogItemService(repo logItemRepository, courses courseInvalidator, validate *validator.Validate, logger *zap.Logger) *LogItemService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogItemService{repo: repo, courses: courses, validator: validate, logger: logger}
}

// LogItemRequest describes the create/update payload.
type LogItemRequest struct {
	Kind        string  `json:"kind" validate:"required,max=32"`
	Title       string  `json:"title" validate:"required,max=300"`
	Description *string `json:"description,omitempty"`
	Link        *string `json:"link,omitempty" validate:"omitempty,url"`
	Date        *string `json:"date,omitempty"`
}

func normalizeDate(date *string) (*string, error) {
	if date == nil || *date == "" {
		return nil, nil
	}
	if _, err := time.Parse("2006-01-02", *date); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "date must be YYYY-MM-DD")
	}
	return date, nil
}

// Create adds a log item to a course.
func (s *LogItemService) Create(ctx context.Context, courseID int64, req LogItemRequest) (*models.LogItem, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid log item payload")
	}
	date, err := normalizeDate(req.Date)
	if err != nil {
		return nil, err
	}

	item := &models.LogItem{
		CourseID:    courseID,
		Kind:        req.Kind,
		Title:       req.Title,
		Description: emptyToNil(req.Description),
		Link:        emptyToNil(req.Link),
		Date:        date,
	}
	if err := s.repo.Create(ctx, item); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create log item")
	}
	s.invalidate(ctx, courseID)
	return item, nil
}

// Get fetches one log item.
func (s *LogItemService) Get(ctx context.Context, id int64) (*models.LogItem, error) {
	item, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "log item not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load log item")
	}
	return item, nil
}

// ListByCourse returns the course's log, dated items first in ascending
// order.
func (s *LogItemService) ListByCourse(ctx context.Context, courseID int64) ([]models.LogItem, error) {
	items, err := s.repo.ListByCourse(ctx, courseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list log items")
	}
	return items, nil
}

// Update replaces a log item's fields.
func (s *LogItemService) Update(ctx context.Context, id int64, req LogItemRequest) (*models.LogItem, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid log item payload")
	}
	date, err := normalizeDate(req.Date)
	if err != nil {
		return nil, err
	}

	item, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	item.Kind = req.Kind
	item.Title = req.Title
	item.Description = emptyToNil(req.Description)
	item.Link = emptyToNil(req.Link)
	item.Date = date

	if err := s.repo.Update(ctx, item); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update log item")
	}
	s.invalidate(ctx, item.CourseID)
	return item, nil
}

// Delete removes a log item and, through the schema, its problems.
func (s *LogItemService) Delete(ctx context.Context, id int64) error {
	item, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete log item")
	}
	s.invalidate(ctx, item.CourseID)
	return nil
}

func (s *LogItemService) invalidate(ctx context.Context, courseID int64) {
	if s.courses != nil {
		s.courses.InvalidatePublic(ctx, courseID)
	}
}

func emptyToNil(value *string) *string {
	if value == nil || *value == "" {
		return nil
	}
	return value
}
