package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lnjng/courselog-api/internal/models"
	appErrors "github.com/lnjng/courselog-api/pkg/errors"
)

type courseRepository interface {
	Create(ctx context.Context, course *models.Course) error
	GetByID(ctx context.Context, id int64) (*models.Course, error)
	ListBySemester(ctx context.Context, semesterID int64) ([]models.Course, error)
	FindPublishedBySlug(ctx context.Context, slug string) (*models.Course, error)
	Update(ctx context.Context, course *models.Course) error
	Delete(ctx context.Context, id int64) error
}

type publicCacheInvalidator interface {
	DeleteByPattern(ctx context.Context, pattern string) error
}

// CourseService handles course workflows, including publishing a course's
// read-only public views.
type CourseService struct {
	repo      courseRepository
	cache     publicCacheInvalidator
	validator *validator.Validate
	logger    *zap.Logger
}

// NewCourseService constructs the service. cache may be nil.
func NewCourseService(repo courseRepository, cache publicCacheInvalidator, validate *validator.Validate, logger *zap.Logger) *CourseService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CourseService{repo: repo, cache: cache, validator: validate, logger: logger}
}

// CreateCourseRequest describes the create payload.
type CreateCourseRequest struct {
	SemesterID int64  `json:"semester_id" validate:"required"`
	Code       string `json:"code" validate:"required,max=32"`
	Title      string `json:"title" validate:"required,max=200"`
}

// UpdateCourseRequest describes the settings payload. Pointer fields are
// applied only when present.
type UpdateCourseRequest struct {
	Code             *string `json:"code,omitempty" validate:"omitempty,max=32"`
	Title            *string `json:"title,omitempty" validate:"omitempty,max=200"`
	IsPublished      *bool   `json:"is_published,omitempty"`
	PublicSlug       *string `json:"public_slug,omitempty" validate:"omitempty,max=64"`
	ShowLectureLinks *bool   `json:"show_lecture_links,omitempty"`
}

// Create adds a course to a semester.
func (s *CourseService) Create(ctx context.Context, req CreateCourseRequest) (*models.Course, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid course payload")
	}
	course := &models.Course{
		SemesterID:       req.SemesterID,
		Code:             req.Code,
		Title:            req.Title,
		ShowLectureLinks: true,
	}
	if err := s.repo.Create(ctx, course); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create course")
	}
	return course, nil
}

// Get fetches one course.
func (s *CourseService) Get(ctx context.Context, id int64) (*models.Course, error) {
	course, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	return course, nil
}

// ListBySemester returns a semester's courses.
func (s *CourseService) ListBySemester(ctx context.Context, semesterID int64) ([]models.Course, error) {
	courses, err := s.repo.ListBySemester(ctx, semesterID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list courses")
	}
	return courses, nil
}

// Update applies the provided settings. Publishing without a slug mints one;
// any change drops the course's cached public payloads.
func (s *CourseService) Update(ctx context.Context, id int64, req UpdateCourseRequest) (*models.Course, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid course payload")
	}

	course, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	previousSlug := course.PublicSlug

	if req.Code != nil {
		course.Code = *req.Code
	}
	if req.Title != nil {
		course.Title = *req.Title
	}
	if req.PublicSlug != nil {
		slug := strings.TrimSpace(*req.PublicSlug)
		if slug == "" {
			course.PublicSlug = nil
		} else {
			course.PublicSlug = &slug
		}
	}
	if req.IsPublished != nil {
		course.IsPublished = *req.IsPublished
	}
	if req.ShowLectureLinks != nil {
		course.ShowLectureLinks = *req.ShowLectureLinks
	}

	if course.IsPublished && course.PublicSlug == nil {
		slug := uuid.NewString()[:8]
		course.PublicSlug = &slug
	}

	if err := s.repo.Update(ctx, course); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update course")
	}

	s.invalidatePublic(ctx, previousSlug)
	s.invalidatePublic(ctx, course.PublicSlug)
	return course, nil
}

// Delete removes a course and all of its content.
func (s *CourseService) Delete(ctx context.Context, id int64) error {
	course, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete course")
	}
	s.invalidatePublic(ctx, course.PublicSlug)
	s.logger.Info("course deleted", zap.Int64("course_id", id))
	return nil
}

// InvalidatePublic drops cached public payloads for a course. Content
// services call this when the course's log or problem bank changes.
func (s *CourseService) InvalidatePublic(ctx context.Context, courseID int64) {
	course, err := s.repo.GetByID(ctx, courseID)
	if err != nil {
		return
	}
	s.invalidatePublic(ctx, course.PublicSlug)
}

func (s *CourseService) invalidatePublic(ctx context.Context, slug *string) {
	if s.cache == nil || slug == nil || *slug == "" {
		return
	}
	if err := s.cache.DeleteByPattern(ctx, "public:"+*slug+":*"); err != nil {
		s.logger.Warn("failed to invalidate public cache", zap.String("slug", *slug), zap.Error(err))
	}
}
