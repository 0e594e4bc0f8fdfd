package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lnjng/courselog-api/internal/models"
	"github.com/lnjng/courselog-api/internal/service"
	appErrors "github.com/lnjng/courselog-api/pkg/errors"
	"github.com/lnjng/courselog-api/pkg/response"
)

type courseService interface {
	Create(ctx context.Context, req service.CreateCourseRequest) (*models.Course, error)
	Get(ctx context.Context, id int64) (*models.Course, error)
	ListBySemester(ctx context.Context, semesterID int64) ([]models.Course, error)
	Update(ctx context.Context, id int64, req service.UpdateCourseRequest) (*models.Course, error)
	Delete(ctx context.Context, id int64) error
}

type courseTranslationService interface {
	Enqueue(ctx context.Context, courseID int64) (string, error)
}

// CourseHandler exposes course endpoints, including publish settings and the
// translate-course trigger.
type CourseHandler struct {
	service      courseService
	translations courseTranslationService
}

// NewCourseHandler builds a new handler.
func NewCourseHandler(service courseService, translations courseTranslationService) *CourseHandler {
	return &CourseHandler{service: service, translations: translations}
}

// ListBySemester godoc
// @Summary List a semester's courses
// @Tags Courses
// @Produce json
// @Param id path int true "Semester ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /semesters/{id}/courses [get]
func (h *CourseHandler) ListBySemester(c *gin.Context) {
	semesterID, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	courses, err := h.service.ListBySemester(c.Request.Context(), semesterID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, courses, nil)
}

// Create godoc
// @Summary Create a course
// @Tags Courses
// @Accept json
// @Produce json
// @Param payload body service.CreateCourseRequest true "Course payload"
// @Success 201 {object} response.Envelope
// @Security BearerAuth
// @Router /courses [post]
func (h *CourseHandler) Create(c *gin.Context) {
	var req service.CreateCourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid course payload"))
		return
	}
	course, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, course)
}

// Get godoc
// @Summary Get a course
// @Tags Courses
// @Produce json
// @Param id path int true "Course ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /courses/{id} [get]
func (h *CourseHandler) Get(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	course, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, course, nil)
}

// Update godoc
// @Summary Update course settings
// @Description Publishing without a slug mints one automatically.
// @Tags Courses
// @Accept json
// @Produce json
// @Param id path int true "Course ID"
// @Param payload body service.UpdateCourseRequest true "Settings payload"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /courses/{id} [patch]
func (h *CourseHandler) Update(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	var req service.UpdateCourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid course payload"))
		return
	}
	course, err := h.service.Update(c.Request.Context(), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, course, nil)
}

// Delete godoc
// @Summary Delete a course and all of its content
// @Tags Courses
// @Param id path int true "Course ID"
// @Success 204
// @Security BearerAuth
// @Router /courses/{id} [delete]
func (h *CourseHandler) Delete(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Translate godoc
// @Summary Queue a translation run for the course
// @Description Pre-warms the translation cache for the public pages.
// @Tags Courses
// @Produce json
// @Param id path int true "Course ID"
// @Success 202 {object} response.Envelope
// @Security BearerAuth
// @Router /courses/{id}/translate [post]
func (h *CourseHandler) Translate(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	jobID, err := h.translations.Enqueue(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusAccepted, gin.H{"job_id": jobID}, nil)
}
