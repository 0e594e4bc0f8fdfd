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

type examService interface {
	Create(ctx context.Context, courseID int64, req service.ExamRequest) (*models.Exam, error)
	Get(ctx context.Context, id int64) (*models.Exam, error)
	ListByCourse(ctx context.Context, courseID int64) ([]models.Exam, error)
	Update(ctx context.Context, id int64, req service.ExamRequest) (*models.Exam, error)
	Delete(ctx context.Context, id int64) error
}

// ExamHandler exposes past-exam endpoints.
type ExamHandler struct {
	service examService
}

// NewExamHandler builds a new handler.
func NewExamHandler(service examService) *ExamHandler {
	return &ExamHandler{service: service}
}

// ListByCourse godoc
// @Summary List a course's past exams
// @Tags Exams
// @Produce json
// @Param id path int true "Course ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /courses/{id}/exams [get]
func (h *ExamHandler) ListByCourse(c *gin.Context) {
	courseID, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	exams, err := h.service.ListByCourse(c.Request.Context(), courseID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, exams, nil)
}

// Create godoc
// @Summary Add a past exam to a course
// @Tags Exams
// @Accept json
// @Produce json
// @Param id path int true "Course ID"
// @Param payload body service.ExamRequest true "Exam payload"
// @Success 201 {object} response.Envelope
// @Security BearerAuth
// @Router /courses/{id}/exams [post]
func (h *ExamHandler) Create(c *gin.Context) {
	courseID, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	var req service.ExamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid exam payload"))
		return
	}
	exam, err := h.service.Create(c.Request.Context(), courseID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, exam)
}

// Get godoc
// @Summary Get a past exam
// @Tags Exams
// @Produce json
// @Param id path int true "Exam ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /exams/{id} [get]
func (h *ExamHandler) Get(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	exam, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, exam, nil)
}

// Update godoc
// @Summary Update a past exam
// @Tags Exams
// @Accept json
// @Produce json
// @Param id path int true "Exam ID"
// @Param payload body service.ExamRequest true "Exam payload"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /exams/{id} [put]
func (h *ExamHandler) Update(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	var req service.ExamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid exam payload"))
		return
	}
	exam, err := h.service.Update(c.Request.Context(), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, exam, nil)
}

// Delete godoc
// @Summary Delete a past exam and its problems
// @Tags Exams
// @Param id path int true "Exam ID"
// @Success 204
// @Security BearerAuth
// @Router /exams/{id} [delete]
func (h *ExamHandler) Delete(c *gin.Context) {
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
