package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/lnjng/courselog-api/internal/models"
	"github.com/lnjng/courselog-api/internal/service"
	appErrors "github.com/lnjng/courselog-api/pkg/errors"
	"github.com/lnjng/courselog-api/pkg/response"
)

type problemService interface {
	Create(ctx context.Context, req service.ProblemRequest, screenshot *service.Screenshot) (*models.ProblemWithCategories, error)
	Get(ctx context.Context, id int64) (*models.ProblemWithCategories, error)
	ListByLogItem(ctx context.Context, logItemID int64) ([]models.ProblemWithCategories, error)
	ListByExam(ctx context.Context, examID int64) ([]models.ProblemWithCategories, error)
	Study(ctx context.Context, courseID int64, filter models.StudyFilter) ([]models.ProblemWithCategories, error)
	Categories(ctx context.Context, courseID int64) ([]models.Category, error)
	Update(ctx context.Context, id int64, req service.ProblemRequest, screenshot *service.Screenshot) (*models.ProblemWithCategories, error)
	Delete(ctx context.Context, id int64) error
}

// ProblemHandler exposes problem-bank endpoints. Create and update accept
// multipart form data so a screenshot can ride along with the fields.
type ProblemHandler struct {
	service problemService
}

// NewProblemHandler builds a new handler.
func NewProblemHandler(service problemService) *ProblemHandler {
	return &ProblemHandler{service: service}
}

// ListByLogItem godoc
// @Summary List problems attached to a log item
// @Tags Problems
// @Produce json
// @Param id path int true "Log item ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /log-items/{id}/problems [get]
func (h *ProblemHandler) ListByLogItem(c *gin.Context) {
	logItemID, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	problems, err := h.service.ListByLogItem(c.Request.Context(), logItemID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, problems, nil)
}

// ListByExam godoc
// @Summary List problems attached to a past exam
// @Tags Problems
// @Produce json
// @Param id path int true "Exam ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /exams/{id}/problems [get]
func (h *ProblemHandler) ListByExam(c *gin.Context) {
	examID, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	problems, err := h.service.ListByExam(c.Request.Context(), examID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, problems, nil)
}

// Study godoc
// @Summary List a course's problem bank with optional filters
// @Tags Problems
// @Produce json
// @Param id path int true "Course ID"
// @Param kinds query string false "Comma-separated source kinds (Exam selects exam-attached problems)"
// @Param category_ids query string false "Comma-separated category IDs"
// @Param incorrect_only query bool false "Only problems marked incorrect"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /courses/{id}/study [get]
func (h *ProblemHandler) Study(c *gin.Context) {
	courseID, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	filter, err := parseStudyFilter(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	problems, err := h.service.Study(c.Request.Context(), courseID, filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, problems, nil)
}

// Categories godoc
// @Summary List a course's problem categories
// @Tags Problems
// @Produce json
// @Param id path int true "Course ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /courses/{id}/categories [get]
func (h *ProblemHandler) Categories(c *gin.Context) {
	courseID, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	categories, err := h.service.Categories(c.Request.Context(), courseID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, categories, nil)
}

// Get godoc
// @Summary Get a problem
// @Tags Problems
// @Produce json
// @Param id path int true "Problem ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /problems/{id} [get]
func (h *ProblemHandler) Get(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	problem, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, problem, nil)
}

// Create godoc
// @Summary Record a problem, optionally with a screenshot
// @Tags Problems
// @Accept multipart/form-data
// @Produce json
// @Param description formData string true "Problem description"
// @Param log_item_id formData int false "Parent log item (exactly one parent required)"
// @Param exam_id formData int false "Parent exam (exactly one parent required)"
// @Param notes formData string false "Solution notes"
// @Param solution_link formData string false "Solution URL"
// @Param is_incorrect formData bool false "Marked incorrect"
// @Param categories formData string false "Comma-separated category names"
// @Param image formData file false "Screenshot"
// @Success 201 {object} response.Envelope
// @Security BearerAuth
// @Router /problems [post]
func (h *ProblemHandler) Create(c *gin.Context) {
	req, screenshot, err := parseProblemForm(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	problem, err := h.service.Create(c.Request.Context(), req, screenshot)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, problem)
}

// Update godoc
// @Summary Update a problem, optionally replacing its screenshot
// @Tags Problems
// @Accept multipart/form-data
// @Produce json
// @Param id path int true "Problem ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /problems/{id} [put]
func (h *ProblemHandler) Update(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	req, screenshot, err := parseProblemForm(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	problem, err := h.service.Update(c.Request.Context(), id, req, screenshot)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, problem, nil)
}

// Delete godoc
// @Summary Delete a problem and its screenshot
// @Tags Problems
// @Param id path int true "Problem ID"
// @Success 204
// @Security BearerAuth
// @Router /problems/{id} [delete]
func (h *ProblemHandler) Delete(c *gin.Context) {
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

func parseProblemForm(c *gin.Context) (service.ProblemRequest, *service.Screenshot, error) {
	var req service.ProblemRequest
	req.Description = c.PostForm("description")
	req.Notes = formOptional(c, "notes")
	req.SolutionLink = formOptional(c, "solution_link")
	req.Categories = formOptional(c, "categories")
	req.IsIncorrect = c.PostForm("is_incorrect") == "true"

	var err error
	if req.LogItemID, err = formOptionalID(c, "log_item_id"); err != nil {
		return req, nil, err
	}
	if req.ExamID, err = formOptionalID(c, "exam_id"); err != nil {
		return req, nil, err
	}

	file, header, err := c.Request.FormFile("image")
	if err != nil {
		if err == http.ErrMissingFile {
			return req, nil, nil
		}
		return req, nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid screenshot upload")
	}
	return req, &service.Screenshot{Reader: file, Filename: header.Filename}, nil
}

func formOptional(c *gin.Context, name string) *string {
	value := strings.TrimSpace(c.PostForm(name))
	if value == "" {
		return nil
	}
	return &value
}

func formOptionalID(c *gin.Context, name string) (*int64, error) {
	raw := strings.TrimSpace(c.PostForm(name))
	if raw == "" {
		return nil, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid "+name)
	}
	return &id, nil
}

func parseStudyFilter(c *gin.Context) (models.StudyFilter, error) {
	var filter models.StudyFilter
	if raw := strings.TrimSpace(c.Query("kinds")); raw != "" {
		for _, kind := range strings.Split(raw, ",") {
			if kind = strings.TrimSpace(kind); kind != "" {
				filter.Kinds = append(filter.Kinds, kind)
			}
		}
	}
	if raw := strings.TrimSpace(c.Query("category_ids")); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			id, err := strconv.ParseInt(part, 10, 64)
			if err != nil || id <= 0 {
				return filter, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid category_ids")
			}
			filter.CategoryIDs = append(filter.CategoryIDs, id)
		}
	}
	filter.IncorrectOnly = c.Query("incorrect_only") == "true"
	return filter, nil
}
