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

type logItemService interface {
	Create(ctx context.Context, courseID int64, req service.LogItemRequest) (*models.LogItem, error)
	Get(ctx context.Context, id int64) (*models.LogItem, error)
	ListByCourse(ctx context.Context, courseID int64) ([]models.LogItem, error)
	Update(ctx context.Context, id int64, req service.LogItemRequest) (*models.LogItem, error)
	Delete(ctx context.Context, id int64) error
}

// LogItemHandler exposes course log endpoints.
type LogItemHandler struct {
	service logItemService
}

// NewLogItemHandler builds a new handler.
func NewLogItemHandler(service logItemService) *LogItemHandler {
	return &LogItemHandler{service: service}
}

// ListByCourse godoc
// @Summary List a course's log items
// @Tags LogItems
// @Produce json
// @Param id path int true "Course ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /courses/{id}/log-items [get]
func (h *LogItemHandler) ListByCourse(c *gin.Context) {
	courseID, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	items, err := h.service.ListByCourse(c.Request.Context(), courseID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}

// Create godoc
// @Summary Add a log item to a course
// @Tags LogItems
// @Accept json
// @Produce json
// @Param id path int true "Course ID"
// @Param payload body service.LogItemRequest true "Log item payload"
// @Success 201 {object} response.Envelope
// @Security BearerAuth
// @Router /courses/{id}/log-items [post]
func (h *LogItemHandler) Create(c *gin.Context) {
	courseID, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	var req service.LogItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid log item payload"))
		return
	}
	item, err := h.service.Create(c.Request.Context(), courseID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, item)
}

// Get godoc
// @Summary Get a log item
// @Tags LogItems
// @Produce json
// @Param id path int true "Log item ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /log-items/{id} [get]
func (h *LogItemHandler) Get(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	item, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item, nil)
}

// Update godoc
// @Summary Update a log item
// @Tags LogItems
// @Accept json
// @Produce json
// @Param id path int true "Log item ID"
// @Param payload body service.LogItemRequest true "Log item payload"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /log-items/{id} [put]
func (h *LogItemHandler) Update(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	var req service.LogItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid log item payload"))
		return
	}
	item, err := h.service.Update(c.Request.Context(), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item, nil)
}

// Delete godoc
// @Summary Delete a log item and its problems
// @Tags LogItems
// @Param id path int true "Log item ID"
// @Success 204
// @Security BearerAuth
// @Router /log-items/{id} [delete]
func (h *LogItemHandler) Delete(c *gin.Context) {
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
