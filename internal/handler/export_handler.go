package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/lnjng/courselog-api/internal/models"
	"github.com/lnjng/courselog-api/internal/service"
	appErrors "github.com/lnjng/courselog-api/pkg/errors"
	"github.com/lnjng/courselog-api/pkg/response"
)

type exportService interface {
	Enqueue(ctx context.Context, courseID int64, format models.ExportFormat) (*models.ExportJob, error)
	Status(ctx context.Context, jobID string) (*service.ExportStatusResponse, error)
	ResolveDownload(ctx context.Context, token string) (*service.ExportDownload, error)
}

// ExportHandler exposes the problem-bank export workflow.
type ExportHandler struct {
	service exportService
}

// NewExportHandler builds a new handler.
func NewExportHandler(service exportService) *ExportHandler {
	return &ExportHandler{service: service}
}

type exportRequest struct {
	Format string `json:"format"`
}

// Enqueue godoc
// @Summary Start a problem bank export
// @Tags Exports
// @Accept json
// @Produce json
// @Param id path int true "Course ID"
// @Param payload body exportRequest true "Export format: csv or pdf"
// @Success 202 {object} response.Envelope
// @Security BearerAuth
// @Router /courses/{id}/export [post]
func (h *ExportHandler) Enqueue(c *gin.Context) {
	courseID, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	var req exportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid export payload"))
		return
	}
	format := models.ExportFormat(strings.ToLower(strings.TrimSpace(req.Format)))
	job, err := h.service.Enqueue(c.Request.Context(), courseID, format)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusAccepted, job, nil)
}

// Status godoc
// @Summary Get export job status
// @Tags Exports
// @Produce json
// @Param id path string true "Export job ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /exports/{id} [get]
func (h *ExportHandler) Status(c *gin.Context) {
	jobID := strings.TrimSpace(c.Param("id"))
	if jobID == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "export job id is required"))
		return
	}
	status, err := h.service.Status(c.Request.Context(), jobID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, status, nil)
}

// Download godoc
// @Summary Download a completed export via signed token
// @Tags Exports
// @Produce application/octet-stream
// @Param token query string true "Signed download token"
// @Success 200 {file} file
// @Router /exports/download [get]
func (h *ExportHandler) Download(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "download token is required"))
		return
	}
	download, err := h.service.ResolveDownload(c.Request.Context(), token)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.FileAttachment(download.FilePath, download.Job.ID+"."+string(download.Job.Format))
}
