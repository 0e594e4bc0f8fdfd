package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lnjng/courselog-api/internal/service"
	"github.com/lnjng/courselog-api/pkg/response"
)

type publicService interface {
	Calendar(ctx context.Context, slug, lang string) (*service.PublicCalendarPayload, error)
	Problems(ctx context.Context, slug, lang string) (*service.PublicProblemsPayload, error)
}

// PublicHandler serves the unauthenticated course pages. The default
// language is English; the /zh variants return the untranslated originals.
type PublicHandler struct {
	service publicService
}

// NewPublicHandler builds a new handler.
func NewPublicHandler(service publicService) *PublicHandler {
	return &PublicHandler{service: service}
}

// Calendar godoc
// @Summary Public course calendar (English)
// @Tags Public
// @Produce json
// @Param slug path string true "Course slug"
// @Success 200 {object} response.Envelope
// @Router /p/{slug} [get]
func (h *PublicHandler) Calendar(c *gin.Context) {
	h.calendar(c, "en")
}

// CalendarZH godoc
// @Summary Public course calendar (original language)
// @Tags Public
// @Produce json
// @Param slug path string true "Course slug"
// @Success 200 {object} response.Envelope
// @Router /p/{slug}/zh [get]
func (h *PublicHandler) CalendarZH(c *gin.Context) {
	h.calendar(c, "zh")
}

// Problems godoc
// @Summary Public problem bank (English)
// @Tags Public
// @Produce json
// @Param slug path string true "Course slug"
// @Success 200 {object} response.Envelope
// @Router /p/{slug}/problems [get]
func (h *PublicHandler) Problems(c *gin.Context) {
	h.problems(c, "en")
}

// ProblemsZH godoc
// @Summary Public problem bank (original language)
// @Tags Public
// @Produce json
// @Param slug path string true "Course slug"
// @Success 200 {object} response.Envelope
// @Router /p/{slug}/zh/problems [get]
func (h *PublicHandler) ProblemsZH(c *gin.Context) {
	h.problems(c, "zh")
}

func (h *PublicHandler) calendar(c *gin.Context, lang string) {
	payload, err := h.service.Calendar(c.Request.Context(), c.Param("slug"), lang)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, payload, nil)
}

func (h *PublicHandler) problems(c *gin.Context, lang string) {
	payload, err := h.service.Problems(c.Request.Context(), c.Param("slug"), lang)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, payload, nil)
}
