package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-timetable-api/internal/dto"
	"github.com/noah-isme/sma-timetable-api/internal/models"
	appErrors "github.com/noah-isme/sma-timetable-api/pkg/errors"
	"github.com/noah-isme/sma-timetable-api/pkg/response"
)

type extraSessionService interface {
	Add(ctx context.Context, yearID string, req dto.CreateExtraSessionRequest) (*models.ExtraSession, error)
	Remove(ctx context.Context, yearID, id string) error
	List(ctx context.Context, yearID, classID, day, date string) ([]models.ExtraSession, error)
}

// ExtraSessionHandler exposes extra session endpoints.
type ExtraSessionHandler struct {
	service extraSessionService
}

// NewExtraSessionHandler constructs the handler.
func NewExtraSessionHandler(service extraSessionService) *ExtraSessionHandler {
	return &ExtraSessionHandler{service: service}
}

// Create godoc
// @Summary Add an extra session
// @Tags Extra Sessions
// @Accept json
// @Produce json
// @Param yearId path string true "Academic year ID or 'active'"
// @Param payload body dto.CreateExtraSessionRequest true "Extra session"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /academic-years/{yearId}/extra-sessions [post]
func (h *ExtraSessionHandler) Create(c *gin.Context) {
	var req dto.CreateExtraSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid extra session payload"))
		return
	}
	session, err := h.service.Add(c.Request.Context(), c.Param("yearId"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, session)
}

// List godoc
// @Summary List extra sessions
// @Tags Extra Sessions
// @Produce json
// @Param yearId path string true "Academic year ID or 'active'"
// @Param classSectionId query string false "Class section ID"
// @Param day query string false "Day label"
// @Param date query string false "Date (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Router /academic-years/{yearId}/extra-sessions [get]
func (h *ExtraSessionHandler) List(c *gin.Context) {
	sessions, err := h.service.List(c.Request.Context(), c.Param("yearId"), c.Query("classSectionId"), c.Query("day"), c.Query("date"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, sessions)
}

// Delete godoc
// @Summary Remove an extra session
// @Tags Extra Sessions
// @Param yearId path string true "Academic year ID or 'active'"
// @Param id path string true "Extra session ID"
// @Success 204
// @Failure 404 {object} response.Envelope
// @Router /academic-years/{yearId}/extra-sessions/{id} [delete]
func (h *ExtraSessionHandler) Delete(c *gin.Context) {
	if err := h.service.Remove(c.Request.Context(), c.Param("yearId"), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
