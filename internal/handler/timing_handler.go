package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-timetable-api/internal/dto"
	"github.com/noah-isme/sma-timetable-api/internal/middleware"
	"github.com/noah-isme/sma-timetable-api/internal/models"
	appErrors "github.com/noah-isme/sma-timetable-api/pkg/errors"
	"github.com/noah-isme/sma-timetable-api/pkg/response"
)

type timingService interface {
	SaveConfig(ctx context.Context, yearID string, req dto.SaveTimingConfigRequest) (*dto.TimingConfigResponse, error)
	GetConfig(ctx context.Context, yearID string, classID *string) (*dto.TimingConfigResponse, bool, error)
	ListSlots(ctx context.Context, yearID, classID, day string) ([]models.TimeSlot, error)
}

// TimingHandler exposes timing configuration endpoints.
type TimingHandler struct {
	service timingService
}

// NewTimingHandler constructs the handler.
func NewTimingHandler(service timingService) *TimingHandler {
	return &TimingHandler{service: service}
}

// SaveConfig godoc
// @Summary Save timing configuration
// @Description Compiles the weekday and Saturday variants of the year default, or of a class override when classSectionId is set.
// @Tags Timing
// @Accept json
// @Produce json
// @Param yearId path string true "Academic year ID or 'active'"
// @Param payload body dto.SaveTimingConfigRequest true "Timing configuration"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /academic-years/{yearId}/timing-config [put]
func (h *TimingHandler) SaveConfig(c *gin.Context) {
	var req dto.SaveTimingConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid timing configuration payload"))
		return
	}
	result, err := h.service.SaveConfig(c.Request.Context(), c.Param("yearId"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, result)
}

// GetConfig godoc
// @Summary Get timing configuration
// @Tags Timing
// @Produce json
// @Param yearId path string true "Academic year ID or 'active'"
// @Param classSectionId query string false "Class section ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /academic-years/{yearId}/timing-config [get]
func (h *TimingHandler) GetConfig(c *gin.Context) {
	var classID *string
	if raw := strings.TrimSpace(c.Query("classSectionId")); raw != "" {
		classID = &raw
	}
	result, hit, err := h.service.GetConfig(c.Request.Context(), c.Param("yearId"), classID)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, hit)
	response.JSON(c, http.StatusOK, result, middleware.ExtractMeta(c))
}

// ListSlots godoc
// @Summary List the slots of a day
// @Description Returns the Saturday variant for SAT and the weekday variant otherwise.
// @Tags Timing
// @Produce json
// @Param yearId path string true "Academic year ID or 'active'"
// @Param classSectionId query string false "Class section ID"
// @Param day query string false "Day (MON..SAT), defaults to MON"
// @Success 200 {object} response.Envelope
// @Router /academic-years/{yearId}/slots [get]
func (h *TimingHandler) ListSlots(c *gin.Context) {
	slots, err := h.service.ListSlots(c.Request.Context(), c.Param("yearId"), c.Query("classSectionId"), c.Query("day"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, slots)
}
