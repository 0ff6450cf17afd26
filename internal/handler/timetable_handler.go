package handler

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-timetable-api/internal/dto"
	"github.com/noah-isme/sma-timetable-api/internal/middleware"
	"github.com/noah-isme/sma-timetable-api/internal/service"
	"github.com/noah-isme/sma-timetable-api/internal/timetable"
	appErrors "github.com/noah-isme/sma-timetable-api/pkg/errors"
	"github.com/noah-isme/sma-timetable-api/pkg/response"
)

type timetableService interface {
	SaveEntries(ctx context.Context, yearID, classID string, req dto.SaveTimetableRequest) (*dto.ClassTimetableResponse, error)
	GetEntries(ctx context.Context, yearID, classID string) (*dto.ClassTimetableResponse, bool, error)
	Grid(ctx context.Context, yearID, classID string) (*timetable.View, bool, error)
	Completion(ctx context.Context, yearID, classID, dayGroup string) (*timetable.Progress, bool, error)
	Conflicts(ctx context.Context, yearID string) ([]dto.ConflictView, error)
}

type timetableExporter interface {
	Export(ctx context.Context, yearID, classID, format string) (*service.ExportResult, error)
}

// TimetableHandler exposes class timetable endpoints.
type TimetableHandler struct {
	service  timetableService
	exporter timetableExporter
}

// NewTimetableHandler constructs the handler. A nil exporter disables the export endpoint.
func NewTimetableHandler(svc timetableService, exporter timetableExporter) *TimetableHandler {
	return &TimetableHandler{service: svc, exporter: exporter}
}

// SaveEntries godoc
// @Summary Replace a class timetable
// @Description Validates and conflict checks the whole batch; nothing is written when any entry fails.
// @Tags Timetable
// @Accept json
// @Produce json
// @Param yearId path string true "Academic year ID or 'active'"
// @Param classId path string true "Class section ID"
// @Param payload body dto.SaveTimetableRequest true "Timetable entries"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /academic-years/{yearId}/classes/{classId}/timetable [put]
func (h *TimetableHandler) SaveEntries(c *gin.Context) {
	var req dto.SaveTimetableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid timetable payload"))
		return
	}
	result, err := h.service.SaveEntries(c.Request.Context(), c.Param("yearId"), c.Param("classId"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, result)
}

// GetEntries godoc
// @Summary Get a class timetable
// @Tags Timetable
// @Produce json
// @Param yearId path string true "Academic year ID or 'active'"
// @Param classId path string true "Class section ID"
// @Success 200 {object} response.Envelope
// @Router /academic-years/{yearId}/classes/{classId}/timetable [get]
func (h *TimetableHandler) GetEntries(c *gin.Context) {
	result, hit, err := h.service.GetEntries(c.Request.Context(), c.Param("yearId"), c.Param("classId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, hit)
	response.JSON(c, http.StatusOK, result, middleware.ExtractMeta(c))
}

// Grid godoc
// @Summary Get the merged timetable grid
// @Description Day columns with entries and the class extra sessions placed into matching periods.
// @Tags Timetable
// @Produce json
// @Param yearId path string true "Academic year ID or 'active'"
// @Param classId path string true "Class section ID"
// @Success 200 {object} response.Envelope
// @Router /academic-years/{yearId}/classes/{classId}/timetable/grid [get]
func (h *TimetableHandler) Grid(c *gin.Context) {
	view, hit, err := h.service.Grid(c.Request.Context(), c.Param("yearId"), c.Param("classId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, hit)
	response.JSON(c, http.StatusOK, view, middleware.ExtractMeta(c))
}

// Completion godoc
// @Summary Get timetable completion
// @Tags Timetable
// @Produce json
// @Param yearId path string true "Academic year ID or 'active'"
// @Param classId path string true "Class section ID"
// @Param dayGroup query string false "WEEKDAY or SATURDAY"
// @Success 200 {object} response.Envelope
// @Router /academic-years/{yearId}/classes/{classId}/timetable/completion [get]
func (h *TimetableHandler) Completion(c *gin.Context) {
	progress, hit, err := h.service.Completion(c.Request.Context(), c.Param("yearId"), c.Param("classId"), c.Query("dayGroup"))
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, hit)
	response.JSON(c, http.StatusOK, progress, middleware.ExtractMeta(c))
}

// Conflicts godoc
// @Summary Audit teacher double bookings of a year
// @Tags Timetable
// @Produce json
// @Param yearId path string true "Academic year ID or 'active'"
// @Success 200 {object} response.Envelope
// @Router /academic-years/{yearId}/conflicts [get]
func (h *TimetableHandler) Conflicts(c *gin.Context) {
	conflicts, err := h.service.Conflicts(c.Request.Context(), c.Param("yearId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, conflicts, map[string]interface{}{"total": len(conflicts)})
}

// Export godoc
// @Summary Export a class timetable
// @Tags Timetable
// @Produce text/csv
// @Produce application/pdf
// @Param yearId path string true "Academic year ID or 'active'"
// @Param classId path string true "Class section ID"
// @Param format query string false "csv or pdf" default(csv)
// @Success 200 {file} file
// @Router /academic-years/{yearId}/classes/{classId}/timetable/export [get]
func (h *TimetableHandler) Export(c *gin.Context) {
	if h.exporter == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "timetable export is disabled"))
		return
	}
	result, err := h.exporter.Export(c.Request.Context(), c.Param("yearId"), c.Param("classId"), c.DefaultQuery("format", "csv"))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", result.Filename))
	c.Data(http.StatusOK, result.ContentType, result.Content)
}
