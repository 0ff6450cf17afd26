package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-timetable-api/internal/dto"
	"github.com/noah-isme/sma-timetable-api/internal/middleware"
	"github.com/noah-isme/sma-timetable-api/internal/models"
	"github.com/noah-isme/sma-timetable-api/internal/service"
	"github.com/noah-isme/sma-timetable-api/internal/timetable"
	appErrors "github.com/noah-isme/sma-timetable-api/pkg/errors"
)

type fakeTimetableService struct {
	saved    dto.SaveTimetableRequest
	classID  string
	dayGroup string
	saveErr  error
	hit      bool
}

func (f *fakeTimetableService) SaveEntries(_ context.Context, yearID, classID string, req dto.SaveTimetableRequest) (*dto.ClassTimetableResponse, error) {
	f.classID = classID
	f.saved = req
	if f.saveErr != nil {
		return nil, f.saveErr
	}
	return &dto.ClassTimetableResponse{AcademicYearID: yearID, ClassSectionID: classID, Entries: []models.TimetableEntry{}}, nil
}

func (f *fakeTimetableService) GetEntries(_ context.Context, yearID, classID string) (*dto.ClassTimetableResponse, bool, error) {
	return &dto.ClassTimetableResponse{AcademicYearID: yearID, ClassSectionID: classID}, f.hit, nil
}

func (f *fakeTimetableService) Grid(_ context.Context, yearID, classID string) (*timetable.View, bool, error) {
	return &timetable.View{AcademicYearID: yearID, ClassSectionID: classID, Days: []timetable.DayColumn{}}, f.hit, nil
}

func (f *fakeTimetableService) Completion(_ context.Context, yearID, classID, dayGroup string) (*timetable.Progress, bool, error) {
	f.dayGroup = dayGroup
	return &timetable.Progress{Filled: 1, Total: 2, Percentage: 50}, f.hit, nil
}

func (f *fakeTimetableService) Conflicts(_ context.Context, yearID string) ([]dto.ConflictView, error) {
	return []dto.ConflictView{{Day: models.Monday, Time: "09:00-09:45", TeacherID: "t1"}}, nil
}

type fakeExporter struct {
	format string
}

func (f *fakeExporter) Export(_ context.Context, yearID, classID, format string) (*service.ExportResult, error) {
	f.format = format
	return &service.ExportResult{Filename: "timetable_X-A.csv", ContentType: "text/csv", Content: []byte("Day,Slot\n")}, nil
}

func newTimetableRouter(svc timetableService, exporter timetableExporter) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewTimetableHandler(svc, exporter)
	router := gin.New()
	router.Use(middleware.WithResponseMeta())
	classes := router.Group("/academic-years/:yearId/classes/:classId/timetable")
	classes.PUT("", h.SaveEntries)
	classes.GET("", h.GetEntries)
	classes.GET("/grid", h.Grid)
	classes.GET("/completion", h.Completion)
	classes.GET("/export", h.Export)
	router.GET("/academic-years/:yearId/conflicts", h.Conflicts)
	return router
}

func TestTimetableHandlerSaveEntries(t *testing.T) {
	svc := &fakeTimetableService{}
	router := newTimetableRouter(svc, nil)

	body := []byte(`{"entries":[{"day":"MON","periodSlotId":"slot-1","teacherId":"t1","subjectId":"math"}]}`)
	req := httptest.NewRequest(http.MethodPut, "/academic-years/year-1/classes/class-a/timetable", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "class-a", svc.classID)
	require.Len(t, svc.saved.Entries, 1)
	assert.Equal(t, "slot-1", svc.saved.Entries[0].PeriodSlotID)
}

func TestTimetableHandlerSaveEntriesConflict(t *testing.T) {
	views := []dto.ConflictView{{Day: models.Wednesday, Time: "09:55-10:40", TeacherID: "t1", OtherClassID: "class-b"}}
	svc := &fakeTimetableService{saveErr: appErrors.Clone(appErrors.ErrConflict, "timetable would double book teachers").WithDetails(views)}
	router := newTimetableRouter(svc, nil)

	req := httptest.NewRequest(http.MethodPut, "/academic-years/year-1/classes/class-a/timetable", bytes.NewReader([]byte(`{"entries":[]}`)))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusConflict, rec.Code)
	var envelope struct {
		Error struct {
			Code    string             `json:"code"`
			Details []dto.ConflictView `json:"details"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, "CONFLICT", envelope.Error.Code)
	require.Len(t, envelope.Error.Details, 1)
	assert.Equal(t, "class-b", envelope.Error.Details[0].OtherClassID)
	assert.Equal(t, "09:55-10:40", envelope.Error.Details[0].Time)
}

func TestTimetableHandlerReadsReportCacheHit(t *testing.T) {
	svc := &fakeTimetableService{hit: true}
	router := newTimetableRouter(svc, nil)

	for _, path := range []string{
		"/academic-years/year-1/classes/class-a/timetable",
		"/academic-years/year-1/classes/class-a/timetable/grid",
		"/academic-years/year-1/classes/class-a/timetable/completion?dayGroup=SATURDAY",
	} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		require.Equal(t, http.StatusOK, rec.Code, path)
		assert.Equal(t, "true", rec.Header().Get(middleware.CacheHitHeader), path)
	}
	assert.Equal(t, "SATURDAY", svc.dayGroup)
}

func TestTimetableHandlerConflicts(t *testing.T) {
	router := newTimetableRouter(&fakeTimetableService{}, nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/academic-years/year-1/conflicts", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var envelope struct {
		Data []dto.ConflictView      `json:"data"`
		Meta map[string]interface{} `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	require.Len(t, envelope.Data, 1)
	assert.Equal(t, float64(1), envelope.Meta["total"])
}

func TestTimetableHandlerExport(t *testing.T) {
	exporter := &fakeExporter{}
	router := newTimetableRouter(&fakeTimetableService{}, exporter)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/academic-years/year-1/classes/class-a/timetable/export", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "csv", exporter.format)
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="timetable_X-A.csv"`, rec.Header().Get("Content-Disposition"))
	assert.Equal(t, "Day,Slot\n", rec.Body.String())

	disabled := newTimetableRouter(&fakeTimetableService{}, nil)
	rec = httptest.NewRecorder()
	disabled.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/academic-years/year-1/classes/class-a/timetable/export?format=pdf", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
