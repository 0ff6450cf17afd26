package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-timetable-api/internal/models"
	appErrors "github.com/noah-isme/sma-timetable-api/pkg/errors"
	"github.com/noah-isme/sma-timetable-api/pkg/export"
)

type failingRenderer struct{}

func (failingRenderer) Render(table export.Table) ([]byte, error) {
	return nil, errors.New("renderer offline")
}

func TestExportServiceCSV(t *testing.T) {
	f := newTimetableFixture(t)
	slots := f.seedWeekday(t)
	f.seedEntry("a-1", classA, models.Monday, slots[0].ID, "t1", "math")
	f.sessions.items = []models.ExtraSession{
		{ID: "s-1", AcademicYearID: testYearID, ClassSectionID: strPtr(classA), Day: models.Monday, StartTime: models.MustClockTime("10:00"), EndTime: models.MustClockTime("10:30"), TeacherID: "t2", SubjectID: "bio"},
	}
	svc := NewExportService(f.deps, nil, nil)

	result, err := svc.Export(context.Background(), testYearID, classA, "CSV")
	require.NoError(t, err)
	assert.Equal(t, "text/csv", result.ContentType)
	assert.Equal(t, "timetable_X-A_2024-2025.csv", result.Filename)

	records, err := csv.NewReader(bytes.NewReader(result.Content)).ReadAll()
	require.NoError(t, err)
	require.NotEmpty(t, records)
	assert.Equal(t, []string{"Day", "Slot", "Time", "Subject", "Teacher", "Notes"}, records[0])
	assert.Equal(t, []string{"MON", "Period 1", "09:00-09:45", "Mathematics", "Budi Santoso", ""}, records[1])
	assert.Equal(t, "MON", records[3][0])
	assert.Equal(t, "Extra 10:00-10:30 Biology (Siti Aminah)", records[3][5])
	// 3 slots on each of the six regular days plus the header.
	assert.Len(t, records, 19)
}

func TestExportServicePDF(t *testing.T) {
	f := newTimetableFixture(t)
	f.seedWeekday(t)
	svc := NewExportService(f.deps, nil, nil)

	result, err := svc.Export(context.Background(), testYearID, classA, "pdf")
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", result.ContentType)
	assert.True(t, bytes.HasPrefix(result.Content, []byte("%PDF")))
}

func TestExportServiceErrors(t *testing.T) {
	f := newTimetableFixture(t)
	f.seedWeekday(t)
	svc := NewExportService(f.deps, failingRenderer{}, nil)
	ctx := context.Background()

	_, err := svc.Export(ctx, testYearID, classA, "xlsx")
	assert.True(t, errors.Is(err, appErrors.ErrValidation))

	_, err = svc.Export(ctx, testYearID, "class-x", "csv")
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))

	_, err = svc.Export(ctx, testYearID, classA, "csv")
	assert.True(t, errors.Is(err, appErrors.ErrInternal))
}
