package timetable

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-timetable-api/internal/models"
)

const testYear = "year-1"

func compileVariant(t *testing.T, classID *string, group models.DayGroup, start string, duration, periods int, breaks ...models.BreakConfig) (models.TimingConfig, []models.TimeSlot) {
	t.Helper()
	cfg := models.TimingConfig{
		AcademicYearID:        testYear,
		ClassSectionID:        classID,
		DayGroup:              group,
		StartTime:             clock(start),
		PeriodDurationMinutes: duration,
		TotalPeriods:          periods,
		Breaks:                breaks,
	}
	slots, err := Compile(cfg)
	require.NoError(t, err)
	return cfg, slots
}

// weekdayStore returns a year default weekday variant of
// [PERIOD 09:00-09:45, SHORT_BREAK 09:45-09:55, PERIOD 09:55-10:40].
func weekdayStore(t *testing.T) (*VariantStore, []models.TimeSlot) {
	t.Helper()
	cfg, slots := compileVariant(t, nil, models.DayGroupWeekday, "09:00", 45, 2,
		models.BreakConfig{AfterPeriod: 1, DurationMinutes: 10, Type: models.SlotTypeShortBreak})
	return NewVariantStore([]models.TimingConfig{cfg}, slots), slots
}

func entry(id, classID string, day models.Weekday, slotID, teacherID, subjectID string) models.TimetableEntry {
	return models.TimetableEntry{
		ID:             id,
		ClassSectionID: classID,
		AcademicYearID: testYear,
		Day:            day,
		SlotID:         slotID,
		TeacherID:      teacherID,
		SubjectID:      subjectID,
	}
}

func session(id string, day models.Weekday, start, end, teacherID string) models.ExtraSession {
	return models.ExtraSession{
		ID:             id,
		AcademicYearID: testYear,
		Day:            day,
		StartTime:      clock(start),
		EndTime:        clock(end),
		TeacherID:      teacherID,
		SubjectID:      "subject-x",
	}
}
