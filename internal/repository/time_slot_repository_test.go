package repository

import (
	"context"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-timetable-api/internal/models"
)

func TestTimeSlotRepositoryListByYear(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewTimeSlotRepository(db)

	rows := sqlmock.NewRows([]string{"id", "academic_year_id", "class_section_id", "day_group", "slot_order", "slot_type", "label", "start_time", "end_time"}).
		AddRow("slot-1", "year-1", nil, "WEEKDAY", 1, "PERIOD", "Period 1", "07:00:00", "07:45:00").
		AddRow("slot-2", "year-1", nil, "WEEKDAY", 2, "SHORT_BREAK", "Break", "07:45:00", "08:00:00")
	mock.ExpectQuery(regexp.QuoteMeta("FROM time_slots WHERE academic_year_id = $1")).
		WithArgs("year-1").
		WillReturnRows(rows)

	slots, err := repo.ListByYear(context.Background(), nil, "year-1")
	require.NoError(t, err)
	require.Len(t, slots, 2)
	assert.True(t, slots[0].IsPeriod())
	assert.Equal(t, models.SlotTypeShortBreak, slots[1].Type)
	assert.Equal(t, models.MustClockTime("08:00"), slots[1].EndTime)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTimeSlotRepositoryReplaceScopeKeepsSlotIDs(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewTimeSlotRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM time_slots")).
		WithArgs("year-1", nil, "{\"slot-1\"}").
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO time_slots")).
		WithArgs("slot-1", "year-1", nil, "WEEKDAY", 1, "PERIOD", "Period 1", "07:00:00", "07:45:00").
		WillReturnResult(sqlmock.NewResult(1, 1))

	slots := []models.TimeSlot{{
		ID:             "slot-1",
		AcademicYearID: "year-1",
		DayGroup:       models.DayGroupWeekday,
		Order:          1,
		Type:           models.SlotTypePeriod,
		Label:          "Period 1",
		StartTime:      models.MustClockTime("07:00"),
		EndTime:        models.MustClockTime("07:45"),
	}}
	require.NoError(t, repo.ReplaceScope(context.Background(), nil, "year-1", nil, slots))
	assert.NoError(t, mock.ExpectationsWereMet())
}
