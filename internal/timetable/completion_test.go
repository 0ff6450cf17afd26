package timetable

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/sma-timetable-api/internal/models"
)

func TestCompletionScenarioHalfFilled(t *testing.T) {
	wCfg, weekday := compileVariant(t, nil, models.DayGroupWeekday, "07:00", 45, 0)
	sCfg, saturday := compileVariant(t, nil, models.DayGroupSaturday, "07:00", 45, 2,
		models.BreakConfig{AfterPeriod: 1, DurationMinutes: 15})
	store := NewVariantStore([]models.TimingConfig{wCfg, sCfg}, append(weekday, saturday...))
	grid := NewGrid(testYear, store, []models.TimetableEntry{
		entry("e1", "class-a", models.Saturday, saturday[0].ID, "t1", "math"),
	})

	progress := Completion(testYear, "class-a", store, grid, "")
	assert.Equal(t, Progress{Filled: 1, Total: 2, Percentage: 50}, progress)
}

func TestCompletionCountsEveryRegularDay(t *testing.T) {
	store, slots := weekdayStore(t)
	grid := NewGrid(testYear, store, []models.TimetableEntry{
		entry("e1", "class-a", models.Monday, slots[0].ID, "t1", "math"),
		entry("e2", "class-a", models.Monday, slots[2].ID, "t1", "math"),
		entry("e3", "class-a", models.Saturday, slots[0].ID, "t1", "math"),
		entry("e4", "class-b", models.Tuesday, slots[0].ID, "t1", "math"),
	})

	all := Completion(testYear, "class-a", store, grid, "")
	assert.Equal(t, 12, all.Total)
	assert.Equal(t, 3, all.Filled)
	assert.Equal(t, 25, all.Percentage)

	weekdays := Completion(testYear, "class-a", store, grid, models.DayGroupWeekday)
	assert.Equal(t, Progress{Filled: 2, Total: 10, Percentage: 20}, weekdays)

	saturday := Completion(testYear, "class-a", store, grid, models.DayGroupSaturday)
	assert.Equal(t, Progress{Filled: 1, Total: 2, Percentage: 50}, saturday)
}

func TestCompletionWithoutSlots(t *testing.T) {
	store := NewVariantStore(nil, nil)
	assert.Equal(t, Progress{}, Completion(testYear, "class-a", store, NewGrid(testYear, store, nil), ""))
}

func TestPercentageRounds(t *testing.T) {
	assert.Equal(t, 0, Percentage(0, 0))
	assert.Equal(t, 33, Percentage(1, 3))
	assert.Equal(t, 67, Percentage(2, 3))
	assert.Equal(t, 100, Percentage(7, 7))
}
