package timetable

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-timetable-api/internal/models"
)

func TestMatchSlotUsesContainment(t *testing.T) {
	_, slots := weekdayStore(t)

	slot, ok := MatchSlot(slots, clock("09:00"))
	require.True(t, ok)
	assert.Equal(t, slots[0].ID, slot.ID)

	slot, ok = MatchSlot(slots, clock("09:44"))
	require.True(t, ok)
	assert.Equal(t, slots[0].ID, slot.ID)

	_, ok = MatchSlot(slots, clock("09:50"))
	assert.False(t, ok, "breaks never hold sessions")

	slot, ok = MatchSlot(slots, clock("09:55"))
	require.True(t, ok)
	assert.Equal(t, slots[2].ID, slot.ID)

	_, ok = MatchSlot(slots, clock("10:40"))
	assert.False(t, ok)
}

func TestMergeView(t *testing.T) {
	store, slots := weekdayStore(t)
	grid := NewGrid(testYear, store, []models.TimetableEntry{
		entry("e1", "class-a", models.Monday, slots[0].ID, "t1", "math"),
		entry("e2", "class-b", models.Monday, slots[2].ID, "t2", "art"),
	})
	sessions := []models.ExtraSession{
		session("s1", "monday", "09:10", "09:40", "t3"),
		session("s2", models.Monday, "13:00", "14:00", "t3"),
		session("s3", models.Sunday, "08:00", "10:00", "t4"),
		session("s4", "holiday", "08:00", "09:00", "t4"),
	}

	view := MergeView(testYear, "class-a", store, grid, sessions)
	require.Len(t, view.Days, 8)

	monday := view.Days[0]
	assert.Equal(t, models.Monday, monday.Day)
	assert.True(t, monday.Regular)
	require.Len(t, monday.Cells, 3)
	require.NotNil(t, monday.Cells[0].Entry)
	assert.Equal(t, "e1", monday.Cells[0].Entry.ID)
	require.Len(t, monday.Cells[0].ExtraSessions, 1)
	assert.Equal(t, "s1", monday.Cells[0].ExtraSessions[0].ID)
	assert.Nil(t, monday.Cells[1].Entry)
	assert.Nil(t, monday.Cells[2].Entry, "other classes do not leak into the view")
	require.Len(t, monday.Standalone, 1)
	assert.Equal(t, "s2", monday.Standalone[0].ID)

	sunday := view.Days[6]
	assert.Equal(t, models.Sunday, sunday.Day)
	assert.False(t, sunday.Regular)
	assert.Empty(t, sunday.Cells)
	require.Len(t, sunday.Standalone, 1)
	assert.Equal(t, "s3", sunday.Standalone[0].ID)

	assert.Equal(t, models.Weekday("HOLIDAY"), view.Days[7].Day)
}

func TestForDay(t *testing.T) {
	date := time.Date(2024, 7, 14, 0, 0, 0, 0, time.UTC)
	otherDate := date.AddDate(0, 0, 7)
	a := session("a", models.Sunday, "10:00", "11:00", "t1")
	a.SessionDate = &date
	b := session("b", "sunday", "08:00", "09:00", "t1")
	b.SessionDate = &otherDate
	c := session("c", models.Monday, "08:00", "09:00", "t1")

	all := []models.ExtraSession{a, b, c}

	sunday := ForDay(all, models.Sunday, nil)
	require.Len(t, sunday, 2)
	assert.Equal(t, "b", sunday[0].ID)
	assert.Equal(t, "a", sunday[1].ID)

	dated := ForDay(all, models.Sunday, &date)
	require.Len(t, dated, 1)
	assert.Equal(t, "a", dated[0].ID)

	assert.Len(t, ForDay(all, "", nil), 3)
	assert.Empty(t, ForDay(all, models.Friday, nil))

	weekly := session("d", models.Sunday, "12:00", "13:00", "t2")
	withWeekly := ForDay(append(all, weekly), models.Sunday, &date)
	require.Len(t, withWeekly, 2)
	assert.Equal(t, "a", withWeekly[0].ID)
	assert.Equal(t, "d", withWeekly[1].ID)
}
