package timetable

import (
	"math"

	"github.com/noah-isme/sma-timetable-api/internal/models"
)

// Progress reports how many assignable cells of a class are filled.
type Progress struct {
	Filled     int `json:"filled"`
	Total      int `json:"total"`
	Percentage int `json:"percentage"`
}

// Completion counts the PERIOD cells of a class over MON..FRI on the weekday variant and SAT
// on the Saturday variant. A non-empty group restricts the count to that day group.
func Completion(yearID, classID string, variants *VariantStore, grid *Grid, group models.DayGroup) Progress {
	var progress Progress
	for _, day := range models.RegularDays {
		if group != "" && day.Group() != group {
			continue
		}
		for _, slot := range variants.SlotsForDay(yearID, classID, day) {
			if !slot.IsPeriod() {
				continue
			}
			progress.Total++
			if grid != nil {
				if _, ok := grid.Get(classID, day, slot.ID); ok {
					progress.Filled++
				}
			}
		}
	}
	progress.Percentage = Percentage(progress.Filled, progress.Total)
	return progress
}

// Percentage returns round(filled/total*100), or 0 when there is nothing to fill.
func Percentage(filled, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(filled) / float64(total) * 100))
}
