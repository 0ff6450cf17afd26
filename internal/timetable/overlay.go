package timetable

import (
	"sort"
	"time"

	"github.com/noah-isme/sma-timetable-api/internal/models"
)

// GridCell is one slot of a day column in the merged view.
type GridCell struct {
	Slot          models.TimeSlot        `json:"slot"`
	Entry         *models.TimetableEntry `json:"entry,omitempty"`
	ExtraSessions []models.ExtraSession  `json:"extraSessions,omitempty"`
}

// DayColumn holds the cells of one day. Days outside the regular grid only carry standalone sessions.
type DayColumn struct {
	Day        models.Weekday        `json:"day"`
	Regular    bool                  `json:"regular"`
	Cells      []GridCell            `json:"cells"`
	Standalone []models.ExtraSession `json:"standaloneSessions,omitempty"`
}

// View is a class timetable with extra sessions merged in for display.
type View struct {
	AcademicYearID string      `json:"academicYearId"`
	ClassSectionID string      `json:"classSectionId"`
	Days           []DayColumn `json:"days"`
}

// MatchSlot finds the PERIOD slot whose range contains start. Presentation only.
func MatchSlot(slots []models.TimeSlot, start models.ClockTime) (models.TimeSlot, bool) {
	for _, slot := range slots {
		if slot.IsPeriod() && slot.Contains(start) {
			return slot, true
		}
	}
	return models.TimeSlot{}, false
}

// MergeView lays out the class grid day by day and places each session into the period
// containing its start time. Sessions outside every period, or on days without a regular
// column, are listed as standalone rows.
func MergeView(yearID, classID string, variants *VariantStore, grid *Grid, sessions []models.ExtraSession) View {
	byDay := make(map[models.Weekday][]models.ExtraSession)
	for _, session := range sessions {
		day := models.NormalizeDay(string(session.Day))
		session.Day = day
		byDay[day] = append(byDay[day], session)
	}
	for day := range byDay {
		sortSessions(byDay[day])
	}

	view := View{AcademicYearID: yearID, ClassSectionID: classID, Days: []DayColumn{}}
	for _, day := range models.RegularDays {
		column := DayColumn{Day: day, Regular: true, Cells: []GridCell{}}
		slots := variants.SlotsForDay(yearID, classID, day)
		index := make(map[string]int, len(slots))
		for _, slot := range slots {
			cell := GridCell{Slot: slot}
			if slot.IsPeriod() && grid != nil {
				if entry, ok := grid.Get(classID, day, slot.ID); ok {
					entry := entry
					cell.Entry = &entry
				}
			}
			index[slot.ID] = len(column.Cells)
			column.Cells = append(column.Cells, cell)
		}
		for _, session := range byDay[day] {
			if slot, ok := MatchSlot(slots, session.StartTime); ok {
				i := index[slot.ID]
				column.Cells[i].ExtraSessions = append(column.Cells[i].ExtraSessions, session)
				continue
			}
			column.Standalone = append(column.Standalone, session)
		}
		view.Days = append(view.Days, column)
	}

	extraDays := make([]models.Weekday, 0)
	for day := range byDay {
		if !day.IsRegular() {
			extraDays = append(extraDays, day)
		}
	}
	sort.Slice(extraDays, func(i, j int) bool { return dayLess(extraDays[i], extraDays[j]) })
	for _, day := range extraDays {
		view.Days = append(view.Days, DayColumn{Day: day, Cells: []GridCell{}, Standalone: byDay[day]})
	}
	return view
}

// ForDay filters sessions by day and, when given, calendar date. An empty day keeps every day.
// Sessions without a date recur on their day and match any date.
func ForDay(sessions []models.ExtraSession, day models.Weekday, date *time.Time) []models.ExtraSession {
	out := []models.ExtraSession{}
	for _, session := range sessions {
		session.Day = models.NormalizeDay(string(session.Day))
		if day != "" && session.Day != day {
			continue
		}
		if date != nil && session.SessionDate != nil && !sameDate(*session.SessionDate, *date) {
			continue
		}
		out = append(out, session)
	}
	sortSessions(out)
	return out
}

func sortSessions(sessions []models.ExtraSession) {
	sort.SliceStable(sessions, func(i, j int) bool {
		a, b := sessions[i], sessions[j]
		if a.Day != b.Day {
			return dayLess(a.Day, b.Day)
		}
		if a.StartTime != b.StartTime {
			return a.StartTime < b.StartTime
		}
		return a.ID < b.ID
	})
}

func sameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
