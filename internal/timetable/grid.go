package timetable

import (
	"sort"
	"strconv"
	"strings"

	"github.com/noah-isme/sma-timetable-api/internal/models"
)

type cellKey struct {
	class string
	day   models.Weekday
	slot  string
}

// Grid is the sparse assignment map of one academic year keyed by (class, day, slot).
type Grid struct {
	yearID   string
	variants *VariantStore
	cells    map[cellKey]models.TimetableEntry
}

// NewGrid loads persisted entries of a year into a grid.
func NewGrid(yearID string, variants *VariantStore, entries []models.TimetableEntry) *Grid {
	g := &Grid{yearID: yearID, variants: variants, cells: make(map[cellKey]models.TimetableEntry, len(entries))}
	for _, entry := range entries {
		g.cells[keyOf(entry)] = entry
	}
	return g
}

func keyOf(entry models.TimetableEntry) cellKey {
	return cellKey{class: entry.ClassSectionID, day: entry.Day, slot: entry.SlotID}
}

// Get returns the occupant of a cell.
func (g *Grid) Get(classID string, day models.Weekday, slotID string) (models.TimetableEntry, bool) {
	entry, ok := g.cells[cellKey{class: classID, day: day, slot: slotID}]
	return entry, ok
}

// ClassEntries returns the entries of one class ordered by day then slot.
func (g *Grid) ClassEntries(classID string) []models.TimetableEntry {
	out := []models.TimetableEntry{}
	for key, entry := range g.cells {
		if key.class == classID {
			out = append(out, entry)
		}
	}
	g.sortEntries(out)
	return out
}

// Entries returns every entry of the year ordered by class, day and slot.
func (g *Grid) Entries() []models.TimetableEntry {
	out := make([]models.TimetableEntry, 0, len(g.cells))
	for _, entry := range g.cells {
		out = append(out, entry)
	}
	g.sortEntries(out)
	return out
}

// Replace swaps the whole timetable of a class for entries.
func (g *Grid) Replace(classID string, entries []models.TimetableEntry) {
	for key := range g.cells {
		if key.class == classID {
			delete(g.cells, key)
		}
	}
	for _, entry := range entries {
		entry.ClassSectionID = classID
		entry.AcademicYearID = g.yearID
		g.cells[keyOf(entry)] = entry
	}
}

// ValidateBatch checks a replacement set for a class. Every problem is reported;
// a nil result means the batch can be applied as a whole.
func (g *Grid) ValidateBatch(classID string, entries []models.TimetableEntry) error {
	verr := &ValidationError{}
	seen := make(map[cellKey]int, len(entries))
	for i, entry := range entries {
		if !entry.Day.IsRegular() {
			verr.add(i, "day", "must be one of MON, TUE, WED, THU, FRI, SAT")
		}
		if strings.TrimSpace(entry.TeacherID) == "" {
			verr.add(i, "teacherId", "is required")
		}
		if strings.TrimSpace(entry.SubjectID) == "" {
			verr.add(i, "subjectId", "is required")
		}
		if entry.SlotID == "" {
			verr.add(i, "periodSlotId", "is required")
			continue
		}
		if entry.Day.IsRegular() {
			if slot, ok := g.findSlot(classID, entry.Day, entry.SlotID); !ok {
				verr.add(i, "periodSlotId", "does not exist in the schedule for "+string(entry.Day))
			} else if !slot.IsPeriod() {
				verr.add(i, "periodSlotId", "refers to a "+string(slot.Type)+" slot, only PERIOD slots can be assigned")
			}
		}
		key := cellKey{class: classID, day: entry.Day, slot: entry.SlotID}
		if first, dup := seen[key]; dup {
			verr.add(i, "periodSlotId", "duplicates the cell of entries["+strconv.Itoa(first)+"]")
			continue
		}
		seen[key] = i
	}
	return verr.orNil()
}

// Prune removes entries whose slot is no longer a PERIOD of the variant resolved for their
// class and day, returning what was removed.
func (g *Grid) Prune() []models.TimetableEntry {
	removed := []models.TimetableEntry{}
	for key, entry := range g.cells {
		if _, ok := g.variants.PeriodOnDay(g.yearID, key.class, key.day, key.slot); !ok {
			removed = append(removed, entry)
			delete(g.cells, key)
		}
	}
	g.sortEntries(removed)
	return removed
}

func (g *Grid) findSlot(classID string, day models.Weekday, slotID string) (models.TimeSlot, bool) {
	for _, slot := range g.variants.SlotsForDay(g.yearID, classID, day) {
		if slot.ID == slotID {
			return slot, true
		}
	}
	return models.TimeSlot{}, false
}

func (g *Grid) sortEntries(entries []models.TimetableEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.ClassSectionID != b.ClassSectionID {
			return a.ClassSectionID < b.ClassSectionID
		}
		if a.Day != b.Day {
			return dayIndex(a.Day) < dayIndex(b.Day)
		}
		sa, _ := g.variants.Slot(a.SlotID)
		sb, _ := g.variants.Slot(b.SlotID)
		if sa.Order != sb.Order {
			return sa.Order < sb.Order
		}
		return a.SlotID < b.SlotID
	})
}

// dayIndex orders regular days first, then any other label alphabetically.
func dayIndex(day models.Weekday) int {
	for i, d := range models.RegularDays {
		if d == day {
			return i
		}
	}
	if day == models.Sunday {
		return len(models.RegularDays)
	}
	return len(models.RegularDays) + 1
}

func dayLess(a, b models.Weekday) bool {
	ia, ib := dayIndex(a), dayIndex(b)
	if ia != ib {
		return ia < ib
	}
	return a < b
}
