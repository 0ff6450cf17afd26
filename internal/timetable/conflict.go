package timetable

import (
	"sort"

	"github.com/noah-isme/sma-timetable-api/internal/models"
)

type poolKey struct {
	teacher string
	day     models.Weekday
}

// Pool is the unified set of "teacher occupies [start, end) on day" facts of one year,
// built from timetable entries and extra sessions alike.
type Pool struct {
	buckets map[poolKey][]models.Occupancy
}

// NewPool returns an empty pool.
func NewPool() *Pool {
	return &Pool{buckets: make(map[poolKey][]models.Occupancy)}
}

// BuildPool collects the occupancies of every grid entry and extra session. Entries whose
// slot is unknown to the variant store are skipped.
func BuildPool(variants *VariantStore, grid *Grid, sessions []models.ExtraSession) *Pool {
	pool := NewPool()
	if grid != nil {
		for _, entry := range grid.Entries() {
			if occ, ok := EntryOccupancy(variants, entry); ok {
				pool.Add(occ)
			}
		}
	}
	for _, session := range sessions {
		pool.Add(SessionOccupancy(session))
	}
	return pool
}

// EntryOccupancy resolves the interval of a timetable entry from its slot.
func EntryOccupancy(variants *VariantStore, entry models.TimetableEntry) (models.Occupancy, bool) {
	slot, ok := variants.Slot(entry.SlotID)
	if !ok {
		return models.Occupancy{}, false
	}
	return models.Occupancy{
		Kind:           models.OccupancyEntry,
		ID:             entry.ID,
		ClassSectionID: entry.ClassSectionID,
		Day:            entry.Day,
		StartTime:      slot.StartTime,
		EndTime:        slot.EndTime,
		TeacherID:      entry.TeacherID,
		SubjectID:      entry.SubjectID,
		SlotID:         entry.SlotID,
	}, true
}

// SessionOccupancy uses the literal interval of an extra session.
func SessionOccupancy(session models.ExtraSession) models.Occupancy {
	occ := models.Occupancy{
		Kind:      models.OccupancyExtraSession,
		ID:        session.ID,
		Day:       models.NormalizeDay(string(session.Day)),
		Date:      session.SessionDate,
		StartTime: session.StartTime,
		EndTime:   session.EndTime,
		TeacherID: session.TeacherID,
		SubjectID: session.SubjectID,
	}
	if session.ClassSectionID != nil {
		occ.ClassSectionID = *session.ClassSectionID
	}
	return occ
}

// Add inserts an occupancy.
func (p *Pool) Add(occ models.Occupancy) {
	key := poolKey{teacher: occ.TeacherID, day: occ.Day}
	p.buckets[key] = append(p.buckets[key], occ)
}

// Clone returns an independent copy of the pool.
func (p *Pool) Clone() *Pool {
	clone := NewPool()
	for key, list := range p.buckets {
		clone.buckets[key] = append([]models.Occupancy(nil), list...)
	}
	return clone
}

// WithoutClassEntries returns a copy without the timetable entries of a class. Extra sessions
// of that class stay in the pool.
func (p *Pool) WithoutClassEntries(classID string) *Pool {
	out := NewPool()
	for key, list := range p.buckets {
		for _, occ := range list {
			if occ.Kind == models.OccupancyEntry && occ.ClassSectionID == classID {
				continue
			}
			out.buckets[key] = append(out.buckets[key], occ)
		}
	}
	return out
}

// Overlaps reports whether two half-open intervals intersect. Touching endpoints do not overlap.
func Overlaps(aStart, aEnd, bStart, bEnd models.ClockTime) bool {
	return aStart < bEnd && bStart < aEnd
}

// collides reports whether two occupancies of the same teacher and day clash. Two extra
// sessions pinned to different calendar dates never clash.
func collides(a, b models.Occupancy) bool {
	if a.Date != nil && b.Date != nil && !sameDate(*a.Date, *b.Date) {
		return false
	}
	return Overlaps(a.StartTime, a.EndTime, b.StartTime, b.EndTime)
}

func sameOccupancy(a, b models.Occupancy) bool {
	return a.ID != "" && a.Kind == b.Kind && a.ID == b.ID
}

// FindConflicts returns every occupancy in the pool that clashes with the candidate.
// The candidate itself is ignored when it is already part of the pool.
func (p *Pool) FindConflicts(candidate models.Occupancy) []models.Conflict {
	conflicts := []models.Conflict{}
	if candidate.TeacherID == "" {
		return conflicts
	}
	for _, existing := range p.buckets[poolKey{teacher: candidate.TeacherID, day: candidate.Day}] {
		if sameOccupancy(candidate, existing) || !collides(candidate, existing) {
			continue
		}
		conflicts = append(conflicts, models.Conflict{
			TeacherID: candidate.TeacherID,
			Day:       candidate.Day,
			Candidate: candidate,
			Existing:  existing,
		})
	}
	sortConflicts(conflicts)
	return conflicts
}

// AllConflicts lists every clashing pair in the pool once.
func (p *Pool) AllConflicts() []models.Conflict {
	conflicts := []models.Conflict{}
	for _, list := range p.buckets {
		ordered := append([]models.Occupancy(nil), list...)
		sort.SliceStable(ordered, func(i, j int) bool { return occupancyLess(ordered[i], ordered[j]) })
		for i := 0; i < len(ordered); i++ {
			for j := i + 1; j < len(ordered); j++ {
				if sameOccupancy(ordered[i], ordered[j]) || !collides(ordered[i], ordered[j]) {
					continue
				}
				conflicts = append(conflicts, models.Conflict{
					TeacherID: ordered[i].TeacherID,
					Day:       ordered[i].Day,
					Candidate: ordered[i],
					Existing:  ordered[j],
				})
			}
		}
	}
	sortConflicts(conflicts)
	return conflicts
}

// CheckBatch checks candidates against the pool and against each other. Each clash inside the
// batch is reported once, on the later candidate.
func CheckBatch(pool *Pool, candidates []models.Occupancy) []models.Conflict {
	work := pool.Clone()
	conflicts := []models.Conflict{}
	for _, candidate := range candidates {
		conflicts = append(conflicts, work.FindConflicts(candidate)...)
		work.Add(candidate)
	}
	sortConflicts(conflicts)
	return conflicts
}

func occupancyLess(a, b models.Occupancy) bool {
	if a.StartTime != b.StartTime {
		return a.StartTime < b.StartTime
	}
	if a.EndTime != b.EndTime {
		return a.EndTime < b.EndTime
	}
	if a.Kind != b.Kind {
		return a.Kind < b.Kind
	}
	if a.ClassSectionID != b.ClassSectionID {
		return a.ClassSectionID < b.ClassSectionID
	}
	return a.ID < b.ID
}

func sortConflicts(conflicts []models.Conflict) {
	sort.SliceStable(conflicts, func(i, j int) bool {
		a, b := conflicts[i], conflicts[j]
		if a.Day != b.Day {
			return dayLess(a.Day, b.Day)
		}
		if a.TeacherID != b.TeacherID {
			return a.TeacherID < b.TeacherID
		}
		if a.Candidate != b.Candidate {
			return occupancyLess(a.Candidate, b.Candidate)
		}
		return occupancyLess(a.Existing, b.Existing)
	})
}
