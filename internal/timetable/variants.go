package timetable

import (
	"sort"

	"github.com/noah-isme/sma-timetable-api/internal/models"
)

// scope is the owner of a saved configuration: a year default (class empty) or a class override.
type scope struct {
	year  string
	class string
}

type variantKey struct {
	scope
	group models.DayGroup
}

func scopeOf(yearID string, classID *string) scope {
	s := scope{year: yearID}
	if classID != nil {
		s.class = *classID
	}
	return s
}

// VariantStore holds the compiled slot sequences of one or more academic years,
// addressable by scope and day group, plus an index of slots by id.
type VariantStore struct {
	variants map[variantKey][]models.TimeSlot
	scopes   map[scope]int
	slots    map[string]models.TimeSlot
}

// NewVariantStore builds a store from persisted configurations and slots. Every configuration
// registers its variant even when it compiled to no slots.
func NewVariantStore(configs []models.TimingConfig, slots []models.TimeSlot) *VariantStore {
	store := &VariantStore{
		variants: make(map[variantKey][]models.TimeSlot),
		scopes:   make(map[scope]int),
		slots:    make(map[string]models.TimeSlot),
	}
	grouped := make(map[variantKey][]models.TimeSlot)
	for _, slot := range slots {
		key := variantKey{scope: scopeOf(slot.AcademicYearID, slot.ClassSectionID), group: slot.DayGroup}
		grouped[key] = append(grouped[key], slot)
	}
	for _, cfg := range configs {
		key := variantKey{scope: scopeOf(cfg.AcademicYearID, cfg.ClassSectionID), group: cfg.DayGroup}
		if _, ok := grouped[key]; !ok {
			grouped[key] = nil
		}
	}
	for key, list := range grouped {
		store.put(key, list)
	}
	return store
}

// Put replaces the variant of a scope and day group.
func (s *VariantStore) Put(yearID string, classID *string, group models.DayGroup, slots []models.TimeSlot) {
	s.put(variantKey{scope: scopeOf(yearID, classID), group: group}, slots)
}

// Remove drops the variant of a scope and day group.
func (s *VariantStore) Remove(yearID string, classID *string, group models.DayGroup) {
	key := variantKey{scope: scopeOf(yearID, classID), group: group}
	old, ok := s.variants[key]
	if !ok {
		return
	}
	for _, slot := range old {
		delete(s.slots, slot.ID)
	}
	delete(s.variants, key)
	s.scopes[key.scope]--
	if s.scopes[key.scope] <= 0 {
		delete(s.scopes, key.scope)
	}
}

func (s *VariantStore) put(key variantKey, slots []models.TimeSlot) {
	s.Remove(key.year, classPtr(key.class), key.group)

	ordered := append([]models.TimeSlot{}, slots...)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Order < ordered[j].Order })
	s.variants[key] = ordered
	s.scopes[key.scope]++
	for _, slot := range ordered {
		s.slots[slot.ID] = slot
	}
}

// HasOverride reports whether the class has any saved configuration of its own.
func (s *VariantStore) HasOverride(yearID, classID string) bool {
	if classID == "" {
		return false
	}
	return s.scopes[scope{year: yearID, class: classID}] > 0
}

// HasVariant reports whether a configuration was saved for exactly this scope and group.
func (s *VariantStore) HasVariant(yearID string, classID *string, group models.DayGroup) bool {
	_, ok := s.variants[variantKey{scope: scopeOf(yearID, classID), group: group}]
	return ok
}

// Variant returns the slots saved for exactly this scope and group, without fallback.
func (s *VariantStore) Variant(yearID string, classID *string, group models.DayGroup) []models.TimeSlot {
	return s.variants[variantKey{scope: scopeOf(yearID, classID), group: group}]
}

// Resolve returns the slots that apply to a class on a day group. A class override
// shadows the year default entirely. Saturday falls back to the weekday variant of the
// same scope when no Saturday variant was saved.
func (s *VariantStore) Resolve(yearID, classID string, group models.DayGroup) []models.TimeSlot {
	sc := scope{year: yearID}
	if s.HasOverride(yearID, classID) {
		sc.class = classID
	}
	if slots, ok := s.variants[variantKey{scope: sc, group: group}]; ok {
		return slots
	}
	if group == models.DayGroupSaturday {
		return s.variants[variantKey{scope: sc, group: models.DayGroupWeekday}]
	}
	return nil
}

// SlotsForDay returns the Saturday variant for SAT and the weekday variant otherwise.
func (s *VariantStore) SlotsForDay(yearID, classID string, day models.Weekday) []models.TimeSlot {
	return s.Resolve(yearID, classID, day.Group())
}

// Slot looks a slot up by id.
func (s *VariantStore) Slot(id string) (models.TimeSlot, bool) {
	slot, ok := s.slots[id]
	return slot, ok
}

// PeriodOnDay returns the slot when it is a PERIOD of the variant resolved for the class and day.
func (s *VariantStore) PeriodOnDay(yearID, classID string, day models.Weekday, slotID string) (models.TimeSlot, bool) {
	for _, slot := range s.SlotsForDay(yearID, classID, day) {
		if slot.ID == slotID {
			return slot, slot.IsPeriod()
		}
	}
	return models.TimeSlot{}, false
}

func classPtr(class string) *string {
	if class == "" {
		return nil
	}
	return &class
}
