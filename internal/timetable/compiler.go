// Package timetable holds the timetable engine: slot compilation, schedule variants,
// the assignment grid, conflict detection, the extra session overlay and completion.
package timetable

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/noah-isme/sma-timetable-api/internal/models"
)

// slotNamespace seeds deterministic slot identifiers.
var slotNamespace = uuid.MustParse("6f1c2a8e-4b3d-5e7f-9a10-b2c3d4e5f607")

var defaultBreakLabels = map[models.SlotType]string{
	models.SlotTypeShortBreak: "Short Break",
	models.SlotTypeLunchBreak: "Lunch Break",
	models.SlotTypePrayer:     "Prayer",
	models.SlotTypeOther:      "Break",
}

// Compiler turns timing configurations into slot sequences.
type Compiler struct {
	// StrictBreaks rejects breaks placed after a period that does not exist
	// instead of dropping them.
	StrictBreaks bool
}

// Compile compiles cfg with the lenient break policy.
func Compile(cfg models.TimingConfig) ([]models.TimeSlot, error) {
	return Compiler{}.Compile(cfg)
}

// Compile emits the periods of cfg in order, each followed by the break registered after it.
// Slot orders start at 1. Slot ids are derived from the scope, day group, order and the
// layout of the whole sequence: re-timing keeps the ids, while a different period count or
// break placement yields a fresh slot set, so entries on the old one cannot drift to
// another period.
func (c Compiler) Compile(cfg models.TimingConfig) ([]models.TimeSlot, error) {
	breaks, err := c.breaksByPeriod(cfg)
	if err != nil {
		return nil, err
	}
	if cfg.EndTime != nil && *cfg.EndTime <= cfg.StartTime {
		return nil, &ConfigurationError{Field: "endTime", Reason: "must be after startTime"}
	}
	if cfg.TotalPeriods < 1 {
		return []models.TimeSlot{}, nil
	}
	if cfg.PeriodDurationMinutes < 1 {
		return nil, &ConfigurationError{Field: "periodDurationMinutes", Reason: "must be at least 1"}
	}

	limit := models.ClockTime(models.MinutesPerDay)
	limitField := "midnight"
	if cfg.EndTime != nil {
		limit = *cfg.EndTime
		limitField = "endTime " + limit.String()
	}

	slots := make([]models.TimeSlot, 0, cfg.TotalPeriods+len(breaks))
	cursor := cfg.StartTime
	emit := func(slotType models.SlotType, label string, minutes int) error {
		end := cursor.Add(minutes)
		if end > limit {
			return &ConfigurationError{
				Field:  "totalPeriods",
				Reason: fmt.Sprintf("schedule runs until %s, past %s", end, limitField),
			}
		}
		order := len(slots) + 1
		slots = append(slots, models.TimeSlot{
			AcademicYearID: cfg.AcademicYearID,
			ClassSectionID: cfg.ClassSectionID,
			DayGroup:       cfg.DayGroup,
			Order:          order,
			Type:           slotType,
			Label:          label,
			StartTime:      cursor,
			EndTime:        end,
		})
		cursor = end
		return nil
	}

	for period := 1; period <= cfg.TotalPeriods; period++ {
		if err := emit(models.SlotTypePeriod, "Period "+strconv.Itoa(period), cfg.PeriodDurationMinutes); err != nil {
			return nil, err
		}
		if br, ok := breaks[period]; ok {
			if err := emit(br.Type, br.Label, br.DurationMinutes); err != nil {
				return nil, err
			}
		}
	}

	layout := Layout(slots)
	for i := range slots {
		slots[i].ID = SlotID(cfg.AcademicYearID, cfg.ClassSectionID, cfg.DayGroup, layout, slots[i].Order).String()
	}
	return slots, nil
}

// breaksByPeriod validates the break list and indexes it by afterPeriod with defaults applied.
func (c Compiler) breaksByPeriod(cfg models.TimingConfig) (map[int]models.BreakConfig, error) {
	byPeriod := make(map[int]models.BreakConfig, len(cfg.Breaks))
	for i, br := range cfg.Breaks {
		field := fmt.Sprintf("breaks[%d]", i)
		if br.AfterPeriod < 1 {
			return nil, &ConfigurationError{Field: field + ".afterPeriod", Reason: "must be at least 1"}
		}
		if br.DurationMinutes < 1 {
			return nil, &ConfigurationError{Field: field + ".durationMinutes", Reason: "must be at least 1"}
		}
		if br.Type == "" {
			br.Type = models.SlotTypeShortBreak
		}
		if !br.Type.IsBreak() {
			return nil, &ConfigurationError{Field: field + ".type", Reason: fmt.Sprintf("unsupported break type %q", br.Type)}
		}
		if _, dup := byPeriod[br.AfterPeriod]; dup {
			return nil, &ConfigurationError{Field: field + ".afterPeriod", Reason: fmt.Sprintf("another break is already placed after period %d", br.AfterPeriod)}
		}
		if br.AfterPeriod > cfg.TotalPeriods && c.StrictBreaks {
			return nil, &ConfigurationError{Field: field + ".afterPeriod", Reason: fmt.Sprintf("exceeds totalPeriods %d", cfg.TotalPeriods)}
		}
		if br.Label == "" {
			br.Label = defaultBreakLabels[br.Type]
		}
		byPeriod[br.AfterPeriod] = br
	}
	return byPeriod, nil
}

// DeriveBreaks rebuilds the break list of a compiled sequence: every non-PERIOD slot
// becomes a break placed after the number of periods that precede it.
func DeriveBreaks(slots []models.TimeSlot) []models.BreakConfig {
	ordered := append([]models.TimeSlot(nil), slots...)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Order < ordered[j].Order })

	breaks := []models.BreakConfig{}
	periods := 0
	for _, slot := range ordered {
		if slot.IsPeriod() {
			periods++
			continue
		}
		breaks = append(breaks, models.BreakConfig{
			AfterPeriod:     periods,
			Label:           slot.Label,
			DurationMinutes: int(slot.EndTime - slot.StartTime),
			Type:            slot.Type,
		})
	}
	return breaks
}

// Layout is the ordered slot types of a sequence, e.g. "PERIOD,SHORT_BREAK,PERIOD".
func Layout(slots []models.TimeSlot) string {
	types := make([]string, len(slots))
	for i, slot := range slots {
		types[i] = string(slot.Type)
	}
	return strings.Join(types, ",")
}

// SlotID derives the identifier of the slot at order within a variant of the given layout.
func SlotID(yearID string, classID *string, group models.DayGroup, layout string, order int) uuid.UUID {
	scope := ""
	if classID != nil {
		scope = *classID
	}
	return uuid.NewSHA1(slotNamespace, []byte(fmt.Sprintf("%s|%s|%s|%s|%d", yearID, scope, group, layout, order)))
}
