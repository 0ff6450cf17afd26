package models

import (
	"strings"
	"time"
)

// DayGroup partitions the regular week into schedule variants.
type DayGroup string

const (
	DayGroupWeekday  DayGroup = "WEEKDAY"
	DayGroupSaturday DayGroup = "SATURDAY"
)

// ParseDayGroup accepts WEEKDAY or SATURDAY in any case.
func ParseDayGroup(raw string) (DayGroup, bool) {
	switch DayGroup(strings.ToUpper(strings.TrimSpace(raw))) {
	case DayGroupWeekday:
		return DayGroupWeekday, true
	case DayGroupSaturday:
		return DayGroupSaturday, true
	default:
		return "", false
	}
}

// Weekday labels a day column. Regular grid days are MON..SAT; extra sessions may use any label.
type Weekday string

const (
	Monday    Weekday = "MON"
	Tuesday   Weekday = "TUE"
	Wednesday Weekday = "WED"
	Thursday  Weekday = "THU"
	Friday    Weekday = "FRI"
	Saturday  Weekday = "SAT"
	Sunday    Weekday = "SUN"
)

// RegularDays lists the days that carry timetable entries, in display order.
var RegularDays = []Weekday{Monday, Tuesday, Wednesday, Thursday, Friday, Saturday}

var dayAliases = map[string]Weekday{
	"MON": Monday, "MONDAY": Monday,
	"TUE": Tuesday, "TUESDAY": Tuesday,
	"WED": Wednesday, "WEDNESDAY": Wednesday,
	"THU": Thursday, "THURSDAY": Thursday,
	"FRI": Friday, "FRIDAY": Friday,
	"SAT": Saturday, "SATURDAY": Saturday,
	"SUN": Sunday, "SUNDAY": Sunday,
}

// NormalizeDay maps long or lower case day names onto the short form.
// Unknown labels are upper cased and kept.
func NormalizeDay(raw string) Weekday {
	key := strings.ToUpper(strings.TrimSpace(raw))
	if day, ok := dayAliases[key]; ok {
		return day
	}
	return Weekday(key)
}

// IsRegular reports whether the day belongs to the regular MON..SAT grid.
func (d Weekday) IsRegular() bool {
	for _, day := range RegularDays {
		if d == day {
			return true
		}
	}
	return false
}

// Group returns the schedule variant used for the day.
func (d Weekday) Group() DayGroup {
	if d == Saturday {
		return DayGroupSaturday
	}
	return DayGroupWeekday
}

// SlotType classifies a time slot. Only PERIOD slots accept assignments.
type SlotType string

const (
	SlotTypePeriod     SlotType = "PERIOD"
	SlotTypeShortBreak SlotType = "SHORT_BREAK"
	SlotTypeLunchBreak SlotType = "LUNCH_BREAK"
	SlotTypePrayer     SlotType = "PRAYER"
	SlotTypeOther      SlotType = "OTHER"
)

// IsBreak reports whether the type is one of the non-teaching slot types.
func (t SlotType) IsBreak() bool {
	switch t {
	case SlotTypeShortBreak, SlotTypeLunchBreak, SlotTypePrayer, SlotTypeOther:
		return true
	}
	return false
}

// BreakConfig places a non-teaching slot after a period.
type BreakConfig struct {
	AfterPeriod     int      `json:"afterPeriod"`
	Label           string   `json:"label,omitempty"`
	DurationMinutes int      `json:"durationMinutes"`
	Type            SlotType `json:"type"`
}

// TimingConfig is the saved configuration of one schedule variant.
type TimingConfig struct {
	ID                    string        `db:"id" json:"id"`
	AcademicYearID        string        `db:"academic_year_id" json:"academicYearId"`
	ClassSectionID        *string       `db:"class_section_id" json:"classSectionId,omitempty"`
	DayGroup              DayGroup      `db:"day_group" json:"dayGroup"`
	StartTime             ClockTime     `db:"start_time" json:"startTime"`
	EndTime               *ClockTime    `db:"end_time" json:"endTime,omitempty"`
	PeriodDurationMinutes int           `db:"period_duration_minutes" json:"periodDurationMinutes"`
	TotalPeriods          int           `db:"total_periods" json:"totalPeriods"`
	Breaks                []BreakConfig `db:"-" json:"breaks"`
	SaturdaySameAsWeekday bool          `db:"saturday_same_as_weekday" json:"saturdaySameAsWeekday"`
	CreatedAt             time.Time     `db:"created_at" json:"createdAt"`
	UpdatedAt             time.Time     `db:"updated_at" json:"updatedAt"`
}

// TimeSlot is one compiled interval of a schedule variant.
type TimeSlot struct {
	ID             string    `db:"id" json:"id"`
	AcademicYearID string    `db:"academic_year_id" json:"academicYearId"`
	ClassSectionID *string   `db:"class_section_id" json:"classSectionId,omitempty"`
	DayGroup       DayGroup  `db:"day_group" json:"dayGroup"`
	Order          int       `db:"slot_order" json:"order"`
	Type           SlotType  `db:"slot_type" json:"type"`
	Label          string    `db:"label" json:"label"`
	StartTime      ClockTime `db:"start_time" json:"startTime"`
	EndTime        ClockTime `db:"end_time" json:"endTime"`
}

// IsPeriod reports whether the slot can hold an assignment.
func (s TimeSlot) IsPeriod() bool {
	return s.Type == SlotTypePeriod
}

// Contains reports whether t falls in [start, end).
func (s TimeSlot) Contains(t ClockTime) bool {
	return s.StartTime <= t && t < s.EndTime
}

// TimetableEntry assigns a teacher and subject to a class cell.
type TimetableEntry struct {
	ID             string    `db:"id" json:"id"`
	ClassSectionID string    `db:"class_section_id" json:"classSectionId"`
	AcademicYearID string    `db:"academic_year_id" json:"academicYearId"`
	Day            Weekday   `db:"day" json:"day"`
	SlotID         string    `db:"slot_id" json:"slotId"`
	TeacherID      string    `db:"teacher_id" json:"teacherId"`
	SubjectID      string    `db:"subject_id" json:"subjectId"`
	CreatedAt      time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt      time.Time `db:"updated_at" json:"updatedAt"`
}

// ExtraSession is an ad hoc session defined by a literal time interval.
type ExtraSession struct {
	ID             string     `db:"id" json:"id"`
	AcademicYearID string     `db:"academic_year_id" json:"academicYearId"`
	ClassSectionID *string    `db:"class_section_id" json:"classSectionId,omitempty"`
	Day            Weekday    `db:"day" json:"day"`
	SessionDate    *time.Time `db:"session_date" json:"date,omitempty"`
	StartTime      ClockTime  `db:"start_time" json:"startTime"`
	EndTime        ClockTime  `db:"end_time" json:"endTime"`
	TeacherID      string     `db:"teacher_id" json:"teacherId"`
	SubjectID      string     `db:"subject_id" json:"subjectId"`
	Reason         *string    `db:"reason" json:"reason,omitempty"`
	CreatedAt      time.Time  `db:"created_at" json:"createdAt"`
}

// AcademicYear scopes every timetable.
type AcademicYear struct {
	ID       string `db:"id" json:"id"`
	Name     string `db:"name" json:"name"`
	IsActive bool   `db:"is_active" json:"isActive"`
}

// ClassSection is a class owned by the school directory.
type ClassSection struct {
	ID      string `db:"id" json:"id"`
	Grade   string `db:"grade" json:"grade"`
	Section string `db:"section" json:"section"`
	Name    string `db:"name" json:"name"`
}
