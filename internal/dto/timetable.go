package dto

import (
	"github.com/noah-isme/sma-timetable-api/internal/models"
	"github.com/noah-isme/sma-timetable-api/internal/timetable"
)

// BreakInput places a break after a period.
type BreakInput struct {
	AfterPeriod     int    `json:"afterPeriod" validate:"min=1"`
	Label           string `json:"label" validate:"max=64"`
	DurationMinutes int    `json:"durationMinutes" validate:"min=1,max=240"`
	Type            string `json:"type" validate:"omitempty,oneof=SHORT_BREAK LUNCH_BREAK PRAYER OTHER"`
}

// TimingConfigInput describes one schedule variant.
type TimingConfigInput struct {
	StartTime             string       `json:"startTime" validate:"required"`
	EndTime               string       `json:"endTime"`
	PeriodDurationMinutes int          `json:"periodDurationMinutes" validate:"min=0,max=240"`
	TotalPeriods          int          `json:"totalPeriods" validate:"min=0,max=24"`
	Breaks                []BreakInput `json:"breaks" validate:"omitempty,max=24,dive"`
}

// SaveTimingConfigRequest saves the weekday and Saturday variants of a scope.
// Without classSectionId the year default is saved.
type SaveTimingConfigRequest struct {
	ClassSectionID        *string            `json:"classSectionId"`
	Weekday               TimingConfigInput  `json:"weekday"`
	Saturday              *TimingConfigInput `json:"saturday" validate:"omitempty"`
	SaturdaySameAsWeekday bool               `json:"saturdaySameAsWeekday"`
}

// VariantView is a saved variant with its compiled slots.
type VariantView struct {
	StartTime             models.ClockTime     `json:"startTime"`
	EndTime               *models.ClockTime    `json:"endTime,omitempty"`
	PeriodDurationMinutes int                  `json:"periodDurationMinutes"`
	TotalPeriods          int                  `json:"totalPeriods"`
	Breaks                []models.BreakConfig `json:"breaks"`
	Slots                 []models.TimeSlot    `json:"slots"`
}

// TimingConfigResponse is the configuration of a scope. The weekday variant is flattened at the top level.
type TimingConfigResponse struct {
	AcademicYearID string  `json:"academicYearId"`
	ClassSectionID *string `json:"classSectionId,omitempty"`
	Scope          string  `json:"scope"`
	VariantView
	SaturdaySameAsWeekday bool         `json:"saturdaySameAsWeekday"`
	Saturday              *VariantView `json:"saturday,omitempty"`
	PrunedEntries         int          `json:"prunedEntries,omitempty"`
}

// TimetableEntryInput assigns a teacher and subject to one cell.
type TimetableEntryInput struct {
	Day          string `json:"day" validate:"max=16"`
	PeriodSlotID string `json:"periodSlotId" validate:"max=64"`
	TeacherID    string `json:"teacherId" validate:"max=64"`
	SubjectID    string `json:"subjectId" validate:"max=64"`
}

// SaveTimetableRequest replaces the whole timetable of a class.
type SaveTimetableRequest struct {
	Entries []TimetableEntryInput `json:"entries" validate:"max=500,dive"`
}

// ClassTimetableResponse lists the entries of a class with its completion.
type ClassTimetableResponse struct {
	AcademicYearID string                  `json:"academicYearId"`
	ClassSectionID string                  `json:"classSectionId"`
	Entries        []models.TimetableEntry `json:"entries"`
	Completion     timetable.Progress      `json:"completion"`
}

// CreateExtraSessionRequest adds an ad hoc session. Day may be omitted when date is given.
type CreateExtraSessionRequest struct {
	ClassSectionID *string `json:"classSectionId"`
	Day            string  `json:"day" validate:"required_without=Date,max=16"`
	Date           string  `json:"date" validate:"omitempty,datetime=2006-01-02"`
	StartTime      string  `json:"startTime" validate:"required"`
	EndTime        string  `json:"endTime" validate:"required"`
	TeacherID      string  `json:"teacherId" validate:"required,max=64"`
	SubjectID      string  `json:"subjectId" validate:"required,max=64"`
	Reason         *string `json:"reason" validate:"omitempty,max=255"`
}

// OccupancyView describes one side of a conflict with display names.
type OccupancyView struct {
	models.Occupancy
	Time        string `json:"time"`
	ClassName   string `json:"className,omitempty"`
	SubjectName string `json:"subjectName,omitempty"`
}

// ConflictView is a conflict as presented to administrators: the day, the time,
// the teacher and the other class involved.
type ConflictView struct {
	Day            models.Weekday `json:"day"`
	Time           string         `json:"time"`
	TeacherID      string         `json:"teacherId"`
	TeacherName    string         `json:"teacherName,omitempty"`
	OtherClassID   string         `json:"otherClassId,omitempty"`
	OtherClassName string         `json:"otherClassName,omitempty"`
	Candidate      OccupancyView  `json:"candidate"`
	Existing       OccupancyView  `json:"existing"`
}
