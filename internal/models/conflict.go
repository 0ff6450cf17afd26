package models

import (
	"fmt"
	"time"
)

// OccupancyKind tells which assignment an occupancy came from.
type OccupancyKind string

const (
	OccupancyEntry        OccupancyKind = "ENTRY"
	OccupancyExtraSession OccupancyKind = "EXTRA_SESSION"
)

// Occupancy records that a teacher occupies [StartTime, EndTime) on a day.
type Occupancy struct {
	Kind           OccupancyKind `json:"kind"`
	ID             string        `json:"id"`
	ClassSectionID string        `json:"classSectionId,omitempty"`
	Day            Weekday       `json:"day"`
	Date           *time.Time    `json:"date,omitempty"`
	StartTime      ClockTime     `json:"startTime"`
	EndTime        ClockTime     `json:"endTime"`
	TeacherID      string        `json:"teacherId"`
	SubjectID      string        `json:"subjectId"`
	SlotID         string        `json:"slotId,omitempty"`
}

// Span formats the interval as HH:MM-HH:MM.
func (o Occupancy) Span() string {
	return fmt.Sprintf("%s-%s", o.StartTime, o.EndTime)
}

// Conflict pairs two occupancies of one teacher whose intervals overlap on the same day.
type Conflict struct {
	TeacherID string    `json:"teacherId"`
	Day       Weekday   `json:"day"`
	Candidate Occupancy `json:"candidate"`
	Existing  Occupancy `json:"existing"`
}

// TimetableConflictError is returned when a write would double book a teacher.
type TimetableConflictError struct {
	Message   string     `json:"message"`
	Conflicts []Conflict `json:"conflicts"`
}

// Error implements the error interface for conflict errors.
func (e *TimetableConflictError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("%d timetable conflict(s)", len(e.Conflicts))
}
