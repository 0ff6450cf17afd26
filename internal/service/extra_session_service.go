package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-timetable-api/internal/dto"
	"github.com/noah-isme/sma-timetable-api/internal/models"
	"github.com/noah-isme/sma-timetable-api/internal/timetable"
	appErrors "github.com/noah-isme/sma-timetable-api/pkg/errors"
)

const dateLayout = "2006-01-02"

var weekdayOf = map[time.Weekday]models.Weekday{
	time.Monday:    models.Monday,
	time.Tuesday:   models.Tuesday,
	time.Wednesday: models.Wednesday,
	time.Thursday:  models.Thursday,
	time.Friday:    models.Friday,
	time.Saturday:  models.Saturday,
	time.Sunday:    models.Sunday,
}

// ExtraSessionService manages ad hoc sessions defined by a literal time interval.
type ExtraSessionService struct {
	*timetableCore
}

// NewExtraSessionService constructs the extra session service.
func NewExtraSessionService(deps TimetableDeps) *ExtraSessionService {
	return &ExtraSessionService{timetableCore: newTimetableCore(deps)}
}

// Add stores a session unless its teacher is already busy during the interval, either in a
// timetable entry or in another extra session.
func (s *ExtraSessionService) Add(ctx context.Context, yearRaw string, req dto.CreateExtraSessionRequest) (*models.ExtraSession, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid extra session payload")
	}
	session, err := buildExtraSession(req)
	if err != nil {
		return nil, err
	}
	year, err := s.resolveYear(ctx, yearRaw)
	if err != nil {
		return nil, err
	}
	session.AcademicYearID = year.ID
	if session.ClassSectionID != nil {
		if _, err := s.ensureClass(ctx, *session.ClassSectionID); err != nil {
			return nil, err
		}
	}

	err = s.withYearWrite(ctx, year.ID, "add_extra_session", func(ctx context.Context, tx *sqlx.Tx, state *yearState) error {
		if conflicts := state.pool().FindConflicts(timetable.SessionOccupancy(*session)); len(conflicts) > 0 {
			return s.conflictError(ctx, "extra session would double book the teacher", conflicts)
		}
		if err := s.sessions.Create(ctx, tx, session); err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create extra session")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("extra session added",
		zap.String("academic_year_id", year.ID),
		zap.String("extra_session_id", session.ID),
		zap.String("teacher_id", session.TeacherID),
		zap.String("day", string(session.Day)),
	)
	return session, nil
}

// Remove deletes a session of the year.
func (s *ExtraSessionService) Remove(ctx context.Context, yearRaw, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return appErrors.Clone(appErrors.ErrValidation, "extra session id is required")
	}
	year, err := s.resolveYear(ctx, yearRaw)
	if err != nil {
		return err
	}

	err = s.withYearWrite(ctx, year.ID, "remove_extra_session", func(ctx context.Context, tx *sqlx.Tx, state *yearState) error {
		existing, err := s.sessions.FindByID(ctx, tx, id)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return appErrors.Clone(appErrors.ErrNotFound, "extra session not found")
			}
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load extra session")
		}
		if existing.AcademicYearID != year.ID {
			return appErrors.Clone(appErrors.ErrNotFound, "extra session not found")
		}
		if err := s.sessions.Delete(ctx, tx, id); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return appErrors.Clone(appErrors.ErrNotFound, "extra session not found")
			}
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete extra session")
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.logger.Info("extra session removed", zap.String("academic_year_id", year.ID), zap.String("extra_session_id", id))
	return nil
}

// List returns the sessions of a year, optionally restricted to a class and to a day or date.
// A date also matches sessions that repeat on its weekday.
func (s *ExtraSessionService) List(ctx context.Context, yearRaw, classID, day, date string) ([]models.ExtraSession, error) {
	var (
		onDate *time.Time
		onDay  models.Weekday
	)
	if strings.TrimSpace(date) != "" {
		parsed, err := time.Parse(dateLayout, strings.TrimSpace(date))
		if err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "date must use the YYYY-MM-DD format")
		}
		onDate = &parsed
		onDay = weekdayOf[parsed.Weekday()]
	}
	if strings.TrimSpace(day) != "" {
		requested := models.NormalizeDay(day)
		if onDate != nil && requested != onDay {
			return nil, appErrors.Clone(appErrors.ErrValidation, "day does not match date")
		}
		onDay = requested
	}

	year, err := s.resolveYear(ctx, yearRaw)
	if err != nil {
		return nil, err
	}
	sessions, err := s.sessions.ListByYear(ctx, nil, year.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load extra sessions")
	}

	classID = strings.TrimSpace(classID)
	filtered := make([]models.ExtraSession, 0, len(sessions))
	for _, session := range sessions {
		if classID != "" && (session.ClassSectionID == nil || *session.ClassSectionID != classID) {
			continue
		}
		filtered = append(filtered, session)
	}
	if onDay == "" {
		return filtered, nil
	}
	return timetable.ForDay(filtered, onDay, onDate), nil
}

func buildExtraSession(req dto.CreateExtraSessionRequest) (*models.ExtraSession, error) {
	start, err := models.ParseClockTime(req.StartTime)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "startTime must be a time in HH:MM format")
	}
	end, err := models.ParseClockTime(req.EndTime)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "endTime must be a time in HH:MM format")
	}
	if end <= start {
		return nil, appErrors.Clone(appErrors.ErrValidation, "endTime must be after startTime")
	}

	session := &models.ExtraSession{
		ID:             uuid.NewString(),
		ClassSectionID: normalizeClassID(req.ClassSectionID),
		StartTime:      start,
		EndTime:        end,
		TeacherID:      strings.TrimSpace(req.TeacherID),
		SubjectID:      strings.TrimSpace(req.SubjectID),
		Reason:         req.Reason,
		CreatedAt:      time.Now().UTC(),
	}
	if session.TeacherID == "" || session.SubjectID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "teacherId and subjectId are required")
	}

	if strings.TrimSpace(req.Day) != "" {
		session.Day = models.NormalizeDay(req.Day)
	}
	if strings.TrimSpace(req.Date) != "" {
		date, err := time.Parse(dateLayout, strings.TrimSpace(req.Date))
		if err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "date must use the YYYY-MM-DD format")
		}
		derived := weekdayOf[date.Weekday()]
		if session.Day != "" && session.Day != derived {
			return nil, appErrors.Clone(appErrors.ErrValidation, "day does not match date")
		}
		session.Day = derived
		session.SessionDate = &date
	}
	if session.Day == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "day or date is required")
	}
	return session, nil
}
