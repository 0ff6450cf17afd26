package service

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-timetable-api/internal/dto"
	"github.com/noah-isme/sma-timetable-api/internal/models"
	"github.com/noah-isme/sma-timetable-api/internal/timetable"
	appErrors "github.com/noah-isme/sma-timetable-api/pkg/errors"
)

// TimetableService manages class timetables: batch saves, reads, the merged grid view,
// completion and the year wide conflict audit.
type TimetableService struct {
	*timetableCore
}

// NewTimetableService constructs the timetable service.
func NewTimetableService(deps TimetableDeps) *TimetableService {
	return &TimetableService{timetableCore: newTimetableCore(deps)}
}

// SaveEntries replaces the whole timetable of a class. The batch is validated and checked for
// teacher double bookings as a unit; on any failure nothing is written.
func (s *TimetableService) SaveEntries(ctx context.Context, yearRaw, classID string, req dto.SaveTimetableRequest) (*dto.ClassTimetableResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid timetable payload")
	}
	year, err := s.resolveYear(ctx, yearRaw)
	if err != nil {
		return nil, err
	}
	if _, err := s.ensureClass(ctx, classID); err != nil {
		return nil, err
	}

	entries := make([]models.TimetableEntry, 0, len(req.Entries))
	for _, in := range req.Entries {
		entries = append(entries, models.TimetableEntry{
			ID:             uuid.NewString(),
			ClassSectionID: classID,
			AcademicYearID: year.ID,
			Day:            models.NormalizeDay(in.Day),
			SlotID:         strings.TrimSpace(in.PeriodSlotID),
			TeacherID:      strings.TrimSpace(in.TeacherID),
			SubjectID:      strings.TrimSpace(in.SubjectID),
		})
	}

	var resp *dto.ClassTimetableResponse
	err = s.withYearWrite(ctx, year.ID, "save_entries", func(ctx context.Context, tx *sqlx.Tx, state *yearState) error {
		if err := state.grid.ValidateBatch(classID, entries); err != nil {
			return mapEngineError(err)
		}

		candidates := make([]models.Occupancy, 0, len(entries))
		for _, entry := range entries {
			if occ, ok := timetable.EntryOccupancy(state.variants, entry); ok {
				candidates = append(candidates, occ)
			}
		}
		pool := state.pool().WithoutClassEntries(classID)
		if conflicts := timetable.CheckBatch(pool, candidates); len(conflicts) > 0 {
			return s.conflictError(ctx, "timetable would double book teachers", conflicts)
		}

		if err := s.entries.ReplaceForClass(ctx, tx, year.ID, classID, entries); err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save timetable")
		}
		state.grid.Replace(classID, entries)
		resp = classTimetable(state, classID)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("timetable saved",
		zap.String("academic_year_id", year.ID),
		zap.String("class_section_id", classID),
		zap.Int("entries", len(entries)),
		zap.Int("completion", resp.Completion.Percentage),
	)
	return resp, nil
}

// GetEntries returns the entries of a class with its completion.
func (s *TimetableService) GetEntries(ctx context.Context, yearRaw, classID string) (*dto.ClassTimetableResponse, bool, error) {
	year, err := s.resolveYear(ctx, yearRaw)
	if err != nil {
		return nil, false, err
	}
	if _, err := s.ensureClass(ctx, classID); err != nil {
		return nil, false, err
	}

	key := yearCacheKey(year.ID, "entries", classID)
	var cached dto.ClassTimetableResponse
	if s.cache.Get(ctx, key, &cached) {
		return &cached, true, nil
	}

	state, err := s.loadState(ctx, nil, year.ID)
	if err != nil {
		return nil, false, err
	}
	resp := classTimetable(state, classID)
	s.cache.Set(ctx, key, resp, s.settings.CacheTTL)
	return resp, false, nil
}

// Grid returns the class grid with extra sessions of the class merged in.
func (s *TimetableService) Grid(ctx context.Context, yearRaw, classID string) (*timetable.View, bool, error) {
	year, err := s.resolveYear(ctx, yearRaw)
	if err != nil {
		return nil, false, err
	}
	if _, err := s.ensureClass(ctx, classID); err != nil {
		return nil, false, err
	}

	key := yearCacheKey(year.ID, "grid", classID)
	var cached timetable.View
	if s.cache.Get(ctx, key, &cached) {
		return &cached, true, nil
	}

	state, err := s.loadState(ctx, nil, year.ID)
	if err != nil {
		return nil, false, err
	}
	view := timetable.MergeView(year.ID, classID, state.variants, state.grid, state.classSessions(classID))
	s.cache.Set(ctx, key, view, s.settings.CacheTTL)
	return &view, false, nil
}

// Completion returns the share of filled PERIOD cells of a class. dayGroup may be empty for
// the whole week.
func (s *TimetableService) Completion(ctx context.Context, yearRaw, classID, dayGroup string) (*timetable.Progress, bool, error) {
	var group models.DayGroup
	if strings.TrimSpace(dayGroup) != "" {
		parsed, ok := models.ParseDayGroup(dayGroup)
		if !ok {
			return nil, false, appErrors.Clone(appErrors.ErrValidation, "dayGroup must be WEEKDAY or SATURDAY")
		}
		group = parsed
	}
	year, err := s.resolveYear(ctx, yearRaw)
	if err != nil {
		return nil, false, err
	}
	if _, err := s.ensureClass(ctx, classID); err != nil {
		return nil, false, err
	}

	key := yearCacheKey(year.ID, "completion", classID, strings.ToLower(string(group)))
	var cached timetable.Progress
	if s.cache.Get(ctx, key, &cached) {
		return &cached, true, nil
	}

	state, err := s.loadState(ctx, nil, year.ID)
	if err != nil {
		return nil, false, err
	}
	progress := timetable.Completion(year.ID, classID, state.variants, state.grid, group)
	s.cache.Set(ctx, key, progress, s.settings.CacheTTL)
	return &progress, false, nil
}

// Conflicts audits a whole year and reports every overlapping pair once.
func (s *TimetableService) Conflicts(ctx context.Context, yearRaw string) ([]dto.ConflictView, error) {
	year, err := s.resolveYear(ctx, yearRaw)
	if err != nil {
		return nil, err
	}
	state, err := s.loadState(ctx, nil, year.ID)
	if err != nil {
		return nil, err
	}
	conflicts := state.pool().AllConflicts()
	if len(conflicts) > 0 {
		s.logger.Warn("timetable audit found conflicts", zap.String("academic_year_id", year.ID), zap.Int("conflicts", len(conflicts)))
	}
	return s.conflictViews(ctx, conflicts), nil
}

func classTimetable(state *yearState, classID string) *dto.ClassTimetableResponse {
	return &dto.ClassTimetableResponse{
		AcademicYearID: state.yearID,
		ClassSectionID: classID,
		Entries:        state.grid.ClassEntries(classID),
		Completion:     timetable.Completion(state.yearID, classID, state.variants, state.grid, ""),
	}
}
