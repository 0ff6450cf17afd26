package service

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-timetable-api/internal/dto"
	"github.com/noah-isme/sma-timetable-api/internal/models"
	"github.com/noah-isme/sma-timetable-api/internal/timetable"
	appErrors "github.com/noah-isme/sma-timetable-api/pkg/errors"
)

// Configuration scopes reported by GetConfig.
const (
	ScopeYear  = "YEAR"
	ScopeClass = "CLASS"
)

// TimingService saves timing configurations and serves the compiled slot sequences.
type TimingService struct {
	*timetableCore
	compiler timetable.Compiler
}

// NewTimingService constructs the timing configuration service.
func NewTimingService(deps TimetableDeps) *TimingService {
	return &TimingService{
		timetableCore: newTimetableCore(deps),
		compiler:      timetable.Compiler{StrictBreaks: deps.Settings.StrictBreaks},
	}
}

// SaveConfig compiles and persists the weekday and Saturday variants of a scope. Entries left on
// removed or retyped slots are deleted; a re-timing that would double book a teacher is rejected.
func (s *TimingService) SaveConfig(ctx context.Context, yearRaw string, req dto.SaveTimingConfigRequest) (*dto.TimingConfigResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid timing configuration payload")
	}
	year, err := s.resolveYear(ctx, yearRaw)
	if err != nil {
		return nil, err
	}
	classID := normalizeClassID(req.ClassSectionID)
	if classID != nil {
		if _, err := s.ensureClass(ctx, *classID); err != nil {
			return nil, err
		}
	}

	weekday, err := toTimingConfig(year.ID, classID, models.DayGroupWeekday, req.Weekday)
	if err != nil {
		return nil, mapEngineError(prefixField("weekday", err))
	}
	weekday.SaturdaySameAsWeekday = req.SaturdaySameAsWeekday
	weekdaySlots, err := s.compiler.Compile(weekday)
	if err != nil {
		return nil, mapEngineError(prefixField("weekday", err))
	}

	configs := []models.TimingConfig{weekday}
	allSlots := append([]models.TimeSlot{}, weekdaySlots...)
	var saturdaySlots []models.TimeSlot
	hasSaturday := req.Saturday != nil && !req.SaturdaySameAsWeekday
	if hasSaturday {
		saturday, err := toTimingConfig(year.ID, classID, models.DayGroupSaturday, *req.Saturday)
		if err != nil {
			return nil, mapEngineError(prefixField("saturday", err))
		}
		saturdaySlots, err = s.compiler.Compile(saturday)
		if err != nil {
			return nil, mapEngineError(prefixField("saturday", err))
		}
		configs = append(configs, saturday)
		allSlots = append(allSlots, saturdaySlots...)
	}

	var pruned []models.TimetableEntry
	err = s.withYearWrite(ctx, year.ID, "save_config", func(ctx context.Context, tx *sqlx.Tx, state *yearState) error {
		before := conflictSet(state.pool().AllConflicts())

		state.variants.Put(year.ID, classID, models.DayGroupWeekday, weekdaySlots)
		if hasSaturday {
			state.variants.Put(year.ID, classID, models.DayGroupSaturday, saturdaySlots)
		} else {
			state.variants.Remove(year.ID, classID, models.DayGroupSaturday)
		}
		pruned = state.grid.Prune()

		introduced := make([]models.Conflict, 0)
		for _, conflict := range state.pool().AllConflicts() {
			if _, existed := before[conflictKey(conflict)]; !existed {
				introduced = append(introduced, conflict)
			}
		}
		if len(introduced) > 0 {
			return s.conflictError(ctx, "timing change would double book teachers", introduced)
		}

		if len(pruned) > 0 {
			ids := make([]string, 0, len(pruned))
			for _, entry := range pruned {
				ids = append(ids, entry.ID)
			}
			if err := s.entries.DeleteByIDs(ctx, tx, ids); err != nil {
				return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to remove orphaned timetable entries")
			}
		}
		if err := s.configs.ReplaceScope(ctx, tx, year.ID, classID, configs); err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save timing configuration")
		}
		if err := s.slots.ReplaceScope(ctx, tx, year.ID, classID, allSlots); err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save time slots")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("timing configuration saved",
		zap.String("academic_year_id", year.ID),
		zap.String("scope", scopeName(classID)),
		zap.Int("slots", len(allSlots)),
		zap.Int("pruned_entries", len(pruned)),
	)

	resp := buildConfigResponse(year.ID, classID, scopeName(classID), configs, weekdaySlots, saturdaySlots)
	resp.PrunedEntries = len(pruned)
	return resp, nil
}

// GetConfig returns the configuration applying to a class, or the year default when classID is
// nil or the class has no override. The boolean reports a cache hit.
func (s *TimingService) GetConfig(ctx context.Context, yearRaw string, classID *string) (*dto.TimingConfigResponse, bool, error) {
	year, err := s.resolveYear(ctx, yearRaw)
	if err != nil {
		return nil, false, err
	}
	classID = normalizeClassID(classID)

	key := yearCacheKey(year.ID, "config", classCacheSegment(classID))
	var cached dto.TimingConfigResponse
	if s.cache.Get(ctx, key, &cached) {
		return &cached, true, nil
	}

	state, err := s.loadState(ctx, nil, year.ID)
	if err != nil {
		return nil, false, err
	}

	scopeClass := (*string)(nil)
	if classID != nil && state.variants.HasOverride(year.ID, *classID) {
		scopeClass = classID
	}
	configs := scopeConfigs(state.configs, scopeClass)
	if _, ok := findConfig(configs, models.DayGroupWeekday); !ok {
		return nil, false, appErrors.Clone(appErrors.ErrNotFound, "timing configuration not found")
	}

	resp := buildConfigResponse(year.ID, scopeClass, scopeName(scopeClass), configs,
		state.variants.Variant(year.ID, scopeClass, models.DayGroupWeekday),
		state.variants.Variant(year.ID, scopeClass, models.DayGroupSaturday),
	)
	if classID != nil {
		resp.ClassSectionID = classID
	}
	s.cache.Set(ctx, key, resp, s.settings.CacheTTL)
	return resp, false, nil
}

// ListSlots returns the slot sequence a class uses on a day. An empty day means Monday.
func (s *TimingService) ListSlots(ctx context.Context, yearRaw, classID, day string) ([]models.TimeSlot, error) {
	weekday := models.Monday
	if strings.TrimSpace(day) != "" {
		weekday = models.NormalizeDay(day)
	}
	if !weekday.IsRegular() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "day must be one of MON, TUE, WED, THU, FRI, SAT")
	}
	year, err := s.resolveYear(ctx, yearRaw)
	if err != nil {
		return nil, err
	}
	state, err := s.loadState(ctx, nil, year.ID)
	if err != nil {
		return nil, err
	}
	slots := state.variants.SlotsForDay(year.ID, strings.TrimSpace(classID), weekday)
	if slots == nil {
		slots = []models.TimeSlot{}
	}
	return slots, nil
}

func toTimingConfig(yearID string, classID *string, group models.DayGroup, in dto.TimingConfigInput) (models.TimingConfig, error) {
	start, err := models.ParseClockTime(in.StartTime)
	if err != nil {
		return models.TimingConfig{}, &timetable.ConfigurationError{Field: "startTime", Reason: "must be a time in HH:MM format"}
	}
	cfg := models.TimingConfig{
		AcademicYearID:        yearID,
		ClassSectionID:        classID,
		DayGroup:              group,
		StartTime:             start,
		PeriodDurationMinutes: in.PeriodDurationMinutes,
		TotalPeriods:          in.TotalPeriods,
		Breaks:                make([]models.BreakConfig, 0, len(in.Breaks)),
	}
	if strings.TrimSpace(in.EndTime) != "" {
		end, err := models.ParseClockTime(in.EndTime)
		if err != nil {
			return models.TimingConfig{}, &timetable.ConfigurationError{Field: "endTime", Reason: "must be a time in HH:MM format"}
		}
		cfg.EndTime = &end
	}
	for _, br := range in.Breaks {
		cfg.Breaks = append(cfg.Breaks, models.BreakConfig{
			AfterPeriod:     br.AfterPeriod,
			Label:           strings.TrimSpace(br.Label),
			DurationMinutes: br.DurationMinutes,
			Type:            models.SlotType(strings.ToUpper(strings.TrimSpace(br.Type))),
		})
	}
	return cfg, nil
}

func prefixField(group string, err error) error {
	if cfgErr, ok := err.(*timetable.ConfigurationError); ok {
		return &timetable.ConfigurationError{Field: group + "." + cfgErr.Field, Reason: cfgErr.Reason}
	}
	return err
}

func buildConfigResponse(yearID string, classID *string, scope string, configs []models.TimingConfig, weekdaySlots, saturdaySlots []models.TimeSlot) *dto.TimingConfigResponse {
	resp := &dto.TimingConfigResponse{
		AcademicYearID: yearID,
		ClassSectionID: classID,
		Scope:          scope,
	}
	if weekday, ok := findConfig(configs, models.DayGroupWeekday); ok {
		resp.VariantView = variantView(weekday, weekdaySlots)
		resp.SaturdaySameAsWeekday = weekday.SaturdaySameAsWeekday
	}
	if saturday, ok := findConfig(configs, models.DayGroupSaturday); ok {
		view := variantView(saturday, saturdaySlots)
		resp.Saturday = &view
	}
	return resp
}

func variantView(cfg models.TimingConfig, slots []models.TimeSlot) dto.VariantView {
	if slots == nil {
		slots = []models.TimeSlot{}
	}
	breaks := cfg.Breaks
	if breaks == nil {
		breaks = timetable.DeriveBreaks(slots)
	}
	return dto.VariantView{
		StartTime:             cfg.StartTime,
		EndTime:               cfg.EndTime,
		PeriodDurationMinutes: cfg.PeriodDurationMinutes,
		TotalPeriods:          cfg.TotalPeriods,
		Breaks:                breaks,
		Slots:                 slots,
	}
}

func scopeConfigs(configs []models.TimingConfig, classID *string) []models.TimingConfig {
	out := make([]models.TimingConfig, 0, 2)
	for _, cfg := range configs {
		if sameClass(cfg.ClassSectionID, classID) {
			out = append(out, cfg)
		}
	}
	return out
}

func findConfig(configs []models.TimingConfig, group models.DayGroup) (models.TimingConfig, bool) {
	for _, cfg := range configs {
		if cfg.DayGroup == group {
			return cfg, true
		}
	}
	return models.TimingConfig{}, false
}

func sameClass(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func normalizeClassID(classID *string) *string {
	if classID == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*classID)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func scopeName(classID *string) string {
	if classID == nil {
		return ScopeYear
	}
	return ScopeClass
}

func classCacheSegment(classID *string) string {
	if classID == nil {
		return "default"
	}
	return *classID
}

// conflictKey identifies a conflicting pair independent of its orientation.
func conflictKey(conflict models.Conflict) string {
	a := fmt.Sprintf("%s/%s", conflict.Candidate.Kind, conflict.Candidate.ID)
	b := fmt.Sprintf("%s/%s", conflict.Existing.Kind, conflict.Existing.ID)
	pair := []string{a, b}
	sort.Strings(pair)
	return pair[0] + "|" + pair[1]
}

func conflictSet(conflicts []models.Conflict) map[string]struct{} {
	set := make(map[string]struct{}, len(conflicts))
	for _, conflict := range conflicts {
		set[conflictKey(conflict)] = struct{}{}
	}
	return set
}
