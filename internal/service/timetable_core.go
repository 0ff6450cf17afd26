package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-timetable-api/internal/dto"
	"github.com/noah-isme/sma-timetable-api/internal/models"
	"github.com/noah-isme/sma-timetable-api/internal/timetable"
	"github.com/noah-isme/sma-timetable-api/pkg/database"
	appErrors "github.com/noah-isme/sma-timetable-api/pkg/errors"
	"github.com/noah-isme/sma-timetable-api/pkg/lock"
)

type timingConfigStore interface {
	ListByYear(ctx context.Context, exec sqlx.ExtContext, yearID string) ([]models.TimingConfig, error)
	ReplaceScope(ctx context.Context, exec sqlx.ExtContext, yearID string, classID *string, configs []models.TimingConfig) error
}

type timeSlotStore interface {
	ListByYear(ctx context.Context, exec sqlx.ExtContext, yearID string) ([]models.TimeSlot, error)
	ReplaceScope(ctx context.Context, exec sqlx.ExtContext, yearID string, classID *string, slots []models.TimeSlot) error
}

type timetableEntryStore interface {
	ListByYear(ctx context.Context, exec sqlx.ExtContext, yearID string) ([]models.TimetableEntry, error)
	ReplaceForClass(ctx context.Context, exec sqlx.ExtContext, yearID, classID string, entries []models.TimetableEntry) error
	DeleteByIDs(ctx context.Context, exec sqlx.ExtContext, ids []string) error
}

type extraSessionStore interface {
	ListByYear(ctx context.Context, exec sqlx.ExtContext, yearID string) ([]models.ExtraSession, error)
	FindByID(ctx context.Context, exec sqlx.ExtContext, id string) (*models.ExtraSession, error)
	Create(ctx context.Context, exec sqlx.ExtContext, session *models.ExtraSession) error
	Delete(ctx context.Context, exec sqlx.ExtContext, id string) error
}

type academicYearReader interface {
	FindByID(ctx context.Context, id string) (*models.AcademicYear, error)
	FindActive(ctx context.Context) (*models.AcademicYear, error)
}

type classSectionReader interface {
	FindByID(ctx context.Context, id string) (*models.ClassSection, error)
}

type directoryReader interface {
	TeacherNames(ctx context.Context, ids []string) (map[string]string, error)
	SubjectNames(ctx context.Context, ids []string) (map[string]string, error)
	ClassNames(ctx context.Context, ids []string) (map[string]string, error)
}

type txProvider interface {
	BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
}

// ActiveYear is the path token resolving to the active academic year.
const ActiveYear = "active"

// TimetableSettings tunes the timetable services.
type TimetableSettings struct {
	StrictBreaks bool
	LockTTL      time.Duration
	CacheTTL     time.Duration
}

// TimetableDeps bundles the collaborators shared by the timetable services.
type TimetableDeps struct {
	Years     academicYearReader
	Classes   classSectionReader
	Configs   timingConfigStore
	Slots     timeSlotStore
	Entries   timetableEntryStore
	Sessions  extraSessionStore
	Directory directoryReader
	Tx        txProvider
	Locker    lock.Locker
	Cache     *CacheService
	Metrics   *MetricsService
	Validator *validator.Validate
	Logger    *zap.Logger
	Settings  TimetableSettings
}

// yearState is the timetable of one academic year as read inside a request.
type yearState struct {
	yearID   string
	configs  []models.TimingConfig
	variants *timetable.VariantStore
	grid     *timetable.Grid
	sessions []models.ExtraSession
}

// pool returns the occupancy pool of every entry and extra session of the year.
func (s *yearState) pool() *timetable.Pool {
	return timetable.BuildPool(s.variants, s.grid, s.sessions)
}

// classSessions returns the extra sessions attached to a class.
func (s *yearState) classSessions(classID string) []models.ExtraSession {
	out := []models.ExtraSession{}
	for _, session := range s.sessions {
		if session.ClassSectionID != nil && *session.ClassSectionID == classID {
			out = append(out, session)
		}
	}
	return out
}

type timetableCore struct {
	years     academicYearReader
	classes   classSectionReader
	configs   timingConfigStore
	slots     timeSlotStore
	entries   timetableEntryStore
	sessions  extraSessionStore
	directory directoryReader
	tx        txProvider
	locker    lock.Locker
	cache     *CacheService
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	settings  TimetableSettings
}

func newTimetableCore(deps TimetableDeps) *timetableCore {
	if deps.Validator == nil {
		deps.Validator = validator.New()
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Locker == nil {
		deps.Locker = lock.NewLocalLocker()
	}
	if deps.Settings.LockTTL <= 0 {
		deps.Settings.LockTTL = 15 * time.Second
	}
	return &timetableCore{
		years:     deps.Years,
		classes:   deps.Classes,
		configs:   deps.Configs,
		slots:     deps.Slots,
		entries:   deps.Entries,
		sessions:  deps.Sessions,
		directory: deps.Directory,
		tx:        deps.Tx,
		locker:    deps.Locker,
		cache:     deps.Cache,
		metrics:   deps.Metrics,
		validator: deps.Validator,
		logger:    deps.Logger,
		settings:  deps.Settings,
	}
}

// resolveYear accepts a year id or the "active" token.
func (c *timetableCore) resolveYear(ctx context.Context, raw string) (*models.AcademicYear, error) {
	raw = strings.TrimSpace(raw)
	var (
		year *models.AcademicYear
		err  error
	)
	if raw == "" || strings.EqualFold(raw, ActiveYear) {
		year, err = c.years.FindActive(ctx)
	} else {
		year, err = c.years.FindByID(ctx, raw)
	}
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "academic year not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load academic year")
	}
	return year, nil
}

// ensureClass verifies the class exists in the directory.
func (c *timetableCore) ensureClass(ctx context.Context, classID string) (*models.ClassSection, error) {
	if strings.TrimSpace(classID) == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "classSectionId is required")
	}
	class, err := c.classes.FindByID(ctx, classID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "class section not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class section")
	}
	return class, nil
}

// loadState reads the timetable of a year. A nil exec reads outside any transaction.
func (c *timetableCore) loadState(ctx context.Context, exec sqlx.ExtContext, yearID string) (*yearState, error) {
	start := time.Now()
	defer func() { c.metrics.ObserveDBQuery("timetable_load_state", time.Since(start)) }()

	configs, err := c.configs.ListByYear(ctx, exec, yearID)
	if err != nil {
		return nil, wrapLoad(err, "failed to load timing configurations")
	}
	slots, err := c.slots.ListByYear(ctx, exec, yearID)
	if err != nil {
		return nil, wrapLoad(err, "failed to load time slots")
	}
	entries, err := c.entries.ListByYear(ctx, exec, yearID)
	if err != nil {
		return nil, wrapLoad(err, "failed to load timetable entries")
	}
	sessions, err := c.sessions.ListByYear(ctx, exec, yearID)
	if err != nil {
		return nil, wrapLoad(err, "failed to load extra sessions")
	}
	variants := timetable.NewVariantStore(configs, slots)
	return &yearState{
		yearID:   yearID,
		configs:  configs,
		variants: variants,
		grid:     timetable.NewGrid(yearID, variants, entries),
		sessions: sessions,
	}, nil
}

func wrapLoad(err error, message string) error {
	if database.IsSerializationFailure(err) {
		return appErrors.Wrap(err, appErrors.ErrBusy.Code, appErrors.ErrBusy.Status, appErrors.ErrBusy.Message)
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, message)
}

// withYearWrite runs fn under the year lock inside one serializable transaction. The year
// state handed to fn is read through that transaction. Cached views of the year are
// invalidated after a successful commit.
func (c *timetableCore) withYearWrite(ctx context.Context, yearID, operation string, fn func(ctx context.Context, tx *sqlx.Tx, state *yearState) error) (err error) {
	defer func() {
		err = normalizeWriteError(err)
		c.metrics.RecordTimetableWrite(operation, writeResult(err))
	}()

	release, acquired, err := c.locker.Lock(ctx, "timetable:year:"+yearID, c.settings.LockTTL)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to acquire timetable lock")
	}
	if !acquired {
		return appErrors.Clone(appErrors.ErrBusy, "")
	}
	defer func() {
		if relErr := release(context.WithoutCancel(ctx)); relErr != nil && !errors.Is(relErr, lock.ErrNotHeld) {
			c.logger.Warn("release timetable lock", zap.String("academic_year_id", yearID), zap.Error(relErr))
		}
	}()

	tx, err := c.tx.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to begin transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	state, err := c.loadState(ctx, tx, yearID)
	if err != nil {
		return err
	}
	if err = fn(ctx, tx, state); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit timetable changes")
	}

	c.cache.Invalidate(ctx, CacheKey("timetable", yearID, "*"))
	return nil
}

// normalizeWriteError maps serialization aborts to TIMETABLE_BUSY and leaves typed errors alone.
func normalizeWriteError(err error) error {
	if err == nil {
		return nil
	}
	if database.IsSerializationFailure(err) {
		return appErrors.Wrap(err, appErrors.ErrBusy.Code, appErrors.ErrBusy.Status, appErrors.ErrBusy.Message)
	}
	var appErr *appErrors.Error
	if errors.As(err, &appErr) {
		return err
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update timetable")
}

func writeResult(err error) string {
	switch {
	case err == nil:
		return WriteResultOK
	case errors.Is(err, appErrors.ErrConflict):
		return WriteResultConflict
	case errors.Is(err, appErrors.ErrBusy):
		return WriteResultBusy
	case errors.Is(err, appErrors.ErrValidation), errors.Is(err, appErrors.ErrConfiguration):
		return WriteResultInvalid
	case errors.Is(err, appErrors.ErrNotFound):
		return WriteResultNotFound
	default:
		return WriteResultFailed
	}
}

// mapEngineError converts engine errors into API errors carrying the offending fields.
func mapEngineError(err error) error {
	var cfgErr *timetable.ConfigurationError
	if errors.As(err, &cfgErr) {
		return appErrors.Wrap(err, appErrors.ErrConfiguration.Code, appErrors.ErrConfiguration.Status, cfgErr.Error()).WithDetails(cfgErr)
	}
	var valErr *timetable.ValidationError
	if errors.As(err, &valErr) {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, valErr.Error()).WithDetails(valErr.Errors)
	}
	return err
}

// conflictError reports double bookings with the day, time, other class and teacher of each pair.
func (c *timetableCore) conflictError(ctx context.Context, message string, conflicts []models.Conflict) error {
	c.metrics.RecordConflicts(conflicts)
	views := c.conflictViews(ctx, conflicts)
	for _, view := range views {
		c.logger.Info("timetable conflict",
			zap.String("teacher_id", view.TeacherID),
			zap.String("day", string(view.Day)),
			zap.String("time", view.Time),
			zap.String("other_class_id", view.OtherClassID),
		)
	}
	cause := &models.TimetableConflictError{Message: message, Conflicts: conflicts}
	if len(views) > 0 {
		first := views[0]
		message = fmt.Sprintf("%s: teacher %s is already booked on %s %s", message, displayName(first.TeacherName, first.TeacherID), first.Day, first.Time)
		if first.OtherClassID != "" {
			message += " in " + displayName(first.OtherClassName, first.OtherClassID)
		}
		if len(views) > 1 {
			message += fmt.Sprintf(" (and %d more)", len(views)-1)
		}
	}
	return appErrors.Wrap(cause, appErrors.ErrConflict.Code, appErrors.ErrConflict.Status, message).WithDetails(views)
}

// conflictViews decorates conflicts with display names. Directory failures only drop the names.
func (c *timetableCore) conflictViews(ctx context.Context, conflicts []models.Conflict) []dto.ConflictView {
	teacherIDs := make([]string, 0, len(conflicts))
	classIDs := make([]string, 0, len(conflicts)*2)
	subjectIDs := make([]string, 0, len(conflicts)*2)
	for _, conflict := range conflicts {
		teacherIDs = append(teacherIDs, conflict.TeacherID)
		classIDs = append(classIDs, conflict.Candidate.ClassSectionID, conflict.Existing.ClassSectionID)
		subjectIDs = append(subjectIDs, conflict.Candidate.SubjectID, conflict.Existing.SubjectID)
	}
	teachers := c.lookupNames(ctx, "teacher", teacherIDs, c.directoryTeachers)
	classes := c.lookupNames(ctx, "class", classIDs, c.directoryClasses)
	subjects := c.lookupNames(ctx, "subject", subjectIDs, c.directorySubjects)

	occupancyView := func(occ models.Occupancy) dto.OccupancyView {
		return dto.OccupancyView{
			Occupancy:   occ,
			Time:        occ.Span(),
			ClassName:   classes[occ.ClassSectionID],
			SubjectName: subjects[occ.SubjectID],
		}
	}

	views := make([]dto.ConflictView, 0, len(conflicts))
	for _, conflict := range conflicts {
		start, end := conflict.Candidate.StartTime, conflict.Candidate.EndTime
		if conflict.Existing.StartTime > start {
			start = conflict.Existing.StartTime
		}
		if conflict.Existing.EndTime < end {
			end = conflict.Existing.EndTime
		}
		views = append(views, dto.ConflictView{
			Day:            conflict.Day,
			Time:           fmt.Sprintf("%s-%s", start, end),
			TeacherID:      conflict.TeacherID,
			TeacherName:    teachers[conflict.TeacherID],
			OtherClassID:   conflict.Existing.ClassSectionID,
			OtherClassName: classes[conflict.Existing.ClassSectionID],
			Candidate:      occupancyView(conflict.Candidate),
			Existing:       occupancyView(conflict.Existing),
		})
	}
	return views
}

func (c *timetableCore) directoryTeachers(ctx context.Context, ids []string) (map[string]string, error) {
	return c.directory.TeacherNames(ctx, ids)
}

func (c *timetableCore) directoryClasses(ctx context.Context, ids []string) (map[string]string, error) {
	return c.directory.ClassNames(ctx, ids)
}

func (c *timetableCore) directorySubjects(ctx context.Context, ids []string) (map[string]string, error) {
	return c.directory.SubjectNames(ctx, ids)
}

func (c *timetableCore) lookupNames(ctx context.Context, kind string, ids []string, fetch func(context.Context, []string) (map[string]string, error)) map[string]string {
	ids = uniqueNonEmpty(ids)
	if c.directory == nil || len(ids) == 0 {
		return map[string]string{}
	}
	names, err := fetch(ctx, ids)
	if err != nil {
		c.logger.Warn("resolve display names", zap.String("kind", kind), zap.Error(err))
		return map[string]string{}
	}
	if names == nil {
		return map[string]string{}
	}
	return names
}

func uniqueNonEmpty(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, value := range values {
		if value == "" {
			continue
		}
		if _, ok := seen[value]; ok {
			continue
		}
		seen[value] = struct{}{}
		out = append(out, value)
	}
	return out
}

func displayName(name, id string) string {
	if name != "" {
		return name
	}
	return id
}

func yearCacheKey(yearID string, parts ...string) string {
	return CacheKey(append([]string{"timetable", yearID}, parts...)...)
}
