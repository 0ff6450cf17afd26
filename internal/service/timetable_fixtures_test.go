package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-timetable-api/internal/models"
	"github.com/noah-isme/sma-timetable-api/internal/timetable"
	appErrors "github.com/noah-isme/sma-timetable-api/pkg/errors"
	"github.com/noah-isme/sma-timetable-api/pkg/lock"
)

const (
	testYearID = "year-1"
	classA     = "class-a"
	classB     = "class-b"
)

type yearReaderStub struct {
	years map[string]models.AcademicYear
}

func (s yearReaderStub) FindByID(ctx context.Context, id string) (*models.AcademicYear, error) {
	year, ok := s.years[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &year, nil
}

func (s yearReaderStub) FindActive(ctx context.Context) (*models.AcademicYear, error) {
	for _, year := range s.years {
		if year.IsActive {
			y := year
			return &y, nil
		}
	}
	return nil, sql.ErrNoRows
}

type classReaderStub struct {
	classes map[string]models.ClassSection
}

func (s classReaderStub) FindByID(ctx context.Context, id string) (*models.ClassSection, error) {
	class, ok := s.classes[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &class, nil
}

type configStoreStub struct {
	items    []models.TimingConfig
	replaced []models.TimingConfig
	err      error
}

func (s *configStoreStub) ListByYear(ctx context.Context, exec sqlx.ExtContext, yearID string) ([]models.TimingConfig, error) {
	return append([]models.TimingConfig{}, s.items...), nil
}

func (s *configStoreStub) ReplaceScope(ctx context.Context, exec sqlx.ExtContext, yearID string, classID *string, configs []models.TimingConfig) error {
	if s.err != nil {
		return s.err
	}
	s.replaced = append([]models.TimingConfig{}, configs...)
	return nil
}

type slotStoreStub struct {
	items    []models.TimeSlot
	replaced []models.TimeSlot
}

func (s *slotStoreStub) ListByYear(ctx context.Context, exec sqlx.ExtContext, yearID string) ([]models.TimeSlot, error) {
	return append([]models.TimeSlot{}, s.items...), nil
}

func (s *slotStoreStub) ReplaceScope(ctx context.Context, exec sqlx.ExtContext, yearID string, classID *string, slots []models.TimeSlot) error {
	s.replaced = append([]models.TimeSlot{}, slots...)
	return nil
}

type entryStoreStub struct {
	items        []models.TimetableEntry
	replaced     []models.TimetableEntry
	replaceCalls int
	deleted      []string
	replaceErr   error
}

func (s *entryStoreStub) ListByYear(ctx context.Context, exec sqlx.ExtContext, yearID string) ([]models.TimetableEntry, error) {
	return append([]models.TimetableEntry{}, s.items...), nil
}

func (s *entryStoreStub) ReplaceForClass(ctx context.Context, exec sqlx.ExtContext, yearID, classID string, entries []models.TimetableEntry) error {
	s.replaceCalls++
	if s.replaceErr != nil {
		return s.replaceErr
	}
	s.replaced = append([]models.TimetableEntry{}, entries...)
	return nil
}

func (s *entryStoreStub) DeleteByIDs(ctx context.Context, exec sqlx.ExtContext, ids []string) error {
	s.deleted = append(s.deleted, ids...)
	return nil
}

type sessionStoreStub struct {
	items   []models.ExtraSession
	created []models.ExtraSession
	deleted []string
}

func (s *sessionStoreStub) ListByYear(ctx context.Context, exec sqlx.ExtContext, yearID string) ([]models.ExtraSession, error) {
	return append([]models.ExtraSession{}, s.items...), nil
}

func (s *sessionStoreStub) FindByID(ctx context.Context, exec sqlx.ExtContext, id string) (*models.ExtraSession, error) {
	for _, item := range s.items {
		if item.ID == id {
			found := item
			return &found, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s *sessionStoreStub) Create(ctx context.Context, exec sqlx.ExtContext, session *models.ExtraSession) error {
	s.created = append(s.created, *session)
	return nil
}

func (s *sessionStoreStub) Delete(ctx context.Context, exec sqlx.ExtContext, id string) error {
	s.deleted = append(s.deleted, id)
	return nil
}

type directoryStub struct {
	teachers map[string]string
	subjects map[string]string
	classes  map[string]string
}

func (d directoryStub) TeacherNames(ctx context.Context, ids []string) (map[string]string, error) {
	return d.teachers, nil
}

func (d directoryStub) SubjectNames(ctx context.Context, ids []string) (map[string]string, error) {
	return d.subjects, nil
}

func (d directoryStub) ClassNames(ctx context.Context, ids []string) (map[string]string, error) {
	return d.classes, nil
}

type memoryCacheRepo struct {
	values      map[string][]byte
	invalidated []string
}

func newMemoryCacheRepo() *memoryCacheRepo {
	return &memoryCacheRepo{values: make(map[string][]byte)}
}

func (m *memoryCacheRepo) Get(ctx context.Context, key string, dest interface{}) error {
	raw, ok := m.values[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (m *memoryCacheRepo) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.values[key] = raw
	return nil
}

func (m *memoryCacheRepo) DeleteByPattern(ctx context.Context, pattern string) error {
	m.invalidated = append(m.invalidated, pattern)
	prefix := strings.TrimSuffix(pattern, "*")
	for key := range m.values {
		if strings.HasPrefix(key, prefix) {
			delete(m.values, key)
		}
	}
	return nil
}

type txProviderMock struct {
	db   *sqlx.DB
	mock sqlmock.Sqlmock
}

func newTxProviderMock(t *testing.T) (txProvider, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	sqlxdb := sqlx.NewDb(db, "sqlmock")
	t.Cleanup(func() { db.Close() })
	return &txProviderMock{db: sqlxdb, mock: mock}, mock
}

func (t *txProviderMock) BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error) {
	return t.db.BeginTxx(ctx, opts)
}

type timetableFixture struct {
	configs   *configStoreStub
	slots     *slotStoreStub
	entries   *entryStoreStub
	sessions  *sessionStoreStub
	cacheRepo *memoryCacheRepo
	locker    *lock.LocalLocker
	mock      sqlmock.Sqlmock
	deps      TimetableDeps
}

func newTimetableFixture(t *testing.T) *timetableFixture {
	t.Helper()
	tx, mock := newTxProviderMock(t)
	f := &timetableFixture{
		configs:   &configStoreStub{},
		slots:     &slotStoreStub{},
		entries:   &entryStoreStub{},
		sessions:  &sessionStoreStub{},
		cacheRepo: newMemoryCacheRepo(),
		locker:    lock.NewLocalLocker(),
		mock:      mock,
	}
	logger := zap.NewNop()
	f.deps = TimetableDeps{
		Years: yearReaderStub{years: map[string]models.AcademicYear{
			testYearID: {ID: testYearID, Name: "2024/2025", IsActive: true},
			"year-old":  {ID: "year-old", Name: "2023/2024"},
		}},
		Classes: classReaderStub{classes: map[string]models.ClassSection{
			classA: {ID: classA, Grade: "X", Section: "A", Name: "X-A"},
			classB: {ID: classB, Grade: "X", Section: "B", Name: "X-B"},
		}},
		Configs:  f.configs,
		Slots:    f.slots,
		Entries:  f.entries,
		Sessions: f.sessions,
		Directory: directoryStub{
			teachers: map[string]string{"t1": "Budi Santoso", "t2": "Siti Aminah"},
			subjects: map[string]string{"math": "Mathematics", "bio": "Biology"},
			classes:  map[string]string{classA: "X-A", classB: "X-B"},
		},
		Tx:        tx,
		Locker:    f.locker,
		Cache:     NewCacheService(f.cacheRepo, nil, time.Minute, logger, true),
		Validator: validator.New(),
		Logger:    logger,
		Settings:  TimetableSettings{LockTTL: time.Second, CacheTTL: time.Minute},
	}
	return f
}

// seedVariant compiles and stores a variant, returning its slots.
func (f *timetableFixture) seedVariant(t *testing.T, classID *string, group models.DayGroup, start string, duration, periods int, breaks ...models.BreakConfig) []models.TimeSlot {
	t.Helper()
	cfg := models.TimingConfig{
		ID:                    "cfg-" + string(group) + "-" + classCacheSegment(classID),
		AcademicYearID:        testYearID,
		ClassSectionID:        classID,
		DayGroup:              group,
		StartTime:             models.MustClockTime(start),
		PeriodDurationMinutes: duration,
		TotalPeriods:          periods,
		Breaks:                breaks,
	}
	slots, err := timetable.Compile(cfg)
	require.NoError(t, err)
	f.configs.items = append(f.configs.items, cfg)
	f.slots.items = append(f.slots.items, slots...)
	return slots
}

// seedWeekday stores the year default weekday variant
// [PERIOD 09:00-09:45, SHORT_BREAK 09:45-09:55, PERIOD 09:55-10:40].
func (f *timetableFixture) seedWeekday(t *testing.T) []models.TimeSlot {
	return f.seedVariant(t, nil, models.DayGroupWeekday, "09:00", 45, 2,
		models.BreakConfig{AfterPeriod: 1, DurationMinutes: 10, Type: models.SlotTypeShortBreak})
}

func (f *timetableFixture) seedEntry(id, classID string, day models.Weekday, slotID, teacherID, subjectID string) {
	f.entries.items = append(f.entries.items, models.TimetableEntry{
		ID:             id,
		ClassSectionID: classID,
		AcademicYearID: testYearID,
		Day:            day,
		SlotID:         slotID,
		TeacherID:      teacherID,
		SubjectID:      subjectID,
	})
}

func strPtr(v string) *string {
	return &v
}
