package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-timetable-api/internal/models"
)

func TestTimetableEntryRepositoryReplaceForClass(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewTimetableEntryRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM timetable_entries WHERE academic_year_id = $1 AND class_section_id = $2")).
		WithArgs("year-1", "class-a").
		WillReturnResult(sqlmock.NewResult(0, 4))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO timetable_entries")).
		WithArgs("entry-1", "class-a", "year-1", "MON", "slot-1", "t1", "math", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO timetable_entries")).
		WithArgs(sqlmock.AnyArg(), "class-a", "year-1", "TUE", "slot-1", "t2", "bio", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	tx, err := db.Beginx()
	require.NoError(t, err)
	entries := []models.TimetableEntry{
		{ID: "entry-1", Day: models.Monday, SlotID: "slot-1", TeacherID: "t1", SubjectID: "math"},
		{Day: models.Tuesday, SlotID: "slot-1", TeacherID: "t2", SubjectID: "bio"},
	}
	require.NoError(t, repo.ReplaceForClass(context.Background(), tx, "year-1", "class-a", entries))
	require.NoError(t, tx.Commit())

	assert.NotEmpty(t, entries[1].ID)
	assert.Equal(t, "class-a", entries[1].ClassSectionID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTimetableEntryRepositoryReplaceForClassPropagatesErrors(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewTimetableEntryRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM timetable_entries")).
		WillReturnError(errors.New("connection reset"))

	err := repo.ReplaceForClass(context.Background(), nil, "year-1", "class-a", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "delete class timetable entries")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTimetableEntryRepositoryDeleteByIDs(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewTimetableEntryRepository(db)

	require.NoError(t, repo.DeleteByIDs(context.Background(), nil, nil))

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM timetable_entries WHERE id = ANY($1)")).
		WithArgs(`{"a-1","a-2"}`).
		WillReturnResult(sqlmock.NewResult(0, 2))
	require.NoError(t, repo.DeleteByIDs(context.Background(), nil, []string{"a-1", "a-2"}))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTimetableEntryRepositoryListByYear(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewTimetableEntryRepository(db)

	rows := sqlmock.NewRows([]string{"id", "class_section_id", "academic_year_id", "day", "slot_id", "teacher_id", "subject_id", "created_at", "updated_at"}).
		AddRow("entry-1", "class-a", "year-1", "WED", "slot-1", "t1", "math", time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("FROM timetable_entries WHERE academic_year_id = $1")).
		WithArgs("year-1").
		WillReturnRows(rows)

	entries, err := repo.ListByYear(context.Background(), nil, "year-1")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, models.Wednesday, entries[0].Day)
	assert.NoError(t, mock.ExpectationsWereMet())
}
