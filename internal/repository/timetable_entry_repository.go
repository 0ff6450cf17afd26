package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/sma-timetable-api/internal/models"
)

// TimetableEntryRepository persists grid assignments.
type TimetableEntryRepository struct {
	db *sqlx.DB
}

// NewTimetableEntryRepository builds repository.
func NewTimetableEntryRepository(db *sqlx.DB) *TimetableEntryRepository {
	return &TimetableEntryRepository{db: db}
}

func (r *TimetableEntryRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

const timetableEntryColumns = `id, class_section_id, academic_year_id, day, slot_id, teacher_id, subject_id, created_at, updated_at`

// ListByYear returns every entry of a year.
func (r *TimetableEntryRepository) ListByYear(ctx context.Context, exec sqlx.ExtContext, yearID string) ([]models.TimetableEntry, error) {
	query := `SELECT ` + timetableEntryColumns + ` FROM timetable_entries WHERE academic_year_id = $1`
	var entries []models.TimetableEntry
	if err := sqlx.SelectContext(ctx, r.exec(exec), &entries, query, yearID); err != nil {
		return nil, fmt.Errorf("list timetable entries: %w", err)
	}
	return entries, nil
}

// ReplaceForClass deletes every entry of a class and inserts entries in their place.
func (r *TimetableEntryRepository) ReplaceForClass(ctx context.Context, exec sqlx.ExtContext, yearID, classID string, entries []models.TimetableEntry) error {
	target := r.exec(exec)
	const deleteQuery = `DELETE FROM timetable_entries WHERE academic_year_id = $1 AND class_section_id = $2`
	if _, err := target.ExecContext(ctx, deleteQuery, yearID, classID); err != nil {
		return fmt.Errorf("delete class timetable entries: %w", err)
	}

	const insertQuery = `
INSERT INTO timetable_entries (id, class_section_id, academic_year_id, day, slot_id, teacher_id, subject_id, created_at, updated_at)
VALUES (:id, :class_section_id, :academic_year_id, :day, :slot_id, :teacher_id, :subject_id, :created_at, :updated_at)`
	now := time.Now().UTC()
	for i := range entries {
		entry := &entries[i]
		if entry.ID == "" {
			entry.ID = uuid.NewString()
		}
		entry.ClassSectionID = classID
		entry.AcademicYearID = yearID
		if entry.CreatedAt.IsZero() {
			entry.CreatedAt = now
		}
		entry.UpdatedAt = now
		if _, err := sqlx.NamedExecContext(ctx, target, insertQuery, entry); err != nil {
			return fmt.Errorf("insert timetable entry: %w", err)
		}
	}
	return nil
}

// DeleteByIDs removes the given entries.
func (r *TimetableEntryRepository) DeleteByIDs(ctx context.Context, exec sqlx.ExtContext, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	const query = `DELETE FROM timetable_entries WHERE id = ANY($1)`
	if _, err := r.exec(exec).ExecContext(ctx, query, pq.Array(ids)); err != nil {
		return fmt.Errorf("delete timetable entries: %w", err)
	}
	return nil
}
