package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/sma-timetable-api/internal/models"
)

// TimeSlotRepository persists compiled slots.
type TimeSlotRepository struct {
	db *sqlx.DB
}

// NewTimeSlotRepository builds repository.
func NewTimeSlotRepository(db *sqlx.DB) *TimeSlotRepository {
	return &TimeSlotRepository{db: db}
}

func (r *TimeSlotRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// ListByYear returns all slots of a year ordered by scope, day group and order.
func (r *TimeSlotRepository) ListByYear(ctx context.Context, exec sqlx.ExtContext, yearID string) ([]models.TimeSlot, error) {
	const query = `SELECT id, academic_year_id, class_section_id, day_group, slot_order, slot_type, label, start_time, end_time
FROM time_slots WHERE academic_year_id = $1
ORDER BY class_section_id NULLS FIRST, day_group DESC, slot_order ASC`
	var slots []models.TimeSlot
	if err := sqlx.SelectContext(ctx, r.exec(exec), &slots, query, yearID); err != nil {
		return nil, fmt.Errorf("list time slots: %w", err)
	}
	return slots, nil
}

// ReplaceScope makes slots the complete slot set of a (year, class) scope. Rows whose id is
// kept are updated in place so entries referencing them survive.
func (r *TimeSlotRepository) ReplaceScope(ctx context.Context, exec sqlx.ExtContext, yearID string, classID *string, slots []models.TimeSlot) error {
	target := r.exec(exec)
	keep := make([]string, 0, len(slots))
	for _, slot := range slots {
		keep = append(keep, slot.ID)
	}

	const deleteQuery = `DELETE FROM time_slots
WHERE academic_year_id = $1 AND class_section_id IS NOT DISTINCT FROM $2 AND NOT (id = ANY($3))`
	if _, err := target.ExecContext(ctx, deleteQuery, yearID, classID, pq.Array(keep)); err != nil {
		return fmt.Errorf("delete stale time slots: %w", err)
	}

	const upsertQuery = `
INSERT INTO time_slots (id, academic_year_id, class_section_id, day_group, slot_order, slot_type, label, start_time, end_time)
VALUES (:id, :academic_year_id, :class_section_id, :day_group, :slot_order, :slot_type, :label, :start_time, :end_time)
ON CONFLICT (id) DO UPDATE
SET slot_type = EXCLUDED.slot_type,
    label = EXCLUDED.label,
    start_time = EXCLUDED.start_time,
    end_time = EXCLUDED.end_time`
	for i := range slots {
		if _, err := sqlx.NamedExecContext(ctx, target, upsertQuery, slots[i]); err != nil {
			return fmt.Errorf("upsert time slot: %w", err)
		}
	}
	return nil
}
