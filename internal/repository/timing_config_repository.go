package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"

	"github.com/noah-isme/sma-timetable-api/internal/models"
)

// TimingConfigRepository persists timing configurations per scope and day group.
type TimingConfigRepository struct {
	db *sqlx.DB
}

// NewTimingConfigRepository builds repository.
func NewTimingConfigRepository(db *sqlx.DB) *TimingConfigRepository {
	return &TimingConfigRepository{db: db}
}

type timingConfigRow struct {
	models.TimingConfig
	BreaksJSON types.JSONText `db:"breaks"`
}

func (r *TimingConfigRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

const timingConfigColumns = `id, academic_year_id, class_section_id, day_group, start_time, end_time,
period_duration_minutes, total_periods, breaks, saturday_same_as_weekday, created_at, updated_at`

// ListByYear returns every configuration of a year, year defaults first.
func (r *TimingConfigRepository) ListByYear(ctx context.Context, exec sqlx.ExtContext, yearID string) ([]models.TimingConfig, error) {
	query := `SELECT ` + timingConfigColumns + `
FROM timing_configs WHERE academic_year_id = $1
ORDER BY class_section_id NULLS FIRST, day_group DESC`
	var rows []timingConfigRow
	if err := sqlx.SelectContext(ctx, r.exec(exec), &rows, query, yearID); err != nil {
		return nil, fmt.Errorf("list timing configs: %w", err)
	}
	configs := make([]models.TimingConfig, 0, len(rows))
	for _, row := range rows {
		cfg := row.TimingConfig
		cfg.Breaks = []models.BreakConfig{}
		if len(row.BreaksJSON) > 0 {
			if err := json.Unmarshal(row.BreaksJSON, &cfg.Breaks); err != nil {
				return nil, fmt.Errorf("decode breaks of timing config %s: %w", cfg.ID, err)
			}
		}
		configs = append(configs, cfg)
	}
	return configs, nil
}

// ReplaceScope swaps every configuration saved for a (year, class) scope.
func (r *TimingConfigRepository) ReplaceScope(ctx context.Context, exec sqlx.ExtContext, yearID string, classID *string, configs []models.TimingConfig) error {
	target := r.exec(exec)
	const deleteQuery = `DELETE FROM timing_configs WHERE academic_year_id = $1 AND class_section_id IS NOT DISTINCT FROM $2`
	if _, err := target.ExecContext(ctx, deleteQuery, yearID, classID); err != nil {
		return fmt.Errorf("delete timing configs: %w", err)
	}

	const insertQuery = `
INSERT INTO timing_configs (id, academic_year_id, class_section_id, day_group, start_time, end_time,
	period_duration_minutes, total_periods, breaks, saturday_same_as_weekday, created_at, updated_at)
VALUES (:id, :academic_year_id, :class_section_id, :day_group, :start_time, :end_time,
	:period_duration_minutes, :total_periods, :breaks, :saturday_same_as_weekday, :created_at, :updated_at)`

	now := time.Now().UTC()
	for i := range configs {
		cfg := &configs[i]
		if cfg.ID == "" {
			cfg.ID = uuid.NewString()
		}
		if cfg.CreatedAt.IsZero() {
			cfg.CreatedAt = now
		}
		cfg.UpdatedAt = now
		breaks := cfg.Breaks
		if breaks == nil {
			breaks = []models.BreakConfig{}
		}
		payload, err := json.Marshal(breaks)
		if err != nil {
			return fmt.Errorf("encode breaks: %w", err)
		}
		row := timingConfigRow{TimingConfig: *cfg, BreaksJSON: types.JSONText(payload)}
		if _, err := sqlx.NamedExecContext(ctx, target, insertQuery, row); err != nil {
			return fmt.Errorf("insert timing config: %w", err)
		}
	}
	return nil
}
