package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-timetable-api/internal/models"
)

// ExtraSessionRepository persists ad hoc sessions.
type ExtraSessionRepository struct {
	db *sqlx.DB
}

// NewExtraSessionRepository builds repository.
func NewExtraSessionRepository(db *sqlx.DB) *ExtraSessionRepository {
	return &ExtraSessionRepository{db: db}
}

func (r *ExtraSessionRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

const extraSessionColumns = `id, academic_year_id, class_section_id, day, session_date, start_time, end_time, teacher_id, subject_id, reason, created_at`

// ListByYear returns the sessions of a year ordered by day and start time.
func (r *ExtraSessionRepository) ListByYear(ctx context.Context, exec sqlx.ExtContext, yearID string) ([]models.ExtraSession, error) {
	query := `SELECT ` + extraSessionColumns + ` FROM extra_sessions WHERE academic_year_id = $1 ORDER BY day, start_time`
	var sessions []models.ExtraSession
	if err := sqlx.SelectContext(ctx, r.exec(exec), &sessions, query, yearID); err != nil {
		return nil, fmt.Errorf("list extra sessions: %w", err)
	}
	return sessions, nil
}

// FindByID returns one session; sql.ErrNoRows when missing.
func (r *ExtraSessionRepository) FindByID(ctx context.Context, exec sqlx.ExtContext, id string) (*models.ExtraSession, error) {
	query := `SELECT ` + extraSessionColumns + ` FROM extra_sessions WHERE id = $1`
	var session models.ExtraSession
	if err := sqlx.GetContext(ctx, r.exec(exec), &session, query, id); err != nil {
		return nil, err
	}
	return &session, nil
}

// Create inserts a session, assigning id and timestamp.
func (r *ExtraSessionRepository) Create(ctx context.Context, exec sqlx.ExtContext, session *models.ExtraSession) error {
	if session.ID == "" {
		session.ID = uuid.NewString()
	}
	if session.CreatedAt.IsZero() {
		session.CreatedAt = time.Now().UTC()
	}
	const query = `
INSERT INTO extra_sessions (id, academic_year_id, class_section_id, day, session_date, start_time, end_time, teacher_id, subject_id, reason, created_at)
VALUES (:id, :academic_year_id, :class_section_id, :day, :session_date, :start_time, :end_time, :teacher_id, :subject_id, :reason, :created_at)`
	if _, err := sqlx.NamedExecContext(ctx, r.exec(exec), query, session); err != nil {
		return fmt.Errorf("insert extra session: %w", err)
	}
	return nil
}

// Delete removes a session; sql.ErrNoRows when nothing was deleted.
func (r *ExtraSessionRepository) Delete(ctx context.Context, exec sqlx.ExtContext, id string) error {
	res, err := r.exec(exec).ExecContext(ctx, `DELETE FROM extra_sessions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete extra session: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete extra session: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
