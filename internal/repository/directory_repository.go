package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-timetable-api/internal/models"
)

// AcademicYearRepository reads the academic year directory.
type AcademicYearRepository struct {
	db *sqlx.DB
}

// NewAcademicYearRepository builds repository.
func NewAcademicYearRepository(db *sqlx.DB) *AcademicYearRepository {
	return &AcademicYearRepository{db: db}
}

// FindByID returns a year; sql.ErrNoRows when missing.
func (r *AcademicYearRepository) FindByID(ctx context.Context, id string) (*models.AcademicYear, error) {
	var year models.AcademicYear
	if err := r.db.GetContext(ctx, &year, `SELECT id, name, is_active FROM academic_years WHERE id = $1`, id); err != nil {
		return nil, err
	}
	return &year, nil
}

// FindActive returns the active year; sql.ErrNoRows when none is active.
func (r *AcademicYearRepository) FindActive(ctx context.Context) (*models.AcademicYear, error) {
	var year models.AcademicYear
	if err := r.db.GetContext(ctx, &year, `SELECT id, name, is_active FROM academic_years WHERE is_active = TRUE LIMIT 1`); err != nil {
		return nil, err
	}
	return &year, nil
}

// ClassSectionRepository reads the class directory.
type ClassSectionRepository struct {
	db *sqlx.DB
}

// NewClassSectionRepository builds repository.
func NewClassSectionRepository(db *sqlx.DB) *ClassSectionRepository {
	return &ClassSectionRepository{db: db}
}

// FindByID returns a class; sql.ErrNoRows when missing.
func (r *ClassSectionRepository) FindByID(ctx context.Context, id string) (*models.ClassSection, error) {
	var class models.ClassSection
	if err := r.db.GetContext(ctx, &class, `SELECT id, grade, section, name FROM class_sections WHERE id = $1`, id); err != nil {
		return nil, err
	}
	return &class, nil
}

// DirectoryRepository resolves display names of teachers, subjects and classes.
type DirectoryRepository struct {
	db *sqlx.DB
}

// NewDirectoryRepository builds repository.
func NewDirectoryRepository(db *sqlx.DB) *DirectoryRepository {
	return &DirectoryRepository{db: db}
}

type namedRow struct {
	ID   string `db:"id"`
	Name string `db:"name"`
}

// TeacherNames maps teacher ids to names. Unknown ids are absent from the result.
func (r *DirectoryRepository) TeacherNames(ctx context.Context, ids []string) (map[string]string, error) {
	return r.names(ctx, "teachers", ids)
}

// SubjectNames maps subject ids to names.
func (r *DirectoryRepository) SubjectNames(ctx context.Context, ids []string) (map[string]string, error) {
	return r.names(ctx, "subjects", ids)
}

// ClassNames maps class section ids to names.
func (r *DirectoryRepository) ClassNames(ctx context.Context, ids []string) (map[string]string, error) {
	return r.names(ctx, "class_sections", ids)
}

func (r *DirectoryRepository) names(ctx context.Context, table string, ids []string) (map[string]string, error) {
	result := make(map[string]string, len(ids))
	if len(ids) == 0 {
		return result, nil
	}
	query, args, err := sqlx.In(fmt.Sprintf(`SELECT id, name FROM %s WHERE id IN (?)`, table), ids)
	if err != nil {
		return nil, fmt.Errorf("build %s name query: %w", table, err)
	}
	var rows []namedRow
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("load %s names: %w", table, err)
	}
	for _, row := range rows {
		result[row.ID] = row.Name
	}
	return result, nil
}
