package repository

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/lms-grade-api/internal/models"
)

// TermRepository resolves semester and grading period display titles.
type TermRepository struct {
	db *sqlx.DB
}

// NewTermRepository creates a new term repository.
func NewTermRepository(db *sqlx.DB) *TermRepository {
	return &TermRepository{db: db}
}

// SemesterTitle returns the display title for a semester, falling back to the
// unknown sentinel when the record is missing.
func (r *TermRepository) SemesterTitle(ctx context.Context, id string) (string, error) {
	var title string
	if err := r.db.GetContext(ctx, &title, "SELECT title FROM semesters WHERE id = $1", id); err != nil {
		if err == sql.ErrNoRows {
			return models.UnknownSemesterTitle, nil
		}
		return "", err
	}
	return title, nil
}

// PeriodTitle returns the display title for a grading period, falling back to
// the unknown sentinel when the record is missing.
func (r *TermRepository) PeriodTitle(ctx context.Context, id string) (string, error) {
	var title string
	if err := r.db.GetContext(ctx, &title, "SELECT title FROM grading_periods WHERE id = $1", id); err != nil {
		if err == sql.ErrNoRows {
			return models.UnknownQuarterTitle, nil
		}
		return "", err
	}
	return title, nil
}
