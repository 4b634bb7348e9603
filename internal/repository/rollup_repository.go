package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/lms-grade-api/internal/models"
	appErrors "github.com/noah-isme/lms-grade-api/pkg/errors"
)

// RollupRepository persists rollup documents: one jsonb row per
// (student, course) pair with a version column for optimistic concurrency.
// Two grade events racing on the same document must not silently drop each
// other's snapshots, so every save is conditional on the version the caller
// read.
type RollupRepository struct {
	db *sqlx.DB
}

// NewRollupRepository creates a new rollup repository.
func NewRollupRepository(db *sqlx.DB) *RollupRepository {
	return &RollupRepository{db: db}
}

// Find loads the rollup document for a student+course. Returns sql.ErrNoRows
// when no rollup exists yet.
func (r *RollupRepository) Find(ctx context.Context, studentID, courseID string) (*models.CourseRollup, error) {
	const query = `SELECT document, version FROM rollup_documents WHERE student_id = $1 AND course_id = $2`
	var row struct {
		Document []byte `db:"document"`
		Version  int64  `db:"version"`
	}
	if err := r.db.GetContext(ctx, &row, query, studentID, courseID); err != nil {
		return nil, err
	}
	var rollup models.CourseRollup
	if err := json.Unmarshal(row.Document, &rollup); err != nil {
		return nil, fmt.Errorf("unmarshal rollup %s/%s: %w", studentID, courseID, err)
	}
	rollup.Version = row.Version
	return &rollup, nil
}

// Save writes the whole document. A rollup with version 0 is inserted; an
// existing one is updated only if the stored version still matches the one
// the caller loaded. Either contention case returns ErrVersionConflict and
// the caller re-fetches and re-applies.
func (r *RollupRepository) Save(ctx context.Context, rollup *models.CourseRollup) error {
	expected := rollup.Version
	rollup.Version = expected + 1
	rollup.UpdatedAt = time.Now().UTC()
	raw, err := json.Marshal(rollup)
	if err != nil {
		rollup.Version = expected
		return fmt.Errorf("marshal rollup %s/%s: %w", rollup.StudentID, rollup.CourseID, err)
	}

	var result sql.Result
	if expected == 0 {
		const insert = `INSERT INTO rollup_documents (student_id, course_id, document, version, updated_at)
            VALUES ($1, $2, $3, $4, $5)
            ON CONFLICT (student_id, course_id) DO NOTHING`
		result, err = r.db.ExecContext(ctx, insert, rollup.StudentID, rollup.CourseID, raw, rollup.Version, rollup.UpdatedAt)
	} else {
		const update = `UPDATE rollup_documents SET document = $3, version = $4, updated_at = $5
            WHERE student_id = $1 AND course_id = $2 AND version = $6`
		result, err = r.db.ExecContext(ctx, update, rollup.StudentID, rollup.CourseID, raw, rollup.Version, rollup.UpdatedAt, expected)
	}
	if err != nil {
		rollup.Version = expected
		return fmt.Errorf("save rollup %s/%s: %w", rollup.StudentID, rollup.CourseID, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		rollup.Version = expected
		return fmt.Errorf("save rollup %s/%s: %w", rollup.StudentID, rollup.CourseID, err)
	}
	if affected == 0 {
		rollup.Version = expected
		return appErrors.ErrVersionConflict
	}
	return nil
}
