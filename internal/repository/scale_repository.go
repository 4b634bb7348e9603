package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/lms-grade-api/internal/models"
)

// Scale config documents are global singletons keyed by name.
const (
	gradeScaleKey = "grade_scale"
	gpaScaleKey   = "gpa_scale"
)

// ScaleRepository persists the deployment-wide grade and GPA scale documents.
type ScaleRepository struct {
	db *sqlx.DB
}

// NewScaleRepository creates a new scale repository.
func NewScaleRepository(db *sqlx.DB) *ScaleRepository {
	return &ScaleRepository{db: db}
}

// FindGradeScale loads the letter-grade table. A missing document yields an
// empty scale, never an error: the resolvers degrade to sentinels.
func (r *ScaleRepository) FindGradeScale(ctx context.Context) (models.GradeScale, error) {
	var scale models.GradeScale
	if err := r.findDocument(ctx, gradeScaleKey, &scale); err != nil {
		return models.GradeScale{}, err
	}
	return scale, nil
}

// FindGPAScale loads the GPA table, empty when unconfigured.
func (r *ScaleRepository) FindGPAScale(ctx context.Context) (models.GPAScale, error) {
	var scale models.GPAScale
	if err := r.findDocument(ctx, gpaScaleKey, &scale); err != nil {
		return models.GPAScale{}, err
	}
	return scale, nil
}

// SaveGradeScale replaces the letter-grade table.
func (r *ScaleRepository) SaveGradeScale(ctx context.Context, scale models.GradeScale) error {
	return r.saveDocument(ctx, gradeScaleKey, scale)
}

// SaveGPAScale replaces the GPA table.
func (r *ScaleRepository) SaveGPAScale(ctx context.Context, scale models.GPAScale) error {
	return r.saveDocument(ctx, gpaScaleKey, scale)
}

func (r *ScaleRepository) findDocument(ctx context.Context, key string, dest interface{}) error {
	var raw []byte
	if err := r.db.GetContext(ctx, &raw, "SELECT document FROM scale_configs WHERE name = $1", key); err != nil {
		if err == sql.ErrNoRows {
			return nil
		}
		return fmt.Errorf("find scale %s: %w", key, err)
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return fmt.Errorf("unmarshal scale %s: %w", key, err)
	}
	return nil
}

func (r *ScaleRepository) saveDocument(ctx context.Context, key string, doc interface{}) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal scale %s: %w", key, err)
	}
	const query = `INSERT INTO scale_configs (name, document, updated_at) VALUES ($1, $2, $3)
        ON CONFLICT (name) DO UPDATE SET document = EXCLUDED.document, updated_at = EXCLUDED.updated_at`
	if _, err := r.db.ExecContext(ctx, query, key, raw, time.Now().UTC()); err != nil {
		return fmt.Errorf("save scale %s: %w", key, err)
	}
	return nil
}
