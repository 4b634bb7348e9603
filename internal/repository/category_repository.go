package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/lms-grade-api/internal/models"
)

// CategoryRepository handles scoring category persistence.
type CategoryRepository struct {
	db *sqlx.DB
}

// NewCategoryRepository creates a new category repository.
func NewCategoryRepository(db *sqlx.DB) *CategoryRepository {
	return &CategoryRepository{db: db}
}

// List returns categories matching the filter.
func (r *CategoryRepository) List(ctx context.Context, filter models.CategoryFilter) ([]models.ScoringCategory, error) {
	query := `SELECT id, course_id, name, weight, created_at, updated_at FROM scoring_categories WHERE 1=1`
	var args []interface{}
	if filter.CourseID != "" {
		query += fmt.Sprintf(" AND course_id = $%d", len(args)+1)
		args = append(args, filter.CourseID)
	}
	query += " ORDER BY created_at ASC"
	var categories []models.ScoringCategory
	if err := r.db.SelectContext(ctx, &categories, query, args...); err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return categories, nil
}

// FindByID returns a single category.
func (r *CategoryRepository) FindByID(ctx context.Context, id string) (*models.ScoringCategory, error) {
	const query = `SELECT id, course_id, name, weight, created_at, updated_at FROM scoring_categories WHERE id = $1`
	var category models.ScoringCategory
	if err := r.db.GetContext(ctx, &category, query, id); err != nil {
		return nil, err
	}
	return &category, nil
}

// Create inserts a new category.
func (r *CategoryRepository) Create(ctx context.Context, category *models.ScoringCategory) error {
	if category.ID == "" {
		category.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	category.CreatedAt = now
	category.UpdatedAt = now
	const query = `INSERT INTO scoring_categories (id, course_id, name, weight, created_at, updated_at)
        VALUES (:id, :course_id, :name, :weight, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, category); err != nil {
		return fmt.Errorf("create category: %w", err)
	}
	return nil
}

// Update modifies name and weight of an existing category.
func (r *CategoryRepository) Update(ctx context.Context, category *models.ScoringCategory) error {
	category.UpdatedAt = time.Now().UTC()
	const query = `UPDATE scoring_categories SET name = :name, weight = :weight, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, category); err != nil {
		return fmt.Errorf("update category: %w", err)
	}
	return nil
}

// Delete removes a category.
func (r *CategoryRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM scoring_categories WHERE id = $1", id); err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	return nil
}
