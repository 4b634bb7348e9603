package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/lms-grade-api/internal/models"
)

// ItemRepository reads gradable items (published assessments and graded
// discussions). Items are owned by the course/lesson modules; the engine only
// needs lookups.
type ItemRepository struct {
	db *sqlx.DB
}

// NewItemRepository creates a new item repository.
func NewItemRepository(db *sqlx.DB) *ItemRepository {
	return &ItemRepository{db: db}
}

// FindByID returns a gradable item.
func (r *ItemRepository) FindByID(ctx context.Context, id string) (*models.GradableItem, error) {
	const query = `SELECT id, course_id, lesson_id, semester_id, period_id, category_id, item_type, title, max_points, created_at, updated_at
        FROM gradable_items WHERE id = $1`
	var item models.GradableItem
	if err := r.db.GetContext(ctx, &item, query, id); err != nil {
		return nil, err
	}
	return &item, nil
}

// Exists reports whether the item is still present; used by the prune
// operation to detect snapshots whose source item was deleted.
func (r *ItemRepository) Exists(ctx context.Context, id string) (bool, error) {
	var exists bool
	if err := r.db.GetContext(ctx, &exists, "SELECT EXISTS (SELECT 1 FROM gradable_items WHERE id = $1)", id); err != nil {
		return false, err
	}
	return exists, nil
}
