package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/lms-grade-api/internal/models"
)

// RecordRepository reads grade records: the scored outcomes of student work.
type RecordRepository struct {
	db *sqlx.DB
}

// NewRecordRepository creates a new record repository.
func NewRecordRepository(db *sqlx.DB) *RecordRepository {
	return &RecordRepository{db: db}
}

// FindByStudentAndItem returns the record for one student on one item.
func (r *RecordRepository) FindByStudentAndItem(ctx context.Context, studentID, itemID string) (*models.GradeRecord, error) {
	const query = `SELECT id, student_id, item_id, student_points, is_graded, graded_at, created_at, updated_at
        FROM grade_records WHERE student_id = $1 AND item_id = $2`
	var record models.GradeRecord
	if err := r.db.GetContext(ctx, &record, query, studentID, itemID); err != nil {
		return nil, err
	}
	return &record, nil
}

// ListGradedSources returns the joined graded rows the batch report builder
// aggregates from: records joined to items and term titles, graded work only,
// items without semester or period references excluded.
func (r *RecordRepository) ListGradedSources(ctx context.Context, courseID string, studentIDs []string) ([]models.GradedItemSource, error) {
	query := `SELECT gr.student_id, gi.course_id, gi.id AS item_id, gi.item_type, gi.category_id,
            gi.semester_id, COALESCE(s.title, '') AS semester_title,
            gi.period_id, COALESCE(gp.title, '') AS period_title,
            gr.student_points, gi.max_points
        FROM grade_records gr
        JOIN gradable_items gi ON gi.id = gr.item_id
        LEFT JOIN semesters s ON s.id = gi.semester_id
        LEFT JOIN grading_periods gp ON gp.id = gi.period_id
        WHERE gr.is_graded = TRUE
          AND gi.semester_id IS NOT NULL
          AND gi.period_id IS NOT NULL
          AND gi.course_id = $1`
	args := []interface{}{courseID}
	if len(studentIDs) > 0 {
		query += fmt.Sprintf(" AND gr.student_id = ANY($%d)", len(args)+1)
		args = append(args, pq.Array(studentIDs))
	}
	query += " ORDER BY gr.student_id, gi.semester_id, gi.period_id, gi.id"
	var sources []models.GradedItemSource
	if err := r.db.SelectContext(ctx, &sources, query, args...); err != nil {
		return nil, fmt.Errorf("list graded sources: %w", err)
	}
	return sources, nil
}

// ListStudentsWithGrades returns the distinct students holding graded work in
// a course, ordered for stable pagination.
func (r *RecordRepository) ListStudentsWithGrades(ctx context.Context, courseID string) ([]string, error) {
	const query = `SELECT DISTINCT gr.student_id
        FROM grade_records gr
        JOIN gradable_items gi ON gi.id = gr.item_id
        WHERE gr.is_graded = TRUE AND gi.course_id = $1
        ORDER BY gr.student_id`
	var studentIDs []string
	if err := r.db.SelectContext(ctx, &studentIDs, query, courseID); err != nil {
		return nil, fmt.Errorf("list students with grades: %w", err)
	}
	return studentIDs, nil
}
