package models

import "time"

// ItemType distinguishes the two kinds of gradable work.
type ItemType string

const (
	// ItemTypeAssessment covers published assessments (quizzes, exams).
	ItemTypeAssessment ItemType = "ASSESSMENT"
	// ItemTypeDiscussion covers graded discussion posts.
	ItemTypeDiscussion ItemType = "DISCUSSION"
)

// GradableItem is one scorable unit of work. Semester and period references
// are nullable: grading commonly happens before all metadata is attached, and
// an item without them cannot be placed in a rollup tree.
type GradableItem struct {
	ID         string    `db:"id" json:"id"`
	CourseID   string    `db:"course_id" json:"course_id"`
	LessonID   *string   `db:"lesson_id" json:"lesson_id,omitempty"`
	SemesterID *string   `db:"semester_id" json:"semester_id,omitempty"`
	PeriodID   *string   `db:"period_id" json:"period_id,omitempty"`
	CategoryID string    `db:"category_id" json:"category_id"`
	Type       ItemType  `db:"item_type" json:"item_type"`
	Title      string    `db:"title" json:"title"`
	MaxPoints  float64   `db:"max_points" json:"max_points"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

// Placeable reports whether the item carries the term references required to
// locate it in a rollup tree.
func (i *GradableItem) Placeable() bool {
	return i.SemesterID != nil && *i.SemesterID != "" && i.PeriodID != nil && *i.PeriodID != ""
}
