package models

import "time"

// GradeRecord is the scored outcome of one student's work on one gradable
// item: a graded submission for assessments, a marked comment for discussions.
// Only records with IsGraded true participate in aggregation; ungraded work is
// invisible to the engine, never treated as zero.
type GradeRecord struct {
	ID            string    `db:"id" json:"id"`
	StudentID     string    `db:"student_id" json:"student_id"`
	ItemID        string    `db:"item_id" json:"item_id"`
	StudentPoints float64   `db:"student_points" json:"student_points"`
	IsGraded      bool      `db:"is_graded" json:"is_graded"`
	GradedAt      *time.Time `db:"graded_at" json:"graded_at,omitempty"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

// GradedItemSource is one joined row of graded work used by the batch report
// builder: record ⨝ item ⨝ term titles. Rows whose item lacks semester or
// period references are excluded at query time.
type GradedItemSource struct {
	StudentID     string   `db:"student_id" json:"student_id"`
	CourseID      string   `db:"course_id" json:"course_id"`
	ItemID        string   `db:"item_id" json:"item_id"`
	ItemType      ItemType `db:"item_type" json:"item_type"`
	CategoryID    string   `db:"category_id" json:"category_id"`
	SemesterID    string   `db:"semester_id" json:"semester_id"`
	SemesterTitle string   `db:"semester_title" json:"semester_title"`
	PeriodID      string   `db:"period_id" json:"period_id"`
	PeriodTitle   string   `db:"period_title" json:"period_title"`
	StudentPoints float64  `db:"student_points" json:"student_points"`
	MaxPoints     float64  `db:"max_points" json:"max_points"`
}
