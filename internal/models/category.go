package models

import "time"

// ScoringCategory defines a weighted bucket of gradable work within a course,
// e.g. Homework (30) or Exams (70). Weights are static percentages; the sum of
// all category weights for one course may not exceed 100 at creation time.
type ScoringCategory struct {
	ID        string    `db:"id" json:"id"`
	CourseID  string    `db:"course_id" json:"course_id"`
	Name      string    `db:"name" json:"name"`
	Weight    float64   `db:"weight" json:"weight"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// CategoryFilter scopes category queries.
type CategoryFilter struct {
	CourseID string
}
