package models

import "time"

// ItemSnapshot is the per-item slice of a rollup: the points that one graded
// item contributed at the time it was last applied.
type ItemSnapshot struct {
	ItemID        string   `json:"item_id"`
	ItemType      ItemType `json:"item_type"`
	CategoryID    string   `json:"category_id"`
	StudentPoints float64  `json:"student_points"`
	MaxPoints     float64  `json:"max_points"`
}

// PeriodNode holds one grading period's snapshots and its computed aggregates.
type PeriodNode struct {
	PeriodID    string         `json:"period_id"`
	Title       string         `json:"title"`
	Items       []ItemSnapshot `json:"items"`
	Percentage  float64        `json:"percentage"`
	GPA         float64        `json:"gpa"`
	LetterGrade string         `json:"letter_grade"`
}

// SemesterNode groups grading periods. Its percentage is the unweighted mean
// of its periods' percentages.
type SemesterNode struct {
	SemesterID  string       `json:"semester_id"`
	Title       string       `json:"title"`
	Quarters    []PeriodNode `json:"quarters"`
	Percentage  float64      `json:"percentage"`
	LetterGrade string       `json:"letter_grade"`
}

// CourseRollup is the persisted grade tree for one student in one course.
// Version backs optimistic concurrency on save: concurrent grade events for
// the same student+course must not silently drop each other's snapshots.
type CourseRollup struct {
	StudentID        string         `json:"student_id"`
	CourseID         string         `json:"course_id"`
	Semesters        []SemesterNode `json:"semesters"`
	FinalPercentage  float64        `json:"final_percentage"`
	FinalGPA         float64        `json:"final_gpa"`
	FinalLetterGrade string         `json:"final_letter_grade"`
	Version          int64          `json:"version"`
	UpdatedAt        time.Time      `json:"updated_at"`
}

// Semester returns the node with the given ID, or nil.
func (r *CourseRollup) Semester(semesterID string) *SemesterNode {
	for i := range r.Semesters {
		if r.Semesters[i].SemesterID == semesterID {
			return &r.Semesters[i]
		}
	}
	return nil
}

// Quarter returns the period node with the given ID, or nil.
func (s *SemesterNode) Quarter(periodID string) *PeriodNode {
	for i := range s.Quarters {
		if s.Quarters[i].PeriodID == periodID {
			return &s.Quarters[i]
		}
	}
	return nil
}
