package models

import "time"

// Semester is a display record for a semester time bucket.
type Semester struct {
	ID        string    `db:"id" json:"id"`
	Title     string    `db:"title" json:"title"`
	StartDate time.Time `db:"start_date" json:"start_date"`
	EndDate   time.Time `db:"end_date" json:"end_date"`
}

// GradingPeriod is a display record for a quarter within a semester.
type GradingPeriod struct {
	ID         string    `db:"id" json:"id"`
	SemesterID string    `db:"semester_id" json:"semester_id"`
	Title      string    `db:"title" json:"title"`
	StartDate  time.Time `db:"start_date" json:"start_date"`
	EndDate    time.Time `db:"end_date" json:"end_date"`
}

// Fallback titles used when a referenced term record cannot be resolved.
const (
	UnknownSemesterTitle = "Unknown Semester"
	UnknownQuarterTitle  = "Unknown Quarter"
)
