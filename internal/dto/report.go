package dto

import "github.com/noah-isme/lms-grade-api/internal/models"

// GradebookRequest scopes a batch gradebook report build.
type GradebookRequest struct {
	CourseID string `form:"courseId" validate:"required"`
	Page     int    `form:"page"`
	PageSize int    `form:"pageSize"`
}

// GradebookReport is the paginated batch report: one freshly derived rollup
// per student+course, computed from graded sources rather than the persisted
// documents.
type GradebookReport struct {
	CourseID     string                `json:"course_id"`
	Rollups      []models.CourseRollup `json:"rollups"`
	Page         int                   `json:"page"`
	TotalPages   int                   `json:"total_pages"`
	TotalCourses int                   `json:"total_courses"`
}
