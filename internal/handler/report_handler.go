package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/lms-grade-api/internal/dto"
	"github.com/noah-isme/lms-grade-api/internal/models"
	"github.com/noah-isme/lms-grade-api/internal/service"
	"github.com/noah-isme/lms-grade-api/pkg/response"
)

// ReportHandler exposes batch gradebook reports.
type ReportHandler struct {
	reports *service.ReportService
}

// NewReportHandler constructs handler.
func NewReportHandler(reports *service.ReportService) *ReportHandler {
	return &ReportHandler{reports: reports}
}

// Gradebook godoc
// @Summary Paginated gradebook report for a course
// @Description Recomputes rollups from graded sources; the persisted rollup documents are bypassed.
// @Tags Reports
// @Produce json
// @Param courseId query string true "Course ID"
// @Param page query int false "Page"
// @Param pageSize query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /reports/gradebook [get]
func (h *ReportHandler) Gradebook(c *gin.Context) {
	req := dto.GradebookRequest{
		CourseID: c.Query("courseId"),
		Page:     intQuery(c, "page", 1),
		PageSize: intQuery(c, "pageSize", 0),
	}
	report, err := h.reports.Gradebook(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	pagination := &models.Pagination{Page: report.Page, PageSize: len(report.Rollups), TotalCount: report.TotalCourses}
	response.JSON(c, http.StatusOK, report, pagination)
}

// StudentCourse godoc
// @Summary Freshly derived rollup for one student in one course
// @Tags Reports
// @Produce json
// @Param studentId path string true "Student ID"
// @Param courseId path string true "Course ID"
// @Success 200 {object} response.Envelope
// @Router /reports/students/{studentId}/courses/{courseId} [get]
func (h *ReportHandler) StudentCourse(c *gin.Context) {
	rollup, err := h.reports.BuildStudentRollup(c.Request.Context(), c.Param("studentId"), c.Param("courseId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rollup, nil)
}

// Export godoc
// @Summary Export the course gradebook
// @Tags Reports
// @Produce text/csv,application/pdf
// @Param courseId query string true "Course ID"
// @Param format query string false "csv or pdf" default(csv)
// @Success 200 {file} byte
// @Router /reports/gradebook/export [get]
func (h *ReportHandler) Export(c *gin.Context) {
	payload, filename, err := h.reports.ExportGradebook(c.Request.Context(), c.Query("courseId"), c.DefaultQuery("format", "csv"))
	if err != nil {
		response.Error(c, err)
		return
	}
	contentType := "text/csv"
	if c.Query("format") == "pdf" {
		contentType = "application/pdf"
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, contentType, payload)
}
