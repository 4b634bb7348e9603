package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/lms-grade-api/internal/service"
	appErrors "github.com/noah-isme/lms-grade-api/pkg/errors"
	"github.com/noah-isme/lms-grade-api/pkg/response"
)

// RollupHandler exposes the persisted rollup documents and the grade-event
// ingestion endpoint.
type RollupHandler struct {
	rollups *service.RollupService
	logger  *zap.Logger
}

// NewRollupHandler constructs handler.
func NewRollupHandler(rollups *service.RollupService, logger *zap.Logger) *RollupHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RollupHandler{rollups: rollups, logger: logger}
}

// Get godoc
// @Summary Get a student's course rollup
// @Tags Rollups
// @Produce json
// @Param studentId path string true "Student ID"
// @Param courseId path string true "Course ID"
// @Success 200 {object} response.Envelope
// @Router /students/{studentId}/courses/{courseId}/rollup [get]
func (h *RollupHandler) Get(c *gin.Context) {
	rollup, err := h.rollups.Get(c.Request.Context(), c.Param("studentId"), c.Param("courseId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rollup, nil)
}

// ApplyGrade godoc
// @Summary Apply a grade event to the rollup
// @Description Upserts one graded item into the student's rollup and recomputes the affected branch. The grading action is acknowledged even when rollup maintenance fails; staleness is the degraded mode, not an error surfaced to the grader.
// @Tags Rollups
// @Accept json
// @Produce json
// @Param payload body service.ApplyGradeRequest true "Grade event"
// @Success 202 {object} response.Envelope
// @Router /grade-events [post]
func (h *RollupHandler) ApplyGrade(c *gin.Context) {
	var req service.ApplyGradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	if err := h.rollups.ApplyGrade(c.Request.Context(), req); err != nil {
		appErr := appErrors.FromError(err)
		if appErr.Code == appErrors.ErrValidation.Code {
			response.Error(c, err)
			return
		}
		// Internal rollup maintenance failures never bounce the grading
		// action; the rollup stays stale until the next event.
		h.logger.Warn("rollup update failed",
			zap.String("student_id", req.StudentID),
			zap.String("course_id", req.CourseID),
			zap.String("item_id", req.ItemID),
			zap.Error(err))
	}
	response.JSON(c, http.StatusAccepted, gin.H{"status": "accepted"}, nil)
}

// Prune godoc
// @Summary Prune deleted items from a rollup
// @Description Removes snapshots whose source item no longer exists, drops empty periods and semesters, and recomputes the tree. Pruning never happens implicitly.
// @Tags Rollups
// @Produce json
// @Param studentId path string true "Student ID"
// @Param courseId path string true "Course ID"
// @Success 200 {object} response.Envelope
// @Router /students/{studentId}/courses/{courseId}/rollup/prune [post]
func (h *RollupHandler) Prune(c *gin.Context) {
	rollup, err := h.rollups.Prune(c.Request.Context(), c.Param("studentId"), c.Param("courseId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rollup, nil)
}
