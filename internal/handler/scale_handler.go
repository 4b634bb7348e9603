package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/lms-grade-api/internal/models"
	"github.com/noah-isme/lms-grade-api/internal/service"
	appErrors "github.com/noah-isme/lms-grade-api/pkg/errors"
	"github.com/noah-isme/lms-grade-api/pkg/response"
)

// ScaleHandler exposes the global scale configuration admin API.
type ScaleHandler struct {
	scales *service.ScaleService
}

// NewScaleHandler constructs handler.
func NewScaleHandler(scales *service.ScaleService) *ScaleHandler {
	return &ScaleHandler{scales: scales}
}

// GetGradeScale godoc
// @Summary Get the letter-grade scale
// @Tags Scales
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /scales/grade [get]
func (h *ScaleHandler) GetGradeScale(c *gin.Context) {
	scale, err := h.scales.GradeScale(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, scale, nil)
}

// PutGradeScale godoc
// @Summary Replace the letter-grade scale
// @Tags Scales
// @Accept json
// @Produce json
// @Param payload body models.GradeScale true "Scale payload"
// @Success 200 {object} response.Envelope
// @Router /scales/grade [put]
func (h *ScaleHandler) PutGradeScale(c *gin.Context) {
	var scale models.GradeScale
	if err := c.ShouldBindJSON(&scale); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	if err := h.scales.ReplaceGradeScale(c.Request.Context(), scale); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, scale, nil)
}

// GetGPAScale godoc
// @Summary Get the GPA scale
// @Tags Scales
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /scales/gpa [get]
func (h *ScaleHandler) GetGPAScale(c *gin.Context) {
	scale, err := h.scales.GPAScale(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, scale, nil)
}

// PutGPAScale godoc
// @Summary Replace the GPA scale
// @Tags Scales
// @Accept json
// @Produce json
// @Param payload body models.GPAScale true "Scale payload"
// @Success 200 {object} response.Envelope
// @Router /scales/gpa [put]
func (h *ScaleHandler) PutGPAScale(c *gin.Context) {
	var scale models.GPAScale
	if err := c.ShouldBindJSON(&scale); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	if err := h.scales.ReplaceGPAScale(c.Request.Context(), scale); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, scale, nil)
}
