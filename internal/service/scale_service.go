package service

import (
	"context"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/lms-grade-api/internal/models"
	appErrors "github.com/noah-isme/lms-grade-api/pkg/errors"
)

type scaleRepository interface {
	scaleReader
	SaveGradeScale(ctx context.Context, scale models.GradeScale) error
	SaveGPAScale(ctx context.Context, scale models.GPAScale) error
}

// ScaleService manages the deployment-wide grade and GPA scale documents.
// Bands are checked for internal consistency (min <= max) only; overlaps and
// gaps are allowed and resolved first-match-wins at lookup time.
type ScaleService struct {
	repo      scaleRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewScaleService constructs ScaleService.
func NewScaleService(repo scaleRepository, validate *validator.Validate, logger *zap.Logger) *ScaleService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ScaleService{repo: repo, validator: validate, logger: logger}
}

// GradeScale returns the configured letter-grade table, empty if unset.
func (s *ScaleService) GradeScale(ctx context.Context) (models.GradeScale, error) {
	scale, err := s.repo.FindGradeScale(ctx)
	if err != nil {
		return models.GradeScale{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load grade scale")
	}
	return scale, nil
}

// GPAScale returns the configured GPA table, empty if unset.
func (s *ScaleService) GPAScale(ctx context.Context) (models.GPAScale, error) {
	scale, err := s.repo.FindGPAScale(ctx)
	if err != nil {
		return models.GPAScale{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load gpa scale")
	}
	return scale, nil
}

// ReplaceGradeScale swaps the letter-grade table.
func (s *ScaleService) ReplaceGradeScale(ctx context.Context, scale models.GradeScale) error {
	for _, band := range scale.Bands {
		if band.Min > band.Max {
			return appErrors.Clone(appErrors.ErrValidation, "grade band min exceeds max")
		}
		if band.Letter == "" {
			return appErrors.Clone(appErrors.ErrValidation, "grade band letter required")
		}
	}
	if err := s.repo.SaveGradeScale(ctx, scale); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save grade scale")
	}
	return nil
}

// ReplaceGPAScale swaps the GPA table.
func (s *ScaleService) ReplaceGPAScale(ctx context.Context, scale models.GPAScale) error {
	for _, band := range scale.Bands {
		if band.MinPercentage > band.MaxPercentage {
			return appErrors.Clone(appErrors.ErrValidation, "gpa band min exceeds max")
		}
	}
	if err := s.repo.SaveGPAScale(ctx, scale); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save gpa scale")
	}
	return nil
}
