package service

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/lms-grade-api/internal/models"
	appErrors "github.com/noah-isme/lms-grade-api/pkg/errors"
)

type categoryRepository interface {
	List(ctx context.Context, filter models.CategoryFilter) ([]models.ScoringCategory, error)
	FindByID(ctx context.Context, id string) (*models.ScoringCategory, error)
	Create(ctx context.Context, category *models.ScoringCategory) error
	Update(ctx context.Context, category *models.ScoringCategory) error
	Delete(ctx context.Context, id string) error
}

// CreateCategoryRequest handles category creation payload.
type CreateCategoryRequest struct {
	CourseID string  `json:"course_id" validate:"required"`
	Name     string  `json:"name" validate:"required"`
	Weight   float64 `json:"weight" validate:"gte=0,lte=100"`
}

// UpdateCategoryRequest handles category update payload.
type UpdateCategoryRequest struct {
	Name   string  `json:"name" validate:"required"`
	Weight float64 `json:"weight" validate:"gte=0,lte=100"`
}

// CategoryService manages scoring categories for courses.
type CategoryService struct {
	repo      categoryRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewCategoryService constructs CategoryService.
func NewCategoryService(repo categoryRepository, validate *validator.Validate, logger *zap.Logger) *CategoryService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CategoryService{repo: repo, validator: validate, logger: logger}
}

// List returns the categories of a course.
func (s *CategoryService) List(ctx context.Context, courseID string) ([]models.ScoringCategory, error) {
	categories, err := s.repo.List(ctx, models.CategoryFilter{CourseID: courseID})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list categories")
	}
	return categories, nil
}

// Create inserts a new category. The combined weight of all categories in the
// course may not exceed 100.
func (s *CategoryService) Create(ctx context.Context, req CreateCategoryRequest) (*models.ScoringCategory, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid category payload")
	}
	if err := s.checkWeightBudget(ctx, req.CourseID, "", req.Weight); err != nil {
		return nil, err
	}
	category := &models.ScoringCategory{CourseID: req.CourseID, Name: req.Name, Weight: req.Weight}
	if err := s.repo.Create(ctx, category); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create category")
	}
	return category, nil
}

// Update modifies name and weight of an existing category, re-checking the
// course weight budget with the category's own prior weight excluded.
func (s *CategoryService) Update(ctx context.Context, id string, req UpdateCategoryRequest) (*models.ScoringCategory, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid category payload")
	}
	category, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "category not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load category")
	}
	if err := s.checkWeightBudget(ctx, category.CourseID, id, req.Weight); err != nil {
		return nil, err
	}
	category.Name = req.Name
	category.Weight = req.Weight
	if err := s.repo.Update(ctx, category); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update category")
	}
	return category, nil
}

// Delete removes a category. Existing rollup snapshots keep referencing the
// deleted category ID; its items simply stop activating any weight.
func (s *CategoryService) Delete(ctx context.Context, id string) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "category not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load category")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete category")
	}
	return nil
}

func (s *CategoryService) checkWeightBudget(ctx context.Context, courseID, excludeID string, weight float64) error {
	categories, err := s.repo.List(ctx, models.CategoryFilter{CourseID: courseID})
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate weights")
	}
	total := weight
	for _, cat := range categories {
		if cat.ID == excludeID {
			continue
		}
		total += cat.Weight
	}
	if total > 100.001 {
		return appErrors.Clone(appErrors.ErrInvalidWeights, fmt.Sprintf("course weights would total %.2f", total))
	}
	return nil
}
