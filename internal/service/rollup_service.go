package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/lms-grade-api/internal/grading"
	"github.com/noah-isme/lms-grade-api/internal/models"
	appErrors "github.com/noah-isme/lms-grade-api/pkg/errors"
)

type itemReader interface {
	FindByID(ctx context.Context, id string) (*models.GradableItem, error)
	Exists(ctx context.Context, id string) (bool, error)
}

type recordReader interface {
	FindByStudentAndItem(ctx context.Context, studentID, itemID string) (*models.GradeRecord, error)
}

type categoryReader interface {
	List(ctx context.Context, filter models.CategoryFilter) ([]models.ScoringCategory, error)
}

type scaleReader interface {
	FindGradeScale(ctx context.Context) (models.GradeScale, error)
	FindGPAScale(ctx context.Context) (models.GPAScale, error)
}

type termReader interface {
	SemesterTitle(ctx context.Context, id string) (string, error)
	PeriodTitle(ctx context.Context, id string) (string, error)
}

type rollupStore interface {
	Find(ctx context.Context, studentID, courseID string) (*models.CourseRollup, error)
	Save(ctx context.Context, rollup *models.CourseRollup) error
}

// ApplyGradeRequest identifies one newly graded work item.
type ApplyGradeRequest struct {
	StudentID string `json:"student_id" validate:"required"`
	CourseID  string `json:"course_id" validate:"required"`
	ItemID    string `json:"item_id" validate:"required"`
}

// RollupService is the incremental updater: it maintains the persisted rollup
// document for a student+course as individual grade events arrive, touching
// only the affected branch of the tree.
type RollupService struct {
	items      itemReader
	records    recordReader
	categories categoryReader
	scales     scaleReader
	terms      termReader
	store      rollupStore
	metrics    *MetricsService
	validator  *validator.Validate
	logger     *zap.Logger
	retries    int
}

// NewRollupService constructs RollupService. retries bounds the
// optimistic-concurrency loop; values below 1 fall back to 3.
func NewRollupService(items itemReader, records recordReader, categories categoryReader, scales scaleReader, terms termReader, store rollupStore, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger, retries int) *RollupService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if retries < 1 {
		retries = 3
	}
	return &RollupService{
		items:      items,
		records:    records,
		categories: categories,
		scales:     scales,
		terms:      terms,
		store:      store,
		metrics:    metrics,
		validator:  validate,
		logger:     logger,
		retries:    retries,
	}
}

// Get returns the persisted rollup for a student+course.
func (s *RollupService) Get(ctx context.Context, studentID, courseID string) (*models.CourseRollup, error) {
	rollup, err := s.store.Find(ctx, studentID, courseID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "rollup not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load rollup")
	}
	return rollup, nil
}

// ApplyGrade upserts one graded item into the rollup and recomputes the
// touched branch. Missing item metadata, a missing grade record or ungraded
// work all skip silently: grading commonly happens before all metadata is
// attached, and the item will be re-applied when it is graded in place.
// Replaying the same grade is idempotent.
func (s *RollupService) ApplyGrade(ctx context.Context, req ApplyGradeRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid grade event payload")
	}

	item, err := s.items.FindByID(ctx, req.ItemID)
	if err != nil {
		if err == sql.ErrNoRows {
			return s.skip(req, "item not found")
		}
		return s.fail(err, "failed to load gradable item")
	}
	if item.CourseID != req.CourseID {
		return appErrors.Clone(appErrors.ErrValidation, "item does not belong to course")
	}
	if !item.Placeable() {
		return s.skip(req, "item missing semester or period reference")
	}

	record, err := s.records.FindByStudentAndItem(ctx, req.StudentID, req.ItemID)
	if err != nil {
		if err == sql.ErrNoRows {
			return s.skip(req, "no grade record")
		}
		return s.fail(err, "failed to load grade record")
	}
	if !record.IsGraded {
		return s.skip(req, "record not graded yet")
	}

	categories, err := s.categories.List(ctx, models.CategoryFilter{CourseID: req.CourseID})
	if err != nil {
		return s.fail(err, "failed to list categories")
	}
	scale, gpaScale, err := s.loadScales(ctx)
	if err != nil {
		return s.fail(err, "failed to load scales")
	}

	snapshot := models.ItemSnapshot{
		ItemID:        item.ID,
		ItemType:      item.Type,
		CategoryID:    item.CategoryID,
		StudentPoints: record.StudentPoints,
		MaxPoints:     item.MaxPoints,
	}

	for attempt := 0; attempt < s.retries; attempt++ {
		rollup, err := s.loadOrInit(ctx, req.StudentID, req.CourseID)
		if err != nil {
			return s.fail(err, "failed to load rollup")
		}

		semester, period, err := s.locateBranch(ctx, rollup, *item.SemesterID, *item.PeriodID)
		if err != nil {
			return s.fail(err, "failed to resolve term titles")
		}

		grading.UpsertSnapshot(period, snapshot)
		grading.RecomputePeriod(period, categories, scale, gpaScale)
		grading.RecomputeSemester(semester, scale)
		grading.RecomputeCourse(rollup, scale, gpaScale)

		if err := s.store.Save(ctx, rollup); err != nil {
			if errors.Is(err, appErrors.ErrVersionConflict) {
				s.metrics.RecordVersionConflict()
				s.logger.Debug("rollup save conflict, retrying",
					zap.String("student_id", req.StudentID),
					zap.String("course_id", req.CourseID),
					zap.Int("attempt", attempt+1))
				continue
			}
			return s.fail(err, "failed to save rollup")
		}
		s.metrics.RecordRollupUpdate(RollupOutcomeApplied)
		return nil
	}

	s.metrics.RecordRollupUpdate(RollupOutcomeConflict)
	return appErrors.Clone(appErrors.ErrVersionConflict, "rollup update retries exhausted")
}

// Prune drops snapshots whose source item no longer exists, removes periods
// and semesters left empty, and recomputes the whole tree. Rollups otherwise
// grow monotonically; pruning only happens through this explicit operation.
func (s *RollupService) Prune(ctx context.Context, studentID, courseID string) (*models.CourseRollup, error) {
	categories, err := s.categories.List(ctx, models.CategoryFilter{CourseID: courseID})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list categories")
	}
	scale, gpaScale, err := s.loadScales(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load scales")
	}

	for attempt := 0; attempt < s.retries; attempt++ {
		rollup, err := s.store.Find(ctx, studentID, courseID)
		if err != nil {
			if err == sql.ErrNoRows {
				return nil, appErrors.Clone(appErrors.ErrNotFound, "rollup not found")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load rollup")
		}

		if err := s.dropDeletedItems(ctx, rollup); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to verify items")
		}
		grading.RecomputeTree(rollup, categories, scale, gpaScale)

		if err := s.store.Save(ctx, rollup); err != nil {
			if errors.Is(err, appErrors.ErrVersionConflict) {
				s.metrics.RecordVersionConflict()
				continue
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save rollup")
		}
		return rollup, nil
	}
	return nil, appErrors.Clone(appErrors.ErrVersionConflict, "rollup prune retries exhausted")
}

func (s *RollupService) loadOrInit(ctx context.Context, studentID, courseID string) (*models.CourseRollup, error) {
	rollup, err := s.store.Find(ctx, studentID, courseID)
	if err != nil {
		if err == sql.ErrNoRows {
			return &models.CourseRollup{StudentID: studentID, CourseID: courseID}, nil
		}
		return nil, err
	}
	return rollup, nil
}

func (s *RollupService) locateBranch(ctx context.Context, rollup *models.CourseRollup, semesterID, periodID string) (*models.SemesterNode, *models.PeriodNode, error) {
	semester := rollup.Semester(semesterID)
	if semester == nil {
		title, err := s.terms.SemesterTitle(ctx, semesterID)
		if err != nil {
			return nil, nil, err
		}
		rollup.Semesters = append(rollup.Semesters, models.SemesterNode{SemesterID: semesterID, Title: title})
		semester = &rollup.Semesters[len(rollup.Semesters)-1]
	}
	period := semester.Quarter(periodID)
	if period == nil {
		title, err := s.terms.PeriodTitle(ctx, periodID)
		if err != nil {
			return nil, nil, err
		}
		semester.Quarters = append(semester.Quarters, models.PeriodNode{PeriodID: periodID, Title: title})
		period = &semester.Quarters[len(semester.Quarters)-1]
	}
	return semester, period, nil
}

func (s *RollupService) loadScales(ctx context.Context) (models.GradeScale, models.GPAScale, error) {
	scale, err := s.scales.FindGradeScale(ctx)
	if err != nil {
		return models.GradeScale{}, models.GPAScale{}, err
	}
	gpaScale, err := s.scales.FindGPAScale(ctx)
	if err != nil {
		return models.GradeScale{}, models.GPAScale{}, err
	}
	return scale, gpaScale, nil
}

func (s *RollupService) dropDeletedItems(ctx context.Context, rollup *models.CourseRollup) error {
	semesters := rollup.Semesters[:0]
	for _, semester := range rollup.Semesters {
		quarters := semester.Quarters[:0]
		for _, quarter := range semester.Quarters {
			items := quarter.Items[:0]
			for _, snap := range quarter.Items {
				exists, err := s.items.Exists(ctx, snap.ItemID)
				if err != nil {
					return err
				}
				if exists {
					items = append(items, snap)
				}
			}
			quarter.Items = items
			if len(quarter.Items) > 0 {
				quarters = append(quarters, quarter)
			}
		}
		semester.Quarters = quarters
		if len(semester.Quarters) > 0 {
			semesters = append(semesters, semester)
		}
	}
	rollup.Semesters = semesters
	return nil
}

func (s *RollupService) skip(req ApplyGradeRequest, reason string) error {
	s.metrics.RecordRollupUpdate(RollupOutcomeSkipped)
	s.logger.Debug("rollup update skipped",
		zap.String("student_id", req.StudentID),
		zap.String("course_id", req.CourseID),
		zap.String("item_id", req.ItemID),
		zap.String("reason", reason))
	return nil
}

func (s *RollupService) fail(err error, message string) error {
	s.metrics.RecordRollupUpdate(RollupOutcomeError)
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, message)
}
