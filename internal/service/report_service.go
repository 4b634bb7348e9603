package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/lms-grade-api/internal/dto"
	"github.com/noah-isme/lms-grade-api/internal/grading"
	"github.com/noah-isme/lms-grade-api/internal/models"
	appErrors "github.com/noah-isme/lms-grade-api/pkg/errors"
	"github.com/noah-isme/lms-grade-api/pkg/export"
)

type reportSourceReader interface {
	ListGradedSources(ctx context.Context, courseID string, studentIDs []string) ([]models.GradedItemSource, error)
	ListStudentsWithGrades(ctx context.Context, courseID string) ([]string, error)
}

// ReportService is the batch report builder: it re-derives rollup trees
// straight from the graded-item sources for reporting views, bypassing the
// persisted rollup documents entirely. It aggregates through the same
// internal/grading primitives as the incremental updater so both paths
// produce identical numbers for identical inputs.
type ReportService struct {
	sources     reportSourceReader
	categories  categoryReader
	scales      scaleReader
	cache       *CacheService
	metrics     *MetricsService
	csv         *export.CSVExporter
	pdf         *export.PDFExporter
	validator   *validator.Validate
	logger      *zap.Logger
	pageSize    int
	maxPageSize int
}

// NewReportService constructs ReportService.
func NewReportService(sources reportSourceReader, categories categoryReader, scales scaleReader, cache *CacheService, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger, pageSize, maxPageSize int) *ReportService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if pageSize < 1 {
		pageSize = 20
	}
	if maxPageSize < pageSize {
		maxPageSize = 100
	}
	return &ReportService{
		sources:     sources,
		categories:  categories,
		scales:      scales,
		cache:       cache,
		metrics:     metrics,
		csv:         export.NewCSVExporter(),
		pdf:         export.NewPDFExporter(),
		validator:   validate,
		logger:      logger,
		pageSize:    pageSize,
		maxPageSize: maxPageSize,
	}
}

// Gradebook builds the paginated per-student report for a course. Pagination
// happens at the student level before any tree is built, so cost is bounded
// by the page, not the roster.
func (s *ReportService) Gradebook(ctx context.Context, req dto.GradebookRequest) (*dto.GradebookReport, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid gradebook request")
	}
	page, pageSize := s.normalizePage(req.Page, req.PageSize)

	cacheKey := fmt.Sprintf("reports:gradebook:%s:%d:%d", req.CourseID, page, pageSize)
	if s.cache.Enabled() {
		var cached dto.GradebookReport
		if hit, _ := s.cache.Get(ctx, cacheKey, &cached); hit {
			return &cached, nil
		}
	}

	start := time.Now()
	students, err := s.sources.ListStudentsWithGrades(ctx, req.CourseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list students")
	}

	totalCourses := len(students)
	totalPages := (totalCourses + pageSize - 1) / pageSize
	offset := (page - 1) * pageSize
	pageStudents := []string{}
	if offset < totalCourses {
		end := offset + pageSize
		if end > totalCourses {
			end = totalCourses
		}
		pageStudents = students[offset:end]
	}

	report := &dto.GradebookReport{
		CourseID:     req.CourseID,
		Rollups:      []models.CourseRollup{},
		Page:         page,
		TotalPages:   totalPages,
		TotalCourses: totalCourses,
	}
	if len(pageStudents) > 0 {
		rollups, err := s.buildForStudents(ctx, req.CourseID, pageStudents)
		if err != nil {
			return nil, err
		}
		report.Rollups = rollups
	}
	s.metrics.ObserveReportBuild(time.Since(start))

	if s.cache.Enabled() {
		_ = s.cache.Set(ctx, cacheKey, report, 0)
	}
	return report, nil
}

// BuildStudentRollup derives one student's course tree from graded sources.
// The result must match what the incremental updater persisted for the same
// inputs.
func (s *ReportService) BuildStudentRollup(ctx context.Context, studentID, courseID string) (*models.CourseRollup, error) {
	rollups, err := s.buildForStudents(ctx, courseID, []string{studentID})
	if err != nil {
		return nil, err
	}
	if len(rollups) == 0 {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "no graded work for student in course")
	}
	return &rollups[0], nil
}

// ExportGradebook renders the course's final rows as CSV or PDF.
func (s *ReportService) ExportGradebook(ctx context.Context, courseID, format string) ([]byte, string, error) {
	if courseID == "" {
		return nil, "", appErrors.Clone(appErrors.ErrValidation, "course required")
	}
	students, err := s.sources.ListStudentsWithGrades(ctx, courseID)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list students")
	}
	rollups, err := s.buildForStudents(ctx, courseID, students)
	if err != nil {
		return nil, "", err
	}

	data := export.Dataset{
		Headers: []string{"Student", "Percentage", "GPA", "Letter"},
		Rows:    make([]map[string]string, 0, len(rollups)),
	}
	for _, rollup := range rollups {
		data.Rows = append(data.Rows, map[string]string{
			"Student":    rollup.StudentID,
			"Percentage": strconv.FormatFloat(rollup.FinalPercentage, 'f', 2, 64),
			"GPA":        strconv.FormatFloat(rollup.FinalGPA, 'f', 2, 64),
			"Letter":     rollup.FinalLetterGrade,
		})
	}

	switch format {
	case "csv", "":
		payload, err := s.csv.Render(data)
		if err != nil {
			return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv")
		}
		return payload, fmt.Sprintf("gradebook-%s.csv", courseID), nil
	case "pdf":
		payload, err := s.pdf.Render(data, fmt.Sprintf("Gradebook %s", courseID))
		if err != nil {
			return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf")
		}
		return payload, fmt.Sprintf("gradebook-%s.pdf", courseID), nil
	default:
		return nil, "", appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %s", format))
	}
}

func (s *ReportService) buildForStudents(ctx context.Context, courseID string, studentIDs []string) ([]models.CourseRollup, error) {
	sources, err := s.sources.ListGradedSources(ctx, courseID, studentIDs)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load graded sources")
	}
	categories, err := s.categories.List(ctx, models.CategoryFilter{CourseID: courseID})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list categories")
	}
	scale, err := s.scales.FindGradeScale(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load grade scale")
	}
	gpaScale, err := s.scales.FindGPAScale(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load gpa scale")
	}

	byStudent := groupSourcesByStudent(sources)
	rollups := make([]models.CourseRollup, 0, len(studentIDs))
	for _, studentID := range studentIDs {
		studentSources, ok := byStudent[studentID]
		if !ok {
			continue
		}
		rollup := buildTree(studentID, courseID, studentSources)
		grading.RecomputeTree(rollup, categories, scale, gpaScale)
		rollups = append(rollups, *rollup)
	}
	return rollups, nil
}

// buildTree arranges graded sources into the rollup shape without computing
// aggregates; sources arrive ordered by semester, period, item.
func buildTree(studentID, courseID string, sources []models.GradedItemSource) *models.CourseRollup {
	rollup := &models.CourseRollup{StudentID: studentID, CourseID: courseID}
	for _, src := range sources {
		semester := rollup.Semester(src.SemesterID)
		if semester == nil {
			title := src.SemesterTitle
			if title == "" {
				title = models.UnknownSemesterTitle
			}
			rollup.Semesters = append(rollup.Semesters, models.SemesterNode{SemesterID: src.SemesterID, Title: title})
			semester = &rollup.Semesters[len(rollup.Semesters)-1]
		}
		period := semester.Quarter(src.PeriodID)
		if period == nil {
			title := src.PeriodTitle
			if title == "" {
				title = models.UnknownQuarterTitle
			}
			semester.Quarters = append(semester.Quarters, models.PeriodNode{PeriodID: src.PeriodID, Title: title})
			period = &semester.Quarters[len(semester.Quarters)-1]
		}
		grading.UpsertSnapshot(period, models.ItemSnapshot{
			ItemID:        src.ItemID,
			ItemType:      src.ItemType,
			CategoryID:    src.CategoryID,
			StudentPoints: src.StudentPoints,
			MaxPoints:     src.MaxPoints,
		})
	}
	return rollup
}

func groupSourcesByStudent(sources []models.GradedItemSource) map[string][]models.GradedItemSource {
	grouped := make(map[string][]models.GradedItemSource)
	for _, src := range sources {
		grouped[src.StudentID] = append(grouped[src.StudentID], src)
	}
	return grouped
}

func (s *ReportService) normalizePage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = s.pageSize
	}
	if pageSize > s.maxPageSize {
		pageSize = s.maxPageSize
	}
	return page, pageSize
}
