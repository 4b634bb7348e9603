package service

import (
	"context"
	"encoding/json"
	"sort"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/lms-grade-api/internal/dto"
	"github.com/noah-isme/lms-grade-api/internal/models"
	appErrors "github.com/noah-isme/lms-grade-api/pkg/errors"
)

type fakeSourceReader struct {
	sources   []models.GradedItemSource
	listCalls int
}

func (f *fakeSourceReader) ListGradedSources(ctx context.Context, courseID string, studentIDs []string) ([]models.GradedItemSource, error) {
	f.listCalls++
	wanted := make(map[string]bool, len(studentIDs))
	for _, id := range studentIDs {
		wanted[id] = true
	}
	var out []models.GradedItemSource
	for _, src := range f.sources {
		if src.CourseID != courseID {
			continue
		}
		if len(studentIDs) > 0 && !wanted[src.StudentID] {
			continue
		}
		out = append(out, src)
	}
	return out, nil
}

func (f *fakeSourceReader) ListStudentsWithGrades(ctx context.Context, courseID string) ([]string, error) {
	f.listCalls++
	seen := make(map[string]bool)
	var students []string
	for _, src := range f.sources {
		if src.CourseID == courseID && !seen[src.StudentID] {
			seen[src.StudentID] = true
			students = append(students, src.StudentID)
		}
	}
	sort.Strings(students)
	return students, nil
}

type fakeCacheRepo struct {
	entries map[string][]byte
}

func newFakeCacheRepo() *fakeCacheRepo {
	return &fakeCacheRepo{entries: make(map[string][]byte)}
}

func (f *fakeCacheRepo) Get(ctx context.Context, key string, dest interface{}) error {
	raw, ok := f.entries[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (f *fakeCacheRepo) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	f.entries[key] = raw
	return nil
}

func (f *fakeCacheRepo) DeleteByPattern(ctx context.Context, pattern string) error {
	return nil
}

func reportSourcesFixture() []models.GradedItemSource {
	return []models.GradedItemSource{
		{StudentID: "stu1", CourseID: "course1", ItemID: "item1", ItemType: models.ItemTypeAssessment, CategoryID: "hw", SemesterID: "sem1", SemesterTitle: "Fall", PeriodID: "q1", PeriodTitle: "Quarter 1", StudentPoints: 8, MaxPoints: 10},
		{StudentID: "stu1", CourseID: "course1", ItemID: "item2", ItemType: models.ItemTypeDiscussion, CategoryID: "hw", SemesterID: "sem1", SemesterTitle: "Fall", PeriodID: "q2", PeriodTitle: "Quarter 2", StudentPoints: 18, MaxPoints: 20},
		{StudentID: "stu2", CourseID: "course1", ItemID: "item1", ItemType: models.ItemTypeAssessment, CategoryID: "hw", SemesterID: "sem1", SemesterTitle: "Fall", PeriodID: "q1", PeriodTitle: "Quarter 1", StudentPoints: 10, MaxPoints: 10},
	}
}

func newReportFixture(cache *CacheService) (*ReportService, *fakeSourceReader) {
	sources := &fakeSourceReader{sources: reportSourcesFixture()}
	categories := &fakeCategoryLister{categories: []models.ScoringCategory{
		{ID: "hw", CourseID: "course1", Name: "Homework", Weight: 40},
		{ID: "exam", CourseID: "course1", Name: "Exams", Weight: 60},
	}}
	scales := &fakeScaleStore{grade: gradeScaleFixture(), gpa: gpaScaleFixture()}
	svc := NewReportService(sources, categories, scales, cache, nil, validator.New(), zap.NewNop(), 20, 100)
	return svc, sources
}

func TestReportServiceGradebook(t *testing.T) {
	svc, _ := newReportFixture(nil)

	report, err := svc.Gradebook(context.Background(), dto.GradebookRequest{CourseID: "course1"})
	require.NoError(t, err)
	assert.Equal(t, 1, report.Page)
	assert.Equal(t, 1, report.TotalPages)
	assert.Equal(t, 2, report.TotalCourses)
	require.Len(t, report.Rollups, 2)

	assert.Equal(t, "stu1", report.Rollups[0].StudentID)
	assert.Equal(t, 85.0, report.Rollups[0].FinalPercentage)
	assert.Equal(t, "B", report.Rollups[0].FinalLetterGrade)
	assert.Equal(t, 3.5, report.Rollups[0].FinalGPA)

	assert.Equal(t, "stu2", report.Rollups[1].StudentID)
	assert.Equal(t, 100.0, report.Rollups[1].FinalPercentage)
	assert.Equal(t, "A", report.Rollups[1].FinalLetterGrade)
}

func TestReportServiceGradebookPagination(t *testing.T) {
	svc, _ := newReportFixture(nil)

	report, err := svc.Gradebook(context.Background(), dto.GradebookRequest{CourseID: "course1", Page: 2, PageSize: 1})
	require.NoError(t, err)
	assert.Equal(t, 2, report.Page)
	assert.Equal(t, 2, report.TotalPages)
	require.Len(t, report.Rollups, 1)
	assert.Equal(t, "stu2", report.Rollups[0].StudentID)

	empty, err := svc.Gradebook(context.Background(), dto.GradebookRequest{CourseID: "course1", Page: 9, PageSize: 1})
	require.NoError(t, err)
	assert.Empty(t, empty.Rollups)
}

func TestReportServiceGradebookMissingCourse(t *testing.T) {
	svc, _ := newReportFixture(nil)

	_, err := svc.Gradebook(context.Background(), dto.GradebookRequest{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestReportServiceGradebookCaching(t *testing.T) {
	cache := NewCacheService(newFakeCacheRepo(), nil, time.Minute, zap.NewNop(), true)
	svc, sources := newReportFixture(cache)

	first, err := svc.Gradebook(context.Background(), dto.GradebookRequest{CourseID: "course1"})
	require.NoError(t, err)
	calls := sources.listCalls

	second, err := svc.Gradebook(context.Background(), dto.GradebookRequest{CourseID: "course1"})
	require.NoError(t, err)
	assert.Equal(t, calls, sources.listCalls)
	assert.Equal(t, first.Rollups, second.Rollups)
}

// The batch builder and the incremental updater must produce the same tree
// from the same graded work.
func TestReportServiceMatchesIncrementalRollup(t *testing.T) {
	rollupSvc, store := newRollupFixture()
	require.NoError(t, rollupSvc.ApplyGrade(context.Background(), ApplyGradeRequest{StudentID: "stu1", CourseID: "course1", ItemID: "item1"}))
	require.NoError(t, rollupSvc.ApplyGrade(context.Background(), ApplyGradeRequest{StudentID: "stu1", CourseID: "course1", ItemID: "item2"}))
	persisted := store.rollups["stu1/course1"]

	reportSvc, _ := newReportFixture(nil)
	derived, err := reportSvc.BuildStudentRollup(context.Background(), "stu1", "course1")
	require.NoError(t, err)

	assert.Equal(t, persisted.Semesters, derived.Semesters)
	assert.Equal(t, persisted.FinalPercentage, derived.FinalPercentage)
	assert.Equal(t, persisted.FinalGPA, derived.FinalGPA)
	assert.Equal(t, persisted.FinalLetterGrade, derived.FinalLetterGrade)
}

func TestReportServiceBuildStudentRollupNotFound(t *testing.T) {
	svc, _ := newReportFixture(nil)

	_, err := svc.BuildStudentRollup(context.Background(), "ghost", "course1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestReportServiceExportGradebookCSV(t *testing.T) {
	svc, _ := newReportFixture(nil)

	payload, filename, err := svc.ExportGradebook(context.Background(), "course1", "csv")
	require.NoError(t, err)
	assert.Equal(t, "gradebook-course1.csv", filename)
	assert.Contains(t, string(payload), "Student")
	assert.Contains(t, string(payload), "stu1")
	assert.Contains(t, string(payload), "85.00")
}

func TestReportServiceExportGradebookPDF(t *testing.T) {
	svc, _ := newReportFixture(nil)

	payload, filename, err := svc.ExportGradebook(context.Background(), "course1", "pdf")
	require.NoError(t, err)
	assert.Equal(t, "gradebook-course1.pdf", filename)
	assert.NotEmpty(t, payload)
}

func TestReportServiceExportGradebookUnsupportedFormat(t *testing.T) {
	svc, _ := newReportFixture(nil)

	_, _, err := svc.ExportGradebook(context.Background(), "course1", "xlsx")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}
