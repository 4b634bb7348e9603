package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/lms-grade-api/internal/models"
	appErrors "github.com/noah-isme/lms-grade-api/pkg/errors"
)

func strPtr(s string) *string { return &s }

func gradeScaleFixture() models.GradeScale {
	return models.GradeScale{Bands: []models.GradeBand{
		{Min: 90, Max: 100, Letter: "A"},
		{Min: 80, Max: 89.999, Letter: "B"},
		{Min: 70, Max: 79.999, Letter: "C"},
		{Min: 0, Max: 69.999, Letter: "F"},
	}}
}

func gpaScaleFixture() models.GPAScale {
	return models.GPAScale{Bands: []models.GPABand{
		{MinPercentage: 90, MaxPercentage: 100, GPA: 4},
		{MinPercentage: 80, MaxPercentage: 89.999, GPA: 3},
		{MinPercentage: 70, MaxPercentage: 79.999, GPA: 2},
		{MinPercentage: 0, MaxPercentage: 69.999, GPA: 1},
	}}
}

type fakeItemRepo struct {
	items map[string]*models.GradableItem
}

func (f *fakeItemRepo) FindByID(ctx context.Context, id string) (*models.GradableItem, error) {
	if item, ok := f.items[id]; ok {
		return item, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeItemRepo) Exists(ctx context.Context, id string) (bool, error) {
	_, ok := f.items[id]
	return ok, nil
}

type fakeRecordRepo struct {
	records map[string]*models.GradeRecord
}

func (f *fakeRecordRepo) FindByStudentAndItem(ctx context.Context, studentID, itemID string) (*models.GradeRecord, error) {
	if record, ok := f.records[studentID+"|"+itemID]; ok {
		return record, nil
	}
	return nil, sql.ErrNoRows
}

type fakeCategoryLister struct {
	categories []models.ScoringCategory
}

func (f *fakeCategoryLister) List(ctx context.Context, filter models.CategoryFilter) ([]models.ScoringCategory, error) {
	if filter.CourseID == "" {
		return f.categories, nil
	}
	var out []models.ScoringCategory
	for _, cat := range f.categories {
		if cat.CourseID == filter.CourseID {
			out = append(out, cat)
		}
	}
	return out, nil
}

type fakeScaleStore struct {
	grade      models.GradeScale
	gpa        models.GPAScale
	savedGrade *models.GradeScale
	savedGPA   *models.GPAScale
}

func (f *fakeScaleStore) FindGradeScale(ctx context.Context) (models.GradeScale, error) {
	return f.grade, nil
}

func (f *fakeScaleStore) FindGPAScale(ctx context.Context) (models.GPAScale, error) {
	return f.gpa, nil
}

func (f *fakeScaleStore) SaveGradeScale(ctx context.Context, scale models.GradeScale) error {
	f.savedGrade = &scale
	return nil
}

func (f *fakeScaleStore) SaveGPAScale(ctx context.Context, scale models.GPAScale) error {
	f.savedGPA = &scale
	return nil
}

type fakeTermRepo struct {
	semesters map[string]string
	periods   map[string]string
}

func (f *fakeTermRepo) SemesterTitle(ctx context.Context, id string) (string, error) {
	if title, ok := f.semesters[id]; ok {
		return title, nil
	}
	return models.UnknownSemesterTitle, nil
}

func (f *fakeTermRepo) PeriodTitle(ctx context.Context, id string) (string, error) {
	if title, ok := f.periods[id]; ok {
		return title, nil
	}
	return models.UnknownQuarterTitle, nil
}

type fakeRollupStore struct {
	rollups   map[string]*models.CourseRollup
	failSaves int
	saves     int
}

func newFakeRollupStore() *fakeRollupStore {
	return &fakeRollupStore{rollups: make(map[string]*models.CourseRollup)}
}

func cloneRollup(r *models.CourseRollup) *models.CourseRollup {
	raw, _ := json.Marshal(r)
	var out models.CourseRollup
	_ = json.Unmarshal(raw, &out)
	return &out
}

func (f *fakeRollupStore) Find(ctx context.Context, studentID, courseID string) (*models.CourseRollup, error) {
	rollup, ok := f.rollups[studentID+"/"+courseID]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return cloneRollup(rollup), nil
}

func (f *fakeRollupStore) Save(ctx context.Context, rollup *models.CourseRollup) error {
	f.saves++
	if f.failSaves > 0 {
		f.failSaves--
		return appErrors.ErrVersionConflict
	}
	rollup.Version++
	f.rollups[rollup.StudentID+"/"+rollup.CourseID] = cloneRollup(rollup)
	return nil
}

func newRollupFixture() (*RollupService, *fakeRollupStore) {
	items := &fakeItemRepo{items: map[string]*models.GradableItem{
		"item1": {ID: "item1", CourseID: "course1", SemesterID: strPtr("sem1"), PeriodID: strPtr("q1"), CategoryID: "hw", Type: models.ItemTypeAssessment, MaxPoints: 10},
		"item2": {ID: "item2", CourseID: "course1", SemesterID: strPtr("sem1"), PeriodID: strPtr("q2"), CategoryID: "hw", Type: models.ItemTypeDiscussion, MaxPoints: 20},
		"drift": {ID: "drift", CourseID: "course1", CategoryID: "hw", Type: models.ItemTypeAssessment, MaxPoints: 10},
	}}
	records := &fakeRecordRepo{records: map[string]*models.GradeRecord{
		"stu1|item1": {ID: "rec1", StudentID: "stu1", ItemID: "item1", StudentPoints: 8, IsGraded: true},
		"stu1|item2": {ID: "rec2", StudentID: "stu1", ItemID: "item2", StudentPoints: 18, IsGraded: true},
		"stu1|drift": {ID: "rec3", StudentID: "stu1", ItemID: "drift", StudentPoints: 5, IsGraded: true},
		"stu2|item1": {ID: "rec4", StudentID: "stu2", ItemID: "item1", StudentPoints: 4, IsGraded: false},
	}}
	categories := &fakeCategoryLister{categories: []models.ScoringCategory{
		{ID: "hw", CourseID: "course1", Name: "Homework", Weight: 40},
		{ID: "exam", CourseID: "course1", Name: "Exams", Weight: 60},
	}}
	scales := &fakeScaleStore{grade: gradeScaleFixture(), gpa: gpaScaleFixture()}
	terms := &fakeTermRepo{
		semesters: map[string]string{"sem1": "Fall"},
		periods:   map[string]string{"q1": "Quarter 1", "q2": "Quarter 2"},
	}
	store := newFakeRollupStore()
	svc := NewRollupService(items, records, categories, scales, terms, store, nil, validator.New(), zap.NewNop(), 3)
	return svc, store
}

func TestRollupServiceApplyGrade(t *testing.T) {
	svc, store := newRollupFixture()

	err := svc.ApplyGrade(context.Background(), ApplyGradeRequest{StudentID: "stu1", CourseID: "course1", ItemID: "item1"})
	require.NoError(t, err)

	rollup := store.rollups["stu1/course1"]
	require.NotNil(t, rollup)
	require.Len(t, rollup.Semesters, 1)
	assert.Equal(t, "Fall", rollup.Semesters[0].Title)
	require.Len(t, rollup.Semesters[0].Quarters, 1)

	// 8/10 in the only active category renormalizes to full weight.
	quarter := rollup.Semesters[0].Quarters[0]
	assert.Equal(t, "Quarter 1", quarter.Title)
	assert.Equal(t, 80.0, quarter.Percentage)
	assert.Equal(t, "B", quarter.LetterGrade)
	assert.Equal(t, 3.0, quarter.GPA)
	assert.Equal(t, 80.0, rollup.FinalPercentage)
	assert.Equal(t, "B", rollup.FinalLetterGrade)
	assert.Equal(t, 3.0, rollup.FinalGPA)
	assert.Equal(t, int64(1), rollup.Version)
}

func TestRollupServiceApplyGradeIdempotent(t *testing.T) {
	svc, store := newRollupFixture()
	req := ApplyGradeRequest{StudentID: "stu1", CourseID: "course1", ItemID: "item1"}

	require.NoError(t, svc.ApplyGrade(context.Background(), req))
	first := cloneRollup(store.rollups["stu1/course1"])

	require.NoError(t, svc.ApplyGrade(context.Background(), req))
	second := store.rollups["stu1/course1"]

	assert.Equal(t, first.Semesters, second.Semesters)
	assert.Equal(t, first.FinalPercentage, second.FinalPercentage)
	assert.Equal(t, first.FinalGPA, second.FinalGPA)
	assert.Equal(t, first.FinalLetterGrade, second.FinalLetterGrade)
}

func TestRollupServiceApplyGradeLeavesOtherPeriodsUntouched(t *testing.T) {
	svc, store := newRollupFixture()

	require.NoError(t, svc.ApplyGrade(context.Background(), ApplyGradeRequest{StudentID: "stu1", CourseID: "course1", ItemID: "item1"}))
	before := cloneRollup(store.rollups["stu1/course1"])

	require.NoError(t, svc.ApplyGrade(context.Background(), ApplyGradeRequest{StudentID: "stu1", CourseID: "course1", ItemID: "item2"}))
	after := store.rollups["stu1/course1"]

	require.Len(t, after.Semesters, 1)
	require.Len(t, after.Semesters[0].Quarters, 2)
	assert.Equal(t, before.Semesters[0].Quarters[0], after.Semesters[0].Quarters[0])

	// Semester percentage is the plain mean of its quarters: (80 + 90) / 2.
	assert.Equal(t, 90.0, after.Semesters[0].Quarters[1].Percentage)
	assert.Equal(t, 85.0, after.Semesters[0].Percentage)
	assert.Equal(t, "B", after.Semesters[0].LetterGrade)
	assert.Equal(t, 3.5, after.FinalGPA)
}

func TestRollupServiceApplyGradeSkips(t *testing.T) {
	tests := []struct {
		name string
		req  ApplyGradeRequest
	}{
		{"item not found", ApplyGradeRequest{StudentID: "stu1", CourseID: "course1", ItemID: "ghost"}},
		{"item missing term refs", ApplyGradeRequest{StudentID: "stu1", CourseID: "course1", ItemID: "drift"}},
		{"no grade record", ApplyGradeRequest{StudentID: "stu9", CourseID: "course1", ItemID: "item1"}},
		{"record not graded", ApplyGradeRequest{StudentID: "stu2", CourseID: "course1", ItemID: "item1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, store := newRollupFixture()
			err := svc.ApplyGrade(context.Background(), tt.req)
			require.NoError(t, err)
			assert.Zero(t, store.saves)
		})
	}
}

func TestRollupServiceApplyGradeCourseMismatch(t *testing.T) {
	svc, store := newRollupFixture()

	err := svc.ApplyGrade(context.Background(), ApplyGradeRequest{StudentID: "stu1", CourseID: "other", ItemID: "item1"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	assert.Zero(t, store.saves)
}

func TestRollupServiceApplyGradeRetriesOnConflict(t *testing.T) {
	svc, store := newRollupFixture()
	store.failSaves = 1

	err := svc.ApplyGrade(context.Background(), ApplyGradeRequest{StudentID: "stu1", CourseID: "course1", ItemID: "item1"})
	require.NoError(t, err)
	assert.Equal(t, 2, store.saves)
	assert.NotNil(t, store.rollups["stu1/course1"])
}

func TestRollupServiceApplyGradeConflictExhausted(t *testing.T) {
	svc, store := newRollupFixture()
	store.failSaves = 5

	err := svc.ApplyGrade(context.Background(), ApplyGradeRequest{StudentID: "stu1", CourseID: "course1", ItemID: "item1"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrVersionConflict.Code, appErrors.FromError(err).Code)
	assert.Equal(t, 3, store.saves)
}

func TestRollupServiceGet(t *testing.T) {
	svc, store := newRollupFixture()
	store.rollups["stu1/course1"] = &models.CourseRollup{StudentID: "stu1", CourseID: "course1", Version: 2}

	rollup, err := svc.Get(context.Background(), "stu1", "course1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), rollup.Version)

	_, err = svc.Get(context.Background(), "stu1", "ghost")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestRollupServicePrune(t *testing.T) {
	svc, store := newRollupFixture()

	require.NoError(t, svc.ApplyGrade(context.Background(), ApplyGradeRequest{StudentID: "stu1", CourseID: "course1", ItemID: "item1"}))
	require.NoError(t, svc.ApplyGrade(context.Background(), ApplyGradeRequest{StudentID: "stu1", CourseID: "course1", ItemID: "item2"}))

	// Simulate deleting item2 upstream; its snapshot and its now-empty
	// quarter must disappear on prune.
	seeded := store.rollups["stu1/course1"]
	seeded.Semesters[0].Quarters[1].Items[0].ItemID = "deleted-item"

	rollup, err := svc.Prune(context.Background(), "stu1", "course1")
	require.NoError(t, err)
	require.Len(t, rollup.Semesters, 1)
	require.Len(t, rollup.Semesters[0].Quarters, 1)
	assert.Equal(t, "q1", rollup.Semesters[0].Quarters[0].PeriodID)
	assert.Equal(t, 80.0, rollup.FinalPercentage)
	assert.Equal(t, "B", rollup.FinalLetterGrade)
}

func TestRollupServicePruneNotFound(t *testing.T) {
	svc, _ := newRollupFixture()

	_, err := svc.Prune(context.Background(), "ghost", "course1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
