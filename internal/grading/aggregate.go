package grading

import (
	"math"

	"github.com/noah-isme/lms-grade-api/internal/models"
)

// Round2 rounds to two decimals using banker's rounding, the mode applied to
// every stored percentage.
func Round2(v float64) float64 {
	return math.RoundToEven(v*100) / 100
}

// RecomputePeriod fills the computed fields of a period node from its item
// snapshots. Per active category the percentage is studentPoints/maxPoints
// (guarded to 0 on a zero denominator), and the period percentage is the
// weight-normalized weighted mean across active categories — not a simple
// average. A period with no active categories computes to 0.
func RecomputePeriod(period *models.PeriodNode, categories []models.ScoringCategory, scale models.GradeScale, gpaScale models.GPAScale) {
	byCategory := GroupByCategory(period.Items)
	weights := ActiveWeights(categories, byCategory)

	percentage := 0.0
	for categoryID, weight := range weights {
		var points, max float64
		for _, snap := range byCategory[categoryID] {
			points += snap.StudentPoints
			max += snap.MaxPoints
		}
		categoryPct := 0.0
		if max > 0 {
			categoryPct = points / max * 100
		}
		percentage += categoryPct * weight / 100
	}

	period.Percentage = Round2(percentage)
	period.GPA = GPAFor(gpaScale, period.Percentage)
	period.LetterGrade = LetterFor(scale, period.Percentage)
}

// RecomputeSemester derives the semester percentage as the unweighted
// arithmetic mean of its quarters' percentages. Quarters are deliberately not
// weighted by item count or duration: grades are weighted within a period and
// averaged flat across periods. Do not "fix" this asymmetry.
func RecomputeSemester(semester *models.SemesterNode, scale models.GradeScale) {
	sum := 0.0
	for _, quarter := range semester.Quarters {
		sum += quarter.Percentage
	}
	percentage := 0.0
	if len(semester.Quarters) > 0 {
		percentage = sum / float64(len(semester.Quarters))
	}
	semester.Percentage = Round2(percentage)
	semester.LetterGrade = LetterFor(scale, semester.Percentage)
}

// RecomputeCourse derives the course-level aggregates. The final percentage is
// the unweighted mean of semester percentages, while the final GPA is the
// unweighted mean of every period's GPA — GPA accumulates bottom-up from
// quarters, it is never re-derived from the course percentage.
func RecomputeCourse(rollup *models.CourseRollup, scale models.GradeScale, gpaScale models.GPAScale) {
	var pctSum, gpaSum float64
	periodCount := 0
	for _, semester := range rollup.Semesters {
		pctSum += semester.Percentage
		for _, quarter := range semester.Quarters {
			gpaSum += quarter.GPA
			periodCount++
		}
	}

	percentage := 0.0
	if len(rollup.Semesters) > 0 {
		percentage = pctSum / float64(len(rollup.Semesters))
	}
	gpa := 0.0
	if periodCount > 0 {
		gpa = gpaSum / float64(periodCount)
	}

	rollup.FinalPercentage = Round2(percentage)
	rollup.FinalGPA = Round2(gpa)
	rollup.FinalLetterGrade = LetterFor(scale, rollup.FinalPercentage)
}

// RecomputeTree recomputes every node of the rollup bottom-up. The
// incremental updater only needs the touched branch, but full-tree recompute
// backs the batch report builder and the prune operation.
func RecomputeTree(rollup *models.CourseRollup, categories []models.ScoringCategory, scale models.GradeScale, gpaScale models.GPAScale) {
	for i := range rollup.Semesters {
		semester := &rollup.Semesters[i]
		for j := range semester.Quarters {
			RecomputePeriod(&semester.Quarters[j], categories, scale, gpaScale)
		}
		RecomputeSemester(semester, scale)
	}
	RecomputeCourse(rollup, scale, gpaScale)
}

// UpsertSnapshot replaces any snapshot with the same item ID and appends the
// fresh one, keeping grade replays idempotent.
func UpsertSnapshot(period *models.PeriodNode, snapshot models.ItemSnapshot) {
	kept := period.Items[:0]
	for _, existing := range period.Items {
		if existing.ItemID != snapshot.ItemID {
			kept = append(kept, existing)
		}
	}
	period.Items = append(kept, snapshot)
}
