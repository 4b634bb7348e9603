package grading

import "github.com/noah-isme/lms-grade-api/internal/models"

// ActiveWeights renormalizes category weights over the categories that have at
// least one graded snapshot in the period. A course may define five categories
// while only two carry graded work in a quarter; without renormalization a
// perfect score in those two would cap the period below 100%. Inactive
// categories are dropped and the remaining static weights are rescaled to sum
// to 100. Snapshots referencing a category not defined on the course do not
// activate anything. Returns an empty map when no category is active.
func ActiveWeights(categories []models.ScoringCategory, itemsByCategory map[string][]models.ItemSnapshot) map[string]float64 {
	totalActive := 0.0
	for _, cat := range categories {
		if len(itemsByCategory[cat.ID]) > 0 {
			totalActive += cat.Weight
		}
	}
	weights := make(map[string]float64)
	if totalActive == 0 {
		return weights
	}
	for _, cat := range categories {
		if len(itemsByCategory[cat.ID]) > 0 {
			weights[cat.ID] = cat.Weight / totalActive * 100
		}
	}
	return weights
}

// GroupByCategory partitions period snapshots by their scoring category.
func GroupByCategory(items []models.ItemSnapshot) map[string][]models.ItemSnapshot {
	grouped := make(map[string][]models.ItemSnapshot, len(items))
	for _, item := range items {
		grouped[item.CategoryID] = append(grouped[item.CategoryID], item)
	}
	return grouped
}
