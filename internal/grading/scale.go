// Package grading implements the pure grade aggregation engine: scale lookup,
// category weight renormalization and the period/semester/course aggregators.
// Everything here is synchronous arithmetic over already-fetched data; scale
// configuration is passed in explicitly so the functions stay testable without
// a data store. Both the incremental updater and the batch report builder must
// go through this package so live and reported grades never drift.
package grading

import "github.com/noah-isme/lms-grade-api/internal/models"

// LetterNA is returned when no grade band matches a percentage.
const LetterNA = "N/A"

// LetterFor resolves a percentage against the configured grade scale. Bands
// are scanned in order and the first one with min <= pct <= max wins; overlaps
// and gaps are not validated. An empty scale or an out-of-range percentage
// yields the N/A sentinel rather than an error so a misconfigured scale never
// blocks grading.
func LetterFor(scale models.GradeScale, percentage float64) string {
	for _, band := range scale.Bands {
		if percentage >= band.Min && percentage <= band.Max {
			return band.Letter
		}
	}
	return LetterNA
}

// GPAFor resolves a percentage against the GPA table, first match wins.
// Returns 0 when nothing matches.
func GPAFor(scale models.GPAScale, percentage float64) float64 {
	for _, band := range scale.Bands {
		if percentage >= band.MinPercentage && percentage <= band.MaxPercentage {
			return band.GPA
		}
	}
	return 0
}
