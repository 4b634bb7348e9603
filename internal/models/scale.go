package models

// GradeBand maps an inclusive percentage range to a letter grade.
type GradeBand struct {
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Letter string  `json:"letter"`
}

// GradeScale is the deployment-wide ordered letter-grade table. Ranges are not
// validated for overlap or gaps; lookup is first-match-wins.
type GradeScale struct {
	Bands []GradeBand `json:"bands"`
}

// GPABand maps an inclusive percentage range to a GPA value.
type GPABand struct {
	MinPercentage float64 `json:"min_percentage"`
	MaxPercentage float64 `json:"max_percentage"`
	GPA           float64 `json:"gpa"`
}

// GPAScale is the deployment-wide ordered GPA table.
type GPAScale struct {
	Bands []GPABand `json:"bands"`
}
