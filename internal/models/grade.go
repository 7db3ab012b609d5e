package models

// Grade is the qualitative outcome of a lesson observation.
type Grade string

const (
	GradeOutstanding         Grade = "Outstanding"
	GradeGood                Grade = "Good"
	GradeRequiresImprovement Grade = "Requires Improvement"
	GradeInadequate          Grade = "Inadequate"
)

// AllGrades lists the four grades from best to worst. Distribution tallies
// and tie-breaking follow this order.
var AllGrades = []Grade{
	GradeOutstanding,
	GradeGood,
	GradeRequiresImprovement,
	GradeInadequate,
}

// Score maps a grade onto the 4-point numeric scale used for averaging.
// Unknown or empty grades map to 0, which means "no grade"; callers must
// exclude 0 from averages, never treat it as a real score.
func (g Grade) Score() float64 {
	switch g {
	case GradeOutstanding:
		return 4
	case GradeGood:
		return 3
	case GradeRequiresImprovement:
		return 2
	case GradeInadequate:
		return 1
	default:
		return 0
	}
}

// IsValid reports whether g is one of the four recognised grades.
func (g Grade) IsValid() bool {
	return g.Score() > 0
}

// ClassifyScore maps a continuous score back onto a grade band. Bands are
// closed on the lower bound so the four bands cover the scale with no gaps:
// >=3.5 Outstanding, >=2.5 Good, >=1.5 Requires Improvement, else Inadequate.
func ClassifyScore(score float64) Grade {
	switch {
	case score >= 3.5:
		return GradeOutstanding
	case score >= 2.5:
		return GradeGood
	case score >= 1.5:
		return GradeRequiresImprovement
	default:
		return GradeInadequate
	}
}

// GradeCounts tallies observations per grade within one aggregate bucket.
type GradeCounts struct {
	Outstanding         int `json:"outstanding"`
	Good                int `json:"good"`
	RequiresImprovement int `json:"requires_improvement"`
	Inadequate          int `json:"inadequate"`
}

// Add increments the tally for g. Ungraded records increment nothing.
func (c *GradeCounts) Add(g Grade) {
	switch g {
	case GradeOutstanding:
		c.Outstanding++
	case GradeGood:
		c.Good++
	case GradeRequiresImprovement:
		c.RequiresImprovement++
	case GradeInadequate:
		c.Inadequate++
	}
}

// Gradeable returns the number of records that carried a real grade.
func (c GradeCounts) Gradeable() int {
	return c.Outstanding + c.Good + c.RequiresImprovement + c.Inadequate
}

// Merge adds the tallies of other into c.
func (c *GradeCounts) Merge(other GradeCounts) {
	c.Outstanding += other.Outstanding
	c.Good += other.Good
	c.RequiresImprovement += other.RequiresImprovement
	c.Inadequate += other.Inadequate
}
