package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ObservationType distinguishes how an observation was carried out.
type ObservationType string

const (
	ObservationFormal         ObservationType = "formal"
	ObservationLearningWalk   ObservationType = "learning_walk"
	ObservationPeer           ObservationType = "peer"
	ObservationSelfAssessment ObservationType = "self_assessment"
)

// KeyStage labels follow the English national curriculum stages.
type KeyStage string

const (
	KeyStageEYFS KeyStage = "EYFS"
	KeyStage1    KeyStage = "KS1"
	KeyStage2    KeyStage = "KS2"
	KeyStage3    KeyStage = "KS3"
	KeyStage4    KeyStage = "KS4"
	KeyStage5    KeyStage = "KS5"
)

// Observation is a single recorded lesson observation. The analytics engine
// treats rows as read-only input: it never mutates or writes observations.
type Observation struct {
	ID         string `json:"id" gorm:"primaryKey;size:255"`
	TeacherID  string `json:"teacher_id" gorm:"not null;index;size:255"`
	ObserverID string `json:"observer_id" gorm:"not null;index;size:255"`

	ObservationDate time.Time       `json:"observation_date" gorm:"not null;index"`
	ObservationType ObservationType `json:"observation_type" gorm:"size:50;index"`

	// Categorical dimensions. Free-text labels in the source system, so they
	// are stored as-is rather than as foreign keys.
	Subject    string `json:"subject" gorm:"size:100;index"`
	KeyStage   string `json:"key_stage" gorm:"size:20;index"`
	Department string `json:"department" gorm:"size:100;index"`

	// OverallGrade may be absent for walk-throughs that were never graded.
	// OverallScore, when present, takes precedence over the derived grade
	// score. A record with neither contributes to totals but never to
	// averages.
	OverallGrade *Grade   `json:"overall_grade" gorm:"size:50"`
	OverallScore *float64 `json:"overall_score"`

	// Free-text narrative fields feeding the theme extractor.
	Strengths           *string `json:"strengths" gorm:"type:text"`
	AreasForDevelopment *string `json:"areas_for_development" gorm:"type:text"`

	// Per-criteria scores captured by the observation form, kept as JSON
	// because criteria sets vary by observation type.
	CriteriaScores datatypes.JSON `json:"criteria_scores" gorm:"type:jsonb"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

func (Observation) TableName() string {
	return "observations"
}

// ResolvedScore returns the numeric score for averaging: the explicit score
// when recorded, otherwise the grade-derived score. 0 means "ungraded".
func (o *Observation) ResolvedScore() float64 {
	if o.OverallScore != nil && *o.OverallScore > 0 {
		return *o.OverallScore
	}
	if o.OverallGrade != nil {
		return o.OverallGrade.Score()
	}
	return 0
}

// IsGradeable reports whether the record carries a resolvable numeric score.
func (o *Observation) IsGradeable() bool {
	return o.ResolvedScore() > 0
}

// EffectiveGrade returns the recorded grade, or the band of the explicit
// score when only a score was captured. Returns "" for ungraded records.
func (o *Observation) EffectiveGrade() Grade {
	if o.OverallGrade != nil && o.OverallGrade.IsValid() {
		return *o.OverallGrade
	}
	if o.OverallScore != nil && *o.OverallScore > 0 {
		return ClassifyScore(*o.OverallScore)
	}
	return ""
}
