package models

import (
	"testing"
)

func TestGradeScore(t *testing.T) {
	tests := []struct {
		grade Grade
		score float64
	}{
		{GradeOutstanding, 4},
		{GradeGood, 3},
		{GradeRequiresImprovement, 2},
		{GradeInadequate, 1},
		{Grade(""), 0},
		{Grade("Excellent"), 0},
	}

	for _, tt := range tests {
		if got := tt.grade.Score(); got != tt.score {
			t.Errorf("Score(%q) = %v, want %v", tt.grade, got, tt.score)
		}
	}
}

func TestClassifyScoreBands(t *testing.T) {
	tests := []struct {
		score float64
		grade Grade
	}{
		{4.0, GradeOutstanding},
		{3.5, GradeOutstanding}, // lower bound is closed
		{3.49, GradeGood},
		{2.5, GradeGood},
		{2.49, GradeRequiresImprovement},
		{1.5, GradeRequiresImprovement},
		{1.49, GradeInadequate},
		{1.0, GradeInadequate},
		{0.2, GradeInadequate},
	}

	for _, tt := range tests {
		if got := ClassifyScore(tt.score); got != tt.grade {
			t.Errorf("ClassifyScore(%v) = %q, want %q", tt.score, got, tt.grade)
		}
	}
}

func TestGradeRoundTrip(t *testing.T) {
	// Classifying a grade's own score returns the grade.
	for _, grade := range AllGrades {
		if got := ClassifyScore(grade.Score()); got != grade {
			t.Errorf("ClassifyScore(%q.Score()) = %q, want %q", grade, got, grade)
		}
	}
}

func TestGradeCounts(t *testing.T) {
	var counts GradeCounts
	counts.Add(GradeOutstanding)
	counts.Add(GradeGood)
	counts.Add(GradeGood)
	counts.Add(Grade("")) // ungraded increments nothing

	if counts.Gradeable() != 3 {
		t.Errorf("Expected 3 gradeable, got %d", counts.Gradeable())
	}

	other := GradeCounts{Inadequate: 2}
	counts.Merge(other)
	if counts.Gradeable() != 5 || counts.Inadequate != 2 {
		t.Errorf("Unexpected counts after merge: %+v", counts)
	}
}

func TestObservationResolvedScore(t *testing.T) {
	grade := GradeGood
	score := 3.7

	tests := []struct {
		name     string
		obs      Observation
		expected float64
	}{
		{"explicit score wins", Observation{OverallGrade: &grade, OverallScore: &score}, 3.7},
		{"grade-derived score", Observation{OverallGrade: &grade}, 3},
		{"ungraded", Observation{}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.obs.ResolvedScore(); got != tt.expected {
				t.Errorf("ResolvedScore() = %v, want %v", got, tt.expected)
			}
			if tt.expected > 0 != tt.obs.IsGradeable() {
				t.Errorf("IsGradeable() inconsistent with ResolvedScore()")
			}
		})
	}
}

func TestObservationEffectiveGrade(t *testing.T) {
	grade := GradeInadequate
	score := 3.8

	recorded := Observation{OverallGrade: &grade, OverallScore: &score}
	if got := recorded.EffectiveGrade(); got != GradeInadequate {
		t.Errorf("Recorded grade should win over the score band, got %q", got)
	}

	scoreOnly := Observation{OverallScore: &score}
	if got := scoreOnly.EffectiveGrade(); got != GradeOutstanding {
		t.Errorf("Score-only record should classify the score, got %q", got)
	}

	ungraded := Observation{}
	if got := ungraded.EffectiveGrade(); got != Grade("") {
		t.Errorf("Ungraded record should have no effective grade, got %q", got)
	}
}
