package models

import (
	"time"
)

// ReportType selects the section template a report is assembled against.
type ReportType string

const (
	ReportWholeSchool ReportType = "whole_school"
	ReportDepartment  ReportType = "department"
	ReportTeacher     ReportType = "teacher"
	ReportKeyStage    ReportType = "key_stage"
)

// InsightKind classifies a generated insight bullet.
type InsightKind string

const (
	InsightStrength       InsightKind = "strength"
	InsightConcern        InsightKind = "concern"
	InsightTrend          InsightKind = "trend"
	InsightRecommendation InsightKind = "recommendation"
)

// Insight is one rule-generated bullet shown on the dashboard or folded into
// a report. Generation is deterministic for identical input aggregates.
type Insight struct {
	Kind            InsightKind `json:"kind"`
	Text            string      `json:"text"`
	SupportingCount int         `json:"supporting_count"`
}

// ActionItem is a follow-up task derived from individual observation grades.
type ActionItem struct {
	TeacherID   string `json:"teacher_id"`
	TeacherName string `json:"teacher_name,omitempty"`
	Description string `json:"description"`
	DueInWeeks  int    `json:"due_in_weeks,omitempty"`
}

// ReportSection is a named chunk of report content. Content is plain prose;
// rendering and charting live in the presentation layer.
type ReportSection struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Content string `json:"content"`
	Type    string `json:"type"`
}

// ReportSummary carries the headline statistics for a report.
type ReportSummary struct {
	TotalObservations int      `json:"total_observations"`
	AverageScore      float64  `json:"average_score"`
	KeyFindings       []string `json:"key_findings"`
	Recommendations   []string `json:"recommendations"`
}

// Report is the assembled output of one generation request. It is immutable
// once built: exports read it, nothing re-opens it for further aggregation.
type Report struct {
	ID          string          `json:"id"`
	Title       string          `json:"title"`
	Type        ReportType      `json:"type"`
	GeneratedAt time.Time       `json:"generated_at"`
	GeneratedBy string          `json:"generated_by"`
	Scope       ReportScope     `json:"scope"`
	Summary     ReportSummary   `json:"summary"`
	Sections    []ReportSection `json:"sections"`
}

// ReportScope is the filter scope a report was generated under, embedded so
// an exported report records what data it covered.
type ReportScope struct {
	DateFrom           *time.Time `json:"date_from,omitempty"`
	DateTo             *time.Time `json:"date_to,omitempty"`
	SubjectIDs         []string   `json:"subject_ids,omitempty"`
	KeyStageIDs        []string   `json:"key_stage_ids,omitempty"`
	ObservationTypeIDs []string   `json:"observation_type_ids,omitempty"`
	TeacherIDs         []string   `json:"teacher_ids,omitempty"`
	DepartmentIDs      []string   `json:"department_ids,omitempty"`
}
