package repositories

import (
	"time"
)

// ===== FILTER SCOPE =====

// ObservationScope is the filter context threaded through every aggregation
// call. Empty fields mean "unconstrained". A scope is never mutated once an
// aggregation has started; services copy it when they need to narrow it.
type ObservationScope struct {
	DateFrom           *time.Time `json:"date_from"`
	DateTo             *time.Time `json:"date_to"`
	SubjectIDs         []string   `json:"subject_ids"`
	KeyStageIDs        []string   `json:"key_stage_ids"`
	ObservationTypeIDs []string   `json:"observation_type_ids"`
	TeacherIDs         []string   `json:"teacher_ids"`
	DepartmentIDs      []string   `json:"department_ids"`
}

// IsUnconstrained reports whether the scope filters nothing.
func (s ObservationScope) IsUnconstrained() bool {
	return s.DateFrom == nil && s.DateTo == nil &&
		len(s.SubjectIDs) == 0 && len(s.KeyStageIDs) == 0 &&
		len(s.ObservationTypeIDs) == 0 && len(s.TeacherIDs) == 0 &&
		len(s.DepartmentIDs) == 0
}

// WithTeachers returns a copy of the scope narrowed to the given teacher ids.
// The receiver is left untouched.
func (s ObservationScope) WithTeachers(teacherIDs ...string) ObservationScope {
	narrowed := s
	narrowed.TeacherIDs = append([]string(nil), teacherIDs...)
	return narrowed
}

// ===== SHARED FILTER STRUCTS =====

type UserFilters struct {
	Department *string `json:"department"`
	IsActive   *bool   `json:"is_active"`
	Limit      int     `json:"limit"`
	Offset     int     `json:"offset"`
	SortBy     string  `json:"sort_by"`    // "full_name", "created_at"
	SortOrder  string  `json:"sort_order"` // "asc", "desc"
}

// ===== SHARED STATISTICS STRUCTS =====

type ObservationCounts struct {
	Total      int `json:"total"`
	Graded     int `json:"graded"`
	SelfAssess int `json:"self_assessments"`
}
