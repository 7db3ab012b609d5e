package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/lessonlens/observation-service/internal/models"
	"github.com/lessonlens/observation-service/internal/repositories"
	"github.com/lessonlens/observation-service/internal/validator"
)

// AnalyticsService aggregates observation records into the derived statistics
// shown on the dashboard. Every method computes fresh from the rows matching
// the scope; nothing is cached between calls, so independent dimensions can
// be computed concurrently over the same snapshot.
type AnalyticsService interface {
	GetCriteriaBreakdown(ctx context.Context, scope repositories.ObservationScope, actor Actor) ([]CriteriaBreakdown, error)
	GetObservationTrends(ctx context.Context, scope repositories.ObservationScope, actor Actor) ([]TrendPoint, error)

	GetSubjectDistribution(ctx context.Context, scope repositories.ObservationScope, actor Actor) ([]DistributionEntry, error)
	GetTypeDistribution(ctx context.Context, scope repositories.ObservationScope, actor Actor) ([]DistributionEntry, error)
	GetKeyStageAnalysis(ctx context.Context, scope repositories.ObservationScope, actor Actor) ([]DistributionEntry, error)

	GetStaffAnalysis(ctx context.Context, scope repositories.ObservationScope, actor Actor) (*StaffAnalysis, error)

	// GetObservationCounts returns raw volume counters without loading rows.
	GetObservationCounts(ctx context.Context, scope repositories.ObservationScope, actor Actor) (*repositories.ObservationCounts, error)
}

// Actor identifies the caller as resolved by the identity provider. The
// permission decision itself happens there; the engine only refuses scopes
// wider than the actor's role allows.
type Actor struct {
	ID   string
	Role models.UserRole
}

type analyticsService struct {
	repo      repositories.Repository
	logger    *slog.Logger
	validator *validator.Validator
}

func NewAnalyticsService(repo repositories.Repository, logger *slog.Logger, validator *validator.Validator) AnalyticsService {
	return &analyticsService{
		repo:      repo,
		logger:    logger,
		validator: validator,
	}
}

// ===== DATA STRUCTURES =====

type CriteriaBreakdown struct {
	Criteria            string  `json:"criteria"`
	Outstanding         int     `json:"outstanding"`
	Good                int     `json:"good"`
	RequiresImprovement int     `json:"requires_improvement"`
	Inadequate          int     `json:"inadequate"`
	Total               int     `json:"total"`
	Average             float64 `json:"average"`
}

type TrendPoint struct {
	Date                string   `json:"date"`
	AverageScore        float64  `json:"average_score"`
	TotalObservations   int      `json:"total_observations"`
	Outstanding         int      `json:"outstanding"`
	Good                int      `json:"good"`
	RequiresImprovement int      `json:"requires_improvement"`
	Inadequate          int      `json:"inadequate"`
	MovingAverage       *float64 `json:"moving_average,omitempty"`
}

type DistributionEntry struct {
	Label               string  `json:"label"`
	Total               int     `json:"total"`
	Gradeable           int     `json:"gradeable"`
	Outstanding         int     `json:"outstanding"`
	Good                int     `json:"good"`
	RequiresImprovement int     `json:"requires_improvement"`
	Inadequate          int     `json:"inadequate"`
	Average             float64 `json:"average"`
	Percentage          float64 `json:"percentage"`
}

type StaffAnalysis struct {
	StaffData    []StaffMemberStats `json:"staff_data"`
	ObserverData []ObserverStats    `json:"observer_data"`
	GeneratedAt  time.Time          `json:"generated_at"`
}

type StaffMemberStats struct {
	TeacherID           string         `json:"teacher_id"`
	TeacherName         string         `json:"teacher_name"`
	TotalObservations   int            `json:"total_observations"`
	Average             float64        `json:"average"`
	Outstanding         int            `json:"outstanding"`
	Good                int            `json:"good"`
	RequiresImprovement int            `json:"requires_improvement"`
	Inadequate          int            `json:"inadequate"`
	Trend               TrendDirection `json:"trend,omitempty"`
}

type ObserverStats struct {
	ObserverID        string  `json:"observer_id"`
	ObserverName      string  `json:"observer_name"`
	TotalObservations int     `json:"total_observations"`
	AverageScoreGiven float64 `json:"average_score_given"`
}

// ===== CRITERIA BREAKDOWN =====

func (s *analyticsService) GetCriteriaBreakdown(ctx context.Context, scope repositories.ObservationScope, actor Actor) ([]CriteriaBreakdown, error) {
	records, err := s.fetchScoped(ctx, scope, actor, "criteria_breakdown")
	if err != nil {
		return nil, err
	}

	type criteriaAccum struct {
		counts models.GradeCounts
		sum    float64
		n      int
	}
	accum := make(map[string]*criteriaAccum)
	order := make([]string, 0)

	for _, record := range records {
		if len(record.CriteriaScores) == 0 {
			continue
		}
		var scores map[string]float64
		if err := json.Unmarshal(record.CriteriaScores, &scores); err != nil {
			s.logger.Warn("Skipping malformed criteria scores",
				"observation_id", record.ID, "error", err)
			continue
		}
		for criteria, score := range scores {
			if score <= 0 {
				continue
			}
			entry, ok := accum[criteria]
			if !ok {
				entry = &criteriaAccum{}
				accum[criteria] = entry
				order = append(order, criteria)
			}
			entry.counts.Add(models.ClassifyScore(score))
			entry.sum += score
			entry.n++
		}
	}

	breakdown := make([]CriteriaBreakdown, 0, len(accum))
	for _, criteria := range sortedKeys(accum) {
		entry := accum[criteria]
		breakdown = append(breakdown, CriteriaBreakdown{
			Criteria:            criteria,
			Outstanding:         entry.counts.Outstanding,
			Good:                entry.counts.Good,
			RequiresImprovement: entry.counts.RequiresImprovement,
			Inadequate:          entry.counts.Inadequate,
			Total:               entry.n,
			Average:             round2(entry.sum / float64(entry.n)),
		})
	}
	return breakdown, nil
}

// ===== TRENDS =====

func (s *analyticsService) GetObservationTrends(ctx context.Context, scope repositories.ObservationScope, actor Actor) ([]TrendPoint, error) {
	records, err := s.fetchScoped(ctx, scope, actor, "observation_trends")
	if err != nil {
		return nil, err
	}

	buckets := AggregateBy(records, GroupByDate)
	ordered := SortedBuckets(buckets)

	points := make([]TrendPoint, 0, len(ordered))
	dailyAverages := make([]float64, 0, len(ordered))

	for _, bucket := range ordered {
		points = append(points, TrendPoint{
			Date:                bucket.Key,
			AverageScore:        round2(bucket.Average()),
			TotalObservations:   bucket.Total,
			Outstanding:         bucket.Grades.Outstanding,
			Good:                bucket.Grades.Good,
			RequiresImprovement: bucket.Grades.RequiresImprovement,
			Inadequate:          bucket.Grades.Inadequate,
		})
		dailyAverages = append(dailyAverages, bucket.Average())
	}

	for i, avg := range MovingAverage(dailyAverages, recentWindowSize) {
		points[i].MovingAverage = avg
	}

	return points, nil
}

// ===== DISTRIBUTIONS =====

func (s *analyticsService) GetSubjectDistribution(ctx context.Context, scope repositories.ObservationScope, actor Actor) ([]DistributionEntry, error) {
	return s.distribution(ctx, scope, actor, "subject_distribution", GroupBySubject)
}

func (s *analyticsService) GetTypeDistribution(ctx context.Context, scope repositories.ObservationScope, actor Actor) ([]DistributionEntry, error) {
	return s.distribution(ctx, scope, actor, "type_distribution", GroupByType)
}

func (s *analyticsService) GetKeyStageAnalysis(ctx context.Context, scope repositories.ObservationScope, actor Actor) ([]DistributionEntry, error) {
	return s.distribution(ctx, scope, actor, "key_stage_analysis", GroupByKeyStage)
}

func (s *analyticsService) distribution(ctx context.Context, scope repositories.ObservationScope, actor Actor, operation string, keyFn GroupKeyFunc) ([]DistributionEntry, error) {
	records, err := s.fetchScoped(ctx, scope, actor, operation)
	if err != nil {
		return nil, err
	}

	buckets := AggregateBy(records, keyFn)
	ordered := SortedBuckets(buckets)

	// Percentage denominators cover the gradeable records of the returned
	// (visible) set. Presentation-side toggling re-requests with a narrower
	// scope rather than recomputing shares itself.
	visibleGradeable := 0
	for _, bucket := range ordered {
		visibleGradeable += bucket.Gradeable()
	}

	entries := make([]DistributionEntry, 0, len(ordered))
	for _, bucket := range ordered {
		entry := DistributionEntry{
			Label:               bucket.Key,
			Total:               bucket.Total,
			Gradeable:           bucket.Gradeable(),
			Outstanding:         bucket.Grades.Outstanding,
			Good:                bucket.Grades.Good,
			RequiresImprovement: bucket.Grades.RequiresImprovement,
			Inadequate:          bucket.Grades.Inadequate,
			Average:             round2(bucket.Average()),
		}
		if visibleGradeable > 0 {
			entry.Percentage = round1(float64(bucket.Gradeable()) / float64(visibleGradeable) * 100)
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// ===== STAFF ANALYSIS =====

func (s *analyticsService) GetStaffAnalysis(ctx context.Context, scope repositories.ObservationScope, actor Actor) (*StaffAnalysis, error) {
	records, err := s.fetchScoped(ctx, scope, actor, "staff_analysis")
	if err != nil {
		return nil, err
	}

	teacherBuckets := AggregateBy(records, GroupByTeacher)
	observerBuckets := AggregateBy(records, GroupByObserver)

	ids := make([]string, 0, len(teacherBuckets)+len(observerBuckets))
	for id := range teacherBuckets {
		ids = append(ids, id)
	}
	for id := range observerBuckets {
		ids = append(ids, id)
	}
	names, err := s.repo.User().GetByIDs(ctx, ids)
	if err != nil {
		// Staff names are decoration; the aggregate is still valid.
		s.logger.Warn("Failed to resolve staff names", "error", err)
		names = map[string]*models.User{}
	}

	// Per-teacher score series, date-ordered, for the trend classification.
	seriesByTeacher := make(map[string][]float64)
	for _, record := range records {
		if score := record.ResolvedScore(); score > 0 {
			seriesByTeacher[record.TeacherID] = append(seriesByTeacher[record.TeacherID], score)
		}
	}

	analysis := &StaffAnalysis{
		StaffData:    make([]StaffMemberStats, 0, len(teacherBuckets)),
		ObserverData: make([]ObserverStats, 0, len(observerBuckets)),
		GeneratedAt:  time.Now(),
	}

	for _, bucket := range SortedBuckets(teacherBuckets) {
		stats := StaffMemberStats{
			TeacherID:           bucket.Key,
			TeacherName:         displayName(names, bucket.Key),
			TotalObservations:   bucket.Total,
			Average:             round2(bucket.Average()),
			Outstanding:         bucket.Grades.Outstanding,
			Good:                bucket.Grades.Good,
			RequiresImprovement: bucket.Grades.RequiresImprovement,
			Inadequate:          bucket.Grades.Inadequate,
		}
		if halves, ok := CompareHalves(seriesByTeacher[bucket.Key]); ok {
			stats.Trend = halves.Direction
		}
		analysis.StaffData = append(analysis.StaffData, stats)
	}

	for _, bucket := range SortedBuckets(observerBuckets) {
		analysis.ObserverData = append(analysis.ObserverData, ObserverStats{
			ObserverID:        bucket.Key,
			ObserverName:      displayName(names, bucket.Key),
			TotalObservations: bucket.Total,
			AverageScoreGiven: round2(bucket.Average()),
		})
	}

	return analysis, nil
}

// ===== VOLUME COUNTERS =====

func (s *analyticsService) GetObservationCounts(ctx context.Context, scope repositories.ObservationScope, actor Actor) (*repositories.ObservationCounts, error) {
	if err := ValidateScope(scope); err != nil {
		return nil, err
	}

	scope, err := AuthorizeScope(scope, actor)
	if err != nil {
		return nil, err
	}

	counts, err := s.repo.Observation().CountByScope(ctx, scope)
	if err != nil {
		s.logger.Error("Observation count query failed", "actor_id", actor.ID, "error", err)
		return nil, fmt.Errorf("%w: %v", ErrObservationFetchFailed, err)
	}
	return counts, nil
}

// ===== HELPER FUNCTIONS =====

// fetchScoped validates the scope, narrows it to what the actor may see, and
// loads the matching rows. A store failure surfaces as a typed fetch error
// so each dashboard dimension can fail independently.
func (s *analyticsService) fetchScoped(ctx context.Context, scope repositories.ObservationScope, actor Actor, operation string) ([]*models.Observation, error) {
	if err := ValidateScope(scope); err != nil {
		return nil, err
	}

	scope, err := AuthorizeScope(scope, actor)
	if err != nil {
		return nil, err
	}

	records, err := s.repo.Observation().ListByScope(ctx, scope)
	if err != nil {
		s.logger.Error("Observation query failed",
			"operation", operation, "actor_id", actor.ID, "error", err)
		return nil, fmt.Errorf("%w: %v", ErrObservationFetchFailed, err)
	}

	s.logger.Debug("Fetched observations for aggregation",
		"operation", operation, "count", len(records))
	return records, nil
}

// ValidateScope rejects malformed scopes before any query. Reversed date
// bounds are an error, never silently swapped.
func ValidateScope(scope repositories.ObservationScope) error {
	if scope.DateFrom != nil && scope.DateTo != nil && scope.DateFrom.After(*scope.DateTo) {
		return ErrScopeInvalidDateRange
	}
	return nil
}

// AuthorizeScope narrows the scope to what the actor's role permits.
// Admins and observers see everything. Teachers see only their own records:
// an unconstrained teacher scope is narrowed to them, and a scope naming
// anyone else is refused.
func AuthorizeScope(scope repositories.ObservationScope, actor Actor) (repositories.ObservationScope, error) {
	switch actor.Role {
	case models.RoleAdmin, models.RoleObserver:
		return scope, nil
	case models.RoleTeacher:
		if len(scope.TeacherIDs) == 0 {
			return scope.WithTeachers(actor.ID), nil
		}
		for _, id := range scope.TeacherIDs {
			if id != actor.ID {
				return scope, ErrScopeOutsidePermitted
			}
		}
		return scope, nil
	default:
		return scope, NewPermissionError(actor.ID, "analytics", "aggregate", "unrecognised role")
	}
}

func displayName(users map[string]*models.User, id string) string {
	if user, ok := users[id]; ok {
		return user.FullName
	}
	return id
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
