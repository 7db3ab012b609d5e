package services

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/lessonlens/observation-service/internal/models"
	"github.com/lessonlens/observation-service/internal/repositories"
	"github.com/lessonlens/observation-service/internal/validator"
)

// InsightService derives narrative bullet insights, recommendations and
// action items from already-computed aggregates. Heuristics only: the
// external language model is never consulted here, and identical input
// always produces identical output.
type InsightService interface {
	GenerateInsights(ctx context.Context, scope repositories.ObservationScope, actor Actor) (*InsightBundle, error)
}

type insightService struct {
	repo      repositories.Repository
	logger    *slog.Logger
	validator *validator.Validator
}

func NewInsightService(repo repositories.Repository, logger *slog.Logger, validator *validator.Validator) InsightService {
	return &insightService{
		repo:      repo,
		logger:    logger,
		validator: validator,
	}
}

// ===== DATA STRUCTURES =====

type InsightBundle struct {
	Insights        []models.Insight    `json:"insights"`
	Recommendations []models.Insight    `json:"recommendations"`
	Trends          []models.Insight    `json:"trends"`
	ActionItems     []models.ActionItem `json:"action_items"`
	GeneratedAt     time.Time           `json:"generated_at"`
}

// ===== HEURISTIC THRESHOLDS =====

const (
	// outstandingShareThreshold is the Outstanding fraction above which a
	// bucket earns a positive insight.
	outstandingShareThreshold = 0.3

	// inadequateShareThreshold is the Inadequate fraction above which a
	// bucket earns a concern insight.
	inadequateShareThreshold = 0.1

	// comparisonGapThreshold is the score gap between the best and worst
	// entry of a dimension before a comparative insight fires.
	comparisonGapThreshold = 0.25

	// supportAverageCutoff and mentorAverageCutoff bound the per-teacher
	// recommendation rules.
	supportAverageCutoff = 2.5
	mentorAverageCutoff  = 3.5

	// followUpWeeks is the action-item deadline for Inadequate observations.
	followUpWeeks = 4

	// maxExemplarTeachers caps how many teachers a peer-observation action
	// item names.
	maxExemplarTeachers = 2

	// minStrengthThemeCount is how often a strengths theme must recur before
	// it earns its own insight.
	minStrengthThemeCount = 3
)

// ===== GENERATION =====

func (s *insightService) GenerateInsights(ctx context.Context, scope repositories.ObservationScope, actor Actor) (*InsightBundle, error) {
	if err := ValidateScope(scope); err != nil {
		return nil, err
	}
	scope, err := AuthorizeScope(scope, actor)
	if err != nil {
		return nil, err
	}

	records, err := s.repo.Observation().ListByScope(ctx, scope)
	if err != nil {
		s.logger.Error("Observation query failed", "operation", "generate_insights", "error", err)
		return nil, fmt.Errorf("%w: %v", ErrObservationFetchFailed, err)
	}

	bundle := &InsightBundle{
		Insights:        []models.Insight{},
		Recommendations: []models.Insight{},
		Trends:          []models.Insight{},
		ActionItems:     []models.ActionItem{},
		GeneratedAt:     time.Now(),
	}
	if len(records) == 0 {
		return bundle, nil
	}

	names := s.resolveNames(ctx, records)

	bundle.Insights = append(bundle.Insights, distributionInsights(records)...)
	bundle.Insights = append(bundle.Insights, comparativeInsights(records, GroupBySubject, "subject")...)
	bundle.Insights = append(bundle.Insights, comparativeInsights(records, GroupByKeyStage, "key stage")...)
	bundle.Insights = append(bundle.Insights, strengthThemeInsights(records)...)
	bundle.Recommendations = teacherRecommendations(records, names)
	bundle.Trends = trendInsights(records)
	bundle.ActionItems = actionItems(records, names)

	return bundle, nil
}

// distributionInsights applies the grade-share rules to the whole scoped set.
func distributionInsights(records []*models.Observation) []models.Insight {
	var counts models.GradeCounts
	for _, record := range records {
		counts.Add(record.EffectiveGrade())
	}

	gradeable := counts.Gradeable()
	if gradeable == 0 {
		return nil
	}

	var insights []models.Insight
	outstandingShare := float64(counts.Outstanding) / float64(gradeable)
	if outstandingShare > outstandingShareThreshold {
		insights = append(insights, models.Insight{
			Kind: models.InsightStrength,
			Text: fmt.Sprintf("%.0f%% of graded observations were Outstanding; teaching quality is a clear strength.",
				outstandingShare*100),
			SupportingCount: counts.Outstanding,
		})
	}

	inadequateShare := float64(counts.Inadequate) / float64(gradeable)
	if inadequateShare > inadequateShareThreshold {
		insights = append(insights, models.Insight{
			Kind: models.InsightConcern,
			Text: fmt.Sprintf("%.0f%% of graded observations were Inadequate; this needs urgent attention.",
				inadequateShare*100),
			SupportingCount: counts.Inadequate,
		})
	}
	return insights
}

// strengthThemeInsights surfaces the dominant theme in the recorded
// strengths text when it recurs often enough to be more than anecdote.
func strengthThemeInsights(records []*models.Observation) []models.Insight {
	themes := ExtractThemes(CollectStrengthText(records))
	if len(themes) == 0 || themes[0].Count < minStrengthThemeCount {
		return nil
	}
	theme := themes[0].Theme
	return []models.Insight{{
		Kind: models.InsightStrength,
		Text: fmt.Sprintf("%s is a recurring strength, noted in %d observations.",
			strings.ToUpper(theme[:1])+theme[1:], themes[0].Count),
		SupportingCount: themes[0].Count,
	}}
}

// comparativeInsights names the strongest and weakest entry of a dimension
// when the gap between their averages is material.
func comparativeInsights(records []*models.Observation, keyFn GroupKeyFunc, dimension string) []models.Insight {
	buckets := AggregateBy(records, keyFn)

	type entry struct {
		key     string
		average float64
		n       int
	}
	entries := make([]entry, 0, len(buckets))
	for _, bucket := range SortedBuckets(buckets) {
		if bucket.Key == "" || bucket.Gradeable() == 0 {
			continue
		}
		entries = append(entries, entry{bucket.Key, bucket.Average(), bucket.Gradeable()})
	}
	if len(entries) < 2 {
		return nil
	}

	best, worst := entries[0], entries[0]
	for _, e := range entries[1:] {
		if e.average > best.average {
			best = e
		}
		if e.average < worst.average {
			worst = e
		}
	}
	if best.average-worst.average <= comparisonGapThreshold {
		return nil
	}

	return []models.Insight{{
		Kind: models.InsightTrend,
		Text: fmt.Sprintf("%s is the strongest %s (%.2f average) while %s is the weakest (%.2f); consider sharing practice between them.",
			best.key, dimension, best.average, worst.key, worst.average),
		SupportingCount: best.n + worst.n,
	}}
}

// teacherRecommendations applies the targeted-support and peer-mentor rules.
func teacherRecommendations(records []*models.Observation, names map[string]*models.User) []models.Insight {
	buckets := AggregateBy(records, GroupByTeacher)
	developmentText := make(map[string][]string)
	for _, record := range records {
		if record.AreasForDevelopment != nil && *record.AreasForDevelopment != "" {
			developmentText[record.TeacherID] = append(developmentText[record.TeacherID], *record.AreasForDevelopment)
		}
	}

	var recommendations []models.Insight
	for _, bucket := range SortedBuckets(buckets) {
		if bucket.Gradeable() == 0 {
			continue
		}
		name := displayName(names, bucket.Key)
		average := bucket.Average()

		switch {
		case average < supportAverageCutoff:
			text := fmt.Sprintf("%s (%.2f average) would benefit from targeted support", name, average)
			if themes := ExtractThemes(developmentText[bucket.Key]); len(themes) > 0 {
				if len(themes) > 2 {
					themes = themes[:2]
				}
				labels := make([]string, 0, len(themes))
				for _, theme := range themes {
					labels = append(labels, theme.Theme)
				}
				text += fmt.Sprintf(", focused on %s", strings.Join(labels, ", "))
			}
			recommendations = append(recommendations, models.Insight{
				Kind:            models.InsightRecommendation,
				Text:            text + ".",
				SupportingCount: bucket.Gradeable(),
			})
		case average > mentorAverageCutoff:
			recommendations = append(recommendations, models.Insight{
				Kind:            models.InsightRecommendation,
				Text:            fmt.Sprintf("%s (%.2f average) is well placed to mentor colleagues.", name, average),
				SupportingCount: bucket.Gradeable(),
			})
		}
	}
	return recommendations
}

// trendInsights summarises the halves and recent-window comparisons over the
// date-ordered score series.
func trendInsights(records []*models.Observation) []models.Insight {
	scores := make([]float64, 0, len(records))
	for _, record := range records {
		if score := record.ResolvedScore(); score > 0 {
			scores = append(scores, score)
		}
	}

	var insights []models.Insight
	if halves, ok := CompareHalves(scores); ok {
		switch halves.Direction {
		case TrendUp:
			insights = append(insights, models.Insight{
				Kind: models.InsightTrend,
				Text: fmt.Sprintf("Observation scores are improving: recent average %.2f, up from %.2f.",
					halves.SecondHalfAverage, halves.FirstHalfAverage),
				SupportingCount: len(scores),
			})
		case TrendDown:
			insights = append(insights, models.Insight{
				Kind: models.InsightTrend,
				Text: fmt.Sprintf("Observation scores are declining: recent average %.2f, down from %.2f.",
					halves.SecondHalfAverage, halves.FirstHalfAverage),
				SupportingCount: len(scores),
			})
		default:
			insights = append(insights, models.Insight{
				Kind:            models.InsightTrend,
				Text:            fmt.Sprintf("Observation scores are stable around %.2f.", halves.SecondHalfAverage),
				SupportingCount: len(scores),
			})
		}
	}

	window := CompareRecentWindow(scores)
	if window.Direction != TrendStable {
		insights = append(insights, models.Insight{
			Kind: models.InsightTrend,
			Text: fmt.Sprintf("The last %d observations moved %.1f%% against the previous %d.",
				recentWindowSize, window.PercentChange, recentWindowSize),
			SupportingCount: 2 * recentWindowSize,
		})
	}
	return insights
}

// actionItems derives follow-ups from individual grades: every Inadequate
// observation schedules a follow-up for its teacher, and Outstanding
// observations nominate up to two exemplary teachers for peer observation.
func actionItems(records []*models.Observation, names map[string]*models.User) []models.ActionItem {
	followUps := make(map[string]int)
	exemplarCounts := make(map[string]int)

	for _, record := range records {
		switch record.EffectiveGrade() {
		case models.GradeInadequate:
			followUps[record.TeacherID]++
		case models.GradeOutstanding:
			exemplarCounts[record.TeacherID]++
		}
	}

	items := make([]models.ActionItem, 0, len(followUps)+1)
	for _, teacherID := range sortedKeys(followUps) {
		items = append(items, models.ActionItem{
			TeacherID:   teacherID,
			TeacherName: displayName(names, teacherID),
			Description: fmt.Sprintf("Schedule a follow-up observation within %d weeks.", followUpWeeks),
			DueInWeeks:  followUpWeeks,
		})
	}

	if len(exemplarCounts) > 0 {
		type exemplar struct {
			id    string
			count int
		}
		exemplars := make([]exemplar, 0, len(exemplarCounts))
		for _, id := range sortedKeys(exemplarCounts) {
			exemplars = append(exemplars, exemplar{id, exemplarCounts[id]})
		}
		sort.SliceStable(exemplars, func(i, j int) bool {
			return exemplars[i].count > exemplars[j].count
		})
		if len(exemplars) > maxExemplarTeachers {
			exemplars = exemplars[:maxExemplarTeachers]
		}

		labels := make([]string, 0, len(exemplars))
		for _, e := range exemplars {
			labels = append(labels, displayName(names, e.id))
		}
		items = append(items, models.ActionItem{
			Description: fmt.Sprintf("Arrange peer-observation opportunities with %s.", strings.Join(labels, " and ")),
		})
	}

	return items
}

func (s *insightService) resolveNames(ctx context.Context, records []*models.Observation) map[string]*models.User {
	seen := make(map[string]struct{})
	ids := make([]string, 0)
	for _, record := range records {
		if _, ok := seen[record.TeacherID]; !ok {
			seen[record.TeacherID] = struct{}{}
			ids = append(ids, record.TeacherID)
		}
	}

	names, err := s.repo.User().GetByIDs(ctx, ids)
	if err != nil {
		s.logger.Warn("Failed to resolve teacher names for insights", "error", err)
		return map[string]*models.User{}
	}
	return names
}
