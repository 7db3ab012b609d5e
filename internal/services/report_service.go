package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lessonlens/observation-service/internal/cache"
	"github.com/lessonlens/observation-service/internal/events"
	"github.com/lessonlens/observation-service/internal/models"
	"github.com/lessonlens/observation-service/internal/narrative"
	"github.com/lessonlens/observation-service/internal/repositories"
	"github.com/lessonlens/observation-service/internal/validator"
)

// ReportService assembles observation statistics, rule-based findings and
// optional externally generated prose into an immutable report object.
type ReportService interface {
	GenerateReport(ctx context.Context, scope repositories.ObservationScope, reportType models.ReportType, actor Actor) (*models.Report, error)
	GetReport(ctx context.Context, id string) (*models.Report, error)
}

type reportService struct {
	repo      repositories.Repository
	insights  InsightService
	generator narrative.Generator
	store     cache.ReportStore
	publisher events.EventPublisher
	splitter  SectionSplitter
	logger    *slog.Logger
	validator *validator.Validator
}

func NewReportService(
	repo repositories.Repository,
	insights InsightService,
	generator narrative.Generator,
	store cache.ReportStore,
	publisher events.EventPublisher,
	logger *slog.Logger,
	validator *validator.Validator,
) ReportService {
	return &reportService{
		repo:      repo,
		insights:  insights,
		generator: generator,
		store:     store,
		publisher: publisher,
		splitter:  NewHeaderSectionSplitter(),
		logger:    logger,
		validator: validator,
	}
}

// ===== SECTION SPLITTING =====

// SectionSplitter turns free-form narrative text into named report sections.
// The header-matching rules are pluggable so alternate narrative formats can
// be supported without touching the assembler.
type SectionSplitter interface {
	Split(text string) []models.ReportSection
}

// sectionMatcher pairs a section title with the header line that starts it.
type sectionMatcher struct {
	Label   string
	Matcher func(line string) bool
}

// HeaderSectionSplitter locates fixed uppercase headers in the narrative and
// slices the text between them. Text before the first header, or text with
// no recognised header at all, becomes a single "Analysis Report" section so
// the report object is never empty.
type HeaderSectionSplitter struct {
	matchers []sectionMatcher
}

const fallbackSectionTitle = "Analysis Report"

func NewHeaderSectionSplitter() *HeaderSectionSplitter {
	headers := []string{
		"EXECUTIVE SUMMARY",
		"KEY FINDINGS",
		"DETAILED ANALYSIS",
		"RECOMMENDATIONS",
		"ACTION POINTS",
	}
	matchers := make([]sectionMatcher, 0, len(headers))
	for _, header := range headers {
		header := header
		matchers = append(matchers, sectionMatcher{
			Label: titleCase(header),
			Matcher: func(line string) bool {
				return strings.TrimSpace(line) == header ||
					strings.HasPrefix(strings.TrimSpace(line), header+":")
			},
		})
	}
	return &HeaderSectionSplitter{matchers: matchers}
}

func (s *HeaderSectionSplitter) Split(text string) []models.ReportSection {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	type boundary struct {
		label string
		start int // line index of the header
	}
	lines := strings.Split(text, "\n")
	var boundaries []boundary
	for i, line := range lines {
		for _, m := range s.matchers {
			if m.Matcher(line) {
				boundaries = append(boundaries, boundary{label: m.Label, start: i})
				break
			}
		}
	}

	if len(boundaries) == 0 {
		return []models.ReportSection{{
			ID:      sectionID(fallbackSectionTitle),
			Title:   fallbackSectionTitle,
			Content: text,
			Type:    "narrative",
		}}
	}

	var sections []models.ReportSection

	// Leading text before the first header keeps the fallback title.
	if lead := strings.TrimSpace(strings.Join(lines[:boundaries[0].start], "\n")); lead != "" {
		sections = append(sections, models.ReportSection{
			ID:      sectionID(fallbackSectionTitle),
			Title:   fallbackSectionTitle,
			Content: lead,
			Type:    "narrative",
		})
	}

	for i, b := range boundaries {
		end := len(lines)
		if i+1 < len(boundaries) {
			end = boundaries[i+1].start
		}
		content := strings.TrimSpace(strings.Join(lines[b.start+1:end], "\n"))
		// Inline "HEADER: content" form
		if idx := strings.Index(lines[b.start], ":"); idx >= 0 {
			if inline := strings.TrimSpace(lines[b.start][idx+1:]); inline != "" {
				if content == "" {
					content = inline
				} else {
					content = inline + "\n" + content
				}
			}
		}
		if content == "" {
			continue
		}
		sections = append(sections, models.ReportSection{
			ID:      sectionID(b.label),
			Title:   b.label,
			Content: content,
			Type:    "narrative",
		})
	}

	if len(sections) == 0 {
		sections = append(sections, models.ReportSection{
			ID:      sectionID(fallbackSectionTitle),
			Title:   fallbackSectionTitle,
			Content: text,
			Type:    "narrative",
		})
	}
	return sections
}

// ===== REPORT GENERATION =====

func (s *reportService) GenerateReport(ctx context.Context, scope repositories.ObservationScope, reportType models.ReportType, actor Actor) (*models.Report, error) {
	switch reportType {
	case models.ReportWholeSchool, models.ReportDepartment, models.ReportTeacher, models.ReportKeyStage:
	default:
		return nil, ErrReportInvalidType
	}
	if err := ValidateScope(scope); err != nil {
		return nil, err
	}
	scope, err := AuthorizeScope(scope, actor)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Generating report", "type", reportType, "actor_id", actor.ID)

	records, err := s.repo.Observation().ListByScope(ctx, scope)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrObservationFetchFailed, err)
	}

	bundle, err := s.insights.GenerateInsights(ctx, scope, actor)
	if err != nil {
		return nil, err
	}

	summary := buildSummary(records, bundle)

	report := &models.Report{
		ID:          uuid.NewString(),
		Title:       reportTitle(reportType),
		Type:        reportType,
		GeneratedAt: time.Now(),
		GeneratedBy: actor.ID,
		Scope:       toReportScope(scope),
		Summary:     summary,
	}

	// Narrative prose is a best-effort enrichment: if the hosted service
	// fails, the report still ships with its computed statistics sections.
	prose, err := s.generator.Generate(ctx, reportPrompt(reportType), buildNarrativeContext(records, summary))
	if err != nil {
		s.logger.Warn("Narrative generation failed, assembling statistics-only report",
			"report_id", report.ID, "error", err)
	} else {
		report.Sections = s.splitter.Split(prose)
	}
	report.Sections = append(report.Sections, statisticsSections(records, summary, bundle)...)

	if err := s.store.Save(ctx, report); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrReportStoreFailed, err)
	}

	// Event delivery is not part of the generation contract.
	if err := s.publisher.PublishReportEvent(ctx, events.NewReportGeneratedEvent(report)); err != nil {
		s.logger.Warn("Failed to publish report event", "report_id", report.ID, "error", err)
	}
	insightsEvent := events.NewInsightsGeneratedEvent(
		len(bundle.Insights), len(bundle.Recommendations), len(bundle.ActionItems))
	if err := s.publisher.PublishReportEvent(ctx, insightsEvent); err != nil {
		s.logger.Warn("Failed to publish insights event", "report_id", report.ID, "error", err)
	}

	return report, nil
}

func (s *reportService) GetReport(ctx context.Context, id string) (*models.Report, error) {
	report, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if report == nil {
		return nil, ErrReportNotFound
	}
	return report, nil
}

// ===== ASSEMBLY HELPERS =====

func buildSummary(records []*models.Observation, bundle *InsightBundle) models.ReportSummary {
	var counts models.GradeCounts
	var sum float64
	gradeable := 0
	for _, record := range records {
		if score := record.ResolvedScore(); score > 0 {
			counts.Add(record.EffectiveGrade())
			sum += score
			gradeable++
		}
	}

	summary := models.ReportSummary{
		TotalObservations: len(records),
		KeyFindings:       []string{},
		Recommendations:   []string{},
	}
	if gradeable > 0 {
		summary.AverageScore = round2(sum / float64(gradeable))
	}
	for _, insight := range bundle.Insights {
		summary.KeyFindings = append(summary.KeyFindings, insight.Text)
	}
	for _, rec := range bundle.Recommendations {
		summary.Recommendations = append(summary.Recommendations, rec.Text)
	}
	return summary
}

func statisticsSections(records []*models.Observation, summary models.ReportSummary, bundle *InsightBundle) []models.ReportSection {
	var sections []models.ReportSection

	var counts models.GradeCounts
	for _, record := range records {
		counts.Add(record.EffectiveGrade())
	}
	shares := GradePercentages(counts)

	overview := fmt.Sprintf("Total observations: %d\nAverage score: %.2f",
		summary.TotalObservations, summary.AverageScore)
	for _, grade := range models.AllGrades {
		overview += fmt.Sprintf("\n%s: %.1f%%", grade, shares[grade])
	}
	sections = append(sections, models.ReportSection{
		ID:      sectionID("Summary Statistics"),
		Title:   "Summary Statistics",
		Content: overview,
		Type:    "statistics",
	})

	if len(bundle.ActionItems) > 0 {
		lines := make([]string, 0, len(bundle.ActionItems))
		for _, item := range bundle.ActionItems {
			if item.TeacherName != "" {
				lines = append(lines, fmt.Sprintf("%s: %s", item.TeacherName, item.Description))
			} else {
				lines = append(lines, item.Description)
			}
		}
		sections = append(sections, models.ReportSection{
			ID:      sectionID("Follow-up Actions"),
			Title:   "Follow-up Actions",
			Content: strings.Join(lines, "\n"),
			Type:    "actions",
		})
	}
	return sections
}

func buildNarrativeContext(records []*models.Observation, summary models.ReportSummary) narrative.StructuredContext {
	var counts models.GradeCounts
	subjectAverages := make(map[string]float64)
	for _, bucket := range AggregateBy(records, GroupBySubject) {
		counts.Merge(bucket.Grades)
		if bucket.Key != "" && bucket.Gradeable() > 0 {
			subjectAverages[bucket.Key] = round2(bucket.Average())
		}
	}

	themes := ExtractThemes(CollectDevelopmentText(records))
	themeLabels := make([]string, 0, len(themes))
	for _, theme := range themes {
		themeLabels = append(themeLabels, theme.Theme)
	}

	return narrative.StructuredContext{
		TotalObservations: summary.TotalObservations,
		AverageScore:      summary.AverageScore,
		GradeCounts: map[string]int{
			"outstanding":          counts.Outstanding,
			"good":                 counts.Good,
			"requires_improvement": counts.RequiresImprovement,
			"inadequate":           counts.Inadequate,
		},
		DimensionAverages: subjectAverages,
		TopThemes:         themeLabels,
		KeyFindings:       summary.KeyFindings,
	}
}

func reportTitle(reportType models.ReportType) string {
	switch reportType {
	case models.ReportWholeSchool:
		return "Whole School Observation Report"
	case models.ReportDepartment:
		return "Department Observation Report"
	case models.ReportTeacher:
		return "Teacher Observation Report"
	case models.ReportKeyStage:
		return "Key Stage Observation Report"
	default:
		return "Observation Report"
	}
}

func reportPrompt(reportType models.ReportType) string {
	return fmt.Sprintf(
		"Write a professional %s for a school leadership team. Use the headers EXECUTIVE SUMMARY, KEY FINDINGS, DETAILED ANALYSIS, RECOMMENDATIONS and ACTION POINTS.",
		strings.ToLower(reportTitle(reportType)))
}

func toReportScope(scope repositories.ObservationScope) models.ReportScope {
	return models.ReportScope{
		DateFrom:           scope.DateFrom,
		DateTo:             scope.DateTo,
		SubjectIDs:         scope.SubjectIDs,
		KeyStageIDs:        scope.KeyStageIDs,
		ObservationTypeIDs: scope.ObservationTypeIDs,
		TeacherIDs:         scope.TeacherIDs,
		DepartmentIDs:      scope.DepartmentIDs,
	}
}

func sectionID(title string) string {
	return strings.ReplaceAll(strings.ToLower(title), " ", "-")
}

func titleCase(header string) string {
	words := strings.Fields(strings.ToLower(header))
	for i, word := range words {
		words[i] = strings.ToUpper(word[:1]) + word[1:]
	}
	return strings.Join(words, " ")
}
