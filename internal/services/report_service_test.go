package services

import (
	"context"
	"errors"
	"testing"

	"github.com/lessonlens/observation-service/internal/cache"
	"github.com/lessonlens/observation-service/internal/events"
	"github.com/lessonlens/observation-service/internal/models"
	"github.com/lessonlens/observation-service/internal/narrative"
	"github.com/lessonlens/observation-service/internal/repositories"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestHeaderSectionSplitter(t *testing.T) {
	splitter := NewHeaderSectionSplitter()

	t.Run("recognised headers become sections", func(t *testing.T) {
		text := "EXECUTIVE SUMMARY\nA strong term overall.\n\nKEY FINDINGS\nMaths leads the school.\n\nRECOMMENDATIONS\nShare practice."

		sections := splitter.Split(text)

		if assert.Len(t, sections, 3) {
			assert.Equal(t, "Executive Summary", sections[0].Title)
			assert.Equal(t, "A strong term overall.", sections[0].Content)
			assert.Equal(t, "Key Findings", sections[1].Title)
			assert.Equal(t, "Recommendations", sections[2].Title)
		}
	})

	t.Run("inline header content is kept", func(t *testing.T) {
		sections := splitter.Split("KEY FINDINGS: Maths leads the school.")

		if assert.Len(t, sections, 1) {
			assert.Equal(t, "Key Findings", sections[0].Title)
			assert.Equal(t, "Maths leads the school.", sections[0].Content)
		}
	})

	t.Run("no recognised header falls back to a single section", func(t *testing.T) {
		sections := splitter.Split("Just a paragraph of prose without structure.")

		if assert.Len(t, sections, 1) {
			assert.Equal(t, "Analysis Report", sections[0].Title)
			assert.Equal(t, "Just a paragraph of prose without structure.", sections[0].Content)
		}
	})

	t.Run("leading text keeps the fallback title", func(t *testing.T) {
		text := "An introduction line.\nKEY FINDINGS\nMaths leads."

		sections := splitter.Split(text)

		if assert.Len(t, sections, 2) {
			assert.Equal(t, "Analysis Report", sections[0].Title)
			assert.Equal(t, "An introduction line.", sections[0].Content)
			assert.Equal(t, "Key Findings", sections[1].Title)
		}
	})

	t.Run("empty text yields no sections", func(t *testing.T) {
		assert.Empty(t, splitter.Split("  \n "))
	})

	t.Run("lowercase header is not a header", func(t *testing.T) {
		sections := splitter.Split("key findings\nnothing here is a header")

		if assert.Len(t, sections, 1) {
			assert.Equal(t, "Analysis Report", sections[0].Title)
		}
	})
}

type reportFixture struct {
	service   ReportService
	store     *cache.MemoryReportStore
	generator *narrative.MockGenerator
	publisher *events.MockEventPublisher
	repo      *MockRepository
}

func newReportFixture(t *testing.T, records []*models.Observation, generator *narrative.MockGenerator) *reportFixture {
	t.Helper()
	mockRepo := newMockRepository()
	mockRepo.observationRepo.On("ListByScope", mock.Anything, mock.Anything).Return(records, nil)
	if len(records) > 0 {
		mockRepo.userRepo.On("GetByIDs", mock.Anything, mock.Anything).Return(map[string]*models.User{}, nil)
	}

	logger := testLogger()
	store := cache.NewMemoryReportStore()
	publisher := events.NewMockEventPublisher(logger)
	v := testValidator()
	insights := NewInsightService(mockRepo, logger, v)

	return &reportFixture{
		service:   NewReportService(mockRepo, insights, generator, store, publisher, logger, v),
		store:     store,
		generator: generator,
		publisher: publisher,
		repo:      mockRepo,
	}
}

func TestReportService_GenerateReport(t *testing.T) {
	records := []*models.Observation{
		gradedObservation("o1", "t1", "Maths", models.GradeOutstanding, 0),
		gradedObservation("o2", "t2", "English", models.GradeGood, 1),
		ungradedObservation("o3", "t2", "English", 2),
	}
	generator := &narrative.MockGenerator{
		Text: "EXECUTIVE SUMMARY\nA good term.\n\nKEY FINDINGS\nMaths is strong.",
	}
	fixture := newReportFixture(t, records, generator)

	report, err := fixture.service.GenerateReport(
		context.Background(), repositories.ObservationScope{}, models.ReportWholeSchool, adminActor)

	assert.NoError(t, err)
	assert.NotEmpty(t, report.ID)
	assert.Equal(t, models.ReportWholeSchool, report.Type)
	assert.Equal(t, "Whole School Observation Report", report.Title)
	assert.Equal(t, adminActor.ID, report.GeneratedBy)

	// Totals count every record; averages only the gradeable ones.
	assert.Equal(t, 3, report.Summary.TotalObservations)
	assert.InDelta(t, 3.5, report.Summary.AverageScore, 0.001)

	// Narrative sections precede the computed statistics sections.
	titles := make([]string, 0, len(report.Sections))
	for _, section := range report.Sections {
		titles = append(titles, section.Title)
	}
	// o1's Outstanding grade nominates t1 for peer observation, so a
	// follow-up actions section trails the statistics.
	assert.Equal(t, []string{"Executive Summary", "Key Findings", "Summary Statistics", "Follow-up Actions"}, titles)

	// The report is retrievable from the store.
	stored, err := fixture.service.GetReport(context.Background(), report.ID)
	assert.NoError(t, err)
	assert.Equal(t, report.ID, stored.ID)

	// A generation event and an insights event went out.
	published := fixture.publisher.GetPublishedEvents()
	if assert.Len(t, published, 2) {
		assert.Equal(t, events.EventReportGenerated, published[0].Type)
		assert.Equal(t, events.EventInsightsGenerated, published[1].Type)
	}

	// The generator received the report prompt.
	assert.Len(t, generator.Calls, 1)
}

func TestReportService_NarrativeFailureStillShipsStatistics(t *testing.T) {
	records := []*models.Observation{
		gradedObservation("o1", "t1", "Maths", models.GradeGood, 0),
	}
	generator := &narrative.MockGenerator{Err: errors.New("model timeout")}
	fixture := newReportFixture(t, records, generator)

	report, err := fixture.service.GenerateReport(
		context.Background(), repositories.ObservationScope{}, models.ReportDepartment, adminActor)

	assert.NoError(t, err)
	if assert.NotEmpty(t, report.Sections) {
		assert.Equal(t, "Summary Statistics", report.Sections[0].Title)
	}

	stored, err := fixture.service.GetReport(context.Background(), report.ID)
	assert.NoError(t, err)
	assert.NotNil(t, stored)
}

func TestReportService_InvalidType(t *testing.T) {
	fixture := newReportFixture(t, []*models.Observation{}, &narrative.MockGenerator{})

	_, err := fixture.service.GenerateReport(
		context.Background(), repositories.ObservationScope{}, models.ReportType("quarterly"), adminActor)

	assert.ErrorIs(t, err, ErrReportInvalidType)
	fixture.repo.observationRepo.AssertNotCalled(t, "ListByScope")
}

func TestReportService_TeacherScopeNarrowed(t *testing.T) {
	fixture := newReportFixture(t, []*models.Observation{}, &narrative.MockGenerator{})

	report, err := fixture.service.GenerateReport(
		context.Background(), repositories.ObservationScope{}, models.ReportTeacher, teacherActor)

	assert.NoError(t, err)
	assert.Equal(t, []string{teacherActor.ID}, report.Scope.TeacherIDs)
}

func TestReportService_GetReport_Unknown(t *testing.T) {
	fixture := newReportFixture(t, []*models.Observation{}, &narrative.MockGenerator{})

	_, err := fixture.service.GetReport(context.Background(), "missing-id")

	assert.ErrorIs(t, err, ErrReportNotFound)
	assert.True(t, IsNotFound(err))
}
