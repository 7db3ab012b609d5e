package services

import (
	"context"
	"strings"
	"testing"

	"github.com/lessonlens/observation-service/internal/models"
	"github.com/lessonlens/observation-service/internal/repositories"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func newInsightFixture(t *testing.T, records []*models.Observation, names map[string]*models.User) InsightService {
	t.Helper()
	mockRepo := newMockRepository()
	mockRepo.observationRepo.On("ListByScope", mock.Anything, mock.Anything).Return(records, nil)
	if len(records) > 0 {
		if names == nil {
			names = map[string]*models.User{}
		}
		mockRepo.userRepo.On("GetByIDs", mock.Anything, mock.Anything).Return(names, nil)
	}
	return NewInsightService(mockRepo, testLogger(), testValidator())
}

func TestInsightService_EmptyScopeYieldsEmptyBundle(t *testing.T) {
	service := newInsightFixture(t, []*models.Observation{}, nil)

	bundle, err := service.GenerateInsights(context.Background(), repositories.ObservationScope{}, adminActor)

	assert.NoError(t, err)
	assert.NotNil(t, bundle.Insights)
	assert.NotNil(t, bundle.Recommendations)
	assert.NotNil(t, bundle.Trends)
	assert.NotNil(t, bundle.ActionItems)
	assert.Empty(t, bundle.Insights)
	assert.Empty(t, bundle.ActionItems)
	assert.False(t, bundle.GeneratedAt.IsZero())
}

func TestDistributionInsights(t *testing.T) {
	t.Run("high outstanding share is a strength", func(t *testing.T) {
		records := []*models.Observation{
			gradedObservation("o1", "t1", "Maths", models.GradeOutstanding, 0),
			gradedObservation("o2", "t1", "Maths", models.GradeOutstanding, 1),
			gradedObservation("o3", "t2", "Maths", models.GradeGood, 2),
		}

		insights := distributionInsights(records)

		if assert.Len(t, insights, 1) {
			assert.Equal(t, models.InsightStrength, insights[0].Kind)
			assert.Equal(t, 2, insights[0].SupportingCount)
		}
	})

	t.Run("high inadequate share is a concern", func(t *testing.T) {
		records := []*models.Observation{
			gradedObservation("o1", "t1", "Maths", models.GradeGood, 0),
			gradedObservation("o2", "t1", "Maths", models.GradeGood, 1),
			gradedObservation("o3", "t1", "Maths", models.GradeGood, 2),
			gradedObservation("o4", "t2", "Maths", models.GradeInadequate, 3),
		}

		insights := distributionInsights(records)

		if assert.Len(t, insights, 1) {
			assert.Equal(t, models.InsightConcern, insights[0].Kind)
		}
	})

	t.Run("share exactly at threshold does not fire", func(t *testing.T) {
		// 3 of 10 Outstanding and 1 of 10 Inadequate sit exactly on the
		// thresholds; both rules require strictly greater.
		records := []*models.Observation{
			gradedObservation("o1", "t1", "Maths", models.GradeOutstanding, 0),
			gradedObservation("o2", "t1", "Maths", models.GradeOutstanding, 1),
			gradedObservation("o3", "t1", "Maths", models.GradeOutstanding, 2),
			gradedObservation("o4", "t1", "Maths", models.GradeInadequate, 3),
			gradedObservation("o5", "t1", "Maths", models.GradeGood, 4),
			gradedObservation("o6", "t1", "Maths", models.GradeGood, 5),
			gradedObservation("o7", "t1", "Maths", models.GradeGood, 6),
			gradedObservation("o8", "t1", "Maths", models.GradeGood, 7),
			gradedObservation("o9", "t1", "Maths", models.GradeGood, 8),
			gradedObservation("o10", "t1", "Maths", models.GradeGood, 9),
		}

		assert.Empty(t, distributionInsights(records))
	})

	t.Run("ungraded records excluded from shares", func(t *testing.T) {
		records := []*models.Observation{
			gradedObservation("o1", "t1", "Maths", models.GradeOutstanding, 0),
			ungradedObservation("o2", "t1", "Maths", 1),
			ungradedObservation("o3", "t1", "Maths", 2),
		}

		insights := distributionInsights(records)

		// 1 of 1 gradeable is Outstanding, not 1 of 3.
		if assert.Len(t, insights, 1) {
			assert.Equal(t, models.InsightStrength, insights[0].Kind)
		}
	})
}

func TestComparativeInsights(t *testing.T) {
	t.Run("material gap names best and worst", func(t *testing.T) {
		records := []*models.Observation{
			gradedObservation("o1", "t1", "Maths", models.GradeOutstanding, 0),
			gradedObservation("o2", "t2", "English", models.GradeRequiresImprovement, 1),
		}

		insights := comparativeInsights(records, GroupBySubject, "subject")

		if assert.Len(t, insights, 1) {
			assert.Contains(t, insights[0].Text, "Maths")
			assert.Contains(t, insights[0].Text, "English")
			assert.Contains(t, insights[0].Text, "subject")
		}
	})

	t.Run("narrow gap stays silent", func(t *testing.T) {
		records := []*models.Observation{
			gradedObservation("o1", "t1", "Maths", models.GradeGood, 0),
			gradedObservation("o2", "t2", "English", models.GradeGood, 1),
		}

		assert.Empty(t, comparativeInsights(records, GroupBySubject, "subject"))
	})

	t.Run("single entry stays silent", func(t *testing.T) {
		records := []*models.Observation{
			gradedObservation("o1", "t1", "Maths", models.GradeOutstanding, 0),
		}

		assert.Empty(t, comparativeInsights(records, GroupBySubject, "subject"))
	})
}

func TestStrengthThemeInsights(t *testing.T) {
	t.Run("recurring strengths theme surfaces", func(t *testing.T) {
		records := []*models.Observation{
			gradedObservation("o1", "t1", "Maths", models.GradeGood, 0),
			gradedObservation("o2", "t2", "Maths", models.GradeGood, 1),
			gradedObservation("o3", "t3", "Maths", models.GradeGood, 2),
		}
		for _, record := range records {
			record.Strengths = stringPtr("Skilful questioning throughout")
		}

		insights := strengthThemeInsights(records)

		if assert.Len(t, insights, 1) {
			assert.Equal(t, models.InsightStrength, insights[0].Kind)
			assert.Contains(t, insights[0].Text, "Questioning")
			assert.Equal(t, 3, insights[0].SupportingCount)
		}
	})

	t.Run("two mentions stay silent", func(t *testing.T) {
		records := []*models.Observation{
			gradedObservation("o1", "t1", "Maths", models.GradeGood, 0),
			gradedObservation("o2", "t2", "Maths", models.GradeGood, 1),
		}
		for _, record := range records {
			record.Strengths = stringPtr("Strong feedback culture")
		}

		assert.Empty(t, strengthThemeInsights(records))
	})
}

func TestInsightService_TeacherRecommendations(t *testing.T) {
	records := []*models.Observation{
		gradedObservation("o1", "t-low", "Maths", models.GradeInadequate, 0),
		gradedObservation("o2", "t-low", "Maths", models.GradeRequiresImprovement, 1),
		gradedObservation("o3", "t-high", "Maths", models.GradeOutstanding, 2),
		gradedObservation("o4", "t-mid", "Maths", models.GradeGood, 3),
	}
	records[0].AreasForDevelopment = stringPtr("differentiation was missing")
	records[1].AreasForDevelopment = stringPtr("pace and differentiation both need work")

	service := newInsightFixture(t, records, map[string]*models.User{
		"t-low":  {ID: "t-low", FullName: "Jo Brook"},
		"t-high": {ID: "t-high", FullName: "Ade Okoye"},
	})

	bundle, err := service.GenerateInsights(context.Background(), repositories.ObservationScope{}, adminActor)

	assert.NoError(t, err)
	if assert.Len(t, bundle.Recommendations, 2) {
		var supportText, mentorText string
		for _, rec := range bundle.Recommendations {
			if strings.Contains(rec.Text, "targeted support") {
				supportText = rec.Text
			}
			if strings.Contains(rec.Text, "mentor") {
				mentorText = rec.Text
			}
		}
		assert.Contains(t, supportText, "Jo Brook")
		assert.Contains(t, supportText, "differentiation")
		assert.Contains(t, mentorText, "Ade Okoye")
	}
}

func TestInsightService_ActionItems(t *testing.T) {
	records := []*models.Observation{
		gradedObservation("o1", "t-weak", "Maths", models.GradeInadequate, 0),
		gradedObservation("o2", "t-star1", "Maths", models.GradeOutstanding, 1),
		gradedObservation("o3", "t-star1", "Maths", models.GradeOutstanding, 2),
		gradedObservation("o4", "t-star2", "Maths", models.GradeOutstanding, 3),
		gradedObservation("o5", "t-star3", "Maths", models.GradeOutstanding, 4),
	}

	service := newInsightFixture(t, records, map[string]*models.User{
		"t-weak":  {ID: "t-weak", FullName: "Pat Lane"},
		"t-star1": {ID: "t-star1", FullName: "Min Zhao"},
	})

	bundle, err := service.GenerateInsights(context.Background(), repositories.ObservationScope{}, adminActor)

	assert.NoError(t, err)
	if assert.Len(t, bundle.ActionItems, 2) {
		followUp := bundle.ActionItems[0]
		assert.Equal(t, "t-weak", followUp.TeacherID)
		assert.Equal(t, "Pat Lane", followUp.TeacherName)
		assert.Equal(t, followUpWeeks, followUp.DueInWeeks)
		assert.Contains(t, followUp.Description, "follow-up")

		peer := bundle.ActionItems[1]
		assert.Contains(t, peer.Description, "peer-observation")
		// Only the two most frequent exemplars are named.
		assert.Contains(t, peer.Description, "Min Zhao")
		assert.Equal(t, 2, strings.Count(peer.Description, " and ")+1)
	}
}

func TestInsightService_TrendInsights(t *testing.T) {
	records := make([]*models.Observation, 0, 6)
	grades := []models.Grade{
		models.GradeRequiresImprovement, models.GradeRequiresImprovement, models.GradeRequiresImprovement,
		models.GradeOutstanding, models.GradeOutstanding, models.GradeOutstanding,
	}
	for i, grade := range grades {
		records = append(records, gradedObservation("o"+string(rune('1'+i)), "t1", "Maths", grade, i))
	}

	service := newInsightFixture(t, records, nil)

	bundle, err := service.GenerateInsights(context.Background(), repositories.ObservationScope{}, adminActor)

	assert.NoError(t, err)
	if assert.NotEmpty(t, bundle.Trends) {
		assert.Contains(t, bundle.Trends[0].Text, "improving")
	}
}
