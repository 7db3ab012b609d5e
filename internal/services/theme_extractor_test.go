package services

import (
	"testing"

	"github.com/lessonlens/observation-service/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestExtractThemes(t *testing.T) {
	snippets := []string{
		"Needs more differentiation for lower-ability pupils. Pace dropped in the second half.",
		"Differentiation still inconsistent across the class.",
		"Good questioning but the pace of transitions was slow.",
	}

	themes := ExtractThemes(snippets)

	if assert.Len(t, themes, 3) {
		assert.Equal(t, models.ThemeCount{Theme: "differentiation", Count: 2}, themes[0])
		assert.Equal(t, models.ThemeCount{Theme: "pace", Count: 2}, themes[1])
		assert.Equal(t, models.ThemeCount{Theme: "questioning", Count: 1}, themes[2])
	}
}

func TestExtractThemes_OneIncrementPerSnippet(t *testing.T) {
	// A term repeated within one snippet still counts once.
	snippets := []string{"feedback, feedback and more feedback"}

	themes := ExtractThemes(snippets)

	if assert.Len(t, themes, 1) {
		assert.Equal(t, "feedback", themes[0].Theme)
		assert.Equal(t, 1, themes[0].Count)
	}
}

func TestExtractThemes_CaseInsensitive(t *testing.T) {
	themes := ExtractThemes([]string{"BEHAVIOUR management was strong", "Behaviour routines embedded"})

	if assert.Len(t, themes, 1) {
		assert.Equal(t, "behaviour", themes[0].Theme)
		assert.Equal(t, 2, themes[0].Count)
	}
}

func TestExtractThemes_TiesKeepVocabularyOrder(t *testing.T) {
	// "support" precedes "challenge" in frequency only through declaration
	// order; both appear exactly once.
	themes := ExtractThemes([]string{"more challenge needed", "extra support in place"})

	if assert.Len(t, themes, 2) {
		assert.Equal(t, "challenge", themes[0].Theme)
		assert.Equal(t, "support", themes[1].Theme)
	}
}

func TestExtractThemes_TopFiveOnly(t *testing.T) {
	snippets := []string{
		"differentiation assessment engagement behaviour planning questioning feedback",
		"differentiation assessment engagement behaviour planning questioning",
		"differentiation assessment engagement behaviour planning",
	}

	themes := ExtractThemes(snippets)

	assert.Len(t, themes, 5)
	assert.Equal(t, "differentiation", themes[0].Theme)
	assert.Equal(t, 3, themes[0].Count)
	for _, theme := range themes {
		assert.NotEqual(t, "feedback", theme.Theme)
	}
}

func TestExtractThemes_EmptyInput(t *testing.T) {
	assert.Empty(t, ExtractThemes(nil))
	assert.Empty(t, ExtractThemes([]string{"", "nothing relevant here"}))
}

func TestCollectDevelopmentText(t *testing.T) {
	records := []*models.Observation{
		{ID: "o1", AreasForDevelopment: stringPtr("More differentiation")},
		{ID: "o2"},
		{ID: "o3", AreasForDevelopment: stringPtr("")},
		{ID: "o4", AreasForDevelopment: stringPtr("Improve pace")},
	}

	snippets := CollectDevelopmentText(records)

	assert.Equal(t, []string{"More differentiation", "Improve pace"}, snippets)
}

func TestCollectStrengthText(t *testing.T) {
	records := []*models.Observation{
		{ID: "o1", Strengths: stringPtr("Excellent questioning")},
		{ID: "o2"},
	}

	assert.Equal(t, []string{"Excellent questioning"}, CollectStrengthText(records))
}
