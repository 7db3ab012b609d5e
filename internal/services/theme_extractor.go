package services

import (
	"sort"
	"strings"

	"github.com/lessonlens/observation-service/internal/models"
)

// themeVocabulary is the fixed set of pedagogical keywords scanned for in
// free-text narrative fields. Declared order breaks frequency ties.
var themeVocabulary = []string{
	"differentiation",
	"assessment",
	"engagement",
	"behaviour",
	"planning",
	"questioning",
	"feedback",
	"pace",
	"challenge",
	"support",
}

const maxThemes = 5

// ExtractThemes scans each snippet for vocabulary terms (case-insensitive
// substring match, one increment per snippet per term) and returns the top
// five themes by descending frequency. Ties keep vocabulary order; themes
// that never appeared are excluded.
func ExtractThemes(snippets []string) []models.ThemeCount {
	counts := make(map[string]int, len(themeVocabulary))

	for _, snippet := range snippets {
		if snippet == "" {
			continue
		}
		lowered := strings.ToLower(snippet)
		for _, theme := range themeVocabulary {
			if strings.Contains(lowered, theme) {
				counts[theme]++
			}
		}
	}

	ranked := make([]models.ThemeCount, 0, len(counts))
	for _, theme := range themeVocabulary {
		if counts[theme] > 0 {
			ranked = append(ranked, models.ThemeCount{Theme: theme, Count: counts[theme]})
		}
	}

	// Stable sort keeps the vocabulary order within equal counts.
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Count > ranked[j].Count
	})

	if len(ranked) > maxThemes {
		ranked = ranked[:maxThemes]
	}
	return ranked
}

// CollectDevelopmentText gathers the areas-for-development snippets from a
// set of observations, skipping absent fields.
func CollectDevelopmentText(records []*models.Observation) []string {
	snippets := make([]string, 0, len(records))
	for _, record := range records {
		if record.AreasForDevelopment != nil && *record.AreasForDevelopment != "" {
			snippets = append(snippets, *record.AreasForDevelopment)
		}
	}
	return snippets
}

// CollectStrengthText gathers the strengths snippets from a set of
// observations, skipping absent fields.
func CollectStrengthText(records []*models.Observation) []string {
	snippets := make([]string, 0, len(records))
	for _, record := range records {
		if record.Strengths != nil && *record.Strengths != "" {
			snippets = append(snippets, *record.Strengths)
		}
	}
	return snippets
}
