package events

import (
	"time"

	"github.com/google/uuid"
	"github.com/lessonlens/observation-service/internal/models"
)

// EventType labels the analytics events published for downstream consumers
// (notification service, audit trail).
type EventType string

const (
	EventReportGenerated   EventType = "report.generated"
	EventInsightsGenerated EventType = "insights.generated"
)

const (
	eventSource  = "observation-service"
	eventVersion = "1.0"
)

// ReportEvent is the envelope published to the analytics topic.
type ReportEvent struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	Source    string      `json:"source"`
	Version   string      `json:"version"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data"`
}

// ReportGeneratedData describes a freshly assembled report. The payload
// carries headline numbers only; consumers fetch the full report by id.
type ReportGeneratedData struct {
	ReportID          string            `json:"report_id"`
	ReportType        models.ReportType `json:"report_type"`
	Title             string            `json:"title"`
	GeneratedBy       string            `json:"generated_by"`
	TotalObservations int               `json:"total_observations"`
	AverageScore      float64           `json:"average_score"`
	SectionCount      int               `json:"section_count"`
}

// InsightsGeneratedData summarises an insight-generation run.
type InsightsGeneratedData struct {
	InsightCount        int `json:"insight_count"`
	RecommendationCount int `json:"recommendation_count"`
	ActionItemCount     int `json:"action_item_count"`
}

// NewReportGeneratedEvent builds the event for a generated report.
func NewReportGeneratedEvent(report *models.Report) *ReportEvent {
	return &ReportEvent{
		ID:        uuid.NewString(),
		Type:      EventReportGenerated,
		Source:    eventSource,
		Version:   eventVersion,
		Timestamp: time.Now(),
		Data: ReportGeneratedData{
			ReportID:          report.ID,
			ReportType:        report.Type,
			Title:             report.Title,
			GeneratedBy:       report.GeneratedBy,
			TotalObservations: report.Summary.TotalObservations,
			AverageScore:      report.Summary.AverageScore,
			SectionCount:      len(report.Sections),
		},
	}
}

// NewInsightsGeneratedEvent builds the event for an insight-generation run.
func NewInsightsGeneratedEvent(insights, recommendations, actionItems int) *ReportEvent {
	return &ReportEvent{
		ID:        uuid.NewString(),
		Type:      EventInsightsGenerated,
		Source:    eventSource,
		Version:   eventVersion,
		Timestamp: time.Now(),
		Data: InsightsGeneratedData{
			InsightCount:        insights,
			RecommendationCount: recommendations,
			ActionItemCount:     actionItems,
		},
	}
}
