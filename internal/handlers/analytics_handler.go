package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lessonlens/observation-service/internal/repositories"
	"github.com/lessonlens/observation-service/internal/services"
	"github.com/lessonlens/observation-service/internal/utils"
	"github.com/lessonlens/observation-service/internal/validator"
)

type AnalyticsHandler struct {
	BaseHandler
	analyticsService services.AnalyticsService
	insightService   services.InsightService
	exportService    services.ExportService
	validator        *validator.Validator
}

func NewAnalyticsHandler(
	analyticsService services.AnalyticsService,
	insightService services.InsightService,
	exportService services.ExportService,
	validator *validator.Validator,
	logger utils.Logger,
) *AnalyticsHandler {
	return &AnalyticsHandler{
		BaseHandler:      NewBaseHandler(logger),
		analyticsService: analyticsService,
		insightService:   insightService,
		exportService:    exportService,
		validator:        validator,
	}
}

// GetCriteriaBreakdown returns per-criteria grade counts and averages
// @Summary Criteria breakdown
// @Description Returns grade counts and averages per observation criteria for the scoped records
// @Tags analytics
// @Produce json
// @Success 200 {array} services.CriteriaBreakdown
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 502 {object} ErrorResponse
// @Router /analytics/criteria [get]
func (h *AnalyticsHandler) GetCriteriaBreakdown(c *gin.Context) {
	scope, ok := parseScopeQuery(c)
	if !ok {
		return
	}
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}

	breakdown, err := h.analyticsService.GetCriteriaBreakdown(c.Request.Context(), scope, actor)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, breakdown)
}

// GetObservationTrends returns the daily score series with moving averages
// @Summary Observation trends
// @Description Returns date-bucketed averages, grade counts and a trailing moving average
// @Tags analytics
// @Produce json
// @Success 200 {array} services.TrendPoint
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 502 {object} ErrorResponse
// @Router /analytics/trends [get]
func (h *AnalyticsHandler) GetObservationTrends(c *gin.Context) {
	scope, ok := parseScopeQuery(c)
	if !ok {
		return
	}
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}

	trends, err := h.analyticsService.GetObservationTrends(c.Request.Context(), scope, actor)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, trends)
}

// GetSubjectDistribution returns grade distributions grouped by subject
// @Summary Subject distribution
// @Tags analytics
// @Produce json
// @Success 200 {array} services.DistributionEntry
// @Failure 400 {object} ErrorResponse
// @Router /analytics/subjects [get]
func (h *AnalyticsHandler) GetSubjectDistribution(c *gin.Context) {
	h.distribution(c, h.analyticsService.GetSubjectDistribution)
}

// GetTypeDistribution returns grade distributions grouped by observation type
// @Summary Observation type distribution
// @Tags analytics
// @Produce json
// @Success 200 {array} services.DistributionEntry
// @Failure 400 {object} ErrorResponse
// @Router /analytics/types [get]
func (h *AnalyticsHandler) GetTypeDistribution(c *gin.Context) {
	h.distribution(c, h.analyticsService.GetTypeDistribution)
}

// GetKeyStageAnalysis returns grade distributions grouped by key stage
// @Summary Key stage analysis
// @Tags analytics
// @Produce json
// @Success 200 {array} services.DistributionEntry
// @Failure 400 {object} ErrorResponse
// @Router /analytics/key-stages [get]
func (h *AnalyticsHandler) GetKeyStageAnalysis(c *gin.Context) {
	h.distribution(c, h.analyticsService.GetKeyStageAnalysis)
}

func (h *AnalyticsHandler) distribution(
	c *gin.Context,
	fetch func(ctx context.Context, scope repositories.ObservationScope, actor services.Actor) ([]services.DistributionEntry, error),
) {
	scope, ok := parseScopeQuery(c)
	if !ok {
		return
	}
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}

	entries, err := fetch(c.Request.Context(), scope, actor)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, entries)
}

// GetStaffAnalysis returns per-teacher and per-observer statistics
// @Summary Staff analysis
// @Description Returns per-teacher grade profiles with trend direction and per-observer activity
// @Tags analytics
// @Produce json
// @Success 200 {object} services.StaffAnalysis
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Router /analytics/staff [get]
func (h *AnalyticsHandler) GetStaffAnalysis(c *gin.Context) {
	scope, ok := parseScopeQuery(c)
	if !ok {
		return
	}
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}

	analysis, err := h.analyticsService.GetStaffAnalysis(c.Request.Context(), scope, actor)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, analysis)
}

// GetObservationCounts returns raw volume counters for the scope
// @Summary Observation counts
// @Tags analytics
// @Produce json
// @Success 200 {object} repositories.ObservationCounts
// @Failure 400 {object} ErrorResponse
// @Router /analytics/counts [get]
func (h *AnalyticsHandler) GetObservationCounts(c *gin.Context) {
	scope, ok := parseScopeQuery(c)
	if !ok {
		return
	}
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}

	counts, err := h.analyticsService.GetObservationCounts(c.Request.Context(), scope, actor)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, counts)
}

// GetInsights returns rule-based findings, recommendations and action items
// @Summary Generated insights
// @Tags analytics
// @Produce json
// @Success 200 {object} services.InsightBundle
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Router /analytics/insights [get]
func (h *AnalyticsHandler) GetInsights(c *gin.Context) {
	scope, ok := parseScopeQuery(c)
	if !ok {
		return
	}
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}

	bundle, err := h.insightService.GenerateInsights(c.Request.Context(), scope, actor)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, bundle)
}

// ExportSubjectDistribution downloads the subject distribution as CSV
// @Summary Export subject distribution
// @Tags analytics
// @Produce text/csv
// @Success 200 {string} string
// @Failure 400 {object} ErrorResponse
// @Router /analytics/subjects/export [get]
func (h *AnalyticsHandler) ExportSubjectDistribution(c *gin.Context) {
	scope, ok := parseScopeQuery(c)
	if !ok {
		return
	}
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}

	entries, err := h.analyticsService.GetSubjectDistribution(c.Request.Context(), scope, actor)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	payload := h.exportService.ExportDatasetCSV(entries)
	c.Header("Content-Disposition", `attachment; filename="subject-distribution.csv"`)
	c.Data(http.StatusOK, "text/csv", payload)
}

func (h *AnalyticsHandler) handleServiceError(c *gin.Context, err error) {
	var validationErrors services.ValidationErrors
	if errors.As(err, &validationErrors) {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Validation failed",
			Details: validationErrors,
		})
		return
	}

	var permissionError *services.PermissionError
	if errors.As(err, &permissionError) {
		c.JSON(http.StatusForbidden, ErrorResponse{
			Message: "Access denied",
			Details: map[string]interface{}{
				"resource": permissionError.Resource,
				"action":   permissionError.Action,
				"reason":   permissionError.Reason,
			},
		})
		return
	}

	switch {
	case services.IsValidation(err):
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request",
			Details: err.Error(),
		})
	case services.IsUnauthorized(err):
		c.JSON(http.StatusForbidden, ErrorResponse{
			Message: "Access denied",
			Details: err.Error(),
		})
	case services.IsFetchFailure(err):
		// Each dashboard chart fails independently; the client renders a
		// per-chart error state and keeps the other panels alive.
		c.JSON(http.StatusBadGateway, ErrorResponse{
			Message: "Observation data unavailable",
			Details: err.Error(),
		})
	default:
		h.LogError(c, err, "Unhandled analytics error")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Message: "Internal server error",
		})
	}
}
