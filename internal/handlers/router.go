package handlers

import (
	"net/http"

	"github.com/casdoor/casdoor-go-sdk/casdoorsdk"
	"github.com/gin-gonic/gin"
	"github.com/lessonlens/observation-service/internal/services"
	"github.com/lessonlens/observation-service/internal/utils"
	"github.com/lessonlens/observation-service/internal/validator"
)

type HandlerManager struct {
	analyticsHandler *AnalyticsHandler
	reportHandler    *ReportHandler
	authClient       *casdoorsdk.Client
	logger           utils.Logger
}

func NewHandlerManager(
	analyticsService services.AnalyticsService,
	insightService services.InsightService,
	reportService services.ReportService,
	exportService services.ExportService,
	authClient *casdoorsdk.Client,
	validator *validator.Validator,
	logger utils.Logger,
) *HandlerManager {
	return &HandlerManager{
		analyticsHandler: NewAnalyticsHandler(analyticsService, insightService, exportService, validator, logger),
		reportHandler:    NewReportHandler(reportService, exportService, validator, logger),
		authClient:       authClient,
		logger:           logger,
	}
}

// SetupRoutes sets up all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": "observation-service",
		})
	})

	// API v1 routes
	v1 := router.Group("/api/v1")
	v1.Use(AuthMiddleware(hm.authClient, hm.logger))
	{
		// Analytics routes
		analytics := v1.Group("/analytics")
		{
			analytics.GET("/counts", hm.analyticsHandler.GetObservationCounts)
			analytics.GET("/criteria", hm.analyticsHandler.GetCriteriaBreakdown)
			analytics.GET("/trends", hm.analyticsHandler.GetObservationTrends)
			analytics.GET("/subjects", hm.analyticsHandler.GetSubjectDistribution)
			analytics.GET("/subjects/export", hm.analyticsHandler.ExportSubjectDistribution)
			analytics.GET("/types", hm.analyticsHandler.GetTypeDistribution)
			analytics.GET("/key-stages", hm.analyticsHandler.GetKeyStageAnalysis)
			analytics.GET("/staff", hm.analyticsHandler.GetStaffAnalysis)
			analytics.GET("/insights", hm.analyticsHandler.GetInsights)
		}

		// Report routes
		reports := v1.Group("/reports")
		{
			reports.POST("", hm.reportHandler.GenerateReport)
			reports.GET("/:id", hm.reportHandler.GetReport)
			reports.GET("/:id/export", hm.reportHandler.ExportReport)
		}
	}
}
