package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lessonlens/observation-service/internal/models"
	"github.com/lessonlens/observation-service/internal/repositories"
	"github.com/lessonlens/observation-service/internal/services"
	"github.com/lessonlens/observation-service/internal/utils"
	"github.com/lessonlens/observation-service/internal/validator"
)

type ReportHandler struct {
	BaseHandler
	reportService services.ReportService
	exportService services.ExportService
	validator     *validator.Validator
}

func NewReportHandler(
	reportService services.ReportService,
	exportService services.ExportService,
	validator *validator.Validator,
	logger utils.Logger,
) *ReportHandler {
	return &ReportHandler{
		BaseHandler:   NewBaseHandler(logger),
		reportService: reportService,
		exportService: exportService,
		validator:     validator,
	}
}

// GenerateReportRequest describes the scope and type of a requested report
type GenerateReportRequest struct {
	ReportType  string   `json:"report_type" validate:"required,report_type"`
	DateFrom    *string  `json:"date_from" validate:"omitempty,datetime=2006-01-02"`
	DateTo      *string  `json:"date_to" validate:"omitempty,datetime=2006-01-02"`
	Subjects    []string `json:"subjects"`
	KeyStages   []string `json:"key_stages"`
	Types       []string `json:"types"`
	Teachers    []string `json:"teachers"`
	Departments []string `json:"departments"`
}

func (r *GenerateReportRequest) toScope() repositories.ObservationScope {
	scope := repositories.ObservationScope{
		SubjectIDs:         r.Subjects,
		KeyStageIDs:        r.KeyStages,
		ObservationTypeIDs: r.Types,
		TeacherIDs:         r.Teachers,
		DepartmentIDs:      r.Departments,
	}
	if r.DateFrom != nil {
		if parsed, err := time.Parse(scopeDateLayout, *r.DateFrom); err == nil {
			scope.DateFrom = &parsed
		}
	}
	if r.DateTo != nil {
		if parsed, err := time.Parse(scopeDateLayout, *r.DateTo); err == nil {
			scope.DateTo = &parsed
		}
	}
	return scope
}

// GenerateReport assembles and stores a new report
// @Summary Generate report
// @Description Generates a report over the scoped observations, stores it and returns it
// @Tags reports
// @Accept json
// @Produce json
// @Param report body GenerateReportRequest true "Report scope and type"
// @Success 201 {object} models.Report
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 502 {object} ErrorResponse
// @Router /reports [post]
func (h *ReportHandler) GenerateReport(c *gin.Context) {
	var req GenerateReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	if err := h.validator.ValidateStruct(&req); err != nil {
		h.handleServiceError(c, err)
		return
	}

	actor, ok := actorFromContext(c)
	if !ok {
		return
	}

	scope := req.toScope()
	if errs := h.validator.ValidateDateRange(scope.DateFrom, scope.DateTo); errs != nil {
		h.handleServiceError(c, errs)
		return
	}

	h.LogRequest(c, "Generating report", "report_type", req.ReportType)

	report, err := h.reportService.GenerateReport(
		c.Request.Context(), scope, models.ReportType(req.ReportType), actor)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, report)
}

// GetReport retrieves a stored report by ID
// @Summary Get report
// @Tags reports
// @Produce json
// @Param id path string true "Report ID"
// @Success 200 {object} models.Report
// @Failure 404 {object} ErrorResponse
// @Router /reports/{id} [get]
func (h *ReportHandler) GetReport(c *gin.Context) {
	id := ParseStringIDParam(c, "id")
	if id == "" {
		return
	}

	report, err := h.reportService.GetReport(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, report)
}

// ExportReport downloads a stored report in the requested format
// @Summary Export report
// @Description Serialises a stored report as json, csv, txt or xlsx
// @Tags reports
// @Produce octet-stream
// @Param id path string true "Report ID"
// @Param format query string true "Export format" Enums(json, csv, txt, xlsx)
// @Success 200 {string} string
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /reports/{id}/export [get]
func (h *ReportHandler) ExportReport(c *gin.Context) {
	id := ParseStringIDParam(c, "id")
	if id == "" {
		return
	}

	format := strings.ToLower(strings.TrimSpace(c.DefaultQuery("format", "json")))
	exportReq := models.ExportRequest{ReportID: &id, Format: format}
	if err := h.validator.ValidateStruct(&exportReq); err != nil {
		h.handleServiceError(c, err)
		return
	}

	report, err := h.reportService.GetReport(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	payload, contentType, err := h.exportService.ExportReport(report, format)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	filename := fmt.Sprintf("report-%s.%s", id, format)
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename=%q`, filename))
	c.Data(http.StatusOK, contentType, payload)
}

func (h *ReportHandler) handleServiceError(c *gin.Context, err error) {
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
	case services.IsNotFound(err):
		c.JSON(http.StatusNotFound, ErrorResponse{
			Message: "Report not found",
		})
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
		c.JSON(http.StatusBadGateway, ErrorResponse{
			Message: "Observation data unavailable",
			Details: err.Error(),
		})
	default:
		h.LogError(c, err, "Unhandled report error")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Message: "Internal server error",
		})
	}
}
