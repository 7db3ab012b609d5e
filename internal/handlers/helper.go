package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lessonlens/observation-service/internal/models"
	"github.com/lessonlens/observation-service/internal/repositories"
	"github.com/lessonlens/observation-service/internal/services"
)

const scopeDateLayout = "2006-01-02"

func ParseStringIDParam(c *gin.Context, param string) string {
	idStr := c.Param(param)
	idStr = strings.TrimSpace(idStr)
	if idStr == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid " + param,
			Details: "ID cannot be empty",
		})
		return ""
	}
	return idStr
}

// parseScopeQuery builds an observation scope from the request's query
// parameters. List filters are comma separated; dates use YYYY-MM-DD.
// Reversed date ranges are left intact here and rejected by the services.
func parseScopeQuery(c *gin.Context) (repositories.ObservationScope, bool) {
	var scope repositories.ObservationScope

	if raw := strings.TrimSpace(c.Query("date_from")); raw != "" {
		parsed, err := time.Parse(scopeDateLayout, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Message: "Invalid date_from",
				Details: "expected YYYY-MM-DD",
			})
			return scope, false
		}
		scope.DateFrom = &parsed
	}
	if raw := strings.TrimSpace(c.Query("date_to")); raw != "" {
		parsed, err := time.Parse(scopeDateLayout, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Message: "Invalid date_to",
				Details: "expected YYYY-MM-DD",
			})
			return scope, false
		}
		scope.DateTo = &parsed
	}

	scope.SubjectIDs = splitListParam(c.Query("subjects"))
	scope.KeyStageIDs = splitListParam(c.Query("key_stages"))
	scope.ObservationTypeIDs = splitListParam(c.Query("types"))
	scope.TeacherIDs = splitListParam(c.Query("teachers"))
	scope.DepartmentIDs = splitListParam(c.Query("departments"))

	return scope, true
}

func splitListParam(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	values := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			values = append(values, trimmed)
		}
	}
	return values
}

// actorFromContext reads the authenticated caller placed in the Gin context
// by the auth middleware.
func actorFromContext(c *gin.Context) (services.Actor, bool) {
	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Message: "User not authenticated",
		})
		return services.Actor{}, false
	}

	role, _ := c.Get("user_role")
	roleStr, _ := role.(string)

	return services.Actor{
		ID:   userID.(string),
		Role: models.UserRole(roleStr),
	}, true
}
