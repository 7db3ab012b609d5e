package handlers

import (
	"net/http"
	"strings"

	"github.com/casdoor/casdoor-go-sdk/casdoorsdk"
	"github.com/gin-gonic/gin"
	"github.com/lessonlens/observation-service/internal/models"
	"github.com/lessonlens/observation-service/internal/utils"
)

// AuthMiddleware verifies the bearer token against Casdoor and stores the
// resolved user id and role in the request context. Scope narrowing itself
// happens in the services; this layer only establishes who is calling.
func AuthMiddleware(client *casdoorsdk.Client, logger utils.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token := strings.TrimPrefix(header, "Bearer ")
		if token == "" || token == header {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{
				Message: "Missing bearer token",
			})
			return
		}

		claims, err := client.ParseJwtToken(token)
		if err != nil {
			logger.Warn("Rejected invalid token", "error", err)
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{
				Message: "Invalid or expired token",
			})
			return
		}

		c.Set("user_id", claims.User.Id)
		c.Set("user_role", string(resolveRole(&claims.User)))
		c.Next()
	}
}

// resolveRole maps the identity provider's role assignment onto the engine's
// three roles. Unrecognised assignments default to the most restricted role.
func resolveRole(user *casdoorsdk.User) models.UserRole {
	if user.IsAdmin {
		return models.RoleAdmin
	}
	for _, role := range user.Roles {
		switch strings.ToLower(role.Name) {
		case "admin", "headteacher":
			return models.RoleAdmin
		case "observer", "slt":
			return models.RoleObserver
		}
	}
	return models.RoleTeacher
}
