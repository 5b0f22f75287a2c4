package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/eventstudio/eventstudio-api/internal/helpers"
	"github.com/eventstudio/eventstudio-api/internal/models"
	"github.com/eventstudio/eventstudio-api/internal/policy"
)

const userKey = "user"

// JWTAuthMiddleware resolves the session token from the cookie or a bearer
// header and stores the user on the context.
func JWTAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		svc := GetServices(c)
		if svc == nil {
			helpers.RespondWithError(c, http.StatusInternalServerError, "Services not configured.")
			return
		}

		user, err := svc.Auth.Authenticate(c.Request.Context(), sessionToken(c))
		if err != nil {
			helpers.RespondWithAppError(c, err)
			return
		}

		c.Set(userKey, user)
		c.Set("user_id", user.ID)
		c.Next()
	}
}

func sessionToken(c *gin.Context) string {
	if token, err := c.Cookie(helpers.SessionCookieName); err == nil && token != "" {
		return token
	}
	header := c.GetHeader("Authorization")
	if token, ok := strings.CutPrefix(header, "Bearer "); ok {
		return strings.TrimSpace(token)
	}
	return ""
}

// RequireAdmin must run after JWTAuthMiddleware.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := policy.RequireAdmin(CurrentUser(c)); err != nil {
			helpers.RespondWithAppError(c, err)
			return
		}
		c.Next()
	}
}

func CurrentUser(c *gin.Context) *models.User {
	user, exists := c.Get(userKey)
	if !exists {
		return nil
	}
	return user.(*models.User)
}
