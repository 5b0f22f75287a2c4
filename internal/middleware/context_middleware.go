package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/eventstudio/eventstudio-api/internal/helpers"
	"github.com/eventstudio/eventstudio-api/internal/services"
)

const (
	servicesKey     = "services"
	cookiePolicyKey = "cookie_policy"
)

func ServicesMiddleware(svc *services.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(servicesKey, svc)
		c.Next()
	}
}

func GetServices(c *gin.Context) *services.Services {
	svc, exists := c.Get(servicesKey)
	if !exists {
		return nil
	}
	return svc.(*services.Services)
}

func CookiePolicyMiddleware(policy helpers.CookiePolicy) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(cookiePolicyKey, policy)
		c.Next()
	}
}

func GetCookiePolicy(c *gin.Context) helpers.CookiePolicy {
	policy, exists := c.Get(cookiePolicyKey)
	if !exists {
		return helpers.NewCookiePolicy(false, helpers.DefaultSessionTTL)
	}
	return policy.(helpers.CookiePolicy)
}
