package helpers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

type CookiePolicy struct {
	Secure   bool
	SameSite http.SameSite
	MaxAge   time.Duration
}

// NewCookiePolicy returns the session cookie attributes for an environment.
// Production cookies are sent cross-site and only over HTTPS.
func NewCookiePolicy(production bool, maxAge time.Duration) CookiePolicy {
	if production {
		return CookiePolicy{Secure: true, SameSite: http.SameSiteNoneMode, MaxAge: maxAge}
	}
	return CookiePolicy{SameSite: http.SameSiteStrictMode, MaxAge: maxAge}
}

func SetSessionCookie(c *gin.Context, policy CookiePolicy, token string) {
	c.SetSameSite(policy.SameSite)
	c.SetCookie(SessionCookieName, token, int(policy.MaxAge.Seconds()), "/", "", policy.Secure, true)
}

func ClearSessionCookie(c *gin.Context, policy CookiePolicy) {
	c.SetSameSite(policy.SameSite)
	c.SetCookie(SessionCookieName, "", -1, "/", "", policy.Secure, true)
}
