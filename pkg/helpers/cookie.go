package helpers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

type CookieManager struct {
	Domain string
	Secure bool
}

func NewCookie(domain string, secure bool) *CookieManager {
	return &CookieManager{Domain: domain, Secure: secure}
}

func (m *CookieManager) SetPair(c *gin.Context, access string, aexp time.Time, refresh string, rexp time.Time) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie("access_token", access, maxAgeFrom(aexp), "/", m.Domain, m.Secure, true)
	c.SetCookie("refresh_token", refresh, maxAgeFrom(rexp), "/", m.Domain, m.Secure, true)
}

func (m *CookieManager) Clear(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie("access_token", "", -1, "/", m.Domain, m.Secure, true)
	c.SetCookie("refresh_token", "", -1, "/", m.Domain, m.Secure, true)
}

// SetRememberedEmail stores the login form's remember-me email. Readable by
// the front-end, hence not HttpOnly.
func (m *CookieManager) SetRememberedEmail(c *gin.Context, email string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie("remembered_email", email, int((90 * 24 * time.Hour).Seconds()), "/", m.Domain, m.Secure, false)
}

func (m *CookieManager) ClearRememberedEmail(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie("remembered_email", "", -1, "/", m.Domain, m.Secure, false)
}

func maxAgeFrom(exp time.Time) int {
	sec := int(time.Until(exp).Seconds())
	if sec < 0 {
		return 0
	}
	return sec
}
