package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/folio/portfolio-api/internal/api/middleware"
)

// SessionConfig controls the attributes of the session cookie.
type SessionConfig struct {
	Secure   bool
	SameSite http.SameSite
	MaxAge   time.Duration
	// ExposeToken also returns the token in login/register bodies for bearer clients.
	ExposeToken bool
}

func (s SessionConfig) cookie(value string) *http.Cookie {
	secure := s.Secure
	// browsers drop SameSite=None cookies that are not Secure
	if s.SameSite == http.SameSiteNoneMode {
		secure = true
	}
	sameSite := s.SameSite
	if sameSite == 0 {
		sameSite = http.SameSiteLaxMode
	}
	return &http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: sameSite,
	}
}

func (s SessionConfig) set(c echo.Context, token string, expiresAt time.Time) {
	cookie := s.cookie(token)
	maxAge := s.MaxAge
	if maxAge <= 0 {
		maxAge = time.Until(expiresAt)
	}
	cookie.MaxAge = int(maxAge.Seconds())
	cookie.Expires = expiresAt.UTC()
	c.SetCookie(cookie)
}

func (s SessionConfig) clear(c echo.Context) {
	cookie := s.cookie("")
	cookie.MaxAge = -1
	cookie.Expires = time.Unix(0, 0).UTC()
	c.SetCookie(cookie)
}
