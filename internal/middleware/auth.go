package middleware

import (
	"errors"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/HaleluiaLuis/fincontrol-sub001/internal/authz"
	"github.com/HaleluiaLuis/fincontrol-sub001/internal/service"
	"github.com/HaleluiaLuis/fincontrol-sub001/pkg/response"

	"github.com/gin-gonic/gin"
)

const (
	// SessionCookie carries the opaque session token. HttpOnly — never
	// readable from scripts.
	SessionCookie = "fincontrol_session"
	// RoleCookie mirrors the role for fast-path UI decisions only. It is
	// never consulted for authorization; the role is always re-derived from
	// the session store.
	RoleCookie = "fincontrol_role"

	sessionMaxAge = int(service.SessionTTL / time.Second)
)

func cookieSettings() (sameSite http.SameSite, secure bool) {
	// Production (cross-origin): SameSiteNoneMode + Secure=true
	// Development (same-site):   SameSiteLaxMode  + Secure=false
	sameSite = http.SameSiteLaxMode
	if os.Getenv("GIN_MODE") == "release" {
		sameSite = http.SameSiteNoneMode
		secure = true
	}
	return sameSite, secure
}

// SetSessionCookies writes the session token (HttpOnly) and the role mirror.
func SetSessionCookies(c *gin.Context, token, role string) {
	sameSite, secure := cookieSettings()
	c.SetSameSite(sameSite)
	c.SetCookie(SessionCookie, token, sessionMaxAge, "/", "", secure, true)
	c.SetCookie(RoleCookie, role, sessionMaxAge, "/", "", secure, false)
}

// ClearSessionCookies removes both cookies.
func ClearSessionCookies(c *gin.Context) {
	sameSite, secure := cookieSettings()
	c.SetSameSite(sameSite)
	c.SetCookie(SessionCookie, "", -1, "/", "", secure, true)
	c.SetCookie(RoleCookie, "", -1, "/", "", secure, false)
}

// extractToken reads the session token from the cookie, falling back to a
// Bearer header for non-browser clients.
func extractToken(c *gin.Context) string {
	if token, err := c.Cookie(SessionCookie); err == nil && token != "" {
		return token
	}
	authHeader := c.GetHeader("Authorization")
	parts := strings.Split(authHeader, " ")
	if len(parts) == 2 && parts[0] == "Bearer" {
		return parts[1]
	}
	return ""
}

// Authorize validates the caller's session and checks the RBAC prefix table.
// Unprotected paths pass through, with identity attached when a valid token
// happens to be present. The four session failure stages map to distinct
// messages; the authorization denial is deliberately role-agnostic.
func Authorize(sessions service.SessionService, ctrl *authz.Controller) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		token := extractToken(c)

		_, protected := ctrl.Resolve(path)

		user, _, err := sessions.Validate(c.Request.Context(), token)
		if err == nil {
			c.Set("userID", user.ID.String())
			c.Set("userRole", user.Role)
		} else if protected {
			status, msg := sessionFailure(err)
			c.AbortWithStatusJSON(status, response.Error(status, msg))
			return
		}

		role := ""
		if user != nil {
			role = user.Role
		}
		if !ctrl.Authorize(role, path) {
			c.AbortWithStatusJSON(http.StatusForbidden, response.Error(http.StatusForbidden, "Access denied: insufficient permissions"))
			return
		}

		c.Next()
	}
}

// RequireSession rejects any request without a valid session, regardless of
// the RBAC table. Used for endpoints like /me and logout-sensitive routes.
func RequireSession(sessions service.SessionService) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, _, err := sessions.Validate(c.Request.Context(), extractToken(c))
		if err != nil {
			status, msg := sessionFailure(err)
			c.AbortWithStatusJSON(status, response.Error(status, msg))
			return
		}
		c.Set("userID", user.ID.String())
		c.Set("userRole", user.Role)
		c.Next()
	}
}

func sessionFailure(err error) (int, string) {
	switch {
	case errors.Is(err, service.ErrNoToken):
		return http.StatusUnauthorized, "Authentication required"
	case errors.Is(err, service.ErrSessionNotFound):
		return http.StatusUnauthorized, "Session not found"
	case errors.Is(err, service.ErrSessionExpired):
		return http.StatusUnauthorized, "Session expired"
	case errors.Is(err, service.ErrSessionRevoked):
		return http.StatusUnauthorized, "Session revoked"
	default:
		return http.StatusInternalServerError, "Failed to validate session"
	}
}
