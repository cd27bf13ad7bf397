// auth.go manages the session cookie. Tokens are issued by the upstream
// identity layer; this service only stores and clears them client-side, and
// optionally verifies them in the session middleware.
package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

type setSessionRequest struct {
	AccessToken string `json:"access_token" binding:"required"`
	ExpiresIn   *int   `json:"expires_in"`
}

// SetSession stores the supplied access token in the session cookie.
//
// POST /auth/session
func (s *Server) SetSession(c *gin.Context) {
	var req setSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "access_token is required")
		return
	}

	maxAge := int(s.cfg.Auth.SessionMaxAge / time.Second)
	if req.ExpiresIn != nil {
		maxAge = *req.ExpiresIn
	}
	if maxAge <= 0 {
		maxAge = 3600
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(s.cfg.Auth.CookieName, req.AccessToken, maxAge, "/", "", false, false)
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// ClearSession expires the session cookie.
//
// DELETE /auth/session
func (s *Server) ClearSession(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(s.cfg.Auth.CookieName, "", -1, "/", "", false, false)
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
