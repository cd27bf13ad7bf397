// session.go validates the access-token session established by the upstream
// identity layer. Tokens arrive either as a bearer Authorization header or in
// the session cookie set by POST /auth/session.
package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/propllia/backoffice/internal/config"
)

// SubjectKey is the gin.Context key holding the authenticated subject claim.
const SubjectKey = "subject"

// SessionAuth returns a Gin handler that verifies the request's access token
// as an HS256 JWT signed with auth.jwt_secret.
//
// When no secret is configured the middleware passes every request through:
// the expected deployment then terminates authentication at a reverse proxy
// in front of this service. When a secret is configured, requests without a
// valid token are rejected with 401.
func SessionAuth(cfg config.AuthConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		if cfg.JWTSecret == "" {
			c.Next()
			return
		}

		token := bearerToken(c)
		if token == "" {
			if cookie, err := c.Cookie(cfg.CookieName); err == nil {
				token = cookie
			}
		}
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
			return
		}

		claims := jwt.MapClaims{}
		parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return []byte(cfg.JWTSecret), nil
		})
		if err != nil || !parsed.Valid {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired session"})
			return
		}

		if sub, err := claims.GetSubject(); err == nil && sub != "" {
			c.Set(SubjectKey, sub)
		}

		c.Next()
	}
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
