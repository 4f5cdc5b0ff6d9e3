// JWT bearer authentication middleware.
//
// This file verifies the Authorization header on protected routes, resolves
// the token claims into the Gin context, and rejects unauthenticated traffic
// before it reaches the handlers.
//
// Status mapping (kept deliberately asymmetric for client UX):
//   - No credentials at all        -> 401 (the client should log in)
//   - Credentials present but bad  -> 403 (the client should re-authenticate)
package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// Context keys for the authenticated identity.
const (
	ctxKeyUserID = "userID"
	ctxKeyEmail  = "userEmail"
)

// authClaims is the expected JWT payload. The field set mirrors what the
// auth service signs at login/registration time.
type authClaims struct {
	UserID uint   `json:"id"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

// Auth returns a middleware that requires a valid HS256 bearer token signed
// with secret. On success it stores the user id and email in the context for
// handlers and downstream middleware (e.g., the rate limiter key function).
func Auth(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := bearerToken(c)
		if raw == "" {
			abortAuth(c, http.StatusUnauthorized, "unauthorized", "authentication token is required")
			return
		}

		claims := &authClaims{}
		token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return secret, nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))

		if err != nil || !token.Valid || claims.UserID == 0 {
			abortAuth(c, http.StatusForbidden, "forbidden", "invalid or expired token")
			return
		}
		if claims.ExpiresAt != nil && claims.ExpiresAt.Before(time.Now()) {
			abortAuth(c, http.StatusForbidden, "forbidden", "invalid or expired token")
			return
		}

		c.Set(ctxKeyUserID, claims.UserID)
		c.Set(ctxKeyEmail, claims.Email)
		c.Next()
	}
}

// UserIDFrom extracts the authenticated user id placed by Auth.
func UserIDFrom(c *gin.Context) (uint, bool) {
	v, ok := c.Get(ctxKeyUserID)
	if !ok {
		return 0, false
	}
	id, ok := v.(uint)
	return id, ok && id != 0
}

// EmailFrom extracts the authenticated user's email placed by Auth.
func EmailFrom(c *gin.Context) (string, bool) {
	v, ok := c.Get(ctxKeyEmail)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok && s != ""
}

// bearerToken pulls the token out of "Authorization: Bearer <token>".
// The scheme comparison is case-insensitive per RFC 7235.
func bearerToken(c *gin.Context) string {
	h := strings.TrimSpace(c.GetHeader("Authorization"))
	if h == "" {
		return ""
	}
	parts := strings.SplitN(h, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// abortAuth writes the compact JSON error envelope shared by edge middleware.
func abortAuth(c *gin.Context, status int, code, msg string) {
	c.AbortWithStatusJSON(status, gin.H{
		"request_id": c.Writer.Header().Get("X-Request-ID"),
		"code":       code,
		"message":    msg,
	})
}
