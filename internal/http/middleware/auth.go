// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file implements bearer-token authentication. Tokens are HMAC-signed
// JWTs whose subject is the numeric user ID; issuing tokens is out of scope
// here, this layer only verifies them and resolves the caller. Two flavors
// are provided:
//   - Authenticate: the route requires a valid token for an active user.
//   - OptionalAuthenticate: the caller identity is attached when a valid
//     token is present, but anonymous requests pass through.
package middleware

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"gorm.io/gorm"

	"github.com/tbourn/go-blog-backend/internal/repo"
)

// Context keys populated by the auth middleware for downstream consumers
// (idempotency guard, rate limiter, handlers).
const (
	ctxKeyUserID = "userID"
	ctxKeyRole   = "role"
)

// Claims is the verified token payload. Role travels in the token but is
// re-read from the user row, so a disabled or demoted account takes effect
// immediately instead of at token expiry.
type Claims struct {
	Role string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// UserID returns the authenticated caller's ID from the Gin context, or
// (0, false) for anonymous requests.
func UserID(c *gin.Context) (uint, bool) {
	v, ok := c.Get(ctxKeyUserID)
	if !ok {
		return 0, false
	}
	id, _ := v.(uint)
	return id, id != 0
}

// Role returns the authenticated caller's role, or "" for anonymous requests.
func Role(c *gin.Context) string {
	v, ok := c.Get(ctxKeyRole)
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}

// Authenticate returns middleware that rejects requests without a valid
// bearer token for an active user account.
func Authenticate(db *gorm.DB, secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !resolveCaller(c, db, secret) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"request_id": c.Writer.Header().Get("X-Request-ID"),
				"code":       "unauthorized",
				"message":    "missing or invalid credentials",
			})
			return
		}
		c.Next()
	}
}

// OptionalAuthenticate returns middleware that attaches the caller identity
// when a valid token is presented and otherwise lets the request through
// anonymously. Used on read endpoints that personalize their payload and on
// guest-writable endpoints where the idempotency guard buckets by identity.
func OptionalAuthenticate(db *gorm.DB, secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		resolveCaller(c, db, secret)
		c.Next()
	}
}

// RequireRole returns middleware that rejects authenticated callers whose
// role is not in the allowed set. Mount after Authenticate.
func RequireRole(roles ...string) gin.HandlerFunc {
	allowed := make(map[string]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}
	return func(c *gin.Context) {
		if _, ok := allowed[Role(c)]; !ok {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"request_id": c.Writer.Header().Get("X-Request-ID"),
				"code":       "forbidden",
				"message":    "insufficient permissions",
			})
			return
		}
		c.Next()
	}
}

// resolveCaller verifies the bearer token, confirms the account is active and
// stashes userID/role in the context. Returns false when no caller identity
// could be established.
func resolveCaller(c *gin.Context, db *gorm.DB, secret string) bool {
	raw := bearerToken(c.GetHeader("Authorization"))
	if raw == "" {
		return false
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return false
	}

	id, err := strconv.ParseUint(claims.Subject, 10, 64)
	if err != nil || id == 0 {
		return false
	}

	user, err := repo.GetActiveUser(c.Request.Context(), db, uint(id))
	if err != nil {
		return false
	}

	c.Set(ctxKeyUserID, user.ID)
	c.Set(ctxKeyRole, user.Role)
	return true
}

// bearerToken extracts the credential from an "Authorization: Bearer <t>"
// header; any other scheme yields "".
func bearerToken(header string) string {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
