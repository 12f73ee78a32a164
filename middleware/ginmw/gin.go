// Package ginmw provides Gin HTTP middleware for the auth core.
//
// It centralizes the bearer-token check that every mutating handler needs:
// resolve the session token from the Authorization header, stash the
// embedded user snapshot in the request context, and enforce
// permission-level requirements declaratively.
package ginmw

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	authcore "github.com/chimerakang/authcore-go"
	"github.com/chimerakang/authcore-go/metrics"
)

// Context keys for storing auth data in gin.Context.
const (
	KeySubject = "authcore_subject"
	KeyUser    = "authcore_user"
)

// AuthOption configures Auth middleware behavior.
type AuthOption func(*authConfig)

type authConfig struct {
	excludedPaths map[string]bool
	metrics       *metrics.Metrics
}

// WithExcludedPaths sets paths that skip authentication (e.g. health checks,
// login).
func WithExcludedPaths(paths ...string) AuthOption {
	return func(cfg *authConfig) {
		for _, p := range paths {
			cfg.excludedPaths[p] = true
		}
	}
}

// WithMetrics records auth requests and failures.
func WithMetrics(m *metrics.Metrics) AuthOption {
	return func(cfg *authConfig) { cfg.metrics = m }
}

// Auth returns Gin middleware that resolves the session token from the
// Authorization header. On success it stores the embedded snapshot in the
// context (retrievable via GetUser, GetSubject). Responds with 401 if the
// token is missing, invalid, or expired; the expired case gets a distinct
// message so clients know to re-authenticate rather than suspect tampering.
func Auth(tokens authcore.TokenService, opts ...AuthOption) gin.HandlerFunc {
	cfg := &authConfig{excludedPaths: make(map[string]bool)}
	for _, o := range opts {
		o(cfg)
	}

	return func(c *gin.Context) {
		if cfg.excludedPaths[c.Request.URL.Path] {
			c.Next()
			return
		}

		if cfg.metrics != nil {
			cfg.metrics.RecordAuthRequest()
		}

		tokenStr := extractBearerToken(c.Request)
		if tokenStr == "" {
			cfg.fail(c, http.StatusUnauthorized, "missing_token", "missing authorization token")
			return
		}

		user, err := tokens.Resolve(tokenStr)
		if err != nil {
			if errors.Is(err, authcore.ErrTokenExpired) {
				cfg.fail(c, http.StatusUnauthorized, "token_expired", "token expired")
			} else {
				cfg.fail(c, http.StatusUnauthorized, "invalid_token", "invalid token")
			}
			return
		}

		c.Set(KeyUser, user)
		c.Set(KeySubject, user.OpenID)

		// Service code below the handler layer reads the caller through the
		// plain request context, without a gin dependency.
		ctx := authcore.WithUser(c.Request.Context(), user)
		c.Request = c.Request.WithContext(authcore.WithSubject(ctx, user.OpenID))

		c.Next()
	}
}

// RequireAtLeast returns Gin middleware enforcing that the authenticated
// user holds at least the given level. Requires Auth to run first.
func RequireAtLeast(level authcore.PermissionLevel, opts ...AuthOption) gin.HandlerFunc {
	cfg := &authConfig{excludedPaths: make(map[string]bool)}
	for _, o := range opts {
		o(cfg)
	}

	return func(c *gin.Context) {
		user := GetUser(c)
		if user == nil {
			cfg.fail(c, http.StatusUnauthorized, "missing_token", "authentication required")
			return
		}
		if authcore.AuthorizeAtLeast(user.Permission.Level(), level) != authcore.Authorized {
			cfg.fail(c, http.StatusForbidden, "forbidden", "permission denied")
			return
		}
		c.Next()
	}
}

// RequireExact returns Gin middleware enforcing that the authenticated user
// holds exactly the given level, e.g. Admin-only endpoints. Requires Auth
// to run first.
func RequireExact(level authcore.PermissionLevel, opts ...AuthOption) gin.HandlerFunc {
	cfg := &authConfig{excludedPaths: make(map[string]bool)}
	for _, o := range opts {
		o(cfg)
	}

	return func(c *gin.Context) {
		user := GetUser(c)
		if user == nil {
			cfg.fail(c, http.StatusUnauthorized, "missing_token", "authentication required")
			return
		}
		if authcore.AuthorizeExact(user.Permission.Level(), level) != authcore.Authorized {
			cfg.fail(c, http.StatusForbidden, "forbidden", "permission denied")
			return
		}
		c.Next()
	}
}

// CanActOn decides whether the authenticated user may mutate the target
// subject's record: always on itself, otherwise by the at-least hierarchy
// check against the target's level. Handlers call this after loading the
// target record.
func CanActOn(c *gin.Context, targetSubject string, targetLevel authcore.PermissionLevel) bool {
	user := GetUser(c)
	if user == nil {
		return false
	}
	if authcore.CanActOnSelf(user.OpenID, targetSubject) {
		return true
	}
	return authcore.CanActOnOther(user.Permission.Level(), targetLevel) == authcore.Authorized
}

func (cfg *authConfig) fail(c *gin.Context, status int, reason, msg string) {
	if cfg.metrics != nil {
		cfg.metrics.RecordAuthFailure(reason)
	}
	c.AbortWithStatusJSON(status, gin.H{"error": msg})
}

// --- Context helpers ---

// GetUser returns the authenticated user snapshot from the Gin context.
func GetUser(c *gin.Context) *authcore.UserSnapshot {
	v, _ := c.Get(KeyUser)
	u, _ := v.(*authcore.UserSnapshot)
	return u
}

// GetSubject returns the authenticated subject id from the Gin context.
func GetSubject(c *gin.Context) string {
	v, _ := c.Get(KeySubject)
	s, _ := v.(string)
	return s
}

// extractBearerToken pulls the token out of the Authorization header.
// Both "Bearer <token>" and a bare token are accepted; the original mobile
// client sends the token without a scheme.
func extractBearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if h == "" {
		return ""
	}
	if strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	return h
}
