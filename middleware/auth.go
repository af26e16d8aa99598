package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/judyrop/crm/apperrors"
	"github.com/judyrop/crm/auth"
	"github.com/judyrop/crm/models"
)

// AccountLookup loads the stored account behind a session.
type AccountLookup interface {
	Get(ctx context.Context, id uint) (*models.User, error)
}

// Authenticator resolves the caller from the session cookie or, when a
// verifier is configured, from an "Authorization: Bearer" token.
//
// With Accounts set, a session only counts while its account exists and is
// active, and the stored role wins over the one signed into the cookie.
type Authenticator struct {
	Sessions   *auth.SessionManager
	Bearer     auth.TokenVerifier
	Accounts   AccountLookup
	CookieName string
	Logger     *zap.Logger
}

// Authenticate stores the identity in the request context. It never rejects
// a request; the gates below do.
func (a *Authenticator) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		if id := a.resolve(c); id != nil {
			c.Request = c.Request.WithContext(auth.WithIdentity(c.Request.Context(), id))
		}
		c.Next()
	}
}

func (a *Authenticator) resolve(c *gin.Context) *auth.Identity {
	const prefix = "Bearer "
	if header := c.GetHeader("Authorization"); a.Bearer != nil && strings.HasPrefix(header, prefix) {
		id, err := a.Bearer.Verify(c.Request.Context(), strings.TrimPrefix(header, prefix))
		if err != nil {
			a.Logger.Debug("bearer token rejected", zap.Error(err))
			return nil
		}
		return id
	}

	raw, err := c.Cookie(a.CookieName)
	if err != nil || raw == "" {
		return nil
	}
	id, err := a.Sessions.Parse(c.Request.Context(), raw)
	if err != nil {
		if !errors.Is(err, auth.ErrInvalidSession) && !errors.Is(err, auth.ErrSessionRevoked) {
			a.Logger.Warn("session lookup failed", zap.Error(err))
		}
		return nil
	}
	return a.current(c.Request.Context(), id)
}

func (a *Authenticator) current(ctx context.Context, id *auth.Identity) *auth.Identity {
	if a.Accounts == nil {
		return id
	}
	u, err := a.Accounts.Get(ctx, id.UserID)
	if err != nil {
		if !apperrors.IsNotFound(err) {
			a.Logger.Warn("account lookup failed", zap.Uint("user_id", id.UserID), zap.Error(err))
		}
		return nil
	}
	if !u.IsActive {
		return nil
	}
	id.Username = u.Username
	id.Role = u.Role
	return id
}

func CurrentIdentity(c *gin.Context) (*auth.Identity, bool) {
	return auth.FromContext(c.Request.Context())
}

func isAPI(c *gin.Context) bool {
	p := c.Request.URL.Path
	return p == "/api" || strings.HasPrefix(p, "/api/")
}

// LoginRequired sends anonymous page requests to loginPath and answers API
// requests with 401.
func LoginRequired(loginPath string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := CurrentIdentity(c); ok {
			c.Next()
			return
		}
		if isAPI(c) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authentication credentials were not provided"})
			return
		}
		target := loginPath
		if c.Request.Method == http.MethodGet {
			target += "?next=" + url.QueryEscape(c.Request.URL.RequestURI())
		}
		c.Redirect(http.StatusFound, target)
		c.Abort()
	}
}

// UnauthenticatedOnly keeps signed-in users away from the login and register pages.
func UnauthenticatedOnly(dashboard string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := CurrentIdentity(c); ok {
			c.Redirect(http.StatusFound, dashboard)
			c.Abort()
			return
		}
		c.Next()
	}
}

// AllowedRoles lets the request through only for the listed roles.
func AllowedRoles(roles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, _ := CurrentIdentity(c)
		if id.HasRole(roles...) {
			c.Next()
			return
		}
		if isAPI(c) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": apperrors.ErrPermissionDenied.Error()})
			return
		}
		c.String(http.StatusForbidden, "You are not authorized to view this page")
		c.Abort()
	}
}

func AdminOnly() gin.HandlerFunc {
	return AllowedRoles(models.RoleAdmin)
}

// RedirectRoles sends users holding one of roles to target instead of the
// wrapped page, e.g. customers opening the admin dashboard land on their own page.
func RedirectRoles(target string, roles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		if id, ok := CurrentIdentity(c); ok && id.HasRole(roles...) {
			c.Redirect(http.StatusFound, target)
			c.Abort()
			return
		}
		c.Next()
	}
}
