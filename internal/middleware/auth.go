package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/abdulhamidalthaljy/CareConnect/internal/model"
	apperrors "github.com/abdulhamidalthaljy/CareConnect/pkg/errors"
	"github.com/abdulhamidalthaljy/CareConnect/pkg/httputil"
)

const (
	ContextUser  = "current_user"
	ContextToken = "session_token"
)

// Authenticator resolves a session token to its user.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*model.User, error)
}

type AuthMiddleware struct {
	auth       Authenticator
	cookieName string
}

func NewAuthMiddleware(auth Authenticator, cookieName string) *AuthMiddleware {
	return &AuthMiddleware{auth: auth, cookieName: cookieName}
}

// Token reads the session token from the cookie or a Bearer header.
func (m *AuthMiddleware) Token(c *gin.Context) string {
	if token, err := c.Cookie(m.cookieName); err == nil && token != "" {
		return token
	}
	parts := strings.SplitN(c.GetHeader("Authorization"), " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return strings.TrimSpace(parts[1])
	}
	return ""
}

// Identify attaches the session user when there is one and never aborts.
func (m *AuthMiddleware) Identify() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := m.Token(c)
		if token != "" {
			user, err := m.auth.Authenticate(c.Request.Context(), token)
			if err == nil {
				c.Set(ContextUser, user)
				c.Set(ContextToken, token)
			} else if !apperrors.IsCode(err, apperrors.ErrUnauthorized) {
				httputil.RespondWithError(c, err)
				return
			}
		}
		c.Next()
	}
}

// RequireAuth sends anonymous browsers to /login and answers 401 otherwise.
// It expects Identify to have run.
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := CurrentUser(c); ok {
			c.Next()
			return
		}
		if strings.Contains(c.GetHeader("Accept"), "text/html") {
			c.Redirect(http.StatusFound, "/login")
			c.Abort()
			return
		}
		httputil.RespondWithError(c, apperrors.NewUnauthorized("authentication required"))
	}
}

// RequireRole must run after RequireAuth.
func RequireRole(role model.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := CurrentUser(c)
		if !ok || user.Role != role {
			httputil.RespondWithError(c, apperrors.NewForbidden(role.String()+" role required"))
			return
		}
		c.Next()
	}
}

func CurrentUser(c *gin.Context) (*model.User, bool) {
	v, ok := c.Get(ContextUser)
	if !ok {
		return nil, false
	}
	user, ok := v.(*model.User)
	return user, ok && user != nil
}

// MustUser is for handlers mounted behind RequireAuth.
func MustUser(c *gin.Context) *model.User {
	user, _ := CurrentUser(c)
	return user
}
