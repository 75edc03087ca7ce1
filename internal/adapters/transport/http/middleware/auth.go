package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/Miraines/MoonyAndStarry/notes-service/internal/adapters/transport/http/httperr"
	"github.com/Miraines/MoonyAndStarry/notes-service/internal/app/authz"
	customErrors "github.com/Miraines/MoonyAndStarry/notes-service/internal/domain/auth/errors"
	"github.com/Miraines/MoonyAndStarry/notes-service/internal/domain/auth/model"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type principalKey struct{}

type Authenticator interface {
	Authenticate(ctx context.Context, accessToken string) (model.Principal, error)
}

// WithPrincipal scopes the principal to a single request context.
func WithPrincipal(ctx context.Context, p model.Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

func PrincipalFrom(ctx context.Context) (model.Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(model.Principal)
	return p, ok
}

// Authenticate resolves a Bearer token into a principal. Requests without one pass through anonymously.
func Authenticate(auth Authenticator, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, present := bearerToken(c.GetHeader("Authorization"))
		if !present {
			c.Next()
			return
		}

		p, err := auth.Authenticate(c.Request.Context(), token)
		switch {
		case err == nil:
		case customErrors.IsInvalidToken(err):
			httperr.Abort(c, http.StatusUnauthorized, httperr.MsgNotAuthenticated)
			return
		default:
			httperr.Handle(c, err, log)
			return
		}

		c.Request = c.Request.WithContext(WithPrincipal(c.Request.Context(), p))
		c.Next()
	}
}

// RequireAuth rejects anonymous requests.
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := PrincipalFrom(c.Request.Context()); !ok {
			httperr.Abort(c, http.StatusUnauthorized, httperr.MsgNotAuthenticated)
			return
		}
		c.Next()
	}
}

func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := PrincipalFrom(c.Request.Context())
		if !ok {
			httperr.Abort(c, http.StatusUnauthorized, httperr.MsgNotAuthenticated)
			return
		}
		if err := authz.HasAnyRole(p, roles...); err != nil {
			httperr.Abort(c, http.StatusForbidden, httperr.MsgAccessDenied)
			return
		}
		c.Next()
	}
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	return strings.TrimSpace(token), true
}
