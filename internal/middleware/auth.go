package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/Paxto2002/project-vidora/internal/apperr"
	"github.com/Paxto2002/project-vidora/internal/auth"
	"github.com/Paxto2002/project-vidora/internal/logging"
	"github.com/Paxto2002/project-vidora/internal/models"
	"github.com/Paxto2002/project-vidora/internal/repositories"
	"github.com/Paxto2002/project-vidora/internal/response"
)

// AccessTokenCookie names the cookie carrying the access token.
const AccessTokenCookie = "AccessToken"

// TokenVerifier validates access tokens.
type TokenVerifier interface {
	VerifyAccess(token string) (auth.Claims, error)
}

// UserLookup resolves the user behind a verified token.
type UserLookup interface {
	FindByID(ctx context.Context, id string) (models.User, error)
}

// Authenticate requires a valid access token, from the AccessToken cookie or a Bearer
// Authorization header, and stores the resolved user as the request's viewer.
func Authenticate(tokens TokenVerifier, users UserLookup) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			token := accessToken(r)
			if token == "" {
				response.Error(ctx, w, apperr.Auth("Unauthorized request", nil))
				return
			}

			claims, err := tokens.VerifyAccess(token)
			if err != nil {
				response.Error(ctx, w, apperr.Auth("Invalid access token", err))
				return
			}

			user, err := users.FindByID(ctx, claims.Subject)
			if err != nil {
				if errors.Is(err, repositories.ErrNotFound) {
					response.Error(ctx, w, apperr.Auth("Invalid access token", err))
					return
				}
				response.Error(ctx, w, apperr.Internal(err))
				return
			}

			ctx = auth.WithViewer(ctx, user)
			ctx = logging.WithLogger(ctx, logging.FromContext(ctx).With("user_id", user.ID))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func accessToken(r *http.Request) string {
	if cookie, err := r.Cookie(AccessTokenCookie); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	header := r.Header.Get("Authorization")
	if token, ok := strings.CutPrefix(header, "Bearer "); ok {
		return strings.TrimSpace(token)
	}
	return ""
}
