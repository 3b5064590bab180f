package middleware

import (
	"context"
	"errors"
	"net/http"

	"leetlab/internal/app/service"
	"leetlab/internal/common"
	"leetlab/internal/domain/model"

	"github.com/golang-jwt/jwt/v5/request"
)

type contextKey string

const userCtxKey contextKey = "user"

// TokenFromRequest pulls the bearer credential from the Authorization header,
// falling back to the session cookie the original frontend sends.
func TokenFromRequest(r *http.Request) string {
	token, err := request.BearerExtractor{}.ExtractToken(r)
	if err == nil {
		return token
	}
	if !errors.Is(err, request.ErrNoTokenInRequest) {
		return ""
	}
	if cookie, err := r.Cookie("token"); err == nil {
		return cookie.Value
	}
	return ""
}

// Authenticator guards routes that need a signed-in user.
func Authenticator(sessions *service.SessionService) func(next http.Handler) http.Handler {
	return authenticateWith(sessions.Authenticate)
}

// AdminOnly guards routes that need the privileged role.
func AdminOnly(sessions *service.SessionService) func(next http.Handler) http.Handler {
	return authenticateWith(sessions.AuthenticateAdmin)
}

func authenticateWith(authenticate func(context.Context, string) (*model.User, error)) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, err := authenticate(r.Context(), TokenFromRequest(r))
			if err != nil {
				common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
				return
			}
			ctx := context.WithValue(r.Context(), userCtxKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserFromContext returns the authenticated user placed by Authenticator.
func UserFromContext(ctx context.Context) (*model.User, bool) {
	user, ok := ctx.Value(userCtxKey).(*model.User)
	return user, ok
}
