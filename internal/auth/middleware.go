package auth

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/sakif/vines-backend/internal/model"
)

// contextKey is an unexported type used for context keys in this package.
//
// context.WithValue accepts any key. With a plain string key, any package
// that knows the string could read or shadow the value; a package-private
// type means only this package can.
type contextKey string

const principalKey contextKey = "principal"

// TokenCookie is the cookie checked when no Authorization header is sent.
const TokenCookie = "token"

// UserEnsurer creates the caller's user row on first sight.
// service.UserService implements it.
type UserEnsurer interface {
	EnsureUser(ctx context.Context, p model.Principal) error
}

// RequireAuth is a middleware that enforces authentication on protected routes.
//
// It reads the bearer token, verifies it, makes sure the caller has a user
// row, and stores the Principal in the request context. A missing or
// rejected token stops the chain with 401. A verifier or database failure
// stops it with 500: the caller's credential may be fine.
//
// MIDDLEWARE PATTERN IN GO:
//
//	func Middleware(next http.Handler) http.Handler {
//	    return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
//	        // ... before ...
//	        next.ServeHTTP(w, r)
//	        // ... after ...
//	    })
//	}
func RequireAuth(v Verifier, users UserEnsurer, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				writeAuthError(w, http.StatusUnauthorized, "unauthorized", "valid authentication required")
				return
			}

			p, err := v.Verify(r.Context(), token)
			if err != nil {
				if errors.Is(err, ErrInvalidToken) {
					writeAuthError(w, http.StatusUnauthorized, "unauthorized", "valid authentication required")
					return
				}
				logger.Error("token verification failed", slog.String("error", err.Error()))
				writeAuthError(w, http.StatusInternalServerError, "internal_error", "could not verify credentials")
				return
			}

			if err := users.EnsureUser(r.Context(), p); err != nil {
				logger.Error("ensuring user failed",
					slog.String("user_id", p.UserID),
					slog.String("error", err.Error()),
				)
				writeAuthError(w, http.StatusInternalServerError, "internal_error", "an internal error occurred")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), p)))
		})
	}
}

// WithPrincipal returns a copy of ctx carrying p.
func WithPrincipal(ctx context.Context, p model.Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

// PrincipalFromContext returns the authenticated caller, or false on a
// route that is not behind RequireAuth.
func PrincipalFromContext(ctx context.Context) (model.Principal, bool) {
	p, ok := ctx.Value(principalKey).(model.Principal)
	return p, ok && p.UserID != ""
}

// bearerToken reads "Authorization: Bearer <token>", falling back to the
// token cookie.
func bearerToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		scheme, token, ok := strings.Cut(h, " ")
		if ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(token)
		}
		return ""
	}
	if c, err := r.Cookie(TokenCookie); err == nil {
		return c.Value
	}
	return ""
}

func writeAuthError(w http.ResponseWriter, status int, kind, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": kind, "message": message})
}
