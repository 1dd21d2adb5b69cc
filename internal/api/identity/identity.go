// Package identity bridges the external session provider and the service.
// Credential validation happens upstream at the auth gateway; by the time a
// request arrives here it carries the authenticated user id in a trusted
// header, and this middleware only resolves the caller's profile and role.
package identity

import (
	"context"
	"net/http"

	"attendance.service/internal/core/model"
	"attendance.service/internal/ports/repository"
	"github.com/rs/zerolog/log"
)

// UserIDHeader is set by the gateway after session validation.
const UserIDHeader = "X-User-Id"

type contextKey struct{}

// Caller is the resolved identity of the current request.
type Caller struct {
	ID   string
	Role model.Role
}

// CallerFromContext returns the resolved caller, if any.
func CallerFromContext(ctx context.Context) (Caller, bool) {
	caller, ok := ctx.Value(contextKey{}).(Caller)
	return caller, ok
}

// Middleware resolves the caller's role from the profile store and attaches
// it to the request context. Requests without a known user proceed without a
// caller; handlers reject those with 401.
func Middleware(repo repository.Repository) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID := r.Header.Get(UserIDHeader)
			if userID == "" {
				next.ServeHTTP(w, r)
				return
			}

			profile, err := repo.GetProfile(r.Context(), userID)
			if err != nil {
				log.Ctx(r.Context()).Error().Err(err).Msg("Failed to resolve caller profile")
				next.ServeHTTP(w, r)
				return
			}
			if profile == nil {
				next.ServeHTTP(w, r)
				return
			}

			ctx := context.WithValue(r.Context(), contextKey{}, Caller{ID: profile.ID, Role: profile.Role})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
