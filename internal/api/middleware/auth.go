package middleware

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"

	"github.com/openreferee/server/internal/api/problem"
	"github.com/openreferee/server/internal/domain/events"
)

type contextKey string

const eventContextKey contextKey = "hubEvent"

const bearerPrefix = "Bearer "

// EventTokenAuth resolves the {identifier} path segment to a registered event
// and validates the request's bearer token against the event's stored token.
// Lookup runs before token validation: an unknown identifier is NotFound even
// when no credentials were sent. It wraps every event-scoped handler, so no
// body is parsed before the caller is authenticated.
func EventTokenAuth(repo events.Repository, env string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identifier := strings.TrimSpace(r.PathValue("identifier"))
			event, err := repo.Get(r.Context(), identifier)
			if err != nil {
				if errors.Is(err, events.ErrNotFound) {
					problem.Write(w, r, http.StatusNotFound, "https://openreferee.dev/problems/not-found", "Unknown event", err, env)
					return
				}
				problem.Write(w, r, http.StatusInternalServerError, "https://openreferee.dev/problems/server-error", "Server error", err, env)
				return
			}

			token := bearerToken(r)
			if token == "" {
				problem.Write(w, r, http.StatusUnauthorized, "https://openreferee.dev/problems/unauthorized", "Unauthorized",
					errors.New("token missing"), env, problem.WithDetail("token missing"))
				return
			}
			if subtle.ConstantTimeCompare([]byte(token), []byte(event.Token)) != 1 {
				problem.Write(w, r, http.StatusUnauthorized, "https://openreferee.dev/problems/unauthorized", "Unauthorized",
					errors.New("invalid token"), env, problem.WithDetail("invalid token"))
				return
			}

			next.ServeHTTP(w, r.WithContext(ContextWithEvent(r.Context(), event)))
		})
	}
}

func bearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if !strings.HasPrefix(auth, bearerPrefix) {
		return ""
	}
	return auth[len(bearerPrefix):]
}

// ContextWithEvent stores the authorized event in a context.
func ContextWithEvent(ctx context.Context, event *events.Event) context.Context {
	return context.WithValue(ctx, eventContextKey, event)
}

// EventFromContext returns the event placed in the context by EventTokenAuth,
// or nil outside an authenticated request.
func EventFromContext(ctx context.Context) *events.Event {
	if event, ok := ctx.Value(eventContextKey).(*events.Event); ok {
		return event
	}
	return nil
}
