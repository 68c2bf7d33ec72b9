package http

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/httplog/v2"
	"github.com/go-chi/render"
	"github.com/vadimbarashkov/dlink/pkg/response"
)

type userKey struct{}

// userID returns the authenticated user of the request, or "" when anonymous.
func userID(ctx context.Context) string {
	id, _ := ctx.Value(userKey{}).(string)
	return id
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")

	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}

	return strings.TrimSpace(token)
}

// requireAuth rejects requests without a valid bearer token with 401.
func requireAuth(svc Service) func(http.Handler) http.Handler {
	const op = "backend.http.requireAuth"

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, response.UnauthorizedResponse)
				return
			}

			id, err := svc.Authenticate(token)
			if err != nil {
				httplog.LogEntrySetFields(r.Context(), map[string]any{"op": op, "err": err})

				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, response.UnauthorizedResponse)
				return
			}

			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userKey{}, id)))
		})
	}
}

// optionalAuth attaches the user of a valid bearer token and ignores anything else.
func optionalAuth(svc Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token := bearerToken(r); token != "" {
				if id, err := svc.Authenticate(token); err == nil {
					r = r.WithContext(context.WithValue(r.Context(), userKey{}, id))
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}
