package controllers

import (
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"studio-go/app/session"
)

// Authenticate verifies the bearer token and stores the session in the
// request context.
func Authenticate(issuer *session.Issuer, logger *zap.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || strings.TrimSpace(token) == "" {
				writeError(w, logger, session.ErrUnauthenticated)
				return
			}

			s, err := issuer.Verify(strings.TrimSpace(token))
			if err != nil {
				logger.Debug("rejected token", zap.Error(err))
				writeError(w, logger, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(session.WithSession(r.Context(), s)))
		})
	}
}

// RequireRole rejects sessions that hold none of the given roles.
func RequireRole(logger *zap.Logger, roles ...session.Role) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			s, err := session.FromContext(r.Context())
			if err != nil {
				writeError(w, logger, err)
				return
			}
			if !s.Is(roles...) {
				writeError(w, logger, session.ErrForbidden)
				return
			}
			next(w, r)
		}
	}
}
