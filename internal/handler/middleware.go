package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/portalfin/dashboard-bff-go/internal/domain"
	"github.com/portalfin/dashboard-bff-go/internal/service"

	"go.uber.org/zap"
)

type contextKey string

const subjectKey contextKey = "subject"

// RequireSession guards protected routes. Decision table, evaluated on
// every request:
//
//	authenticating        → 503 with a retry hint
//	no token, not authed  → 401 with {"redirect": "/login"}
//	token but not authed  → re-derive the session, then proceed
//	authenticated         → validate the gateway JWT and serve
func RequireSession(sessions *service.SessionService, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch sessions.State() {
			case domain.StateAuthenticating:
				w.Header().Set("Retry-After", "1")
				writeError(w, http.StatusServiceUnavailable, "session is being established, retry shortly")
				return

			case domain.StateAuthenticated:
				// fall through to token validation

			default:
				if sessions.Token() == "" {
					logger.Debug("guard: no session",
						zap.String("path", r.URL.Path),
					)
					writeJSON(w, http.StatusUnauthorized, redirectResponse{
						Error:    "authentication required",
						Redirect: "/login",
					})
					return
				}
				// A persisted token exists but the state machine lost
				// track (e.g. after a restart): re-derive and proceed.
				if !sessions.Reinitialize() {
					writeJSON(w, http.StatusUnauthorized, redirectResponse{
						Error:    "authentication required",
						Redirect: "/login",
					})
					return
				}
				logger.Info("guard: session re-initialized from persisted token")
			}

			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				logger.Warn("guard: missing access token",
					zap.String("path", r.URL.Path),
					zap.String("remote_addr", r.RemoteAddr),
				)
				writeError(w, http.StatusUnauthorized, "missing access token")
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				logger.Warn("guard: invalid token format",
					zap.String("path", r.URL.Path),
				)
				writeError(w, http.StatusUnauthorized, "invalid token format")
				return
			}

			claims, err := sessions.ValidateAccessToken(parts[1])
			if err != nil {
				logger.Warn("guard: invalid or expired token",
					zap.String("path", r.URL.Path),
					zap.Error(err),
				)
				writeError(w, http.StatusUnauthorized, err.Error())
				return
			}

			ctx := context.WithValue(r.Context(), subjectKey, claims.Sub)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// SubjectFromContext extracts the authenticated subject from context.
func SubjectFromContext(ctx context.Context) string {
	v, _ := ctx.Value(subjectKey).(string)
	return v
}
