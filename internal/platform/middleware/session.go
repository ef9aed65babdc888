package middleware

import (
	"log/slog"
	"net/http"

	dErrors "scenario-gateway/pkg/domain-errors"
	"scenario-gateway/pkg/platform/httputil"
	"scenario-gateway/pkg/requestcontext"
)

// TokenVerifier validates an opaque session token.
type TokenVerifier interface {
	Verify(token string) bool
}

// RequireSession rejects requests whose session cookie is absent, expired
// or tampered with. It never distinguishes those cases to the client.
func RequireSession(cookieName string, verifier TokenVerifier, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(cookieName)
			if err != nil || !verifier.Verify(cookie.Value) {
				ctx := r.Context()
				logger.WarnContext(ctx, "rejected request without valid session",
					"request_id", requestcontext.RequestID(ctx),
					"path", r.URL.Path,
				)
				httputil.WriteError(w, dErrors.New(dErrors.CodeSessionRequired, "a valid session is required"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
