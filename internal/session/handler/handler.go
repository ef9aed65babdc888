package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"scenario-gateway/internal/session"
	"scenario-gateway/internal/session/metrics"
	"scenario-gateway/internal/upstream"
	dErrors "scenario-gateway/pkg/domain-errors"
	"scenario-gateway/pkg/platform/httputil"
	"scenario-gateway/pkg/requestcontext"
)

// Handler wires the session endpoint to the token authority.
type Handler struct {
	authority     *session.Authority
	resolver      *upstream.Resolver
	secureCookies bool
	logger        *slog.Logger
	metrics       *metrics.Metrics
}

// New constructs a session handler. secureCookies marks the session cookie
// Secure, set in production. The metrics argument may be nil in tests.
func New(authority *session.Authority, resolver *upstream.Resolver, secureCookies bool, logger *slog.Logger, m *metrics.Metrics) *Handler {
	return &Handler{
		authority:     authority,
		resolver:      resolver,
		secureCookies: secureCookies,
		logger:        logger,
		metrics:       m,
	}
}

// Register mounts the session endpoint on the router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/api/session", h.HandleStatus)
	r.Post("/api/session", h.HandleLogin)
	r.Delete("/api/session", h.HandleLogout)
}

type loginRequest struct {
	Password string `json:"password"`
}

// HandleStatus reports authentication and configuration state. It never
// touches the upstream service.
func (h *Handler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	cfg := h.resolver.Resolve()
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"authenticated":         h.authority.Authenticated(r),
		"liveServiceConfigured": cfg.Ready(),
		"credentialConfigured":  h.authority.Configured(),
	})
}

// HandleLogin exchanges the operator password for a session cookie.
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if !h.authority.Configured() {
		h.metrics.IncrementLogin("not_configured")
		httputil.WriteError(w, dErrors.New(dErrors.CodeCredentialNotConfigured, "no access password is configured"))
		return
	}

	var req loginRequest
	httputil.DecodeLenient(r, &req)

	if !h.authority.CheckPassword(req.Password) {
		h.metrics.IncrementLogin("invalid_password")
		h.logger.WarnContext(ctx, "login rejected",
			"request_id", requestcontext.RequestID(ctx),
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidPassword, "password does not match"))
		return
	}

	token, err := h.authority.Issue()
	if err != nil {
		h.logger.ErrorContext(ctx, "token issuance failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeInternal, "could not issue session token"))
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     session.CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(session.TTL.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   h.secureCookies,
	})

	h.metrics.IncrementLogin("success")
	h.logger.InfoContext(ctx, "session issued",
		"request_id", requestcontext.RequestID(ctx),
	)

	cfg := h.resolver.Resolve()
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"success":               true,
		"authenticated":         true,
		"liveServiceConfigured": cfg.Ready(),
	})
}

// HandleLogout clears the session cookie. Tokens themselves cannot be
// revoked; they simply age out.
func (h *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     session.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   h.secureCookies,
	})
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"success":       true,
		"authenticated": false,
	})
}
