// Package httptransport assembles the HTTP surface. Handlers live with
// their modules; this package only mounts them and the shared middleware.
package httptransport

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"scenario-gateway/internal/platform/middleware"
	scenariohandler "scenario-gateway/internal/scenario/handler"
	"scenario-gateway/internal/session"
	sessionhandler "scenario-gateway/internal/session/handler"
	dErrors "scenario-gateway/pkg/domain-errors"
	"scenario-gateway/pkg/platform/httputil"
)

// NewRouter wires all endpoints. Every unmatched method on a known route
// gets the JSON method_not_allowed envelope rather than chi's plain 405.
func NewRouter(sessions *sessionhandler.Handler, scenarios *scenariohandler.Handler, authority *session.Authority, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.RequestLogger(logger))
	r.Use(chimiddleware.Recoverer)

	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		httputil.WriteError(w, dErrors.New(dErrors.CodeMethodNotAllowed, "method not allowed"))
	})

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())

	sessions.Register(r)
	scenarios.Register(r, middleware.RequireSession(session.CookieName, authority, logger))

	return r
}
