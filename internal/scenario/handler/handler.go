package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"scenario-gateway/internal/scenario"
	"scenario-gateway/internal/session"
	"scenario-gateway/internal/upstream"
	dErrors "scenario-gateway/pkg/domain-errors"
	"scenario-gateway/pkg/platform/httputil"
	"scenario-gateway/pkg/requestcontext"
)

// Runner executes one scenario pipeline run.
type Runner interface {
	Run(ctx context.Context, req scenario.Request) scenario.Outcome
}

// Handler wires the scenario endpoint to the pipeline.
type Handler struct {
	pipeline  Runner
	authority *session.Authority
	resolver  *upstream.Resolver
	logger    *slog.Logger
}

// New constructs a scenario handler with its dependencies.
func New(pipeline Runner, authority *session.Authority, resolver *upstream.Resolver, logger *slog.Logger) *Handler {
	return &Handler{
		pipeline:  pipeline,
		authority: authority,
		resolver:  resolver,
		logger:    logger,
	}
}

// Register mounts the scenario endpoint. Only the run action is gated:
// the status probe reports authentication state rather than requiring it.
func (h *Handler) Register(r chi.Router, requireSession func(http.Handler) http.Handler) {
	r.Get("/api/scenario", h.HandleStatus)
	r.With(requireSession).Post("/api/scenario", h.HandleRun)
}

// HandleStatus reports configuration completeness without making any
// external calls.
func (h *Handler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	cfg := h.resolver.Resolve()
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"authenticated":        h.authority.Authenticated(r),
		"serviceConfigured":    cfg.Ready(),
		"hasDefaultAgent":      cfg.DefaultAgentID != "",
		"hasDefaultInstrument": cfg.DefaultInstrumentID != "",
		"serviceHost":          cfg.Host(),
	})
}

// HandleRun handles POST /api/scenario. Pipeline-level failures come back
// as HTTP 200 with ok false in the body: they are business outcomes, not
// request errors.
func (h *Handler) HandleRun(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	var req RunRequest
	httputil.DecodeLenient(r, &req)

	if req.Action != ActionRunFlow {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnsupportedAction, "action must be run_flow"))
		return
	}

	outcome := h.pipeline.Run(ctx, req.ToPipelineRequest())

	h.logger.InfoContext(ctx, "scenario run finished",
		"request_id", requestID,
		"scenario", outcome.Scenario,
		"ok", outcome.OK,
		"stages", len(outcome.Stages),
		"duration_ms", time.Since(start).Milliseconds(),
	)

	httputil.WriteJSON(w, http.StatusOK, outcome)
}
