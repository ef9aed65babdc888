// Package scenario implements the orchestration pipeline that runs one
// payment scenario as an ordered sequence of dependent calls against the
// external payment service: health check, optional policy evaluation,
// optional funds movement. Each stage gates the next; there are no loops
// and no retries.
package scenario

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"scenario-gateway/internal/scenario/metrics"
	"scenario-gateway/internal/upstream"
)

// Stage names as they appear in the trail.
const (
	StageHealth = "health"
	StagePolicy = "policy"
	StageFunds  = "funds"
)

// Upstream endpoints. The legacy health path is probed only when the
// primary fails.
const (
	healthPath       = "/api/health"
	legacyHealthPath = "/health"
	policyPath       = "/api/policy/evaluate"
	paymentsPath     = "/api/payments"
)

// FallbackSimulated recommends re-running in non-live mode after a failure.
const FallbackSimulated = "simulated"

const (
	defaultBlockReason = "Blocked by spending policy"
	defaultBlockCode   = "POLICY_BLOCK"
	defaultRail        = "card"
)

// Caller abstracts the upstream client for tests.
type Caller interface {
	Call(ctx context.Context, method, path string, body any, timeout time.Duration) upstream.CallResult
}

// Pipeline coordinates one scenario run. It holds no per-run state; every
// invocation resolves configuration fresh and performs fresh calls.
type Pipeline struct {
	resolver *upstream.Resolver
	client   Caller
	logger   *slog.Logger
	metrics  *metrics.Metrics
	tracer   trace.Tracer
	now      func() time.Time
}

// New constructs a Pipeline. The metrics argument may be nil in tests.
func New(resolver *upstream.Resolver, client Caller, logger *slog.Logger, m *metrics.Metrics) *Pipeline {
	return &Pipeline{
		resolver: resolver,
		client:   client,
		logger:   logger,
		metrics:  m,
		tracer:   otel.Tracer("scenario-gateway/scenario"),
		now:      time.Now,
	}
}

// Run executes the staged call sequence and returns the terminal outcome.
// Business denials come back as OK with a blocked result; only a failed
// required stage produces an error outcome.
func (p *Pipeline) Run(ctx context.Context, req Request) Outcome {
	req = req.Normalized()
	cfg := p.resolver.Resolve()

	ctx, span := p.tracer.Start(ctx, "scenario.run", trace.WithAttributes(
		attribute.String("scenario.tag", req.Scenario),
		attribute.Float64("scenario.amount", req.Amount),
	))
	defer span.End()

	out := Outcome{Scenario: req.Scenario}

	health := p.healthStage(ctx)
	out.Stages = append(out.Stages, health)
	if !health.OK {
		return p.failed(out, health)
	}

	agentID := firstNonEmpty(req.AgentID, cfg.DefaultAgentID)
	allowed := true
	reason := ""
	if agentID == "" {
		// Skipped stages stay in the trail so the operator can see why
		// a step did not run.
		out.Stages = append(out.Stages, StageResult{
			Name:   StagePolicy,
			OK:     true,
			Detail: "skipped, no identifier",
		})
	} else {
		stage, res := p.policyStage(ctx, agentID, req)
		out.Stages = append(out.Stages, stage)
		if !stage.OK {
			return p.failed(out, stage)
		}
		allowed, reason = decodePolicy(res.Data)
	}

	// The blocked tag is a demonstration override, not a hint: it forces
	// a blocked outcome even when the live policy allows.
	if req.Scenario == ScenarioBlocked || !allowed {
		return p.blocked(out, req, reason)
	}

	instrumentID := firstNonEmpty(req.InstrumentID, cfg.DefaultInstrumentID)
	if instrumentID == "" {
		out.Stages = append(out.Stages, StageResult{
			Name:   StageFunds,
			OK:     true,
			Detail: "skipped, no funding instrument",
		})
		out.OK = true
		out.Result = &Result{
			Outcome: ScenarioApproved,
			Note:    "policy allowed the transaction; settlement skipped because no funding instrument is configured",
		}
		p.finish(out)
		return out
	}

	stage, res := p.fundsStage(ctx, agentID, instrumentID, req)
	out.Stages = append(out.Stages, stage)
	if !stage.OK {
		return p.failed(out, stage)
	}

	out.OK = true
	out.Result = &Result{
		Outcome: ScenarioApproved,
		Receipt: receiptFrom(res.Data, req),
	}
	p.finish(out)
	return out
}

// healthStage probes the primary endpoint and falls back to the legacy one
// only when the primary fails. The stage records whichever endpoint
// answered, or the primary's failure when both fail.
func (p *Pipeline) healthStage(ctx context.Context) StageResult {
	ctx, span := p.tracer.Start(ctx, "scenario.stage.health")
	defer span.End()

	primary := p.client.Call(ctx, http.MethodGet, healthPath, nil, 0)
	if primary.OK {
		return p.observe(stageFromResult(StageHealth, primary, healthPath))
	}

	legacy := p.client.Call(ctx, http.MethodGet, legacyHealthPath, nil, 0)
	if legacy.OK {
		return p.observe(stageFromResult(StageHealth, legacy, legacyHealthPath))
	}
	return p.observe(stageFromResult(StageHealth, primary, ""))
}

func (p *Pipeline) policyStage(ctx context.Context, agentID string, req Request) (StageResult, upstream.CallResult) {
	ctx, span := p.tracer.Start(ctx, "scenario.stage.policy",
		trace.WithAttributes(attribute.String("agent.id", agentID)))
	defer span.End()

	res := p.client.Call(ctx, http.MethodPost, policyPath, map[string]any{
		"agentId":      agentID,
		"amount":       req.Amount,
		"counterparty": req.Counterparty,
		"categoryCode": req.CategoryCode,
	}, 0)
	return p.observe(stageFromResult(StagePolicy, res, "")), res
}

func (p *Pipeline) fundsStage(ctx context.Context, agentID, instrumentID string, req Request) (StageResult, upstream.CallResult) {
	ctx, span := p.tracer.Start(ctx, "scenario.stage.funds",
		trace.WithAttributes(attribute.String("instrument.id", instrumentID)))
	defer span.End()

	res := p.client.Call(ctx, http.MethodPost, paymentsPath, map[string]any{
		"agentId":      agentID,
		"instrumentId": instrumentID,
		"amount":       req.Amount,
		"counterparty": req.Counterparty,
		"categoryCode": req.CategoryCode,
	}, 0)
	return p.observe(stageFromResult(StageFunds, res, "")), res
}

func (p *Pipeline) blocked(out Outcome, req Request, reason string) Outcome {
	reasonCode := defaultBlockCode
	if reason != "" {
		reasonCode = reason
	} else {
		reason = defaultBlockReason
	}

	out.OK = true
	out.Result = &Result{
		Outcome: ScenarioBlocked,
		Reason:  reason,
		Attempt: &BlockedAttempt{
			ID:           uuid.NewString(),
			Counterparty: req.Counterparty,
			Amount:       req.Amount,
			ReasonCode:   reasonCode,
			Timestamp:    p.now().UTC(),
		},
	}
	p.finish(out)
	return out
}

// failed terminates the run at the stage whose call failed and recommends
// the simulated fallback.
func (p *Pipeline) failed(out Outcome, stage StageResult) Outcome {
	out.OK = false
	out.Error = &ErrorResult{
		Stage:  stage.Name,
		Code:   stage.ErrorCode,
		Detail: stage.Detail,
	}
	out.Fallback = &Fallback{Recommended: FallbackSimulated}

	p.logger.Warn("scenario run failed",
		"scenario", out.Scenario,
		"stage", stage.Name,
		"code", stage.ErrorCode,
	)
	p.metrics.IncrementOutcome(out.Scenario, "error")
	return out
}

func (p *Pipeline) finish(out Outcome) {
	p.logger.Info("scenario run completed",
		"scenario", out.Scenario,
		"outcome", out.Result.Outcome,
		"stages", len(out.Stages),
	)
	p.metrics.IncrementOutcome(out.Scenario, out.Result.Outcome)
}

func (p *Pipeline) observe(s StageResult) StageResult {
	p.metrics.ObserveStageLatency(s.Name, time.Duration(s.DurationMs)*time.Millisecond)
	return s
}

func stageFromResult(name string, res upstream.CallResult, detail string) StageResult {
	s := StageResult{
		Name:       name,
		OK:         res.OK,
		Status:     res.Status,
		DurationMs: res.Elapsed.Milliseconds(),
		ErrorCode:  res.ErrorCode,
	}
	if detail != "" {
		s.Detail = detail
	} else {
		s.Detail = res.Detail
	}
	return s
}

// decodePolicy fails closed: a response missing the allowed field is
// treated as not allowed.
func decodePolicy(data map[string]any) (allowed bool, reason string) {
	allowed, _ = data["allowed"].(bool)
	reason, _ = data["reason"].(string)
	return allowed, reason
}

func receiptFrom(data map[string]any, req Request) *Receipt {
	id := firstNonEmpty(stringField(data, "id"), stringField(data, "paymentId"), uuid.NewString())
	rail := firstNonEmpty(stringField(data, "rail"), defaultRail)
	return &Receipt{
		ID:           id,
		Amount:       fmt.Sprintf("%.2f", req.Amount),
		Counterparty: req.Counterparty,
		Rail:         rail,
	}
}

func stringField(data map[string]any, key string) string {
	v, _ := data[key].(string)
	return v
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
