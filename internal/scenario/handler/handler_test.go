package handler

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"

	"scenario-gateway/internal/platform/middleware"
	"scenario-gateway/internal/scenario"
	"scenario-gateway/internal/session"
	"scenario-gateway/internal/upstream"
	"scenario-gateway/pkg/testutil"
)

// recordingRunner captures the request passed to the pipeline and returns
// a canned outcome.
type recordingRunner struct {
	lastRequest scenario.Request
	outcome     scenario.Outcome
}

func (r *recordingRunner) Run(_ context.Context, req scenario.Request) scenario.Outcome {
	r.lastRequest = req
	return r.outcome
}

type HandlerSuite struct {
	suite.Suite
	router    http.Handler
	runner    *recordingRunner
	authority *session.Authority
	env       map[string]string
}

func (s *HandlerSuite) SetupTest() {
	s.authority = session.NewAuthority("open sesame")
	s.runner = &recordingRunner{
		outcome: scenario.Outcome{
			OK:       true,
			Scenario: scenario.ScenarioApproved,
			Stages:   []scenario.StageResult{{Name: scenario.StageHealth, OK: true}},
			Result:   &scenario.Result{Outcome: scenario.ScenarioApproved},
		},
	}
	s.env = map[string]string{
		upstream.EnvBaseURL:        "https://api.example.com",
		upstream.EnvAPIKey:         "sk_test",
		upstream.EnvDefaultAgentID: "agent-1",
	}
	resolver := &upstream.Resolver{Lookup: func(key string) string { return s.env[key] }}

	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	h := New(s.runner, s.authority, resolver, logger)

	r := chi.NewRouter()
	h.Register(r, middleware.RequireSession(session.CookieName, s.authority, logger))
	s.router = r
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) sessionCookie() *http.Cookie {
	token, err := s.authority.Issue()
	s.Require().NoError(err)
	return &http.Cookie{Name: session.CookieName, Value: token}
}

func (s *HandlerSuite) TestStatus() {
	req := testutil.NewJSONRequest(s.T(), http.MethodGet, "/api/scenario", nil)
	rr := testutil.DoRequest(s.router, req)

	testutil.AssertStatus(s.T(), rr, http.StatusOK)
	testutil.AssertJSONContains(s.T(), rr, "authenticated", false)
	testutil.AssertJSONContains(s.T(), rr, "serviceConfigured", true)
	testutil.AssertJSONContains(s.T(), rr, "hasDefaultAgent", true)
	testutil.AssertJSONContains(s.T(), rr, "hasDefaultInstrument", false)
	testutil.AssertJSONContains(s.T(), rr, "serviceHost", "api.example.com")
}

func (s *HandlerSuite) TestRun_RequiresSession() {
	req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/api/scenario", map[string]string{"action": ActionRunFlow})
	rr := testutil.DoRequest(s.router, req)

	testutil.AssertStatusAndError(s.T(), rr, http.StatusUnauthorized, "session_required")
}

func (s *HandlerSuite) TestRun_RejectsTamperedCookie() {
	req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/api/scenario", map[string]string{"action": ActionRunFlow})
	req.AddCookie(&http.Cookie{Name: session.CookieName, Value: "forged.token"})
	rr := testutil.DoRequest(s.router, req)

	testutil.AssertStatusAndError(s.T(), rr, http.StatusUnauthorized, "session_required")
}

func (s *HandlerSuite) TestRun_UnsupportedAction() {
	req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/api/scenario", map[string]string{"action": "launch_missiles"})
	req.AddCookie(s.sessionCookie())
	rr := testutil.DoRequest(s.router, req)

	testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "unsupported_action")
}

func (s *HandlerSuite) TestRun_MalformedBodyDegradesToEmpty() {
	// An unparseable body is an empty object, which then fails the action
	// check rather than crashing the request.
	req := testutil.NewRequestWithBody(s.T(), http.MethodPost, "/api/scenario", `{{{`)
	req.AddCookie(s.sessionCookie())
	rr := testutil.DoRequest(s.router, req)

	testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "unsupported_action")
}

func (s *HandlerSuite) TestRun_Success() {
	req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/api/scenario", map[string]any{
		"action":       ActionRunFlow,
		"scenario":     "approved",
		"amount":       25,
		"counterparty": "Globex",
	})
	req.AddCookie(s.sessionCookie())
	rr := testutil.DoRequest(s.router, req)

	testutil.AssertStatus(s.T(), rr, http.StatusOK)
	out := testutil.UnmarshalResponse[scenario.Outcome](s.T(), rr)
	s.True(out.OK)
	s.Equal(scenario.ScenarioApproved, out.Scenario)

	s.Equal(25.0, s.runner.lastRequest.Amount)
	s.Equal("Globex", s.runner.lastRequest.Counterparty)
}

func (s *HandlerSuite) TestRun_PipelineFailureStillHTTP200() {
	s.runner.outcome = scenario.Outcome{
		OK:       false,
		Scenario: scenario.ScenarioApproved,
		Stages:   []scenario.StageResult{{Name: scenario.StageHealth, ErrorCode: upstream.ErrCodeUnreachable}},
		Error:    &scenario.ErrorResult{Stage: scenario.StageHealth, Code: upstream.ErrCodeUnreachable},
		Fallback: &scenario.Fallback{Recommended: scenario.FallbackSimulated},
	}

	req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/api/scenario", map[string]string{"action": ActionRunFlow})
	req.AddCookie(s.sessionCookie())
	rr := testutil.DoRequest(s.router, req)

	testutil.AssertStatus(s.T(), rr, http.StatusOK)
	out := testutil.UnmarshalResponse[scenario.Outcome](s.T(), rr)
	s.False(out.OK)
	s.Require().NotNil(out.Fallback)
	s.Equal(scenario.FallbackSimulated, out.Fallback.Recommended)
}

func (s *HandlerSuite) TestRun_AmountCoercion() {
	tests := []struct {
		name   string
		amount any
		want   float64
	}{
		{"number", 42.5, 42.5},
		{"numeric string", "17.25", 17.25},
		{"garbage string", "lots", 0},
		{"absent", nil, 0},
	}

	for _, tc := range tests {
		s.Run(tc.name, func() {
			body := map[string]any{"action": ActionRunFlow}
			if tc.amount != nil {
				body["amount"] = tc.amount
			}
			req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/api/scenario", body)
			req.AddCookie(s.sessionCookie())
			rr := testutil.DoRequest(s.router, req)

			testutil.AssertStatus(s.T(), rr, http.StatusOK)
			s.Equal(tc.want, s.runner.lastRequest.Amount)
		})
	}
}
