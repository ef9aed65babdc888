package handler

import (
	"encoding/json"
	"strconv"

	"scenario-gateway/internal/scenario"
)

// ActionRunFlow is the only action the scenario endpoint supports.
const ActionRunFlow = "run_flow"

// RunRequest is the HTTP request body for POST /api/scenario. Amount is
// accepted as a number or a numeric string and always coerced; anything
// else falls through to the scenario default.
type RunRequest struct {
	Action       string          `json:"action"`
	Scenario     string          `json:"scenario"`
	Amount       json.RawMessage `json:"amount"`
	Counterparty string          `json:"counterparty"`
	CategoryCode string          `json:"categoryCode"`
	AgentID      string          `json:"agentId"`
	InstrumentID string          `json:"instrumentId"`
}

// ToPipelineRequest maps the HTTP body onto the pipeline's request type.
func (r RunRequest) ToPipelineRequest() scenario.Request {
	return scenario.Request{
		Scenario:     r.Scenario,
		Amount:       coerceAmount(r.Amount),
		Counterparty: r.Counterparty,
		CategoryCode: r.CategoryCode,
		AgentID:      r.AgentID,
		InstrumentID: r.InstrumentID,
	}
}

// coerceAmount turns a raw JSON value into a float64, accepting numbers
// and numeric strings. Unparseable input yields zero so the pipeline
// applies its scenario default.
func coerceAmount(raw json.RawMessage) float64 {
	if len(raw) == 0 {
		return 0
	}
	var n float64
	if err := json.Unmarshal(raw, &n); err == nil {
		return n
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if parsed, err := strconv.ParseFloat(s, 64); err == nil {
			return parsed
		}
	}
	return 0
}
