package scenario

import "time"

// Scenario tags. The tag is a demonstration override: "blocked" forces a
// blocked outcome even when the live policy would allow the transaction.
const (
	ScenarioApproved = "approved"
	ScenarioBlocked  = "blocked"
)

// Per-scenario amount defaults applied when the caller omits an amount.
const (
	defaultApprovedAmount = 25
	defaultBlockedAmount  = 1500
)

const (
	defaultCounterparty = "Acme Supply Co."
	defaultCategoryCode = "7399"
)

// Request is the caller-supplied intent for one pipeline run. Empty
// identifier fields fall back to configured defaults; the absence of a
// default is a legitimate state, not an error.
type Request struct {
	Scenario     string
	Amount       float64
	Counterparty string
	CategoryCode string
	AgentID      string
	InstrumentID string
}

// Normalized returns a copy with the scenario tag coerced into the closed
// set and all defaults applied.
func (r Request) Normalized() Request {
	if r.Scenario != ScenarioBlocked {
		r.Scenario = ScenarioApproved
	}
	if r.Amount <= 0 {
		if r.Scenario == ScenarioBlocked {
			r.Amount = defaultBlockedAmount
		} else {
			r.Amount = defaultApprovedAmount
		}
	}
	if r.Counterparty == "" {
		r.Counterparty = defaultCounterparty
	}
	if r.CategoryCode == "" {
		r.CategoryCode = defaultCategoryCode
	}
	return r
}

// StageResult records one pipeline step. Entries are appended in execution
// order and never mutated afterwards.
type StageResult struct {
	Name       string `json:"name"`
	OK         bool   `json:"ok"`
	Status     int    `json:"status,omitempty"`
	DurationMs int64  `json:"durationMs"`
	ErrorCode  string `json:"errorCode,omitempty"`
	Detail     string `json:"detail,omitempty"`
}

// Receipt is the normalized record of a successful funds movement.
type Receipt struct {
	ID           string `json:"id"`
	Amount       string `json:"amount"`
	Counterparty string `json:"counterparty"`
	Rail         string `json:"rail"`
}

// BlockedAttempt is the synthesized record of a disallowed transaction.
type BlockedAttempt struct {
	ID           string    `json:"id"`
	Counterparty string    `json:"counterparty"`
	Amount       float64   `json:"amount"`
	ReasonCode   string    `json:"reasonCode"`
	Timestamp    time.Time `json:"timestamp"`
}

// Result is the business terminal of a run: approved (with an optional
// receipt) or blocked (with a reason and attempt record).
type Result struct {
	Outcome string          `json:"outcome"`
	Receipt *Receipt        `json:"receipt,omitempty"`
	Note    string          `json:"note,omitempty"`
	Reason  string          `json:"reason,omitempty"`
	Attempt *BlockedAttempt `json:"attempt,omitempty"`
}

// ErrorResult identifies the stage whose call failed.
type ErrorResult struct {
	Stage  string `json:"stage"`
	Code   string `json:"code"`
	Detail string `json:"detail,omitempty"`
}

// Fallback recommends how the caller should retry a failed run.
type Fallback struct {
	Recommended string `json:"recommended"`
}

// Outcome is the terminal structure of one pipeline run. Exactly one of
// Result and Error is set; Fallback accompanies Error only. A blocked
// transaction is a successful run (OK true) with a blocked Result, never
// an Error: business denials and transport failures must not be conflated.
type Outcome struct {
	OK       bool          `json:"ok"`
	Scenario string        `json:"scenario"`
	Stages   []StageResult `json:"stages"`
	Result   *Result       `json:"result,omitempty"`
	Error    *ErrorResult  `json:"error,omitempty"`
	Fallback *Fallback     `json:"fallback,omitempty"`
}
