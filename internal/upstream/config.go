// Package upstream holds the payment-service configuration resolver and
// the single-shot HTTP client the pipeline calls through.
package upstream

import (
	"net/url"
	"os"
	"strings"

	"github.com/asaskevich/govalidator"
)

// Environment variable names for the upstream payment service.
const (
	EnvBaseURL           = "PAYMENT_API_URL"
	EnvAPIKey            = "PAYMENT_API_KEY"
	EnvDefaultAgentID    = "PAYMENT_DEFAULT_AGENT_ID"
	EnvDefaultInstrument = "PAYMENT_DEFAULT_INSTRUMENT_ID"
)

// ServiceConfig is the per-call view of the payment-service configuration.
// Invalid takes precedence over everything else: when the configured URL
// fails absolute-URL validation, BaseURL is cleared and callers must treat
// the service as misconfigured, not merely unconfigured.
type ServiceConfig struct {
	BaseURL             string
	APIKey              string
	DefaultAgentID      string
	DefaultInstrumentID string
	Invalid             bool
}

// Ready reports whether the config is complete enough to attempt a call.
func (c ServiceConfig) Ready() bool {
	return !c.Invalid && c.BaseURL != "" && c.APIKey != ""
}

// Host returns the hostname of the configured service, or "" when absent.
func (c ServiceConfig) Host() string {
	if c.BaseURL == "" {
		return ""
	}
	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return ""
	}
	return u.Host
}

// Resolver reads the payment-service configuration fresh on every Resolve
// so rotated credentials take effect without a restart. Lookup defaults to
// os.Getenv; tests inject a map-backed function.
type Resolver struct {
	Lookup func(key string) string
}

// NewResolver returns a Resolver backed by the process environment.
func NewResolver() *Resolver {
	return &Resolver{Lookup: os.Getenv}
}

// Resolve builds the current ServiceConfig. It never returns an error: a
// malformed URL sets Invalid and clears BaseURL instead.
func (r *Resolver) Resolve() ServiceConfig {
	base := strings.TrimRight(strings.TrimSpace(r.Lookup(EnvBaseURL)), "/")
	cfg := ServiceConfig{
		BaseURL:             base,
		APIKey:              r.Lookup(EnvAPIKey),
		DefaultAgentID:      r.Lookup(EnvDefaultAgentID),
		DefaultInstrumentID: r.Lookup(EnvDefaultInstrument),
	}

	if base == "" {
		return cfg
	}

	u, err := url.Parse(base)
	if err != nil || !u.IsAbs() || u.Host == "" || !govalidator.IsRequestURL(base) {
		cfg.Invalid = true
		cfg.BaseURL = ""
	}
	return cfg
}
