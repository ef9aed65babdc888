package config

import "os"

// Server captures process-level configuration read once at startup.
// Upstream payment-service values are deliberately not here: the resolver
// in internal/upstream re-reads them per call so rotation takes effect
// without a restart.
type Server struct {
	Addr           string
	AccessPassword string
	Production     bool
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	addr := os.Getenv("GATEWAY_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	return Server{
		Addr:           addr,
		AccessPassword: os.Getenv("GATEWAY_ACCESS_PASSWORD"),
		Production:     os.Getenv("GATEWAY_ENV") == "production",
	}
}
