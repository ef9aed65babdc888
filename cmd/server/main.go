package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"scenario-gateway/internal/platform/config"
	"scenario-gateway/internal/platform/httpserver"
	"scenario-gateway/internal/platform/logger"
	"scenario-gateway/internal/scenario"
	scenariohandler "scenario-gateway/internal/scenario/handler"
	scenariometrics "scenario-gateway/internal/scenario/metrics"
	"scenario-gateway/internal/session"
	sessionhandler "scenario-gateway/internal/session/handler"
	sessionmetrics "scenario-gateway/internal/session/metrics"
	httptransport "scenario-gateway/internal/transport/http"
	"scenario-gateway/internal/upstream"
	upstreammetrics "scenario-gateway/internal/upstream/metrics"
)

// main wires dependencies and keeps the server lifecycle small. Business
// logic lives in the internal packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	authority := session.NewAuthority(cfg.AccessPassword)
	resolver := upstream.NewResolver()
	client := upstream.NewClient(resolver, log, upstreammetrics.New())
	pipeline := scenario.New(resolver, client, log, scenariometrics.New())

	sessions := sessionhandler.New(authority, resolver, cfg.Production, log, sessionmetrics.New())
	scenarios := scenariohandler.New(pipeline, authority, resolver, log)
	router := httptransport.NewRouter(sessions, scenarios, authority, log)

	srv := httpserver.New(cfg.Addr, router)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info("starting scenario gateway",
		"addr", cfg.Addr,
		"credential_configured", authority.Configured(),
		"live_service_configured", resolver.Resolve().Ready(),
	)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("server exited with error", "error", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}
