// Package app wires the transport resource API together: remote JWKS
// verification against the identity service plus the schedule routes.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpapi "github.com/tollgate-labs/tollgate/internal/transport/http"
	"github.com/tollgate-labs/tollgate/internal/transport/service"
	"github.com/tollgate-labs/tollgate/pkg/jwtx"
	"github.com/tollgate-labs/tollgate/pkg/slogx"
)

// BuildVersion should be set at build time via ldflags.
const BuildVersion = "v0.1.0"

// Application is the transport API with all dependencies wired.
type Application struct {
	cfg    Config
	logger *slog.Logger

	keySource *jwtx.RemoteKeySource

	server *http.Server
	router *httpapi.Router
}

// New creates an Application with all dependencies initialized. No network
// call happens here; keys are fetched lazily on the first request.
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "transport-api",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	app.keySource = jwtx.NewRemoteKeySource(cfg.JWKSURL, cfg.JWKSRefresh)

	verifier, err := newVerifier(cfg, app.keySource.KeySet)
	if err != nil {
		return nil, err
	}

	router := httpapi.NewRouter(app.keySource, verifier, BuildVersion, app.logger)
	router.Schedules = service.NewScheduleService()
	router.ApplyRoutes()
	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}

	return app, nil
}

// Run starts the application and blocks until shutdown is requested.
func (app *Application) Run() error {
	app.logger.Info("transport api starting",
		"port", app.cfg.Port,
		"issuer", app.cfg.Issuer,
		"jwks_url", app.cfg.JWKSURL,
		"version", BuildVersion,
	)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-shutdown:
		app.logger.Info("shutdown signal received", "signal", sig)
		if err := app.Shutdown(); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// Shutdown drains in-flight requests.
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down transport api...")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		return app.server.Close()
	}

	app.logger.Info("transport api stopped")
	return nil
}

func newVerifier(cfg Config, keys *jwtx.KeySet) (jwtx.Verifier, error) {
	audience := []string{cfg.Audience}
	switch cfg.Algorithm {
	case jwtx.AlgorithmEdDSA:
		return jwtx.NewCommonEdDSA(keys, cfg.Issuer, audience), nil
	case jwtx.AlgorithmRS256:
		return jwtx.NewCommonRS256(keys, cfg.Issuer, audience), nil
	default:
		return nil, fmt.Errorf("unsupported verification algorithm %q", cfg.Algorithm)
	}
}
