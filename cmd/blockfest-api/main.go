// main is the entry point of the blockfest-api service.
//
// STARTUP SEQUENCE:
//  1. Load configuration from a YAML file
//  2. Initialise the logger and the metrics
//  3. Open the VIP registry and start watching its file
//  4. Build the credential verifier and, if configured, the ledger client
//  5. Start the HTTP server in a separate goroutine
//  6. Block until an OS signal (Ctrl+C / kill) arrives
//  7. Gracefully shut down: finish in-flight requests, stop the watch
//
// RUNNING THE SERVER:
//
//	go run ./cmd/blockfest-api --config=config/local.yaml
//
// or (with the environment variable):
//
//	CONFIG_PATH=config/local.yaml go run ./cmd/blockfest-api
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/aanand-mishra/blockfest-backend/internal/auth"
	"github.com/aanand-mishra/blockfest-backend/internal/config"
	"github.com/aanand-mishra/blockfest-backend/internal/http/handlers/account"
	"github.com/aanand-mishra/blockfest-backend/internal/http/handlers/ticket"
	"github.com/aanand-mishra/blockfest-backend/internal/http/router"
	"github.com/aanand-mishra/blockfest-backend/internal/ledger"
	"github.com/aanand-mishra/blockfest-backend/internal/metrics"
	"github.com/aanand-mishra/blockfest-backend/internal/registry"
)

const version = "1.0.0"

func main() {
	// ── 1. Load Config ────────────────────────────────────────────────────
	cfg := config.MustLoad()

	// ── 2. Logger and metrics ─────────────────────────────────────────────
	log := setupLogger(cfg.Env)
	log.Info("starting blockfest-api",
		slog.String("env", cfg.Env),
		slog.String("version", version),
	)

	m := metrics.New(prometheus.DefaultRegisterer)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ── 3. VIP registry ───────────────────────────────────────────────────
	source := &registry.FileSource{Path: cfg.VIPRegistry.Path, Debounce: cfg.VIPRegistry.Debounce}
	if cfg.VIPRegistry.Bootstrap {
		created, err := source.EnsureExists()
		if err != nil {
			log.Error("failed to create VIP list", slog.String("error", err.Error()))
			os.Exit(1)
		}
		if created {
			log.Warn("VIP list did not exist, created it with an example row",
				slog.String("path", source.Path))
		}
	}

	reg := registry.New(source,
		registry.WithWatcher(source),
		registry.WithLogger(log.With(slog.String("component", "registry"))),
		registry.WithObserver(m),
	)
	if err := reg.Open(ctx); err != nil {
		log.Error("failed to watch VIP list", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer reg.Close()

	// ── 4. Verifier and ledger ────────────────────────────────────────────
	verifier, accounts, err := newVerifier(ctx, cfg.Auth)
	if err != nil {
		log.Error("failed to build verifier", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Left as a nil interface when no ledger is configured.
	var ledgerReader ticket.Ledger
	if cfg.Ledger.Enabled() {
		client, err := dialLedger(ctx, cfg.Ledger, log, m)
		if err != nil {
			log.Error("failed to connect to ledger", slog.String("error", err.Error()))
			os.Exit(1)
		}
		ledgerReader = client
		log.Info("ledger connected",
			slog.String("rpc_url", cfg.Ledger.RPCURL),
			slog.String("event_manager", cfg.Ledger.EventManagerAddress))
	} else {
		log.Warn("no ledger configured, ticket routes are disabled")
	}

	handler := router.New(router.Deps{
		Verifier:   verifier,
		Accounts:   accounts,
		Registry:   reg,
		Ledger:     ledgerReader,
		Observer:   m,
		Gatherer:   prometheus.DefaultGatherer,
		CORSOrigin: cfg.HTTPServer.CORSOrigin,
		Cooldown:   cfg.VIPCheck.Cooldown,
		Logger:     log,
	})

	// ── 5. Create and start the HTTP server ───────────────────────────────
	server := &http.Server{
		Addr:    cfg.HTTPServer.Addr,
		Handler: handler,

		ReadTimeout: 10 * time.Second,
		// get-all-tickets fans out over the ledger and can be slow.
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("server started",
			slog.String("address", cfg.HTTPServer.Addr),
			slog.String("cors_origin", cfg.HTTPServer.CORSOrigin))

		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server encountered an error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}()

	// ── 6. Wait for Shutdown Signal ───────────────────────────────────────
	<-ctx.Done()
	log.Info("shutdown signal received, stopping server...")

	// ── 7. Graceful Shutdown ──────────────────────────────────────────────
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("failed to shutdown server gracefully", slog.String("error", err.Error()))
		os.Exit(1)
	}

	log.Info("server stopped gracefully")
}

// newVerifier returns the credential verifier and, in firebase mode, the
// account directory behind /auth.
func newVerifier(ctx context.Context, cfg config.Auth) (auth.Verifier, account.Directory, error) {
	if cfg.Mode == config.AuthHMAC {
		v, err := auth.NewHMACVerifier(cfg.HMACSecret, "")
		return v, nil, err
	}
	client, err := auth.NewFirebaseClient(ctx, cfg.FirebaseProjectID, cfg.FirebaseCredentialsFile)
	if err != nil {
		return nil, nil, err
	}
	return auth.NewFirebaseVerifier(client), auth.NewFirebaseDirectory(client), nil
}

func dialLedger(ctx context.Context, cfg config.Ledger, log *slog.Logger, m *metrics.Metrics) (*ledger.Client, error) {
	opts := []ledger.Option{
		ledger.WithLogger(log.With(slog.String("component", "ledger"))),
		ledger.WithCallTimeout(cfg.CallTimeout),
		ledger.WithFetchConcurrency(cfg.FetchConcurrency),
		ledger.WithCallObserver(m),
	}
	if cfg.TicketNFTAddress != "" {
		opts = append(opts, ledger.WithTicketNFT(common.HexToAddress(cfg.TicketNFTAddress)))
	}

	dialCtx, cancel := context.WithTimeout(ctx, cfg.CallTimeout)
	defer cancel()
	return ledger.Dial(dialCtx, cfg.RPCURL, cfg.EventManagerAddress, opts...)
}

// setupLogger returns a *slog.Logger configured for the given environment.
//
// Development (dev): human-readable text output at DEBUG level.
// Production (prod): machine-readable JSON output at INFO level.
func setupLogger(env string) *slog.Logger {
	switch env {
	case "prod":
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	case "staging":
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	default:
		return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
}
