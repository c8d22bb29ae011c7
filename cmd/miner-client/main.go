package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/Baiumka/miner-client/pkg/cli"
	"github.com/Baiumka/miner-client/pkg/config"
	"github.com/Baiumka/miner-client/pkg/dialog"
	"github.com/Baiumka/miner-client/pkg/icsdk/backend"
	"github.com/Baiumka/miner-client/pkg/icsdk/gateway"
	"github.com/Baiumka/miner-client/pkg/icsdk/identity"
	"github.com/Baiumka/miner-client/pkg/icsdk/ledger"
	"github.com/Baiumka/miner-client/pkg/orchestrator"
	"github.com/Baiumka/miner-client/pkg/registry"
	"github.com/Baiumka/miner-client/pkg/session"
)

func main() {
	// Parse command line flags
	configPath := flag.String("config", "config.yaml", "Path to configuration file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if cfg.Network.EndpointsFile != "" {
		endpoints, err := config.LoadEndpoints(cfg.Network.EndpointsFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to load endpoints file: %v\n", err)
			os.Exit(1)
		}
		cfg.ApplyEndpoints(endpoints)
	}

	// Setup logger
	logger, err := config.NewLogger(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to setup logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting miner client",
		zap.String("config", *configPath),
		zap.String("network", cfg.Network.Name),
		zap.String("gateway", cfg.Network.GatewayURL))

	if err := run(cfg, logger); err != nil {
		logger.Fatal("miner client failed", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store := session.NewStore(session.WithLogger(logger.Named("session")))

	gatewayClient, err := gateway.New(
		&gateway.Config{BaseURL: cfg.Network.GatewayURL},
		gateway.WithLogger(logger.Named("gateway")))
	if err != nil {
		return fmt.Errorf("create gateway client: %w", err)
	}

	ledgerClient, err := ledger.New(
		&ledger.Config{LedgerCanisterID: cfg.Network.LedgerCanisterID},
		gatewayClient,
		ledger.WithTokenSource(store.Token),
		ledger.WithLogger(logger.Named("ledger")))
	if err != nil {
		return fmt.Errorf("create ledger client: %w", err)
	}

	backendClient, err := backend.New(
		&backend.Config{BackendCanisterID: cfg.Network.BackendCanisterID},
		gatewayClient,
		backend.WithTokenSource(store.Token),
		backend.WithLogger(logger.Named("backend")))
	if err != nil {
		return fmt.Errorf("create backend client: %w", err)
	}

	identityGateway, err := identity.New(
		&identity.Config{
			Network:            identity.Network(cfg.Network.Name),
			ProviderCanisterID: cfg.Identity.ProviderCanisterID,
			CallbackAddr:       cfg.Identity.CallbackAddr,
			LoginTimeout:       cfg.Identity.LoginTimeout,
			CredentialFile:     cfg.Identity.CredentialFile,
			UserAgentHint:      cfg.Identity.UserAgentHint,
		},
		identity.WithLogger(logger.Named("identity")),
		identity.WithOpener(func(url string) error {
			fmt.Printf("open this URL to log in:\n  %s\n", url)
			return nil
		}))
	if err != nil {
		return fmt.Errorf("create identity gateway: %w", err)
	}

	mediator := dialog.NewStdTerminal()

	orch, err := orchestrator.New(
		&orchestrator.Config{
			BackendPrincipal:    cfg.Network.BackendCanisterID,
			ApproveFeeBufferE8s: cfg.Transaction.ApproveFeeBufferE8s,
			MinBoxCostE8s:       cfg.Transaction.MinBoxCostE8s,
			MinStakeE8s:         cfg.Transaction.MinStakeE8s,
		},
		identityGateway, ledgerClient, backendClient, store, mediator,
		orchestrator.WithLogger(logger.Named("orchestrator")))
	if err != nil {
		return fmt.Errorf("create orchestrator: %w", err)
	}

	reg, err := registry.New(backendClient, registry.WithLogger(logger.Named("registry")))
	if err != nil {
		return fmt.Errorf("create registry: %w", err)
	}

	var metricsServer *http.Server
	if cfg.Metrics.Addr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		metricsServer = &http.Server{Addr: cfg.Metrics.Addr, Handler: mux}
		go func() {
			logger.Info("Metrics endpoint listening", zap.String("address", cfg.Metrics.Addr))
			if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("Metrics server error", zap.Error(err))
			}
		}()
	}

	app, err := cli.NewApp(orch, reg, store, mediator, os.Stdout, logger.Named("cli"))
	if err != nil {
		return fmt.Errorf("create app: %w", err)
	}

	app.Restore(ctx)
	app.Run(ctx, os.Stdin)

	logger.Info("Shutting down...")
	if metricsServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("Metrics server shutdown error", zap.Error(err))
		}
	}
	return nil
}
