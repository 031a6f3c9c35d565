package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/Utkarsh575/wf-hack-misfits/internal/alert"
	"github.com/Utkarsh575/wf-hack-misfits/internal/api"
	"github.com/Utkarsh575/wf-hack-misfits/internal/circuitbreaker"
	"github.com/Utkarsh575/wf-hack-misfits/internal/compliance"
	"github.com/Utkarsh575/wf-hack-misfits/internal/config"
	"github.com/Utkarsh575/wf-hack-misfits/internal/coordinator"
	"github.com/Utkarsh575/wf-hack-misfits/internal/domain/model"
	"github.com/Utkarsh575/wf-hack-misfits/internal/ledger"
	"github.com/Utkarsh575/wf-hack-misfits/internal/ratelimit"
	"github.com/Utkarsh575/wf-hack-misfits/internal/registry"
	"github.com/Utkarsh575/wf-hack-misfits/internal/risk"
	"github.com/Utkarsh575/wf-hack-misfits/internal/signer"
	"github.com/Utkarsh575/wf-hack-misfits/internal/store"
	"github.com/Utkarsh575/wf-hack-misfits/internal/store/postgres"
	redisstore "github.com/Utkarsh575/wf-hack-misfits/internal/store/redis"
	"github.com/Utkarsh575/wf-hack-misfits/internal/tracing"
	"github.com/Utkarsh575/wf-hack-misfits/internal/transfer"
)

func main() {
	logLevel := slog.LevelInfo
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	switch cfg.Log.Level {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(logger)

	logger.Info("starting transfer oracle",
		"rpc_url", cfg.Ledger.RPCURL,
		"rest_url", cfg.Ledger.RESTURL,
		"risk_url", cfg.Risk.BaseURL,
		"risk_threshold", cfg.Risk.Threshold,
		"contract", cfg.Oracle.ContractAddr,
		"port", cfg.Server.Port,
	)

	tracingEndpoint := ""
	if cfg.Trace.Enabled {
		tracingEndpoint = cfg.Trace.OTLPEndpoint
	}
	shutdownTracing, err := tracing.Init(context.Background(), "transfer-oracle", tracingEndpoint, cfg.Trace.SampleRatio)
	if err != nil {
		logger.Error("failed to initialize tracing", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			logger.Warn("tracing shutdown error", "error", err)
		}
	}()

	// Nonce storage prefers redis, then postgres, then process memory.
	var (
		nonceRepo store.NonceRepository
		classRepo store.ClassificationRepository
	)
	if cfg.DB.URL != "" {
		db, err := postgres.New(postgres.Config{
			URL:             cfg.DB.URL,
			MaxOpenConns:    cfg.DB.MaxOpenConns,
			MaxIdleConns:    cfg.DB.MaxIdleConns,
			ConnMaxLifetime: cfg.DB.ConnMaxLifetime,
		})
		if err != nil {
			logger.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		if err := db.EnsureSchema(context.Background()); err != nil {
			logger.Error("failed to ensure schema", "error", err)
			os.Exit(1)
		}
		classRepo = postgres.NewClassificationRepo(db)
		nonceRepo = postgres.NewNonceRepo(db)
		logger.Info("connected to database")
	}
	if cfg.Redis.URL != "" {
		nonces, err := redisstore.NewNonceStore(cfg.Redis.URL, cfg.Oracle.NonceTTL)
		if err != nil {
			logger.Error("failed to connect to redis", "error", err)
			os.Exit(1)
		}
		defer nonces.Close()
		nonceRepo = nonces
		logger.Info("connected to redis nonce store")
	}
	if nonceRepo == nil {
		nonceRepo = store.NewMemoryNonceStore()
		logger.Warn("using in-memory nonce store; consumed nonces reset on restart")
	}

	regOpts := []registry.Option{}
	if classRepo != nil {
		regOpts = append(regOpts, registry.WithRepository(classRepo))
	}
	reg := registry.New(logger, regOpts...)
	if classRepo != nil {
		if err := reg.Load(context.Background()); err != nil {
			logger.Error("failed to hydrate classification registry", "error", err)
			os.Exit(1)
		}
	}
	reg.Seed(model.ClassificationSanctioned, registry.DefaultSanctioned...)

	keyring, err := signer.LoadKeyring(cfg.Oracle.WalletsFile)
	if err != nil {
		logger.Error("failed to load wallet keyring", "error", err)
		os.Exit(1)
	}
	oracleWallet, ok := keyring.ByLabel(cfg.Oracle.WalletLabel)
	if !ok {
		logger.Error("oracle wallet label not found in keyring", "label", cfg.Oracle.WalletLabel)
		os.Exit(1)
	}

	var alerter alert.Alerter = alert.NewNoopAlerter()
	alerters := []alert.Alerter{}
	if cfg.Alert.SlackWebhookURL != "" {
		alerters = append(alerters, alert.NewSlackAlerter(cfg.Alert.SlackWebhookURL))
	}
	if cfg.Alert.WebhookURL != "" {
		alerters = append(alerters, alert.NewWebhookAlerter(cfg.Alert.WebhookURL))
	}
	if len(alerters) > 0 {
		alerter = alert.NewMultiAlerter(time.Duration(cfg.Alert.CooldownMin)*time.Minute, logger, alerters...)
	}

	riskClient := risk.NewClient(cfg.Risk.BaseURL, cfg.Risk.Timeout, logger)
	riskClient.SetRateLimiter(ratelimit.NewLimiter(10, 20, "risk"))
	riskClient.SetBreaker(circuitbreaker.New(circuitbreaker.Config{
		FailureThreshold: 5,
		SuccessThreshold: 2,
		OpenTimeout:      30 * time.Second,
	}))

	gate := compliance.NewGate(reg, riskClient, cfg.Risk.Threshold, logger,
		compliance.WithAlerter(alerter),
		compliance.WithTimeout(cfg.Risk.Timeout),
	)

	ledgerClient := ledger.NewHTTPClient(cfg.Ledger.RPCURL, cfg.Ledger.RESTURL, cfg.Ledger.GatewayURL, cfg.Ledger.Timeout, logger)
	ledgerClient.SetRateLimiter(ratelimit.NewLimiter(20, 40, "ledger"))
	ledgerClient.SetBreaker(circuitbreaker.New(circuitbreaker.Config{
		FailureThreshold: 5,
		SuccessThreshold: 2,
		OpenTimeout:      30 * time.Second,
	}))

	signingSvc := signer.New(oracleWallet.Mnemonic, nonceRepo)
	coord := coordinator.New(coordinator.Config{
		Gate:         gate,
		Signer:       signingSvc,
		Ledger:       ledgerClient,
		ContractAddr: cfg.Oracle.ContractAddr,
	}, logger)
	transferSvc := transfer.NewService(keyring, gate, ledgerClient, cfg.Ledger.Denom, logger)

	apiServer := api.NewServer(coord, reg, logger,
		api.WithKeyring(keyring),
		api.WithLedgerReader(ledgerClient),
		api.WithTransferer(transferSvc),
		api.WithContractAddr(cfg.Oracle.ContractAddr),
		api.WithScorer(riskClient),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return runHTTPServer(gCtx, cfg.Server.Port, apiServer.Handler(), "api", logger)
	})
	g.Go(func() error {
		return runHTTPServer(gCtx, cfg.Server.OpsPort, opsHandler(), "ops", logger)
	})
	g.Go(func() error {
		select {
		case sig := <-sigCh:
			logger.Info("received signal, shutting down", "signal", sig)
			cancel()
			return nil
		case <-gCtx.Done():
			return nil
		}
	})

	if err := g.Wait(); err != nil && err != context.Canceled {
		logger.Error("oracle exited with error", "error", err)
		os.Exit(1)
	}

	logger.Info("oracle shut down gracefully")
}

func opsHandler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.Handle("/metrics", promhttp.Handler())
	return mux
}

func runHTTPServer(ctx context.Context, port int, handler http.Handler, name string, logger *slog.Logger) error {
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && err != http.ErrServerClosed {
			logger.Warn("server shutdown error", "server", name, "error", err)
		}
	}()

	logger.Info("http server started", "server", name, "port", port)
	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		return fmt.Errorf("%s server: %w", name, err)
	}
	return nil
}
