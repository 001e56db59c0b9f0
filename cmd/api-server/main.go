package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/hackgods/clinic-appointment-portal/internal/api"
	"github.com/hackgods/clinic-appointment-portal/internal/booking"
	"github.com/hackgods/clinic-appointment-portal/internal/chat"
	"github.com/hackgods/clinic-appointment-portal/internal/config"
	"github.com/hackgods/clinic-appointment-portal/internal/db"
	"github.com/hackgods/clinic-appointment-portal/internal/identity"
	"github.com/hackgods/clinic-appointment-portal/internal/logrelay"
	"github.com/hackgods/clinic-appointment-portal/internal/metrics"
	"github.com/hackgods/clinic-appointment-portal/internal/portal"
	redisclient "github.com/hackgods/clinic-appointment-portal/internal/redis"
	"github.com/hackgods/clinic-appointment-portal/pkg/logging"
)

var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Default().Error("config load error", "error", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.LogLevel).With("service", "api-server")
	logger.Info("api-server starting up", "env", cfg.Env, "http_port", cfg.HTTPPort, "version", version)

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Connect Postgres
	pgCtx, cancelPg := context.WithTimeout(rootCtx, 10*time.Second)
	pgPool, err := db.ConnectPostgres(pgCtx, cfg.PostgresDSN, db.PoolOptions{})
	cancelPg()
	if err != nil {
		logger.Error("postgres connection error", "error", err)
		os.Exit(1)
	}
	defer pgPool.Close()
	logger.Info("connected to Postgres")

	// Connect Redis
	rdb, err := redisclient.NewRedisClient(cfg.RedisAddr, cfg.RedisUsername, cfg.RedisPassword)
	if err != nil {
		logger.Error("redis connection error", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := rdb.Close(); err != nil {
			logger.Warn("error closing redis", "error", err)
		}
	}()
	logger.Info("connected to Redis")

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	var relay *logrelay.Client
	if cfg.LogRelayURL != "" {
		relay = logrelay.NewClient(cfg.LogRelayURL, logger)
	}
	defer relay.Flush()

	tokens := identity.NewIssuer(cfg.JWTSecret, cfg.JWTTTL)
	locker := redisclient.NewRedisSlotLocker(rdb, cfg.LockTTL)

	deps := portal.NewStoreDeps(pgPool)
	deps.Booker = booking.NewWorkflow(pgPool, locker, logger.With("component", "booking"), m)
	deps.Tokens = tokens
	deps.Logger = logger
	deps.Relay = relay

	completer := chat.NewCompletionClient(cfg.CompletionURL(true), cfg.CompletionTimeout, m)
	chatSvc := chat.NewService(chat.NewRedisSessionStore(rdb, cfg.ChatSessionTTL), completer, logger.With("component", "chat"))

	router := api.NewRouter(api.RouterConfig{
		Portal:   portal.New(deps),
		Chat:     chatSvc,
		Tokens:   tokens,
		Logger:   logger,
		Metrics:  m,
		Gatherer: reg,
		Postgres: pgPool,
		Redis: api.PingFunc(func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		}),
		Env:         cfg.Env,
		Version:     version,
		CORSOrigins: cfg.CORSOrigins,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		// chat turns wait on the completion endpoint
		WriteTimeout: cfg.CompletionTimeout + 10*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("http server listening", "addr", srv.Addr, "completion_url", cfg.CompletionURL(true))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			stop()
		}
	}()

	<-rootCtx.Done()

	logger.Info("shutting down api-server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
	}
}
