package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"campuspulse/internal/catalog"
	cataloghandler "campuspulse/internal/catalog/handler"
	catalogstore "campuspulse/internal/catalog/store"
	directorystore "campuspulse/internal/directory/store"
	"campuspulse/internal/incentive"
	incentivehandler "campuspulse/internal/incentive/handler"
	incentivemetrics "campuspulse/internal/incentive/metrics"
	incentivestore "campuspulse/internal/incentive/store"
	"campuspulse/internal/jwttoken"
	"campuspulse/internal/ledger"
	ledgerhandler "campuspulse/internal/ledger/handler"
	ledgermetrics "campuspulse/internal/ledger/metrics"
	ledgerstore "campuspulse/internal/ledger/store"
	"campuspulse/internal/platform/config"
	"campuspulse/internal/platform/httpserver"
	"campuspulse/internal/platform/kafka"
	"campuspulse/internal/platform/logger"
	"campuspulse/internal/platform/metrics"
	"campuspulse/internal/platform/middleware"
	"campuspulse/internal/platform/postgres"
	platformredis "campuspulse/internal/platform/redis"
	"campuspulse/pkg/domain"
)

// main wires storage, services, and the HTTP surface. Business rules live in
// the feature packages; this file only chooses implementations from config.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	var (
		catalogStore   catalog.Store
		ledgerStore    ledger.Store
		incentiveStore incentive.Store
		dirStore       incentive.Directory
	)

	if cfg.DatabaseURL != "" {
		if err := postgres.RunMigrations(cfg.DatabaseURL, cfg.MigrationsPath); err != nil {
			log.Error("migrations failed", "error", err)
			os.Exit(1)
		}
		db, err := postgres.Open(cfg.DatabaseURL)
		if err != nil {
			log.Error("postgres connection failed", "error", err)
			os.Exit(1)
		}
		defer db.Close()

		catalogStore = catalogstore.NewPostgres(db)
		ledgerStore = ledgerstore.NewPostgres(db)
		incentiveStore = incentivestore.NewPostgres(db)
		dirStore = directorystore.NewPostgres(db)
		log.Info("using postgres storage")
	} else {
		catalogStore = catalogstore.NewMemory()
		ledgerStore = ledgerstore.NewMemory()
		incentiveStore = incentivestore.NewMemory()
		dirStore = directorystore.NewMemory()
		log.Warn("DATABASE_URL not set, using in-memory storage")
	}

	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		log.Error("redis connection failed", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
		incentiveStore = incentivestore.NewLeaderboardCache(incentiveStore, redisClient, log)
		log.Info("leaderboard cache enabled")
	}

	publisher, err := kafka.NewPublisher(cfg.Kafka, log)
	if err != nil {
		log.Error("kafka connection failed", "error", err)
		os.Exit(1)
	}

	incentiveSvc, err := incentive.NewService(incentiveStore, ledgerStore, dirStore, log,
		incentive.WithMetrics(incentivemetrics.New()),
	)
	if err != nil {
		log.Error("incentive service init failed", "error", err)
		os.Exit(1)
	}

	ledgerOpts := []ledger.Option{ledger.WithMetrics(ledgermetrics.New())}
	if publisher != nil {
		defer publisher.Close()
		ledgerOpts = append(ledgerOpts, ledger.WithPublisher(publisher))
		log.Info("participation event stream enabled", "topic", cfg.Kafka.Topic)
	}
	ledgerSvc, err := ledger.NewService(ledgerStore, catalogStore, incentiveSvc, log, ledgerOpts...)
	if err != nil {
		log.Error("ledger service init failed", "error", err)
		os.Exit(1)
	}

	catalogSvc, err := catalog.NewService(catalogStore, ledgerStore, log)
	if err != nil {
		log.Error("catalog service init failed", "error", err)
		os.Exit(1)
	}

	jwtService := jwttoken.NewJWTService(cfg.JWTSigningKey, cfg.JWTIssuer)
	httpMetrics := metrics.New()

	r := chi.NewRouter()
	r.Use(middleware.Recovery(log))
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(log))
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(middleware.Latency(httpMetrics))

	r.Handle("/metrics", promhttp.Handler())
	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Group(func(api chi.Router) {
		api.Use(middleware.ContentTypeJSON)
		api.Use(middleware.RequireAuth(jwtService, log))

		requireFaculty := middleware.RequireRole(domain.RoleFaculty, log)
		requireStudent := middleware.RequireRole(domain.RoleStudent, log)

		cataloghandler.New(catalogSvc, log).Register(api, requireFaculty)
		ledgerhandler.New(ledgerSvc, dirStore, log).Register(api, requireFaculty)
		incentivehandler.New(incentiveSvc, log).Register(api, requireStudent)
	})

	srv := httpserver.New(cfg.Addr, r)

	go func() {
		log.Info("starting campuspulse", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	log.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
	}
}
