package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Dan9191/stress-service/internal/config"
	"github.com/Dan9191/stress-service/internal/handler"
	"github.com/Dan9191/stress-service/internal/integrations/cbr"
	"github.com/Dan9191/stress-service/internal/integrations/render"
	"github.com/Dan9191/stress-service/internal/middleware"
	"github.com/Dan9191/stress-service/internal/notify"
	"github.com/Dan9191/stress-service/internal/repository"
	"github.com/Dan9191/stress-service/internal/scheduler"
	"github.com/Dan9191/stress-service/internal/service"
	"github.com/Dan9191/stress-service/internal/stress"
	"github.com/gorilla/mux"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

func main() {
	// Initialize logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	// Load configuration
	cfg, err := config.NewConfig()
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}
	logLevel, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)

	// Initialize database
	db, err := sql.Open("postgres", cfg.DBConn)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		logger.Fatalf("Failed to ping database: %v", err)
	}

	// Stress engine
	source := stress.NewSource()
	if cfg.VaRSeed != nil {
		source = stress.SeededSource(*cfg.VaRSeed)
		logger.Warnf("Monte Carlo VaR uses fixed seed %d", *cfg.VaRSeed)
	}
	engine := stress.NewEngine(stress.NewMonteCarlo(source, stress.WithWorkers(cfg.VaRWorkers)))

	// Integrations; optional ones stay nil interfaces when not configured
	cbrClient := cbr.NewCBRClient(cfg, logger)
	var renderer service.Renderer
	if c := render.NewClient(cfg, logger); c != nil {
		renderer = c
	}
	var alerter service.Alerter
	if s := notify.NewSender(cfg, logger); s != nil {
		alerter = s
	}

	// Initialize layers
	repo := repository.NewRepository(db)
	svc := service.NewService(repo, engine, cbrClient, alerter, renderer, logger, cfg)
	h := handler.NewHandler(svc, cbrClient, logger)

	// Setup router
	r := mux.NewRouter()
	r.Use(middleware.MetricsMiddleware)
	r.Handle("/metrics", promhttp.Handler()).Methods("GET")
	h.Register(r, middleware.AuthMiddleware(cfg, logger))

	// Periodic re-scoring
	if cfg.RescoreSchedule != "" {
		sched, err := scheduler.New(cfg.RescoreSchedule, svc, logger, time.Hour)
		if err != nil {
			logger.Fatalf("Failed to create scheduler: %v", err)
		}
		sched.Start()
		defer func() { <-sched.Stop().Done() }()
	}

	// Start server
	addr := fmt.Sprintf(":%s", cfg.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.StressTimeout + 30*time.Second,
	}

	go func() {
		logger.Infof("Starting server on %s", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("Server failed: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("Shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Errorf("Server shutdown failed: %v", err)
	}
}
