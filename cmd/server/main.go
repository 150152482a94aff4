package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"grievancedesk/docs"
	"grievancedesk/internal/auth"
	"grievancedesk/internal/bootstrap"
	"grievancedesk/internal/cache"
	"grievancedesk/internal/config"
	"grievancedesk/internal/events"
	"grievancedesk/internal/handler"
	"grievancedesk/internal/metrics"
	"grievancedesk/internal/policy"
	"grievancedesk/internal/router"
	"grievancedesk/internal/service"
	"grievancedesk/internal/storage"
	"grievancedesk/internal/telemetry"
)

// @title Grievance Desk API
// @version 1.0
// @description Citizen grievance submission and triage API.
// @host localhost:5001
// @BasePath /api
// @schemes http
// @securityDefinitions.apikey TokenAuth
// @in header
// @name x-auth-token
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil)).With("service", router.ServiceName)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.Init(ctx, router.ServiceName, cfg.OTLPEndpoint)
	if err != nil {
		log.Fatalf("telemetry init: %v", err)
	}

	stores, err := bootstrap.OpenStores(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("database init: %v", err)
	}
	logger.Info("database ready", "driver", stores.Driver)

	cacheClient := cache.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	if err := cacheClient.Ping(ctx); err != nil {
		logger.Warn("redis unreachable, continuing without cache", "addr", cfg.RedisAddr, "error", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	var publisher events.Publisher = events.Nop{}
	if cfg.AMQPURL != "" {
		amqpPublisher, err := events.NewAMQPPublisher(cfg.AMQPURL, cfg.AMQPExchange)
		if err != nil {
			log.Fatalf("amqp init: %v", err)
		}
		publisher = amqpPublisher
		logger.Info("publishing grievance events", "exchange", cfg.AMQPExchange)
	}
	publisher = m.Publisher(publisher)

	photos, err := storage.NewDiskStore(cfg.UploadDir, storage.NewStamper())
	if err != nil {
		log.Fatalf("upload dir: %v", err)
	}

	// Initialize auth components
	jwtService := auth.NewJWTService(cfg.JWTSecret)
	tokenStore := auth.NewTokenStore(cacheClient)
	authz := policy.New(stores.Users)

	// Initialize services
	authService := service.NewAuthService(stores.Users, stores.Departments, authz, jwtService, tokenStore, logger)
	grievanceService := service.NewGrievanceService(service.GrievanceDeps{
		Grievances:  stores.Grievances,
		Departments: stores.Departments,
		Users:       stores.Users,
		Authz:       authz,
		Photos:      photos,
		Stamps:      storage.NewStamper(),
		Publisher:   publisher,
		Logger:      logger,
	})
	statsService := service.NewStatsService(stores.Grievances, stores.Departments, authz)
	departmentService := service.NewDepartmentService(stores.Departments, authz, cacheClient)
	userService := service.NewUserService(stores.Users, stores.Departments, authz)

	e := echo.New()
	e.HideBanner = true
	router.Register(e, cfg, logger, auth.NewGate(jwtService, tokenStore),
		router.Observability{Metrics: m, Gatherer: reg},
		router.Handlers{
			Auth:       handler.NewAuthHandler(authService),
			Grievance:  handler.NewGrievanceHandler(grievanceService, statsService),
			Department: handler.NewDepartmentHandler(departmentService),
			User:       handler.NewUserHandler(userService),
			Health:     handler.NewHealthHandler(map[string]handler.Check{"database": stores.Ping}),
		},
	)

	if cfg.SwaggerHost != "" {
		docs.SwaggerInfo.Host = cfg.SwaggerHost
	}
	logger.Info("swagger documentation available", "url", "http://"+docs.SwaggerInfo.Host+"/swagger/index.html")

	go func() {
		addr := ":" + cfg.ServerPort
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server start: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown", "error", err)
	}
	if err := publisher.Close(); err != nil {
		logger.Error("close publisher", "error", err)
	}
	if err := cacheClient.Close(); err != nil {
		logger.Error("close cache", "error", err)
	}
	if err := stores.Close(shutdownCtx); err != nil {
		logger.Error("close database", "error", err)
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		logger.Error("flush traces", "error", err)
	}
}
