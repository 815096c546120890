package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/labstack/echo/v4"

	"ats-aggregator/internal/api/routes"
	"ats-aggregator/internal/app"
	"ats-aggregator/internal/config"
	"ats-aggregator/internal/grpc/server"
	"ats-aggregator/internal/logging"
	"ats-aggregator/internal/mux"
	"ats-aggregator/internal/scheduler"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig("configs/config.yaml")
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	if err := logging.InitializeLogging(cfg); err != nil {
		log.Fatalf("Failed to initialize logging: %v", err)
	}
	defer logging.CloseLogging()
	logger := logging.GetGlobalLogger()
	logger.Info("Starting ATS aggregator", map[string]interface{}{"environment": cfg.Environment})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	services, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("Failed to build services", map[string]interface{}{"error": err.Error()})
	}
	defer services.Close()

	// Initialize Echo
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	routes.SetupRoutes(e, cfg, routes.Dependencies{
		Registry: services.Registry,
		Limiter:  services.Limiter,
		Search:   services.Search,
		Logger:   logger,
	})

	var grpcServer *server.Server
	if cfg.GRPC.Enabled {
		grpcServer = server.NewServer(services.Registry, logger)
	}

	listener, err := mux.ListenWithFallback(cfg.Server.Host, cfg.Server.Port, cfg.Server.PortFallbacks, logger)
	if err != nil {
		logger.Fatal("Server failed to start", map[string]interface{}{"error": err.Error()})
	}

	multiplexer := mux.NewMultiplexer(cfg, grpcServer, e, logger)
	multiplexer.Serve(listener)
	logger.Info("Server started", map[string]interface{}{"address": multiplexer.GetAddress()})

	var warmer *scheduler.Scheduler
	if cfg.Scheduler.Enabled {
		warmer = scheduler.New(cfg, services.Search, logger)
		if err := warmer.Start(ctx); err != nil {
			logger.Error("Failed to start scheduler", map[string]interface{}{"error": err.Error()})
			warmer = nil
		}
	}

	<-ctx.Done()
	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if warmer != nil {
		warmer.Stop()
	}
	if err := multiplexer.Stop(shutdownCtx); err != nil {
		logger.Error("Error shutting down server", map[string]interface{}{"error": err.Error()})
	}

	logger.Info("Server shutdown complete")
}
