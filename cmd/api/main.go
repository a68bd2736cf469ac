package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/address-resolver/app/bootstrap"
	"github.com/address-resolver/app/config"
	"github.com/address-resolver/app/controllers"
	"github.com/address-resolver/app/services"
	"github.com/address-resolver/internal/masterdata"
	"github.com/address-resolver/routes"
)

func main() {
	configPath := flag.String("config", os.Getenv("ADDR_CONFIG"), "path to config file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	// Initialize logger
	logger, err := config.NewLogger(cfg.Log)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("Server failed", zap.Error(err))
		logger.Sync()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	logger.Info("Starting Address Resolver Service...")

	// Master data; the server still starts without it and /ready reports 503
	master, err := bootstrap.LoadMaster(ctx, cfg.Master, logger)
	if err != nil {
		if !errors.Is(err, masterdata.ErrNoMasterData) {
			return err
		}
		logger.Warn("Serving without master data", zap.Error(err))
	}

	addressParser, suggester, err := bootstrap.NewParser(cfg.Resolver, logger)
	if err != nil {
		return err
	}

	cache, err := bootstrap.NewCache(cfg.Cache, logger)
	if err != nil {
		return err
	}
	if cache != nil {
		defer cache.Close()
	}

	reviews, err := bootstrap.NewReviews(ctx, cfg.Mongo, logger)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := reviews.Close(closeCtx); err != nil {
			logger.Error("Failed to close review store", zap.Error(err))
		}
	}()

	// Search is optional
	var (
		geoSearcher services.GeoSearcher
		indexer     services.Indexer
	)
	searcher, err := bootstrap.NewSearcher(cfg.Meilisearch, logger)
	if err != nil {
		logger.Warn("Search index unavailable, using local search", zap.Error(err))
	} else if searcher != nil {
		geoSearcher, indexer = searcher, searcher
	}

	// Initialize services
	addressService := services.NewAddressService(addressParser, suggester, master, cache, reviews,
		services.AddressServiceConfig{
			Suggestions:  cfg.Resolver.Suggestions,
			QueueReviews: cfg.Output.Review,
			Workers:      cfg.Resolver.Workers,
		}, logger)
	geoService := services.NewGeoService(addressService, geoSearcher, logger)
	adminService := services.NewAdminService(addressService, cache, reviews, indexer, logger)

	// Setup Gin router
	gin.SetMode(cfg.Server.Mode)
	router := gin.New()
	routes.SetupAllRoutes(router, routes.Controllers{
		Address: controllers.NewAddressController(addressService, logger),
		Geo:     controllers.NewGeoController(geoService, logger),
		Admin:   controllers.NewAdminController(adminService, logger),
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting HTTP server",
			zap.Int("port", cfg.Server.Port),
			zap.String("master_version", master.Version()),
			zap.Int("master_records", master.Len()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("Shutting down server...")

	// Give outstanding requests a deadline for completion
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}

	logger.Info("Server exited")
	return nil
}
