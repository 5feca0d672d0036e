package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/yegors/wx-widget/internal/api"
	"github.com/yegors/wx-widget/internal/config"
	"github.com/yegors/wx-widget/internal/lookup"
	"github.com/yegors/wx-widget/internal/weather"
	"github.com/yegors/wx-widget/internal/websocket"
	"github.com/yegors/wx-widget/internal/widget"
	"github.com/yegors/wx-widget/pkg/logger"
)

var (
	// Version is injected at build time
	Version = "dev"
)

func main() {
	// Parse command line flags
	configPath := flag.String("config", "", "Path to configuration file (optional - will search in configs/ and root directory)")
	flag.Parse()

	// Load configuration with fallback logic
	cfg, err := config.LoadWithFallback(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	// Create logger
	log, err := logger.New(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	log.Info("Starting weather widget server",
		logger.String("version", Version),
		logger.String("config_path", *configPath),
	)

	// OpenWeather client and the lookup service built on it
	weatherClient := weather.NewClient(weather.ClientConfig{
		APIKey:                cfg.OpenWeather.APIKey,
		GeoBaseURL:            cfg.OpenWeather.GeoBaseURL,
		WeatherBaseURL:        cfg.OpenWeather.WeatherBaseURL,
		RequestTimeoutSeconds: cfg.OpenWeather.RequestTimeoutSeconds,
	}, log)
	lookupService := lookup.NewService(weatherClient, log)

	// Each websocket connection gets its own widget session
	newSession := func() *widget.Session {
		return widget.NewSession(lookupService, log, widget.WithAssetPrefix(cfg.Widget.AssetPrefix))
	}
	tickInterval := time.Duration(cfg.Widget.TickIntervalMillis) * time.Millisecond
	wsServer := websocket.NewServer(newSession, tickInterval, log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Start WebSocket server
	go wsServer.Run(ctx)

	// Create API router
	router := api.NewRouter(lookupService, cfg, log, wsServer)

	// --- Setup for multiple HTTP servers ---
	var servers []*http.Server
	allPorts := []int{cfg.Server.Port}
	if len(cfg.Server.AdditionalPorts) > 0 {
		allPorts = append(allPorts, cfg.Server.AdditionalPorts...)
	}

	log.Info("Configured listener ports", logger.Any("ports", allPorts))

	handler := router.Routes()
	for _, port := range allPorts {
		addr := fmt.Sprintf("%s:%d", cfg.Server.Host, port)
		server := &http.Server{
			Addr:         addr,
			Handler:      handler,
			ReadTimeout:  time.Duration(cfg.Server.ReadTimeoutSecs) * time.Second,
			WriteTimeout: time.Duration(cfg.Server.WriteTimeoutSecs) * time.Second,
			IdleTimeout:  time.Duration(cfg.Server.IdleTimeoutSecs) * time.Second,
		}
		servers = append(servers, server)

		go func(s *http.Server) {
			log.Info("Starting HTTP server", logger.String("addr", s.Addr))
			if err := s.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Error("HTTP server error on startup", logger.String("addr", s.Addr), logger.Error(err))
			}
		}(server)
	}

	// Wait for interrupt signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Info("Shutting down server...")

	// Stops the websocket hub, which closes every session and cancels lookups in flight
	cancel()

	log.Info("Shutting down HTTP servers...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	var wg sync.WaitGroup
	for _, s := range servers {
		wg.Add(1)
		go func(srv *http.Server) {
			defer wg.Done()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				log.Error("HTTP server shutdown error", logger.String("addr", srv.Addr), logger.Error(err))
			} else {
				log.Info("HTTP server shutdown complete", logger.String("addr", srv.Addr))
			}
		}(s)
	}
	wg.Wait()

	log.Info("Server fully stopped")
}
