package main

import (
	"context"
	"crypto/tls"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"projector-server/internal/auth"
	"projector-server/internal/config"
	"projector-server/internal/db"
	"projector-server/internal/handlers"
	"projector-server/internal/services"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize database
	if err := db.InitDatabase(cfg.Storage.DBPath); err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize services
	wsService := services.NewWebSocketService()
	go wsService.Run()
	defer wsService.Stop()

	var (
		slideStore  services.ActiveSlideStore
		broadcaster services.Broadcaster = wsService
	)
	switch cfg.Storage.Backend {
	case config.BackendRedis:
		log.Printf("Using Redis for the active slide (%s)", cfg.Redis.Key)
		client, err := services.NewRedisClient(cfg.Redis.URL)
		if err != nil {
			log.Fatalf("Redis connection failed: %v", err)
		}
		defer client.Close()

		slideStore = services.NewRedisActiveSlideStore(client, cfg.Redis.Key)

		// Every instance publishes to Redis and relays the channel to its own viewers.
		publisher := services.NewRedisBroadcaster(client, cfg.Redis.Channel)
		go publisher.Run(ctx)
		broadcaster = publisher

		relay := services.NewRedisRelay(client, cfg.Redis.Channel, wsService)
		go func() {
			if err := relay.Run(ctx, nil); err != nil {
				log.Printf("Redis relay stopped: %v", err)
			}
		}()
	default:
		log.Printf("Using %s for the active slide", cfg.Storage.DataPath)
		fileStore, err := services.NewFileActiveSlideStore(cfg.Storage.DataPath)
		if err != nil {
			log.Fatalf("Failed to initialize active slide store: %v", err)
		}
		slideStore = fileStore
	}
	wsService.SetSlideStore(slideStore)

	gate := services.NewRoleGate()
	controller := services.NewSlideController(slideStore, broadcaster, gate)
	projectorService := services.NewProjectorService(db.DB)
	tokenParser := auth.NewTokenParser(cfg.Auth.Secret, cfg.Auth.Issuer, cfg.Auth.Leeway)

	// Initialize handlers
	wsHandler := handlers.NewWebSocketHandler(wsService, gate)
	slideHandler := handlers.NewSlideHandler(controller)
	projectorHandler := handlers.NewProjectorHandler(projectorService, gate)

	// Setup routes
	router := handlers.SetupRoutes(wsHandler, slideHandler, projectorHandler, tokenParser)

	// Configure server
	server := &http.Server{
		Addr:              cfg.Server.Host + ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		log.Println("Shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	// Configure TLS if enabled
	if cfg.TLS.Enabled {
		server.TLSConfig = &tls.Config{
			MinVersion: getTLSVersion(cfg.TLS.MinVersion),
		}

		log.Printf("Starting HTTPS server on %s:%s", cfg.Server.Host, cfg.Server.Port)
		log.Printf("TLS Certificate: %s", cfg.TLS.CertFile)
		log.Printf("TLS Key: %s", cfg.TLS.KeyFile)
		log.Printf("TLS Min Version: %s", cfg.TLS.MinVersion)

		err = server.ListenAndServeTLS(cfg.TLS.CertFile, cfg.TLS.KeyFile)
	} else {
		log.Printf("Starting HTTP server on %s:%s", cfg.Server.Host, cfg.Server.Port)
		log.Printf("Warning: HTTP mode is not recommended for production")

		err = server.ListenAndServe()
	}
	if err != nil && err != http.ErrServerClosed {
		log.Fatal(err)
	}
}

// getTLSVersion converts string version to tls.Version constant
func getTLSVersion(version string) uint16 {
	switch version {
	case "1.0":
		return tls.VersionTLS10
	case "1.1":
		return tls.VersionTLS11
	case "1.2":
		return tls.VersionTLS12
	case "1.3":
		return tls.VersionTLS13
	default:
		return tls.VersionTLS12
	}
}
