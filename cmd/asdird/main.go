package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/asmap/asdird/internal/asdir/common/clock"
	"github.com/asmap/asdird/internal/asdir/common/log"
	"github.com/asmap/asdird/internal/asdir/config"
	"github.com/asmap/asdird/internal/asdir/gateways/transport"
	"github.com/asmap/asdird/internal/asdir/gateways/wire"
	"github.com/asmap/asdird/internal/asdir/repos/records"
	"github.com/asmap/asdird/internal/asdir/repos/records/bolt"
	"github.com/asmap/asdird/internal/asdir/repos/records/presence"
	"github.com/asmap/asdird/internal/asdir/services/admission"
	"github.com/asmap/asdird/internal/asdir/services/query"
	"github.com/asmap/asdird/internal/asdir/services/session"
)

const (
	// Version information
	version = "0.1.0-dev"
	appName = "asdird"

	defaultShutdownTimeout = 10 * time.Second
)

// Application holds all the components of the directory server.
type Application struct {
	config    *config.AppConfig
	store     records.Store
	transport *transport.TCPTransport
	handler   *session.Handler
}

func main() {
	// Load configuration from environment
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		os.Exit(1)
	}

	// Configure global logging
	err = log.Configure(cfg.Env, cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Logging configuration error: %v\n", err)
		os.Exit(1)
	}

	log.Info(map[string]any{
		"version":   version,
		"env":       cfg.Env,
		"log_level": cfg.LogLevel,
		"port":      cfg.Port,
		"db_path":   cfg.DBPath,
		"max_conns": cfg.MaxConns,
		"page_size": cfg.PageSize,
	}, "Starting AS directory server")

	// Build application with all dependencies
	app, err := buildApplication(cfg)
	if err != nil {
		log.Fatal(map[string]any{"error": err}, "Failed to build application")
	}

	// Setup graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		log.Info(map[string]any{"signal": sig.String()}, "Shutdown signal received")
		cancel()
	}()

	if err := app.Run(ctx); err != nil {
		log.Fatal(map[string]any{"error": err}, "Server failed")
	}

	log.Info(nil, "AS directory server stopped gracefully")
}

// buildApplication constructs all components and wires them together
func buildApplication(cfg *config.AppConfig) (*Application, error) {
	// Create shared clock for consistent time across all components
	clk := &clock.RealClock{}

	// Initialize logger (already configured globally)
	logger := log.GetLogger()

	// Build repository layer
	store, pres, err := buildRepositories(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to build repositories: %w", err)
	}

	// Build service layer
	queryService := query.New(query.Options{
		Store:    store,
		PageSize: cfg.PageSize,
		Logger:   logger,
	})

	admissionController, err := admission.New(admission.Limits{
		ListingRate:     float64(cfg.ListingRate),
		ListingBurst:    int(cfg.ListingBurst),
		DetailRate:      float64(cfg.DetailRate),
		DetailBurst:     int(cfg.DetailBurst),
		ClientCacheSize: int(cfg.ClientCacheSize),
	}, clk, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create admission controller: %w", err)
	}

	sessionHandler := session.New(session.Options{
		Queries:   queryService,
		Admission: admissionController,
		Presence:  pres,
		Logger:    logger,
	})

	// Build transport layer
	addr := fmt.Sprintf(":%d", cfg.Port)
	codec := wire.NewMsgpackCodec(logger)
	tcpTransport := transport.NewTCPTransport(addr, cfg.MaxConns, codec, logger)

	return &Application{
		config:    cfg,
		store:     store,
		transport: tcpTransport,
		handler:   sessionHandler,
	}, nil
}

// buildRepositories opens the record store and seeds the presence filter
// with the ASNs already on disk.
func buildRepositories(cfg *config.AppConfig) (records.Store, *presence.Filter, error) {
	store, err := bolt.New(cfg.DBPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open record store: %w", err)
	}

	asns, err := store.ASNs()
	if err != nil {
		_ = store.Close()
		return nil, nil, fmt.Errorf("failed to enumerate stored records: %w", err)
	}
	pres := presence.Seed(asns)

	log.Info(map[string]any{
		"db_path": cfg.DBPath,
		"records": len(asns),
	}, "Record store opened")

	return store, pres, nil
}

// Run starts the directory server and blocks until context is cancelled
func (app *Application) Run(ctx context.Context) error {
	defer func() { _ = app.store.Close() }()

	if err := app.transport.Start(ctx, app.handler); err != nil {
		return fmt.Errorf("failed to start TCP transport: %w", err)
	}

	log.Info(map[string]any{
		"address":   app.transport.Address(),
		"transport": "TCP",
	}, "AS directory server started")

	// Wait for shutdown signal
	<-ctx.Done()

	log.Info(nil, "Shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), defaultShutdownTimeout)
	defer cancel()

	// Stop transport gracefully
	done := make(chan struct{})
	go func() {
		if err := app.transport.Stop(); err != nil {
			log.Warn(map[string]any{"error": err}, "Error during transport shutdown")
		}
		close(done)
	}()

	select {
	case <-done:
		log.Info(nil, "Graceful shutdown completed")
		return nil
	case <-shutdownCtx.Done():
		log.Warn(map[string]any{"timeout": defaultShutdownTimeout}, "Shutdown timeout exceeded")
		return fmt.Errorf("shutdown timeout")
	}
}
