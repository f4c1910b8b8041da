package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"chat-relay/api"
	"chat-relay/contract"
	"chat-relay/logs"
	"chat-relay/observability"
	"chat-relay/repositories"
	"chat-relay/runtime"
	"chat-relay/runtime/workers"
	"chat-relay/ws"

	"github.com/Netflix/go-env"
	"github.com/dgraph-io/badger/v4"
	"github.com/joho/godotenv"
	"github.com/rs/cors"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

// run wires the relay and manages its lifecycle. Returning the error to
// main keeps every defer (database close, supervisor stop) on the exit
// path and the wiring testable.
func run() error {
	// 1. Configuration & Logger
	_ = godotenv.Load()
	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	log := logs.GetLoggerFromString(config.LogLevel)
	monitoring := observability.NewMonitoring()

	// 2. Persistence strategy: durable gateway when Badger opens,
	// memory-only otherwise. The relay works correctly either way.
	gateway, db := openGateway(config, log)
	if db != nil {
		defer func() {
			log.Info("Closing BadgerDB...")
			_ = db.Close()
		}()
	}

	// 3. Relay core
	registry := runtime.NewRegistry()
	typing := runtime.NewTypingTracker()
	msgRouter := runtime.NewRouter(registry, gateway, log, monitoring,
		config.GatewayTimeout, config.SinkTimeout)
	lifecycle := runtime.NewLifecycle(registry, typing, msgRouter, gateway,
		log, monitoring, config.GatewayTimeout)

	// 4. Context & signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 5. Background workers
	sup := workers.NewSupervisor(log, config.RestartInterval)
	sup.Add(workers.NewSelfStatsWorker(log, monitoring, config.StatsInterval))
	if db != nil {
		sup.Add(workers.NewValueLogGCWorker(db, log, config.GCInterval))
	}
	go sup.Run(ctx)
	defer sup.Stop()

	// 6. HTTP surface: websocket endpoint + read-only API, behind CORS
	wsHandler := ws.NewHandler(lifecycle, log, config.AllowedOrigins, config.SendBufferSize)
	routes := api.NewHandler(gateway, registry, log).Routes(wsHandler)

	c := cors.New(cors.Options{
		AllowedOrigins:   config.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           300,
	})

	address := fmt.Sprintf("%s:%d", config.Host, config.Port)
	server := &http.Server{Addr: address, Handler: c.Handler(routes)}

	errChan := make(chan error, 1)
	go func() {
		log.Info("Starting chat relay", "address", address, "durable", db != nil)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("http server error: %w", err)
		}
	}()

	// 7. Wait for stop or error
	select {
	case <-ctx.Done():
		log.Info("Shutting down gracefully...")
	case err := <-errChan:
		return err
	}

	// 8. Final cleanup
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = server.Shutdown(shutdownCtx)
	sup.Stop()
	log.Info("Program stopped cleanly")

	return nil
}

// openGateway opens Badger when a path is configured. Any failure falls
// back to the memory gateway: empty history, registry-only roster.
func openGateway(config Config, log *slog.Logger) (contract.Gateway, *badger.DB) {
	if config.BadgerFilepath == "" {
		log.Info("No BADGER_FILEPATH set, using in-memory storage")
		return repositories.NewMemoryGateway(), nil
	}
	db, err := badger.Open(badger.DefaultOptions(config.BadgerFilepath).
		WithLoggingLevel(badger.WARNING))
	if err != nil {
		log.Warn("Database opening failed, using in-memory storage", "error", err)
		return repositories.NewMemoryGateway(), nil
	}
	return repositories.NewStore(db, log), db
}
