// cmd/diet-coach/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"diet-coach/internal/server"
)

var (
	port    = flag.Int("port", 8011, "Port for HTTP transport")
	host    = flag.String("host", "0.0.0.0", "Host address")
	dbPath  = flag.String("db-path", "/data/diet-coach.db", "Database path")
	debug   = flag.Bool("debug", false, "Enable debug logging")
	version = flag.Bool("version", false, "Show version")
)

func main() {
	flag.Parse()

	if *version {
		fmt.Println("diet-coach version 1.0.0")
		os.Exit(0)
	}

	logConfig := zap.NewProductionConfig()
	if *debug {
		logConfig.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	logger, err := logConfig.Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	config := &server.Config{
		Host:   *host,
		Port:   *port,
		DBPath: *dbPath,
	}

	srv, err := server.NewDietCoachServer(config, logger)
	if err != nil {
		logger.Fatal("failed to create server", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(ctx); err != nil {
			errCh <- err
		}
	}()

	select {
	case <-sigCh:
		logger.Info("received shutdown signal")
	case err := <-errCh:
		logger.Error("server error", zap.Error(err))
	}

	logger.Info("shutting down")
	cancel()
	if err := srv.Stop(); err != nil {
		logger.Error("error during shutdown", zap.Error(err))
	}
}
