package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"floo/internal/cli"
	"floo/internal/devserver"
	"floo/internal/log"
	"floo/internal/storage"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger()
	cfg := cli.LoadAndValidateConfig(logger)
	srvLogger := logger.WithComponent(log.ComponentDevServer)

	repo, err := storage.NewRepository(cfg.DevDBPath)
	if err != nil {
		srvLogger.Error("Failed to open storage", log.FieldError, err.Error())
		os.Exit(1)
	}
	defer repo.Close()

	tokens := devserver.NewTokenIssuer(cfg.DevJWTSecret, cfg.DevTokenTTL)
	handler := devserver.NewHandler(repo, tokens, srvLogger)
	srv := devserver.NewServer(":"+cfg.DevPort, handler)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		srvLogger.Info("Shutdown signal received",
			log.FieldOperation, log.OpShutdown,
			"signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			srvLogger.Error("Server shutdown error", log.FieldError, err.Error())
		}
		cancel()
	}()

	srvLogger.Info("Starting floo dev API server",
		log.FieldOperation, log.OpStartup,
		"port", cfg.DevPort,
		"db_path", cfg.DevDBPath)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		srvLogger.Error("Server error", log.FieldError, err.Error(), "port", cfg.DevPort)
		os.Exit(1)
	}

	<-ctx.Done()
	srvLogger.Info("Server stopped gracefully", log.FieldOperation, log.OpShutdown)
}
