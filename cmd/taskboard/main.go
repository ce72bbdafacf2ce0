package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"taskboard/internal/config"
	"taskboard/internal/core"
	"taskboard/internal/outbox"
	"taskboard/internal/server"
	"taskboard/internal/storage/sqlite"
	"taskboard/internal/util"
)

func main() {
	configFlag := flag.String("config", util.EnvOrDefault("TASKBOARD_CONFIG", ""), "Path to YAML configuration file")
	flag.Parse()

	cfg := config.MustLoad(*configFlag)

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel(cfg.LogLevel)}))

	store, err := sqlite.Open(cfg.DBPath, logger)
	if err != nil {
		logger.Error("unable to open database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer store.Close()

	svc := core.NewService(store, logger)

	dispatcherCtx, stopDispatcher := context.WithCancel(context.Background())
	dispatcher := outbox.New(store, logger, cfg.OutboxAttempts)
	go dispatcher.Run(dispatcherCtx, cfg.OutboxInterval)

	srv := server.New(svc, logger, cfg.StaticDir)

	httpServer := &http.Server{
		Addr:    cfg.Address,
		Handler: srv.Engine(),
	}

	go func() {
		logger.Info("starting server", slog.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server stopped unexpectedly", slog.String("error", err.Error()))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error("failed to shutdown server", slog.String("error", err.Error()))
	}

	stopDispatcher()
	// One last pass so cascades recorded during shutdown are not delayed
	// until the next start.
	if _, err := dispatcher.ProcessPending(ctx); err != nil {
		logger.Error("final outbox pass failed", slog.String("error", err.Error()))
	}

	logger.Info("server stopped")
}

func logLevel(level string) slog.Level {
	switch level {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
