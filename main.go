package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dmorgan81/neurophoto/internal/config"
	"github.com/dmorgan81/neurophoto/internal/handler"
	"github.com/dmorgan81/neurophoto/internal/inject"
	"github.com/dmorgan81/neurophoto/internal/log"
	"github.com/samber/do"
)

const shutdownGrace = 30 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.New(os.Stderr, log.ParseLevel("")).Error("loading config", "error", err)
		os.Exit(1)
	}

	logger := log.New(os.Stderr, log.ParseLevel(cfg.LogLevel))
	ctx, stop := signal.NotifyContext(log.NewContext(context.Background(), logger), os.Interrupt, syscall.SIGTERM)
	defer stop()

	injector := inject.Setup(ctx, cfg)
	defer func() { _ = injector.Shutdown() }()

	h, err := do.Invoke[*handler.Handler](injector)
	if err != nil {
		logger.Error("building handler", "error", err)
		return
	}

	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return log.NewContext(context.Background(), logger) },
	}

	drained := make(chan struct{})
	go func() {
		defer close(drained)
		<-ctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	logger.Info("listening", "addr", cfg.Addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("serving", "error", err)
		return
	}
	<-drained
}
