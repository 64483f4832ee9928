package main

import (
	"context"
	"net"
	"os/signal"
	"syscall"

	"github.com/midnightkv/midnight/internal/config"
	"github.com/midnightkv/midnight/internal/logger"
	"github.com/midnightkv/midnight/internal/server"
	"github.com/midnightkv/midnight/internal/store"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load(".")
	if err != nil {
		panic(err)
	}

	log := logger.New(cfg.Log.Level, cfg.Log.Format)
	defer log.Sync() //nolint:errcheck

	log.Info("Midnight starting", zap.String("port", cfg.Server.Port))

	db := store.New()
	srv := server.New(cfg, db, log)

	address := net.JoinHostPort(cfg.Server.Host, cfg.Server.Port)
	listener, err := net.Listen("tcp", address)
	if err != nil {
		log.Error("listener error", zap.Error(err))
		return
	}
	log.Info("listening on", zap.String("address", address))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	serveDone := make(chan struct{})
	go func() {
		if err := srv.Serve(listener); err != nil {
			log.Error("serve error", zap.Error(err))
		}
		close(serveDone)
	}()

	<-ctx.Done()

	log.Info("Shutting down...")
	listener.Close() //nolint:errcheck
	<-serveDone

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	done := make(chan struct{})
	go func() {
		srv.Wait()
		close(done)
	}()

	select {
	case <-done:
		log.Info("All connections closed gracefully")
	case <-shutdownCtx.Done():
		log.Warn("Shutdown timed out, forcing exit", zap.Duration("timeout", cfg.Server.ShutdownTimeout))
	}

	log.Info("Midnight stopped")
}
