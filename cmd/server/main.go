package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/roomforge/api/internal/bootstrap"
	"github.com/roomforge/api/internal/config"
	"github.com/samber/do"
	"go.uber.org/zap"
)

//	@title			Roomforge API
//	@version		1.0
//	@description	Interior design generation: design lineage, reference uploads and signed image delivery.
//	@BasePath		/api/v1

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	injector := bootstrap.New(ctx, cfg)
	zlog, err := do.Invoke[*zap.Logger](injector)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer zlog.Sync()

	// tracing first so it is flushed last
	if _, err := do.Invoke[*bootstrap.Tracing](injector); err != nil {
		zlog.Fatal("failed to init telemetry", zap.Error(err))
	}
	srv, err := do.Invoke[*http.Server](injector)
	if err != nil {
		zlog.Fatal("failed to build server", zap.Error(err))
	}

	errCh := make(chan error, 1)
	go func() {
		zlog.Info("listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		zlog.Info("shutting down")
	case err := <-errCh:
		if err != nil {
			zlog.Error("server exited", zap.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zlog.Warn("http shutdown", zap.Error(err))
	}
	if err := injector.Shutdown(); err != nil {
		zlog.Warn("release clients", zap.Error(err))
	}
}
