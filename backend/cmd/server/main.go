/*
 * @Author: NEFU AB-IN
 * @Date: 2026-09-10 19:55:11
 * @FilePath: \adops-engine\backend\cmd\server\main.go
 * @LastEditTime: 2026-09-14 16:30:02
 */
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"adops-engine/backend/internal/app"
	"adops-engine/backend/internal/bootstrap"
	"adops-engine/backend/internal/config"
	"adops-engine/backend/internal/infra/logger"
)

const shutdownTimeout = 10 * time.Second

func main() {
	zapLogger, err := logger.Init()
	if err != nil {
		panic(fmt.Sprintf("init logger failed: %v", err))
	}
	defer logger.Sync()
	sugar := zapLogger.Sugar()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	resources, err := app.Bootstrap(ctx, sugar)
	if err != nil {
		sugar.Fatalw("bootstrap failed", "error", err)
	}
	defer func() {
		if err := resources.Close(); err != nil {
			sugar.Warnw("resource cleanup error", "error", err)
		}
	}()

	cfg := config.LoadEngineConfig()
	application, err := bootstrap.BuildApplication(ctx, sugar, resources, bootstrap.Options{Engine: cfg})
	if err != nil {
		sugar.Fatalw("build application failed", "error", err)
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           application.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		sugar.Infow("http server listening", "addr", srv.Addr, "mode", resources.Runtime.Mode)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case <-ctx.Done():
		sugar.Infow("shutdown signal received")
	case err := <-serverErr:
		if err != nil {
			sugar.Errorw("http server stopped", "error", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		sugar.Warnw("graceful shutdown failed", "error", err)
	}
}
