package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/locvowork/feeltime/internal/bootstrap"
	"github.com/locvowork/feeltime/internal/logger"
)

func main() {
	ctx := context.Background()

	app := bootstrap.NewApp()
	if err := app.Initialize(ctx); err != nil {
		logger.ErrorLog(ctx, "Failed to initialize application", err)
		os.Exit(1)
	}

	go func() {
		if err := app.Run(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.ErrorLog(ctx, "Server stopped unexpectedly", err)
			os.Exit(1)
		}
	}()
	logger.InfoLog(ctx, "feeltime listening on port %s", app.Config.APP_PORT)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := app.Echo.Shutdown(shutdownCtx); err != nil {
		logger.ErrorLog(ctx, "Failed to shut down server", err)
	}
	if err := app.Close(); err != nil {
		logger.ErrorLog(ctx, "Failed to close storage", err)
	}
}
