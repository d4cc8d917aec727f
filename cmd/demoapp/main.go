package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/shehryarbajwa/e2e-harness/internal/demoapp"
	"github.com/shehryarbajwa/e2e-harness/internal/logging"
)

func main() {
	addr := flag.String("addr", ":8080", "listen address")
	delay := flag.Duration("loading-delay", demoapp.DefaultLoadingDelay, "how long the dynamic loading bar runs")
	level := flag.String("log-level", "info", "log level (debug, info, warn, error)")
	flag.Parse()

	// Load .env file
	_ = godotenv.Load()

	logger, err := logging.New(*level)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	defer logger.Sync()

	handler := demoapp.NewHandler(demoapp.Options{LoadingDelay: *delay}, logger)

	srv := &http.Server{
		Addr:         *addr,
		Handler:      handler.SetupRoutes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("demo app listening", zap.String("addr", *addr), zap.Duration("loading_delay", *delay))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down demo app")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("server forced to shutdown", zap.Error(err))
	}

	logger.Info("demo app stopped")
}
