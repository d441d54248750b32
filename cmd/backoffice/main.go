// Package main запускает HTTP-сервер бэк-офиса автосалона.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mmeshcher/dealer-backoffice/internal/config"
	"github.com/mmeshcher/dealer-backoffice/internal/handler"
	"github.com/mmeshcher/dealer-backoffice/internal/middleware"
	"github.com/mmeshcher/dealer-backoffice/internal/repository"
	"github.com/mmeshcher/dealer-backoffice/internal/service"
	"github.com/mmeshcher/dealer-backoffice/internal/taxrate"
)

func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	sugar := logger.Sugar()

	cfg, err := config.Parse()
	if err != nil {
		sugar.Fatalw("configuration error", "error", err.Error())
	}

	repo, err := repository.NewPostgresRepository(cfg.DatabaseURI)
	if err != nil {
		sugar.Fatalw("database initialization error", "error", err.Error())
	}

	var rates service.RateProvider
	if cfg.TaxRateServiceAddress != "" {
		rates = taxrate.NewClient(cfg.TaxRateServiceAddress)
	}

	svc := service.NewService(repo, rates, service.Settings{
		DefaultTaxRatePercent: cfg.DefaultTaxRatePercent,
		TaxRateCountry:        cfg.TaxRateCountry,
		TaxRateRefresh:        cfg.TaxRateRefresh,
		ExpectedShiftHours:    cfg.ExpectedShiftHours,
		ManagerLogins:         cfg.ManagerLogins,
	}, logger)
	defer svc.Close()

	if cfg.AuthSecret == "" {
		sugar.Warn("AUTH_SECRET is not set, sessions will not survive a restart")
	}
	authMiddleware := middleware.NewAuthMiddleware(cfg.AuthSecret)
	h := handler.NewHandler(svc, logger, authMiddleware)

	server := &http.Server{
		Addr:              cfg.RunAddress,
		Handler:           h.SetupRouter(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	// Фоновое обновление ставки НДС
	g.Go(func() error {
		svc.StartTaxRateUpdates(ctx)
		return nil
	})

	g.Go(func() error {
		sugar.Infow("starting backoffice server",
			"addr", cfg.RunAddress,
			"taxRateCountry", cfg.TaxRateCountry,
			"defaultTaxRate", cfg.DefaultTaxRatePercent,
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	// Graceful shutdown при сигнале или ошибке в другой горутине
	g.Go(func() error {
		<-ctx.Done()
		sugar.Info("shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}
		sugar.Info("server stopped gracefully")
		return nil
	})

	if err := g.Wait(); err != nil {
		sugar.Fatalw("application terminated with error", "error", err)
	}
}
