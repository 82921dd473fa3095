package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"time"

	"go.uber.org/zap"

	"github.com/blackwhale4ducate1-tech/smart-trolley-backend/internal/config"
	"github.com/blackwhale4ducate1-tech/smart-trolley-backend/internal/render"
	"github.com/blackwhale4ducate1-tech/smart-trolley-backend/internal/repository/mongodb"
	"github.com/blackwhale4ducate1-tech/smart-trolley-backend/internal/scheduler"
	"github.com/blackwhale4ducate1-tech/smart-trolley-backend/internal/server/handlers"
	"github.com/blackwhale4ducate1-tech/smart-trolley-backend/internal/server/middleware"
	"github.com/blackwhale4ducate1-tech/smart-trolley-backend/internal/server/router"
	billingsvc "github.com/blackwhale4ducate1-tech/smart-trolley-backend/internal/service/billing"
	verificationsvc "github.com/blackwhale4ducate1-tech/smart-trolley-backend/internal/service/verification"
	"github.com/blackwhale4ducate1-tech/smart-trolley-backend/pkg/clients/notifier"
	"github.com/blackwhale4ducate1-tech/smart-trolley-backend/pkg/logger"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		panic(err)
	}

	baseLogger := logger.Must(logger.New())
	defer func() { _ = baseLogger.Sync() }()

	zap.ReplaceGlobals(baseLogger)

	store, err := mongodb.NewStore(context.Background(), cfg.MongoDB.URI, cfg.MongoDB.DBName)
	if err != nil {
		baseLogger.Fatal("failed to init mongodb store", zap.Error(err))
	}
	defer func() {
		if err := store.Close(context.Background()); err != nil {
			baseLogger.Error("failed to close mongodb connection", zap.Error(err))
		}
	}()

	var webhook notifier.Client
	if cfg.Notifier.WebhookURL != "" {
		webhook = notifier.NewClient(cfg.Notifier.WebhookURL)
		baseLogger.Info("verification webhook enabled")
	} else {
		baseLogger.Warn("notifier webhook url missing, event notifications disabled")
	}

	clock := billingsvc.NewSessionClock(cfg.Billing.SessionWindow)
	billingSvc := billingsvc.NewService(store, clock, baseLogger.Named("svc.billing"))
	verifySvc := verificationsvc.NewService(store, billingSvc.Ledger(),
		cfg.Billing.RestoreStockOnCancel, webhook, baseLogger.Named("svc.verification"))
	renderer := render.NewRenderer(store, baseLogger.Named("render"))

	auth := middleware.NewSessionAuthenticator(store)
	invoiceHandler := handlers.NewInvoiceHandler(billingSvc, renderer, baseLogger.Named("handlers.invoices"))
	adminHandler := handlers.NewAdminHandler(billingSvc, verifySvc, baseLogger.Named("handlers.admin"))
	engine := router.New(invoiceHandler, adminHandler, auth, baseLogger.Named("router"))

	sched := scheduler.NewScheduler(cfg.Watch, store, webhook, baseLogger.Named("scheduler"))
	sched.Start()
	defer sched.Stop()

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	go func() {
		baseLogger.Info("server starting", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			baseLogger.Fatal("http server crashed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	baseLogger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		baseLogger.Error("graceful shutdown failed", zap.Error(err))
	}
}
