package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/mamadbah2/canebill/internal/auth"
	"github.com/mamadbah2/canebill/internal/config"
	"github.com/mamadbah2/canebill/internal/repository"
	"github.com/mamadbah2/canebill/internal/repository/memory"
	"github.com/mamadbah2/canebill/internal/repository/mongodb"
	"github.com/mamadbah2/canebill/internal/repository/sheets"
	"github.com/mamadbah2/canebill/internal/scheduler"
	"github.com/mamadbah2/canebill/internal/server/handlers"
	"github.com/mamadbah2/canebill/internal/server/middleware"
	"github.com/mamadbah2/canebill/internal/server/router"
	activitysvc "github.com/mamadbah2/canebill/internal/service/activity"
	billingsvc "github.com/mamadbah2/canebill/internal/service/billing"
	farmersvc "github.com/mamadbah2/canebill/internal/service/farmers"
	pricingsvc "github.com/mamadbah2/canebill/internal/service/pricing"
	reportingsvc "github.com/mamadbah2/canebill/internal/service/reporting"
	settingssvc "github.com/mamadbah2/canebill/internal/service/settings"
	sharingsvc "github.com/mamadbah2/canebill/internal/service/sharing"
	usersvc "github.com/mamadbah2/canebill/internal/service/users"
	"github.com/mamadbah2/canebill/pkg/logger"
)

func main() {
	cfg, err := config.Load(os.Getenv("ENV_FILE"))
	if err != nil {
		panic(err)
	}

	baseLogger := logger.Must(logger.NewWithOptions(cfg.Log.Env, cfg.Log.Level))
	defer func() { _ = baseLogger.Sync() }()

	zap.ReplaceGlobals(baseLogger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var store repository.Store
	switch cfg.Storage.Driver {
	case config.StorageMemory:
		baseLogger.Warn("using in-memory storage, data is lost on restart")
		store = memory.NewStore()
	default:
		mongoRepo, err := mongodb.NewMongoDBRepository(ctx, cfg.MongoDB.URI, cfg.MongoDB.DBName, baseLogger.Named("repo.mongodb"))
		if err != nil {
			baseLogger.Fatal("failed to init mongodb repository", zap.Error(err))
		}
		defer func() {
			if err := mongoRepo.Close(context.Background()); err != nil {
				baseLogger.Error("failed to close mongodb connection", zap.Error(err))
			}
		}()
		store = mongoRepo.Store()
	}

	var billSink billingsvc.BillSink
	if cfg.Sheets.Enabled() {
		sheetsRepo, err := sheets.NewGoogleSheetRepository(ctx, cfg.Sheets, baseLogger.Named("repo.sheets"))
		if err != nil {
			baseLogger.Fatal("failed to init sheets repository", zap.Error(err))
		}
		billSink = sheets.NewBillSink(sheetsRepo, cfg.Sheets.BillsRange, baseLogger.Named("repo.sheets"))
		baseLogger.Info("google sheets bill export enabled")
	} else {
		baseLogger.Info("google sheets not configured, bill export disabled")
	}

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer, cfg.Auth.JWTExpiration)

	activitySvc := activitysvc.NewService(store.Activity, cfg.Scheduler.ActivityRetention, baseLogger.Named("svc.activity"))
	pricingSvc := pricingsvc.NewService(store.Prices, store.Settings, nil, activitySvc, baseLogger.Named("svc.pricing"))
	farmerSvc := farmersvc.NewService(store.Farmers, activitySvc, baseLogger.Named("svc.farmers"))
	billingSvc := billingsvc.NewService(store.Bills, pricingSvc.Resolver(), farmerSvc, billSink, activitySvc, baseLogger.Named("svc.billing"))
	userSvc := usersvc.NewService(store.Users, tokens, usersvc.SeedConfig{
		AdminPassword:     cfg.Seed.AdminPassword,
		RootPassword:      cfg.Seed.RootPassword,
		SuperRootUsername: cfg.Seed.SuperRootUsername,
		SuperRootPassword: cfg.Seed.SuperRootPassword,
	}, activitySvc, baseLogger.Named("svc.users"))
	settingsSvc := settingssvc.NewService(store.Settings, pricingSvc, activitySvc, baseLogger.Named("svc.settings"))
	sharingSvc := sharingsvc.NewService(store.Shares, billingSvc, activitySvc, baseLogger.Named("svc.sharing"))
	reportingSvc := reportingsvc.NewService(billingSvc, reportingsvc.Options{FontPath: cfg.Reporting.PDFFontPath}, baseLogger.Named("svc.reporting"))

	migrated, err := pricingSvc.MigrateLegacy(ctx)
	if err != nil {
		baseLogger.Fatal("failed to migrate legacy prices", zap.Error(err))
	}
	if migrated {
		baseLogger.Info("legacy settings prices migrated into price table")
	}
	if err := userSvc.EnsureSuperRoot(ctx); err != nil {
		baseLogger.Fatal("failed to ensure super root", zap.Error(err))
	}

	if err := handlers.RegisterValidators(); err != nil {
		baseLogger.Fatal("failed to register validators", zap.Error(err))
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics, err := middleware.NewMetrics(registry)
	if err != nil {
		baseLogger.Fatal("failed to register metrics", zap.Error(err))
	}

	if cfg.Log.Env != "development" {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := router.New(router.Handlers{
		Auth:     handlers.NewAuthHandler(userSvc, baseLogger.Named("handlers.auth")),
		Users:    handlers.NewUserHandler(userSvc, baseLogger.Named("handlers.users")),
		Bills:    handlers.NewBillHandler(billingSvc, baseLogger.Named("handlers.bills")),
		Farmers:  handlers.NewFarmerHandler(farmerSvc, baseLogger.Named("handlers.farmers")),
		Prices:   handlers.NewPriceHandler(pricingSvc, baseLogger.Named("handlers.prices")),
		Settings: handlers.NewSettingsHandler(settingsSvc, baseLogger.Named("handlers.settings")),
		Shares:   handlers.NewShareHandler(sharingSvc, baseLogger.Named("handlers.share")),
		Activity: handlers.NewActivityHandler(activitySvc, baseLogger.Named("handlers.activity")),
		Reports:  handlers.NewReportHandler(reportingSvc, baseLogger.Named("handlers.reports")),
	}, tokens, router.Options{Metrics: metrics}, baseLogger.Named("router"))

	sched, err := scheduler.NewScheduler(cfg.Scheduler, sharingSvc, activitySvc, baseLogger.Named("scheduler"))
	if err != nil {
		baseLogger.Fatal("failed to init scheduler", zap.Error(err))
	}
	if err := sched.Start(); err != nil {
		baseLogger.Fatal("failed to start scheduler", zap.Error(err))
	}
	defer sched.Stop()

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      middleware.NewCORS(cfg.Server.CORSAllowedOrigins)(engine),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		baseLogger.Info("server starting", zap.String("port", cfg.Server.Port), zap.String("storage", cfg.Storage.Driver))
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
