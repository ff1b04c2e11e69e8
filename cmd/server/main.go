package main

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	catalogapp "github.com/ehr/pharmacy/internal/application/catalog"
	invapp "github.com/ehr/pharmacy/internal/application/inventory"
	appshared "github.com/ehr/pharmacy/internal/application/shared"
	tradeapp "github.com/ehr/pharmacy/internal/application/trade"
	"github.com/ehr/pharmacy/internal/domain/shared"
	"github.com/ehr/pharmacy/internal/infrastructure/auth"
	"github.com/ehr/pharmacy/internal/infrastructure/config"
	"github.com/ehr/pharmacy/internal/infrastructure/lock"
	"github.com/ehr/pharmacy/internal/infrastructure/logger"
	"github.com/ehr/pharmacy/internal/infrastructure/migration"
	"github.com/ehr/pharmacy/internal/infrastructure/persistence"
	"github.com/ehr/pharmacy/internal/infrastructure/telemetry"
	"github.com/ehr/pharmacy/internal/interfaces/http/handler"
	"github.com/ehr/pharmacy/internal/interfaces/http/middleware"
	"github.com/ehr/pharmacy/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting pharmacy ledger",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("version", version),
		zap.String("db_driver", cfg.Database.Driver),
	)

	telemetry.ServiceVersion = version
	tp, err := telemetry.NewTracerProvider(context.Background(), cfg.Telemetry, log)
	if err != nil {
		log.Fatal("Failed to initialize telemetry", zap.Error(err))
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
		defer cancel()
		if err := tp.Shutdown(ctx); err != nil {
			log.Warn("Telemetry shutdown failed", zap.Error(err))
		}
	}()

	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level))
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()

	dbTracing := telemetry.DefaultDBTracingConfig()
	dbTracing.Enabled = cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled
	if cfg.Database.Driver == config.DriverSQLite {
		dbTracing.DBSystem = "sqlite"
	}
	if err := telemetry.NewDBTracingPlugin(dbTracing, log).Register(db.DB); err != nil {
		log.Fatal("Failed to register database tracing", zap.Error(err))
	}

	if err := migrateSchema(db, cfg.Database.Driver, log); err != nil {
		log.Fatal("Failed to prepare schema", zap.Error(err))
	}

	locker, err := lock.NewLockerFactory(cfg.Redis, cfg.Lock, lock.WithLogger(log)).CreateLocker()
	if err != nil {
		log.Fatal("Failed to create batch locker", zap.Error(err))
	}
	if closer, ok := locker.(io.Closer); ok {
		defer func() {
			_ = closer.Close()
		}()
	}

	repos := persistence.NewRepositories(db.DB)
	scope := persistence.NewGormTransactionScope(db.DB)
	clock := shared.SystemClock{}
	recorder := appshared.NewAuditRecorder(repos.Audit(), clock, log)
	guard := appshared.NewStockGuard(locker, scope)
	settings := appshared.Settings{
		HomeState:        cfg.Pharmacy.HomeState,
		PaymentTolerance: cfg.Pharmacy.PaymentTolerance,
		AllowExpiredSale: cfg.Pharmacy.AllowExpiredSale,
	}

	productService := catalogapp.NewProductService(repos, scope, recorder, clock, log)
	purchaseService := tradeapp.NewPurchaseService(repos, scope, recorder, settings, clock, log)
	saleService := tradeapp.NewSaleService(repos, guard, recorder, settings, clock, log)
	returnService := tradeapp.NewReturnService(repos, scope, guard, recorder, clock, log)
	inventoryService := invapp.NewInventoryService(repos, guard, recorder, clock, log)
	disposalService := invapp.NewDisposalService(repos, guard, recorder, clock, log)

	jwtService := auth.NewJWTService(cfg.JWT)
	if !jwtService.Enabled() {
		log.Warn("No JWT secret configured; trusting X-User-* identity headers")
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	engine, err := router.NewEngine(router.EngineConfig{
		Logger: log,
		JWT:    jwtService,
		Tracing: middleware.TracingConfig{
			Enabled:     cfg.Telemetry.Enabled,
			ServiceName: cfg.Telemetry.ServiceName,
		},
		Security:       middleware.DefaultSecurityConfig(),
		TrustedProxies: cfg.HTTP.TrustedProxies,
	}, router.Handlers{
		Catalog:  handler.NewCatalogHandler(productService),
		Purchase: handler.NewPurchaseHandler(purchaseService),
		Sale:     handler.NewSaleHandler(saleService, returnService),
		Stock:    handler.NewStockHandler(inventoryService, disposalService),
		Health:   handler.NewHealthHandler(db, version),
	})
	if err != nil {
		log.Fatal("Failed to build HTTP engine", zap.Error(err))
	}

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	log.Info("Server exited gracefully")
}

// migrateSchema brings the schema up to date: the embedded golang-migrate
// schema on postgres, gorm AutoMigrate on sqlite.
func migrateSchema(db *persistence.Database, driver string, log *zap.Logger) error {
	if driver == config.DriverSQLite {
		return db.AutoMigrate()
	}
	sqlDB, err := db.DB.DB()
	if err != nil {
		return err
	}
	// the migrator is not closed: its postgres driver would close the shared pool
	m, err := migration.New(sqlDB, log)
	if err != nil {
		return err
	}
	return m.Up()
}
