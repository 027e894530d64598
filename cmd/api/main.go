package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/Gobusters/ectologger/zapadapter"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/Ramsey-B/fern/config"
	"github.com/Ramsey-B/fern/internal/handlers"
	"github.com/Ramsey-B/fern/internal/repositories/customer"
	"github.com/Ramsey-B/fern/internal/repositories/diagnostic"
	"github.com/Ramsey-B/fern/internal/repositories/legacy"
	"github.com/Ramsey-B/fern/internal/repositories/location"
	"github.com/Ramsey-B/fern/internal/repositories/student"
	"github.com/Ramsey-B/fern/internal/repositories/transaction"
	"github.com/Ramsey-B/fern/pkg/database"
	"github.com/Ramsey-B/fern/pkg/events"
	"github.com/Ramsey-B/fern/pkg/health"
	"github.com/Ramsey-B/fern/pkg/kafka"
	"github.com/Ramsey-B/fern/pkg/middleware"
	"github.com/Ramsey-B/fern/pkg/scheduler"
	"github.com/Ramsey-B/fern/pkg/startup"
	"github.com/Ramsey-B/fern/pkg/syncer"
	"github.com/Ramsey-B/fern/pkg/tracing"
	"github.com/Ramsey-B/fern/pkg/tracing/exporters"
)

const version = "1.0.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger := newLogger(cfg)
	ctx := context.Background()

	shutdownTracing, err := tracing.Init(ctx, tracing.Config{
		Enabled:     cfg.TracingEnabled,
		ServiceName: cfg.AppName,
		Exporter:    cfg.TracingExporter,
		OTLP: exporters.OTLPConfig{
			Endpoint: cfg.OTLPEndpoint,
			Protocol: cfg.OTLPProtocol,
			Insecure: cfg.OTLPInsecure,
		},
	})
	if err != nil {
		logger.WithError(err).Error("failed to initialize tracing")
		os.Exit(1)
	}

	var legacyDB, financialDB *database.DatabaseInstance
	var producer *kafka.Producer
	var sched *scheduler.Scheduler

	manager := startup.NewManager(logger, cfg.StartupMaxAttempts)

	manager.Add(startup.Func{
		DependencyName: "legacy-db",
		StartFunc: func(ctx context.Context) error {
			legacyDB, err = database.Connect(ctx, database.ConnectionConfig{
				Host:            cfg.LegacyDatabaseHost,
				Port:            cfg.LegacyDatabasePort,
				UserName:        cfg.LegacyDatabaseUserName,
				Password:        cfg.LegacyDatabasePassword,
				Name:            cfg.LegacyDatabaseName,
				SSLMode:         cfg.LegacyDatabaseSSLMode,
				MaxOpenConns:    cfg.LegacyDatabaseMaxOpenConns,
				MaxIdleConns:    cfg.LegacyDatabaseMaxIdleConns,
				ConnMaxLifetime: cfg.LegacyDatabaseConnMaxLifetime,
			}, logger)
			return err
		},
		StopFunc: func(ctx context.Context) error {
			return legacyDB.Close()
		},
	})

	manager.Add(startup.Func{
		DependencyName: "financial-db",
		StartFunc: func(ctx context.Context) error {
			financialDB, err = database.Connect(ctx, database.ConnectionConfig{
				Host:            cfg.DatabaseHost,
				Port:            cfg.DatabasePort,
				UserName:        cfg.DatabaseUserName,
				Password:        cfg.DatabasePassword,
				Name:            cfg.DatabaseName,
				SSLMode:         cfg.DatabaseSSLMode,
				MaxOpenConns:    cfg.DatabaseMaxOpenConns,
				MaxIdleConns:    cfg.DatabaseMaxIdleConns,
				ConnMaxLifetime: cfg.DatabaseConnMaxLifetime,
			}, logger)
			return err
		},
		StopFunc: func(ctx context.Context) error {
			return financialDB.Close()
		},
	})

	manager.Add(startup.Func{
		DependencyName: "migrations",
		Requires:       []string{"financial-db"},
		StartFunc: func(ctx context.Context) error {
			migrations := database.NewMigrationService(logger, &database.MigrationConfig{
				MigrationFolderPath: cfg.DatabaseMigrationFolderPath,
				Version:             uint(cfg.DatabaseMigrationVersion),
				Force:               cfg.DatabaseMigrationForce,
			})
			return migrations.Migrate(cfg.DatabaseName, financialDB)
		},
	})

	if cfg.KafkaEnabled {
		manager.Add(startup.Func{
			DependencyName: "kafka-producer",
			StartFunc: func(ctx context.Context) error {
				producer = kafka.NewProducer(kafka.ProducerConfig{
					Brokers:      cfg.KafkaBrokers,
					Topic:        cfg.KafkaOutputTopic,
					BatchSize:    cfg.KafkaBatchSize,
					BatchTimeout: time.Duration(cfg.KafkaBatchTimeout) * time.Millisecond,
					RequiredAcks: cfg.KafkaRequiredAcks,
					Compression:  cfg.KafkaCompression,
				}, logger)
				return nil
			},
			StopFunc: func(ctx context.Context) error {
				return producer.Close()
			},
		})
	}

	if err := manager.Start(ctx); err != nil {
		logger.WithError(err).Error("startup failed")
		os.Exit(1)
	}

	legacyRepo := legacy.NewRepository(legacyDB, logger)
	customerRepo := customer.NewRepository(financialDB, logger)
	studentRepo := student.NewRepository(financialDB, logger)
	locationRepo := location.NewRepository(financialDB, logger)
	transactionRepo := transaction.NewRepository(financialDB, logger)
	diagnosticRepo := diagnostic.NewRepository(financialDB, logger)

	var emitter syncer.EventEmitter
	if producer != nil {
		emitter = events.NewEmitter(producer, logger)
	}

	orchestrator := syncer.NewOrchestrator(
		legacyRepo,
		customerRepo,
		studentRepo,
		locationRepo,
		transactionRepo,
		diagnosticRepo,
		syncer.NewStatus(),
		emitter,
		syncer.Config{
			BatchSize:          cfg.SyncBatchSize,
			DiagnosticsEnabled: cfg.SyncDiagnosticsEnabled,
		},
		logger,
	)

	if cfg.SchedulerEnabled {
		sched = scheduler.NewScheduler(orchestrator, scheduler.Config{RunHour: cfg.SchedulerRunHour}, logger)
		if err := sched.Start(ctx); err != nil {
			logger.WithError(err).Error("failed to start scheduler")
			os.Exit(1)
		}
	}

	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = middleware.Error(logger)
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins: cfg.AllowOrigins,
		AllowMethods: cfg.AllowMethods,
	}))
	e.Use(otelecho.Middleware(cfg.AppName))
	e.Use(middleware.Context())
	e.Use(middleware.Logger(logger))

	checker := health.NewChecker(financialDB, legacyDB, version)
	checker.RegisterRoutes(e)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	api := e.Group("/api/v1")
	handlers.NewSyncHandler(orchestrator, logger).RegisterRoutes(api)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		ReadTimeout:  time.Duration(cfg.HttpServerReadTimeoutSeconds) * time.Second,
		WriteTimeout: time.Duration(cfg.HttpServerWriteTimeoutSeconds) * time.Second,
		IdleTimeout:  time.Duration(cfg.HttpServerIdleTimeoutSeconds) * time.Second,
	}

	go func() {
		checker.SetReady(true)
		logger.WithField("port", cfg.Port).Infof("Starting %s on port %d", cfg.AppName, cfg.Port)
		if err := e.StartServer(server); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Error("http server stopped")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down")
	checker.SetReady(false)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if sched != nil {
		if err := sched.Stop(shutdownCtx); err != nil {
			logger.WithError(err).Error("failed to stop scheduler")
		}
	}
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("failed to shut down http server")
	}
	manager.Stop(shutdownCtx)
	if err := shutdownTracing(shutdownCtx); err != nil {
		logger.WithError(err).Error("failed to shut down tracing")
	}
}

func newLogger(cfg *config.Config) ectologger.Logger {
	level, err := zapcore.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.PrettyLogs {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	zapLogger, err := zapCfg.Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}

	return zapadapter.NewZapEctoLogger(zapLogger, nil)
}
