package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
	"google.golang.org/grpc"

	"github.com/tair/stock-scanner/internal/config"
	"github.com/tair/stock-scanner/internal/inventory"
	grpcDelivery "github.com/tair/stock-scanner/internal/inventory/delivery/grpc"
	httpDelivery "github.com/tair/stock-scanner/internal/inventory/delivery/http"
	"github.com/tair/stock-scanner/internal/inventory/feed"
	"github.com/tair/stock-scanner/internal/inventory/repository"
	"github.com/tair/stock-scanner/internal/inventory/usecase/command"
	"github.com/tair/stock-scanner/internal/workflow"
	"github.com/tair/stock-scanner/kafka"
	"github.com/tair/stock-scanner/pkg/database"
	"github.com/tair/stock-scanner/pkg/logger"
	"github.com/tair/stock-scanner/pkg/tracing"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Logger.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Initialize logger
	logger.Init(cfg.ServiceName, cfg.IsDevelopment())
	logger.SetLevel(cfg.LogLevel)

	logger.Logger.Info().
		Str("service", cfg.ServiceName).
		Str("environment", cfg.Environment).
		Str("log_level", cfg.LogLevel).
		Str("store_driver", cfg.StoreDriver).
		Msg("Starting stock scanner")

	// Initialize tracer
	tp, err := tracing.InitTracer(cfg.ServiceName, cfg.JaegerEndpoint, cfg.TraceSampleRatio)
	if err != nil {
		logger.Logger.Error().Err(err).Msg("Failed to initialize tracer")
	} else {
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := tracing.Shutdown(ctx, tp); err != nil {
				logger.Logger.Error().Err(err).Msg("Failed to shutdown tracer")
			}
		}()
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dbConfig := database.Config{
		Host:     cfg.DBHost,
		Port:     cfg.DBPort,
		User:     cfg.DBUser,
		Password: cfg.DBPassword,
		DBName:   cfg.DBName,
		SSLMode:  cfg.DBSSLMode,
	}
	backend, closeBackend := openCatalogBackend(cfg, dbConfig)
	defer closeBackend()

	rdb := openRedis(cfg)
	if rdb != nil {
		defer rdb.Close()
	}

	// Kafka is optional; a nil interface keeps alerts off
	var alerts workflow.AlertPublisher
	if brokers := cfg.Brokers(); len(brokers) > 0 {
		publisher, err := kafka.NewPublisher(brokers)
		if err != nil {
			logger.Logger.Warn().Err(err).Msg("Kafka publisher unavailable - low-stock alerts disabled")
		} else {
			defer publisher.Close()
			alerts = publisher
		}
	}

	// Initialize application with Wire DI
	app, err := inventory.InitializeApp(cfg, backend, rdb, alerts)
	if err != nil {
		logger.Logger.Fatal().Err(err).Msg("Failed to initialize application")
	}
	defer app.Sessions.Close()

	if err := app.Feed.Refresh(ctx); err != nil {
		logger.Logger.Warn().Err(err).Msg("Initial catalog load failed")
	}
	if cfg.StoreDriver != "memory" {
		listener := feed.NewPostgresListener(dbConfig.DSN(), app.Feed)
		go func() {
			if err := listener.Run(ctx); err != nil {
				logger.Logger.Error().Err(err).Msg("Catalog listener stopped")
			}
		}()
	}

	if brokers := cfg.Brokers(); len(brokers) > 0 {
		startSalesConsumer(ctx, brokers, cfg.KafkaGroupID, app.RecordSale)
	}

	sched := startJobs(cfg.ReconcileSchedule, app.Reconcile)
	defer sched.Stop()

	go app.Health.Run(ctx)
	grpcServer := startGRPCServer(app.Health, cfg.GRPCPort)
	httpServer := startHTTPServer(app.HTTPHandler, cfg.HTTPPort)

	<-ctx.Done()
	logger.Logger.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Logger.Error().Err(err).Msg("HTTP server shutdown failed")
	}
	grpcServer.GracefulStop()
}

// openCatalogBackend returns the memory store or a migrated Postgres store
func openCatalogBackend(cfg *config.Config, dbConfig database.Config) (inventory.CatalogBackend, func()) {
	if cfg.StoreDriver == "memory" {
		logger.Logger.Warn().Msg("Using in-memory catalog store, data is not persisted")
		return repository.NewMemoryCatalogStore(), func() {}
	}

	db, err := database.NewGormConnection(dbConfig)
	if err != nil {
		logger.Logger.Fatal().Err(err).Msg("Failed to connect to database")
	}

	sqlDB, err := db.DB()
	if err != nil {
		logger.Logger.Fatal().Err(err).Msg("Failed to get database instance")
	}

	store := repository.NewGormCatalogStore(db)
	if err := store.AutoMigrate(); err != nil {
		logger.Logger.Fatal().Err(err).Msg("Failed to run migrations")
	}

	logger.Logger.Info().Msg("Database initialized successfully")
	return store, func() { sqlDB.Close() }
}

// openRedis connects the barcode cache. A failed ping disables caching.
func openRedis(cfg *config.Config) *redis.Client {
	if cfg.RedisAddr == "" {
		return nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       0,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		logger.Logger.Warn().
			Err(err).
			Str("redis_addr", cfg.RedisAddr).
			Msg("Failed to connect to Redis - barcode cache will be disabled")
		rdb.Close()
		return nil
	}

	logger.Logger.Info().
		Str("redis_addr", cfg.RedisAddr).
		Msg("Connected to Redis for barcode cache")
	return rdb
}

// startSalesConsumer applies point-of-sale events to stock
func startSalesConsumer(ctx context.Context, brokers []string, groupID string, recordSale *command.RecordSaleHandler) {
	consumer, err := kafka.NewConsumer(brokers, groupID, []string{kafka.TopicProductSold})
	if err != nil {
		logger.Logger.Warn().Err(err).Msg("Kafka consumer unavailable - sales will not update stock")
		return
	}

	consumer.RegisterHandler(kafka.EventTypeProductSold, func(ctx context.Context, event kafka.ProductSoldEvent) error {
		_, err := recordSale.Handle(ctx, command.RecordSaleCommand{
			Barcode:  event.Barcode,
			Quantity: event.Quantity,
		})
		return err
	})

	if err := consumer.Start(ctx); err != nil {
		logger.Logger.Error().Err(err).Msg("Failed to start Kafka consumer")
		return
	}
	go func() {
		<-ctx.Done()
		if err := consumer.Close(); err != nil {
			logger.Logger.Error().Err(err).Msg("Failed to close Kafka consumer")
		}
	}()
}

var cronParser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// startJobs schedules the low-stock flag reconciliation
func startJobs(schedule string, reconcile *command.ReconcileHandler) *cron.Cron {
	sched := cron.New(cron.WithParser(cronParser))

	_, err := sched.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		if _, err := reconcile.Handle(ctx); err != nil {
			logger.Logger.Error().Err(err).Msg("Low-stock reconciliation failed")
		}
	})
	if err != nil {
		logger.Logger.Error().Err(err).Str("schedule", schedule).Msg("Invalid reconcile schedule")
	}

	sched.Start()
	return sched
}

func startGRPCServer(health *grpcDelivery.HealthServer, port string) *grpc.Server {
	lis, err := net.Listen("tcp", ":"+port)
	if err != nil {
		logger.Logger.Fatal().Err(err).Str("port", port).Msg("Failed to listen for gRPC")
	}

	srv := grpcDelivery.NewServer(health)
	go func() {
		logger.Logger.Info().Str("port", port).Msg("gRPC server started")
		if err := srv.Serve(lis); err != nil {
			logger.Logger.Error().Err(err).Msg("gRPC server stopped")
		}
	}()
	return srv
}

func startHTTPServer(handler *httpDelivery.ScanHandler, port string) *http.Server {
	// Setup router
	router := mux.NewRouter()

	// Register all middlewares using middleware registration system
	middlewareConfig := httpDelivery.DefaultMiddlewareConfig()
	httpDelivery.RegisterMiddlewares(router, middlewareConfig)

	// Register routes
	handler.RegisterRoutes(router)

	// Health check endpoint
	handler.RegisterHealthCheck(router)

	// Prometheus metrics endpoint
	router.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           httpDelivery.SetupCORS(middlewareConfig)(router),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Logger.Info().
			Str("port", port).
			Str("metrics_endpoint", "/metrics").
			Msg("HTTP server started")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Logger.Fatal().Err(err).Msg("Failed to start HTTP server")
		}
	}()
	return srv
}
