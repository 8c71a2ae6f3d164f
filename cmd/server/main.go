package main

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/fekuna/omnipos-sales-service/config"
	"github.com/fekuna/omnipos-sales-service/internal/alert"
	"github.com/fekuna/omnipos-sales-service/internal/currency"
	"github.com/fekuna/omnipos-sales-service/internal/database"
	"github.com/fekuna/omnipos-sales-service/internal/health"
	"github.com/fekuna/omnipos-sales-service/internal/logger"
	"github.com/fekuna/omnipos-sales-service/internal/middleware"
	"github.com/fekuna/omnipos-sales-service/internal/notifier"
	"github.com/fekuna/omnipos-sales-service/internal/uow"

	alertH "github.com/fekuna/omnipos-sales-service/internal/alert/handler"
	alertRepoPkg "github.com/fekuna/omnipos-sales-service/internal/alert/repository"
	alertUCPkg "github.com/fekuna/omnipos-sales-service/internal/alert/usecase"

	curCache "github.com/fekuna/omnipos-sales-service/internal/currency/cache"
	curH "github.com/fekuna/omnipos-sales-service/internal/currency/handler"
	curListenerPkg "github.com/fekuna/omnipos-sales-service/internal/currency/listener"
	curRepoPkg "github.com/fekuna/omnipos-sales-service/internal/currency/repository"
	curUCPkg "github.com/fekuna/omnipos-sales-service/internal/currency/usecase"

	invH "github.com/fekuna/omnipos-sales-service/internal/inventory/handler"
	invRepoPkg "github.com/fekuna/omnipos-sales-service/internal/inventory/repository"
	invUCPkg "github.com/fekuna/omnipos-sales-service/internal/inventory/usecase"

	prodH "github.com/fekuna/omnipos-sales-service/internal/product/handler"
	prodRepoPkg "github.com/fekuna/omnipos-sales-service/internal/product/repository"
	prodUCPkg "github.com/fekuna/omnipos-sales-service/internal/product/usecase"

	saleH "github.com/fekuna/omnipos-sales-service/internal/sale/handler"
	saleRepoPkg "github.com/fekuna/omnipos-sales-service/internal/sale/repository"
	saleUCPkg "github.com/fekuna/omnipos-sales-service/internal/sale/usecase"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	grpchealth "google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

func main() {
	// 1. Load Configuration
	cfg, err := config.LoadEnv()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	// 2. Initialize Logger
	logConfig := &logger.ZapLoggerConfig{
		Encoding:          cfg.Logger.Encoding,
		Level:             cfg.Logger.Level,
		DisableCaller:     cfg.Logger.DisableCaller,
		DisableStacktrace: cfg.Logger.DisableStacktrace,
	}
	if cfg.Server.AppEnv == "dev" || cfg.Server.AppEnv == "development" {
		logConfig.IsDevelopment = true
	}
	appLogger := logger.NewZapLogger(logConfig)
	defer appLogger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Connect to Database
	db, err := database.NewPostgres(ctx, &database.PostgresConfig{
		DSN:             cfg.Postgres.DSN(),
		MaxOpenConns:    cfg.Postgres.MaxOpenConns,
		MaxIdleConns:    cfg.Postgres.MaxIdleConns,
		ConnMaxLifetime: time.Duration(cfg.Postgres.ConnMaxLifetime) * time.Second,
		ConnMaxIdleTime: time.Duration(cfg.Postgres.ConnMaxIdleTime) * time.Second,
	})
	if err != nil {
		appLogger.Fatal("Could not connect to database", zap.Error(err))
	}
	defer db.Close()
	appLogger.Info("Connected to PostgreSQL database", zap.String("db_name", cfg.Postgres.DBName))

	if err := database.Migrate(db); err != nil {
		appLogger.Fatal("Could not apply schema", zap.Error(err))
	}

	// 4. Initialize Repositories
	prodRepo := prodRepoPkg.NewPGRepository(db)
	invRepo := invRepoPkg.NewPGRepository(db)
	alertRepo := alertRepoPkg.NewPGRepository(db)
	saleRepo := saleRepoPkg.NewPGRepository(db)
	curRepo := curRepoPkg.NewPGRepository(db)
	units := uow.NewFactory(db)

	// 5. Rate cache
	var rateCache currency.RateCache = curCache.NewMemoryRateCache(cfg.Currency.CacheTTL)
	if cfg.Currency.Cache == "redis" {
		redisClient := curCache.NewRedisClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err := redisClient.Ping(ctx).Err(); err != nil {
			appLogger.Warn("Could not connect to Redis, using in-memory rate cache", zap.Error(err))
			redisClient.Close()
		} else {
			defer redisClient.Close()
			rateCache = curCache.NewRedisRateCache(redisClient, cfg.Currency.CacheTTL)
			appLogger.Info("Connected to Redis", zap.String("addr", cfg.Redis.Addr))
		}
	}

	// 6. Notifier
	hub := notifier.NewHub()
	defer hub.Close()
	publishers := notifier.Multi{hub}
	if cfg.Kafka.Enabled {
		writer := notifier.NewKafkaWriter(cfg.Kafka.Brokers, cfg.Kafka.StockTopic)
		kafkaPub := notifier.NewKafkaPublisher(writer, appLogger)
		defer kafkaPub.Close()
		publishers = append(publishers, kafkaPub)
		appLogger.Info("Publishing stock changes to Kafka",
			zap.Strings("brokers", cfg.Kafka.Brokers), zap.String("topic", cfg.Kafka.StockTopic))
	}

	// 7. Initialize UseCases
	generator := alert.NewGenerator()
	rateUC := curUCPkg.NewRateStore(curRepo, rateCache, appLogger)
	prodUC := prodUCPkg.NewProductUseCase(prodRepo, cfg.Sales.BaseCurrency, appLogger)
	invUC := invUCPkg.NewInventoryUseCase(invRepo, units, generator, publishers, appLogger)
	alertUC := alertUCPkg.NewAlertUseCase(alertRepo, appLogger)
	saleUC := saleUCPkg.NewSaleUseCase(units, prodRepo, saleRepo, rateUC, generator, publishers, saleUCPkg.Config{
		TaxRate:        cfg.Sales.TaxRate,
		BaseCurrency:   cfg.Sales.BaseCurrency,
		InvoicePrefix:  cfg.Sales.InvoicePrefix,
		InvoiceRetries: cfg.Sales.InvoiceRetries,
	}, appLogger)

	// 8. HTTP
	if !logConfig.IsDevelopment {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	limiter := middleware.NewRateLimiter(cfg.Server.RateLimitRPS, cfg.Server.RateLimitBurst)
	router.Use(
		middleware.RequestID(),
		middleware.Recovery(appLogger),
		middleware.RequestLogger(appLogger),
	)

	healthServer := grpchealth.NewServer()
	checker := health.NewChecker(db, healthServer, cfg.Server.HealthInterval, appLogger)
	router.GET("/health", checker.Handler())

	api := router.Group("/api/v1", limiter.Middleware(), middleware.Caller())
	prodH.NewProductHandler(prodUC, appLogger).Register(api)
	invH.NewInventoryHandler(invUC, appLogger).Register(api)
	alertH.NewAlertHandler(alertUC, appLogger).Register(api)
	saleH.NewSaleHandler(saleUC, appLogger).Register(api)
	curH.NewCurrencyHandler(rateUC, appLogger).Register(api)
	api.GET("/events/stock", notifier.StreamHandler(hub))

	httpServer := &http.Server{
		Addr:              normalizePort(cfg.Server.HTTPPort),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// 9. gRPC (health + reflection)
	grpcServer := grpc.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthServer)
	reflection.Register(grpcServer)

	lis, err := net.Listen("tcp", normalizePort(cfg.Server.GRPCPort))
	if err != nil {
		appLogger.Fatal("failed to listen", zap.Error(err))
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		appLogger.Info("Starting HTTP server", zap.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		appLogger.Info("Starting gRPC server", zap.String("addr", lis.Addr().String()))
		return grpcServer.Serve(lis)
	})

	g.Go(func() error {
		return checker.Run(gctx)
	})

	if cfg.Kafka.Enabled {
		reader := curListenerPkg.NewKafkaReader(cfg.Kafka.Brokers, cfg.Kafka.RateTopic, cfg.Kafka.GroupID)
		rateListener := curListenerPkg.NewRateListener(reader, rateUC, appLogger)
		g.Go(func() error {
			defer reader.Close()
			rateListener.Start(gctx)
			return nil
		})
	}

	// Graceful Shutdown
	g.Go(func() error {
		<-gctx.Done()
		appLogger.Info("Shutting down server...")

		// Ends open event streams so Shutdown does not wait on them.
		hub.Close()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		err := httpServer.Shutdown(shutdownCtx)
		grpcServer.GracefulStop()
		return err
	})

	if err := g.Wait(); err != nil {
		appLogger.Error("Server exited with error", zap.Error(err))
	}
	appLogger.Info("Server stopped")
}

func normalizePort(port string) string {
	if !strings.HasPrefix(port, ":") && !strings.Contains(port, ":") {
		return ":" + port
	}
	return port
}
