package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/fekuna/fabshop-inventory-service/config"
	"github.com/fekuna/fabshop-inventory-service/internal/auth"
	"github.com/fekuna/fabshop-inventory-service/internal/broker"
	"github.com/fekuna/fabshop-inventory-service/internal/cache"
	"github.com/fekuna/fabshop-inventory-service/internal/database"
	"github.com/fekuna/fabshop-inventory-service/internal/gateway"
	"github.com/fekuna/fabshop-inventory-service/internal/inventory/alert"
	"github.com/fekuna/fabshop-inventory-service/internal/logger"
	"github.com/fekuna/fabshop-inventory-service/internal/notification"
	"github.com/fekuna/fabshop-inventory-service/internal/rpc"
	"github.com/fekuna/fabshop-inventory-service/internal/search"

	bomH "github.com/fekuna/fabshop-inventory-service/internal/bom/handler"
	bomRepoPkg "github.com/fekuna/fabshop-inventory-service/internal/bom/repository"
	bomUCPkg "github.com/fekuna/fabshop-inventory-service/internal/bom/usecase"

	consH "github.com/fekuna/fabshop-inventory-service/internal/consumption/handler"
	consListenerPkg "github.com/fekuna/fabshop-inventory-service/internal/consumption/listener"
	consUCPkg "github.com/fekuna/fabshop-inventory-service/internal/consumption/usecase"

	invH "github.com/fekuna/fabshop-inventory-service/internal/inventory/handler"
	invRepoPkg "github.com/fekuna/fabshop-inventory-service/internal/inventory/repository"
	invUCPkg "github.com/fekuna/fabshop-inventory-service/internal/inventory/usecase"

	matH "github.com/fekuna/fabshop-inventory-service/internal/material/handler"
	matRepoPkg "github.com/fekuna/fabshop-inventory-service/internal/material/repository"
	matUCPkg "github.com/fekuna/fabshop-inventory-service/internal/material/usecase"

	orderRepoPkg "github.com/fekuna/fabshop-inventory-service/internal/order/repository"

	setH "github.com/fekuna/fabshop-inventory-service/internal/settings/handler"
	setRepoPkg "github.com/fekuna/fabshop-inventory-service/internal/settings/repository"
	setUCPkg "github.com/fekuna/fabshop-inventory-service/internal/settings/usecase"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

func main() {
	// 1. Load Configuration
	_ = godotenv.Load()
	cfg := config.LoadEnv()
	decimal.MarshalJSONWithoutQuotes = true

	// 2. Initialize Logger
	logConfig := &logger.ZapLoggerConfig{
		IsDevelopment:     false,
		Encoding:          cfg.Logger.Encoding,
		Level:             cfg.Logger.Level,
		DisableCaller:     cfg.Logger.DisableCaller,
		DisableStacktrace: cfg.Logger.DisableStacktrace,
	}
	if cfg.IsDevelopment() {
		logConfig.IsDevelopment = true
		logConfig.Encoding = "console"
		logConfig.Level = "debug"
	}

	appLogger := logger.NewZapLogger(logConfig)
	defer appLogger.Sync()

	// 3. Connect to Database
	db, err := database.NewPostgres(&database.Config{
		Host:            cfg.Postgres.Host,
		Port:            cfg.Postgres.Port,
		User:            cfg.Postgres.User,
		Password:        cfg.Postgres.Password,
		DBName:          cfg.Postgres.DBName,
		SSLMode:         cfg.Postgres.SSLMode,
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

	if cfg.Postgres.Migrate {
		if err := database.Migrate(context.Background(), db); err != nil {
			appLogger.Fatal("Could not apply schema", zap.Error(err))
		}
	}

	// 4. Initialize Repositories
	setRepo := setRepoPkg.NewPGRepository(db)
	matRepo := matRepoPkg.NewPGRepository(db)
	invRepo := invRepoPkg.NewPGRepository(db)
	bomRepo := bomRepoPkg.NewPGRepository(db)
	orderDir := orderRepoPkg.NewPGDirectory(db)

	// 5. Initialize Redis (settings cache + per-material lock)
	var (
		settingsCache setUCPkg.Cache
		locker        cache.Locker = cache.NewKeyedMutex()
	)
	if cfg.Redis.Enabled {
		redisClient, err := cache.NewRedisClient(&cache.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			appLogger.Warn("Could not connect to Redis, using in-process locks", zap.Error(err))
		} else {
			defer redisClient.Close()
			settingsCache = redisClient
			locker = redisClient
			appLogger.Info("Connected to Redis", zap.String("addr", cfg.Redis.Addr))
		}
	}

	// 6. Initialize Kafka
	var notifier notification.Port = notification.NewLogNotifier(appLogger)
	var consumer *broker.KafkaConsumer
	if cfg.Kafka.Enabled && len(cfg.Kafka.Brokers) > 0 {
		producer := broker.NewProducer(&broker.Config{
			Brokers: cfg.Kafka.Brokers,
			Topic:   cfg.Kafka.NotificationsTopic,
		}, func(err error) {
			appLogger.Error("Failed to deliver notification", zap.Error(err))
		})
		defer producer.Close()
		notifier = notification.NewKafkaNotifier(producer, appLogger)

		consumer = broker.NewConsumer(&broker.Config{
			Brokers: cfg.Kafka.Brokers,
			Topic:   cfg.Kafka.ConsumptionTopic,
			GroupID: cfg.Kafka.GroupID,
		})
		defer consumer.Close()
		appLogger.Info("Connected to Kafka",
			zap.Strings("brokers", cfg.Kafka.Brokers),
			zap.String("consumption_topic", cfg.Kafka.ConsumptionTopic),
			zap.String("notifications_topic", cfg.Kafka.NotificationsTopic),
		)
	}

	// 7. Initialize Elasticsearch
	var searcher matUCPkg.Searcher
	if cfg.Elastic.Enabled {
		esClient, err := search.NewClient(&search.Config{
			Addresses: cfg.Elastic.Addresses,
			Username:  cfg.Elastic.Username,
			Password:  cfg.Elastic.Password,
		})
		if err != nil {
			appLogger.Warn("Could not connect to Elasticsearch, search falls back to SQL", zap.Error(err))
		} else {
			searcher = esClient
			appLogger.Info("Connected to Elasticsearch", zap.Strings("addresses", cfg.Elastic.Addresses))
		}
	}

	// 8. Initialize UseCases
	setUC := setUCPkg.NewSettingsUseCase(setRepo, settingsCache, cfg.Server.TenantID, appLogger)
	matUC := matUCPkg.NewMaterialUseCase(matRepo, searcher, appLogger)
	invUC := invUCPkg.NewLedgerUseCase(invRepo, matRepo, setUC, alert.NewRuleEvaluator(appLogger), notifier, locker, matUC, appLogger)
	bomUC := bomUCPkg.NewBomUseCase(bomRepo, matRepo, orderDir, setUC, appLogger)
	consUC := consUCPkg.NewConsumptionUseCase(invUC, bomUC, matRepo, orderDir, setUC, appLogger)

	// 9. Initialize gRPC Server
	tokens := auth.NewTokenParser(cfg.JWT.SecretKey)
	grpcServer := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			rpc.LoggingInterceptor(appLogger),
			rpc.ErrorInterceptor(),
			auth.UnaryInterceptor(tokens, cfg.JWT.AuthRequired),
		),
	)

	setH.NewSettingsHandler(setUC, appLogger).Register(grpcServer)
	matH.NewMaterialHandler(matUC, appLogger).Register(grpcServer)
	invH.NewInventoryHandler(invUC, appLogger).Register(grpcServer)
	bomH.NewBomHandler(bomUC, appLogger).Register(grpcServer)
	consH.NewConsumptionHandler(consUC, appLogger).Register(grpcServer)

	healthServer := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthServer)
	reflection.Register(grpcServer)

	// 10. Initialize HTTP Gateway
	httpServer := &http.Server{
		Addr: normalizePort(cfg.Server.HTTPPort),
		Handler: gateway.NewRouter(gateway.Services{
			Settings:    setUC,
			Materials:   matUC,
			Ledger:      invUC,
			Boms:        bomUC,
			Consumption: consUC,
		}, gateway.Options{
			Tokens:         tokens,
			AuthRequired:   cfg.JWT.AuthRequired,
			AllowedOrigins: cfg.CORS.AllowedOrigins,
		}, appLogger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// 11. Run everything until a signal arrives
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	g, gctx := errgroup.WithContext(ctx)

	port := normalizePort(cfg.Server.GRPCPort)
	lis, err := net.Listen("tcp", port)
	if err != nil {
		appLogger.Fatal("failed to listen", zap.String("port", port), zap.Error(err))
	}

	g.Go(func() error {
		appLogger.Info("Starting gRPC server", zap.String("port", port))
		return grpcServer.Serve(lis)
	})
	g.Go(func() error {
		appLogger.Info("Starting HTTP gateway", zap.String("port", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	if consumer != nil {
		listener := consListenerPkg.NewConsumptionListener(consumer, consUC, appLogger)
		g.Go(func() error { return listener.Start(gctx) })
	}
	g.Go(func() error {
		<-gctx.Done()
		appLogger.Info("Shutting down server...")
		healthServer.Shutdown()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			appLogger.Error("HTTP gateway shutdown failed", zap.Error(err))
		}
		grpcServer.GracefulStop()
		return nil
	})

	if err := g.Wait(); err != nil {
		appLogger.Error("Server stopped with error", zap.Error(err))
		return
	}
	appLogger.Info("Server stopped")
}

func normalizePort(port string) string {
	if !strings.HasPrefix(port, ":") && !strings.Contains(port, ":") {
		return ":" + port
	}
	return port
}
