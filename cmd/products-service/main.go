package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/prudhivi99/Distributed-Systems/catalog-inventory/internal/cache"
	"github.com/prudhivi99/Distributed-Systems/catalog-inventory/internal/catalog"
	"github.com/prudhivi99/Distributed-Systems/catalog-inventory/internal/config"
	"github.com/prudhivi99/Distributed-Systems/catalog-inventory/internal/db"
	"github.com/prudhivi99/Distributed-Systems/catalog-inventory/internal/discovery"
	"github.com/prudhivi99/Distributed-Systems/catalog-inventory/internal/handlers"
	"github.com/prudhivi99/Distributed-Systems/catalog-inventory/internal/messaging"
	"github.com/prudhivi99/Distributed-Systems/catalog-inventory/internal/observability"
	"github.com/prudhivi99/Distributed-Systems/catalog-inventory/internal/publisher"
	"github.com/prudhivi99/Distributed-Systems/catalog-inventory/internal/server"
)

func main() {
	cfg := config.LoadProducts()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	otelShutdown, err := observability.Setup(ctx, observability.Settings{
		ServiceName: cfg.ServiceName,
		Endpoint:    cfg.OtelEndpoint,
		AuthHeader:  cfg.OtelAuthHeader,
	})
	logger := observability.NewLogger(cfg.ServiceName, cfg.OtelEndpoint != "")
	defer logger.Sync()
	if err != nil {
		logger.Fatal("Failed to set up OpenTelemetry", zap.Error(err))
	}
	defer func() {
		if err := otelShutdown(context.Background()); err != nil {
			logger.Error("Failed to shut down OpenTelemetry", zap.Error(err))
		}
	}()

	repo, closeStore := openRepository(ctx, cfg, logger)
	defer closeStore()

	// Connect to RabbitMQ
	var rabbitMQ *messaging.RabbitMQ
	if cfg.EventsBackend == config.EventsBackendRabbitMQ {
		rabbitMQ, err = messaging.NewRabbitMQ(cfg.RabbitMQURL, logger)
		if err != nil {
			logger.Fatal("Failed to connect to RabbitMQ", zap.Error(err))
		}
		defer rabbitMQ.Close()
	}

	events, err := publisher.Open(cfg.EventsBackend, rabbitMQ, cfg.KafkaBrokers, cfg.ServiceName, logger,
		publisher.ProductDeletedTopic)
	if err != nil {
		logger.Fatal("Failed to create publisher", zap.Error(err))
	}
	defer events.Close()

	directory := catalog.NewDirectory(repo, events, logger)

	router := handlers.NewEngine(cfg.ServiceName, logger)
	handlers.NewProductHandler(directory).Register(router, cfg.APIKey)

	// Register with Consul
	if cfg.ConsulAddr != "" {
		consul, err := discovery.NewConsulClient(cfg.ConsulAddr, logger)
		if err != nil {
			logger.Fatal("Failed to connect to Consul", zap.Error(err))
		}
		port, err := server.PortOf(cfg.HTTPAddr)
		if err != nil {
			logger.Fatal("Invalid HTTP_ADDR", zap.Error(err))
		}
		err = consul.Register(discovery.ServiceConfig{
			Name: cfg.ServiceName,
			ID:   cfg.ServiceID,
			Port: port,
			Tags: []string{"api", "products"},
		})
		if err != nil {
			logger.Fatal("Failed to register service", zap.Error(err))
		}
		// Deregister on shutdown
		defer consul.Deregister(cfg.ServiceID)
	}

	srv := server.New(cfg.HTTPAddr, otelhttp.NewHandler(router, cfg.ServiceName))
	if err := server.Run(ctx, srv, cfg.ShutdownTimeout, logger); err != nil {
		logger.Error("Server stopped with error", zap.Error(err))
		os.Exit(1)
	}
}

func openRepository(ctx context.Context, cfg config.Products, logger *zap.Logger) (catalog.Repository, func()) {
	if cfg.StoreBackend == config.StoreBackendMemory {
		logger.Info("Using in-memory product store")
		return db.NewMemoryProductRepository(), func() {}
	}

	// Connect to PostgreSQL
	database, err := db.NewPostgresDB(ctx, cfg.DatabaseURL, logger)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	if err := db.Migrate(ctx, database.Conn, db.ProductsSchema); err != nil {
		logger.Fatal("Failed to migrate database", zap.Error(err))
	}

	productRepo := db.NewProductRepository(database.Conn)
	if cfg.RedisAddr == "" {
		return productRepo, func() { database.Close() }
	}

	// Connect to Redis
	redisCache, err := cache.NewRedisCache(ctx, cfg.RedisAddr, cfg.ServiceName+":", cfg.CacheTTL)
	if err != nil {
		logger.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	logger.Info("✅ Connected to Redis", zap.String("addr", cfg.RedisAddr))

	return db.NewCachedProductRepository(productRepo, redisCache, logger), func() {
		redisCache.Close()
		database.Close()
	}
}
