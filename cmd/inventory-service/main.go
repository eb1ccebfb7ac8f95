package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/prudhivi99/Distributed-Systems/catalog-inventory/internal/client"
	"github.com/prudhivi99/Distributed-Systems/catalog-inventory/internal/config"
	"github.com/prudhivi99/Distributed-Systems/catalog-inventory/internal/consumer"
	"github.com/prudhivi99/Distributed-Systems/catalog-inventory/internal/db"
	"github.com/prudhivi99/Distributed-Systems/catalog-inventory/internal/discovery"
	"github.com/prudhivi99/Distributed-Systems/catalog-inventory/internal/handlers"
	"github.com/prudhivi99/Distributed-Systems/catalog-inventory/internal/inventory"
	"github.com/prudhivi99/Distributed-Systems/catalog-inventory/internal/messaging"
	"github.com/prudhivi99/Distributed-Systems/catalog-inventory/internal/observability"
	"github.com/prudhivi99/Distributed-Systems/catalog-inventory/internal/publisher"
	"github.com/prudhivi99/Distributed-Systems/catalog-inventory/internal/server"
)

func main() {
	cfg := config.LoadInventory()

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

	store, closeStore := openStore(ctx, cfg, logger)
	defer closeStore()

	// Connect to Consul
	var consul *discovery.ConsulClient
	if cfg.ConsulAddr != "" {
		consul, err = discovery.NewConsulClient(cfg.ConsulAddr, logger)
		if err != nil {
			logger.Fatal("Failed to connect to Consul", zap.Error(err))
		}
	}

	// Create Products Service client (HTTP)
	productClient := client.NewProductClient(
		consul.Resolver(cfg.ProductsServiceName, cfg.ProductsBaseURL),
		cfg.ProductsAPIKey,
		client.RetryPolicy{
			MaxAttempts: cfg.HTTPMaxRetries,
			Wait:        cfg.HTTPRetryWait,
			Timeout:     cfg.HTTPTimeout,
		},
		logger,
	)

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
		publisher.InventoryChangedTopic)
	if err != nil {
		logger.Fatal("Failed to create publisher", zap.Error(err))
	}
	defer events.Close()

	ledger := inventory.NewLedger(store, productClient, events, logger)

	// Start event consumer
	startProductDeletedConsumer(ctx, cfg, rabbitMQ, ledger, logger)

	if cfg.ReconcileInterval > 0 {
		go inventory.NewReconciler(store, productClient, cfg.ReconcileInterval, logger).Run(ctx)
	}

	router := handlers.NewEngine(cfg.ServiceName, logger)
	handlers.NewInventoryHandler(ledger).Register(router, cfg.APIKey)

	// Register with Consul
	if consul != nil {
		port, err := server.PortOf(cfg.HTTPAddr)
		if err != nil {
			logger.Fatal("Invalid HTTP_ADDR", zap.Error(err))
		}
		err = consul.Register(discovery.ServiceConfig{
			Name: cfg.ServiceName,
			ID:   cfg.ServiceID,
			Port: port,
			Tags: []string{"api", "inventory"},
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

func openStore(ctx context.Context, cfg config.Inventory, logger *zap.Logger) (inventory.Store, func()) {
	if cfg.StoreBackend == config.StoreBackendMemory {
		logger.Info("Using in-memory inventory store")
		return db.NewMemoryInventoryStore(), func() {}
	}

	// Connect to PostgreSQL
	database, err := db.NewPostgresDB(ctx, cfg.DatabaseURL, logger)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	if err := db.Migrate(ctx, database.Conn, db.InventorySchema); err != nil {
		logger.Fatal("Failed to migrate database", zap.Error(err))
	}
	return db.NewInventoryRepository(database.Conn), func() { database.Close() }
}

func startProductDeletedConsumer(ctx context.Context, cfg config.Inventory, mq *messaging.RabbitMQ, ledger *inventory.Ledger, logger *zap.Logger) {
	productDeleted := consumer.NewProductDeletedConsumer(ledger, logger)

	switch cfg.EventsBackend {
	case config.EventsBackendRabbitMQ:
		if err := mq.DeclareQueue(publisher.ProductDeletedTopic); err != nil {
			logger.Fatal("Failed to declare queue", zap.Error(err))
		}
		messages, err := mq.Consume(publisher.ProductDeletedTopic)
		if err != nil {
			logger.Fatal("Failed to consume messages", zap.Error(err))
		}
		go productDeleted.ProcessDeliveries(ctx, messages)

	case config.EventsBackendKafka:
		reader, err := messaging.NewKafkaReader(cfg.KafkaBrokers, publisher.ProductDeletedTopic, cfg.ServiceName, logger)
		if err != nil {
			logger.Fatal("Failed to create Kafka reader", zap.Error(err))
		}
		go func() {
			defer reader.Close()
			productDeleted.ProcessStream(ctx, reader)
		}()
	}
}
