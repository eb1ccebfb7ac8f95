package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/prudhivi99/Distributed-Systems/catalog-inventory/internal/config"
	"github.com/prudhivi99/Distributed-Systems/catalog-inventory/internal/discovery"
	"github.com/prudhivi99/Distributed-Systems/catalog-inventory/internal/gateway"
	"github.com/prudhivi99/Distributed-Systems/catalog-inventory/internal/handlers"
	"github.com/prudhivi99/Distributed-Systems/catalog-inventory/internal/observability"
	"github.com/prudhivi99/Distributed-Systems/catalog-inventory/internal/server"
)

const (
	productsService  = "products-service"
	inventoryService = "inventory-service"
)

func main() {
	cfg := config.LoadGateway()

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
	defer otelShutdown(context.Background())

	var resolver gateway.Resolver
	if cfg.ConsulAddr != "" {
		consul, err := discovery.NewConsulClient(cfg.ConsulAddr, logger)
		if err != nil {
			logger.Warn("⚠️ Failed to connect to Consul, using fallback URLs", zap.Error(err))
		} else {
			resolver = consul
		}
	}

	gw := gateway.New(ctx, resolver, logger,
		gateway.Upstream{Name: productsService, Fallback: cfg.ProductsFallbackURL},
		gateway.Upstream{Name: inventoryService, Fallback: cfg.InventoryFallbackURL},
	)
	if resolver != nil {
		go gw.Watch(ctx, 10*time.Second)
	}

	router := handlers.NewEngine(cfg.ServiceName, logger)
	router.Use(gateway.NewRateLimiter(cfg.RateLimit, cfg.RateBurst, 3*time.Minute).Middleware())

	router.GET("/services", gw.ListServices)
	router.GET("/health/upstreams", gw.HealthCheck)

	router.Any("/products", gw.Proxy(productsService))
	router.Any("/products/*path", gw.Proxy(productsService))
	router.Any("/inventory", gw.Proxy(inventoryService))
	router.Any("/inventory/*path", gw.Proxy(inventoryService))
	router.Any("/internal/*path", gateway.NotFound)

	srv := server.New(cfg.HTTPAddr, otelhttp.NewHandler(router, cfg.ServiceName))
	if err := server.Run(ctx, srv, cfg.ShutdownTimeout, logger); err != nil {
		logger.Error("Server stopped with error", zap.Error(err))
		os.Exit(1)
	}
}
