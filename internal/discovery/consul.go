package discovery

import (
	"context"
	"fmt"
	"net"

	"github.com/hashicorp/consul/api"
	"go.uber.org/zap"
)

type ConsulClient struct {
	client *api.Client
	logger *zap.Logger
}

type ServiceConfig struct {
	Name string
	ID   string
	Port int
	Tags []string
}

func NewConsulClient(addr string, logger *zap.Logger) (*ConsulClient, error) {
	config := api.DefaultConfig()
	config.Address = addr

	client, err := api.NewClient(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create Consul client: %w", err)
	}

	// Test connection
	_, err = client.Agent().Self()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Consul: %w", err)
	}

	logger.Info("✅ Connected to Consul", zap.String("addr", addr))

	return &ConsulClient{client: client, logger: logger}, nil
}

// getOutboundIP gets the preferred outbound IP of this machine
func getOutboundIP() string {
	conn, err := net.Dial("udp", "8.8.8.8:80")
	if err != nil {
		return "127.0.0.1"
	}
	defer conn.Close()

	localAddr := conn.LocalAddr().(*net.UDPAddr)
	return localAddr.IP.String()
}

// Register registers a service with Consul, health-checked through its /health endpoint
func (c *ConsulClient) Register(cfg ServiceConfig) error {
	hostIP := getOutboundIP()

	registration := &api.AgentServiceRegistration{
		ID:      cfg.ID,
		Name:    cfg.Name,
		Port:    cfg.Port,
		Address: hostIP,
		Tags:    cfg.Tags,
		Check: &api.AgentServiceCheck{
			HTTP:                           fmt.Sprintf("http://%s:%d/health", hostIP, cfg.Port),
			Interval:                       "10s",
			Timeout:                        "5s",
			DeregisterCriticalServiceAfter: "30s",
		},
	}

	if err := c.client.Agent().ServiceRegister(registration); err != nil {
		return fmt.Errorf("failed to register service: %w", err)
	}

	c.logger.Info("✅ Registered service",
		zap.String("name", cfg.Name),
		zap.String("id", cfg.ID),
		zap.String("address", fmt.Sprintf("%s:%d", hostIP, cfg.Port)),
	)
	return nil
}

// Deregister removes a service from Consul
func (c *ConsulClient) Deregister(serviceID string) error {
	if err := c.client.Agent().ServiceDeregister(serviceID); err != nil {
		return fmt.Errorf("failed to deregister service: %w", err)
	}

	c.logger.Info("✅ Deregistered service", zap.String("id", serviceID))
	return nil
}

// GetServiceURL returns the base URL of the first healthy instance of a service
func (c *ConsulClient) GetServiceURL(ctx context.Context, serviceName string) (string, error) {
	opts := (&api.QueryOptions{}).WithContext(ctx)
	services, _, err := c.client.Health().Service(serviceName, "", true, opts)
	if err != nil {
		return "", fmt.Errorf("failed to get service: %w", err)
	}

	if len(services) == 0 {
		return "", fmt.Errorf("no healthy instances of %s found", serviceName)
	}

	service := services[0].Service
	address := service.Address
	if address == "" {
		address = "localhost"
	}

	return fmt.Sprintf("http://%s:%d", address, service.Port), nil
}

// Resolver returns a lookup that asks Consul for serviceName on every call and
// falls back to the fixed URL when Consul is absent or has no healthy instance.
func (c *ConsulClient) Resolver(serviceName, fallback string) func(context.Context) string {
	return func(ctx context.Context) string {
		if c == nil {
			return fallback
		}
		url, err := c.GetServiceURL(ctx, serviceName)
		if err != nil {
			c.logger.Debug("⚠️ Using fallback URL", zap.String("service", serviceName), zap.Error(err))
			return fallback
		}
		return url
	}
}
