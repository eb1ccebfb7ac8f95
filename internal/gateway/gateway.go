// Package gateway routes public traffic to the products and inventory services.
package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httputil"
	"net/url"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/prudhivi99/Distributed-Systems/catalog-inventory/internal/models"
)

// Resolver finds the base URL of a healthy service instance, e.g. discovery.ConsulClient.
type Resolver interface {
	GetServiceURL(ctx context.Context, serviceName string) (string, error)
}

// Upstream is a routed service and the URL used when discovery has no answer.
type Upstream struct {
	Name     string
	Fallback string
}

type Gateway struct {
	resolver  Resolver
	upstreams []Upstream
	proxies   map[string]*httputil.ReverseProxy
	services  map[string]string
	mutex     sync.RWMutex
	client    *http.Client
	logger    *zap.Logger
}

// New builds a gateway and resolves every upstream once. resolver may be nil.
func New(ctx context.Context, resolver Resolver, logger *zap.Logger, upstreams ...Upstream) *Gateway {
	g := &Gateway{
		resolver:  resolver,
		upstreams: upstreams,
		proxies:   make(map[string]*httputil.ReverseProxy),
		services:  make(map[string]string),
		client:    &http.Client{Timeout: 2 * time.Second},
		logger:    logger,
	}
	g.Discover(ctx)
	return g
}

// Discover refreshes every upstream route.
func (g *Gateway) Discover(ctx context.Context) {
	for _, up := range g.upstreams {
		serviceURL := up.Fallback
		if g.resolver != nil {
			resolved, err := g.resolver.GetServiceURL(ctx, up.Name)
			if err != nil {
				g.logger.Warn("⚠️ Service not found, using fallback",
					zap.String("service", up.Name),
					zap.String("fallback", up.Fallback),
					zap.Error(err),
				)
			} else {
				serviceURL = resolved
			}
		}
		g.updateProxy(up.Name, serviceURL)
	}
}

// Watch rediscovers upstreams every interval until ctx is done.
func (g *Gateway) Watch(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			g.Discover(ctx)
		}
	}
}

func (g *Gateway) updateProxy(serviceName, serviceURL string) {
	g.mutex.Lock()
	defer g.mutex.Unlock()

	if g.services[serviceName] == serviceURL {
		return
	}

	target, err := url.Parse(serviceURL)
	if err != nil {
		g.logger.Error("❌ Invalid URL", zap.String("service", serviceName), zap.Error(err))
		return
	}

	proxy := httputil.NewSingleHostReverseProxy(target)
	proxy.ErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
		g.logger.Error("❌ Proxy error", zap.String("service", serviceName), zap.Error(err))
		writeError(w, http.StatusBadGateway, serviceName+" unavailable")
	}

	g.proxies[serviceName] = proxy
	g.services[serviceName] = serviceURL
	g.logger.Info("✅ Updated route", zap.String("service", serviceName), zap.String("url", serviceURL))
}

func (g *Gateway) getProxy(serviceName string) *httputil.ReverseProxy {
	g.mutex.RLock()
	defer g.mutex.RUnlock()
	return g.proxies[serviceName]
}

// Proxy forwards the request to serviceName.
func (g *Gateway) Proxy(serviceName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		proxy := g.getProxy(serviceName)
		if proxy == nil {
			writeError(c.Writer, http.StatusServiceUnavailable, serviceName+" unavailable")
			c.Abort()
			return
		}
		g.logger.Debug("🔀 Routing",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.String("service", serviceName),
		)
		proxy.ServeHTTP(c.Writer, c.Request)
	}
}

// NotFound hides routes the gateway never exposes, such as /internal.
func NotFound(c *gin.Context) {
	writeError(c.Writer, http.StatusNotFound, "Not found")
	c.Abort()
}

func (g *Gateway) HealthCheck(c *gin.Context) {
	g.mutex.RLock()
	services := make(map[string]string, len(g.services))
	for name, u := range g.services {
		services[name] = u
	}
	g.mutex.RUnlock()

	statuses := make(map[string]string)
	allHealthy := true

	for name, u := range services {
		req, err := http.NewRequestWithContext(c.Request.Context(), http.MethodGet, u+"/health", nil)
		var resp *http.Response
		if err == nil {
			resp, err = g.client.Do(req)
		}
		if err != nil || resp.StatusCode != http.StatusOK {
			statuses[name] = "unhealthy"
			allHealthy = false
		} else {
			statuses[name] = "healthy"
		}
		if resp != nil {
			resp.Body.Close()
		}
	}

	status := "healthy"
	if !allHealthy {
		status = "degraded"
	}

	c.JSON(http.StatusOK, gin.H{
		"status":   status,
		"service":  "api-gateway",
		"services": statuses,
	})
}

func (g *Gateway) ListServices(c *gin.Context) {
	g.mutex.RLock()
	defer g.mutex.RUnlock()
	c.JSON(http.StatusOK, gin.H{"services": g.services})
}

func writeError(w http.ResponseWriter, status int, detail string) {
	w.Header().Set("Content-Type", models.ContentType)
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(models.NewErrorDocument(status, detail))
}
