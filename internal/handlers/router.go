package handlers

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// NewEngine returns a gin engine with recovery, request ids, access logging
// and the /health route.
func NewEngine(service string, logger *zap.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), RequestID(), AccessLog(logger))
	router.GET("/health", HealthCheck(service))
	return router
}
