package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// HealthCheck returns server status
func HealthCheck(service string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": service})
	}
}
