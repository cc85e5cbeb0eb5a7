package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Vandana-1812/tracechain-backend/internal/ledger"
)

type HealthHTTPHandler struct {
	ledger *ledger.Ledger
}

func NewHealthHTTPHandler(l *ledger.Ledger) *HealthHTTPHandler {
	return &HealthHTTPHandler{ledger: l}
}

// Root handles GET / with a service summary including store reachability.
func (h *HealthHTTPHandler) Root(c *gin.Context) {
	connected := h.ledger.Ping(c.Request.Context()) == nil

	status := "Disconnected"
	if connected {
		status = "Connected"
	}

	c.JSON(http.StatusOK, gin.H{
		"message":   "TraceChain Backend is running!",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"database": gin.H{
			"connected": connected,
			"status":    status,
		},
	})
}

// Message handles GET /api/message.
func (h *HealthHTTPHandler) Message(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message":   "Hello from TraceChain Backend!",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// Health handles GET /api/health.
func (h *HealthHTTPHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"message":   "TraceChain Backend API is running",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// DatabaseHealth handles GET /api/health/database with a store ping.
func (h *HealthHTTPHandler) DatabaseHealth(c *gin.Context) {
	start := time.Now()
	err := h.ledger.Ping(c.Request.Context())
	latency := time.Since(start)

	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"success":   false,
			"message":   "Database health check failed",
			"error":     err.Error(),
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"message":   "Database connection is healthy",
		"latencyMs": latency.Milliseconds(),
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
