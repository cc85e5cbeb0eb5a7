package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Vandana-1812/tracechain-backend/internal/ledger"
)

type AnalyticsHTTPHandler struct {
	ledger *ledger.Ledger
}

func NewAnalyticsHTTPHandler(l *ledger.Ledger) *AnalyticsHTTPHandler {
	return &AnalyticsHTTPHandler{ledger: l}
}

// Dashboard handles GET /api/analytics/dashboard.
func (h *AnalyticsHTTPHandler) Dashboard(c *gin.Context) {
	analytics, err := h.ledger.AnalyticsDashboard(c.Request.Context())
	if err != nil {
		failFromError(c, err)
		return
	}

	success(c, http.StatusOK, analytics)
}

// SupplyChain handles GET /api/analytics/supply-chain.
func (h *AnalyticsHTTPHandler) SupplyChain(c *gin.Context) {
	analytics, err := h.ledger.AnalyticsSupplyChain(c.Request.Context())
	if err != nil {
		failFromError(c, err)
		return
	}

	success(c, http.StatusOK, analytics)
}
