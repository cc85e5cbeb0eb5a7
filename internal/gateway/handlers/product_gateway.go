package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Vandana-1812/tracechain-backend/internal/ledger"
)

// ProductHTTPHandler exposes the product ledger over HTTP. It owns no
// business rules: it binds JSON, calls the ledger and maps error kinds to
// status codes.
type ProductHTTPHandler struct {
	ledger *ledger.Ledger
}

func NewProductHTTPHandler(l *ledger.Ledger) *ProductHTTPHandler {
	return &ProductHTTPHandler{ledger: l}
}

// Helper functions
func success(c *gin.Context, code int, data interface{}) {
	c.JSON(code, gin.H{
		"success": true,
		"data":    data,
	})
}

func fail(c *gin.Context, code int, message string) {
	c.JSON(code, gin.H{
		"success": false,
		"error":   message,
	})
}

// statusFromError maps ledger error kinds to HTTP status codes. Unknown
// errors are treated as internal.
func statusFromError(err error) int {
	switch {
	case ledger.IsValidation(err):
		return http.StatusBadRequest
	case ledger.IsNotFound(err):
		return http.StatusNotFound
	case ledger.IsConflict(err):
		return http.StatusConflict
	case ledger.IsTimeout(err):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func failFromError(c *gin.Context, err error) {
	fail(c, statusFromError(err), err.Error())
}

func parseIntQuery(c *gin.Context, param string, fallback int) int {
	str := c.Query(param)
	if str == "" {
		return fallback
	}
	val, err := strconv.Atoi(str)
	if err != nil {
		return fallback
	}
	return val
}

// RegisterProduct handles POST /api/products/register.
func (h *ProductHTTPHandler) RegisterProduct(c *gin.Context) {
	var input ledger.RegisterInput
	if err := c.ShouldBindJSON(&input); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	product, err := h.ledger.Register(c.Request.Context(), input)
	if err != nil {
		failFromError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "Product registered successfully",
		"data": gin.H{
			"productId":        product.ProductID,
			"productName":      product.ProductName,
			"manufacturer":     product.Manufacturer,
			"category":         product.Category,
			"qrCode":           product.QRCode,
			"registrationTime": product.RegistrationTime,
			"scanUrl":          h.ledger.ScanURL(product.ProductID),
			"status":           product.Status,
		},
	})
}

// GetProduct handles GET /api/products/:productId.
func (h *ProductHTTPHandler) GetProduct(c *gin.Context) {
	product, err := h.ledger.Get(c.Request.Context(), c.Param("productId"))
	if err != nil {
		failFromError(c, err)
		return
	}

	success(c, http.StatusOK, product)
}

// UpdateProduct handles PUT /api/products/:productId/update and
// PATCH /api/products/:productId. Appends one supply-chain event and
// optionally moves the status.
func (h *ProductHTTPHandler) UpdateProduct(c *gin.Context) {
	var input ledger.AppendEventInput
	if err := c.ShouldBindJSON(&input); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	product, err := h.ledger.AppendEvent(c.Request.Context(), c.Param("productId"), input)
	if err != nil {
		failFromError(c, err)
		return
	}

	newEvent := product.SupplyChainHistory[len(product.SupplyChainHistory)-1]

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Product updated successfully",
		"data": gin.H{
			"productId":       product.ProductID,
			"currentLocation": product.CurrentLocation,
			"status":          product.Status,
			"lastUpdated":     product.LastUpdated,
			"newEvent":        newEvent,
		},
	})
}

// ListProducts handles GET /api/products with optional manufacturer, status,
// category, limit and page query parameters.
func (h *ProductHTTPHandler) ListProducts(c *gin.Context) {
	filter := ledger.ListFilter{
		Manufacturer: c.Query("manufacturer"),
		Status:       c.Query("status"),
		Category:     c.Query("category"),
	}
	limit := parseIntQuery(c, "limit", 50)
	page := parseIntQuery(c, "page", 1)

	products, total, err := h.ledger.List(c.Request.Context(), filter, page, limit)
	if err != nil {
		failFromError(c, err)
		return
	}

	if limit <= 0 {
		limit = 50
	}
	totalPages := (total + int64(limit) - 1) / int64(limit)

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"count":      len(products),
		"totalCount": total,
		"page":       page,
		"totalPages": totalPages,
		"data":       products,
	})
}
