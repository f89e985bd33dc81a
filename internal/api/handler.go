package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"pedidos-service/internal/models"
	"pedidos-service/internal/service"
	"pedidos-service/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handler contains HTTP handlers
type Handler struct {
	orderService    *service.OrderService
	shortageService *service.ShortageService
}

// NewHandler creates a new HTTP handler
func NewHandler(orderService *service.OrderService, shortageService *service.ShortageService) *Handler {
	return &Handler{
		orderService:    orderService,
		shortageService: shortageService,
	}
}

// SetupRoutes sets up HTTP routes
func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.Use(gin.Recovery())
	router.Use(prometheusMiddleware())
	router.Use(gin.Logger())

	router.GET("/health", h.healthCheck)
	router.GET("/ready", h.readinessCheck)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	{
		v1.POST("/orders", h.placeOrder)
		v1.POST("/orders/preview", h.previewOrder)
		v1.GET("/orders", h.listOrders)
		v1.GET("/orders/:id", h.getOrder)
		v1.PATCH("/orders/:id/status", h.changeOrderStatus)
		v1.DELETE("/orders/:id", h.cancelOrder)
		v1.DELETE("/orders/:id/items/:itemID", h.removeOrderItem)

		v1.GET("/suppliers", h.listSuppliers)

		v1.POST("/shortages", h.addShortage)
		v1.POST("/shortages/import", h.importShortages)
		v1.GET("/shortages", h.listShortages)
		v1.DELETE("/shortages/:id", h.deleteShortage)
	}
}

// healthCheck handles health check requests
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().Unix(),
	})
}

// readinessCheck handles readiness check requests
func (h *Handler) readinessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"time":   time.Now().Unix(),
	})
}

// placeOrder handles order creation from pasted text
func (h *Handler) placeOrder(c *gin.Context) {
	var req service.PlaceOrderRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	if req.IdempotencyKey == "" {
		req.IdempotencyKey = c.GetHeader("Idempotency-Key")
	}

	resp, err := h.orderService.PlaceOrder(c.Request.Context(), &req)
	if err != nil {
		h.renderError(c, "Failed to place order", err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// previewOrder parses text and reports duplicates without saving
func (h *Handler) previewOrder(c *gin.Context) {
	var req struct {
		Text string `json:"text" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	resp, err := h.orderService.PreviewOrder(c.Request.Context(), req.Text)
	if err != nil {
		h.renderError(c, "Failed to process order text", err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// listOrders handles order listing, optionally filtered by ?status=
func (h *Handler) listOrders(c *gin.Context) {
	orders, err := h.orderService.ListOrders(c.Request.Context(), c.Query("status"))
	if err != nil {
		h.renderError(c, "Failed to list orders", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"orders": orders})
}

// getOrder handles get order by ID
func (h *Handler) getOrder(c *gin.Context) {
	order, err := h.orderService.GetOrder(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "Order not found",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"order":             order,
		"total":             order.Total(),
		"estimated_arrival": order.EstimatedArrival(),
	})
}

// changeOrderStatus moves an order between transito and completado
func (h *Handler) changeOrderStatus(c *gin.Context) {
	var req struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	order, err := h.orderService.ChangeStatus(c.Request.Context(), c.Param("id"), req.Status)
	if err != nil {
		h.renderError(c, "Failed to update order status", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"order": order})
}

// cancelOrder deletes an order; the shortage reversal runs asynchronously
func (h *Handler) cancelOrder(c *gin.Context) {
	if err := h.orderService.CancelOrder(c.Request.Context(), c.Param("id")); err != nil {
		h.renderError(c, "Failed to cancel order", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "cancelled"})
}

// removeOrderItem deletes one item from an order
func (h *Handler) removeOrderItem(c *gin.Context) {
	err := h.orderService.RemoveItem(c.Request.Context(), c.Param("id"), c.Param("itemID"))
	if err != nil {
		h.renderError(c, "Failed to remove order item", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "removed"})
}

// listSuppliers returns the supplier catalog
func (h *Handler) listSuppliers(c *gin.Context) {
	catalog := models.DefaultSuppliers()
	c.JSON(http.StatusOK, gin.H{
		"catalog":       catalog,
		"display_names": catalog.DisplayNames(),
	})
}

// addShortage registers a single shortage record
func (h *Handler) addShortage(c *gin.Context) {
	var req service.AddShortageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	record, err := h.shortageService.AddShortage(c.Request.Context(), &req)
	if err != nil {
		h.renderError(c, "Failed to add shortage", err)
		return
	}

	c.JSON(http.StatusCreated, record)
}

// importShortages bulk-registers shortages from pasted text
func (h *Handler) importShortages(c *gin.Context) {
	var req struct {
		Text     string `json:"text" binding:"required"`
		Supplier string `json:"supplier" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	resp, err := h.shortageService.ImportShortages(c.Request.Context(), req.Text, req.Supplier)
	if err != nil {
		h.renderError(c, "Failed to import shortages", err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// listShortages returns either the per-supplier summary of outstanding
// shortages (default) or the resolved history with ?resolved=true
func (h *Handler) listShortages(c *gin.Context) {
	resolved, _ := strconv.ParseBool(c.DefaultQuery("resolved", "false"))

	if resolved {
		records, err := h.shortageService.ListShortages(c.Request.Context(), true)
		if err != nil {
			h.renderError(c, "Failed to list shortages", err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"shortages": records})
		return
	}

	summary, err := h.shortageService.Summary(c.Request.Context())
	if err != nil {
		h.renderError(c, "Failed to load shortage summary", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"suppliers": summary})
}

// deleteShortage removes a shortage record
func (h *Handler) deleteShortage(c *gin.Context) {
	if err := h.shortageService.DeleteShortage(c.Request.Context(), c.Param("id")); err != nil {
		h.renderError(c, "Failed to delete shortage", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

// renderError maps service failures to HTTP statuses: parse failures and
// validation failures are user errors, everything else is a store/broker
// fault.
func (h *Handler) renderError(c *gin.Context, msg string, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, service.ErrNoLinesParsed):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, service.ErrValidation):
		status = http.StatusBadRequest
	}

	c.JSON(status, gin.H{
		"error":   msg,
		"details": err.Error(),
	})
}

// prometheusMiddleware collects HTTP metrics
func prometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())

		util.HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Observe(duration)

		util.HTTPRequestsTotal.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Inc()
	}
}
