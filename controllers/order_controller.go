package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"storefront/logger"
	"storefront/middlewares"
	"storefront/models"
)

func PreviewOrder(c *gin.Context) {
	defer func() {
		middlewares.RecordOrderOperation("preview", succeeded(c))
	}()
	user, ok := caller(c)
	if !ok {
		return
	}

	var draft models.OrderDraft
	if err := c.ShouldBindJSON(&draft); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	order, err := svc.Orders.Preview(c.Request.Context(), user, draft)
	if err != nil {
		respondError(c, err)
		return
	}
	middlewares.RecordRecompute("ledger")
	c.JSON(http.StatusOK, order)
}

func CreateOrder(c *gin.Context) {
	defer func() {
		middlewares.RecordOrderOperation("create", succeeded(c))
	}()
	user, ok := caller(c)
	if !ok {
		return
	}

	var draft models.OrderDraft
	if err := c.ShouldBindJSON(&draft); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	order, err := svc.Orders.Create(c.Request.Context(), user, draft)
	if err != nil {
		respondError(c, err)
		return
	}
	middlewares.RecordRecompute("ledger")
	c.JSON(http.StatusCreated, order)
}

func GetUserOrders(c *gin.Context) {
	defer func() {
		middlewares.RecordOrderOperation("list", succeeded(c))
	}()
	user, ok := caller(c)
	if !ok {
		return
	}

	orders, err := svc.Orders.List(c.Request.Context(), user)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, orders)
}

func GetOrderDetails(c *gin.Context) {
	defer func() {
		middlewares.RecordOrderOperation("details", succeeded(c))
	}()
	user, ok := caller(c)
	if !ok {
		return
	}
	id, ok := orderID(c)
	if !ok {
		return
	}

	order, err := svc.Orders.Get(c.Request.Context(), user, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

// UpdateOrder applies line-item edits from the admin edit screen.
func UpdateOrder(c *gin.Context) {
	defer func() {
		middlewares.RecordOrderOperation("update", succeeded(c))
	}()
	user, ok := caller(c)
	if !ok {
		return
	}
	id, ok := orderID(c)
	if !ok {
		return
	}

	var request models.OrderEditRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	order, err := svc.Orders.Update(c.Request.Context(), user, id, request)
	if err != nil {
		respondError(c, err)
		return
	}
	middlewares.RecordRecompute("ledger")
	c.JSON(http.StatusOK, order)
}

func UpdateOrderStatus(c *gin.Context) {
	defer func() {
		middlewares.RecordOrderOperation("update_status", succeeded(c))
	}()
	user, ok := caller(c)
	if !ok {
		return
	}
	id, ok := orderID(c)
	if !ok {
		return
	}

	var request models.OrderStatusRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if _, err := svc.Orders.UpdateStatus(c.Request.Context(), user, id, request.Status); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Order status updated", "order_id": id})
}

// HandleDeadLetter records an order event that could not be processed.
func HandleDeadLetter(c *gin.Context) {
	defer func() {
		middlewares.RecordOrderOperation("dead_letter", succeeded(c))
	}()

	var deadLetter struct {
		OrderID int64  `json:"order_id" binding:"required"`
		Reason  string `json:"reason"`
	}
	if err := c.ShouldBindJSON(&deadLetter); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	logger.FromContext(c.Request.Context()).Warn("Handling dead letter",
		zap.Int64("order_id", deadLetter.OrderID), zap.String("reason", deadLetter.Reason))
	c.JSON(http.StatusOK, gin.H{"message": "Dead letter processed"})
}
