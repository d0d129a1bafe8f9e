package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"storefront/logger"
	"storefront/middlewares"
	"storefront/quote"
	"storefront/services"
)

// Services bundles what the handlers call into.
type Services struct {
	Selection *services.SelectionService
	Orders    *services.OrderService
	Promos    *services.PromoService
	Catalog   *services.CatalogService
}

var svc Services

func SetServices(s Services) {
	svc = s
}

// caller reads the authenticated user set by AuthMiddleware. It writes the
// 401 response itself when there is none.
func caller(c *gin.Context) (services.Caller, bool) {
	userID, exists := c.Get(middlewares.ContextUserID)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return services.Caller{}, false
	}
	id, _ := userID.(int)
	return services.Caller{UserID: id, Role: c.GetString(middlewares.ContextRole)}, true
}

func orderID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid order ID"})
		return 0, false
	}
	return id, true
}

func succeeded(c *gin.Context) bool {
	return c.Writer.Status() >= 200 && c.Writer.Status() < 300
}

// respondError maps service errors onto HTTP statuses.
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, services.ErrVersionConflict):
		status = http.StatusConflict
	case services.IsNotFound(err):
		status = http.StatusNotFound
	case errors.Is(err, services.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, services.ErrQuantityUnavailable):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, services.ErrEmptyOrder),
		errors.Is(err, services.ErrUnknownCurrency),
		errors.Is(err, services.ErrUnknownEdit):
		status = http.StatusBadRequest
	}

	if status == http.StatusInternalServerError {
		log := logger.FromContext(c.Request.Context())
		if errors.Is(err, quote.ErrPrecedenceRequired) {
			log.Error("Pricing policy is missing a precedence", zap.Error(err))
		} else {
			log.Error("Request failed", zap.String("path", c.FullPath()), zap.Error(err))
		}
		c.JSON(status, gin.H{"error": "Internal server error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
