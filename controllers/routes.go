package controllers

import "github.com/gin-gonic/gin"

// RegisterRoutes mounts the authenticated storefront API on api.
func RegisterRoutes(api *gin.RouterGroup) {
	api.POST("/products/:id/selection", ResolveSelection)
	api.POST("/products/:id/tiers/refresh", RefreshResellerTiers)
	api.POST("/pricing/discount", ConvertDiscount)
	api.PUT("/promos/:id/variants/:variantId", EditPromoVariant)

	api.POST("/orders/preview", PreviewOrder)
	api.POST("/orders", CreateOrder)
	api.GET("/orders", GetUserOrders)
	api.GET("/orders/:id", GetOrderDetails)
	api.PUT("/orders/:id", UpdateOrder)
	api.PUT("/orders/:id/status", UpdateOrderStatus)
}
