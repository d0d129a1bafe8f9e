package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront/middlewares"
	"storefront/models"
	"storefront/services"
)

// ResolveSelection runs one variant-selector edit: toggle, resolve, quote.
func ResolveSelection(c *gin.Context) {
	user, ok := caller(c)
	if !ok {
		return
	}

	var request models.SelectionRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := svc.Selection.Select(c.Request.Context(), user, c.Param("id"), request)
	if err != nil {
		respondError(c, err)
		return
	}
	middlewares.RecordRecompute("selection")
	if result.Quote != nil {
		middlewares.RecordRecompute("quote")
	}
	c.JSON(http.StatusOK, result)
}

func ConvertDiscount(c *gin.Context) {
	var request models.DiscountRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	resp, err := services.ConvertDiscount(request)
	if err != nil {
		respondError(c, err)
		return
	}
	middlewares.RecordRecompute("discount")
	c.JSON(http.StatusOK, resp)
}

// EditPromoVariant is the promo-builder edit for one variant.
func EditPromoVariant(c *gin.Context) {
	user, ok := caller(c)
	if !ok {
		return
	}

	var edit models.PromoVariantEdit
	if err := c.ShouldBindJSON(&edit); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	p, err := svc.Promos.EditVariant(c.Request.Context(), user, c.Param("id"), c.Param("variantId"), edit)
	if err != nil {
		respondError(c, err)
		return
	}
	middlewares.RecordRecompute("discount")
	c.JSON(http.StatusOK, p)
}

func RefreshResellerTiers(c *gin.Context) {
	user, ok := caller(c)
	if !ok {
		return
	}

	tiers, err := svc.Catalog.RefreshTiers(c.Request.Context(), user, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"product_id": c.Param("id"), "reseller_tiers": tiers})
}
