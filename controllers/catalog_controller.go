package controllers

import (
	"github.com/gin-gonic/gin"
	"github.com/sareehouse/storefront-api/config"
	"github.com/sareehouse/storefront-api/services"
)

// ListStoreSections handles GET /api/v1/sections - active sections with their active categories
func ListStoreSections(c *gin.Context) {
	sections, err := services.NewCatalogService(config.GetDB()).ListSections(c.Request.Context(), true)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, sections)
}

// GetStoreCategory handles GET /api/v1/categories/:slug
func GetStoreCategory(c *gin.Context) {
	category, err := services.NewCatalogService(config.GetDB()).GetActiveCategoryBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, category)
}

// ListStoreProducts handles GET /api/v1/products with category, section, featured and q filters
func ListStoreProducts(c *gin.Context) {
	page, limit := pageParams(c)
	products, total, err := services.NewCatalogService(config.GetDB()).ListProducts(c.Request.Context(), services.ProductFilter{
		CategorySlug: c.Query("category"),
		SectionSlug:  c.Query("section"),
		Featured:     queryBool(c, "featured"),
		Query:        c.Query("q"),
		Page:         page,
		Limit:        limit,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respondPage(c, products, page, limit, total)
}

// GetStoreProduct handles GET /api/v1/products/:slug
func GetStoreProduct(c *gin.Context) {
	product, err := services.NewCatalogService(config.GetDB()).GetActiveProductBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, product)
}
