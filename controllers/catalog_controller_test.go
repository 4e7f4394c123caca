package controllers

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/sareehouse/storefront-api/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func storefrontRouter() *gin.Engine {
	router := setupTestRouter()
	router.GET("/sections", ListStoreSections)
	router.GET("/categories/:slug", GetStoreCategory)
	router.GET("/products", ListStoreProducts)
	router.GET("/products/:slug", GetStoreProduct)
	return router
}

func TestStorefrontCatalog(t *testing.T) {
	db := setupTestDB(t)
	shop := createShop(t, db)
	hidden := models.Product{
		CategoryID: shop.Category.ID, Name: "Draft Saree", Slug: "draft-saree",
		Price: decimal.NewFromInt(900), DiscountType: models.DiscountNone, Active: false,
	}
	require.NoError(t, db.Create(&hidden).Error)
	featured := models.Product{
		CategoryID: shop.Category.ID, Name: "Gold Zari Kanjivaram", Slug: "gold-zari-kanjivaram",
		Price: decimal.NewFromInt(12000), DiscountType: models.DiscountFixed, DiscountValue: decimal.NewFromInt(2000),
		Active: true, Featured: true,
	}
	require.NoError(t, db.Create(&featured).Error)
	router := storefrontRouter()

	t.Run("sections", func(t *testing.T) {
		w := performRequest(router, "GET", "/sections", nil, nil)
		require.Equal(t, http.StatusOK, w.Code)
		sections := decodeResponse(t, w)["data"].([]interface{})
		require.Len(t, sections, 1)
		assert.Len(t, sections[0].(map[string]interface{})["categories"], 1)
	})

	t.Run("category by slug", func(t *testing.T) {
		w := performRequest(router, "GET", "/categories/kanjivaram", nil, nil)
		assert.Equal(t, http.StatusOK, w.Code)
		w = performRequest(router, "GET", "/categories/nope", nil, nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("products hide inactive and list featured first", func(t *testing.T) {
		w := performRequest(router, "GET", "/products?category=kanjivaram", nil, nil)
		require.Equal(t, http.StatusOK, w.Code)
		products := decodeResponse(t, w)["data"].([]interface{})
		require.Len(t, products, 2)
		assert.Equal(t, "gold-zari-kanjivaram", products[0].(map[string]interface{})["slug"])

		w = performRequest(router, "GET", "/products?featured=true", nil, nil)
		assert.Len(t, decodeResponse(t, w)["data"], 1)

		w = performRequest(router, "GET", "/products?q=temple", nil, nil)
		assert.Len(t, decodeResponse(t, w)["data"], 1)
	})

	t.Run("product by slug", func(t *testing.T) {
		w := performRequest(router, "GET", "/products/temple-border-kanjivaram", nil, nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Len(t, dataOf(t, w)["colors"], 1)

		w = performRequest(router, "GET", "/products/draft-saree", nil, nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}
