package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sareehouse/storefront-api/config"
	"github.com/sareehouse/storefront-api/middleware"
	"github.com/sareehouse/storefront-api/services"
)

// AddCartItemRequest is the body of POST /cart
type AddCartItemRequest struct {
	ProductID      uint  `json:"product_id" binding:"required"`
	ProductColorID *uint `json:"product_color_id"`
	Quantity       int   `json:"quantity" binding:"required"`
}

// UpdateCartItemRequest is the body of PATCH /cart/:itemId
type UpdateCartItemRequest struct {
	Quantity int `json:"quantity" binding:"required"`
}

func cartOwner(c *gin.Context) (services.CartOwner, bool) {
	owner, ok := middleware.GetCartOwner(c)
	if !ok {
		respondFailure(c, http.StatusBadRequest, "MISSING_SESSION", "A session is required to use the cart")
		return nil, false
	}
	return owner, true
}

// GetCart handles GET /api/v1/cart - returns the current shopper's cart
func GetCart(c *gin.Context) {
	owner, ok := cartOwner(c)
	if !ok {
		return
	}
	view, err := services.NewCartService(config.GetDB()).Get(c.Request.Context(), owner)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, view)
}

// AddCartItem handles POST /api/v1/cart - adds a line, replacing the quantity of an existing one
func AddCartItem(c *gin.Context) {
	owner, ok := cartOwner(c)
	if !ok {
		return
	}
	var req AddCartItemRequest
	if !bindJSON(c, &req) {
		return
	}

	item, err := services.NewCartService(config.GetDB()).AddItem(c.Request.Context(), owner, services.AddCartItemInput{
		ProductID:      req.ProductID,
		ProductColorID: req.ProductColorID,
		Quantity:       req.Quantity,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, item)
}

// UpdateCartItem handles PATCH /api/v1/cart/:itemId - sets the quantity of a line
func UpdateCartItem(c *gin.Context) {
	owner, ok := cartOwner(c)
	if !ok {
		return
	}
	itemID, ok := paramID(c, "itemId")
	if !ok {
		return
	}
	var req UpdateCartItemRequest
	if !bindJSON(c, &req) {
		return
	}

	item, err := services.NewCartService(config.GetDB()).UpdateItemQuantity(c.Request.Context(), owner, itemID, req.Quantity)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, item)
}

// RemoveCartItem handles DELETE /api/v1/cart/:itemId
func RemoveCartItem(c *gin.Context) {
	owner, ok := cartOwner(c)
	if !ok {
		return
	}
	itemID, ok := paramID(c, "itemId")
	if !ok {
		return
	}
	if err := services.NewCartService(config.GetDB()).RemoveItem(c.Request.Context(), owner, itemID); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, gin.H{"deleted": true})
}

// ClearCart handles DELETE /api/v1/cart - removes every line
func ClearCart(c *gin.Context) {
	owner, ok := cartOwner(c)
	if !ok {
		return
	}
	if err := services.NewCartService(config.GetDB()).Clear(c.Request.Context(), owner); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, gin.H{"cleared": true})
}
