package controllers

import (
	"github.com/gin-gonic/gin"
	"github.com/sareehouse/storefront-api/config"
	"github.com/sareehouse/storefront-api/services"
)

// CreateOrder handles POST /api/v1/orders - places an order from the customer's cart
func CreateOrder(c *gin.Context) {
	customerID, ok := currentCustomer(c)
	if !ok {
		return
	}

	var req services.PlaceOrderInput
	if !bindJSON(c, &req) {
		return
	}

	order, err := services.NewOrderService(config.GetDB()).PlaceOrder(c.Request.Context(), customerID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	respondCreated(c, order)
}

// ListOrders handles GET /api/v1/orders - the customer's orders, newest first
func ListOrders(c *gin.Context) {
	customerID, ok := currentCustomer(c)
	if !ok {
		return
	}

	page, limit := pageParams(c)
	orders, total, err := services.NewOrderService(config.GetDB()).ListForCustomer(c.Request.Context(), customerID, page, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	respondPage(c, orders, page, limit, total)
}

// GetOrder handles GET /api/v1/orders/:id - 404 unless the order belongs to the customer
func GetOrder(c *gin.Context) {
	customerID, ok := currentCustomer(c)
	if !ok {
		return
	}
	orderID, ok := paramID(c, "id")
	if !ok {
		return
	}

	order, err := services.NewOrderService(config.GetDB()).GetForCustomer(c.Request.Context(), customerID, orderID)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, order)
}

// CancelOrder handles POST /api/v1/orders/:id/cancel
func CancelOrder(c *gin.Context) {
	customerID, ok := currentCustomer(c)
	if !ok {
		return
	}
	orderID, ok := paramID(c, "id")
	if !ok {
		return
	}

	order, err := services.NewOrderService(config.GetDB()).CancelForCustomer(c.Request.Context(), customerID, orderID)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, order)
}
