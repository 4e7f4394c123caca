package controllers

import (
	"github.com/gin-gonic/gin"
	"github.com/sareehouse/storefront-api/config"
	"github.com/sareehouse/storefront-api/services"
)

// AdminListCustomers handles GET /api/v1/admin/customers with an optional ?q= search
func AdminListCustomers(c *gin.Context) {
	page, limit := pageParams(c)
	customers, total, err := services.NewCustomerService(config.GetDB()).List(c.Request.Context(), c.Query("q"), page, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	respondPage(c, customers, page, limit, total)
}

// AdminGetCustomer handles GET /api/v1/admin/customers/:id
func AdminGetCustomer(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	customer, err := services.NewCustomerService(config.GetDB()).Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, customer)
}

// AdminUpdateCustomer handles PATCH /api/v1/admin/customers/:id
func AdminUpdateCustomer(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req services.ProfileUpdate
	if !bindJSON(c, &req) {
		return
	}
	customer, err := services.NewCustomerService(config.GetDB()).UpdateProfile(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, customer)
}
