package controllers

import (
	"github.com/gin-gonic/gin"
	"github.com/sareehouse/storefront-api/config"
	"github.com/sareehouse/storefront-api/services"
)

// GetMyProfile handles GET /api/v1/me - returns the signed-in customer with addresses
func GetMyProfile(c *gin.Context) {
	customerID, ok := currentCustomer(c)
	if !ok {
		return
	}
	customer, err := services.NewCustomerService(config.GetDB()).Get(c.Request.Context(), customerID)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, customer)
}

// UpdateMyProfile handles PATCH /api/v1/me - edits name and email
func UpdateMyProfile(c *gin.Context) {
	customerID, ok := currentCustomer(c)
	if !ok {
		return
	}
	var req services.ProfileUpdate
	if !bindJSON(c, &req) {
		return
	}
	customer, err := services.NewCustomerService(config.GetDB()).UpdateProfile(c.Request.Context(), customerID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, customer)
}
