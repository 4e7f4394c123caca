package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sareehouse/storefront-api/config"
	"github.com/sareehouse/storefront-api/middleware"
	"github.com/sareehouse/storefront-api/services"
)

func currentCustomer(c *gin.Context) (uint, bool) {
	id, ok := middleware.CustomerID(c)
	if !ok {
		respondFailure(c, http.StatusUnauthorized, "UNAUTHENTICATED", "Authentication required")
		return 0, false
	}
	return id, true
}

// ListAddresses handles GET /api/v1/addresses
func ListAddresses(c *gin.Context) {
	customerID, ok := currentCustomer(c)
	if !ok {
		return
	}
	addresses, err := services.NewAddressService(config.GetDB()).List(c.Request.Context(), customerID)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, addresses)
}

// CreateAddress handles POST /api/v1/addresses. The first address, or one sent with
// is_default, becomes the default.
func CreateAddress(c *gin.Context) {
	customerID, ok := currentCustomer(c)
	if !ok {
		return
	}
	var req services.AddressInput
	if !bindJSON(c, &req) {
		return
	}
	address, err := services.NewAddressService(config.GetDB()).Create(c.Request.Context(), customerID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	respondCreated(c, address)
}

// UpdateAddress handles PATCH /api/v1/addresses/:id
func UpdateAddress(c *gin.Context) {
	customerID, ok := currentCustomer(c)
	if !ok {
		return
	}
	addressID, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req services.AddressUpdate
	if !bindJSON(c, &req) {
		return
	}
	address, err := services.NewAddressService(config.GetDB()).Update(c.Request.Context(), customerID, addressID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, address)
}

// DeleteAddress handles DELETE /api/v1/addresses/:id
func DeleteAddress(c *gin.Context) {
	customerID, ok := currentCustomer(c)
	if !ok {
		return
	}
	addressID, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := services.NewAddressService(config.GetDB()).Delete(c.Request.Context(), customerID, addressID); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, gin.H{"deleted": true})
}
