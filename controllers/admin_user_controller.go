package controllers

import (
	"github.com/gin-gonic/gin"
	"github.com/sareehouse/storefront-api/config"
	"github.com/sareehouse/storefront-api/middleware"
	"github.com/sareehouse/storefront-api/permissions"
	"github.com/sareehouse/storefront-api/services"
)

// AdminMe handles GET /api/v1/admin/me - the signed-in staff member and their capabilities
func AdminMe(c *gin.Context) {
	admin, ok := middleware.GetAdmin(c)
	if !ok {
		respondError(c, services.ErrUnauthorized)
		return
	}
	respondOK(c, gin.H{
		"admin":       admin,
		"permissions": middleware.GetPermissions(c),
	})
}

// ListAdminUsers handles GET /api/v1/admin/users
func ListAdminUsers(c *gin.Context) {
	admins, err := services.NewAdminUserService(config.GetDB()).List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, admins)
}

// CreateAdminUser handles POST /api/v1/admin/users
func CreateAdminUser(c *gin.Context) {
	var req services.CreateAdminInput
	if !bindJSON(c, &req) {
		return
	}
	admin, err := services.NewAdminUserService(config.GetDB()).Create(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	respondCreated(c, gin.H{"admin": admin, "permissions": permissions.For(admin.Role)})
}

// UpdateAdminUser handles PUT /api/v1/admin/users/:id
func UpdateAdminUser(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req services.UpdateAdminInput
	if !bindJSON(c, &req) {
		return
	}
	admin, err := services.NewAdminUserService(config.GetDB()).Update(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, admin)
}

// DeactivateAdminUser handles DELETE /api/v1/admin/users/:id. Accounts are deactivated, not removed.
func DeactivateAdminUser(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := services.NewAdminUserService(config.GetDB()).Deactivate(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, gin.H{"deactivated": true})
}
