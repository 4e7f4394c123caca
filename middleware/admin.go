package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	zlog "github.com/rs/zerolog/log"
	"github.com/sareehouse/storefront-api/config"
	"github.com/sareehouse/storefront-api/models"
	"github.com/sareehouse/storefront-api/permissions"
	"github.com/sareehouse/storefront-api/services"
	"gorm.io/gorm"
)

// RequireAdmin only lets active staff sessions through. The account is re-read on every
// request so role changes and deactivation apply immediately.
func RequireAdmin(authz permissions.Authorizer) gin.HandlerFunc {
	return func(c *gin.Context) {
		kind, id, ok := principal(c)
		if !ok {
			abortWithError(c, http.StatusUnauthorized, "UNAUTHENTICATED", "Authentication required")
			return
		}
		if kind != services.KindAdmin {
			abortWithError(c, http.StatusForbidden, "FORBIDDEN", "Access denied")
			return
		}

		var admin models.AdminUser
		err := config.GetDB().WithContext(c.Request.Context()).First(&admin, id).Error
		if errors.Is(err, gorm.ErrRecordNotFound) || (err == nil && !admin.Active) {
			abortWithError(c, http.StatusUnauthorized, "UNAUTHENTICATED", "Authentication required")
			return
		}
		if err != nil {
			zlog.Error().Err(err).Uint("admin_id", id).Msg("failed to load admin user")
			abortWithError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "An unexpected error occurred")
			return
		}

		c.Set("admin_user", &admin)
		c.Set("permissions", authz.Permissions(admin.Role))
		c.Next()
	}
}

// RequireCapability rejects staff whose role lacks capability
func RequireCapability(capability permissions.Capability) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !GetPermissions(c).Allows(capability) {
			abortWithError(c, http.StatusForbidden, "FORBIDDEN", "Access denied")
			return
		}
		c.Next()
	}
}

// RequireAnyCapability rejects staff whose role has none of capabilities
func RequireAnyCapability(capabilities ...permissions.Capability) gin.HandlerFunc {
	return func(c *gin.Context) {
		perms := GetPermissions(c)
		for _, capability := range capabilities {
			if perms.Allows(capability) {
				c.Next()
				return
			}
		}
		abortWithError(c, http.StatusForbidden, "FORBIDDEN", "Access denied")
	}
}

// GetAdmin returns the staff account loaded by RequireAdmin
func GetAdmin(c *gin.Context) (*models.AdminUser, bool) {
	v, ok := c.Get("admin_user")
	if !ok {
		return nil, false
	}
	admin, ok := v.(*models.AdminUser)
	return admin, ok
}

// GetPermissions returns the capabilities stored by RequireAdmin, or the empty set
func GetPermissions(c *gin.Context) permissions.Set {
	v, ok := c.Get("permissions")
	if !ok {
		return permissions.Set{}
	}
	perms, _ := v.(permissions.Set)
	return perms
}
