package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	zlog "github.com/rs/zerolog/log"
	"github.com/sareehouse/storefront-api/config"
)

// HealthMessage is returned by the health check endpoint
const HealthMessage = "Saree Storefront API is running"

// healthCheck handles the health check endpoint
func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": HealthMessage,
	})
}

// databaseStatus checks database connectivity and returns table information
func databaseStatus(c *gin.Context) {
	db := config.GetDB()
	if db == nil {
		dbFailure(c, "DATABASE_ERROR", "Database not configured", nil)
		return
	}

	// Get the underlying SQL database to check connection
	sqlDB, err := db.DB()
	if err != nil {
		dbFailure(c, "DATABASE_ERROR", "Failed to get database instance", err)
		return
	}

	if err := sqlDB.PingContext(c.Request.Context()); err != nil {
		dbFailure(c, "DATABASE_CONNECTION_ERROR", "Database connection failed", err)
		return
	}

	tables, err := db.Migrator().GetTables()
	if err != nil {
		dbFailure(c, "DATABASE_QUERY_ERROR", "Failed to query tables", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Database connected",
		"dialect": db.Dialector.Name(),
		"tables":  tables,
	})
}

func dbFailure(c *gin.Context, code, message string, err error) {
	zlog.Error().Err(err).Str("code", code).Msg(message)
	c.JSON(http.StatusInternalServerError, gin.H{
		"success": false,
		"error":   message,
		"code":    code,
	})
}
