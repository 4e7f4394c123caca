package routes

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sareehouse/storefront-api/config"
	"github.com/sareehouse/storefront-api/controllers"
	"github.com/sareehouse/storefront-api/metrics"
	"github.com/sareehouse/storefront-api/middleware"
	"github.com/sareehouse/storefront-api/permissions"
)

// SetupRouter builds the gin engine with every API route registered
func SetupRouter(cfg *config.Config) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger())
	router.Use(metrics.Middleware())
	router.Use(cors.New(corsConfig(cfg)))

	router.GET("/metrics", metrics.Handler())

	v1 := router.Group("/api/v1")
	{
		v1.GET("/health", healthCheck)
		v1.GET("/database/status", databaseStatus)

		registerAuthRoutes(v1)
		registerStorefrontRoutes(v1, cfg)
		registerCustomerRoutes(v1, cfg)
		registerAdminRoutes(v1, cfg)
	}

	return router
}

func corsConfig(cfg *config.Config) cors.Config {
	return cors.Config{
		AllowOrigins:     cfg.CORSAllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", middleware.SessionHeader},
		ExposeHeaders:    []string{middleware.SessionHeader, middleware.RequestIDHeader, "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
}

func registerAuthRoutes(v1 *gin.RouterGroup) {
	auth := v1.Group("/auth")
	{
		auth.POST("/otp/request", controllers.RequestOTP)
		auth.POST("/otp/verify", controllers.VerifyOTP)
		auth.POST("/logout", controllers.Logout)
	}
	v1.POST("/admin/auth/login", controllers.AdminLogin)
}

// registerStorefrontRoutes covers the public catalog and the cart, which
// works for anonymous shoppers and signed-in customers alike
func registerStorefrontRoutes(v1 *gin.RouterGroup, cfg *config.Config) {
	v1.GET("/sections", controllers.ListStoreSections)
	v1.GET("/categories/:slug", controllers.GetStoreCategory)
	v1.GET("/products", controllers.ListStoreProducts)
	v1.GET("/products/:slug", controllers.GetStoreProduct)

	cart := v1.Group("/cart")
	cart.Use(middleware.OptionalToken(cfg), middleware.ResolveCartOwner())
	{
		cart.GET("", controllers.GetCart)
		cart.POST("", controllers.AddCartItem)
		cart.DELETE("", controllers.ClearCart)
		cart.PATCH("/:itemId", controllers.UpdateCartItem)
		cart.DELETE("/:itemId", controllers.RemoveCartItem)
	}
}

func registerCustomerRoutes(v1 *gin.RouterGroup, cfg *config.Config) {
	customer := v1.Group("")
	customer.Use(middleware.EnsureValidToken(cfg), middleware.RequireCustomer())
	{
		customer.GET("/me", controllers.GetMyProfile)
		customer.PATCH("/me", controllers.UpdateMyProfile)

		customer.GET("/addresses", controllers.ListAddresses)
		customer.POST("/addresses", controllers.CreateAddress)
		customer.PATCH("/addresses/:id", controllers.UpdateAddress)
		customer.DELETE("/addresses/:id", controllers.DeleteAddress)

		customer.GET("/orders", controllers.ListOrders)
		customer.POST("/orders", controllers.CreateOrder)
		customer.GET("/orders/:id", controllers.GetOrder)
		customer.POST("/orders/:id/cancel", controllers.CancelOrder)
	}
}

func registerAdminRoutes(v1 *gin.RouterGroup, cfg *config.Config) {
	admin := v1.Group("/admin")
	admin.Use(middleware.EnsureValidToken(cfg), middleware.RequireAdmin(permissions.Matrix{}))

	admin.GET("/me", controllers.AdminMe)

	can := middleware.RequireCapability

	sections := admin.Group("/sections")
	{
		sections.GET("", controllers.AdminListSections)
		sections.GET("/:id", controllers.AdminGetSection)
		sections.POST("", can(permissions.AddEditSections), controllers.AdminCreateSection)
		sections.PUT("/:id", can(permissions.AddEditSections), controllers.AdminUpdateSection)
		sections.DELETE("/:id", can(permissions.DeleteSections), controllers.AdminDeleteSection)
	}

	categories := admin.Group("/categories")
	{
		categories.GET("", controllers.AdminListCategories)
		categories.GET("/:id", controllers.AdminGetCategory)
		categories.POST("", can(permissions.AddEditCategories), controllers.AdminCreateCategory)
		categories.PUT("/:id", can(permissions.AddEditCategories), controllers.AdminUpdateCategory)
		categories.DELETE("/:id", can(permissions.DeleteCategories), controllers.AdminDeleteCategory)
	}

	products := admin.Group("/products")
	{
		products.GET("", controllers.AdminListProducts)
		products.GET("/:id", controllers.AdminGetProduct)
		products.POST("", can(permissions.AddEditProducts), controllers.AdminCreateProduct)
		products.PUT("/:id", can(permissions.AddEditProducts), controllers.AdminUpdateProduct)
		products.DELETE("/:id", can(permissions.DeleteProducts), controllers.AdminDeleteProduct)

		colors := products.Group("/:id/colors", can(permissions.AddEditProducts))
		colors.POST("", controllers.AdminAddColor)
		colors.PUT("/:colorId", controllers.AdminUpdateColor)
		colors.DELETE("/:colorId", controllers.AdminDeleteColor)
		colors.POST("/:colorId/images", controllers.UploadProductImage)
		colors.PUT("/:colorId/images/:imageId/primary", controllers.SetPrimaryProductImage)
		colors.DELETE("/:colorId/images/:imageId", controllers.DeleteProductImage)
	}

	orders := admin.Group("/orders")
	orders.Use(middleware.RequireAnyCapability(permissions.ViewAllOrders, permissions.ViewActiveOrders))
	{
		orders.GET("", controllers.AdminListOrders)
		orders.GET("/export", controllers.AdminExportOrders)
		orders.GET("/:id", controllers.AdminGetOrder)
		orders.PUT("/:id", can(permissions.UpdateOrderStatus), controllers.AdminUpdateOrderStatus)
	}

	users := admin.Group("/users")
	users.Use(can(permissions.ManageAdmins))
	{
		users.GET("", controllers.ListAdminUsers)
		users.POST("", controllers.CreateAdminUser)
		users.PUT("/:id", controllers.UpdateAdminUser)
		users.DELETE("/:id", controllers.DeactivateAdminUser)
	}

	customers := admin.Group("/customers")
	customers.Use(can(permissions.ViewCustomers))
	{
		customers.GET("", controllers.AdminListCustomers)
		customers.GET("/:id", controllers.AdminGetCustomer)
		customers.PATCH("/:id", can(permissions.ManageCustomers), controllers.AdminUpdateCustomer)
	}
}
